// Package catalog holds the structured profiling questionnaire: 25
// dimensions grouped into 5 systems, each mapped to canonical field
// keys. A Catalog is built once at startup and injected; it is never
// mutated afterwards.
package catalog

// Perspective selects the pronoun frame of the questionnaire: profiling
// a contact (third person) or the user themself (second person).
type Perspective string

const (
	PerspectiveContact Perspective = "contact"
	PerspectiveSelf    Perspective = "self"
)

type Field struct {
	Key   string
	Label string
}

type Dimension struct {
	ID     string
	Name   string
	System string
	Fields []Field

	contactQuestion string
	selfQuestion    string
}

type Catalog struct {
	perspective Perspective
	dims        []Dimension
	index       map[string]int   // dimension id → position
	fields      map[string]Field // field key → field
	fieldOrder  []string         // canonical order for template rendering
	keyFields   []string
}

// New builds the full questionnaire catalog for the given perspective.
func New(p Perspective) *Catalog {
	return build(p, dimensionTable, keyFieldsFor(p))
}

// NewCustom builds a catalog from an explicit dimension list. Tests use
// it to run the engine over a smaller questionnaire.
func NewCustom(p Perspective, dims []Dimension, keyFields []string) *Catalog {
	return build(p, dims, keyFields)
}

func build(p Perspective, dims []Dimension, keyFields []string) *Catalog {
	c := &Catalog{
		perspective: p,
		dims:        make([]Dimension, len(dims)),
		index:       make(map[string]int, len(dims)),
		fields:      make(map[string]Field),
		keyFields:   keyFields,
	}
	copy(c.dims, dims)
	for i, d := range c.dims {
		c.index[d.ID] = i
		for _, f := range d.Fields {
			if _, dup := c.fields[f.Key]; !dup {
				c.fields[f.Key] = f
				c.fieldOrder = append(c.fieldOrder, f.Key)
			}
		}
	}
	return c
}

func (c *Catalog) Perspective() Perspective { return c.perspective }

func (c *Catalog) Len() int { return len(c.dims) }

// Dimensions returns the ordered dimension list. Callers must not
// modify the returned slice.
func (c *Catalog) Dimensions() []Dimension { return c.dims }

func (c *Catalog) First() Dimension { return c.dims[0] }

func (c *Catalog) Get(id string) (Dimension, bool) {
	i, ok := c.index[id]
	if !ok {
		return Dimension{}, false
	}
	return c.dims[i], true
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Next returns the dimension following id. At the tail of the catalog
// it returns the last dimension again (the questionnaire is sticky at
// the end, not cyclic).
func (c *Catalog) Next(id string) Dimension {
	i, ok := c.index[id]
	if !ok || i+1 >= len(c.dims) {
		return c.dims[len(c.dims)-1]
	}
	return c.dims[i+1]
}

func (c *Catalog) IsLast(id string) bool {
	i, ok := c.index[id]
	return ok && i == len(c.dims)-1
}

// Question returns the template question for a dimension in this
// catalog's perspective. Used as the deterministic fallback when the
// question generator is unavailable.
func (c *Catalog) Question(id string) string {
	d, ok := c.Get(id)
	if !ok {
		return ""
	}
	if c.perspective == PerspectiveSelf {
		return d.selfQuestion
	}
	return d.contactQuestion
}

func (c *Catalog) ValidField(key string) bool {
	_, ok := c.fields[key]
	return ok
}

func (c *Catalog) FieldLabel(key string) string {
	f, ok := c.fields[key]
	if !ok {
		return key
	}
	return f.Label
}

// FieldOrder returns every field key in canonical catalog order.
func (c *Catalog) FieldOrder() []string { return c.fieldOrder }

// KeyFields returns the small fixed field set used by the progress
// quality score.
func (c *Catalog) KeyFields() []string { return c.keyFields }

func keyFieldsFor(p Perspective) []string {
	if p == PerspectiveSelf {
		return []string{"age", "occupation", "personality", "education", "hobbies", "values"}
	}
	return []string{"age", "occupation", "relationship", "interaction", "personality", "education"}
}
