package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/events"
	"github.com/rapport-labs/rapport/internal/progress"
	"github.com/rapport-labs/rapport/internal/session"
	"github.com/rapport-labs/rapport/internal/store"
)

// forbiddenPhrases are generic-flattery markers. An oracle-authored
// description containing any of them is rejected as fabrication.
var forbiddenPhrases = []string{
	"一个很棒的人",
	"非常优秀",
	"完美的人",
	"无可挑剔",
	"人见人爱",
	"不可多得",
	"闪闪发光",
}

// finalize builds and persists the profile, closes the session, and
// fires async self-value scoring. Description building never fails the
// flow: the deterministic template is the floor.
func (e *Engine) finalize(ctx context.Context, s *session.Session, intent string) (*Result, error) {
	desc := e.buildDescription(ctx, s)

	kind := s.EntityKind()
	if s.Perspective == catalog.PerspectiveSelf {
		if err := e.profiles.EnsureUserProfile(ctx, s.UserID); err != nil {
			return nil, err
		}
		if err := e.profiles.UpdateProfileDescription(ctx, store.KindUser, s.UserID, desc); err != nil {
			return nil, err
		}
	} else if s.ContactID != nil {
		if err := e.profiles.UpdateProfileDescription(ctx, store.KindContact, *s.ContactID, desc); err != nil {
			return nil, err
		}
	} else {
		id, err := e.profiles.CreateContact(ctx, s.UserID, s.ContactName, desc, "")
		if err != nil {
			return nil, err
		}
		s.ContactID = &id
	}

	now := time.Now().UTC()
	s.Status = session.StatusCompleted
	s.LastQuestion = ""
	s.CompletedAt = &now
	s.FinalDescription = desc

	entityID, _ := s.EntityID()

	// Self-value scoring runs off the request path on the raw collected
	// data; profile creation never blocks on it.
	data := snapshot(s.CollectedData)
	e.pool.Submit("self-value", func() {
		bg := context.Background()
		sv := e.scorer.FromData(bg, data)
		if err := e.profiles.UpdateProfileSelfValue(bg, kind, entityID, sv.Format()); err != nil {
			e.logger.Error("failed to store self value", "entity_id", entityID, "error", err)
		}
	})

	if err := e.bus.PublishDescriptionUpdated(kind, entityID.String(), desc, events.SourceFinalize); err != nil {
		e.logger.Error("failed to publish description update", "entity_id", entityID, "error", err)
	}

	e.logger.Info("collection finalized",
		"session_id", s.ID,
		"entity_kind", kind,
		"entity_id", entityID,
		"fields", len(s.CollectedData),
	)

	return e.result(s, intent), nil
}

// buildDescription prefers an oracle-authored description but only
// keeps it if it passes validation; everything else falls back to the
// deterministic template. The description is built strictly from
// collected data, never inferred.
func (e *Engine) buildDescription(ctx context.Context, s *session.Session) string {
	authored, err := e.oracle.WriteDescription(ctx, e.cat, s.ContactName, s.CollectedData)
	if err != nil {
		e.logger.Warn("description authoring failed, using template", "session_id", s.ID, "error", err)
		return TemplateDescription(e.cat, s.ContactName, s.CollectedData)
	}
	if !ValidateDescription(authored, s.CollectedData) {
		e.logger.Warn("authored description failed validation, using template", "session_id", s.ID)
		return TemplateDescription(e.cat, s.ContactName, s.CollectedData)
	}
	return authored
}

// ValidateDescription applies the safety net against oracle
// fabrication: no forbidden generic-flattery phrase, and the text must
// literally contain at least one collected value.
func ValidateDescription(desc string, collected map[string]string) bool {
	d := strings.TrimSpace(desc)
	if d == "" {
		return false
	}
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(d, phrase) {
			return false
		}
	}
	for _, v := range collected {
		v = strings.TrimSpace(v)
		if progress.ValidField(v) && strings.Contains(d, v) {
			return true
		}
	}
	return false
}

// TemplateDescription is the deterministic fallback: field-by-field
// concatenation in fixed catalog order.
func TemplateDescription(cat *catalog.Catalog, subject string, collected map[string]string) string {
	var parts []string
	for _, key := range cat.FieldOrder() {
		if v, ok := collected[key]; ok && strings.TrimSpace(v) != "" {
			parts = append(parts, fmt.Sprintf("%s：%s", cat.FieldLabel(key), strings.TrimSpace(v)))
		}
	}
	header := "个人档案"
	if cat.Perspective() == catalog.PerspectiveContact && subject != "" {
		header = subject
	}
	return header + " — " + strings.Join(parts, "；")
}
