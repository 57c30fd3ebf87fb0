// Package selfvalue produces the 5-dimension psychometric self-value
// score vector. The calculator never fails: any unrecoverable oracle
// output degrades to the neutral default, which is what gets persisted.
package selfvalue

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Min and Max bound every score.
	Min = 1.0
	Max = 5.0

	neutral = 3.0
)

// SelfValue is the five-dimension score vector. Canonical serialization
// is a fixed-order, one-decimal comma string.
type SelfValue struct {
	SelfEsteem       float64 `json:"self_esteem"`
	SelfAcceptance   float64 `json:"self_acceptance"`
	SelfEfficacy     float64 `json:"self_efficacy"`
	ExistentialValue float64 `json:"existential_value"`
	SelfConsistency  float64 `json:"self_consistency"`
}

// Default is the all-3.0 neutral vector.
func Default() SelfValue {
	return SelfValue{
		SelfEsteem:       neutral,
		SelfAcceptance:   neutral,
		SelfEfficacy:     neutral,
		ExistentialValue: neutral,
		SelfConsistency:  neutral,
	}
}

func (v SelfValue) scores() [5]float64 {
	return [5]float64{v.SelfEsteem, v.SelfAcceptance, v.SelfEfficacy, v.ExistentialValue, v.SelfConsistency}
}

// Valid reports whether every score is inside [Min, Max].
func (v SelfValue) Valid() bool {
	for _, s := range v.scores() {
		if s < Min || s > Max {
			return false
		}
	}
	return true
}

// Format renders the canonical comma string, e.g. "3.5,3.0,4.0,3.0,2.5".
func (v SelfValue) Format() string {
	s := v.scores()
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strings.Join(parts, ",")
}

// Parse reads the canonical comma string back into a SelfValue.
func Parse(s string) (SelfValue, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 5 {
		return SelfValue{}, fmt.Errorf("self value: expected 5 scores, got %d", len(parts))
	}
	var scores [5]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return SelfValue{}, fmt.Errorf("self value: score %d: %w", i+1, err)
		}
		if f < Min || f > Max {
			return SelfValue{}, fmt.Errorf("self value: score %d out of range: %g", i+1, f)
		}
		scores[i] = f
	}
	return SelfValue{
		SelfEsteem:       scores[0],
		SelfAcceptance:   scores[1],
		SelfEfficacy:     scores[2],
		ExistentialValue: scores[3],
		SelfConsistency:  scores[4],
	}, nil
}
