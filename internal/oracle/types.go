package oracle

// Intent is the classified purpose of a user reply.
const (
	IntentAnswer     = "answer"
	IntentCorrection = "correction"
	IntentSupplement = "supplement"
	IntentSkip       = "skip"
	IntentWantToEnd  = "want_to_end"
	IntentConfirmEnd = "confirm_end"
	IntentContinue   = "continue"
)

// End confidence tiers reported by the extraction oracle.
const (
	ConfidenceWeak   = "weak"
	ConfidenceMedium = "medium"
	ConfidenceStrong = "strong"
)

// ExtractionResult is the strict JSON contract of the extraction call.
// Reasoning is diagnostic only and never drives control flow.
type ExtractionResult struct {
	Intent                        string            `json:"intent"`
	Updates                       map[string]string `json:"updates"`
	ShouldContinueCurrentQuestion bool              `json:"should_continue_current_question"`
	WantsToEnd                    bool              `json:"wants_to_end"`
	EndConfidence                 string            `json:"end_confidence"`
	HasMinimumInfo                bool              `json:"has_minimum_info"`
	Reasoning                     string            `json:"reasoning"`
}

// SupplementCheck is the strict JSON contract of the QA
// needs-supplement classifier.
type SupplementCheck struct {
	NeedsSupplement    bool     `json:"needs_supplement"`
	Reason             string   `json:"reason"`
	SupplementFields   []string `json:"supplement_fields"`
	SupplementQuestion string   `json:"supplement_question"`
}
