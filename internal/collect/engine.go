// Package collect implements the session-scoped collection state
// machine. One engine is instantiated per questionnaire perspective
// (contact and self); the catalog, question phrasing and finalize
// target are the only differences between the two.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/oracle"
	"github.com/rapport-labs/rapport/internal/progress"
	"github.com/rapport-labs/rapport/internal/selfvalue"
	"github.com/rapport-labs/rapport/internal/session"
	"github.com/rapport-labs/rapport/internal/store"
)

// Oracle is the slice of the oracle surface the engine needs.
type Oracle interface {
	Extract(ctx context.Context, cat *catalog.Catalog, subject string, dim catalog.Dimension, completed []string, collected map[string]string, lastQuestion, message string) (*oracle.ExtractionResult, error)
	NextQuestion(ctx context.Context, cat *catalog.Catalog, subject string, dim catalog.Dimension, collected map[string]string) (string, error)
	WriteDescription(ctx context.Context, cat *catalog.Catalog, subject string, collected map[string]string) (string, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	SaveSession(ctx context.Context, s *session.Session) error
}

type ProfileStore interface {
	CreateContact(ctx context.Context, userID uuid.UUID, name, description, selfValue string) (uuid.UUID, error)
	EnsureUserProfile(ctx context.Context, userID uuid.UUID) error
	UpdateProfileDescription(ctx context.Context, kind string, id uuid.UUID, description string) error
	UpdateProfileSelfValue(ctx context.Context, kind string, id uuid.UUID, selfValue string) error
}

type Publisher interface {
	PublishDescriptionUpdated(entityKind, entityID, description, source string) error
}

type Submitter interface {
	Submit(name string, task func())
}

type Scorer interface {
	FromData(ctx context.Context, data map[string]string) selfvalue.SelfValue
}

type Engine struct {
	cat      *catalog.Catalog
	oracle   Oracle
	sessions SessionStore
	profiles ProfileStore
	scorer   Scorer
	bus      Publisher
	pool     Submitter
	logger   *slog.Logger
}

func NewEngine(cat *catalog.Catalog, o Oracle, sessions SessionStore, profiles ProfileStore, scorer Scorer, bus Publisher, pool Submitter, logger *slog.Logger) *Engine {
	return &Engine{
		cat:      cat,
		oracle:   o,
		sessions: sessions,
		profiles: profiles,
		scorer:   scorer,
		bus:      bus,
		pool:     pool,
		logger:   logger,
	}
}

// Result is the per-message response returned to the API layer.
type Result struct {
	SessionID        uuid.UUID       `json:"session_id"`
	NextQuestion     string          `json:"next_question,omitempty"`
	Progress         int             `json:"progress"`
	CurrentDimension string          `json:"current_dimension"`
	Intent           string          `json:"intent,omitempty"`
	Status           session.Status  `json:"status"`
	IsCompleted      bool            `json:"is_completed"`
	FinalDescription string          `json:"final_description,omitempty"`
}

// ProgressInfo is the get-progress response.
type ProgressInfo struct {
	SessionID           uuid.UUID      `json:"session_id"`
	Progress            int            `json:"progress"`
	CurrentDimension    string         `json:"current_dimension"`
	CompletedDimensions int            `json:"completed_dimensions"`
	TotalDimensions     int            `json:"total_dimensions"`
	Status              session.Status `json:"status"`
}

// Start opens a new collection session and returns the first question.
func (e *Engine) Start(ctx context.Context, userID uuid.UUID, contactName string) (*Result, error) {
	first := e.cat.First()
	s := session.New(userID, e.cat.Perspective(), contactName, first.ID)
	s.LastQuestion = e.question(ctx, s, first)

	if err := e.sessions.CreateSession(ctx, s); err != nil {
		return nil, err
	}

	e.logger.Info("collection started",
		"session_id", s.ID,
		"user_id", userID,
		"perspective", string(e.cat.Perspective()),
	)
	return e.result(s, ""), nil
}

// HandleMessage runs one turn of the state machine. The session is
// loaded, mutated and saved exactly once; an oracle failure before the
// save is terminal for the turn and loses no persisted state.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, callerID uuid.UUID, message string) (*Result, error) {
	s, err := e.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	var res *Result
	switch s.Status {
	case session.StatusActive:
		res, err = e.handleActive(ctx, s, message)
	case session.StatusRequestingMinimum:
		res, err = e.handleRequestingMinimum(ctx, s, message)
	case session.StatusConfirmingEnd:
		res, err = e.handleConfirmingEnd(ctx, s, message)
	default:
		return nil, fmt.Errorf("%w: cannot handle message in status %s", session.ErrInvalidStatus, s.Status)
	}
	if err != nil {
		return nil, err
	}

	if err := e.sessions.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	return res, nil
}

// Progress reports the current score without mutating the session.
func (e *Engine) Progress(ctx context.Context, sessionID, callerID uuid.UUID) (*ProgressInfo, error) {
	s, err := e.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	return &ProgressInfo{
		SessionID:           s.ID,
		Progress:            progress.Score(e.cat, s.CompletedDimensions, s.CollectedData),
		CurrentDimension:    s.CurrentDimension,
		CompletedDimensions: len(s.CompletedDimensions),
		TotalDimensions:     e.cat.Len(),
		Status:              s.Status,
	}, nil
}

// Abandon transitions any non-terminal session to ABANDONED. The row
// is kept; abandon is never a delete.
func (e *Engine) Abandon(ctx context.Context, sessionID, callerID uuid.UUID) error {
	s, err := e.load(ctx, sessionID, callerID)
	if err != nil {
		return err
	}
	if s.Status.Terminal() {
		return fmt.Errorf("%w: cannot abandon session in status %s", session.ErrInvalidStatus, s.Status)
	}
	s.Status = session.StatusAbandoned
	s.LastQuestion = ""
	return e.sessions.SaveSession(ctx, s)
}

func (e *Engine) handleActive(ctx context.Context, s *session.Session, message string) (*Result, error) {
	dim, ok := e.cat.Get(s.CurrentDimension)
	if !ok {
		// ACTIVE invariant: currentDimension is always a valid catalog
		// dimension. A broken row is unrecoverable by this turn.
		return nil, fmt.Errorf("session %s has unknown dimension %q", s.ID, s.CurrentDimension)
	}

	ext, err := e.oracle.Extract(ctx, e.cat, s.ContactName, dim, s.CompletedDimensions, s.CollectedData, s.LastQuestion, message)
	if err != nil {
		return nil, err
	}

	e.mergeUpdates(s, ext.Updates)
	s.AppendTurn(s.LastQuestion, message, ext.Intent)

	score := progress.Score(e.cat, s.CompletedDimensions, s.CollectedData)
	hasMin := progress.HasMinimumInfo(s.CollectedData)

	// Two independent end signals: the deterministic local detector is
	// authoritative and bypasses oracle confidence tiering.
	localEnd := DetectEndIntent(message) ||
		(score == 100 && (progress.NegativeAnswer(message) || strings.TrimSpace(message) == ""))

	if localEnd {
		return e.handleEndIntent(ctx, s, ext, true, hasMin)
	}
	if ext.WantsToEnd {
		return e.handleEndIntent(ctx, s, ext, false, hasMin)
	}

	if !ext.ShouldContinueCurrentQuestion {
		s.MarkDimensionCompleted(dim.ID)
		s.CurrentDimension = e.cat.Next(dim.ID).ID
	}

	if e.isComplete(s) {
		return e.finalize(ctx, s, ext.Intent)
	}

	next, _ := e.cat.Get(s.CurrentDimension)
	s.LastQuestion = e.question(ctx, s, next)
	return e.result(s, ext.Intent), nil
}

// handleEndIntent applies the end-signal decision table.
func (e *Engine) handleEndIntent(ctx context.Context, s *session.Session, ext *oracle.ExtractionResult, localFired, hasMin bool) (*Result, error) {
	if localFired {
		if !hasMin {
			return e.requestMinimum(s, ext.Intent), nil
		}
		return e.confirmEnd(s, ext.Intent), nil
	}

	switch ext.EndConfidence {
	case oracle.ConfidenceStrong:
		if hasMin {
			return e.finalize(ctx, s, ext.Intent)
		}
		return e.requestMinimum(s, ext.Intent), nil
	case oracle.ConfidenceMedium:
		if hasMin {
			return e.confirmEnd(s, ext.Intent), nil
		}
		return e.requestMinimum(s, ext.Intent), nil
	default:
		// Weak (or unspecified) oracle end signal: treat as a skip of
		// the current dimension, no status change.
		s.MarkDimensionCompleted(s.CurrentDimension)
		s.CurrentDimension = e.cat.Next(s.CurrentDimension).ID
		next, _ := e.cat.Get(s.CurrentDimension)
		s.LastQuestion = e.question(ctx, s, next)
		return e.result(s, oracle.IntentSkip), nil
	}
}

func (e *Engine) handleRequestingMinimum(ctx context.Context, s *session.Session, message string) (*Result, error) {
	dim, _ := e.cat.Get(s.CurrentDimension)

	ext, err := e.oracle.Extract(ctx, e.cat, s.ContactName, dim, s.CompletedDimensions, s.CollectedData, s.LastQuestion, message)
	if err != nil {
		return nil, err
	}
	e.mergeUpdates(s, ext.Updates)
	s.AppendTurn(s.LastQuestion, message, ext.Intent)

	if progress.HasMinimumInfo(s.CollectedData) {
		return e.finalize(ctx, s, ext.Intent)
	}
	return e.requestMinimum(s, ext.Intent), nil
}

func (e *Engine) handleConfirmingEnd(ctx context.Context, s *session.Session, message string) (*Result, error) {
	switch ClassifyConfirmReply(message) {
	case ReplyContinue:
		s.AppendTurn(s.LastQuestion, message, oracle.IntentContinue)
		s.Status = session.StatusActive
		dim, _ := e.cat.Get(s.CurrentDimension)
		s.LastQuestion = e.question(ctx, s, dim)
		return e.result(s, oracle.IntentContinue), nil
	case ReplyConfirm:
		s.AppendTurn(s.LastQuestion, message, oracle.IntentConfirmEnd)
		return e.finalize(ctx, s, oracle.IntentConfirmEnd)
	default:
		// Unrecognized reply: re-ask the identical confirmation prompt.
		s.AppendTurn(s.LastQuestion, message, oracle.IntentAnswer)
		return e.result(s, oracle.IntentAnswer), nil
	}
}

// requestMinimum moves to REQUESTING_MINIMUM and asks for the single
// highest-priority missing field.
func (e *Engine) requestMinimum(s *session.Session, intent string) *Result {
	s.Status = session.StatusRequestingMinimum
	field := e.firstMissingMinimumField(s.CollectedData)
	s.LastQuestion = forcedMinimumQuestion(e.cat.FieldLabel(field))
	return e.result(s, intent)
}

// confirmEnd moves to CONFIRMING_END and asks for confirmation with a
// brief summary of the collected data.
func (e *Engine) confirmEnd(s *session.Session, intent string) *Result {
	s.Status = session.StatusConfirmingEnd
	s.LastQuestion = confirmEndPrompt(e.cat, s.CollectedData)
	return e.result(s, intent)
}

// isComplete is the completion guard.
func (e *Engine) isComplete(s *session.Session) bool {
	score := progress.Score(e.cat, s.CompletedDimensions, s.CollectedData)
	if score < 100 || !progress.HasMinimumInfo(s.CollectedData) {
		return false
	}
	return len(s.CompletedDimensions) == e.cat.Len() || s.Status == session.StatusConfirmingEnd
}

// mergeUpdates folds extracted updates into collected data,
// last-write-wins. Keys outside the catalog are dropped so collected
// data keys are always valid catalog field keys.
func (e *Engine) mergeUpdates(s *session.Session, updates map[string]string) {
	for k, v := range updates {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !e.cat.ValidField(k) {
			e.logger.Warn("dropping update for unknown field", "session_id", s.ID, "field", k)
			continue
		}
		s.CollectedData[k] = v
	}
}

// question asks the generator for the next question and falls back to
// the catalog template when the generator is unavailable, so a merged
// turn is never lost to a question-generation failure.
func (e *Engine) question(ctx context.Context, s *session.Session, dim catalog.Dimension) string {
	q, err := e.oracle.NextQuestion(ctx, e.cat, s.ContactName, dim, s.CollectedData)
	if err != nil {
		e.logger.Warn("question generation failed, using template", "session_id", s.ID, "dimension", dim.ID, "error", err)
		return e.cat.Question(dim.ID)
	}
	return q
}

// firstMissingMinimumField walks the fixed priority order
// relationship > age > occupation > interaction and returns the first
// field without a valid value.
func (e *Engine) firstMissingMinimumField(data map[string]string) string {
	fallback := ""
	for _, f := range minimumFieldPriority {
		if !e.cat.ValidField(f) {
			continue
		}
		if fallback == "" {
			fallback = f
		}
		if !progress.ValidField(data[f]) {
			return f
		}
	}
	return fallback
}

func (e *Engine) load(ctx context.Context, sessionID, callerID uuid.UUID) (*session.Session, error) {
	s, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID != callerID {
		return nil, store.ErrNotFound
	}
	if s.Perspective != e.cat.Perspective() {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (e *Engine) result(s *session.Session, intent string) *Result {
	return &Result{
		SessionID:        s.ID,
		NextQuestion:     s.LastQuestion,
		Progress:         progress.Score(e.cat, s.CompletedDimensions, s.CollectedData),
		CurrentDimension: s.CurrentDimension,
		Intent:           intent,
		Status:           s.Status,
		IsCompleted:      s.Status == session.StatusCompleted,
		FinalDescription: s.FinalDescription,
	}
}

// snapshot copies collected data for use on the worker pool after the
// request goroutine has moved on.
func snapshot(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
