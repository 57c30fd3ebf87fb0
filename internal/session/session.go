// Package session defines the conversational state shared by the
// collection engine and the QA subsystem. One session row is loaded,
// mutated and saved once per inbound message.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/catalog"
)

// ErrInvalidStatus is returned when an operation is not valid for the
// session's current status.
var ErrInvalidStatus = errors.New("operation invalid for session status")

type Status string

const (
	StatusActive             Status = "ACTIVE"
	StatusRequestingMinimum  Status = "REQUESTING_MINIMUM"
	StatusConfirmingEnd      Status = "CONFIRMING_END"
	StatusCompleted          Status = "COMPLETED"
	StatusAbandoned          Status = "ABANDONED"
	StatusQAActive           Status = "QA_ACTIVE"
)

// Terminal reports whether no further collection transition is allowed.
// COMPLETED is terminal for collection but opens the QA flow.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Turn is one entry of the append-only collection conversation log.
type Turn struct {
	Question    string    `json:"question"`
	UserMessage string    `json:"user_message"`
	Intent      string    `json:"intent"`
	Timestamp   time.Time `json:"timestamp"`
}

// QAEntryState is the explicit lifecycle of a QA history entry. A
// pending entry carries the question and the supplement question; it is
// completed in place, never by positional index.
type QAEntryState string

const (
	QAPending      QAEntryState = "pending"
	QAAnswered     QAEntryState = "answered"
	QASupplemented QAEntryState = "supplemented"
)

type QAEntry struct {
	Timestamp          time.Time    `json:"timestamp"`
	Question           string       `json:"question"`
	Answer             string       `json:"answer,omitempty"`
	SupplementQuestion string       `json:"supplement_question,omitempty"`
	SupplementAnswer   string       `json:"supplement_answer,omitempty"`
	NeedsMoreInfo      bool         `json:"needs_more_info"`
	State              QAEntryState `json:"state"`
}

type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ContactID   *uuid.UUID
	ContactName string
	Perspective catalog.Perspective

	CurrentDimension    string
	CompletedDimensions []string
	CollectedData       map[string]string
	History             []Turn
	QAHistory           []QAEntry

	Status           Status
	LastQuestion     string
	FinalDescription string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	QAEndedAt   *time.Time
}

// New creates an active session positioned on the first catalog
// dimension.
func New(userID uuid.UUID, p catalog.Perspective, contactName string, firstDimension string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:               uuid.New(),
		UserID:           userID,
		ContactName:      contactName,
		Perspective:      p,
		CurrentDimension: firstDimension,
		CollectedData:    make(map[string]string),
		Status:           StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// MarkDimensionCompleted records a dimension as completed. Re-marking
// an already-completed dimension is a no-op.
func (s *Session) MarkDimensionCompleted(id string) {
	for _, d := range s.CompletedDimensions {
		if d == id {
			return
		}
	}
	s.CompletedDimensions = append(s.CompletedDimensions, id)
}

func (s *Session) DimensionCompleted(id string) bool {
	for _, d := range s.CompletedDimensions {
		if d == id {
			return true
		}
	}
	return false
}

func (s *Session) AppendTurn(question, userMessage, intent string) {
	s.History = append(s.History, Turn{
		Question:    question,
		UserMessage: userMessage,
		Intent:      intent,
		Timestamp:   time.Now().UTC(),
	})
}

// LastQAEntry returns the most recent QA history entry, or nil.
func (s *Session) LastQAEntry() *QAEntry {
	if len(s.QAHistory) == 0 {
		return nil
	}
	return &s.QAHistory[len(s.QAHistory)-1]
}

// EntityKind names the profile entity this session describes.
func (s *Session) EntityKind() string {
	if s.Perspective == catalog.PerspectiveSelf {
		return "user"
	}
	return "contact"
}

// EntityID returns the profile entity id: the linked contact for
// contact sessions, the subject user otherwise. ok is false while a
// contact session has no contact linked yet.
func (s *Session) EntityID() (uuid.UUID, bool) {
	if s.Perspective == catalog.PerspectiveSelf {
		return s.UserID, true
	}
	if s.ContactID == nil {
		return uuid.Nil, false
	}
	return *s.ContactID, true
}
