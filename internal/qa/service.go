// Package qa implements the post-finalization question-answering flow,
// including the supplement-info sub-flow and the relationship summary.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/events"
	"github.com/rapport-labs/rapport/internal/oracle"
	"github.com/rapport-labs/rapport/internal/session"
	"github.com/rapport-labs/rapport/internal/store"
)

type Oracle interface {
	CheckSupplement(ctx context.Context, description, question string) (*oracle.SupplementCheck, error)
	Answer(ctx context.Context, description string, history []session.QAEntry, question, supplement string) (string, error)
	RewriteDescription(ctx context.Context, current, supplementQuestion, supplementAnswer string) (string, error)
	RelationshipSummary(ctx context.Context, description, qaLog string) (string, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	SaveSession(ctx context.Context, s *session.Session) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, kind string, id uuid.UUID) (*store.Profile, error)
	UpdateProfileDescription(ctx context.Context, kind string, id uuid.UUID, description string) error
	UpdateProfileSummary(ctx context.Context, kind string, id uuid.UUID, summary string) error
}

type Publisher interface {
	PublishDescriptionUpdated(entityKind, entityID, description, source string) error
}

type Submitter interface {
	Submit(name string, task func())
}

type Service struct {
	oracle   Oracle
	sessions SessionStore
	profiles ProfileStore
	bus      Publisher
	pool     Submitter
	logger   *slog.Logger
}

func NewService(o Oracle, sessions SessionStore, profiles ProfileStore, bus Publisher, pool Submitter, logger *slog.Logger) *Service {
	return &Service{
		oracle:   o,
		sessions: sessions,
		profiles: profiles,
		bus:      bus,
		pool:     pool,
		logger:   logger,
	}
}

// Answer is the response of ProcessQuestion / ProcessSupplementInfo.
type Answer struct {
	SessionID          uuid.UUID `json:"session_id"`
	Answer             string    `json:"answer,omitempty"`
	NeedsMoreInfo      bool      `json:"needs_more_info"`
	SupplementQuestion string    `json:"supplement_question,omitempty"`
}

// ProcessQuestion answers a question about the profiled person, or —
// when the classifier decides the profile lacks the required
// information — opens the supplement sub-flow instead of answering.
func (s *Service) ProcessQuestion(ctx context.Context, sessionID, callerID uuid.UUID, question string) (*Answer, error) {
	sess, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	desc, err := s.description(ctx, sess)
	if err != nil {
		return nil, err
	}

	chk, err := s.oracle.CheckSupplement(ctx, desc, question)
	if err != nil {
		return nil, err
	}

	if chk.NeedsSupplement && chk.SupplementQuestion != "" {
		// lastQuestion is the only durable copy of the pending question;
		// processSupplementInfo recovers it from there.
		sess.LastQuestion = question
		sess.Status = session.StatusQAActive
		sess.QAHistory = append(sess.QAHistory, session.QAEntry{
			Timestamp:          time.Now().UTC(),
			Question:           question,
			SupplementQuestion: chk.SupplementQuestion,
			NeedsMoreInfo:      true,
			State:              session.QAPending,
		})
		if err := s.sessions.SaveSession(ctx, sess); err != nil {
			return nil, err
		}
		return &Answer{
			SessionID:          sess.ID,
			NeedsMoreInfo:      true,
			SupplementQuestion: chk.SupplementQuestion,
		}, nil
	}

	answer, err := s.oracle.Answer(ctx, desc, sess.QAHistory, question, "")
	if err != nil {
		return nil, err
	}

	sess.QAHistory = append(sess.QAHistory, session.QAEntry{
		Timestamp: time.Now().UTC(),
		Question:  question,
		Answer:    answer,
		State:     session.QAAnswered,
	})
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return &Answer{SessionID: sess.ID, Answer: answer}, nil
}

// ProcessSupplementInfo resolves the pending question with the user's
// supplement, completes the pending history entry in place, and
// asynchronously blends the supplement into the profile description.
func (s *Service) ProcessSupplementInfo(ctx context.Context, sessionID, callerID uuid.UUID, info string) (*Answer, error) {
	sess, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusQAActive {
		return nil, fmt.Errorf("%w: no supplement pending in status %s", session.ErrInvalidStatus, sess.Status)
	}
	original := sess.LastQuestion
	entry := sess.LastQAEntry()
	if original == "" || entry == nil || entry.State != session.QAPending {
		return nil, fmt.Errorf("%w: no pending question to supplement", session.ErrInvalidStatus)
	}

	desc, err := s.description(ctx, sess)
	if err != nil {
		return nil, err
	}

	answer, err := s.oracle.Answer(ctx, desc, sess.QAHistory, original, info)
	if err != nil {
		return nil, err
	}

	entry.Answer = answer
	entry.SupplementAnswer = info
	entry.NeedsMoreInfo = false
	entry.State = session.QASupplemented
	sess.LastQuestion = ""
	sess.Status = session.StatusCompleted
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return nil, err
	}

	// The rewrite never blocks or fails the answered request.
	kind := sess.EntityKind()
	entityID, ok := sess.EntityID()
	if ok {
		supplementQ := entry.SupplementQuestion
		s.pool.Submit("description-rewrite", func() {
			bg := context.Background()
			rewritten, err := s.oracle.RewriteDescription(bg, desc, supplementQ, info)
			if err != nil {
				s.logger.Error("description rewrite failed", "session_id", sess.ID, "error", err)
				return
			}
			if err := s.profiles.UpdateProfileDescription(bg, kind, entityID, rewritten); err != nil {
				s.logger.Error("failed to store rewritten description", "entity_id", entityID, "error", err)
				return
			}
			if err := s.bus.PublishDescriptionUpdated(kind, entityID.String(), rewritten, events.SourceSupplement); err != nil {
				s.logger.Error("failed to publish description update", "entity_id", entityID, "error", err)
			}
		})
	}

	return &Answer{SessionID: sess.ID, Answer: answer}, nil
}

// GenerateSummary produces and stores the relationship analysis. This
// is the one retry-safe oracle call.
func (s *Service) GenerateSummary(ctx context.Context, sessionID, callerID uuid.UUID) (string, error) {
	sess, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return "", err
	}
	desc, err := s.description(ctx, sess)
	if err != nil {
		return "", err
	}

	summary, err := s.oracle.RelationshipSummary(ctx, desc, renderQALog(sess.QAHistory))
	if err != nil {
		return "", err
	}

	kind := sess.EntityKind()
	entityID, ok := sess.EntityID()
	if ok {
		if err := s.profiles.UpdateProfileSummary(ctx, kind, entityID, summary); err != nil {
			return "", err
		}
	}
	return summary, nil
}

// EndSession closes the QA flow; later QA calls are invalid-status.
func (s *Service) EndSession(ctx context.Context, sessionID, callerID uuid.UUID) error {
	sess, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	sess.QAEndedAt = &now
	sess.LastQuestion = ""
	sess.Status = session.StatusCompleted
	return s.sessions.SaveSession(ctx, sess)
}

// load fetches the session and verifies ownership and QA availability.
func (s *Service) load(ctx context.Context, sessionID, callerID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != callerID {
		return nil, store.ErrNotFound
	}
	if sess.Status != session.StatusCompleted && sess.Status != session.StatusQAActive {
		return nil, fmt.Errorf("%w: qa requires a completed session, status is %s", session.ErrInvalidStatus, sess.Status)
	}
	if sess.QAEndedAt != nil {
		return nil, fmt.Errorf("%w: qa already ended", session.ErrInvalidStatus)
	}
	return sess, nil
}

// description resolves the current profile description, preferring the
// persisted entity over the session snapshot.
func (s *Service) description(ctx context.Context, sess *session.Session) (string, error) {
	entityID, ok := sess.EntityID()
	if !ok {
		return "", store.ErrNotFound
	}
	p, err := s.profiles.GetProfile(ctx, sess.EntityKind(), entityID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Description) != "" {
		return p.Description, nil
	}
	return sess.FinalDescription, nil
}

func renderQALog(history []session.QAEntry) string {
	var b strings.Builder
	for _, e := range history {
		if e.State == session.QAPending {
			continue
		}
		fmt.Fprintf(&b, "问：%s\n", e.Question)
		if e.SupplementAnswer != "" {
			fmt.Fprintf(&b, "补充：%s\n", e.SupplementAnswer)
		}
		fmt.Fprintf(&b, "答：%s\n", e.Answer)
	}
	return b.String()
}
