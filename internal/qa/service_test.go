package qa

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/oracle"
	"github.com/rapport-labs/rapport/internal/session"
	"github.com/rapport-labs/rapport/internal/store"
)

type fakeOracle struct {
	check      *oracle.SupplementCheck
	checkErr   error
	answer     string
	answerErr  error
	rewritten  string
	rewriteErr error
	summary    string
	summaryErr error

	gotQuestion   string
	gotSupplement string
	gotHistory    []session.QAEntry
}

func (f *fakeOracle) CheckSupplement(_ context.Context, _, _ string) (*oracle.SupplementCheck, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	if f.check == nil {
		return &oracle.SupplementCheck{}, nil
	}
	return f.check, nil
}

func (f *fakeOracle) Answer(_ context.Context, _ string, history []session.QAEntry, question, supplement string) (string, error) {
	f.gotQuestion = question
	f.gotSupplement = supplement
	f.gotHistory = history
	if f.answerErr != nil {
		return "", f.answerErr
	}
	return f.answer, nil
}

func (f *fakeOracle) RewriteDescription(_ context.Context, _, _, _ string) (string, error) {
	if f.rewriteErr != nil {
		return "", f.rewriteErr
	}
	return f.rewritten, nil
}

func (f *fakeOracle) RelationshipSummary(_ context.Context, _, _ string) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

type fakeSessions struct {
	byID  map[uuid.UUID]*session.Session
	saves int
}

func (f *fakeSessions) GetSession(_ context.Context, id uuid.UUID) (*session.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) SaveSession(_ context.Context, s *session.Session) error {
	f.byID[s.ID] = s
	f.saves++
	return nil
}

type fakeProfiles struct {
	profile      *store.Profile
	descriptions map[string]string
	summaries    map[string]string
}

func (f *fakeProfiles) GetProfile(_ context.Context, _ string, _ uuid.UUID) (*store.Profile, error) {
	if f.profile == nil {
		return nil, store.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfiles) UpdateProfileDescription(_ context.Context, kind string, id uuid.UUID, description string) error {
	f.descriptions[kind+"/"+id.String()] = description
	return nil
}

func (f *fakeProfiles) UpdateProfileSummary(_ context.Context, kind string, id uuid.UUID, summary string) error {
	f.summaries[kind+"/"+id.String()] = summary
	return nil
}

type publishedEvent struct {
	kind, id, description, source string
}

type fakeBus struct{ events []publishedEvent }

func (f *fakeBus) PublishDescriptionUpdated(kind, id, description, source string) error {
	f.events = append(f.events, publishedEvent{kind, id, description, source})
	return nil
}

type inlinePool struct{ tasks []string }

func (p *inlinePool) Submit(name string, task func()) {
	p.tasks = append(p.tasks, name)
	task()
}

type fixture struct {
	svc      *Service
	oracle   *fakeOracle
	sessions *fakeSessions
	profiles *fakeProfiles
	bus      *fakeBus
	pool     *inlinePool
	sess     *session.Session
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	userID := uuid.New()
	contactID := uuid.New()
	now := time.Now().UTC()

	sess := &session.Session{
		ID:               uuid.New(),
		UserID:           userID,
		ContactID:        &contactID,
		ContactName:      "小王",
		Perspective:      catalog.PerspectiveContact,
		Status:           session.StatusCompleted,
		FinalDescription: "会话里的描述",
		CompletedAt:      &now,
	}

	f := &fixture{
		oracle: &fakeOracle{answer: "他28岁。", rewritten: "改写后的描述", summary: "关系分析"},
		sessions: &fakeSessions{
			byID: map[uuid.UUID]*session.Session{sess.ID: sess},
		},
		profiles: &fakeProfiles{
			profile:      &store.Profile{ID: contactID, Description: "档案里的描述"},
			descriptions: make(map[string]string),
			summaries:    make(map[string]string),
		},
		bus:    &fakeBus{},
		pool:   &inlinePool{},
		sess:   sess,
		userID: userID,
	}
	f.svc = NewService(f.oracle, f.sessions, f.profiles, f.bus, f.pool, slog.Default())
	return f
}

func TestProcessQuestion_DirectAnswer(t *testing.T) {
	f := newFixture(t)

	ans, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "他多大了？")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.NeedsMoreInfo || ans.Answer != "他28岁。" {
		t.Errorf("answer = %+v", ans)
	}

	entry := f.sess.LastQAEntry()
	if entry == nil || entry.State != session.QAAnswered || entry.Question != "他多大了？" {
		t.Errorf("qa entry = %+v", entry)
	}
	if f.sess.Status != session.StatusCompleted {
		t.Errorf("status = %s, should stay COMPLETED", f.sess.Status)
	}
}

func TestProcessQuestion_OpensSupplementFlow(t *testing.T) {
	f := newFixture(t)
	f.oracle.check = &oracle.SupplementCheck{
		NeedsSupplement:    true,
		SupplementQuestion: "TA是做什么工作的？",
	}

	ans, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "他工作忙吗？")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ans.NeedsMoreInfo || ans.SupplementQuestion != "TA是做什么工作的？" {
		t.Errorf("answer = %+v", ans)
	}
	if ans.Answer != "" {
		t.Errorf("no answer should be produced yet, got %q", ans.Answer)
	}

	if f.sess.Status != session.StatusQAActive {
		t.Errorf("status = %s, want QA_ACTIVE", f.sess.Status)
	}
	if f.sess.LastQuestion != "他工作忙吗？" {
		t.Errorf("lastQuestion = %q, want the original question verbatim", f.sess.LastQuestion)
	}
	entry := f.sess.LastQAEntry()
	if entry == nil || entry.State != session.QAPending || !entry.NeedsMoreInfo {
		t.Errorf("qa entry = %+v", entry)
	}
}

func TestProcessSupplementInfo(t *testing.T) {
	f := newFixture(t)
	f.oracle.check = &oracle.SupplementCheck{NeedsSupplement: true, SupplementQuestion: "TA是做什么工作的？"}
	if _, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "他工作忙吗？"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	ans, err := f.svc.ProcessSupplementInfo(context.Background(), f.sess.ID, f.userID, "他是急诊科医生")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Answer != "他28岁。" || ans.NeedsMoreInfo {
		t.Errorf("answer = %+v", ans)
	}

	// The original question is recovered from lastQuestion and the
	// supplement rides along.
	if f.oracle.gotQuestion != "他工作忙吗？" {
		t.Errorf("answered question = %q, want the original", f.oracle.gotQuestion)
	}
	if f.oracle.gotSupplement != "他是急诊科医生" {
		t.Errorf("supplement = %q", f.oracle.gotSupplement)
	}

	// The pending entry is completed in place, not appended.
	if len(f.sess.QAHistory) != 1 {
		t.Fatalf("qa history has %d entries, want 1", len(f.sess.QAHistory))
	}
	entry := f.sess.LastQAEntry()
	if entry.State != session.QASupplemented || entry.SupplementAnswer != "他是急诊科医生" || entry.NeedsMoreInfo {
		t.Errorf("qa entry = %+v", entry)
	}
	if f.sess.Status != session.StatusCompleted || f.sess.LastQuestion != "" {
		t.Errorf("session not restored: status=%s lastQuestion=%q", f.sess.Status, f.sess.LastQuestion)
	}

	// Async rewrite ran inline: profile updated and event published.
	cid := f.sess.ContactID.String()
	if got := f.profiles.descriptions["contact/"+cid]; got != "改写后的描述" {
		t.Errorf("rewritten description = %q", got)
	}
	if len(f.bus.events) != 1 || f.bus.events[0].source != "supplement" {
		t.Errorf("events = %+v", f.bus.events)
	}
}

func TestProcessSupplementInfo_RewriteFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.oracle.check = &oracle.SupplementCheck{NeedsSupplement: true, SupplementQuestion: "补充？"}
	if _, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "问题？"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	f.oracle.rewriteErr = errors.New("rewrite down")

	ans, err := f.svc.ProcessSupplementInfo(context.Background(), f.sess.ID, f.userID, "补充信息啊")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Answer == "" {
		t.Error("the answer itself should still be returned")
	}
	if len(f.bus.events) != 0 {
		t.Errorf("no event should fire for a failed rewrite: %+v", f.bus.events)
	}
}

func TestProcessSupplementInfo_WithoutPendingQuestion(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProcessSupplementInfo(context.Background(), f.sess.ID, f.userID, "补充信息")
	if !errors.Is(err, session.ErrInvalidStatus) {
		t.Errorf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestProcessQuestion_PersistedDescriptionPreferred(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "问题？"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The answered history passed to the oracle starts empty; the
	// description came from the profile row, not the session snapshot.
	if len(f.oracle.gotHistory) != 0 {
		t.Errorf("history = %+v", f.oracle.gotHistory)
	}
}

func TestGenerateSummary(t *testing.T) {
	f := newFixture(t)
	f.sess.QAHistory = []session.QAEntry{
		{Question: "他多大？", Answer: "28岁。", State: session.QAAnswered},
	}

	got, err := f.svc.GenerateSummary(context.Background(), f.sess.ID, f.userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "关系分析" {
		t.Errorf("summary = %q", got)
	}
	cid := f.sess.ContactID.String()
	if f.profiles.summaries["contact/"+cid] != "关系分析" {
		t.Error("summary should be persisted on the profile")
	}
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.EndSession(context.Background(), f.sess.ID, f.userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.sess.QAEndedAt == nil {
		t.Fatal("QAEndedAt should be stamped")
	}

	// Every later QA call is invalid-status.
	if _, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "问题？"); !errors.Is(err, session.ErrInvalidStatus) {
		t.Errorf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestLoadGuards(t *testing.T) {
	t.Run("foreign caller", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, uuid.New(), "问题？")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("active session not eligible", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Status = session.StatusActive
		_, err := f.svc.ProcessQuestion(context.Background(), f.sess.ID, f.userID, "问题？")
		if !errors.Is(err, session.ErrInvalidStatus) {
			t.Errorf("error = %v, want ErrInvalidStatus", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ProcessQuestion(context.Background(), uuid.New(), f.userID, "问题？")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestRenderQALog(t *testing.T) {
	log := renderQALog([]session.QAEntry{
		{Question: "他多大？", Answer: "28岁。", State: session.QAAnswered},
		{Question: "还没答的", State: session.QAPending},
		{Question: "他忙吗？", Answer: "挺忙的。", SupplementAnswer: "急诊科医生", State: session.QASupplemented},
	})

	want := "问：他多大？\n答：28岁。\n问：他忙吗？\n补充：急诊科医生\n答：挺忙的。\n"
	if log != want {
		t.Errorf("renderQALog = %q, want %q", log, want)
	}
}
