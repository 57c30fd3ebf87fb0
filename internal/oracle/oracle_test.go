package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/llm"
	"github.com/rapport-labs/rapport/internal/session"
)

// completionServer returns an httptest server that always answers with
// the given assistant content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func newOracle(serverURL string) *Oracle {
	client := llm.NewClient("test-key", serverURL, "chat-model", "reasoner-model")
	return New(client, slog.Default())
}

func TestExtract_Success(t *testing.T) {
	server := completionServer(t, `{
		"intent": "answer",
		"updates": {"age": "28岁", "occupation": "医生"},
		"should_continue_current_question": false,
		"wants_to_end": false,
		"end_confidence": "weak",
		"has_minimum_info": true,
		"reasoning": "用户直接回答了问题"
	}`)
	defer server.Close()

	cat := catalog.New(catalog.PerspectiveContact)
	o := newOracle(server.URL)

	res, err := o.Extract(context.Background(), cat, "小王", cat.First(), nil, map[string]string{}, "TA多大了？", "28岁，是个医生")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Intent != IntentAnswer {
		t.Errorf("intent = %q, want answer", res.Intent)
	}
	if res.Updates["age"] != "28岁" || res.Updates["occupation"] != "医生" {
		t.Errorf("updates = %v", res.Updates)
	}
	if res.ShouldContinueCurrentQuestion {
		t.Error("should_continue_current_question should be false")
	}
}

func TestExtract_FencedJSON(t *testing.T) {
	server := completionServer(t, "```json\n{\"intent\": \"skip\", \"updates\": {}}\n```")
	defer server.Close()

	cat := catalog.New(catalog.PerspectiveContact)
	o := newOracle(server.URL)

	res, err := o.Extract(context.Background(), cat, "", cat.First(), nil, nil, "", "不知道")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Intent != IntentSkip {
		t.Errorf("intent = %q, want skip", res.Intent)
	}
}

func TestExtract_MalformedResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prose instead of json", "用户回答了年龄问题。"},
		{"missing intent", `{"updates": {"age": "28岁"}}`},
		{"truncated json", `{"intent": "answer", "updates":`},
	}

	cat := catalog.New(catalog.PerspectiveContact)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := completionServer(t, tt.content)
			defer server.Close()

			o := newOracle(server.URL)
			_, err := o.Extract(context.Background(), cat, "", cat.First(), nil, nil, "", "你好")
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestExtract_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cat := catalog.New(catalog.PerspectiveContact)
	o := newOracle(server.URL)

	_, err := o.Extract(context.Background(), cat, "", cat.First(), nil, nil, "", "你好")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestNextQuestion(t *testing.T) {
	server := completionServer(t, "  那TA平时喜欢做什么呢？  ")
	defer server.Close()

	cat := catalog.New(catalog.PerspectiveContact)
	o := newOracle(server.URL)

	q, err := o.NextQuestion(context.Background(), cat, "小王", cat.First(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "那TA平时喜欢做什么呢？" {
		t.Errorf("question = %q", q)
	}
}

func TestNextQuestion_Empty(t *testing.T) {
	server := completionServer(t, "   ")
	defer server.Close()

	cat := catalog.New(catalog.PerspectiveContact)
	o := newOracle(server.URL)

	_, err := o.NextQuestion(context.Background(), cat, "", cat.First(), nil)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestCheckSupplement(t *testing.T) {
	server := completionServer(t, `{
		"needs_supplement": true,
		"reason": "档案中没有工作信息",
		"supplement_fields": ["occupation"],
		"supplement_question": "TA是做什么工作的？"
	}`)
	defer server.Close()

	o := newOracle(server.URL)
	chk, err := o.CheckSupplement(context.Background(), "小王的档案", "他工作压力大吗？")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !chk.NeedsSupplement || chk.SupplementQuestion != "TA是做什么工作的？" {
		t.Errorf("check = %+v", chk)
	}
}

func TestAnswer_SkipsPendingHistory(t *testing.T) {
	var got []llm.Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = req.Messages
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "他应该会喜欢的。"}},
			},
		})
	}))
	defer server.Close()

	history := []session.QAEntry{
		{Question: "他多大？", Answer: "28岁。", State: session.QAAnswered},
		{Question: "他喜欢什么颜色？", State: session.QAPending},
	}

	o := newOracle(server.URL)
	ans, err := o.Answer(context.Background(), "小王的档案", history, "送他什么礼物好？", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans != "他应该会喜欢的。" {
		t.Errorf("answer = %q", ans)
	}

	// system + answered pair + the new question; the pending entry is
	// never replayed.
	if len(got) != 4 {
		t.Fatalf("replayed %d messages, want 4: %+v", len(got), got)
	}
	for _, m := range got {
		if m.Content == "他喜欢什么颜色？" {
			t.Error("pending QA entry was replayed into the conversation")
		}
	}
	if got[len(got)-1].Content != "送他什么礼物好？" {
		t.Errorf("last message = %q, want the new question", got[len(got)-1].Content)
	}
}

func TestAnswer_SupplementAppendsExtraTurn(t *testing.T) {
	var got []llm.Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = req.Messages
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "好的。"}},
			},
		})
	}))
	defer server.Close()

	o := newOracle(server.URL)
	if _, err := o.Answer(context.Background(), "档案", nil, "他忙吗？", "他是急诊科医生"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// system, question, assistant stub, supplement.
	if len(got) != 4 {
		t.Fatalf("replayed %d messages, want 4: %+v", len(got), got)
	}
	if got[2].Role != "assistant" || got[3].Content != "他是急诊科医生" {
		t.Errorf("supplement turn shape wrong: %+v", got[2:])
	}
}

func TestRelationshipSummary_CtxCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	o := newOracle(server.URL)
	_, err := o.RelationshipSummary(ctx, "档案", "问：...\n答：...")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
