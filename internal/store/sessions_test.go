package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/session"
)

func TestCompositesRoundTrip(t *testing.T) {
	in := session.New(uuid.New(), catalog.PerspectiveContact, "小王", "basic_identity")
	in.CollectedData["age"] = "28岁"
	in.CompletedDimensions = []string{"basic_identity", "career"}
	in.AppendTurn("他多大？", "28岁", "answer")
	in.QAHistory = []session.QAEntry{{
		Timestamp: time.Now().UTC(),
		Question:  "他忙吗？",
		State:     session.QAPending,
	}}

	collected, history, qaHistory, completed, err := encodeComposites(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out session.Session
	if err := decodeComposites(&out, completed, collected, history, qaHistory); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.CollectedData["age"] != "28岁" {
		t.Errorf("collected data = %v", out.CollectedData)
	}
	if len(out.CompletedDimensions) != 2 || out.CompletedDimensions[1] != "career" {
		t.Errorf("completed dimensions = %v", out.CompletedDimensions)
	}
	if len(out.History) != 1 || out.History[0].UserMessage != "28岁" {
		t.Errorf("history = %+v", out.History)
	}
	if len(out.QAHistory) != 1 || out.QAHistory[0].State != session.QAPending {
		t.Errorf("qa history = %+v", out.QAHistory)
	}
}

func TestDecodeCompositesNilDataBecomesMap(t *testing.T) {
	var out session.Session
	if err := decodeComposites(&out, "null", "null", "null", "null"); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.CollectedData == nil {
		t.Error("nil collected data should decode to an empty map")
	}
}

func TestDecodeCompositesRejectsGarbage(t *testing.T) {
	var out session.Session
	if err := decodeComposites(&out, "{not json", "null", "null", "null"); err == nil {
		t.Error("expected error for corrupt column")
	}
}
