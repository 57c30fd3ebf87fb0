package collect

import (
	"strings"
	"testing"

	"github.com/rapport-labs/rapport/internal/catalog"
)

func TestDetectEndIntent(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"explicit end", "结束吧", true},
		{"end embedded in sentence", "我想先结束今天的问卷", true},
		{"tired of it", "别问了行吗", true},
		{"done for now", "先这样", true},
		{"normal answer", "他是我的大学同学", false},
		{"negative answer is not an end", "不知道", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectEndIntent(tt.message); got != tt.want {
				t.Errorf("DetectEndIntent(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyConfirmReply(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    ConfirmReply
	}{
		{"confirm", "确认", ReplyConfirm},
		{"ok", "好的", ReplyConfirm},
		{"uppercase OK", "OK", ReplyConfirm},
		{"yes", "yes", ReplyConfirm},
		{"short agreement", "嗯", ReplyConfirm},
		{"continue", "继续吧", ReplyContinue},
		{"think again", "再想想", ReplyContinue},
		{"more to add", "还有一些想说的", ReplyContinue},
		// 不是 contains 是: the continue set must win.
		{"negation beats agreement", "不是", ReplyContinue},
		{"unrelated", "今天天气不错", ReplyUnknown},
		{"empty", "", ReplyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyConfirmReply(tt.message); got != tt.want {
				t.Errorf("ClassifyConfirmReply(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestConfirmEndPromptListsValidFieldsOnly(t *testing.T) {
	cat := catalog.New(catalog.PerspectiveContact)
	prompt := confirmEndPrompt(cat, map[string]string{
		"relationship": "大学同学",
		"age":          "不知道",
		"occupation":   "医生",
	})

	if !strings.Contains(prompt, "关系：大学同学") {
		t.Errorf("prompt missing relationship line: %s", prompt)
	}
	if !strings.Contains(prompt, "职业：医生") {
		t.Errorf("prompt missing occupation line: %s", prompt)
	}
	if strings.Contains(prompt, "不知道") {
		t.Errorf("prompt should not list negative answers: %s", prompt)
	}
	if !strings.Contains(prompt, "确认") || !strings.Contains(prompt, "继续") {
		t.Errorf("prompt missing reply instructions: %s", prompt)
	}
}

func TestForcedMinimumQuestionNamesField(t *testing.T) {
	q := forcedMinimumQuestion("关系")
	if !strings.Contains(q, "「关系」") {
		t.Errorf("question should name the field: %s", q)
	}
}
