package collect

import (
	"fmt"
	"strings"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/progress"
)

// endKeywords is the deterministic local end-intent vocabulary. A hit
// here is authoritative regardless of what the oracle reported.
var endKeywords = []string{
	"结束",
	"不想说了",
	"不想继续",
	"就这样吧",
	"到此为止",
	"先这样",
	"别问了",
	"不聊了",
}

// DetectEndIntent reports whether the raw message carries a local
// end-of-questionnaire signal.
func DetectEndIntent(message string) bool {
	m := strings.TrimSpace(message)
	for _, kw := range endKeywords {
		if strings.Contains(m, kw) {
			return true
		}
	}
	return false
}

// ConfirmReply classifies a reply in CONFIRMING_END.
type ConfirmReply int

const (
	ReplyUnknown ConfirmReply = iota
	ReplyConfirm
	ReplyContinue
)

// continueReplies is checked before confirmReplies: "不是" contains
// "是" and must win.
var continueReplies = []string{"继续", "再想想", "还有", "补充", "不是"}

var confirmReplies = []string{"确认", "可以", "好的", "好", "是", "嗯", "对", "ok", "yes"}

// ClassifyConfirmReply matches the reply against the fixed phrase sets.
func ClassifyConfirmReply(message string) ConfirmReply {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return ReplyUnknown
	}
	for _, p := range continueReplies {
		if strings.Contains(m, p) {
			return ReplyContinue
		}
	}
	for _, p := range confirmReplies {
		if strings.Contains(m, p) {
			return ReplyConfirm
		}
	}
	return ReplyUnknown
}

// minimumFieldPriority is the fixed order used when forcing minimum
// info before an early end.
var minimumFieldPriority = []string{"relationship", "age", "occupation", "interaction"}

func forcedMinimumQuestion(fieldLabel string) string {
	return fmt.Sprintf("好的，我们可以就聊到这里。不过在结束之前，能简单告诉我「%s」吗？有了这一点我才能为你把这份档案建立起来。", fieldLabel)
}

func confirmEndPrompt(cat *catalog.Catalog, collected map[string]string) string {
	var b strings.Builder
	b.WriteString("好的，和你确认一下：要结束这次信息收集吗？目前我记录到的是：\n")
	for _, key := range cat.FieldOrder() {
		if v, ok := collected[key]; ok && progress.ValidField(v) {
			fmt.Fprintf(&b, "· %s：%s\n", cat.FieldLabel(key), v)
		}
	}
	b.WriteString("回复「确认」就结束并保存，回复「继续」我们再多聊几句。")
	return b.String()
}
