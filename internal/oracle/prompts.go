package oracle

import (
	"fmt"
	"strings"

	"github.com/rapport-labs/rapport/internal/catalog"
)

// Prompts are pure functions of (subject identity, dimension, full
// taxonomy, completed dimensions, collected data, last utterance). The
// full taxonomy is always embedded so extraction never drifts into ad
// hoc field names.

const extractionSystemPrompt = `你是一个信息采集助手，负责从用户的自由回复中抽取结构化的人物信息。

你要完成两件事：
1. 判断用户这条回复的意图（intent），取值只能是以下之一：
   answer（正面回答当前问题）、correction（修正之前说过的信息）、
   supplement（补充额外信息）、skip（表示不知道/跳过）、
   want_to_end（想结束问卷）、confirm_end（确认结束）、continue（想继续聊）。
2. 把回复中出现的所有人物信息抽取到 updates 中，键必须从下方字段表中选取，不得自创键名。

其它规则：
- should_continue_current_question：当前维度还有明显未回答的内容且用户在配合时为 true。
- wants_to_end / end_confidence：用户是否流露结束意愿及其强度（weak/medium/strong）。
- has_minimum_info：已收集数据中只要存在至少 1 个有效字段（非空、非"不知道"类回答）即为 true。
- reasoning：一句话说明你的判断依据，仅用于诊断。
- 只返回 JSON 对象本身，不要 markdown 代码块，不要多余文字。

返回格式：
{"intent":"answer","updates":{"字段":"值"},"should_continue_current_question":false,"wants_to_end":false,"end_confidence":"weak","has_minimum_info":false,"reasoning":"..."}`

func extractionUserPrompt(cat *catalog.Catalog, subject string, dim catalog.Dimension, completed []string, collected map[string]string, lastQuestion, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "采集对象：%s\n", subjectLine(cat.Perspective(), subject))
	fmt.Fprintf(&b, "当前维度：%s（%s）\n", dim.Name, dim.ID)
	fmt.Fprintf(&b, "刚才的提问：%s\n\n", lastQuestion)
	b.WriteString("完整字段表：\n")
	b.WriteString(renderTaxonomy(cat))
	fmt.Fprintf(&b, "\n已完成维度：%s\n", strings.Join(completed, "、"))
	b.WriteString("已收集数据：\n")
	b.WriteString(renderCollected(cat, collected))
	fmt.Fprintf(&b, "\n用户回复：\n%s\n", message)
	return b.String()
}

const questionSystemPrompt = `你是一个温和自然的访谈者，正在通过聊天逐步了解一个人。根据当前维度和已收集的信息，提出下一个问题。

要求：
- 问题紧扣当前维度，但语气自然，像朋友聊天，不要像审问。
- 不要重复已经收集到的信息，可以顺着已知信息追问。
- 一次只问一个问题，一两句话，不要输出问题以外的任何内容。`

func questionUserPrompt(cat *catalog.Catalog, subject string, dim catalog.Dimension, collected map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "采集对象：%s\n", subjectLine(cat.Perspective(), subject))
	fmt.Fprintf(&b, "当前维度：%s，关注字段：%s\n", dim.Name, fieldLabels(dim))
	b.WriteString("已收集数据：\n")
	b.WriteString(renderCollected(cat, collected))
	b.WriteString("\n请给出下一个问题。")
	return b.String()
}

const supplementSystemPrompt = `你是一个问答助手的前置分类器。给定一份人物资料和用户的问题，判断现有资料是否足以回答该问题。

- 如果资料已经足够，needs_supplement 为 false。
- 如果确实缺少回答所必需的信息，needs_supplement 为 true，列出缺少的方面，并给出一个向用户追问的问题（supplement_question），语气自然。
- 只返回 JSON 对象本身，不要多余文字。

返回格式：
{"needs_supplement":false,"reason":"...","supplement_fields":["..."],"supplement_question":"..."}`

func supplementUserPrompt(description, question string) string {
	return fmt.Sprintf("人物资料：\n%s\n\n用户问题：\n%s", description, question)
}

func answerSystemPrompt(description string) string {
	return fmt.Sprintf(`你是一个人际关系顾问。以下是一份人物资料，请基于资料回答用户关于这个人的问题。

- 回答要具体、贴合资料，不要编造资料中没有的事实。
- 资料没有的内容可以基于资料合理推测，但要说明是推测。
- 结合之前的对话上下文理解代词和指代。

人物资料：
%s`, description)
}

const writeDescriptionSystemPrompt = `根据以下结构化信息写一段人物描述。

要求：
- 只使用给出的信息，严禁编造或引申没有依据的内容。
- 语言平实客观，不要泛泛的恭维。
- 一段连贯的中文，200字以内。
- 只输出描述本身。`

func writeDescriptionUserPrompt(cat *catalog.Catalog, subject string, collected map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "对象：%s\n", subjectLine(cat.Perspective(), subject))
	b.WriteString("信息：\n")
	b.WriteString(renderCollected(cat, collected))
	return b.String()
}

const rewriteDescriptionSystemPrompt = `下面是一段人物描述，以及一轮新的补充问答。请把补充信息融合进描述。

要求：
- 不得删除与补充内容无关的原有信息。
- 补充信息与原描述冲突时，以补充信息为准。
- 保持原有的平实语气，只输出更新后的完整描述。`

func rewriteDescriptionUserPrompt(current, supplementQuestion, supplementAnswer string) string {
	return fmt.Sprintf("当前描述：\n%s\n\n追问：%s\n用户补充：%s", current, supplementQuestion, supplementAnswer)
}

const summarySystemPrompt = `你是一位人际关系分析师。基于人物资料和问答记录，输出一份关系分析总结：这个人的核心特点、与用户的关系状态、相处建议。三到五段，具体务实，不要套话。`

func summaryUserPrompt(description string, qaLog string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "人物资料：\n%s\n", description)
	if qaLog != "" {
		fmt.Fprintf(&b, "\n问答记录：\n%s", qaLog)
	}
	return b.String()
}

// renderTaxonomy renders the full 5-system dimension/field table.
func renderTaxonomy(cat *catalog.Catalog) string {
	var b strings.Builder
	system := ""
	for _, d := range cat.Dimensions() {
		if d.System != system {
			system = d.System
			fmt.Fprintf(&b, "【%s】\n", system)
		}
		fmt.Fprintf(&b, "- %s（%s）：", d.Name, d.ID)
		for i, f := range d.Fields {
			if i > 0 {
				b.WriteString("，")
			}
			fmt.Fprintf(&b, "%s=%s", f.Key, f.Label)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderCollected(cat *catalog.Catalog, collected map[string]string) string {
	if len(collected) == 0 {
		return "（暂无）\n"
	}
	var b strings.Builder
	for _, key := range cat.FieldOrder() {
		if v, ok := collected[key]; ok && v != "" {
			fmt.Fprintf(&b, "%s：%s\n", cat.FieldLabel(key), v)
		}
	}
	return b.String()
}

func fieldLabels(dim catalog.Dimension) string {
	labels := make([]string, len(dim.Fields))
	for i, f := range dim.Fields {
		labels[i] = f.Label
	}
	return strings.Join(labels, "、")
}

func subjectLine(p catalog.Perspective, subject string) string {
	if p == catalog.PerspectiveSelf {
		return "用户本人"
	}
	if subject == "" {
		return "用户的一位联系人"
	}
	return "用户的联系人「" + subject + "」"
}
