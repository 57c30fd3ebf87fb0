package selfvalue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rapport-labs/rapport/internal/llm"
)

const evalTimeout = 60 * time.Second

const evalSystemPrompt = `你是一位心理测评专家。根据用户提供的个人资料，从以下五个维度评估此人的自我价值水平，每个维度打分1.0到5.0（一位小数），3.0为中性基准：
1. self_esteem 自尊水平
2. self_acceptance 自我接纳
3. self_efficacy 自我效能
4. existential_value 存在价值感
5. self_consistency 自我一致性

只返回如下JSON对象，不要输出其它内容：
{"self_esteem": 3.0, "self_acceptance": 3.0, "self_efficacy": 3.0, "existential_value": 3.0, "self_consistency": 3.0}`

// Calculator scores profile material via the oracle. It always yields
// a valid SelfValue; total failure yields the neutral default.
type Calculator struct {
	llm    *llm.Client
	logger *slog.Logger
}

func NewCalculator(c *llm.Client, logger *slog.Logger) *Calculator {
	return &Calculator{llm: c, logger: logger}
}

// FromData scores a collected field map.
func (c *Calculator) FromData(ctx context.Context, data map[string]string) SelfValue {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, data[k])
	}
	return c.evaluate(ctx, b.String())
}

// FromDescription scores a finished profile description.
func (c *Calculator) FromDescription(ctx context.Context, description string) SelfValue {
	return c.evaluate(ctx, description)
}

func (c *Calculator) evaluate(ctx context.Context, material string) SelfValue {
	if strings.TrimSpace(material) == "" {
		return Default()
	}

	raw, err := c.llm.Complete(ctx, llm.TierChat, []llm.Message{
		{Role: "system", Content: evalSystemPrompt},
		{Role: "user", Content: material},
	}, 0.2, evalTimeout)
	if err != nil {
		c.logger.Warn("self value evaluation failed, using default", "error", err)
		return Default()
	}

	if v, ok := parseStrict(raw); ok {
		return v
	}
	if v, ok := parseLenient(raw); ok {
		c.logger.Info("self value recovered via fallback parser")
		return v
	}

	c.logger.Warn("self value response unparseable, using default", "raw_len", len(raw))
	return Default()
}

// parseStrict decodes the response as the JSON object the prompt asks
// for, tolerating a fenced code block wrapper.
func parseStrict(raw string) (SelfValue, bool) {
	var v SelfValue
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err != nil {
		return SelfValue{}, false
	}
	if !v.Valid() {
		return SelfValue{}, false
	}
	// All-zero means the oracle returned an empty object.
	if v == (SelfValue{}) {
		return SelfValue{}, false
	}
	return v, true
}

// parseLenient runs a line-oriented keyword+number scan. At least 3 of
// 5 scores must be recoverable and every recovered score must be in
// range; unrecovered dimensions stay neutral.
func parseLenient(raw string) (SelfValue, bool) {
	v := Default()
	recovered := 0

	assign := map[string]*float64{
		"self_esteem":       &v.SelfEsteem,
		"自尊":                &v.SelfEsteem,
		"self_acceptance":   &v.SelfAcceptance,
		"自我接纳":              &v.SelfAcceptance,
		"self_efficacy":     &v.SelfEfficacy,
		"自我效能":              &v.SelfEfficacy,
		"existential_value": &v.ExistentialValue,
		"存在价值":              &v.ExistentialValue,
		"self_consistency":  &v.SelfConsistency,
		"自我一致":              &v.SelfConsistency,
	}

	seen := map[*float64]bool{}
	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)
		for keyword, target := range assign {
			if seen[target] {
				continue
			}
			idx := strings.Index(lower, keyword)
			if idx < 0 {
				continue
			}
			// The score is the first number after the keyword, so a line
			// carrying several dimensions recovers each one's own value.
			n, ok := firstNumber(line[idx+len(keyword):])
			if !ok {
				continue
			}
			if n < Min || n > Max {
				return SelfValue{}, false
			}
			*target = n
			seen[target] = true
			recovered++
		}
	}

	if recovered < 3 {
		return SelfValue{}, false
	}
	return v, true
}

// firstNumber extracts the first decimal number from a line.
func firstNumber(line string) (float64, bool) {
	start := -1
	for i, r := range line {
		if unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	dotted := false
	for end < len(line) {
		r := line[end]
		if r >= '0' && r <= '9' {
			end++
			continue
		}
		if r == '.' && !dotted {
			dotted = true
			end++
			continue
		}
		break
	}
	var f float64
	if _, err := fmt.Sscanf(line[start:end], "%f", &f); err != nil {
		return 0, false
	}
	return f, true
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
