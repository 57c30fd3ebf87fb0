// Package oracle wraps the text-generation service behind typed
// request/response adapters. Extraction and classification calls carry
// a strict JSON contract; parse failures fail the request outright
// rather than degrading to a local heuristic parser, which could
// silently corrupt collected data with lower-confidence guesses.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/llm"
	"github.com/rapport-labs/rapport/internal/session"
)

var (
	// ErrMalformed marks responses that violate the JSON contract.
	ErrMalformed = errors.New("malformed oracle response")
	// ErrUnavailable marks transport-level oracle failures.
	ErrUnavailable = errors.New("oracle unavailable")
)

// Per-call timeouts. Only the relationship summary is retried; a stale
// retry of a per-turn call could duplicate a state transition.
const (
	extractTimeout    = 60 * time.Second
	questionTimeout   = 60 * time.Second
	supplementTimeout = 60 * time.Second
	describeTimeout   = 90 * time.Second
	answerTimeout     = 120 * time.Second
	summaryTimeout    = 180 * time.Second

	summaryAttempts = 2
	summaryBackoff  = 5 * time.Second
)

type Oracle struct {
	llm    *llm.Client
	logger *slog.Logger
}

func New(c *llm.Client, logger *slog.Logger) *Oracle {
	return &Oracle{llm: c, logger: logger}
}

// Extract classifies a user reply and pulls field updates out of it.
func (o *Oracle) Extract(ctx context.Context, cat *catalog.Catalog, subject string, dim catalog.Dimension, completed []string, collected map[string]string, lastQuestion, message string) (*ExtractionResult, error) {
	raw, err := o.llm.Complete(ctx, llm.TierChat, []llm.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: extractionUserPrompt(cat, subject, dim, completed, collected, lastQuestion, message)},
	}, 0.1, extractTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: extraction: %v", ErrUnavailable, err)
	}

	var res ExtractionResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &res); err != nil {
		o.logger.Error("extraction response failed JSON contract", "error", err, "raw", raw)
		return nil, fmt.Errorf("%w: extraction: %v", ErrMalformed, err)
	}
	if res.Intent == "" {
		return nil, fmt.Errorf("%w: extraction: missing intent", ErrMalformed)
	}

	o.logger.Info("extraction complete",
		"intent", res.Intent,
		"updates", len(res.Updates),
		"wants_to_end", res.WantsToEnd,
	)
	return &res, nil
}

// NextQuestion generates the next freeform question for a dimension.
func (o *Oracle) NextQuestion(ctx context.Context, cat *catalog.Catalog, subject string, dim catalog.Dimension, collected map[string]string) (string, error) {
	raw, err := o.llm.Complete(ctx, llm.TierChat, []llm.Message{
		{Role: "system", Content: questionSystemPrompt},
		{Role: "user", Content: questionUserPrompt(cat, subject, dim, collected)},
	}, 0.7, questionTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: question generation: %v", ErrUnavailable, err)
	}
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", fmt.Errorf("%w: question generation: empty question", ErrMalformed)
	}
	return q, nil
}

// CheckSupplement runs the lightweight needs-supplement classifier.
func (o *Oracle) CheckSupplement(ctx context.Context, description, question string) (*SupplementCheck, error) {
	raw, err := o.llm.Complete(ctx, llm.TierChat, []llm.Message{
		{Role: "system", Content: supplementSystemPrompt},
		{Role: "user", Content: supplementUserPrompt(description, question)},
	}, 0.1, supplementTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: supplement check: %v", ErrUnavailable, err)
	}

	var chk SupplementCheck
	if err := json.Unmarshal([]byte(stripFences(raw)), &chk); err != nil {
		o.logger.Error("supplement check failed JSON contract", "error", err, "raw", raw)
		return nil, fmt.Errorf("%w: supplement check: %v", ErrMalformed, err)
	}
	return &chk, nil
}

// Answer replies to a QA question on the reasoner tier, replaying the
// prior QA history as true multi-turn messages so pronoun and reference
// resolution across turns works.
func (o *Oracle) Answer(ctx context.Context, description string, history []session.QAEntry, question string, supplement string) (string, error) {
	messages := []llm.Message{{Role: "system", Content: answerSystemPrompt(description)}}
	for _, e := range history {
		if e.State == session.QAPending {
			continue
		}
		messages = append(messages,
			llm.Message{Role: "user", Content: e.Question},
			llm.Message{Role: "assistant", Content: e.Answer},
		)
	}
	messages = append(messages, llm.Message{Role: "user", Content: question})
	if supplement != "" {
		messages = append(messages,
			llm.Message{Role: "assistant", Content: "我还需要一点补充信息。"},
			llm.Message{Role: "user", Content: supplement},
		)
	}

	raw, err := o.llm.Complete(ctx, llm.TierReasoner, messages, 0.6, answerTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: qa answer: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(raw), nil
}

// WriteDescription asks the oracle to author a profile description from
// collected data. Callers validate the result and fall back to the
// deterministic template on failure.
func (o *Oracle) WriteDescription(ctx context.Context, cat *catalog.Catalog, subject string, collected map[string]string) (string, error) {
	raw, err := o.llm.Complete(ctx, llm.TierChat, []llm.Message{
		{Role: "system", Content: writeDescriptionSystemPrompt},
		{Role: "user", Content: writeDescriptionUserPrompt(cat, subject, collected)},
	}, 0.4, describeTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: description: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(raw), nil
}

// RewriteDescription blends a supplement answer into an existing
// description.
func (o *Oracle) RewriteDescription(ctx context.Context, current, supplementQuestion, supplementAnswer string) (string, error) {
	raw, err := o.llm.Complete(ctx, llm.TierChat, []llm.Message{
		{Role: "system", Content: rewriteDescriptionSystemPrompt},
		{Role: "user", Content: rewriteDescriptionUserPrompt(current, supplementQuestion, supplementAnswer)},
	}, 0.3, describeTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: description rewrite: %v", ErrUnavailable, err)
	}
	rewritten := strings.TrimSpace(raw)
	if rewritten == "" {
		return "", fmt.Errorf("%w: description rewrite: empty result", ErrMalformed)
	}
	return rewritten, nil
}

// RelationshipSummary produces the relationship analysis on the
// reasoner tier. This is the only retried oracle call: it mutates no
// session state, so a duplicate attempt is harmless.
func (o *Oracle) RelationshipSummary(ctx context.Context, description string, qaLog string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: summaryUserPrompt(description, qaLog)},
	}

	backoff := summaryBackoff
	var lastErr error
	for attempt := 1; attempt <= summaryAttempts; attempt++ {
		raw, err := o.llm.Complete(ctx, llm.TierReasoner, messages, 0.5, summaryTimeout)
		if err == nil {
			return strings.TrimSpace(raw), nil
		}
		lastErr = err
		o.logger.Warn("relationship summary attempt failed", "attempt", attempt, "error", err)
		if attempt < summaryAttempts {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return "", fmt.Errorf("%w: summary: %v", ErrUnavailable, ctx.Err())
			}
		}
	}
	return "", fmt.Errorf("%w: summary: %v", ErrUnavailable, lastErr)
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
