package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/malbeclabs/scichart/pkg/metrics"
	"github.com/malbeclabs/scichart/pkg/plan"
)

// ErrInterpretation marks a failed or unparseable interpretation call.
var ErrInterpretation = errors.New("interpretation failed")

// Interpreter turns free text plus an optional previous plan into a raw plan
// object. Implementations must return an error wrapping ErrInterpretation
// when no JSON object can be obtained.
type Interpreter interface {
	Interpret(ctx context.Context, userText string, prev plan.Raw) (plan.Raw, error)
}

// LLMClient is the text-completion capability the LLMInterpreter delegates to.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const emptyRequestPrompt = "Keep the previous plan unchanged."

type LLMInterpreter struct {
	log    *slog.Logger
	llm    LLMClient
	system string
}

func NewLLMInterpreter(log *slog.Logger, llm LLMClient) (*LLMInterpreter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if llm == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	system, err := LoadSystemPrompt()
	if err != nil {
		return nil, err
	}
	return &LLMInterpreter{log: log, llm: llm, system: system}, nil
}

func (i *LLMInterpreter) Interpret(ctx context.Context, userText string, prev plan.Raw) (plan.Raw, error) {
	system := i.system
	if len(prev) > 0 {
		snapshot, err := json.Marshal(prev)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode previous plan: %w", ErrInterpretation, err)
		}
		system += "\n\nPrevious plan (JSON): " + string(snapshot)
	}
	userPrompt := strings.TrimSpace(userText)
	if userPrompt == "" {
		userPrompt = emptyRequestPrompt
	}

	start := time.Now()
	response, err := i.llm.Complete(ctx, system, userPrompt)
	if err != nil {
		metrics.InterpretationCallsTotal.WithLabelValues("error").Inc()
		i.log.Error("planner: interpretation call failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrInterpretation, err)
	}

	raw, err := parseInterpretation(response)
	if err != nil {
		metrics.InterpretationCallsTotal.WithLabelValues("parse_error").Inc()
		i.log.Warn("planner: unparseable interpretation", "error", err, "response", truncate(response, 200))
		return nil, fmt.Errorf("%w: %w", ErrInterpretation, err)
	}
	metrics.InterpretationCallsTotal.WithLabelValues("ok").Inc()
	i.log.Debug("planner: interpreted request", "duration", time.Since(start), "keys", len(raw))
	return raw, nil
}

func parseInterpretation(response string) (plan.Raw, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	return plan.ParseRaw([]byte(jsonStr))
}

// extractJSON unwraps fenced code blocks and returns the first JSON object.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if start := strings.Index(response, "```"); start != -1 {
		body := response[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.HasPrefix(strings.TrimSpace(body), "{") {
			// Drop the language tag line.
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		response = strings.TrimSpace(body)
	}

	if start := strings.Index(response, "{"); start != -1 {
		return extractJSONObject(response, start)
	}
	return ""
}

// extractJSONObject returns the balanced object starting at start, skipping
// braces inside strings.
func extractJSONObject(s string, start int) string {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case c == '{' && !inString:
			depth++
		case c == '}' && !inString:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
