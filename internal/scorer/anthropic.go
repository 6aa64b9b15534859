package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sqlint/triagebot/internal/extract"
	"github.com/sqlint/triagebot/internal/types"
)

// PatternLLM names the pattern family for model-produced signals. It is
// deliberately absent from the dialect tie-break priority table, so an
// LLM signal never outranks a deterministic pattern match of equal
// weight.
const PatternLLM = "llm-judgment"

// RetryConfig holds retry configuration for API calls
type RetryConfig struct {
	MaxRetries        int           // Maximum number of retries (default: 3)
	InitialBackoff    time.Duration // Initial backoff duration (default: 1s)
	MaxBackoff        time.Duration // Maximum backoff duration (default: 30s)
	BackoffMultiplier float64       // Backoff multiplier (default: 2.0)
	Timeout           time.Duration // Per-request timeout (default: 60s)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Timeout:           60 * time.Second,
	}
}

// AnthropicScorer asks a Claude model for classification signals. It is
// a supplement to the pattern scorer, never a replacement: pattern
// signals come first in the merged output, so they win first-seen ties
// in the classifier, and an API failure degrades to patterns alone
// rather than failing the run.
type AnthropicScorer struct {
	client   *anthropic.Client
	patterns *PatternScorer
	model    string
	dialects []string
	retry    RetryConfig
}

// NewAnthropicScorer creates a scorer using the given API key and model.
func NewAnthropicScorer(apiKey, model string, dialects []string) (*AnthropicScorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(dialects) == 0 {
		dialects = extract.DefaultDialects
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicScorer{
		client:   &client,
		patterns: NewPatternScorer(dialects),
		model:    model,
		dialects: dialects,
		retry:    DefaultRetryConfig(),
	}, nil
}

// Score implements Scorer. Pattern signals are always produced; model
// signals are appended when the API call and parse succeed.
func (s *AnthropicScorer) Score(ctx context.Context, snap *types.IssueSnapshot) ([]types.Signal, error) {
	signals, _ := s.patterns.Score(ctx, snap)

	llm, err := s.modelSignals(ctx, snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: model scorer failed, using patterns only: %v\n", err)
		return signals, nil
	}
	return append(signals, llm...), nil
}

func (s *AnthropicScorer) modelSignals(ctx context.Context, snap *types.IssueSnapshot) ([]types.Signal, error) {
	prompt := s.buildPrompt(snap)

	var response *anthropic.Message
	err := s.retryWithBackoff(ctx, "score", func(attemptCtx context.Context) error {
		resp, apiErr := s.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(s.model),
			MaxTokens: 4096,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	signals, err := parseSignals(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scorer response: %w", err)
	}
	return signals, nil
}

func (s *AnthropicScorer) buildPrompt(snap *types.IssueSnapshot) string {
	var sb strings.Builder
	sb.WriteString("You are classifying an issue filed against a SQL linter.\n\n")
	sb.WriteString("Issue title: " + snap.Title + "\n\n")
	sb.WriteString("Issue body:\n" + snap.Body + "\n\n")
	sb.WriteString("Known SQL dialects: " + strings.Join(s.dialects, ", ") + "\n\n")
	sb.WriteString(`Emit a JSON array of evidence signals. Each signal is an object:
{"axis": "type"|"dialect"|"component", "category": "<candidate value>", "source": "title"|"body"|"code_block", "excerpt": "<the text span that supports it>", "weight": <positive integer>}

Rules:
- type categories: bug, feature, documentation, question
- dialect categories must come from the known dialect list
- component categories: parser, rules, templating, cli, performance, configuration
- only emit a signal when the issue text supports it; an empty array is a valid answer
- respond with the JSON array only, no prose`)
	return sb.String()
}

var fenceStripRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")
var jsonArrayRe = regexp.MustCompile(`(?s)\[[\s\S]*\]`)

// parseSignals decodes the model's response into signals, tolerating
// code fences and surrounding prose. Signals with an unknown axis or
// out-of-taxonomy category are dropped rather than failing the whole
// response; unknown sources fall back to body, weights default to 1,
// and the pattern family is always PatternLLM.
func parseSignals(text string) ([]types.Signal, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	candidates := []string{trimmed}
	if m := fenceStripRe.FindStringSubmatch(trimmed); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := jsonArrayRe.FindString(trimmed); m != "" {
		candidates = append(candidates, m)
	}

	var raw []types.Signal
	var lastErr error
	parsed := false
	for _, candidate := range candidates {
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			lastErr = err
			continue
		}
		parsed = true
		break
	}
	if !parsed {
		return nil, fmt.Errorf("no JSON array found: %w", lastErr)
	}

	var signals []types.Signal
	for _, sig := range raw {
		if !validAxis(sig.Axis) || sig.Category == "" {
			continue
		}
		if !validCategory(sig.Axis, sig.Category) {
			continue
		}
		if !validSource(sig.Source) {
			sig.Source = types.SourceBody
		}
		if sig.Weight <= 0 {
			sig.Weight = 1
		}
		sig.Pattern = PatternLLM
		signals = append(signals, sig)
	}
	return signals, nil
}

func validAxis(a types.Axis) bool {
	return a == types.AxisType || a == types.AxisDialect || a == types.AxisComponent
}

// validCategory filters model output to the label taxonomy for the
// closed axes. Dialect is left open; the known-dialect list is
// configurable and the prompt already constrains it.
func validCategory(axis types.Axis, category string) bool {
	switch axis {
	case types.AxisType:
		switch types.IssueType(category) {
		case types.TypeBug, types.TypeFeature, types.TypeDocumentation, types.TypeQuestion:
			return true
		}
		return false
	case types.AxisComponent:
		switch types.Component(category) {
		case types.ComponentParser, types.ComponentRules, types.ComponentTemplating,
			types.ComponentCLI, types.ComponentPerformance, types.ComponentConfiguration:
			return true
		}
		return false
	default:
		return true
	}
}

func validSource(s types.SignalSource) bool {
	return s == types.SourceTitle || s == types.SourceBody || s == types.SourceCodeBlock
}

// retryWithBackoff executes an operation with retry and exponential backoff
func (s *AnthropicScorer) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := s.retry.InitialBackoff

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				fmt.Printf("AI API %s succeeded after %d retries\n", operation, attempt)
			}
			return nil
		}
		lastErr = err

		if !isRetriableError(err) {
			fmt.Fprintf(os.Stderr, "AI API %s failed with non-retriable error: %v\n", operation, err)
			return err
		}
		if attempt == s.retry.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
		}

		fmt.Printf("AI API %s failed (attempt %d/%d), retrying in %v: %v\n",
			operation, attempt+1, s.retry.MaxRetries+1, backoff, err)

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * s.retry.BackoffMultiplier)
			if backoff > s.retry.MaxBackoff {
				backoff = s.retry.MaxBackoff
			}
		case <-ctx.Done():
			return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, s.retry.MaxRetries+1, lastErr)
}

// isRetriableError determines if an error is retriable (transient)
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return true
	}
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") {
		return true
	}
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") {
		return true
	}
	return false
}

// Compile-time check
var _ Scorer = (*AnthropicScorer)(nil)
