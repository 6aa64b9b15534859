package scorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlint/triagebot/internal/types"
)

func TestPatternScorerProducesSignals(t *testing.T) {
	s := NewPatternScorer(nil)
	snap := &types.IssueSnapshot{
		ID:        "sq-1",
		Title:     "Crash when linting postgres queries",
		Body:      "The linter throws an error on ILIKE.",
		Kind:      types.EventOpened,
		Timestamp: time.Now(),
	}
	snap.CodeBlocks = types.SplitCodeBlocks(snap.Body)

	signals, err := s.Score(context.Background(), snap)
	require.NoError(t, err)
	require.NotEmpty(t, signals)

	var sawType, sawDialect bool
	for _, sig := range signals {
		switch sig.Axis {
		case types.AxisType:
			sawType = true
		case types.AxisDialect:
			sawDialect = true
		}
	}
	assert.True(t, sawType, "expected a type signal from 'crash'")
	assert.True(t, sawDialect, "expected a dialect signal from 'postgres'")
}

func TestParseSignalsPlainArray(t *testing.T) {
	text := `[{"axis":"type","category":"bug","source":"title","excerpt":"crash","weight":2}]`
	signals, err := parseSignals(text)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, types.AxisType, signals[0].Axis)
	assert.Equal(t, "bug", signals[0].Category)
	assert.Equal(t, PatternLLM, signals[0].Pattern)
	assert.Equal(t, 2, signals[0].Weight)
}

func TestParseSignalsCodeFence(t *testing.T) {
	text := "```json\n[{\"axis\":\"dialect\",\"category\":\"tsql\",\"source\":\"body\",\"excerpt\":\"SELECT TOP\"}]\n```"
	signals, err := parseSignals(text)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "tsql", signals[0].Category)
	// Missing weight defaults to 1.
	assert.Equal(t, 1, signals[0].Weight)
}

func TestParseSignalsSurroundingProse(t *testing.T) {
	text := "Here are the signals:\n[{\"axis\":\"component\",\"category\":\"parser\",\"source\":\"body\",\"excerpt\":\"parse error\"}]\nLet me know if you need more."
	signals, err := parseSignals(text)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "parser", signals[0].Category)
}

func TestParseSignalsDropsInvalidEntries(t *testing.T) {
	text := `[
		{"axis":"type","category":"bug","source":"body","excerpt":"fails"},
		{"axis":"flavor","category":"bug","source":"body","excerpt":"bad axis"},
		{"axis":"dialect","category":"","source":"body","excerpt":"no category"},
		{"axis":"dialect","category":"mysql","source":"somewhere","excerpt":"bad source"},
		{"axis":"component","category":"formatter","source":"body","excerpt":"unknown component"}
	]`
	signals, err := parseSignals(text)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	// Unknown source falls back to body rather than dropping the signal.
	assert.Equal(t, types.SourceBody, signals[1].Source)
}

func TestParseSignalsEmptyArray(t *testing.T) {
	signals, err := parseSignals("[]")
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestParseSignalsGarbage(t *testing.T) {
	_, err := parseSignals("I could not classify this issue.")
	assert.Error(t, err)

	_, err = parseSignals("")
	assert.Error(t, err)
}
