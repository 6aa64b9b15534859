package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlint/triagebot/internal/types"
)

func snapshot(title, body string) *types.IssueSnapshot {
	return &types.IssueSnapshot{
		ID:         "test-1",
		Title:      title,
		Body:       body,
		CodeBlocks: types.SplitCodeBlocks(body),
		Kind:       types.EventOpened,
		Timestamp:  time.Unix(1700000000, 0),
	}
}

// count sums the weight of signals matching axis and category.
func count(signals []types.Signal, axis types.Axis, category string) int {
	total := 0
	for _, s := range signals {
		if s.Axis == axis && s.Category == category {
			total += s.Weight
		}
	}
	return total
}

func TestExtractTypeSignals(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		title    string
		body     string
		category types.IssueType
	}{
		{"bug keyword", "Found a bug in linting", "", types.TypeBug},
		{"doesn't work", "it doesn't work", "", types.TypeBug},
		{"not parsing", "TOP clause not parsing in T-SQL", "", types.TypeBug},
		{"feature request", "Feature request: lint JSON output", "would be nice", types.TypeFeature},
		{"docs", "Typo in the rules documentation", "", types.TypeDocumentation},
		{"question", "How do I exclude a directory?", "", types.TypeQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := e.Extract(context.Background(), snapshot(tt.title, tt.body))
			assert.Greater(t, count(signals, types.AxisType, string(tt.category)), 0,
				"expected at least one %s signal", tt.category)
		})
	}
}

func TestExtractNoSignalsOnEmptyIssue(t *testing.T) {
	e := New(nil)
	signals := e.Extract(context.Background(), snapshot("", ""))
	assert.Empty(t, signals, "empty issue must produce zero signals, not an error")
}

func TestExtractDialectMention(t *testing.T) {
	e := New(nil)

	signals := e.Extract(context.Background(), snapshot(
		"TOP clause not parsing in T-SQL", "Using dialect tsql on version 1.4.2"))

	assert.Greater(t, count(signals, types.AxisDialect, "tsql"), 0)
	// Aliases canonicalize: "T-SQL" in the title and "tsql" in the body are
	// the same category.
	for _, s := range signals {
		if s.Axis == types.AxisDialect {
			assert.Equal(t, "tsql", s.Category)
		}
	}
}

func TestExtractCodeBlockSyntaxWeighsDouble(t *testing.T) {
	e := New(nil)

	body := "some prose mentioning postgres once\n```sql\nSELECT TOP 10 * FROM users;\n```"
	signals := e.Extract(context.Background(), snapshot("parser issue", body))

	// Prose mention of postgres: weight 1. TOP-clause heuristic in the code
	// block votes tsql with weight 2.
	assert.Equal(t, 1, count(signals, types.AxisDialect, "postgres"))
	assert.Equal(t, 2, count(signals, types.AxisDialect, "tsql"))
}

func TestExtractDialectConfigSnippet(t *testing.T) {
	e := New(nil)

	body := "my config:\n```ini\n[sqlint]\ndialect = snowflake\n```"
	signals := e.Extract(context.Background(), snapshot("lint fails", body))

	require.Greater(t, count(signals, types.AxisDialect, "snowflake"), 0)
	found := false
	for _, s := range signals {
		if s.Pattern == PatternDialectConfig {
			assert.Equal(t, types.SourceCodeBlock, s.Source)
			found = true
		}
	}
	assert.True(t, found, "expected a dialect-config signal")
}

func TestExtractUnknownDialectConfigIgnored(t *testing.T) {
	e := New(nil)
	signals := e.Extract(context.Background(), snapshot("x", "dialect = klingon"))
	for _, s := range signals {
		assert.NotEqual(t, types.AxisDialect, s.Axis, "unknown dialect names must not produce signals")
	}
}

func TestExtractRuleCode(t *testing.T) {
	e := New(nil)

	signals := e.Extract(context.Background(), snapshot(
		"False positive", "Rule AL01 flags aliased tables incorrectly"))

	var ruleCodes []types.Signal
	for _, s := range signals {
		if s.Pattern == PatternRuleCode {
			ruleCodes = append(ruleCodes, s)
		}
	}
	require.Len(t, ruleCodes, 1)
	assert.Equal(t, string(types.ComponentRules), ruleCodes[0].Category)
	assert.Equal(t, "AL01", ruleCodes[0].Excerpt)
}

func TestExtractRuleCodeIsCaseSensitive(t *testing.T) {
	e := New(nil)
	signals := e.Extract(context.Background(), snapshot("", "this also applies to al01 maybe"))
	for _, s := range signals {
		assert.NotEqual(t, PatternRuleCode, s.Pattern, "lowercase tokens must not match rule codes")
	}
}

func TestExtractComponentKeywords(t *testing.T) {
	e := New(nil)

	tests := []struct {
		body      string
		component types.Component
	}{
		{"the parser chokes on this statement", types.ComponentParser},
		{"jinja templating breaks with dbt macros", types.ComponentTemplating},
		{"running with --dialect flag on the cli", types.ComponentCLI},
		{"linting is very slow on large files", types.ComponentPerformance},
		{"my pyproject configuration is ignored", types.ComponentConfiguration},
	}

	for _, tt := range tests {
		t.Run(string(tt.component), func(t *testing.T) {
			signals := e.Extract(context.Background(), snapshot("", tt.body))
			assert.Greater(t, count(signals, types.AxisComponent, string(tt.component)), 0)
		})
	}
}

func TestExtractDeterministicOrder(t *testing.T) {
	e := New(nil)
	snap := snapshot("TOP clause not parsing in T-SQL",
		"Using dialect tsql\n```sql\nSELECT TOP 10 * FROM users;\n```\nAL01 also fires")

	first := e.Extract(context.Background(), snap)
	for range 20 {
		again := e.Extract(context.Background(), snap)
		require.Equal(t, first, again, "signal order must not depend on scheduling")
	}
}
