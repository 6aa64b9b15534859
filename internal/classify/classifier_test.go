package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlint/triagebot/internal/extract"
	"github.com/sqlint/triagebot/internal/types"
)

func sig(axis types.Axis, category, pattern string, weight int) types.Signal {
	return types.Signal{Axis: axis, Category: category, Pattern: pattern, Weight: weight}
}

func TestResolveEmptySignals(t *testing.T) {
	result := Resolve(nil)
	assert.Equal(t, types.TypeUnknown, result.Type)
	assert.Equal(t, types.DialectUnspecified, result.Dialect)
	assert.Equal(t, types.ComponentUnknown, result.Component)
}

func TestResolveTypeMajorityWins(t *testing.T) {
	signals := []types.Signal{
		sig(types.AxisType, "question", extract.PatternTypeKeyword, 1),
		sig(types.AxisType, "bug", extract.PatternTypeKeyword, 1),
		sig(types.AxisType, "question", extract.PatternTypeKeyword, 1),
	}
	assert.Equal(t, types.TypeQuestion, Resolve(signals).Type)
}

func TestResolveTypeTieBreak(t *testing.T) {
	// bug > feature > documentation > question on equal weight
	tests := []struct {
		name string
		a, b string
		want types.IssueType
	}{
		{"bug beats feature", "feature", "bug", types.TypeBug},
		{"feature beats documentation", "documentation", "feature", types.TypeFeature},
		{"documentation beats question", "question", "documentation", types.TypeDocumentation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := []types.Signal{
				sig(types.AxisType, tt.a, extract.PatternTypeKeyword, 1),
				sig(types.AxisType, tt.b, extract.PatternTypeKeyword, 1),
			}
			assert.Equal(t, tt.want, Resolve(signals).Type)
		})
	}
}

func TestResolveDialectWeightWins(t *testing.T) {
	signals := []types.Signal{
		sig(types.AxisDialect, "postgres", extract.PatternDialectMention, 1),
		sig(types.AxisDialect, "tsql", extract.PatternDialectSyntax, 2),
	}
	assert.Equal(t, "tsql", Resolve(signals).Dialect)
}

func TestResolveDialectTieBreakByEvidenceStrength(t *testing.T) {
	// Equal weight: explicit mention > code-block syntax > config snippet.
	signals := []types.Signal{
		sig(types.AxisDialect, "snowflake", extract.PatternDialectConfig, 2),
		sig(types.AxisDialect, "mysql", extract.PatternDialectMention, 2),
	}
	assert.Equal(t, "mysql", Resolve(signals).Dialect)

	signals = []types.Signal{
		sig(types.AxisDialect, "snowflake", extract.PatternDialectConfig, 2),
		sig(types.AxisDialect, "postgres", extract.PatternDialectSyntax, 2),
	}
	assert.Equal(t, "postgres", Resolve(signals).Dialect)
}

func TestResolveComponentRuleCodeForcesRules(t *testing.T) {
	// Even with heavy parser evidence, one rule code forces component=rules.
	signals := []types.Signal{
		sig(types.AxisComponent, "parser", extract.PatternComponentKeyword, 1),
		sig(types.AxisComponent, "parser", extract.PatternComponentKeyword, 1),
		sig(types.AxisComponent, "parser", extract.PatternComponentKeyword, 1),
		sig(types.AxisComponent, "rules", extract.PatternRuleCode, 1),
	}
	assert.Equal(t, types.ComponentRules, Resolve(signals).Component)
}

func TestResolveComponentMajority(t *testing.T) {
	signals := []types.Signal{
		sig(types.AxisComponent, "templating", extract.PatternComponentKeyword, 1),
		sig(types.AxisComponent, "templating", extract.PatternComponentKeyword, 1),
		sig(types.AxisComponent, "cli", extract.PatternComponentKeyword, 1),
	}
	assert.Equal(t, types.ComponentTemplating, Resolve(signals).Component)
}

func TestResolveDeterminism(t *testing.T) {
	signals := []types.Signal{
		sig(types.AxisType, "bug", extract.PatternTypeKeyword, 1),
		sig(types.AxisType, "feature", extract.PatternTypeKeyword, 1),
		sig(types.AxisDialect, "tsql", extract.PatternDialectMention, 1),
		sig(types.AxisDialect, "postgres", extract.PatternDialectConfig, 1),
		sig(types.AxisComponent, "parser", extract.PatternComponentKeyword, 1),
	}
	first := Resolve(signals)
	for range 50 {
		assert.Equal(t, first, Resolve(signals))
	}
}
