package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlint/triagebot/internal/assess"
	"github.com/sqlint/triagebot/internal/types"
)

func classification() types.ClassificationResult {
	return types.ClassificationResult{
		Type:      types.TypeBug,
		Dialect:   "tsql",
		Component: types.ComponentParser,
	}
}

func TestPlanLabelsAndCommentForIncompleteIssue(t *testing.T) {
	assessment := assess.Assessment{
		Completeness: types.CompletenessNeedsInfo,
		Missing: []types.ChecklistItem{
			types.ItemSQLExample,
			types.ItemDialectEvidence,
			types.ItemExpectedActual,
		},
	}
	diff := types.LabelDiff{Add: []string{"status:needs-info", "type:bug"}}
	full := []string{"status:needs-info", "type:bug"}

	intents := Plan(classification(), assessment, diff, full)

	require.Len(t, intents, 2)
	// Label update is planned first; on quota pressure it survives drops.
	assert.Equal(t, types.IntentUpdateLabels, intents[0].Kind)
	assert.Equal(t, full, intents[0].Labels)
	assert.Equal(t, types.IntentComment, intents[1].Kind)

	// The all-three template lists each missing item.
	body := intents[1].CommentBody
	assert.Contains(t, body, "SQL example")
	assert.Contains(t, body, "dialect")
	assert.Contains(t, body, "expected")
}

func TestPlanLabelsOnlyForCompleteIssue(t *testing.T) {
	assessment := assess.Assessment{Completeness: types.CompletenessComplete}
	diff := types.LabelDiff{Add: []string{"type:bug"}}

	intents := Plan(classification(), assessment, diff, []string{"type:bug"})

	require.Len(t, intents, 1)
	assert.Equal(t, types.IntentUpdateLabels, intents[0].Kind)
}

func TestPlanCommentRequiresNewNeedsInfoLabel(t *testing.T) {
	assessment := assess.Assessment{
		Completeness: types.CompletenessNeedsInfo,
		Missing:      []types.ChecklistItem{types.ItemUseCase},
	}

	// First run: the needs-info label is being added, so ask for details.
	diff := types.LabelDiff{Add: []string{"status:needs-info"}}
	intents := Plan(classification(), assessment, diff, []string{"status:needs-info"})
	require.Len(t, intents, 2)
	assert.Equal(t, types.IntentComment, intents[1].Kind)
	assert.Contains(t, intents[1].CommentBody, "use case")

	// Re-run on an issue already marked needs-info: the author was asked
	// once; don't ask again.
	intents = Plan(classification(), assessment, types.LabelDiff{}, nil)
	require.Len(t, intents, 1)
	assert.Equal(t, types.IntentNoop, intents[0].Kind)
}

func TestPlanNoopWhenNothingToDo(t *testing.T) {
	assessment := assess.Assessment{Completeness: types.CompletenessComplete}

	intents := Plan(classification(), assessment, types.LabelDiff{}, nil)

	require.Len(t, intents, 1)
	assert.Equal(t, types.IntentNoop, intents[0].Kind)
	assert.Contains(t, intents[0].Reason, "nothing to do")
	assert.NoError(t, intents[0].Validate())
}

func TestPlanAtMostOnePerKind(t *testing.T) {
	assessment := assess.Assessment{
		Completeness: types.CompletenessNeedsInfo,
		Missing:      []types.ChecklistItem{types.ItemSQLExample},
	}
	diff := types.LabelDiff{Add: []string{"type:bug"}}

	intents := Plan(classification(), assessment, diff, []string{"type:bug"})

	seen := map[types.IntentKind]int{}
	for _, in := range intents {
		seen[in.Kind]++
	}
	for kind, n := range seen {
		assert.Equal(t, 1, n, "kind %s planned %d times", kind, n)
	}
}

func TestRenderCommentKnownSets(t *testing.T) {
	tests := []struct {
		name    string
		missing []types.ChecklistItem
		want    string
	}{
		{"sql only", []types.ChecklistItem{types.ItemSQLExample}, "minimal SQL example"},
		{"dialect only", []types.ChecklistItem{types.ItemDialectEvidence}, "dialect"},
		{"expected only", []types.ChecklistItem{types.ItemExpectedActual}, "expected"},
		{"use case", []types.ChecklistItem{types.ItemUseCase}, "use case"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := renderComment(tt.missing)
			require.NoError(t, err)
			assert.Contains(t, strings.ToLower(body), strings.ToLower(tt.want))
		})
	}
}

func TestRenderCommentFallsBackOnUnknownSet(t *testing.T) {
	// A pair with no dedicated template uses the generic listing.
	body, err := renderComment([]types.ChecklistItem{
		types.ItemSQLExample, types.ItemExpectedActual,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "- ")
	assert.Contains(t, body, "SQL example")
	assert.Contains(t, body, "expected")
}

func TestTemplateKeyIsOrderIndependent(t *testing.T) {
	a := templateKey(types.ItemSQLExample, types.ItemDialectEvidence)
	b := templateKey(types.ItemDialectEvidence, types.ItemSQLExample)
	assert.Equal(t, a, b)
}
