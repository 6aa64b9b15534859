package assess

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlint/triagebot/internal/extract"
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

func signalsFor(snap *types.IssueSnapshot) []types.Signal {
	return extract.New(nil).Extract(context.Background(), snap)
}

func TestAssessCompleteBugReport(t *testing.T) {
	snap := snapshot(
		"TOP clause not parsing in T-SQL",
		"Running sqlint 1.4.2 with dialect tsql:\n```sql\nSELECT TOP 10 * FROM users;\n```")

	a := Assess(snap, types.TypeBug, signalsFor(snap))

	assert.Equal(t, types.CompletenessComplete, a.Completeness)
	assert.Empty(t, a.Missing)
	assert.Equal(t, "v1.4.2", a.Version)
	assert.Contains(t, a.Evidence, types.ItemSQLExample)
	assert.Contains(t, a.Evidence, types.ItemDialectEvidence)
	assert.Contains(t, a.Evidence, types.ItemExpectedActual)
}

func TestAssessEmptyBugReportMissingEverything(t *testing.T) {
	snap := snapshot("it doesn't work", "")

	a := Assess(snap, types.TypeBug, signalsFor(snap))

	assert.Equal(t, types.CompletenessNeedsInfo, a.Completeness)
	require.Equal(t, []types.ChecklistItem{
		types.ItemSQLExample,
		types.ItemDialectEvidence,
		types.ItemExpectedActual,
	}, a.Missing)
	assert.Empty(t, a.Version)
}

func TestAssessBugMissingOnlyDialect(t *testing.T) {
	snap := snapshot(
		"Linter crashes",
		"Expected a clean run but got a traceback.\n```sql\nSELECT 1;\n```")

	a := Assess(snap, types.TypeBug, signalsFor(snap))

	assert.Equal(t, types.CompletenessNeedsInfo, a.Completeness)
	assert.Equal(t, []types.ChecklistItem{types.ItemDialectEvidence}, a.Missing)
}

func TestAssessDialectConfigKeyCountsAsEvidence(t *testing.T) {
	// Even an unknown dialect value shows the author pointed at a dialect
	// setting; the checklist is about evidence, not canonicalization.
	snap := snapshot(
		"bug: expected no errors",
		"dialect = futuresql\n```sql\nSELECT 1;\n```")

	a := Assess(snap, types.TypeBug, signalsFor(snap))
	assert.NotContains(t, a.Missing, types.ItemDialectEvidence)
}

func TestAssessFeatureRequiresUseCase(t *testing.T) {
	snap := snapshot("Feature request: JSON output", "")
	a := Assess(snap, types.TypeFeature, signalsFor(snap))
	assert.Equal(t, types.CompletenessNeedsInfo, a.Completeness)
	assert.Equal(t, []types.ChecklistItem{types.ItemUseCase}, a.Missing)

	snap = snapshot("Feature request: JSON output",
		"We need machine-readable output so that CI can annotate diffs.")
	a = Assess(snap, types.TypeFeature, signalsFor(snap))
	assert.Equal(t, types.CompletenessComplete, a.Completeness)
}

func TestAssessOtherTypesHaveNoChecklist(t *testing.T) {
	snap := snapshot("How do I exclude a directory?", "")
	for _, typ := range []types.IssueType{
		types.TypeDocumentation, types.TypeQuestion, types.TypeUnknown,
	} {
		a := Assess(snap, typ, nil)
		assert.Equal(t, types.CompletenessComplete, a.Completeness, "type %s", typ)
		assert.Empty(t, a.Missing)
	}
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"running version 1.4.2 here", "v1.4.2"},
		{"on v0.13", "v0.13.0"},
		{"no version mentioned", ""},
	}
	for _, tt := range tests {
		snap := snapshot("title", tt.body)
		assert.Equal(t, tt.want, detectVersion(snap), "body %q", tt.body)
	}
}
