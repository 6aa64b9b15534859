package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sqlint/triagebot/internal/assess"
	"github.com/sqlint/triagebot/internal/types"
)

func complete() assess.Assessment {
	return assess.Assessment{Completeness: types.CompletenessComplete}
}

func needsInfo() assess.Assessment {
	return assess.Assessment{Completeness: types.CompletenessNeedsInfo}
}

func TestReconcileFullClassification(t *testing.T) {
	result := types.ClassificationResult{
		Type:      types.TypeBug,
		Dialect:   "tsql",
		Component: types.ComponentParser,
	}

	diff, full := Reconcile(result, complete(), nil)

	assert.Equal(t, []string{
		"component:parser", "dialect:tsql", "status:complete", "type:bug",
	}, diff.Add)
	assert.Equal(t, []string{
		"component:parser", "dialect:tsql", "status:complete", "type:bug",
	}, full)
}

func TestReconcileOmitsUnknownAxes(t *testing.T) {
	result := types.ClassificationResult{
		Type:      types.TypeBug,
		Dialect:   types.DialectUnspecified,
		Component: types.ComponentUnknown,
	}

	diff, _ := Reconcile(result, needsInfo(), nil)
	assert.Equal(t, []string{"status:needs-info", "type:bug"}, diff.Add)
}

func TestReconcileOmitsUnknownType(t *testing.T) {
	result := types.ClassificationResult{
		Type:      types.TypeUnknown,
		Dialect:   types.DialectUnspecified,
		Component: types.ComponentUnknown,
	}

	diff, _ := Reconcile(result, needsInfo(), nil)
	assert.Equal(t, []string{"status:needs-info"}, diff.Add)
}

func TestReconcileNeverRemoves(t *testing.T) {
	result := types.ClassificationResult{
		Type:      types.TypeBug,
		Dialect:   "tsql",
		Component: types.ComponentParser,
	}
	existing := []string{"wontfix", "type:bug"}

	diff, full := Reconcile(result, complete(), existing)

	assert.NotContains(t, diff.Add, "wontfix")
	assert.Contains(t, full, "wontfix")
	assert.Contains(t, full, "type:bug")
	// full is a superset of existing
	for _, l := range existing {
		assert.Contains(t, full, l)
	}
}

func TestReconcileStaleLabelSuppressesCompetingValue(t *testing.T) {
	// A previous run labelled type:bug; reclassification now says question.
	// The stale label stays and no competing type:* label is added.
	result := types.ClassificationResult{
		Type:      types.TypeQuestion,
		Dialect:   types.DialectUnspecified,
		Component: types.ComponentUnknown,
	}
	existing := []string{"type:bug", "status:needs-info"}

	diff, full := Reconcile(result, complete(), existing)

	assert.NotContains(t, diff.Add, "type:question")
	assert.Contains(t, full, "type:bug")
	// status namespace is occupied too, so no status:complete either
	assert.NotContains(t, diff.Add, "status:complete")
	assert.True(t, diff.Empty())
}

func TestReconcileIdempotent(t *testing.T) {
	result := types.ClassificationResult{
		Type:      types.TypeBug,
		Dialect:   "tsql",
		Component: types.ComponentParser,
	}

	diff1, full := Reconcile(result, complete(), nil)
	assert.False(t, diff1.Empty())

	// Second run with the first run's labels applied: nothing to add.
	diff2, full2 := Reconcile(result, complete(), full)
	assert.True(t, diff2.Empty())
	assert.Equal(t, full, full2)
}
