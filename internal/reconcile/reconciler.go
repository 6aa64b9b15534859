// Package reconcile diffs the labels a classification implies against the
// labels the tracker already has.
//
// Reconciliation is additive only. The diff never proposes removing a
// label, even when reclassification would choose a different value: stale
// categorical labels from a prior run are left untouched, and an existing
// label in a namespace suppresses adding a competing value in that
// namespace. This is a deliberate policy to avoid label flapping when an
// issue is edited back and forth.
package reconcile

import (
	"sort"

	"github.com/sqlint/triagebot/internal/assess"
	"github.com/sqlint/triagebot/internal/types"
)

// Reconcile computes the additive label diff for a classification against
// the tracker's current label set, and the full desired label list an
// update would write (existing ∪ additions, sorted).
func Reconcile(result types.ClassificationResult, assessment assess.Assessment, existing []string) (types.LabelDiff, []string) {
	desired := desiredLabels(result, assessment)

	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[l] = true
	}

	var diff types.LabelDiff
	for _, want := range desired {
		if have[want.label] {
			continue
		}
		// Stale-label policy: a competing label already occupying this
		// namespace wins; we add nothing rather than flip-flop.
		if types.HasNamespace(existing, want.namespace) {
			continue
		}
		diff.Add = append(diff.Add, want.label)
	}
	sort.Strings(diff.Add)

	full := make([]string, 0, len(existing)+len(diff.Add))
	full = append(full, existing...)
	full = append(full, diff.Add...)
	sort.Strings(full)
	return diff, full
}

type namespacedLabel struct {
	namespace string
	label     string
}

// desiredLabels is the deterministic label set a classification implies:
// one type:* (omitted when unknown, so a later real classification is not
// blocked by a type:unknown placeholder), one dialect:* (omitted when
// unspecified), one component:* (omitted when unknown), and one status:*
// reflecting completeness.
func desiredLabels(result types.ClassificationResult, assessment assess.Assessment) []namespacedLabel {
	var desired []namespacedLabel
	if result.Type != types.TypeUnknown {
		desired = append(desired, namespacedLabel{types.NamespaceType, types.TypeLabel(result.Type)})
	}
	if result.Dialect != types.DialectUnspecified && result.Dialect != "" {
		desired = append(desired, namespacedLabel{types.NamespaceDialect, types.DialectLabel(result.Dialect)})
	}
	if result.Component != types.ComponentUnknown {
		desired = append(desired, namespacedLabel{types.NamespaceComponent, types.ComponentLabel(result.Component)})
	}
	desired = append(desired, namespacedLabel{types.NamespaceStatus, types.StatusLabel(assessment.Completeness)})
	return desired
}
