// Package plan turns a classification, a completeness assessment and a
// label diff into the run's action intents.
//
// The planner emits at most one intent per kind, ordered by dispatch
// priority: the label update first, then the comment. When there is
// nothing to do it emits a single noop intent carrying a human-readable
// justification, so every run produces exactly one auditable terminal
// outcome.
package plan

import (
	"fmt"

	"github.com/sqlint/triagebot/internal/assess"
	"github.com/sqlint/triagebot/internal/types"
)

// Plan builds the ordered intent list for one run. fullLabels is the
// complete desired label list an update would write (reconciled, additive);
// it is only used when the diff is non-empty.
func Plan(result types.ClassificationResult, assessment assess.Assessment, diff types.LabelDiff, fullLabels []string) []types.ActionIntent {
	var intents []types.ActionIntent

	if !diff.Empty() {
		intents = append(intents, types.NewUpdateLabelsIntent(fullLabels))
	}

	// Comment only when this run is the one marking the issue needs-info.
	// An issue already labeled needs-info was asked once; asking again on
	// every re-run would spam the author.
	if assessment.Completeness == types.CompletenessNeedsInfo && newlyNeedsInfo(diff) {
		body, err := renderComment(assessment.Missing)
		if err != nil {
			// Template failures must not lose the needs-info outcome; fall
			// back to a plain listing.
			body = fallbackComment(assessment.Missing)
		}
		intents = append(intents, types.NewCommentIntent(body))
	}

	if len(intents) == 0 {
		intents = append(intents, types.NewNoopIntent(noopReason(result)))
	}
	return intents
}

func newlyNeedsInfo(diff types.LabelDiff) bool {
	needsInfo := types.StatusLabel(types.CompletenessNeedsInfo)
	for _, label := range diff.Add {
		if label == needsInfo {
			return true
		}
	}
	return false
}

func fallbackComment(missing []types.ChecklistItem) string {
	body := "Thanks for opening this! Could you add the following so we can triage it:\n"
	for _, item := range missing {
		body += fmt.Sprintf("- %s\n", item)
	}
	return body
}

func noopReason(result types.ClassificationResult) string {
	return fmt.Sprintf(
		"labels already current (type=%s dialect=%s component=%s); nothing to do",
		result.Type, result.Dialect, result.Component)
}
