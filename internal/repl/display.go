package repl

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/sqlint/triagebot/internal/assess"
	"github.com/sqlint/triagebot/internal/types"
)

// FormatClassification renders a classification for terminal display.
// Shared by the console and the classify command.
func FormatClassification(result types.ClassificationResult, assessment assess.Assessment, signals []types.Signal) string {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	var sb strings.Builder
	sb.WriteString(bold("Classification:") + "\n")
	sb.WriteString(fmt.Sprintf("  type:         %s\n", result.Type))
	sb.WriteString(fmt.Sprintf("  dialect:      %s\n", result.Dialect))
	sb.WriteString(fmt.Sprintf("  component:    %s\n", result.Component))

	completeness := green(string(result.Completeness))
	if result.Completeness == types.CompletenessNeedsInfo {
		completeness = yellow(string(result.Completeness))
	}
	sb.WriteString(fmt.Sprintf("  completeness: %s\n", completeness))

	if assessment.Version != "" {
		sb.WriteString(fmt.Sprintf("  version:      %s\n", assessment.Version))
	}

	if len(assessment.Missing) > 0 {
		sb.WriteString(bold("Missing:") + "\n")
		for _, item := range assessment.Missing {
			sb.WriteString(fmt.Sprintf("  - %s\n", item))
		}
	}

	if len(signals) > 0 {
		sb.WriteString(bold(fmt.Sprintf("Signals (%d):", len(signals))) + "\n")
		for _, sig := range signals {
			sb.WriteString(fmt.Sprintf("  %-9s %-12s w=%d %-18s %q\n",
				sig.Axis, sig.Category, sig.Weight, sig.Pattern, truncate(sig.Excerpt, 40)))
		}
	}
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
