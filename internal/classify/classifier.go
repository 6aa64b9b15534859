// Package classify resolves extracted signals into one category per axis.
//
// Resolution is a pure function of the signal sequence: signals are grouped
// by category, the category with the highest total weight wins, and ties
// are broken by a fixed priority order per axis. No matches on an axis
// yields that axis's unknown/unspecified value, never an error.
package classify

import (
	"github.com/sqlint/triagebot/internal/extract"
	"github.com/sqlint/triagebot/internal/types"
)

// typePriority breaks type-axis ties: bug > feature > documentation > question.
// Lower rank wins.
var typePriority = map[string]int{
	string(types.TypeBug):           0,
	string(types.TypeFeature):       1,
	string(types.TypeDocumentation): 2,
	string(types.TypeQuestion):      3,
}

// componentPriority breaks component-axis ties. Rule codes short-circuit
// resolution entirely (see Resolve), so this order only decides between
// keyword families.
var componentPriority = map[string]int{
	string(types.ComponentParser):        0,
	string(types.ComponentRules):         1,
	string(types.ComponentTemplating):    2,
	string(types.ComponentCLI):           3,
	string(types.ComponentPerformance):   4,
	string(types.ComponentConfiguration): 5,
}

// dialectPatternPriority breaks dialect-axis ties by evidence strength:
// an explicit name mention beats a code-block syntax heuristic, which
// beats a configuration-snippet mention. Lower rank wins.
var dialectPatternPriority = map[string]int{
	extract.PatternDialectMention: 0,
	extract.PatternDialectSyntax:  1,
	extract.PatternDialectConfig:  2,
}

// Resolve derives the classification from a signal sequence. The
// completeness axis is not signal-driven; it is filled in later from the
// completeness assessment.
func Resolve(signals []types.Signal) types.ClassificationResult {
	return types.ClassificationResult{
		Type:      resolveType(signals),
		Dialect:   resolveDialect(signals),
		Component: resolveComponent(signals),
	}
}

// tally is the accumulated vote for one category on one axis.
type tally struct {
	category    string
	weight      int
	bestPattern int // strongest (lowest-rank) dialect pattern seen
}

// collect groups signals for one axis by category, in first-seen order so
// iteration stays deterministic.
func collect(signals []types.Signal, axis types.Axis) []*tally {
	var tallies []*tally
	index := make(map[string]*tally)
	for _, s := range signals {
		if s.Axis != axis {
			continue
		}
		tl, ok := index[s.Category]
		if !ok {
			tl = &tally{category: s.Category, bestPattern: len(dialectPatternPriority)}
			index[s.Category] = tl
			tallies = append(tallies, tl)
		}
		tl.weight += s.Weight
		if rank, ok := dialectPatternPriority[s.Pattern]; ok && rank < tl.bestPattern {
			tl.bestPattern = rank
		}
	}
	return tallies
}

func resolveType(signals []types.Signal) types.IssueType {
	tallies := collect(signals, types.AxisType)
	if len(tallies) == 0 {
		return types.TypeUnknown
	}
	best := tallies[0]
	for _, tl := range tallies[1:] {
		if tl.weight > best.weight ||
			(tl.weight == best.weight && typePriority[tl.category] < typePriority[best.category]) {
			best = tl
		}
	}
	return types.IssueType(best.category)
}

func resolveDialect(signals []types.Signal) string {
	tallies := collect(signals, types.AxisDialect)
	if len(tallies) == 0 {
		return types.DialectUnspecified
	}
	best := tallies[0]
	for _, tl := range tallies[1:] {
		if tl.weight > best.weight ||
			(tl.weight == best.weight && tl.bestPattern < best.bestPattern) {
			best = tl
		}
	}
	return best.category
}

func resolveComponent(signals []types.Signal) types.Component {
	// A rule-code hit (e.g. AL01) forces component=rules regardless of any
	// other matches: the author named a specific rule.
	for _, s := range signals {
		if s.Pattern == extract.PatternRuleCode {
			return types.ComponentRules
		}
	}

	tallies := collect(signals, types.AxisComponent)
	if len(tallies) == 0 {
		return types.ComponentUnknown
	}
	best := tallies[0]
	for _, tl := range tallies[1:] {
		if tl.weight > best.weight ||
			(tl.weight == best.weight && componentPriority[tl.category] < componentPriority[best.category]) {
			best = tl
		}
	}
	return types.Component(best.category)
}
