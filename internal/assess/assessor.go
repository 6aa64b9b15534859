// Package assess scores an issue's evidence completeness against a
// type-dependent checklist.
//
// Bug reports require a reproducible SQL example, dialect or config
// evidence, and stated expected-vs-actual behavior. Feature requests
// require a use case description. Other types have no mandatory evidence.
// An issue is complete iff every required item for its detected type is
// present; otherwise it is needs-info, carrying the specific missing items
// so the planner can pick the matching comment template.
package assess

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/sqlint/triagebot/internal/types"
)

// Assessment is the completeness verdict plus the evidence that produced it.
type Assessment struct {
	Completeness types.Completeness `json:"completeness"`
	// Missing lists the required checklist items not found, in checklist
	// order. Empty iff Completeness is complete.
	Missing []types.ChecklistItem `json:"missing,omitempty"`
	// Evidence maps each satisfied item to the text that satisfied it,
	// for audit trails.
	Evidence map[types.ChecklistItem]string `json:"evidence,omitempty"`
	// Version is the linter version mentioned in the issue, canonicalized
	// ("v1.4.2"), or "" when none was found. Not part of any checklist;
	// recorded because maintainers ask for it constantly.
	Version string `json:"version,omitempty"`
}

// checklists maps each issue type to its required evidence, in the order
// missing items are reported.
var checklists = map[types.IssueType][]types.ChecklistItem{
	types.TypeBug: {
		types.ItemSQLExample,
		types.ItemDialectEvidence,
		types.ItemExpectedActual,
	},
	types.TypeFeature: {
		types.ItemUseCase,
	},
}

var (
	// sqlKeywordRe decides whether a code block plausibly contains SQL.
	sqlKeywordRe = regexp.MustCompile(`(?i)\b(select|insert|update|delete|create|alter|drop|merge|with|grant)\b`)

	// expectedActualRe matches explicit expectation language. Deliberately
	// narrower than the bug keyword patterns: "it doesn't work" is a bug
	// signal but not a statement of expected-vs-actual behavior.
	expectedActualRe = regexp.MustCompile(`(?i)\bexpected\b|\bshould (be|have|not|produce|return|pass|parse)\b|\binstead of\b|\bactual(ly)? (output|result|behaviou?r)?\b|\bbut (got|gets|returns|produces)\b|\bobserved\b|\brather than\b|\bfails? to\b|\bnot (being )?(pars|render|lint|detect|recogni[sz])\w*`)

	// useCaseRe matches use-case language on feature requests.
	useCaseRe = regexp.MustCompile(`(?i)\buse case\b|\bso that\b|\bthis would (let|allow|enable|help)\b|\bwe (need|want|use)\b|\bi (need|want|use)\b|\bfor example\b|\bmy (team|project|workflow)\b`)

	// versionRe finds version strings like "1.4.2" or "v0.13".
	versionRe = regexp.MustCompile(`\bv?(\d+\.\d+(?:\.\d+)?)\b`)

	// dialectConfigKeyRe is a weak fallback for dialect evidence: the
	// author at least pointed at a dialect setting even if the extractor
	// could not canonicalize the value.
	dialectConfigKeyRe = regexp.MustCompile(`(?i)\bdialect\s*[:=]`)
)

// Assess checks the snapshot's evidence against the checklist for the
// detected type. Dialect evidence is taken from the extractor's signals
// (any dialect-axis signal satisfies it) with a config-key fallback, so
// the assessor does not re-run dialect detection.
func Assess(snap *types.IssueSnapshot, issueType types.IssueType, signals []types.Signal) Assessment {
	required, ok := checklists[issueType]
	if !ok {
		// documentation, question, unknown: no mandatory evidence
		return Assessment{
			Completeness: types.CompletenessComplete,
			Version:      detectVersion(snap),
		}
	}

	a := Assessment{
		Evidence: make(map[types.ChecklistItem]string),
		Version:  detectVersion(snap),
	}
	for _, item := range required {
		if excerpt, present := checkItem(item, snap, signals); present {
			a.Evidence[item] = excerpt
		} else {
			a.Missing = append(a.Missing, item)
		}
	}

	if len(a.Missing) == 0 {
		a.Completeness = types.CompletenessComplete
	} else {
		a.Completeness = types.CompletenessNeedsInfo
	}
	return a
}

func checkItem(item types.ChecklistItem, snap *types.IssueSnapshot, signals []types.Signal) (string, bool) {
	switch item {
	case types.ItemSQLExample:
		return findSQLExample(snap)
	case types.ItemDialectEvidence:
		return findDialectEvidence(snap, signals)
	case types.ItemExpectedActual:
		return findMatch(expectedActualRe, snap)
	case types.ItemUseCase:
		return findMatch(useCaseRe, snap)
	}
	return "", false
}

// findSQLExample accepts a code block explicitly fenced as sql, or any
// code block whose content contains a SQL keyword.
func findSQLExample(snap *types.IssueSnapshot) (string, bool) {
	for _, block := range snap.CodeBlocks {
		if block.Language == "sql" || sqlKeywordRe.MatchString(block.Content) {
			return firstLine(block.Content), true
		}
	}
	return "", false
}

func findDialectEvidence(snap *types.IssueSnapshot, signals []types.Signal) (string, bool) {
	for _, s := range signals {
		if s.Axis == types.AxisDialect {
			return s.Excerpt, true
		}
	}
	if m := dialectConfigKeyRe.FindString(snap.Body); m != "" {
		return m, true
	}
	return "", false
}

func findMatch(re *regexp.Regexp, snap *types.IssueSnapshot) (string, bool) {
	if m := re.FindString(snap.Title); m != "" {
		return m, true
	}
	if m := re.FindString(types.StripCodeBlocks(snap.Body)); m != "" {
		return m, true
	}
	return "", false
}

// detectVersion finds the first token that parses as a semantic version in
// the title or prose body.
func detectVersion(snap *types.IssueSnapshot) string {
	text := snap.Title + "\n" + types.StripCodeBlocks(snap.Body)
	for _, m := range versionRe.FindAllStringSubmatch(text, -1) {
		v := "v" + m[1]
		if semver.IsValid(v) {
			return semver.Canonical(v)
		}
	}
	return ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
