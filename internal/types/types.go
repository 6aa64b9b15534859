package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// EventKind identifies the issue-lifecycle event that triggered a triage run.
type EventKind string

const (
	EventOpened EventKind = "opened"
	EventEdited EventKind = "edited"
)

// IsValid checks if the event kind value is valid
func (k EventKind) IsValid() bool {
	switch k {
	case EventOpened, EventEdited:
		return true
	}
	return false
}

// CodeBlock is one fenced code block extracted from an issue body, in
// document order. Language is the fence info string (lowercased), or ""
// when the fence carried none.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// IssueSnapshot is an immutable view of an issue at the moment a trigger
// event fired. It is created once per incoming event and never mutated;
// every stage of the pipeline reads from it and nothing writes back.
type IssueSnapshot struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	CodeBlocks []CodeBlock `json:"code_blocks,omitempty"`
	Labels     []string    `json:"labels,omitempty"`
	Kind       EventKind   `json:"kind"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewAdhocSnapshot builds a snapshot from raw text, for dry runs and the
// interactive console where no tracker issue exists.
func NewAdhocSnapshot(title, body string) *IssueSnapshot {
	return &IssueSnapshot{
		ID:         "adhoc",
		Title:      title,
		Body:       body,
		CodeBlocks: SplitCodeBlocks(body),
		Kind:       EventOpened,
		Timestamp:  time.Now(),
	}
}

// Validate checks if the snapshot has valid field values
func (s *IssueSnapshot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("issue id is required")
	}
	if !s.Kind.IsValid() {
		return fmt.Errorf("invalid event kind: %s", s.Kind)
	}
	return nil
}

// HasLabel reports whether the snapshot carries the given label.
func (s *IssueSnapshot) HasLabel(label string) bool {
	for _, l := range s.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// fenceRe matches a whole fenced code block. (?s) so the body can span lines.
var fenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)[ \t]*\n(.*?)```")

// SplitCodeBlocks extracts the ordered sequence of fenced code blocks from a
// raw markdown body. Unterminated fences are ignored rather than treated as
// an error; malformed issue text is always accepted.
func SplitCodeBlocks(body string) []CodeBlock {
	matches := fenceRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(m[1]),
			Content:  m[2],
		})
	}
	return blocks
}

// StripCodeBlocks returns the body with all fenced code blocks removed,
// leaving only prose. Used so prose pattern families do not double-match
// text that belongs to a code block.
func StripCodeBlocks(body string) string {
	return fenceRe.ReplaceAllString(body, "\n")
}

// Axis is one independent classification dimension.
type Axis string

const (
	AxisType      Axis = "type"
	AxisDialect   Axis = "dialect"
	AxisComponent Axis = "component"
)

// SignalSource identifies which part of the snapshot a signal came from.
// Code-block matches carry more weight than prose matches for dialect
// detection, so the source is preserved on every signal.
type SignalSource string

const (
	SourceTitle     SignalSource = "title"
	SourceBody      SignalSource = "body"
	SourceCodeBlock SignalSource = "code_block"
)

// Signal is a single piece of pattern-match evidence: some span of the
// issue text matched a pattern associated with one axis/category.
// Multiple signals may exist per axis; the classifier resolves them.
type Signal struct {
	// Axis is the classification dimension this evidence applies to
	Axis Axis `json:"axis"`
	// Category is the candidate value for that axis (e.g. "bug", "tsql")
	Category string `json:"category"`
	// Pattern names the pattern family that produced the match
	// (e.g. "type-keyword", "dialect-mention", "rule-code")
	Pattern string `json:"pattern"`
	// Source is which part of the snapshot matched
	Source SignalSource `json:"source"`
	// Excerpt is the matched text, for audit trails
	Excerpt string `json:"excerpt,omitempty"`
	// Weight is the vote weight of this match (code-block dialect hits
	// count double)
	Weight int `json:"weight"`
}

// IssueType is the resolved value of the type axis.
type IssueType string

const (
	TypeBug           IssueType = "bug"
	TypeFeature       IssueType = "feature"
	TypeDocumentation IssueType = "documentation"
	TypeQuestion      IssueType = "question"
	TypeUnknown       IssueType = "unknown"
)

// IsValid checks if the issue type value is valid
func (t IssueType) IsValid() bool {
	switch t {
	case TypeBug, TypeFeature, TypeDocumentation, TypeQuestion, TypeUnknown:
		return true
	}
	return false
}

// DialectUnspecified is the dialect axis value when no dialect evidence was
// found. Any other value is a canonical dialect name from the known set.
const DialectUnspecified = "unspecified"

// Component is the resolved value of the component axis.
type Component string

const (
	ComponentParser        Component = "parser"
	ComponentRules         Component = "rules"
	ComponentTemplating    Component = "templating"
	ComponentCLI           Component = "cli"
	ComponentPerformance   Component = "performance"
	ComponentConfiguration Component = "configuration"
	ComponentUnknown       Component = "unknown"
)

// IsValid checks if the component value is valid
func (c Component) IsValid() bool {
	switch c {
	case ComponentParser, ComponentRules, ComponentTemplating, ComponentCLI,
		ComponentPerformance, ComponentConfiguration, ComponentUnknown:
		return true
	}
	return false
}

// Completeness is the resolved value of the completeness axis.
type Completeness string

const (
	CompletenessComplete  Completeness = "complete"
	CompletenessNeedsInfo Completeness = "needs-info"
)

// ChecklistItem names one piece of evidence an issue type may require.
type ChecklistItem string

const (
	// ItemSQLExample requires a reproducible SQL example in a code block
	ItemSQLExample ChecklistItem = "sql-example"
	// ItemDialectEvidence requires a dialect name or config snippet naming one
	ItemDialectEvidence ChecklistItem = "dialect-evidence"
	// ItemExpectedActual requires stated expected-vs-actual behavior
	ItemExpectedActual ChecklistItem = "expected-vs-actual"
	// ItemUseCase requires a use case description on feature requests
	ItemUseCase ChecklistItem = "use-case"
)

// ClassificationResult is one resolved category per axis. It is derived
// deterministically from the signal set for a given IssueSnapshot: same
// input text always yields the same result.
type ClassificationResult struct {
	Type         IssueType    `json:"type"`
	Dialect      string       `json:"dialect"`
	Component    Component    `json:"component"`
	Completeness Completeness `json:"completeness"`
}

// LabelDiff is the set of labels to add to an issue. Reconciliation is
// additive only: a diff never proposes removing an existing label, so the
// tracker's label set grows monotonically across runs.
type LabelDiff struct {
	Add []string `json:"add,omitempty"`
}

// Empty reports whether the diff proposes no changes.
func (d LabelDiff) Empty() bool {
	return len(d.Add) == 0
}
