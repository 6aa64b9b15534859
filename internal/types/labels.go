package types

import "strings"

// Label namespaces. Every label the triage engine manages is namespaced as
// axis:category; labels outside these namespaces belong to humans and are
// never touched.
const (
	// NamespaceType prefixes type-axis labels (type:bug, type:feature, ...)
	NamespaceType = "type:"
	// NamespaceDialect prefixes dialect labels (dialect:tsql, ...)
	NamespaceDialect = "dialect:"
	// NamespaceComponent prefixes component labels (component:parser, ...)
	NamespaceComponent = "component:"
	// NamespaceStatus prefixes completeness labels (status:complete, status:needs-info)
	NamespaceStatus = "status:"
)

// LabelEscalation marks tracker issues created by the escalation path.
const LabelEscalation = "triage:escalation"

// TypeLabel builds the type-axis label for an issue type.
func TypeLabel(t IssueType) string {
	return NamespaceType + string(t)
}

// DialectLabel builds the dialect label for a canonical dialect name.
func DialectLabel(dialect string) string {
	return NamespaceDialect + dialect
}

// ComponentLabel builds the component label for a component.
func ComponentLabel(c Component) string {
	return NamespaceComponent + string(c)
}

// StatusLabel builds the status label for a completeness value.
func StatusLabel(c Completeness) string {
	return NamespaceStatus + string(c)
}

// HasNamespace reports whether any label in the set carries the given
// namespace prefix. Used by the reconciler's stale-label policy: an
// existing label in a namespace suppresses adding a competing value.
func HasNamespace(labels []string, namespace string) bool {
	for _, l := range labels {
		if strings.HasPrefix(l, namespace) {
			return true
		}
	}
	return false
}
