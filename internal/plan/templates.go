package plan

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/sqlint/triagebot/internal/types"
)

// itemDescriptions render each checklist item as the request we make of
// the issue author.
var itemDescriptions = map[types.ChecklistItem]string{
	types.ItemSQLExample:      "a minimal SQL example (in a fenced code block) that reproduces the problem",
	types.ItemDialectEvidence: "the SQL dialect you are linting (or the relevant part of your configuration)",
	types.ItemExpectedActual:  "what you expected to happen and what actually happened",
	types.ItemUseCase:         "a short description of your use case, so we can judge the fit",
}

// commentTemplates are the fixed needs-info comment bodies, keyed by the
// canonical missing-item set. Sets without a dedicated template fall back
// to the generic one rather than failing the run.
var commentTemplates = map[string]string{
	templateKey(types.ItemSQLExample, types.ItemDialectEvidence, types.ItemExpectedActual): "" +
		"Thanks for the report! To reproduce this we need a little more detail. Could you edit the issue to add:\n\n" +
		"{{range .Missing}}- {{.}}\n{{end}}" +
		"\nOnce that's in, we'll take another look.",
	templateKey(types.ItemSQLExample): "" +
		"Thanks for the report! Could you add a minimal SQL example (in a fenced code block) that reproduces the problem? " +
		"Without one we can't tell whether this is a parser issue or a rule issue.",
	templateKey(types.ItemDialectEvidence): "" +
		"Thanks for the report! Could you tell us which SQL dialect you are linting, or paste the relevant part of your configuration? " +
		"Many parse issues are dialect-specific.",
	templateKey(types.ItemExpectedActual): "" +
		"Thanks for the report! Could you spell out what you expected to happen and what actually happened? " +
		"That usually tells us immediately whether the behavior is a bug or by design.",
	templateKey(types.ItemUseCase): "" +
		"Thanks for the suggestion! Could you describe the use case this would serve? " +
		"It helps us weigh the feature against the maintenance cost.",
}

// genericTemplate covers missing-item combinations that have no dedicated
// template.
const genericTemplate = "" +
	"Thanks for opening this! Before we can triage it properly, could you edit the issue to add:\n\n" +
	"{{range .Missing}}- {{.}}\n{{end}}"

var parsedTemplates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(commentTemplates)+1)
	for key, body := range commentTemplates {
		out[key] = template.Must(template.New(key).Parse(body))
	}
	out[""] = template.Must(template.New("generic").Parse(genericTemplate))
	return out
}()

// templateKey canonicalizes a missing-item set into a lookup key.
func templateKey(items ...types.ChecklistItem) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = string(item)
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// renderComment renders the needs-info comment for the given missing items.
func renderComment(missing []types.ChecklistItem) (string, error) {
	tmpl, ok := parsedTemplates[templateKey(missing...)]
	if !ok {
		tmpl = parsedTemplates[""]
	}

	descriptions := make([]string, len(missing))
	for i, item := range missing {
		d, ok := itemDescriptions[item]
		if !ok {
			d = string(item)
		}
		descriptions[i] = d
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Missing []string }{descriptions}); err != nil {
		return "", fmt.Errorf("failed to render comment template: %w", err)
	}
	return buf.String(), nil
}
