// Package extract turns raw issue text into categorical signals.
//
// The extractor applies independent pattern families per axis (type
// keywords, dialect names, component keywords) against the title, the
// prose body and the code-block content separately. Code-block matches
// are weighted higher than prose matches for dialect detection. Extraction
// never fails: malformed or empty text simply produces no signals, which
// the classifier resolves to unknown/unspecified.
package extract

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sqlint/triagebot/internal/types"
)

// Weights applied to pattern matches by source.
const (
	proseWeight     = 1
	codeBlockWeight = 2
)

// maxExcerptLen bounds the matched text carried on a signal for audit.
const maxExcerptLen = 80

// Extractor scans an IssueSnapshot with its pattern families and produces
// an ordered sequence of signals. Safe for concurrent use: all state is
// immutable after construction.
type Extractor struct {
	dialects *dialectMatcher
	families []family
}

// family is one independent pattern family. Families share no mutable
// state and read only the immutable snapshot, so they run concurrently.
type family struct {
	name string
	scan func(snap *types.IssueSnapshot, prose string) []types.Signal
}

// New creates an extractor for the given known dialect names. A nil or
// empty list falls back to DefaultDialects.
func New(dialects []string) *Extractor {
	if len(dialects) == 0 {
		dialects = DefaultDialects
	}
	e := &Extractor{dialects: newDialectMatcher(dialects)}
	e.families = []family{
		{name: "type", scan: e.scanType},
		{name: "component", scan: e.scanComponent},
		{name: "rule-code", scan: e.scanRuleCodes},
		{name: "dialect-mention", scan: e.scanDialectMentions},
		{name: "dialect-syntax", scan: e.scanDialectSyntax},
		{name: "dialect-config", scan: e.scanDialectConfig},
	}
	return e
}

// Extract runs every pattern family against the snapshot and returns the
// combined signal sequence. Output order is fixed (family declaration
// order, then document order within a family) so the same snapshot always
// yields the same sequence regardless of scheduling.
func (e *Extractor) Extract(ctx context.Context, snap *types.IssueSnapshot) []types.Signal {
	prose := types.StripCodeBlocks(snap.Body)

	results := make([][]types.Signal, len(e.families))
	g, _ := errgroup.WithContext(ctx)
	for i, f := range e.families {
		g.Go(func() error {
			results[i] = f.scan(snap, prose)
			return nil
		})
	}
	// Scans cannot fail; Wait only synchronizes.
	_ = g.Wait()

	var signals []types.Signal
	for _, r := range results {
		signals = append(signals, r...)
	}
	return signals
}

// scanType applies the type keyword patterns to the title and prose body.
func (e *Extractor) scanType(snap *types.IssueSnapshot, prose string) []types.Signal {
	return scanKeywords(typePatterns, types.AxisType, PatternTypeKeyword, snap.Title, prose)
}

// scanComponent applies the component keyword patterns to the title and
// prose body.
func (e *Extractor) scanComponent(snap *types.IssueSnapshot, prose string) []types.Signal {
	return scanKeywords(componentPatterns, types.AxisComponent, PatternComponentKeyword, snap.Title, prose)
}

// scanRuleCodes finds linter rule codes (e.g. AL01) anywhere in the issue.
// A rule code is the strongest component evidence there is: the author is
// talking about a specific rule.
func (e *Extractor) scanRuleCodes(snap *types.IssueSnapshot, prose string) []types.Signal {
	var signals []types.Signal
	emit := func(text string, source types.SignalSource) {
		for _, m := range ruleCodeRe.FindAllString(text, -1) {
			signals = append(signals, types.Signal{
				Axis:     types.AxisComponent,
				Category: string(types.ComponentRules),
				Pattern:  PatternRuleCode,
				Source:   source,
				Excerpt:  m,
				Weight:   proseWeight,
			})
		}
	}
	emit(snap.Title, types.SourceTitle)
	emit(prose, types.SourceBody)
	for _, block := range snap.CodeBlocks {
		emit(block.Content, types.SourceCodeBlock)
	}
	return signals
}

// scanDialectMentions finds explicit dialect names in the title and prose.
func (e *Extractor) scanDialectMentions(snap *types.IssueSnapshot, prose string) []types.Signal {
	var signals []types.Signal
	emit := func(text string, source types.SignalSource) {
		for _, hit := range e.dialects.findAll(text) {
			signals = append(signals, types.Signal{
				Axis:     types.AxisDialect,
				Category: hit[0],
				Pattern:  PatternDialectMention,
				Source:   source,
				Excerpt:  hit[1],
				Weight:   proseWeight,
			})
		}
	}
	emit(snap.Title, types.SourceTitle)
	emit(prose, types.SourceBody)
	return signals
}

// scanDialectSyntax applies dialect-specific syntax heuristics to code
// blocks. A TSQL-only construct inside a code block is much stronger
// evidence than a dialect name in prose, so these carry double weight.
func (e *Extractor) scanDialectSyntax(snap *types.IssueSnapshot, _ string) []types.Signal {
	var signals []types.Signal
	for _, block := range snap.CodeBlocks {
		for _, h := range syntaxHeuristics {
			if m := h.re.FindString(block.Content); m != "" {
				signals = append(signals, types.Signal{
					Axis:     types.AxisDialect,
					Category: h.category,
					Pattern:  PatternDialectSyntax,
					Source:   types.SourceCodeBlock,
					Excerpt:  excerpt(m),
					Weight:   codeBlockWeight,
				})
			}
		}
	}
	return signals
}

// scanDialectConfig finds dialect settings in configuration snippets
// ("dialect = tsql"), both in prose and in code blocks.
func (e *Extractor) scanDialectConfig(snap *types.IssueSnapshot, prose string) []types.Signal {
	var signals []types.Signal
	emit := func(text string, source types.SignalSource, weight int) {
		for _, m := range dialectConfigRe.FindAllStringSubmatch(text, -1) {
			canon := e.dialects.resolve(m[1])
			if canon == "" {
				continue
			}
			signals = append(signals, types.Signal{
				Axis:     types.AxisDialect,
				Category: canon,
				Pattern:  PatternDialectConfig,
				Source:   source,
				Excerpt:  excerpt(m[0]),
				Weight:   weight,
			})
		}
	}
	emit(prose, types.SourceBody, proseWeight)
	for _, block := range snap.CodeBlocks {
		emit(block.Content, types.SourceCodeBlock, codeBlockWeight)
	}
	return signals
}

// scanKeywords applies a keyword pattern table to the title and prose body.
func scanKeywords(patterns []keywordPattern, axis types.Axis, patternName, title, prose string) []types.Signal {
	var signals []types.Signal
	emit := func(text string, source types.SignalSource) {
		for _, p := range patterns {
			for _, m := range p.re.FindAllString(text, -1) {
				signals = append(signals, types.Signal{
					Axis:     axis,
					Category: p.category,
					Pattern:  patternName,
					Source:   source,
					Excerpt:  excerpt(m),
					Weight:   proseWeight,
				})
			}
		}
	}
	emit(title, types.SourceTitle)
	emit(prose, types.SourceBody)
	return signals
}

func excerpt(s string) string {
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen]
	}
	return s
}
