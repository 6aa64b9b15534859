// Package scorer produces classification evidence for an issue snapshot.
//
// The default scorer is the deterministic pattern extractor; an optional
// LLM-backed scorer can supplement it with signals the pattern tables
// miss. Both emit the same Signal shape so the classifier downstream
// does not care where evidence came from.
package scorer

import (
	"context"

	"github.com/sqlint/triagebot/internal/extract"
	"github.com/sqlint/triagebot/internal/types"
)

// Scorer turns an issue snapshot into classification signals.
type Scorer interface {
	Score(ctx context.Context, snap *types.IssueSnapshot) ([]types.Signal, error)
}

// PatternScorer is the deterministic scorer backed by the pattern
// extractor. It never fails.
type PatternScorer struct {
	extractor *extract.Extractor
}

// NewPatternScorer creates a scorer over the given dialect list. A nil
// list uses the default known dialects.
func NewPatternScorer(dialects []string) *PatternScorer {
	return &PatternScorer{extractor: extract.New(dialects)}
}

// Score implements Scorer.
func (s *PatternScorer) Score(ctx context.Context, snap *types.IssueSnapshot) ([]types.Signal, error) {
	return s.extractor.Extract(ctx, snap), nil
}

// Compile-time check
var _ Scorer = (*PatternScorer)(nil)
