// Package scoring computes how closely a traced path follows the reference
// outline.
//
// The coverage algorithm is used throughout: a reference point counts as
// covered when at least one traced point lies within the threshold of it,
// and the score is the rounded percentage of covered reference points.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/drawtree/internal/domain/model"
)

// Default scoring configuration constants.
const (
	// DefaultThreshold is tuned to the 256x291 tree outline.
	DefaultThreshold = 20.0
	percent          = 100
)

// Option applies a configuration option to the CoverageScorer.
type Option func(*CoverageScorer)

// WithThreshold sets the coverage distance threshold in logical units.
// Non-positive values are ignored.
func WithThreshold(threshold float64) Option {
	return func(s *CoverageScorer) {
		if threshold > 0 && !math.IsInf(threshold, 0) {
			s.threshold = threshold
		}
	}
}

// Input carries a finished path and the outline it is compared against.
type Input struct {
	Path      model.Path
	Reference model.ReferenceOutline
}

// Result contains the computed score.
type Result struct {
	Score   int
	Covered int
	Total   int
}

// Scorer computes a score from an input.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// CoverageScorer implements Scorer with coverage scoring.
type CoverageScorer struct {
	threshold float64
}

// NewCoverageScorer creates a coverage scorer with configuration options.
func NewCoverageScorer(opts ...Option) *CoverageScorer {
	s := &CoverageScorer{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured coverage threshold.
func (s *CoverageScorer) Threshold() float64 { return s.threshold }

// Score computes the coverage score for in. Neither the path nor the
// reference outline is modified.
func (s *CoverageScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	covered := countCovered(in.Path, in.Reference, s.threshold)
	return Result{
		Score:   percentage(covered, in.Reference.Len()),
		Covered: covered,
		Total:   in.Reference.Len(),
	}, nil
}

// Coverage returns the coverage score of path against reference. An empty
// path always scores 0.
func Coverage(path model.Path, reference model.ReferenceOutline, threshold float64) int {
	return percentage(countCovered(path, reference, threshold), reference.Len())
}

func countCovered(path model.Path, reference model.ReferenceOutline, threshold float64) int {
	if len(path) == 0 {
		return 0
	}
	covered := 0
	for i := 0; i < reference.Len(); i++ {
		r := reference.At(i)
		for _, p := range path {
			if p.Dist(r) <= threshold {
				covered++
				break
			}
		}
	}
	return covered
}

func percentage(covered, total int) int {
	if total <= 0 {
		return model.MinScore
	}
	score := int(math.Round(percent * float64(covered) / float64(total)))
	return max(model.MinScore, min(model.MaxScore, score))
}
