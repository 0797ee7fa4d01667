package match

import (
	"context"
	"log/slog"
)

// FallbackResult is returned for any scoring failure. It is a
// load-bearing contract: consumers must not treat it as a real score
// when computing statistics.
var FallbackResult = Result{
	Score:       50,
	Explanation: "Unable to generate match score at this time.",
}

// FallbackScorer wraps a strict Scorer with a fallback-on-error policy:
// a single candidate's scoring failure must not abort ranking of the
// remaining candidates, so every error is swallowed into FallbackResult.
type FallbackScorer struct {
	inner Scorer
}

// NewFallbackScorer wraps the given scorer.
func NewFallbackScorer(inner Scorer) *FallbackScorer {
	return &FallbackScorer{inner: inner}
}

// Score never returns an error.
func (s *FallbackScorer) Score(ctx context.Context, viewer, candidate Candidate) (Result, error) {
	res, err := s.inner.Score(ctx, viewer, candidate)
	if err != nil {
		slog.Warn("match scoring failed, using fallback", "candidate", candidate.UserID, "error", err)
		return FallbackResult, nil
	}
	return res, nil
}
