package match

import (
	"context"
	"sort"
)

// Ranked is a candidate profile annotated with its match result.
type Ranked struct {
	Candidate
	Result
}

// Ranker scores every candidate against the viewer and orders the
// results by score descending.
type Ranker struct {
	scorer Scorer
}

// NewRanker creates a Ranker. The scorer is wrapped in the fallback
// policy so a failed candidate degrades to FallbackResult instead of
// aborting the ranking.
func NewRanker(scorer Scorer) *Ranker {
	if _, ok := scorer.(*FallbackScorer); !ok {
		scorer = NewFallbackScorer(scorer)
	}
	return &Ranker{scorer: scorer}
}

// Rank scores candidates one at a time, in order. Sequential calls keep
// outbound load on the completion endpoint bounded at one in-flight
// request, at the cost of latency linear in candidate count. The sort
// is stable: ties keep their input order.
func (r *Ranker) Rank(ctx context.Context, viewer Candidate, candidates []Candidate) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		res, _ := r.scorer.Score(ctx, viewer, c)
		ranked = append(ranked, Ranked{Candidate: c, Result: res})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
