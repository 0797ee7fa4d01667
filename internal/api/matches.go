package api

import (
	"errors"
	"net/http"

	"github.com/shahrs5/supernetwork/internal/match"
	"github.com/shahrs5/supernetwork/internal/storage"
)

type matchResponse struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Headline    string `json:"headline"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// handleListMatches scores every other profile against the caller's
// and returns them best first.
func handleListMatches(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)

		own, err := deps.Store.GetProfile(userID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profile not found; complete onboarding first")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}

		others, err := deps.Store.ListProfilesExcept(userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list candidates: %v", err)
			return
		}

		limit := parseIntParam(r, "limit", 20, 100)
		if len(others) > limit {
			others = others[:limit]
		}

		viewer := toCandidate(own)
		candidates := make([]match.Candidate, len(others))
		for i, p := range others {
			candidates[i] = toCandidate(p)
		}

		ranked := deps.Ranker.Rank(r.Context(), viewer, candidates)

		results := make([]matchResponse, len(ranked))
		for i, m := range ranked {
			results[i] = matchResponse{
				UserID:      m.UserID,
				Name:        m.Profile.Name,
				Headline:    m.Profile.Headline,
				Score:       m.Score,
				Explanation: m.Explanation,
			}
		}

		writeJSON(w, results)
	}
}

func toCandidate(p storage.Profile) match.Candidate {
	return match.Candidate{
		UserID:  p.UserID,
		Profile: p.Record,
		Quiz:    p.Quiz,
	}
}
