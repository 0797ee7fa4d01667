// Package match scores profile compatibility with an LLM and ranks
// candidates for a viewer.
package match

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shahrs5/supernetwork/internal/profile"
	"github.com/shahrs5/supernetwork/internal/sanitize"
)

const (
	scoreMaxTokens = 1024

	scorerSystemPrompt = "You are a professional matchmaking AI. " +
		"Return only valid JSON without markdown code blocks."

	// missingField keeps the prompt shape stable when a profile field is
	// absent.
	missingField = "N/A"
)

// Result is the compatibility verdict for one (viewer, candidate) pair.
// Score is always in [0,100]. Results are recomputed on every view, not
// persisted.
type Result struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// Candidate bundles a user's persisted profile and quiz answers for
// scoring and ranking.
type Candidate struct {
	UserID  string              `json:"user_id"`
	Profile profile.Record      `json:"profile"`
	Quiz    profile.QuizAnswers `json:"quiz_answers"`
}

// Scorer computes a match Result for a viewer/candidate pair.
type Scorer interface {
	Score(ctx context.Context, viewer, candidate Candidate) (Result, error)
}

// Completer is the completion client surface the scorer needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// LLMScorer is the strict scorer: every completion, parse, or shape
// failure is returned as an error. Wrap it in a FallbackScorer to get
// the lenient behavior ranking requires.
type LLMScorer struct {
	client Completer
}

// NewLLMScorer creates a strict scorer using the given completion client.
func NewLLMScorer(client Completer) *LLMScorer {
	return &LLMScorer{client: client}
}

// Score prompts the model to compare the two profiles and coerces the
// response into a Result. Scores outside [0,100] are clamped; fractional
// scores are rounded.
func (s *LLMScorer) Score(ctx context.Context, viewer, candidate Candidate) (Result, error) {
	prompt := buildScorePrompt(viewer, candidate)

	raw, err := s.client.Complete(ctx, scorerSystemPrompt, prompt, scoreMaxTokens)
	if err != nil {
		return Result{}, err
	}

	var payload map[string]any
	if err := sanitize.Decode(raw, &payload); err != nil {
		return Result{}, err
	}

	score, ok := payload["score"].(float64)
	if !ok {
		return Result{}, fmt.Errorf("score missing or not a number in response")
	}
	explanation, _ := payload["explanation"].(string)
	if explanation == "" {
		return Result{}, fmt.Errorf("explanation missing in response")
	}

	return Result{Score: clampScore(score), Explanation: explanation}, nil
}

func buildScorePrompt(viewer, candidate Candidate) string {
	return fmt.Sprintf(`Score this match from 0-100 and explain why in 2-3 sentences.

Current User:
%s

Match Candidate:
- Name: %s
%s

Return ONLY valid JSON (no markdown):
{
  "score": 85,
  "explanation": "Strong overlap in skills and goals..."
}`, profileSection(viewer), orNA(candidate.Profile.Name), profileSection(candidate))
}

// profileSection renders the matching-relevant profile fields plus the
// three quiz answers the scorer weighs, substituting the placeholder for
// anything missing.
func profileSection(c Candidate) string {
	return fmt.Sprintf(`- Skills: %s
- Experience: %s
- Interests: %s
- Working style: %s
- Collaboration: %s
- Goal: %s`,
		joinOrNA(c.Profile.Skills),
		orNA(c.Profile.ExperienceSummary),
		joinOrNA(c.Profile.Interests),
		orNA(c.Quiz["working_style"]),
		orNA(c.Quiz["collaboration"]),
		orNA(c.Quiz["goal"]),
	)
}

func orNA(s string) string {
	if s == "" {
		return missingField
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return missingField
	}
	return strings.Join(items, ", ")
}

func clampScore(f float64) int {
	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
