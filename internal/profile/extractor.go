package profile

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/shahrs5/supernetwork/internal/sanitize"
)

const (
	// maxResumeChars bounds the resume text embedded in the prompt to
	// stay inside the model context budget (~4 chars per token).
	maxResumeChars = 15000

	truncationMarker = "..."

	extractMaxTokens = 1500

	extractorSystemPrompt = "You are a resume parser that extracts structured data. " +
		"Return only valid JSON without markdown code blocks."
)

// ExtractionFailedError wraps any completion or parse failure during
// profile extraction. There is no fallback: a wrong default profile
// would corrupt the user's persisted identity, so the caller surfaces
// the error and lets the user retry.
type ExtractionFailedError struct {
	cause error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extracting profile from resume: %v", e.cause)
}

func (e *ExtractionFailedError) Unwrap() error { return e.cause }

// Completer is the completion client surface the extractor needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Extractor turns flat resume text into a profile Record via a single
// structured-output completion call.
type Extractor struct {
	client Completer
}

// NewExtractor creates an Extractor using the given completion client.
func NewExtractor(client Completer) *Extractor {
	return &Extractor{client: client}
}

// Extract prompts the model for the six-field profile shape and coerces
// the response field by field. All failures propagate wrapped in
// *ExtractionFailedError.
func (e *Extractor) Extract(ctx context.Context, resumeText string) (Record, error) {
	text := truncate(resumeText, maxResumeChars)

	prompt := fmt.Sprintf(`Extract profile data from this resume and return ONLY valid JSON (no markdown, no extra text):
{
  "name": "",
  "headline": "",
  "skills": [],
  "experience_summary": "",
  "interests": [],
  "linkedin_link": ""
}

Resume text:
%s

Return only the JSON object, nothing else. For linkedin_link, extract any LinkedIn URL found in the resume.`, text)

	raw, err := e.client.Complete(ctx, extractorSystemPrompt, prompt, extractMaxTokens)
	if err != nil {
		return Record{}, &ExtractionFailedError{cause: err}
	}

	var fields map[string]any
	if err := sanitize.Decode(raw, &fields); err != nil {
		slog.Warn("profile extraction returned unparseable JSON", "error", err, "response_length", len(raw))
		return Record{}, &ExtractionFailedError{cause: err}
	}

	return coerce(fields), nil
}

// truncate cuts text to at most max bytes, appending the truncation
// marker when anything was dropped. The cut backs off to the previous
// rune boundary so a multi-byte rune is never split.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	slog.Info("truncating resume text", "from", len(text), "to", max)
	return text[:max] + truncationMarker
}
