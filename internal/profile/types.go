// Package profile defines the user profile record and its LLM-backed
// extraction from resume text.
package profile

// Record is the structured profile extracted from a resume and finalized
// by the user during onboarding. Once persisted it is the durable
// identity used for matching. All fields default to empty values; nil
// slices are normalized before the record reaches any consumer.
type Record struct {
	Name              string   `json:"name"`
	Headline          string   `json:"headline"`
	Skills            []string `json:"skills"`
	ExperienceSummary string   `json:"experience_summary"`
	Interests         []string `json:"interests"`
	LinkedInLink      string   `json:"linkedin_link"`
}

// QuizAnswers holds the ikigai preference survey responses keyed by
// question id (working_style, collaboration, goal, availability,
// passion).
type QuizAnswers map[string]string

// Normalize replaces nil slices with empty ones so downstream consumers
// never see null.
func (r *Record) Normalize() {
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Interests == nil {
		r.Interests = []string{}
	}
}

// coerce assembles a Record from an untyped JSON object, defaulting any
// field that is absent or has an unexpected type. The model's output is
// never trusted to match the requested shape.
func coerce(m map[string]any) Record {
	r := Record{
		Name:              asString(m["name"]),
		Headline:          asString(m["headline"]),
		Skills:            asStringSlice(m["skills"]),
		ExperienceSummary: asString(m["experience_summary"]),
		Interests:         asStringSlice(m["interests"]),
		LinkedInLink:      asString(m["linkedin_link"]),
	}
	r.Normalize()
	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
