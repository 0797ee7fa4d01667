package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shahrs5/supernetwork/internal/completion"
	"github.com/shahrs5/supernetwork/internal/extract"
	"github.com/shahrs5/supernetwork/internal/profile"
	"github.com/shahrs5/supernetwork/internal/storage"
)

type onboardRequest struct {
	Content     string              `json:"content"`
	MimeType    string              `json:"mime_type"`
	QuizAnswers profile.QuizAnswers `json:"quiz_answers"`
}

type profileResponse struct {
	UserID      string              `json:"user_id"`
	Profile     profile.Record      `json:"profile"`
	QuizAnswers profile.QuizAnswers `json:"quiz_answers"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// draftResponse is the unreviewed model-extracted profile. Nothing is
// persisted here; the client edits the draft and saves it via
// PUT /profile.
type draftResponse struct {
	Profile     profile.Record      `json:"profile"`
	QuizAnswers profile.QuizAnswers `json:"quiz_answers"`
}

// handleOnboardResume runs the upload-to-draft pipeline: decode the
// file, extract text, ask the model for a structured profile. The
// draft goes back to the caller for review; failures surface so the
// user can retry with a different file.
func handleOnboardResume(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxResumeBodySize)
		defer r.Body.Close()

		var req onboardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}

		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
			return
		}

		text, err := extract.Extract(req.MimeType, data)
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "could not read file: %v", err)
			return
		}

		record, err := deps.Profiles.Extract(r.Context(), text)
		if errors.Is(err, completion.ErrMissingCredential) {
			httpError(w, http.StatusServiceUnavailable, "api_error", "profile extraction is not configured")
			return
		}
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "failed to extract profile: %v", err)
			return
		}

		if req.QuizAnswers == nil {
			req.QuizAnswers = profile.QuizAnswers{}
		}
		writeJSON(w, draftResponse{
			Profile:     record,
			QuizAnswers: req.QuizAnswers,
		})
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Store.GetProfile(requestUserID(r))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profile not found; complete onboarding first")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}

		writeJSON(w, profileResponse{
			UserID:      p.UserID,
			Profile:     p.Record,
			QuizAnswers: p.Quiz,
			UpdatedAt:   p.UpdatedAt,
		})
	}
}

type putProfileRequest struct {
	Profile     profile.Record      `json:"profile"`
	QuizAnswers profile.QuizAnswers `json:"quiz_answers"`
}

func handlePutProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req putProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		req.Profile.Normalize()
		p := storage.Profile{
			UserID:    requestUserID(r),
			Record:    req.Profile,
			Quiz:      req.QuizAnswers,
			UpdatedAt: time.Now().UTC(),
		}
		if err := deps.Store.UpsertProfile(p); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save profile: %v", err)
			return
		}

		writeJSON(w, profileResponse{
			UserID:      p.UserID,
			Profile:     p.Record,
			QuizAnswers: p.Quiz,
			UpdatedAt:   p.UpdatedAt,
		})
	}
}
