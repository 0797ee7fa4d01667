package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shahrs5/supernetwork/internal/storage"
)

const maxMessageChars = 4000

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

func handleSendMessage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		userID := requestUserID(r)
		if req.RecipientID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "recipient_id is required")
			return
		}
		if req.RecipientID == userID {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "cannot message yourself")
			return
		}
		body := strings.TrimSpace(req.Body)
		if body == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "body is required")
			return
		}
		if len(body) > maxMessageChars {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message too long")
			return
		}

		if _, err := deps.Store.GetUser(req.RecipientID); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "recipient not found")
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to look up recipient: %v", err)
			return
		}

		m := storage.Message{
			ID:          uuid.NewString(),
			ThreadID:    storage.ThreadID(userID, req.RecipientID),
			SenderID:    userID,
			RecipientID: req.RecipientID,
			Body:        body,
			CreatedAt:   time.Now().UTC(),
		}
		if err := deps.Store.SaveMessage(m); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save message: %v", err)
			return
		}

		if deps.Feed != nil {
			deps.Feed.Publish(m)
		}

		writeJSON(w, m)
	}
}

func handleListThreads(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threads, err := deps.Store.ListThreadsForUser(requestUserID(r))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list threads: %v", err)
			return
		}
		if threads == nil {
			threads = []storage.Thread{}
		}
		writeJSON(w, threads)
	}
}

func handleListMessages(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "id")
		if !threadParticipant(threadID, requestUserID(r)) {
			httpError(w, http.StatusForbidden, "authorization_error", "not a participant of this thread")
			return
		}

		limit := parseIntParam(r, "limit", 50, 500)
		msgs, err := deps.Store.ListMessagesByThread(threadID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list messages: %v", err)
			return
		}
		if msgs == nil {
			msgs = []storage.Message{}
		}
		writeJSON(w, msgs)
	}
}

// threadParticipant reports whether userID is one of the two ids a
// thread key is built from.
func threadParticipant(threadID, userID string) bool {
	a, b, ok := strings.Cut(threadID, "_")
	if !ok {
		return false
	}
	return a == userID || b == userID
}
