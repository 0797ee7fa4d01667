package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shahrs5/supernetwork/internal/auth"
	"github.com/shahrs5/supernetwork/internal/match"
	"github.com/shahrs5/supernetwork/internal/profile"
	"github.com/shahrs5/supernetwork/internal/storage"
)

const maxRequestBodySize = 1 << 20  // 1MB
const maxResumeBodySize = 10 << 20 // 10MB

type AppDeps struct {
	Store    *storage.Store
	Auth     *auth.Service
	Profiles *profile.Extractor
	Ranker   *match.Ranker
	Feed     *FeedHub
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/auth/signup", handleSignUp(deps))
	r.Post("/auth/login", handleLogIn(deps))

	r.Group(func(r chi.Router) {
		r.Use(SessionAuth(deps.Auth))

		r.Post("/auth/logout", handleLogOut(deps))
		r.Post("/onboarding/resume", handleOnboardResume(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handlePutProfile(deps))
		r.Get("/matches", handleListMatches(deps))
		r.Get("/threads", handleListThreads(deps))
		r.Get("/threads/{id}/messages", handleListMessages(deps))
		r.Get("/threads/{id}/feed", handleThreadFeed(deps))
		r.Post("/messages", handleSendMessage(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
