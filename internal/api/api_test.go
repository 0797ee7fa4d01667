package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shahrs5/supernetwork/internal/auth"
	"github.com/shahrs5/supernetwork/internal/match"
	"github.com/shahrs5/supernetwork/internal/profile"
	"github.com/shahrs5/supernetwork/internal/storage"
)

// mockCompleter stands in for the completion client in both the
// profile extractor and the match scorer.
type mockCompleter struct {
	fn func(systemPrompt, userPrompt string, maxTokens int) (string, error)
}

func (m *mockCompleter) Complete(_ context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return m.fn(systemPrompt, userPrompt, maxTokens)
}

func setupAppHandler(t *testing.T, complete func(systemPrompt, userPrompt string, maxTokens int) (string, error)) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if complete == nil {
		complete = func(_, _ string, _ int) (string, error) {
			return `{"score": 50, "explanation": "default"}`, nil
		}
	}
	client := &mockCompleter{fn: complete}

	handler := NewAppHandler(AppDeps{
		Store:    store,
		Auth:     auth.NewService(store),
		Profiles: profile.NewExtractor(client),
		Ranker:   match.NewRanker(match.NewLLMScorer(client)),
		Feed:     NewFeedHub(),
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// signUpUser registers a user through the API and returns the id and
// session token.
func signUpUser(t *testing.T, h http.Handler, email string) (string, string) {
	t.Helper()
	body := `{"email":"` + email + `","password":"long enough password"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/auth/signup", body, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("signup status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var resp sessionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding signup response: %v", err)
	}
	return resp.UserID, resp.Token
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v; body = %s", err, rr.Body.String())
	}
	return v
}
