package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shahrs5/supernetwork/internal/auth"
	"github.com/shahrs5/supernetwork/internal/storage"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	sessionTokenKey
)

// SessionAuth resolves the bearer token to a user and stores the user
// id in the request context.
func SessionAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			token := header[len(prefix):]

			userID, err := svc.Authenticate(token)
			if errors.Is(err, auth.ErrSessionExpired) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "session expired")
				return
			}
			if err != nil {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, sessionTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func requestToken(r *http.Request) string {
	token, _ := r.Context().Value(sessionTokenKey).(string)
	return token
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func handleSignUp(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		u, token, err := deps.Auth.SignUp(req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case errors.Is(err, storage.ErrEmailTaken):
			httpError(w, http.StatusConflict, "invalid_request_error", "email already registered")
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create account: %v", err)
			return
		}

		writeJSON(w, sessionResponse{UserID: u.ID, Email: u.Email, Token: token})
	}
}

func handleLogIn(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		u, token, err := deps.Auth.LogIn(req.Email, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid email or password")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to log in: %v", err)
			return
		}

		writeJSON(w, sessionResponse{UserID: u.ID, Email: u.Email, Token: token})
	}
}

func handleLogOut(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Auth.LogOut(requestToken(r)); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to log out: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "logged_out"})
	}
}
