package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shahrs5/supernetwork/internal/storage"
)

const resumeText = "Amina Osei. Backend engineer, five years of Go. linkedin.com/in/aminaosei"

const extractedProfileJSON = `{
	"name": "Amina Osei",
	"headline": "Backend Engineer",
	"skills": ["Go", "SQL"],
	"experience_summary": "Five years building backend services.",
	"interests": ["distributed systems"],
	"linkedin_link": "https://linkedin.com/in/aminaosei"
}`

func onboardBody(content, mime string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	return `{"content":"` + encoded + `","mime_type":"` + mime + `","quiz_answers":{"working_style":"deep focus","goal":"find a cofounder"}}`
}

func TestOnboardResume_PlainText(t *testing.T) {
	h, store := setupAppHandler(t, func(_, userPrompt string, _ int) (string, error) {
		if !strings.Contains(userPrompt, "Amina Osei") {
			t.Errorf("resume text missing from prompt: %q", userPrompt)
		}
		// Model wraps the payload in a fence; the pipeline must cope.
		return "```json\n" + extractedProfileJSON + "\n```", nil
	})
	userID, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/onboarding/resume", onboardBody(resumeText, "text/plain"), token))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	resp := decodeJSON[draftResponse](t, rr)
	if resp.Profile.Name != "Amina Osei" {
		t.Errorf("Profile.Name = %q, want Amina Osei", resp.Profile.Name)
	}
	if resp.Profile.LinkedInLink != "https://linkedin.com/in/aminaosei" {
		t.Errorf("Profile.LinkedInLink = %q", resp.Profile.LinkedInLink)
	}
	if resp.QuizAnswers["working_style"] != "deep focus" {
		t.Errorf("QuizAnswers = %v", resp.QuizAnswers)
	}

	// The draft is only a suggestion. Nothing is saved until the user
	// reviews it and calls PUT /profile.
	if _, err := store.GetProfile(userID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile() after onboarding error = %v, want ErrNotFound", err)
	}
}

func TestOnboardDraftThenPutPersists(t *testing.T) {
	h, store := setupAppHandler(t, func(_, _ string, _ int) (string, error) {
		return extractedProfileJSON, nil
	})
	userID, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/onboarding/resume", onboardBody(resumeText, "text/plain"), token))
	if rr.Code != http.StatusOK {
		t.Fatalf("onboard status = %d; body = %s", rr.Code, rr.Body.String())
	}

	// Accept the draft verbatim: the onboard response body is a valid
	// PUT /profile body.
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, authReq(http.MethodPut, "/profile", rr.Body.String(), token))
	if rr2.Code != http.StatusOK {
		t.Fatalf("PUT status = %d; body = %s", rr2.Code, rr2.Body.String())
	}

	saved, err := store.GetProfile(userID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if saved.Record.Headline != "Backend Engineer" {
		t.Errorf("saved headline = %q", saved.Record.Headline)
	}
	if saved.Quiz["goal"] != "find a cofounder" {
		t.Errorf("saved quiz = %v", saved.Quiz)
	}
}

func TestOnboardResume_UnsupportedMime(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	_, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/onboarding/resume",
		onboardBody("doc bytes", "application/msword"), token))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestOnboardResume_InvalidBase64(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	_, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/onboarding/resume",
		`{"content":"not base64!!!","mime_type":"text/plain"}`, token))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOnboardResume_CorruptPDF(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	_, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/onboarding/resume",
		onboardBody("definitely not a pdf", "application/pdf"), token))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
}

func TestOnboardResume_UpstreamFailure(t *testing.T) {
	h, _ := setupAppHandler(t, func(_, _ string, _ int) (string, error) {
		return "", errors.New("model unavailable")
	})
	_, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/onboarding/resume",
		onboardBody(resumeText, "text/plain"), token))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, http.StatusBadGateway, rr.Body.String())
	}
}

func TestGetProfileBeforeOnboarding(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	_, token := signUpUser(t, h, "amina@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/profile", "", token))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestPutProfileRoundTrip(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	_, token := signUpUser(t, h, "amina@example.com")

	body := `{"profile":{"name":"Amina Osei","headline":"Engineer","skills":["Go"]},"quiz_answers":{"goal":"mentorship"}}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPut, "/profile", body, token))
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d; body = %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/profile", "", token))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d; body = %s", rr.Code, rr.Body.String())
	}
	resp := decodeJSON[profileResponse](t, rr)
	if resp.Profile.Name != "Amina Osei" {
		t.Errorf("Profile.Name = %q", resp.Profile.Name)
	}
	if resp.QuizAnswers["goal"] != "mentorship" {
		t.Errorf("QuizAnswers = %v", resp.QuizAnswers)
	}
	// Normalize fills collections the caller omitted.
	if resp.Profile.Interests == nil {
		t.Error("Interests is nil, want empty slice")
	}
}
