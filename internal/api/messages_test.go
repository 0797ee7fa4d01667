package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shahrs5/supernetwork/internal/storage"
)

func TestSendAndListMessages(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	aliceID, aliceToken := signUpUser(t, h, "alice@example.com")
	bobID, bobToken := signUpUser(t, h, "bob@example.com")

	send := func(token, recipient, body string) storage.Message {
		t.Helper()
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodPost, "/messages",
			`{"recipient_id":"`+recipient+`","body":"`+body+`"}`, token))
		if rr.Code != http.StatusOK {
			t.Fatalf("send status = %d; body = %s", rr.Code, rr.Body.String())
		}
		return decodeJSON[storage.Message](t, rr)
	}

	m1 := send(aliceToken, bobID, "hey")
	m2 := send(bobToken, aliceID, "hi back")

	if m1.ThreadID != m2.ThreadID {
		t.Errorf("thread ids differ: %q vs %q", m1.ThreadID, m2.ThreadID)
	}
	if m1.ThreadID != storage.ThreadID(aliceID, bobID) {
		t.Errorf("ThreadID = %q, want %q", m1.ThreadID, storage.ThreadID(aliceID, bobID))
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/threads/"+m1.ThreadID+"/messages", "", bobToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d; body = %s", rr.Code, rr.Body.String())
	}
	msgs := decodeJSON[[]storage.Message](t, rr)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Body != "hey" || msgs[1].Body != "hi back" {
		t.Errorf("messages out of order: %q, %q", msgs[0].Body, msgs[1].Body)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/threads", "", aliceToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("threads status = %d; body = %s", rr.Code, rr.Body.String())
	}
	threads := decodeJSON[[]storage.Thread](t, rr)
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
	if threads[0].OtherUserID != bobID {
		t.Errorf("OtherUserID = %q, want %q", threads[0].OtherUserID, bobID)
	}
	if threads[0].MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", threads[0].MessageCount)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	selfID, token := signUpUser(t, h, "alice@example.com")
	otherID, _ := signUpUser(t, h, "bob@example.com")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing recipient", `{"body":"hello"}`, http.StatusBadRequest},
		{"empty body", `{"recipient_id":"` + otherID + `","body":"   "}`, http.StatusBadRequest},
		{"self message", `{"recipient_id":"` + selfID + `","body":"hi"}`, http.StatusBadRequest},
		{"unknown recipient", `{"recipient_id":"ghost","body":"hi"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, authReq(http.MethodPost, "/messages", tc.body, token))
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d; body = %s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestListMessages_NonParticipantForbidden(t *testing.T) {
	h, _ := setupAppHandler(t, nil)
	aliceID, aliceToken := signUpUser(t, h, "alice@example.com")
	bobID, _ := signUpUser(t, h, "bob@example.com")
	_, eveToken := signUpUser(t, h, "eve@example.com")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/messages",
		`{"recipient_id":"`+bobID+`","body":"secret"}`, aliceToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("send status = %d", rr.Code)
	}

	threadID := storage.ThreadID(aliceID, bobID)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/threads/"+threadID+"/messages", "", eveToken))
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}
