package auth

import (
	"errors"
	"net/http"
	"testing"
)

func request(t *testing.T, authorization string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestTokenSessions(t *testing.T) {
	sessions := &TokenSessions{Tokens: map[string]string{"tok-alice": "alice"}}

	userID, err := sessions.UserID(request(t, "Bearer tok-alice"))
	if err != nil {
		t.Fatalf("UserID() error: %v", err)
	}
	if userID != "alice" {
		t.Errorf("UserID() = %q, want alice", userID)
	}

	if _, err := sessions.UserID(request(t, "Bearer wrong")); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown token error = %v, want ErrUnauthorized", err)
	}
	if _, err := sessions.UserID(request(t, "")); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("missing header error = %v, want ErrUnauthorized", err)
	}
}

func TestTokenSessionsAnonymousFallback(t *testing.T) {
	sessions := &TokenSessions{AnonymousUser: "anonymous"}

	userID, err := sessions.UserID(request(t, ""))
	if err != nil {
		t.Fatalf("UserID() error: %v", err)
	}
	if userID != "anonymous" {
		t.Errorf("UserID() = %q, want anonymous", userID)
	}
}

func TestRateQuota(t *testing.T) {
	quota := NewRateQuota(3)

	for i := range 3 {
		if !quota.WithinQuota("alice") {
			t.Fatalf("request %d refused inside the burst", i)
		}
	}
	if quota.WithinQuota("alice") {
		t.Error("request beyond the burst was allowed")
	}

	// Quotas are per user.
	if !quota.WithinQuota("bob") {
		t.Error("fresh user refused")
	}
}

func TestUnlimited(t *testing.T) {
	var quota Quota = Unlimited{}
	for range 100 {
		if !quota.WithinQuota("anyone") {
			t.Fatal("Unlimited refused a request")
		}
	}
}
