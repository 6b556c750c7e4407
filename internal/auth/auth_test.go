package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store/memory"
)

func newAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New(memory.New(), "test-secret", time.Hour, []Credential{
		{Username: "nauval", PIN: "061106", Theme: core.ThemeNauval},
		{Username: "mufel", PIN: "060703", Theme: core.ThemeMufel},
	})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	a := newAuthenticator(t)

	token, profile, err := a.Login(context.Background(), "nauval", "061106")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if profile.Username != "nauval" || profile.Theme != core.ThemeNauval {
		t.Fatalf("wrong profile: %+v", profile)
	}

	username, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if username != "nauval" {
		t.Fatalf("token subject expected nauval, got %s", username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newAuthenticator(t)

	cases := []struct{ name, user, pin string }{
		{"wrong pin", "nauval", "000000"},
		{"unknown user", "ghost", "061106"},
		{"other user's pin", "nauval", "060703"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := a.Login(context.Background(), tc.user, tc.pin); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginProfilePersistsAcrossLogins(t *testing.T) {
	st := memory.New()
	a, err := New(st, "test-secret", time.Hour, []Credential{
		{Username: "mufel", PIN: "060703", Theme: core.ThemeMufel},
	})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}

	if _, _, err := a.Login(context.Background(), "mufel", "060703"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	p, err := st.Profile(context.Background(), "mufel")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if p.Theme != core.ThemeMufel {
		t.Fatalf("wrong theme: %v", p.Theme)
	}
}

func TestVerifyRejectsForgedAndExpiredTokens(t *testing.T) {
	a := newAuthenticator(t)

	if _, err := a.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: expected ErrInvalidToken, got %v", err)
	}

	other, err := New(memory.New(), "different-secret", time.Hour, []Credential{
		{Username: "nauval", PIN: "061106", Theme: core.ThemeNauval},
	})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	forged, _, err := other.Login(context.Background(), "nauval", "061106")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := a.Verify(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature: expected ErrInvalidToken, got %v", err)
	}

	expired, err := New(memory.New(), "test-secret", -time.Minute, []Credential{
		{Username: "nauval", PIN: "061106", Theme: core.ThemeNauval},
	})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	stale, _, err := expired.Login(context.Background(), "nauval", "061106")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := a.Verify(stale); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: expected ErrInvalidToken, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	a := newAuthenticator(t)
	token, _, err := a.Login(context.Background(), "nauval", "061106")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var seen string
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Username(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/ledger", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized request rejected: %d", rec.Code)
	}
	if seen != "nauval" {
		t.Fatalf("context username expected nauval, got %q", seen)
	}

	for _, header := range []string{"", "Bearer ", "Bearer bogus", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/ledger", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}
