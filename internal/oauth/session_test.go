package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/finledger/qbo-mcp/internal/config"
	"github.com/finledger/qbo-mcp/internal/tokenstore"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RealmID:      "12345",
		Environment:  "sandbox",
		MinorVersion: "70",
		CallbackPort: 8725,
		TokenPath:    filepath.Join(t.TempDir(), "tokens.json"),
	}
}

func newTestSession(t *testing.T, tokenURL string, bundle *tokenstore.Bundle) (*Session, *tokenstore.Store) {
	t.Helper()
	cfg := testConfig(t)
	store := tokenstore.NewStore(cfg.TokenPath)
	s := NewSession(cfg, store, bundle)
	s.tokenURL = tokenURL
	return s, store
}

func TestRefresh_NoRefreshTokenNeverCallsEndpoint(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	s, _ := newTestSession(t, server.URL, &tokenstore.Bundle{AccessToken: "at-only"})

	err := s.Refresh(context.Background(), "at-only")
	var unavailable *RefreshUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected RefreshUnavailableError, got %T: %v", err, err)
	}
	if calls != 0 {
		t.Errorf("refresh without a refresh token must not issue HTTP calls, got %d", calls)
	}
}

func TestRefresh_MergesAndPersists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("unexpected grant_type: %s", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "rt-old" {
			t.Errorf("unexpected refresh_token: %s", got)
		}

		// The endpoint authenticates the client with HTTP Basic auth.
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("missing or wrong basic auth: %s/%s", user, pass)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-new",
			"refresh_token": "rt-new",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	old := &tokenstore.Bundle{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		TokenType:    "bearer",
		IDToken:      "id-old",
		Extra:        map[string]any{"realmId": "12345"},
	}
	s, store := newTestSession(t, server.URL, old)

	if err := s.Refresh(context.Background(), "at-old"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	bundle := s.Bundle()
	if bundle.AccessToken != "at-new" || bundle.RefreshToken != "rt-new" {
		t.Errorf("bundle not rotated: %+v", bundle)
	}
	if bundle.TokenType != "bearer" || bundle.IDToken != "id-old" {
		t.Errorf("fields absent from refresh response must survive: %+v", bundle)
	}
	if bundle.Extra["realmId"] != "12345" {
		t.Errorf("extras lost on refresh: %v", bundle.Extra)
	}

	// The merged bundle reaches disk too.
	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("load persisted bundle: %v", err)
	}
	if persisted.AccessToken != "at-new" || persisted.IDToken != "id-old" {
		t.Errorf("persisted bundle does not match merge: %+v", persisted)
	}
}

func TestRefresh_EndpointRejectionCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	s, _ := newTestSession(t, server.URL, &tokenstore.Bundle{AccessToken: "at", RefreshToken: "rt"})

	err := s.Refresh(context.Background(), "at")
	var failed *RefreshFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected RefreshFailedError, got %T: %v", err, err)
	}
	if failed.Status != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", failed.Status)
	}
	if !strings.Contains(failed.Body, "invalid_grant") {
		t.Errorf("error must carry the raw body, got: %s", failed.Body)
	}
}

func TestRefresh_SkipsWhenTokenAlreadyRotated(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	// The in-memory token is already newer than the one the caller saw
	// rejected: a concurrent invocation refreshed first.
	s, _ := newTestSession(t, server.URL, &tokenstore.Bundle{AccessToken: "at-current", RefreshToken: "rt"})

	if err := s.Refresh(context.Background(), "at-previous"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if calls != 0 {
		t.Errorf("refresh must be skipped after a concurrent rotation, got %d calls", calls)
	}
}

func TestIdentity_DecodesIDTokenClaims(t *testing.T) {
	claims := map[string]any{"sub": "user-1", "email": "owner@acme.test", "exp": time.Now().Add(time.Hour).Unix()}
	payload, _ := json.Marshal(claims)
	header, _ := json.Marshal(map[string]any{"alg": "RS256", "typ": "JWT"})
	idToken := base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + ".signature"

	s, _ := newTestSession(t, "http://unused.test", &tokenstore.Bundle{AccessToken: "at", IDToken: idToken})

	got := s.Identity()
	if got == nil {
		t.Fatal("expected decoded claims")
	}
	if got["sub"] != "user-1" || got["email"] != "owner@acme.test" {
		t.Errorf("unexpected claims: %v", got)
	}
}

func TestAccessToken_Unauthenticated(t *testing.T) {
	s, _ := newTestSession(t, "http://unused.test", nil)
	if _, ok := s.AccessToken(); ok {
		t.Error("nil bundle must report no access token")
	}
}
