package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/finledger/qbo-mcp/internal/config"
	"github.com/finledger/qbo-mcp/internal/tokenstore"
)

// Session owns the in-memory credential bundle and its on-disk mirror.
// It is constructed once at process start and mutated only at two points:
// after interactive authorization and after a refresh exchange. All
// bundle access goes through the mutex, so concurrent tool invocations
// that both hit a 401 serialize their refreshes instead of racing.
type Session struct {
	cfg        config.Config
	store      *tokenstore.Store
	httpClient *http.Client
	tokenURL   string

	mu     sync.Mutex
	bundle *tokenstore.Bundle
}

// NewSession builds a session around any previously persisted bundle.
// bundle may be nil (unauthenticated).
func NewSession(cfg config.Config, store *tokenstore.Store, bundle *tokenstore.Bundle) *Session {
	return &Session{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenURL:   config.TokenURL,
		bundle:     bundle,
	}
}

// AccessToken returns the current access token, if any.
func (s *Session) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle == nil || s.bundle.AccessToken == "" {
		return "", false
	}
	return s.bundle.AccessToken, true
}

// Bundle returns a snapshot of the current bundle, or nil when
// unauthenticated.
func (s *Session) Bundle() *tokenstore.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle == nil {
		return nil
	}
	snapshot := *s.bundle
	return &snapshot
}

// Refresh exchanges the refresh token for a new bundle and persists the
// merged result. stale is the access token the caller saw rejected; when
// another invocation already rotated past it, the refresh is skipped and
// the caller retries with the newer token. Exactly one token-endpoint
// call happens per rotation.
func (s *Session) Refresh(ctx context.Context, stale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bundle != nil && stale != "" && s.bundle.AccessToken != stale {
		log.Debug().Msg("access token already rotated by a concurrent refresh")
		return nil
	}

	if s.bundle == nil || s.bundle.RefreshToken == "" {
		return &RefreshUnavailableError{}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.bundle.RefreshToken},
	}

	fresh, status, body, err := s.tokenRequest(ctx, form)
	if err != nil {
		return fmt.Errorf("refresh token exchange: %w", err)
	}
	if status < 200 || status >= 300 {
		return &RefreshFailedError{Status: status, Body: body}
	}

	// New fields win, unspecified old fields survive. A rotated refresh
	// token replaces the old one here.
	merged := s.bundle.Merge(fresh)
	if err := s.store.Save(merged); err != nil {
		return err
	}
	s.bundle = merged

	log.Info().
		Time("expiresAt", merged.ExpiresAt()).
		Msg("refreshed access token")
	return nil
}

// exchangeCode trades an authorization code for a fresh bundle, replacing
// any prior bundle wholesale, and persists it.
func (s *Session) exchangeCode(ctx context.Context, code string) error {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {s.cfg.RedirectURL()},
	}

	fresh, status, body, err := s.tokenRequest(ctx, form)
	if err != nil {
		return fmt.Errorf("authorization code exchange: %w", err)
	}
	if status < 200 || status >= 300 {
		return &AuthorizationFailedError{
			Reason: fmt.Sprintf("token endpoint returned status %d: %s", status, body),
		}
	}

	if err := s.store.Save(fresh); err != nil {
		return err
	}

	s.mu.Lock()
	s.bundle = fresh
	s.mu.Unlock()

	log.Info().
		Time("expiresAt", fresh.ExpiresAt()).
		Msg("authorization complete, credential bundle persisted")
	return nil
}

// tokenRequest performs a form-encoded POST to the token endpoint with
// HTTP Basic client authentication. Returns the decoded bundle on 2xx;
// otherwise the status and raw body for the caller's error.
func (s *Session) tokenRequest(ctx context.Context, form url.Values) (*tokenstore.Bundle, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, "", err
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, "", err
	}

	log.Debug().
		Str("grantType", form.Get("grant_type")).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("token endpoint call completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, string(body), nil
	}

	var bundle tokenstore.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, resp.StatusCode, string(body), fmt.Errorf("decode token response: %w", err)
	}
	bundle.ObtainedAt = time.Now().UTC()

	return &bundle, resp.StatusCode, "", nil
}

// Identity decodes the claims of the bundle's id_token, when present.
// The signature is not verified: the token arrived over TLS from the
// provider and the claims are used for diagnostics only.
func (s *Session) Identity() map[string]any {
	s.mu.Lock()
	idToken := ""
	if s.bundle != nil {
		idToken = s.bundle.IDToken
	}
	s.mu.Unlock()

	if idToken == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		log.Warn().Err(err).Msg("failed to decode id_token claims")
		return nil
	}
	return claims
}

// oauthConfig builds the oauth2 configuration for the authorize URL.
func (s *Session) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  s.cfg.RedirectURL(),
		Scopes:       []string{config.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:   config.AuthURL,
			TokenURL:  config.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}
