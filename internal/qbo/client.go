package qbo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finledger/qbo-mcp/internal/config"
)

// CredentialSource supplies bearer credentials and performs the refresh
// exchange when the API rejects them. Implemented by oauth.Session;
// abstracted here so tests can mock it.
type CredentialSource interface {
	// AccessToken returns the current access token, if any.
	AccessToken() (string, bool)

	// Refresh rotates the bundle. stale is the token that was just
	// rejected, so concurrent refreshes can be collapsed into one.
	Refresh(ctx context.Context, stale string) error
}

// Client issues authenticated requests against the QuickBooks company
// API. All request/response metadata goes to the zerolog diagnostic
// stream on stderr, never to the tool result channel.
type Client struct {
	baseURL      string
	realmID      string
	minorVersion string
	httpClient   *http.Client
	creds        CredentialSource
}

// NewClient builds a client for the configured realm and environment.
func NewClient(cfg config.Config, creds CredentialSource) *Client {
	return &Client{
		baseURL:      cfg.APIBaseURL(),
		realmID:      cfg.RealmID,
		minorVersion: cfg.MinorVersion,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		creds:        creds,
	}
}

// Do executes one API call with bearer authorization. A 401 triggers
// exactly one refresh and one replay; a second 401 is terminal. Any
// other non-2xx fails immediately with the status and raw body.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, headers map[string]string) (map[string]any, error) {
	token, ok := c.creds.AccessToken()
	if !ok {
		return nil, &NotAuthenticatedError{}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	target := c.endpointURL(endpoint)
	correlationID := uuid.New().String()
	logger := log.With().
		Str("method", method).
		Str("url", target).
		Str("correlationId", correlationID).
		Logger()

	status, respBody, err := c.attempt(ctx, &logger, method, target, payload, headers, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		logger.Warn().Msg("401 from API, refreshing token and retrying once")
		if err := c.creds.Refresh(ctx, token); err != nil {
			return nil, err
		}
		token, ok = c.creds.AccessToken()
		if !ok {
			return nil, &NotAuthenticatedError{}
		}
		status, respBody, err = c.attempt(ctx, &logger, method, target, payload, headers, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			logger.Error().Msg("second consecutive 401, giving up")
			return nil, &UnauthorizedAfterRefreshError{}
		}
	}

	if status < 200 || status >= 300 {
		return nil, &RemoteAPIError{Status: status, Body: string(respBody)}
	}

	return parseJSONBody(respBody)
}

// attempt sends a single request. The body is rebuilt from the buffered
// payload so a replay after refresh sends identical bytes.
func (c *Client) attempt(ctx context.Context, logger *zerolog.Logger, method, target string, payload []byte, headers map[string]string, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Caller-supplied headers override defaults.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("API request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Int("bodyBytes", len(respBody)).
		Dur("duration", time.Since(start)).
		Msg("API request completed")

	return resp.StatusCode, respBody, nil
}

// endpointURL joins the company base path with the endpoint and appends
// the minorversion parameter, using ? or & depending on whether the
// endpoint already carries a query string.
func (c *Client) endpointURL(endpoint string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s/v3/company/%s/%s%sminorversion=%s", c.baseURL, c.realmID, endpoint, sep, c.minorVersion)
}

// parseJSONBody decodes a response body, treating an empty body as an
// empty object.
func parseJSONBody(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode API response: %w", err)
	}
	return out, nil
}
