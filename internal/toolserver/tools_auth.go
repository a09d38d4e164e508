package toolserver

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type authStatusInput struct{}

type authStatusOutput struct {
	Authenticated  bool           `json:"authenticated"`
	RealmID        string         `json:"realmId"`
	Environment    string         `json:"environment"`
	TokenExpiresAt string         `json:"tokenExpiresAt,omitempty"`
	TokenExpired   bool           `json:"tokenExpired,omitempty"`
	Identity       map[string]any `json:"identity,omitempty"`
}

func (s *Server) registerAuthTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "auth_status",
		Description: "Report whether the server holds QuickBooks credentials, the token expiry, and the authorized identity.",
	}, s.handleAuthStatus)
}

func (s *Server) handleAuthStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ authStatusInput) (*mcpsdk.CallToolResult, authStatusOutput, error) {
	out := authStatusOutput{
		RealmID:     s.cfg.RealmID,
		Environment: s.cfg.Environment,
	}

	bundle := s.session.Bundle()
	if bundle != nil && bundle.AccessToken != "" {
		out.Authenticated = true
		if exp := bundle.ExpiresAt(); !exp.IsZero() {
			out.TokenExpiresAt = exp.UTC().Format(time.RFC3339)
			out.TokenExpired = bundle.Expired(time.Now())
		}
		out.Identity = s.session.Identity()
	}

	return textResult(out), out, nil
}
