// Package toolserver exposes QuickBooks entity operations as MCP tools
// over stdio. Tool results carry pretty-printed JSON text alongside the
// SDK's structured content; diagnostics stay on stderr via zerolog so
// the protocol channel is never polluted.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/finledger/qbo-mcp/internal/config"
	"github.com/finledger/qbo-mcp/internal/oauth"
	"github.com/finledger/qbo-mcp/internal/qbo"
)

// Version is reported to MCP clients during initialization.
const Version = "0.2.0"

// Server wires the QuickBooks client and OAuth session into an MCP
// server.
type Server struct {
	cfg     config.Config
	session *oauth.Session
	client  *qbo.Client
	mcp     *mcpsdk.Server
}

// New registers all tools on a fresh MCP server.
func New(cfg config.Config, session *oauth.Session, client *qbo.Client) *Server {
	s := &Server{
		cfg:     cfg,
		session: session,
		client:  client,
	}

	s.mcp = mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "qbo-mcp",
		Version: Version,
	}, nil)

	s.registerCustomerTools()
	s.registerAccountTools()
	s.registerAuthTools()

	return s
}

// Run serves the MCP protocol over stdio until the client disconnects or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info().
		Str("realmId", s.cfg.RealmID).
		Str("environment", s.cfg.Environment).
		Msg("serving MCP tools over stdio")
	return s.mcp.Run(ctx, &mcpsdk.StdioTransport{})
}

// textResult wraps a value as pretty-printed JSON text content.
func textResult(v any) *mcpsdk.CallToolResult {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		pretty = []byte(fmt.Sprintf("%v", v))
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(pretty)}},
	}
}
