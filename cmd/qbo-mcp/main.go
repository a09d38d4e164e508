package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finledger/qbo-mcp/internal/config"
	"github.com/finledger/qbo-mcp/internal/oauth"
	"github.com/finledger/qbo-mcp/internal/qbo"
	"github.com/finledger/qbo-mcp/internal/tokenstore"
	"github.com/finledger/qbo-mcp/internal/toolserver"
)

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	// Configure structured logging. Everything goes to stderr: stdout
	// belongs to the MCP stdio transport.
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "qbo-mcp").Logger()

	// Pretty logging for local dev (only when explicitly set to "dev")
	if env("ENV", "") == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store := tokenstore.NewStore(cfg.TokenPath)
	bundle, err := store.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load credential bundle")
	}
	if bundle == nil {
		log.Info().Str("path", cfg.TokenPath).Msg("no credential bundle on disk yet")
	}

	session := oauth.NewSession(cfg, store, bundle)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "auth":
		runAuth(ctx, session)
	case "serve":
		runServe(ctx, cfg, session)
	default:
		fmt.Fprintf(os.Stderr, "usage: qbo-mcp [auth|serve]\n")
		os.Exit(2)
	}
}

// runAuth performs the interactive authorization-code flow and exits.
func runAuth(ctx context.Context, session *oauth.Session) {
	log.Info().Msg("starting interactive authorization")

	if err := session.Authorize(ctx); err != nil {
		log.Fatal().Err(err).Msg("authorization failed")
	}

	if claims := session.Identity(); claims != nil {
		if sub, ok := claims["sub"].(string); ok {
			log.Info().Str("sub", sub).Msg("authorized")
		}
	}
	fmt.Fprintln(os.Stderr, "Authorization complete. You can now run: qbo-mcp serve")
}

// runServe exposes the tools over stdio until the client disconnects or
// the process receives SIGINT/SIGTERM.
func runServe(ctx context.Context, cfg config.Config, session *oauth.Session) {
	client := qbo.NewClient(cfg, session)
	srv := toolserver.New(cfg, session, client)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("MCP server failed")
	}

	log.Info().Msg("server stopped")
}
