package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/cli/browser"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthorizeTimeout bounds how long Authorize waits for the provider to
// redirect back before treating the flow as abandoned.
const AuthorizeTimeout = 5 * time.Minute

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the interactive authorization-code flow: it opens the
// provider's consent page in a browser, captures the redirect on a
// single-use local listener, exchanges the code for a credential bundle,
// and persists it. The listener stops accepting connections once the
// first callback settles the flow or the flow is abandoned.
func (s *Session) Authorize(ctx context.Context) error {
	state := uuid.New().String()
	authURL := s.oauthConfig().AuthCodeURL(state)

	results := make(chan callbackResult, 1)
	var once sync.Once
	settle := func(res callbackResult) {
		once.Do(func() { results <- res })
	}

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		if errParam := q.Get("error"); errParam != "" {
			http.Error(w, "Authorization was not granted. You can close this window.", http.StatusBadRequest)
			settle(callbackResult{err: &AuthorizationFailedError{Reason: fmt.Sprintf("provider returned error %q", errParam)}})
			return
		}
		if q.Get("state") != state {
			http.Error(w, "State mismatch. You can close this window.", http.StatusBadRequest)
			settle(callbackResult{err: &AuthorizationFailedError{Reason: "state parameter mismatch"}})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code. You can close this window.", http.StatusBadRequest)
			settle(callbackResult{err: &AuthorizationFailedError{Reason: "authorization code missing from callback"}})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h2>Authorization complete</h2><p>You can close this window and return to the terminal.</p></body></html>")
		settle(callbackResult{code: code})
	})

	addr := fmt.Sprintf("localhost:%d", s.cfg.CallbackPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("start callback listener on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: r}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			settle(callbackResult{err: fmt.Errorf("callback listener failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("url", authURL).Msg("opening browser for authorization")
	fmt.Fprintf(os.Stderr, "Open this URL to authorize access:\n\n  %s\n\n", authURL)
	if err := browser.OpenURL(authURL); err != nil {
		log.Warn().Err(err).Msg("could not open browser, use the printed URL")
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-time.After(AuthorizeTimeout):
		return &AuthorizationFailedError{Reason: "timed out waiting for authorization callback"}
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.err != nil {
		return res.err
	}

	return s.exchangeCode(ctx, res.code)
}
