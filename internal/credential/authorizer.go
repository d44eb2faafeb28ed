package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

const (
	stateTokenBytes = 16
	callbackPath    = "/"
	shutdownTimeout = 5 * time.Second
)

// LoopbackAuthorizer runs the installed-app authorization code flow with
// PKCE: a one-shot HTTP listener on 127.0.0.1 receives the redirect.
// It blocks until the user finishes in the browser or ctx ends.
type LoopbackAuthorizer struct {
	// OpenURL launches the browser. Defaults to browser.OpenURL.
	OpenURL func(string) error
	// Prompt receives the URL when the browser cannot be opened. Defaults to stderr.
	Prompt io.Writer
	Logger hclog.Logger
}

var _ Authorizer = (*LoopbackAuthorizer)(nil)

type callbackResult struct {
	code string
	err  error
}

// Authorize implements Authorizer. cfg is copied; its RedirectURL is
// replaced by the listener address.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	log := a.logger()
	conf := *cfg

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()

	srv, port, err := startCallbackServer(ctx, mux, resultCh, log)
	if err != nil {
		return nil, err
	}
	defer shutdownCallbackServer(srv, log)

	conf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath)

	verifier := oauth2.GenerateVerifier()
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("auth: generating state: %w", err)
	}

	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		handleCallback(w, r, state, resultCh)
	})

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	a.launch(authURL, log)

	var code string
	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case <-ctx.Done():
		return nil, fmt.Errorf("auth: canceled: %w", ctx.Err())
	}

	log.Info("received authorization code, exchanging for token")
	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("auth: token exchange failed: %w", err)
	}
	return tok, nil
}

func (a *LoopbackAuthorizer) logger() hclog.Logger {
	if a.Logger == nil {
		return hclog.NewNullLogger()
	}
	return a.Logger
}

func (a *LoopbackAuthorizer) launch(authURL string, log hclog.Logger) {
	open := a.OpenURL
	if open == nil {
		open = browser.OpenURL
	}
	out := a.Prompt
	if out == nil {
		out = os.Stderr
	}

	log.Info("opening browser for authorization")
	if err := open(authURL); err != nil {
		log.Warn("failed to open browser, printing URL", "error", err)
		fmt.Fprintf(out, "Open this URL in your browser:\n%s\n", authURL)
	}
}

func startCallbackServer(ctx context.Context, mux *http.ServeMux, resultCh chan<- callbackResult, log hclog.Logger) (*http.Server, int, error) {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("auth: binding localhost listener: %w", err)
	}

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		listener.Close()
		return nil, 0, errors.New("auth: listener address is not TCP")
	}
	log.Info("callback server listening", "port", tcpAddr.Port)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case resultCh <- callbackResult{err: fmt.Errorf("auth: callback server: %w", err)}:
			default:
			}
		}
	}()

	return srv, tcpAddr.Port, nil
}

func shutdownCallbackServer(srv *http.Server, log hclog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("callback server shutdown error", "error", err)
	}
}

func handleCallback(w http.ResponseWriter, r *http.Request, state string, resultCh chan<- callbackResult) {
	send := func(res callbackResult) {
		select {
		case resultCh <- res:
		default:
		}
	}

	q := r.URL.Query()
	if q.Get("state") != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		send(callbackResult{err: errors.New("auth: state mismatch")})
		return
	}
	if e := q.Get("error"); e != "" {
		http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
		send(callbackResult{err: fmt.Errorf("auth: authorization denied: %s", e)})
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		send(callbackResult{err: errors.New("auth: callback missing code")})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Authorization complete</h1>"+
		"<p>You can close this window and return to the terminal.</p></body></html>")
	send(callbackResult{code: code})
}

func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
