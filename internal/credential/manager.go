package credential

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"drivedocs/internal/apperror"
)

// ErrNoAuthorizer is the cause attached to apperror.ErrAuth when interactive
// authorization is needed but the process cannot run it.
var ErrNoAuthorizer = errors.New("interactive authorization is not available; run `docctl auth`")

// Authorizer runs a full interactive authorization and returns a fresh token.
type Authorizer interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// Status describes the stored credential without touching the network.
type Status struct {
	Present     bool      `json:"present"`
	Valid       bool      `json:"valid"`
	Refreshable bool      `json:"refreshable"`
	Scoped      bool      `json:"scoped"`
	Expiry      time.Time `json:"expiry,omitempty"`
}

// Manager hands out valid credentials for one account. The whole
// load-refresh-persist cycle runs under one lock, so concurrent callers never
// race a refresh and at most one credential is live in the process.
type Manager struct {
	mu         sync.Mutex
	store      Store
	oauth      *oauth2.Config
	authorizer Authorizer
	httpClient *http.Client
	log        hclog.Logger

	current *Credential
}

// Option configures a Manager.
type Option func(*Manager)

// WithAuthorizer enables the interactive fallback. Servers leave it unset so
// they fail fast with apperror.ErrAuth instead of blocking on a browser.
func WithAuthorizer(a Authorizer) Option {
	return func(m *Manager) { m.authorizer = a }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// NewManager builds a Manager over store using the OAuth client config cfg.
// cfg.Scopes is the scope set every credential must carry.
func NewManager(store Store, cfg *oauth2.Config, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		oauth: cfg,
		log:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetValidToken returns a usable credential, refreshing or re-authorizing
// as needed.
//
//  1. In-memory or stored credential that is valid and scoped: returned as is.
//  2. Expired with a refresh token: one refresh call; on failure fall through.
//  3. Otherwise: interactive authorization, or apperror.ErrAuth if no
//     Authorizer is installed.
//
// Any new credential is persisted before it is returned.
func (m *Manager) GetValidToken(ctx context.Context) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cred := m.current
	if cred == nil {
		loaded, err := m.loadStored()
		if err != nil {
			return nil, err
		}
		cred = loaded
	}

	if cred != nil && !cred.HasScopes(m.oauth.Scopes) {
		m.log.Warn("stored credential lacks required scopes, re-authorization needed",
			"granted", cred.Scopes, "required", m.oauth.Scopes)
		m.current = nil
		return m.authorizeLocked(ctx)
	}

	if cred.Valid() {
		m.current = cred
		return cred, nil
	}

	if cred.Refreshable() {
		refreshed, err := m.refresh(ctx, cred)
		if err == nil {
			m.persist(refreshed)
			m.current = refreshed
			return refreshed, nil
		}
		m.log.Warn("token refresh failed, falling back to authorization", "error", err)
	}

	m.current = nil
	return m.authorizeLocked(ctx)
}

// Authorize forces a full interactive authorization and persists the result.
// Used by the first-run operational step.
func (m *Manager) Authorize(ctx context.Context) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.authorizeLocked(ctx)
}

// Status reports on the stored credential without any network call.
func (m *Manager) Status() (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred := m.current
	if cred == nil {
		loaded, err := m.loadStored()
		if err != nil {
			return Status{}, err
		}
		cred = loaded
	}
	if cred == nil {
		return Status{}, nil
	}

	return Status{
		Present:     true,
		Valid:       cred.Valid(),
		Refreshable: cred.Refreshable(),
		Scoped:      cred.HasScopes(m.oauth.Scopes),
		Expiry:      cred.Expiry,
	}, nil
}

// TokenSource adapts the manager to oauth2.TokenSource. ctx bounds every
// refresh the source triggers.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerSource{ctx: ctx, m: m}
}

func (m *Manager) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	m.log.Info("refreshing access token", "expiry", cred.Expiry)

	// Only the refresh token is handed over, so the source always performs
	// exactly one refresh request.
	src := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, err
	}

	m.log.Info("access token refreshed", "new_expiry", tok.Expiry)
	return FromToken(tok, m.oauth.Scopes), nil
}

func (m *Manager) authorizeLocked(ctx context.Context) (*Credential, error) {
	if m.authorizer == nil {
		return nil, apperror.New("credential", apperror.ErrAuth, ErrNoAuthorizer)
	}

	m.log.Info("starting interactive authorization")
	tok, err := m.authorizer.Authorize(m.clientContext(ctx), m.oauth)
	if err != nil {
		return nil, apperror.New("credential", apperror.ErrAuth, err)
	}

	cred := FromToken(tok, m.oauth.Scopes)
	if err := m.store.Save(cred); err != nil {
		return nil, apperror.New("credential", apperror.ErrConfig, err)
	}
	m.current = cred

	m.log.Info("authorization complete", "expiry", cred.Expiry)
	return cred, nil
}

// loadStored reads the store. A corrupt file counts as nothing stored, since
// only a fresh authorization can replace it. Any other read failure means
// the token path itself is unusable and is reported as apperror.ErrConfig.
func (m *Manager) loadStored() (*Credential, error) {
	cred, err := m.store.Load()
	switch {
	case err == nil:
		return cred, nil
	case errors.Is(err, ErrCorrupt):
		m.log.Warn("stored credential is corrupt, treating as missing", "error", err)
		return nil, nil //nolint:nilnil // same as nothing stored
	default:
		return nil, apperror.New("credential", apperror.ErrConfig, err)
	}
}

// persist saves a refreshed credential. A write failure is logged, not
// returned: the in-memory credential is good and the old file is intact.
func (m *Manager) persist(cred *Credential) {
	if err := m.store.Save(cred); err != nil {
		m.log.Warn("failed to persist refreshed token", "error", err)
		return
	}
	m.log.Debug("persisted refreshed token")
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

type managerSource struct {
	ctx context.Context
	m   *Manager
}

func (s *managerSource) Token() (*oauth2.Token, error) {
	cred, err := s.m.GetValidToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return cred.Token(), nil
}
