package credential

import (
	"context"
	"net/http"
)

// Provider hands out valid credentials. *Manager implements it.
type Provider interface {
	GetValidToken(ctx context.Context) (*Credential, error)
}

var _ Provider = (*Manager)(nil)

// Transport authorizes each outgoing request with a credential obtained for
// that request's context, so every provider call goes through the token
// lifecycle first.
type Transport struct {
	Provider Provider
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	cred, err := t.Provider.GetValidToken(req.Context())
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}

	out := req.Clone(req.Context())
	cred.Token().SetAuthHeader(out)

	return t.base().RoundTrip(out)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
