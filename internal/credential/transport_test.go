package credential

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	cred  *Credential
	err   error
	calls int
}

func (p *staticProvider) GetValidToken(context.Context) (*Credential, error) {
	p.calls++
	return p.cred, p.err
}

func TestTransport_SetsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := &staticProvider{cred: &Credential{AccessToken: "abc", TokenType: "Bearer"}}
	client := &http.Client{Transport: &Transport{Provider: p}}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, 2, p.calls, "a credential is obtained for every request")
}

func TestTransport_ProviderError(t *testing.T) {
	called := false
	base := roundTripFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	})
	p := &staticProvider{err: errors.New("no credential")}
	client := &http.Client{Transport: &Transport{Provider: p, Base: base}}

	req, err := http.NewRequest(http.MethodPost, "http://drive.invalid/upload", strings.NewReader("body"))
	require.NoError(t, err)

	_, err = client.Do(req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential")
	assert.False(t, called)
}

func TestTransport_DoesNotMutateOriginalRequest(t *testing.T) {
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("")), Request: r}, nil
	})
	tr := &Transport{Provider: &staticProvider{cred: &Credential{AccessToken: "abc"}}, Base: base}

	req := httptest.NewRequest(http.MethodGet, "http://drive.invalid/files", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, "Bearer abc", resp.Request.Header.Get("Authorization"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
