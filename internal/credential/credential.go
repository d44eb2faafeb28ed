// Package credential owns the OAuth token lifecycle for the single Google
// account this service acts as: load from disk, refresh, re-authorize, and
// persist atomically.
package credential

import (
	"slices"
	"time"

	"golang.org/x/oauth2"
)

// Credential is the persisted OAuth token set. The JSON layout matches
// oauth2.Token plus the granted scopes.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes"`
}

// FromToken builds a Credential from an oauth2 token and the scopes it was granted for.
func FromToken(tok *oauth2.Token, scopes []string) *Credential {
	return &Credential{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       slices.Clone(scopes),
	}
}

// Token converts back to an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Valid reports whether the access token is present and not about to expire.
func (c *Credential) Valid() bool {
	return c != nil && c.Token().Valid()
}

// Refreshable reports whether a refresh token is available.
func (c *Credential) Refreshable() bool {
	return c != nil && c.RefreshToken != ""
}

// HasScopes reports whether every required scope was granted.
func (c *Credential) HasScopes(required []string) bool {
	if c == nil {
		return false
	}
	for _, s := range required {
		if !slices.Contains(c.Scopes, s) {
			return false
		}
	}
	return true
}
