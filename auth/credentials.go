package auth

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/kbukum/apifire/endpoint"
	"github.com/kbukum/apifire/session"
)

// Type identifies the authentication method.
type Type int

const (
	// None disables authentication.
	None Type = iota
	// Bearer uses Bearer token authentication.
	Bearer
	// Basic uses HTTP Basic authentication.
	Basic
	// APIKey uses API key authentication (header or query parameter).
	APIKey
	// Custom uses a custom function.
	Custom
)

// TokenSource returns the current access token.
type TokenSource func() (string, error)

// Config configures request authentication.
type Config struct {
	// Type is the authentication method.
	Type Type
	// Token is the bearer token (Bearer). Ignored when Source is set.
	Token string
	// Source supplies the bearer token on every request (Bearer).
	Source TokenSource
	// Username is the basic auth username (Basic).
	Username string
	// Password is the basic auth password (Basic).
	Password string
	// Key is the API key value (APIKey).
	Key string
	// In specifies where to place the API key: "header" (default) or "query" (APIKey).
	In string
	// Name is the header or query parameter name (APIKey). Defaults to "X-API-Key".
	Name string
	// Apply modifies the request (Custom).
	Apply func(*session.Request) error
}

var _ endpoint.Authorizer = (*Config)(nil)

// BearerToken creates a bearer auth config with a fixed token.
func BearerToken(token string) *Config {
	return &Config{Type: Bearer, Token: token}
}

// BearerFrom creates a bearer auth config that asks source for the token
// on every request.
func BearerFrom(source TokenSource) *Config {
	return &Config{Type: Bearer, Source: source}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *Config {
	return &Config{Type: Basic, Username: username, Password: password}
}

// APIKeyHeader creates an API key auth config sent in the named header.
func APIKeyHeader(key, headerName string) *Config {
	return &Config{Type: APIKey, Key: key, In: "header", Name: headerName}
}

// APIKeyQuery creates an API key auth config sent as a query parameter.
func APIKeyQuery(key, paramName string) *Config {
	return &Config{Type: APIKey, Key: key, In: "query", Name: paramName}
}

// CustomAuth creates a custom auth config.
func CustomAuth(fn func(*session.Request) error) *Config {
	return &Config{Type: Custom, Apply: fn}
}

// Authorize applies the credentials to req.
func (a *Config) Authorize(req *session.Request) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case Bearer:
		token := a.Token
		if a.Source != nil {
			t, err := a.Source()
			if err != nil {
				return fmt.Errorf("auth: token source: %w", err)
			}
			token = t
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case Basic:
		creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		req.Header.Set("Authorization", "Basic "+creds)
	case APIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In == "query" {
			if req.Query == nil {
				req.Query = url.Values{}
			}
			req.Query.Set(name, a.Key)
		} else {
			req.Header.Set(name, a.Key)
		}
	case Custom:
		if a.Apply != nil {
			return a.Apply(req)
		}
	}
	return nil
}
