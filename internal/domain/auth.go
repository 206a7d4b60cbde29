package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

// AuthType defines supported authentication methods.
type AuthType int

const (
	// TokenAuth sends the API key as a bearer token
	TokenAuth AuthType = iota
	// BasicAuth sends the API key as the password of the "apikey" user
	BasicAuth
)

// APIKeyUser is the fixed basic-auth user name for OpenProject API keys.
const APIKeyUser = "apikey"

// String returns the string representation of AuthType.
func (a AuthType) String() string {
	switch a {
	case BasicAuth:
		return "basic"
	case TokenAuth:
		return "token"
	default:
		return "unknown"
	}
}

// ParseAuthType converts a string to AuthType. Unknown strings select
// token auth.
func ParseAuthType(s string) AuthType {
	if s == "basic" {
		return BasicAuth
	}
	return TokenAuth
}

// Credentials is the API key and how to present it.
type Credentials struct {
	Type   AuthType
	APIKey string
}

// Validate checks that the credentials can be used.
func (c *Credentials) Validate() error {
	if c == nil {
		return fmt.Errorf("credentials cannot be nil")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required for %s authentication", c.Type)
	}
	if c.Type != TokenAuth && c.Type != BasicAuth {
		return fmt.Errorf("invalid authentication type: %v", c.Type)
	}
	return nil
}

// AuthorizationHeader returns the Authorization header value.
func (c *Credentials) AuthorizationHeader() string {
	if c.Type == BasicAuth {
		encoded := base64.StdEncoding.EncodeToString([]byte(APIKeyUser + ":" + c.APIKey))
		return "Basic " + encoded
	}
	return "Bearer " + c.APIKey
}

// CredentialsFromConfig returns the configured credentials, or nil when no
// API key is configured.
func CredentialsFromConfig(config *OpenProjectConfig) *Credentials {
	if config.APIKey == "" {
		return nil
	}
	return &Credentials{
		Type:   ParseAuthType(config.AuthType),
		APIKey: config.APIKey,
	}
}

// AuthenticationManager builds HTTP clients that attach credentials to
// every request. The base round tripper carries proxy and pooling settings.
type AuthenticationManager struct {
	defaults *Credentials
	base     http.RoundTripper
	timeout  time.Duration
}

// NewAuthenticationManager creates an authentication manager. defaults may
// be nil when callers always supply their own credentials.
func NewAuthenticationManager(defaults *Credentials, base http.RoundTripper, timeout time.Duration) *AuthenticationManager {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthenticationManager{
		defaults: defaults,
		base:     base,
		timeout:  timeout,
	}
}

// HasDefaultCredentials reports whether server-side credentials exist.
func (am *AuthenticationManager) HasDefaultCredentials() bool {
	return am.defaults != nil
}

// GetAuthenticatedClient returns a client using the configured credentials.
func (am *AuthenticationManager) GetAuthenticatedClient() (*http.Client, error) {
	if am.defaults == nil {
		return nil, fmt.Errorf("no credentials configured for OpenProject")
	}
	return am.GetAuthenticatedClientWithCredentials(am.defaults)
}

// GetAuthenticatedClientWithCredentials returns a client using creds.
func (am *AuthenticationManager) GetAuthenticatedClientWithCredentials(creds *Credentials) (*http.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &authenticatedTransport{
			base:        am.base,
			credentials: creds,
		},
		Timeout: am.timeout,
	}, nil
}

// authenticatedTransport is an http.RoundTripper that adds the
// Authorization header.
type authenticatedTransport struct {
	base        http.RoundTripper
	credentials *Credentials
}

// RoundTrip implements http.RoundTripper.
func (t *authenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("Authorization", t.credentials.AuthorizationHeader())
	return t.base.RoundTrip(clonedReq)
}

// ExtractCredentialsFromArguments reads an optional "auth" object from tool
// arguments. Returns nil if none is provided.
func ExtractCredentialsFromArguments(args map[string]any) (*Credentials, error) {
	authObj, hasAuth := args["auth"]
	if !hasAuth || authObj == nil {
		return nil, nil
	}

	authMap, ok := authObj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("auth must be an object")
	}

	authTypeStr, _ := authMap["type"].(string)
	apiKey, _ := authMap["api_key"].(string)
	if apiKey == "" {
		// "token" is accepted as an alias
		apiKey, _ = authMap["token"].(string)
	}

	creds := &Credentials{
		Type:   ParseAuthType(authTypeStr),
		APIKey: apiKey,
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials provided: %w", err)
	}

	return creds, nil
}
