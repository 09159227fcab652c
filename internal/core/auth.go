package core

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// AuthType represents the type of authentication.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeAPIKey AuthType = "apikey"
	AuthTypeOAuth2 AuthType = "oauth2"
)

// AuthTypeNames returns display names for auth types.
var AuthTypeNames = map[AuthType]string{
	AuthTypeNone:   "No Auth",
	AuthTypeBearer: "Bearer Token",
	AuthTypeBasic:  "Basic Auth",
	AuthTypeAPIKey: "API Key",
	AuthTypeOAuth2: "OAuth 2.0",
}

// APIKeyLocation specifies where to add the API key.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

// BearerAuth holds a bearer token.
type BearerAuth struct {
	Token string `json:"token" yaml:"token"`
}

// BasicAuth holds HTTP basic credentials.
type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// APIKeyAuth holds an API key and where it is placed.
type APIKeyAuth struct {
	Key   string         `json:"key" yaml:"key"`
	Value string         `json:"value" yaml:"value"`
	AddTo APIKeyLocation `json:"addTo" yaml:"addTo" validate:"omitempty,oneof=header query"`
}

// OAuth2Auth holds an already obtained OAuth 2.0 access token.
type OAuth2Auth struct {
	AccessToken string `json:"accessToken" yaml:"accessToken"`
	TokenType   string `json:"tokenType" yaml:"tokenType"`
}

// AuthConfig is a tagged variant: only the payload named by Type is consulted.
type AuthConfig struct {
	Type   AuthType    `json:"type" yaml:"type" validate:"omitempty,oneof=none bearer basic apikey oauth2"`
	Bearer *BearerAuth `json:"bearer,omitempty" yaml:"bearer,omitempty"`
	Basic  *BasicAuth  `json:"basic,omitempty" yaml:"basic,omitempty"`
	APIKey *APIKeyAuth `json:"apikey,omitempty" yaml:"apikey,omitempty"`
	OAuth2 *OAuth2Auth `json:"oauth2,omitempty" yaml:"oauth2,omitempty"`
}

// IsConfigured returns true if authentication is configured (not none/empty).
func (a AuthConfig) IsConfigured() bool {
	return a.Type != "" && a.Type != AuthTypeNone
}

// GetAuthType returns the auth type, treating empty as none.
func (a AuthConfig) GetAuthType() AuthType {
	if a.Type == "" {
		return AuthTypeNone
	}
	return a.Type
}

// ApplyToHeaders writes the auth-derived headers into headers, overwriting any
// header of the same name. expand is applied to the bearer token and the API
// key value before use. It returns query parameters to append to the URL.
func (a AuthConfig) ApplyToHeaders(headers map[string]string, expand func(string) string) map[string]string {
	queryParams := make(map[string]string)
	if expand == nil {
		expand = func(s string) string { return s }
	}

	switch a.GetAuthType() {
	case AuthTypeBearer:
		if a.Bearer != nil && a.Bearer.Token != "" {
			setHeader(headers, "Authorization", "Bearer "+expand(a.Bearer.Token))
		}

	case AuthTypeBasic:
		if a.Basic != nil && a.Basic.Username != "" && a.Basic.Password != "" {
			credentials := base64.StdEncoding.EncodeToString(
				[]byte(a.Basic.Username + ":" + a.Basic.Password),
			)
			setHeader(headers, "Authorization", "Basic "+credentials)
		}

	case AuthTypeAPIKey:
		if a.APIKey != nil && a.APIKey.Key != "" && a.APIKey.Value != "" {
			// No location means the key is not sent.
			switch a.APIKey.AddTo {
			case APIKeyInHeader:
				setHeader(headers, a.APIKey.Key, expand(a.APIKey.Value))
			case APIKeyInQuery:
				queryParams[a.APIKey.Key] = expand(a.APIKey.Value)
			}
		}

	case AuthTypeOAuth2:
		if a.OAuth2 != nil && a.OAuth2.AccessToken != "" {
			tokenType := a.OAuth2.TokenType
			if tokenType == "" {
				tokenType = "Bearer"
			}
			setHeader(headers, "Authorization", tokenType+" "+a.OAuth2.AccessToken)
		}
	}

	return queryParams
}

// setHeader replaces every case-insensitive match of key with a single entry.
func setHeader(headers map[string]string, key, value string) {
	for k := range headers {
		if strings.EqualFold(k, key) {
			delete(headers, k)
		}
	}
	headers[key] = value
}

// Clone creates a deep copy of the auth config.
func (a AuthConfig) Clone() AuthConfig {
	clone := AuthConfig{Type: a.Type}
	if a.Bearer != nil {
		b := *a.Bearer
		clone.Bearer = &b
	}
	if a.Basic != nil {
		b := *a.Basic
		clone.Basic = &b
	}
	if a.APIKey != nil {
		k := *a.APIKey
		clone.APIKey = &k
	}
	if a.OAuth2 != nil {
		o := *a.OAuth2
		clone.OAuth2 = &o
	}
	return clone
}

// NewBearerAuth creates a bearer token auth configuration.
func NewBearerAuth(token string) AuthConfig {
	return AuthConfig{Type: AuthTypeBearer, Bearer: &BearerAuth{Token: token}}
}

// NewBasicAuth creates a basic auth configuration.
func NewBasicAuth(username, password string) AuthConfig {
	return AuthConfig{Type: AuthTypeBasic, Basic: &BasicAuth{Username: username, Password: password}}
}

// NewAPIKeyAuth creates an API key auth configuration.
func NewAPIKeyAuth(key, value string, location APIKeyLocation) AuthConfig {
	return AuthConfig{Type: AuthTypeAPIKey, APIKey: &APIKeyAuth{Key: key, Value: value, AddTo: location}}
}

// NewOAuth2Auth creates an OAuth 2.0 auth configuration from an access token.
func NewOAuth2Auth(accessToken, tokenType string) AuthConfig {
	return AuthConfig{Type: AuthTypeOAuth2, OAuth2: &OAuth2Auth{AccessToken: accessToken, TokenType: tokenType}}
}

// DisplayName returns a human-readable name for the auth type.
func (a AuthConfig) DisplayName() string {
	if name, ok := AuthTypeNames[a.GetAuthType()]; ok {
		return name
	}
	return string(a.Type)
}

// Summary returns a brief summary of the auth configuration.
func (a AuthConfig) Summary() string {
	if !a.IsConfigured() {
		return "No authentication"
	}

	switch a.GetAuthType() {
	case AuthTypeBasic:
		if a.Basic != nil {
			return fmt.Sprintf("Basic: %s", a.Basic.Username)
		}
	case AuthTypeBearer:
		if a.Bearer != nil && len(a.Bearer.Token) > 20 {
			return fmt.Sprintf("Bearer: %s...%s", a.Bearer.Token[:8], a.Bearer.Token[len(a.Bearer.Token)-4:])
		}
		return "Bearer: ****"
	case AuthTypeAPIKey:
		if a.APIKey != nil {
			if a.APIKey.AddTo == "" {
				return fmt.Sprintf("API Key: %s (not sent)", a.APIKey.Key)
			}
			return fmt.Sprintf("API Key: %s (in %s)", a.APIKey.Key, a.APIKey.AddTo)
		}
	case AuthTypeOAuth2:
		return "OAuth 2.0"
	}
	return a.DisplayName()
}
