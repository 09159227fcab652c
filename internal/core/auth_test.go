package core

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthConfig_IsConfigured(t *testing.T) {
	assert.False(t, AuthConfig{}.IsConfigured())
	assert.False(t, AuthConfig{Type: AuthTypeNone}.IsConfigured())
	assert.True(t, NewBearerAuth("t").IsConfigured())
}

func TestAuthConfig_ApplyToHeaders(t *testing.T) {
	upper := func(s string) string { return s + "!" }

	t.Run("bearer token is expanded", func(t *testing.T) {
		headers := map[string]string{}
		NewBearerAuth("{{token}}").ApplyToHeaders(headers, upper)

		assert.Equal(t, "Bearer {{token}}!", headers["Authorization"])
	})

	t.Run("empty bearer token adds nothing", func(t *testing.T) {
		headers := map[string]string{}
		NewBearerAuth("").ApplyToHeaders(headers, nil)

		assert.Empty(t, headers)
	})

	t.Run("basic encodes credentials without expansion", func(t *testing.T) {
		headers := map[string]string{}
		NewBasicAuth("user", "pass").ApplyToHeaders(headers, upper)

		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
		assert.Equal(t, expected, headers["Authorization"])
	})

	t.Run("basic requires both fields", func(t *testing.T) {
		headers := map[string]string{}
		NewBasicAuth("user", "").ApplyToHeaders(headers, nil)

		assert.Empty(t, headers)
	})

	t.Run("api key in header", func(t *testing.T) {
		headers := map[string]string{}
		query := NewAPIKeyAuth("X-API-Key", "secret", APIKeyInHeader).ApplyToHeaders(headers, upper)

		assert.Equal(t, "secret!", headers["X-API-Key"])
		assert.Empty(t, query)
	})

	t.Run("api key in query", func(t *testing.T) {
		headers := map[string]string{}
		query := NewAPIKeyAuth("api_key", "secret", APIKeyInQuery).ApplyToHeaders(headers, nil)

		assert.Empty(t, headers)
		assert.Equal(t, map[string]string{"api_key": "secret"}, query)
	})

	t.Run("api key without a location is not sent", func(t *testing.T) {
		headers := map[string]string{}
		query := NewAPIKeyAuth("X-API-Key", "secret", "").ApplyToHeaders(headers, nil)

		assert.Empty(t, headers)
		assert.Empty(t, query)
	})

	t.Run("oauth2 defaults token type", func(t *testing.T) {
		headers := map[string]string{}
		NewOAuth2Auth("abc", "").ApplyToHeaders(headers, nil)
		assert.Equal(t, "Bearer abc", headers["Authorization"])

		headers = map[string]string{}
		NewOAuth2Auth("abc", "MAC").ApplyToHeaders(headers, nil)
		assert.Equal(t, "MAC abc", headers["Authorization"])
	})

	t.Run("overrides custom header case-insensitively", func(t *testing.T) {
		headers := map[string]string{"authorization": "custom", "Accept": "x"}
		NewBearerAuth("t").ApplyToHeaders(headers, nil)

		assert.Equal(t, map[string]string{"Authorization": "Bearer t", "Accept": "x"}, headers)
	})

	t.Run("payload of another type is ignored", func(t *testing.T) {
		headers := map[string]string{}
		auth := AuthConfig{Type: AuthTypeBasic, Bearer: &BearerAuth{Token: "t"}}
		auth.ApplyToHeaders(headers, nil)

		assert.Empty(t, headers)
	})
}

func TestAuthConfig_Clone(t *testing.T) {
	auth := NewAPIKeyAuth("k", "v", APIKeyInHeader)
	clone := auth.Clone()
	clone.APIKey.Value = "changed"

	assert.Equal(t, "v", auth.APIKey.Value)
}

func TestAuthConfig_Summary(t *testing.T) {
	assert.Equal(t, "No authentication", AuthConfig{}.Summary())
	assert.Equal(t, "Basic: user", NewBasicAuth("user", "pass").Summary())
	assert.Equal(t, "Bearer: ****", NewBearerAuth("short").Summary())
	assert.Equal(t, "Bearer: abcdefgh...wxyz", NewBearerAuth("abcdefghijklmnopqrstuvwxyz").Summary())
	assert.Equal(t, "API Key: k (in header)", NewAPIKeyAuth("k", "v", APIKeyInHeader).Summary())
	assert.Equal(t, "API Key: k (not sent)", NewAPIKeyAuth("k", "v", "").Summary())
}
