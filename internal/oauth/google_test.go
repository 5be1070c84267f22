package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/spacebook-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func TestGoogleProvider_Name(t *testing.T) {
	provider := NewGoogleProvider(config.OAuthConfig{})
	assert.Equal(t, "google", provider.Name())
}

func TestGoogleProvider_GetConsentURL(t *testing.T) {
	provider := NewGoogleProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
}

func TestGoogleProvider_Config(t *testing.T) {
	provider := NewGoogleProvider(config.OAuthConfig{ClientID: "test-client-id"})

	assert.Contains(t, provider.config.Scopes, "https://www.googleapis.com/auth/userinfo.email")
	assert.Contains(t, provider.config.Scopes, "https://www.googleapis.com/auth/userinfo.profile")
	assert.Equal(t, google.Endpoint.TokenURL, provider.config.Endpoint.TokenURL)
}

func newTestGoogleProvider(t *testing.T, body string) *GoogleProvider {
	t.Helper()
	tokenServer := newTokenServer(t)
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(apiServer.Close)

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID: "test-client-id",
			Endpoint: oauth2.Endpoint{TokenURL: tokenServer.URL + "/token"},
		},
		userInfoURL: apiServer.URL,
	}
}

func TestGoogleProvider_ExchangeCode_Success(t *testing.T) {
	provider := newTestGoogleProvider(t, `{
		"id": "g-1",
		"email": "ana@example.com",
		"verified_email": true,
		"name": "Ana",
		"picture": "https://example.com/a.png"
	}`)

	info, err := provider.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, &UserInfo{
		Email:     "ana@example.com",
		Name:      "Ana",
		AvatarURL: "https://example.com/a.png",
		ID:        "g-1",
		Provider:  "google",
	}, info)
}

func TestGoogleProvider_ExchangeCode_UnverifiedEmail(t *testing.T) {
	provider := newTestGoogleProvider(t, `{"id": "g-2", "email": "x@example.com", "verified_email": false}`)

	_, err := provider.ExchangeCode(context.Background(), "code")

	assert.ErrorContains(t, err, "not verified")
}
