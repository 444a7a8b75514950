package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"flightsearch-service/pkg/logger"
)

// ProviderOAuth handles client-credentials authentication against the
// upstream flight-search API.
type ProviderOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewProviderOAuth creates a new provider OAuth handler
func NewProviderOAuth(tokenURL, clientID, clientSecret string, logger logger.Logger) *ProviderOAuth {
	return &ProviderOAuth{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		logger: logger,
	}
}

// GetTokenSource returns a token source for the provider API
func (o *ProviderOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return o.config.TokenSource(ctx)
}

// HTTPClient returns an HTTP client that attaches bearer tokens to every
// request. When no token URL is configured the provider is assumed to be
// unauthenticated and a plain client is returned.
func (o *ProviderOAuth) HTTPClient(ctx context.Context) *http.Client {
	if o.config.TokenURL == "" {
		o.logger.Warn("Provider token URL not configured, using unauthenticated client")
		return http.DefaultClient
	}
	return oauth2.NewClient(ctx, o.GetTokenSource(ctx))
}
