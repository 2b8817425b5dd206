package sharepoint

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const graphScope = "https://graph.microsoft.com/.default"

// Credentials identify the Azure AD application used for app-only access.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// TokenURL returns the v2 token endpoint of the tenant.
func (c Credentials) TokenURL() string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.TenantID)
}

// NewTokenSource returns a caching client-credentials token source.
func NewTokenSource(ctx context.Context, creds Credentials) oauth2.TokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL(),
		Scopes:       []string{graphScope},
	}
	return cfg.TokenSource(ctx)
}

// NewHTTPClient returns an HTTP client that authorizes every request.
func NewHTTPClient(ctx context.Context, creds Credentials) *http.Client {
	return oauth2.NewClient(ctx, NewTokenSource(ctx, creds))
}
