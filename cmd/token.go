// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	clientID     string
	clientSecret string
	tokenURL     string
	issuerURL    string
	scopes       []string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Get an access token using the client credentials flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		if clientID == "" {
			return errors.New("--client-id is required")
		}

		token, err := newTokenSource(context.Background()).Token()
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		fmt.Println(token.AccessToken)
		return nil
	},
}

// clientCredentials fetches tokens for the configured client, discovering the
// token endpoint from the issuer when no token url is given.
type clientCredentials struct {
	ctx context.Context

	clientID     string
	clientSecret string
	tokenURL     string
	issuerURL    string
	scopes       []string
}

func (c *clientCredentials) Token() (*oauth2.Token, error) {
	if c.tokenURL == "" {
		if c.issuerURL == "" {
			return nil, errors.New("either --token-url or --issuer-url must be provided")
		}

		provider, err := oidc.NewProvider(c.ctx, c.issuerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to discover issuer %s: %w", c.issuerURL, err)
		}
		c.tokenURL = provider.Endpoint().TokenURL
	}

	config := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.tokenURL,
		Scopes:       c.scopes,
	}

	return config.Token(c.ctx)
}

// newTokenSource builds a cached token source from the client flags, nothing
// is fetched until the first request.
func newTokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &clientCredentials{
		ctx:          ctx,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		issuerURL:    issuerURL,
		scopes:       scopes,
	})
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", "", "OAuth2 client id, authenticates requests with a client credentials token")
	rootCmd.PersistentFlags().StringVar(&clientSecret, "client-secret", os.Getenv("WORKSPACE_CLIENT_SECRET"), "OAuth2 client secret")
	rootCmd.PersistentFlags().StringVar(&tokenURL, "token-url", "", "Token URL")
	rootCmd.PersistentFlags().StringVar(&issuerURL, "issuer-url", "", "Issuer URL (for OIDC discovery)")
	rootCmd.PersistentFlags().StringSliceVar(&scopes, "scopes", []string{}, "Scopes (comma-separated)")
}
