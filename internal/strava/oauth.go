package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultOAuthBaseURL hosts Strava's /oauth endpoints.
const DefaultOAuthBaseURL = "https://www.strava.com"

// TokenResponse is what the token relay returns to the mobile client.
type TokenResponse struct {
	TokenType    string      `json:"token_type"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    int64       `json:"expires_at"`
	ExpiresIn    int64       `json:"expires_in"`
	Athlete      interface{} `json:"athlete,omitempty"`
}

// OAuth exchanges authorization codes and refresh tokens with Strava.
// It holds only the application credentials, never a user token.
type OAuth struct {
	config     oauth2.Config
	httpClient *http.Client
}

// NewOAuth builds the token relay. baseURL may be empty.
func NewOAuth(baseURL, clientID, clientSecret string) *OAuth {
	if baseURL == "" {
		baseURL = DefaultOAuthBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &OAuth{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   baseURL + "/oauth/authorize",
				TokenURL:  baseURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether client credentials are present.
func (o *OAuth) Configured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// Exchange trades an authorization code for tokens.
func (o *OAuth) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	if !o.Configured() {
		return nil, errors.New("missing strava client credentials")
	}
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	tok, err := o.config.Exchange(o.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange token: %w", err)
	}
	return toTokenResponse(tok), nil
}

// Refresh trades a refresh token for a fresh access token.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if !o.Configured() {
		return nil, errors.New("missing strava client credentials")
	}
	if refreshToken == "" {
		return nil, errors.New("missing refresh token")
	}
	// An expired token forces the source to hit the refresh grant.
	src := o.config.TokenSource(o.withClient(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return toTokenResponse(tok), nil
}

func (o *OAuth) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func toTokenResponse(tok *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		TokenType:    tok.TokenType,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Athlete:      tok.Extra("athlete"),
	}
	if !tok.Expiry.IsZero() {
		resp.ExpiresAt = tok.Expiry.Unix()
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	// Strava sends expires_at explicitly; prefer it over the computed value.
	if v, ok := tok.Extra("expires_at").(float64); ok && v > 0 {
		resp.ExpiresAt = int64(v)
	}
	return resp
}
