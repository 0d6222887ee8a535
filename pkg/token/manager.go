// Package token manages the short-lived Petfinder bearer token obtained through
// an OAuth2 client-credentials grant.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultSafetyMargin is subtracted from the server TTL so the token is
// refreshed before the server considers it expired.
const DefaultSafetyMargin = 300 * time.Second

// ErrMissingCredentials is logged when the key or secret is empty.
var ErrMissingCredentials = errors.New("api key and secret are required")

var tokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "petfinder_token_refreshes_total",
	Help: "Total Petfinder token exchanges by result",
}, []string{"result"})

// Config holds the client-credentials configuration.
type Config struct {
	// APIKey is the OAuth2 client id.
	APIKey string

	// Secret is the OAuth2 client secret.
	Secret string

	// TokenURL is the token-exchange endpoint (e.g. https://api.petfinder.com/v2/oauth2/token).
	TokenURL string

	// SafetyMargin is subtracted from expires_in (default 300s).
	SafetyMargin time.Duration

	// HTTPClient is used for the exchange when set.
	HTTPClient *http.Client
}

// Manager holds a bearer token and its expiry. It is not safe for concurrent use;
// the ingestion pipeline is single-threaded.
type Manager struct {
	cfg       Config
	cc        *clientcredentials.Config
	now       func() time.Time
	token     string
	expiresAt time.Time
	logger    zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a token manager. No request is made until Authenticate
// or EnsureValid is called.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.SafetyMargin <= 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}

	m := &Manager{
		cfg: cfg,
		cc: &clientcredentials.Config{
			ClientID:     cfg.APIKey,
			ClientSecret: cfg.Secret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		now:    time.Now,
		logger: logging.NewLogger("token-manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate exchanges the credentials for a new bearer token. On success the
// expiry is set to issue time + expires_in - safety margin. Failures are logged
// and reported as false.
func (m *Manager) Authenticate(ctx context.Context) bool {
	if strings.TrimSpace(m.cfg.APIKey) == "" || strings.TrimSpace(m.cfg.Secret) == "" {
		m.logger.Error().Err(ErrMissingCredentials).Msg("Authentication failed")
		tokenRefreshesTotal.WithLabelValues("failure").Inc()
		return false
	}

	if m.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.cfg.HTTPClient)
	}

	issued := m.now()
	tok, err := m.cc.Token(ctx)
	if err != nil {
		m.logger.Error().Err(err).Str("token_url", m.cfg.TokenURL).Msg("Authentication failed")
		tokenRefreshesTotal.WithLabelValues("failure").Inc()
		return false
	}

	ttl := expiresIn(tok, issued)
	m.token = tok.AccessToken
	m.expiresAt = issued.Add(ttl - m.cfg.SafetyMargin)
	tokenRefreshesTotal.WithLabelValues("success").Inc()

	m.logger.Info().
		Dur("ttl", ttl).
		Time("refresh_at", m.expiresAt).
		Msg("Authenticated with Petfinder API")
	return true
}

// EnsureValid re-authenticates when no token is held or the expiry has passed.
// It returns false when no usable token is available afterwards.
func (m *Manager) EnsureValid(ctx context.Context) bool {
	if m.token != "" && m.now().Before(m.expiresAt) {
		return true
	}

	m.logger.Debug().
		Bool("has_token", m.token != "").
		Time("expires_at", m.expiresAt).
		Msg("Token missing or expired, refreshing")
	return m.Authenticate(ctx)
}

// Token returns the current bearer token ("" before the first successful exchange).
func (m *Manager) Token() string {
	return m.token
}

// ExpiresAt returns the moment after which EnsureValid refreshes the token.
func (m *Manager) ExpiresAt() time.Time {
	return m.expiresAt
}

// Invalidate drops the held token so the next EnsureValid re-authenticates.
func (m *Manager) Invalidate() {
	m.token = ""
	m.expiresAt = time.Time{}
}

// expiresIn reads the server TTL from the raw token response. now is the issue
// time used when only an absolute expiry is known.
func expiresIn(tok *oauth2.Token, now time.Time) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(now)
	}
	return 0
}
