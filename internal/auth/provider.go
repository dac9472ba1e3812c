package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNoCredentials is returned when a provider was constructed without a
// client id/secret pair. Callers treat it as "skip this fetch", not fatal.
var ErrNoCredentials = errors.New("auth: client credentials not configured")

// expirySkew is how long before the real expiry we stop trusting a cached
// token and exchange a fresh one.
const expirySkew = 60 * time.Second

// Provider holds a bearer token and its expiry for one OAuth2
// client-credentials issuer. It is injected into API clients; there is no
// process-wide token state.
type Provider struct {
	name string
	conf *clientcredentials.Config

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewProvider creates a token provider for the given token endpoint.
// An empty client id or secret yields a provider that always returns
// ErrNoCredentials.
func NewProvider(name, clientID, clientSecret, tokenURL string) *Provider {
	return &Provider{
		name: name,
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
	}
}

// NewBlizzard creates a provider against the Battle.net token endpoint
func NewBlizzard(clientID, clientSecret string) *Provider {
	return NewProvider("blizzard", clientID, clientSecret, "https://oauth.battle.net/token")
}

// NewWarcraftLogs creates a provider against the Warcraft Logs token endpoint
func NewWarcraftLogs(clientID, clientSecret string) *Provider {
	return NewProvider("warcraftlogs", clientID, clientSecret, "https://www.warcraftlogs.com/oauth/token")
}

// Token returns the cached bearer token while it is more than 60 seconds
// from expiry, otherwise synchronously exchanges a new one.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if p.conf.ClientID == "" || p.conf.ClientSecret == "" {
		return "", fmt.Errorf("%w: issuer %s", ErrNoCredentials, p.name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiry.Add(-expirySkew)) {
		return p.token, nil
	}

	tok, err := p.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("token exchange failed for issuer %s: %w", p.name, err)
	}

	p.token = tok.AccessToken
	p.expiry = tok.Expiry

	log.Debug().
		Str("issuer", p.name).
		Time("expiry", p.expiry).
		Msg("Access token refreshed")

	return p.token, nil
}
