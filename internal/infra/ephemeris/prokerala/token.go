package prokerala

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

// TokenState is the lifecycle position of the held provider token.
type TokenState int

const (
	TokenNone TokenState = iota
	TokenValid
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	default:
		return "none"
	}
}

// expiryLeeway treats a token as expired slightly before the provider does.
const expiryLeeway = 30 * time.Second

// TokenSource performs one credential grant per call. *clientcredentials.Config satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// NewClientCredentialsSource builds the OAuth client-credentials grant against the token endpoint.
func NewClientCredentialsSource(tokenURL, clientID, clientSecret string) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
}

// TokenHolder owns the access token shared by every request of a Client.
// Overlapping grants collapse into one, and a caller arriving after a grant reuses its token while valid.
type TokenHolder struct {
	source     TokenSource
	httpClient *http.Client
	now        func() time.Time
	grants     singleflight.Group

	mu      sync.Mutex
	token   *oauth2.Token
	expires time.Time
	revoked bool
}

// NewTokenHolder constructs a holder in the TokenNone state.
func NewTokenHolder(source TokenSource, httpClient *http.Client) *TokenHolder {
	return &TokenHolder{source: source, httpClient: httpClient, now: time.Now}
}

// State reports the current token state.
func (h *TokenHolder) State() TokenState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateLocked()
}

func (h *TokenHolder) stateLocked() TokenState {
	if h.token == nil || h.token.AccessToken == "" {
		return TokenNone
	}
	if h.revoked {
		return TokenExpired
	}
	if !h.expires.IsZero() && !h.now().Add(expiryLeeway).Before(h.expires) {
		return TokenExpired
	}
	return TokenValid
}

// Current returns a usable access token, granting a new one from NoToken or Expired.
func (h *TokenHolder) Current(ctx context.Context) (string, error) {
	if access, ok := h.valid(); ok {
		return access, nil
	}
	return h.grant(ctx, "current", true)
}

func (h *TokenHolder) valid() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stateLocked() != TokenValid {
		return "", false
	}
	return h.token.AccessToken, true
}

// Expire moves Valid to Expired after the provider rejected access.
// A token that was already replaced by another request is left alone.
func (h *TokenHolder) Expire(rejected string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.token != nil && h.token.AccessToken == rejected {
		h.revoked = true
	}
}

// Refresh performs a client-credentials grant and stores the result.
// Concurrent refreshes share one grant.
func (h *TokenHolder) Refresh(ctx context.Context) (string, error) {
	return h.grant(ctx, "refresh", false)
}

// grant runs at most one grant per key at a time. Refresh never joins a Current grant.
func (h *TokenHolder) grant(ctx context.Context, key string, reuseValid bool) (string, error) {
	v, err, _ := h.grants.Do(key, func() (any, error) {
		if reuseValid {
			if access, ok := h.valid(); ok {
				return access, nil
			}
		}
		return h.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (h *TokenHolder) fetch(ctx context.Context) (string, error) {
	if h.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.httpClient)
	}
	tok, err := h.source.Token(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuth, "ephemeris token refresh failed", err)
	}
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return "", apperrors.Wrap(apperrors.CodeAuth, "ephemeris token endpoint returned no access token", nil)
	}

	expires := tok.Expiry
	if expires.IsZero() {
		expires = jwtExpiry(tok.AccessToken)
	}

	h.mu.Lock()
	h.token = tok
	h.expires = expires
	h.revoked = false
	h.mu.Unlock()
	return tok.AccessToken, nil
}

// jwtExpiry reads the exp claim of a JWT access token without verifying it.
func jwtExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
