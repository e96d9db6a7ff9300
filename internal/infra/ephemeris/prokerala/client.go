package prokerala

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yanqian/astrochart/internal/domain/chart"
	apperrors "github.com/yanqian/astrochart/pkg/errors"
	"github.com/yanqian/astrochart/pkg/metrics"
	"github.com/yanqian/astrochart/pkg/util"
)

const (
	defaultBaseURL  = "https://api.prokerala.com"
	defaultTokenURL = "https://api.prokerala.com/token"

	planetPositionPath = "/v2/astrology/planet-position"
	birthDetailsPath   = "/v2/astrology/birth-details"

	// CacheTTL bounds how long a raw provider payload is reused.
	CacheTTL = 30 * time.Minute

	maxBodyBytes = 4 << 20
)

// Config holds the provider connection settings.
type Config struct {
	BaseURL           string
	TokenURL          string
	ClientID          string
	ClientSecret      string
	Ayanamsa          int
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client fetches chart snapshots from ProKerala with caching and one auth retry.
type Client struct {
	baseURL    string
	ayanamsa   int
	httpClient *http.Client
	tokens     *TokenHolder
	cache      chart.ResponseCache
	limiter    *rate.Limiter
	usage      *metrics.ProviderUsage
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds an API client. cache may be nil to always go to the network.
func NewClient(cfg Config, cache chart.ResponseCache, usage *metrics.ProviderUsage, logger *slog.Logger) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	if usage == nil {
		usage = &metrics.ProviderUsage{}
	}

	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		ayanamsa:   cfg.Ayanamsa,
		httpClient: httpClient,
		tokens:     NewTokenHolder(NewClientCredentialsSource(tokenURL, cfg.ClientID, cfg.ClientSecret), httpClient),
		cache:      cache,
		limiter:    rate.NewLimiter(limit, burst),
		usage:      usage,
		logger:     logger.With("component", "ephemeris.prokerala"),
		now:        util.NowUTC,
	}
}

// TokenState exposes the auth state for health reporting.
func (c *Client) TokenState() TokenState {
	return c.tokens.State()
}

// AuthState is TokenState as a string.
func (c *Client) AuthState() string {
	return c.tokens.State().String()
}

// Usage returns the live-call and cache counters.
func (c *Client) Usage() metrics.UsageSnapshot {
	return c.usage.Snapshot()
}

// FetchChart validates birth, calls both provider endpoints concurrently and normalizes the result.
func (c *Client) FetchChart(ctx context.Context, birth chart.BirthDetails) (chart.Chart, error) {
	datetime, err := birth.Datetime()
	if err != nil {
		return chart.Chart{}, err
	}
	params := url.Values{
		"ayanamsa":    {strconv.Itoa(c.ayanamsa)},
		"coordinates": {birth.Coordinates()},
		"datetime":    {datetime},
	}

	var planetBody, birthBody []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.fetch(gctx, planetPositionPath, params)
		planetBody = body
		return err
	})
	g.Go(func() error {
		body, err := c.fetch(gctx, birthDetailsPath, params)
		birthBody = body
		return err
	})
	if err := g.Wait(); err != nil {
		return chart.Chart{}, err
	}
	return Normalize(planetBody, birthBody, birth, c.now())
}

// fetch serves a validated payload from the cache or the network.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	key := cacheKey(path, params)
	if body, ok := c.cached(ctx, key); ok {
		c.usage.RecordCacheHit()
		return body, nil
	}

	body, err := c.call(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, CacheTTL); err != nil {
			c.logger.Warn("ephemeris cache write failed", "key", key, "error", err)
		}
	}
	return body, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("ephemeris cache read failed", "key", key, "error", err)
		return nil, false
	}
	return body, ok
}

// call performs the authenticated request, refreshing the token once on 401.
func (c *Client) call(ctx context.Context, path string, params url.Values) ([]byte, error) {
	token, err := c.tokens.Current(ctx)
	if err != nil {
		return nil, err
	}

	refreshed := false
	for {
		status, body, err := c.send(ctx, path, params, token)
		if err != nil {
			return nil, err
		}
		if status != http.StatusUnauthorized {
			if err := checkPayload(status, body); err != nil {
				return nil, err
			}
			return body, nil
		}
		if refreshed {
			return nil, apperrors.Wrap(apperrors.CodeAuth, "ephemeris provider rejected refreshed token", nil)
		}

		c.logger.Info("ephemeris token rejected, refreshing", "path", path)
		c.tokens.Expire(token)
		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		c.usage.RecordRefresh()
		refreshed = true
	}
}

func (c *Client) send(ctx context.Context, path string, params url.Values, token string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, apperrors.Wrap(apperrors.CodeNetwork, "ephemeris request cancelled", err)
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, apperrors.Wrap(apperrors.CodeNetwork, "build ephemeris request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	c.usage.RecordLiveCall()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, networkError(err)
	}
	c.logger.Debug("ephemeris response", "path", path, "status", resp.StatusCode, "bytes", len(body))
	return resp.StatusCode, body, nil
}

func networkError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Wrap(apperrors.CodeNetwork, "ephemeris request timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeNetwork, "ephemeris request timed out", err)
	}
	return apperrors.Wrap(apperrors.CodeNetwork, "ephemeris request failed", err)
}

// cacheKey is the endpoint plus its canonical (sorted) query string.
func cacheKey(path string, params url.Values) string {
	return path + "?" + params.Encode()
}
