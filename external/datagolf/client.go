package datagolf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/fairwaylabs/teeline/internal/domain/tournament"
	"github.com/fairwaylabs/teeline/internal/platform/logging"
	"github.com/fairwaylabs/teeline/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://feeds.datagolf.com"

	pathMatchups    = "/betting-tools/matchups"
	pathAllPairings = "/betting-tools/matchups-all-pairings"
	pathFieldUpdate = "/field-updates"

	marketThreeBalls    = "3_balls"
	marketRoundMatchups = "round_matchups"

	maxFeedBodyBytes = 6 << 20
)

var apiKeyParamRegex = regexp.MustCompile(`key=[^&\s"']+`)

// FeedFetchError reports a non-success provider response for one feed.
// It is fatal to the ingestion cycle that requested the feed.
type FeedFetchError struct {
	URL        string
	StatusCode int
}

func (e *FeedFetchError) Error() string {
	return fmt.Sprintf("feed fetch failed: status=%d url=%s", e.StatusCode, e.URL)
}

// IsFeedFetchError reports whether err wraps a FeedFetchError.
func IsFeedFetchError(err error) bool {
	var target *FeedFetchError
	return crerr.As(err, &target)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Key            string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches the provider's four golf betting feeds. Fetches are
// uncached single attempts: an ingestion cycle either gets every feed or
// aborts, so there is no retry loop here.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	key            string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		key:            strings.TrimSpace(cfg.Key),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchThreeBallMatchups returns the 3-ball matchup feed for a tour.
func (c *Client) FetchThreeBallMatchups(ctx context.Context, tour tournament.Tour) (MatchupsFeed, error) {
	var feed MatchupsFeed
	query := map[string]string{"tour": string(tour), "market": marketThreeBalls, "odds_format": "decimal"}
	if err := c.doJSON(ctx, pathMatchups, query, &feed); err != nil {
		return MatchupsFeed{}, err
	}
	return feed, nil
}

// FetchTwoBallMatchups returns the 2-ball (round matchup) feed for a tour.
func (c *Client) FetchTwoBallMatchups(ctx context.Context, tour tournament.Tour) (MatchupsFeed, error) {
	var feed MatchupsFeed
	query := map[string]string{"tour": string(tour), "market": marketRoundMatchups, "odds_format": "decimal"}
	if err := c.doJSON(ctx, pathMatchups, query, &feed); err != nil {
		return MatchupsFeed{}, err
	}
	return feed, nil
}

// FetchAllPairings returns the model-computed pairings feed for a tour.
func (c *Client) FetchAllPairings(ctx context.Context, tour tournament.Tour) (PairingsFeed, error) {
	var feed PairingsFeed
	query := map[string]string{"tour": string(tour), "odds_format": "decimal"}
	if err := c.doJSON(ctx, pathAllPairings, query, &feed); err != nil {
		return PairingsFeed{}, err
	}
	return feed, nil
}

// FetchFieldUpdates returns the field/tee-time updates feed for a tour.
func (c *Client) FetchFieldUpdates(ctx context.Context, tour tournament.Tour) (FieldFeed, error) {
	var feed FieldFeed
	query := map[string]string{"tour": string(tour)}
	if err := c.doJSON(ctx, pathFieldUpdate, query, &feed); err != nil {
		return FieldFeed{}, err
	}
	return feed, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "feed circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return crerr.Wrap(err, "feed provider is temporarily unavailable")
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("file_format", "json")
	values.Set("key", c.key)

	fullURL := c.baseURL + path + "?" + values.Encode()

	flightKey := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(flightKey, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return crerr.Newf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrapf(err, "decode feed payload path=%s", path)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build feed request")
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Newf("send feed request: %s", sanitizeSensitiveText(err.Error(), c.key))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return nil, crerr.Wrap(err, "read feed response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fetchErr := &FeedFetchError{URL: redactFeedURL(fullURL), StatusCode: resp.StatusCode}
		c.logger.WarnContext(ctx, "feed request failed", "url", fetchErr.URL, "status", resp.StatusCode)
		return nil, crerr.WithStack(fetchErr)
	}
	return raw, nil
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if key != "" {
		value = strings.ReplaceAll(value, key, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "key=REDACTED")
}

func redactFeedURL(fullURL string) string {
	return apiKeyParamRegex.ReplaceAllString(fullURL, "key=REDACTED")
}
