package stooq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/httputil"
	"github.com/wonho/sentbt/pkg/logger"
	"github.com/wonho/sentbt/pkg/redis"
)

// Client fetches daily adjusted close history from the Stooq CSV endpoint.
// Stooq is unauthenticated and aggressively throttles, so every request goes
// through a local token-bucket limiter and fetched series are cached in Redis
// for the configured TTL.
type Client struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	cache      *redis.Cache
	cacheTTL   time.Duration
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a new Stooq client
func NewClient(cfg *config.Config, httpClient *httputil.Client, redisClient *redis.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), 1),
		cache:      redis.NewCache(redisClient, "stooq"),
		cacheTTL:   cfg.Fetch.PriceCacheTTL,
		baseURL:    cfg.Fetch.StooqBaseURL,
		logger:     log,
	}
}

// FetchDaily returns the daily bars for one ticker over [from, to],
// oldest first
func (c *Client) FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	ticker = contracts.NormalizeTicker(ticker)
	cacheKey := fmt.Sprintf("daily:%s:%s:%s",
		ticker, from.Format("20060102"), to.Format("20060102"))

	var cached []contracts.PriceBar
	if hit, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("s", Symbol(ticker))
	params.Set("i", "d")
	params.Set("d1", from.Format("20060102"))
	params.Set("d2", to.Format("20060102"))

	fullURL := fmt.Sprintf("%s/q/d/l/?%s", c.baseURL, params.Encode())
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("stooq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	bars, err := ParseDailyCSV(string(body))
	if err != nil {
		return nil, fmt.Errorf("ticker %s: %w", ticker, err)
	}

	if err := c.cache.Set(ctx, cacheKey, bars, c.cacheTTL); err != nil {
		c.logger.WithError(err).Warn("Price cache write failed")
	}

	return bars, nil
}

// FetchUniverse fetches daily history for every ticker. A ticker with no
// data is skipped with a warning rather than failing the batch; backtests
// surface the gap through coverage diagnostics instead.
func (c *Client) FetchUniverse(ctx context.Context, tickers []string, from, to time.Time) (contracts.PriceSeries, error) {
	prices := make(contracts.PriceSeries, len(tickers))
	for _, ticker := range tickers {
		bars, err := c.FetchDaily(ctx, ticker, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Ticker fetch failed, skipping")
			continue
		}
		if len(bars) == 0 {
			c.logger.WithField("ticker", ticker).Warn("No price history, skipping")
			continue
		}
		prices[contracts.NormalizeTicker(ticker)] = bars
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(tickers),
		"fetched":   len(prices),
	}).Info("Universe price fetch completed")

	return prices, nil
}

// Symbol maps a US ticker to Stooq's symbol form, e.g. AAPL → aapl.us.
// Class shares use a dash on Stooq (BRK.B → brk-b.us).
func Symbol(ticker string) string {
	s := strings.ToLower(strings.TrimSpace(ticker))
	s = strings.ReplaceAll(s, ".", "-")
	return s + ".us"
}
