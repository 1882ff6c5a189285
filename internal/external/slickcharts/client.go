package slickcharts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/httputil"
	"github.com/wonho/sentbt/pkg/logger"
)

// Client scrapes the S&P 500 constituent list. The universe is capped at a
// fixed count of tickers chosen lexicographically so repeated fetches build
// the same universe regardless of index weight reshuffles.
type Client struct {
	httpClient  *httputil.Client
	universeURL string
	maxTickers  int
	logger      *logger.Logger
}

// NewClient creates a new constituents client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		universeURL: cfg.Fetch.UniverseURL,
		maxTickers:  cfg.Fetch.MaxTickers,
		logger:      log,
	}
}

// FetchConstituents returns the capped, sorted ticker universe
func (c *Client) FetchConstituents(ctx context.Context) ([]string, error) {
	resp, err := c.httpClient.Get(ctx, c.universeURL)
	if err != nil {
		return nil, fmt.Errorf("constituents request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tickers, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.maxTickers > 0 && len(tickers) > c.maxTickers {
		tickers = tickers[:c.maxTickers]
	}

	c.logger.WithFields(map[string]interface{}{
		"url":     c.universeURL,
		"tickers": len(tickers),
	}).Info("Universe constituents fetched")

	return tickers, nil
}

// ParseConstituents extracts the symbol column from the constituents table,
// deduplicated and sorted lexicographically
func ParseConstituents(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		// Column layout: rank, company, symbol, weight, ...
		ticker := contracts.NormalizeTicker(cells.Eq(2).Text())
		if ticker == "" || strings.ContainsAny(ticker, " \t") {
			return
		}
		seen[ticker] = true
	})

	if len(seen) == 0 {
		return nil, fmt.Errorf("no constituents found in document")
	}

	tickers := make([]string, 0, len(seen))
	for ticker := range seen {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	return tickers, nil
}
