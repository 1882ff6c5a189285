package dataload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/logger"
)

// Loader reads the offline CSV inputs: the sentiment panel and the adjusted
// price history. Header row is required; tickers are normalized on read.
type Loader struct {
	logger *logger.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

// LoadSentimentPanel reads rows of date,ticker,sentiment[,source_count].
// A malformed row is fatal; silently skipping rows would bias the panel.
func (l *Loader) LoadSentimentPanel(path string) ([]contracts.SentimentObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	observations, err := l.ParseSentimentPanel(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": len(observations),
	}).Info("Sentiment panel loaded")

	return observations, nil
}

// ParseSentimentPanel decodes a sentiment panel CSV stream
func (l *Loader) ParseSentimentPanel(r io.Reader) ([]contracts.SentimentObservation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("expected at least 3 columns (date,ticker,sentiment), got %d", len(header))
	}

	var observations []contracts.SentimentObservation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 fields, got %d", line, len(record))
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ticker := contracts.NormalizeTicker(record[1])
		if ticker == "" {
			return nil, fmt.Errorf("line %d: empty ticker", line)
		}
		sentiment, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: sentiment: %w", line, err)
		}

		row := contracts.SentimentObservation{Date: date, Ticker: ticker, Sentiment: sentiment}
		if len(record) > 3 && record[3] != "" {
			count, err := strconv.Atoi(record[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: source_count: %w", line, err)
			}
			row.SourceCount = count
		}

		observations = append(observations, row)
	}

	return observations, nil
}

// LoadPrices reads rows of date,ticker,adj_close into per-ticker series
// sorted chronologically
func (l *Loader) LoadPrices(path string) (contracts.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prices, err := l.ParsePrices(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"path":    path,
		"tickers": len(prices),
	}).Info("Price history loaded")

	return prices, nil
}

// ParsePrices decodes a price CSV stream
func (l *Loader) ParsePrices(r io.Reader) (contracts.PriceSeries, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != 3 {
		return nil, fmt.Errorf("expected 3 columns (date,ticker,adj_close), got %d", len(header))
	}

	prices := make(contracts.PriceSeries)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ticker := contracts.NormalizeTicker(record[1])
		if ticker == "" {
			return nil, fmt.Errorf("line %d: empty ticker", line)
		}
		adjClose, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: adj_close: %w", line, err)
		}

		prices[ticker] = append(prices[ticker], contracts.PriceBar{Date: date, AdjClose: adjClose})
	}

	for _, ticker := range prices.Tickers() {
		bars := prices[ticker]
		sortBars(bars)
		for i := 1; i < len(bars); i++ {
			if !bars[i].Date.After(bars[i-1].Date) {
				return nil, fmt.Errorf("ticker %s: duplicate date %s",
					ticker, bars[i].Date.Format("2006-01-02"))
			}
		}
	}

	return prices, nil
}

func sortBars(bars []contracts.PriceBar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return contracts.Day(date), nil
}
