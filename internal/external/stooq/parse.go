package stooq

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
)

// ParseDailyCSV decodes Stooq's daily CSV payload
// (Date,Open,High,Low,Close,Volume) into price bars. The Close column is
// split-adjusted at source. "No data" responses decode to an empty slice.
func ParseDailyCSV(payload string) ([]contracts.PriceBar, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" || strings.HasPrefix(trimmed, "No data") {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 5 || !strings.EqualFold(header[0], "Date") {
		return nil, fmt.Errorf("unexpected header: %v", header)
	}

	var bars []contracts.PriceBar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 5 {
			return nil, fmt.Errorf("short row: %v", record)
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", record[0], err)
		}
		closePrice, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("close %q: %w", record[4], err)
		}

		bars = append(bars, contracts.PriceBar{
			Date:     contracts.Day(date),
			AdjClose: closePrice,
		})
	}

	return bars, nil
}
