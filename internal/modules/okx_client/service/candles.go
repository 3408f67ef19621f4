package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"setup_scanner/internal/models"
)

// MaxCandles: потолок limit у /api/v5/market/candles.
const MaxCandles = 300

// GetCandles отдаёт закрытые свечи по возрастанию времени.
// Строка OKX: [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm].
func (c *Client) GetCandles(ctx context.Context, instID, bar string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > MaxCandles {
		limit = MaxCandles
	}
	bar, err := okxBar(bar)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))

	rows, err := get[[]string](ctx, c, "/api/v5/market/candles", q)
	if err != nil {
		return nil, fmt.Errorf("candles %s %s: %w", instID, bar, err)
	}

	// OKX отдаёт newest-first → разворачиваем
	out := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		// незакрытая свеча
		if len(row) >= 9 && row[8] == "0" {
			continue
		}

		tsMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(row[1], 64)
		high, _ := strconv.ParseFloat(row[2], 64)
		low, _ := strconv.ParseFloat(row[3], 64)
		closep, _ := strconv.ParseFloat(row[4], 64)
		if closep <= 0 {
			continue
		}
		vol, _ := strconv.ParseFloat(row[5], 64)

		out = append(out, models.Candle{
			Time:   time.UnixMilli(tsMs).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closep,
			Volume: vol,
		})
	}
	return out, nil
}

// FetchSeries: GetCandles, упакованный в CandleSeries.
func (c *Client) FetchSeries(ctx context.Context, instID, bar string, limit int) (models.CandleSeries, error) {
	candles, err := c.GetCandles(ctx, instID, bar, limit)
	if err != nil {
		return models.CandleSeries{}, err
	}
	return models.CandleSeries{Symbol: instID, Timeframe: bar, Candles: candles}, nil
}
