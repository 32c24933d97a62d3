package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	xhttp "BlockCast/pkg/http"
)

// HTTPBarSource reads bars from a market-data service:
//
//	GET {base}/v1/bars?ticker=AAPL&from=<RFC3339>&to=<RFC3339>&interval=5m
//	-> {"bars": [{"t": 1709560800, "o": .., "h": .., "l": .., "c": ..|null, "v": ..}]}
//
// A 404 means the service has no data for the range and yields no bars.
type HTTPBarSource struct {
	client *xhttp.Client
	tf     domrepo.Timeframe
}

func NewHTTPBarSource(client *xhttp.Client, tf domrepo.Timeframe) *HTTPBarSource {
	return &HTTPBarSource{client: client, tf: tf}
}

type barsResponse struct {
	Bars []models.BarMessage `json:"bars"`
}

func (s *HTTPBarSource) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	var resp barsResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    "/v1/bars",
		QueryParams: map[string][]string{
			"ticker":   {ticker},
			"from":     {from.UTC().Format(time.RFC3339)},
			"to":       {to.UTC().Format(time.RFC3339)},
			"interval": {string(s.tf)},
		},
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, err)
	}

	out := make([]models.Bar, 0, len(resp.Bars))
	for _, m := range resp.Bars {
		b := m.Bar()
		if b.Timestamp.Before(from) || !b.Timestamp.Before(to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// NamedBarSource labels a source for logs and errors.
type NamedBarSource struct {
	Name string
	domrepo.BarSource
}

// FallbackBarSource tries sources in order. The first non-empty result wins;
// an empty result moves on to the next source. If every source fails the
// last error is returned.
type FallbackBarSource struct {
	sources []NamedBarSource
}

func NewFallbackBarSource(sources ...NamedBarSource) *FallbackBarSource {
	available := make([]NamedBarSource, 0, len(sources))
	for _, s := range sources {
		if s.BarSource != nil {
			available = append(available, s)
		}
	}
	return &FallbackBarSource{sources: available}
}

func (f *FallbackBarSource) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	var (
		lastErr error
		empty   bool
	)
	for _, s := range f.sources {
		bars, err := s.GetBars(ctx, ticker, from, to)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", s.Name, err)
			continue
		}
		if len(bars) > 0 {
			return bars, nil
		}
		empty = true
	}
	if empty {
		return nil, nil
	}
	if lastErr == nil {
		return nil, fmt.Errorf("no bar sources configured")
	}
	return nil, lastErr
}
