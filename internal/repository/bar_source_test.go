package repository

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	xhttp "BlockCast/pkg/http"
)

type stubSource struct {
	bars  []models.Bar
	err   error
	calls int
}

func (s *stubSource) GetBars(context.Context, string, time.Time, time.Time) ([]models.Bar, error) {
	s.calls++
	return s.bars, s.err
}

func TestFallbackBarSource(t *testing.T) {
	ctx := context.Background()
	bar := []models.Bar{{Timestamp: hour0, Close: 1}}

	failing := &stubSource{err: errors.New("down")}
	empty := &stubSource{}
	good := &stubSource{bars: bar}
	never := &stubSource{bars: bar}

	f := NewFallbackBarSource(
		NamedBarSource{Name: "ch", BarSource: failing},
		NamedBarSource{Name: "cache", BarSource: empty},
		NamedBarSource{Name: "http", BarSource: good},
		NamedBarSource{Name: "spare", BarSource: never},
	)
	got, err := f.GetBars(ctx, "AAPL", hour0, hour0.Add(time.Hour))
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
	if never.calls != 0 {
		t.Fatalf("sources after the first hit should not be called")
	}

	allEmpty := NewFallbackBarSource(NamedBarSource{Name: "a", BarSource: failing}, NamedBarSource{Name: "b", BarSource: empty})
	if got, err := allEmpty.GetBars(ctx, "AAPL", hour0, hour0); err != nil || len(got) != 0 {
		t.Fatalf("empty answer should win over errors: %v %v", got, err)
	}

	allFail := NewFallbackBarSource(NamedBarSource{Name: "a", BarSource: failing})
	if _, err := allFail.GetBars(ctx, "AAPL", hour0, hour0); err == nil || !strings.Contains(err.Error(), "a: down") {
		t.Fatalf("expected labelled error, got %v", err)
	}

	if _, err := NewFallbackBarSource().GetBars(ctx, "AAPL", hour0, hour0); err == nil {
		t.Fatalf("expected error with no sources")
	}
}

func TestHTTPBarSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/bars" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("ticker") == "NONE" {
			http.NotFound(w, r)
			return
		}
		if q.Get("ticker") != "AAPL" || q.Get("interval") != "5m" || q.Get("from") != "2024-03-04T14:00:00Z" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// second bar is before the window, third has a null close
		_, _ = w.Write([]byte(`{"bars":[
			{"t":1709561100,"o":100,"h":101,"l":99,"c":100.5,"v":10},
			{"t":1709560500,"o":99,"h":99,"l":99,"c":99,"v":1},
			{"t":1709560800,"o":100,"h":100,"l":100,"c":null,"v":0}
		]}`))
	}))
	defer srv.Close()

	client := xhttp.NewClient(xhttp.WithBaseURL(srv.URL), xhttp.WithHeader("X-API-Key", "secret"))
	src := NewHTTPBarSource(client, domrepo.TF5m)

	bars, err := src.GetBars(context.Background(), "AAPL", hour0, hour0.Add(time.Hour))
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars in window, got %d", len(bars))
	}
	if !bars[0].Timestamp.Equal(hour0) || !math.IsNaN(bars[0].Close) {
		t.Fatalf("first bar should be the null-close bar at 14:00: %+v", bars[0])
	}
	if bars[1].Close != 100.5 {
		t.Fatalf("unexpected second bar %+v", bars[1])
	}

	none, err := src.GetBars(context.Background(), "NONE", hour0, hour0.Add(time.Hour))
	if err != nil || len(none) != 0 {
		t.Fatalf("404 should mean no bars: %v %v", none, err)
	}

	if _, err := src.GetBars(context.Background(), "MSFT", hour0, hour0.Add(time.Hour)); err == nil {
		t.Fatalf("expected error for 400")
	}
}

func TestCHBarStoreInsertStatement(t *testing.T) {
	s := &CHBarStore{table: "blockcast.bars", tf: domrepo.TF5m}
	q, args := s.insertStatement([]models.TickerBar{
		{Ticker: "AAPL", Bar: models.Bar{Timestamp: hour0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}},
		{Ticker: "", Bar: models.Bar{Timestamp: hour0}},
		{Ticker: "AAPL", Bar: models.Bar{Timestamp: hour0.Add(5 * time.Minute), Close: math.NaN()}},
	})
	if !strings.HasPrefix(q, "INSERT INTO blockcast.bars (ticker, tf, ts, open, high, low, close, volume) VALUES ") {
		t.Fatalf("unexpected statement %q", q)
	}
	if strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?)") != 2 || len(args) != 16 {
		t.Fatalf("expected two rows, got %d args", len(args))
	}
	if args[1] != "5m" || args[6] != 1.5 {
		t.Fatalf("unexpected args %v", args[:8])
	}
	if args[14] != nil {
		t.Fatalf("NaN close should be written as NULL, got %v", args[14])
	}

	if q, _ := s.insertStatement(nil); q != "" {
		t.Fatalf("empty batch should produce no statement")
	}
}
