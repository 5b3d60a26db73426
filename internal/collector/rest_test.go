package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRESTFetcher_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bars/daily" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Query().Get("symbol") == "EMPTY" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2023-10-24","open":"420","high":"424.82","low":"417.64","close":"423.63","volume":"78564200"},
			{"date":"2023-10-23","open":"419","high":"424.82","low":"417.64","close":"420.46","volume":"92035100"}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", 5*time.Second)
	bars, err := f.FetchDaily(context.Background(), "SPY", time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 || !bars[0].Date.Before(bars[1].Date) {
		t.Fatalf("expected 2 ascending bars, got %+v", bars)
	}
	if bars[1].Close.String() != "423.63" {
		t.Errorf("close = %s", bars[1].Close)
	}

	if _, err := f.FetchDaily(context.Background(), "EMPTY", time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
