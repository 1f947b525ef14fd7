package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ZoneSentinel/internal/model"
)

func TestBackendFetcher_FetchBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/candlestick/WIN@/M5" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.Write([]byte(`[
			{"time":"2025-03-03T10:05:00","open":2,"high":3,"low":1,"close":2.5,"volume":10},
			{"time":"2025-03-03T10:00:00","open":1,"high":2,"low":0.5,"close":1.5,"volume":20}
		]`))
	}))
	defer srv.Close()

	f := NewBackendFetcher(srv.URL+"/api/", "secret", "")
	f.Location = time.UTC
	bars, err := f.FetchBars(context.Background(), "WIN@", model.TimeframeM5, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	want := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	if !bars[0].Time.Equal(want) {
		t.Errorf("expected bars sorted with first at %v, got %v", want, bars[0].Time)
	}
	if bars[1].Close != 2.5 || bars[1].Volume != 10 {
		t.Errorf("unexpected second bar %+v", bars[1])
	}
}

func TestBackendFetcher_TrimsToCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"time":"2025-03-03","open":1,"high":2,"low":0.5,"close":1.5,"volume":1},
			{"time":"2025-03-04","open":1,"high":2,"low":0.5,"close":1.5,"volume":1},
			{"time":"2025-03-05","open":1,"high":2,"low":0.5,"close":1.5,"volume":1}
		]`))
	}))
	defer srv.Close()

	f := NewBackendFetcher(srv.URL, "", "")
	bars, err := f.FetchBars(context.Background(), "PETR4", model.TimeframeD1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 || bars[0].Time.Day() != 4 {
		t.Errorf("expected the last 2 bars, got %+v", bars)
	}
}

func TestBackendFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noData bool
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, false},
		{"empty", http.StatusOK, `[]`, true},
		{"bad time", http.StatusOK, `[{"time":"yesterday","open":1,"high":1,"low":1,"close":1}]`, false},
		{"bad json", http.StatusOK, `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewBackendFetcher(srv.URL, "", "").FetchBars(context.Background(), "X", model.TimeframeD1, 10)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNoData) != tt.noData {
				t.Errorf("expected ErrNoData=%v, got %v", tt.noData, err)
			}
		})
	}
}

func TestBackendFetcher_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"ok","mt5_connected":true}`))
	}))
	defer srv.Close()

	h, err := NewBackendFetcher(srv.URL, "", "").Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "ok" || !h.Connected || h.Fetcher != "backend" {
		t.Errorf("unexpected health %+v", h)
	}
}
