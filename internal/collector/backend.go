package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ZoneSentinel/internal/model"
)

// BackendFetcher implements Fetcher against the pricing backend REST API.
type BackendFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	// Location is used for bar times sent without a zone offset.
	Location *time.Location
}

// NewBackendFetcher creates a new fetcher with optional proxy support.
func NewBackendFetcher(baseURL, apiKey, proxyURL string) *BackendFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BackendFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Location: time.Local,
	}
}

func (f *BackendFetcher) Name() string { return "backend" }

// backendBar is the JSON shape of /candlestick responses.
type backendBar struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// backendTimeLayouts are tried in order; the backend emits local ISO times without an offset.
var backendTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (f *BackendFetcher) parseTime(s string) (time.Time, error) {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range backendTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised bar time %q", s)
}

func (f *BackendFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/candlestick/%s/%s", f.BaseURL, url.PathEscape(symbol), tf)
	var raw []backendBar
	if err := f.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch bars %s %s: %w", symbol, tf, ErrNoData)
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for _, rb := range raw {
		ts, err := f.parseTime(rb.Time)
		if err != nil {
			return nil, fmt.Errorf("decode bars: %w", err)
		}
		bars = append(bars, model.OHLCV{
			Time:   ts,
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		})
	}
	// Ensure chronological order
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

func (f *BackendFetcher) Health(ctx context.Context) (model.BackendHealth, error) {
	var result struct {
		Status       string `json:"status"`
		MT5Connected bool   `json:"mt5_connected"`
	}
	if err := f.getJSON(ctx, f.BaseURL+"/health", &result); err != nil {
		return model.BackendHealth{}, fmt.Errorf("health check: %w", err)
	}
	return model.BackendHealth{
		Status:    result.Status,
		Connected: result.MT5Connected,
		Fetcher:   f.Name(),
		CheckedAt: time.Now(),
	}, nil
}

func (f *BackendFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
