package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"ZoneSentinel/internal/model"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	// PriceScale converts a proxy ticker's quotes into the symbol's points.
	PriceScale map[string]float64
}

// b3Equity matches plain B3 stock tickers such as PETR4 or SANB11.
var b3Equity = regexp.MustCompile(`^[A-Z]{4}\d{1,2}$`)

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		// Yahoo has no continuous B3 futures. WIN@ follows the Ibovespa
		// index and WDO@ the USD/BRL spot rate quoted per 1000 dollars.
		SymbolMap: map[string]string{
			"IBOV": "^BVSP",
			"WIN@": "^BVSP",
			"WDO@": "BRL=X",
		},
		PriceScale: map[string]float64{
			"WDO@": 1000,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if b3Equity.MatchString(symbol) {
		return symbol + ".SA"
	}
	return symbol
}

// yahooInterval maps a timeframe to the chart API interval and range.
// Yahoo has no 4h bars, so H4 is built from hourly bars.
func yahooInterval(tf model.Timeframe) (interval, rng string) {
	switch tf {
	case model.TimeframeM1:
		return "1m", "5d"
	case model.TimeframeM5:
		return "5m", "1mo"
	case model.TimeframeM15:
		return "15m", "1mo"
	case model.TimeframeM30:
		return "30m", "1mo"
	case model.TimeframeH1:
		return "60m", "3mo"
	case model.TimeframeH4:
		return "60m", "6mo"
	default:
		return "1d", "1y"
	}
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func valueAt(vals []interface{}, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	return toFloat(vals[i])
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %w", ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := valueAt(quote.Open, i)
		h := valueAt(quote.High, i)
		l := valueAt(quote.Low, i)
		c := valueAt(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: valueAt(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	interval, rng := yahooInterval(tf)
	bars, err := f.fetchChart(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}
	if scale, ok := f.PriceScale[symbol]; ok {
		for i := range bars {
			bars[i].Open *= scale
			bars[i].High *= scale
			bars[i].Low *= scale
			bars[i].Close *= scale
		}
	}
	if tf == model.TimeframeH4 {
		bars = Resample(bars, tf.Duration())
	}
	// Trim to requested count
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

// Health reports Yahoo as connected when a small index chart can be fetched.
func (f *YahooFetcher) Health(ctx context.Context) (model.BackendHealth, error) {
	if _, err := f.fetchChart(ctx, "^GSPC", "1d", "5d"); err != nil {
		return model.BackendHealth{}, err
	}
	return model.BackendHealth{Status: "ok", Connected: true, Fetcher: f.Name(), CheckedAt: time.Now()}, nil
}
