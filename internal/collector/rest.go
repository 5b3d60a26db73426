package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// RESTFetcher implements Fetcher against a generic bars API:
// GET {base}/api/v1/bars/daily?symbol=..&start=YYYY-MM-DD.
type RESTFetcher struct {
	client *resty.Client
}

// NewRESTFetcher creates a new fetcher with optional API key and proxy.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &RESTFetcher{client: client}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API. Prices are decimal strings.
type restBar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

func (f *RESTFetcher) FetchDaily(ctx context.Context, symbol string, start time.Time) ([]model.DailyBar, error) {
	var raw []restBar
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"start":  model.FormatDate(start),
		}).
		SetResult(&raw).
		Get("/api/v1/bars/daily")
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	bars := make([]model.DailyBar, 0, len(raw))
	for _, rb := range raw {
		d, err := model.ParseDate(rb.Date)
		if err != nil {
			return nil, fmt.Errorf("decode bar date %q: %w", rb.Date, err)
		}
		bars = append(bars, model.DailyBar{
			Date:   d,
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		})
	}
	bars = normalizeBars(bars, start)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s since %s", ErrNoData, symbol, model.FormatDate(start))
	}
	return bars, nil
}
