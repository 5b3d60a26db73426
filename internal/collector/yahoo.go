package collector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// DefaultYahooBaseURL is the Yahoo Finance chart endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooFetcher implements Fetcher using the Yahoo Finance public chart API.
type YahooFetcher struct {
	client    *resty.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Now       func() time.Time
}

// NewYahooFetcher creates a Yahoo fetcher with optional proxy support.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		})
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		client: client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo Finance chart API.
// Quote arrays hold nulls for days without prints.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily retrieves daily bars from start through now.
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, start time.Time) ([]model.DailyBar, error) {
	ticker := f.yahooSymbol(symbol)
	var chart, failure yahooChart
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"period1":  strconv.FormatInt(model.CalendarDate(start).Unix(), 10),
			"period2":  strconv.FormatInt(f.Now().Unix(), 10),
			"events":   "history",
		}).
		SetResult(&chart).
		SetError(&failure).
		Get("/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	if resp.IsError() {
		if failure.Chart.Error != nil {
			if resp.StatusCode() == http.StatusNotFound {
				return nil, fmt.Errorf("%w: yahoo %s: %s", ErrNoData, ticker, failure.Chart.Error.Description)
			}
			return nil, fmt.Errorf("yahoo api error: %s", failure.Chart.Error.Description)
		}
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no bars for %s", ErrNoData, ticker)
	}

	result := chart.Chart.Result[0]
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	quote := result.Indicators.Quote[0]
	bars := make([]model.DailyBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue // holidays and halted sessions
		}
		vol := decimal.Zero
		if v := at(quote.Volume, i); v != nil {
			vol = decimal.NewFromFloat(*v)
		}
		bars = append(bars, model.DailyBar{
			Date:   model.CalendarDate(time.Unix(ts, 0).In(loc)),
			Open:   decimal.NewFromFloat(*o),
			High:   decimal.NewFromFloat(*h),
			Low:    decimal.NewFromFloat(*l),
			Close:  decimal.NewFromFloat(*c),
			Volume: vol,
		})
	}
	bars = normalizeBars(bars, start)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned only empty bars for %s", ErrNoData, ticker)
	}
	log.Debug().Str("symbol", ticker).Int("bars", len(bars)).Msg("yahoo daily bars fetched")
	return bars, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}
