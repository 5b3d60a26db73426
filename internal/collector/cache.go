package collector

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"PullbackLens/internal/model"
)

// CachedFetcher memoizes another Fetcher's results per symbol and start date.
type CachedFetcher struct {
	next  Fetcher
	store *cache.Cache
}

// NewCachedFetcher wraps next with a TTL cache. A zero ttl disables caching.
func NewCachedFetcher(next Fetcher, ttl time.Duration) Fetcher {
	if ttl <= 0 {
		return next
	}
	return &CachedFetcher{next: next, store: cache.New(ttl, 2*ttl)}
}

func (f *CachedFetcher) Name() string { return f.next.Name() + "+cache" }

func (f *CachedFetcher) FetchDaily(ctx context.Context, symbol string, start time.Time) ([]model.DailyBar, error) {
	key := strings.ToUpper(symbol) + "|" + model.FormatDate(start)
	if v, ok := f.store.Get(key); ok {
		log.Debug().Str("key", key).Msg("daily bars cache hit")
		return cloneBars(v.([]model.DailyBar)), nil
	}
	bars, err := f.next.FetchDaily(ctx, symbol, start)
	if err != nil {
		return nil, err
	}
	f.store.SetDefault(key, cloneBars(bars))
	return bars, nil
}

func cloneBars(bars []model.DailyBar) []model.DailyBar {
	out := make([]model.DailyBar, len(bars))
	copy(out, bars)
	return out
}
