package upstream

import (
	"context"
	"time"

	"windsaloft-server/internal/modules/windsaloft/types"
)

// FetchObserver receives the outcome and latency of every fetch.
type FetchObserver interface {
	ObserveFetch(tier types.Tier, err error, d time.Duration)
}

type instrumentedFetcher struct {
	next     Fetcher
	observer FetchObserver
}

// Instrument reports every call on f to observer. A nil observer returns f.
func Instrument(f Fetcher, observer FetchObserver) Fetcher {
	if observer == nil {
		return f
	}
	return &instrumentedFetcher{next: f, observer: observer}
}

func (f *instrumentedFetcher) Fetch(ctx context.Context, region string, tier types.Tier, horizon types.Horizon) (string, error) {
	start := time.Now()
	body, err := f.next.Fetch(ctx, region, tier, horizon)
	f.observer.ObserveFetch(tier, err, time.Since(start))
	return body, err
}
