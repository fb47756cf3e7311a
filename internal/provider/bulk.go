package provider

import (
	"context"
	"sync"
)

// bulkRates loads a provider's full rate table once and serves every
// currency from it. Both a table and a failure are kept for the rest of the
// run, unless the failure came from the caller's own context ending.
type bulkRates struct {
	mu     sync.Mutex
	loaded bool
	rates  map[string]float64
	err    error
}

func (b *bulkRates) get(ctx context.Context, code string, load func(context.Context) (map[string]float64, error)) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.loaded {
		rates, err := load(ctx)
		if err != nil && ctx.Err() != nil {
			return 0, err
		}
		b.rates, b.err, b.loaded = rates, err, true
	}
	if b.err != nil {
		return 0, b.err
	}
	rate, ok := b.rates[code]
	if !ok {
		return 0, ErrNoRate
	}
	return rate, nil
}
