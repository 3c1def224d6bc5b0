// Package aggregate fans one symbol query out to every active adapter,
// collects every outcome without short-circuiting, and annotates successes
// with a converted price from the FX cache.
package aggregate

import (
    "context"
    "math"
    "sync"
    "time"

    "go.uber.org/zap"

    "marketdash/internal/fx"
    "marketdash/internal/provider"
)

// Registry yields the active adapters in registration order.
type Registry interface {
    Active() []provider.Provider
}

// Aggregator orchestrates one fan-out query per call. It holds no
// per-request state and is safe for concurrent use.
type Aggregator struct {
    reg     Registry
    fx      *fx.Cache
    timeout time.Duration
    log     *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout bounds each adapter call so one hung upstream cannot starve
// the whole aggregation. Timeouts become ordinary error outcomes.
func WithTimeout(d time.Duration) Option {
    return func(a *Aggregator) { a.timeout = d }
}

func WithLogger(log *zap.Logger) Option {
    return func(a *Aggregator) { a.log = log }
}

func New(reg Registry, rates *fx.Cache, opts ...Option) *Aggregator {
    a := &Aggregator{reg: reg, fx: rates, timeout: 8 * time.Second, log: zap.NewNop()}
    for _, opt := range opts {
        opt(a)
    }
    return a
}

// FetchAllForSymbol queries every active adapter concurrently and returns
// exactly one outcome per adapter, in registration order. An outcome either
// carries Error, or carries whatever subset of price/change/timestamp the
// adapter could resolve. The call itself never fails; total failure is
// every outcome carrying Error.
func (a *Aggregator) FetchAllForSymbol(ctx context.Context, symbol string) []provider.Quote {
    active := a.reg.Active()
    results := make([]provider.Quote, len(active))

    var wg sync.WaitGroup
    for i, p := range active {
        wg.Add(1)
        go func(i int, p provider.Provider) {
            defer wg.Done()
            results[i] = a.fetchOne(ctx, p, symbol)
        }(i, p)
    }
    wg.Wait()

    // One rate resolution per aggregation, reusing the cache's own
    // TTL/fallback chain.
    rate := a.fx.Rate(ctx)
    for i := range results {
        r := &results[i]
        if r.Error != "" || r.Price == nil || r.PriceConverted != nil {
            // Converted values supplied upstream win over client-side math.
            continue
        }
        r.PriceConverted = provider.Float(math.Round(*r.Price*rate*100) / 100)
    }
    return results
}

// fetchOne produces the single outcome for one adapter. Failures are
// isolated: they become {Source, Error} and never abort the aggregation.
func (a *Aggregator) fetchOne(ctx context.Context, p provider.Provider, symbol string) provider.Quote {
    cctx, cancel := context.WithTimeout(ctx, a.timeout)
    defer cancel()

    q, err := p.FetchForSymbol(cctx, symbol)
    if err != nil {
        a.log.Debug("adapter failed", zap.String("source", p.Name()), zap.Error(err))
        return provider.Quote{Source: p.Name(), Error: err.Error()}
    }
    q.Source = p.Name()
    if q.Symbol == "" {
        q.Symbol = symbol
    }
    if q.Timestamp == "" {
        q.Timestamp = time.Now().UTC().Format(time.RFC3339)
    }
    return q
}
