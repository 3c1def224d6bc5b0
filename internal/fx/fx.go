// Package fx maintains a process-wide cache of the USD to display-currency
// conversion rate: TTL-based refresh through an ordered source chain,
// last-known-good fallback, and a persisted record for warm starts.
package fx

import (
    "context"
    "math"
    "sync"
    "time"

    "go.uber.org/zap"
    "golang.org/x/sync/singleflight"
    "golang.org/x/text/language"
    "golang.org/x/text/message"
    "golang.org/x/text/number"

    "marketdash/internal/httpx"
)

// Config shapes the cache behavior and display formatting.
type Config struct {
    Currency string        // ISO code, e.g. "INR"
    Symbol   string        // display prefix, e.g. "₹"
    Locale   string        // BCP 47 tag for digit grouping, e.g. "en-IN"
    TTL      time.Duration // refresh when the cached rate is older than this
}

// Cache is the shared rate holder. All callers observe the same value; a
// refresh on miss is collapsed so concurrent misses do not each walk the
// source chain.
type Cache struct {
    cfg     Config
    sources []Source
    store   Store // optional
    log     *zap.Logger
    printer *message.Printer

    mu        sync.RWMutex
    rate      float64 // 0 = never resolved
    fetchedAt time.Time

    sf singleflight.Group
}

func New(cfg Config, sources []Source, store Store, log *zap.Logger) *Cache {
    if cfg.Currency == "" { cfg.Currency = "INR" }
    if cfg.Locale == "" { cfg.Locale = "en-IN" }
    if cfg.TTL <= 0 { cfg.TTL = 5 * time.Minute }
    if log == nil { log = zap.NewNop() }

    c := &Cache{
        cfg:     cfg,
        sources: sources,
        store:   store,
        log:     log,
        printer: message.NewPrinter(language.Make(cfg.Locale)),
    }

    // Warm-start from the persisted record; the TTL check below still
    // applies to its timestamp.
    if store != nil {
        if rec, ok := store.Load(context.Background()); ok {
            c.rate = rec.Rate
            c.fetchedAt = time.UnixMilli(rec.At)
            log.Info("fx: warm start from persisted rate",
                zap.Float64("rate", rec.Rate), zap.Time("fetched_at", c.fetchedAt))
        }
    }
    return c
}

// Rate returns the best-available USD to local rate. A fresh cached value
// is returned without any network call; otherwise the source chain is
// walked in order, falling back to the last cached value and finally to
// the neutral rate 1. It never fails; 1 means "conversion unavailable".
func (c *Cache) Rate(ctx context.Context) float64 {
    c.mu.RLock()
    rate, at := c.rate, c.fetchedAt
    c.mu.RUnlock()
    if rate > 0 && time.Since(at) < c.cfg.TTL {
        return rate
    }

    v, _, _ := c.sf.Do("refresh", func() (any, error) {
        // Re-check: another caller may have refreshed while we queued.
        c.mu.RLock()
        rate, at := c.rate, c.fetchedAt
        c.mu.RUnlock()
        if rate > 0 && time.Since(at) < c.cfg.TTL {
            return rate, nil
        }
        return c.refresh(ctx), nil
    })
    return v.(float64)
}

// refresh walks the source chain and commits the first usable rate.
func (c *Cache) refresh(ctx context.Context) float64 {
    for _, s := range c.sources {
        rate, err := s.Rate(ctx, c.cfg.Currency)
        if err != nil {
            c.log.Warn("fx: source failed", zap.String("source", s.Name()), zap.Error(err))
            continue
        }
        if rate <= 0 {
            c.log.Warn("fx: source returned unusable rate", zap.String("source", s.Name()), zap.Float64("rate", rate))
            continue
        }

        now := time.Now()
        c.mu.Lock()
        c.rate = rate
        c.fetchedAt = now
        c.mu.Unlock()

        if c.store != nil {
            if err := c.store.Save(ctx, Record{Rate: rate, At: now.UnixMilli()}); err != nil {
                c.log.Warn("fx: persist failed", zap.Error(err))
            }
        }
        return rate
    }

    // All sources failed: keep the stale value (and its timestamp, so the
    // next call retries the chain), or degrade to the neutral rate.
    c.mu.RLock()
    rate := c.rate
    c.mu.RUnlock()
    if rate > 0 {
        c.log.Warn("fx: all sources failed, using last cached rate", zap.Float64("rate", rate))
        return rate
    }
    c.log.Warn("fx: all sources failed and no cached rate, using neutral rate 1")
    return 1
}

// FormatSync formats a USD amount in the display currency using the cached
// rate. It never blocks; ok is false when no rate has been resolved yet and
// callers should fall back to USD or trigger a background Rate call.
func (c *Cache) FormatSync(amountUSD float64) (string, bool) {
    c.mu.RLock()
    rate := c.rate
    c.mu.RUnlock()
    if rate <= 0 {
        return "", false
    }
    v := math.Round(amountUSD*rate*100) / 100
    return c.printer.Sprintf("%s%v", c.cfg.Symbol,
        number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2))), true
}

// CachedRate exposes the cached value for diagnostics. Never blocks.
func (c *Cache) CachedRate() (float64, bool) {
    c.mu.RLock()
    defer c.mu.RUnlock()
    return c.rate, c.rate > 0
}

// DefaultSources is the fixed source chain: exchangerate.host, then
// open.er-api.com, then Financial Modeling Prep when a key is configured.
func DefaultSources(client *httpx.Client, fmpAPIKey string) []Source {
    sources := []Source{
        &ExchangerateHost{Client: client},
        &OpenERAPI{Client: client},
    }
    if fmpAPIKey != "" {
        sources = append(sources, &FMP{APIKey: fmpAPIKey, Client: client})
    }
    return sources
}
