package cache

import (
    "context"
    "sync"
    "time"

    "marketdash/internal/provider"
)

// entry stores one cached quote with expiry.
type entry struct {
    expiresAt time.Time
    quote     provider.Quote
}

// Provider caches the underlying provider's quote per symbol for a TTL.
// Errors are never cached; only successful quotes are.
type Provider struct {
    P        provider.Provider
    TTL      time.Duration
    MaxItems int

    mu    sync.RWMutex
    items map[string]entry // key: symbol
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) FetchForSymbol(ctx context.Context, symbol string) (provider.Quote, error) {
    if c.TTL <= 0 {
        return c.P.FetchForSymbol(ctx, symbol)
    }

    now := time.Now()
    c.mu.RLock()
    if e, ok := c.items[symbol]; ok && now.Before(e.expiresAt) {
        c.mu.RUnlock()
        return e.quote, nil
    }
    c.mu.RUnlock()

    fresh, err := c.P.FetchForSymbol(ctx, symbol)
    if err != nil {
        // A still-present stale quote beats failing outright.
        c.mu.RLock()
        e, ok := c.items[symbol]
        c.mu.RUnlock()
        if ok {
            return e.quote, nil
        }
        return provider.Quote{}, err
    }

    c.mu.Lock()
    if c.items == nil {
        c.items = make(map[string]entry)
    }
    c.items[symbol] = entry{expiresAt: now.Add(c.TTL), quote: fresh}
    // best-effort cap cache size: expired entries first, then arbitrary
    if c.MaxItems > 0 && len(c.items) > c.MaxItems {
        for k, v := range c.items {
            if time.Now().After(v.expiresAt) {
                delete(c.items, k)
            }
            if len(c.items) <= c.MaxItems {
                break
            }
        }
        for k := range c.items {
            if len(c.items) <= c.MaxItems { break }
            delete(c.items, k)
        }
    }
    c.mu.Unlock()

    return fresh, nil
}
