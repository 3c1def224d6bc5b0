package registry

import (
    "fmt"
    "strings"
    "sync"
    "time"

    "marketdash/internal/config"
    "marketdash/internal/httpx"
    "marketdash/internal/provider"
    "marketdash/internal/provider/alphavantage"
    "marketdash/internal/provider/alphavantageadapter"
    "marketdash/internal/provider/cache"
    "marketdash/internal/provider/finnhub"
    "marketdash/internal/provider/ratelimit"
    "marketdash/internal/provider/synthetic"
)

// Registry computes the active adapter set from configuration at call time,
// so credential changes take effect without a restart. Synthetic adapters
// are always active; a credentialed adapter is active iff its API key is
// present or the global proxy flag is set.
//
// Stateful wrappers (token buckets, per-symbol caches) are built once per
// configuration fingerprint and reused across calls, otherwise a rebuilt
// bucket would forget how many tokens it has spent.
type Registry struct {
    cfgFn  func() config.Config
    client *httpx.Client

    mu    sync.Mutex
    built map[string]builtEntry
}

type builtEntry struct {
    fingerprint string
    p           provider.Provider
}

func New(cfgFn func() config.Config, client *httpx.Client) *Registry {
    return &Registry{cfgFn: cfgFn, client: client, built: make(map[string]builtEntry)}
}

// Static returns a registry over a fixed configuration value.
func Static(cfg config.Config, client *httpx.Client) *Registry {
    return New(func() config.Config { return cfg }, client)
}

// Active returns the active adapters in registration order: the three
// synthetic adapters first, then Alpha Vantage, then Finnhub. The order
// determines the order of aggregation outcomes.
func (r *Registry) Active() []provider.Provider {
    cfg := r.cfgFn()

    r.mu.Lock()
    defer r.mu.Unlock()

    out := make([]provider.Provider, 0, 5)
    out = append(out,
        r.get("google", "synthetic", func() provider.Provider { return synthetic.GoogleFinance() }),
        r.get("yahoo", "synthetic", func() provider.Provider { return synthetic.YahooFinance() }),
        r.get("bloomberg", "synthetic", func() provider.Provider { return synthetic.Bloomberg() }),
    )

    if cfg.AlphaVantage.APIKey != "" || cfg.UseProxy {
        fp := fmt.Sprintf("%s|%t|%s|%s|%d|%d|%d|%d|%d",
            cfg.AlphaVantage.APIKey, cfg.UseProxy, cfg.ProxyBaseURL, cfg.AlphaVantage.Endpoint,
            cfg.AlphaVantage.MaxRequestsPerMinute, cfg.AlphaVantage.Burst,
            cfg.AlphaVantage.MinRequestIntervalSec, cfg.AlphaVantage.CacheTTLSeconds, cfg.AlphaVantage.CacheMaxItems)
        out = append(out, r.get("alphavantage", fp, func() provider.Provider { return r.buildAlphaVantage(cfg) }))
    }
    if cfg.Finnhub.APIKey != "" || cfg.UseProxy {
        fp := fmt.Sprintf("%s|%t|%s|%s|%d|%d|%d|%d|%d",
            cfg.Finnhub.APIKey, cfg.UseProxy, cfg.ProxyBaseURL, cfg.Finnhub.Endpoint,
            cfg.Finnhub.MaxRequestsPerMinute, cfg.Finnhub.Burst,
            cfg.Finnhub.MinRequestIntervalSec, cfg.Finnhub.CacheTTLSeconds, cfg.Finnhub.CacheMaxItems)
        out = append(out, r.get("finnhub", fp, func() provider.Provider { return r.buildFinnhub(cfg) }))
    }
    return out
}

// get returns the cached provider for a slot, rebuilding it when the
// relevant configuration changed. Caller holds r.mu.
func (r *Registry) get(slot, fingerprint string, build func() provider.Provider) provider.Provider {
    if e, ok := r.built[slot]; ok && e.fingerprint == fingerprint {
        return e.p
    }
    p := build()
    r.built[slot] = builtEntry{fingerprint: fingerprint, p: p}
    return p
}

func (r *Registry) buildAlphaVantage(cfg config.Config) provider.Provider {
    var client *alphavantage.AlphaVantageAPIClient
    if cfg.AlphaVantage.APIKey != "" {
        opts := []alphavantage.AlphaVantageAPIClientOption{alphavantage.WithHTTPClient(r.client.HTTP)}
        if cfg.AlphaVantage.Endpoint != "" {
            // Config carries the full query endpoint; the client wants the host base.
            opts = append(opts, alphavantage.WithBaseURL(strings.TrimSuffix(cfg.AlphaVantage.Endpoint, "/query")))
        }
        c, err := alphavantage.NewAlphaVantageAPIClient(cfg.AlphaVantage.APIKey, opts...)
        if err == nil {
            client = c
        }
    }
    p := provider.Provider(alphavantageadapter.New(alphavantageadapter.Config{
        UseProxy:     cfg.UseProxy,
        ProxyBaseURL: cfg.ProxyBaseURL,
    }, client, r.client))
    return r.wrap(p,
        cfg.AlphaVantage.MaxRequestsPerMinute, cfg.AlphaVantage.Burst, cfg.AlphaVantage.MinRequestIntervalSec,
        cfg.AlphaVantage.CacheTTLSeconds, cfg.AlphaVantage.CacheMaxItems)
}

func (r *Registry) buildFinnhub(cfg config.Config) provider.Provider {
    p := provider.Provider(finnhub.New(finnhub.Config{
        URL:          cfg.Finnhub.Endpoint,
        APIKey:       cfg.Finnhub.APIKey,
        UseProxy:     cfg.UseProxy,
        ProxyBaseURL: cfg.ProxyBaseURL,
    }, r.client))
    return r.wrap(p,
        cfg.Finnhub.MaxRequestsPerMinute, cfg.Finnhub.Burst, cfg.Finnhub.MinRequestIntervalSec,
        cfg.Finnhub.CacheTTLSeconds, cfg.Finnhub.CacheMaxItems)
}

// wrap layers rate limiting and per-symbol caching around an adapter.
// Prefer a token bucket with burst when an RPM cap is set, otherwise fall
// back to a minimum interval.
func (r *Registry) wrap(p provider.Provider, rpm, burst, minIntervalSec, cacheTTLSec, cacheMax int) provider.Provider {
    if rpm > 0 {
        if burst <= 0 { burst = 1 }
        p = &ratelimit.TokenBucketProvider{P: p, TB: ratelimit.NewTokenBucket(float64(rpm)/60.0, burst)}
    } else if minIntervalSec > 0 {
        p = &ratelimit.MinInterval{P: p, Interval: time.Duration(minIntervalSec) * time.Second}
    }
    if cacheTTLSec > 0 {
        p = &cache.Provider{P: p, TTL: time.Duration(cacheTTLSec) * time.Second, MaxItems: cacheMax}
    }
    return p
}
