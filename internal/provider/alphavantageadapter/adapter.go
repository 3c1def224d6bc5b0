package alphavantageadapter

import (
    "context"
    "fmt"
    "net/url"
    "time"

    "marketdash/internal/httpx"
    "marketdash/internal/provider"
    "marketdash/internal/provider/alphavantage"
)

type Config struct {
    Name string // display name, default: Alpha Vantage
    // UseProxy routes the request through a local proxy that holds the
    // API key server-side; ProxyBaseURL is its base address.
    UseProxy     bool
    ProxyBaseURL string
}

// Adapter exposes the Alpha Vantage GLOBAL_QUOTE endpoint as a Provider.
type Adapter struct {
    cfg    Config
    client *alphavantage.AlphaVantageAPIClient
    proxy  *httpx.Client
}

// New builds the adapter. client may be nil when no API key is configured;
// in that case only proxy mode can serve requests.
func New(cfg Config, client *alphavantage.AlphaVantageAPIClient, proxy *httpx.Client) *Adapter {
    if cfg.Name == "" { cfg.Name = "Alpha Vantage" }
    if cfg.ProxyBaseURL == "" { cfg.ProxyBaseURL = "http://localhost:4000" }
    return &Adapter{cfg: cfg, client: client, proxy: proxy}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchForSymbol(ctx context.Context, symbol string) (provider.Quote, error) {
    if a.cfg.UseProxy {
        return a.fetchViaProxy(ctx, symbol)
    }
    if a.client == nil {
        return provider.Quote{}, fmt.Errorf("Alpha Vantage API key not configured (ALPHAVANTAGE_KEY) or enable proxy (USE_PROXY=true)")
    }

    g, err := a.client.GetGlobalQuote(ctx, symbol)
    if err != nil {
        return provider.Quote{}, err
    }
    return a.adapt(symbol, g), nil
}

// adapt maps a GLOBAL_QUOTE document onto the common quote shape. A zero
// price means the field was absent, which is "unknown", not free.
func (a *Adapter) adapt(symbol string, g alphavantage.GlobalQuote) provider.Quote {
    q := provider.Quote{Symbol: symbol}
    if g.Price != 0 {
        q.Price = provider.Float(g.Price)
    }
    if change, err := g.ChangePercentValue(); err == nil {
        q.Change = provider.Float(change)
    }
    if g.LatestTradingDay != "" {
        q.Timestamp = g.LatestTradingDay
    } else {
        q.Timestamp = time.Now().UTC().Format(time.RFC3339)
    }
    return q
}

// proxyResponse is what the local proxy returns: either the raw upstream
// document or a pre-adapted envelope that is preferred verbatim.
type proxyResponse struct {
    Adapted *provider.Quote      `json:"adapted"`
    Note    string               `json:"Note"`
    ErrMsg  string               `json:"Error Message"`
    Global  *alphavantage.GlobalQuote `json:"Global Quote"`
}

func (a *Adapter) fetchViaProxy(ctx context.Context, symbol string) (provider.Quote, error) {
    u := fmt.Sprintf("%s/api/alpha/quote?symbol=%s", a.cfg.ProxyBaseURL, url.QueryEscape(symbol))
    var body proxyResponse
    if err := a.proxy.GetJSON(ctx, u, &body); err != nil {
        return provider.Quote{}, fmt.Errorf("proxy request failed: %w", err)
    }
    if body.Note != "" {
        return provider.Quote{}, fmt.Errorf("rate limit or note: %s", body.Note)
    }
    if body.ErrMsg != "" {
        return provider.Quote{}, fmt.Errorf("upstream error: %s", body.ErrMsg)
    }
    if body.Adapted != nil {
        q := *body.Adapted
        if q.Symbol == "" { q.Symbol = symbol }
        return q, nil
    }
    if body.Global == nil {
        return provider.Quote{}, fmt.Errorf("missing Global Quote object")
    }
    return a.adapt(symbol, *body.Global), nil
}
