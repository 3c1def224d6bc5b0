package finnhub

import (
    "context"
    "fmt"
    "net/url"
    "time"

    "marketdash/internal/httpx"
    "marketdash/internal/provider"
)

// Config controls the Finnhub provider behavior.
type Config struct {
    Name         string
    URL          string // quote endpoint, default https://finnhub.io/api/v1/quote
    APIKey       string // sent as the token query parameter
    UseProxy     bool
    ProxyBaseURL string
}

// Provider fetches real-time quotes from Finnhub. The quote schema is a
// flat object with single-letter keys.
type Provider struct {
    cfg    Config
    client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
    if cfg.Name == "" { cfg.Name = "Finnhub" }
    if cfg.URL == "" { cfg.URL = "https://finnhub.io/api/v1/quote" }
    if cfg.ProxyBaseURL == "" { cfg.ProxyBaseURL = "http://localhost:4000" }
    return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// quoteBody is Finnhub's quote document: c = current price, dp = percent
// change, t = epoch seconds. The adapted envelope appears only in proxy
// responses and wins over the raw fields when present.
type quoteBody struct {
    C       *float64        `json:"c"`
    DP      *float64        `json:"dp"`
    T       int64           `json:"t"`
    Adapted *provider.Quote `json:"adapted"`
}

func (p *Provider) FetchForSymbol(ctx context.Context, symbol string) (provider.Quote, error) {
    var u string
    switch {
    case p.cfg.UseProxy:
        u = fmt.Sprintf("%s/api/finnhub/quote?symbol=%s", p.cfg.ProxyBaseURL, url.QueryEscape(symbol))
    case p.cfg.APIKey != "":
        u = fmt.Sprintf("%s?symbol=%s&token=%s", p.cfg.URL, url.QueryEscape(symbol), url.QueryEscape(p.cfg.APIKey))
    default:
        return provider.Quote{}, fmt.Errorf("Finnhub API key not configured (FINNHUB_KEY) or enable proxy (USE_PROXY=true)")
    }

    var body quoteBody
    if err := p.client.GetJSON(ctx, u, &body); err != nil {
        return provider.Quote{}, err
    }

    if body.Adapted != nil {
        q := *body.Adapted
        if q.Symbol == "" { q.Symbol = symbol }
        return q, nil
    }

    q := provider.Quote{Symbol: symbol, Price: body.C, Change: body.DP}
    if body.T > 0 {
        q.Timestamp = time.Unix(body.T, 0).UTC().Format(time.RFC3339)
    } else {
        q.Timestamp = time.Now().UTC().Format(time.RFC3339)
    }
    return q, nil
}
