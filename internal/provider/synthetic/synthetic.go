package synthetic

import (
    "context"
    "math"
    "time"

    "lukechampine.com/frand"

    "marketdash/internal/provider"
)

// Config shapes the fabricated quotes for one synthetic adapter.
// Price is drawn from [PriceBase, PriceBase+PriceSpan), change from
// [-ChangeSpan, +ChangeSpan).
type Config struct {
    Name       string
    PriceBase  float64
    PriceSpan  float64
    ChangeSpan float64
    // MinLatency/MaxLatency bound the simulated upstream delay.
    MinLatency time.Duration
    MaxLatency time.Duration
}

// Provider fabricates plausible-looking quotes with randomized latency.
// It stands in for upstreams that need credentials and never fails, so the
// dashboard always has rows to show.
type Provider struct {
    cfg Config
}

func New(cfg Config) *Provider {
    if cfg.MinLatency <= 0 { cfg.MinLatency = 100 * time.Millisecond }
    if cfg.MaxLatency <= cfg.MinLatency { cfg.MaxLatency = cfg.MinLatency + 300*time.Millisecond }
    return &Provider{cfg: cfg}
}

// GoogleFinance, YahooFinance and Bloomberg return the three stock
// synthetic adapters with their usual price/change spreads.
func GoogleFinance() *Provider {
    return New(Config{Name: "Google Finance (mock)", PriceBase: 100, PriceSpan: 150, ChangeSpan: 1,
        MinLatency: 300 * time.Millisecond, MaxLatency: 600 * time.Millisecond})
}

func YahooFinance() *Provider {
    return New(Config{Name: "Yahoo Finance (mock)", PriceBase: 90, PriceSpan: 180, ChangeSpan: 1.5,
        MinLatency: 200 * time.Millisecond, MaxLatency: 500 * time.Millisecond})
}

func Bloomberg() *Provider {
    return New(Config{Name: "Bloomberg (mock)", PriceBase: 110, PriceSpan: 120, ChangeSpan: 0.75,
        MinLatency: 250 * time.Millisecond, MaxLatency: 500 * time.Millisecond})
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) FetchForSymbol(ctx context.Context, symbol string) (provider.Quote, error) {
    delay := p.cfg.MinLatency + time.Duration(frand.Intn(int(p.cfg.MaxLatency-p.cfg.MinLatency)))
    t := time.NewTimer(delay)
    defer t.Stop()
    select {
    case <-ctx.Done():
        // Synthetic data costs nothing; serve it even when the caller's
        // deadline fired mid-sleep rather than introduce a failure mode.
    case <-t.C:
    }

    price := round2(p.cfg.PriceBase + frand.Float64()*p.cfg.PriceSpan)
    change := round2((frand.Float64() - 0.5) * 2 * p.cfg.ChangeSpan)
    return provider.Quote{
        Symbol:    symbol,
        Price:     provider.Float(price),
        Change:    provider.Float(change),
        Timestamp: time.Now().UTC().Format(time.RFC3339),
    }, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
