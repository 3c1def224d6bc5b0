package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "log"
    "os"
    "time"

    "marketdash/internal/aggregate"
    "marketdash/internal/config"
    "marketdash/internal/fx"
    "marketdash/internal/httpx"
    "marketdash/internal/provider/registry"
)

// One-shot CLI: aggregate quotes for a symbol and print them as JSON.
func main() {
    var symbol string
    var timeout int
    var configPath string

    flag.StringVar(&symbol, "symbol", getenv("SYMBOL", "AAPL"), "ticker symbol to query")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil {
        log.Fatalf("config: %v", err)
    }
    if timeout != 0 {
        cfg.Server.RequestTimeoutSec = timeout
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

    var store fx.Store
    if cfg.FX.StorePath != "" {
        store = &fx.FileStore{Path: cfg.FX.StorePath}
    }
    rates := fx.New(fx.Config{
        Currency: cfg.Currency.Code,
        Symbol:   cfg.Currency.Symbol,
        Locale:   cfg.Currency.Locale,
        TTL:      time.Duration(cfg.FX.TTLSeconds) * time.Second,
    }, fx.DefaultSources(httpClient, cfg.FX.FMPAPIKey), store, nil)

    agg := aggregate.New(registry.Static(cfg, httpClient), rates)

    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
    defer cancel()

    quotes := agg.FetchAllForSymbol(ctx, symbol)
    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    enc.SetEscapeHTML(false)
    if err := enc.Encode(quotes); err != nil {
        log.Fatalf("encode: %v", err)
    }
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" { return v }
    return def
}

func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
