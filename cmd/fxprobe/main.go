package main

import (
    "context"
    "flag"
    "fmt"
    "log"
    "os"
    "time"

    "marketdash/internal/config"
    "marketdash/internal/fx"
    "marketdash/internal/httpx"
)

// fxprobe walks the configured FX source chain and prints each source's
// verdict. Useful when the dashboard shows unconverted prices and you want
// to know which provider is letting the chain down.
func main() {
    var currency string
    var timeout int
    var configPath string

    flag.StringVar(&currency, "currency", "", "currency code to probe (defaults to configured)")
    flag.IntVar(&timeout, "timeout", 10, "per-source timeout seconds")
    flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil {
        log.Fatalf("config: %v", err)
    }
    if currency == "" {
        currency = cfg.Currency.Code
    }

    httpClient := httpx.New(time.Duration(timeout) * time.Second)
    sources := fx.DefaultSources(httpClient, cfg.FX.FMPAPIKey)

    exit := 1
    for _, s := range sources {
        ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
        start := time.Now()
        rate, err := s.Rate(ctx, currency)
        cancel()
        if err != nil {
            fmt.Printf("%-28s FAIL  %v (%s)\n", s.Name(), err, time.Since(start).Round(time.Millisecond))
            continue
        }
        fmt.Printf("%-28s OK    1 USD = %.4f %s (%s)\n", s.Name(), rate, currency, time.Since(start).Round(time.Millisecond))
        exit = 0
    }
    os.Exit(exit)
}
