package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strings"
)

type Server struct {
    Port              string `json:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec"`
}

// Currency controls the display currency prices get converted into.
type Currency struct {
    Code   string `json:"code"`
    Symbol string `json:"symbol"`
    Locale string `json:"locale"`
}

type AlphaVantage struct {
    APIKey                string `json:"api_key"`
    Endpoint              string `json:"endpoint"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
    CacheTTLSeconds       int    `json:"cache_ttl_sec"`
    CacheMaxItems         int    `json:"cache_max_items"`
}

type Finnhub struct {
    APIKey                string `json:"api_key"`
    Endpoint              string `json:"endpoint"`
    MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
    MinRequestIntervalSec int    `json:"min_request_interval_sec"`
    Burst                 int    `json:"burst"`
    CacheTTLSeconds       int    `json:"cache_ttl_sec"`
    CacheMaxItems         int    `json:"cache_max_items"`
}

// Redis holds the optional Redis-backed FX store settings. When Addr is
// empty the file store is used instead.
type Redis struct {
    Addr     string `json:"addr"`
    Password string `json:"password"`
    DB       int    `json:"db"`
}

type FX struct {
    TTLSeconds int    `json:"ttl_sec"`
    StorePath  string `json:"store_path"`
    FMPAPIKey  string `json:"fmp_api_key"`
    Redis      Redis  `json:"redis"`
}

type Config struct {
    Server       Server       `json:"server"`
    Currency     Currency     `json:"currency"`
    UseProxy     bool         `json:"use_proxy"`
    ProxyBaseURL string       `json:"proxy_base_url"`
    AlphaVantage AlphaVantage `json:"alphavantage"`
    Finnhub      Finnhub      `json:"finnhub"`
    FX           FX           `json:"fx"`
}

func Default() Config {
    return Config{
        Server:   Server{Port: "8080", RequestTimeoutSec: 10},
        Currency: Currency{Code: "INR", Symbol: "₹", Locale: "en-IN"},
        ProxyBaseURL: "http://localhost:4000",
        AlphaVantage: AlphaVantage{
            Endpoint:             "https://www.alphavantage.co/query",
            MaxRequestsPerMinute: 5,
            Burst:                1,
            CacheTTLSeconds:      30,
            CacheMaxItems:        1000,
        },
        Finnhub: Finnhub{
            Endpoint:             "https://finnhub.io/api/v1/quote",
            MaxRequestsPerMinute: 30,
            Burst:                5,
            CacheTTLSeconds:      10,
            CacheMaxItems:        1000,
        },
        FX: FX{
            TTLSeconds: 300,
            StorePath:  "fx_rate.json",
        },
    }
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields
// for secrecy.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := json.Unmarshal(b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("CURRENCY_CODE"); v != "" { cfg.Currency.Code = v }
    if v := os.Getenv("CURRENCY_SYMBOL"); v != "" { cfg.Currency.Symbol = v }
    if v := os.Getenv("CURRENCY_LOCALE"); v != "" { cfg.Currency.Locale = v }
    if v := os.Getenv("USE_PROXY"); v != "" { cfg.UseProxy = parseBool(v, cfg.UseProxy) }
    if v := os.Getenv("PROXY_BASE_URL"); v != "" { cfg.ProxyBaseURL = v }

    if v := os.Getenv("ALPHAVANTAGE_KEY"); v != "" { cfg.AlphaVantage.APIKey = v }
    if v := os.Getenv("ALPHAVANTAGE_ENDPOINT"); v != "" { cfg.AlphaVantage.Endpoint = v }
    if v := os.Getenv("ALPHAVANTAGE_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.AlphaVantage.Burst = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.CacheTTLSeconds = x }
    }

    if v := os.Getenv("FINNHUB_KEY"); v != "" { cfg.Finnhub.APIKey = v }
    if v := os.Getenv("FINNHUB_ENDPOINT"); v != "" { cfg.Finnhub.Endpoint = v }
    if v := os.Getenv("FINNHUB_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Finnhub.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("FINNHUB_MIN_INTERVAL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Finnhub.MinRequestIntervalSec = x }
    }
    if v := os.Getenv("FINNHUB_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Finnhub.Burst = x }
    }
    if v := os.Getenv("FINNHUB_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Finnhub.CacheTTLSeconds = x }
    }

    if v := os.Getenv("FX_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.FX.TTLSeconds = x }
    }
    if v := os.Getenv("FX_STORE_PATH"); v != "" { cfg.FX.StorePath = v }
    if v := os.Getenv("FMP_API_KEY"); v != "" { cfg.FX.FMPAPIKey = v }
    if v := os.Getenv("FX_REDIS_ADDR"); v != "" { cfg.FX.Redis.Addr = v }
    if v := os.Getenv("FX_REDIS_PASSWORD"); v != "" { cfg.FX.Redis.Password = v }
    if v := os.Getenv("FX_REDIS_DB"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.FX.Redis.DB = x }
    }
}

func parseBool(v string, def bool) bool {
    switch strings.ToLower(v) {
    case "1", "true", "yes", "y":
        return true
    case "0", "false", "no", "n":
        return false
    }
    return def
}
