package main

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "os"
    "os/signal"
    "strings"
    "sync"
    "syscall"
    "time"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "marketdash/internal/aggregate"
    "marketdash/internal/config"
    "marketdash/internal/fx"
    "marketdash/internal/httpx"
    "marketdash/internal/provider"
    "marketdash/internal/provider/registry"
)

type quotesResponse struct {
    Quotes []provider.Quote `json:"quotes"`
}

type fxResponse struct {
    Rate     float64 `json:"rate"`
    Cached   bool    `json:"cached"`
    Currency string  `json:"currency"`
}

func main() {
    consoleCfg := zap.NewProductionEncoderConfig()
    consoleCfg.TimeKey = "ts"
    consoleCfg.EncodeTime = zapcore.RFC3339TimeEncoder
    consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
    consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)
    consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(zap.InfoLevel))
    log := zap.New(consoleCore, zap.AddCaller())
    defer log.Sync()

    cfgPath := os.Getenv("CONFIG_FILE")
    cfg, err := config.Load(cfgPath)
    if err != nil {
        log.Fatal("config", zap.Error(err))
    }

    if !cfg.UseProxy && cfg.AlphaVantage.APIKey == "" && cfg.Finnhub.APIKey == "" {
        log.Warn("no API keys configured and proxy disabled; serving synthetic quotes only")
    }

    httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

    var store fx.Store
    if cfg.FX.Redis.Addr != "" {
        store = fx.NewRedisStore(cfg.FX.Redis.Addr, cfg.FX.Redis.Password, cfg.FX.Redis.DB)
    } else if cfg.FX.StorePath != "" {
        store = &fx.FileStore{Path: cfg.FX.StorePath}
    }
    rates := fx.New(fx.Config{
        Currency: cfg.Currency.Code,
        Symbol:   cfg.Currency.Symbol,
        Locale:   cfg.Currency.Locale,
        TTL:      time.Duration(cfg.FX.TTLSeconds) * time.Second,
    }, fx.DefaultSources(httpClient, cfg.FX.FMPAPIKey), store, log)

    reg := registry.Static(cfg, httpClient)
    agg := aggregate.New(reg, rates, aggregate.WithLogger(log))

    mux := http.NewServeMux()
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        handleGetQuotes(w, r, agg)
    })
    mux.HandleFunc("/api/fx/rate", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet {
            http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
            return
        }
        rate := rates.Rate(r.Context())
        _, cached := rates.CachedRate()
        writeJSON(w, fxResponse{Rate: rate, Cached: cached, Currency: cfg.Currency.Code})
    })

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           withJSONHeaders(withGzip(recoverPanic(mux))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Info("server listening", zap.String("port", cfg.Server.Port))
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal("server", zap.Error(err))
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func handleGetQuotes(w http.ResponseWriter, r *http.Request, agg *aggregate.Aggregator) {
    symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
    if symbol == "" {
        http.Error(w, "missing symbol query param", http.StatusBadRequest)
        return
    }
    ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
    defer cancel()
    writeJSON(w, quotesResponse{Quotes: agg.FetchAllForSymbol(ctx, symbol)})
}

func writeJSON(w http.ResponseWriter, v any) {
    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    enc.SetEscapeHTML(false)
    _ = enc.Encode(v)
}

func withJSONHeaders(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json; charset=utf-8")
        // Basic CORS for browser usage; adjust as needed.
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// withGzip compresses response when client supports gzip.
func withGzip(next http.Handler) http.Handler {
    var gzPool = sync.Pool{New: func() any {
        // Prefer best speed to reduce CPU usage since payloads are JSON
        w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
        return w
    }}
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
            next.ServeHTTP(w, r)
            return
        }
        gz := gzPool.Get().(*gzip.Writer)
        gz.Reset(w)
        defer func() {
            _ = gz.Close()
            gz.Reset(io.Discard)
            gzPool.Put(gz)
        }()
        w.Header().Set("Content-Encoding", "gzip")
        w.Header().Add("Vary", "Accept-Encoding")
        gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
        next.ServeHTTP(gw, r)
    })
}

type gzipResponseWriter struct {
    http.ResponseWriter
    Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
    return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        defer func() {
            if rec := recover(); rec != nil {
                http.Error(w, "internal server error", http.StatusInternalServerError)
            }
        }()
        next.ServeHTTP(w, r)
    })
}
