package main

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "marketdash/internal/aggregate"
    "marketdash/internal/fx"
    "marketdash/internal/provider"
)

type fakeProvider struct {
    name  string
    quote provider.Quote
    err   error
}

func (f fakeProvider) Name() string { return f.name }
func (f fakeProvider) FetchForSymbol(_ context.Context, symbol string) (provider.Quote, error) {
    if f.err != nil {
        return provider.Quote{}, f.err
    }
    q := f.quote
    q.Symbol = symbol
    return q, nil
}

type fakeRegistry struct{ providers []provider.Provider }

func (f fakeRegistry) Active() []provider.Provider { return f.providers }

type fixedRate struct{ rate float64 }

func (f fixedRate) Name() string                                  { return "fixed" }
func (f fixedRate) Rate(_ context.Context, _ string) (float64, error) { return f.rate, nil }

func newTestAggregator(providers ...provider.Provider) *aggregate.Aggregator {
    rates := fx.New(fx.Config{TTL: time.Minute}, []fx.Source{fixedRate{rate: 2}}, nil, nil)
    return aggregate.New(fakeRegistry{providers: providers}, rates)
}

func TestGetQuotes_OneRowPerAdapter(t *testing.T) {
    agg := newTestAggregator(
        fakeProvider{name: "a", quote: provider.Quote{Price: provider.Float(10)}},
        fakeProvider{name: "b", err: fmt.Errorf("upstream down")},
    )

    rr := httptest.NewRecorder()
    req := httptest.NewRequest("GET", "/api/quotes?symbol=AAPL", nil)
    handleGetQuotes(rr, req, agg)
    if rr.Code != 200 {
        t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
    }

    var resp quotesResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(resp.Quotes) != 2 {
        t.Fatalf("want 2 rows, got %d: %+v", len(resp.Quotes), resp.Quotes)
    }
    ok, bad := resp.Quotes[0], resp.Quotes[1]
    if ok.Source != "a" || ok.Symbol != "AAPL" || ok.Price == nil || *ok.Price != 10 {
        t.Fatalf("unexpected success row: %+v", ok)
    }
    if ok.PriceConverted == nil || *ok.PriceConverted != 20 {
        t.Fatalf("expected converted price 20, got %+v", ok.PriceConverted)
    }
    if bad.Source != "b" || bad.Error == "" || bad.Price != nil {
        t.Fatalf("unexpected error row: %+v", bad)
    }
}

func TestGetQuotes_MissingSymbol(t *testing.T) {
    agg := newTestAggregator(fakeProvider{name: "a", quote: provider.Quote{Price: provider.Float(1)}})

    rr := httptest.NewRecorder()
    req := httptest.NewRequest("GET", "/api/quotes", nil)
    handleGetQuotes(rr, req, agg)
    if rr.Code != 400 {
        t.Fatalf("status=%d, want 400", rr.Code)
    }
    if !strings.Contains(rr.Body.String(), "symbol") {
        t.Fatalf("body should name the missing param: %q", rr.Body.String())
    }
}

func TestGetQuotes_BlankSymbolIsMissing(t *testing.T) {
    agg := newTestAggregator(fakeProvider{name: "a", quote: provider.Quote{Price: provider.Float(1)}})

    rr := httptest.NewRecorder()
    req := httptest.NewRequest("GET", "/api/quotes?symbol=%20%20", nil)
    handleGetQuotes(rr, req, agg)
    if rr.Code != 400 {
        t.Fatalf("status=%d, want 400", rr.Code)
    }
}

func TestErrorRowsOmitDataFields(t *testing.T) {
    agg := newTestAggregator(fakeProvider{name: "b", err: fmt.Errorf("boom")})

    rr := httptest.NewRecorder()
    req := httptest.NewRequest("GET", "/api/quotes?symbol=MSFT", nil)
    handleGetQuotes(rr, req, agg)

    var raw struct {
        Quotes []map[string]any `json:"quotes"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(raw.Quotes) != 1 {
        t.Fatalf("want 1 row, got %d", len(raw.Quotes))
    }
    row := raw.Quotes[0]
    for _, k := range []string{"symbol", "price", "price_converted", "change", "timestamp"} {
        if _, present := row[k]; present {
            t.Fatalf("error row must omit %q: %+v", k, row)
        }
    }
    if row["source"] != "b" || row["error"] == "" {
        t.Fatalf("unexpected error row: %+v", row)
    }
}
