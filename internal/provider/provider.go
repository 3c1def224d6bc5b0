package provider

import "context"

// Quote is the normalized shape returned by all adapters.
// Price, PriceConverted and Change are independently optional; a nil field
// means the upstream did not supply it, not zero.
type Quote struct {
    Symbol         string   `json:"symbol,omitempty"`
    Price          *float64 `json:"price,omitempty"`
    PriceConverted *float64 `json:"price_converted,omitempty"`
    Change         *float64 `json:"change,omitempty"`
    Timestamp      string   `json:"timestamp,omitempty"`
    Source         string   `json:"source"`
    Error          string   `json:"error,omitempty"`
}

type Provider interface {
    Name() string
    FetchForSymbol(ctx context.Context, symbol string) (Quote, error)
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 { return &v }
