package fx

import (
    "context"
    "fmt"
    "net/url"

    "marketdash/internal/httpx"
)

// A Source produces the price of 1 USD in the requested currency.
type Source interface {
    Name() string
    Rate(ctx context.Context, currency string) (float64, error)
}

// ExchangerateHost queries api.exchangerate.host, which nests rates under
// a "rates" object keyed by currency code.
type ExchangerateHost struct {
    URL    string // default https://api.exchangerate.host/latest
    Client *httpx.Client
}

func (s *ExchangerateHost) Name() string { return "exchangerate.host" }

func (s *ExchangerateHost) Rate(ctx context.Context, currency string) (float64, error) {
    base := s.URL
    if base == "" { base = "https://api.exchangerate.host/latest" }
    u := fmt.Sprintf("%s?base=USD&symbols=%s", base, url.QueryEscape(currency))
    var body struct {
        Rates map[string]float64 `json:"rates"`
    }
    if err := s.Client.GetJSON(ctx, u, &body); err != nil {
        return 0, err
    }
    rate, ok := body.Rates[currency]
    if !ok || rate <= 0 {
        return 0, fmt.Errorf("no %s rate in response", currency)
    }
    return rate, nil
}

// OpenERAPI queries open.er-api.com. Depending on plan the rates live under
// "conversion_rates" or "rates"; both are accepted.
type OpenERAPI struct {
    URL    string // default https://open.er-api.com/v6/latest/USD
    Client *httpx.Client
}

func (s *OpenERAPI) Name() string { return "open.er-api.com" }

func (s *OpenERAPI) Rate(ctx context.Context, currency string) (float64, error) {
    u := s.URL
    if u == "" { u = "https://open.er-api.com/v6/latest/USD" }
    var body struct {
        ConversionRates map[string]float64 `json:"conversion_rates"`
        Rates           map[string]float64 `json:"rates"`
    }
    if err := s.Client.GetJSON(ctx, u, &body); err != nil {
        return 0, err
    }
    rate, ok := body.ConversionRates[currency]
    if !ok {
        rate, ok = body.Rates[currency]
    }
    if !ok || rate <= 0 {
        return 0, fmt.Errorf("no %s rate in response", currency)
    }
    return rate, nil
}

// FMP queries Financial Modeling Prep, which returns an array of pair
// objects. It needs an API key, so it only joins the chain when one is
// configured.
type FMP struct {
    URL    string // default https://financialmodelingprep.com/api/v3/fx
    APIKey string
    Client *httpx.Client
}

func (s *FMP) Name() string { return "financialmodelingprep.com" }

func (s *FMP) Rate(ctx context.Context, currency string) (float64, error) {
    if s.APIKey == "" {
        return 0, fmt.Errorf("missing API key")
    }
    base := s.URL
    if base == "" { base = "https://financialmodelingprep.com/api/v3/fx" }
    u := fmt.Sprintf("%s/USD%s?apikey=%s", base, url.PathEscape(currency), url.QueryEscape(s.APIKey))
    var body []struct {
        Rate float64 `json:"rate"`
    }
    if err := s.Client.GetJSON(ctx, u, &body); err != nil {
        return 0, err
    }
    if len(body) == 0 || body[0].Rate <= 0 {
        return 0, fmt.Errorf("no USD%s rate in response", currency)
    }
    return body[0].Rate, nil
}
