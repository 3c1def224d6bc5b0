package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"strings"
)

const baseURL = "https://www.alphavantage.co"

// GlobalQuote is the parsed GLOBAL_QUOTE payload. Alpha Vantage prefixes
// every key with a two-digit ordinal and serializes numbers as strings.
type GlobalQuote struct {
	Symbol           string  `json:"01. symbol"`
	Open             float64 `json:"02. open,string"`
	High             float64 `json:"03. high,string"`
	Low              float64 `json:"04. low,string"`
	Price            float64 `json:"05. price,string"`
	Volume           uint64  `json:"06. volume,string"`
	LatestTradingDay string  `json:"07. latest trading day"`
	PreviousClose    float64 `json:"08. previous close,string"`
	Change           float64 `json:"09. change,string"`
	ChangePercent    string  `json:"10. change percent"`
}

type globalQuoteResponse struct {
	GlobalQuote  *GlobalQuote `json:"Global Quote"`
	Note         string       `json:"Note"`
	ErrorMessage string       `json:"Error Message"`
	Information  string       `json:"Information"`
}

// ChangePercentValue strips the trailing '%' and parses the signed number.
func (g GlobalQuote) ChangePercentValue() (float64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(g.ChangePercent), "%")
	if s == "" {
		return 0, fmt.Errorf("empty change percent")
	}
	return strconv.ParseFloat(s, 64)
}

// GetGlobalQuote retrieves the GLOBAL_QUOTE document for a symbol.
func (c *AlphaVantageAPIClient) GetGlobalQuote(ctx context.Context, symbol string, opts ...AlphaVantageAPIClientOption) (GlobalQuote, error) {
	var override = &AlphaVantageAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Add("function", "GLOBAL_QUOTE")
	query.Add("symbol", symbol)

	url := fmt.Sprintf("%s/query?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return GlobalQuote{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return GlobalQuote{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusForbidden:
		return GlobalQuote{}, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return GlobalQuote{}, fmt.Errorf("rate limited")

	default:
		return GlobalQuote{}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body globalQuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return GlobalQuote{}, fmt.Errorf("decoding global quote response: %w", err)
	}

	// The API reports rate limits and bad symbols inside a 200 body.
	if body.Note != "" {
		return GlobalQuote{}, fmt.Errorf("rate limit or note: %s", body.Note)
	}
	if body.ErrorMessage != "" {
		return GlobalQuote{}, fmt.Errorf("upstream error: %s", body.ErrorMessage)
	}
	if body.Information != "" {
		return GlobalQuote{}, fmt.Errorf("upstream notice: %s", body.Information)
	}
	if body.GlobalQuote == nil {
		return GlobalQuote{}, fmt.Errorf("missing Global Quote object")
	}
	return *body.GlobalQuote, nil
}
