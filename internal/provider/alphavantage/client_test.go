package alphavantage_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	alphavantage "marketdash/internal/provider/alphavantage"
)

func TestNewAlphaVantageAPIClient(t *testing.T) {
	t.Parallel()

	// Assert: a valid key should return a client.
	client, err := alphavantage.NewAlphaVantageAPIClient("test")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"Global Quote": map[string]any{
					"01. symbol": "AAPL",
					"05. price":  "211.16",
				},
			}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with a custom HTTP client.
	client, err := alphavantage.NewAlphaVantageAPIClient("test", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetGlobalQuote with the custom HTTP client.
	quote, err := client.GetGlobalQuote(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", quote.Symbol)
	require.InDelta(t, 211.16, quote.Price, 1e-9)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"Global Quote": map[string]any{"01. symbol": "MSFT", "05. price": "1.00"},
			}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := alphavantage.NewAlphaVantageAPIClient("test", alphavantage.WithHTTPClient(httpClient), alphavantage.WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetGlobalQuote with the overridden base URL.
	client.GetGlobalQuote(t.Context(), "MSFT")
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"Global Quote": map[string]any{"01. symbol": "MSFT", "05. price": "1.00"},
			}))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with a custom header.
	client, err := alphavantage.NewAlphaVantageAPIClient("test", alphavantage.WithHTTPClient(httpClient), alphavantage.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call GetGlobalQuote with the custom header.
	client.GetGlobalQuote(t.Context(), "MSFT")
}

func TestGetGlobalQuote_UpstreamNote(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// The API signals rate limiting inside a 200 body.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{
				"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute",
			}))
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(buffer)}, nil
		}).
		Times(1)

	client, err := alphavantage.NewAlphaVantageAPIClient("test", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.GetGlobalQuote(t.Context(), "AAPL")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
}

func TestGlobalQuote_ChangePercentValue(t *testing.T) {
	t.Parallel()

	g := alphavantage.GlobalQuote{ChangePercent: "-0.7581%"}
	v, err := g.ChangePercentValue()
	require.NoError(t, err)
	require.InDelta(t, -0.7581, v, 1e-9)

	g = alphavantage.GlobalQuote{ChangePercent: ""}
	_, err = g.ChangePercentValue()
	require.Error(t, err)
}
