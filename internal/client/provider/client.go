package provider

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

const (
	DefaultAlphaVantageURL = "https://www.alphavantage.co"
	DefaultFinnhubURL      = "https://finnhub.io"

	maxBodyBytes = 8 << 20
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=provider_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Keys holds the API key of every provider.
type Keys struct {
	AlphaVantage string
	Finnhub      string
}

// Client fetches raw JSON documents from the market data providers.
type Client struct {
	// httpClient performs the requests.
	httpClient HTTPClient
	// alphaVantageURL and finnhubURL are the API base URLs.
	alphaVantageURL string
	finnhubURL      string
	keys            Keys
	userAgent       string
}

// ClientOption is a configuration option for the provider client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAlphaVantageURL overrides the Alpha Vantage base URL.
func WithAlphaVantageURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.alphaVantageURL = strings.TrimRight(baseURL, "/")
	}
}

// WithFinnhubURL overrides the Finnhub base URL.
func WithFinnhubURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.finnhubURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func NewClient(keys Keys, options ...ClientOption) *Client {
	c := &Client{
		httpClient:      http.DefaultClient,
		alphaVantageURL: DefaultAlphaVantageURL,
		finnhubURL:      DefaultFinnhubURL,
		keys:            keys,
		userAgent:       "finboard/1.0",
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// NewHTTPClient returns an http.Client with a pooled transport and short
// connect timeouts, suited to polling many small JSON endpoints.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Fetch performs one provider call and decodes the body into an
// order-preserving document.
func (c *Client) Fetch(ctx context.Context, req dto.FetchRequest) (binding.Value, error) {
	var (
		u     string
		check func(binding.Value) error
	)
	switch req.Provider {
	case dto.ProviderAlphaVantage:
		u, check = c.alphaVantageURLFor(req), checkAlphaVantage
	case dto.ProviderFinnhub:
		u, check = c.finnhubURLFor(req), checkFinnhub
	default:
		return binding.Value{}, errs.NewValidationError(fmt.Sprintf("unknown provider %q", req.Provider))
	}
	if req.Endpoint == "" {
		return binding.Value{}, errs.NewValidationError("endpoint is required")
	}

	log := logger.FromContext(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return binding.Value{}, errs.NewValidationError(fmt.Sprintf("invalid request: %v", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return binding.Value{}, errs.NewExternalServiceError(req.Provider, "request failed", true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return binding.Value{}, errs.NewExternalServiceError(req.Provider, "failed to read response", true, err)
	}
	log.Debug("provider response",
		"provider", req.Provider,
		"endpoint", req.Endpoint,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return binding.Value{}, errs.NewExternalServiceError(req.Provider,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), transient, nil)
	}

	doc, err := binding.Parse(body)
	if err != nil {
		return binding.Value{}, errs.NewExternalServiceError(req.Provider, "invalid JSON response", false, err)
	}
	if err := check(doc); err != nil {
		return binding.Value{}, err
	}
	return doc, nil
}

func (c *Client) alphaVantageURLFor(req dto.FetchRequest) string {
	q := encodeParams(req.Params)
	q.Set("function", req.Endpoint)
	if c.keys.AlphaVantage != "" {
		q.Set("apikey", c.keys.AlphaVantage)
	}
	return c.alphaVantageURL + "/query?" + q.Encode()
}

func (c *Client) finnhubURLFor(req dto.FetchRequest) string {
	endpoint := req.Endpoint
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	q := encodeParams(req.Params)
	if c.keys.Finnhub != "" {
		q.Set("token", c.keys.Finnhub)
	}
	u := c.finnhubURL + "/api/v1" + endpoint
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// encodeParams turns widget params into query values. Scalars are written
// plainly, arrays and objects as compact JSON, and nulls are dropped.
func encodeParams(params map[string]any) url.Values {
	q := url.Values{}
	for k, v := range params {
		val := binding.FromAny(v)
		if val.IsNull() || val.IsAbsent() {
			continue
		}
		q.Set(k, binding.Text(val))
	}
	return q
}

// Alpha Vantage reports errors and throttling with HTTP 200.
func checkAlphaVantage(doc binding.Value) error {
	if msg, ok := doc.Get("Error Message").Text(); ok {
		return errs.NewExternalServiceError(dto.ProviderAlphaVantage, msg, false, nil)
	}
	for _, k := range []string{"Note", "Information"} {
		if msg, ok := doc.Get(k).Text(); ok {
			return errs.NewExternalServiceError(dto.ProviderAlphaVantage, msg, true, nil)
		}
	}
	return nil
}

func checkFinnhub(doc binding.Value) error {
	if msg, ok := doc.Get("error").Text(); ok {
		return errs.NewExternalServiceError(dto.ProviderFinnhub, msg, false, nil)
	}
	return nil
}
