package quoting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"insurance-chatbot/internal/domain"
)

// quoteRequest is the payload shape shared by the preview and create calls.
type quoteRequest struct {
	Line       string         `json:"line"`
	Attributes map[string]any `json:"attributes"`
}

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx backend responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("quoting: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused client for the quoting backend. Calls are bounded by
// the HTTP client timeout; a timed-out or failed call is reported, never
// retried here.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client for the backend at baseURL, backed by the
// given paramstore.Getter for API token retrieval. The token is fetched from
// SSM on the first call and reused for the lifetime of the process.
func NewClient(baseURL string, ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("quoting: base URL must not be empty")
	}
	if ps == nil {
		return nil, errors.New("quoting: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("quoting: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Preview computes a quote preview for the collected attributes.
func (c *Client) Preview(ctx context.Context, line domain.Intent, attributes map[string]any) (*domain.QuotePreview, error) {
	raw, err := c.postJSON(ctx, c.baseURL+"/api/quotes/preview", quoteRequest{
		Line:       string(line),
		Attributes: attributes,
	})
	if err != nil {
		return nil, fmt.Errorf("quoting: preview request failed: %w", err)
	}
	var preview domain.QuotePreview
	if decErr := json.Unmarshal(raw, &preview); decErr != nil {
		return nil, fmt.Errorf("quoting: decode preview response: %w", decErr)
	}
	return &preview, nil
}

// Create asks the backend to persist the quotation and email it to the
// customer. A missing or false ok flag in the body is reported as a failed
// receipt, not a transport error, so the caller can surface the backend's
// own message.
func (c *Client) Create(ctx context.Context, line domain.Intent, attributes map[string]any) (domain.QuoteReceipt, error) {
	raw, err := c.postJSON(ctx, c.baseURL+"/api/quotes", quoteRequest{
		Line:       string(line),
		Attributes: attributes,
	})
	if err != nil {
		return domain.QuoteReceipt{}, fmt.Errorf("quoting: create request failed: %w", err)
	}
	var receipt domain.QuoteReceipt
	if decErr := json.Unmarshal(raw, &receipt); decErr != nil {
		return domain.QuoteReceipt{}, fmt.Errorf("quoting: decode create response: %w", decErr)
	}
	return receipt, nil
}

// resolveAPIKey fetches the token from SSM on the first call and returns the
// cached result on every subsequent call within the same process lifetime.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = fetchAPIKeyFromParamStore(ctx, c.getter, c.tokenParameterName())
	})
	return c.apiKey, c.keyErr
}

func (c *Client) tokenParameterName() string {
	return c.paramPrefix + "/backend-api-token"
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("quoting: paramstore getter is nil")
	}
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("quoting: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("quoting: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", errors.New("quoting: API token is empty")
	}
	return tp.Token, nil
}
