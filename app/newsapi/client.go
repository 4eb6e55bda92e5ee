package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/anp-comb/app/cfg"
	"github.com/lysyi3m/anp-comb/app/ingest"
)

// APIError is a structured vendor error response (hasError envelope). It
// aborts the whole ingestion run.
type APIError struct {
	URL         string
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("error in GET '%s': ErrorCode: '%s'. Description: '%s'", e.URL, e.Code, e.Description)
}

// envelope is the common vendor response wrapper.
type envelope struct {
	HasError bool            `json:"hasError"`
	Data     json.RawMessage `json:"data"`
}

type vendorError struct {
	ErrorCode   string `json:"errorCode"`
	Description string `json:"description"`
}

// Client talks to the ANP News API for one provider.
type Client struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
}

func NewClient(provider *ingest.Config) *Client {
	timeout := provider.Settings.Timeout
	if timeout <= 0 {
		timeout = cfg.Get().HTTPTimeout
	}

	return &Client{
		baseURL:   strings.TrimSuffix(provider.URL, "/"),
		username:  strings.TrimSpace(provider.Username),
		password:  strings.TrimSpace(provider.Password),
		userAgent: cfg.Get().UserAgent,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// getURL does an HTTP GET and unwraps the vendor envelope. A hasError
// response becomes an *APIError.
func (c *Client) getURL(ctx context.Context, rawURL string, params url.Values) (json.RawMessage, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if env.HasError {
		var vendorErr vendorError
		if err := json.Unmarshal(env.Data, &vendorErr); err != nil {
			return nil, fmt.Errorf("failed to decode vendor error: %w", err)
		}
		return nil, &APIError{URL: rawURL, Code: vendorErr.ErrorCode, Description: vendorErr.Description}
	}

	return env.Data, nil
}

// Sources fetches the full vendor source list.
func (c *Client) Sources(ctx context.Context) ([]Source, error) {
	data, err := c.getURL(ctx, c.baseURL+"/services/sources", nil)
	if err != nil {
		return nil, err
	}

	var sources []Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w", err)
	}
	return sources, nil
}

// Items fetches item refs for a source, bounded by toItem when set. The
// vendor lists newest first; the result is reversed so callers process
// oldest-to-newest.
func (c *Client) Items(ctx context.Context, sourceID, toItem string) ([]ItemRef, error) {
	params := url.Values{}
	if toItem != "" {
		params.Set("toItem", toItem)
	}

	data, err := c.getURL(ctx, fmt.Sprintf("%s/services/sources/%s/items", c.baseURL, sourceID), params)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Items []ItemRef `json:"items"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode item listing: %w", err)
	}

	for i, j := 0, len(listing.Items)-1; i < j; i, j = i+1, j-1 {
		listing.Items[i], listing.Items[j] = listing.Items[j], listing.Items[i]
	}

	return listing.Items, nil
}

// ItemDetails fetches the full detail record for one item.
func (c *Client) ItemDetails(ctx context.Context, sourceID, itemID string) (*Article, error) {
	data, err := c.getURL(ctx, fmt.Sprintf("%s/services/sources/%s/items/%s", c.baseURL, sourceID, itemID), nil)
	if err != nil {
		return nil, err
	}

	var article Article
	if err := json.Unmarshal(data, &article); err != nil {
		return nil, fmt.Errorf("failed to decode item details: %w", err)
	}
	return &article, nil
}
