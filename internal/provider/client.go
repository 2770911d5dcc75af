// Package provider implements the HTTP client for the hosted identity and
// data provider. The provider owns accounts, sessions and the property
// table; this package only moves requests and normalizes errors.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"comunidad/internal/errors"
)

// Client talks to the provider's REST surface. A single instance is shared
// across the application; all methods are safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a provider client. The timeout bounds every round-trip so a
// provider hang cannot hold a caller indefinitely.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// newRequest builds a request with the API key attached. An empty
// accessToken leaves the Authorization header unset.
func (c *Client) newRequest(ctx context.Context, method, path string, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

// do executes the request and decodes a 2xx JSON body into out (out may be
// nil for empty responses). Non-2xx responses are normalized into the
// application error taxonomy.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewProviderError(0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewProviderError(resp.StatusCode, "malformed provider response: "+err.Error())
	}
	return nil
}

// errorBody covers the message shapes the provider uses across its auth and
// rest endpoints.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b errorBody) text() string {
	for _, m := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

// normalizeError maps known provider messages onto sentinel errors and
// passes everything else through verbatim.
func normalizeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body errorBody
	_ = json.Unmarshal(raw, &body)
	message := body.text()
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = resp.Status
	}

	switch {
	case strings.Contains(message, "Invalid login credentials"):
		return errors.ErrInvalidCredentials
	case strings.Contains(message, "Email not confirmed"):
		return errors.ErrEmailNotConfirmed
	case strings.Contains(strings.ToLower(message), "already registered"):
		return errors.ErrAlreadyRegistered
	default:
		return errors.NewProviderError(resp.StatusCode, message)
	}
}
