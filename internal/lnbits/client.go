package lnbits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client talks to the LNbits atmbitbit extension.
type Client struct {
	baseURL   *url.URL
	prefix    string
	http      *http.Client
	userAgent string
}

const (
	defaultServerURL     = "http://127.0.0.1:5000"
	DefaultExtensionPath = "/atmbitbit"
	defaultUserAgent     = "atmbitbit/0.1"
	requestTimeout       = 10 * time.Second
	maxErrorBody         = 64 * 1024
)

// NewClient builds a Client for the LNbits instance at serverURL. The
// extension prefix is prepended to every API path.
func NewClient(serverURL, extensionPath string) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		prefix:  normalizePrefix(extensionPath),
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// ListAtmBitBits lists the resources of the wallet owning adminKey, or of every
// wallet of its user when allWallets is set.
func (c *Client) ListAtmBitBits(ctx context.Context, adminKey string, allWallets bool) ([]AtmBitBit, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	path := "/api/v1/atmbitbits"
	if allWallets {
		values := url.Values{}
		values.Set("all_wallets", "true")
		path += "?" + values.Encode()
	}
	var payload []AtmBitBit
	if err := c.Request(ctx, http.MethodGet, path, adminKey, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetAtmBitBit retrieves a single resource.
func (c *Client) GetAtmBitBit(ctx context.Context, adminKey, id string) (AtmBitBit, error) {
	if c == nil {
		return AtmBitBit{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return AtmBitBit{}, fmt.Errorf("atmbitbit id required")
	}
	var payload AtmBitBit
	if err := c.Request(ctx, http.MethodGet, "/api/v1/atmbitbit/"+url.PathEscape(id), adminKey, nil, &payload); err != nil {
		return AtmBitBit{}, err
	}
	return payload, nil
}

// CreateAtmBitBit creates a resource under the wallet owning adminKey.
func (c *Client) CreateAtmBitBit(ctx context.Context, adminKey string, input AtmBitBitInput) (AtmBitBit, error) {
	if c == nil {
		return AtmBitBit{}, fmt.Errorf("client is nil")
	}
	var payload AtmBitBit
	if err := c.Request(ctx, http.MethodPost, "/api/v1/atmbitbit", adminKey, input, &payload); err != nil {
		return AtmBitBit{}, err
	}
	return payload, nil
}

// UpdateAtmBitBit replaces the editable fields of a resource.
func (c *Client) UpdateAtmBitBit(ctx context.Context, adminKey, id string, input AtmBitBitInput) (AtmBitBit, error) {
	if c == nil {
		return AtmBitBit{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return AtmBitBit{}, fmt.Errorf("atmbitbit id required")
	}
	var payload AtmBitBit
	if err := c.Request(ctx, http.MethodPut, "/api/v1/atmbitbit/"+url.PathEscape(id), adminKey, input, &payload); err != nil {
		return AtmBitBit{}, err
	}
	return payload, nil
}

// DeleteAtmBitBit removes a resource. The response body is ignored.
func (c *Client) DeleteAtmBitBit(ctx context.Context, adminKey, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("atmbitbit id required")
	}
	return c.Request(ctx, http.MethodDelete, "/api/v1/atmbitbit/"+url.PathEscape(id), adminKey, nil, nil)
}

// Request performs an authenticated call against path (relative to the
// extension prefix, query string allowed). body is JSON-encoded when non-nil
// and the response is decoded into dest when dest is non-nil.
func (c *Client) Request(ctx context.Context, method, path, adminKey string, body, dest any) error {
	rel, err := url.Parse(c.prefix + path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if adminKey != "" {
		req.Header.Set("X-Api-Key", adminKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", rel.Path).Str("request_id", requestID).Msg("lnbits request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().
		Str("method", method).
		Str("path", rel.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Str("request_id", requestID).
		Msg("lnbits request")

	if resp.StatusCode >= 400 {
		return &APIError{
			Method:  method,
			Path:    rel.Path,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp.Body),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var envelope errorBody
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}
		// Validation errors carry a list of objects; keep them verbatim.
		return strings.TrimSpace(string(envelope.Detail))
	}
	return strings.TrimSpace(string(raw))
}

func normalizePrefix(prefix string) string {
	trimmed := strings.Trim(strings.TrimSpace(prefix), "/")
	if trimmed == "" {
		trimmed = strings.Trim(DefaultExtensionPath, "/")
	}
	return "/" + trimmed
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server_url %q: %w", serverURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server_url %q: missing host", serverURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
