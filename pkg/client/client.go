// Package client talks to the gateway's HTTP API and adapts it to the
// sources and services a page consumes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apiv1 "github.com/chromedash/chromedash/pkg/api/v1"
	"github.com/chromedash/chromedash/pkg/types"
)

const (
	defaultRequestTimeout = 30 * time.Second
	DefaultGatewayURL     = "http://localhost:8080"
)

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client is an HTTP client for the gateway
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewClient creates a client for the gateway at addr. addr may omit the
// scheme, in which case https is used for port 443 and http otherwise.
func NewClient(addr, authToken string) (*Client, error) {
	base, err := BaseURL(addr)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   base,
		authToken: authToken,
		http:      &http.Client{},
	}, nil
}

// BaseURL normalizes a gateway address into the API root.
func BaseURL(addr string) (string, error) {
	if addr == "" {
		addr = DefaultGatewayURL
	}
	if !strings.Contains(addr, "://") {
		scheme := "http"
		if NeedsTLS(addr) {
			scheme = "https"
		}
		addr = scheme + "://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid gateway address %q", addr)
	}
	return strings.TrimRight(u.String(), "/") + apiv1.HttpServerBaseRoute, nil
}

// NeedsTLS returns true if a scheme-less address should use https.
func NeedsTLS(addr string) bool {
	return strings.HasSuffix(addr, ":443")
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.authToken != ""
}

// withTimeout bounds a request with the default timeout
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultRequestTimeout)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do sends a request and decodes the envelope's data into out, which may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Health returns nil when the gateway answers its health check.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "unhealthy"}
	}
	return nil
}

func (c *Client) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	return c.SearchFeatures(ctx, "")
}

// SearchFeatures lists features matching a search string.
func (c *Client) SearchFeatures(ctx context.Context, q string) ([]*types.Feature, error) {
	path := "/features"
	if q != "" {
		path += "?q=" + url.QueryEscape(q)
	}

	var features []*types.Feature
	if err := c.do(ctx, http.MethodGet, path, nil, &features); err != nil {
		return nil, err
	}
	return features, nil
}

func (c *Client) GetFeature(ctx context.Context, id int64) (*types.Feature, error) {
	var f types.Feature
	err := c.do(ctx, http.MethodGet, "/features/"+strconv.FormatInt(id, 10), nil, &f)
	if IsStatus(err, http.StatusNotFound) {
		return nil, &types.ErrFeatureNotFound{Id: id}
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) ListVersions(ctx context.Context) ([]types.Version, error) {
	var versions []types.Version
	if err := c.do(ctx, http.MethodGet, "/versions", nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *Client) Legend(ctx context.Context) ([]types.View, error) {
	var views []types.View
	if err := c.do(ctx, http.MethodGet, "/legend", nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// ImportCatalog asks the gateway to import the catalog document at key.
func (c *Client) ImportCatalog(ctx context.Context, key string) (*apiv1.ImportResponse, error) {
	var res apiv1.ImportResponse
	if err := c.do(ctx, http.MethodPost, "/features/import", apiv1.CatalogRequest{Key: key}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExportCatalog asks the gateway to write its catalog to key.
func (c *Client) ExportCatalog(ctx context.Context, key string) (int, error) {
	var res map[string]int
	if err := c.do(ctx, http.MethodPost, "/features/export", apiv1.CatalogRequest{Key: key}, &res); err != nil {
		return 0, err
	}
	return res["exported"], nil
}

func (c *Client) GetStars(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := c.do(ctx, http.MethodGet, "/stars", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetStar stars or unstars a feature for the signed-in user.
func (c *Client) SetStar(ctx context.Context, id int64, starred bool) error {
	method := http.MethodPut
	if !starred {
		method = http.MethodDelete
	}
	return c.do(ctx, method, "/stars/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) ListSubscriptions(ctx context.Context) ([]string, error) {
	var topics []string
	if err := c.do(ctx, http.MethodGet, "/subscriptions", nil, &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) Subscribe(ctx context.Context, topic string) error {
	return c.do(ctx, http.MethodPut, "/subscriptions/"+url.PathEscape(topic), nil, nil)
}

func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(topic), nil, nil)
}

// Subscribers lists who subscribed to topic. Requires the admin token.
func (c *Client) Subscribers(ctx context.Context, topic string) ([]string, error) {
	var emails []string
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(topic)+"/subscribers", nil, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// RegisterServiceWorker records a registration for scope. An empty scope uses
// the gateway's default.
func (c *Client) RegisterServiceWorker(ctx context.Context, scope string) (*types.ServiceWorkerRegistration, error) {
	var body any
	if scope != "" {
		body = apiv1.RegisterServiceWorkerRequest{Scope: scope}
	}

	var reg types.ServiceWorkerRegistration
	if err := c.do(ctx, http.MethodPost, "/service-worker", body, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// CreateSession mints a session token for email. Needs the admin token.
func (c *Client) CreateSession(ctx context.Context, email string) (*apiv1.SessionResponse, error) {
	var res apiv1.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", apiv1.CreateSessionRequest{Email: email}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CurrentSession returns the identity behind the client's token.
func (c *Client) CurrentSession(ctx context.Context) (*apiv1.SessionResponse, error) {
	var res apiv1.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/sessions/current", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
