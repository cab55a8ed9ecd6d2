// Package client talks to a varstore server over its plain-text protocol.
//
//	c := client.New("http://127.0.0.1:8080", "token")
//	if err := c.Set(ctx, "greeting", "string", "hello"); err != nil { ... }
//	data, err := c.Get(ctx, "greeting")
//
// Sentinel response bodies are mapped back to errors. Because the protocol
// is text-only, a variable whose data is literally "failed" cannot be told
// apart from a missing one.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/varstore/internal/httpc"
	"github.com/loykin/varstore/internal/value"
	"github.com/tidwall/gjson"
)

var (
	ErrNoAccess          = errors.New("varstore: no access")
	ErrMissingParameters = errors.New("varstore: missing parameters")
	ErrFailed            = errors.New("varstore: operation failed")
)

// Variable mirrors the object returned by /get_object.
type Variable struct {
	Name string
	Type string
	Data string
}

type Client struct {
	http  *resty.Client
	token string
}

// Option customizes a Client.
type Option func(*httpc.Httpc)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *httpc.Httpc) { h.Timeout = d }
}

// WithTLSConfig sets the TLS configuration for https servers.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(h *httpc.Httpc) { h.TlsConfig = cfg }
}

// New returns a client for baseURL. An empty token sends no auth_token.
func New(baseURL, token string, opts ...Option) *Client {
	h := &httpc.Httpc{BaseURL: strings.TrimRight(baseURL, "/")}
	for _, o := range opts {
		o(h)
	}
	return &Client{http: h.New(), token: token}
}

func (c *Client) call(ctx context.Context, route string, params map[string]string) (string, error) {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetQueryParam("auth_token", c.token)
	}
	req.SetQueryParams(params)

	resp, err := req.Get(route)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", route, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("GET %s: unexpected status %d", route, resp.StatusCode())
	}

	body := resp.String()
	switch body {
	case "no_access":
		return "", ErrNoAccess
	case "missing_parameters":
		return "", ErrMissingParameters
	}
	return body, nil
}

// callValue is call for routes where "failed" means the name is unknown.
func (c *Client) callValue(ctx context.Context, route string, params map[string]string) (string, error) {
	body, err := c.call(ctx, route, params)
	if err != nil {
		return "", err
	}
	if body == "failed" {
		return "", ErrFailed
	}
	return body, nil
}

// Get returns the data of name.
func (c *Client) Get(ctx context.Context, name string) (string, error) {
	return c.callValue(ctx, "/get", map[string]string{"name": name})
}

// GetType returns the type of name.
func (c *Client) GetType(ctx context.Context, name string) (string, error) {
	return c.callValue(ctx, "/get_type", map[string]string{"name": name})
}

// GetObject returns the full variable.
func (c *Client) GetObject(ctx context.Context, name string) (Variable, error) {
	body, err := c.callValue(ctx, "/get_object", map[string]string{"name": name})
	if err != nil {
		return Variable{}, err
	}
	v := value.Parse([]byte(body))
	if v == (value.Value{}) && gjson.Get(body, "name").Type != gjson.String {
		return Variable{}, fmt.Errorf("get_object: malformed body %q", body)
	}
	return Variable{Name: v.Name, Type: v.Type, Data: v.Data}, nil
}

// Exists reports whether name is stored.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	body, err := c.call(ctx, "/exists", map[string]string{"name": name})
	if err != nil {
		return false, err
	}
	switch body {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("exists: unexpected body %q", body)
	}
}

// Set creates name, or updates its data when typ differs from the stored
// type. ErrFailed means the server rejected the update.
func (c *Client) Set(ctx context.Context, name, typ, data string) error {
	return c.expectSuccess(ctx, "/set", map[string]string{"name": name, "type": typ, "data": data})
}

// Remove deletes name. ErrFailed means it did not exist.
func (c *Client) Remove(ctx context.Context, name string) error {
	return c.expectSuccess(ctx, "/remove", map[string]string{"name": name})
}

func (c *Client) expectSuccess(ctx context.Context, route string, params map[string]string) error {
	body, err := c.call(ctx, route, params)
	if err != nil {
		return err
	}
	if body != "success" {
		return ErrFailed
	}
	return nil
}

// List returns every stored name; nil for an empty store.
func (c *Client) List(ctx context.Context) ([]string, error) {
	body, err := c.call(ctx, "/list", nil)
	if err != nil {
		return nil, err
	}
	if body == "empty" {
		return nil, nil
	}
	var names []string
	for _, line := range strings.Split(body, "\n") {
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
