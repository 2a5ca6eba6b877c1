// Package apiclient is the JSON-over-HTTP transport shared by the catalog,
// cart and auth clients.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout        = 30 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second
)

// ObserveFunc receives one call per finished request. status is 0 when the
// transport failed before a response arrived.
type ObserveFunc func(method, route string, status int, elapsed time.Duration)

type Client struct {
	base    string
	http    *http.Client
	observe ObserveFunc
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.http.Jar = jar }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func WithObserver(fn ObserveFunc) Option {
	return func(c *Client) { c.observe = fn }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base url %q must be http or https", baseURL)
	}

	c := &Client{
		base:    strings.TrimRight(u.String(), "/"),
		http:    defaultClient(),
		observe: func(string, string, int, time.Duration) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func defaultClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHTTPConnectTimeout,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHTTPTLSTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHTTPTimeout,
	}
}

// StreamingHTTPClient shares transport and cookies with c but has no overall
// timeout, for long-lived responses.
func (c *Client) StreamingHTTPClient() *http.Client {
	h := *c.http
	h.Timeout = 0
	return &h
}

// URL expands route with params and prefixes the base URL.
func (c *Client) URL(route string, params ...string) string {
	return c.base + Expand(route, params...)
}

// Do sends body (JSON, omitted when nil) to route and decodes a 2xx
// response into out (skipped when nil or the body is empty). Non-2xx
// responses come back as *StatusError; transport failures wrap ErrNetwork.
func (c *Client) Do(ctx context.Context, method, route string, body, out any, params ...string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, route, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(route, params...), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, route, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, route, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.observe(method, route, resp.StatusCode, time.Since(start))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrNetwork, method, route, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewStatusError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, route, err)
	}
	return nil
}

func Get[R any](ctx context.Context, c *Client, route string, params ...string) (R, error) {
	var out R
	if err := c.Do(ctx, http.MethodGet, route, nil, &out, params...); err != nil {
		var empty R
		return empty, err
	}
	return out, nil
}

func Send[R any](ctx context.Context, c *Client, method, route string, body any, params ...string) (R, error) {
	var out R
	if err := c.Do(ctx, method, route, body, &out, params...); err != nil {
		var empty R
		return empty, err
	}
	return out, nil
}

// Expand substitutes each {placeholder} in route with the next param,
// path-escaped. Placeholders without a param are left untouched.
func Expand(route string, params ...string) string {
	if len(params) == 0 {
		return route
	}
	var b strings.Builder
	rest := route
	for _, p := range params {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			break
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(p))
		rest = rest[open+closing+1:]
	}
	b.WriteString(rest)
	return b.String()
}
