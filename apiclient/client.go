// Package apiclient provides the concrete net/http-backed implementation of
// the venom.APIClient capability, plus a call-recording test double.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/venomqa/venomqa"
)

// Client is a venom.APIClient backed by net/http, grounded on the teacher's
// HTTPTool but widened from GET/POST-only to the full REST-verb surface
// spec.md §6.2 requires.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	role       string
}

// New constructs a Client targeting baseURL.
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    map[string]string{},
	}
}

// WithHeaders returns a copy of c that merges headers into every request it
// makes, without mutating the receiver.
func (c *Client) WithHeaders(headers map[string]string) venom.APIClient {
	merged := make(map[string]string, len(c.headers)+len(headers))
	for k, v := range c.headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	return &Client{httpClient: c.httpClient, baseURL: c.baseURL, headers: merged, role: c.role}
}

// WithRole returns a copy of c tagged with a named auth role. The role is
// only stored on the copy: this client does not interpret role names, adds
// no header for them, and exposes no accessor for the stored role. Role
// credentials have to be supplied through WithHeaders.
func (c *Client) WithRole(role string) venom.APIClient {
	return &Client{httpClient: c.httpClient, baseURL: c.baseURL, headers: c.headers, role: role}
}

func (c *Client) Get(path string, opts ...venom.RequestOption) (*venom.Response, error) {
	return c.do(http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	return c.do(http.MethodPost, path, body, opts...)
}

func (c *Client) Put(path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	return c.do(http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	return c.do(http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(path string, opts ...venom.RequestOption) (*venom.Response, error) {
	return c.do(http.MethodDelete, path, nil, opts...)
}

// do executes one request. On transport failure it returns a Response with
// StatusCode 0, empty Headers, and Err set, rather than returning an error —
// matching spec.md §6.2's "safe defaults rather than raising" contract. The
// error return exists only for request-construction failures (a malformed
// path or unmarshalable body), which indicate a bug in the caller, not a
// transport condition the exploration should observe.
func (c *Client) do(method, path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	cfg := venom.NewRequestConfig(opts...)

	fullURL := c.baseURL + path
	if len(cfg.Query) > 0 {
		q := url.Values{}
		for k, v := range cfg.Query {
			q.Set(k, v)
		}
		fullURL += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &venom.Response{Err: err}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &venom.Response{Err: err}, nil
	}

	return &venom.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}
