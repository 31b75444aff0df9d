package venom

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// APIClient is the minimal HTTP capability actions call (spec.md §6.2). The
// concrete implementation lives in the apiclient subpackage; this interface
// is what the engine and action bodies depend on, grounded on the teacher's
// graph/tool.Tool one-capability-interface pattern.
type APIClient interface {
	Get(path string, opts ...RequestOption) (*Response, error)
	Post(path string, body any, opts ...RequestOption) (*Response, error)
	Put(path string, body any, opts ...RequestOption) (*Response, error)
	Patch(path string, body any, opts ...RequestOption) (*Response, error)
	Delete(path string, opts ...RequestOption) (*Response, error)

	// WithHeaders returns a client that merges headers into every request it
	// makes, without mutating the receiver.
	WithHeaders(headers map[string]string) APIClient

	// WithRole returns a client configured for a named auth role (spec.md
	// §6.1, "multi-role auth configuration"), without mutating the receiver.
	WithRole(role string) APIClient
}

// RequestOption customizes one request's query parameters or headers.
type RequestOption func(*RequestConfig)

// RequestConfig accumulates the effect of a request's RequestOptions.
type RequestConfig struct {
	Query   map[string]string
	Headers map[string]string
}

// WithQuery attaches query parameters to a single request.
func WithQuery(q map[string]string) RequestOption {
	return func(c *RequestConfig) {
		if c.Query == nil {
			c.Query = make(map[string]string, len(q))
		}
		for k, v := range q {
			c.Query[k] = v
		}
	}
}

// WithHeader attaches one header override to a single request.
func WithHeader(key, value string) RequestOption {
	return func(c *RequestConfig) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

// NewRequestConfig applies opts in order and returns the resulting config.
func NewRequestConfig(opts ...RequestOption) RequestConfig {
	var c RequestConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Response is what every APIClient method returns, on both success and
// transport failure. On transport failure StatusCode is 0, Headers and Body
// are nil/empty, and Err is set — callers never receive a panic or a raised
// error from the client itself (spec.md §6.2).
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	Err        error
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if r.Body == nil {
		return fmt.Errorf("venom: empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Field queries the response body at a dotted gjson path, e.g.
// "items.0.id" or "data.user.email".
func (r *Response) Field(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// ExpectStatus returns an *ActionAssertionError if StatusCode is not among
// codes. actionName is attached for the resulting violation's context.
func (r *Response) ExpectStatus(actionName string, codes ...int) error {
	for _, c := range codes {
		if r.StatusCode == c {
			return nil
		}
	}
	return &ActionAssertionError{
		ActionName: actionName,
		Message:    fmt.Sprintf("expected status in %v, got %d", codes, r.StatusCode),
	}
}

// ExpectJSONField returns an *ActionAssertionError if the gjson path does
// not exist, or exists but does not equal want (when want is non-nil).
func (r *Response) ExpectJSONField(actionName, path string, want any) error {
	result := r.Field(path)
	if !result.Exists() {
		return &ActionAssertionError{
			ActionName: actionName,
			Message:    fmt.Sprintf("expected JSON field %q to exist", path),
		}
	}
	if want == nil {
		return nil
	}
	if fmt.Sprintf("%v", result.Value()) != fmt.Sprintf("%v", want) {
		return &ActionAssertionError{
			ActionName: actionName,
			Message:    fmt.Sprintf("expected JSON field %q to equal %v, got %v", path, want, result.Value()),
		}
	}
	return nil
}
