package apiclient

import (
	"sync"

	"github.com/venomqa/venomqa"
)

// MockCall records one invocation made against a MockClient, grounded on
// the teacher's MockTool.Calls recording idiom.
type MockCall struct {
	Method string
	Path   string
	Body   any
	Config venom.RequestConfig
}

// MockClient is a call-recording venom.APIClient test double. Responses are
// consumed in FIFO order per method+path key; if none remain for a key, the
// last registered response for that key is reused, and if none was ever
// registered a default 200 empty response is returned.
type MockClient struct {
	mu        sync.Mutex
	responses map[string][]*venom.Response
	Calls     []MockCall
	role      string
}

// NewMockClient returns an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{responses: make(map[string][]*venom.Response)}
}

// QueueResponse appends resp to the queue returned for method+path.
func (m *MockClient) QueueResponse(method, path string, resp *venom.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + path
	m.responses[key] = append(m.responses[key], resp)
}

func (m *MockClient) WithHeaders(map[string]string) venom.APIClient { return m }

func (m *MockClient) WithRole(role string) venom.APIClient {
	return &MockClient{responses: m.responses, role: role}
}

func (m *MockClient) Get(path string, opts ...venom.RequestOption) (*venom.Response, error) {
	return m.call("GET", path, nil, opts...)
}

func (m *MockClient) Post(path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	return m.call("POST", path, body, opts...)
}

func (m *MockClient) Put(path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	return m.call("PUT", path, body, opts...)
}

func (m *MockClient) Patch(path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	return m.call("PATCH", path, body, opts...)
}

func (m *MockClient) Delete(path string, opts ...venom.RequestOption) (*venom.Response, error) {
	return m.call("DELETE", path, nil, opts...)
}

func (m *MockClient) call(method, path string, body any, opts ...venom.RequestOption) (*venom.Response, error) {
	cfg := venom.NewRequestConfig(opts...)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: method, Path: path, Body: body, Config: cfg})

	key := method + " " + path
	queue := m.responses[key]
	if len(queue) == 0 {
		return &venom.Response{StatusCode: 200, Headers: map[string][]string{}, Body: []byte("{}")}, nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		m.responses[key] = queue[1:]
	} // else: keep reusing the last queued response for this key
	return resp, nil
}
