package apiclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/venomqa/venomqa"
)

func TestClientGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("expected limit=5 query param, got %q", r.URL.Query().Get("limit"))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Get("/items", venom.WithQuery(map[string]string{"limit": "5"}))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}
	if got := resp.Field("items.0.id").Int(); got != 1 {
		t.Fatalf("items.0.id = %d, want 1", got)
	}
}

func TestClientTransportFailureIsSafeDefault(t *testing.T) {
	c := New("http://127.0.0.1:1")
	resp, err := c.Get("/unreachable")
	if err != nil {
		t.Fatalf("expected no Go error on transport failure, got %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("expected status 0 on transport failure, got %d", resp.StatusCode)
	}
	if resp.Err == nil {
		t.Fatal("expected resp.Err to be set on transport failure")
	}
}

func TestClientWithHeadersDoesNotMutateReceiver(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Test")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := New(srv.URL)
	withHeader := base.WithHeaders(map[string]string{"X-Test": "yes"})

	if _, err := base.Get("/ping"); err != nil {
		t.Fatalf("base Get failed: %v", err)
	}
	if seen != "" {
		t.Fatalf("base client leaked header override: %q", seen)
	}

	if _, err := withHeader.Get("/ping"); err != nil {
		t.Fatalf("withHeader Get failed: %v", err)
	}
	if seen != "yes" {
		t.Fatalf("expected header override to apply, got %q", seen)
	}
}

func TestClientExpectStatus(t *testing.T) {
	resp := &venom.Response{StatusCode: 404}
	if err := resp.ExpectStatus("get_item", 200, 201); err == nil {
		t.Fatal("expected ExpectStatus to fail for 404 against [200, 201]")
	}
	if err := resp.ExpectStatus("get_item", 404); err != nil {
		t.Fatalf("expected ExpectStatus to pass for matching code: %v", err)
	}
}
