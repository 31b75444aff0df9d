package apiclient

import (
	"testing"

	"github.com/venomqa/venomqa"
)

func TestMockClientRecordsCalls(t *testing.T) {
	m := NewMockClient()
	m.QueueResponse("POST", "/charges", &venom.Response{StatusCode: 201, Body: []byte(`{"id":"ch_1"}`)})

	resp, err := m.Post("/charges", map[string]any{"amount": 100})
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("got status %d, want 201", resp.StatusCode)
	}
	if len(m.Calls) != 1 {
		t.Fatalf("got %d recorded calls, want 1", len(m.Calls))
	}
	if m.Calls[0].Method != "POST" || m.Calls[0].Path != "/charges" {
		t.Fatalf("unexpected recorded call: %+v", m.Calls[0])
	}
}

func TestMockClientDefaultsWhenUnqueued(t *testing.T) {
	m := NewMockClient()
	resp, err := m.Get("/anything")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("got status %d, want default 200", resp.StatusCode)
	}
}

func TestMockClientReusesLastQueuedResponse(t *testing.T) {
	m := NewMockClient()
	m.QueueResponse("GET", "/n", &venom.Response{StatusCode: 200, Body: []byte(`{"n":1}`)})

	first, _ := m.Get("/n")
	second, _ := m.Get("/n")
	if first.Field("n").Int() != 1 || second.Field("n").Int() != 1 {
		t.Fatalf("expected last queued response to repeat, got %s then %s", first.Text(), second.Text())
	}
}
