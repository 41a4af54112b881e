package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rwaledger/core/events"
	"rwaledger/core/types"
)

func committed(seq uint64, kind string) events.Committed {
	return events.Committed{Payload: &types.Event{
		Type:       kind,
		Sequence:   seq,
		Timestamp:  1_700_000_000,
		Attributes: map[string]string{"assetId": "1"},
	}}
}

func TestDispatcherSignsPayload(t *testing.T) {
	secret := []byte("secret")
	var (
		mu        sync.Mutex
		signature string
		body      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		signature = r.Header.Get(SignatureHeader)
		body = raw
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, secret)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer dispatcher.Close()

	dispatcher.Emit(committed(4, "rwa.investment"))
	waitFor(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return signature != ""
	}, time.Second)

	mu.Lock()
	defer mu.Unlock()
	if !Verify(secret, body, signature) {
		t.Fatalf("signature %q does not verify", signature)
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Sequence != 4 || payload.Type != "rwa.investment" || payload.DeliveryID == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDispatcherRetries(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithRetryPolicy(5, 10*time.Millisecond, 20*time.Millisecond))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	defer dispatcher.Close()

	dispatcher.Emit(committed(1, "rwa.transfer"))
	waitFor(func() bool { return atomic.LoadInt32(&attempts) >= 3 }, time.Second)
	if got := atomic.LoadInt32(&attempts); got < 3 {
		t.Fatalf("expected at least 3 attempts, got %d", got)
	}
}

func TestDispatcherFiltersEventTypes(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	dispatcher, err := NewDispatcher(server.URL, []byte("secret"), WithEventTypes("rwa.distribution_created"))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	dispatcher.Emit(committed(1, "rwa.transfer"))
	dispatcher.Emit(committed(2, "rwa.distribution_created"))
	waitFor(func() bool { return received.Load() >= 1 }, time.Second)
	dispatcher.Close()
	if got := received.Load(); got != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got)
	}
}

func TestNewDispatcherValidates(t *testing.T) {
	if _, err := NewDispatcher("", []byte("s")); err == nil {
		t.Fatalf("expected endpoint error")
	}
	if _, err := NewDispatcher("http://localhost", nil); err == nil {
		t.Fatalf("expected secret error")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(20*time.Second, 30*time.Second); got != 30*time.Second {
		t.Fatalf("expected cap, got %s", got)
	}
	if got := nextBackoff(2*time.Second, 30*time.Second); got != 4*time.Second {
		t.Fatalf("expected doubling, got %s", got)
	}
}

func waitFor(cond func() bool, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}
