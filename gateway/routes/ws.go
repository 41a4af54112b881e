package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"rwaledger/core/events"
	"rwaledger/core/types"
	"rwaledger/integrations/eventlog"
)

const (
	wsWriteTimeout     = 10 * time.Second
	subscriberBuffer   = 256
	backlogReplayLimit = 1000
)

// Hub fans committed events out to websocket subscribers. Subscribers that
// fall behind are dropped rather than stalling the ledger.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	logger *slog.Logger
}

type subscriber struct {
	types map[string]struct{}
	ch    chan *types.Event
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[*subscriber]struct{}), logger: logger}
}

// Emit implements events.Emitter.
func (h *Hub) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if payload == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.wants(payload.Type) {
			continue
		}
		select {
		case sub.ch <- payload.Clone():
		default:
			h.logger.Warn("dropping slow event subscriber", "type", payload.Type, "sequence", payload.Sequence)
			delete(h.subs, sub)
			close(sub.ch)
		}
	}
}

// Subscribe registers a subscriber for the given event types. An empty list
// receives everything. The returned cancel func is idempotent.
func (h *Hub) Subscribe(eventTypes []string) (<-chan *types.Event, func()) {
	sub := &subscriber{ch: make(chan *types.Event, subscriberBuffer)}
	if len(eventTypes) > 0 {
		sub.types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			sub.types[t] = struct{}{}
		}
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

// Subscribers reports the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *subscriber) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

func (h *handlers) streamEvents(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	var eventTypes []string
	for _, raw := range strings.Split(r.URL.Query().Get("type"), ",") {
		if t := strings.TrimSpace(raw); t != "" {
			eventTypes = append(eventTypes, t)
		}
	}
	var after uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		filter, err := eventFilter(r)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		after = filter.AfterSequence
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	ctx := conn.CloseRead(r.Context())
	if err := h.stream(ctx, conn, eventTypes, after); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (h *handlers) stream(ctx context.Context, conn *websocket.Conn, eventTypes []string, after uint64) error {
	updates, cancel := h.hub.Subscribe(eventTypes)
	defer cancel()

	// Replay history once subscribed so nothing committed in between is lost.
	if after > 0 && h.index != nil {
		backlog, err := h.index.Query(ctx, eventlog.Filter{AfterSequence: after, Limit: backlogReplayLimit})
		if err != nil {
			return err
		}
		for _, evt := range backlog {
			if !matchesTypes(eventTypes, evt.Type) {
				after = evt.Sequence
				continue
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
			after = evt.Sequence
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return conn.Close(websocket.StatusTryAgainLater, "subscriber too slow")
			}
			if evt.Sequence <= after {
				continue
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func matchesTypes(eventTypes []string, eventType string) bool {
	if len(eventTypes) == 0 {
		return true
	}
	for _, t := range eventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt *types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
