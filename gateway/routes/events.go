package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"rwaledger/core/types"
	"rwaledger/integrations/eventlog"
)

var errEventIndexDisabled = errors.New("event index disabled")

// EventIndex answers historical event queries.
type EventIndex interface {
	Query(ctx context.Context, filter eventlog.Filter) ([]*types.Event, error)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "unavailable", errEventIndexDisabled)
		return
	}
	filter, err := eventFilter(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	evts, err := h.index.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("query event index", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if evts == nil {
		evts = []*types.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": evts})
}

func eventFilter(r *http.Request) (eventlog.Filter, error) {
	q := r.URL.Query()
	filter := eventlog.Filter{Type: strings.TrimSpace(q.Get("type"))}
	if raw := strings.TrimSpace(q.Get("asset")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: asset must be an unsigned integer", errBadRequest)
		}
		filter.AssetID = id
	}
	if raw := strings.TrimSpace(q.Get("account")); raw != "" {
		addr, err := parseAccount(raw, "account")
		if err != nil {
			return filter, err
		}
		filter.Account = addrString(addr)
	}
	if raw := strings.TrimSpace(q.Get("after")); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: after must be an unsigned integer", errBadRequest)
		}
		filter.AfterSequence = after
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest)
		}
		filter.Limit = limit
	}
	return filter, nil
}
