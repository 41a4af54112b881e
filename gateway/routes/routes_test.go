package routes_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rwaledger/core"
	"rwaledger/core/events"
	"rwaledger/core/types"
	"rwaledger/crypto"
	"rwaledger/gateway/middleware"
	"rwaledger/gateway/routes"
	"rwaledger/integrations/eventlog"
	"rwaledger/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func acct(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

var (
	adminAcct     = acct(0xA1)
	custodianAcct = acct(0xC1)
	aliceAcct     = acct(0x11)
	bobAcct       = acct(0x22)
)

func bech(a [20]byte) string { return crypto.FromRaw(a).String() }

type fakeIndex struct {
	filters []eventlog.Filter
	events  []*types.Event
}

func (f *fakeIndex) Query(_ context.Context, filter eventlog.Filter) ([]*types.Event, error) {
	f.filters = append(f.filters, filter)
	return f.events, nil
}

type testServer struct {
	handler http.Handler
	ledger  *core.Ledger
	hub     *routes.Hub
	index   *fakeIndex
}

func newTestServer(t *testing.T, optional ...string) *testServer {
	t.Helper()
	hub := routes.NewHub(quiet())
	ledger, err := core.NewLedger(storage.NewMemDB(), core.WithEmitter(hub), core.WithLogger(quiet()))
	require.NoError(t, err)
	index := &fakeIndex{}
	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:       true,
		HMACSecret:    testSecret,
		Issuer:        "rwad",
		OptionalPaths: optional,
	}, quiet())
	handler := routes.New(routes.Config{
		Ledger:        ledger,
		Events:        index,
		Hub:           hub,
		Authenticator: auth,
		Logger:        quiet(),
	})
	return &testServer{handler: handler, ledger: ledger, hub: hub, index: index}
}

func token(t *testing.T, subject [20]byte) string {
	t.Helper()
	tok, err := middleware.IssueToken([]byte(testSecret), subject, "rwad", "", time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path string, caller *[20]byte, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *caller))
	}
	res := httptest.NewRecorder()
	s.handler.ServeHTTP(res, req)
	return res
}

func decode(t *testing.T, res *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	return out
}

// seedAsset walks the admin setup through the HTTP surface and returns the
// created asset's path.
func (s *testServer) seedAsset(t *testing.T) string {
	t.Helper()
	admin := adminAcct
	res := s.do(t, http.MethodPost, "/v1/initialize", &admin, map[string]string{"admin": bech(adminAcct)})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = s.do(t, http.MethodPost, "/v1/countries", &admin, map[string]interface{}{"code": "us", "allowed": true})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = s.do(t, http.MethodPost, "/v1/investors", &admin, map[string]interface{}{
		"account":    bech(aliceAcct),
		"accredited": true,
		"country":    "US",
		"kycExpiry":  time.Now().Add(30 * 24 * time.Hour).Unix(),
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	for _, mint := range []map[string]string{
		{"token": "USDC", "to": bech(aliceAcct), "amount": "1000000"},
		{"token": "PROP", "to": bech(adminAcct), "amount": "1000"},
	} {
		res = s.do(t, http.MethodPost, "/v1/mint", &admin, mint)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	}

	res = s.do(t, http.MethodPost, "/v1/assets", &admin, map[string]interface{}{
		"name":            "Harbour Tower",
		"symbol":          "HBT",
		"class":           "real_estate",
		"totalSupply":     "1000",
		"valuation":       "100000",
		"custodian":       bech(custodianAcct),
		"settlementToken": "PROP",
		"minInvestment":   "10",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	require.Equal(t, float64(1), decode(t, res)["id"])
	return "/v1/assets/1"
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	res := s.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "ok", res.Body.String())
}

func TestMutationsRequireToken(t *testing.T) {
	s := newTestServer(t)
	res := s.do(t, http.MethodPost, "/v1/initialize", nil, map[string]string{"admin": bech(adminAcct)})
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestOptionalPathServesReadsButNotWrites(t *testing.T) {
	s := newTestServer(t, "/v1/assets")
	s.seedAsset(t)

	res := s.do(t, http.MethodGet, "/v1/assets/1", nil, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	body := decode(t, res)
	require.Equal(t, "HBT", body["symbol"])
	require.Equal(t, "100", body["tokenPrice"])

	res = s.do(t, http.MethodPost, "/v1/assets/1/invest", nil, map[string]string{"amount": "10"})
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, "unauthorized", decode(t, res)["kind"])
}

func TestInvestDistributeAndClaim(t *testing.T) {
	s := newTestServer(t)
	asset := s.seedAsset(t)
	alice, admin := aliceAcct, adminAcct

	res := s.do(t, http.MethodPost, asset+"/invest", &alice, map[string]string{
		"amount":        "100",
		"paymentToken":  "usdc",
		"paymentAmount": "10000",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Equal(t, true, decode(t, res)["success"])

	res = s.do(t, http.MethodGet, asset+"/holdings/"+bech(aliceAcct), &alice, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Equal(t, "100", decode(t, res)["quantity"])

	res = s.do(t, http.MethodGet, "/v1/balances/usdc/"+bech(custodianAcct), &alice, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "10000", decode(t, res)["balance"])

	res = s.do(t, http.MethodGet, asset+"/holders/export?format=csv", &admin, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Equal(t, "text/csv", res.Header().Get("Content-Type"))
	require.Len(t, res.Header().Get("X-Checksum-SHA256"), 64)
	rows, err := csv.NewReader(strings.NewReader(res.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, bech(aliceAcct), rows[1][2])

	res = s.do(t, http.MethodPost, "/v1/mint", &admin, map[string]string{"token": "PROP", "to": bech(adminAcct), "amount": "5000"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = s.do(t, http.MethodPost, asset+"/distributions", &admin, map[string]string{"totalAmount": "5000", "payoutToken": "PROP"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = s.do(t, http.MethodPost, "/v1/distributions/1/claim", &alice, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Equal(t, "5000", decode(t, res)["payout"])

	res = s.do(t, http.MethodGet, "/v1/distributions/1/claims/"+bech(aliceAcct), &alice, nil)
	require.Equal(t, true, decode(t, res)["claimed"])

	res = s.do(t, http.MethodPost, "/v1/distributions/1/claim", &alice, nil)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "already_claimed", decode(t, res)["kind"])

	res = s.do(t, http.MethodGet, "/v1/stats", &alice, nil)
	stats := decode(t, res)
	require.Equal(t, float64(1), stats["assetCount"])
	require.Equal(t, float64(1), stats["distributionCount"])
}

func TestLedgerErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	asset := s.seedAsset(t)
	alice, bob := aliceAcct, bobAcct

	cases := []struct {
		name   string
		method string
		path   string
		caller *[20]byte
		body   interface{}
		status int
		kind   string
	}{
		{"unregistered investor", http.MethodPost, asset + "/invest", &bob, map[string]string{"amount": "10", "paymentAmount": "0"}, http.StatusForbidden, "not_registered"},
		{"below minimum", http.MethodPost, asset + "/invest", &alice, map[string]string{"amount": "1", "paymentAmount": "0"}, http.StatusBadRequest, "invalid_argument"},
		{"over supply", http.MethodPost, asset + "/invest", &alice, map[string]string{"amount": "5000", "paymentAmount": "0"}, http.StatusUnprocessableEntity, "capacity_exceeded"},
		{"payment exceeds balance", http.MethodPost, asset + "/invest", &alice, map[string]string{"amount": "10", "paymentToken": "USDC", "paymentAmount": "9000000"}, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"non admin valuation", http.MethodPost, asset + "/valuation", &alice, map[string]string{"valuation": "1"}, http.StatusForbidden, "unauthorized"},
		{"missing asset", http.MethodGet, "/v1/assets/42", &alice, nil, http.StatusNotFound, "not_found"},
		{"bad amount", http.MethodPost, asset + "/invest", &alice, map[string]string{"amount": "-3"}, http.StatusBadRequest, "invalid_argument"},
		{"unknown field", http.MethodPost, asset + "/invest", &alice, map[string]string{"quantity": "3"}, http.StatusBadRequest, "invalid_argument"},
		{"bad class", http.MethodPost, "/v1/assets", &alice, map[string]string{"class": "tulips"}, http.StatusBadRequest, "invalid_argument"},
		{"reinitialize", http.MethodPost, "/v1/initialize", &alice, map[string]string{"admin": bech(aliceAcct)}, http.StatusConflict, "already_initialized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := s.do(t, tc.method, tc.path, tc.caller, tc.body)
			require.Equal(t, tc.status, res.Code, res.Body.String())
			require.Equal(t, tc.kind, decode(t, res)["kind"])
		})
	}
}

func TestListEventsPassesFilter(t *testing.T) {
	s := newTestServer(t)
	s.index.events = []*types.Event{{Type: "rwa.investment", Sequence: 9, Attributes: map[string]string{"assetId": "1"}}}
	alice := aliceAcct

	res := s.do(t, http.MethodGet, "/v1/events?type=rwa.investment&asset=1&account="+bech(aliceAcct)+"&after=4&limit=5", &alice, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Len(t, s.index.filters, 1)
	require.Equal(t, eventlog.Filter{
		Type:          "rwa.investment",
		AssetID:       1,
		Account:       bech(aliceAcct),
		AfterSequence: 4,
		Limit:         5,
	}, s.index.filters[0])
	require.Len(t, decode(t, res)["events"], 1)

	res = s.do(t, http.MethodGet, "/v1/events?limit=abc", &alice, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestHubFiltersAndDropsSlowSubscribers(t *testing.T) {
	hub := routes.NewHub(quiet())
	investments, cancelInvestments := hub.Subscribe([]string{"rwa.investment"})
	defer cancelInvestments()
	slow, cancelSlow := hub.Subscribe(nil)
	defer cancelSlow()
	require.Equal(t, 2, hub.Subscribers())

	hub.Emit(events.Committed{Payload: &types.Event{Type: "rwa.transfer", Sequence: 1}})
	hub.Emit(events.Committed{Payload: &types.Event{Type: "rwa.investment", Sequence: 2}})

	select {
	case evt := <-investments:
		require.Equal(t, uint64(2), evt.Sequence)
	default:
		t.Fatal("expected investment event")
	}

	// Overflow the unfiltered subscriber without draining it.
	for i := 0; i < 300; i++ {
		hub.Emit(events.Committed{Payload: &types.Event{Type: "rwa.transfer", Sequence: uint64(3 + i)}})
	}
	require.Equal(t, 1, hub.Subscribers())
	drained := 0
	for range slow {
		drained++
	}
	require.Equal(t, 256, drained)
}

func TestLedgerEventsReachHub(t *testing.T) {
	s := newTestServer(t)
	updates, cancel := s.hub.Subscribe([]string{"rwa.asset_created"})
	defer cancel()
	s.seedAsset(t)

	select {
	case evt := <-updates:
		require.Equal(t, "HBT", evt.Attributes["symbol"])
		require.NotZero(t, evt.Sequence)
	default:
		t.Fatal("expected asset_created event")
	}
}
