package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"v1": {RequestsPerMinute: 60, Burst: 1},
	}, quiet())
	handler := limiter.Middleware("v1")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/assets/1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesCallers(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"v1": {RequestsPerMinute: 60, Burst: 1},
	}, quiet())
	handler := limiter.Middleware("v1")(okHandler())

	var alice, bob [20]byte
	alice[0], bob[0] = 1, 2
	for _, caller := range [][20]byte{alice, bob} {
		req := httptest.NewRequest(http.MethodPost, "/v1/invest", nil)
		req = req.WithContext(WithCaller(req.Context(), caller))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("expected request for caller %x to succeed, got %d", caller[0], res.Code)
		}
	}
}

func TestRateLimiterIgnoresUnknownKey(t *testing.T) {
	limiter := NewRateLimiter(nil, quiet())
	handler := limiter.Middleware("missing")(okHandler())
	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("unexpected status %d", res.Code)
		}
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{"v1": {Burst: 1}}, quiet())
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }
	limiter.obtainLimiter("a", RateLimit{})
	now = now.Add(2 * visitorIdleTTL)
	limiter.obtainLimiter("b", RateLimit{})
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	require.Len(t, limiter.visitors, 1)
}

func TestAuthenticatorBindsCaller(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: string(testSecret), Issuer: "rwad", Audience: "rwa"}, quiet())
	var caller [20]byte
	caller[19] = 0x42

	var seen [20]byte
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, err := CallerFromContext(r.Context())
		require.NoError(t, err)
		seen = got
		w.WriteHeader(http.StatusOK)
	}))

	token, err := IssueToken(testSecret, caller, "rwad", "rwa", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/invest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, caller, seen)
}

func TestAuthenticatorRejectsBadTokens(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: string(testSecret), Issuer: "rwad"}, quiet())
	handler := auth.Middleware()(okHandler())
	var caller [20]byte

	wrongIssuer, err := IssueToken(testSecret, caller, "other", "", time.Minute)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, caller, "rwad", "", -time.Hour)
	require.NoError(t, err)
	wrongKey, err := IssueToken([]byte("another-secret-another-secret-00"), caller, "rwad", "", time.Minute)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong issuer": "Bearer " + wrongIssuer,
		"expired":      "Bearer " + expired,
		"wrong key":    "Bearer " + wrongKey,
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, res.Code)
		}
	}
}

func TestAuthenticatorOptionalPaths(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: string(testSecret), OptionalPaths: []string{"/healthz"}}, quiet())
	handler := auth.Middleware()(okHandler())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/assets", nil)
	req.Header.Set("Origin", "https://app.example.com")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, "https://app.example.com", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/v1/assets", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}

func TestObservabilityCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObservability(ObservabilityConfig{}, reg, quiet())
	handler := obs.Middleware()(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, res.Header().Get(RequestIDHeader))

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() == "rwa_gateway_requests_total" {
			found = true
			require.Equal(t, float64(1), family.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found)
}
