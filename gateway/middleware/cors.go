package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig lists what browsers may send to the gateway. Empty lists fall
// back to permissive defaults suitable for a read-mostly API.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	methods     string
	headers     string
	credentials string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:     make(map[string]struct{}),
		methods:     joinOr(cfg.AllowedMethods, "GET, POST, OPTIONS"),
		headers:     joinOr(cfg.AllowedHeaders, "Content-Type, Authorization, "+RequestIDHeader),
		credentials: "false",
	}
	if cfg.AllowCredentials {
		policy.credentials = "true"
	}
	if len(cfg.AllowedOrigins) == 0 {
		policy.anyOrigin = true
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			policy.anyOrigin = true
			continue
		}
		policy.origins[strings.ToLower(origin)] = struct{}{}
	}
	return policy
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is not permitted.
func (p corsPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if p.anyOrigin {
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok {
		return origin
	}
	return ""
}

// CORS answers preflight requests and decorates responses for allowed origins.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed := policy.allow(r.Header.Get("Origin")); allowed != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", policy.methods)
				h.Set("Access-Control-Allow-Headers", policy.headers)
				h.Set("Access-Control-Allow-Credentials", policy.credentials)
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
