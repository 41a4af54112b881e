package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"rwaledger/crypto"
	"rwaledger/observability/logging"
)

type AuthConfig struct {
	Enabled       bool
	HMACSecret    string
	Issuer        string
	Audience      string
	OptionalPaths []string
	ClockSkew     time.Duration
}

type contextKey string

const (
	ContextKeyToken  contextKey = "gateway.token"
	ContextKeyCaller contextKey = "gateway.caller"
)

// ErrNoCaller is returned when a request carries no authenticated caller.
var ErrNoCaller = errors.New("gateway: caller not authenticated")

// Authenticator verifies HS256 bearer tokens whose subject is the caller's
// bech32 address.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
	once   sync.Once
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	auth := &Authenticator{cfg: cfg, logger: logger}
	auth.once.Do(func() {
		auth.secret = []byte(strings.TrimSpace(cfg.HMACSecret))
		if auth.cfg.ClockSkew <= 0 {
			auth.cfg.ClockSkew = 2 * time.Minute
		}
	})
	return auth
}

// Middleware rejects requests without a valid token. Optional paths pass
// through anonymously; a token presented on them is still verified.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := extractBearer(r.Header.Get("Authorization"))
			if tokenString == "" {
				if a.isOptional(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			caller, err := a.Verify(tokenString)
			if err != nil {
				a.logger.Warn("auth: token rejected",
					logging.Fingerprint("tokenFingerprint", tokenString),
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()))
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyToken, tokenString)
			ctx = WithCaller(ctx, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Verify validates tokenString and returns the caller bound to its subject.
func (a *Authenticator) Verify(tokenString string) ([20]byte, error) {
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return [20]byte{}, err
	}
	if err := validateClaims(claims, a.cfg.Issuer, a.cfg.Audience); err != nil {
		return [20]byte{}, err
	}
	subject, _ := claims["sub"].(string)
	caller, err := crypto.ParseRaw(strings.TrimSpace(subject))
	if err != nil {
		return [20]byte{}, errors.New("subject is not an account address")
	}
	return caller, nil
}

// IssueToken signs a token binding subject for ttl. Used by operator tooling
// and tests.
func IssueToken(secret []byte, subject [20]byte, issuer, audience string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": crypto.FromRaw(subject).String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	if audience != "" {
		claims["aud"] = audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// WithCaller binds caller to ctx.
func WithCaller(ctx context.Context, caller [20]byte) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(ctx context.Context) ([20]byte, error) {
	caller, ok := ctx.Value(ContextKeyCaller).([20]byte)
	if !ok {
		return [20]byte{}, ErrNoCaller
	}
	return caller, nil
}

func (a *Authenticator) isOptional(path string) bool {
	for _, prefix := range a.cfg.OptionalPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, issuer, audience string) error {
	if issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != issuer {
			return errors.New("issuer mismatch")
		}
	}
	if audience != "" {
		switch val := claims["aud"].(type) {
		case string:
			if val != audience {
				return errors.New("audience mismatch")
			}
		case []interface{}:
			matched := false
			for _, entry := range val {
				if s, ok := entry.(string); ok && s == audience {
					matched = true
					break
				}
			}
			if !matched {
				return errors.New("audience mismatch")
			}
		default:
			return errors.New("audience missing")
		}
	}
	return nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","kind":"unauthorized"}`))
}
