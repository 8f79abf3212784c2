package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ets/internal/platform/logging"
	"ets/internal/platform/ratelimit"
	"ets/internal/transport/http/api"
	"ets/internal/transport/http/shared"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*limiterOptions)

type limiterOptions struct {
	store ratelimit.Store
	keyFn RateLimitKeyFunc
}

// WithStore shares counters across limiters, or across instances with a Redis store.
func WithStore(store ratelimit.Store) RateLimitOption {
	return func(o *limiterOptions) {
		if store != nil {
			o.store = store
		}
	}
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(o *limiterOptions) {
		if fn != nil {
			o.keyFn = fn
		}
	}
}

func buildOptions(opts []RateLimitOption) limiterOptions {
	o := limiterOptions{keyFn: actorOrIPKey}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = ratelimit.NewMemory()
	}
	return o
}

type limiter struct {
	scope  string
	limit  int
	window time.Duration
	keyFn  RateLimitKeyFunc
	store  ratelimit.Store
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	rl := &limiter{scope: "global", limit: limit, window: window, keyFn: o.keyFn, store: o.store}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit applies tighter limits to credential endpoints
// (per IP and per submitted email) and to attendance and leave mutations (per actor).
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	authByIP := &limiter{scope: "auth-ip", limit: authLimit, window: window, keyFn: clientIPKey, store: o.store}
	authByEmail := &limiter{scope: "auth-email", limit: authLimit, window: window, keyFn: AuthEmailOrIPKey("email"), store: o.store}
	byActor := &limiter{scope: "mutation", limit: mutationLimit, window: window, keyFn: actorOrIPKey, store: o.store}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !authByIP.allow(w, r) || !authByEmail.allow(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	name := strings.TrimSpace(field)
	if name == "" {
		name = "email"
	}
	return func(r *http.Request) string {
		email := extractJSONField(r, name)
		if email == "" {
			return clientIPKey(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

// allow counts the request and writes the 429 response when over the limit.
// A failing store lets the request through.
func (rl *limiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	hit, err := rl.store.Hit(r.Context(), rl.scope+":"+key, rl.window)
	if err != nil {
		logging.From(r.Context()).Warn().Err(err).Str("scope", rl.scope).Msg("rate limit store unavailable")
		return true
	}

	resetIn := secondsUntil(hit.Reset)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(rl.limit-hit.Count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

	if hit.Count <= rl.limit {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	logging.From(r.Context()).Warn().
		Str("scope", rl.scope).
		Str("key", key).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("limit", rl.limit).
		Msg("rate limit exceeded")
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func secondsUntil(t time.Time) int {
	d := time.Until(t)
	if d <= 0 {
		return 0
	}
	return max(int(d.Seconds()), 1)
}

// extractJSONField peeks at the JSON body and restores it for the handler.
func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

func sensitiveRateScope(r *http.Request) sensitiveScope {
	if r == nil {
		return sensitiveScopeNone
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	path := strings.TrimPrefix(strings.TrimSpace(r.URL.Path), "/api/v1")
	switch path {
	case "/auth/login", "/auth/register", "/auth/request-reset", "/auth/reset":
		return sensitiveScopeAuth
	case "/attendance/clock-in", "/attendance/clock-out", "/leave/requests":
		return sensitiveScopeActor
	}
	if strings.HasPrefix(path, "/leave/requests/") && strings.HasSuffix(path, "/decision") {
		return sensitiveScopeActor
	}
	return sensitiveScopeNone
}
