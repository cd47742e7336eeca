// Package requestcontext carries request-scoped values through
// context.Context without depending on net/http. Middleware writes them,
// services and stores read them.
package requestcontext

import (
	"context"
	"time"

	"dicri/pkg/domain"
)

type (
	callerKey      struct{}
	clientIPKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	userAgentKey   struct{}
)

func value[T any](ctx context.Context, key any) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// Caller returns the authenticated caller. ok is false for anonymous requests.
func Caller(ctx context.Context) (domain.Caller, bool) {
	return value[domain.Caller](ctx, callerKey{})
}

func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func ClientIP(ctx context.Context) string {
	ip, _ := value[string](ctx, clientIPKey{})
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func RequestID(ctx context.Context) string {
	id, _ := value[string](ctx, requestIDKey{})
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the time the request arrived, so every timestamp written while
// serving it agrees. Outside a request it is time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey{}); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// UserAgent returns the summarized client, e.g. "Firefox 126 (Linux)".
func UserAgent(ctx context.Context) string {
	ua, _ := value[string](ctx, userAgentKey{})
	return ua
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}
