// Package requestcontext carries request-scoped values (correlation ID,
// client IP, evaluation time) from the HTTP middleware to the services
// without the services importing net/http.
//
// Tests pin the clock with WithTime:
//
//	ctx = requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	timeKey      struct{}
)

// RequestID returns the correlation ID, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP returns the caller address recorded for audit events.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// Now returns the time the request was received. Verification timestamps,
// expiry and flag resolution all use it so one request sees one instant.
// Outside a request (the outbox relay) it is the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t)
}
