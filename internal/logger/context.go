package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	shopperKey   ctxKey = "shopper"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithShopper tags every log line of the request with the cart slot key.
func WithShopper(ctx context.Context, slotKey string) context.Context {
	return context.WithValue(ctx, shopperKey, slotKey)
}

// FromCtx returns logger with request_id and shopper automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if shopper, ok := ctx.Value(shopperKey).(string); ok && shopper != "" {
		l = l.With(zap.String("shopper", shopper))
	}
	return l
}
