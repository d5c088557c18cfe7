package telemetry

import (
	"context"
)

const defaultTraceID = "00000000000000000000000000000000"

type ctxKey int

const traceIDKey ctxKey = 1

// SetTraceID stores the trace id in ctx.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace id stored in ctx, all zeros when missing.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return defaultTraceID
	}
	return traceID
}
