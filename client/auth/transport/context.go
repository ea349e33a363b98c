package transport

import (
	"context"
)

type (
	contextMarkerKey string
)

const (
	ContextSkipAuthKey contextMarkerKey = "skipAuth"
	ContextRetriedKey  contextMarkerKey = "retried"
)

// WithSkipAuth marks requests made with ctx so that the pipeline neither attaches
// credentials nor attempts a refresh on 401.
func WithSkipAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextSkipAuthKey, true)
}

// IsSkipAuth reports whether ctx carries the skip marker.
func IsSkipAuth(ctx context.Context) bool {
	return hasMarker(ctx, ContextSkipAuthKey)
}

// WithRetried marks requests made with ctx as already retried once.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextRetriedKey, true)
}

// IsRetried reports whether ctx carries the retried marker.
func IsRetried(ctx context.Context) bool {
	return hasMarker(ctx, ContextRetriedKey)
}

func hasMarker(ctx context.Context, key contextMarkerKey) bool {
	if ctx == nil {
		return false
	}
	if v := ctx.Value(key); v != nil {
		marked, _ := v.(bool)
		return marked
	}
	return false
}
