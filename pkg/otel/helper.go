package otel

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// MarshalTraceContext encodes the propagation fields of ctx as a JSON object
// so they can be stored next to data written on behalf of a request. It
// returns "" when ctx carries nothing to propagate.
func MarshalTraceContext(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return ""
	}

	b, err := json.Marshal(carrier)
	if err != nil {
		return ""
	}
	return string(b)
}

// ContextWithTraceContext restores what MarshalTraceContext produced on top of
// parent. Empty or unreadable input leaves parent untouched.
func ContextWithTraceContext(parent context.Context, encoded string) context.Context {
	if encoded == "" {
		return parent
	}

	carrier := propagation.MapCarrier{}
	if err := json.Unmarshal([]byte(encoded), &carrier); err != nil {
		return parent
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
