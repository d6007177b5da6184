package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"
)

// TraceIDLength is the number of random bytes in a trace ID. Encoded IDs are
// twice as long.
const TraceIDLength = 16

type traceIDKey struct{}

// fallbackSeq keeps fallback IDs unique within the process when the clock
// does not advance between calls.
var fallbackSeq atomic.Uint64

// NewTraceID returns a random hex trace ID. If the system random source
// fails it returns an ID built from the clock and a process counter.
func NewTraceID() string {
	var b [TraceIDLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		slog.Error("random trace id unavailable, using clock", "error", err)
		binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
		binary.BigEndian.PutUint64(b[8:], fallbackSeq.Add(1))
	}
	return hex.EncodeToString(b[:])
}

// WithTraceID returns a copy of ctx carrying id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// SetTraceID returns a copy of ctx carrying a fresh trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// GetTraceID returns the trace ID carried by ctx, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
