package envelope

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// HeaderCorrelationID carries the per-request correlation id on every response.
const HeaderCorrelationID = "X-Correlation-Id"

// CorrelationPrefix starts every correlation id.
const CorrelationPrefix = "req_"

// correlationEntropy is the number of random bytes behind each id (128 bits).
const correlationEntropy = 16

// NewCorrelationID returns "req_" followed by a base58 rendering of 128 random
// bits. The base58 alphabet is alphanumeric, so ids match ^req_[A-Za-z0-9]+$.
func NewCorrelationID() string {
	buf := make([]byte, correlationEntropy)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("generate correlation id: %v", err))
	}
	return CorrelationPrefix + base58.Encode(buf)
}

type correlationKey struct{}

// WithCorrelationID stores id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored in ctx, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}
