// Package id provides centralized ID generation for the storefront backend.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based queries
//   - Prefixed types: Type-specific prefixes for debugging (flow_*, span_*, ord_*)
//   - Type safety: Separate types prevent ID misuse
//   - Compatibility: Works seamlessly with the browser UI (string) and the
//     tracing registry, which keys spans by application-chosen strings
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// FlowID identifies a top-level business flow (shopping, checkout, order)
type FlowID string

// SpanKey identifies a registered span in the lifecycle registry
type SpanKey string

// OrderID identifies a placed order
type OrderID string

// SessionID identifies a storefront browsing session
type SessionID string

// Prefixes for debugging and type identification
const (
	FlowPrefix    = "flow"
	SpanPrefix    = "span"
	OrderPrefix   = "ord"
	SessionPrefix = "sess"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewFlowID generates a new flow ID
func NewFlowID() FlowID {
	return FlowID(Default().GenerateWithPrefix(FlowPrefix))
}

// NewSpanKey generates a new registry span key
func NewSpanKey() SpanKey {
	return SpanKey(Default().GenerateWithPrefix(SpanPrefix))
}

// NewOrderID generates a new order ID
func NewOrderID() OrderID {
	return OrderID(Default().GenerateWithPrefix(OrderPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// String methods for ID types
func (id FlowID) String() string    { return string(id) }
func (id SpanKey) String() string   { return string(id) }
func (id OrderID) String() string   { return string(id) }
func (id SessionID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
