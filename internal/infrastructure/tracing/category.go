package tracing

import "github.com/traceshop/backend/internal/shared/id"

// Category is a closed enumeration of span roles. The browser UI's old
// registry-of-constants table is replaced with typed categories plus a
// per-category key generation strategy, so a mistyped span key is a compile
// error rather than a runtime lookup miss.
type Category int

const (
	// CategoryFlow roots a brand-new trace for one business transaction.
	CategoryFlow Category = iota
	// CategoryInternal is a generic span linked under a registered parent.
	CategoryInternal
	// CategoryUI covers page renders and component mounts.
	CategoryUI
	// CategoryAPI covers outbound calls to the mock API.
	CategoryAPI
	// CategoryInteraction covers discrete user interactions.
	CategoryInteraction
)

// String returns the category label used in metrics and span attributes.
func (c Category) String() string {
	switch c {
	case CategoryFlow:
		return "flow"
	case CategoryInternal:
		return "internal"
	case CategoryUI:
		return "ui"
	case CategoryAPI:
		return "api"
	case CategoryInteraction:
		return "interaction"
	default:
		return "unknown"
	}
}

// NewKey generates a unique registry key for this category.
func (c Category) NewKey() string {
	if c == CategoryFlow {
		return id.Default().GenerateWithPrefix(id.FlowPrefix)
	}
	return id.Default().GenerateWithPrefix(id.SpanPrefix)
}

// FlowType names one top-level business transaction.
type FlowType string

const (
	FlowShopping FlowType = "shopping"
	FlowCheckout FlowType = "checkout"
	FlowOrder    FlowType = "order"
)

// Valid reports whether the flow type is one of the known transactions.
func (f FlowType) Valid() bool {
	switch f {
	case FlowShopping, FlowCheckout, FlowOrder:
		return true
	}
	return false
}

// SpanName returns the span name recorded for this flow's root span.
func (f FlowType) SpanName() string {
	return "flow." + string(f)
}
