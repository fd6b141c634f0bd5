/*
Package tracing implements the span lifecycle registry and activity tracker.

# Overview

The Registry decouples span identity from control flow: application code names
spans with string keys it chooses itself, and every later operation (child
creation, events, errors, ending) addresses the span by that key instead of
threading a handle through calls. A key is registered iff its span is live;
operations against unregistered keys fail soft with a warning, because tracing
must never break the storefront.

Three invariants hold under the registry mutex:

  - StartSpan is idempotent per key: re-starting a registered key returns the
    existing handle and creates nothing.
  - Parent linkage is explicit and checked at creation time: a child span is
    only created while its named parent is still registered.
  - EndSpan removes the key before the handle is finalized, so no operation
    can observe an ended span through the registry.

The TrackerFactory produces activity sessions bound to one flow span. A
session emits periodic heartbeat events, debounces raw interaction signals,
records explicit user actions undebounced, and annotates the span when the
user goes idle. The returned Session handle owns both timers; Stop is
idempotent and must be called when the flow ends.

# Usage

	registry := tracing.NewRegistry(tracer, provider, logger)
	key := tracing.CategoryFlow.NewKey()
	registry.StartSpan(tracing.FlowCheckout.SpanName(), key, nil, true)
	defer registry.EndSpan(key, true) // critical: force-flush after end

	session := factory.Start(key)
	defer session.Stop()
	session.Observe("pointerdown")
	session.Action("order.submitted")
*/
package tracing
