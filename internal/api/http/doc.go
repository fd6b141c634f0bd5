/*
Package http contains the REST handlers for the storefront and its tracing
surface.

Storefront endpoints cover products, the per-session cart, checkout, and
orders. Tracing endpoints let the browser UI drive the span lifecycle
registry: starting and ending flows and child spans, attaching events and
errors, feeding interaction signals to activity trackers, and forcing
exporter flushes before navigations.
*/
package http
