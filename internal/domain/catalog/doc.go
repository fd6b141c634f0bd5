/*
Package catalog serves the storefront's product inventory.

# Overview

Two sources back the service. With CATALOG_BASE_URL set, products come from
the upstream mock API through a resty client with retries, rate limiting, a
circuit breaker, and OTel-instrumented transport. With no upstream, a seeded
in-memory inventory answers instead, delayed by a configurable simulated
latency so demo traces still show realistic fetch timing.
*/
package catalog
