/*
Package session tracks browsing sessions for the storefront.

Sessions are in-memory with TTL expiry on an injectable clock. Each session
can be bound to its active business-flow span key, and carries the one-shot
checkout handoff (order id and total) across the navigation from the checkout
page to the confirmation page.
*/
package session
