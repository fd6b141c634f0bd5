/*
Package checkout places orders from per-session carts.

Checkout consumes the cart atomically, reserves stock line by line with
rollback on failure, records the order in memory, and parks a one-shot
confirmation handoff on the session for the next page load.
*/
package checkout
