// Package types provides shared data structures for the storefront backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Product: Catalog item served from the mock upstream API
//   - Cart, CartItem: Per-session shopping cart state
//   - Order, OrderStatus: Placed order and its lifecycle states
package types
