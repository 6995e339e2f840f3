// Package store provides SQLite-backed durable storage for simplification
// runs.
//
// The store is an append-only log with:
//   - Runs: one record per Simplify call, successful or not
//   - Rewrites: the ordered rule applications of a run
//
// # Ordering
//
// Runs are stamped with seq from a logical clock seeded from the highest
// stored seq on Open. Listings use ORDER BY seq, never wall time, so two
// stores fed the same runs list them identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Input expressions are stored as text together with their content ID
// (expr.ID), so alpha-equivalent inputs share an input_id.
package store
