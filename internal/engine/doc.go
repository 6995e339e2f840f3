// Package engine implements the definitional simplifier: a memoizing
// expression traversal with pre/post rewrite hooks, and the fixed-point
// rule applicator built on top of it.
//
// ARCHITECTURE:
//
// Traversal (Core):
// Core.Simplify walks an expression top-down. Binder bodies are
// instantiated with fresh locals from a tctx.Scope before they are
// visited and re-abstracted afterwards, so the traversal never sees a
// raw bound variable. A node is rebuilt only when one of its children
// changed identity; otherwise the original pointer is returned.
//
// Per node:
// 1. Charge one step (cancellation is checked first)
// 2. Return the cached result on a hit
// 3. Pre hook: may replace the node, and may skip descent
// 4. Visit children per node shape
// 5. Post hook, repeated while it asks to continue
// 6. Cache input -> result
//
// Instance-implicit arguments of applications are not visited. They are
// handed to the canonicalizer, which may report that it changed its
// global representatives. Any such report makes the pass untrustworthy:
// the cache is discarded and the pass restarts from the original root.
//
// Rule application (RuleApplicator):
// A Hooks implementation whose post hook rewrites the current node with
// the first matching unconditional rule until none applies.
//
// CRITICAL PATTERNS:
//
// Steps are charged for every visit and every rule-application attempt
// and are never refunded, including across restarts. Exceeding the
// ceiling aborts the whole run.
//
// Single-threaded: a Core runs one Simplify at a time.
package engine
