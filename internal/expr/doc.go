// Package expr provides the immutable expression trees rewritten by the
// simplifier.
//
// This package contains the term representation only. All other internal
// packages import expr; expr imports nothing internal.
//
// Key design constraints:
//   - Nodes are immutable pointers built through the Mk* constructors. The
//     constructors cache a structural hash, the loose bound-variable range
//     and the node size, so equality and instantiation can skip work.
//   - Bound variables are de Bruijn indices. A BVar with index i refers to
//     the i-th enclosing binder, counting outward from 0.
//   - Identity is the fast path. Two trees are compared by pointer first and
//     fall back to Equal (structural, binder names ignored) only when the
//     pointers differ.
//   - App is n-ary and never nests an App in function position.
package expr
