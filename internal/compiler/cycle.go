package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/rules"
)

// CycleWarning represents a potential rewrite loop between rules.
//
// Loops are warnings, not errors: a rule set can contain a loop whose
// patterns never actually chain (e.g. (f a) -> (g b) and (g a) -> (f b)),
// and the step ceiling bounds the ones that do.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["rule-a", "rule-b", "rule-a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles performs static loop analysis on rules.
//
// The algorithm:
//  1. Build rule -> rule edges: r1 -> r2 when the head of any subterm of
//     r1's rhs is the head of r2's lhs (r2 could fire on r1's output,
//     at the root or below it)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a potential cycle warning
//
// Warnings are sorted by path for stable output. A rule set without loops
// returns an empty list.
func AnalyzeCycles(rs []rules.Rule) []CycleWarning {
	if len(rs) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(rs)
	sccs := tarjanSCC(graph, ruleNames(rs))

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return slices.Compare(a.Path, b.Path)
	})
	return warnings
}

// dependencyGraph maps rule name -> rules that could fire on its output.
type dependencyGraph map[string][]string

func ruleNames(rs []rules.Rule) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

func buildDependencyGraph(rs []rules.Rule) dependencyGraph {
	graph := make(dependencyGraph)

	headToRules := make(map[string][]string)
	for _, r := range rs {
		if h, ok := expr.HeadSymbol(r.LHS); ok {
			headToRules[h] = append(headToRules[h], r.Name)
		}
	}

	for _, r := range rs {
		graph[r.Name] = []string{}
		for _, h := range subtermHeads(r.RHS) {
			for _, target := range headToRules[h] {
				if !slices.Contains(graph[r.Name], target) {
					graph[r.Name] = append(graph[r.Name], target)
				}
			}
		}
	}
	return graph
}

// subtermHeads returns the head symbols of e and all of its subterms, in
// first-occurrence order.
func subtermHeads(e expr.Expr) []string {
	var heads []string
	seen := map[string]bool{}
	expr.Replace(e, func(m expr.Expr, _ uint32) (expr.Expr, bool) {
		switch m.(type) {
		case *expr.App, *expr.Const, *expr.Local:
			if h, ok := expr.HeadSymbol(m); ok && !seen[h] {
				seen[h] = true
				heads = append(heads, h)
			}
		}
		return nil, false
	})
	return heads
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so results are deterministic.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning. The path starts at
// the smallest rule name.
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("rule %s can rewrite its own output", name),
			Level:   "warning",
		}
	}

	members := slices.Clone(scc)
	slices.Sort(members)
	path := reconstructCyclePath(members, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("potential rewrite loop: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
