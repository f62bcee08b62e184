package compiler

import (
	"fmt"
	"strings"

	"github.com/formwell/formwell/internal/schema"
)

// DetectCycles performs static cycle analysis over dependsOn edges.
//
// A field's dependsOn edges must form a DAG: readiness is computed by
// walking dependencies, so a cycle would make every member permanently
// unready. Unlike soft runtime limits, this is a fatal schema defect and is
// rejected at load time, never at request time.
//
// The algorithm:
//  1. Build field -> dependency graph from dependsOn lists
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as an E122 error
//
// A DAG (no cycles) returns an empty error list.
func DetectCycles(fields []schema.FieldSpec) []ValidationError {
	if len(fields) == 0 {
		return nil
	}

	graph := buildDependencyGraph(fields)
	sccs := tarjanSCC(graph)

	var errs []ValidationError
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			errs = append(errs, cycleError(scc, graph))
		}
	}
	return errs
}

// dependencyGraph maps field id -> the field ids it depends on.
type dependencyGraph map[string][]string

// buildDependencyGraph constructs the dependsOn graph. Edges to unknown
// fields are dropped here; Validate reports them separately (E120).
func buildDependencyGraph(fields []schema.FieldSpec) dependencyGraph {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.ID] = true
	}

	graph := make(dependencyGraph, len(fields))
	for _, f := range fields {
		if graph[f.ID] == nil {
			graph[f.ID] = []string{}
		}
		for _, dep := range f.DependsOn {
			if known[dep] {
				graph[f.ID] = append(graph[f.ID], dep)
			}
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
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

		// v is a root node: pop the stack and emit an SCC.
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

	for node := range graph {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleError converts an SCC into an E122 validation error with a readable
// cycle path.
func cycleError(scc []string, graph dependencyGraph) ValidationError {
	path := reconstructCyclePath(scc, graph)
	return ValidationError{
		Field:   "fields." + path[0] + ".dependsOn",
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
		Code:    ErrDependencyCycle,
	}
}

// reconstructCyclePath builds a representative cycle path from an SCC.
// Starts at the first member, follows edges that stay inside the SCC, and
// closes the loop back at the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	inSCC := make(map[string]bool, len(scc))
	for _, id := range scc {
		inSCC[id] = true
	}

	start := scc[0]
	path := []string{start}
	visited := map[string]bool{start: true}
	current := start

	for {
		var next string
		for _, neighbor := range graph[current] {
			if neighbor == start && len(path) > 1 {
				return append(path, start)
			}
			if inSCC[neighbor] && !visited[neighbor] {
				next = neighbor
				break
			}
		}
		if next == "" {
			// No unvisited in-SCC successor; close the loop.
			return append(path, start)
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
}
