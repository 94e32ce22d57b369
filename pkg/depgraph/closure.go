package depgraph

// Logf is the logging hook used for non-fatal closure warnings. A nil
// Logf is treated as a no-op, mirroring the optional-logger pattern used
// elsewhere in this codebase.
type Logf func(format string, args ...any)

// Closure computes the set of node names reachable by walking edges
// backwards (through Predecessors) from seeds: the transitive set of
// packages required to build/install every package in seeds, including
// seeds themselves.
//
// An unknown seed or an unknown node encountered mid-traversal is logged
// via logf (if non-nil) and treated as terminal — the request never
// fails because of it, per the engine's documented failure semantics.
//
// An empty seeds slice returns an empty set; callers that want "no
// constraints means everything" must special-case that themselves
// (this is the orchestrator's decision, not the engine's).
func Closure(g *Graph, seeds []string, logf Logf) map[string]bool {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	visited := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if !g.HasNode(name) {
			logf("closure: unknown package %q treated as terminal", name)
			continue
		}

		for _, dep := range g.Predecessors(name) {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	return visited
}

// Induced returns the subgraph of g containing only nodes in keep, with
// edges restricted to those whose endpoints are both retained.
func Induced(g *Graph, keep map[string]bool) *Graph {
	out := New()
	for name := range keep {
		node, ok := g.Node(name)
		if !ok {
			continue
		}
		out.nodes[name] = node
	}
	for dependent, deps := range g.predecessors {
		if !keep[dependent] {
			continue
		}
		for dep := range deps {
			if !keep[dep] {
				continue
			}
			if out.predecessors[dependent] == nil {
				out.predecessors[dependent] = make(map[string]bool)
			}
			out.predecessors[dependent][dep] = true
			if out.successors[dep] == nil {
				out.successors[dep] = make(map[string]bool)
			}
			out.successors[dep][dependent] = true
		}
	}
	return out
}
