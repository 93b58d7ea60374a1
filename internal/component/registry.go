package component

import (
	"fmt"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

// CyclicDependencyError reports a dependency cycle, e.g. a -> b -> a.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Cycle, " -> ")
}

// Registry is the closed, ordered set of components known to astro.
type Registry struct {
	components []Component
	index      map[string]int
}

// NewRegistry validates names and dependency references. It does not check
// for cycles; ResolveOrder does.
func NewRegistry(components ...Component) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(components))}
	for _, c := range components {
		if c.Name == "" {
			return nil, ferrors.ConfigError("component without a name").Build()
		}
		if _, dup := r.index[c.Name]; dup {
			return nil, ferrors.ConfigError(fmt.Sprintf("duplicate component %q", c.Name)).
				ForComponent(c.Name).
				Build()
		}
		r.index[c.Name] = len(r.components)
		r.components = append(r.components, c)
	}
	for _, c := range r.components {
		for _, dep := range c.DependsOn {
			if _, ok := r.index[dep]; !ok {
				return nil, ferrors.ConfigError(fmt.Sprintf("depends on unknown component %q", dep)).
					ForComponent(c.Name).
					Build()
			}
		}
	}
	return r, nil
}

// Get returns the component named name.
func (r *Registry) Get(name string) (Component, bool) {
	i, ok := r.index[name]
	if !ok {
		return Component{}, false
	}
	return r.components[i], true
}

// All returns the components in declaration order.
func (r *Registry) All() []Component {
	return slices.Clone(r.components)
}

// Names returns component names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.components))
	for i, c := range r.components {
		names[i] = c.Name
	}
	return names
}

// ResolveOrder returns every component such that dependencies precede
// dependents. Among components that are ready at the same time, declaration
// order wins. A cycle is a fatal configuration error.
func (r *Registry) ResolveOrder() ([]Component, error) {
	indegree := make([]int, len(r.components))
	dependents := make([][]int, len(r.components))
	for i, c := range r.components {
		for _, dep := range c.DependsOn {
			j := r.index[dep]
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	done := make([]bool, len(r.components))
	order := make([]Component, 0, len(r.components))
	for len(order) < len(r.components) {
		next := -1
		for i := range r.components {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			cycle := r.findCycle(done)
			return nil, ferrors.WrapError(&CyclicDependencyError{Cycle: cycle}, ferrors.CategoryConfig, "component graph is not a DAG").
				Fatal().
				WithRetry(ferrors.RetryNever).
				ForComponent(cycle[0]).
				Check("dependency-order").
				Build()
		}
		done[next] = true
		order = append(order, r.components[next])
		for _, d := range dependents[next] {
			indegree[d]--
		}
	}
	return order, nil
}

// findCycle walks dependency edges among unresolved components until a node
// repeats and returns that loop, starting and ending with the same name.
func (r *Registry) findCycle(done []bool) []string {
	start := -1
	for i := range r.components {
		if !done[i] {
			start = i
			break
		}
	}
	seenAt := map[int]int{}
	var path []int
	cur := start
	for {
		if pos, seen := seenAt[cur]; seen {
			loop := path[pos:]
			names := make([]string, 0, len(loop)+1)
			for _, i := range loop {
				names = append(names, r.components[i].Name)
			}
			return append(names, r.components[cur].Name)
		}
		seenAt[cur] = len(path)
		path = append(path, cur)
		for _, dep := range r.components[cur].DependsOn {
			if j := r.index[dep]; !done[j] {
				cur = j
				break
			}
		}
	}
}

// Closure returns the named components and their transitive dependencies in
// resolved order.
func (r *Registry) Closure(names ...string) ([]Component, error) {
	want := map[string]bool{}
	var visit func(name string) error
	visit = func(name string) error {
		if want[name] {
			return nil
		}
		c, ok := r.Get(name)
		if !ok {
			return ferrors.ValidationError(fmt.Sprintf("unknown component %q, valid components: %s", name, strings.Join(r.Names(), ", "))).
				Build()
		}
		want[name] = true
		for _, dep := range c.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	order, err := r.ResolveOrder()
	if err != nil {
		return nil, err
	}
	out := make([]Component, 0, len(want))
	for _, c := range order {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Dependents returns the components that depend on name, directly or
// transitively, in declaration order.
func (r *Registry) Dependents(name string) []string {
	affected := map[string]bool{name: true}
	changed := true
	for changed {
		changed = false
		for _, c := range r.components {
			if affected[c.Name] {
				continue
			}
			for _, dep := range c.DependsOn {
				if affected[dep] {
					affected[c.Name] = true
					changed = true
					break
				}
			}
		}
	}
	var out []string
	for _, c := range r.components {
		if c.Name != name && affected[c.Name] {
			out = append(out, c.Name)
		}
	}
	return out
}

// LaunchTarget finds the component serving a launch command.
func (r *Registry) LaunchTarget(command string) (Component, LaunchSpec, bool) {
	for _, c := range r.components {
		for _, l := range c.Launches {
			if l.Command == command {
				return c, l, true
			}
		}
	}
	return Component{}, LaunchSpec{}, false
}

// LaunchCommands lists every launch command in declaration order.
func (r *Registry) LaunchCommands() []string {
	var out []string
	for _, c := range r.components {
		for _, l := range c.Launches {
			out = append(out, l.Command)
		}
	}
	return out
}
