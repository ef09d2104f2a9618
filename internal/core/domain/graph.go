// Package domain contains the core domain models and business logic for the target dependency graph.
package domain

import (
	"errors"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the dependency graph of a project's targets. Edges point from a target
// to each of its dependencies; the reverse edges are kept as dependents.
type Graph struct {
	targets        map[string]*Target
	declared       []string
	dependencies   map[string][]string
	dependents     map[string][]string
	executionOrder []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		targets:      make(map[string]*Target),
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
	}
}

// AddTarget adds a target to the graph.
// It returns an error if a target with the same name already exists.
func (g *Graph) AddTarget(t *Target) error {
	if _, exists := g.targets[t.Name]; exists {
		return zerr.With(ErrTargetAlreadyExists, "target", t.Name)
	}
	g.targets[t.Name] = t
	g.declared = append(g.declared, t.Name)

	deps := make([]string, 0, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	g.dependencies[t.Name] = deps
	return nil
}

// Validate checks every declared edge and then orders the targets with Kahn's algorithm.
// All reference errors are collected before sorting. Targets that become ready together
// are ordered by declaration, so the result is reproducible.
func (g *Graph) Validate() error {
	g.executionOrder = nil
	g.dependents = make(map[string][]string, len(g.targets))

	var errs []error
	for _, name := range g.declared {
		for _, dep := range g.dependencies[name] {
			switch {
			case dep == name:
				errs = append(errs, zerr.With(ErrCircularDependency, "cycle", name+" -> "+name))
			case g.targets[dep] == nil:
				errs = append(errs, zerr.With(
					zerr.With(ErrUnknownDependency, "target", name),
					"dependency", dep,
				))
			default:
				g.dependents[dep] = append(g.dependents[dep], name)
				// Report each mutual pair once, from the later-declared side.
				if slices.Contains(g.dependencies[dep], name) && g.declaredBefore(dep, name) {
					errs = append(errs, zerr.With(ErrCircularDependency, "cycle", dep+" <-> "+name))
				}
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return g.sort()
}

func (g *Graph) sort() error {
	remaining := make(map[string]int, len(g.targets))
	for _, name := range g.declared {
		remaining[name] = len(g.dependencies[name])
	}

	order := make([]string, 0, len(g.targets))
	done := make(map[string]bool, len(g.targets))

	for len(order) < len(g.declared) {
		var ready []string
		for _, name := range g.declared {
			if !done[name] && remaining[name] == 0 {
				ready = append(ready, name)
			}
		}

		if len(ready) == 0 {
			var stuck []string
			for _, name := range g.declared {
				if !done[name] {
					stuck = append(stuck, name)
				}
			}
			return zerr.With(ErrCircularDependency, "targets", strings.Join(stuck, ", "))
		}

		for _, name := range ready {
			done[name] = true
			order = append(order, name)
			for _, dependent := range g.dependents[name] {
				remaining[dependent]--
			}
		}
	}

	g.executionOrder = order
	return nil
}

func (g *Graph) declaredBefore(a, b string) bool {
	return slices.Index(g.declared, a) < slices.Index(g.declared, b)
}

// Target returns the target with the given name.
func (g *Graph) Target(name string) (*Target, bool) {
	t, ok := g.targets[name]
	return t, ok
}

// TargetCount returns the number of targets in the graph.
func (g *Graph) TargetCount() int {
	return len(g.targets)
}

// Dependencies returns the deduplicated dependency names of a target.
func (g *Graph) Dependencies(name string) []string {
	return g.dependencies[name]
}

// Dependents returns the names of targets that depend on the given target.
// It assumes Validate() has been called.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Walk returns an iterator that yields targets in build order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[*Target] {
	return func(yield func(*Target) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.targets[name]) {
				return
			}
		}
	}
}

// Order returns the target names in build order.
func (g *Graph) Order() []string {
	return slices.Clone(g.executionOrder)
}

// Closure returns the named targets and all of their transitive dependencies,
// in build order. It assumes Validate() has been called and returned nil.
func (g *Graph) Closure(names []string) ([]string, error) {
	want := make(map[string]bool, len(names))
	queue := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := g.targets[name]; !ok {
			return nil, zerr.With(ErrTargetNotFound, "target", name)
		}
		if !want[name] {
			want[name] = true
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g.dependencies[current] {
			if !want[dep] {
				want[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	out := make([]string, 0, len(want))
	for _, name := range g.executionOrder {
		if want[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// Resolve builds a graph from the targets and returns them in build order.
func Resolve(targets []*Target) ([]*Target, *Graph, error) {
	g := NewGraph()
	var errs []error
	for _, t := range targets {
		if err := g.AddTarget(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	return slices.Collect(g.Walk()), g, nil
}
