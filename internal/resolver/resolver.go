// Package resolver walks the registry dependency graph of requested components.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/outshift-open/hax-cli/internal/registry"
)

// ItemResolver resolves a single registry item by name.
// registry.Chain is the production implementation.
type ItemResolver interface {
	Resolve(ctx context.Context, name string) (*registry.Item, error)
}

// Visited is the set of names already claimed by a walk. A name is marked
// before its dependencies are explored, which is what terminates cycles.
// One Visited belongs to one walk at a time.
type Visited struct {
	seen map[string]bool
}

// NewVisited returns an empty set.
func NewVisited() *Visited {
	return &Visited{seen: make(map[string]bool)}
}

// Has reports whether name was claimed.
func (v *Visited) Has(name string) bool { return v.seen[name] }

// claim marks name and reports whether it was new.
func (v *Visited) claim(name string) bool {
	if v.seen[name] {
		return false
	}
	v.seen[name] = true
	return true
}

// Len is the number of claimed names.
func (v *Visited) Len() int { return len(v.seen) }

// Resolution is the result of a walk.
type Resolution struct {
	// Items are the resolved items in pre-order: every item precedes the
	// dependencies first discovered through it.
	Items []*registry.Item
	// Explicit are the names requested directly.
	Explicit map[string]bool
	// DependencyOf maps a transitive dependency to the item that pulled it in.
	DependencyOf map[string]string
	// Missing lists names that no source could resolve, in discovery order.
	Missing []string
}

// Names returns the resolved item names in order.
func (r *Resolution) Names() []string {
	names := make([]string, len(r.Items))
	for i, item := range r.Items {
		names[i] = item.Name
	}
	return names
}

// Dependencies returns every package dependency of the resolved items,
// de-duplicated, in first-seen order.
func (r *Resolution) Dependencies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range r.Items {
		for _, dep := range item.Dependencies {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
			}
		}
	}
	return out
}

// Walker resolves a requested list of names plus everything they transitively depend on.
type Walker struct {
	resolver ItemResolver
	logger   *slog.Logger
}

// NewWalker creates a walker. A nil logger uses slog.Default().
func NewWalker(r ItemResolver, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{resolver: r, logger: logger}
}

// Walk resolves names depth-first in the given order. Names already in visited
// are skipped; unresolvable names are logged and skipped. The only error is
// context cancellation.
func (w *Walker) Walk(ctx context.Context, names []string, visited *Visited) (*Resolution, error) {
	if visited == nil {
		visited = NewVisited()
	}
	res := &Resolution{
		Explicit:     make(map[string]bool, len(names)),
		DependencyOf: make(map[string]string),
	}
	for _, name := range names {
		res.Explicit[name] = true
	}
	if err := w.walk(ctx, names, "", visited, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (w *Walker) walk(ctx context.Context, names []string, parent string, visited *Visited, res *Resolution) error {
	for _, name := range names {
		if !visited.claim(name) {
			continue
		}
		if parent != "" && !res.Explicit[name] {
			res.DependencyOf[name] = parent
		}

		item, err := w.resolver.Resolve(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !errors.Is(err, registry.ErrNotFound) {
				return err
			}
			if parent != "" {
				w.logger.Warn("registry dependency not found", "component", name, "required_by", parent)
			} else {
				w.logger.Warn("component not found", "component", name)
			}
			res.Missing = append(res.Missing, name)
			continue
		}

		res.Items = append(res.Items, item)
		if len(item.RegistryDependencies) > 0 {
			if err := w.walk(ctx, item.RegistryDependencies, name, visited, res); err != nil {
				return err
			}
		}
	}
	return nil
}
