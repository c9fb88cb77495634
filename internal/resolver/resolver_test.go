package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/outshift-open/hax-cli/internal/registry"
)

// graph is an ItemResolver over an in-memory adjacency list.
type graph struct {
	deps  map[string][]string
	calls map[string]int
}

func makeGraph(defs map[string][]string) *graph {
	return &graph{deps: defs, calls: make(map[string]int)}
}

func (g *graph) Resolve(_ context.Context, name string) (*registry.Item, error) {
	g.calls[name]++
	deps, ok := g.deps[name]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return &registry.Item{
		Name:                 name,
		Type:                 registry.TypeUI,
		Dependencies:         []string{"pkg-" + name, "shared"},
		RegistryDependencies: deps,
	}, nil
}

func walk(t *testing.T, g *graph, names ...string) *Resolution {
	t.Helper()
	res, err := NewWalker(g, nil).Walk(context.Background(), names, nil)
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	return res
}

func TestPreOrderChain(t *testing.T) {
	g := makeGraph(map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": nil,
	})

	res := walk(t, g, "A")
	if diff := cmp.Diff([]string{"A", "B", "C"}, res.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !res.Explicit["A"] || res.Explicit["B"] {
		t.Errorf("Explicit = %v", res.Explicit)
	}
	if diff := cmp.Diff(map[string]string{"B": "A", "C": "B"}, res.DependencyOf); diff != "" {
		t.Errorf("DependencyOf mismatch (-want +got):\n%s", diff)
	}
}

func TestDepthFirstPerTopLevelItem(t *testing.T) {
	g := makeGraph(map[string][]string{
		"form":     {"button", "input"},
		"timeline": {"badge"},
		"button":   nil,
		"input":    {"label"},
		"label":    nil,
		"badge":    nil,
	})

	res := walk(t, g, "form", "timeline")
	want := []string{"form", "button", "input", "label", "timeline", "badge"}
	if diff := cmp.Diff(want, res.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSharedDependencyResolvedOnce(t *testing.T) {
	g := makeGraph(map[string][]string{
		"rationale":          {"badge", "button"},
		"source-attribution": {"badge"},
		"badge":              nil,
		"button":             nil,
	})

	res := walk(t, g, "rationale", "source-attribution", "badge")
	want := []string{"rationale", "badge", "button", "source-attribution"}
	if diff := cmp.Diff(want, res.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if g.calls["badge"] != 1 {
		t.Errorf("badge resolved %d times, want 1", g.calls["badge"])
	}
}

func TestCircularDeps(t *testing.T) {
	g := makeGraph(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": {"d"},
	})

	res := walk(t, g, "a", "d")
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, res.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for name, n := range g.calls {
		if n != 1 {
			t.Errorf("%s resolved %d times, want 1", name, n)
		}
	}
}

func TestMissingDependencySkipped(t *testing.T) {
	g := makeGraph(map[string][]string{
		"form":   {"button", "ghost", "input"},
		"button": nil,
		"input":  nil,
	})

	res := walk(t, g, "nope", "form")
	if diff := cmp.Diff([]string{"form", "button", "input"}, res.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nope", "ghost"}, res.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestVisitedSharedAcrossWalks(t *testing.T) {
	g := makeGraph(map[string][]string{
		"a": {"b"},
		"b": nil,
		"c": {"b"},
	})

	visited := NewVisited()
	w := NewWalker(g, nil)
	if _, err := w.Walk(context.Background(), []string{"a"}, visited); err != nil {
		t.Fatal(err)
	}
	res, err := w.Walk(context.Background(), []string{"c"}, visited)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c"}, res.Names()); diff != "" {
		t.Errorf("second walk mismatch (-want +got):\n%s", diff)
	}
	if !visited.Has("b") || visited.Len() != 3 {
		t.Errorf("visited = %d names", visited.Len())
	}
}

func TestDependenciesAggregated(t *testing.T) {
	g := makeGraph(map[string][]string{
		"a": {"b"},
		"b": nil,
	})

	res := walk(t, g, "a")
	want := []string{"pkg-a", "shared", "pkg-b"}
	if diff := cmp.Diff(want, res.Dependencies()); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkCancelled(t *testing.T) {
	g := makeGraph(map[string][]string{"a": nil})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWalker(cancelling{g}, nil).Walk(ctx, []string{"a"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
}

// cancelling fails every lookup with the context error, as a remote source would.
type cancelling struct{ g *graph }

func (c cancelling) Resolve(ctx context.Context, name string) (*registry.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.g.Resolve(ctx, name)
}
