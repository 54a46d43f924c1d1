package dag

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/orchestrator/errors"
)

func mustGraph(t *testing.T, nodes ...[]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		if err := g.AddNode(n[0], n[1:]...); err != nil {
			t.Fatalf("AddNode(%s) failed: %v", n[0], err)
		}
	}
	return g
}

func assertTopological(t *testing.T, g *Graph, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	if len(pos) != len(g.Nodes()) {
		t.Fatalf("order %v does not cover all nodes %v", order, g.Nodes())
	}
	for _, e := range g.Edges() {
		if pos[e.From] >= pos[e.To] {
			t.Errorf("%s must come before %s in %v", e.From, e.To, order)
		}
	}
}

func TestResolve_Linear(t *testing.T) {
	g := mustGraph(t, []string{"c", "b"}, []string{"b", "a"}, []string{"a"})
	order, err := g.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestResolve_RegistrationOrderTieBreak(t *testing.T) {
	g := mustGraph(t, []string{"metrics"}, []string{"db"}, []string{"cache"}, []string{"api", "db", "cache"})
	order, err := g.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"metrics", "db", "cache", "api"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}

	again, _ := g.Resolve()
	if !reflect.DeepEqual(order, again) {
		t.Fatalf("resolve is not deterministic: %v vs %v", order, again)
	}
}

func TestResolve_Diamond(t *testing.T) {
	g := mustGraph(t, []string{"d", "b", "c"}, []string{"b", "a"}, []string{"c", "a"}, []string{"a"})
	order, err := g.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTopological(t, g, order)
	if order[0] != "a" || order[3] != "d" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestResolve_RandomAcyclicGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		n := 2 + rng.Intn(15)
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("c%d", i)
		}
		// Edges only point from higher to lower index, so the graph is acyclic.
		g := New()
		for _, i := range rng.Perm(n) {
			var deps []string
			for j := 0; j < i; j++ {
				if rng.Intn(3) == 0 {
					deps = append(deps, names[j])
				}
			}
			if err := g.AddNode(names[i], deps...); err != nil {
				t.Fatalf("AddNode failed: %v", err)
			}
		}
		order, err := g.Resolve()
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", iter, err)
		}
		assertTopological(t, g, order)
	}
}

func TestResolve_CycleDetection(t *testing.T) {
	tests := []struct {
		name      string
		nodes     [][]string
		wantChain string
	}{
		{"two nodes", [][]string{{"a", "b"}, {"b", "a"}}, "a -> b -> a"},
		{"three nodes", [][]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}, "a -> b -> c -> a"},
		{"cycle behind acyclic prefix", [][]string{{"root"}, {"x", "root", "y"}, {"y", "z"}, {"z", "y"}}, "y -> z -> y"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := mustGraph(t, tc.nodes...)
			_, err := g.Resolve()
			if err == nil {
				t.Fatal("expected cycle error")
			}
			if !errors.IsCircularDependency(err) {
				t.Fatalf("expected CIRCULAR_DEPENDENCY, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantChain) {
				t.Errorf("expected chain %q in %q", tc.wantChain, err.Error())
			}
		})
	}
}

func TestResolve_UnknownDependency(t *testing.T) {
	g := mustGraph(t, []string{"api", "db"})
	_, err := g.Resolve()
	if !errors.HasCode(err, errors.ErrCodeUnknownDependency) {
		t.Fatalf("expected UNKNOWN_DEPENDENCY, got %v", err)
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	g := mustGraph(t, []string{"db"})
	if err := g.AddNode("db"); !errors.IsDuplicateComponent(err) {
		t.Fatalf("expected DUPLICATE_COMPONENT, got %v", err)
	}
}

func TestAddNode_RepeatedDependencyIsOneEdge(t *testing.T) {
	g := New()
	if err := g.AddNode("db"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode("api", "db", "db"); err != nil {
		t.Fatal(err)
	}
	if edges := g.Edges(); len(edges) != 1 || edges[0] != (Edge{From: "db", To: "api"}) {
		t.Errorf("expected a single db -> api edge, got %v", edges)
	}
	order, err := g.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"db", "api"}) {
		t.Errorf("expected [db api], got %v", order)
	}
}

func TestBuildLevels_Diamond(t *testing.T) {
	g := mustGraph(t, []string{"a"}, []string{"b", "a"}, []string{"c", "a"}, []string{"d", "b", "c"})
	levels, err := g.BuildLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"a"}, {"b", "c"}, {"d"}}
	if !reflect.DeepEqual(levels, want) {
		t.Fatalf("expected %v, got %v", want, levels)
	}
}

func TestBuildLevels_NoEdges(t *testing.T) {
	g := mustGraph(t, []string{"a"}, []string{"b"})
	levels, err := g.BuildLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 1 || len(levels[0]) != 2 {
		t.Fatalf("expected one level with 2 nodes, got %v", levels)
	}
}

func TestBuildLevels_CycleDetection(t *testing.T) {
	g := mustGraph(t, []string{"a", "b"}, []string{"b", "a"})
	if _, err := g.BuildLevels(); !errors.IsCircularDependency(err) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestReverse(t *testing.T) {
	if got := Reverse([]string{"a", "b", "c"}); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Fatalf("unexpected reverse: %v", got)
	}
	if got := Reverse(nil); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}
