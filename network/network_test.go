package network

import (
	"testing"

	"golang.org/x/exp/rand"
)

func TestGenerateEdgeCount(t *testing.T) {
	cfg := Config{Nodes: 50, Attachment: 2}
	g, err := Generate(cfg, rand.NewSource(1))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if g.N() != 50 {
		t.Errorf("Expected 50 nodes, got %d", g.N())
	}

	// Node v adds min(attachment, v) edges: 1 + 2*48 = 97.
	want := 0
	for v := 1; v < 50; v++ {
		m := cfg.Attachment
		if m > v {
			m = v
		}
		want += m
	}
	if len(g.Edges()) != want {
		t.Errorf("Expected %d edges, got %d", want, len(g.Edges()))
	}

	// Degree sum equals twice the edge count.
	sum := 0
	for _, d := range g.Degrees() {
		sum += d
	}
	if sum != 2*len(g.Edges()) {
		t.Errorf("Expected degree sum %d, got %d", 2*len(g.Edges()), sum)
	}
}

func TestGenerateDeterminism(t *testing.T) {
	cfg := Config{Nodes: 80, Attachment: 3}

	a, err := Generate(cfg, rand.NewSource(11))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(cfg, rand.NewSource(11))
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Edges()) != len(b.Edges()) {
		t.Fatalf("Edge counts differ: %d vs %d", len(a.Edges()), len(b.Edges()))
	}
	for i := range a.Edges() {
		if a.Edges()[i] != b.Edges()[i] {
			t.Fatalf("Edge %d differs between identically seeded runs", i)
		}
	}
	for i := range a.Positions() {
		if a.Positions()[i] != b.Positions()[i] {
			t.Fatalf("Position %d differs between identically seeded runs", i)
		}
	}
}

func TestGenerateValidation(t *testing.T) {
	src := rand.NewSource(1)

	if _, err := Generate(Config{Nodes: 0, Attachment: 2}, src); err == nil {
		t.Error("Expected error for zero nodes")
	}
	if _, err := Generate(Config{Nodes: 10, Attachment: 0}, src); err == nil {
		t.Error("Expected error for zero attachment")
	}

	// A single node is a valid edgeless graph.
	g, err := Generate(Config{Nodes: 1, Attachment: 2}, src)
	if err != nil {
		t.Fatalf("Expected singleton graph, got error: %v", err)
	}
	if len(g.Edges()) != 0 {
		t.Errorf("Expected 0 edges for singleton, got %d", len(g.Edges()))
	}
}

func TestNeighborSymmetry(t *testing.T) {
	g, err := Generate(Config{Nodes: 40, Attachment: 2}, rand.NewSource(5))
	if err != nil {
		t.Fatal(err)
	}

	for id := 0; id < g.N(); id++ {
		for _, nb := range g.Neighbors(id) {
			found := false
			for _, back := range g.Neighbors(nb) {
				if back == id {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Edge %d-%d not symmetric", id, nb)
			}
		}
	}

	if g.Neighbors(-1) != nil || g.Neighbors(g.N()) != nil {
		t.Error("Expected nil neighbors for out-of-range id")
	}
}

func TestPositionsInUnitSquare(t *testing.T) {
	g, err := Generate(Config{Nodes: 30, Attachment: 1}, rand.NewSource(9))
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range g.Positions() {
		if p.X < 0 || p.X >= 1 || p.Y < 0 || p.Y >= 1 {
			t.Errorf("Position %d outside unit square: %+v", i, p)
		}
	}
}

func TestDegreeStats(t *testing.T) {
	cfg := Config{Nodes: 200, Attachment: 2}
	g, err := Generate(cfg, rand.NewSource(3))
	if err != nil {
		t.Fatal(err)
	}

	st := g.DegreeStats()
	if st.Max < cfg.Attachment {
		t.Errorf("Expected max degree >= %d, got %d", cfg.Attachment, st.Max)
	}
	// Preferential attachment should concentrate degree on hubs.
	if float64(st.Max) <= st.Mean {
		t.Errorf("Expected hub degree above mean (max=%d, mean=%f)", st.Max, st.Mean)
	}
}

func TestFromEdges(t *testing.T) {
	edges := [][2]int{{0, 1}, {1, 2}}
	g, err := FromEdges(3, edges, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Neighbors(1)) != 2 {
		t.Errorf("Expected node 1 to have 2 neighbors, got %d", len(g.Neighbors(1)))
	}

	if _, err := FromEdges(0, nil, nil); err == nil {
		t.Error("Expected error for zero nodes")
	}
	if _, err := FromEdges(2, nil, make([]Position, 3)); err == nil {
		t.Error("Expected error for position/node count mismatch")
	}
}
