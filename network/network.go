// Package network generates scale-free contact graphs by preferential
// attachment (Barabási–Albert). Each new node attaches to existing nodes
// with probability proportional to their degree, which produces the
// heavy-tailed degree distribution typical of real contact networks.
//
// The generated graph is immutable for the run: node positions and the
// edge list are fixed at construction and consumers build their own
// adjacency views from them.
package network

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph/simple"
)

// Config describes the graph to generate.
type Config struct {
	Nodes      int // number of nodes, one per agent
	Attachment int // edges added per new node
}

// DefaultConfig returns a 100-node graph with 2 edges per new node.
func DefaultConfig() Config {
	return Config{Nodes: 100, Attachment: 2}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Nodes < 1 {
		return fmt.Errorf("%w: nodes %d", ErrConfiguration, c.Nodes)
	}
	if c.Attachment < 1 {
		return fmt.Errorf("%w: attachment %d", ErrConfiguration, c.Attachment)
	}
	return nil
}

// Position is a 2-D layout coordinate, passed through to visualization
// consumers unchanged. It plays no role in transition logic.
type Position struct {
	X, Y float64
}

// Graph is an immutable contact graph: one node per agent, an undirected
// edge list, and a layout position per node.
type Graph struct {
	und       *simple.UndirectedGraph
	positions []Position
	edges     [][2]int
	neighbors [][]int
}

// Generate builds a preferential-attachment graph over cfg.Nodes nodes.
//
// Draw order is fixed for reproducibility: the attachment loop consumes
// draws first (in node order), then one (X, Y) pair per node for the
// layout. Degree-proportional selection uses a repeated-endpoint list:
// every edge contributes both endpoints, so sampling the list uniformly
// is sampling nodes by degree.
func Generate(cfg Config, src rand.Source) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(src)
	n := cfg.Nodes

	edges := make([][2]int, 0, n*cfg.Attachment)
	endpoints := make([]int, 0, 2*n*cfg.Attachment)

	for v := 1; v < n; v++ {
		m := cfg.Attachment
		if m > v {
			m = v
		}
		chosen := make([]int, 0, m)
		for len(chosen) < m {
			var u int
			if len(endpoints) == 0 {
				u = rng.Intn(v)
			} else {
				u = endpoints[rng.Intn(len(endpoints))]
			}
			if u == v || contains(chosen, u) {
				continue
			}
			chosen = append(chosen, u)
		}
		for _, u := range chosen {
			edges = append(edges, [2]int{u, v})
			endpoints = append(endpoints, u, v)
		}
	}

	positions := make([]Position, n)
	for i := range positions {
		positions[i] = Position{X: rng.Float64(), Y: rng.Float64()}
	}

	return build(n, edges, positions), nil
}

// FromEdges wraps a precomputed edge list and layout. Edge endpoints are
// taken as given; consumers that index agents by node id are expected to
// check them (the agent simulation does, and fails with its
// graph-consistency error on an out-of-range endpoint).
func FromEdges(n int, edges [][2]int, positions []Position) (*Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: nodes %d", ErrConfiguration, n)
	}
	if positions != nil && len(positions) != n {
		return nil, fmt.Errorf("%w: %d positions for %d nodes", ErrConfiguration, len(positions), n)
	}
	if positions == nil {
		positions = make([]Position, n)
	}
	return build(n, edges, positions), nil
}

func build(n int, edges [][2]int, positions []Position) *Graph {
	und := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		und.AddNode(simple.Node(i))
	}
	neighbors := make([][]int, n)
	for _, e := range edges {
		a, b := e[0], e[1]
		if a >= 0 && a < n && b >= 0 && b < n && a != b {
			und.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
			neighbors[a] = append(neighbors[a], b)
			neighbors[b] = append(neighbors[b], a)
		}
	}
	return &Graph{
		und:       und,
		positions: positions,
		edges:     edges,
		neighbors: neighbors,
	}
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// N returns the node count.
func (g *Graph) N() int { return len(g.positions) }

// Edges returns the edge list as ordered endpoint pairs.
func (g *Graph) Edges() [][2]int { return g.edges }

// Positions returns the per-node layout positions.
func (g *Graph) Positions() []Position { return g.positions }

// Neighbors returns the neighbor ids of one node, or nil when the id is
// out of range.
func (g *Graph) Neighbors(id int) []int {
	if id < 0 || id >= len(g.neighbors) {
		return nil
	}
	return g.neighbors[id]
}

// NeighborLists returns the full index-based adjacency, built once at
// construction.
func (g *Graph) NeighborLists() [][]int { return g.neighbors }

// Degrees returns the per-node degree.
func (g *Graph) Degrees() []int {
	deg := make([]int, len(g.neighbors))
	for i, ns := range g.neighbors {
		deg[i] = len(ns)
	}
	return deg
}

// Undirected exposes the underlying gonum graph for layout and analysis
// consumers.
func (g *Graph) Undirected() *simple.UndirectedGraph { return g.und }

// DegreeStats summarizes the degree distribution.
type DegreeStats struct {
	Min, Max int
	Mean     float64
}

// DegreeStats computes degree distribution statistics, useful as a
// scale-free sanity check (max degree well above the mean).
func (g *Graph) DegreeStats() DegreeStats {
	deg := g.Degrees()
	if len(deg) == 0 {
		return DegreeStats{}
	}
	st := DegreeStats{Min: deg[0], Max: deg[0]}
	sum := 0
	for _, d := range deg {
		if d < st.Min {
			st.Min = d
		}
		if d > st.Max {
			st.Max = d
		}
		sum += d
	}
	st.Mean = float64(sum) / float64(len(deg))
	return st
}
