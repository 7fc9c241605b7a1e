package scene

import (
	"math/rand/v2"

	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/graph"
)

// Spread is the half-extent of the cube new vertices are scattered over.
const Spread = 5

// AddVertices inserts n vertices scattered over [-r, r]^3.
func AddVertices(g *graph.Graph, rng *rand.Rand, n int, r float64) ([]multilevel.VertexID, error) {
	ids := make([]multilevel.VertexID, n)
	for i := range ids {
		id, err := g.AddVertex(vec.Random(rng, r))
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Random connects every vertex but the last to between one and maxEdges
// vertices further down the list, so the result is connected through its
// forward edges.
func Random(g *graph.Graph, rng *rand.Rand, n, maxEdges int) ([]multilevel.VertexID, error) {
	ids, err := AddVertices(g, rng, n, Spread)
	if err != nil {
		return nil, err
	}
	for k := 0; k < n-1; k++ {
		ne := 1 + rng.IntN(max(maxEdges, 1))
		for range ne {
			x2 := k + 1 + rng.IntN(n-k-1)
			if _, err := g.AddEdge(ids[k], ids[x2], multilevel.EdgeOptions{}); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

// Cube builds an m*m*m lattice with edges between axis neighbours. With
// spline set every edge gets a centroid.
func Cube(g *graph.Graph, rng *rand.Rand, m int, spline bool) ([]multilevel.VertexID, error) {
	ids, err := AddVertices(g, rng, m*m*m, Spread)
	if err != nil {
		return nil, err
	}
	idx := func(i, j, k int) multilevel.VertexID { return ids[i*m*m+j*m+k] }
	opts := multilevel.EdgeOptions{Spline: spline}
	link := func(a, b multilevel.VertexID) error {
		_, err := g.AddEdge(a, b, opts)
		return err
	}

	for i := range m {
		for j := range m {
			for k := range m {
				if i > 0 {
					if err := link(idx(i, j, k), idx(i-1, j, k)); err != nil {
						return nil, err
					}
				}
				if j > 0 {
					if err := link(idx(i, j, k), idx(i, j-1, k)); err != nil {
						return nil, err
					}
				}
				if k > 0 {
					if err := link(idx(i, j, k), idx(i, j, k-1)); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return ids, nil
}

// Splines gives every vertex edgesPer spline edges to random targets,
// self-loops included.
func Splines(g *graph.Graph, rng *rand.Rand, n, edgesPer int) ([]multilevel.VertexID, error) {
	ids, err := AddVertices(g, rng, n, Spread)
	if err != nil {
		return nil, err
	}
	for _, a := range ids {
		for range edgesPer {
			b := ids[rng.IntN(n)]
			if _, err := g.AddEdge(a, b, multilevel.EdgeOptions{Spline: true}); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}
