package multilevel

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/errors"
)

func requireConsistent(t *testing.T, layers []*Layer) {
	t.Helper()
	for _, l := range layers {
		require.NoError(t, l.CheckIntegrity(), "integrity of layer %d", l.Level())
		require.NoError(t, l.CheckRedundancy(), "redundancy of layer %d", l.Level())
	}
}

func requirePanicCode(t *testing.T, code errors.Code, f func()) {
	t.Helper()
	defer func() {
		err := errors.Recover(recover())
		require.Error(t, err, "expected panic")
		require.True(t, errors.Is(err, code), "got %v", err)
	}()
	f()
}

func TestAddVertexCascades(t *testing.T) {
	layers := NewStack(4, DefaultParams())
	v := layers[0].AddVertex(vec.New(1, 2, 3))

	for i, l := range layers {
		require.Equal(t, 1, l.NumVertices(), "layer %d", i)
	}
	require.Equal(t, KindFinest, layers[0].Kind())
	require.Equal(t, KindGeneric, layers[3].Kind())

	cv, ok := layers[1].Vertex(v.Coarser)
	require.True(t, ok)
	require.Equal(t, v.X, cv.X)
	require.Equal(t, NoVertex, layers[3].Vertices()[0].Coarser)

	layers[0].RemoveVertex(v.ID)
	for i, l := range layers {
		require.Zero(t, l.NumVertices(), "layer %d", i)
	}
}

func TestSingleEdgeCollapsesAndSplits(t *testing.T) {
	layers := NewStack(2, DefaultParams())
	fine, coarse := layers[0], layers[1]
	a := fine.AddVertex(vec.New(-1, 0, 0))
	b := fine.AddVertex(vec.New(1, 0, 0))

	e := fine.AddEdge(a.ID, b.ID, EdgeOptions{})
	requireConsistent(t, layers)

	require.Equal(t, 1, coarse.NumVertices())
	require.Equal(t, 1, coarse.NumEdges())
	loop := coarse.Edges()[0]
	require.True(t, loop.IsLoop())
	require.Equal(t, 1, loop.Cnt)
	require.Equal(t, a.Coarser, b.Coarser)
	require.True(t, fine.Collapsed(e))

	fine.RemoveEdge(e.ID)
	requireConsistent(t, layers)

	require.Equal(t, 2, coarse.NumVertices())
	require.Zero(t, coarse.NumEdges())
	require.NotEqual(t, a.Coarser, b.Coarser)
}

func TestRefcountedEdgeMatchesOnceSplitsOnce(t *testing.T) {
	layers := NewStack(3, DefaultParams())
	fine, coarse := layers[0], layers[1]
	a := fine.AddVertex(vec.New(-1, 0, 0))
	b := fine.AddVertex(vec.New(1, 0, 0))
	opts := EdgeOptions{Refcounted: true}

	e1 := fine.AddEdge(a.ID, b.ID, opts)
	require.Equal(t, 1, coarse.NumVertices())
	e2 := fine.AddEdge(a.ID, b.ID, opts)
	require.Same(t, e1, e2)
	require.Equal(t, 2, e1.Cnt)
	require.Equal(t, 1, fine.NumEdges())
	require.Equal(t, 1, coarse.NumVertices())
	requireConsistent(t, layers)

	fine.RemoveEdge(e1.ID)
	require.Equal(t, 1, e1.Cnt)
	require.Equal(t, 1, coarse.NumVertices(), "no split while one unit remains")
	requireConsistent(t, layers)

	fine.RemoveEdge(e1.ID)
	require.Equal(t, 2, coarse.NumVertices())
	for i, l := range layers {
		require.Zero(t, l.NumEdges(), "layer %d", i)
	}
	requireConsistent(t, layers)
}

func TestParallelEdgesWithoutRefcount(t *testing.T) {
	layers := NewStack(2, DefaultParams())
	fine := layers[0]
	a := fine.AddVertex(vec.Zero)
	b := fine.AddVertex(vec.New(1, 0, 0))

	e1 := fine.AddEdge(a.ID, b.ID, EdgeOptions{})
	e2 := fine.AddEdge(a.ID, b.ID, EdgeOptions{})
	require.NotEqual(t, e1.ID, e2.ID)
	require.Equal(t, 2, fine.NumEdges())
	requireConsistent(t, layers)

	// The pair stays merged while the parallel edge remains.
	fine.RemoveEdge(e1.ID)
	require.Equal(t, a.Coarser, b.Coarser)
	requireConsistent(t, layers)

	fine.RemoveEdge(e2.ID)
	require.NotEqual(t, a.Coarser, b.Coarser)
	requireConsistent(t, layers)
}

func TestSelfLoopNeverMatches(t *testing.T) {
	layers := NewStack(2, DefaultParams())
	fine, coarse := layers[0], layers[1]
	a := fine.AddVertex(vec.Zero)

	e := fine.AddEdge(a.ID, a.ID, EdgeOptions{})
	require.True(t, e.IsLoop())
	require.Equal(t, 2, fine.Multiplicity())
	require.Equal(t, 1, coarse.NumEdges())
	requireConsistent(t, layers)

	fine.RemoveEdge(e.ID)
	require.Zero(t, coarse.NumEdges())
	requireConsistent(t, layers)
}

func TestMatchedVertexIsNotEligibleAgain(t *testing.T) {
	layers := NewStack(2, DefaultParams())
	fine, coarse := layers[0], layers[1]
	a := fine.AddVertex(vec.New(0, 0, 0))
	b := fine.AddVertex(vec.New(1, 0, 0))
	c := fine.AddVertex(vec.New(2, 0, 0))

	fine.AddEdge(a.ID, b.ID, EdgeOptions{})
	fine.AddEdge(b.ID, c.ID, EdgeOptions{})

	// b was already matched with a, so b-c does not collapse.
	require.Equal(t, 2, coarse.NumVertices())
	require.NotEqual(t, b.Coarser, c.Coarser)
	require.ElementsMatch(t, []VertexID{a.ID, b.ID}, fine.MatchedComponent(a.ID))
	requireConsistent(t, layers)
}

func TestSplitKeepsComponentConnectedThroughOthers(t *testing.T) {
	layers := NewStack(3, DefaultParams())
	fine := layers[0]
	v := make([]*Vertex, 4)
	for i := range v {
		v[i] = fine.AddVertex(vec.New(float64(i), 0, 0))
	}

	ab := fine.AddEdge(v[0].ID, v[1].ID, EdgeOptions{})
	fine.AddEdge(v[2].ID, v[3].ID, EdgeOptions{})
	fine.AddEdge(v[1].ID, v[2].ID, EdgeOptions{})
	requireConsistent(t, layers)

	fine.RemoveEdge(ab.ID)
	requireConsistent(t, layers)
	require.NotEqual(t, v[0].Coarser, v[1].Coarser)
}

func TestAddRemoveRestoresState(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	layers := NewStack(4, DefaultParams())
	fine := layers[0]
	var vs []*Vertex
	for range 12 {
		vs = append(vs, fine.AddVertex(vec.Random(rng, 10)))
	}
	for range 15 {
		a, b := vs[rng.IntN(len(vs))], vs[rng.IntN(len(vs))]
		fine.AddEdge(a.ID, b.ID, EdgeOptions{})
	}
	requireConsistent(t, layers)

	before := make([][2]int, len(layers))
	for i, l := range layers {
		before[i] = [2]int{l.NumVertices(), l.Multiplicity()}
	}

	e := fine.AddEdge(vs[0].ID, vs[5].ID, EdgeOptions{})
	requireConsistent(t, layers)
	fine.RemoveEdge(e.ID)
	requireConsistent(t, layers)

	for i, l := range layers {
		require.Equal(t, before[i][1], l.Multiplicity(), "multiplicity of layer %d", i)
	}
	require.Equal(t, before[0][0], fine.NumVertices())
}

func TestRemoveVertexStripsEdges(t *testing.T) {
	layers := NewStack(3, DefaultParams())
	fine := layers[0]
	a := fine.AddVertex(vec.Zero)
	b := fine.AddVertex(vec.New(1, 0, 0))
	c := fine.AddVertex(vec.New(0, 1, 0))
	fine.AddEdge(a.ID, b.ID, EdgeOptions{Refcounted: true})
	fine.AddEdge(a.ID, b.ID, EdgeOptions{Refcounted: true})
	fine.AddEdge(a.ID, c.ID, EdgeOptions{})
	fine.AddEdge(a.ID, a.ID, EdgeOptions{})

	fine.RemoveVertex(a.ID)
	requireConsistent(t, layers)
	require.Equal(t, 2, fine.NumVertices())
	require.Zero(t, fine.NumEdges())
	require.Zero(t, b.Degree())
}

func TestContractViolations(t *testing.T) {
	layers := NewStack(2, DefaultParams())
	fine := layers[0]
	a := fine.AddVertex(vec.Zero)
	b := fine.AddVertex(vec.New(1, 0, 0))
	fine.AddEdge(a.ID, b.ID, EdgeOptions{})

	requirePanicCode(t, errors.ErrCodeContractViolation, func() {
		fine.detach(a)
	})
	requirePanicCode(t, errors.ErrCodeContractViolation, func() {
		fine.RemoveEdge(EdgeID(9999))
	})
	requirePanicCode(t, errors.ErrCodeContractViolation, func() {
		fine.AddEdge(a.ID, VertexID(9999), EdgeOptions{})
	})
	requirePanicCode(t, errors.ErrCodeContractViolation, func() {
		layers[1].SetSpline(layers[1].Edges()[0].ID, true)
	})
	requirePanicCode(t, errors.ErrCodeContractViolation, func() {
		NewStack(0, DefaultParams())
	})
}

func TestRandomMutationsKeepInvariants(t *testing.T) {
	const (
		numLayers   = 6
		numVertices = 100
		numOps      = 600
	)
	rng := rand.New(rand.NewPCG(2024, 10))
	layers := NewStack(numLayers, DefaultParams())
	fine := layers[0]

	vs := make([]*Vertex, numVertices)
	for i := range vs {
		vs[i] = fine.AddVertex(vec.New(
			float64(rng.IntN(201)-100),
			float64(rng.IntN(201)-100),
			float64(rng.IntN(201)-100),
		))
	}

	for op := range numOps {
		a, b := vs[rng.IntN(numVertices)], vs[rng.IntN(numVertices)]
		if rng.IntN(2) == 1 {
			fine.AddEdge(a.ID, b.ID, EdgeOptions{Refcounted: rng.IntN(4) == 0})
		} else if e := a.sharedEdge(b); e != nil {
			fine.RemoveEdge(e.ID)
		}
		for _, l := range layers {
			require.NoError(t, l.CheckIntegrity(), "op %d layer %d", op, l.Level())
			require.NoError(t, l.CheckRedundancy(), "op %d layer %d", op, l.Level())
		}
	}

	for _, v := range vs {
		fine.RemoveVertex(v.ID)
		requireConsistent(t, layers)
	}
	for i, l := range layers {
		require.Zero(t, l.NumVertices(), "vertices left in layer %d", i)
		require.Zero(t, l.NumEdges(), "edges left in layer %d", i)
	}
}
