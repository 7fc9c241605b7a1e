package scene

import (
	"math/rand/v2"
	"time"

	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/errors"
	"github.com/matzehuels/galaster/pkg/graph"
)

// Membrane is a sheet of rows*lines vertices. The initial graph links every
// column and closes the first and last line; successive phases then weave the
// lines, fold the sheet into a tube, close the tube, and undo it all again.
type Membrane struct {
	g     *graph.Graph
	ids   []multilevel.VertexID
	rows  int
	lines int
	phase int
}

// Membrane phase intervals between single edge changes.
var membraneIntervals = [...]time.Duration{
	5 * time.Millisecond,
	100 * time.Millisecond,
	50 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	5 * time.Millisecond,
}

// NewMembrane builds the initial sheet.
func NewMembrane(g *graph.Graph, rng *rand.Rand, rows, lines int) (*Membrane, error) {
	if rows < 2 || lines < 2 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "membrane needs at least 2x2 vertices, got %dx%d", rows, lines)
	}
	n := rows * lines
	ids, err := AddVertices(g, rng, n, Spread)
	if err != nil {
		return nil, err
	}
	m := &Membrane{g: g, ids: ids, rows: rows, lines: lines}

	for kk := 0; kk < rows-1; kk++ {
		if err := m.link(kk, kk+1); err != nil {
			return nil, err
		}
	}
	for kk := rows - 1; kk > 0; kk-- {
		if err := m.link(n-kk, n-kk-1); err != nil {
			return nil, err
		}
	}
	for k := 0; k < lines-1; k++ {
		for kk := range rows {
			if err := m.link(rows*k+kk, rows*(k+1)+kk); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Vertices returns the vertex handles, line by line.
func (m *Membrane) Vertices() []multilevel.VertexID {
	return m.ids
}

// Phase returns the index of the next phase, in [0, 6).
func (m *Membrane) Phase() int {
	return m.phase
}

// Next returns the mutations of the next phase and the interval at which they
// should be replayed, and advances the phase counter.
func (m *Membrane) Next() ([]Step, time.Duration) {
	rows, lines := m.rows, m.lines
	var pairs [][2]int
	switch m.phase {
	case 0, 5:
		for k := range lines {
			for kk := 0; kk < rows-1; kk++ {
				pairs = append(pairs, [2]int{rows*k + kk, rows*k + kk + 1})
			}
		}
	case 1, 4:
		for kk := range rows {
			pairs = append(pairs, [2]int{kk, rows*(lines-1) + kk})
		}
	case 2, 3:
		for kk := range lines {
			pairs = append(pairs, [2]int{rows * kk, rows*kk + rows - 1})
		}
	}

	remove := m.phase >= 3
	steps := make([]Step, len(pairs))
	for i, p := range pairs {
		a, b := p[0], p[1]
		if remove {
			steps[i] = func(*graph.Graph) error { return m.unlink(a, b) }
		} else {
			steps[i] = func(*graph.Graph) error { return m.link(a, b) }
		}
	}
	interval := membraneIntervals[m.phase]
	m.phase = (m.phase + 1) % len(membraneIntervals)
	return steps, interval
}

func (m *Membrane) link(a, b int) error {
	_, err := m.g.AddEdge(m.ids[a], m.ids[b], multilevel.EdgeOptions{})
	return err
}

// unlink removes one edge between the two vertices. A pair without an edge is
// skipped.
func (m *Membrane) unlink(a, b int) error {
	id, ok := m.g.SharedEdge(m.ids[a], m.ids[b])
	if !ok {
		return nil
	}
	return m.g.RemoveEdge(id)
}
