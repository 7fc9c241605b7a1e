package scene

import (
	"math/rand/v2"

	"github.com/matzehuels/galaster/pkg/core/multilevel"
	"github.com/matzehuels/galaster/pkg/core/vec"
	"github.com/matzehuels/galaster/pkg/graph"
)

// TreeKeyRange bounds the keys drawn by [BinaryTree.InsertRandom].
const TreeKeyRange = 2000

// BinaryTree grows an unbalanced binary search tree in the graph. Every
// parent-child link is an oriented edge, so the tree hangs downwards from its
// root.
type BinaryTree struct {
	g    *graph.Graph
	rng  *rand.Rand
	root *treeNode
	size int
}

type treeNode struct {
	key         int
	id          multilevel.VertexID
	pos         vec.Vec3
	left, right *treeNode
}

// NewBinaryTree places the root, holding the middle key, near (0, 20, 0).
func NewBinaryTree(g *graph.Graph, rng *rand.Rand) (*BinaryTree, error) {
	t := &BinaryTree{g: g, rng: rng}
	root, err := t.newNode(TreeKeyRange/2, vec.New(0, 20, 0))
	if err != nil {
		return nil, err
	}
	if err := g.SetVisible(root.id, true); err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

// Size returns the number of vertices in the tree.
func (t *BinaryTree) Size() int {
	return t.size
}

// Root returns the handle of the root vertex.
func (t *BinaryTree) Root() multilevel.VertexID {
	return t.root.id
}

// Insert adds key below the node it sorts under. The new vertex is created
// hidden next to its parent and revealed once its edge exists.
func (t *BinaryTree) Insert(key int) error {
	n := t.root
	for {
		next := &n.right
		if n.key < key {
			next = &n.left
		}
		if *next != nil {
			n = *next
			continue
		}

		child, err := t.newNode(key, n.pos)
		if err != nil {
			return err
		}
		if _, err := t.g.AddEdge(n.id, child.id, multilevel.EdgeOptions{Oriented: true}); err != nil {
			return err
		}
		*next = child
		return t.g.SetVisible(child.id, true)
	}
}

// InsertRandom inserts a key drawn uniformly from [0, TreeKeyRange).
func (t *BinaryTree) InsertRandom() error {
	return t.Insert(t.rng.IntN(TreeKeyRange))
}

// Steps returns n random insertions for [Animate].
func (t *BinaryTree) Steps(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = func(*graph.Graph) error { return t.InsertRandom() }
	}
	return steps
}

func (t *BinaryTree) newNode(key int, near vec.Vec3) (*treeNode, error) {
	pos := near.Add(vec.New(
		t.rng.Float64()-0.5,
		0.5+0.5*t.rng.Float64(),
		t.rng.Float64()-0.5,
	))
	id, err := t.g.AddVertex(pos)
	if err != nil {
		return nil, err
	}
	if err := t.g.SetVisible(id, false); err != nil {
		return nil, err
	}
	t.size++
	return &treeNode{key: key, id: id, pos: pos}, nil
}
