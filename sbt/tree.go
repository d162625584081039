package sbt

import (
	"context"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/storage"
)

// Tree is an implicit d-ary Sequence Bloom Tree over a sparse
// position→node map, chosen over a dense array for trees with large d
// or many unfilled positions.
type Tree struct {
	D       int
	Factory *bitsketch.Factory
	Storage storage.Backend
	// BackendName is the storage registry name Storage was constructed
	// under (e.g. "fs", "tar"); it is recorded in the manifest's
	// storage.backend field so Load can reconstruct the same kind of
	// backend.
	BackendName string

	nodes map[int]Node
}

// New returns an empty tree with branching factor d, persisting through
// backend (registered in the storage package under backendName).
func New(d int, factory *bitsketch.Factory, backend storage.Backend, backendName string) *Tree {
	return &Tree{D: d, Factory: factory, Storage: backend, BackendName: backendName, nodes: make(map[int]Node)}
}

func parentPos(pos, d int) int { return (pos - 1) / d }
func childPos(pos, i, d int) int { return d*pos + i + 1 }

// Get returns the node at pos, if any.
func (t *Tree) Get(pos int) (Node, bool) {
	n, ok := t.nodes[pos]
	return n, ok
}

// Leaves returns every Leaf in the tree, in ascending position order.
func (t *Tree) Leaves() []*Leaf {
	var positions []int
	for pos, n := range t.nodes {
		if _, ok := n.(*Leaf); ok {
			positions = append(positions, pos)
		}
	}
	sortInts(positions)
	leaves := make([]*Leaf, len(positions))
	for i, pos := range positions {
		leaves[i] = t.nodes[pos].(*Leaf)
	}
	return leaves
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func (t *Tree) nextEmptyPosition() int {
	for pos := 0; ; pos++ {
		if _, ok := t.nodes[pos]; !ok {
			return pos
		}
	}
}

func (t *Tree) firstFreeChild(p int) (int, bool) {
	for i := 0; i < t.D; i++ {
		if _, ok := t.nodes[childPos(p, i, t.D)]; !ok {
			return i, true
		}
	}
	return 0, false
}

func (t *Tree) unionUp(ctx context.Context, child, parent Node) error {
	childData, err := child.Data(ctx)
	if err != nil {
		return err
	}
	parentData, err := parent.Data(ctx)
	if err != nil {
		return err
	}
	childData.UnionInto(parentData)
	return nil
}

// propagateFrom ORs leaf's bits into every ancestor of pos, from pos's
// parent up to the root (pos itself must already have leaf's bits
// unioned in by the caller).
func (t *Tree) propagateFrom(ctx context.Context, leaf *Leaf, pos int) error {
	for pos != 0 {
		pPos := parentPos(pos, t.D)
		parent, ok := t.nodes[pPos]
		if !ok {
			return errs.E(errs.CorruptIndex, "missing ancestor at position %d", pPos)
		}
		if err := t.unionUp(ctx, leaf, parent); err != nil {
			return err
		}
		pos = pPos
	}
	return nil
}

// newInternalNode returns a fresh Internal holding an empty Bloom filter
// built by t.Factory.
func (t *Tree) newInternalNode() *Internal {
	n := newInternal()
	n.setData(t.Factory.New())
	return n
}

// AddNode inserts leaf into the tree, maintaining the Bloom-union
// invariant on every ancestor.
func (t *Tree) AddNode(ctx context.Context, leaf *Leaf) error {
	if len(t.nodes) == 0 {
		t.nodes[0] = t.newInternalNode()
	}
	posNew := t.nextEmptyPosition()
	p := parentPos(posNew, t.D)
	return t.placeLeafUnder(ctx, p, leaf)
}

// placeLeafUnder handles the three cases for the node found at position
// p: empty, an existing leaf needing to be displaced, or an existing
// internal node with room for another child.
func (t *Tree) placeLeafUnder(ctx context.Context, p int, leaf *Leaf) error {
	existing, ok := t.nodes[p]
	if !ok {
		// p is None: materialize the parent as a fresh internal node,
		// then place the leaf as its first child.
		t.nodes[p] = t.newInternalNode()
		return t.placeLeafUnder(ctx, p, leaf)
	}
	if displaced, isLeaf := existing.(*Leaf); isLeaf {
		// p is a Leaf: a new internal node is needed here.
		internal := t.newInternalNode()
		t.nodes[p] = internal
		c0 := childPos(p, 0, t.D)
		c1 := childPos(p, 1, t.D)
		t.nodes[c0] = displaced
		t.nodes[c1] = leaf
		if err := t.unionUp(ctx, displaced, internal); err != nil {
			return err
		}
		if err := t.unionUp(ctx, leaf, internal); err != nil {
			return err
		}
		return t.propagateFrom(ctx, leaf, p)
	}
	// p is an Internal node; place leaf at its first free child slot.
	internal := existing.(*Internal)
	slot, ok := t.firstFreeChild(p)
	if !ok {
		return errs.E(errs.CorruptIndex, "internal node at %d has no free child slot", p)
	}
	t.nodes[childPos(p, slot, t.D)] = leaf
	if err := t.unionUp(ctx, leaf, internal); err != nil {
		return err
	}
	return t.propagateFrom(ctx, leaf, p)
}
