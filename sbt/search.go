package sbt

import (
	"context"

	"github.com/grailbio/sketch/minhash"
)

// Order controls traversal strategy for Find.
type Order int

const (
	DFS Order = iota
	BFS
)

// Predicate scores a node against query and reports whether the subtree
// rooted at it is worth descending into (internal nodes) or should be
// reported as a hit (leaves). internal is true iff the node is an
// Internal node (leaf is then nil), in which case the returned score is
// an upper bound on what any descendant leaf could score.
type Predicate func(query *minhash.MinHash, leaf *minhash.MinHash, bloomCommon int, bloomTotal int, internal bool) float64

// JaccardPredicate scores by Jaccard similarity at leaves, and by the
// containment-in-bloom-filter upper bound (common bits over query size)
// at internal nodes — an internal node's estimated similarity can never
// exceed its containment of the query, since Jaccard <= containment.
func JaccardPredicate(query, leaf *minhash.MinHash, bloomCommon, bloomTotal int, internal bool) float64 {
	if !internal {
		sim, err := query.Similarity(leaf, true)
		if err != nil {
			return 0
		}
		return sim
	}
	if query.Count() == 0 {
		return 0
	}
	return float64(bloomCommon) / float64(query.Count())
}

// ContainmentPredicate scores by how much of query is contained in the
// node, both at leaves (exact) and internal nodes (Bloom-filter bound).
func ContainmentPredicate(query, leaf *minhash.MinHash, bloomCommon, bloomTotal int, internal bool) float64 {
	if !internal {
		c, err := query.ContainedBy(leaf)
		if err != nil {
			return 0
		}
		return c
	}
	if query.Count() == 0 {
		return 0
	}
	return float64(bloomCommon) / float64(query.Count())
}

type workItem struct {
	pos int
}

// Find returns every Leaf whose predicate score against query meets
// threshold, pruning subtrees whose internal-node upper bound falls
// below threshold. order selects depth-first or breadth-first subtree
// visitation; the result set is identical either way, only the search
// order differs.
func (t *Tree) Find(ctx context.Context, predicate Predicate, query *minhash.MinHash, threshold float64, order Order) ([]*Leaf, error) {
	if _, ok := t.nodes[0]; !ok {
		return nil, nil
	}

	var hits []*Leaf
	queue := []workItem{{pos: 0}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		node, ok := t.nodes[item.pos]
		if !ok {
			continue
		}
		bs, err := node.Data(ctx)
		if err != nil {
			return nil, err
		}
		common := bs.CountCommon(query.Hashes())

		if leaf, isLeaf := node.(*Leaf); isLeaf {
			mh, err := leaf.MinHashData(ctx)
			if err != nil {
				return nil, err
			}
			score := predicate(query, mh, common, query.Count(), false)
			if score >= threshold {
				hits = append(hits, leaf)
			}
			continue
		}

		bound := predicate(query, nil, common, query.Count(), true)
		if bound < threshold {
			continue
		}

		var children []workItem
		for i := 0; i < t.D; i++ {
			cp := childPos(item.pos, i, t.D)
			if _, ok := t.nodes[cp]; ok {
				children = append(children, workItem{pos: cp})
			}
		}
		switch order {
		case DFS:
			queue = append(children, queue...)
		default: // BFS
			queue = append(queue, children...)
		}
	}
	return hits, nil
}
