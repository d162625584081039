package engine

import (
	"context"

	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
)

// Search scores the leaves of tree against query under predicate and
// returns those at or above threshold, in traversal order (they are not
// sorted by score). order selects DFS/BFS traversal; result contents are
// identical either way.
func Search(ctx context.Context, tree *sbt.Tree, query *minhash.MinHash, threshold float64, predicate sbt.Predicate, order sbt.Order) ([]*sbt.Leaf, error) {
	return tree.Find(ctx, predicate, query, threshold, order)
}
