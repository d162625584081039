package engine

import (
	"context"

	"github.com/grailbio/sketch/gather"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
)

// Gather greedily decomposes query against trees via repeated
// best-containment selection.
func Gather(ctx context.Context, trees []*sbt.Tree, query *minhash.MinHash, thresholdBP uint64) ([]gather.Match, error) {
	return gather.Gather(ctx, trees, query, thresholdBP)
}

// Categorize finds each query's single best match in tree.
func Categorize(ctx context.Context, tree *sbt.Tree, queries map[string]*minhash.MinHash, threshold float64) ([]gather.CategorizeResult, error) {
	return gather.Categorize(ctx, tree, queries, threshold)
}
