package gather

import (
	"context"

	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
)

// CategorizeResult is one leaf's best match against an index.
type CategorizeResult struct {
	QueryName string
	BestName  string
	Score     float64
	Found     bool
}

// Categorize finds, for each (name, sketch) query, the single best match
// in tree scoring at or above threshold under JaccardPredicate — a thin
// per-leaf wrapper around the same Find machinery Gather and Search use.
func Categorize(ctx context.Context, tree *sbt.Tree, queries map[string]*minhash.MinHash, threshold float64) ([]CategorizeResult, error) {
	var results []CategorizeResult
	for name, query := range queries {
		hits, err := tree.Find(ctx, sbt.JaccardPredicate, query, threshold, sbt.DFS)
		if err != nil {
			return nil, err
		}
		r := CategorizeResult{QueryName: name}
		var best *sbt.Leaf
		var bestScore float64
		for _, leaf := range hits {
			mh, err := leaf.MinHashData(ctx)
			if err != nil {
				return nil, err
			}
			score, err := query.Similarity(mh, true)
			if err != nil {
				return nil, err
			}
			if best == nil || score > bestScore {
				best, bestScore = leaf, score
			}
		}
		if best != nil {
			r.BestName = best.Name
			r.Score = bestScore
			r.Found = true
		}
		results = append(results, r)
	}
	return results, nil
}
