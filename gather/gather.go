// Package gather implements greedy containment decomposition of a
// metagenome sketch against one or more Sequence Bloom Trees, plus the
// related per-leaf categorize operation.
package gather

import (
	"context"
	"sort"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
)

// Match is one emitted gather record.
type Match struct {
	Name           string
	MD5Sum         string
	Filename       string
	IntersectBP    uint64
	FOrigQuery     float64
	FUniqueToQuery float64
	FMatch         float64
}

// candidate is a leaf found to (probably, via Bloom bound) contain
// enough of the current query to be worth exact-scoring.
type candidate struct {
	leaf  *sbt.Leaf
	mh    *minhash.MinHash
	count int // |Q ∩ M|, exact
}

// Gather greedily decomposes query against trees, repeatedly selecting
// the leaf whose MinHash maximizes |Q ∩ M| (ties broken by larger |M|,
// then leaf name ascending) until no candidate clears thresholdBP or the
// remaining query is empty. query is cloned internally; the caller's
// sketch is never mutated.
func Gather(ctx context.Context, trees []*sbt.Tree, query *minhash.MinHash, thresholdBP uint64) ([]Match, error) {
	if query.Scaled() == 0 {
		return nil, errs.E(errs.InvalidInput, "gather requires a scaled query sketch")
	}
	scaled := query.Scaled()
	q0 := query
	q := query.Clone()

	var matches []Match
	for {
		if q.IsEmpty() {
			break
		}
		bound := float64(thresholdBP) / (float64(scaled) * float64(q.Count()))

		best, err := bestCandidate(ctx, trees, q, bound)
		if err != nil {
			return nil, err
		}
		if best == nil {
			break
		}
		intersectBP := uint64(best.count) * scaled
		if intersectBP < thresholdBP {
			break
		}

		q0CommonCount, err := commonCount(q0, best.mh)
		if err != nil {
			return nil, err
		}

		matches = append(matches, Match{
			Name:           best.leaf.Name,
			MD5Sum:         best.mh.MD5Sum(),
			Filename:       best.leaf.Filename,
			IntersectBP:    intersectBP,
			FOrigQuery:     float64(q0CommonCount) / float64(q0.Count()),
			FUniqueToQuery: float64(best.count) / float64(q0.Count()),
			FMatch:         float64(best.count) / float64(best.mh.Count()),
		})

		common, err := q.IntersectionHashes(best.mh)
		if err != nil {
			return nil, err
		}
		q.RemoveHashes(common)
	}
	return matches, nil
}

func commonCount(a, b *minhash.MinHash) (int, error) {
	hashes, err := a.IntersectionHashes(b)
	if err != nil {
		return 0, err
	}
	return len(hashes), nil
}

// bestCandidate scans every tree for leaves whose Bloom-containment
// bound clears bound, exact-scores each, and returns the winner: largest
// intersection first, ties broken by larger match size, then by leaf
// name ascending.
func bestCandidate(ctx context.Context, trees []*sbt.Tree, q *minhash.MinHash, bound float64) (*candidate, error) {
	var candidates []candidate
	for _, tree := range trees {
		leaves, err := tree.Find(ctx, sbt.ContainmentPredicate, q, bound, sbt.DFS)
		if err != nil {
			return nil, err
		}
		for _, leaf := range leaves {
			mh, err := leaf.MinHashData(ctx)
			if err != nil {
				return nil, err
			}
			hashes, err := q.IntersectionHashes(mh)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, candidate{leaf: leaf, mh: mh, count: len(hashes)})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.count != cj.count {
			return ci.count > cj.count
		}
		if ci.mh.Count() != cj.mh.Count() {
			return ci.mh.Count() > cj.mh.Count()
		}
		return ci.leaf.Name < cj.leaf.Name
	})
	return &candidates[0], nil
}
