package gather_test

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/gather"
	"github.com/grailbio/sketch/hashing"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
	"github.com/grailbio/sketch/storage/fs"
)

func scaledMH(t *testing.T, hashes ...uint64) *minhash.MinHash {
	t.Helper()
	mh, err := minhash.New(21, minhash.WithMaxHash(hashing.MaxHash/10))
	require.NoError(t, err)
	for _, h := range hashes {
		mh.AddHash(h)
	}
	return mh
}

func newGatherTree(t *testing.T) *sbt.Tree {
	t.Helper()
	dir, err := ioutil.TempDir("", "gathertest")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return sbt.New(2, bitsketch.NewFactory(21, 4096, 3), fs.New(dir), "fs")
}

func TestGatherDisjointCover(t *testing.T) {
	ctx := context.Background()
	tree := newGatherTree(t)

	scale := hashing.MaxHash / 10
	xHashes := []uint64{1, 2, 3, 4, 5}
	yHashes := []uint64{100, 101, 102}
	zHashes := []uint64{900001, 900002}
	for i := range xHashes {
		xHashes[i] = xHashes[i] % scale
	}
	for i := range yHashes {
		yHashes[i] = yHashes[i] % scale
	}

	x := scaledMH(t, xHashes...)
	y := scaledMH(t, yHashes...)
	z := scaledMH(t, zHashes...)

	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("X", x, tree.Factory)))
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("Y", y, tree.Factory)))
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("Z", z, tree.Factory)))

	query := scaledMH(t, append(append([]uint64{}, xHashes...), yHashes...)...)

	matches, err := gather.Gather(ctx, []*sbt.Tree{tree}, query, 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	var names []string
	var sumUnique float64
	for _, m := range matches {
		names = append(names, m.Name)
		sumUnique += m.FUniqueToQuery
	}
	require.ElementsMatch(t, []string{"X", "Y"}, names)
	require.InDelta(t, 1.0, sumUnique, 1e-9)
}

func TestCategorizeBestMatch(t *testing.T) {
	ctx := context.Background()
	tree := newGatherTree(t)

	a := scaledMH(t, 1, 2, 3, 4)
	b := scaledMH(t, 900001, 900002)
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("A", a, tree.Factory)))
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("B", b, tree.Factory)))

	queries := map[string]*minhash.MinHash{"q": scaledMH(t, 1, 2, 3, 4)}
	results, err := gather.Categorize(ctx, tree, queries, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Found)
	require.Equal(t, "A", results[0].BestName)
}
