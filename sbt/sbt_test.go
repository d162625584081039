package sbt_test

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
	"github.com/grailbio/sketch/storage"
	"github.com/grailbio/sketch/storage/fs"
)

func newMH(t *testing.T, seqs ...string) *minhash.MinHash {
	t.Helper()
	mh, err := minhash.New(4, minhash.WithNum(100))
	require.NoError(t, err)
	for _, seq := range seqs {
		require.NoError(t, mh.AddSequence([]byte(seq)))
	}
	return mh
}

func newTestTree(t *testing.T, d int) (*sbt.Tree, string) {
	t.Helper()
	dir, err := ioutil.TempDir("", "sbttest")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	backend := fs.New(dir)
	factory := bitsketch.NewFactory(4, 4096, 3)
	return sbt.New(d, factory, backend, "fs"), dir
}

func TestAddNodeD2Invariant(t *testing.T) {
	tree, _ := newTestTree(t, 2)
	factory := tree.Factory
	ctx := context.Background()

	seqs := map[string]string{
		"a": "ACGTACGTACGTAAAA",
		"b": "ACGTACGTACGTCCCC",
		"c": "GGGGTTTTACGTACGT",
		"d": "TTTTGGGGACGTACGT",
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		leaf := sbt.NewLeaf(name, newMH(t, seqs[name]), factory)
		require.NoError(t, tree.AddNode(ctx, leaf))
	}

	root, ok := tree.Get(0)
	require.True(t, ok)
	rootBS, err := root.Data(ctx)
	require.NoError(t, err)

	for _, leaf := range tree.Leaves() {
		mh, err := leaf.MinHashData(ctx)
		require.NoError(t, err)
		for _, h := range mh.Hashes() {
			require.True(t, rootBS.Contains(h), "root must contain every leaf hash (leaf %s)", leaf.Name)
		}
	}
	require.Len(t, tree.Leaves(), 4)
}

func TestFindExactMatch(t *testing.T) {
	tree, _ := newTestTree(t, 2)
	factory := tree.Factory
	ctx := context.Background()

	target := newMH(t, "ACGTACGTACGTAAAA")
	decoy1 := newMH(t, "GGGGTTTTACGTACGT")
	decoy2 := newMH(t, "TTTTGGGGACGTACGT")

	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("target", target, factory)))
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("decoy1", decoy1, factory)))
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("decoy2", decoy2, factory)))

	hits, err := tree.Find(ctx, sbt.JaccardPredicate, target, 0.99, sbt.DFS)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "target", hits[0].Name)

	hitsBFS, err := tree.Find(ctx, sbt.JaccardPredicate, target, 0.99, sbt.BFS)
	require.NoError(t, err)
	require.Len(t, hitsBFS, 1)
	require.Equal(t, "target", hitsBFS[0].Name)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tree, dir := newTestTree(t, 2)
	factory := tree.Factory
	ctx := context.Background()

	mhA := newMH(t, "ACGTACGTACGTAAAA")
	mhB := newMH(t, "GGGGTTTTACGTACGT")
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("a", mhA, factory)))
	require.NoError(t, tree.AddNode(ctx, sbt.NewLeaf("b", mhB, factory)))

	tag := dir + "/mytree"
	require.NoError(t, tree.Save(ctx, tag))

	loaded, err := sbt.Load(ctx, tag+".sbt.json", factory, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, leafNames(loaded))

	hits, err := loaded.Find(ctx, sbt.JaccardPredicate, mhA, 0.99, sbt.DFS)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "a", hits[0].Name)
}

func TestCombine(t *testing.T) {
	treeA, _ := newTestTree(t, 2)
	treeB, _ := newTestTree(t, 2)
	ctx := context.Background()

	mhA := newMH(t, "ACGTACGTACGTAAAA")
	mhB := newMH(t, "GGGGTTTTACGTACGT")
	require.NoError(t, treeA.AddNode(ctx, sbt.NewLeaf("a", mhA, treeA.Factory)))
	require.NoError(t, treeB.AddNode(ctx, sbt.NewLeaf("b", mhB, treeB.Factory)))

	combined, err := sbt.Combine(ctx, treeA, treeB)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, leafNames(combined))
}

func leafNames(t *sbt.Tree) []string {
	var names []string
	for _, l := range t.Leaves() {
		names = append(names, l.Name)
	}
	return names
}

var _ storage.Backend = (*fs.Backend)(nil)
