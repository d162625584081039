package engine_test

import (
	"context"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/engine"
	"github.com/grailbio/sketch/sbt"
	"github.com/grailbio/sketch/seqsrc"
	"github.com/grailbio/sketch/storage/fs"
)

func TestComputeAndIndexAndSearch(t *testing.T) {
	ctx := context.Background()

	sourceA, err := seqsrc.NewFasta(strings.NewReader(">a\nACGTACGTACGTACGTACGTACGTACGT\n"))
	require.NoError(t, err)
	sourceB, err := seqsrc.NewFasta(strings.NewReader(">b\nTTTTGGGGCCCCAAAATTTTGGGGCCCC\n"))
	require.NoError(t, err)

	opts := engine.ComputeOptions{Ksize: 21, Num: 50}
	sigs, err := engine.Compute(ctx, map[string]seqsrc.SequenceSource{
		"sample-a": sourceA,
		"sample-b": sourceB,
	}, opts, nil)
	require.NoError(t, err)
	require.Len(t, sigs, 2)

	dir, err := ioutil.TempDir("", "enginetest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	indexOpts := engine.IndexOptions{D: 2, Tablesize: 4096, NTables: 3, Ksize: 21, Moltype: "DNA"}
	tree, err := engine.Index(ctx, sigs, indexOpts, fs.New(dir), "fs", dir+"/idx")
	require.NoError(t, err)
	require.Len(t, tree.Leaves(), 2)

	sk, err := sigs[0].Select(21, "DNA")
	require.NoError(t, err)
	query, err := sk.ToMinHash()
	require.NoError(t, err)

	hits, err := engine.Search(ctx, tree, query, 0.99, sbt.JaccardPredicate, sbt.DFS)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, sigs[0].Name, hits[0].Name)
}
