package bitsketch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/minhash"
)

func TestInsertContains(t *testing.T) {
	f := bitsketch.NewFactory(21, 1<<14, 4)
	bs := f.New()
	bs.Insert(12345)
	bs.Insert(67890)
	require.True(t, bs.Contains(12345))
	require.True(t, bs.Contains(67890))
}

func TestUnionInvariant(t *testing.T) {
	f := bitsketch.NewFactory(21, 1<<14, 4)
	child := f.New()
	child.Insert(111)
	child.Insert(222)
	parent := f.New()
	child.UnionInto(parent)
	require.True(t, parent.Contains(111))
	require.True(t, parent.Contains(222))
}

func TestInsertMinHash(t *testing.T) {
	mh, err := minhash.New(21, minhash.WithNum(10))
	require.NoError(t, err)
	require.NoError(t, mh.AddSequence([]byte("ACGTACGTACGTACGTACGTACGTACGT")))

	f := bitsketch.NewFactory(21, 1<<14, 4)
	bs := f.New()
	bs.InsertMinHash(mh)
	for _, h := range mh.Hashes() {
		require.True(t, bs.Contains(h))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := bitsketch.NewFactory(21, 1<<12, 3)
	bs := f.New()
	for _, h := range []uint64{1, 2, 3, 1000, 99999} {
		bs.Insert(h)
	}

	var buf bytes.Buffer
	require.NoError(t, bs.Save(&buf))

	loaded, err := bitsketch.Load(&buf)
	require.NoError(t, err)
	require.Equal(t, bs.Ksize, loaded.Ksize)
	require.Equal(t, bs.NTables, loaded.NTables)
	require.Equal(t, bs.Tablesize, loaded.Tablesize)
	for _, h := range []uint64{1, 2, 3, 1000, 99999} {
		require.True(t, loaded.Contains(h))
	}
}

func TestLoadRejectsCorruption(t *testing.T) {
	f := bitsketch.NewFactory(21, 1<<12, 3)
	bs := f.New()
	bs.Insert(1)
	var buf bytes.Buffer
	require.NoError(t, bs.Save(&buf))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err := bitsketch.Load(bytes.NewReader(corrupted))
	require.Error(t, err)
}
