package minhash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/minhash"
)

func TestBottomKBasic(t *testing.T) {
	m, err := minhash.New(5, minhash.WithNum(5))
	require.NoError(t, err)
	require.NoError(t, m.AddSequence([]byte("AAAAAAAAA")))
	require.Equal(t, 1, m.Count())
	sim, err := m.Similarity(m, true)
	require.NoError(t, err)
	require.Equal(t, 1.0, sim)
}

func TestBottomKCap(t *testing.T) {
	m, err := minhash.New(2, minhash.WithNum(2))
	require.NoError(t, err)
	for _, h := range []uint64{5, 1, 9, 3, 2} {
		m.AddHash(h)
	}
	require.Equal(t, []uint64{1, 2}, m.Hashes())
}

func TestSortedUnique(t *testing.T) {
	m, err := minhash.New(21, minhash.WithMaxHash(1000))
	require.NoError(t, err)
	for _, h := range []uint64{500, 10, 10, 999, 1, 1000, 2000} {
		m.AddHash(h)
	}
	hashes := m.Hashes()
	for i := 1; i < len(hashes); i++ {
		require.Less(t, hashes[i-1], hashes[i])
	}
	for _, h := range hashes {
		require.Less(t, h, uint64(1000))
	}
}

func TestMergeIncompatible(t *testing.T) {
	a, _ := minhash.New(21, minhash.WithNum(10))
	b, _ := minhash.New(31, minhash.WithNum(10))
	err := a.Merge(b)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.IncompatibleSketch))
}

func TestScaledContainment(t *testing.T) {
	a, _ := minhash.New(21, minhash.WithMaxHash(hashingMaxHash(1000)))
	b, _ := minhash.New(21, minhash.WithMaxHash(hashingMaxHash(1000)))
	for _, h := range []uint64{10, 20, 30} {
		a.AddHash(h)
		b.AddHash(h)
	}
	b.AddHash(40)
	b.AddHash(50)

	containA, err := a.ContainedBy(b)
	require.NoError(t, err)
	require.Equal(t, 1.0, containA)

	containB, err := b.ContainedBy(a)
	require.NoError(t, err)
	require.InDelta(t, 3.0/5.0, containB, 1e-9)
}

func TestSimilaritySymmetric(t *testing.T) {
	a, _ := minhash.New(21, minhash.WithNum(10))
	b, _ := minhash.New(21, minhash.WithNum(10))
	for _, h := range []uint64{1, 2, 3, 4} {
		a.AddHash(h)
	}
	for _, h := range []uint64{3, 4, 5, 6} {
		b.AddHash(h)
	}
	sab, err := a.Similarity(b, true)
	require.NoError(t, err)
	sba, err := b.Similarity(a, true)
	require.NoError(t, err)
	require.Equal(t, sab, sba)
	require.GreaterOrEqual(t, sab, 0.0)
	require.LessOrEqual(t, sab, 1.0)
}

func TestMD5OrderIndependent(t *testing.T) {
	a, _ := minhash.New(21, minhash.WithNum(10))
	b, _ := minhash.New(21, minhash.WithNum(10))
	for _, h := range []uint64{5, 1, 3} {
		a.AddHash(h)
	}
	for _, h := range []uint64{3, 5, 1} {
		b.AddHash(h)
	}
	require.Equal(t, a.MD5Sum(), b.MD5Sum())
}

func TestMD5IgnoresAbundance(t *testing.T) {
	a, _ := minhash.New(21, minhash.WithNum(10), minhash.WithAbundance())
	b, _ := minhash.New(21, minhash.WithNum(10), minhash.WithAbundance())
	a.AddHash(1)
	b.AddHash(1)
	b.AddHash(1)
	b.AddHash(1)
	require.Equal(t, a.MD5Sum(), b.MD5Sum())
}

// hashingMaxHash mirrors the scaled = floor(MAX_HASH/scaled) relationship
// for test readability.
func hashingMaxHash(scaled uint64) uint64 {
	return (^uint64(0)) / scaled
}
