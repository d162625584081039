package hashing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/hashing"
)

func collectKmers(seq []byte, k int, mt hashing.Moltype) []string {
	it := hashing.NewKmerIter(seq, k, mt)
	var out []string
	for {
		kmer, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, string(kmer))
	}
	return out
}

func TestDNACanonical(t *testing.T) {
	// "ATGGA" and its reverse complement "TCCAT"; canonical form is the
	// lexicographic minimum of the two, and must be the same for both.
	a := collectKmers([]byte("ATGGA"), 5, hashing.DNA)
	b := collectKmers([]byte("TCCAT"), 5, hashing.DNA)
	require.Equal(t, a, b)
	require.Equal(t, hashing.Hash64([]byte(a[0]), hashing.DefaultSeed),
		hashing.Hash64([]byte(b[0]), hashing.DefaultSeed))
}

func TestDNASkipsNonACGT(t *testing.T) {
	got := collectKmers([]byte("ACGNACGT"), 4, hashing.DNA)
	// windows ACGN, CGNA, GNAC, NACG all contain an N and are skipped;
	// only ACGT is clean.
	require.Equal(t, []string{"ACGT"}, got)
}

func TestProteinSkipsStopAndUnknown(t *testing.T) {
	got := collectKmers([]byte("MK*ARX"), 2, hashing.Protein)
	require.Equal(t, []string{"MK", "AR"}, got)
	// windows "K*", "*A" contain '*'; "RX" contains 'X'.
}

func TestDNAToProteinSixFrames(t *testing.T) {
	got := collectKmers([]byte("ATGAAATAG"), 2, hashing.DNAToProtein)
	// forward frame 0: ATG AAA TAG -> M K *; stop-free stretch "MK"
	// yields exactly one 2-mer "MK".
	require.Contains(t, got, "MK")
}

func TestHash64Deterministic(t *testing.T) {
	h1 := hashing.Hash64([]byte("ACGTA"), hashing.DefaultSeed)
	h2 := hashing.Hash64([]byte("ACGTA"), hashing.DefaultSeed)
	require.Equal(t, h1, h2)
	h3 := hashing.Hash64([]byte("ACGTT"), hashing.DefaultSeed)
	require.NotEqual(t, h1, h3)
}
