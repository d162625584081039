package fasta_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/encoding/fasta"
)

var fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"

func TestGet(t *testing.T) {
	tests := []struct {
		seq        string
		start, end uint64
		want       string
		wantErr    bool
	}{
		{"seq1", 1, 2, "C", false},
		{"seq1", 1, 6, "CGTAC", false},
		{"seq1", 0, 12, "ACGTACGTACGT", false},
		{"seq1", 10, 12, "GT", false},
		{"seq2", 0, 8, "ACGTACGT", false},
		{"seq2", 2, 5, "GTA", false},
		{"seq0", 0, 1, "", true},
		{"seq1", 10, 13, "", true},
		{"seq1", 4, 3, "", true},
	}
	f, err := fasta.New(strings.NewReader(fastaData))
	require.NoError(t, err)
	for _, tt := range tests {
		got, err := f.Get(tt.seq, tt.start, tt.end)
		if tt.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestLen(t *testing.T) {
	f, err := fasta.New(strings.NewReader(fastaData))
	require.NoError(t, err)

	n, err := f.Len("seq1")
	require.NoError(t, err)
	require.Equal(t, uint64(12), n)

	n, err = f.Len("seq2")
	require.NoError(t, err)
	require.Equal(t, uint64(8), n)

	_, err = f.Len("seq0")
	require.Error(t, err)
}

func TestSeqNames(t *testing.T) {
	f, err := fasta.New(strings.NewReader(fastaData))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"seq1", "seq2"}, f.SeqNames())
}

func TestClean(t *testing.T) {
	data := ">seq1\nACGTRYKMN\nacgtn\n"
	f, err := fasta.New(strings.NewReader(data), fasta.OptClean)
	require.NoError(t, err)
	n, err := f.Len("seq1")
	require.NoError(t, err)
	got, err := f.Get("seq1", 0, n)
	require.NoError(t, err)
	require.Equal(t, "ACGTNNNNNACGTN", got)
}
