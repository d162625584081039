package seqsrc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/seqsrc"
)

func TestFastaSource(t *testing.T) {
	data := ">seq1\nACGTACGT\n>seq2 comment\nTTTT\n"
	src, err := seqsrc.NewFasta(strings.NewReader(data))
	require.NoError(t, err)

	var records []seqsrc.Record
	for {
		rec, ok := src.Next()
		if !ok {
			break
		}
		records = append(records, rec)
	}
	require.NoError(t, src.Err())
	require.Len(t, records, 2)
	require.Equal(t, "seq1", records[0].Name)
	require.Equal(t, "ACGTACGT", string(records[0].Seq))
	require.Equal(t, "seq2", records[1].Name)
}

func TestFastqSource(t *testing.T) {
	data := "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\nIIII\n"
	src := seqsrc.NewFastq(strings.NewReader(data))

	var records []seqsrc.Record
	for {
		rec, ok := src.Next()
		if !ok {
			break
		}
		records = append(records, rec)
	}
	require.NoError(t, src.Err())
	require.Len(t, records, 2)
	require.Equal(t, "@r1", records[0].Name)
	require.Equal(t, "ACGT", string(records[0].Seq))
}
