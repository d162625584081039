package seqsrc

import (
	"io"

	"github.com/grailbio/sketch/encoding/fastq"
)

// fastqSource adapts a fastq.Scanner (teacher's streaming FASTQ reader)
// to SequenceSource; Unk/Qual fields are skipped since compute only
// needs ID and Seq.
type fastqSource struct {
	scanner *fastq.Scanner
	err     error
}

// NewFastq returns a SequenceSource that streams r's FASTQ records.
func NewFastq(r io.Reader) SequenceSource {
	return &fastqSource{scanner: fastq.NewScanner(r, fastq.ID|fastq.Seq)}
}

func (s *fastqSource) Next() (Record, bool) {
	var read fastq.Read
	if !s.scanner.Scan(&read) {
		s.err = s.scanner.Err()
		return Record{}, false
	}
	return Record{Name: read.ID, Seq: []byte(read.Seq)}, true
}

func (s *fastqSource) Err() error { return s.err }
