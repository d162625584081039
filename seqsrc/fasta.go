package seqsrc

import (
	"io"

	"github.com/grailbio/sketch/encoding/fasta"
)

// fastaSource adapts a fully-loaded fasta.Fasta (an in-memory FASTA
// reader) to SequenceSource, iterating its SeqNames in order.
type fastaSource struct {
	f       fasta.Fasta
	names   []string
	pos     int
	lastErr error
}

// NewFasta reads all of r's FASTA records eagerly (fasta.New already
// requires this) and returns a SequenceSource over them.
func NewFasta(r io.Reader, opts ...fasta.Opt) (SequenceSource, error) {
	f, err := fasta.New(r, opts...)
	if err != nil {
		return nil, err
	}
	return &fastaSource{f: f, names: f.SeqNames()}, nil
}

func (s *fastaSource) Next() (Record, bool) {
	if s.pos >= len(s.names) {
		return Record{}, false
	}
	name := s.names[s.pos]
	s.pos++
	n, err := s.f.Len(name)
	if err != nil {
		s.lastErr = err
		return Record{}, false
	}
	seq, err := s.f.Get(name, 0, n)
	if err != nil {
		s.lastErr = err
		return Record{}, false
	}
	return Record{Name: name, Seq: []byte(seq)}, true
}

func (s *fastaSource) Err() error { return s.lastErr }
