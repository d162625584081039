// Package seqsrc defines the sequence-record collaborator boundary
// compute consumes, and concrete adapters over the fasta/fastq readers.
package seqsrc

// Record is a single named sequence.
type Record struct {
	Name string
	Seq  []byte
}

// SequenceSource streams Records from an underlying file format. Next
// returns false once exhausted or on error; Err reports which.
type SequenceSource interface {
	Next() (Record, bool)
	Err() error
}

// Logger receives progress/diagnostic notifications from compute/index
// operations, decoupling engine from any specific logging backend.
type Logger interface {
	Notify(format string, args ...interface{})
}
