package hashing

// Moltype selects how a sequence's bytes are interpreted into k-mers.
type Moltype int

const (
	// DNA treats input as nucleotide sequence; k-mers are canonicalized
	// to the lexicographic minimum of themselves and their reverse
	// complement, and windows containing a non-ACGT byte are skipped.
	DNA Moltype = iota
	// Protein treats input as amino-acid sequence; k-mers are taken
	// verbatim, skipping windows containing '*' (stop) or 'X' (unknown).
	Protein
	// DNAToProtein translates DNA input across all six reading frames
	// (3 forward, 3 reverse-complement) and emits protein k-mers from
	// the stop-free stretches of each.
	DNAToProtein
)
