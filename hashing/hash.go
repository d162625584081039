// Package hashing computes canonical k-mers and their seeded 64-bit hashes
// for DNA and protein sequences. It is the innermost loop of the sketch
// engine: one call per k-mer window, allocation-free where possible.
package hashing

import (
	"github.com/spaolacci/murmur3"
)

// DefaultSeed is the default MurmurHash3 seed used throughout the sketch
// engine, matching sourmash's own default.
const DefaultSeed = 42

// MaxHash is the largest representable 64-bit hash value, used by scaled
// sketches to derive their hash-space cutoff.
const MaxHash = ^uint64(0)

// Hash64 returns the low 64 bits of the seeded MurmurHash3 x64-128 digest
// of data. kmer is hashed as its raw ASCII bytes (the canonical DNA form,
// or the protein k-mer verbatim), matching the wire tag "0.murmur64" used
// by the signature JSON format.
func Hash64(kmer []byte, seed uint64) uint64 {
	lo, _ := murmur3.Sum128WithSeed(kmer, uint32(seed))
	return lo
}
