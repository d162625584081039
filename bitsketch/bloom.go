// Package bitsketch implements the Bloom-filter abstraction used to
// propagate approximate set membership up a Sequence Bloom Tree.
package bitsketch

import (
	"github.com/bits-and-blooms/bitset"
	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/sketch/minhash"
)

// BitSketch is a Bloom filter over 64-bit k-mer hashes, built from
// NTables independent bit tables of Tablesize bits each (the standard
// Kirsch–Mitzenmacher double-hashing scheme: NTables probe positions are
// derived from two base hashes rather than NTables independent hash
// functions).
type BitSketch struct {
	Ksize     uint32
	Tablesize uint64
	NTables   uint32

	tables []*bitset.BitSet
}

func newBitSketch(ksize uint32, tablesize uint64, nTables uint32) *BitSketch {
	bs := &BitSketch{Ksize: ksize, Tablesize: tablesize, NTables: nTables}
	bs.tables = make([]*bitset.BitSet, nTables)
	for i := range bs.tables {
		bs.tables[i] = bitset.New(uint(tablesize))
	}
	return bs
}

func probeIndex(hash uint64, table uint32, tablesize uint64) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(hash >> (8 * i))
	}
	h2 := farm.Hash64(buf[:])
	return (hash + uint64(table)*h2) % tablesize
}

// Insert adds hash to the filter.
func (b *BitSketch) Insert(hash uint64) {
	for i := uint32(0); i < b.NTables; i++ {
		b.tables[i].Set(uint(probeIndex(hash, i, b.Tablesize)))
	}
}

// InsertMinHash ORs every hash of mh into the filter.
func (b *BitSketch) InsertMinHash(mh *minhash.MinHash) {
	for _, h := range mh.Hashes() {
		b.Insert(h)
	}
}

// Contains reports whether hash is (probably) present: true unless any
// of its NTables probe positions is unset, in which case it is
// definitely absent.
func (b *BitSketch) Contains(hash uint64) bool {
	for i := uint32(0); i < b.NTables; i++ {
		if !b.tables[i].Test(uint(probeIndex(hash, i, b.Tablesize))) {
			return false
		}
	}
	return true
}

// CountCommon returns the number of hashes in the slice the filter
// (probably) contains; used at SBT internal nodes to bound Jaccard and
// containment estimates.
func (b *BitSketch) CountCommon(hashes []uint64) int {
	n := 0
	for _, h := range hashes {
		if b.Contains(h) {
			n++
		}
	}
	return n
}

// UnionInto performs the Bloom-union invariant step: it ORs b's bits
// into parent's bits table-by-table. Both sketches must share the same
// factory parameters.
func (b *BitSketch) UnionInto(parent *BitSketch) {
	for i := uint32(0); i < b.NTables; i++ {
		parent.tables[i].InPlaceUnion(b.tables[i])
	}
}

// CountOccupied returns the total number of set bits across every table,
// a rough occupancy/FPR proxy.
func (b *BitSketch) CountOccupied() uint64 {
	var n uint64
	for _, t := range b.tables {
		n += uint64(t.Count())
	}
	return n
}
