// Package minhash implements bottom-k and scaled MinHash sketches over
// 64-bit k-mer hashes, with optional abundance tracking.
package minhash

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/hashing"
)

// MinHash is a sketch of the k-mer set of one or more sequences. It is
// mutated only through AddHash/AddSequence/AddProtein/Merge/RemoveHashes, and is safe
// to read concurrently once the caller stops mutating it; it carries no
// internal locking: it is a single-threaded cooperative core, with any
// parallelism owned by the caller.
type MinHash struct {
	Ksize          uint32
	Seed           uint64
	IsProtein      bool
	TrackAbundance bool
	// Num is the bottom-k cap; Num>0 selects bottom-k mode.
	Num uint64
	// MaxHash is the scaled-mode cutoff; MaxHash>0 (with Num==0) selects
	// scaled mode. All hashes below MaxHash are retained.
	MaxHash uint64

	hashes     []uint64 // sorted ascending, unique
	abundances map[uint64]uint64
}

// Opt configures a new MinHash.
type Opt func(*MinHash)

// WithSeed overrides the default MurmurHash3 seed.
func WithSeed(seed uint64) Opt { return func(m *MinHash) { m.Seed = seed } }

// WithProtein marks the sketch as holding protein k-mers.
func WithProtein() Opt { return func(m *MinHash) { m.IsProtein = true } }

// WithAbundance enables a parallel hash→count abundance map.
func WithAbundance() Opt { return func(m *MinHash) { m.TrackAbundance = true } }

// WithNum selects bottom-k mode, retaining at most num hashes.
func WithNum(num uint64) Opt { return func(m *MinHash) { m.Num = num } }

// WithMaxHash selects scaled mode, retaining every hash below maxHash.
func WithMaxHash(maxHash uint64) Opt { return func(m *MinHash) { m.MaxHash = maxHash } }

// New creates an empty MinHash with the given k-mer size. Exactly one of
// WithNum or WithMaxHash must be supplied.
func New(ksize uint32, opts ...Opt) (*MinHash, error) {
	m := &MinHash{Ksize: ksize, Seed: hashing.DefaultSeed}
	for _, opt := range opts {
		opt(m)
	}
	if (m.Num > 0) == (m.MaxHash > 0) {
		return nil, errs.E(errs.InvalidInput, "exactly one of num or max_hash must be set")
	}
	if m.TrackAbundance {
		m.abundances = make(map[uint64]uint64)
	}
	return m, nil
}

// Scaled returns floor(MAX_HASH/MaxHash) in scaled mode, or 0 in bottom-k
// mode.
func (m *MinHash) Scaled() uint64 {
	if m.MaxHash == 0 {
		return 0
	}
	return hashing.MaxHash / m.MaxHash
}

// Count returns the number of distinct hashes currently stored.
func (m *MinHash) Count() int { return len(m.hashes) }

// IsEmpty reports whether the sketch holds no hashes.
func (m *MinHash) IsEmpty() bool { return len(m.hashes) == 0 }

// Hashes returns the sorted, unique hash set. The returned slice must not
// be mutated by the caller.
func (m *MinHash) Hashes() []uint64 { return m.hashes }

// Abundances returns a snapshot of the abundance map, or nil if abundance
// tracking is disabled.
func (m *MinHash) Abundances() map[uint64]uint64 {
	if m.abundances == nil {
		return nil
	}
	out := make(map[uint64]uint64, len(m.abundances))
	for h, c := range m.abundances {
		out[h] = c
	}
	return out
}

// Clone returns a deep copy of m.
func (m *MinHash) Clone() *MinHash {
	c := &MinHash{
		Ksize: m.Ksize, Seed: m.Seed, IsProtein: m.IsProtein,
		TrackAbundance: m.TrackAbundance, Num: m.Num, MaxHash: m.MaxHash,
	}
	c.hashes = append([]uint64(nil), m.hashes...)
	if m.abundances != nil {
		c.abundances = make(map[uint64]uint64, len(m.abundances))
		for h, n := range m.abundances {
			c.abundances[h] = n
		}
	}
	return c
}

// AddHash inserts a single hash, respecting bottom-k/scaled admission
// rules, and increments its abundance count if tracking is enabled.
func (m *MinHash) AddHash(h uint64) {
	if m.Num > 0 {
		m.addHashBottomK(h)
	} else {
		m.addHashScaled(h)
	}
}

func (m *MinHash) addHashScaled(h uint64) {
	if h >= m.MaxHash {
		return
	}
	m.insertSorted(h)
}

func (m *MinHash) addHashBottomK(h uint64) {
	idx, found := m.search(h)
	if found {
		m.bumpAbundance(h)
		return
	}
	if uint64(len(m.hashes)) < m.Num {
		m.insertAt(idx, h)
		return
	}
	if len(m.hashes) == 0 {
		return
	}
	max := m.hashes[len(m.hashes)-1]
	if h >= max {
		return
	}
	// Replace the current max with h, keeping the set sorted.
	m.hashes = m.hashes[:len(m.hashes)-1]
	if m.abundances != nil {
		delete(m.abundances, max)
	}
	idx, _ = m.search(h)
	m.insertAt(idx, h)
}

func (m *MinHash) search(h uint64) (int, bool) {
	idx := sort.Search(len(m.hashes), func(i int) bool { return m.hashes[i] >= h })
	return idx, idx < len(m.hashes) && m.hashes[idx] == h
}

func (m *MinHash) insertSorted(h uint64) {
	idx, found := m.search(h)
	if found {
		m.bumpAbundance(h)
		return
	}
	m.insertAt(idx, h)
}

func (m *MinHash) insertAt(idx int, h uint64) {
	m.hashes = append(m.hashes, 0)
	copy(m.hashes[idx+1:], m.hashes[idx:])
	m.hashes[idx] = h
	m.bumpAbundance(h)
}

func (m *MinHash) bumpAbundance(h uint64) {
	if m.abundances == nil {
		return
	}
	m.abundances[h]++
}

// AddSequence hashes the canonical k-mers of a DNA nucleotide sequence
// into the sketch, translating across all six reading frames first if
// IsProtein is set. It returns errs.InvalidInput if seq is shorter than
// Ksize (for a protein sketch, Ksize*3, since translation is codon
// aligned).
func (m *MinHash) AddSequence(seq []byte) error {
	moltype := hashing.DNA
	k := int(m.Ksize)
	if m.IsProtein {
		moltype = hashing.DNAToProtein
	}
	minLen := k
	if m.IsProtein {
		minLen = k * 3
	}
	if len(seq) < minLen {
		return errs.E(errs.InvalidInput, "sequence length %d shorter than k-mer window %d", len(seq), minLen)
	}
	it := hashing.NewKmerIter(seq, k, moltype)
	for {
		kmer, ok := it.Next()
		if !ok {
			break
		}
		m.AddHash(hashing.Hash64(kmer, m.Seed))
	}
	return nil
}

// AddProtein hashes the k-mers of a protein sequence directly (no
// translation) into the sketch. It is only meaningful when IsProtein is
// set.
func (m *MinHash) AddProtein(seq []byte) error {
	if !m.IsProtein {
		return errs.E(errs.InvalidInput, "AddProtein requires a protein sketch")
	}
	k := int(m.Ksize)
	if len(seq) < k {
		return errs.E(errs.InvalidInput, "sequence length %d shorter than k-mer window %d", len(seq), k)
	}
	it := hashing.NewKmerIter(seq, k, hashing.Protein)
	for {
		kmer, ok := it.Next()
		if !ok {
			break
		}
		m.AddHash(hashing.Hash64(kmer, m.Seed))
	}
	return nil
}

func (m *MinHash) compatibleWith(other *MinHash) bool {
	return m.Ksize == other.Ksize && m.Seed == other.Seed &&
		m.IsProtein == other.IsProtein &&
		(m.Num > 0) == (other.Num > 0)
}

// Merge unions other's hashes into m, requiring identical parameters.
// Bottom-k sketches keep only the globally smallest Num hashes after the
// union; abundances add where both sides have the hash.
func (m *MinHash) Merge(other *MinHash) error {
	if !m.compatibleWith(other) || m.Num != other.Num || m.MaxHash != other.MaxHash {
		return errs.E(errs.IncompatibleSketch, "merge requires identical sketch parameters")
	}
	for _, h := range other.hashes {
		if m.abundances != nil && other.abundances != nil {
			if _, found := m.search(h); found {
				// AddHash below will bump by 1; add the remainder so
				// that abundances sum instead of just incrementing.
				extra := other.abundances[h] - 1
				m.AddHash(h)
				if extra > 0 {
					m.abundances[h] += extra
				}
				continue
			}
		}
		m.AddHash(h)
	}
	return nil
}

// DownsampleScaled returns a new scaled MinHash retaining only hashes
// below MAX_HASH/newScaled. It fails with errs.IncompatibleSketch if m is
// not in scaled mode.
func (m *MinHash) DownsampleScaled(newScaled uint64) (*MinHash, error) {
	if m.Num > 0 {
		return nil, errs.E(errs.IncompatibleSketch, "cannot downsample a bottom-k sketch to scaled")
	}
	newMaxHash := hashing.MaxHash / newScaled
	if newMaxHash > m.MaxHash {
		return nil, errs.E(errs.InvalidInput, "downsample_scaled requires a coarser scaled value")
	}
	out := m.Clone()
	out.MaxHash = newMaxHash
	idx := sort.Search(len(out.hashes), func(i int) bool { return out.hashes[i] >= newMaxHash })
	for _, h := range out.hashes[idx:] {
		if out.abundances != nil {
			delete(out.abundances, h)
		}
	}
	out.hashes = out.hashes[:idx]
	return out, nil
}

// downsampledHashes returns the hash sets of m and other downsampled to a
// common scaled value (the coarser of the two), if both are scaled
// sketches; otherwise it returns them unchanged.
func downsampledHashes(a, b *MinHash) ([]uint64, []uint64, error) {
	if a.Num > 0 || b.Num > 0 {
		return a.hashes, b.hashes, nil
	}
	scaledA, scaledB := a.Scaled(), b.Scaled()
	if scaledA == scaledB {
		return a.hashes, b.hashes, nil
	}
	target := scaledA
	if scaledB > target {
		target = scaledB
	}
	da, err := a.DownsampleScaled(target)
	if err != nil {
		return nil, nil, err
	}
	db, err := b.DownsampleScaled(target)
	if err != nil {
		return nil, nil, err
	}
	return da.hashes, db.hashes, nil
}

// Similarity returns the similarity of m and other: Jaccard over the hash
// sets, or (if both track abundance and ignoreAbundance is false) cosine
// similarity over abundance vectors restricted to the union. Both
// sketches are auto-downsampled to a common scaled value first.
func (m *MinHash) Similarity(other *MinHash, ignoreAbundance bool) (float64, error) {
	if !m.compatibleWith(other) {
		return 0, errs.E(errs.IncompatibleSketch, "similarity requires matching sketch parameters")
	}
	a, b, err := downsampledHashes(m, other)
	if err != nil {
		return 0, err
	}
	if !ignoreAbundance && m.abundances != nil && other.abundances != nil {
		return cosineSimilarity(a, m.abundances, b, other.abundances), nil
	}
	return jaccard(a, b), nil
}

// ContainedBy returns |m ∩ other| / |m|, auto-downsampling as in
// Similarity.
func (m *MinHash) ContainedBy(other *MinHash) (float64, error) {
	if !m.compatibleWith(other) {
		return 0, errs.E(errs.IncompatibleSketch, "contained_by requires matching sketch parameters")
	}
	a, b, err := downsampledHashes(m, other)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, nil
	}
	return float64(intersectionSize(a, b)) / float64(len(a)), nil
}

// IntersectionHashes returns the sorted hashes m shares with other, after
// auto-downsampling both to a common scaled value as in Similarity. It is
// the building block gather uses to score and then subtract a match.
func (m *MinHash) IntersectionHashes(other *MinHash) ([]uint64, error) {
	if !m.compatibleWith(other) {
		return nil, errs.E(errs.IncompatibleSketch, "intersection requires matching sketch parameters")
	}
	a, b, err := downsampledHashes(m, other)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, intersectionSize(a, b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out, nil
}

// RemoveHashes deletes every hash in toRemove from m's hash set (and its
// abundance map, if tracked). It is used by gather's "subtract Q ∩ M from
// Q" step; hashes not present in m are ignored.
func (m *MinHash) RemoveHashes(toRemove []uint64) {
	if len(toRemove) == 0 {
		return
	}
	remove := make(map[uint64]bool, len(toRemove))
	for _, h := range toRemove {
		remove[h] = true
	}
	kept := m.hashes[:0]
	for _, h := range m.hashes {
		if remove[h] {
			if m.abundances != nil {
				delete(m.abundances, h)
			}
			continue
		}
		kept = append(kept, h)
	}
	m.hashes = kept
}

func jaccard(a, b []uint64) float64 {
	inter := intersectionSize(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func intersectionSize(a, b []uint64) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

func cosineSimilarity(a []uint64, abA map[uint64]uint64, b []uint64, abB map[uint64]uint64) float64 {
	seen := make(map[uint64]bool, len(a)+len(b))
	var dot, normA, normB float64
	for _, h := range a {
		seen[h] = true
	}
	for _, h := range b {
		seen[h] = true
	}
	for h := range seen {
		va := float64(abA[h])
		vb := float64(abB[h])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MD5Sum returns the md5 identity fingerprint of the sketch: md5 over the
// concatenation of ASCII-decimal representations of the sorted hashes.
// It depends only on the hash set, never on abundance.
func (m *MinHash) MD5Sum() string {
	h := md5.New()
	buf := make([]byte, 0, 20)
	for _, v := range m.hashes {
		buf = strconv.AppendUint(buf[:0], v, 10)
		_, _ = h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (m *MinHash) String() string {
	return fmt.Sprintf("MinHash{k=%d num=%d max_hash=%d n=%d}", m.Ksize, m.Num, m.MaxHash, len(m.hashes))
}
