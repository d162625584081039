package hashing

import (
	"bytes"

	"github.com/grailbio/sketch/biosimd"
)

// KmerIter yields the canonical k-mers of a sequence one at a time.
// It is not safe for concurrent use, and the slice returned by Next is
// only valid until the next call to Next.
type KmerIter struct {
	seq     []byte
	k       int
	moltype Moltype

	pos int
	out []byte
	rc  []byte

	frames   [6][]byte
	frameIdx int
}

// NewKmerIter returns an iterator over the canonical k-mers of seq.
//
// For DNA, each window is canonicalized to the lexicographic minimum of
// itself and its reverse complement; windows containing a non-ACGT byte
// are skipped. For Protein, windows containing '*' or 'X' are skipped.
// For DNAToProtein, seq is translated across all six reading frames and
// protein k-mers are drawn from the stop-free stretches of each; k must
// already be a codon-aligned protein k-mer size; converting a DNA ksize
// to its protein equivalent is the caller's responsibility, typically
// applied when choosing k.
func NewKmerIter(seq []byte, k int, moltype Moltype) *KmerIter {
	it := &KmerIter{seq: seq, k: k, moltype: moltype}
	switch moltype {
	case DNA:
		it.out = make([]byte, k)
		it.rc = make([]byte, k)
	case DNAToProtein:
		it.frames = sixFrameTranslations(seq)
	}
	return it
}

// Next returns the next canonical k-mer, or (nil, false) when exhausted.
func (it *KmerIter) Next() ([]byte, bool) {
	switch it.moltype {
	case DNA:
		return it.nextDNA()
	case Protein:
		return nextProteinWindow(it.seq, &it.pos, it.k)
	case DNAToProtein:
		return it.nextTranslated()
	default:
		return nil, false
	}
}

func (it *KmerIter) nextDNA() ([]byte, bool) {
	for it.pos+it.k <= len(it.seq) {
		window := it.seq[it.pos : it.pos+it.k]
		it.pos++
		if biosimd.IsNonACGTPresent(window) {
			continue
		}
		biosimd.ReverseComp8(it.rc, window)
		if bytes.Compare(window, it.rc) <= 0 {
			copy(it.out, window)
		} else {
			copy(it.out, it.rc)
		}
		return it.out, true
	}
	return nil, false
}

func (it *KmerIter) nextTranslated() ([]byte, bool) {
	for it.frameIdx < len(it.frames) {
		kmer, ok := nextProteinWindow(it.frames[it.frameIdx], &it.pos, it.k)
		if ok {
			return kmer, true
		}
		it.frameIdx++
		it.pos = 0
	}
	return nil, false
}

func isStopOrUnknown(b byte) bool { return b == '*' || b == 'X' }

// nextProteinWindow scans seq starting at *pos for the next length-k
// window containing no '*' or 'X' byte, advancing *pos by one each try.
func nextProteinWindow(seq []byte, pos *int, k int) ([]byte, bool) {
	for *pos+k <= len(seq) {
		window := seq[*pos : *pos+k]
		*pos++
		skip := false
		for _, b := range window {
			if isStopOrUnknown(b) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		return window, true
	}
	return nil, false
}
