// Package signature implements the named, on-disk container format for
// one or more MinHash sketches.
package signature

import (
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/minhash"
)

// FormatVersion is the signature JSON format version this package
// writes.
const FormatVersion = "0.4"

// className is the required "class" field of every signature record.
const className = "sourmash_signature"

// hashFunction is the required "hash_function" field; it identifies the
// 64-bit murmur hash this module uses for every k-mer.
const hashFunction = "0.murmur64"

// legacyNumSentinel is the legacy encoding of num=0 (scaled sketch) found
// in older signature files.
const legacyNumSentinel = 0xFFFFFFFF

// Sketch is one MinHash sketch as it appears inside a Signature.
type Sketch struct {
	Ksize      uint32
	Num        uint64
	MaxHash    uint64
	Seed       uint64
	Molecule   string // "DNA" or "protein"
	Mins       []uint64
	Abundances []uint64 // parallel to Mins; nil if abundance is not tracked
	MD5Sum     string
}

// FromMinHash converts a minhash.MinHash into its wire Sketch
// representation, computing MD5Sum.
func FromMinHash(mh *minhash.MinHash) Sketch {
	molecule := "DNA"
	if mh.IsProtein {
		molecule = "protein"
	}
	s := Sketch{
		Ksize:    mh.Ksize,
		Num:      mh.Num,
		MaxHash:  mh.MaxHash,
		Seed:     mh.Seed,
		Molecule: molecule,
		Mins:     mh.Hashes(),
		MD5Sum:   mh.MD5Sum(),
	}
	if ab := mh.Abundances(); ab != nil {
		s.Abundances = make([]uint64, len(s.Mins))
		for i, h := range s.Mins {
			s.Abundances[i] = ab[h]
		}
	}
	return s
}

// ToMinHash reconstructs a minhash.MinHash from the sketch, verifying the
// stored MD5Sum against the recomputed one. It fails with
// errs.CorruptSignature on mismatch.
func (s Sketch) ToMinHash() (*minhash.MinHash, error) {
	var opts []minhash.Opt
	opts = append(opts, minhash.WithSeed(s.Seed))
	if s.Molecule == "protein" {
		opts = append(opts, minhash.WithProtein())
	}
	if len(s.Abundances) > 0 {
		opts = append(opts, minhash.WithAbundance())
	}
	num := s.Num
	if num == legacyNumSentinel {
		num = 0
	}
	if num > 0 {
		opts = append(opts, minhash.WithNum(num))
	} else {
		opts = append(opts, minhash.WithMaxHash(s.MaxHash))
	}
	mh, err := minhash.New(s.Ksize, opts...)
	if err != nil {
		return nil, err
	}
	for i, h := range s.Mins {
		mh.AddHash(h)
		if len(s.Abundances) == len(s.Mins) {
			extra := s.Abundances[i]
			if extra > 1 {
				for n := uint64(1); n < extra; n++ {
					mh.AddHash(h)
				}
			}
		}
	}
	if mh.MD5Sum() != s.MD5Sum {
		return nil, errs.E(errs.CorruptSignature, "md5sum mismatch: file says %s, computed %s", s.MD5Sum, mh.MD5Sum())
	}
	return mh, nil
}

// Signature is a named collection of sketches differing in (ksize,
// moltype).
type Signature struct {
	Email    string
	Name     string
	Filename string
	Sketches []Sketch
}

// Select returns the single sketch matching ksize and moltype. It fails
// with errs.AmbiguousSelection if more than one sketch matches and the
// caller did not otherwise disambiguate, or errs.InvalidInput if none
// match.
func (s *Signature) Select(ksize uint32, moltype string) (*Sketch, error) {
	var matches []*Sketch
	for i := range s.Sketches {
		sk := &s.Sketches[i]
		if sk.Ksize == ksize && sk.Molecule == moltype {
			matches = append(matches, sk)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errs.E(errs.InvalidInput, "no sketch with ksize=%d moltype=%s", ksize, moltype)
	case 1:
		return matches[0], nil
	default:
		return nil, errs.E(errs.AmbiguousSelection, "multiple sketches with ksize=%d moltype=%s", ksize, moltype)
	}
}
