package main

import (
	"github.com/grailbio/sketch/encoding/fasta"
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/signature"
)

func seqsrcOptClean() fasta.Opt {
	return fasta.OptClean
}

// loadQueryMinHash loads a signature file and selects the sketch
// matching (ksize, moltype) from the first signature record that has
// one, the common shape every CLI subcommand that takes a "-query" flag
// needs.
func loadQueryMinHash(path string, ksize uint32, moltype string) (*minhash.MinHash, error) {
	sigs, err := signature.LoadCached(path)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for i := range sigs {
		sk, err := sigs[i].Select(ksize, moltype)
		if err != nil {
			lastErr = err
			continue
		}
		return sk.ToMinHash()
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errs.E(errs.InvalidInput, "%s contains no signatures", path)
}
