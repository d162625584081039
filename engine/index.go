package engine

import (
	"context"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/sbt"
	"github.com/grailbio/sketch/signature"
	"github.com/grailbio/sketch/storage"
)

// IndexOptions configures Index's Bloom filter sizing and tree shape.
type IndexOptions struct {
	D         int
	Tablesize uint64
	NTables   uint32
	Ksize     uint32
	Moltype   string // "DNA" or "protein"
}

// Index builds and saves an SBT under tag, containing one leaf per
// signature (selecting the (Ksize, Moltype) sketch from each via
// Signature.Select).
func Index(ctx context.Context, sigs []signature.Signature, opts IndexOptions, backend storage.Backend, backendName, tag string) (*sbt.Tree, error) {
	if len(sigs) == 0 {
		return nil, errs.E(errs.InvalidInput, "index requires at least one signature")
	}
	factory := bitsketch.NewFactory(opts.Ksize, opts.Tablesize, opts.NTables)
	tree := sbt.New(opts.D, factory, backend, backendName)

	for i := range sigs {
		sig := &sigs[i]
		sk, err := sig.Select(opts.Ksize, opts.Moltype)
		if err != nil {
			return nil, err
		}
		mh, err := sk.ToMinHash()
		if err != nil {
			return nil, err
		}
		leaf := sbt.NewLeaf(sig.Name, mh, factory)
		if err := tree.AddNode(ctx, leaf); err != nil {
			return nil, err
		}
	}
	if err := tree.Save(ctx, tag); err != nil {
		return nil, err
	}
	return tree, nil
}
