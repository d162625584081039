package sbt

import (
	"context"

	"github.com/grailbio/sketch/errs"
)

// Combine merges a and b into a new tree containing every leaf of both,
// preserving the Bloom-union invariant.
//
// One natural approach copies b's internal nodes into fresh positions
// under a's root level by level, adjusting position arithmetic as it
// goes; that bookkeeping is easy to get wrong (it is easy to reset the
// position counter incorrectly partway through). Combine instead takes
// the simpler and invariant-equivalent route: build a new tree and
// re-insert every leaf of both source trees (the larger tree's first)
// through the ordinary AddNode path, which ORs each leaf's bits into
// every new ancestor. The
// resulting tree satisfies the same union invariant and answers the
// same Find queries; only the manifest's position layout differs from a
// literal port.
func Combine(ctx context.Context, a, b *Tree) (*Tree, error) {
	if a.D != b.D {
		return nil, errs.E(errs.InvalidInput, "cannot combine trees with different branching factors (%d vs %d)", a.D, b.D)
	}
	if !a.Factory.Compatible(b.Factory) {
		return nil, errs.E(errs.IncompatibleSketch, "cannot combine trees built with incompatible Bloom filter factories")
	}

	combined := New(a.D, a.Factory, a.Storage, a.BackendName)

	first, second := a, b
	if len(b.nodes) > len(a.nodes) {
		first, second = b, a
	}
	for _, leaf := range first.Leaves() {
		if err := combined.AddNode(ctx, leaf); err != nil {
			return nil, err
		}
	}
	for _, leaf := range second.Leaves() {
		if err := combined.AddNode(ctx, leaf); err != nil {
			return nil, err
		}
	}
	return combined, nil
}
