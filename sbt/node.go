// Package sbt implements the Sequence Bloom Tree: an implicit d-ary tree
// of Bloom filters where every internal node's filter is the union of
// its children's.
package sbt

import (
	"bytes"
	"context"
	"sync"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/signature"
	"github.com/grailbio/sketch/storage"
)

// Node is either an Internal or a Leaf. Data forces a lazy load of the
// node's Bloom filter and memoizes it; this is a tagged
// Pending(StorageHandle, Path) / Loaded(BitSketch) variant, expressed as
// a small helper type (nodeData) shared by both concrete node types
// rather than dynamic dispatch.
type Node interface {
	Data(ctx context.Context) (*bitsketch.BitSketch, error)
	setData(bs *bitsketch.BitSketch)
}

// nodeData is the lazy-loaded, memoized Bloom filter shared by Internal
// and Leaf. A node never owns a storage backend; it holds a reference to
// the Tree's single backend and its own blob path.
type nodeData struct {
	mu      sync.Mutex
	loaded  *bitsketch.BitSketch
	backend storage.Backend
	path    string
}

func (d *nodeData) Data(ctx context.Context) (*bitsketch.BitSketch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded != nil {
		return d.loaded, nil
	}
	if d.backend == nil || d.path == "" {
		return nil, errs.E(errs.CorruptIndex, "node has no backing data")
	}
	raw, err := d.backend.Load(ctx, d.path)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "loading node blob %s", d.path, err)
	}
	bs, err := bitsketch.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	d.loaded = bs
	return bs, nil
}

func (d *nodeData) setData(bs *bitsketch.BitSketch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = bs
}

// Internal is an internal SBT node: its data is the Bloom-union of every
// descendant leaf.
type Internal struct {
	nodeData
}

// Leaf is a terminal SBT node: it carries the original MinHash (for
// exact scoring) in addition to the Bloom filter built from it (for
// ancestor propagation), plus display metadata.
type Leaf struct {
	nodeData
	Name     string
	Metadata string
	// MinHash is the leaf's exact sketch. It is populated eagerly by
	// NewLeaf, or lazily by MinHashData for a leaf reconstructed from a
	// manifest (where only Filename, the signature's blob path, is known
	// until first use).
	MinHash *minhash.MinHash
	// Filename is the blob path the leaf's MinHash signature lives at,
	// independent of its Bloom-filter node blob (whose path is what the
	// manifest's "filename" field records). Save sets it to the path the
	// backend returned for the signature; Load sets it to the path Save
	// requests for the leaf's tag and position.
	Filename string

	mhMu sync.Mutex
}

// MinHashData returns the leaf's MinHash, loading its signature blob
// through the shared backend on first use and memoizing the result.
func (l *Leaf) MinHashData(ctx context.Context) (*minhash.MinHash, error) {
	l.mhMu.Lock()
	defer l.mhMu.Unlock()
	if l.MinHash != nil {
		return l.MinHash, nil
	}
	if l.backend == nil || l.Filename == "" {
		return nil, errs.E(errs.CorruptIndex, "leaf %q has no backing signature", l.Name)
	}
	raw, err := l.backend.Load(ctx, l.Filename)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "loading signature %s", l.Filename, err)
	}
	sigs, err := signature.Load(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 || len(sigs[0].Sketches) == 0 {
		return nil, errs.E(errs.CorruptSignature, "signature %s has no sketches", l.Filename)
	}
	mh, err := sigs[0].Sketches[0].ToMinHash()
	if err != nil {
		return nil, err
	}
	l.MinHash = mh
	return mh, nil
}

func newInternal() *Internal { return &Internal{} }

// NewLeaf returns a Leaf wrapping mh, with its Bloom filter built
// eagerly via factory (so Data never needs to hit storage for a
// just-inserted leaf).
func NewLeaf(name string, mh *minhash.MinHash, factory *bitsketch.Factory) *Leaf {
	bs := factory.New()
	bs.InsertMinHash(mh)
	l := &Leaf{Name: name, MinHash: mh}
	l.setData(bs)
	return l
}
