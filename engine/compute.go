// Package engine composes hashing, minhash, signature, bitsketch,
// storage, sbt, and gather into the five collaborator-facing operations:
// compute, index, search, gather, categorize.
package engine

import (
	"context"
	"sync"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/hashing"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/seqsrc"
	"github.com/grailbio/sketch/signature"
)

// ComputeOptions configures sketch construction for Compute.
type ComputeOptions struct {
	Ksize          uint32
	Scaled         uint64 // 0 selects bottom-k mode via Num
	Num            uint64
	Protein        bool
	TrackAbundance bool
	Seed           uint64
}

func (o ComputeOptions) minhashOpts() []minhash.Opt {
	var opts []minhash.Opt
	if o.Seed != 0 {
		opts = append(opts, minhash.WithSeed(o.Seed))
	}
	if o.Protein {
		opts = append(opts, minhash.WithProtein())
	}
	if o.TrackAbundance {
		opts = append(opts, minhash.WithAbundance())
	}
	if o.Scaled > 0 {
		opts = append(opts, minhash.WithMaxHash(hashing.MaxHash/o.Scaled))
	} else {
		opts = append(opts, minhash.WithNum(o.Num))
	}
	return opts
}

// Compute builds one Signature per named sequence source, each
// containing a single sketch of the source's concatenated records. The
// sources map is processed with one goroutine per entry, caller-owned,
// per-file embarrassing parallelism. ctx is checked once as each
// goroutine starts: a source whose goroutine sees ctx already done is
// skipped with ctx.Err(), while a source already being hashed runs to
// completion. Compute returns the first error seen, if any, after every
// goroutine has exited.
func Compute(ctx context.Context, sources map[string]seqsrc.SequenceSource, opts ComputeOptions, logger seqsrc.Logger) ([]signature.Signature, error) {
	if logger == nil {
		logger = seqsrc.NopLogger{}
	}
	type result struct {
		name string
		sig  signature.Signature
		err  error
	}
	results := make(chan result, len(sources))
	var wg sync.WaitGroup
	for name, src := range sources {
		wg.Add(1)
		go func(name string, src seqsrc.SequenceSource) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				results <- result{name: name, err: ctx.Err()}
				return
			default:
			}
			sig, err := computeOne(name, src, opts)
			if err != nil {
				logger.Notify("compute: %s: %v", name, err)
			}
			results <- result{name: name, sig: sig, err: err}
		}(name, src)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var sigs []signature.Signature
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		sigs = append(sigs, r.sig)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return sigs, nil
}

func computeOne(name string, src seqsrc.SequenceSource, opts ComputeOptions) (signature.Signature, error) {
	mh, err := minhash.New(opts.Ksize, opts.minhashOpts()...)
	if err != nil {
		return signature.Signature{}, err
	}
	for {
		rec, ok := src.Next()
		if !ok {
			break
		}
		if err := mh.AddSequence(rec.Seq); err != nil {
			return signature.Signature{}, errs.E(errs.InvalidInput, "computing sketch for %s, record %s", name, rec.Name, err)
		}
	}
	if err := src.Err(); err != nil {
		return signature.Signature{}, errs.E(errs.InvalidInput, "reading sequence source %s", name, err)
	}
	return signature.Signature{
		Name:     name,
		Sketches: []signature.Sketch{signature.FromMinHash(mh)},
	}, nil
}
