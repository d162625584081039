// Command sketch is a thin CLI front end over the engine package,
// mirroring sourmash's compute/index/search/gather/categorize surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/sketch/engine"
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/sbt"
	"github.com/grailbio/sketch/seqsrc"
	"github.com/grailbio/sketch/signature"
	"github.com/grailbio/sketch/storage"
	_ "github.com/grailbio/sketch/storage/fs"
	_ "github.com/grailbio/sketch/storage/ipfs"
	_ "github.com/grailbio/sketch/storage/redis"
	"github.com/grailbio/sketch/storage/tar"
)

func usage() {
	fmt.Fprint(os.Stderr, `usage: sketch <command> [flags] <args>

Commands:
  compute     build signatures from FASTA files
  index       build an SBT from signatures
  search      query an SBT for best matches
  gather      greedy containment decomposition of a query against SBTs
  categorize  find each of a set of signatures' best match in an SBT
`)
}

func main() {
	flag.Usage = usage
	cleanup := grail.Init()
	defer cleanup()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	case "compute":
		err = runCompute(ctx, args)
	case "index":
		err = runIndex(ctx, args)
	case "search":
		err = runSearch(ctx, args)
	case "gather":
		err = runGather(ctx, args)
	case "categorize":
		err = runCategorize(ctx, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("sketch %s: %v", cmd, err)
	}
}

// openBackend supports the two backends the CLI exposes directly
// (filesystem and tar); redis/ipfs/s3 are reachable programmatically via
// storage.New with their own argument shapes but have no dedicated CLI
// flags here.
func openBackend(name string, root string) (storage.Backend, error) {
	switch name {
	case "fs":
		return storage.New("fs", map[string]interface{}{"root": root})
	case "tar":
		return tar.New(root)
	default:
		return nil, errs.E(errs.InvalidInput, "unsupported -backend %q (use fs or tar)", name)
	}
}

func runCompute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compute", flag.ExitOnError)
	ksize := fs.Uint("k", 21, "k-mer size")
	scaled := fs.Uint64("scaled", 1000, "scaled factor (0 selects bottom-k via -num)")
	num := fs.Uint64("num", 0, "bottom-k sketch size (used when -scaled=0)")
	protein := fs.Bool("protein", false, "translate DNA input to protein k-mers")
	trackAbundance := fs.Bool("track-abundance", false, "record per-hash abundance")
	output := fs.String("o", "", "output signature JSON path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errs.E(errs.InvalidInput, "compute requires at least one input FASTA file")
	}

	sources := make(map[string]seqsrc.SequenceSource, fs.NArg())
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return errs.E(errs.InvalidInput, "opening %s", path, err)
		}
		defer f.Close()
		src, err := seqsrc.NewFasta(f, seqsrcOptClean())
		if err != nil {
			return err
		}
		sources[strings.TrimSuffix(path, ".fasta")] = src
	}

	opts := engine.ComputeOptions{
		Ksize: uint32(*ksize), Scaled: *scaled, Num: *num,
		Protein: *protein, TrackAbundance: *trackAbundance,
	}
	sigs, err := engine.Compute(ctx, sources, opts, seqsrc.VLogLogger{})
	if err != nil {
		return err
	}

	w := os.Stdout
	if *output != "" {
		var err error
		w, err = os.Create(*output)
		if err != nil {
			return errs.E(errs.StorageFailure, "creating %s", *output, err)
		}
		defer w.Close()
	}
	return signature.Save(w, sigs)
}

func runIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	d := fs.Int("d", 2, "SBT branching factor")
	tablesize := fs.Uint64("tablesize", 1<<20, "Bloom filter table size in bits")
	ntables := fs.Uint("ntables", 4, "number of Bloom filter hash tables")
	ksize := fs.Uint("k", 21, "ksize to select from each signature")
	moltype := fs.String("moltype", "DNA", "moltype to select from each signature (DNA or protein)")
	backendName := fs.String("backend", "fs", "storage backend (fs, tar)")
	root := fs.String("root", ".", "storage backend root/path")
	tag := fs.String("tag", "index", "manifest tag (written to <tag>.sbt.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errs.E(errs.InvalidInput, "index requires at least one signature file")
	}

	var sigs []signature.Signature
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return errs.E(errs.InvalidInput, "opening %s", path, err)
		}
		loaded, err := signature.LoadCached(path)
		f.Close()
		if err != nil {
			return err
		}
		sigs = append(sigs, loaded...)
	}

	backend, err := openBackend(*backendName, *root)
	if err != nil {
		return err
	}
	opts := engine.IndexOptions{
		D: *d, Tablesize: *tablesize, NTables: uint32(*ntables),
		Ksize: uint32(*ksize), Moltype: *moltype,
	}
	_, err = engine.Index(ctx, sigs, opts, backend, *backendName, *tag)
	return err
}

func runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	manifest := fs.String("manifest", "", "SBT manifest path (<tag>.sbt.json)")
	query := fs.String("query", "", "query signature path")
	ksize := fs.Uint("k", 21, "ksize to select from the query signature")
	moltype := fs.String("moltype", "DNA", "moltype to select from the query signature")
	threshold := fs.Float64("threshold", 0.1, "minimum similarity")
	containment := fs.Bool("containment", false, "rank by containment instead of Jaccard similarity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *manifest == "" || *query == "" {
		return errs.E(errs.InvalidInput, "search requires -manifest and -query")
	}

	tree, err := sbt.Load(ctx, *manifest, nil, nil)
	if err != nil {
		return err
	}
	qmh, err := loadQueryMinHash(*query, uint32(*ksize), *moltype)
	if err != nil {
		return err
	}

	predicate := sbt.Predicate(sbt.JaccardPredicate)
	if *containment {
		predicate = sbt.ContainmentPredicate
	}
	hits, err := engine.Search(ctx, tree, qmh, *threshold, predicate, sbt.DFS)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Printf("%s\n", h.Name)
	}
	return nil
}

func runGather(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("gather", flag.ExitOnError)
	query := fs.String("query", "", "query signature path")
	ksize := fs.Uint("k", 21, "ksize to select from the query signature")
	moltype := fs.String("moltype", "DNA", "moltype to select from the query signature")
	thresholdBP := fs.Uint64("threshold-bp", 50000, "minimum intersection, in estimated base pairs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *query == "" || fs.NArg() == 0 {
		return errs.E(errs.InvalidInput, "gather requires -query and at least one SBT manifest")
	}

	var trees []*sbt.Tree
	for _, path := range fs.Args() {
		tree, err := sbt.Load(ctx, path, nil, nil)
		if err != nil {
			return err
		}
		trees = append(trees, tree)
	}
	qmh, err := loadQueryMinHash(*query, uint32(*ksize), *moltype)
	if err != nil {
		return err
	}

	matches, err := engine.Gather(ctx, trees, qmh, *thresholdBP)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Printf("%s\tintersect_bp=%d\tf_orig_query=%.4f\tf_unique_to_query=%.4f\tf_match=%.4f\n",
			m.Name, m.IntersectBP, m.FOrigQuery, m.FUniqueToQuery, m.FMatch)
	}
	return nil
}

func runCategorize(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	manifest := fs.String("manifest", "", "SBT manifest path")
	ksize := fs.Uint("k", 21, "ksize to select from each query signature")
	moltype := fs.String("moltype", "DNA", "moltype to select from each query signature")
	threshold := fs.Float64("threshold", 0.1, "minimum similarity to report a match")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *manifest == "" || fs.NArg() == 0 {
		return errs.E(errs.InvalidInput, "categorize requires -manifest and at least one query signature")
	}

	tree, err := sbt.Load(ctx, *manifest, nil, nil)
	if err != nil {
		return err
	}

	queries := make(map[string]*minhash.MinHash, fs.NArg())
	for _, path := range fs.Args() {
		mh, err := loadQueryMinHash(path, uint32(*ksize), *moltype)
		if err != nil {
			return err
		}
		queries[path] = mh
	}

	results, err := engine.Categorize(ctx, tree, queries, *threshold)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Found {
			fmt.Printf("%s\tno match\n", r.QueryName)
			continue
		}
		fmt.Printf("%s\t%s\t%.4f\n", r.QueryName, r.BestName, r.Score)
	}
	return nil
}
