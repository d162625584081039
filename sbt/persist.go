package sbt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/sketch/bitsketch"
	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/signature"
	"github.com/grailbio/sketch/storage"
)

// manifestVersion is the format this package writes; Load additionally
// understands the older v1/v2 shapes it may encounter on disk.
const manifestVersion = 3

type manifestNode struct {
	Filename string `json:"filename"`
	Name     string `json:"name,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

type manifestStorage struct {
	Backend string                 `json:"backend"`
	Args    map[string]interface{} `json:"args"`
}

type manifestV3 struct {
	D       int                     `json:"d"`
	Version int                     `json:"version"`
	Storage manifestStorage         `json:"storage"`
	Nodes   map[string]manifestNode `json:"nodes"`
}

// manifestV1V2Probe is just enough structure to detect the older, array-
// or map-without-storage shapes: v1 is an array of {node, name, metadata}
// and v2 is today's map form minus the storage block.
type manifestV1V2Probe struct {
	Version int             `json:"version"`
	Storage json.RawMessage `json:"storage"`
}

func nodeBlobPath(tag string, pos int, leaf bool) string {
	kind := "internal"
	if leaf {
		kind = "leaf"
	}
	return fmt.Sprintf("%s.sbt/%s.%d.sbt", tag, kind, pos)
}

func leafSigPath(tag string, pos int) string {
	return fmt.Sprintf("%s.sbt/%s.%d.sig", tag, "leaf", pos)
}

func manifestPath(tag string) string { return tag + ".sbt.json" }

// Save persists the tree under tag: every node's Bloom filter (and every
// leaf's MinHash signature) is written through t.Storage, and a manifest
// describing the topology and the storage backend's own init args is
// written directly to tag+".sbt.json" (outside the Backend abstraction,
// since it must be locally readable to learn which backend to construct
// on Load).
func (t *Tree) Save(ctx context.Context, tag string) error {
	nodes := make(map[string]manifestNode, len(t.nodes))
	for pos, node := range t.nodes {
		bs, err := node.Data(ctx)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := bs.Save(&buf); err != nil {
			return errs.E(errs.StorageFailure, "encoding node %d", pos, err)
		}
		blobPath := nodeBlobPath(tag, pos, isLeaf(node))
		effective, err := t.Storage.Save(ctx, blobPath, buf.Bytes())
		if err != nil {
			return err
		}
		entry := manifestNode{Filename: effective}
		if leaf, ok := node.(*Leaf); ok {
			entry.Name = leaf.Name
			entry.Metadata = leaf.Metadata
			sigPath, err := t.saveLeafSignature(ctx, tag, pos, leaf)
			if err != nil {
				return err
			}
			leaf.Filename = sigPath
		}
		nodes[fmt.Sprintf("%d", pos)] = entry
	}

	m := manifestV3{
		D:       t.D,
		Version: manifestVersion,
		Storage: manifestStorage{Backend: t.BackendName, Args: t.Storage.InitArgs()},
		Nodes:   nodes,
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errs.E(errs.StorageFailure, "encoding manifest for %s", tag, err)
	}
	if err := os.WriteFile(manifestPath(tag), raw, 0644); err != nil {
		return errs.E(errs.StorageFailure, "writing manifest for %s", tag, err)
	}
	return nil
}

func (t *Tree) saveLeafSignature(ctx context.Context, tag string, pos int, leaf *Leaf) (string, error) {
	sig := signature.Signature{
		Name:     leaf.Name,
		Filename: leaf.Filename,
		Sketches: []signature.Sketch{signature.FromMinHash(leaf.MinHash)},
	}
	var buf bytes.Buffer
	if err := signature.Save(&buf, []signature.Signature{sig}); err != nil {
		return "", errs.E(errs.StorageFailure, "encoding signature for leaf %d", pos, err)
	}
	return t.Storage.Save(ctx, leafSigPath(tag, pos), buf.Bytes())
}

func isLeaf(n Node) bool {
	_, ok := n.(*Leaf)
	return ok
}

// Load reconstructs a tree from the manifest at manifestPath. If
// backendOverride is non-nil it is used in place of reconstructing the
// backend from the manifest's storage block (useful for v1/v2 manifests,
// which carry no storage block at all).
func Load(ctx context.Context, path string, factory *bitsketch.Factory, backendOverride storage.Backend) (*Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "reading manifest %s", path, err)
	}

	var probe manifestV1V2Probe
	if err := json.Unmarshal(raw, &probe); err != nil {
		// v1 manifests are a bare JSON array; fall back accordingly.
		return loadV1(ctx, raw, factory, backendOverride)
	}

	var m manifestV3
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.E(errs.CorruptIndex, "parsing manifest %s", path, err)
	}

	backend := backendOverride
	if backend == nil {
		if m.Storage.Backend == "" {
			return nil, errs.E(errs.InvalidInput, "manifest %s has no storage block and no override backend was given", path)
		}
		backend, err = storage.New(m.Storage.Backend, m.Storage.Args)
		if err != nil {
			return nil, err
		}
	}

	t := New(m.D, factory, backend, m.Storage.Backend)
	tag := strings.TrimSuffix(path, ".sbt.json")
	for posStr, entry := range m.Nodes {
		var pos int
		if _, err := fmt.Sscanf(posStr, "%d", &pos); err != nil {
			return nil, errs.E(errs.CorruptIndex, "manifest %s has a non-numeric node position %q", path, posStr)
		}
		if entry.Name != "" {
			leaf := &Leaf{Name: entry.Name, Metadata: entry.Metadata}
			leaf.backend = backend
			leaf.path = entry.Filename
			leaf.Filename = leafSigPath(tag, pos)
			t.nodes[pos] = leaf
		} else {
			internal := newInternal()
			internal.backend = backend
			internal.path = entry.Filename
			t.nodes[pos] = internal
		}
	}
	return t, nil
}

// loadV1 parses the legacy bare-array manifest shape: [{"node": n,
// "name": ..., "metadata": ...}, ...], with no branching factor or
// storage block recorded; callers must supply both via backendOverride
// and must already know d (v1 predates configurable branching, so it is
// always 2).
func loadV1(ctx context.Context, raw []byte, factory *bitsketch.Factory, backend storage.Backend) (*Tree, error) {
	if backend == nil {
		return nil, errs.E(errs.InvalidInput, "loading a v1 manifest requires an explicit backend override")
	}
	var entries []struct {
		Node     int    `json:"node"`
		Name     string `json:"name"`
		Metadata string `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errs.E(errs.CorruptIndex, "parsing v1 manifest", err)
	}
	t := New(2, factory, backend, "")
	for _, e := range entries {
		if e.Name != "" {
			leaf := &Leaf{Name: e.Name, Metadata: e.Metadata}
			leaf.backend = backend
			leaf.path = nodeBlobPath("", e.Node, true)
			t.nodes[e.Node] = leaf
		} else {
			internal := newInternal()
			internal.backend = backend
			internal.path = nodeBlobPath("", e.Node, false)
			t.nodes[e.Node] = internal
		}
	}
	return t, nil
}
