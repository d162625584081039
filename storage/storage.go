// Package storage defines the content-addressed blob store abstraction
// used to persist SBT nodes, and a name→constructor registry so trees
// can be reconstructed from a manifest's {backend, args} block without
// the caller naming a concrete Go type.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/sketch/errs"
)

// Backend is a content-addressed blob store. Save returns the effective
// path the blob was written to, which may differ from the requested path
// (e.g. an IPFS CID). Concurrent writers to the same backend instance
// are not supported: a Backend is exclusively owned by the SBT using it
// for the duration of a save/load.
type Backend interface {
	// Save writes data, returning the effective path.
	Save(ctx context.Context, path string, data []byte) (string, error)
	// Load reads the blob at path.
	Load(ctx context.Context, path string) ([]byte, error)
	// InitArgs returns this backend's serializable construction
	// arguments, persisted in the SBT manifest's "storage.args" field.
	InitArgs() map[string]interface{}
}

// Constructor builds a Backend from its persisted init args.
type Constructor func(args map[string]interface{}) (Backend, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a named backend constructor to the registry. It is
// typically called from an init() function in the backend's package, the
// same registration pattern this module's storage drivers share.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// New constructs the named backend from args. It fails with
// errs.StorageFailure if no backend is registered under that name.
func New(name string, args map[string]interface{}) (Backend, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, errs.E(errs.StorageFailure, "no storage backend registered: %s", name)
	}
	b, err := ctor(args)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, fmt.Sprintf("constructing %s backend", name), err)
	}
	return b, nil
}

// Convert copies every blob in paths from src to dst, returning
// the new effective path for each, enabling a backend migration that
// rewrites every node while preserving the caller's topology. The caller
// is responsible for updating its own manifest with the returned paths.
func Convert(ctx context.Context, src Backend, dst Backend, paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := src.Load(ctx, p)
		if err != nil {
			return nil, errs.E(errs.StorageFailure, "loading %s during convert", p, err)
		}
		newPath, err := dst.Save(ctx, p, data)
		if err != nil {
			return nil, errs.E(errs.StorageFailure, "saving %s during convert", p, err)
		}
		out[p] = newPath
	}
	return out, nil
}
