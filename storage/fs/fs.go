// Package fs implements the filesystem storage backend: blobs live at a
// path relative to a root directory, created on first use if absent.
package fs

import (
	"context"
	"io/ioutil"
	"path/filepath"

	"github.com/grailbio/base/file"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/storage"
)

func init() {
	storage.Register("fs", newFromArgs)
}

// Backend persists blobs under Root, using github.com/grailbio/base/file
// for context-aware, possibly-remote-capable file I/O (the same
// abstraction the rest of this module's file access uses).
type Backend struct {
	Root string
}

// New returns a filesystem backend rooted at root.
func New(root string) *Backend { return &Backend{Root: root} }

func newFromArgs(args map[string]interface{}) (storage.Backend, error) {
	root, _ := args["root"].(string)
	if root == "" {
		return nil, errs.E(errs.InvalidInput, "fs backend requires a \"root\" arg")
	}
	return New(root), nil
}

func (b *Backend) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.Root, path)
}

// Save implements storage.Backend.
func (b *Backend) Save(ctx context.Context, path string, data []byte) (string, error) {
	full := b.resolve(path)
	w, err := file.Create(ctx, full)
	if err != nil {
		return "", errs.E(errs.StorageFailure, "creating %s", full, err)
	}
	if _, err := w.Writer(ctx).Write(data); err != nil {
		_ = w.Close(ctx)
		return "", errs.E(errs.StorageFailure, "writing %s", full, err)
	}
	if err := w.Close(ctx); err != nil {
		return "", errs.E(errs.StorageFailure, "closing %s", full, err)
	}
	return path, nil
}

// Load implements storage.Backend.
func (b *Backend) Load(ctx context.Context, path string) ([]byte, error) {
	full := b.resolve(path)
	r, err := file.Open(ctx, full)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "opening %s", full, err)
	}
	defer r.Close(ctx)
	data, err := ioutil.ReadAll(r.Reader(ctx))
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "reading %s", full, err)
	}
	return data, nil
}

// InitArgs implements storage.Backend.
func (b *Backend) InitArgs() map[string]interface{} {
	return map[string]interface{}{"root": b.Root}
}
