// Package tar implements the tar-archive storage backend: blobs are
// members of a single tar file, appended to on write and read back by
// member name (each Load scans the archive from the start). No pack dependency improves on the
// standard library's archive/tar for this; it is used directly.
package tar

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/storage"
)

func init() {
	storage.Register("tar", newFromArgs)
}

// tarEndBlockSize is the size of the two zero-filled 512-byte blocks
// archive/tar.Writer.Close writes to mark the end of an archive.
const tarEndBlockSize = 1024

// Backend appends blobs to an open tar archive. The underlying
// archive/tar.Writer is kept open across Save calls; call Close when
// done writing to finalize the archive with its end-of-archive marker.
type Backend struct {
	path string
	f    *os.File
	tw   *tar.Writer
}

// New opens (creating if absent) the tar archive at path for append, and
// prepares it to accept further Save calls. If the archive was
// previously finalized by Close, its trailing end-of-archive marker is
// stripped so new entries can be appended.
func New(path string) (*Backend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "opening tar archive %s", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "stat %s", path, err)
	}
	if info.Size() >= tarEndBlockSize {
		tail := make([]byte, tarEndBlockSize)
		if _, err := f.ReadAt(tail, info.Size()-tarEndBlockSize); err != nil {
			return nil, errs.E(errs.StorageFailure, "reading tar end marker in %s", path, err)
		}
		if bytes.Equal(tail, make([]byte, tarEndBlockSize)) {
			if err := f.Truncate(info.Size() - tarEndBlockSize); err != nil {
				return nil, errs.E(errs.StorageFailure, "truncating tar end marker in %s", path, err)
			}
		}
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return nil, errs.E(errs.StorageFailure, "seeking to end of %s", path, err)
	}
	return &Backend{path: path, f: f, tw: tar.NewWriter(f)}, nil
}

func newFromArgs(args map[string]interface{}) (storage.Backend, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return nil, errs.E(errs.InvalidInput, "tar backend requires a \"path\" arg")
	}
	return New(path)
}

// Save implements storage.Backend.
func (b *Backend) Save(_ context.Context, path string, data []byte) (string, error) {
	hdr := &tar.Header{Name: path, Mode: 0o644, Size: int64(len(data))}
	if err := b.tw.WriteHeader(hdr); err != nil {
		return "", errs.E(errs.StorageFailure, "writing tar header for %s", path, err)
	}
	if _, err := b.tw.Write(data); err != nil {
		return "", errs.E(errs.StorageFailure, "writing tar member %s", path, err)
	}
	if err := b.tw.Flush(); err != nil {
		return "", errs.E(errs.StorageFailure, "flushing tar writer", err)
	}
	return path, nil
}

// Load implements storage.Backend: it scans the archive from the start
// for a member named path.
func (b *Backend) Load(_ context.Context, path string) ([]byte, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "opening %s", b.path, err)
	}
	defer f.Close()
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.E(errs.StorageFailure, "reading tar archive %s", b.path, err)
		}
		if hdr.Name != path {
			continue
		}
		data, err := ioutil.ReadAll(tr)
		if err != nil {
			return nil, errs.E(errs.StorageFailure, "reading tar member %s", path, err)
		}
		return data, nil
	}
	return nil, errs.E(errs.StorageFailure, "path not found in tar archive: %s", path)
}

// InitArgs implements storage.Backend.
func (b *Backend) InitArgs() map[string]interface{} {
	return map[string]interface{}{"path": b.path}
}

// Close finalizes the archive by writing its end-of-archive marker and
// closing the underlying file.
func (b *Backend) Close() error {
	if err := b.tw.Close(); err != nil {
		return errs.E(errs.StorageFailure, "finalizing tar archive %s", b.path, err)
	}
	return b.f.Close()
}
