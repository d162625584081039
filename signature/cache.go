package signature

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/golang/snappy"

	"github.com/grailbio/sketch/errs"
)

// cacheEntry is the gob-encoded payload stored in a .sig.cache sidecar,
// tagged with the source file's size and mtime so a stale cache is never
// trusted.
type cacheEntry struct {
	Size    int64
	ModTime int64
	Sigs    []Signature
}

// cachePath returns the sidecar path for a signature file.
func cachePath(sigPath string) string { return sigPath + ".cache" }

// LoadCached loads the signatures in sigPath, consulting (and, on a
// miss, populating) a snappy-compressed binary sidecar cache to avoid
// re-parsing JSON on repeated loads of the same file. The sidecar is
// purely an optimization: any error reading or validating it falls back
// to a full JSON parse via Load.
func LoadCached(sigPath string) ([]Signature, error) {
	info, err := os.Stat(sigPath)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "stat %s", sigPath, err)
	}
	if sigs, ok := readCache(sigPath, info); ok {
		return sigs, nil
	}
	f, err := os.Open(sigPath)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "open %s", sigPath, err)
	}
	defer f.Close()
	sigs, err := Load(f)
	if err != nil {
		return nil, err
	}
	_ = writeCache(sigPath, info, sigs)
	return sigs, nil
}

func readCache(sigPath string, info os.FileInfo) ([]Signature, bool) {
	raw, err := os.ReadFile(cachePath(sigPath))
	if err != nil {
		return nil, false
	}
	decompressed, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := gob.NewDecoder(bytes.NewReader(decompressed)).Decode(&entry); err != nil {
		return nil, false
	}
	if entry.Size != info.Size() || entry.ModTime != info.ModTime().UnixNano() {
		return nil, false
	}
	return entry.Sigs, true
}

func writeCache(sigPath string, info os.FileInfo, sigs []Signature) error {
	var buf bytes.Buffer
	entry := cacheEntry{Size: info.Size(), ModTime: info.ModTime().UnixNano(), Sigs: sigs}
	if err := gob.NewEncoder(&buf).Encode(&entry); err != nil {
		return err
	}
	compressed := snappy.Encode(nil, buf.Bytes())
	return os.WriteFile(cachePath(sigPath), compressed, 0o644)
}
