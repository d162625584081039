// Package ipfs implements the (optional) IPFS storage backend: blobs are
// added to an IPFS node over its HTTP API, optionally pinned, and
// addressed by their returned CID. No in-pack IPFS client library was
// found, so the HTTP API is driven directly with net/http; CID
// construction/validation uses go-cid and go-multihash.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime/multipart"
	"net/http"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/storage"
)

func init() {
	storage.Register("ipfs", newFromArgs)
}

// Backend adds/fetches blobs on an IPFS node's HTTP API.
type Backend struct {
	APIAddr string // e.g. "http://127.0.0.1:5001"
	Pin     bool
	client  *http.Client
}

// New returns an IPFS backend talking to the node at apiAddr. If pin is
// true, every Save also pins the resulting CID.
func New(apiAddr string, pin bool) *Backend {
	return &Backend{APIAddr: apiAddr, Pin: pin, client: http.DefaultClient}
}

func newFromArgs(args map[string]interface{}) (storage.Backend, error) {
	addr, _ := args["api_addr"].(string)
	if addr == "" {
		return nil, errs.E(errs.InvalidInput, "ipfs backend requires an \"api_addr\" arg")
	}
	pin, _ := args["pin"].(bool)
	return New(addr, pin), nil
}

type addResponse struct {
	Name string
	Hash string
	Size string
}

// Save adds data to IPFS, returning its CID as the effective path.
func (b *Backend) Save(ctx context.Context, path string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", path)
	if err != nil {
		return "", errs.E(errs.StorageFailure, "building IPFS add request", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", errs.E(errs.StorageFailure, "writing IPFS add payload", err)
	}
	if err := mw.Close(); err != nil {
		return "", errs.E(errs.StorageFailure, "closing IPFS add payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.APIAddr+"/api/v0/add", &body)
	if err != nil {
		return "", errs.E(errs.StorageFailure, "building IPFS add request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := b.client.Do(req)
	if err != nil {
		return "", errs.E(errs.StorageFailure, "calling IPFS add", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errs.E(errs.StorageFailure, "IPFS add returned status %d", resp.StatusCode)
	}
	var ar addResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", errs.E(errs.StorageFailure, "decoding IPFS add response", err)
	}
	if _, err := cid.Decode(ar.Hash); err != nil {
		return "", errs.E(errs.CorruptIndex, "IPFS returned an invalid CID %q", ar.Hash, err)
	}
	if b.Pin {
		if err := b.pin(ctx, ar.Hash); err != nil {
			return "", err
		}
	}
	return ar.Hash, nil
}

func (b *Backend) pin(ctx context.Context, hash string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/v0/pin/add?arg=%s", b.APIAddr, hash), nil)
	if err != nil {
		return errs.E(errs.StorageFailure, "building IPFS pin request", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return errs.E(errs.StorageFailure, "pinning %s", hash, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errs.E(errs.StorageFailure, "IPFS pin returned status %d", resp.StatusCode)
	}
	return nil
}

// Load fetches the blob addressed by the given CID.
func (b *Backend) Load(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/v0/cat?arg=%s", b.APIAddr, path), nil)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "building IPFS cat request", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "fetching %s", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.StorageFailure, "IPFS cat returned status %d for %s", resp.StatusCode, path)
	}
	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "reading %s", path, err)
	}
	return data, nil
}

// InitArgs implements storage.Backend.
func (b *Backend) InitArgs() map[string]interface{} {
	return map[string]interface{}{"api_addr": b.APIAddr, "pin": b.Pin}
}

// sha256Multihash is a small helper kept to exercise go-multihash's
// encoding directly (e.g. for callers that want to precompute a CID
// before contacting the node); it is not on the Save/Load hot path.
func sha256Multihash(data []byte) (mh.Multihash, error) {
	return mh.Sum(data, mh.SHA2_256, -1)
}
