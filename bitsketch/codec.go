package bitsketch

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/gzip"
	"github.com/minio/highwayhash"

	"github.com/grailbio/sketch/errs"
)

// checksumKey is a fixed 32-byte key for the highwayhash integrity check
// appended to every saved blob. It is not a secret: the checksum guards
// against accidental truncation/corruption of a blob in a storage
// backend, not against tampering.
var checksumKey = make([]byte, highwayhash.Size)

// Save writes b as a gzip-compressed binary blob: a header of ksize,
// n_tables, tablesize, followed by each table's marshaled bytes (each
// preceded by its 8-byte length), followed by a highwayhash checksum of
// the header+tables.
func (b *BitSketch) Save(w io.Writer) error {
	var body bytes.Buffer
	hdr := make([]byte, 16)
	binary.LittleEndian.PutUint32(hdr[0:4], b.Ksize)
	binary.LittleEndian.PutUint32(hdr[4:8], b.NTables)
	binary.LittleEndian.PutUint64(hdr[8:16], b.Tablesize)
	body.Write(hdr)
	for _, t := range b.tables {
		tableBytes, err := t.MarshalBinary()
		if err != nil {
			return errs.E(errs.StorageFailure, "marshaling bloom table", err)
		}
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(tableBytes)))
		body.Write(lenBuf[:])
		body.Write(tableBytes)
	}

	sum := highwayhash.Sum(body.Bytes(), checksumKey)

	gw := gzip.NewWriter(w)
	if _, err := gw.Write(body.Bytes()); err != nil {
		return errs.E(errs.StorageFailure, "writing bloom blob", err)
	}
	if _, err := gw.Write(sum[:]); err != nil {
		return errs.E(errs.StorageFailure, "writing bloom blob checksum", err)
	}
	if err := gw.Close(); err != nil {
		return errs.E(errs.StorageFailure, "closing bloom blob writer", err)
	}
	return nil
}

// Load reads a blob written by Save, verifying its checksum. It fails
// with errs.CorruptIndex if the checksum does not match.
func Load(r io.Reader) (*BitSketch, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errs.E(errs.CorruptIndex, "opening bloom blob", err)
	}
	defer gr.Close()
	raw, err := ioutil.ReadAll(gr)
	if err != nil {
		return nil, errs.E(errs.CorruptIndex, "reading bloom blob", err)
	}
	if len(raw) < highwayhash.Size {
		return nil, errs.E(errs.CorruptIndex, "bloom blob too short")
	}
	body, sum := raw[:len(raw)-highwayhash.Size], raw[len(raw)-highwayhash.Size:]
	want := highwayhash.Sum(body, checksumKey)
	if !bytes.Equal(want[:], sum) {
		return nil, errs.E(errs.CorruptIndex, "bloom blob checksum mismatch")
	}
	if len(body) < 16 {
		return nil, errs.E(errs.CorruptIndex, "bloom blob header truncated")
	}
	ksize := binary.LittleEndian.Uint32(body[0:4])
	nTables := binary.LittleEndian.Uint32(body[4:8])
	tablesize := binary.LittleEndian.Uint64(body[8:16])
	bs := newBitSketch(ksize, tablesize, nTables)
	off := 16
	for i := uint32(0); i < nTables; i++ {
		if off+8 > len(body) {
			return nil, errs.E(errs.CorruptIndex, "bloom blob truncated at table %d", i)
		}
		n := binary.LittleEndian.Uint64(body[off : off+8])
		off += 8
		if off+int(n) > len(body) {
			return nil, errs.E(errs.CorruptIndex, "bloom blob truncated at table %d", i)
		}
		if err := bs.tables[i].UnmarshalBinary(body[off : off+int(n)]); err != nil {
			return nil, errs.E(errs.CorruptIndex, "unmarshaling bloom table %d", i, err)
		}
		off += int(n)
	}
	return bs, nil
}
