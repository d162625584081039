package signature

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/grailbio/sketch/errs"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// wireSketch mirrors the on-disk JSON shape of one sketch.
type wireSketch struct {
	Ksize      uint32   `json:"ksize"`
	Num        uint64   `json:"num"`
	MaxHash    uint64   `json:"max_hash"`
	Seed       uint64   `json:"seed"`
	Molecule   string   `json:"molecule"`
	Mins       []uint64 `json:"mins"`
	Abundances []uint64 `json:"abundances,omitempty"`
	MD5Sum     string   `json:"md5sum"`
}

// wireSignature mirrors the on-disk JSON shape of one signature record.
type wireSignature struct {
	Class        string       `json:"class"`
	Email        string       `json:"email"`
	Name         string       `json:"name,omitempty"`
	Filename     string       `json:"filename,omitempty"`
	Version      string       `json:"version"`
	HashFunction string       `json:"hash_function"`
	Signatures   []wireSketch `json:"signatures"`
}

func toWire(s *Signature) wireSignature {
	w := wireSignature{
		Class: className, Email: s.Email, Name: s.Name, Filename: s.Filename,
		Version: FormatVersion, HashFunction: hashFunction,
	}
	for _, sk := range s.Sketches {
		w.Signatures = append(w.Signatures, wireSketch{
			Ksize: sk.Ksize, Num: sk.Num, MaxHash: sk.MaxHash, Seed: sk.Seed,
			Molecule: sk.Molecule, Mins: sk.Mins, Abundances: sk.Abundances,
			MD5Sum: sk.MD5Sum,
		})
	}
	return w
}

func fromWire(w wireSignature) Signature {
	s := Signature{Email: w.Email, Name: w.Name, Filename: w.Filename}
	for _, sk := range w.Signatures {
		s.Sketches = append(s.Sketches, Sketch{
			Ksize: sk.Ksize, Num: sk.Num, MaxHash: sk.MaxHash, Seed: sk.Seed,
			Molecule: sk.Molecule, Mins: sk.Mins, Abundances: sk.Abundances,
			MD5Sum: sk.MD5Sum,
		})
	}
	return s
}

// Save writes sigs as a JSON array to w.
func Save(w io.Writer, sigs []Signature) error {
	enc := jsonAPI.NewEncoder(w)
	wire := make([]wireSignature, len(sigs))
	for i := range sigs {
		wire[i] = toWire(&sigs[i])
	}
	if err := enc.Encode(wire); err != nil {
		return errs.E(errs.StorageFailure, "writing signature JSON", err)
	}
	return nil
}

// Decoder streams a top-level signature JSON array one record at a time,
// so that very large signature files (potentially millions of hashes)
// never need to be held fully in memory as an intermediate
// representation beyond one record.
type Decoder struct {
	it *jsoniter.Iterator
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{it: jsoniter.Parse(jsonAPI, r, 1<<16)}
}

// Next decodes the next Signature record, returning (nil, false, nil) when
// the array is exhausted.
func (d *Decoder) Next() (*Signature, bool, error) {
	if !d.it.ReadArray() {
		return nil, false, d.checkErr()
	}
	var w wireSignature
	d.it.ReadVal(&w)
	if err := d.checkErr(); err != nil {
		return nil, false, err
	}
	sig := fromWire(w)
	return &sig, true, nil
}

func (d *Decoder) checkErr() error {
	if d.it.Error != nil && d.it.Error != io.EOF {
		return errs.E(errs.CorruptSignature, "parsing signature JSON", d.it.Error)
	}
	return nil
}

// Load reads every signature record from r, verifying each sketch's
// md5sum as it goes (errs.CorruptSignature on mismatch).
func Load(r io.Reader) ([]Signature, error) {
	dec := NewDecoder(r)
	var out []Signature
	for {
		sig, ok, err := dec.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, sk := range sig.Sketches {
			if _, err := sk.ToMinHash(); err != nil {
				return nil, err
			}
		}
		out = append(out, *sig)
	}
	return out, nil
}
