package signature_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/minhash"
	"github.com/grailbio/sketch/signature"
)

func newDNAMinHash(t *testing.T, seq string) *minhash.MinHash {
	t.Helper()
	mh, err := minhash.New(5, minhash.WithNum(10))
	require.NoError(t, err)
	require.NoError(t, mh.AddSequence([]byte(seq)))
	return mh
}

func TestRoundTrip(t *testing.T) {
	mh := newDNAMinHash(t, "ACGTACGTACGTACGTACGT")
	sig := signature.Signature{
		Email:    "test@example.com",
		Name:     "sample",
		Sketches: []signature.Sketch{signature.FromMinHash(mh)},
	}

	var buf bytes.Buffer
	require.NoError(t, signature.Save(&buf, []signature.Signature{sig}))

	loaded, err := signature.Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, sig.Email, loaded[0].Email)
	require.Equal(t, sig.Sketches[0].MD5Sum, loaded[0].Sketches[0].MD5Sum)
	require.Equal(t, sig.Sketches[0].Mins, loaded[0].Sketches[0].Mins)
}

func TestLoadRejectsCorruptMD5(t *testing.T) {
	mh := newDNAMinHash(t, "ACGTACGTACGTACGTACGT")
	sk := signature.FromMinHash(mh)
	sk.MD5Sum = "0000000000000000000000000000000"
	sig := signature.Signature{Email: "x@example.com", Sketches: []signature.Sketch{sk}}

	var buf bytes.Buffer
	require.NoError(t, signature.Save(&buf, []signature.Signature{sig}))

	_, err := signature.Load(&buf)
	require.Error(t, err)
}

func TestSelectAmbiguous(t *testing.T) {
	mh21, _ := minhash.New(21, minhash.WithNum(10))
	mh21b, _ := minhash.New(21, minhash.WithNum(10))
	sig := signature.Signature{Sketches: []signature.Sketch{
		signature.FromMinHash(mh21), signature.FromMinHash(mh21b),
	}}
	_, err := sig.Select(21, "DNA")
	require.Error(t, err)
}

func TestLoadCachedRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "sigcache")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	mh := newDNAMinHash(t, "ACGTACGTACGTACGTACGT")
	sig := signature.Signature{Email: "a@b.com", Sketches: []signature.Sketch{signature.FromMinHash(mh)}}

	path := filepath.Join(dir, "sample.sig")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, signature.Save(f, []signature.Signature{sig}))
	require.NoError(t, f.Close())

	sigs, err := signature.LoadCached(path)
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	_, err = os.Stat(path + ".cache")
	require.NoError(t, err)

	// Second load should hit the cache and still return identical data.
	sigs2, err := signature.LoadCached(path)
	require.NoError(t, err)
	require.Equal(t, sigs[0].Sketches[0].MD5Sum, sigs2[0].Sketches[0].MD5Sum)
}
