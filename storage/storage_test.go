package storage_test

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/storage"
	_ "github.com/grailbio/sketch/storage/fs"
)

func TestFilesystemRegisteredBackend(t *testing.T) {
	dir, err := ioutil.TempDir("", "storagetest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	b, err := storage.New("fs", map[string]interface{}{"root": dir})
	require.NoError(t, err)

	ctx := context.Background()
	effective, err := b.Save(ctx, "leaves/0.bloom", []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "leaves/0.bloom", effective)

	data, err := b.Load(ctx, "leaves/0.bloom")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestUnregisteredBackend(t *testing.T) {
	_, err := storage.New("nonexistent", nil)
	require.Error(t, err)
}
