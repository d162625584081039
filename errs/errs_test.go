package errs_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/sketch/errs"
)

func TestEAndIs(t *testing.T) {
	base := fmt.Errorf("disk on fire")
	err := errs.E(errs.StorageFailure, "loading %s", "foo.sig", base)
	require.True(t, errs.Is(err, errs.StorageFailure))
	require.False(t, errs.Is(err, errs.InvalidInput))
	require.Equal(t, errs.StorageFailure, errs.KindOf(err))
	require.Contains(t, err.Error(), "loading foo.sig")
	require.Contains(t, err.Error(), "disk on fire")
}

func TestEWithoutCause(t *testing.T) {
	err := errs.E(errs.InvalidInput, "ksize %d too small", 2)
	require.Equal(t, "invalid input: ksize 2 too small", err.Error())
	require.Nil(t, err.Err)
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, errs.Other, errs.KindOf(fmt.Errorf("plain")))
}
