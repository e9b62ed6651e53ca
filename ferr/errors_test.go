package ferr_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Frobeniusnorm/Flint-sub000/ferr"
)

func TestNewRecordsLastError(t *testing.T) {
	ferr.ClearLast()
	err := ferr.New(ferr.IncompatibleShapes, "shapes %v and %v differ", []int{2, 3}, []int{3, 2})
	require.Error(t, err)
	require.Equal(t, ferr.IncompatibleShapes, err.Kind)
	require.Same(t, err, ferr.Last())
}

func TestWrapPreservesCauseAndUnwraps(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := ferr.Wrap(ferr.OclError, cause, "device dispatch failed")
	require.ErrorIs(t, err, cause)
	require.True(t, ferr.As(err, ferr.OclError))
	require.False(t, ferr.As(err, ferr.IoError))
}

func TestAsTraversesWrappedChain(t *testing.T) {
	inner := ferr.New(ferr.IllegalDerive, "no local gradient")
	outer := fmt.Errorf("gradient pass failed: %w", inner)
	require.True(t, ferr.As(outer, ferr.IllegalDerive))
}

func TestClearLastResetsSlot(t *testing.T) {
	ferr.New(ferr.WrongType, "boom")
	require.NotNil(t, ferr.Last())
	ferr.ClearLast()
	require.Nil(t, ferr.Last())
}
