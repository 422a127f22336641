package errors_test

import (
	"errors"
	"testing"

	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/stretchr/testify/assert"
)

func TestGoFatErrorWithMessage(t *testing.T) {
	newErr := gofaterrors.ErrNoFreeCluster.WithMessage("wanted 1, had 0")
	assert.Equal(
		t, "no free cluster available: wanted 1, had 0", newErr.Error(),
		"error message is wrong")
	assert.ErrorIs(t, newErr, gofaterrors.ErrNoFreeCluster)
}

func TestGoFatErrorWrapError(t *testing.T) {
	originalErr := errors.New("short read from device")
	newErr := gofaterrors.ErrDeviceIO.WrapError(originalErr)

	assert.EqualValues(
		t, "device I/O failed: short read from device", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr, "original error not set as cause")
	assert.ErrorIs(t, newErr, gofaterrors.ErrDeviceIO,
		"wrapping a cause must not hide the error kind")
}

func TestDriverErrorChaining(t *testing.T) {
	base := gofaterrors.ErrFatMismatch.WithMessage("FAT #1 differs from FAT #0")
	chained := base.WithMessage("mount aborted")

	assert.ErrorIs(t, chained, gofaterrors.ErrFatMismatch)
	assert.Contains(t, chained.Error(), "FAT #1 differs from FAT #0")
	assert.Contains(t, chained.Error(), "mount aborted")
}
