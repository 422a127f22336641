package fattesting

import (
	"testing"

	"github.com/go-fat/gofat/blockdev"
	"github.com/go-fat/gofat/filesystem"
	"github.com/go-fat/gofat/format"
	"github.com/stretchr/testify/require"
)

// FormattedDevice formats a zeroed MemoryBlockDevice of the given size with
// opts and returns both the device and the FatFileSystem format.Format
// handed back, failing t on any error. Package tests that just need "a
// mounted volume to poke at" should use this instead of hand-assembling a
// boot sector.
func FormattedDevice(t *testing.T, sizeBytes uint64, opts format.Options) (*blockdev.MemoryBlockDevice, *filesystem.FatFileSystem) {
	t.Helper()
	const sectorSize = 512
	dev := blockdev.New(make([]byte, sizeBytes), sectorSize, false)
	fsys, err := format.Format(dev, opts)
	require.NoError(t, err, "failed to format test device")
	return dev, fsys
}
