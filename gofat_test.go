package gofat_test

import (
	"testing"

	gofat "github.com/go-fat/gofat"
	"github.com/go-fat/gofat/fattesting"
	"github.com/go-fat/gofat/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatWriteRemountThroughPublicSurface drives the whole library the
// way an importing program would: format, create a file, write, flush, and
// mount again through an instrumented device that fails the test on any
// out-of-bounds or read-only-violating access.
func TestFormatWriteRemountThroughPublicSurface(t *testing.T) {
	dev, fsys := fattesting.FormattedDevice(t, 100*1024*1024, format.Options{VolumeLabel: "E2E"})
	assert.Equal(t, gofat.FAT16, fsys.FatType())

	f, err := fsys.Root().AddFile("greeting.txt")
	require.NoError(t, err)
	payload := []byte("hello from gofat")
	_, err = f.Write(0, payload)
	require.NoError(t, err)
	require.NoError(t, fsys.Flush())
	fsys.Close()

	wrapped := fattesting.Wrap(t, dev)
	remounted, err := gofat.Mount(wrapped, gofat.MountOptions{})
	require.NoError(t, err)
	assert.Positive(t, wrapped.ReadCount)

	label, err := remounted.VolumeLabel()
	require.NoError(t, err)
	assert.Equal(t, "E2E", label)

	f2, err := remounted.Root().OpenFile("greeting.txt")
	require.NoError(t, err)
	buf := make([]byte, len(payload))
	n, err := f2.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:n])
}

// TestReadOnlyMountOverInstrumentedDevice asserts the read-only discipline
// with the instrumented wrapper watching: a read-only mount of a formatted
// volume must never issue a WriteAt.
func TestReadOnlyMountOverInstrumentedDevice(t *testing.T) {
	zeroed := fattesting.NewZeroedDevice(512, 16*1024, false)
	_, err := gofat.Format(zeroed, gofat.FormatOptions{FatType: gofat.FAT12})
	require.NoError(t, err)

	wrapped := fattesting.Wrap(t, zeroed)
	before := wrapped.WriteCount

	fsys, err := gofat.Mount(wrapped, gofat.MountOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, fsys.Root().List())
	require.NoError(t, fsys.Flush())
	assert.Equal(t, before, wrapped.WriteCount)
}
