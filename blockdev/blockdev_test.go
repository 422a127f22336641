package blockdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	dev := New(make([]byte, 4096), 512, false)
	payload := []byte("some sector contents")

	require.NoError(t, dev.WriteAt(512, payload))

	buf := make([]byte, len(payload))
	require.NoError(t, dev.ReadAt(512, buf))
	assert.Equal(t, payload, buf)
}

func TestReadPastEndFails(t *testing.T) {
	dev := New(make([]byte, 1024), 512, false)
	buf := make([]byte, 10)
	assert.Error(t, dev.ReadAt(1020, buf))
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	dev := New(make([]byte, 512), 512, true)
	assert.ErrorContains(t, dev.WriteAt(0, []byte("x")), "read-only")
	assert.True(t, dev.IsReadOnly())
}

func TestSizeAndSectorSize(t *testing.T) {
	dev := New(make([]byte, 2048), 512, false)
	size, err := dev.Size()
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), size)
	assert.Equal(t, uint32(512), dev.SectorSize())
}
