package sector_test

import (
	"testing"

	"github.com/go-fat/gofat/sector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDevice struct {
	data []byte
}

func (d *memDevice) ReadAt(offset uint64, buf []byte) error {
	copy(buf, d.data[offset:offset+uint64(len(buf))])
	return nil
}

func (d *memDevice) WriteAt(offset uint64, buf []byte) error {
	copy(d.data[offset:offset+uint64(len(buf))], buf)
	return nil
}

func TestSectorFieldRoundTrip(t *testing.T) {
	s := sector.New(0, 512)

	require.NoError(t, s.Set16(11, 512))
	require.NoError(t, s.Set8(13, 4))
	require.NoError(t, s.Set32(28, 0xDEADBEEF))

	v16, err := s.Get16(11)
	require.NoError(t, err)
	assert.EqualValues(t, 512, v16)

	v8, err := s.Get8(13)
	require.NoError(t, err)
	assert.EqualValues(t, 4, v8)

	v32, err := s.Get32(28)
	require.NoError(t, err)
	assert.EqualValues(t, 0xDEADBEEF, v32)
}

func TestSectorDirtyTracking(t *testing.T) {
	s := sector.New(512, 512)
	assert.False(t, s.IsDirty())

	require.NoError(t, s.Set8(0, 0xEB))
	assert.True(t, s.IsDirty())

	dev := &memDevice{data: make([]byte, 1024)}
	require.NoError(t, s.Write(dev))
	assert.False(t, s.IsDirty(), "Write should clear the dirty bit")
}

func TestSectorWriteNoOpWhenClean(t *testing.T) {
	s := sector.New(0, 512)
	dev := &memDevice{data: []byte("sentinel-data-that-should-not-change...")}
	original := append([]byte(nil), dev.data...)

	require.NoError(t, s.Write(dev))
	assert.Equal(t, original, dev.data, "clean sector must not write through")
}

func TestSectorOutOfRange(t *testing.T) {
	s := sector.New(0, 16)
	_, err := s.Get32(14)
	assert.Error(t, err)

	err = s.Set8(16, 1)
	assert.Error(t, err)
}

func TestSectorReadClearsDirty(t *testing.T) {
	dev := &memDevice{data: make([]byte, 512)}
	dev.data[5] = 0x42

	s := sector.New(0, 512)
	require.NoError(t, s.Set8(0, 0xFF))
	assert.True(t, s.IsDirty())

	require.NoError(t, s.Read(dev))
	assert.False(t, s.IsDirty())

	v, err := s.Get8(5)
	require.NoError(t, err)
	assert.EqualValues(t, 0x42, v)
}
