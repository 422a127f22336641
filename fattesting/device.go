// Package fattesting provides block-device test doubles shared by this
// module's package tests: synthetic images and an instrumented BlockDevice
// wrapper that counts calls and enforces bounds and permission checks on
// every access.
package fattesting

import (
	"crypto/rand"
	"testing"

	gofat "github.com/go-fat/gofat"
	"github.com/go-fat/gofat/blockdev"
	"github.com/stretchr/testify/require"
)

// RandomImage returns totalSectors*bytesPerSector bytes of random data,
// failing t if the RNG errors. Useful for exercising code paths that must
// tolerate (or reject) pre-existing garbage, as opposed to the all-zero
// image SuperFloppyFormatter expects to write into.
func RandomImage(t *testing.T, bytesPerSector, totalSectors uint32) []byte {
	t.Helper()
	data := make([]byte, uint64(bytesPerSector)*uint64(totalSectors))
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to fill %d bytes of random image data", len(data))
	return data
}

// NewRandomDevice builds a MemoryBlockDevice over RandomImage data.
func NewRandomDevice(t *testing.T, bytesPerSector, totalSectors uint32, readOnly bool) *blockdev.MemoryBlockDevice {
	t.Helper()
	return blockdev.New(RandomImage(t, bytesPerSector, totalSectors), bytesPerSector, readOnly)
}

// NewZeroedDevice builds an all-zero MemoryBlockDevice of the given size,
// the shape SuperFloppyFormatter expects a fresh device to be in.
func NewZeroedDevice(bytesPerSector, totalSectors uint32, readOnly bool) *blockdev.MemoryBlockDevice {
	return blockdev.New(make([]byte, uint64(bytesPerSector)*uint64(totalSectors)), bytesPerSector, readOnly)
}

// InstrumentedDevice wraps a gofat.BlockDevice, counting ReadAt/WriteAt/
// Flush calls. An access that runs past the device's reported size stops
// the test immediately; a write to a read-only device is recorded as a test
// failure and still passed on to the wrapped device.
type InstrumentedDevice struct {
	gofat.BlockDevice
	t          *testing.T
	ReadCount  int
	WriteCount int
	FlushCount int
}

// Wrap returns an InstrumentedDevice around dev.
func Wrap(t *testing.T, dev gofat.BlockDevice) *InstrumentedDevice {
	return &InstrumentedDevice{BlockDevice: dev, t: t}
}

func (d *InstrumentedDevice) ReadAt(offset uint64, buf []byte) error {
	d.ReadCount++
	d.checkBounds("read", offset, len(buf))
	return d.BlockDevice.ReadAt(offset, buf)
}

func (d *InstrumentedDevice) WriteAt(offset uint64, buf []byte) error {
	d.WriteCount++
	if d.BlockDevice.IsReadOnly() {
		d.t.Errorf("attempted to write %d bytes at offset %d to a read-only device", len(buf), offset)
	}
	d.checkBounds("write", offset, len(buf))
	return d.BlockDevice.WriteAt(offset, buf)
}

func (d *InstrumentedDevice) Flush() error {
	d.FlushCount++
	return d.BlockDevice.Flush()
}

func (d *InstrumentedDevice) checkBounds(op string, offset uint64, length int) {
	size, err := d.BlockDevice.Size()
	require.NoError(d.t, err)
	require.LessOrEqualf(
		d.t, offset+uint64(length), size,
		"%s outside bounds: offset %d length %d device size %d", op, offset, length, size,
	)
}

var _ gofat.BlockDevice = (*InstrumentedDevice)(nil)
