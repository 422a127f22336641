// Package blockdev provides a gofat.BlockDevice backed by an in-memory byte
// slice, built on bytesextra.NewReadWriteSeeker to turn a raw byte slice
// into a seekable stream for disk image testing.
package blockdev

import (
	"io"

	gofat "github.com/go-fat/gofat"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/xaionaro-go/bytesextra"
)

// MemoryBlockDevice implements gofat.BlockDevice over a fixed-size in-memory
// buffer. Its size never changes after construction; ReadAt/WriteAt reject
// any access that would run past the end of the buffer.
type MemoryBlockDevice struct {
	stream     io.ReadWriteSeeker
	size       uint64
	sectorSize uint32
	readOnly   bool
}

// New wraps data as a MemoryBlockDevice with the given sector size. data is
// used directly as the backing store; writes through the returned device
// mutate it in place.
func New(data []byte, sectorSize uint32, readOnly bool) *MemoryBlockDevice {
	return &MemoryBlockDevice{
		stream:     bytesextra.NewReadWriteSeeker(data),
		size:       uint64(len(data)),
		sectorSize: sectorSize,
		readOnly:   readOnly,
	}
}

// Size returns the fixed size of the backing buffer.
func (d *MemoryBlockDevice) Size() (uint64, error) {
	return d.size, nil
}

// SectorSize returns the device's configured sector size.
func (d *MemoryBlockDevice) SectorSize() uint32 {
	return d.sectorSize
}

// ReadAt fills buf with the bytes at offset.
func (d *MemoryBlockDevice) ReadAt(offset uint64, buf []byte) error {
	if offset+uint64(len(buf)) > d.size {
		return gofaterrors.ErrInvalidArgument.WithMessage("read past end of device")
	}
	if _, err := d.stream.Seek(int64(offset), io.SeekStart); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// WriteAt writes buf to offset.
func (d *MemoryBlockDevice) WriteAt(offset uint64, buf []byte) error {
	if d.readOnly {
		return gofaterrors.ErrReadOnly
	}
	if offset+uint64(len(buf)) > d.size {
		return gofaterrors.ErrInvalidArgument.WithMessage("write past end of device")
	}
	if _, err := d.stream.Seek(int64(offset), io.SeekStart); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// Flush is a no-op: writes land directly in the backing buffer.
func (d *MemoryBlockDevice) Flush() error {
	return nil
}

// IsReadOnly reports whether this device rejects WriteAt.
func (d *MemoryBlockDevice) IsReadOnly() bool {
	return d.readOnly
}

var _ gofat.BlockDevice = (*MemoryBlockDevice)(nil)
