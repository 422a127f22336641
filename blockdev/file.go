package blockdev

import (
	"os"

	gofat "github.com/go-fat/gofat"
	gofaterrors "github.com/go-fat/gofat/errors"
)

// FileBlockDevice implements gofat.BlockDevice over an *os.File, the shape
// cmd/gofatutil needs to operate on a real disk image instead of an
// in-memory buffer.
type FileBlockDevice struct {
	f          *os.File
	size       uint64
	sectorSize uint32
	readOnly   bool
}

// OpenFile opens path and wraps it as a FileBlockDevice. If readOnly is
// false, path is opened for read/write; it must already exist and be at
// least one sector long.
func OpenFile(path string, sectorSize uint32, readOnly bool) (*FileBlockDevice, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, gofaterrors.ErrDeviceIO.WrapError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return &FileBlockDevice{
		f:          f,
		size:       uint64(info.Size()),
		sectorSize: sectorSize,
		readOnly:   readOnly,
	}, nil
}

// Size returns the underlying file's size, as of when it was opened.
func (d *FileBlockDevice) Size() (uint64, error) {
	return d.size, nil
}

// SectorSize returns the device's configured sector size.
func (d *FileBlockDevice) SectorSize() uint32 {
	return d.sectorSize
}

// ReadAt fills buf with the bytes at offset.
func (d *FileBlockDevice) ReadAt(offset uint64, buf []byte) error {
	if offset+uint64(len(buf)) > d.size {
		return gofaterrors.ErrInvalidArgument.WithMessage("read past end of device")
	}
	if _, err := d.f.ReadAt(buf, int64(offset)); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// WriteAt writes buf to offset.
func (d *FileBlockDevice) WriteAt(offset uint64, buf []byte) error {
	if d.readOnly {
		return gofaterrors.ErrReadOnly
	}
	if offset+uint64(len(buf)) > d.size {
		return gofaterrors.ErrInvalidArgument.WithMessage("write past end of device")
	}
	if _, err := d.f.WriteAt(buf, int64(offset)); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// Flush fsyncs the underlying file.
func (d *FileBlockDevice) Flush() error {
	if d.readOnly {
		return nil
	}
	if err := d.f.Sync(); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// IsReadOnly reports whether this device rejects WriteAt.
func (d *FileBlockDevice) IsReadOnly() bool {
	return d.readOnly
}

// Close closes the underlying file. It does not flush; callers that want
// durability must call Flush first.
func (d *FileBlockDevice) Close() error {
	return d.f.Close()
}

var _ gofat.BlockDevice = (*FileBlockDevice)(nil)
