// Package sector implements the fixed-capacity little-endian buffer that
// boot-sector-like structures (the BPB, the FSInfo sector) are built on top
// of.
package sector

import (
	"encoding/binary"

	"github.com/boljen/go-bitmap"
	gofaterrors "github.com/go-fat/gofat/errors"
)

// Sector is a fixed-size little-endian byte buffer bound to a device offset.
// Setters mark it dirty; Write() is a no-op while it's clean, and Read()
// always clears the dirty bit.
type Sector struct {
	offset uint64
	data   []byte
	dirty  bitmap.Bitmap
}

// New creates a Sector of the given capacity (typically 512, or the device's
// SectorSize for FSInfo) bound to offset on the device.
func New(offset uint64, capacity uint32) *Sector {
	return &Sector{
		offset: offset,
		data:   make([]byte, capacity),
		dirty:  bitmap.New(1),
	}
}

// Offset returns the device offset this sector is bound to.
func (s *Sector) Offset() uint64 {
	return s.offset
}

// Len returns the sector's capacity in bytes.
func (s *Sector) Len() int {
	return len(s.data)
}

// Bytes returns the raw underlying buffer. Callers must not retain it past
// the next Read/Write call.
func (s *Sector) Bytes() []byte {
	return s.data
}

// IsDirty reports whether any setter has run since the last Read or Write.
func (s *Sector) IsDirty() bool {
	return s.dirty.Get(0)
}

func (s *Sector) markDirty() {
	s.dirty.Set(0, true)
}

func (s *Sector) checkRange(offset, width int) error {
	if offset < 0 || width < 0 || offset+width > len(s.data) {
		return gofaterrors.ErrInvalidArgument.WithMessage(
			"sector access out of range")
	}
	return nil
}

// Get8 returns the byte at offset.
func (s *Sector) Get8(offset int) (uint8, error) {
	if err := s.checkRange(offset, 1); err != nil {
		return 0, err
	}
	return s.data[offset], nil
}

// Set8 sets the byte at offset and marks the sector dirty.
func (s *Sector) Set8(offset int, value uint8) error {
	if err := s.checkRange(offset, 1); err != nil {
		return err
	}
	s.data[offset] = value
	s.markDirty()
	return nil
}

// Get16 returns the little-endian uint16 at offset.
func (s *Sector) Get16(offset int) (uint16, error) {
	if err := s.checkRange(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s.data[offset : offset+2]), nil
}

// Set16 writes value as little-endian at offset and marks the sector dirty.
// It is the setter's job to reject values that don't fit; since value is
// already a uint16, there is nothing to reject here, but the signature is
// kept symmetric with Set32 for callers that build on top of this package.
func (s *Sector) Set16(offset int, value uint16) error {
	if err := s.checkRange(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s.data[offset:offset+2], value)
	s.markDirty()
	return nil
}

// Get32 returns the little-endian uint32 at offset.
func (s *Sector) Get32(offset int) (uint32, error) {
	if err := s.checkRange(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s.data[offset : offset+4]), nil
}

// Set32 writes value as little-endian at offset and marks the sector dirty.
func (s *Sector) Set32(offset int, value uint32) error {
	if err := s.checkRange(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s.data[offset:offset+4], value)
	s.markDirty()
	return nil
}

// SetBytes copies value into the sector starting at offset and marks it
// dirty. Used for fixed-width string fields (OEMName, VolumeLabel, ...).
func (s *Sector) SetBytes(offset int, value []byte) error {
	if err := s.checkRange(offset, len(value)); err != nil {
		return err
	}
	copy(s.data[offset:offset+len(value)], value)
	s.markDirty()
	return nil
}

// GetBytes returns a copy of count bytes starting at offset.
func (s *Sector) GetBytes(offset, count int) ([]byte, error) {
	if err := s.checkRange(offset, count); err != nil {
		return nil, err
	}
	out := make([]byte, count)
	copy(out, s.data[offset:offset+count])
	return out, nil
}

// Reader is the minimal device interface Sector needs for Read/Write.
type Reader interface {
	ReadAt(offset uint64, buf []byte) error
}

// Writer is the minimal device interface Sector needs for Write.
type Writer interface {
	WriteAt(offset uint64, buf []byte) error
}

// Read loads the sector's contents from dev at Offset() and clears the dirty
// bit.
func (s *Sector) Read(dev Reader) error {
	if err := dev.ReadAt(s.offset, s.data); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	s.dirty.Set(0, false)
	return nil
}

// Write persists the sector's contents to dev at Offset() and clears the
// dirty bit. It is a no-op if the sector isn't dirty.
func (s *Sector) Write(dev Writer) error {
	if !s.IsDirty() {
		return nil
	}
	if err := dev.WriteAt(s.offset, s.data); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	s.dirty.Set(0, false)
	return nil
}
