// Package lfn implements VFAT long-file-name entry packing and unpacking:
// each 32-byte slot carries 13 UCS-2 code units of the name, an ordinal
// tying it to its position in the chain, and the short-name checksum that
// binds the chain to its short entry.
package lfn

import (
	"encoding/binary"

	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/shortname"
)

// UnitsPerSlot is the number of UCS-2 code units packed into one LFN slot.
const UnitsPerSlot = 13

// MaxSlots bounds a name to 255 UCS-2 code units (20 slots x 13 - 5 spare).
const MaxSlots = 20

// lastSlotFlag marks the first-written (logically last) slot of a chain.
const lastSlotFlag = 0x40

const ordinalMask = 0x1F

// byte offsets within a 32-byte LFN slot.
const (
	offOrdinal   = 0x00
	offChars1    = 0x01 // 5 units
	offAttr      = 0x0B
	offType      = 0x0C
	offChecksum  = 0x0D
	offChars2    = 0x0E // 6 units
	offFirstClus = 0x1A // always 0
	offChars3    = 0x1C // 2 units
)

// Slot is one decoded VFAT long-name entry.
type Slot struct {
	Ordinal  uint8 // 1..N, with lastSlotFlag set on the first-written slot
	Units    [UnitsPerSlot]uint16
	Checksum uint8
}

// IsLast reports whether this slot is the first-written (logically last,
// highest-ordinal) slot of its chain.
func (s Slot) IsLast() bool {
	return s.Ordinal&lastSlotFlag != 0
}

// SequenceNumber returns the 1-based position within the chain, ignoring
// the last-slot flag.
func (s Slot) SequenceNumber() int {
	return int(s.Ordinal & ordinalMask)
}

// Encode serializes the slot into its 32-byte on-disk form.
func (s Slot) Encode() []byte {
	raw := make([]byte, 32)
	raw[offOrdinal] = s.Ordinal
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint16(raw[offChars1+i*2:], s.Units[i])
	}
	raw[offAttr] = 0x0F
	raw[offType] = 0
	raw[offChecksum] = s.Checksum
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint16(raw[offChars2+i*2:], s.Units[5+i])
	}
	binary.LittleEndian.PutUint16(raw[offFirstClus:], 0)
	for i := 0; i < 2; i++ {
		binary.LittleEndian.PutUint16(raw[offChars3+i*2:], s.Units[11+i])
	}
	return raw
}

// DecodeSlot parses a 32-byte on-disk LFN entry.
func DecodeSlot(raw []byte) Slot {
	var s Slot
	s.Ordinal = raw[offOrdinal]
	for i := 0; i < 5; i++ {
		s.Units[i] = binary.LittleEndian.Uint16(raw[offChars1+i*2:])
	}
	s.Checksum = raw[offChecksum]
	for i := 0; i < 6; i++ {
		s.Units[5+i] = binary.LittleEndian.Uint16(raw[offChars2+i*2:])
	}
	for i := 0; i < 2; i++ {
		s.Units[11+i] = binary.LittleEndian.Uint16(raw[offChars3+i*2:])
	}
	return s
}

// Pack converts name into the sequence of LFN slots needed to store it,
// in on-disk order (highest ordinal, i.e. lastSlotFlag set, first).
// checksum is the owning short entry's shortname.Checksum value.
func Pack(name string, checksum uint8) ([]Slot, error) {
	units := utf16Encode(name)
	slotCount := (len(units) + UnitsPerSlot - 1) / UnitsPerSlot
	if slotCount == 0 {
		slotCount = 1
	}
	if slotCount > MaxSlots || len(units) > MaxSlots*UnitsPerSlot-5 {
		return nil, gofaterrors.ErrNameTooLong
	}

	padded := make([]uint16, slotCount*UnitsPerSlot)
	for i := range padded {
		padded[i] = 0xFFFF
	}
	copy(padded, units)
	if len(units) < len(padded) {
		padded[len(units)] = 0 // null terminator
	}

	slots := make([]Slot, slotCount)
	for i := 0; i < slotCount; i++ {
		seq := i + 1
		ordinal := uint8(seq)
		if i == slotCount-1 {
			ordinal |= lastSlotFlag
		}
		var s Slot
		s.Ordinal = ordinal
		s.Checksum = checksum
		copy(s.Units[:], padded[i*UnitsPerSlot:(i+1)*UnitsPerSlot])
		slots[i] = s
	}

	// On-disk order is highest ordinal first.
	out := make([]Slot, slotCount)
	for i, s := range slots {
		out[slotCount-1-i] = s
	}
	return out, nil
}

// Unpack reassembles a chain of slots (already in on-disk order, highest
// ordinal first) back into a name string. It validates that ordinals
// decrease contiguously from N down to 1 and that every slot shares the
// same checksum; any violation is reported as ErrBrokenLfnChain so the
// caller can fall back to the short name.
func Unpack(slots []Slot) (string, error) {
	if len(slots) == 0 {
		return "", gofaterrors.ErrBrokenLfnChain
	}

	first := slots[0]
	if !first.IsLast() {
		return "", gofaterrors.ErrBrokenLfnChain
	}
	n := first.SequenceNumber()
	if n != len(slots) {
		return "", gofaterrors.ErrBrokenLfnChain
	}

	checksum := first.Checksum
	units := make([]uint16, n*UnitsPerSlot)
	for i, s := range slots {
		expectedSeq := n - i
		if s.SequenceNumber() != expectedSeq {
			return "", gofaterrors.ErrBrokenLfnChain
		}
		if s.Checksum != checksum {
			return "", gofaterrors.ErrBrokenLfnChain
		}
		// Slot k carries units (k-1)*13 .. k*13-1 of the name.
		copy(units[(expectedSeq-1)*UnitsPerSlot:], s.Units[:])
	}

	return utf16Decode(units), nil
}

// ValidateChecksum reports whether a decoded chain's checksum matches the
// short name it's bound to.
func ValidateChecksum(slots []Slot, name shortname.ShortName) bool {
	if len(slots) == 0 {
		return false
	}
	return slots[0].Checksum == shortname.Checksum(name)
}

func utf16Encode(s string) []uint16 {
	runes := []rune(s)
	out := make([]uint16, 0, len(runes))
	for _, r := range runes {
		if r <= 0xFFFF {
			out = append(out, uint16(r))
			continue
		}
		r -= 0x10000
		out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return out
}

func utf16Decode(units []uint16) string {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u == 0 {
			break
		}
		if u == 0xFFFF {
			continue
		}
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) {
			lo := units[i+1]
			if lo >= 0xDC00 && lo <= 0xDFFF {
				r := rune(0x10000 + (int(u)-0xD800)<<10 + (int(lo) - 0xDC00))
				runes = append(runes, r)
				i++
				continue
			}
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}
