// Package directory implements the 32-byte short directory entry codec and
// the two AbstractDirectory backings (a fixed sector range for FAT12/16
// roots, a ClusterChain for everything else).
package directory

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/noxer/bytewriter"
)

// Attribute bits for a short directory entry's attr byte.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20

	// AttrLongName marks a slot as a VFAT long-name entry rather than a
	// short entry; the combination of all four low bits.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// First-byte sentinels.
const (
	EntryFree      = 0x00
	EntryDeleted   = 0xE5
	KanjiEscapeHi  = 0x05 // on-disk stand-in for a real first byte of 0xE5
	realKanjiFirst = 0xE5
)

// EntrySize is the fixed size of one short (or long-name) directory slot.
const EntrySize = 32

// fatEpoch is the earliest representable FAT timestamp: 1980-01-01.
var fatEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Entry is the decoded form of a 32-byte short directory slot.
type Entry struct {
	RawName          [11]byte // 8.3 packed, space padded
	Attr             uint8
	NTReserved       uint8
	CreatedTimeTenth uint8
	CreatedTime      uint16
	CreatedDate      uint16
	AccessedDate     uint16
	FirstClusterHi   uint16
	WriteTime        uint16
	WriteDate        uint16
	FirstClusterLo   uint16
	FileSize         uint32
}

// DecodeEntry parses one 32-byte slot.
func DecodeEntry(raw []byte) Entry {
	var e Entry
	copy(e.RawName[:], raw[0:11])
	e.Attr = raw[11]
	e.NTReserved = raw[12]
	e.CreatedTimeTenth = raw[13]
	e.CreatedTime = binary.LittleEndian.Uint16(raw[14:16])
	e.CreatedDate = binary.LittleEndian.Uint16(raw[16:18])
	e.AccessedDate = binary.LittleEndian.Uint16(raw[18:20])
	e.FirstClusterHi = binary.LittleEndian.Uint16(raw[20:22])
	e.WriteTime = binary.LittleEndian.Uint16(raw[22:24])
	e.WriteDate = binary.LittleEndian.Uint16(raw[24:26])
	e.FirstClusterLo = binary.LittleEndian.Uint16(raw[26:28])
	e.FileSize = binary.LittleEndian.Uint32(raw[28:32])
	return e
}

// Encode serializes e into a fresh 32-byte slot. Entry's field order and
// widths match the on-disk layout exactly, so the whole struct is written
// in one sequential pass.
func (e Entry) Encode() []byte {
	raw := make([]byte, EntrySize)
	writer := bytewriter.New(raw)
	binary.Write(writer, binary.LittleEndian, e)
	return raw
}

// IsFree reports whether this slot terminates the directory (0x00 first
// byte means no entries follow).
func (e Entry) IsFree() bool {
	return e.RawName[0] == EntryFree
}

// IsDeleted reports whether this slot is a tombstone.
func (e Entry) IsDeleted() bool {
	return e.RawName[0] == EntryDeleted
}

// IsLongNameSlot reports whether this slot is a VFAT long-name entry
// rather than a short entry.
func (e Entry) IsLongNameSlot() bool {
	return e.Attr&AttrLongName == AttrLongName
}

// IsVolumeLabel reports whether this slot is the volume-label pseudo-entry.
func (e Entry) IsVolumeLabel() bool {
	return !e.IsLongNameSlot() && e.Attr&AttrVolumeID != 0
}

// FirstCluster returns the combined 32-bit first-cluster pointer.
func (e Entry) FirstCluster() uint32 {
	return uint32(e.FirstClusterHi)<<16 | uint32(e.FirstClusterLo)
}

// SetFirstCluster splits n into the high/low on-disk fields.
func (e *Entry) SetFirstCluster(n uint32) {
	e.FirstClusterHi = uint16(n >> 16)
	e.FirstClusterLo = uint16(n & 0xFFFF)
}

// ShortNameString decodes RawName into a presentation "NAME.EXT" form,
// applying the 0xE5/0x05 kanji-escape convention from the first byte.
func (e Entry) ShortNameString() string {
	name := make([]byte, 8)
	copy(name, e.RawName[0:8])
	if name[0] == KanjiEscapeHi {
		name[0] = realKanjiFirst
	}
	ext := e.RawName[8:11]

	trimmedName := strings.TrimRight(string(name), " ")
	trimmedExt := strings.TrimRight(string(ext), " ")
	if trimmedExt == "" {
		return trimmedName
	}
	return trimmedName + "." + trimmedExt
}

// VolumeLabelString decodes RawName as a single 11-character space-padded
// label, rather than the 8.3 name.ext split ShortNameString applies. Volume
// label pseudo-entries don't have a file extension, so splitting at byte 8
// would insert a spurious '.'.
func (e Entry) VolumeLabelString() string {
	return strings.TrimRight(string(e.RawName[:]), " ")
}

// DateFromInt converts a packed FAT date into a time.Time (at midnight).
func DateFromInt(value uint16) time.Time {
	day := int(value & 0x1F)
	month := time.Month((value >> 5) & 0x0F)
	year := 1980 + int(value>>9)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateToInt packs a time.Time's date components into FAT's 16-bit date
// encoding. Years before 1980 saturate to 1980.
func DateToInt(t time.Time) uint16 {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	return uint16(year)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
}

// TimestampFromParts combines a packed date, packed time, and tenths-of-a-
// -second field into a full time.Time.
func TimestampFromParts(datePart, timePart uint16, tenths uint8) time.Time {
	d := DateFromInt(datePart)
	seconds := int(timePart&0x1F) * 2
	nanos := int(tenths%100) * 10 * 1000 * 1000
	if tenths >= 100 {
		seconds++
	}
	minutes := int((timePart >> 5) & 0x3F)
	hours := int(timePart >> 11)
	return time.Date(d.Year(), d.Month(), d.Day(), hours, minutes, seconds, nanos, time.UTC)
}

// TimeToParts is the inverse of TimestampFromParts, returning (date, time,
// tenths). Times before fatEpoch are clamped to it.
func TimeToParts(t time.Time) (date uint16, timeField uint16, tenths uint8) {
	if t.Before(fatEpoch) {
		t = fatEpoch
	}
	date = DateToInt(t)
	seconds := t.Second()
	extraTenth := uint8(0)
	if seconds%2 != 0 {
		extraTenth = 100
	}
	timeField = uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(seconds/2)
	tenths = uint8(t.Nanosecond()/10/1000/1000) + extraTenth
	return date, timeField, tenths
}
