// Package bootsector parses and serializes the 512-byte FAT boot sector,
// including the FAT12/16 vs FAT32 layout split and the PC/MSX/TOS vendor
// dialects.
package bootsector

import (
	"fmt"

	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/sector"
)

// FatType identifies which of the three on-disk FAT encodings a volume uses.
// It is determined from the cluster count, never trusted from the
// informational file-system-type label string.
type FatType int

const (
	FAT12 FatType = 12
	FAT16 FatType = 16
	FAT32 FatType = 32
)

func (t FatType) String() string {
	switch t {
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	default:
		return fmt.Sprintf("FatType(%d)", int(t))
	}
}

// Common BPB byte offsets, shared by every dialect and both FAT12/16 and
// FAT32 layouts.
const (
	offJmpBoot           = 0x00
	offOEMName           = 0x03
	offBytesPerSector    = 0x0B
	offSectorsPerCluster = 0x0D
	offReservedSectors   = 0x0E
	offNumFATs           = 0x10
	offRootEntryCount    = 0x11
	offTotalSectors16    = 0x13
	offMediaDescriptor   = 0x15
	offSectorsPerFAT16   = 0x16
	offSectorsPerTrack   = 0x18
	offNumHeads          = 0x1A
	offHiddenSectors     = 0x1C
	offTotalSectors32    = 0x20
	offExtendedBPB       = 0x24

	// FAT32-only extended BPB fields (relative to 0x24).
	offFAT32SectorsPerFAT  = 0x24
	offFAT32ExtFlags       = 0x28
	offFAT32FSVersion      = 0x2A
	offFAT32RootCluster    = 0x2C
	offFAT32FSInfoSector   = 0x30
	offFAT32BackupBootSect = 0x32
	offFAT32DriveNumber    = 0x40
	offFAT32BootSig        = 0x42
	offFAT32VolumeID       = 0x43
	offFAT32VolumeLabel    = 0x47
	offFAT32FSType         = 0x52

	// FAT12/16 extended BPB fields (relative to 0x24).
	offFAT1216DriveNumber = 0x24
	offFAT1216BootSig     = 0x26
	offFAT1216VolumeID    = 0x27
	offFAT1216VolumeLabel = 0x2B
	offFAT1216FSType      = 0x36

	signatureOffset = 510
	signatureLo     = 0x55
	signatureHi     = 0xAA

	// SectorSize is the only size a boot sector itself is ever serialized
	// at; BytesPerSector (which may be 1024/2048/4096) only affects the
	// data area, not this structure.
	SectorSize = 512
)

// BootSector is the parsed, variant-agnostic view of a FAT boot sector. Its
// accessors expose the common BPB fields plus derived geometry; FAT32-only
// fields return a zero value and ErrInvalidArgument, without panicking, when
// the instance is a FAT12/16 boot sector (see RootDirFirstCluster,
// FsInfoSectorNr).
type BootSector struct {
	sec    *sector.Sector
	fsType FatType

	// Derived geometry, computed once at parse time.
	sectorsPerFAT   uint32
	totalSectors    uint32
	rootDirSectors  uint32
	bytesPerCluster uint32
	totalClusters   uint32
	firstDataSector uint32
}

// FatType returns the authoritative FAT variant, decided by cluster count.
func (b *BootSector) FatType() FatType { return b.fsType }

// BytesPerSector returns the BPB's declared sector size (512/1024/2048/4096).
func (b *BootSector) BytesPerSector() uint16 {
	v, _ := b.sec.Get16(offBytesPerSector)
	return v
}

// SectorsPerCluster returns the BPB's declared cluster size in sectors.
func (b *BootSector) SectorsPerCluster() uint8 {
	v, _ := b.sec.Get8(offSectorsPerCluster)
	return v
}

// BytesPerCluster returns BytesPerSector() * SectorsPerCluster().
func (b *BootSector) BytesPerCluster() uint32 {
	return b.bytesPerCluster
}

// NrReservedSectors returns the number of reserved sectors preceding the
// first FAT copy (1 for FAT12/16, typically 32 for FAT32).
func (b *BootSector) NrReservedSectors() uint16 {
	v, _ := b.sec.Get16(offReservedSectors)
	return v
}

// NrFats returns the number of FAT copies (almost always 2).
func (b *BootSector) NrFats() uint8 {
	v, _ := b.sec.Get8(offNumFATs)
	return v
}

// RootDirEntryCount returns the fixed root directory's capacity in 32-byte
// slots. Zero for FAT32, where the root directory is a cluster chain.
func (b *BootSector) RootDirEntryCount() uint16 {
	v, _ := b.sec.Get16(offRootEntryCount)
	return v
}

// SectorsPerFat returns the size of one FAT copy, in sectors.
func (b *BootSector) SectorsPerFat() uint32 {
	return b.sectorsPerFAT
}

// SectorCount returns the total number of sectors on the volume.
func (b *BootSector) SectorCount() uint32 {
	return b.totalSectors
}

// MediumDescriptor returns the media descriptor byte.
func (b *BootSector) MediumDescriptor() uint8 {
	v, _ := b.sec.Get8(offMediaDescriptor)
	return v
}

// OemName returns the 8-byte OEM name field, right-padded with spaces in the
// raw encoding; callers get the raw bytes back (trimming is a presentation
// concern left to callers, same as ShortName/VolumeLabel fields).
func (b *BootSector) OemName() [8]byte {
	raw, _ := b.sec.GetBytes(offOEMName, 8)
	var out [8]byte
	copy(out[:], raw)
	return out
}

// TotalClusters returns the number of addressable data clusters, i.e. the
// value the FAT-type decision is based on.
func (b *BootSector) TotalClusters() uint32 {
	return b.totalClusters
}

// RootDirSectors returns the number of sectors occupied by the fixed-size
// root directory area. Zero for FAT32.
func (b *BootSector) RootDirSectors() uint32 {
	return b.rootDirSectors
}

// FatOffset returns the byte offset of the i'th copy of the FAT (0-indexed).
func (b *BootSector) FatOffset(i uint8) uint64 {
	bps := uint64(b.BytesPerSector())
	return uint64(b.NrReservedSectors())*bps + uint64(i)*uint64(b.sectorsPerFAT)*bps
}

// RootDirOffset returns the byte offset of the fixed-size root directory
// area. Only meaningful for FAT12/16; FAT32's root directory lives in a
// cluster chain reachable via RootDirFirstCluster.
func (b *BootSector) RootDirOffset() uint64 {
	return b.FatOffset(0) + uint64(b.NrFats())*uint64(b.sectorsPerFAT)*uint64(b.BytesPerSector())
}

// FilesOffset returns the byte offset of cluster #2, the first data cluster.
func (b *BootSector) FilesOffset() uint64 {
	return b.RootDirOffset() + uint64(b.RootDirEntryCount())*32
}

// ClusterOffset returns the device byte offset of the given cluster number.
// Cluster numbering starts at 2; 0 and 1 are reserved.
func (b *BootSector) ClusterOffset(cluster uint32) uint64 {
	return b.FilesOffset() + uint64(cluster-2)*uint64(b.bytesPerCluster)
}

// VolumeLabel returns the 11-byte volume label carried in the boot sector.
// FAT12/16 and FAT32 store it at different offsets; the caller doesn't need
// to know which.
func (b *BootSector) VolumeLabel() string {
	off := offFAT1216VolumeLabel
	if b.fsType == FAT32 {
		off = offFAT32VolumeLabel
	}
	raw, _ := b.sec.GetBytes(off, 11)
	return trimTrailingSpaces(raw)
}

// SetVolumeLabel updates the boot-sector copy of the volume label. The
// root directory pseudo-entry is authoritative for reads; this keeps the
// boot sector's copy in sync on writes.
func (b *BootSector) SetVolumeLabel(label string) error {
	off := offFAT1216VolumeLabel
	if b.fsType == FAT32 {
		off = offFAT32VolumeLabel
	}
	return b.sec.SetBytes(off, padTo(label, 11))
}

// FileSystemTypeLabel returns the informational 8-byte filesystem type
// field with its trailing space padding trimmed ("FAT12", "FAT16",
// "FAT32"). It is never used to decide FatType().
func (b *BootSector) FileSystemTypeLabel() string {
	off := offFAT1216FSType
	if b.fsType == FAT32 {
		off = offFAT32FSType
	}
	raw, _ := b.sec.GetBytes(off, 8)
	return trimTrailingSpaces(raw)
}

// RootDirFirstCluster returns the first cluster of the FAT32 root directory
// chain. It is an error to call this on a FAT12/16 boot sector.
func (b *BootSector) RootDirFirstCluster() (uint32, error) {
	if b.fsType != FAT32 {
		return 0, gofaterrors.ErrInvalidArgument.WithMessage(
			"RootDirFirstCluster is only valid for FAT32")
	}
	return b.sec.Get32(offFAT32RootCluster)
}

// FsInfoSectorNr returns the sector number (relative to the start of the
// volume) of the FAT32 FSInfo sector. It is an error to call this on a
// FAT12/16 boot sector.
func (b *BootSector) FsInfoSectorNr() (uint16, error) {
	if b.fsType != FAT32 {
		return 0, gofaterrors.ErrInvalidArgument.WithMessage(
			"FsInfoSectorNr is only valid for FAT32")
	}
	return b.sec.Get16(offFAT32FSInfoSector)
}

// BackupBootSectorNr returns the sector number of the FAT32 boot sector
// backup copy, or 0 if none is present. It is an error to call this on a
// FAT12/16 boot sector.
func (b *BootSector) BackupBootSectorNr() (uint16, error) {
	if b.fsType != FAT32 {
		return 0, gofaterrors.ErrInvalidArgument.WithMessage(
			"BackupBootSectorNr is only valid for FAT32")
	}
	return b.sec.Get16(offFAT32BackupBootSect)
}

// Bytes returns the raw 512-byte sector backing this BootSector.
func (b *BootSector) Bytes() []byte {
	return b.sec.Bytes()
}

// IsDirty reports whether any setter has run since the last flush.
func (b *BootSector) IsDirty() bool {
	return b.sec.IsDirty()
}

// Write persists the boot sector if dirty.
func (b *BootSector) Write(dev sector.Writer) error {
	return b.sec.Write(dev)
}

func trimTrailingSpaces(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == ' ' {
		end--
	}
	return string(raw[:end])
}

func padTo(s string, width int) []byte {
	out := make([]byte, width)
	for i := range out {
		out[i] = ' '
	}
	copy(out, s)
	if len(s) > width {
		copy(out, s[:width])
	}
	return out
}

// determineFatType implements the authoritative FAT-type decision from the
// FAT specification: cluster count < 4085 -> FAT12, <= 65524 -> FAT16,
// else FAT32.
func determineFatType(totalClusters uint32) FatType {
	if totalClusters < 4085 {
		return FAT12
	}
	if totalClusters <= 65524 {
		return FAT16
	}
	return FAT32
}

// deriveGeometry fills in the fields computed from the raw BPB.
func deriveGeometry(sec *sector.Sector) (*BootSector, error) {
	bps, _ := sec.Get16(offBytesPerSector)
	spc, _ := sec.Get8(offSectorsPerCluster)
	reserved, _ := sec.Get16(offReservedSectors)
	nrFats, _ := sec.Get8(offNumFATs)
	rootEntryCount, _ := sec.Get16(offRootEntryCount)
	totalSectors16, _ := sec.Get16(offTotalSectors16)
	sectorsPerFAT16, _ := sec.Get16(offSectorsPerFAT16)
	totalSectors32, _ := sec.Get32(offTotalSectors32)

	var sectorsPerFAT uint32
	if sectorsPerFAT16 != 0 {
		sectorsPerFAT = uint32(sectorsPerFAT16)
	} else {
		sectorsPerFAT32, _ := sec.Get32(offFAT32SectorsPerFAT)
		sectorsPerFAT = sectorsPerFAT32
	}

	var totalSectors uint32
	if totalSectors16 != 0 {
		totalSectors = uint32(totalSectors16)
	} else {
		totalSectors = totalSectors32
	}

	rootDirSectors := (uint32(rootEntryCount)*32 + uint32(bps) - 1) / uint32(bps)
	totalFatSectors := uint32(nrFats) * sectorsPerFAT
	filesOffsetSectors := uint32(reserved) + totalFatSectors + rootDirSectors

	var dataSectors uint32
	if totalSectors > filesOffsetSectors {
		dataSectors = totalSectors - filesOffsetSectors
	}

	bytesPerCluster := uint32(bps) * uint32(spc)
	var totalClusters uint32
	if bytesPerCluster > 0 {
		totalClusters = dataSectors / uint32(spc)
	}

	return &BootSector{
		sec:             sec,
		fsType:          determineFatType(totalClusters),
		sectorsPerFAT:   sectorsPerFAT,
		totalSectors:    totalSectors,
		rootDirSectors:  rootDirSectors,
		bytesPerCluster: bytesPerCluster,
		totalClusters:   totalClusters,
		firstDataSector: filesOffsetSectors,
	}, nil
}

// checkCommonInvariants validates the cross-field rules every dialect shares:
// the 0x55 0xAA signature, a nonzero power-of-two SectorsPerCluster, a
// BytesPerSector in {512,1024,2048,4096}, and (FAT32 only) a zero
// RootDirEntryCount.
func checkCommonInvariants(sec *sector.Sector, bs *BootSector) error {
	lo, _ := sec.Get8(signatureOffset)
	hi, _ := sec.Get8(signatureOffset + 1)
	if lo != signatureLo || hi != signatureHi {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"missing 0x55 0xAA boot sector signature")
	}

	bps := bs.BytesPerSector()
	switch bps {
	case 512, 1024, 2048, 4096:
	default:
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			fmt.Sprintf("BytesPerSector must be 512/1024/2048/4096, got %d", bps))
	}

	spc := bs.SectorsPerCluster()
	if spc == 0 || (spc&(spc-1)) != 0 {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			fmt.Sprintf("SectorsPerCluster must be a nonzero power of 2, got %d", spc))
	}

	if bs.fsType == FAT32 && bs.RootDirEntryCount() != 0 {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"RootDirEntryCount must be 0 for FAT32")
	}
	if bs.fsType != FAT32 && bs.RootDirEntryCount() == 0 {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"RootDirEntryCount must be nonzero for FAT12/16")
	}

	return nil
}
