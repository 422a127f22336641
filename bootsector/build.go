package bootsector

import (
	"github.com/go-fat/gofat/sector"
)

// BuildParams is the complete set of fields SuperFloppyFormatter needs to
// lay down a fresh boot sector. It mirrors the common BPB plus whichever
// FAT32-only fields apply.
type BuildParams struct {
	FatType           FatType
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16 // 0 for FAT32
	TotalSectors      uint32
	MediumDescriptor  uint8
	SectorsPerFAT     uint32
	OEMName           string
	VolumeLabel       string
	VolumeID          uint32

	// FAT32 only.
	RootCluster      uint32
	FSInfoSectorNr   uint16
	BackupBootSector uint16
}

// Build serializes p into a fresh 512-byte boot sector and returns the
// parsed BootSector view over it (so the formatter can immediately use the
// same accessors a mounted file system would).
func Build(p BuildParams) (*BootSector, error) {
	sec := sector.New(0, SectorSize)

	jmp := []byte{0xEB, 0x3C, 0x90}
	_ = sec.SetBytes(offJmpBoot, jmp)
	_ = sec.SetBytes(offOEMName, padTo(p.OEMName, 8))
	_ = sec.Set16(offBytesPerSector, p.BytesPerSector)
	_ = sec.Set8(offSectorsPerCluster, p.SectorsPerCluster)
	_ = sec.Set16(offReservedSectors, p.ReservedSectors)
	_ = sec.Set8(offNumFATs, p.NumFATs)
	_ = sec.Set16(offRootEntryCount, p.RootEntryCount)

	// FAT32 always uses the 32-bit count; the 16-bit field stays zero no
	// matter how small the volume is.
	if p.FatType != FAT32 && p.TotalSectors <= 0xFFFF {
		_ = sec.Set16(offTotalSectors16, uint16(p.TotalSectors))
	} else {
		_ = sec.Set32(offTotalSectors32, p.TotalSectors)
	}

	_ = sec.Set8(offMediaDescriptor, p.MediumDescriptor)

	if p.FatType == FAT32 {
		_ = sec.Set32(offFAT32SectorsPerFAT, p.SectorsPerFAT)
	} else {
		_ = sec.Set16(offSectorsPerFAT16, uint16(p.SectorsPerFAT))
	}

	_ = sec.Set16(offSectorsPerTrack, 0)
	_ = sec.Set16(offNumHeads, 0)
	_ = sec.Set32(offHiddenSectors, 0)

	if p.FatType == FAT32 {
		_ = sec.Set32(offFAT32RootCluster, p.RootCluster)
		_ = sec.Set16(offFAT32FSInfoSector, p.FSInfoSectorNr)
		_ = sec.Set16(offFAT32BackupBootSect, p.BackupBootSector)
		_ = sec.Set8(offFAT32DriveNumber, 0x80)
		_ = sec.Set8(offFAT32BootSig, 0x29)
		_ = sec.Set32(offFAT32VolumeID, p.VolumeID)
		_ = sec.SetBytes(offFAT32VolumeLabel, padTo(p.VolumeLabel, 11))
		_ = sec.SetBytes(offFAT32FSType, padTo("FAT32", 8))
	} else {
		_ = sec.Set8(offFAT1216DriveNumber, 0x00)
		_ = sec.Set8(offFAT1216BootSig, 0x29)
		_ = sec.Set32(offFAT1216VolumeID, p.VolumeID)
		_ = sec.SetBytes(offFAT1216VolumeLabel, padTo(p.VolumeLabel, 11))
		label := "FAT12   "
		if p.FatType == FAT16 {
			label = "FAT16   "
		}
		_ = sec.SetBytes(offFAT1216FSType, padTo(label, 8))
	}

	_ = sec.Set8(signatureOffset, signatureLo)
	_ = sec.Set8(signatureOffset+1, signatureHi)

	return deriveGeometry(sec)
}
