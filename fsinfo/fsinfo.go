// Package fsinfo parses and serializes the FAT32-only FSInfo sector: a
// cached free-cluster count and a hint for where to resume allocation
// scanning, plus the leading/trailing signatures that guard against reading
// an uninitialized or corrupt sector.
package fsinfo

import (
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/sector"
)

const (
	offLeadSignature  = 0
	offStrucSignature = 484
	offFreeCount      = 488
	offNextFree       = 492
	offTrailSignature = 508

	leadSignature  = 0x41615252
	strucSignature = 0x61417272
	trailSignature = 0xAA550000

	// Unknown is the sentinel value stored in FreeClusterCount or
	// NextFreeCluster when the field's real value hasn't been computed.
	Unknown = 0xFFFFFFFF
)

// FSInfo is the parsed FAT32 FSInfo sector. It has no analog in FAT12/16.
type FSInfo struct {
	sec *sector.Sector
}

// New creates an FSInfo sector bound to the device byte offset of the
// volume's FSInfo sector (BootSector.FsInfoSectorNr() * BytesPerSector()).
func New(offset uint64, sectorSize uint32) *FSInfo {
	return &FSInfo{sec: sector.New(offset, sectorSize)}
}

// Read loads and validates the FSInfo sector's signatures.
func (f *FSInfo) Read(dev sector.Reader) error {
	if err := f.sec.Read(dev); err != nil {
		return err
	}
	return f.checkSignatures()
}

func (f *FSInfo) checkSignatures() error {
	lead, err := f.sec.Get32(offLeadSignature)
	if err != nil {
		return err
	}
	if lead != leadSignature {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"FSInfo lead signature mismatch")
	}

	struc, err := f.sec.Get32(offStrucSignature)
	if err != nil {
		return err
	}
	if struc != strucSignature {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"FSInfo struc signature mismatch")
	}

	trail, err := f.sec.Get32(offTrailSignature)
	if err != nil {
		return err
	}
	if trail != trailSignature {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"FSInfo trail signature mismatch")
	}

	return nil
}

// FreeClusterCount returns the cached free-cluster count, or Unknown if it
// has never been computed.
func (f *FSInfo) FreeClusterCount() (uint32, error) {
	return f.sec.Get32(offFreeCount)
}

// SetFreeClusterCount updates the cached free-cluster count.
func (f *FSInfo) SetFreeClusterCount(count uint32) error {
	return f.sec.Set32(offFreeCount, count)
}

// NextFreeCluster returns the hint for where the next allocation scan
// should resume, or Unknown if no hint is recorded.
func (f *FSInfo) NextFreeCluster() (uint32, error) {
	return f.sec.Get32(offNextFree)
}

// SetNextFreeCluster updates the allocation-resume hint.
func (f *FSInfo) SetNextFreeCluster(cluster uint32) error {
	return f.sec.Set32(offNextFree, cluster)
}

// Init sets up a fresh FSInfo sector's fixed fields: both signatures and an
// Unknown free-cluster count/next-free hint, for use by SuperFloppyFormatter.
func Init(offset uint64, sectorSize uint32) (*FSInfo, error) {
	f := New(offset, sectorSize)
	if err := f.sec.Set32(offLeadSignature, leadSignature); err != nil {
		return nil, err
	}
	if err := f.sec.Set32(offStrucSignature, strucSignature); err != nil {
		return nil, err
	}
	if err := f.sec.Set32(offTrailSignature, trailSignature); err != nil {
		return nil, err
	}
	if err := f.SetFreeClusterCount(Unknown); err != nil {
		return nil, err
	}
	if err := f.SetNextFreeCluster(Unknown); err != nil {
		return nil, err
	}
	return f, nil
}

// CheckStale compares the cached free-cluster count against the FAT's
// authoritative count, returning ErrFsInfoStale when the cache claims fewer
// free clusters than the FAT does. That only happens when allocations were
// rolled back (or the FAT rewritten) without the FSInfo sector ever being
// refreshed, so the whole sector is treated as corrupt.
func (f *FSInfo) CheckStale(authoritativeFreeCount uint32) error {
	cached, err := f.FreeClusterCount()
	if err != nil {
		return err
	}
	if cached == Unknown {
		return nil
	}
	if cached < authoritativeFreeCount {
		return gofaterrors.ErrFsInfoStale
	}
	return nil
}

// IsDirty reports whether any setter has run since the last Read/Write.
func (f *FSInfo) IsDirty() bool {
	return f.sec.IsDirty()
}

// Write persists the sector if dirty.
func (f *FSInfo) Write(dev sector.Writer) error {
	return f.sec.Write(dev)
}

// Bytes returns the raw backing buffer.
func (f *FSInfo) Bytes() []byte {
	return f.sec.Bytes()
}
