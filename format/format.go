// Package format implements SuperFloppyFormatter: laying down a fresh
// partition-table-less FAT12/16/32 volume on a block device, picking
// geometry the way the FAT specification's standard tables dictate,
// followed by a re-mount through the normal read path.
package format

import (
	"math/rand"
	"time"

	"github.com/go-fat/gofat/bootsector"
	"github.com/go-fat/gofat/clusterchain"
	"github.com/go-fat/gofat/directory"
	"github.com/go-fat/gofat/disks"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/fat"
	"github.com/go-fat/gofat/filesystem"
	"github.com/go-fat/gofat/fsinfo"
)

// Device is the block device interface the formatter writes through. It's
// the same shape as filesystem.Device; re-declared here so this package
// doesn't force its own callers into importing filesystem just to satisfy
// an interface.
type Device = filesystem.Device

// Options controls what SuperFloppyFormatter writes. Zero values pick
// sensible defaults: FatType 0 means "choose by device size", VolumeLabel/
// OEMName "" means no label / "GOFAT   ", and a nil RNG gets a
// time-seeded one built once per Format call. The RNG is always
// constructor-injected, never a package-level global.
type Options struct {
	FatType     bootsector.FatType
	VolumeLabel string
	OEMName     string
	RNG         *rand.Rand
}

func (o Options) rng() *rand.Rand {
	if o.RNG != nil {
		return o.RNG
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

const defaultMediumDescriptor = 0xF8 // fixed disk, per the FAT spec's convention

// Dialect is the formatting hook point for vendor variants: each rejects
// the combinations its platform never supported and injects its own
// boot-sector byte patterns in Init. PCFormatter is the only variant that
// writes a volume; MSX and TOS are named stubs.
type Dialect interface {
	Name() string
	Init(dev Device, opts Options) (*filesystem.FatFileSystem, error)
}

// SuperFloppyFormatter formats dev with the given Dialect, defaulting to
// PCFormatter when none is set.
type SuperFloppyFormatter struct {
	Dialect Dialect
}

// Format writes a fresh volume to dev and returns it already mounted.
func (sf SuperFloppyFormatter) Format(dev Device, opts Options) (*filesystem.FatFileSystem, error) {
	dialect := sf.Dialect
	if dialect == nil {
		dialect = PCFormatter{}
	}
	return dialect.Init(dev, opts)
}

// Format is a convenience equivalent to SuperFloppyFormatter{}.Format(dev, opts).
func Format(dev Device, opts Options) (*filesystem.FatFileSystem, error) {
	return SuperFloppyFormatter{}.Format(dev, opts)
}

// geometry is the set of BPB fields SuperFloppyFormatter derives from the
// device size and (optionally) Options.FatType, before any bytes are
// written.
type geometry struct {
	fatType           bootsector.FatType
	bytesPerSector    uint16
	totalSectors      uint32
	sectorsPerCluster uint8
	reservedSectors   uint16
	nrFats            uint8
	rootEntryCount    uint16
	rootDirSectors    uint32
	sectorsPerFAT     uint32
}

// planGeometry picks the volume's sizing: FAT type by total size unless
// overridden, standard sectors-per-cluster tables, reserved-sector/
// FAT-count conventions, and the sectorsPerFat derivation formula.
func planGeometry(dev Device, opts Options) (geometry, error) {
	totalBytes, err := dev.Size()
	if err != nil {
		return geometry{}, err
	}
	rawSectorSize := dev.SectorSize()
	if rawSectorSize == 0 {
		return geometry{}, gofaterrors.ErrInvalidArgument.WithMessage("device sector size is 0")
	}
	bytesPerSector := uint16(rawSectorSize)
	totalSectors := uint32(totalBytes / uint64(rawSectorSize))

	fatType := opts.FatType
	if fatType == 0 {
		fatType = pickFatType(totalBytes)
	}

	var spc uint8
	var rootEntryCount uint16
	switch fatType {
	case bootsector.FAT12:
		spc, err = disks.SectorsPerClusterFAT12(totalSectors, bytesPerSector)
		if err != nil {
			return geometry{}, err
		}
		rootEntryCount = pickRootEntryCount(totalBytes)
	case bootsector.FAT16:
		spc, err = disks.SectorsPerClusterFAT16(totalSectors)
		if err != nil {
			return geometry{}, err
		}
		rootEntryCount = pickRootEntryCount(totalBytes)
	case bootsector.FAT32:
		spc, err = disks.SectorsPerClusterFAT32(totalSectors)
		if err != nil {
			return geometry{}, err
		}
		rootEntryCount = 0
	default:
		return geometry{}, gofaterrors.ErrInvalidArgument.WithMessage("unrecognized FatType")
	}

	reservedSectors := uint16(1)
	if fatType == bootsector.FAT32 {
		reservedSectors = 32
	}
	const nrFats = 2

	rootDirSectors := (uint32(rootEntryCount)*32 + uint32(bytesPerSector) - 1) / uint32(bytesPerSector)

	tmp1 := totalSectors - (uint32(reservedSectors) + rootDirSectors)
	tmp2 := 256*uint32(spc) + nrFats
	if fatType == bootsector.FAT32 {
		tmp2 /= 2
	}
	sectorsPerFAT := (tmp1 + tmp2 - 1) / tmp2

	return geometry{
		fatType:           fatType,
		bytesPerSector:    bytesPerSector,
		totalSectors:      totalSectors,
		sectorsPerCluster: spc,
		reservedSectors:   reservedSectors,
		nrFats:            nrFats,
		rootEntryCount:    rootEntryCount,
		rootDirSectors:    rootDirSectors,
		sectorsPerFAT:     sectorsPerFAT,
	}, nil
}

func pickFatType(totalBytes uint64) bootsector.FatType {
	const mib = 1024 * 1024
	switch {
	case totalBytes < 5*mib:
		return bootsector.FAT12
	case totalBytes < 512*mib:
		return bootsector.FAT16
	default:
		return bootsector.FAT32
	}
}

// maxDirectoryEntries caps the fixed FAT12/16 root directory's entry count.
const maxDirectoryEntries = 512

func pickRootEntryCount(totalBytes uint64) uint16 {
	count := totalBytes / (5 * 32)
	if count > maxDirectoryEntries {
		count = maxDirectoryEntries
	}
	if count == 0 {
		count = 16
	}
	return uint16(count)
}

// writeVolume lays down the boot sector, FAT copies, root directory, and
// (FAT32 only) FSInfo sector described by g, then re-mounts dev through the
// normal read path. It's shared by every Dialect that actually writes a
// volume (today, only PCFormatter).
func writeVolume(dev Device, g geometry, opts Options) (*filesystem.FatFileSystem, error) {
	volumeID := opts.rng().Uint32()

	buildParams := bootsector.BuildParams{
		FatType:           g.fatType,
		BytesPerSector:    g.bytesPerSector,
		SectorsPerCluster: g.sectorsPerCluster,
		ReservedSectors:   g.reservedSectors,
		NumFATs:           g.nrFats,
		RootEntryCount:    g.rootEntryCount,
		TotalSectors:      g.totalSectors,
		MediumDescriptor:  defaultMediumDescriptor,
		SectorsPerFAT:     g.sectorsPerFAT,
		OEMName:           opts.OEMName,
		VolumeLabel:       opts.VolumeLabel,
		VolumeID:          volumeID,
	}
	if buildParams.OEMName == "" {
		buildParams.OEMName = "GOFAT"
	}

	var rootCluster uint32
	if g.fatType == bootsector.FAT32 {
		rootCluster = fat.MinCluster
		buildParams.RootCluster = rootCluster
		buildParams.FSInfoSectorNr = 1
		buildParams.BackupBootSector = 6
	}

	bs, err := bootsector.Build(buildParams)
	if err != nil {
		return nil, err
	}
	if err := bs.Write(dev); err != nil {
		return nil, err
	}
	if g.fatType == bootsector.FAT32 {
		if err := dev.WriteAt(uint64(buildParams.BackupBootSector)*uint64(g.bytesPerSector), bs.Bytes()); err != nil {
			return nil, err
		}
	}

	totalClusters := bs.TotalClusters()
	fatTable := fat.New(g.fatType, totalClusters, uint32(g.bytesPerSector), g.sectorsPerFAT)
	fatTable.InitMediaDescriptor(defaultMediumDescriptor)

	bytesPerCluster := bs.BytesPerCluster()
	filesOffset := bs.FilesOffset()

	var rootBacking directory.AbstractDirectory
	if g.fatType == bootsector.FAT32 {
		chain := clusterchain.New(fatTable, dev, 0, bytesPerCluster, filesOffset, false)
		if err := chain.SetChainLength(uint64(bytesPerCluster)); err != nil {
			return nil, err
		}
		rootBacking = directory.NewClusterChainDirectory(chain, bytesPerCluster)
	} else {
		if err := zeroFill(dev, bs.RootDirOffset(), uint64(g.rootEntryCount)*directory.EntrySize); err != nil {
			return nil, err
		}
		rootBacking = directory.NewFat16RootDirectory(dev, bs.RootDirOffset(), int(g.rootEntryCount))
	}

	if opts.VolumeLabel != "" {
		if err := directory.SetLabel(rootBacking, opts.VolumeLabel); err != nil {
			return nil, err
		}
	}

	fatTable.MarkAllDirty()
	for i := uint8(0); i < g.nrFats; i++ {
		if err := fatTable.WriteCopy(dev, bs.FatOffset(i)); err != nil {
			return nil, err
		}
	}
	fatTable.MarkAllClean()

	if g.fatType == bootsector.FAT32 {
		fsInfoNr, err := bs.FsInfoSectorNr()
		if err != nil {
			return nil, err
		}
		fsInfoSector, err := fsinfo.Init(uint64(fsInfoNr)*uint64(g.bytesPerSector), uint32(g.bytesPerSector))
		if err != nil {
			return nil, err
		}
		if err := fsInfoSector.SetFreeClusterCount(fatTable.FreeClusterCount()); err != nil {
			return nil, err
		}
		if err := fsInfoSector.SetNextFreeCluster(fatTable.LastAllocatedCluster()); err != nil {
			return nil, err
		}
		if err := fsInfoSector.Write(dev); err != nil {
			return nil, err
		}
	}

	if err := dev.Flush(); err != nil {
		return nil, err
	}

	return filesystem.Mount(dev, filesystem.MountOptions{})
}

func zeroFill(dev Device, offset, length uint64) error {
	const chunkSize = 4096
	buf := make([]byte, chunkSize)
	for length > 0 {
		n := uint64(chunkSize)
		if n > length {
			n = length
		}
		if err := dev.WriteAt(offset, buf[:n]); err != nil {
			return err
		}
		offset += n
		length -= n
	}
	return nil
}
