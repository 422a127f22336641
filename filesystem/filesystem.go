// Package filesystem implements FatFileSystem: mount orchestration (boot
// sector, FAT mirror comparison, root directory, FSInfo consistency check)
// and the strictly ordered flush sequence, plus the public Directory/File
// views cached by pointer identity so repeated lookups of the same on-disk
// entry return the same handle.
package filesystem

import (
	"fmt"

	"github.com/go-fat/gofat/bootsector"
	"github.com/go-fat/gofat/clusterchain"
	"github.com/go-fat/gofat/directory"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/fat"
	"github.com/go-fat/gofat/fsinfo"
	"github.com/go-fat/gofat/lfndirectory"
	"github.com/hashicorp/go-multierror"
)

// Device is the subset of gofat.BlockDevice the filesystem layer needs. It's
// declared independently (rather than importing the root package) so this
// package has no dependency on its own caller.
type Device interface {
	Size() (uint64, error)
	SectorSize() uint32
	ReadAt(offset uint64, buf []byte) error
	WriteAt(offset uint64, buf []byte) error
	Flush() error
	IsReadOnly() bool
}

// MountOptions controls Mount's tolerance for on-disk irregularities.
type MountOptions struct {
	// IgnoreFatDifferences, if set, skips comparing FAT copies 1..n against
	// copy 0. Default: mismatches are rejected (ErrFatMismatch).
	IgnoreFatDifferences bool

	// ReadOnly mounts the volume read-only; every mutating operation on the
	// resulting FatFileSystem, Directory, or File fails with ErrReadOnly.
	ReadOnly bool
}

// FatFileSystem is a mounted FAT12/16/32 volume.
type FatFileSystem struct {
	dev             Device
	bs              *bootsector.BootSector
	fat             *fat.Fat
	nrFats          uint8
	fsInfo          *fsinfo.FSInfo
	bytesPerCluster uint32
	filesOffset     uint64
	readOnly        bool

	root *Directory

	// dirCache and fileCache give lookups pointer-identity semantics: two
	// lookups of the same on-disk entry return the same *Directory or
	// *File handle.
	dirCache  map[*lfndirectory.Entry]*Directory
	fileCache map[*lfndirectory.Entry]*File
}

// Mount reads the boot sector, compares FAT copies, loads the root
// directory, and (FAT32 only) validates FSInfo.
func Mount(dev Device, opts MountOptions) (*FatFileSystem, error) {
	bs, _, err := bootsector.Mount(dev)
	if err != nil {
		return nil, err
	}

	bytesPerSector := uint32(bs.BytesPerSector())
	fat0, err := fat.Read(bs.FatType(), dev, bs.FatOffset(0), bs.TotalClusters(), bytesPerSector, bs.SectorsPerFat())
	if err != nil {
		return nil, err
	}

	// FAT copies 1..n are read only to verify they mirror copy 0; copy 0
	// is the sole in-memory table afterwards, and Flush rewrites it to
	// every copy's offset.
	var mismatches *multierror.Error
	for i := uint8(1); i < bs.NrFats(); i++ {
		fi, err := fat.Read(bs.FatType(), dev, bs.FatOffset(i), bs.TotalClusters(), bytesPerSector, bs.SectorsPerFat())
		if err != nil {
			return nil, err
		}
		if !opts.IgnoreFatDifferences && !fat0.Equal(fi) {
			mismatches = multierror.Append(mismatches, fmt.Errorf("FAT copy %d disagrees with FAT copy 0", i))
		}
	}
	if mismatches != nil {
		return nil, gofaterrors.ErrFatMismatch.WrapError(mismatches)
	}

	bytesPerCluster := bs.BytesPerCluster()
	filesOffset := bs.FilesOffset()

	var rootBacking directory.AbstractDirectory
	var rootStartCluster uint32
	if bs.FatType() == bootsector.FAT32 {
		rootCluster, err := bs.RootDirFirstCluster()
		if err != nil {
			return nil, err
		}
		chain := clusterchain.New(fat0, dev, rootCluster, bytesPerCluster, filesOffset, opts.ReadOnly)
		rootBacking = directory.NewClusterChainDirectory(chain, bytesPerCluster)
		rootStartCluster = rootCluster
	} else {
		rootBacking = directory.NewFat16RootDirectory(dev, bs.RootDirOffset(), int(bs.RootDirEntryCount()))
	}

	var fsInfoSector *fsinfo.FSInfo
	if bs.FatType() == bootsector.FAT32 {
		fsInfoNr, err := bs.FsInfoSectorNr()
		if err != nil {
			return nil, err
		}
		fsInfoSector = fsinfo.New(uint64(fsInfoNr)*uint64(bytesPerSector), bytesPerSector)
		if err := fsInfoSector.Read(dev); err != nil {
			return nil, err
		}
		if err := fsInfoSector.CheckStale(fat0.FreeClusterCount()); err != nil {
			return nil, err
		}
	}

	rootLfn, err := lfndirectory.Load(rootBacking, fat0, dev, bytesPerCluster, filesOffset, rootStartCluster, 0, opts.ReadOnly)
	if err != nil {
		return nil, err
	}

	fsys := &FatFileSystem{
		dev:             dev,
		bs:              bs,
		fat:             fat0,
		nrFats:          bs.NrFats(),
		fsInfo:          fsInfoSector,
		bytesPerCluster: bytesPerCluster,
		filesOffset:     filesOffset,
		readOnly:        opts.ReadOnly,
		dirCache:        make(map[*lfndirectory.Entry]*Directory),
		fileCache:       make(map[*lfndirectory.Entry]*File),
	}
	fsys.root = &Directory{fsys: fsys, lfn: rootLfn, startCluster: rootStartCluster}
	return fsys, nil
}

// primaryFat returns the single in-memory FAT; on-disk copies 1..n are
// kept in sync only through WriteCopy at flush time.
func (fsys *FatFileSystem) primaryFat() *fat.Fat {
	return fsys.fat
}

// Root returns the volume's root directory.
func (fsys *FatFileSystem) Root() *Directory {
	return fsys.root
}

// VolumeLabel returns the volume label. The root directory's pseudo-entry
// is authoritative; the boot sector's copy is a fallback for volumes that
// have none.
func (fsys *FatFileSystem) VolumeLabel() (string, error) {
	if label, ok := fsys.root.lfn.Label(); ok {
		return label, nil
	}
	return fsys.bs.VolumeLabel(), nil
}

// SetVolumeLabel updates both the root directory's pseudo-entry and the
// boot sector's copy of the label. The change is persisted on the next
// Flush.
func (fsys *FatFileSystem) SetVolumeLabel(label string) error {
	if fsys.readOnly {
		return gofaterrors.ErrReadOnly
	}
	if err := fsys.root.lfn.SetLabel(label); err != nil {
		return err
	}
	return fsys.bs.SetVolumeLabel(label)
}

// FreeSpace returns the number of free bytes, computed from the FAT's
// authoritative free-cluster count.
func (fsys *FatFileSystem) FreeSpace() uint64 {
	return uint64(fsys.fat.FreeClusterCount()) * uint64(fsys.bytesPerCluster)
}

// TotalSpace returns the volume's total addressable data area, in bytes.
func (fsys *FatFileSystem) TotalSpace() uint64 {
	return uint64(fsys.bs.TotalClusters()) * uint64(fsys.bytesPerCluster)
}

// FatType returns the volume's authoritative FAT variant.
func (fsys *FatFileSystem) FatType() bootsector.FatType {
	return fsys.bs.FatType()
}

// IsReadOnly reports whether this mount rejects mutations.
func (fsys *FatFileSystem) IsReadOnly() bool {
	return fsys.readOnly
}

// Flush persists all dirty state: boot sector (and its FAT32 backup copy),
// directory entries (recursively, through every cached open directory),
// each FAT copy, FSInfo, then the device itself. Directory serialization
// runs before the FAT copies are written because reserializing a grown
// directory can extend its cluster chain; writing the FATs last keeps the
// on-disk table consistent with everything the data area now holds.
func (fsys *FatFileSystem) Flush() error {
	// File size and mtime changes live in the short entries their owning
	// directories serialize, so propagate those first.
	for _, f := range fsys.fileCache {
		if f.file.IsDirty() {
			f.parent.lfn.MarkDirty()
			f.file.Flush(currentTimestamp)
		}
	}

	if fsys.bs.IsDirty() {
		if err := fsys.bs.Write(fsys.dev); err != nil {
			return err
		}
		if fsys.bs.FatType() == bootsector.FAT32 {
			if backup, err := fsys.bs.BackupBootSectorNr(); err == nil && backup > 0 {
				if err := fsys.writeBootSectorCopy(backup); err != nil {
					return err
				}
			}
		}
	}

	if err := fsys.root.lfn.Flush(); err != nil {
		return err
	}
	for _, d := range fsys.dirCache {
		if err := d.lfn.Flush(); err != nil {
			return err
		}
	}

	for i := uint8(0); i < fsys.nrFats; i++ {
		if err := fsys.fat.WriteCopy(fsys.dev, fsys.bs.FatOffset(i)); err != nil {
			return err
		}
	}
	fsys.fat.MarkAllClean()

	if fsys.fsInfo != nil {
		if err := fsys.fsInfo.SetFreeClusterCount(fsys.fat.FreeClusterCount()); err != nil {
			return err
		}
		if err := fsys.fsInfo.SetNextFreeCluster(fsys.fat.LastAllocatedCluster()); err != nil {
			return err
		}
		if err := fsys.fsInfo.Write(fsys.dev); err != nil {
			return err
		}
	}

	return fsys.dev.Flush()
}

func (fsys *FatFileSystem) writeBootSectorCopy(sectorNr uint16) error {
	return fsys.dev.WriteAt(uint64(sectorNr)*uint64(fsys.bs.BytesPerSector()), fsys.bs.Bytes())
}

// Close discards the in-memory cache of open files and directories. It
// does not flush; callers that want durability must call Flush first.
func (fsys *FatFileSystem) Close() {
	fsys.dirCache = make(map[*lfndirectory.Entry]*Directory)
	fsys.fileCache = make(map[*lfndirectory.Entry]*File)
}
