package gofat

import (
	"github.com/go-fat/gofat/bootsector"
	"github.com/go-fat/gofat/filesystem"
	"github.com/go-fat/gofat/format"
)

// FileSystem is a mounted FAT12/16/32 volume. It's a type alias for
// filesystem.FatFileSystem so callers of this package never need to import
// the filesystem package directly.
type FileSystem = filesystem.FatFileSystem

// Directory is the public view of one on-disk directory.
type Directory = filesystem.Directory

// DirEntry describes one member of a directory, without opening it.
type DirEntry = filesystem.Entry

// File is the public view of one on-disk file.
type File = filesystem.File

// MountOptions controls Mount's tolerance for on-disk irregularities.
type MountOptions = filesystem.MountOptions

// FatType identifies which of the three on-disk FAT variants a volume uses.
type FatType = bootsector.FatType

const (
	FAT12 = bootsector.FAT12
	FAT16 = bootsector.FAT16
	FAT32 = bootsector.FAT32
)

// FormatOptions controls what Format writes to a fresh device.
type FormatOptions = format.Options

// Mount reads the boot sector off dev, validates the FAT mirrors and (on
// FAT32) the FSInfo sector, and returns the mounted volume. Pass
// opts.ReadOnly to reject every mutating call on the result.
func Mount(dev BlockDevice, opts MountOptions) (*FileSystem, error) {
	return filesystem.Mount(dev, opts)
}

// Format lays down a fresh partition-table-less FAT12/16/32 volume on dev,
// sized and typed according to opts (or picked automatically from dev's
// size if opts.FatType is left zero), and returns it already mounted.
func Format(dev BlockDevice, opts FormatOptions) (*FileSystem, error) {
	return format.Format(dev, opts)
}
