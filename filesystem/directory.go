package filesystem

import (
	"time"

	"github.com/go-fat/gofat/clusterchain"
	"github.com/go-fat/gofat/directory"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/fatfile"
	"github.com/go-fat/gofat/lfndirectory"
)

// Directory is the public view of one on-disk directory, name-keyed
// through its backing FatLfnDirectory.
type Directory struct {
	fsys         *FatFileSystem
	lfn          *lfndirectory.FatLfnDirectory
	startCluster uint32 // 0 for the root directory
}

// Entry describes one member of a directory, without opening it.
type Entry struct {
	Name  string
	IsDir bool
	Size  uint64
}

// List returns every live entry in on-disk order.
func (d *Directory) List() []Entry {
	live := d.lfn.List()
	out := make([]Entry, len(live))
	for i, e := range live {
		out[i] = Entry{Name: e.DisplayName(), IsDir: e.IsDirectory(), Size: uint64(e.Short.FileSize)}
	}
	return out
}

// OpenFile returns the file named name, creating a cached handle the first
// time it's looked up so repeated calls return the same *File.
func (d *Directory) OpenFile(name string) (*File, error) {
	e, err := d.lfn.GetEntry(name)
	if err != nil {
		return nil, err
	}
	if e.IsDirectory() {
		return nil, gofaterrors.ErrNotFile
	}
	if f, ok := d.fsys.fileCache[e]; ok {
		return f, nil
	}

	chain := clusterchain.New(d.fsys.primaryFat(), d.fsys.dev, e.Short.FirstCluster(), d.fsys.bytesPerCluster, d.fsys.filesOffset, d.fsys.readOnly)
	ff := fatfile.New(chain, &e.Short, d.fsys.readOnly)
	f := &File{fsys: d.fsys, file: ff, entry: e, parent: d}
	d.fsys.fileCache[e] = f
	return f, nil
}

// OpenDirectory returns the subdirectory named name, loading and caching it
// the first time it's looked up.
func (d *Directory) OpenDirectory(name string) (*Directory, error) {
	e, err := d.lfn.GetEntry(name)
	if err != nil {
		return nil, err
	}
	if !e.IsDirectory() {
		return nil, gofaterrors.ErrNotDirectory
	}
	if sub, ok := d.fsys.dirCache[e]; ok {
		return sub, nil
	}

	startCluster := e.Short.FirstCluster()
	chain := clusterchain.New(d.fsys.primaryFat(), d.fsys.dev, startCluster, d.fsys.bytesPerCluster, d.fsys.filesOffset, d.fsys.readOnly)
	backing := directory.NewClusterChainDirectory(chain, d.fsys.bytesPerCluster)
	lfn, err := lfndirectory.Load(backing, d.fsys.primaryFat(), d.fsys.dev, d.fsys.bytesPerCluster, d.fsys.filesOffset, startCluster, d.startCluster, d.fsys.readOnly)
	if err != nil {
		return nil, err
	}

	sub := &Directory{fsys: d.fsys, lfn: lfn, startCluster: startCluster}
	d.fsys.dirCache[e] = sub
	return sub, nil
}

// AddFile creates a new empty file named name in this directory.
func (d *Directory) AddFile(name string) (*File, error) {
	e, err := d.lfn.AddFile(name)
	if err != nil {
		return nil, err
	}
	chain := clusterchain.New(d.fsys.primaryFat(), d.fsys.dev, 0, d.fsys.bytesPerCluster, d.fsys.filesOffset, d.fsys.readOnly)
	ff := fatfile.New(chain, &e.Short, d.fsys.readOnly)
	f := &File{fsys: d.fsys, file: ff, entry: e, parent: d}
	d.fsys.fileCache[e] = f
	return f, nil
}

// AddDirectory creates a new empty subdirectory named name.
func (d *Directory) AddDirectory(name string) (*Directory, error) {
	e, chain, err := d.lfn.AddDirectory(name)
	if err != nil {
		return nil, err
	}
	backing := directory.NewClusterChainDirectory(chain, d.fsys.bytesPerCluster)
	lfn, err := lfndirectory.Load(backing, d.fsys.primaryFat(), d.fsys.dev, d.fsys.bytesPerCluster, d.fsys.filesOffset, chain.StartCluster(), d.startCluster, d.fsys.readOnly)
	if err != nil {
		return nil, err
	}
	sub := &Directory{fsys: d.fsys, lfn: lfn, startCluster: chain.StartCluster()}
	d.fsys.dirCache[e] = sub
	return sub, nil
}

// Remove deletes the entry named name. Removing a non-empty directory
// fails with ErrDirectoryNotEmpty.
func (d *Directory) Remove(name string) error {
	e, err := d.lfn.GetEntry(name)
	if err != nil {
		return err
	}
	if e.IsDirectory() {
		sub, err := d.OpenDirectory(name)
		if err != nil {
			return err
		}
		if len(sub.List()) > 0 {
			return gofaterrors.ErrDirectoryNotEmpty
		}
		delete(d.fsys.dirCache, e)
	} else {
		delete(d.fsys.fileCache, e)
	}
	return d.lfn.Remove(name)
}

// Rename changes name within this directory in place.
func (d *Directory) Rename(oldName, newName string) error {
	return d.lfn.Rename(oldName, newName)
}

// Move transfers the entry named name from d into dest, leaving its cluster
// chain where it is. A moved subdirectory gets its ".." entry rewritten to
// point at dest.
func (d *Directory) Move(name string, dest *Directory) error {
	e, err := d.lfn.GetEntry(name)
	if err != nil {
		return err
	}
	if err := dest.lfn.Attach(e); err != nil {
		return err
	}
	if err := d.lfn.Detach(e); err != nil {
		return err
	}

	if f, ok := d.fsys.fileCache[e]; ok {
		f.parent = dest
	}

	if e.IsDirectory() && e.Short.FirstCluster() != 0 {
		chain := clusterchain.New(d.fsys.primaryFat(), d.fsys.dev, e.Short.FirstCluster(), d.fsys.bytesPerCluster, d.fsys.filesOffset, d.fsys.readOnly)
		return lfndirectory.RewriteDotDot(chain, dest.startCluster)
	}
	return nil
}

// File is the public view of one on-disk file.
type File struct {
	fsys   *FatFileSystem
	file   *fatfile.FatFile
	entry  *lfndirectory.Entry
	parent *Directory
}

// Length returns the file's logical size in bytes.
func (f *File) Length() uint64 {
	return f.file.Length()
}

// SetLength grows or shrinks the file to exactly n bytes.
func (f *File) SetLength(n uint64) error {
	return f.file.SetLength(n)
}

// Read reads len(buf) bytes at offset off.
func (f *File) Read(off uint64, buf []byte) (int, error) {
	return f.file.Read(off, buf)
}

// Write writes buf at offset off, growing the file if needed.
func (f *File) Write(off uint64, buf []byte) (int, error) {
	return f.file.Write(off, buf)
}

// Flush persists this file's size and modification time into its directory
// entry and marks the owning directory for reserialization. The backing
// directory still needs its own Flush (via FatFileSystem.Flush) to write
// that entry through to the device.
func (f *File) Flush() {
	if f.file.IsDirty() {
		f.parent.lfn.MarkDirty()
	}
	f.file.Flush(currentTimestamp)
}

func currentTimestamp() (date, timeField uint16, tenths uint8) {
	return directory.TimeToParts(time.Now())
}
