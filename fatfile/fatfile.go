// Package fatfile implements FatFile, a cluster-chain-backed random-access
// file that tracks a logical byte length distinct from its chain's
// cluster-aligned byte length.
package fatfile

import (
	"io"

	"github.com/go-fat/gofat/clusterchain"
	"github.com/go-fat/gofat/directory"
	gofaterrors "github.com/go-fat/gofat/errors"
)

// FatFile wraps a ClusterChain and the short directory entry describing
// it, keeping the entry's size and mtime in sync with the file's content.
type FatFile struct {
	chain    *clusterchain.ClusterChain
	entry    *directory.Entry
	readOnly bool
	dirty    bool
}

// New wraps chain as a file backed by entry. entry.FileSize is taken as
// the file's initial logical length.
func New(chain *clusterchain.ClusterChain, entry *directory.Entry, readOnly bool) *FatFile {
	return &FatFile{chain: chain, entry: entry, readOnly: readOnly}
}

// Length returns the logical file size in bytes, from the directory
// entry -- not the (cluster-aligned, therefore usually larger) chain
// length.
func (f *FatFile) Length() uint64 {
	return uint64(f.entry.FileSize)
}

// SetLength grows or shrinks the backing chain to match n and updates the
// directory entry's size. Shrinking to zero frees the entire chain and
// resets its first-cluster pointer, per the invariant that a zero-size
// entry owns no clusters.
func (f *FatFile) SetLength(n uint64) error {
	if f.readOnly {
		return gofaterrors.ErrReadOnly
	}
	if err := f.chain.SetChainLength(n); err != nil {
		return err
	}
	f.entry.FileSize = uint32(n)
	f.entry.SetFirstCluster(f.chain.StartCluster())
	f.dirty = true
	return nil
}

// Read reads len(buf) bytes at logical offset off, returning io.EOF (with
// however many bytes were actually available, copied into buf) if off is
// at or past Length(), or truncating to Length() if the read would run
// past it.
func (f *FatFile) Read(off uint64, buf []byte) (int, error) {
	length := f.Length()
	if off >= length {
		return 0, io.EOF
	}

	want := buf
	if off+uint64(len(want)) > length {
		want = want[:length-off]
	}

	if err := f.chain.Read(off, want); err != nil {
		return 0, err
	}
	if len(want) < len(buf) {
		return len(want), io.EOF
	}
	return len(want), nil
}

// Write writes buf at logical offset off, growing the chain (and the
// entry's recorded size) if the write extends past the current length.
func (f *FatFile) Write(off uint64, buf []byte) (int, error) {
	if f.readOnly {
		return 0, gofaterrors.ErrReadOnly
	}
	if len(buf) == 0 {
		return 0, nil
	}

	need := off + uint64(len(buf))
	if need > f.Length() {
		if err := f.chain.SetChainLength(need); err != nil {
			return 0, err
		}
		f.entry.FileSize = uint32(need)
		f.entry.SetFirstCluster(f.chain.StartCluster())
	}

	if err := f.chain.Write(off, buf); err != nil {
		return 0, err
	}
	f.dirty = true
	return len(buf), nil
}

// Flush persists the short entry's size and mtime. The chain's bytes are
// already persisted as of each Write call; this only updates metadata.
func (f *FatFile) Flush(mtime func() (date, timeField uint16, tenths uint8)) {
	if !f.dirty {
		return
	}
	date, timeField, _ := mtime()
	f.entry.WriteDate = date
	f.entry.WriteTime = timeField
	f.dirty = false
}

// IsDirty reports whether a write or truncation has happened since the
// last Flush, meaning the short entry's size/mtime still need persisting.
func (f *FatFile) IsDirty() bool {
	return f.dirty
}

// Entry returns the short directory entry backing this file, for callers
// that need to persist it through the owning directory.
func (f *FatFile) Entry() *directory.Entry {
	return f.entry
}
