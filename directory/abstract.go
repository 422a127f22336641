package directory

import (
	"github.com/go-fat/gofat/clusterchain"
	gofaterrors "github.com/go-fat/gofat/errors"
)

// AbstractDirectory is a sequence of 32-byte slots, backed either by a
// fixed sector range (Fat16RootDirectory) or a cluster chain
// (ClusterChainDirectory).
type AbstractDirectory interface {
	// GetEntry returns the decoded slot at index i.
	GetEntry(i int) (Entry, error)
	// SetEntry overwrites the slot at index i.
	SetEntry(i int, e Entry) error
	// Capacity returns the current number of 32-byte slots available.
	Capacity() (int, error)
	// ChangeSize grows (or, for ClusterChainDirectory, shrinks) the
	// directory to hold newCount slots. Fat16RootDirectory always fails
	// this for growth past its fixed extent.
	ChangeSize(newCount int) error
	// Flush persists any modified slots.
	Flush() error
}

// Device is the minimal device interface AbstractDirectory needs.
type Device interface {
	ReadAt(offset uint64, buf []byte) error
	WriteAt(offset uint64, buf []byte) error
}

// Fat16RootDirectory is the fixed-extent root directory area used by
// FAT12/16 volumes. It cannot grow past its on-disk reservation.
type Fat16RootDirectory struct {
	dev      Device
	offset   uint64
	capacity int
	dirty    map[int]bool
}

// NewFat16RootDirectory creates a view over the fixed root directory area
// starting at offset, with room for capacity entries.
func NewFat16RootDirectory(dev Device, offset uint64, capacity int) *Fat16RootDirectory {
	return &Fat16RootDirectory{dev: dev, offset: offset, capacity: capacity, dirty: make(map[int]bool)}
}

func (d *Fat16RootDirectory) checkIndex(i int) error {
	if i < 0 || i >= d.capacity {
		return gofaterrors.ErrRootDirFull.WithMessage("index out of range for fixed root directory")
	}
	return nil
}

// GetEntry reads and decodes the slot at index i.
func (d *Fat16RootDirectory) GetEntry(i int) (Entry, error) {
	if err := d.checkIndex(i); err != nil {
		return Entry{}, err
	}
	raw := make([]byte, EntrySize)
	if err := d.dev.ReadAt(d.offset+uint64(i*EntrySize), raw); err != nil {
		return Entry{}, gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return DecodeEntry(raw), nil
}

// SetEntry overwrites the slot at index i, writing it straight through to
// the device.
func (d *Fat16RootDirectory) SetEntry(i int, e Entry) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	if err := d.dev.WriteAt(d.offset+uint64(i*EntrySize), e.Encode()); err != nil {
		return gofaterrors.ErrDeviceIO.WrapError(err)
	}
	return nil
}

// Capacity returns the fixed number of slots this root directory has room
// for.
func (d *Fat16RootDirectory) Capacity() (int, error) {
	return d.capacity, nil
}

// ChangeSize fails unless newCount fits within the existing fixed extent;
// the FAT12/16 root directory cannot grow.
func (d *Fat16RootDirectory) ChangeSize(newCount int) error {
	if newCount > d.capacity {
		return gofaterrors.ErrRootDirFull
	}
	return nil
}

// Flush is a no-op: every SetEntry already wrote through.
func (d *Fat16RootDirectory) Flush() error {
	return nil
}

// ClusterChainDirectory is a directory backed by a growable cluster chain
// (used for the FAT32 root, and every non-root directory regardless of FAT
// type).
type ClusterChainDirectory struct {
	chain           *clusterchain.ClusterChain
	bytesPerCluster uint32
}

// NewClusterChainDirectory wraps chain as a slot sequence.
func NewClusterChainDirectory(chain *clusterchain.ClusterChain, bytesPerCluster uint32) *ClusterChainDirectory {
	return &ClusterChainDirectory{chain: chain, bytesPerCluster: bytesPerCluster}
}

// GetEntry reads and decodes the slot at index i.
func (d *ClusterChainDirectory) GetEntry(i int) (Entry, error) {
	raw := make([]byte, EntrySize)
	if err := d.chain.Read(uint64(i*EntrySize), raw); err != nil {
		return Entry{}, err
	}
	return DecodeEntry(raw), nil
}

// SetEntry overwrites the slot at index i, growing the backing chain if
// necessary.
func (d *ClusterChainDirectory) SetEntry(i int, e Entry) error {
	return d.chain.Write(uint64(i*EntrySize), e.Encode())
}

// Capacity returns the current chain length in whole slots.
func (d *ClusterChainDirectory) Capacity() (int, error) {
	length, err := d.chain.Length()
	if err != nil {
		return 0, err
	}
	return int(length) / EntrySize, nil
}

// ChangeSize grows or shrinks the backing chain to hold exactly newCount
// slots, rounded up to whole clusters.
func (d *ClusterChainDirectory) ChangeSize(newCount int) error {
	return d.chain.SetChainLength(uint64(newCount) * EntrySize)
}

// Flush is a no-op: every SetEntry already wrote through the cluster
// chain.
func (d *ClusterChainDirectory) Flush() error {
	return nil
}

// FindTerminator scans from index 0 for the first free (0x00 first byte)
// slot, returning its index. If no terminator is found before capacity is
// exhausted, it returns ErrDirTerminatorMissing.
func FindTerminator(d AbstractDirectory) (int, error) {
	capacity, err := d.Capacity()
	if err != nil {
		return 0, err
	}
	for i := 0; i < capacity; i++ {
		e, err := d.GetEntry(i)
		if err != nil {
			return 0, err
		}
		if e.IsFree() {
			return i, nil
		}
	}
	return 0, gofaterrors.ErrDirTerminatorMissing
}

// GetLabel scans for the volume-label pseudo-entry and returns its name, or
// "" with ok=false if none is present.
func GetLabel(d AbstractDirectory) (label string, ok bool, err error) {
	capacity, err := d.Capacity()
	if err != nil {
		return "", false, err
	}
	for i := 0; i < capacity; i++ {
		e, err := d.GetEntry(i)
		if err != nil {
			return "", false, err
		}
		if e.IsFree() {
			break
		}
		if e.IsDeleted() {
			continue
		}
		if e.IsVolumeLabel() {
			return e.VolumeLabelString(), true, nil
		}
	}
	return "", false, nil
}

// SetLabel creates, updates, or (if label == "") removes the volume-label
// pseudo-entry in d. The label lives exactly once, in the root directory.
func SetLabel(d AbstractDirectory, label string) error {
	capacity, err := d.Capacity()
	if err != nil {
		return err
	}

	labelIdx := -1
	terminatorIdx := -1
	for i := 0; i < capacity; i++ {
		e, err := d.GetEntry(i)
		if err != nil {
			return err
		}
		if e.IsFree() {
			terminatorIdx = i
			break
		}
		if e.IsDeleted() {
			continue
		}
		if e.IsVolumeLabel() {
			labelIdx = i
		}
	}

	if label == "" {
		if labelIdx < 0 {
			return nil
		}
		e, err := d.GetEntry(labelIdx)
		if err != nil {
			return err
		}
		e.RawName[0] = EntryDeleted
		return d.SetEntry(labelIdx, e)
	}

	var e Entry
	copy(e.RawName[:], padTo11(label))
	e.Attr = AttrVolumeID

	if labelIdx >= 0 {
		return d.SetEntry(labelIdx, e)
	}

	idx := terminatorIdx
	if idx < 0 {
		idx = capacity
	}
	if idx+1 > capacity {
		if err := d.ChangeSize(idx + 1); err != nil {
			return err
		}
	}
	if err := d.SetEntry(idx, e); err != nil {
		return err
	}
	// Re-place the terminator after the label, unless the directory is now
	// completely full -- a full directory legitimately has no terminator.
	if err := d.ChangeSize(idx + 2); err != nil {
		return nil
	}
	return d.SetEntry(idx+1, Entry{})
}

func padTo11(s string) []byte {
	out := [11]byte{}
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], s)
	return out[:]
}
