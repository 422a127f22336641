// Package clusterchain implements a byte-addressable view over a chain of
// FAT clusters: logical length, grow/shrink, and offset-addressed
// read/write, translating logical offsets into device byte offsets.
package clusterchain

import (
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/fat"
)

// Device is the minimal device interface ClusterChain needs.
type Device interface {
	ReadAt(offset uint64, buf []byte) error
	WriteAt(offset uint64, buf []byte) error
}

// ClusterChain is a byte-addressable view of a (possibly empty) chain of
// clusters starting at a head cluster.
type ClusterChain struct {
	fat             *fat.Fat
	dev             Device
	startCluster    uint32
	readOnly        bool
	bytesPerCluster uint32
	filesOffset     uint64
}

// New creates a ClusterChain over an existing (possibly zero) start
// cluster. filesOffset is the device byte offset of cluster 2.
func New(f *fat.Fat, dev Device, startCluster uint32, bytesPerCluster uint32, filesOffset uint64, readOnly bool) *ClusterChain {
	return &ClusterChain{
		fat:             f,
		dev:             dev,
		startCluster:    startCluster,
		readOnly:        readOnly,
		bytesPerCluster: bytesPerCluster,
		filesOffset:     filesOffset,
	}
}

// StartCluster returns the current head cluster, or 0 if the chain is
// empty.
func (c *ClusterChain) StartCluster() uint32 {
	return c.startCluster
}

// SetStartCluster overrides the head cluster, used by the free operation
// once the owning directory entry no longer needs the chain.
func (c *ClusterChain) SetStartCluster(n uint32) {
	c.startCluster = n
}

func (c *ClusterChain) clusterOffset(cluster uint32) uint64 {
	return c.filesOffset + uint64(cluster-fat.MinCluster)*uint64(c.bytesPerCluster)
}

// Length returns the chain's total byte length: chainLength *
// bytesPerCluster.
func (c *ClusterChain) Length() (uint64, error) {
	if c.startCluster == 0 {
		return 0, nil
	}
	n, err := c.fat.GetChainLength(c.startCluster)
	if err != nil {
		return 0, err
	}
	return uint64(n) * uint64(c.bytesPerCluster), nil
}

// SetChainLength grows or shrinks the chain to exactly newLength bytes,
// rounded up to a whole number of clusters. Growth zero-fills newly
// allocated clusters; shrinkage frees the truncated suffix.
func (c *ClusterChain) SetChainLength(newLength uint64) error {
	if c.readOnly {
		return gofaterrors.ErrReadOnly
	}

	wantClusters := uint32((newLength + uint64(c.bytesPerCluster) - 1) / uint64(c.bytesPerCluster))

	if c.startCluster == 0 {
		if wantClusters == 0 {
			return nil
		}
		head, err := c.fat.AllocNew()
		if err != nil {
			return err
		}
		if err := c.zeroCluster(head); err != nil {
			return err
		}
		c.startCluster = head
		wantClusters--
		return c.growBy(wantClusters)
	}

	chain, err := c.fat.GetChain(c.startCluster)
	if err != nil {
		return err
	}

	have := uint32(len(chain))
	switch {
	case wantClusters == have:
		return nil
	case wantClusters > have:
		return c.growBy(wantClusters - have)
	default:
		return c.shrinkTo(chain, wantClusters)
	}
}

func (c *ClusterChain) growBy(count uint32) error {
	if count == 0 {
		return nil
	}
	tail, err := c.fat.GetLastCluster(c.startCluster)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		next, err := c.fat.AllocAppend(tail)
		if err != nil {
			return err
		}
		if err := c.zeroCluster(next); err != nil {
			return err
		}
		tail = next
	}
	return nil
}

func (c *ClusterChain) shrinkTo(chain []uint32, wantClusters uint32) error {
	if wantClusters == 0 {
		if err := c.fat.FreeChain(c.startCluster); err != nil {
			return err
		}
		c.startCluster = 0
		return nil
	}

	newTail := chain[wantClusters-1]
	firstOrphan := chain[wantClusters]

	// Sever the chain at newTail before freeing the orphaned suffix, so
	// FreeChain's walk starting at firstOrphan doesn't loop back through
	// the surviving part of the chain.
	if err := c.fat.Set(newTail, c.fat.EOCMarker()); err != nil {
		return err
	}
	return c.fat.FreeChain(firstOrphan)
}

func (c *ClusterChain) zeroCluster(cluster uint32) error {
	buf := make([]byte, c.bytesPerCluster)
	return c.dev.WriteAt(c.clusterOffset(cluster), buf)
}

// Read reads len(buf) bytes starting at logical offset into buf. Reads
// past Length() return io.EOF via the caller (fatfile enforces the
// logical-size boundary; ClusterChain itself is happy to read up to the
// cluster-aligned chain length).
func (c *ClusterChain) Read(offset uint64, buf []byte) error {
	return c.walk(offset, buf, false)
}

// Write writes buf at logical offset, growing the chain if offset+len(buf)
// exceeds the current chain length. It never shrinks.
func (c *ClusterChain) Write(offset uint64, buf []byte) error {
	if c.readOnly {
		return gofaterrors.ErrReadOnly
	}
	need := offset + uint64(len(buf))
	length, err := c.Length()
	if err != nil {
		return err
	}
	if need > length {
		if err := c.SetChainLength(need); err != nil {
			return err
		}
	}
	return c.walk(offset, buf, true)
}

func (c *ClusterChain) walk(offset uint64, buf []byte, write bool) error {
	if len(buf) == 0 {
		return nil
	}
	if c.startCluster == 0 {
		return gofaterrors.ErrInvalidArgument.WithMessage("read/write on empty chain")
	}

	chain, err := c.fat.GetChain(c.startCluster)
	if err != nil {
		return err
	}

	clusterIdx := offset / uint64(c.bytesPerCluster)
	within := offset % uint64(c.bytesPerCluster)
	remaining := buf

	for len(remaining) > 0 {
		if clusterIdx >= uint64(len(chain)) {
			return gofaterrors.ErrInvalidArgument.WithMessage("offset beyond chain length")
		}
		cluster := chain[clusterIdx]
		chunk := uint64(c.bytesPerCluster) - within
		if chunk > uint64(len(remaining)) {
			chunk = uint64(len(remaining))
		}

		devOffset := c.clusterOffset(cluster) + within
		if write {
			err = c.dev.WriteAt(devOffset, remaining[:chunk])
		} else {
			err = c.dev.ReadAt(devOffset, remaining[:chunk])
		}
		if err != nil {
			return gofaterrors.ErrDeviceIO.WrapError(err)
		}

		remaining = remaining[chunk:]
		within = 0
		clusterIdx++
	}
	return nil
}
