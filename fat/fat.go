// Package fat implements the in-memory File Allocation Table: the three
// on-disk entry encodings (FAT12's packed 12-bit pairs, FAT16's plain
// 16-bit words, FAT32's 28-bit words with a reserved high nibble), chain
// walking, allocation, and dirty-sector-tracked serialization.
package fat

import (
	"github.com/boljen/go-bitmap"
	"github.com/go-fat/gofat/bootsector"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/sector"
)

// MinCluster is the first valid, addressable data cluster number. 0 and 1
// are reserved (0 means "free", 1 is vestigial from the FAT12 media ID
// convention).
const MinCluster = 2

// Fat is the in-memory allocation table for one FAT copy.
type Fat struct {
	fatType       bootsector.FatType
	entries       []uint32 // one logical entry per cluster, index 0 and 1 unused
	totalClusters uint32
	lastAllocated uint32
	freeCount     uint32

	bytesPerSector uint32
	dirtySectors   bitmap.Bitmap
	nrSectors      uint32
}

func eocThreshold(t bootsector.FatType) uint32 {
	switch t {
	case bootsector.FAT12:
		return 0xFF8
	case bootsector.FAT16:
		return 0xFFF8
	default:
		return 0x0FFFFFF8
	}
}

func badClusterMarker(t bootsector.FatType) uint32 {
	if t == bootsector.FAT16 {
		return 0xFFF7
	}
	return 0 // FAT12/32 have no distinct "bad cluster" marker in this implementation
}

// IsEOC reports whether value (already masked to the relevant width) marks
// the end of a cluster chain for fatType.
func IsEOC(fatType bootsector.FatType, value uint32) bool {
	return value >= eocThreshold(fatType)
}

// New creates an empty, all-free Fat for totalClusters data clusters
// (cluster numbers 2..totalClusters+1 are valid).
func New(fatType bootsector.FatType, totalClusters uint32, bytesPerSector uint32, sectorsPerFat uint32) *Fat {
	entries := make([]uint32, totalClusters+MinCluster)
	return &Fat{
		fatType:        fatType,
		entries:        entries,
		totalClusters:  totalClusters,
		lastAllocated:  MinCluster - 1,
		freeCount:      totalClusters,
		bytesPerSector: bytesPerSector,
		dirtySectors:   bitmap.New(int(sectorsPerFat)),
		nrSectors:      sectorsPerFat,
	}
}

// InitMediaDescriptor stamps the two reserved entries every fresh FAT
// carries by convention: entry 0 holds the medium descriptor byte in its
// low 8 bits with the rest of the word set to 1s, and entry 1 is an EOC
// marker (historically doubled as a "clean unmount" flag pair on FAT16/32,
// which this implementation doesn't track). SuperFloppyFormatter calls
// this once, right after New, before writing anything else.
func (f *Fat) InitMediaDescriptor(mediumDescriptor uint8) {
	eoc := eocThreshold(f.fatType)
	switch f.fatType {
	case bootsector.FAT12:
		f.entries[0] = 0xF00 | uint32(mediumDescriptor)
		f.entries[1] = eoc
	case bootsector.FAT16:
		f.entries[0] = 0xFF00 | uint32(mediumDescriptor)
		f.entries[1] = eoc
	default:
		f.entries[0] = 0x0FFFFF00 | uint32(mediumDescriptor)
		f.entries[1] = eoc
	}
	f.markDirty(0)
	f.markDirty(1)
}

// Read loads and decodes a full FAT copy from dev at offset.
func Read(fatType bootsector.FatType, dev sector.Reader, offset uint64, totalClusters uint32, bytesPerSector uint32, sectorsPerFat uint32) (*Fat, error) {
	raw := make([]byte, sectorsPerFat*bytesPerSector)
	if err := dev.ReadAt(offset, raw); err != nil {
		return nil, gofaterrors.ErrDeviceIO.WrapError(err)
	}

	f := New(fatType, totalClusters, bytesPerSector, sectorsPerFat)
	switch fatType {
	case bootsector.FAT12:
		decodeFAT12(raw, f.entries)
	case bootsector.FAT16:
		decodeFAT16(raw, f.entries)
	default:
		decodeFAT32(raw, f.entries)
	}

	f.freeCount = 0
	for i := MinCluster; i < len(f.entries); i++ {
		if f.maskEntry(f.entries[i]) == 0 {
			f.freeCount++
		}
	}
	return f, nil
}

// Get returns the raw entry for cluster n.
func (f *Fat) Get(n uint32) (uint32, error) {
	if err := f.checkCluster(n); err != nil {
		return 0, err
	}
	return f.entries[n], nil
}

// Set writes value to cluster n's entry and marks the containing FAT
// sector dirty. For FAT32, the high 4 reserved bits of the existing word
// are preserved.
func (f *Fat) Set(n uint32, value uint32) error {
	if err := f.checkCluster(n); err != nil {
		return err
	}
	if f.fatType == bootsector.FAT32 {
		value = (value & 0x0FFFFFFF) | (f.entries[n] & 0xF0000000)
	}
	f.entries[n] = value
	f.markDirty(n)
	return nil
}

func (f *Fat) checkCluster(n uint32) error {
	if n < MinCluster || int(n) >= len(f.entries) {
		return gofaterrors.ErrInvalidArgument.WithMessage("cluster number out of range")
	}
	return nil
}

func (f *Fat) markDirty(n uint32) {
	bitWidth := f.entryBitWidth()
	bitOffset := n * bitWidth
	byteOffset := bitOffset / 8
	lastByteOffset := (bitOffset + bitWidth - 1) / 8
	sectorSize := f.bytesPerSector
	firstSector := byteOffset / sectorSize
	lastSector := lastByteOffset / sectorSize
	for s := firstSector; s <= lastSector && s < f.nrSectors; s++ {
		f.dirtySectors.Set(int(s), true)
	}
}

func (f *Fat) entryBitWidth() uint32 {
	switch f.fatType {
	case bootsector.FAT12:
		return 12
	case bootsector.FAT16:
		return 16
	default:
		return 32
	}
}

// AllocNew scans from lastAllocated+1, wrapping at totalClusters+1, for the
// first free (value 0) entry. It marks the found entry EOC, updates
// lastAllocated and freeCount, and returns the cluster number.
func (f *Fat) AllocNew() (uint32, error) {
	if f.freeCount == 0 {
		return 0, gofaterrors.ErrNoFreeCluster
	}

	last := uint32(len(f.entries)) - 1
	start := f.lastAllocated + 1
	if start > last {
		start = MinCluster
	}

	n := start
	for {
		if f.maskEntry(f.entries[n]) == 0 {
			if err := f.Set(n, eocThreshold(f.fatType)); err != nil {
				return 0, err
			}
			f.lastAllocated = n
			f.freeCount--
			return n, nil
		}
		n++
		if n > last {
			n = MinCluster
		}
		if n == start {
			return 0, gofaterrors.ErrNoFreeCluster
		}
	}
}

// AllocAppend allocates a new cluster and links prev to it.
func (f *Fat) AllocAppend(prev uint32) (uint32, error) {
	n, err := f.AllocNew()
	if err != nil {
		return 0, err
	}
	if err := f.Set(prev, n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetChain returns the full sequence of cluster numbers starting at head,
// in walk order. It fails with ErrFatChainCycle if a cluster is revisited,
// and ErrBadClusterInChain if a bad-cluster marker is encountered.
func (f *Fat) GetChain(head uint32) ([]uint32, error) {
	if head == 0 {
		return nil, nil
	}

	visited := make(map[uint32]bool)
	var chain []uint32
	cur := head
	for {
		if visited[cur] {
			return nil, gofaterrors.ErrFatChainCycle
		}
		visited[cur] = true
		chain = append(chain, cur)

		entry, err := f.Get(cur)
		if err != nil {
			return nil, err
		}
		masked := f.maskEntry(entry)
		if bad := badClusterMarker(f.fatType); bad != 0 && masked == bad {
			return nil, gofaterrors.ErrBadClusterInChain
		}
		if IsEOC(f.fatType, masked) {
			return chain, nil
		}
		if masked < MinCluster {
			return nil, gofaterrors.ErrBadClusterInChain
		}
		cur = masked
	}
}

func (f *Fat) maskEntry(v uint32) uint32 {
	if f.fatType == bootsector.FAT32 {
		return v & 0x0FFFFFFF
	}
	return v
}

// GetChainLength returns the number of clusters in the chain starting at
// head (0 for an empty chain).
func (f *Fat) GetChainLength(head uint32) (uint32, error) {
	chain, err := f.GetChain(head)
	if err != nil {
		return 0, err
	}
	return uint32(len(chain)), nil
}

// GetLastCluster returns the final cluster number in the chain starting at
// head. It is an error to call this on an empty chain.
func (f *Fat) GetLastCluster(head uint32) (uint32, error) {
	chain, err := f.GetChain(head)
	if err != nil {
		return 0, err
	}
	if len(chain) == 0 {
		return 0, gofaterrors.ErrInvalidArgument.WithMessage("empty chain has no last cluster")
	}
	return chain[len(chain)-1], nil
}

// FreeChain walks the chain starting at head, zeroing every entry, and
// updates freeCount. Freeing an empty chain (head == 0) is a no-op.
func (f *Fat) FreeChain(head uint32) error {
	chain, err := f.GetChain(head)
	if err != nil {
		return err
	}
	for _, n := range chain {
		if err := f.Set(n, 0); err != nil {
			return err
		}
		f.freeCount++
	}
	return nil
}

// FreeClusterCount returns the number of entries currently marked free.
func (f *Fat) FreeClusterCount() uint32 {
	return f.freeCount
}

// LastAllocatedCluster returns the cluster number most recently handed out
// by AllocNew.
func (f *Fat) LastAllocatedCluster() uint32 {
	return f.lastAllocated
}

// EOCMarker returns the sentinel value this FAT's encoding uses to mark the
// final cluster of a chain.
func (f *Fat) EOCMarker() uint32 {
	return eocThreshold(f.fatType)
}

// MarkAllDirty marks every sector of this table dirty, so the next
// WriteCopy serializes the table in full regardless of which entries have
// been touched. SuperFloppyFormatter uses this to lay a freshly built table
// down whole.
func (f *Fat) MarkAllDirty() {
	for s := 0; s < int(f.nrSectors); s++ {
		f.dirtySectors.Set(s, true)
	}
}

// MarkAllClean clears the dirty bitmap. WriteCopy deliberately leaves the
// bitmap alone so the same in-memory table can be mirrored to every FAT
// copy's offset; the caller calls this once after the last copy is written.
func (f *Fat) MarkAllClean() {
	for s := 0; s < int(f.nrSectors); s++ {
		f.dirtySectors.Set(s, false)
	}
}

// WriteCopy serializes the in-memory table to dev at offset, skipping
// sectors the dirty bitmap doesn't mark. The dirty bitmap is left intact so
// callers mirroring to several FAT copies write the same sectors to each
// copy's own offset; call MarkAllClean after the last copy.
func (f *Fat) WriteCopy(dev sector.Writer, offset uint64) error {
	raw := make([]byte, f.nrSectors*f.bytesPerSector)
	switch f.fatType {
	case bootsector.FAT12:
		encodeFAT12(f.entries, raw)
	case bootsector.FAT16:
		encodeFAT16(f.entries, raw)
	default:
		encodeFAT32(f.entries, raw)
	}

	for s := uint32(0); s < f.nrSectors; s++ {
		if !f.dirtySectors.Get(int(s)) {
			continue
		}
		start := uint64(s) * uint64(f.bytesPerSector)
		chunk := raw[start : start+uint64(f.bytesPerSector)]
		if err := dev.WriteAt(offset+start, chunk); err != nil {
			return gofaterrors.ErrDeviceIO.WrapError(err)
		}
	}
	return nil
}

// IsDirty reports whether any sector of this FAT copy needs writing.
func (f *Fat) IsDirty() bool {
	for s := 0; s < int(f.nrSectors); s++ {
		if f.dirtySectors.Get(s) {
			return true
		}
	}
	return false
}

// Equal compares two FATs' logical entries, used by filesystem.Mount to
// detect FAT mirror mismatches.
func (f *Fat) Equal(other *Fat) bool {
	if len(f.entries) != len(other.entries) {
		return false
	}
	for i := range f.entries {
		if f.maskEntry(f.entries[i]) != other.maskEntry(other.entries[i]) {
			return false
		}
	}
	return true
}
