// Package lfndirectory implements FatLfnDirectory, the public directory
// view keyed by long name. It sits on top of directory.AbstractDirectory,
// pairing each short entry with its optional VFAT long-name chain and
// maintaining an in-memory ordered list of live entries between flushes.
package lfndirectory

import (
	"strings"
	"time"

	"github.com/go-fat/gofat/clusterchain"
	"github.com/go-fat/gofat/directory"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/fat"
	"github.com/go-fat/gofat/lfn"
	"github.com/go-fat/gofat/shortname"
)

// Entry is one live directory member: a short entry plus, if the on-disk
// name needed one, its long name.
type Entry struct {
	ShortName shortname.ShortName
	LongName  string // "" if the short name is used as-is
	Short     directory.Entry

	// system marks slots that must survive reserialization but are not
	// part of the name-keyed view: the volume-label pseudo-entry and the
	// "." / ".." entries of a non-root directory.
	system bool
}

// DisplayName returns the long name if one was recorded, otherwise the
// decoded short name.
func (e *Entry) DisplayName() string {
	if e.LongName != "" {
		return e.LongName
	}
	return e.ShortName.String()
}

// IsDirectory reports whether this entry's attr bit marks it as a
// directory.
func (e *Entry) IsDirectory() bool {
	return e.Short.Attr&directory.AttrDirectory != 0
}

// FatLfnDirectory is the public, name-keyed directory abstraction.
type FatLfnDirectory struct {
	backing         directory.AbstractDirectory
	fat             *fat.Fat
	dev             clusterchain.Device
	bytesPerCluster uint32
	filesOffset     uint64
	readOnly        bool

	ownStartCluster uint32 // 0 for the root directory
	parentCluster   uint32 // first cluster of the parent, 0 if this is the root

	entries []*Entry
	byLower map[string]*Entry
	dirty   bool

	softErrors []error
}

// Load reads every slot from backing and reconstructs the live entry list,
// resolving LFN chains and absorbing broken ones by falling back to the
// short name (per the soft-failure contract of ErrBrokenLfnChain).
func Load(backing directory.AbstractDirectory, f *fat.Fat, dev clusterchain.Device, bytesPerCluster uint32, filesOffset uint64, ownStartCluster, parentCluster uint32, readOnly bool) (*FatLfnDirectory, error) {
	d := &FatLfnDirectory{
		backing:         backing,
		fat:             f,
		dev:             dev,
		bytesPerCluster: bytesPerCluster,
		filesOffset:     filesOffset,
		readOnly:        readOnly,
		ownStartCluster: ownStartCluster,
		parentCluster:   parentCluster,
		byLower:         make(map[string]*Entry),
	}

	capacity, err := backing.Capacity()
	if err != nil {
		return nil, err
	}

	var pendingLfn []lfn.Slot
	for i := 0; i < capacity; i++ {
		raw, err := backing.GetEntry(i)
		if err != nil {
			return nil, err
		}
		if raw.IsFree() {
			break
		}
		if raw.IsDeleted() {
			pendingLfn = nil
			continue
		}
		if raw.IsLongNameSlot() {
			pendingLfn = append(pendingLfn, lfn.DecodeSlot(raw.Encode()))
			continue
		}

		e := &Entry{Short: raw}
		copy(e.ShortName[:], raw.RawName[:])

		if raw.IsVolumeLabel() || raw.RawName[0] == '.' {
			// The volume-label pseudo-entry and the dot entries aren't
			// part of the name-keyed view, but they own their slots and
			// must survive the next Flush.
			e.system = true
			pendingLfn = nil
			d.entries = append(d.entries, e)
			continue
		}

		if len(pendingLfn) > 0 {
			name, err := lfn.Unpack(pendingLfn)
			if err == nil && lfn.ValidateChecksum(pendingLfn, e.ShortName) {
				e.LongName = name
			} else {
				// A broken chain is absorbed: the entry falls back to its
				// short name and the condition is recorded for SoftErrors.
				d.softErrors = append(d.softErrors,
					gofaterrors.ErrBrokenLfnChain.WithMessage(
						"falling back to short name "+e.ShortName.String()))
			}
		}
		pendingLfn = nil

		d.entries = append(d.entries, e)
		d.byLower[strings.ToLower(e.DisplayName())] = e
	}

	return d, nil
}

func (d *FatLfnDirectory) checkWritable() error {
	if d.readOnly {
		return gofaterrors.ErrReadOnly
	}
	return nil
}

func (d *FatLfnDirectory) nameExists(name string) bool {
	_, ok := d.byLower[strings.ToLower(name)]
	return ok
}

func (d *FatLfnDirectory) shortNameExists(candidate shortname.ShortName) bool {
	for _, e := range d.entries {
		if e.ShortName == candidate {
			return true
		}
	}
	return false
}

// AddFile creates a new zero-length file entry named name and returns it.
func (d *FatLfnDirectory) AddFile(name string) (*Entry, error) {
	return d.add(name, 0)
}

// AddDirectory creates a new subdirectory entry named name, allocates its
// first cluster, and writes its "." and ".." entries. It returns the new
// entry and the cluster chain backing the new directory's own contents.
func (d *FatLfnDirectory) AddDirectory(name string) (*Entry, *clusterchain.ClusterChain, error) {
	e, err := d.add(name, directory.AttrDirectory)
	if err != nil {
		return nil, nil, err
	}

	chain := clusterchain.New(d.fat, d.dev, 0, d.bytesPerCluster, d.filesOffset, false)
	if err := chain.SetChainLength(uint64(d.bytesPerCluster)); err != nil {
		return nil, nil, err
	}
	e.Short.SetFirstCluster(chain.StartCluster())
	d.dirty = true

	if err := writeDotEntries(chain, chain.StartCluster(), d.ownStartCluster); err != nil {
		return nil, nil, err
	}

	return e, chain, nil
}

func writeDotEntries(chain *clusterchain.ClusterChain, selfCluster, parentCluster uint32) error {
	var dot directory.Entry
	copy(dot.RawName[:], ".          ")
	dot.Attr = directory.AttrDirectory
	dot.SetFirstCluster(selfCluster)

	var dotdot directory.Entry
	copy(dotdot.RawName[:], "..         ")
	dotdot.Attr = directory.AttrDirectory
	dotdot.SetFirstCluster(parentCluster)

	if err := chain.Write(0, dot.Encode()); err != nil {
		return err
	}
	return chain.Write(directory.EntrySize, dotdot.Encode())
}

// deriveShortName returns name's own 8.3 form directly if it already fits
// (legal character set, 8-char base, 3-char extension) and doesn't
// collide; otherwise it falls back to shortname.Generate's ~N scheme.
func (d *FatLfnDirectory) deriveShortName(name string) (shortname.ShortName, error) {
	base, ext := splitShortCandidate(name)
	if base != "" {
		sn := shortname.FromPacked(strings.ToUpper(base), strings.ToUpper(ext))
		if shortname.Validate(sn) == nil && !d.shortNameExists(sn) {
			return sn, nil
		}
	}
	return shortname.Generate(name, d.shortNameExists)
}

// splitShortCandidate returns ("", "") unless name's base and extension
// already fit within 8 and 3 characters respectively.
func splitShortCandidate(name string) (base, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		base, ext = name, ""
	} else if idx == 0 {
		return "", ""
	} else {
		base, ext = name[:idx], name[idx+1:]
	}
	if len(base) == 0 || len(base) > 8 || len(ext) > 3 {
		return "", ""
	}
	return base, ext
}

func (d *FatLfnDirectory) add(name string, attr uint8) (*Entry, error) {
	if err := d.checkWritable(); err != nil {
		return nil, err
	}
	if d.nameExists(name) {
		return nil, gofaterrors.ErrDuplicateName
	}

	sn, err := d.deriveShortName(name)
	if err != nil {
		return nil, err
	}

	var short directory.Entry
	copy(short.RawName[:], sn[:])
	short.Attr = attr
	date, timeField, tenths := directory.TimeToParts(now())
	short.CreatedDate = date
	short.CreatedTime = timeField
	short.CreatedTimeTenth = tenths
	short.WriteDate = date
	short.WriteTime = timeField
	short.AccessedDate = date

	e := &Entry{ShortName: sn, Short: short}
	if sn.String() != name {
		// Any difference, including case alone, needs the long name
		// recorded: the 8.3 entry can only store uppercase.
		e.LongName = name
	}

	d.entries = append(d.entries, e)
	d.byLower[strings.ToLower(e.DisplayName())] = e
	d.dirty = true

	return e, nil
}

// now is overridable in tests; production code always wants wall-clock
// time for directory entry timestamps.
var now = time.Now

// GetEntry performs a case-insensitive long-name lookup, falling back to a
// short-name match if no long name matches.
func (d *FatLfnDirectory) GetEntry(name string) (*Entry, error) {
	if e, ok := d.byLower[strings.ToLower(name)]; ok {
		return e, nil
	}
	upper := strings.ToUpper(name)
	for _, e := range d.entries {
		if !e.system && strings.ToUpper(e.ShortName.String()) == upper {
			return e, nil
		}
	}
	return nil, gofaterrors.ErrInvalidArgument.WithMessage("no such directory entry: " + name)
}

// List returns every live entry, in on-disk (insertion) order. The
// volume-label pseudo-entry and dot entries are not included.
func (d *FatLfnDirectory) List() []*Entry {
	out := make([]*Entry, 0, len(d.entries))
	for _, e := range d.entries {
		if e.system {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Label returns the volume-label pseudo-entry's text, if one is present.
// Only meaningful on the root directory.
func (d *FatLfnDirectory) Label() (string, bool) {
	for _, e := range d.entries {
		if e.system && e.Short.IsVolumeLabel() {
			return e.Short.VolumeLabelString(), true
		}
	}
	return "", false
}

// SetLabel creates, updates, or (if label is empty) removes the
// volume-label pseudo-entry. The change is persisted on the next Flush.
func (d *FatLfnDirectory) SetLabel(label string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}

	for i, e := range d.entries {
		if !e.system || !e.Short.IsVolumeLabel() {
			continue
		}
		if label == "" {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
		} else {
			copy(e.Short.RawName[:], paddedLabel(label))
			copy(e.ShortName[:], e.Short.RawName[:])
		}
		d.dirty = true
		return nil
	}

	if label == "" {
		return nil
	}
	e := &Entry{system: true}
	copy(e.Short.RawName[:], paddedLabel(label))
	e.Short.Attr = directory.AttrVolumeID
	copy(e.ShortName[:], e.Short.RawName[:])
	d.entries = append(d.entries, e)
	d.dirty = true
	return nil
}

func paddedLabel(label string) []byte {
	out := make([]byte, 11)
	for i := range out {
		out[i] = ' '
	}
	copy(out, label)
	return out
}

// SoftErrors returns the broken-LFN-chain conditions absorbed while
// loading this directory. The affected entries are still listed, under
// their short names; nothing here stops the volume from being used.
func (d *FatLfnDirectory) SoftErrors() []error {
	out := make([]error, len(d.softErrors))
	copy(out, d.softErrors)
	return out
}

// MarkDirty forces the next Flush to reserialize every entry. FatFile
// mutates its short entry's size and timestamps in place, so the owning
// directory has no other way of knowing a write-through is needed.
func (d *FatLfnDirectory) MarkDirty() {
	d.dirty = true
}

// Remove deletes the entry named name. For a file, its cluster chain is
// freed. For a directory, the caller must ensure it's empty first (this
// package doesn't recurse).
func (d *FatLfnDirectory) Remove(name string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	e, err := d.GetEntry(name)
	if err != nil {
		return err
	}

	if first := e.Short.FirstCluster(); first != 0 {
		if err := d.fat.FreeChain(first); err != nil {
			return err
		}
	}

	for i, cand := range d.entries {
		if cand == e {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			break
		}
	}
	delete(d.byLower, strings.ToLower(e.DisplayName()))
	d.dirty = true
	return nil
}

// Detach removes e from this directory's view without freeing its cluster
// chain, the first half of a move into another directory.
func (d *FatLfnDirectory) Detach(e *Entry) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	for i, cand := range d.entries {
		if cand == e {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			break
		}
	}
	delete(d.byLower, strings.ToLower(e.DisplayName()))
	d.dirty = true
	return nil
}

// Attach inserts an entry detached from another directory, regenerating its
// short name if the current one collides here.
func (d *FatLfnDirectory) Attach(e *Entry) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	name := e.DisplayName()
	if d.nameExists(name) {
		return gofaterrors.ErrDuplicateName
	}
	if d.shortNameExists(e.ShortName) {
		sn, err := shortname.Generate(name, d.shortNameExists)
		if err != nil {
			return err
		}
		e.ShortName = sn
		copy(e.Short.RawName[:], sn[:])
		if sn.String() != name {
			e.LongName = name
		}
	}
	d.entries = append(d.entries, e)
	d.byLower[strings.ToLower(name)] = e
	d.dirty = true
	return nil
}

// RewriteDotDot updates the ".." entry at the head of a moved directory's
// own chain to point at the new parent's first cluster (0 if the new
// parent is the root).
func RewriteDotDot(chain *clusterchain.ClusterChain, parentCluster uint32) error {
	raw := make([]byte, directory.EntrySize)
	if err := chain.Read(directory.EntrySize, raw); err != nil {
		return err
	}
	e := directory.DecodeEntry(raw)
	e.SetFirstCluster(parentCluster)
	return chain.Write(directory.EntrySize, e.Encode())
}

// Rename changes an entry's name in place (not a move between
// directories -- that's modeled as Attach in the destination plus Detach
// from the source, at the filesystem layer).
func (d *FatLfnDirectory) Rename(oldName, newName string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if d.nameExists(newName) {
		return gofaterrors.ErrDuplicateName
	}
	e, err := d.GetEntry(oldName)
	if err != nil {
		return err
	}

	sn, err := d.deriveShortName(newName)
	if err != nil {
		return err
	}

	delete(d.byLower, strings.ToLower(e.DisplayName()))
	e.ShortName = sn
	copy(e.Short.RawName[:], sn[:])
	if sn.String() != newName {
		e.LongName = newName
	} else {
		e.LongName = ""
	}
	d.byLower[strings.ToLower(e.DisplayName())] = e
	d.dirty = true
	return nil
}

// Flush reserializes every live entry (LFN chain, if any, then its short
// entry) into the backing directory in insertion order, followed by a
// 0x00 terminator, growing the backing directory if needed.
func (d *FatLfnDirectory) Flush() error {
	if !d.dirty {
		return nil
	}
	if err := d.checkWritable(); err != nil {
		return err
	}

	slotCount := 0
	for _, e := range d.entries {
		slotCount += d.slotCountFor(e)
	}
	slotCount++ // terminator

	capacity, err := d.backing.Capacity()
	if err != nil {
		return err
	}
	if slotCount > capacity {
		if err := d.backing.ChangeSize(slotCount); err != nil {
			return err
		}
	}

	idx := 0
	for _, e := range d.entries {
		idx, err = d.writeEntry(idx, e)
		if err != nil {
			return err
		}
	}

	if err := d.backing.SetEntry(idx, directory.Entry{}); err != nil {
		return err
	}

	if err := d.backing.Flush(); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

func (d *FatLfnDirectory) slotCountFor(e *Entry) int {
	if e.LongName == "" {
		return 1
	}
	slots, err := lfn.Pack(e.LongName, shortname.Checksum(e.ShortName))
	if err != nil {
		return 1
	}
	return len(slots) + 1
}

func (d *FatLfnDirectory) writeEntry(idx int, e *Entry) (int, error) {
	if e.LongName != "" {
		slots, err := lfn.Pack(e.LongName, shortname.Checksum(e.ShortName))
		if err != nil {
			return idx, err
		}
		for _, s := range slots {
			se := directory.DecodeEntry(s.Encode())
			if err := d.backing.SetEntry(idx, se); err != nil {
				return idx, err
			}
			idx++
		}
	}
	if err := d.backing.SetEntry(idx, e.Short); err != nil {
		return idx, err
	}
	idx++
	return idx, nil
}
