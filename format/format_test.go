package format_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/go-fat/gofat/blockdev"
	"github.com/go-fat/gofat/bootsector"
	"github.com/go-fat/gofat/filesystem"
	"github.com/go-fat/gofat/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T, sizeBytes int) *blockdev.MemoryBlockDevice {
	t.Helper()
	return blockdev.New(make([]byte, sizeBytes), 512, false)
}

// deterministicOptions pins the RNG so VolumeID is reproducible across test
// runs instead of depending on wall-clock seeding.
func deterministicOptions(label string) format.Options {
	return format.Options{VolumeLabel: label, RNG: rand.New(rand.NewSource(1))}
}

// TestFormatFAT12ThenMountReadOnly formats an 8 MiB device as FAT12,
// mounts it read-only, and confirms the volume label and FAT type
// round-trip. FAT12 is requested explicitly -- the size-based default for
// 8 MiB would be FAT16.
func TestFormatFAT12ThenMountReadOnly(t *testing.T) {
	dev := newDevice(t, 8*1024*1024)

	opts := deterministicOptions("TEST")
	opts.FatType = bootsector.FAT12
	fsys, err := format.Format(dev, opts)
	require.NoError(t, err)
	assert.Equal(t, bootsector.FAT12, fsys.FatType())
	fsys.Close()

	roFsys, err := filesystem.Mount(dev, filesystem.MountOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, bootsector.FAT12, roFsys.FatType())

	label, err := roFsys.VolumeLabel()
	require.NoError(t, err)
	assert.Equal(t, "TEST", label)
	assert.Empty(t, roFsys.Root().List())
}

// TestFormatFAT16CreateWriteFlushRemount creates a file on a freshly
// formatted FAT16 volume, writes a few bytes, and checks they survive a
// flush and remount.
func TestFormatFAT16CreateWriteFlushRemount(t *testing.T) {
	dev := newDevice(t, 100*1024*1024)

	fsys, err := format.Format(dev, deterministicOptions("DATA"))
	require.NoError(t, err)
	assert.Equal(t, bootsector.FAT16, fsys.FatType())

	f, err := fsys.Root().AddFile("a.txt")
	require.NoError(t, err)
	payload := []byte{0x41, 0x42, 0x43}
	n, err := f.Write(0, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	f.Flush()
	require.NoError(t, fsys.Flush())

	fsys2, err := filesystem.Mount(dev, filesystem.MountOptions{})
	require.NoError(t, err)
	entries := fsys2.Root().List()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(3), entries[0].Size)

	f2, err := fsys2.Root().OpenFile("a.txt")
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = f2.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf)
}

// TestFormatFAT32ManyFiles creates 50 files on a 200 MiB FAT32 volume
// (FAT32 requested explicitly, since the size-based default for 200 MiB
// would be FAT16): every added file must be present after flush+remount,
// and FreeClusterCount must track the directory chain growth.
func TestFormatFAT32ManyFiles(t *testing.T) {
	const fileCount = 50
	dev := newDevice(t, 200*1024*1024)

	opts := deterministicOptions("BIGVOL")
	opts.FatType = bootsector.FAT32
	fsys, err := format.Format(dev, opts)
	require.NoError(t, err)
	assert.Equal(t, bootsector.FAT32, fsys.FatType())

	freeBefore := fsys.FreeSpace()

	for i := 0; i < fileCount; i++ {
		_, err := fsys.Root().AddFile(fmt.Sprintf("f%03d", i))
		require.NoError(t, err)
	}
	require.NoError(t, fsys.Flush())

	fsys2, err := filesystem.Mount(dev, filesystem.MountOptions{})
	require.NoError(t, err)
	entries := fsys2.Root().List()
	assert.Len(t, entries, fileCount)
	assert.Less(t, fsys2.FreeSpace(), freeBefore)
}

func TestFormatRejectsUnrecognizedFatType(t *testing.T) {
	dev := newDevice(t, 8*1024*1024)
	_, err := format.Format(dev, format.Options{FatType: 99})
	assert.Error(t, err)
}

func TestMSXAndTOSFormattersAreStubs(t *testing.T) {
	dev := newDevice(t, 8*1024*1024)

	_, err := (format.SuperFloppyFormatter{Dialect: format.MSXFormatter{}}).Format(dev, format.Options{})
	assert.Error(t, err)

	_, err = (format.SuperFloppyFormatter{Dialect: format.TOSFormatter{}}).Format(dev, format.Options{FatType: bootsector.FAT32})
	assert.Error(t, err)
}
