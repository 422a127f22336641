package bootsector

import (
	"testing"

	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDevice struct {
	data []byte
}

func newMemDevice(size int) *memDevice {
	return &memDevice{data: make([]byte, size)}
}

func (m *memDevice) ReadAt(offset uint64, buf []byte) error {
	copy(buf, m.data[offset:offset+uint64(len(buf))])
	return nil
}

func (m *memDevice) WriteAt(offset uint64, buf []byte) error {
	copy(m.data[offset:offset+uint64(len(buf))], buf)
	return nil
}

func buildPCFat16(t *testing.T) *memDevice {
	t.Helper()
	bs, err := Build(BuildParams{
		FatType:           FAT16,
		BytesPerSector:    512,
		SectorsPerCluster: 4,
		ReservedSectors:   1,
		NumFATs:           2,
		RootEntryCount:    512,
		TotalSectors:      65536,
		MediumDescriptor:  0xF8,
		SectorsPerFAT:     256,
		OEMName:           "GOFAT",
		VolumeLabel:       "TESTVOL",
		VolumeID:          0xDEADBEEF,
	})
	require.NoError(t, err)

	dev := newMemDevice(SectorSize)
	require.NoError(t, bs.Write(dev))
	return dev
}

func TestMountRoundTripPCFat16(t *testing.T) {
	dev := buildPCFat16(t)

	bs, dialect, err := Mount(dev)
	require.NoError(t, err)
	assert.Equal(t, "pc", dialect)
	assert.Equal(t, FAT16, bs.FatType())
	assert.Equal(t, uint16(512), bs.BytesPerSector())
	assert.Equal(t, uint8(4), bs.SectorsPerCluster())
	assert.Equal(t, uint16(1), bs.NrReservedSectors())
	assert.Equal(t, uint8(2), bs.NrFats())
	assert.Equal(t, uint16(512), bs.RootDirEntryCount())
	assert.Equal(t, uint32(256), bs.SectorsPerFat())
	assert.Equal(t, "TESTVOL", bs.VolumeLabel())
	assert.Equal(t, "FAT16", bs.FileSystemTypeLabel())
}

func TestMountRejectsBadSignature(t *testing.T) {
	dev := buildPCFat16(t)
	dev.data[signatureOffset] = 0x00

	_, _, err := Mount(dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, gofaterrors.ErrUnrecognizedFormat)
}

func TestMountRejectsBadSectorsPerCluster(t *testing.T) {
	dev := buildPCFat16(t)
	dev.data[offSectorsPerCluster] = 3 // not a power of 2

	_, _, err := Mount(dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, gofaterrors.ErrUnrecognizedFormat)
}

func TestMountRejectsUnrecognizedDialect(t *testing.T) {
	dev := buildPCFat16(t)
	dev.data[offJmpBoot] = 0x00 // neither PC/MSX jump nor TOS 0x60

	_, _, err := Mount(dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, gofaterrors.ErrUnrecognizedFormat)
}

func TestMountAcceptsTosDialect(t *testing.T) {
	dev := buildPCFat16(t)
	dev.data[offJmpBoot] = 0x60

	_, dialect, err := Mount(dev)
	require.NoError(t, err)
	assert.Equal(t, "tos", dialect)
}

func TestDetermineFatTypeThresholds(t *testing.T) {
	assert.Equal(t, FAT12, determineFatType(0))
	assert.Equal(t, FAT12, determineFatType(4084))
	assert.Equal(t, FAT16, determineFatType(4085))
	assert.Equal(t, FAT16, determineFatType(65524))
	assert.Equal(t, FAT32, determineFatType(65525))
}

func TestFAT32BuildExposesRootClusterAndFSInfo(t *testing.T) {
	bs, err := Build(BuildParams{
		FatType:           FAT32,
		BytesPerSector:    512,
		SectorsPerCluster: 8,
		ReservedSectors:   32,
		NumFATs:           2,
		RootEntryCount:    0,
		TotalSectors:      2097152,
		MediumDescriptor:  0xF8,
		SectorsPerFAT:     2040,
		OEMName:           "GOFAT",
		VolumeLabel:       "BIGVOL",
		VolumeID:          1,
		RootCluster:       2,
		FSInfoSectorNr:    1,
		BackupBootSector:  6,
	})
	require.NoError(t, err)
	assert.Equal(t, FAT32, bs.FatType())

	root, err := bs.RootDirFirstCluster()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), root)

	fsinfo, err := bs.FsInfoSectorNr()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), fsinfo)

	backup, err := bs.BackupBootSectorNr()
	require.NoError(t, err)
	assert.Equal(t, uint16(6), backup)
}

func TestFAT32OnlyAccessorsRejectFAT16(t *testing.T) {
	dev := buildPCFat16(t)
	bs, _, err := Mount(dev)
	require.NoError(t, err)

	_, err = bs.RootDirFirstCluster()
	assert.ErrorIs(t, err, gofaterrors.ErrInvalidArgument)

	_, err = bs.FsInfoSectorNr()
	assert.ErrorIs(t, err, gofaterrors.ErrInvalidArgument)
}

func TestSetVolumeLabelRoundTrips(t *testing.T) {
	dev := buildPCFat16(t)
	bs, _, err := Mount(dev)
	require.NoError(t, err)

	require.NoError(t, bs.SetVolumeLabel("NEWLABEL"))
	assert.Equal(t, "NEWLABEL", bs.VolumeLabel())
	assert.True(t, bs.IsDirty())

	require.NoError(t, bs.Write(dev))
	assert.False(t, bs.IsDirty())

	reread, _, err := Mount(dev)
	require.NoError(t, err)
	assert.Equal(t, "NEWLABEL", reread.VolumeLabel())
}

func TestIsBootableChecksum(t *testing.T) {
	var raw [SectorSize]byte
	assert.False(t, IsBootable(raw))

	// Force the word-XOR checksum over the whole sector to 0x1234 by
	// adjusting the final two bytes after everything else is zero.
	raw[SectorSize-2] = 0x34
	raw[SectorSize-1] = 0x12
	assert.True(t, IsBootable(raw))
}
