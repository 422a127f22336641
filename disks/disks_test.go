package disks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectorsPerClusterFAT16Thresholds(t *testing.T) {
	cases := []struct {
		sectors uint32
		want    uint8
	}{
		{32680, 2},
		{32681, 4},
		{262144, 4},
		{524288, 8},
		{1048576, 16},
		{2097152, 32},
		{4194304, 64},
	}
	for _, c := range cases {
		got, err := SectorsPerClusterFAT16(c.sectors)
		assert.NoError(t, err)
		assert.Equal(t, c.want, got, "sectors=%d", c.sectors)
	}
}

func TestSectorsPerClusterFAT16RejectsOutOfRange(t *testing.T) {
	_, err := SectorsPerClusterFAT16(8400)
	assert.Error(t, err)

	_, err = SectorsPerClusterFAT16(4194305)
	assert.Error(t, err)
}

func TestSectorsPerClusterFAT32Thresholds(t *testing.T) {
	cases := []struct {
		sectors uint32
		want    uint8
	}{
		{532480, 1},
		{532481, 8},
		{16777216, 8},
		{33554432, 16},
		{67108864, 32},
		{67108865, 64},
		{4000000000, 64},
	}
	for _, c := range cases {
		got, err := SectorsPerClusterFAT32(c.sectors)
		assert.NoError(t, err)
		assert.Equal(t, c.want, got, "sectors=%d", c.sectors)
	}
}

func TestSectorsPerClusterFAT32RejectsTooSmall(t *testing.T) {
	_, err := SectorsPerClusterFAT32(66600)
	assert.Error(t, err)
}

func TestSectorsPerClusterFAT12DoublesUntilWithinCeiling(t *testing.T) {
	got, err := SectorsPerClusterFAT12(4084, 512)
	assert.NoError(t, err)
	assert.Equal(t, uint8(1), got)

	got, err = SectorsPerClusterFAT12(8168, 512)
	assert.NoError(t, err)
	assert.Equal(t, uint8(2), got)
}

func TestSectorsPerClusterFAT12RejectsOversizedCluster(t *testing.T) {
	_, err := SectorsPerClusterFAT12(8168, 4096)
	assert.Error(t, err)
}
