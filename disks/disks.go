// Package disks holds the standard FAT sectors-per-cluster tables that
// SuperFloppyFormatter consults to pick a cluster size for a given volume
// size, embedded as CSV and parsed once at startup.
package disks

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
	gofaterrors "github.com/go-fat/gofat/errors"
)

// FatSizeClass names the FAT variant a geometry row applies to.
type FatSizeClass string

const (
	FAT16 FatSizeClass = "FAT16"
	FAT32 FatSizeClass = "FAT32"
)

// geometryRow is one line of fat-geometries.csv: for a given FAT variant,
// the number of sectors per cluster to use when the volume's total sector
// count falls within [MinSectors, MaxSectors].
type geometryRow struct {
	FatType         FatSizeClass `csv:"fat_type"`
	MinSectors      uint64       `csv:"min_sectors"`
	MaxSectors      uint64       `csv:"max_sectors"`
	SectorsPerCluster uint8      `csv:"sectors_per_cluster"`
}

//go:embed fat-geometries.csv
var fatGeometriesRawCSV string

var fat16Table []geometryRow
var fat32Table []geometryRow

func init() {
	reader := strings.NewReader(fatGeometriesRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row geometryRow) error {
		switch row.FatType {
		case FAT16:
			fat16Table = append(fat16Table, row)
		case FAT32:
			fat32Table = append(fat32Table, row)
		default:
			return fmt.Errorf("unrecognized fat_type %q in geometry table", row.FatType)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// SectorsPerClusterFAT16 returns the standard sectors-per-cluster value for
// a FAT16 volume of totalSectors sectors, per the FAT specification's
// standard table.
func SectorsPerClusterFAT16(totalSectors uint32) (uint8, error) {
	return lookup(fat16Table, uint64(totalSectors))
}

// SectorsPerClusterFAT32 returns the standard sectors-per-cluster value for
// a FAT32 volume of totalSectors sectors.
func SectorsPerClusterFAT32(totalSectors uint32) (uint8, error) {
	return lookup(fat32Table, uint64(totalSectors))
}

func lookup(table []geometryRow, totalSectors uint64) (uint8, error) {
	for _, row := range table {
		if totalSectors >= row.MinSectors && totalSectors <= row.MaxSectors {
			return row.SectorsPerCluster, nil
		}
	}
	return 0, gofaterrors.ErrDeviceTooSmall.WithMessage(
		fmt.Sprintf("no standard cluster size for a %d-sector volume", totalSectors))
}

// MaxFAT12Clusters is the cluster count above which a volume is no longer a
// valid FAT12 volume.
const MaxFAT12Clusters = 4084

// SectorsPerClusterFAT12 computes the cluster size for a FAT12 volume by
// doubling from 1 until the resulting cluster count is within
// MaxFAT12Clusters. FAT12 has no standard lookup table, unlike FAT16/32.
func SectorsPerClusterFAT12(totalSectors uint32, bytesPerSector uint16) (uint8, error) {
	spc := uint8(1)
	for totalSectors/uint32(spc) > MaxFAT12Clusters {
		if spc >= 128 {
			return 0, gofaterrors.ErrDeviceTooLarge.WithMessage(
				"volume too large to fit FAT12's cluster-count ceiling")
		}
		spc *= 2
	}
	if uint32(spc)*uint32(bytesPerSector) > 4096 {
		return 0, gofaterrors.ErrDeviceTooLarge.WithMessage(
			"FAT12 cluster size may not exceed 4096 bytes")
	}
	return spc, nil
}
