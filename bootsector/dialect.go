package bootsector

import (
	"github.com/go-fat/gofat/sector"
	"github.com/hashicorp/go-multierror"
)

// Dialect is the hook point for vendor-specific boot sector variants: each
// dialect gets a chance to validate a candidate boot sector, in a fixed
// trial order. The three dialects below are the complete, closed set this
// library recognizes.
type Dialect interface {
	// Name identifies the dialect for diagnostics ("pc", "msx", "tos").
	Name() string

	// CheckDisk validates dialect-specific invariants against an already
	// geometry-derived BootSector. Returning nil means this dialect
	// accepts the boot sector.
	CheckDisk(bs *BootSector) error
}

// Mount tries every known dialect, in order, against the first 512 bytes
// read from dev at offset 0. It returns the first BootSector that validates
// and the name of the dialect that accepted it. Each attempt is
// independent; only the final fallthrough surfaces "disk format not
// recognized".
func Mount(dev sector.Reader) (*BootSector, string, error) {
	sec := sector.New(0, SectorSize)
	if err := sec.Read(dev); err != nil {
		return nil, "", err
	}

	bs, err := deriveGeometry(sec)
	if err != nil {
		return nil, "", err
	}

	if err := checkCommonInvariants(sec, bs); err != nil {
		return nil, "", err
	}

	var trialErrors *multierror.Error
	for _, dialect := range []Dialect{pcDialect{}, msxDialect{}, tosDialect{}} {
		if err := dialect.CheckDisk(bs); err != nil {
			trialErrors = multierror.Append(trialErrors, err)
			continue
		}
		return bs, dialect.Name(), nil
	}

	return nil, "", gofatUnrecognized(trialErrors)
}
