package format

import "github.com/go-fat/gofat/filesystem"

// PCFormatter lays down a plain IBM PC boot sector: a short/near jump plus
// the common 0x55 0xAA signature. It's the only Dialect that actually
// writes a volume; see MSXFormatter and TOSFormatter.
type PCFormatter struct{}

func (PCFormatter) Name() string { return "pc" }

// Init picks geometry from dev's size (or opts.FatType if set) and writes a
// complete fresh volume, then re-mounts it.
func (PCFormatter) Init(dev Device, opts Options) (*filesystem.FatFileSystem, error) {
	g, err := planGeometry(dev, opts)
	if err != nil {
		return nil, err
	}
	return writeVolume(dev, g, opts)
}
