package format

import (
	"github.com/go-fat/gofat/bootsector"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/filesystem"
)

// TOSFormatter is the named hook point for Atari TOS formatting. Atari TOS
// never supports FAT32, so Init rejects that combination outright;
// otherwise it's the same write-side stub as MSXFormatter.
type TOSFormatter struct{}

func (TOSFormatter) Name() string { return "tos" }

func (TOSFormatter) Init(dev Device, opts Options) (*filesystem.FatFileSystem, error) {
	if opts.FatType == bootsector.FAT32 {
		return nil, gofaterrors.ErrNotSupported.WithMessage("Atari TOS does not support FAT32")
	}
	return nil, gofaterrors.ErrNotSupported.WithMessage("TOS formatting is not implemented")
}
