package format

import (
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/filesystem"
)

// MSXFormatter is the named hook point for MSX-DOS formatting. Only the
// read/validate side of the MSX dialect is supported; Init is a stub
// rather than a silently-absent type so callers get a clear error.
type MSXFormatter struct{}

func (MSXFormatter) Name() string { return "msx" }

func (MSXFormatter) Init(Device, Options) (*filesystem.FatFileSystem, error) {
	return nil, gofaterrors.ErrNotSupported.WithMessage("MSX formatting is not implemented")
}
