package bootsector

import (
	gofaterrors "github.com/go-fat/gofat/errors"
)

// pcDialect is the plain IBM PC boot sector: JmpBoot starts with 0xEB
// (short jump) or 0xE9 (near jump), and the common 0x55 0xAA signature
// (already checked by checkCommonInvariants) is sufficient.
type pcDialect struct{}

func (pcDialect) Name() string { return "pc" }

func (pcDialect) CheckDisk(bs *BootSector) error {
	jmp, err := bs.sec.Get8(offJmpBoot)
	if err != nil {
		return err
	}
	if jmp != 0xEB && jmp != 0xE9 {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"PC dialect requires JmpBoot to start with 0xEB or 0xE9")
	}
	return nil
}

func gofatUnrecognized(cause error) error {
	if cause == nil {
		return gofaterrors.ErrUnrecognizedFormat
	}
	return gofaterrors.ErrUnrecognizedFormat.WrapError(cause)
}
