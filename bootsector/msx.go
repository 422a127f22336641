package bootsector

import (
	gofaterrors "github.com/go-fat/gofat/errors"
)

// msxDialect is MSX-DOS's boot sector. It shares the PC jump-byte
// convention and is tried only after the PC dialect fails, so a genuine
// PC-formatted volume is never misidentified as MSX.
type msxDialect struct{}

func (msxDialect) Name() string { return "msx" }

func (msxDialect) CheckDisk(bs *BootSector) error {
	jmp, err := bs.sec.Get8(offJmpBoot)
	if err != nil {
		return err
	}
	if jmp != 0xEB && jmp != 0xE9 {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"MSX dialect requires JmpBoot to start with 0xEB or 0xE9")
	}
	return nil
}
