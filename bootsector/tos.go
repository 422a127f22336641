package bootsector

import (
	"encoding/binary"

	gofaterrors "github.com/go-fat/gofat/errors"
)

// tosDialect is Atari TOS's boot sector: JmpBoot's first byte is 0x60 (a
// 68000 BRA.W instruction) rather than an x86 jump, and bootability is
// signaled by a 16-bit word-XOR checksum over the full 512-byte sector
// equalling 0x1234.
type tosDialect struct{}

func (tosDialect) Name() string { return "tos" }

func (tosDialect) CheckDisk(bs *BootSector) error {
	first, err := bs.sec.Get8(offJmpBoot)
	if err != nil {
		return err
	}
	if first != 0x60 {
		return gofaterrors.ErrUnrecognizedFormat.WithMessage(
			"TOS dialect requires the first byte to be 0x60")
	}
	return nil
}

// IsBootable reports whether the TOS word-XOR checksum over the full
// 512-byte sector equals the magic value 0x1234. This is advisory (it only
// affects whether the BIOS treats the volume as bootable, not whether gofat
// can mount it), so it's exposed separately from CheckDisk.
func IsBootable(raw [SectorSize]byte) bool {
	var checksum uint16
	for i := 0; i < SectorSize; i += 2 {
		checksum ^= binary.LittleEndian.Uint16(raw[i : i+2])
	}
	return checksum == 0x1234
}
