// Package shortname implements the 8.3 short-name encoding: the 11-byte
// on-disk representation, its checksum (used to bind a VFAT long-name
// chain to its short entry), and collision-safe ~N short-name generation
// for names that don't fit the 8.3 form.
package shortname

import (
	"fmt"
	"strings"

	gofaterrors "github.com/go-fat/gofat/errors"
)

// legalPunctuation is the punctuation subset of the 8.3 character set;
// isLegalChar also accepts uppercase letters and digits. Lowercase is
// rejected rather than folded -- callers normalize case before calling
// Validate, and Generate uppercases its input itself.
const legalPunctuation = "$%'-_@~`!(){}^#&"

func isLegalChar(b byte) bool {
	if b >= 'A' && b <= 'Z' {
		return true
	}
	if b >= '0' && b <= '9' {
		return true
	}
	return strings.IndexByte(legalPunctuation, b) >= 0
}

// ShortName is the 11-byte packed 8.3 name (8 bytes base + 3 bytes
// extension, space-padded).
type ShortName [11]byte

// Validate reports whether every character of the name (excluding padding)
// lies in the 8.3 legal set.
func Validate(name ShortName) error {
	for _, b := range name {
		if b == ' ' {
			continue
		}
		if !isLegalChar(b) {
			return gofaterrors.ErrIllegalShortName.WithMessage(
				fmt.Sprintf("character %q is not legal in an 8.3 name", b))
		}
	}
	return nil
}

// Checksum implements the rotate-and-add checksum every LFN slot in a
// chain must agree on: for each of the 11 raw bytes,
// sum = ((sum>>1) | (sum<<7 & 0xFF)) + byte, keeping only the low 8 bits.
func Checksum(name ShortName) uint8 {
	var sum uint8
	for _, b := range name {
		sum = ((sum >> 1) | (sum << 7)) + b
	}
	return sum
}

// FromPacked builds a ShortName from its 8-byte base and 3-byte extension,
// space-padding as needed.
func FromPacked(base, ext string) ShortName {
	var sn ShortName
	for i := 0; i < 8; i++ {
		if i < len(base) {
			sn[i] = base[i]
		} else {
			sn[i] = ' '
		}
	}
	for i := 0; i < 3; i++ {
		if i < len(ext) {
			sn[8+i] = ext[i]
		} else {
			sn[8+i] = ' '
		}
	}
	return sn
}

// String renders the packed name back to "BASE.EXT" form (or just "BASE"
// if the extension is empty), applying the 0xE5/0x05 kanji-escape
// convention on the first byte.
func (sn ShortName) String() string {
	base := make([]byte, 8)
	copy(base, sn[0:8])
	if base[0] == 0x05 {
		base[0] = 0xE5
	}
	ext := sn[8:11]

	trimmedBase := strings.TrimRight(string(base), " ")
	trimmedExt := strings.TrimRight(string(ext), " ")
	if trimmedExt == "" {
		return trimmedBase
	}
	return trimmedBase + "." + trimmedExt
}

// sanitize strips characters outside the 8.3 legal set and uppercases the
// rest, used while deriving a generated short name from a long one.
func sanitize(s string) string {
	upper := strings.ToUpper(s)
	var b strings.Builder
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		if isLegalChar(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// splitLongName divides name into a base and extension the way FAT does:
// everything after the last '.' is the extension, unless the name has no
// '.' or starts with one.
func splitLongName(name string) (base, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

// Exists is a collision check callback: Generate calls it with each
// candidate ShortName and expects true if that name is already taken in
// the target directory.
type Exists func(candidate ShortName) bool

// Generate derives a unique 8.3 short name for longName, suitable for use
// when its own form doesn't already fit the 8.3 character set and length.
// It strips illegal characters and uppercases, truncates the base to 6
// characters, and appends "~N" for the smallest N (starting at 1) that
// doesn't collide, per exists. If N reaches two digits, the base is
// truncated further to keep the total within 8 characters.
func Generate(longName string, exists Exists) (ShortName, error) {
	base, ext := splitLongName(longName)
	base = sanitize(base)
	ext = sanitize(ext)
	if len(ext) > 3 {
		ext = ext[:3]
	}
	if base == "" {
		base = "FILE"
	}

	for n := 1; n < 1_000_000; n++ {
		suffix := fmt.Sprintf("~%d", n)
		maxBaseLen := 8 - len(suffix)
		truncatedBase := base
		if len(truncatedBase) > maxBaseLen {
			truncatedBase = truncatedBase[:maxBaseLen]
		}
		candidate := FromPacked(truncatedBase+suffix, ext)
		if exists == nil || !exists(candidate) {
			return candidate, nil
		}
	}
	return ShortName{}, gofaterrors.ErrDuplicateName.WithMessage(
		"exhausted ~N suffixes while generating a unique short name")
}
