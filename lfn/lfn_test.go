package lfn

import (
	"strings"
	"testing"

	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/shortname"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTripShortName(t *testing.T) {
	sn := shortname.FromPacked("MYLONG~1", "TXT")
	checksum := shortname.Checksum(sn)

	slots, err := Pack("my long file name.txt", checksum)
	require.NoError(t, err)
	assert.Equal(t, 2, len(slots)) // 21 chars -> ceil(21/13) = 2 slots

	name, err := Unpack(slots)
	require.NoError(t, err)
	assert.Equal(t, "my long file name.txt", name)
}

func TestPackFirstSlotHasLastFlagAndHighestOrdinal(t *testing.T) {
	slots, err := Pack("a very long example file name indeed.txt", 0x42)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	first := slots[0]
	assert.True(t, first.IsLast())
	assert.Equal(t, len(slots), first.SequenceNumber())

	last := slots[len(slots)-1]
	assert.Equal(t, 1, last.SequenceNumber())
	assert.False(t, last.IsLast())
}

func TestPackRejectsNameTooLong(t *testing.T) {
	name := strings.Repeat("a", 300)
	_, err := Pack(name, 0)
	assert.ErrorIs(t, err, gofaterrors.ErrNameTooLong)
}

func TestEncodeDecodeSlotRoundTrip(t *testing.T) {
	slots, err := Pack("short.txt", 0x77)
	require.NoError(t, err)
	raw := slots[0].Encode()
	decoded := DecodeSlot(raw)
	assert.Equal(t, slots[0].Ordinal, decoded.Ordinal)
	assert.Equal(t, slots[0].Checksum, decoded.Checksum)
	assert.Equal(t, slots[0].Units, decoded.Units)
}

func TestUnpackDetectsBrokenSequence(t *testing.T) {
	slots, err := Pack("a very long example file name indeed.txt", 0x42)
	require.NoError(t, err)
	require.True(t, len(slots) >= 2)

	// Corrupt the ordinal of a middle slot to break the contiguous sequence.
	slots[1].Ordinal = slots[1].Ordinal + 5

	_, err = Unpack(slots)
	assert.ErrorIs(t, err, gofaterrors.ErrBrokenLfnChain)
}

func TestUnpackDetectsChecksumMismatch(t *testing.T) {
	slots, err := Pack("a very long example file name indeed.txt", 0x42)
	require.NoError(t, err)
	require.True(t, len(slots) >= 2)

	slots[1].Checksum = 0x00

	_, err = Unpack(slots)
	assert.ErrorIs(t, err, gofaterrors.ErrBrokenLfnChain)
}

func TestValidateChecksumMatchesShortName(t *testing.T) {
	sn := shortname.FromPacked("FOO", "BAR")
	checksum := shortname.Checksum(sn)
	slots, err := Pack("foobar", checksum)
	require.NoError(t, err)

	assert.True(t, ValidateChecksum(slots, sn))

	other := shortname.FromPacked("BAZ", "QUX")
	assert.False(t, ValidateChecksum(slots, other))
}
