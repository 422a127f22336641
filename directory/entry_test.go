package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntryRoundTrip(t *testing.T) {
	var e Entry
	copy(e.RawName[:], "HELLO   TXT")
	e.Attr = AttrArchive
	e.FileSize = 1234
	e.SetFirstCluster(0xABCDEF)

	raw := e.Encode()
	decoded := DecodeEntry(raw)

	assert.Equal(t, e.RawName, decoded.RawName)
	assert.Equal(t, e.Attr, decoded.Attr)
	assert.Equal(t, e.FileSize, decoded.FileSize)
	assert.Equal(t, uint32(0xABCDEF), decoded.FirstCluster())
}

func TestShortNameStringTrimsAndJoinsExtension(t *testing.T) {
	var e Entry
	copy(e.RawName[:], "README  TXT")
	assert.Equal(t, "README.TXT", e.ShortNameString())
}

func TestShortNameStringWithNoExtension(t *testing.T) {
	var e Entry
	copy(e.RawName[:], "NOEXT      ")
	assert.Equal(t, "NOEXT", e.ShortNameString())
}

func TestShortNameStringKanjiEscape(t *testing.T) {
	var e Entry
	copy(e.RawName[:], "\x05OO     TXT")
	assert.Equal(t, "\xE5OO.TXT", e.ShortNameString())
}

func TestIsFreeAndIsDeleted(t *testing.T) {
	var free Entry
	assert.True(t, free.IsFree())

	var deleted Entry
	deleted.RawName[0] = EntryDeleted
	assert.True(t, deleted.IsDeleted())
	assert.False(t, deleted.IsFree())
}

func TestIsLongNameSlotAndVolumeLabel(t *testing.T) {
	lfn := Entry{Attr: AttrLongName}
	assert.True(t, lfn.IsLongNameSlot())
	assert.False(t, lfn.IsVolumeLabel())

	label := Entry{Attr: AttrVolumeID}
	assert.False(t, label.IsLongNameSlot())
	assert.True(t, label.IsVolumeLabel())
}

func TestDateFromIntAndDateToInt(t *testing.T) {
	d := DateFromInt(0x0021) // year 0 (1980), month 1, day 1
	assert.Equal(t, time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC), d)

	packed := DateToInt(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, DateFromInt(packed).Year(), 2024)
	assert.Equal(t, DateFromInt(packed).Month(), time.March)
	assert.Equal(t, DateFromInt(packed).Day(), 15)
}

func TestTimestampRoundTrip(t *testing.T) {
	original := time.Date(2022, time.June, 10, 13, 45, 30, 0, time.UTC)
	date, timeField, tenths := TimeToParts(original)
	reconstructed := TimestampFromParts(date, timeField, tenths)
	assert.Equal(t, original, reconstructed)
}

func TestTimeToPartsClampsBeforeEpoch(t *testing.T) {
	early := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	date, _, _ := TimeToParts(early)
	assert.Equal(t, 1980, DateFromInt(date).Year())
}
