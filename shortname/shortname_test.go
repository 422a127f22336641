package shortname

import (
	"testing"

	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPackedAndString(t *testing.T) {
	sn := FromPacked("README", "TXT")
	assert.Equal(t, "README.TXT", sn.String())
}

func TestFromPackedNoExtension(t *testing.T) {
	sn := FromPacked("NOEXT", "")
	assert.Equal(t, "NOEXT", sn.String())
}

func TestValidateRejectsLowercase(t *testing.T) {
	sn := FromPacked("readme", "txt")
	err := Validate(sn)
	assert.ErrorIs(t, err, gofaterrors.ErrIllegalShortName)
}

func TestValidateAcceptsLegalPunctuation(t *testing.T) {
	sn := FromPacked("A-B_C~D", "TXT")
	assert.NoError(t, Validate(sn))
}

func TestChecksumIsStableAcrossEquivalentConstruction(t *testing.T) {
	a := FromPacked("README", "TXT")
	b := FromPacked("README", "TXT")
	assert.Equal(t, Checksum(a), Checksum(b))
}

func TestChecksumDiffersForDifferentNames(t *testing.T) {
	a := FromPacked("README", "TXT")
	b := FromPacked("OTHER", "TXT")
	assert.NotEqual(t, Checksum(a), Checksum(b))
}

func TestGenerateProducesFirstCandidateWhenNoCollision(t *testing.T) {
	sn, err := Generate("my long file name.txt", func(ShortName) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "MYLONG~1.TXT", sn.String())
}

func TestGenerateIncrementsOnCollision(t *testing.T) {
	seen := map[string]bool{"MYLONG~1.TXT": true, "MYLONG~2.TXT": true}
	sn, err := Generate("my long file name.txt", func(c ShortName) bool {
		return seen[c.String()]
	})
	require.NoError(t, err)
	assert.Equal(t, "MYLONG~3.TXT", sn.String())
}

func TestGenerateStripsIllegalCharsAndUppercases(t *testing.T) {
	sn, err := Generate("my file!!.txt", func(ShortName) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "MYFILE~1.TXT", sn.String())
}

func TestGenerateTruncatesExtension(t *testing.T) {
	sn, err := Generate("data.jpeg", func(ShortName) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "DATA~1.JPE", sn.String())
}
