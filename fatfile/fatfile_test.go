package fatfile

import (
	"io"
	"testing"

	"github.com/go-fat/gofat/bootsector"
	"github.com/go-fat/gofat/clusterchain"
	"github.com/go-fat/gofat/directory"
	gofaterrors "github.com/go-fat/gofat/errors"
	"github.com/go-fat/gofat/fat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDevice struct {
	data []byte
}

func newMemDevice(size int) *memDevice {
	return &memDevice{data: make([]byte, size)}
}

func (m *memDevice) ReadAt(offset uint64, buf []byte) error {
	copy(buf, m.data[offset:offset+uint64(len(buf))])
	return nil
}

func (m *memDevice) WriteAt(offset uint64, buf []byte) error {
	copy(m.data[offset:offset+uint64(len(buf))], buf)
	return nil
}

const bytesPerCluster = 512
const filesOffset = 1024

func newFixture(t *testing.T, readOnly bool) *FatFile {
	t.Helper()
	f := fat.New(bootsector.FAT16, 20, 512, 1)
	dev := newMemDevice(int(filesOffset + 20*bytesPerCluster))
	chain := clusterchain.New(f, dev, 0, bytesPerCluster, filesOffset, readOnly)
	entry := &directory.Entry{}
	return New(chain, entry, readOnly)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	ff := newFixture(t, false)

	payload := []byte("hello, fat file system")
	n, err := ff.Write(0, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, uint64(len(payload)), ff.Length())

	buf := make([]byte, len(payload))
	n, err = ff.Read(0, buf)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

func TestReadPastEndReturnsEOF(t *testing.T) {
	ff := newFixture(t, false)
	require.NoError(t, setLength(ff, 10))

	buf := make([]byte, 5)
	_, err := ff.Read(10, buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadShortReturnsEOFWithPartialData(t *testing.T) {
	ff := newFixture(t, false)
	payload := []byte("12345")
	_, err := ff.Write(0, payload)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := ff.Read(0, buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
	assert.Equal(t, payload, buf[:5])
}

func TestSetLengthToZeroFreesChain(t *testing.T) {
	ff := newFixture(t, false)
	_, err := ff.Write(0, []byte("some content"))
	require.NoError(t, err)

	require.NoError(t, ff.SetLength(0))
	assert.Equal(t, uint64(0), ff.Length())
	assert.Equal(t, uint32(0), ff.Entry().FirstCluster())
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	ff := newFixture(t, true)
	_, err := ff.Write(0, []byte("x"))
	assert.ErrorIs(t, err, gofaterrors.ErrReadOnly)

	err = ff.SetLength(10)
	assert.ErrorIs(t, err, gofaterrors.ErrReadOnly)
}

func setLength(ff *FatFile, n uint64) error {
	return ff.SetLength(n)
}
