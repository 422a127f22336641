package clusterchain

import (
	"testing"

	"github.com/go-fat/gofat/bootsector"
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
	if offset+uint64(len(buf)) > uint64(len(m.data)) {
		panic("write beyond device")
	}
	copy(m.data[offset:offset+uint64(len(buf))], buf)
	return nil
}

const bytesPerCluster = 512
const filesOffset = 1024 // arbitrary base, cluster 2 starts here

func newFixture(totalClusters uint32) (*fat.Fat, *memDevice) {
	f := fat.New(bootsector.FAT16, totalClusters, 512, 1)
	dev := newMemDevice(int(filesOffset + uint64(totalClusters)*bytesPerCluster))
	return f, dev
}

func TestEmptyChainHasZeroLength(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, false)

	length, err := cc.Length()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), length)
}

func TestSetChainLengthGrowsFromEmpty(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, false)

	require.NoError(t, cc.SetChainLength(bytesPerCluster*3))
	length, err := cc.Length()
	require.NoError(t, err)
	assert.Equal(t, uint64(bytesPerCluster*3), length)
	assert.NotZero(t, cc.StartCluster())
}

func TestWriteGrowsChainImplicitly(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, false)

	payload := make([]byte, bytesPerCluster+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, cc.Write(0, payload))

	length, err := cc.Length()
	require.NoError(t, err)
	assert.Equal(t, uint64(bytesPerCluster*2), length)

	readBack := make([]byte, len(payload))
	require.NoError(t, cc.Read(0, readBack))
	assert.Equal(t, payload, readBack)
}

func TestSetChainLengthShrinks(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, false)
	require.NoError(t, cc.SetChainLength(bytesPerCluster*4))

	before := f.FreeClusterCount()
	require.NoError(t, cc.SetChainLength(bytesPerCluster*2))

	length, err := cc.Length()
	require.NoError(t, err)
	assert.Equal(t, uint64(bytesPerCluster*2), length)
	assert.Equal(t, before+2, f.FreeClusterCount())
}

func TestSetChainLengthToZeroFreesEverything(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, false)
	require.NoError(t, cc.SetChainLength(bytesPerCluster*3))

	require.NoError(t, cc.SetChainLength(0))
	assert.Equal(t, uint32(0), cc.StartCluster())
	length, err := cc.Length()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), length)
}

func TestReadOnlyChainRejectsMutation(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, true)

	err := cc.SetChainLength(bytesPerCluster)
	assert.ErrorIs(t, err, gofaterrors.ErrReadOnly)

	err = cc.Write(0, []byte{1, 2, 3})
	assert.ErrorIs(t, err, gofaterrors.ErrReadOnly)
}

func TestZeroFillOnGrow(t *testing.T) {
	f, dev := newFixture(10)
	cc := New(f, dev, 0, bytesPerCluster, filesOffset, false)
	require.NoError(t, cc.SetChainLength(bytesPerCluster))

	buf := make([]byte, bytesPerCluster)
	require.NoError(t, cc.Read(0, buf))
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}
