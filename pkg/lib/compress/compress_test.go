package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardus/lib-net/pkg/types"
)

func TestCompressDecompress(t *testing.T) {
	data := bytes.Repeat([]byte("shardus lib-net "), 512)

	for _, c := range []types.Compression{
		types.CompressionNone, types.CompressionGzip, types.CompressionBrotli, types.CompressionZstd,
	} {
		t.Run(c.String(), func(t *testing.T) {
			packed, err := Compress(c, data)
			require.NoError(t, err)
			if c != types.CompressionNone {
				assert.Less(t, len(packed), len(data))
			}

			out, err := Decompress(c, packed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestUnsupported(t *testing.T) {
	_, err := Compress(types.Compression(42), []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Decompress(types.Compression(42), []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestParse(t *testing.T) {
	for _, name := range []string{"none", "gzip", "brotli", "zstd"} {
		c, err := Parse(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.String())
	}

	_, err := Parse("lz4")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDecompress_Corrupt(t *testing.T) {
	_, err := Decompress(types.CompressionGzip, []byte("not gzip"))
	assert.Error(t, err)

	_, err = Decompress(types.CompressionZstd, []byte("not zstd"))
	assert.Error(t, err)
}
