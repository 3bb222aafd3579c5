package framing

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayloads() [][]byte {
	big := bytes.Repeat([]byte{0xab}, 70*1024)
	return [][]byte{
		[]byte("hello"),
		{},
		big,
		[]byte("x"),
		{},
		[]byte(`{"UUID":"1","msgDir":"tell"}`),
	}
}

func encodeAll(payloads [][]byte) []byte {
	var stream []byte
	for _, p := range payloads {
		stream = AppendFrame(stream, p)
	}
	return stream
}

func feedInChunks(t *testing.T, d *Decoder, stream []byte, sizeFn func() int) [][]byte {
	t.Helper()
	var out [][]byte
	for len(stream) > 0 {
		n := sizeFn()
		if n > len(stream) {
			n = len(stream)
		}
		frames, err := d.Feed(stream[:n])
		require.NoError(t, err)
		out = append(out, frames...)
		stream = stream[n:]
	}
	return out
}

func TestEncode(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 3, 'a', 'b', 'c'}, Encode([]byte("abc")))
	assert.Equal(t, []byte{0, 0, 0, 0}, Encode(nil))
}

func TestDecoder_AllAtOnce(t *testing.T) {
	payloads := testPayloads()
	d := NewDecoder(0)

	frames, err := d.Feed(encodeAll(payloads))
	require.NoError(t, err)
	require.Len(t, frames, len(payloads))
	for i := range payloads {
		assert.Equal(t, len(payloads[i]), len(frames[i]))
		assert.True(t, bytes.Equal(payloads[i], frames[i]))
	}
	assert.Zero(t, d.Buffered())
}

func TestDecoder_OneByteChunks(t *testing.T) {
	payloads := testPayloads()
	d := NewDecoder(0)

	frames := feedInChunks(t, d, encodeAll(payloads), func() int { return 1 })
	require.Len(t, frames, len(payloads))
	for i := range payloads {
		assert.True(t, bytes.Equal(payloads[i], frames[i]), "frame %d", i)
	}
}

func TestDecoder_RandomChunks(t *testing.T) {
	payloads := testPayloads()
	stream := encodeAll(payloads)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		d := NewDecoder(0)
		frames := feedInChunks(t, d, stream, func() int { return 1 + rng.Intn(9000) })
		require.Len(t, frames, len(payloads))
		for i := range payloads {
			assert.True(t, bytes.Equal(payloads[i], frames[i]), "round %d frame %d", round, i)
		}
	}
}

func TestDecoder_ZeroLengthFrame(t *testing.T) {
	d := NewDecoder(0)

	frames, err := d.Feed([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.NotNil(t, frames[0])
	assert.Empty(t, frames[0])
}

func TestDecoder_PartialHeaderIsNotAnError(t *testing.T) {
	d := NewDecoder(0)

	frames, err := d.Feed([]byte{0, 0})
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Equal(t, 2, d.Buffered())

	frames, err = d.Feed([]byte{0, 2, 'o'})
	require.NoError(t, err)
	assert.Empty(t, frames)

	frames, err = d.Feed([]byte{'k'})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte("ok"), frames[0])
}

func TestDecoder_FrameTooLarge(t *testing.T) {
	d := NewDecoder(16)

	stream := AppendFrame(nil, []byte("fine"))
	stream = AppendFrame(stream, bytes.Repeat([]byte{1}, 17))

	frames, err := d.Feed(stream)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint32(17), de.Length)

	// 出错之前完成的帧依然返回
	require.Len(t, frames, 1)
	assert.Equal(t, []byte("fine"), frames[0])
}

func TestDecoder_FramesDoNotAliasBuffer(t *testing.T) {
	d := NewDecoder(0)

	frames, err := d.Feed(Encode([]byte("first")))
	require.NoError(t, err)
	first := frames[0]

	_, err = d.Feed(Encode([]byte("second")))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), first)
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("abc")))
	require.NoError(t, WriteFrame(&buf, nil))

	d := NewDecoder(0)
	frames, err := d.Feed(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, []byte("abc"), frames[0])
	assert.Empty(t, frames[1])
}
