package framing

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// HeaderSize 长度前缀字节数
const HeaderSize = 4

// Encode 编码单帧
func Encode(payload []byte) []byte {
	return AppendFrame(make([]byte, 0, HeaderSize+len(payload)), payload)
}

// AppendFrame 将一帧追加到 dst
func AppendFrame(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// WriteFrame 以一次 Write 写出一帧
//
// 同一连接上的并发写需要调用方加锁。
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: payload of %d bytes", ErrFrameTooLarge, len(payload))
	}
	_, err := w.Write(Encode(payload))
	return err
}

// ============================================================================
//                              Decoder
// ============================================================================

// Decoder 有状态的帧解码器
//
// 两个状态：等待长度前缀（need < 0）与等待 need 字节的负载。
// 非并发安全，一个连接的读循环独占一个 Decoder。
type Decoder struct {
	max  uint32
	buf  []byte
	need int
}

// NewDecoder 创建解码器
//
// maxFrame 为 0 时不限制帧长度。
func NewDecoder(maxFrame uint32) *Decoder {
	return &Decoder{max: maxFrame, need: -1}
}

// Feed 输入一段数据，返回本次输入完成的全部帧
//
// 不完整的数据留在缓冲区中等待后续输入，不会报错。
// 返回的帧不引用内部缓冲区，可以安全持有。
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	d.buf = append(d.buf, chunk...)

	var frames [][]byte
	off := 0
	for {
		if d.need < 0 {
			if len(d.buf)-off < HeaderSize {
				break
			}
			n := binary.BigEndian.Uint32(d.buf[off:])
			if d.max > 0 && n > d.max {
				d.compact(off)
				return frames, &DecodeError{Length: n, Max: d.max}
			}
			d.need = int(n)
			off += HeaderSize
		}
		if len(d.buf)-off < d.need {
			break
		}
		frame := make([]byte, d.need)
		copy(frame, d.buf[off:off+d.need])
		frames = append(frames, frame)
		off += d.need
		d.need = -1
	}
	d.compact(off)
	return frames, nil
}

// Buffered 返回缓冲区中尚未组成完整帧的字节数
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) compact(off int) {
	if off == 0 {
		return
	}
	rest := copy(d.buf, d.buf[off:])
	d.buf = d.buf[:rest]
}
