package header

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shardus/lib-net/pkg/types"
)

// Version1 头部版本 1
const Version1 uint8 = 1

// MarshalV1 按 v1 布局序列化头部
//
//	[uuid 16][u32 message_length][u32+sender_id][u32+tracker_id][u32+verification_data][u32 compression]
func MarshalV1(h *types.Header) ([]byte, error) {
	id, err := uuid.Parse(h.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q is not a uuid: %v", ErrInvalidHeader, h.ID, err)
	}

	buf := make([]byte, 0, 16+4*5+len(h.SenderID)+len(h.TrackerID)+len(h.VerificationData))
	buf = append(buf, id[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, h.MessageLength)
	buf = appendBytes(buf, []byte(h.SenderID))
	buf = appendBytes(buf, []byte(h.TrackerID))
	buf = appendBytes(buf, []byte(h.VerificationData))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.Compression))
	return buf, nil
}

// UnmarshalV1 解析 v1 头部
func UnmarshalV1(data []byte) (*types.Header, error) {
	r := &reader{buf: data}

	var id uuid.UUID
	copy(id[:], r.take(16))
	h := &types.Header{
		MessageLength: r.u32(),
	}
	sender := r.bytes()
	tracker := r.bytes()
	verification := r.bytes()
	compression := r.u32()
	if r.err != nil {
		return nil, r.err
	}

	for _, s := range [][]byte{sender, tracker, verification} {
		if !utf8.Valid(s) {
			return nil, fmt.Errorf("%w: string field is not valid utf-8", ErrInvalidHeader)
		}
	}
	if types.Compression(compression) > types.CompressionZstd {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidHeader, compression)
	}

	h.ID = id.String()
	h.SenderID = string(sender)
	h.TrackerID = string(tracker)
	h.VerificationData = string(verification)
	h.Compression = types.Compression(compression)
	return h, nil
}
