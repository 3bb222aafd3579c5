// Package compress 按头部压缩标签压缩与解压负载
//
// 引擎只传递压缩标签，是否压缩由应用决定：发送前调用 Compress 并在头部
// 设置相同的标签，接收方在 Handler 中根据 Header.Compression 调用 Decompress。
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/shardus/lib-net/pkg/types"
)

// ErrUnsupported 不支持的压缩类型
var ErrUnsupported = errors.New("compress: unsupported compression")

// Parse 按名称解析压缩类型，名称与 types.Compression.String 一致
func Parse(name string) (types.Compression, error) {
	for _, c := range []types.Compression{
		types.CompressionNone, types.CompressionGzip, types.CompressionBrotli, types.CompressionZstd,
	} {
		if c.String() == name {
			return c, nil
		}
	}
	return types.CompressionNone, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// zstd 编解码器可复用且并发安全
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Compress 按压缩类型压缩数据
func Compress(c types.Compression, data []byte) ([]byte, error) {
	switch c {
	case types.CompressionNone:
		return data, nil
	case types.CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("compress: gzip: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compress: gzip: %w", err)
		}
		return buf.Bytes(), nil
	case types.CompressionBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("compress: brotli: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("compress: brotli: %w", err)
		}
		return buf.Bytes(), nil
	case types.CompressionZstd:
		enc, _, err := zstdCodecs()
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		return enc.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, c)
}

// Decompress 按压缩类型解压数据
func Decompress(c types.Compression, data []byte) ([]byte, error) {
	switch c {
	case types.CompressionNone:
		return data, nil
	case types.CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compress: gunzip: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("compress: gunzip: %w", err)
		}
		return out, nil
	case types.CompressionBrotli:
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("compress: brotli: %w", err)
		}
		return out, nil
	case types.CompressionZstd:
		_, dec, err := zstdCodecs()
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, c)
}
