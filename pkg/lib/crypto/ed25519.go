package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/shardus/lib-net/pkg/types"
)

// Ed25519 密钥常量
const (
	// Ed25519PublicKeySize 公钥大小（32 字节）
	Ed25519PublicKeySize = ed25519.PublicKeySize
	// Ed25519SignatureSize 签名大小（64 字节）
	Ed25519SignatureSize = ed25519.SignatureSize
	// Ed25519SeedSize 种子大小（32 字节）
	Ed25519SeedSize = ed25519.SeedSize
)

// Ed25519Signer 使用 ed25519 私钥对消息签名
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateEd25519Signer 生成新的签名器
//
// src 为 nil 时使用 crypto/rand。
func GenerateEd25519Signer(src io.Reader) (*Ed25519Signer, error) {
	if src == nil {
		src = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(src)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &Ed25519Signer{priv: priv, pub: pub}, nil
}

// NewEd25519SignerFromSeed 从 32 字节种子恢复签名器
func NewEd25519SignerFromSeed(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != Ed25519SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeySize, Ed25519SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// PublicKey 返回公钥副本
func (s *Ed25519Signer) PublicKey() []byte {
	buf := make([]byte, len(s.pub))
	copy(buf, s.pub)
	return buf
}

// Sign 对消息签名
func (s *Ed25519Signer) Sign(payload []byte) (types.Sign, error) {
	digest := blake2b.Sum256(payload)
	return types.Sign{
		Owner: s.PublicKey(),
		Sig:   ed25519.Sign(s.priv, digest[:]),
	}, nil
}

// VerifySign 验证签名
//
// 公钥或签名长度不对时返回 ErrInvalidKeySize；签名不匹配返回 ErrInvalidSignature。
func VerifySign(sign types.Sign, payload []byte) error {
	if len(sign.Owner) != Ed25519PublicKeySize {
		return fmt.Errorf("%w: owner has %d bytes", ErrInvalidKeySize, len(sign.Owner))
	}
	if len(sign.Sig) != Ed25519SignatureSize {
		return fmt.Errorf("%w: signature has %d bytes", ErrInvalidSignature, len(sign.Sig))
	}
	digest := blake2b.Sum256(payload)
	if !ed25519.Verify(ed25519.PublicKey(sign.Owner), digest[:], sign.Sig) {
		return ErrInvalidSignature
	}
	return nil
}
