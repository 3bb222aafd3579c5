// Package crypto 提供带头部消息的签名实现
//
// 签名流程：blake2b-256(未签名消息) -> ed25519 签名。
// Sign.Owner 为 32 字节公钥，Sign.Sig 为 64 字节签名。
//
// 引擎不调用验签，应用层在 Handler 中通过 Request.VerifySign 校验。
package crypto
