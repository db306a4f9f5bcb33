// Package token はアップストリームトークンの保管と保護を提供する。
// アクセストークン/リフレッシュトークンはDBに書き込む前に暗号化する。
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Cipher はトークンの暗号化/復号を行う。
// セッションシークレットからHKDF-SHA256で導出した鍵を使い、
// ChaCha20-Poly1305で認証付き暗号化する。
type Cipher struct {
	key []byte
}

// NewCipher はセッションシークレットから暗号化鍵を導出してCipherを生成する。
// secretは32バイト以上であること（config.Loadで検証済み）。
func NewCipher(secret string) (*Cipher, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token cipher secret must be at least 32 bytes, got %d", len(secret))
	}

	h := hkdf.New(sha256.New, []byte(secret), nil, []byte("vestgate-token-key"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("failed to derive token key: %w", err)
	}

	return &Cipher{key: key}, nil
}

// Encrypt は平文トークンを暗号化する。
// 出力は nonce || ciphertext の形式。呼び出しごとにランダムなnonceを使う。
func (c *Cipher) Encrypt(plaintext string) ([]byte, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AEAD: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt は暗号化済みトークンを復号する。
// 改ざんや鍵不一致の場合はエラーを返す。
func (c *Cipher) Decrypt(data []byte) (string, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create AEAD: %w", err)
	}

	if len(data) < aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(data))
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}

	return string(plaintext), nil
}
