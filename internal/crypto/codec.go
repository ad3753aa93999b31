// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 tuning. 120k iterations keeps derivation around a few tens of
// milliseconds on current hardware; the key is derived once at startup.
const (
	kdfIterations = 120_000
	kdfKeyLen     = 32 // 256 bits
)

// credentialCodec is the private implementation of [CredentialCodec].
type credentialCodec struct {
	key []byte
}

// NewCredentialCodec constructs a [CredentialCodec] whose AES-256 key is
// derived from password and salt with PBKDF2-SHA256. The same (password,
// salt) pair always yields the same key, so secrets encrypted in a previous
// run remain readable.
func NewCredentialCodec(password, salt string) CredentialCodec {
	return &credentialCodec{
		key: pbkdf2.Key([]byte(password), []byte(salt), kdfIterations, kdfKeyLen, sha256.New),
	}
}

// Encrypt implements [CredentialCodec]. It encrypts plaintext with
// AES-256-GCM. A random 12-byte nonce is prepended to the ciphertext so that
// the decryption side can locate it: blob = nonce ‖ ciphertext. The blob is
// returned Base64 (standard encoding) encoded.
//
// An empty plaintext is returned as-is: unset optional fields stay unset in
// the database instead of turning into an encrypted empty string.
func (c *credentialCodec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// Prepend the nonce so Decrypt can split it out without side-channel.
	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	blob := append(nonce, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt implements [CredentialCodec]. It Base64-decodes encryptedB64,
// splits out the nonce, and decrypts the ciphertext with AES-256-GCM.
//
// An empty input passes through unchanged. Every malformed-input failure
// (bad base64, blob shorter than the nonce, authentication-tag mismatch)
// wraps [ErrDecrypt], so callers can tell a corrupted stored secret apart
// from infrastructure errors.
func (c *credentialCodec) Decrypt(encryptedB64 string) (string, error) {
	if encryptedB64 == "" {
		return "", nil
	}

	blob, err := base64.StdEncoding.DecodeString(encryptedB64)
	if err != nil {
		return "", fmt.Errorf("%w: decode base64: %w", ErrDecrypt, err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	// Split the blob into nonce and actual ciphertext.
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	// Decrypt and verify auth tag. An error here almost always means the
	// codec password or salt changed since the secret was stored.
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	return string(plaintext), nil
}
