package crypto

// CredentialCodec protects integration secrets (API tokens, passwords)
// before they are written to the database. It knows nothing about the
// network, the database, or users.
//
// Scheme:
//
//	key        = PBKDF2-SHA256(password, salt)   (once, at startup)
//	ciphertext = Encrypt(plaintext)              (on save)
//	plaintext  = Decrypt(ciphertext)             (on use)
type CredentialCodec interface {
	// Encrypt encrypts plaintext with AES-256-GCM and returns a base64
	// blob (nonce || ciphertext). An empty input passes through unchanged.
	Encrypt(plaintext string) (string, error)

	// Decrypt decodes and decrypts a blob produced by Encrypt.
	// An empty input passes through unchanged. Any malformed or tampered
	// input yields an error matching [ErrDecrypt] via errors.Is.
	Decrypt(ciphertext string) (string, error)
}
