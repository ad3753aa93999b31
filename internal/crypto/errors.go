package crypto

import "errors"

// ErrDecrypt is returned (wrapped) by [CredentialCodec.Decrypt] whenever a
// stored blob cannot be recovered: bad base64, truncated blob, or an
// authentication-tag mismatch. Callers use [errors.Is] to distinguish a
// corrupted secret from other failures and prompt the user to re-enter it.
var ErrDecrypt = errors.New("decryption failed")
