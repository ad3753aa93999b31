package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrMissingBotToken indicates that no Telegram bot token was provided
	// by any configuration source.
	ErrMissingBotToken = errors.New("missing telegram bot token")
	// ErrWeakCryptoMaterial indicates that the codec password or salt is
	// missing or shorter than the minimum accepted length.
	ErrWeakCryptoMaterial = errors.New("crypto password and salt must be at least 16 characters")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN or unsupported in-memory DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, an unknown timezone name).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, a zero sweep or tick interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
