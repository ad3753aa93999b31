package service

import "errors"

var (
	// ErrNotRegistered means the Telegram account has no bot account yet.
	ErrNotRegistered = errors.New("user is not registered")

	// ErrCredentialReset means a stored secret can no longer be decrypted
	// and the user must re-enter it.
	ErrCredentialReset = errors.New("stored credential is unreadable, please reconfigure")

	// ErrUnknownProvider means the AI provider name is not one of the
	// supported providers.
	ErrUnknownProvider = errors.New("unknown ai provider")

	// ErrIncompleteProviderConfig means an AI provider cannot be used or
	// marked default before api key, host and model are all set.
	ErrIncompleteProviderConfig = errors.New("ai provider config is incomplete")

	// ErrNoDefaultProvider means the user has no usable default AI
	// provider configured.
	ErrNoDefaultProvider = errors.New("no default ai provider configured")

	// ErrReminderUnparseable means the AI reply for a remind request was
	// not the expected JSON document.
	ErrReminderUnparseable = errors.New("reminder could not be parsed")

	// ErrJobNotOwned means the caller tried to delete somebody else's
	// reminder without admin rights.
	ErrJobNotOwned = errors.New("reminder job belongs to another user")

	// ErrAllBackendsFailed means every search backend returned an error.
	ErrAllBackendsFailed = errors.New("all search backends failed")

	// ErrTaskNotFound means a quark-auto-save task index is out of range.
	ErrTaskNotFound = errors.New("task not found")
)
