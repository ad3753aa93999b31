// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

// Package bot is the Telegram transport: it long-polls updates, resolves the
// account behind each update, enforces role gates, and routes commands,
// plain text and inline button presses to the services and the conversation
// engine. Replies are HTML formatted.
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the subset of the Telegram API the handlers use. Tests
// substitute a recorder.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
