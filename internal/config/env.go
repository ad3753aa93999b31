// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv populates cfg from environment variables via the caarlos0/env
// library. Variable names come from the `env`/`envPrefix` tags on
// [StructuredConfig]: BOT_* for the Telegram transport, CRYPTO_* for the
// credential codec material, STORAGE_DB_* for the SQLite file, ADAPTER_* for
// the outbound clients (CloudSaver, PanSou, TMDB), WORKERS_* for the
// background loops and APP_* for timezone and version.
//
// Returns a wrapped error when a value cannot be converted to its target
// type (e.g. a malformed duration in ADAPTER_REQUEST_TIMEOUT).
func parseEnv(cfg any) error {
	err := env.Parse(cfg)
	if err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	return nil
}
