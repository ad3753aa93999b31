// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package config

import (
	"strings"
	"time"
)

// minCryptoMaterialLen is the minimum accepted length for both the codec
// password and salt. Shorter material is rejected at startup.
const minCryptoMaterialLen = 16

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Bot.Token == "" {
		return ErrMissingBotToken
	}

	if len(cfg.Crypto.Password) < minCryptoMaterialLen || len(cfg.Crypto.Salt) < minCryptoMaterialLen {
		return ErrWeakCryptoMaterial
	}

	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Workers.SweepInterval <= 0 || cfg.Workers.TickInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if _, err := time.LoadLocation(cfg.App.TimeZone); err != nil {
		return ErrInvalidAppConfigs
	}

	return nil
}
