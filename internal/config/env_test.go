// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"BOT_TOKEN":        "123456:test-token",
		"BOT_POLL_TIMEOUT": "45s",

		"CRYPTO_PASSWORD": "super-secret-password",
		"CRYPTO_SALT":     "super-secret-salt-123",

		"STORAGE_DB_DSN": "/var/lib/mediabot/bot.db",

		"ADAPTER_REQUEST_TIMEOUT": "20s",

		"WORKERS_SWEEP_INTERVAL": "1m",
		"WORKERS_TICK_INTERVAL":  "10s",

		"APP_TIME_ZONE": "Asia/Shanghai",
		"APP_VERSION":   "1.2.3",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "123456:test-token", cfg.Bot.Token)
	assert.Equal(t, 45*time.Second, cfg.Bot.PollTimeout)

	assert.Equal(t, "super-secret-password", cfg.Crypto.Password)
	assert.Equal(t, "super-secret-salt-123", cfg.Crypto.Salt)

	assert.Equal(t, "/var/lib/mediabot/bot.db", cfg.Storage.DB.DSN)

	assert.Equal(t, 20*time.Second, cfg.Adapter.RequestTimeout)

	assert.Equal(t, time.Minute, cfg.Workers.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.Workers.TickInterval)

	assert.Equal(t, "Asia/Shanghai", cfg.App.TimeZone)
	assert.Equal(t, "1.2.3", cfg.App.Version)
}

func TestParseEnv_PartialFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"BOT_TOKEN":      "123456:test-token",
		"STORAGE_DB_DSN": "bot.db",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	// Bot partially filled
	assert.Equal(t, "123456:test-token", cfg.Bot.Token)
	assert.Zero(t, cfg.Bot.PollTimeout)

	// Storage filled
	assert.Equal(t, "bot.db", cfg.Storage.DB.DSN)

	// Others untouched
	assert.Empty(t, cfg.Crypto.Password)
	assert.Empty(t, cfg.Crypto.Salt)
	assert.Zero(t, cfg.Adapter.RequestTimeout)
	assert.Zero(t, cfg.Workers.SweepInterval)
	assert.Empty(t, cfg.App.TimeZone)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseEnv_EmptyEnv(t *testing.T) {
	// Arrange
	clearEnvVars(t)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	// In this version all nested fields are non-pointer values,
	// so "empty" state is represented by zero values.
	assert.Equal(t, "", cfg.JSONFilePath)

	assert.Equal(t, Bot{}, cfg.Bot)
	assert.Equal(t, Crypto{}, cfg.Crypto)
	assert.Equal(t, Storage{}, cfg.Storage)
	assert.Equal(t, Workers{}, cfg.Workers)
	assert.Equal(t, App{}, cfg.App)
}

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(t)
	for k, v := range vars {
		require.NoError(t, os.Setenv(k, v))
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG",

		"BOT_TOKEN",
		"BOT_POLL_TIMEOUT",

		"CRYPTO_PASSWORD",
		"CRYPTO_SALT",

		"STORAGE_DB_DSN",

		"ADAPTER_REQUEST_TIMEOUT",

		"WORKERS_SWEEP_INTERVAL",
		"WORKERS_TICK_INTERVAL",

		"APP_TIME_ZONE",
		"APP_VERSION",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
