package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := func() *StructuredConfig {
		cfg := validStoredConfig()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *StructuredConfig)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(cfg *StructuredConfig) {},
		},
		{
			name:    "missing bot token",
			mutate:  func(cfg *StructuredConfig) { cfg.Bot.Token = "" },
			wantErr: ErrMissingBotToken,
		},
		{
			name:    "short crypto password",
			mutate:  func(cfg *StructuredConfig) { cfg.Crypto.Password = "short" },
			wantErr: ErrWeakCryptoMaterial,
		},
		{
			name:    "short crypto salt",
			mutate:  func(cfg *StructuredConfig) { cfg.Crypto.Salt = "short" },
			wantErr: ErrWeakCryptoMaterial,
		},
		{
			name:    "empty dsn",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.DB.DSN = "" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "in-memory dsn rejected",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.DB.DSN = ":memory:" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "zero sweep interval",
			mutate:  func(cfg *StructuredConfig) { cfg.Workers.SweepInterval = 0 },
			wantErr: ErrInvalidWorkerConfigs,
		},
		{
			name:    "zero tick interval",
			mutate:  func(cfg *StructuredConfig) { cfg.Workers.TickInterval = 0 },
			wantErr: ErrInvalidWorkerConfigs,
		},
		{
			name:    "unknown timezone",
			mutate:  func(cfg *StructuredConfig) { cfg.App.TimeZone = "Not/AZone" },
			wantErr: ErrInvalidAppConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_MinimumLengthMaterialAccepted(t *testing.T) {
	cfg := validStoredConfig()
	cfg.Crypto.Password = "0123456789abcdef" // exactly 16
	cfg.Crypto.Salt = "fedcba9876543210"

	assert.NoError(t, cfg.validate())
}
