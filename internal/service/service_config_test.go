// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoqin/mediabot/internal/crypto"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

var testCodec = crypto.NewCredentialCodec("test-password", "test-salt")

func newTestConfigService(t *testing.T) (ConfigService, *store.Repositories) {
	t.Helper()

	repos, _ := newTestRepos()
	svc := NewConfigService(repos, testCodec, newAuditor(repos.OperationLog, logger.Nop()), logger.Nop())

	return svc, repos
}

func strPtr(s string) *string { return &s }

func TestUpsertEmby_NormalizesHostAndEncryptsSecrets(t *testing.T) {
	svc, repos := newTestConfigService(t)
	ctx := context.Background()
	user := models.User{UserID: 7}

	cfg, err := svc.UpsertEmby(ctx, user, models.EmbyConfigUpdate{
		Host:     strPtr("http://emby.test/"),
		APIToken: strPtr("token-123"),
		Username: strPtr("alice"),
		Password: strPtr("hunter2"),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://emby.test", cfg.Host)
	assert.NotEqual(t, "token-123", cfg.APIToken)
	assert.NotEqual(t, "hunter2", cfg.Password)

	stored, err := repos.EmbyConfigs.GetByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, cfg.APIToken, stored.APIToken)

	conn, creds, err := svc.EmbyConnection(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "http://emby.test", conn.Host)
	assert.Equal(t, "token-123", conn.APIToken)
	assert.Equal(t, "alice", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
}

func TestUpsertEmby_PartialUpdatePreservesStoredFields(t *testing.T) {
	svc, _ := newTestConfigService(t)
	ctx := context.Background()
	user := models.User{UserID: 7}

	_, err := svc.UpsertEmby(ctx, user, models.EmbyConfigUpdate{
		Host:     strPtr("http://emby.test"),
		APIToken: strPtr("token-123"),
	})
	require.NoError(t, err)

	cfg, err := svc.UpsertEmby(ctx, user, models.EmbyConfigUpdate{Username: strPtr("alice")})
	require.NoError(t, err)

	assert.Equal(t, "http://emby.test", cfg.Host)
	assert.Equal(t, "alice", cfg.Username)

	conn, _, err := svc.EmbyConnection(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "token-123", conn.APIToken)
}

func TestEmbyConnection_CorruptedSecretReportsReset(t *testing.T) {
	svc, repos := newTestConfigService(t)
	ctx := context.Background()
	user := models.User{UserID: 7}

	_, err := repos.EmbyConfigs.Upsert(ctx, user.UserID, models.EmbyConfigUpdate{
		Host:     strPtr("http://emby.test"),
		APIToken: strPtr("not-a-valid-blob"),
	})
	require.NoError(t, err)

	_, _, err = svc.EmbyConnection(ctx, user)
	assert.ErrorIs(t, err, ErrCredentialReset)
}

func TestUpsertQAS_NormalizesHost(t *testing.T) {
	svc, _ := newTestConfigService(t)
	ctx := context.Background()
	user := models.User{UserID: 7}

	cfg, err := svc.UpsertQAS(ctx, user, models.QASConfigUpdate{
		Host:     strPtr("http://qas.test/"),
		APIToken: strPtr("qas-token"),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://qas.test", cfg.Host)
	assert.Equal(t, models.DefaultQASPattern, cfg.Pattern)
	assert.Equal(t, models.DefaultQASReplace, cfg.Replace)

	conn, _, err := svc.QASConnection(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "qas-token", conn.APIToken)
}

func TestUpsertAIProvider_RejectsUnknownProvider(t *testing.T) {
	svc, _ := newTestConfigService(t)

	_, err := svc.UpsertAIProvider(context.Background(), models.User{UserID: 7}, "palm", models.AIProviderConfigUpdate{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestSetDefaultAIProvider_RequiresCompleteConfig(t *testing.T) {
	svc, _ := newTestConfigService(t)
	ctx := context.Background()
	user := models.User{UserID: 7}

	_, err := svc.UpsertAIProvider(ctx, user, models.AIProviderDeepSeek, models.AIProviderConfigUpdate{
		APIKey: strPtr("sk-xyz"),
	})
	require.NoError(t, err)

	err = svc.SetDefaultAIProvider(ctx, user, models.AIProviderDeepSeek)
	assert.ErrorIs(t, err, ErrIncompleteProviderConfig)
}

func TestDefaultAIConnection_DecryptsKey(t *testing.T) {
	svc, _ := newTestConfigService(t)
	ctx := context.Background()
	user := models.User{UserID: 7}

	_, err := svc.DefaultAIConnection(ctx, user)
	assert.ErrorIs(t, err, ErrNoDefaultProvider)

	_, err = svc.UpsertAIProvider(ctx, user, models.AIProviderDeepSeek, models.AIProviderConfigUpdate{
		APIKey: strPtr("sk-xyz"),
		Host:   strPtr("https://api.deepseek.com/"),
		Model:  strPtr("deepseek-chat"),
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetDefaultAIProvider(ctx, user, models.AIProviderDeepSeek))

	conn, err := svc.DefaultAIConnection(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "https://api.deepseek.com", conn.Host)
	assert.Equal(t, "sk-xyz", conn.APIKey)
	assert.Equal(t, "deepseek-chat", conn.Model)
}
