// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/crypto"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

type configService struct {
	repos  *store.Repositories
	codec  crypto.CredentialCodec
	audit  *auditor
	logger *logger.Logger
}

// NewConfigService constructs the integration config service.
func NewConfigService(repos *store.Repositories, codec crypto.CredentialCodec, audit *auditor, log *logger.Logger) ConfigService {
	return &configService{repos: repos, codec: codec, audit: audit, logger: log}
}

func (s *configService) GetEmby(ctx context.Context, user models.User) (models.EmbyConfig, error) {
	return s.repos.EmbyConfigs.GetByUserID(ctx, user.UserID)
}

func (s *configService) UpsertEmby(ctx context.Context, user models.User, update models.EmbyConfigUpdate) (models.EmbyConfig, error) {
	update.Host = normalizeHost(update.Host)

	var err error
	if update.APIToken, err = s.encryptField(update.APIToken); err != nil {
		return models.EmbyConfig{}, err
	}
	if update.Password, err = s.encryptField(update.Password); err != nil {
		return models.EmbyConfig{}, err
	}

	cfg, err := s.repos.EmbyConfigs.Upsert(ctx, user.UserID, update)
	if err != nil {
		return models.EmbyConfig{}, err
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, cfg.TableName(), "", "更新 Emby 配置")

	return cfg, nil
}

func (s *configService) GetQAS(ctx context.Context, user models.User) (models.QASConfig, error) {
	return s.repos.QASConfigs.GetByUserID(ctx, user.UserID)
}

func (s *configService) UpsertQAS(ctx context.Context, user models.User, update models.QASConfigUpdate) (models.QASConfig, error) {
	update.Host = normalizeHost(update.Host)

	var err error
	if update.APIToken, err = s.encryptField(update.APIToken); err != nil {
		return models.QASConfig{}, err
	}

	cfg, err := s.repos.QASConfigs.Upsert(ctx, user.UserID, update)
	if err != nil {
		return models.QASConfig{}, err
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, cfg.TableName(), "", "更新 quark-auto-save 配置")

	return cfg, nil
}

func (s *configService) ListAIProviders(ctx context.Context, user models.User) ([]models.AIProviderConfig, error) {
	return s.repos.AIConfigs.ListByUser(ctx, user.UserID)
}

func (s *configService) UpsertAIProvider(ctx context.Context, user models.User, provider string, update models.AIProviderConfigUpdate) (models.AIProviderConfig, error) {
	if !slices.Contains(models.AIProviders, provider) {
		return models.AIProviderConfig{}, ErrUnknownProvider
	}

	update.Host = normalizeHost(update.Host)

	var err error
	if update.APIKey, err = s.encryptField(update.APIKey); err != nil {
		return models.AIProviderConfig{}, err
	}

	cfg, err := s.repos.AIConfigs.Upsert(ctx, user.UserID, provider, update)
	if err != nil {
		return models.AIProviderConfig{}, err
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, cfg.TableName(), provider,
		fmt.Sprintf("更新 AI 提供商 %s 配置", provider))

	return cfg, nil
}

func (s *configService) DeleteAIProvider(ctx context.Context, user models.User, provider string) error {
	if err := s.repos.AIConfigs.Delete(ctx, user.UserID, provider); err != nil {
		return err
	}

	s.audit.record(ctx, user.UserID, models.OperationDelete, models.AIProviderConfig{}.TableName(), provider,
		fmt.Sprintf("删除 AI 提供商 %s 配置", provider))

	return nil
}

// SetDefaultAIProvider implements [ConfigService]. A provider missing any of
// api key, host or model cannot serve chat requests and must not become the
// default.
func (s *configService) SetDefaultAIProvider(ctx context.Context, user models.User, provider string) error {
	cfg, err := s.repos.AIConfigs.Get(ctx, user.UserID, provider)
	if err != nil {
		return err
	}
	if !cfg.Complete() {
		return ErrIncompleteProviderConfig
	}

	if err := s.repos.AIConfigs.SetDefault(ctx, user.UserID, provider); err != nil {
		return err
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, cfg.TableName(), provider,
		fmt.Sprintf("设置默认 AI 提供商为 %s", provider))

	return nil
}

func (s *configService) EmbyConnection(ctx context.Context, user models.User) (adapter.EmbyConnection, EmbyCredentials, error) {
	cfg, err := s.repos.EmbyConfigs.GetByUserID(ctx, user.UserID)
	if err != nil {
		return adapter.EmbyConnection{}, EmbyCredentials{}, err
	}

	token, err := s.decryptField(cfg.APIToken)
	if err != nil {
		return adapter.EmbyConnection{}, EmbyCredentials{}, err
	}
	password, err := s.decryptField(cfg.Password)
	if err != nil {
		return adapter.EmbyConnection{}, EmbyCredentials{}, err
	}

	conn := adapter.EmbyConnection{Host: cfg.Host, APIToken: token}
	creds := EmbyCredentials{Username: cfg.Username, Password: password}

	return conn, creds, nil
}

func (s *configService) QASConnection(ctx context.Context, user models.User) (adapter.QASConnection, models.QASConfig, error) {
	cfg, err := s.repos.QASConfigs.GetByUserID(ctx, user.UserID)
	if err != nil {
		return adapter.QASConnection{}, models.QASConfig{}, err
	}

	token, err := s.decryptField(cfg.APIToken)
	if err != nil {
		return adapter.QASConnection{}, models.QASConfig{}, err
	}

	return adapter.QASConnection{Host: cfg.Host, APIToken: token}, cfg, nil
}

func (s *configService) DefaultAIConnection(ctx context.Context, user models.User) (adapter.AIConnection, error) {
	cfg, err := s.repos.AIConfigs.GetDefault(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, store.ErrConfigNotFound) {
			return adapter.AIConnection{}, ErrNoDefaultProvider
		}
		return adapter.AIConnection{}, err
	}

	key, err := s.decryptField(cfg.APIKey)
	if err != nil {
		return adapter.AIConnection{}, err
	}

	return adapter.AIConnection{Host: cfg.Host, APIKey: key, Model: cfg.Model}, nil
}

func (s *configService) encryptField(field *string) (*string, error) {
	if field == nil {
		return nil, nil
	}
	blob, err := s.codec.Encrypt(*field)
	if err != nil {
		return nil, fmt.Errorf("encrypt credential: %w", err)
	}
	return &blob, nil
}

// decryptField maps an unreadable blob to [ErrCredentialReset] so handlers
// can tell the user to re-enter the secret instead of showing a crypto
// error.
func (s *configService) decryptField(blob string) (string, error) {
	plain, err := s.codec.Decrypt(blob)
	if err != nil {
		if errors.Is(err, crypto.ErrDecrypt) {
			return "", ErrCredentialReset
		}
		return "", err
	}
	return plain, nil
}

// normalizeHost strips one trailing slash so stored hosts join cleanly with
// request paths.
func normalizeHost(host *string) *string {
	if host == nil {
		return nil
	}
	trimmed := strings.TrimSuffix(*host, "/")
	return &trimmed
}
