// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/internal/store"
	"github.com/leoqin/mediabot/models"
)

type userService struct {
	repos  *store.Repositories
	audit  *auditor
	logger *logger.Logger
}

// NewUserService constructs the account service.
func NewUserService(repos *store.Repositories, audit *auditor, log *logger.Logger) UserService {
	return &userService{repos: repos, audit: audit, logger: log}
}

// Register implements [UserService]. The first account ever created gets the
// owner role so a fresh deployment is administrable without manual database
// edits.
func (s *userService) Register(ctx context.Context, tgID, chatID int64, username string) (models.User, error) {
	count, err := s.repos.Users.CountUsers(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("count users: %w", err)
	}

	role := models.RoleUser
	if count == 0 {
		role = models.RoleOwner
	}

	user, err := s.repos.Users.CreateUser(ctx, models.User{
		TgID:     tgID,
		ChatID:   chatID,
		Username: username,
		Role:     role,
		Settings: models.DefaultUserSettings(),
	})
	if err != nil {
		return models.User{}, err
	}

	s.audit.record(ctx, user.UserID, models.OperationCreate, user.TableName(),
		strconv.FormatInt(user.UserID, 10),
		fmt.Sprintf("用户%d - %s 注册，角色 %s", tgID, username, role))

	return user, nil
}

func (s *userService) ResolveUser(ctx context.Context, tgID int64) (models.User, error) {
	user, err := s.repos.Users.FindUserByTgID(ctx, tgID)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.User{}, ErrNotRegistered
		}
		return models.User{}, err
	}
	return user, nil
}

// SetAdmins implements [UserService]. Telegram ids without an account are
// skipped rather than failing the whole batch, so the owner can paste a list
// containing not-yet-registered friends.
func (s *userService) SetAdmins(ctx context.Context, actor models.User, tgIDs []int64) ([]models.User, error) {
	users, err := s.repos.Users.ListUsersByTgIDs(ctx, tgIDs)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	promoted := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleOwner {
			continue
		}
		if err := s.repos.Users.UpdateUserRole(ctx, u.TgID, models.RoleAdmin); err != nil {
			return promoted, fmt.Errorf("update role of %d: %w", u.TgID, err)
		}
		u.Role = models.RoleAdmin
		promoted = append(promoted, u)

		s.audit.record(ctx, actor.UserID, models.OperationUpdate, u.TableName(),
			strconv.FormatInt(u.UserID, 10),
			fmt.Sprintf("用户%d - %s 被设置为管理员", u.TgID, u.Username))
	}

	return promoted, nil
}

func (s *userService) UpdateSettings(ctx context.Context, user models.User, settings models.UserSettings) (models.User, error) {
	if err := s.repos.Users.UpdateUserSettings(ctx, user.UserID, settings); err != nil {
		return models.User{}, err
	}
	user.Settings = settings

	s.audit.record(ctx, user.UserID, models.OperationUpdate, user.TableName(),
		strconv.FormatInt(user.UserID, 10), "更新用户设置")

	return user, nil
}

// MyInfo implements [UserService]. Missing integration configs are reported
// as absent, not as errors.
func (s *userService) MyInfo(ctx context.Context, user models.User) (AccountInfo, error) {
	info := AccountInfo{User: user}

	if _, err := s.repos.EmbyConfigs.GetByUserID(ctx, user.UserID); err == nil {
		info.HasEmby = true
	} else if !errors.Is(err, store.ErrConfigNotFound) {
		return AccountInfo{}, fmt.Errorf("load emby config: %w", err)
	}

	if _, err := s.repos.QASConfigs.GetByUserID(ctx, user.UserID); err == nil {
		info.HasQAS = true
	} else if !errors.Is(err, store.ErrConfigNotFound) {
		return AccountInfo{}, fmt.Errorf("load quark-auto-save config: %w", err)
	}

	providers, err := s.repos.AIConfigs.ListByUser(ctx, user.UserID)
	if err != nil {
		return AccountInfo{}, fmt.Errorf("list ai providers: %w", err)
	}
	for _, p := range providers {
		info.AIProviders = append(info.AIProviders, p.ProviderName)
		if p.IsDefault {
			info.DefaultAIProvider = p.ProviderName
		}
	}

	return info, nil
}
