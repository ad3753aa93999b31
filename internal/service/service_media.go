// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"fmt"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

type mediaService struct {
	emby    adapter.EmbyClient
	tmdb    adapter.TMDBClient
	configs ConfigService
	audit   *auditor
	logger  *logger.Logger
}

// NewMediaService constructs the Emby and TMDB lookup service.
func NewMediaService(emby adapter.EmbyClient, tmdb adapter.TMDBClient, configs ConfigService, audit *auditor, log *logger.Logger) MediaService {
	return &mediaService{
		emby:    emby,
		tmdb:    tmdb,
		configs: configs,
		audit:   audit,
		logger:  log,
	}
}

// EmbySeries implements [MediaService]. Posters come from the item's
// TheMovieDb remote image, falling back to a TMDB name search. A missing
// poster never fails the lookup.
func (s *mediaService) EmbySeries(ctx context.Context, user models.User, term string) ([]SeriesInfo, error) {
	conn, _, err := s.configs.EmbyConnection(ctx, user)
	if err != nil {
		return nil, err
	}

	items, err := s.emby.ListSeries(ctx, conn, term)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	series := make([]SeriesInfo, 0, len(items))
	for _, item := range items {
		series = append(series, SeriesInfo{
			Item:      item,
			PosterURL: s.posterURL(ctx, conn, item),
		})
	}

	s.audit.record(ctx, user.UserID, models.OperationRead, "emby_items", "",
		fmt.Sprintf("用户%d - %s 查询 Emby 资源 %s", user.TgID, user.Username, term))

	return series, nil
}

func (s *mediaService) posterURL(ctx context.Context, conn adapter.EmbyConnection, item adapter.EmbyItem) string {
	if url, err := s.emby.RemoteImageURL(ctx, conn, item.ID); err == nil {
		return url
	}

	results, err := s.tmdb.SearchTV(ctx, item.Name)
	if err != nil || len(results) == 0 {
		s.logger.Debug().Err(err).Str("item", item.Name).Msg("no poster found")
		return ""
	}
	return results[0].PosterURL
}

func (s *mediaService) RefreshEmbyItem(ctx context.Context, user models.User, itemID string) error {
	conn, _, err := s.configs.EmbyConnection(ctx, user)
	if err != nil {
		return err
	}

	if err := s.emby.RefreshLibrary(ctx, conn, itemID); err != nil {
		return fmt.Errorf("refresh item %s: %w", itemID, err)
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, "emby_items", itemID,
		fmt.Sprintf("用户%d - %s 刷新 Emby 媒体库", user.TgID, user.Username))

	return nil
}

func (s *mediaService) ListEmbyNotifications(ctx context.Context, user models.User) ([]adapter.EmbyNotification, error) {
	conn, token, err := s.embySession(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.emby.ListNotifications(ctx, conn, token)
}

func (s *mediaService) ToggleEmbyNotification(ctx context.Context, user models.User, notificationID, eventID string, enable bool) error {
	conn, token, err := s.embySession(ctx, user)
	if err != nil {
		return err
	}

	if err := s.emby.ToggleNotificationEvent(ctx, conn, token, notificationID, eventID, enable); err != nil {
		return fmt.Errorf("toggle notification event: %w", err)
	}

	s.audit.record(ctx, user.UserID, models.OperationUpdate, "emby_notifications", notificationID,
		fmt.Sprintf("用户%d - %s 切换 Emby 通知事件 %s", user.TgID, user.Username, eventID))

	return nil
}

// embySession signs in with the stored Emby credentials. The notification
// endpoints require a session token, the API key is not enough.
func (s *mediaService) embySession(ctx context.Context, user models.User) (adapter.EmbyConnection, string, error) {
	conn, creds, err := s.configs.EmbyConnection(ctx, user)
	if err != nil {
		return adapter.EmbyConnection{}, "", err
	}

	token, err := s.emby.AccessToken(ctx, conn, creds.Username, creds.Password)
	if err != nil {
		return adapter.EmbyConnection{}, "", fmt.Errorf("authenticate emby user: %w", err)
	}

	return conn, token, nil
}

func (s *mediaService) SearchTMDBTV(ctx context.Context, user models.User, name string) ([]adapter.TMDBResult, error) {
	results, err := s.tmdb.SearchTV(ctx, name)
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, user.UserID, models.OperationRead, "tmdb", "",
		fmt.Sprintf("用户%d - %s 查询 TMDB 剧集 %s", user.TgID, user.Username, name))

	return results, nil
}

func (s *mediaService) SearchTMDBMovie(ctx context.Context, user models.User, name string) ([]adapter.TMDBResult, error) {
	results, err := s.tmdb.SearchMovie(ctx, name)
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, user.UserID, models.OperationRead, "tmdb", "",
		fmt.Sprintf("用户%d - %s 查询 TMDB 电影 %s", user.TgID, user.Username, name))

	return results, nil
}
