// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leoqin/mediabot/internal/config"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

type cloudSaverClient struct {
	client   *resty.Client
	username string
	password string

	mu    sync.Mutex
	token string

	logger *logger.Logger
}

// NewCloudSaverClient constructs a [CloudSaverClient] from the bot-level
// CloudSaver settings. The account token is obtained lazily on the first
// search and cached until a request comes back unauthorized.
func NewCloudSaverClient(cfg config.CloudSaver, timeout time.Duration, logger *logger.Logger) CloudSaverClient {
	return &cloudSaverClient{
		client:   newRestyClient(cfg.Host, timeout),
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}
}

type cloudSaverLoginResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

type cloudSaverSearchResponse struct {
	Data []cloudSaverChannel `json:"data"`
}

type cloudSaverChannel struct {
	ChannelInfo struct {
		Name string `json:"name"`
	} `json:"channelInfo"`
	List []struct {
		Title      string `json:"title"`
		CloudLinks []struct {
			Link      string `json:"link"`
			CloudType string `json:"cloudType"`
		} `json:"cloudLinks"`
	} `json:"list"`
}

func (c *cloudSaverClient) Search(ctx context.Context, keyword string) ([]models.ResourceLink, error) {
	if c.client.BaseURL == "" {
		return nil, fmt.Errorf("%w: cloudsaver host is empty", ErrNotConfigured)
	}

	resp, err := c.search(ctx, keyword)
	if errors.Is(err, ErrUnauthorized) {
		// Cached token expired upstream, log in again once.
		c.dropToken()
		resp, err = c.search(ctx, keyword)
	}
	if err != nil {
		return nil, err
	}

	var parsed cloudSaverSearchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode cloudsaver search response: %w", err)
	}

	var links []models.ResourceLink
	for _, channel := range parsed.Data {
		for _, item := range channel.List {
			for _, link := range item.CloudLinks {
				if link.Link == "" {
					continue
				}
				links = append(links, models.ResourceLink{
					Title:     item.Title,
					URL:       link.Link,
					CloudType: models.CanonicalCloudType(link.CloudType),
					Validity:  models.ValidityUnknown,
				})
			}
		}
	}

	return links, nil
}

func (c *cloudSaverClient) search(ctx context.Context, keyword string) (*resty.Response, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParam("keyword", keyword).
		Get("/api/search")
	if err != nil {
		return nil, fmt.Errorf("cloudsaver search request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *cloudSaverClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"username": c.username, "password": c.password}).
		Post("/api/user/login")
	if err != nil {
		return "", fmt.Errorf("cloudsaver login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var parsed cloudSaverLoginResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode cloudsaver login response: %w", err)
	}
	if parsed.Data.Token == "" {
		return "", fmt.Errorf("%w: cloudsaver login returned no token", ErrUnauthorized)
	}

	c.token = parsed.Data.Token
	return c.token, nil
}

func (c *cloudSaverClient) dropToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}
