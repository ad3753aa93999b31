package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leoqin/mediabot/internal/config"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// PanSou merges results server-side, so one search can take a while.
const panSouTimeout = 30 * time.Second

type panSouClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewPanSouClient constructs a [PanSouClient] from the bot-level PanSou
// settings.
func NewPanSouClient(cfg config.PanSou, logger *logger.Logger) PanSouClient {
	return &panSouClient{
		client: newRestyClient(cfg.Host, panSouTimeout),
		logger: logger,
	}
}

type panSouSearchRequest struct {
	Keyword    string   `json:"kw"`
	Refresh    bool     `json:"refresh"`
	Result     string   `json:"res"`
	Source     string   `json:"src"`
	CloudTypes []string `json:"cloud_types"`
}

type panSouSearchResponse struct {
	Data struct {
		MergedByType map[string][]struct {
			URL  string `json:"url"`
			Note string `json:"note"`
		} `json:"merged_by_type"`
	} `json:"data"`
}

func (p *panSouClient) Search(ctx context.Context, keyword string, cloudTypes []string) ([]models.ResourceLink, error) {
	if p.client.BaseURL == "" {
		return nil, fmt.Errorf("%w: pansou host is empty", ErrNotConfigured)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(panSouSearchRequest{
			Keyword:    keyword,
			Refresh:    false,
			Result:     "merge",
			Source:     "all",
			CloudTypes: cloudTypes,
		}).
		Post("/api/search")
	if err != nil {
		return nil, fmt.Errorf("pansou search request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var parsed panSouSearchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode pansou search response: %w", err)
	}

	var links []models.ResourceLink
	for rawType, resources := range parsed.Data.MergedByType {
		for _, resource := range resources {
			if resource.URL == "" {
				continue
			}
			links = append(links, models.ResourceLink{
				Title:     resource.Note,
				URL:       resource.URL,
				CloudType: models.CanonicalCloudType(rawType),
				Validity:  models.ValidityUnknown,
			})
		}
	}

	return links, nil
}
