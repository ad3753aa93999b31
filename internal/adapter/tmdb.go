package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leoqin/mediabot/internal/config"
	"github.com/leoqin/mediabot/internal/logger"
)

const tmdbAPIHost = "https://api.themoviedb.org/3"

// tmdbResultLimit caps how many results a lookup returns to the user.
const tmdbResultLimit = 10

// TMDBResult is one TV series or movie found by a metadata lookup.
type TMDBResult struct {
	Name string

	// FirstAirDate is the first air date for TV, the release date for
	// movies.
	FirstAirDate string

	PosterURL string
}

type tmdbClient struct {
	client        *resty.Client
	apiKey        string
	posterBaseURL string
	logger        *logger.Logger
}

// NewTMDBClient constructs a [TMDBClient] from the bot-level TMDB settings.
// Results come back localized to zh-CN.
func NewTMDBClient(cfg config.TMDB, timeout time.Duration, logger *logger.Logger) TMDBClient {
	return &tmdbClient{
		client:        newRestyClient(tmdbAPIHost, timeout),
		apiKey:        cfg.APIKey,
		posterBaseURL: cfg.PosterBaseURL,
		logger:        logger,
	}
}

type tmdbSearchResponse struct {
	TotalResults int `json:"total_results"`
	Results      []struct {
		Name         string `json:"name"`
		Title        string `json:"title"`
		FirstAirDate string `json:"first_air_date"`
		ReleaseDate  string `json:"release_date"`
		PosterPath   string `json:"poster_path"`
	} `json:"results"`
}

func (t *tmdbClient) SearchTV(ctx context.Context, name string) ([]TMDBResult, error) {
	return t.search(ctx, "/search/tv", name)
}

func (t *tmdbClient) SearchMovie(ctx context.Context, name string) ([]TMDBResult, error) {
	return t.search(ctx, "/search/movie", name)
}

func (t *tmdbClient) search(ctx context.Context, path, name string) ([]TMDBResult, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("%w: tmdb api key is empty", ErrNotConfigured)
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  t.apiKey,
			"query":    name,
			"language": "zh-CN",
			"page":     "1",
		}).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("tmdb search request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var parsed tmdbSearchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode tmdb search response: %w", err)
	}

	results := make([]TMDBResult, 0, tmdbResultLimit)
	for _, res := range parsed.Results {
		if len(results) >= tmdbResultLimit {
			break
		}

		result := TMDBResult{
			Name:         res.Name,
			FirstAirDate: res.FirstAirDate,
		}
		if result.Name == "" {
			result.Name = res.Title
		}
		if result.FirstAirDate == "" {
			result.FirstAirDate = res.ReleaseDate
		}
		if res.PosterPath != "" {
			result.PosterURL = t.posterBaseURL + res.PosterPath
		}

		results = append(results, result)
	}

	return results, nil
}
