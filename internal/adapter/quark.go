// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

const quarkShareHost = "https://drive-h.quark.cn"

// probeLimit caps the number of concurrent liveness probes per search.
const probeLimit = 8

var quarkShareIDPattern = regexp.MustCompile(`https://pan\.quark\.cn/s/([a-zA-Z0-9]+)`)

// pdirFIDPattern matches share URLs that point inside the share, e.g.
// .../s/{id}#/list/share/{fid}-{name}.
var pdirFIDPattern = regexp.MustCompile(`/([^/]+)-[^/]*$`)

type quarkClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewQuarkClient constructs a [QuarkClient] against the public Quark share
// API.
func NewQuarkClient(timeout time.Duration, logger *logger.Logger) QuarkClient {
	return &quarkClient{
		client: newRestyClient(quarkShareHost, timeout),
		logger: logger,
	}
}

// ShareFile is one entry of a Quark share directory listing.
type ShareFile struct {
	FID               string `json:"fid"`
	FileName          string `json:"file_name"`
	Dir               bool   `json:"dir"`
	IncludeItemsCount int    `json:"include_items_count"`
	LastUpdateAtMs    int64  `json:"last_update_at"`

	// VideoMaxResolution is set for video files only.
	VideoMaxResolution string `json:"video_max_resolution"`
}

// LastUpdateTime converts the millisecond timestamp reported by Quark.
func (f ShareFile) LastUpdateTime() time.Time {
	return time.UnixMilli(f.LastUpdateAtMs)
}

// ExtractQuarkShareInfo pulls the share id and optional pwd query parameter
// out of a share URL. Returns [ErrInvalidShareURL] when the URL does not
// look like a Quark share link.
func ExtractQuarkShareInfo(shareURL string) (id, pwd string, err error) {
	match := quarkShareIDPattern.FindStringSubmatch(shareURL)
	if match == nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidShareURL, shareURL)
	}

	if parsed, parseErr := url.Parse(shareURL); parseErr == nil {
		pwd = parsed.Query().Get("pwd")
	}

	return match[1], pwd, nil
}

// extractPdirFID resolves the directory fid a share URL points at. Links to
// the share root yield "0".
func extractPdirFID(shareURL, quarkID string) string {
	if match := pdirFIDPattern.FindStringSubmatch(shareURL); match != nil {
		return match[1]
	}

	trimmed := strings.TrimRight(shareURL, "/")
	fid := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if fid == "share" || fid == quarkID {
		return "0"
	}
	return fid
}

type quarkTokenResponse struct {
	Message string `json:"message"`
	Data    struct {
		SToken string `json:"stoken"`
	} `json:"data"`
}

type quarkDetailResponse struct {
	Message string `json:"message"`
	Data    struct {
		List []ShareFile `json:"list"`
	} `json:"data"`
}

// shareToken resolves the share token needed by the detail endpoint. The
// second return value is a user-facing validity label describing why the
// share is unusable, empty on success.
func (q *quarkClient) shareToken(ctx context.Context, shareURL string) (quarkID, stoken, pdirFID, invalid string, err error) {
	quarkID, pwd, err := ExtractQuarkShareInfo(shareURL)
	if err != nil {
		return "", "", "", "", err
	}
	pdirFID = extractPdirFID(shareURL, quarkID)

	resp, err := q.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(map[string]string{"pr": "ucpro", "fr": "pc"}).
		SetBody(map[string]any{
			"pwd_id":                            quarkID,
			"passcode":                          pwd,
			"support_visit_limit_private_share": true,
		}).
		Post("/1/clouddrive/share/sharepage/token")
	if err != nil {
		return "", "", "", "", fmt.Errorf("quark share token request: %w", err)
	}

	var parsed quarkTokenResponse
	if unmarshalErr := json.Unmarshal(resp.Body(), &parsed); unmarshalErr != nil {
		parsed = quarkTokenResponse{}
	}

	if resp.IsError() || parsed.Data.SToken == "" {
		invalid = parsed.Message
		if invalid == "" {
			invalid = models.ValidityUnknown
		}
		return quarkID, "", pdirFID, invalid, nil
	}

	return quarkID, parsed.Data.SToken, pdirFID, "", nil
}

func (q *quarkClient) shareDetail(ctx context.Context, quarkID, stoken, pdirFID string, size int) (*quarkDetailResponse, *resty.Response, error) {
	resp, err := q.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"pr":           "ucpro",
			"fr":           "pc",
			"uc_param_str": "",
			"_size":        fmt.Sprint(size),
			"pdir_fid":     pdirFID,
			"pwd_id":       quarkID,
			"stoken":       stoken,
			"ver":          "2",
			"_sort":        "file_type:asc,updated_at:desc",
		}).
		Get("/1/clouddrive/share/sharepage/detail")
	if err != nil {
		return nil, nil, fmt.Errorf("quark share detail request: %w", err)
	}

	var parsed quarkDetailResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, resp, fmt.Errorf("decode quark share detail response: %w", err)
	}

	return &parsed, resp, nil
}

// checkLink probes one share link and returns its validity label.
func (q *quarkClient) checkLink(ctx context.Context, link string) string {
	quarkID, stoken, pdirFID, invalid, err := q.shareToken(ctx, link)
	if err != nil {
		q.logger.Err(err).Str("link", link).Msg("quark link probe failed")
		return models.ValidityUnknown
	}
	if invalid != "" {
		return invalid
	}

	parsed, resp, err := q.shareDetail(ctx, quarkID, stoken, pdirFID, 5)
	if err != nil {
		q.logger.Err(err).Str("link", link).Msg("quark link probe failed")
		return models.ValidityUnknown
	}
	if resp.IsError() {
		if parsed.Message != "" {
			return parsed.Message
		}
		return models.ValidityUnknown
	}

	return models.ValidityAlive
}

func (q *quarkClient) LinksValidity(ctx context.Context, links []string) map[string]string {
	result := make(map[string]string, len(links))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)

	for _, link := range links {
		link := link
		g.Go(func() error {
			validity := q.checkLink(gctx, link)

			mu.Lock()
			result[link] = validity
			mu.Unlock()
			return nil
		})
	}

	// Probes never return errors, they report through validity labels.
	_ = g.Wait()

	return result
}

func (q *quarkClient) ShareFiles(ctx context.Context, shareURL string, includeDir bool) ([]ShareFile, error) {
	quarkID, stoken, pdirFID, invalid, err := q.shareToken(ctx, shareURL)
	if err != nil {
		return nil, err
	}
	if invalid != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShareURL, invalid)
	}

	parsed, resp, err := q.shareDetail(ctx, quarkID, stoken, pdirFID, 40)
	if err != nil {
		return nil, err
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}

	if includeDir {
		return parsed.Data.List, nil
	}

	var files []ShareFile
	for _, file := range parsed.Data.List {
		if !file.Dir {
			files = append(files, file)
		}
	}
	return files, nil
}

// ShareFileTree walks the share recursively, collecting the listing of every
// directory keyed by "{dirname}__{fid}".
func (q *quarkClient) ShareFileTree(ctx context.Context, shareURL string) (map[string][]ShareFile, error) {
	quarkID, stoken, _, invalid, err := q.shareToken(ctx, shareURL)
	if err != nil {
		return nil, err
	}
	if invalid != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShareURL, invalid)
	}

	tree := make(map[string][]ShareFile)
	if err := q.walkShareDir(ctx, quarkID, stoken, "0", "root", tree); err != nil {
		return nil, err
	}

	return tree, nil
}

func (q *quarkClient) walkShareDir(ctx context.Context, quarkID, stoken, fid, name string, tree map[string][]ShareFile) error {
	parsed, resp, err := q.shareDetail(ctx, quarkID, stoken, fid, 40)
	if err != nil {
		return err
	}
	if err := mapHTTPError(resp); err != nil {
		return err
	}

	tree[name+"__"+fid] = parsed.Data.List
	for _, file := range parsed.Data.List {
		if file.Dir {
			if err := q.walkShareDir(ctx, quarkID, stoken, file.FID, file.FileName, tree); err != nil {
				return err
			}
		}
	}

	return nil
}
