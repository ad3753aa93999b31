// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/leoqin/mediabot/internal/adapter"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

// searchChunkSize caps links per message so replies stay under Telegram's
// message length limit.
const searchChunkSize = 25

// Source labels shown in result headers.
const (
	sourceCloudSaver = "cs资源"
	sourcePanSou     = "pansou资源"
)

// panSouCloudCodes maps canonical bucket names to the cloud type codes the
// PanSou API filters on.
var panSouCloudCodes = map[string]string{
	models.CloudTypeQuark:  "quark",
	models.CloudTypeAliyun: "aliyun",
	models.CloudType123Pan: "123",
	models.CloudTypeXunlei: "xunlei",
	models.CloudTypeBaidu:  "baidu",
	models.CloudTypeUC:     "uc",
}

type searchService struct {
	cloudSaver adapter.CloudSaverClient
	panSou     adapter.PanSouClient
	quark      adapter.QuarkClient
	audit      *auditor
	logger     *logger.Logger
}

// NewSearchService constructs the resource search aggregator.
func NewSearchService(cloudSaver adapter.CloudSaverClient, panSou adapter.PanSouClient, quark adapter.QuarkClient, audit *auditor, log *logger.Logger) SearchService {
	return &searchService{
		cloudSaver: cloudSaver,
		panSou:     panSou,
		quark:      quark,
		audit:      audit,
		logger:     log,
	}
}

// Search implements [SearchService]. Both backends are queried concurrently;
// a failing backend is logged and the other's results are still returned.
func (s *searchService) Search(ctx context.Context, user models.User, keyword string) ([]string, error) {
	preferred := user.Settings.EffectiveCloudTypes()

	var (
		wg               sync.WaitGroup
		csLinks, psLinks []models.ResourceLink
		csErr, psErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		csLinks, csErr = s.cloudSaver.Search(ctx, keyword)
	}()
	go func() {
		defer wg.Done()
		psLinks, psErr = s.panSou.Search(ctx, keyword, cloudCodes(preferred))
	}()
	wg.Wait()

	if csErr != nil {
		s.logger.Error().Err(csErr).Str("keyword", keyword).Msg("cloudsaver search failed")
	}
	if psErr != nil {
		s.logger.Error().Err(psErr).Str("keyword", keyword).Msg("pansou search failed")
	}
	if csErr != nil && psErr != nil {
		return nil, ErrAllBackendsFailed
	}

	s.probeQuarkLinks(ctx, csLinks, psLinks)

	s.audit.record(ctx, user.UserID, models.OperationRead, "resources", "",
		fmt.Sprintf("用户%d - %s 搜索资源 %s", user.TgID, user.Username, keyword))

	chunks := formatResults(csLinks, sourceCloudSaver, preferred)
	chunks = append(chunks, formatResults(psLinks, sourcePanSou, preferred)...)

	return chunks, nil
}

// probeQuarkLinks runs liveness probes over every Quark link of both result
// sets and stamps the verdicts back. Non-Quark links cannot be probed and
// keep their unknown label.
func (s *searchService) probeQuarkLinks(ctx context.Context, sets ...[]models.ResourceLink) {
	var urls []string
	for _, set := range sets {
		for _, link := range set {
			if link.CloudType == models.CloudTypeQuark {
				urls = append(urls, link.URL)
			}
		}
	}
	if len(urls) == 0 {
		return
	}

	validity := s.quark.LinksValidity(ctx, urls)
	for _, set := range sets {
		for i, link := range set {
			if v, ok := validity[link.URL]; ok && link.CloudType == models.CloudTypeQuark {
				set[i].Validity = v
			}
		}
	}
}

// formatResults buckets live links by cloud type, keeps only the preferred
// buckets and renders HTML messages of at most searchChunkSize entries.
func formatResults(links []models.ResourceLink, source string, preferred []string) []string {
	buckets := make(map[string][]models.ResourceLink)
	for _, link := range links {
		if link.Title == "" || link.URL == "" || !link.Alive() {
			continue
		}
		buckets[link.CloudType] = append(buckets[link.CloudType], link)
	}

	var chunks []string
	for _, cloudType := range preferred {
		bucket := buckets[cloudType]
		for start := 0; start < len(bucket); start += searchChunkSize {
			end := min(start+searchChunkSize, len(bucket))

			var b strings.Builder
			fmt.Fprintf(&b, "☁️ <b>%s</b>（%s）\n", cloudType, source)
			for _, link := range bucket[start:end] {
				validity := link.Validity
				if validity == "" {
					validity = models.ValidityUnknown
				}
				fmt.Fprintf(&b, "🔗 <a href=\"%s\">%s</a> （%s）\n", link.URL, sanitizeTitle(link.Title), validity)
			}
			chunks = append(chunks, b.String())
		}
	}

	return chunks
}

// sanitizeTitle keeps backend-supplied titles from breaking the HTML markup.
func sanitizeTitle(title string) string {
	title = strings.ReplaceAll(title, "<", "[")
	return strings.ReplaceAll(title, ">", "]")
}

func cloudCodes(preferred []string) []string {
	codes := make([]string, 0, len(preferred))
	for _, name := range preferred {
		if code, ok := panSouCloudCodes[name]; ok {
			codes = append(codes, code)
		}
	}
	return codes
}
