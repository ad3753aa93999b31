// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

// Package adapter provides REST clients for every external collaborator of
// the bot: the CloudSaver and PanSou search backends, the Quark share API
// used for link liveness probes and share-file listings, Emby, The Movie
// Database, quark-auto-save, and OpenAI-compatible chat providers.
//
// All clients are built on resty with the base URL trailing slash trimmed
// and a shared default request timeout. Non-success HTTP responses are
// mapped to the sentinel errors in errors.go so callers can use [errors.Is]
// without knowing which transport produced the failure.
//
// Clients for bot-level services (CloudSaver, PanSou, Quark, TMDB) hold
// their connection settings; clients for per-user integrations (Emby,
// quark-auto-save, AI chat) are stateless and take the decrypted connection
// parameters on every call.
package adapter

import (
	"context"

	"github.com/leoqin/mediabot/models"
)

// CloudSaverClient searches the CloudSaver aggregation backend.
type CloudSaverClient interface {
	// Search returns resource links matching the keyword. The client logs
	// in lazily and caches the bearer token for the process lifetime; a 401
	// drops the cached token so the next call re-authenticates.
	Search(ctx context.Context, keyword string) ([]models.ResourceLink, error)
}

// PanSouClient searches the PanSou aggregation backend.
type PanSouClient interface {
	// Search returns resource links matching the keyword, restricted to
	// the given raw cloud type codes (e.g. "baidu", "quark").
	Search(ctx context.Context, keyword string, cloudTypes []string) ([]models.ResourceLink, error)
}

// QuarkClient talks to the public Quark share endpoints. No account cookie
// is required for share pages.
type QuarkClient interface {
	// LinksValidity probes each share link concurrently and reports a
	// per-link validity label ("有效", an upstream failure message, or
	// "状态未知").
	LinksValidity(ctx context.Context, links []string) map[string]string

	// ShareFiles lists the files directly under the share URL's directory.
	// Directories are filtered out unless includeDir is set.
	ShareFiles(ctx context.Context, shareURL string, includeDir bool) ([]ShareFile, error)

	// ShareFileTree walks the share recursively and returns the listing of
	// every directory, keyed by "{dirname}__{fid}". The share root is keyed
	// "root__0".
	ShareFileTree(ctx context.Context, shareURL string) (map[string][]ShareFile, error)
}

// EmbyClient talks to an Emby media server. Connection parameters come from
// the caller because each bot user configures their own server.
type EmbyClient interface {
	// AccessToken authenticates the named Emby user with their password and
	// returns the session access token.
	AccessToken(ctx context.Context, conn EmbyConnection, username, password string) (string, error)

	// ListSeries searches the library for series matching the term.
	ListSeries(ctx context.Context, conn EmbyConnection, term string) ([]EmbyItem, error)

	// RemoteImageURL returns the TheMovieDb primary image URL for an item.
	RemoteImageURL(ctx context.Context, conn EmbyConnection, itemID string) (string, error)

	// AdminUserID returns the id of the first administrator account.
	AdminUserID(ctx context.Context, conn EmbyConnection) (string, error)

	// RefreshLibrary triggers a full metadata and image refresh of an item.
	RefreshLibrary(ctx context.Context, conn EmbyConnection, itemID string) error

	// ListNotifications returns the configured notification services.
	ListNotifications(ctx context.Context, conn EmbyConnection, accessToken string) ([]EmbyNotification, error)

	// ToggleNotificationEvent adds or removes an event id on a configured
	// notification service and writes the modified service back.
	ToggleNotificationEvent(ctx context.Context, conn EmbyConnection, accessToken, notificationID, eventID string, enable bool) error
}

// TMDBClient looks up media metadata on The Movie Database.
type TMDBClient interface {
	SearchTV(ctx context.Context, name string) ([]TMDBResult, error)
	SearchMovie(ctx context.Context, name string) ([]TMDBResult, error)
}

// QASClient talks to a quark-auto-save instance. The host and API token are
// per-user settings, so every method takes them explicitly.
type QASClient interface {
	// Data fetches the instance's full configuration document.
	Data(ctx context.Context, conn QASConnection) (QASData, error)

	// AddTask registers a new auto-save task.
	AddTask(ctx context.Context, conn QASConnection, task QASTask) error

	// UpdateData writes the (modified) configuration document back.
	UpdateData(ctx context.Context, conn QASConnection, data QASData) error

	// GetShareDetail previews which share files a task's pattern would
	// transfer.
	GetShareDetail(ctx context.Context, conn QASConnection, task QASTask) ([]QASShareFile, error)

	// RunScript runs the auto-save script for the given task indexes and
	// returns its output with SSE "data: " prefixes stripped.
	RunScript(ctx context.Context, conn QASConnection, taskList []int) (string, error)
}

// AIChatClient sends a single system+user exchange to an OpenAI-compatible
// chat completion endpoint.
type AIChatClient interface {
	Chat(ctx context.Context, conn AIConnection, system, prompt string) (string, error)
}
