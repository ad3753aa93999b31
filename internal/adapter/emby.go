package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leoqin/mediabot/internal/logger"
)

// EmbyConnection carries the per-user Emby server settings, API token
// already decrypted.
type EmbyConnection struct {
	Host     string
	APIToken string
}

// EmbyItem is one library item returned by a search.
type EmbyItem struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	Type           string `json:"Type"`
	ProductionYear int    `json:"ProductionYear"`
}

// EmbyNotification is one configured notification service.
type EmbyNotification struct {
	ID           string   `json:"Id"`
	FriendlyName string   `json:"FriendlyName"`
	EventIDs     []string `json:"EventIds"`

	// raw keeps the full document so a toggle writes back every field the
	// server sent, not just the ones this struct names.
	raw map[string]json.RawMessage
}

type embyClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewEmbyClient constructs a stateless [EmbyClient]. Each call addresses the
// server named in its [EmbyConnection].
func NewEmbyClient(timeout time.Duration, logger *logger.Logger) EmbyClient {
	return &embyClient{
		client: newRestyClient("", timeout),
		logger: logger,
	}
}

func embyURL(conn EmbyConnection, path string) string {
	return strings.TrimRight(conn.Host, "/") + path
}

func (e *embyClient) request(ctx context.Context, conn EmbyConnection) (*resty.Request, error) {
	if conn.Host == "" || conn.APIToken == "" {
		return nil, fmt.Errorf("%w: emby host or token is empty", ErrNotConfigured)
	}

	return e.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", conn.APIToken), nil
}

func (e *embyClient) AccessToken(ctx context.Context, conn EmbyConnection, username, password string) (string, error) {
	userID, err := e.userIDByName(ctx, conn, username)
	if err != nil {
		return "", err
	}

	req, err := e.request(ctx, conn)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"Pw": password}).
		Post(embyURL(conn, "/emby/Users/"+userID+"/Authenticate"))
	if err != nil {
		return "", fmt.Errorf("emby authenticate request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var parsed struct {
		AccessToken string `json:"AccessToken"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode emby authenticate response: %w", err)
	}

	return parsed.AccessToken, nil
}

func (e *embyClient) ListSeries(ctx context.Context, conn EmbyConnection, term string) ([]EmbyItem, error) {
	req, err := e.request(ctx, conn)
	if err != nil {
		return nil, err
	}
	resp, err := req.
		SetQueryParams(map[string]string{
			"Recursive":        "true",
			"SearchTerm":       term,
			"IncludeItemTypes": "Series",
			"EnableImages":     "true",
		}).
		Get(embyURL(conn, "/emby/Items"))
	if err != nil {
		return nil, fmt.Errorf("emby items request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var parsed struct {
		Items []EmbyItem `json:"Items"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode emby items response: %w", err)
	}

	return parsed.Items, nil
}

func (e *embyClient) RemoteImageURL(ctx context.Context, conn EmbyConnection, itemID string) (string, error) {
	req, err := e.request(ctx, conn)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetQueryParam("Type", "Primary").
		Get(embyURL(conn, "/emby/Items/"+itemID+"/RemoteImages"))
	if err != nil {
		return "", fmt.Errorf("emby remote images request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var parsed struct {
		Images []struct {
			URL          string `json:"Url"`
			ProviderName string `json:"ProviderName"`
		} `json:"Images"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode emby remote images response: %w", err)
	}

	for _, img := range parsed.Images {
		if img.ProviderName == "TheMovieDb" {
			return img.URL, nil
		}
	}

	return "", fmt.Errorf("%w: no TheMovieDb image for item %s", ErrNotFound, itemID)
}

func (e *embyClient) AdminUserID(ctx context.Context, conn EmbyConnection) (string, error) {
	users, err := e.queryUsers(ctx, conn)
	if err != nil {
		return "", err
	}

	for _, user := range users {
		if user.Policy.IsAdministrator {
			return user.ID, nil
		}
	}

	return "", fmt.Errorf("%w: no administrator account", ErrNotFound)
}

func (e *embyClient) RefreshLibrary(ctx context.Context, conn EmbyConnection, itemID string) error {
	req, err := e.request(ctx, conn)
	if err != nil {
		return err
	}
	resp, err := req.
		SetQueryParams(map[string]string{
			"Recursive":           "true",
			"MetadataRefreshMode": "FullRefresh",
			"ImageRefreshMode":    "FullRefresh",
			"ReplaceAllMetadata":  "true",
			"ReplaceAllImages":    "true",
		}).
		Post(embyURL(conn, "/emby/Items/"+itemID+"/Refresh"))
	if err != nil {
		return fmt.Errorf("emby refresh request: %w", err)
	}

	return mapHTTPError(resp)
}

func (e *embyClient) ListNotifications(ctx context.Context, conn EmbyConnection, accessToken string) ([]EmbyNotification, error) {
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParam("X-Emby-Token", accessToken).
		Get(embyURL(conn, "/emby/Notifications/Services/Configured"))
	if err != nil {
		return nil, fmt.Errorf("emby notifications request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var rawList []map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rawList); err != nil {
		return nil, fmt.Errorf("decode emby notifications response: %w", err)
	}

	notifications := make([]EmbyNotification, 0, len(rawList))
	for _, raw := range rawList {
		var n EmbyNotification
		payload, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("decode emby notification: %w", err)
		}
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, fmt.Errorf("decode emby notification: %w", err)
		}
		n.raw = raw
		notifications = append(notifications, n)
	}

	return notifications, nil
}

func (e *embyClient) ToggleNotificationEvent(ctx context.Context, conn EmbyConnection, accessToken, notificationID, eventID string, enable bool) error {
	notifications, err := e.ListNotifications(ctx, conn, accessToken)
	if err != nil {
		return err
	}

	var target *EmbyNotification
	for i := range notifications {
		if notifications[i].ID == notificationID {
			target = &notifications[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
	}

	eventIDs := target.EventIDs
	if enable {
		if !containsString(eventIDs, eventID) {
			eventIDs = append(eventIDs, eventID)
		}
	} else {
		eventIDs = removeString(eventIDs, eventID)
	}

	payload, err := json.Marshal(eventIDs)
	if err != nil {
		return fmt.Errorf("encode emby notification events: %w", err)
	}
	target.raw["EventIds"] = payload

	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParam("X-Emby-Token", accessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(target.raw).
		Post(embyURL(conn, "/emby/Notifications/Services/Configured"))
	if err != nil {
		return fmt.Errorf("emby notification update request: %w", err)
	}

	return mapHTTPError(resp)
}

type embyUser struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Policy struct {
		IsAdministrator bool `json:"IsAdministrator"`
	} `json:"Policy"`
}

func (e *embyClient) queryUsers(ctx context.Context, conn EmbyConnection) ([]embyUser, error) {
	req, err := e.request(ctx, conn)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get(embyURL(conn, "/emby/Users/Query"))
	if err != nil {
		return nil, fmt.Errorf("emby users request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var parsed struct {
		Items []embyUser `json:"Items"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode emby users response: %w", err)
	}

	return parsed.Items, nil
}

func (e *embyClient) userIDByName(ctx context.Context, conn EmbyConnection, username string) (string, error) {
	users, err := e.queryUsers(ctx, conn)
	if err != nil {
		return "", err
	}

	for _, user := range users {
		if user.Name == username {
			return user.ID, nil
		}
	}

	return "", fmt.Errorf("%w: emby user %s", ErrNotFound, username)
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func removeString(values []string, v string) []string {
	result := values[:0]
	for _, value := range values {
		if value != v {
			result = append(result, value)
		}
	}
	return result
}
