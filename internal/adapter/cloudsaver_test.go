// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoqin/mediabot/internal/config"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

func newTestCloudSaver(serverURL string) CloudSaverClient {
	return NewCloudSaverClient(config.CloudSaver{
		Host:     serverURL,
		Username: "alice",
		Password: "secret",
	}, 0, logger.Nop())
}

func cloudSaverSearchBody() map[string]any {
	return map[string]any{
		"data": []map[string]any{
			{
				"channelInfo": map[string]any{"name": "测试频道"},
				"list": []map[string]any{
					{
						"title": "大主宰 4K",
						"cloudLinks": []map[string]any{
							{"link": "https://pan.quark.cn/s/abc123", "cloudType": "quark"},
							{"link": "", "cloudType": "quark"},
						},
					},
					{
						"title": "大主宰 1080P",
						"cloudLinks": []map[string]any{
							{"link": "https://pan.baidu.com/s/xyz", "cloudType": "baiduPan"},
						},
					},
				},
			},
		},
	}
}

func TestCloudSaverSearch_LoginThenSearch(t *testing.T) {
	var logins atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/login":
			logins.Add(1)
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "alice", creds["username"])
			assert.Equal(t, "secret", creds["password"])

			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"token": "tok-1"}})
		case "/api/search":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "大主宰", r.URL.Query().Get("keyword"))

			_ = json.NewEncoder(w).Encode(cloudSaverSearchBody())
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestCloudSaver(srv.URL)

	links, err := c.Search(context.Background(), "大主宰")
	require.NoError(t, err)

	// Empty link dropped, cloud types folded to canonical names.
	require.Len(t, links, 2)
	assert.Equal(t, models.CloudTypeQuark, links[0].CloudType)
	assert.Equal(t, models.CloudTypeBaidu, links[1].CloudType)
	assert.Equal(t, models.ValidityUnknown, links[0].Validity)

	// Second search reuses the cached token.
	_, err = c.Search(context.Background(), "大主宰")
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load())
}

func TestCloudSaverSearch_RelogsInAfterUnauthorized(t *testing.T) {
	var logins atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/login":
			n := logins.Add(1)
			token := "tok-1"
			if n > 1 {
				token = "tok-2"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"token": token}})
		case "/api/search":
			if r.Header.Get("Authorization") != "Bearer tok-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(cloudSaverSearchBody())
		}
	}))
	defer srv.Close()

	c := newTestCloudSaver(srv.URL)

	links, err := c.Search(context.Background(), "大主宰")
	require.NoError(t, err)
	assert.Len(t, links, 2)
	assert.Equal(t, int32(2), logins.Load())
}

func TestCloudSaverSearch_NotConfigured(t *testing.T) {
	c := newTestCloudSaver("")

	_, err := c.Search(context.Background(), "大主宰")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
