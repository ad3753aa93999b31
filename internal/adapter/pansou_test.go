package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leoqin/mediabot/internal/config"
	"github.com/leoqin/mediabot/internal/logger"
	"github.com/leoqin/mediabot/models"
)

func TestPanSouSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)

		var req panSouSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "凡人修仙传", req.Keyword)
		assert.False(t, req.Refresh)
		assert.Equal(t, "merge", req.Result)
		assert.Equal(t, "all", req.Source)
		assert.Equal(t, []string{"baidu", "quark"}, req.CloudTypes)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"merged_by_type": map[string]any{
					"quark": []map[string]string{
						{"url": "https://pan.quark.cn/s/abc", "note": "凡人修仙传 <4K>"},
						{"url": "", "note": "no url"},
					},
					"baidu": []map[string]string{
						{"url": "https://pan.baidu.com/s/xyz", "note": "凡人修仙传"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	p := NewPanSouClient(config.PanSou{Host: srv.URL}, logger.Nop())

	links, err := p.Search(context.Background(), "凡人修仙传", []string{"baidu", "quark"})
	require.NoError(t, err)

	// One entry had no URL and is skipped.
	require.Len(t, links, 2)
	types := map[string]bool{}
	for _, link := range links {
		types[link.CloudType] = true
	}
	assert.True(t, types[models.CloudTypeQuark])
	assert.True(t, types[models.CloudTypeBaidu])
}

func TestPanSouSearch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	p := NewPanSouClient(config.PanSou{Host: srv.URL}, logger.Nop())

	_, err := p.Search(context.Background(), "凡人修仙传", nil)
	assert.ErrorIs(t, err, ErrInternalServerError)
}

func TestPanSouSearch_NotConfigured(t *testing.T) {
	p := NewPanSouClient(config.PanSou{}, logger.Nop())

	_, err := p.Search(context.Background(), "凡人修仙传", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
