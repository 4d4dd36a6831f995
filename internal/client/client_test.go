package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/arassai75/ShopifyLib-sub000/internal/client"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil)
		require.ErrorIs(t, err, shopify.ErrConfigRequired)
	})

	t.Run("requires shop domain", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &shopify.Config{AccessToken: "shpat_test"})
		require.ErrorIs(t, err, shopify.ErrShopDomainRequired)
	})

	t.Run("requires access token", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &shopify.Config{ShopDomain: "https://my-store.myshopify.com"})
		require.ErrorIs(t, err, shopify.ErrAccessTokenRequired)
	})

	t.Run("rejects unsupported cache", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &shopify.Config{
			ShopDomain:  "https://my-store.myshopify.com",
			AccessToken: "shpat_test",
			Cache:       &shopify.CacheConfig{Type: "memcached"},
		})
		require.ErrorIs(t, err, shopify.ErrUnsupportedCache)
	})

	t.Run("creates client", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &shopify.Config{
			ShopDomain:  "https://my-store.myshopify.com/",
			AccessToken: "shpat_test",
		})
		require.NoError(t, err)
		t.Cleanup(client.Close)

		assert.Equal(t, "https://my-store.myshopify.com", client.BaseURL())
		assert.NotNil(t, client.GetTokenManager())
		assert.NotNil(t, client.Products())
		assert.NotNil(t, client.ProductImages())
		assert.NotNil(t, client.Variants())
		assert.NotNil(t, client.Metafields())
		assert.NotNil(t, client.StagedUploads())
		assert.NotNil(t, client.Files())
		assert.NotNil(t, client.GraphQL())
		assert.NotNil(t, client.Uploader())
	})
}

func TestClient_SendsAccessTokenAndVersion(t *testing.T) {
	t.Parallel()

	var gotPath, gotToken, gotAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotAgent = r.UserAgent()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"product": map[string]interface{}{"id": 632910392, "title": "IPod Nano - 8GB"},
		})
	}))
	defer server.Close()

	client, err := New(context.Background(), &shopify.Config{
		ShopDomain:  server.URL,
		AccessToken: "shpat_test",
		APIVersion:  "2024-07",
		UserAgent:   "shopup-test/1.0",
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	product, err := client.Products().Get(context.Background(), 632910392)
	require.NoError(t, err)
	assert.Equal(t, "IPod Nano - 8GB", product.Title)

	assert.Equal(t, "/admin/api/2024-07/products/632910392.json", gotPath)
	assert.Equal(t, "shpat_test", gotToken)
	assert.Equal(t, "shopup-test/1.0", gotAgent)
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer server.Close()

	registry := prometheus.NewRegistry()

	client, err := New(context.Background(), &shopify.Config{
		ShopDomain:        server.URL,
		AccessToken:       "shpat_test",
		MetricsRegisterer: registry,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.Products().List(context.Background(), nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(registry, "shopup_api_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClient_LogsRequests(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Shopify-Shop-Api-Call-Limit", "1/40")
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer server.Close()

	core, logs := observer.New(zap.DebugLevel)

	client, err := New(context.Background(), &shopify.Config{
		ShopDomain:  server.URL,
		AccessToken: "shpat_test",
		Logger:      shopify.NewZapLogger(zap.New(core)),
		LogRequests: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.Products().List(context.Background(), nil)
	require.NoError(t, err)

	requests := logs.FilterMessage("API Request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodGet, requests[0].ContextMap()["method"])

	responses := logs.FilterMessage("API Response").All()
	require.Len(t, responses, 1)
	assert.Equal(t, "1/40", responses[0].ContextMap()["call_limit"])
}

func TestClient_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ shopify.Client = (*Client)(nil)
}
