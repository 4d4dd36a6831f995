package shopifyclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopifyclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeShopDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"my-store", "https://my-store.myshopify.com"},
		{"my-store.myshopify.com", "https://my-store.myshopify.com"},
		{"my-store.myshopify.com/", "https://my-store.myshopify.com"},
		{"https://my-store.myshopify.com/", "https://my-store.myshopify.com"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"  shop.example.com ", "https://shop.example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, shopifyclient.NormalizeShopDomain(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := shopifyclient.New(context.Background(), nil)
		require.ErrorIs(t, err, shopify.ErrConfigRequired)
	})

	t.Run("requires shop", func(t *testing.T) {
		t.Parallel()

		_, err := shopifyclient.New(context.Background(), &shopify.Config{AccessToken: "shpat_test"})
		require.ErrorIs(t, err, shopify.ErrShopDomainRequired)
	})

	t.Run("requires token", func(t *testing.T) {
		t.Parallel()

		_, err := shopifyclient.New(context.Background(), &shopify.Config{ShopDomain: "my-store"})
		require.ErrorIs(t, err, shopify.ErrAccessTokenRequired)
	})

	t.Run("leaves config untouched", func(t *testing.T) {
		t.Parallel()

		config := &shopify.Config{ShopDomain: "my-store", AccessToken: "shpat_test"}

		client, err := shopifyclient.New(context.Background(), config)
		require.NoError(t, err)
		t.Cleanup(client.Close)

		assert.Equal(t, "my-store", config.ShopDomain)
	})
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	var gotToken, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"variant":{"id":808950810,"product_id":632910392,"image_id":null}}`))
	}))
	defer server.Close()

	client, err := shopifyclient.NewWithToken(context.Background(), server.URL+"/", "shpat_test")
	require.NoError(t, err)
	t.Cleanup(client.Close)

	variant, err := client.Variants().Get(context.Background(), 808950810)
	require.NoError(t, err)
	assert.Equal(t, int64(632910392), variant.ProductID)
	assert.Nil(t, variant.ImageID)

	assert.Equal(t, "shpat_test", gotToken)
	assert.Contains(t, gotPath, "/variants/808950810.json")
}
