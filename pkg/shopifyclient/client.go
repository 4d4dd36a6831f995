// Package shopifyclient provides the main entry point for creating Admin API clients
package shopifyclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/client"
	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

// New creates a new Admin API client. The caller's config is not modified.
func New(ctx context.Context, config *shopify.Config) (shopify.Client, error) {
	if config == nil {
		return nil, shopify.ErrConfigRequired
	}

	if config.ShopDomain == "" {
		return nil, shopify.ErrShopDomainRequired
	}

	normalized := *config
	normalized.ShopDomain = NormalizeShopDomain(config.ShopDomain)

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a new client for shop using an Admin API access token.
func NewWithToken(ctx context.Context, shop, token string) (shopify.Client, error) {
	return New(ctx, &shopify.Config{
		ShopDomain:  shop,
		AccessToken: token,
	})
}

// NormalizeShopDomain turns a bare handle, a host or a URL into the shop's
// base URL: "my-store" becomes "https://my-store.myshopify.com".
func NormalizeShopDomain(shop string) string {
	shop = strings.TrimSuffix(strings.TrimSpace(shop), "/")
	if shop == "" {
		return ""
	}

	if strings.HasPrefix(shop, "http://") || strings.HasPrefix(shop, "https://") {
		return shop
	}

	if !strings.Contains(shop, ".") && !strings.Contains(shop, ":") {
		shop += constants.ShopDomainSuffix
	}

	return "https://" + shop
}
