package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/auth"
	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/internal/http"
	"github.com/arassai75/ShopifyLib-sub000/internal/upload"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

// Client implements the shopify.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	apiVersion   string
	logger       shopify.Logger
	metrics      *shopify.Metrics
	cache        shopify.Cache

	graphql       *GraphQLClient
	products      *ProductsClient
	productImages *ProductImagesClient
	variants      *VariantsClient
	metafields    *MetafieldsClient
	stagedUploads *StagedUploadsClient
	files         *FilesClient
	uploader      *Uploader
}

// New creates a client for config.ShopDomain, which must already be a URL.
func New(ctx context.Context, config *shopify.Config) (*Client, error) {
	if config == nil {
		return nil, shopify.ErrConfigRequired
	}

	if config.ShopDomain == "" {
		return nil, shopify.ErrShopDomainRequired
	}

	if config.AccessToken == "" {
		return nil, shopify.ErrAccessTokenRequired
	}

	return NewWithTokenManager(config, auth.NewStaticTokenManager(config.AccessToken))
}

// NewWithTokenManager creates a client that takes its access token from tokenManager.
func NewWithTokenManager(config *shopify.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, shopify.ErrConfigRequired
	}

	if config.ShopDomain == "" {
		return nil, shopify.ErrShopDomainRequired
	}

	metrics, err := shopify.NewMetrics(config.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	cacheConfig := config.Cache
	if cacheConfig == nil {
		cacheConfig = shopify.DefaultCacheConfig()
	}

	cache, err := shopify.NewCacheFromConfig(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("creating url cache: %w", err)
	}

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = constants.DefaultAPIVersion
	}

	baseURL := strings.TrimSuffix(config.ShopDomain, "/")
	httpClient := http.NewClient(baseURL, tokenManager, createHTTPClientOptions(config, metrics)...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      baseURL,
		apiVersion:   apiVersion,
		logger:       config.Logger,
		metrics:      metrics,
		cache:        cache,
	}

	client.initializeResourceClients(config.Upload, shopify.NewURLCache(cache, cacheConfig.TTL))

	if config.Logger != nil {
		config.Logger.Debug("admin api client ready", map[string]interface{}{
			"shop":        baseURL,
			"api_version": apiVersion,
			"cache":       string(cacheConfig.Type),
		})
	}

	return client, nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *shopify.Config, metrics *shopify.Metrics) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	chain := shopify.NewInterceptorChain()

	if config.RequestsPerSecond > 0 {
		chain.AddRequestInterceptor(shopify.RateLimitInterceptor(config.RequestsPerSecond))
	}

	if metrics != nil {
		chain.AddRequestInterceptor(shopify.MetricsRequestInterceptor())
		chain.AddResponseInterceptor(shopify.MetricsResponseInterceptor(metrics))
	}

	if config.LogRequests && config.Logger != nil {
		chain.AddRequestInterceptor(shopify.LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(shopify.LoggingResponseInterceptor(config.Logger))
	}

	for _, interceptor := range config.RequestInterceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	for _, interceptor := range config.ResponseInterceptors {
		chain.AddResponseInterceptor(interceptor)
	}

	if !chain.Empty() {
		httpOpts = append(httpOpts, http.WithInterceptors(chain))
	}

	return httpOpts
}

func (c *Client) initializeResourceClients(uploadConfig *shopify.UploadConfig, urlCache *shopify.URLCache) {
	uploadConfig = uploadConfig.WithDefaults()

	c.graphql = NewGraphQLClient(c.httpClient, c.apiVersion)
	c.graphql.logger = c.logger

	c.products = NewProductsClient(c.httpClient, c.apiVersion)
	c.productImages = NewProductImagesClient(c.httpClient, c.apiVersion)
	c.variants = NewVariantsClient(c.httpClient, c.apiVersion)
	c.metafields = NewMetafieldsClient(c.graphql)
	c.stagedUploads = NewStagedUploadsClient(c.graphql)

	c.files = NewFilesClient(c.graphql, urlCache)
	c.files.logger = c.logger
	c.files.metrics = c.metrics
	c.files.jitter = uploadConfig.PollJitter

	c.uploader = NewUploader(uploadConfig, UploaderDeps{
		StagedUploads: c.stagedUploads,
		Files:         c.files,
		Metafields:    c.metafields,
		ProductImages: c.productImages,
		Transport:     upload.NewTransport(uploadConfig.Transport, c.logger, c.metrics),
		Downloader:    upload.NewDownloader(uploadConfig.Download, c.logger),
		Logger:        c.logger,
		Metrics:       c.metrics,
	})
}

// adminPath joins parts under the versioned Admin API prefix.
func adminPath(apiVersion string, parts ...string) string {
	return "/admin/api/" + apiVersion + "/" + strings.Join(parts, "/")
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// BaseURL returns the shop URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close implements shopify.Client.Close.
func (c *Client) Close() {
	shopify.CloseCache(c.cache)
}

// Products implements shopify.Client.Products.
func (c *Client) Products() shopify.ProductsClient {
	return c.products
}

// ProductImages implements shopify.Client.ProductImages.
func (c *Client) ProductImages() shopify.ProductImagesClient {
	return c.productImages
}

// Variants implements shopify.Client.Variants.
func (c *Client) Variants() shopify.VariantsClient {
	return c.variants
}

// Metafields implements shopify.Client.Metafields.
func (c *Client) Metafields() shopify.MetafieldsClient {
	return c.metafields
}

// StagedUploads implements shopify.Client.StagedUploads.
func (c *Client) StagedUploads() shopify.StagedUploadsClient {
	return c.stagedUploads
}

// Files implements shopify.Client.Files.
func (c *Client) Files() shopify.FilesClient {
	return c.files
}

// GraphQL implements shopify.Client.GraphQL.
func (c *Client) GraphQL() shopify.GraphQLClient {
	return c.graphql
}

// Uploader implements shopify.Client.Uploader.
func (c *Client) Uploader() shopify.Uploader {
	return c.uploader
}
