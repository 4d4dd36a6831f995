package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for Admin API requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ExtendedHTTPTimeout is used for direct uploads to the storage target.
	ExtendedHTTPTimeout = 2 * time.Minute

	// ShortHTTPTimeout is used for quick operations such as reference probes.
	ShortHTTPTimeout = 10 * time.Second

	// DownloadTimeout bounds a single fetch of a source image.
	DownloadTimeout = 45 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// LowRetryMax is used for operations that should retry fewer times.
	LowRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second

	// DefaultStagedAttempts is how many freshly negotiated targets one upload may consume.
	DefaultStagedAttempts = 3

	// DefaultStagedRetryInterval is the first backoff step between staged attempts.
	DefaultStagedRetryInterval = 500 * time.Millisecond

	// DefaultMetafieldRetryMax bounds metafield write retries.
	DefaultMetafieldRetryMax = 3

	// DefaultThrottleRetryMax bounds retries of THROTTLED GraphQL responses.
	DefaultThrottleRetryMax = 4
)

// Batching.
const (
	// DefaultBatchSize is the number of items processed between pauses.
	DefaultBatchSize = 10

	// DefaultBatchPause is the mandatory pause between batches.
	DefaultBatchPause = 2 * time.Second

	// DefaultConcurrency keeps batch items sequential.
	DefaultConcurrency = 1
)

// Polling.
const (
	// DefaultPollInterval is the fixed tick of the CDN URL poller.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollMaxWait bounds how long the poller waits for a URL.
	DefaultPollMaxWait = 3 * time.Minute

	// QuickPollInterval is used for fast polling.
	QuickPollInterval = 10 * time.Millisecond
)

// Sizes.
const (
	// DefaultMaxDownloadBytes caps a downloaded source image (20MB).
	DefaultMaxDownloadBytes = 20 * 1024 * 1024

	// DefaultMaxResponseBytes caps a storage target response body kept for diagnostics.
	DefaultMaxResponseBytes = 64 * 1024

	// SniffLength is the prefix handed to content-type detection.
	SniffLength = 3072

	// MaxBoundaryAttempts bounds boundary regeneration on collision.
	MaxBoundaryAttempts = 8
)

// Cache.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultNATSBucket is the JetStream KV bucket for CDN URLs.
	DefaultNATSBucket = "shopup_file_urls"

	// CacheKeyPrefixFileURL prefixes cached CDN URLs.
	CacheKeyPrefixFileURL = "file-url:"
)

// Admin API.
const (
	// DefaultAPIVersion is the Admin API version used when none is configured.
	DefaultAPIVersion = "2024-10"

	// AccessTokenHeader carries the Admin API access token.
	AccessTokenHeader = "X-Shopify-Access-Token"

	// ShopDomainSuffix completes a bare shop handle.
	ShopDomainSuffix = ".myshopify.com"

	// DefaultUserAgent identifies the client on the API host.
	DefaultUserAgent = "shopup-go/1.0"

	// BrowserUserAgent is sent to image origins, some of which reject non-browser clients.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// ImageAccept is the Accept header sent to image origins.
	ImageAccept = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

// File statuses reported by the platform.
const (
	FileStatusUploaded   = "UPLOADED"
	FileStatusProcessing = "PROCESSING"
	FileStatusReady      = "READY"
	FileStatusFailed     = "FAILED"
)

// Content kinds for staged uploads and fileCreate.
const (
	ContentKindImage = "IMAGE"
	ContentKindFile  = "FILE"
	ContentKindVideo = "VIDEO"
)

// Metafield defaults.
const (
	// MetafieldTypeSingleLine is the default metafield type.
	MetafieldTypeSingleLine = "single_line_text_field"

	// BatchIDNamespace and BatchIDKey name the metafield that records a batch ULID.
	BatchIDNamespace = "migration"
	BatchIDKey       = "batch_id"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)
