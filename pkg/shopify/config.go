package shopify

import (
	"net/http"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/prometheus/client_golang/prometheus"
)

// Config represents client configuration for building a shopify.Client.
//
// # Shop domain
//
// ShopDomain accepts a bare handle ("my-store"), a host
// ("my-store.myshopify.com") or a full URL. shopifyclient.New normalizes it
// to "https://<handle>.myshopify.com" for bare handles, trims a trailing slash
// and adds "https://" when no scheme is present.
//
// # Timeouts and retries
//
// Requests to the Admin API retry connection errors, 429 and 5xx responses up
// to RetryMax times, honoring Retry-After. Direct uploads to storage targets
// never go through that retry layer; see UploadConfig.
type Config struct {
	// ShopDomain: the store to talk to.
	ShopDomain string
	// AccessToken: Admin API access token sent as X-Shopify-Access-Token.
	AccessToken string
	// APIVersion: dated Admin API version, e.g. "2024-10".
	APIVersion string

	// HTTPTimeout: per-request timeout for Admin API calls.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient Admin API failures.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RequestsPerSecond: optional client-side rate limit for Admin API calls.
	RequestsPerSecond float64

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// LogRequests: logs method, path, status and call budget of every Admin
	// API call at debug level, without the bodies Debug dumps.
	LogRequests bool
	// Logger: optional structured logger used by the HTTP layer and the uploader.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent to the Admin API.
	UserAgent string

	// Upload: transport, download, polling and batching behavior. Nil uses DefaultUploadConfig().
	Upload *UploadConfig
	// Cache: where CDN URLs of finished assets are remembered. Nil uses DefaultCacheConfig().
	Cache *CacheConfig
	// MetricsRegisterer: when set, client metrics are registered with it.
	MetricsRegisterer prometheus.Registerer

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
}

// TransportConfig configures the direct-upload HTTP client. It must not
// retry: a staged target is single use.
type TransportConfig struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	// HTTPClient replaces the client built from Timeout.
	HTTPClient *http.Client
}

// DownloadConfig configures fetches of source images from their origin.
type DownloadConfig struct {
	Timeout      time.Duration
	UserAgent    string
	Accept       string
	MaxBytes     int64
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// MultipartLayout selects one multipart byte layout. The default layout is
// the documented one; the Omit* switches exist for storage backends that
// reject it.
type MultipartLayout struct {
	Name string `json:"name" yaml:"name"`
	// FileFieldName is the form name of the file part, "file" when empty.
	FileFieldName string `json:"file_field_name,omitempty" yaml:"file_field_name,omitempty"`
	// ContentTypeParameter, when set, names a server parameter whose value
	// becomes the file part's Content-Type and is not emitted as a field.
	ContentTypeParameter string `json:"content_type_parameter,omitempty" yaml:"content_type_parameter,omitempty"`
	OmitFileTrailingCRLF bool   `json:"omit_file_trailing_crlf,omitempty" yaml:"omit_file_trailing_crlf,omitempty"`
	OmitFinalCRLF        bool   `json:"omit_final_crlf,omitempty"         yaml:"omit_final_crlf,omitempty"`
}

// DefaultMultipartLayout returns the standard layout.
func DefaultMultipartLayout() MultipartLayout {
	return MultipartLayout{Name: "standard", FileFieldName: "file"}
}

// UploadConfig configures the upload pipeline.
type UploadConfig struct {
	Transport TransportConfig
	Download  DownloadConfig

	// PollInterval is the fixed delay between status queries.
	PollInterval time.Duration
	// PollMaxWait bounds the wait for a CDN URL. Zero uses the default;
	// FilesClient.WaitForURL itself treats maxWait <= 0 as a single query.
	PollMaxWait time.Duration
	// PollJitter adds up to this fraction of PollInterval to each tick.
	PollJitter float64

	BatchSize int
	// BatchPause is slept after every chunk but the last. Zero uses the
	// default; set DisableBatchPause to run chunks back to back.
	BatchPause        time.Duration
	DisableBatchPause bool
	Concurrency       int

	// StagedAttempts is how many negotiated targets one upload may consume.
	StagedAttempts      int
	StagedRetryInterval time.Duration
	MetafieldRetryMax   int

	// Layouts are used in order across staged attempts, cycling.
	Layouts []MultipartLayout

	DefaultStrategy    Strategy
	DefaultContentKind string
	ProbeReferences    bool
	ProbeTimeout       time.Duration
	WaitForURL         bool
	RecordBatchID      bool
}

// DefaultUploadConfig returns the default upload configuration.
func DefaultUploadConfig() *UploadConfig {
	return &UploadConfig{
		Transport: TransportConfig{
			Timeout:          constants.ExtendedHTTPTimeout,
			MaxResponseBytes: constants.DefaultMaxResponseBytes,
		},
		Download: DownloadConfig{
			Timeout:      constants.DownloadTimeout,
			UserAgent:    constants.BrowserUserAgent,
			Accept:       constants.ImageAccept,
			MaxBytes:     constants.DefaultMaxDownloadBytes,
			RetryMax:     constants.LowRetryMax,
			RetryWaitMin: constants.DefaultRetryWaitMin,
			RetryWaitMax: constants.DefaultRetryWaitMax,
		},
		PollInterval:        constants.DefaultPollInterval,
		PollMaxWait:         constants.DefaultPollMaxWait,
		BatchSize:           constants.DefaultBatchSize,
		BatchPause:          constants.DefaultBatchPause,
		Concurrency:         constants.DefaultConcurrency,
		StagedAttempts:      constants.DefaultStagedAttempts,
		StagedRetryInterval: constants.DefaultStagedRetryInterval,
		MetafieldRetryMax:   constants.DefaultMetafieldRetryMax,
		Layouts:             []MultipartLayout{DefaultMultipartLayout()},
		DefaultStrategy:     StrategyAuto,
		DefaultContentKind:  constants.ContentKindImage,
		ProbeReferences:     true,
		ProbeTimeout:        constants.ShortHTTPTimeout,
		WaitForURL:          true,
	}
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c *UploadConfig) WithDefaults() *UploadConfig {
	defaults := DefaultUploadConfig()
	if c == nil {
		return defaults
	}

	out := *c
	if out.Transport.Timeout <= 0 {
		out.Transport.Timeout = defaults.Transport.Timeout
	}

	if out.Transport.MaxResponseBytes <= 0 {
		out.Transport.MaxResponseBytes = defaults.Transport.MaxResponseBytes
	}

	if out.Download.Timeout <= 0 {
		out.Download.Timeout = defaults.Download.Timeout
	}

	if out.Download.UserAgent == "" {
		out.Download.UserAgent = defaults.Download.UserAgent
	}

	if out.Download.Accept == "" {
		out.Download.Accept = defaults.Download.Accept
	}

	if out.Download.MaxBytes <= 0 {
		out.Download.MaxBytes = defaults.Download.MaxBytes
	}

	if out.Download.RetryWaitMin <= 0 {
		out.Download.RetryWaitMin = defaults.Download.RetryWaitMin
	}

	if out.Download.RetryWaitMax <= 0 {
		out.Download.RetryWaitMax = defaults.Download.RetryWaitMax
	}

	if out.PollInterval <= 0 {
		out.PollInterval = defaults.PollInterval
	}

	if out.PollMaxWait <= 0 {
		out.PollMaxWait = defaults.PollMaxWait
	}

	if out.BatchSize <= 0 {
		out.BatchSize = defaults.BatchSize
	}

	if out.BatchPause <= 0 {
		out.BatchPause = defaults.BatchPause
	}

	if out.Concurrency <= 0 {
		out.Concurrency = defaults.Concurrency
	}

	if out.StagedAttempts <= 0 {
		out.StagedAttempts = defaults.StagedAttempts
	}

	if out.StagedRetryInterval <= 0 {
		out.StagedRetryInterval = defaults.StagedRetryInterval
	}

	if out.MetafieldRetryMax < 0 {
		out.MetafieldRetryMax = 0
	}

	if len(out.Layouts) == 0 {
		out.Layouts = defaults.Layouts
	}

	if out.DefaultStrategy == "" {
		out.DefaultStrategy = defaults.DefaultStrategy
	}

	if out.DefaultContentKind == "" {
		out.DefaultContentKind = defaults.DefaultContentKind
	}

	if out.ProbeTimeout <= 0 {
		out.ProbeTimeout = defaults.ProbeTimeout
	}

	return &out
}

// LayoutFor returns the layout used by the given 1-based staged attempt.
func (c *UploadConfig) LayoutFor(attempt int) MultipartLayout {
	if len(c.Layouts) == 0 {
		return DefaultMultipartLayout()
	}

	if attempt < 1 {
		attempt = 1
	}

	return c.Layouts[(attempt-1)%len(c.Layouts)]
}
