package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/hashicorp/go-retryablehttp"
)

var (
	errTargetRejected = errors.New("storage target rejected the upload")
	errEmptyDownload  = errors.New("origin returned an empty body")
)

// Download is a fetched source image.
type Download struct {
	URL         string
	Data        []byte
	ContentType string
	Filename    string
}

// Downloader fetches source images with browser-like headers; some image
// origins refuse anything else.
type Downloader struct {
	client    *retryablehttp.Client
	userAgent string
	accept    string
	maxBytes  int64
	logger    shopify.Logger
}

// NewDownloader builds a downloader from config.
func NewDownloader(config shopify.DownloadConfig, logger shopify.Logger) *Downloader {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = config.RetryWaitMin
	client.RetryWaitMax = config.RetryWaitMax
	client.HTTPClient.Timeout = config.Timeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if client.HTTPClient.Timeout <= 0 {
		client.HTTPClient.Timeout = constants.DownloadTimeout
	}

	maxBytes := config.MaxBytes
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxDownloadBytes
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = constants.BrowserUserAgent
	}

	accept := config.Accept
	if accept == "" {
		accept = constants.ImageAccept
	}

	return &Downloader{
		client:    client,
		userAgent: userAgent,
		accept:    accept,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Fetch downloads rawURL. Every failure is a *shopify.DownloadError.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &shopify.DownloadError{URL: rawURL, Err: err}
	}

	d.setHeaders(req.Header)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &shopify.DownloadError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &shopify.DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, &shopify.DownloadError{URL: rawURL, Err: err}
	}

	if int64(len(data)) > d.maxBytes {
		return nil, &shopify.DownloadError{
			URL: rawURL,
			Err: fmt.Errorf("%w: more than %d bytes", shopify.ErrResponseTooLarge, d.maxBytes),
		}
	}

	if len(data) == 0 {
		return nil, &shopify.DownloadError{URL: rawURL, Err: errEmptyDownload}
	}

	contentType := DetectContentType(data, resp.Header.Get("Content-Type"))

	if d.logger != nil {
		d.logger.Debug("downloaded source image", map[string]interface{}{
			"url":          rawURL,
			"bytes":        len(data),
			"content_type": contentType,
		})
	}

	return &Download{
		URL:         rawURL,
		Data:        data,
		ContentType: contentType,
		Filename:    EnsureFilename("", rawURL, data),
	}, nil
}

// Probe checks that rawURL answers within timeout. It tries HEAD and falls
// back to GET for origins that do not implement HEAD. Probes are not retried.
func (d *Downloader) Probe(ctx context.Context, rawURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := d.probeOnce(ctx, http.MethodHead, rawURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = d.probeOnce(ctx, http.MethodGet, rawURL)
	}

	if err != nil {
		return &shopify.DownloadError{URL: rawURL, Err: err}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &shopify.DownloadError{URL: rawURL, StatusCode: status}
	}

	return nil
}

func (d *Downloader) probeOnce(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}

	d.setHeaders(req.Header)

	resp, err := d.client.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}

	_ = resp.Body.Close()

	return resp.StatusCode, nil
}

func (d *Downloader) setHeaders(header http.Header) {
	header.Set("User-Agent", d.userAgent)
	header.Set("Accept", d.accept)
}
