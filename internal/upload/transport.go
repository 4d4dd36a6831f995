package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

// Transport sends multipart bodies to staged upload targets. It never
// retries and sends no authentication or extra headers: the target URL and
// its form parameters are the credentials.
type Transport struct {
	client           *http.Client
	maxResponseBytes int64
	logger           shopify.Logger
	metrics          *shopify.Metrics
}

// NewTransport builds a transport from config.
func NewTransport(config shopify.TransportConfig, logger shopify.Logger, metrics *shopify.Metrics) *Transport {
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = constants.ExtendedHTTPTimeout
		}

		base := http.DefaultTransport.(*http.Transport).Clone()
		// Without this net/http adds Accept-Encoding on its own.
		base.DisableCompression = true

		client = &http.Client{Timeout: timeout, Transport: base}
	}

	maxResponseBytes := config.MaxResponseBytes
	if maxResponseBytes <= 0 {
		maxResponseBytes = constants.DefaultMaxResponseBytes
	}

	return &Transport{
		client:           client,
		maxResponseBytes: maxResponseBytes,
		logger:           logger,
		metrics:          metrics,
	}
}

// Send delivers body to target. Any non-2xx status is a *shopify.TransportError
// carrying the status and a bounded copy of the response body.
func (t *Transport) Send(ctx context.Context, target *shopify.UploadTarget, body *MultipartBody) error {
	method := target.Method()

	req, err := http.NewRequestWithContext(ctx, method, target.URL, bytes.NewReader(body.Bytes))
	if err != nil {
		return &shopify.TransportError{Method: method, Host: target.Host(), Err: err}
	}

	req.ContentLength = int64(len(body.Bytes))
	req.Header.Set("Content-Type", body.ContentType())
	// net/http adds a Go User-Agent unless the header is present and empty.
	req.Header["User-Agent"] = []string{""}

	if t.logger != nil {
		t.logger.Debug("sending staged upload", map[string]interface{}{
			"method": method,
			"host":   target.Host(),
			"bytes":  len(body.Bytes),
		})
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &shopify.TransportError{Method: method, Host: target.Host(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, t.maxResponseBytes))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &shopify.TransportError{
			Method:     method,
			Host:       target.Host(),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("%w: status %d", errTargetRejected, resp.StatusCode),
		}
	}

	t.metrics.AddUploadedBytes(len(body.Bytes))

	return nil
}
