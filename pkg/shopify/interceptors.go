package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	metadataStartTime = "start_time"
	callLimitHeader   = "X-Shopify-Shop-Api-Call-Limit"
)

// Request is the view of an outgoing Admin API call that interceptors may
// inspect and amend. Metadata carries values from request to response
// interceptors of the same call.
type Request struct {
	Method   string
	Path     string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is the outcome of an Admin API call. StatusCode is zero when no
// response arrived.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

type (
	RequestInterceptor  func(ctx context.Context, req *Request) error
	ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error
)

// InterceptorChain runs interceptors in registration order and stops at the
// first error.
type InterceptorChain struct {
	onRequest  []RequestInterceptor
	onResponse []ResponseInterceptor
}

func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.onRequest = append(c.onRequest, interceptor)
}

func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.onResponse = append(c.onResponse, interceptor)
}

// Empty reports whether the chain has no interceptors. A nil chain is empty.
func (c *InterceptorChain) Empty() bool {
	return c == nil || len(c.onRequest)+len(c.onResponse) == 0
}

func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	if c == nil {
		return nil
	}

	for i, interceptor := range c.onRequest {
		if err := interceptor(ctx, req); err != nil {
			return fmt.Errorf("request interceptor %d failed: %w", i, err)
		}
	}

	return nil
}

func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	if c == nil {
		return nil
	}

	for i, interceptor := range c.onResponse {
		if err := interceptor(ctx, req, resp); err != nil {
			return fmt.Errorf("response interceptor %d failed: %w", i, err)
		}
	}

	return nil
}

// LoggingInterceptor logs one line per outgoing Admin API request.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		fields := map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		}

		if len(req.Body) > 0 {
			fields["has_body"] = true
		}

		logger.Debug("API Request", fields)

		return nil
	}
}

// LoggingResponseInterceptor logs each response with the shop's REST call
// budget, taken from the call limit header, when present.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
		}

		if limit := resp.Headers.Get(callLimitHeader); limit != "" {
			fields["call_limit"] = limit
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// RateLimitInterceptor paces requests on the client so a long batch stays
// under the shop's leaky bucket instead of collecting 429s.
func RateLimitInterceptor(requestsPerSecond float64) RequestInterceptor {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(ctx context.Context, req *Request) error {
		err := limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// MetricsRequestInterceptor stamps the start time read by MetricsResponseInterceptor.
func MetricsRequestInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[metadataStartTime] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor counts the call by method and status, using
// "error" when no response arrived, and records its latency.
func MetricsResponseInterceptor(metrics *Metrics) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		status := strconv.Itoa(resp.StatusCode)
		if resp.StatusCode == 0 {
			status = "error"
		}

		var elapsed time.Duration

		if startTime, ok := req.Metadata[metadataStartTime].(time.Time); ok {
			elapsed = time.Since(startTime)
		}

		metrics.ObserveRequest(req.Method, status, elapsed)

		return nil
	}
}
