package upload_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/arassai75/ShopifyLib-sub000/internal/upload"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBody(t *testing.T) *upload.MultipartBody {
	t.Helper()

	body, err := upload.BuildMultipart(stagedParams(), upload.FilePart{
		Filename:    "shoe.jpg",
		ContentType: "image/jpeg",
		Data:        jpegBytes,
	}, shopify.DefaultMultipartLayout())
	require.NoError(t, err)

	return body
}

func TestTransport_Send(t *testing.T) {
	t.Parallel()

	body := buildBody(t)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/upload-bucket", request.URL.Path)
		assert.Equal(t, body.ContentType(), request.Header.Get("Content-Type"))
		assert.Empty(t, request.Header.Get("User-Agent"))
		assert.Empty(t, request.Header.Get("Authorization"))
		assert.Empty(t, request.Header.Get("X-Shopify-Access-Token"))
		assert.Equal(t, int64(len(body.Bytes)), request.ContentLength)

		for name := range request.Header {
			assert.Contains(t, []string{"Content-Type", "Content-Length"}, name, "unexpected header %s", name)
		}

		received, err := io.ReadAll(request.Body)
		assert.NoError(t, err)
		assert.Equal(t, body.Bytes, received)

		writer.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	transport := upload.NewTransport(shopify.TransportConfig{}, nil, nil)
	target := &shopify.UploadTarget{URL: server.URL + "/upload-bucket", Parameters: stagedParams()}

	err := transport.Send(context.Background(), target, body)
	require.NoError(t, err)
}

func TestTransport_SendPut(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPut, request.Method)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := upload.NewTransport(shopify.TransportConfig{}, nil, nil)
	target := &shopify.UploadTarget{URL: server.URL, HTTPMethod: "put"}

	require.NoError(t, transport.Send(context.Background(), target, buildBody(t)))
}

func TestTransport_RejectionIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		calls.Add(1)
		writer.Header().Set("Content-Type", "application/xml")
		writer.WriteHeader(http.StatusForbidden)
		_, _ = writer.Write([]byte(`<Error><Code>AccessDenied</Code><Message>Request has expired</Message></Error>`))
	}))
	defer server.Close()

	transport := upload.NewTransport(shopify.TransportConfig{}, nil, nil)
	target := &shopify.UploadTarget{URL: server.URL}

	err := transport.Send(context.Background(), target, buildBody(t))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	transportErr := &shopify.TransportError{}
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusForbidden, transportErr.StatusCode)
	assert.Contains(t, transportErr.Body, "AccessDenied")
	assert.True(t, shopify.IsTransportFailure(err))
	assert.Equal(t, shopify.StepSend, shopify.StepOf(err))
	assert.Contains(t, err.Error(), "403")
}

func TestTransport_ServerErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		calls.Add(1)
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	transport := upload.NewTransport(shopify.TransportConfig{}, nil, nil)

	err := transport.Send(context.Background(), &shopify.UploadTarget{URL: server.URL}, buildBody(t))
	require.True(t, shopify.IsTransportFailure(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransport_ResponseBodyIsBounded(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	transport := upload.NewTransport(shopify.TransportConfig{MaxResponseBytes: 100}, nil, nil)

	err := transport.Send(context.Background(), &shopify.UploadTarget{URL: server.URL}, buildBody(t))

	transportErr := &shopify.TransportError{}
	require.ErrorAs(t, err, &transportErr)
	assert.Len(t, transportErr.Body, 100)
}

func TestTransport_ConnectionFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
	url := server.URL
	server.Close()

	transport := upload.NewTransport(shopify.TransportConfig{}, nil, nil)

	err := transport.Send(context.Background(), &shopify.UploadTarget{URL: url}, buildBody(t))

	transportErr := &shopify.TransportError{}
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.StatusCode)
	assert.Error(t, transportErr.Err)
}
