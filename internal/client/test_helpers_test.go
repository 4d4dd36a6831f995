package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/auth"
	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	internalhttp "github.com/arassai75/ShopifyLib-sub000/internal/http"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIVersion = constants.DefaultAPIVersion

var (
	graphQLPath     = "/admin/api/" + testAPIVersion + "/graphql.json"
	operationNameRe = regexp.MustCompile(`^\s*(?:query|mutation)\s+(\w+)`)
)

// graphQLCall is one request received by a fake GraphQL endpoint.
type graphQLCall struct {
	Operation string
	Query     string
	Variables map[string]interface{}
}

// graphQLResponder returns the full JSON response body for a call.
type graphQLResponder func(call graphQLCall) interface{}

// callLog counts GraphQL operations received by a fake server.
type callLog struct {
	mu    sync.Mutex
	calls []graphQLCall
}

func (l *callLog) add(call graphQLCall) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, call)
}

func (l *callLog) count(operation string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0

	for _, call := range l.calls {
		if call.Operation == operation {
			n++
		}
	}

	return n
}

func (l *callLog) last(operation string) graphQLCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.calls) - 1; i >= 0; i-- {
		if l.calls[i].Operation == operation {
			return l.calls[i]
		}
	}

	return graphQLCall{}
}

// graphQLHandler dispatches GraphQL requests to responders by operation name.
func graphQLHandler(t *testing.T, log *callLog, responders map[string]graphQLResponder) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-token", r.Header.Get(constants.AccessTokenHeader))

		var body struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}

		err := json.NewDecoder(r.Body).Decode(&body)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		call := graphQLCall{Query: body.Query, Variables: body.Variables}
		if match := operationNameRe.FindStringSubmatch(body.Query); match != nil {
			call.Operation = match[1]
		}

		log.add(call)

		responder, ok := responders[call.Operation]
		if !assert.True(t, ok, "unexpected operation %q", call.Operation) {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(responder(call))
	}
}

// newGraphQLServer starts a fake Admin API that only serves GraphQL.
func newGraphQLServer(t *testing.T, responders map[string]graphQLResponder) (*httptest.Server, *callLog) {
	t.Helper()

	log := &callLog{}
	mux := http.NewServeMux()
	mux.HandleFunc(graphQLPath, graphQLHandler(t, log, responders))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, log
}

func gqlData(data interface{}) map[string]interface{} {
	return map[string]interface{}{"data": data}
}

func userErrors(field, message string) []map[string]interface{} {
	return []map[string]interface{}{{"field": []string{"files", "0", field}, "message": message}}
}

// newTestHTTPClient returns an Admin API client that never retries.
func newTestHTTPClient(baseURL string) *internalhttp.Client {
	return internalhttp.NewClient(baseURL, auth.NewStaticTokenManager("test-token"),
		internalhttp.WithRetryConfig(0, time.Millisecond, time.Millisecond))
}

// newTestGraphQLClient returns a GraphQL client with fast throttle retries.
func newTestGraphQLClient(baseURL string) *GraphQLClient {
	graphql := NewGraphQLClient(newTestHTTPClient(baseURL), testAPIVersion)
	graphql.throttleInterval = time.Millisecond

	return graphql
}

// NewTestClient creates a new test client with the given base URL.
func NewTestClient(baseURL string, uploadConfig *shopify.UploadConfig) *Client {
	client := &Client{
		httpClient: newTestHTTPClient(baseURL),
		baseURL:    baseURL,
		apiVersion: testAPIVersion,
		cache:      shopify.NewNoOpCache(),
	}

	client.initializeResourceClients(uploadConfig, nil)
	client.graphql.throttleInterval = time.Millisecond

	return client
}

// fastUploadConfig keeps every wait in the pipeline in the millisecond range.
func fastUploadConfig() *shopify.UploadConfig {
	config := shopify.DefaultUploadConfig()
	config.Transport.Timeout = 2 * time.Second
	config.Download.Timeout = 200 * time.Millisecond
	config.Download.RetryMax = 0
	config.PollInterval = 5 * time.Millisecond
	config.PollMaxWait = 500 * time.Millisecond
	config.DisableBatchPause = true
	config.StagedRetryInterval = time.Millisecond
	config.ProbeTimeout = 100 * time.Millisecond

	return config
}

// testJPEG returns a 68-byte JPEG-shaped payload with high-bit bytes.
func testJPEG() []byte {
	header := []byte{
		0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F',
		0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	}

	data := make([]byte, 68)
	copy(data, header)

	for i := len(header); i < 66; i++ {
		data[i] = byte(0x80 + i)
	}

	data[66], data[67] = 0xFF, 0xD9

	return data
}

func requireStep(t *testing.T, err error, step string) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, step, shopify.StepOf(err), "error: %v", err)
}
