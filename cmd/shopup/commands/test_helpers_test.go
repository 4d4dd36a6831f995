package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopifyclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// testJPEG is enough of a JPEG for content sniffing.
var testJPEG = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x01}, 57)...)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	return names
}

// useOutput sets the global output format for the duration of a test.
func useOutput(t *testing.T, format string) {
	t.Helper()

	previous := viper.GetString("output")
	viper.Set("output", format)

	t.Cleanup(func() { viper.Set("output", previous) })
}

// adminStub answers the handful of Admin API operations the CLI tests drive.
type adminStub struct {
	server *httptest.Server

	mu      sync.Mutex
	sources []string
}

func newAdminStub(t *testing.T) *adminStub {
	t.Helper()

	stub := &adminStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(stub.handle))
	t.Cleanup(stub.server.Close)

	previous := clientFactory
	clientFactory = func(ctx context.Context, upload *shopify.UploadConfig) (shopify.Client, error) {
		return shopifyclient.New(ctx, &shopify.Config{
			ShopDomain:  stub.server.URL,
			AccessToken: "shpat_test",
			Upload:      upload,
		})
	}

	t.Cleanup(func() { clientFactory = previous })

	return stub
}

func (s *adminStub) handle(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/images/") {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(testJPEG)

		return
	}

	if !strings.HasSuffix(r.URL.Path, "/graphql.json") {
		http.NotFound(w, r)

		return
	}

	var body struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}

	data, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(data, &body)

	w.Header().Set("Content-Type", "application/json")

	if !strings.Contains(body.Query, "fileCreate(") {
		_, _ = w.Write([]byte(`{"errors":[{"message":"operation not supported by stub"}]}`))

		return
	}

	files, _ := body.Variables["files"].([]interface{})
	input, _ := files[0].(map[string]interface{})
	source, _ := input["originalSource"].(string)
	alt, _ := input["alt"].(string)

	s.mu.Lock()
	s.sources = append(s.sources, source)
	count := len(s.sources)
	s.mu.Unlock()

	if strings.Contains(source, "rejected") {
		_, _ = w.Write([]byte(`{"data":{"fileCreate":{"files":[],"userErrors":[{"field":["files","0","originalSource"],"message":"Image URL is invalid","code":"INVALID"}]}}}`))

		return
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{
			"fileCreate": map[string]interface{}{
				"files": []interface{}{map[string]interface{}{
					"id":         "gid://shopify/MediaImage/" + strconv.Itoa(1000+count),
					"fileStatus": "UPLOADED",
					"alt":        alt,
					"fileErrors": []interface{}{},
				}},
				"userErrors": []interface{}{},
			},
		},
	})
}

func (s *adminStub) imageURL(name string) string {
	return s.server.URL + "/images/" + name
}

func (s *adminStub) finalizedSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.sources...)
}
