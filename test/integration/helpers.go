//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Shop       string
	Token      string
	ImageURL   string
	ShopupPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Shop:       os.Getenv("SHOPUP_IT_SHOP"),
		Token:      os.Getenv("SHOPUP_IT_TOKEN"),
		ImageURL:   os.Getenv("SHOPUP_IT_IMAGE_URL"),
		ShopupPath: getShopupPath(),
		Verbose:    os.Getenv("SHOPUP_VERBOSE") == "true",
	}
}

func getShopupPath() string {
	if path := os.Getenv("SHOPUP_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../shopup", "./shopup", "../shopup"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "shopup"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Shop == "" || config.Token == "" {
		t.Skip("SHOPUP_IT_SHOP or SHOPUP_IT_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.ShopupPath); err != nil {
		t.Skipf("shopup binary not found at %s, skipping integration test", config.ShopupPath)
	}
}

// CommandRunner runs the shopup binary against the configured development store.
type CommandRunner struct {
	config *TestConfig
	home   string
	t      *testing.T
}

// NewCommandRunner creates a runner with an isolated HOME so the developer's
// own configuration file is never read or written.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config: config,
		home:   t.TempDir(),
		t:      t,
	}
}

// Run executes a shopup command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.ShopupPath, args...) // #nosec G204 -- test binary
	cmd.Env = append(os.Environ(),
		"HOME="+runner.home,
		"SHOPUP_SHOP="+runner.config.Shop,
		"SHOPUP_TOKEN="+runner.config.Token,
	)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.ShopupPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a command with --output json and decodes the result into out.
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) error {
	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	if err != nil {
		return fmt.Errorf("%w: %s", err, stderr)
	}

	return jsonUnmarshal(stdout, out)
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return strings.ToLower(fmt.Sprintf("%s-%s", prefix, ulid.Make().String()))
}

// WriteTestImage writes a small PNG with a colour derived from the current
// time, so the store never deduplicates it against an earlier run.
func WriteTestImage(t *testing.T, dir, name string) string {
	t.Helper()

	now := time.Now().UnixNano()
	fill := color.RGBA{R: uint8(now), G: uint8(now >> 8), B: uint8(now >> 16), A: 255} // #nosec G115

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := range 16 {
		for y := range 16 {
			img.Set(x, y, fill)
		}
	}

	path := filepath.Join(dir, name)

	file, err := os.Create(filepath.Clean(path))
	require.NoError(t, err)

	defer func() { _ = file.Close() }()

	require.NoError(t, png.Encode(file, img))

	return path
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not valid JSON: %s", output)
	}
}

func jsonUnmarshal(output string, out interface{}) error {
	err := json.Unmarshal([]byte(output), out)
	if err != nil {
		return fmt.Errorf("decoding output %q: %w", output, err)
	}

	return nil
}
