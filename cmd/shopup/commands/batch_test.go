package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "manifest.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	t.Run("resolves files relative to the manifest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "shoes"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "shoes", "red.jpg"), testJPEG, 0o600))

		path := writeManifest(t, dir, `items:
  - file: shoes/red.jpg
    alt: Red shoe
    metafields:
      migration.product_id: "100000001"
      custom.colour: red
  - url: https://images.example.com/blue.jpg
    alternate_urls: [https://mirror.example.com/blue.jpg]
    strategy: reference
    unreliable: true
`)

		requests, labels, err := loadManifest(path)
		require.NoError(t, err)
		require.Len(t, requests, 2)

		assert.Equal(t, filepath.Join(dir, "shoes", "red.jpg"), labels[0])
		assert.Equal(t, testJPEG, requests[0].Source.Data)
		assert.Equal(t, "red.jpg", requests[0].Source.Filename)
		assert.Equal(t, "Red shoe", requests[0].Metadata.Alt)
		assert.Equal(t, []shopify.MetafieldInput{
			{Namespace: "custom", Key: "colour", Value: "red", Type: constants.MetafieldTypeSingleLine},
			{Namespace: "migration", Key: "product_id", Value: "100000001", Type: constants.MetafieldTypeSingleLine},
		}, requests[0].Metadata.Metafields)

		assert.Equal(t, "https://images.example.com/blue.jpg", labels[1])
		assert.Equal(t, shopify.StrategyReference, requests[1].Metadata.Strategy)
		assert.Equal(t, shopify.ReliabilityUnreliable, requests[1].Source.Reliability)
		assert.Equal(t, []string{"https://mirror.example.com/blue.jpg"}, requests[1].Source.AlternateURLs)
	})

	t.Run("empty manifest", func(t *testing.T) {
		t.Parallel()

		_, _, err := loadManifest(writeManifest(t, t.TempDir(), "items: []\n"))
		require.ErrorIs(t, err, constants.ErrEmptyManifest)
	})

	t.Run("item without source", func(t *testing.T) {
		t.Parallel()

		_, _, err := loadManifest(writeManifest(t, t.TempDir(), "items:\n  - alt: nothing\n"))
		require.ErrorIs(t, err, constants.ErrSourceRequired)
		assert.Contains(t, err.Error(), "manifest item 0")
	})

	t.Run("bad metafield", func(t *testing.T) {
		t.Parallel()

		_, _, err := loadManifest(writeManifest(t, t.TempDir(), "items:\n  - url: https://images.example.com/a.jpg\n    metafields:\n      nodot: x\n"))
		require.ErrorIs(t, err, constants.ErrInvalidMetafieldFlag)
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()

		_, _, err := loadManifest(filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read manifest")
	})
}

func TestBatchCommand_ReportsEveryItem(t *testing.T) {
	stub := newAdminStub(t)
	useOutput(t, constants.FormatJSON)

	good := stub.imageURL("red.jpg")
	rejected := stub.imageURL("rejected.jpg")

	path := writeManifest(t, t.TempDir(), "items:\n  - url: "+good+"\n  - url: "+rejected+"\n    strategy: reference\n")

	var out bytes.Buffer

	cmd := NewBatchCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--no-wait", "--pause", "0s"})

	err := cmd.ExecuteContext(t.Context())
	require.ErrorIs(t, err, constants.ErrBatchItemsFailed)
	assert.Contains(t, err.Error(), "1 of 2")

	var views []uploadView
	require.NoError(t, json.Unmarshal(out.Bytes(), &views))
	require.Len(t, views, 2)

	require.NotNil(t, views[0].Index)
	assert.Equal(t, 0, *views[0].Index)
	assert.Equal(t, good, views[0].Source)
	assert.NotEmpty(t, views[0].AssetID)
	assert.Empty(t, views[0].Error)

	require.NotNil(t, views[1].Index)
	assert.Equal(t, 1, *views[1].Index)
	assert.Equal(t, rejected, views[1].Source)
	assert.Empty(t, views[1].AssetID)
	assert.NotEmpty(t, views[1].Error)
}
