package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Manifest lists the items of a batch upload.
type Manifest struct {
	Items []ManifestItem `yaml:"items"`
}

// ManifestItem is one image in a manifest. File paths are relative to the manifest.
type ManifestItem struct {
	File          string            `yaml:"file,omitempty"`
	URL           string            `yaml:"url,omitempty"`
	AlternateURLs []string          `yaml:"alternate_urls,omitempty"`
	Filename      string            `yaml:"filename,omitempty"`
	Alt           string            `yaml:"alt,omitempty"`
	Strategy      string            `yaml:"strategy,omitempty"`
	Unreliable    bool              `yaml:"unreliable,omitempty"`
	Metafields    map[string]string `yaml:"metafields,omitempty"`
}

type batchOptions struct {
	batchSize     int
	pause         time.Duration
	concurrency   int
	recordBatchID bool
	noWait        bool
	maxWait       time.Duration
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Upload every image listed in a manifest",
		Long: `Upload the images listed in a YAML manifest in chunks, pausing between
chunks. A failing item does not stop the batch; every item is reported.`,
		Example: `  items:
    - file: shoes/red.jpg
      alt: Red shoe
      metafields:
        migration.product_id: "100000001"
    - url: https://images.example.com/blue.jpg
      alternate_urls: [https://mirror.example.com/blue.jpg]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.batchSize, "batch-size", constants.DefaultBatchSize, "items per chunk")
	cmd.Flags().DurationVar(&opts.pause, "pause", constants.DefaultBatchPause, "pause between chunks (0 disables it)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", constants.DefaultConcurrency, "parallel uploads inside a chunk")
	cmd.Flags().BoolVar(&opts.recordBatchID, "record-batch-id", false, "write a batch id metafield on every asset")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "do not wait for CDN URLs")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", constants.DefaultPollMaxWait, "how long to wait for each CDN URL")

	return cmd
}

func runBatch(cmd *cobra.Command, manifestPath string, opts *batchOptions) error {
	requests, labels, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	uploadConfig := shopify.DefaultUploadConfig()
	uploadConfig.BatchSize = opts.batchSize
	uploadConfig.BatchPause = opts.pause
	uploadConfig.DisableBatchPause = opts.pause <= 0
	uploadConfig.Concurrency = opts.concurrency
	uploadConfig.RecordBatchID = opts.recordBatchID
	uploadConfig.PollMaxWait = opts.maxWait
	uploadConfig.WaitForURL = !opts.noWait

	client, err := clientFactory(cmd.Context(), uploadConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	results := client.Uploader().UploadMany(cmd.Context(), requests)

	views := make([]uploadView, len(results))
	failed := 0

	for i, result := range results {
		index := result.Index
		views[i] = newUploadView(labels[result.Index], result.Result, result.Err)
		views[i].Index = &index

		if !result.Success() {
			failed++
		}
	}

	err = render(cmd.OutOrStdout(), views, func(table *tablewriter.Table) error {
		table.Header("#", "Source", "Asset ID", "Status", "URL", "Error")

		for _, view := range views {
			message := view.Error
			if message == "" {
				message = view.MetadataError
			}

			_ = table.Append([]string{
				strconv.Itoa(*view.Index),
				view.Source,
				orNA(view.AssetID),
				orNA(view.Status),
				orNA(view.URL),
				message,
			})
		}

		return nil
	})
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", constants.ErrBatchItemsFailed, failed, len(results))
	}

	return nil
}

// loadManifest parses the manifest and reads local files. The returned
// labels name each item's source for reporting.
func loadManifest(manifestPath string) ([]shopify.UploadRequest, []string, error) {
	data, err := os.ReadFile(filepath.Clean(manifestPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest

	err = yaml.Unmarshal(data, &manifest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if len(manifest.Items) == 0 {
		return nil, nil, constants.ErrEmptyManifest
	}

	baseDir := filepath.Dir(manifestPath)
	requests := make([]shopify.UploadRequest, len(manifest.Items))
	labels := make([]string, len(manifest.Items))

	for i, item := range manifest.Items {
		request, label, err := manifestRequest(baseDir, item)
		if err != nil {
			return nil, nil, fmt.Errorf("manifest item %d: %w", i, err)
		}

		requests[i] = request
		labels[i] = label
	}

	return requests, labels, nil
}

func manifestRequest(baseDir string, item ManifestItem) (shopify.UploadRequest, string, error) {
	args := []string{}
	if item.File != "" {
		file := item.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}

		args = append(args, file)
	}

	source, label, err := buildSource(args, &uploadOptions{
		url:           item.URL,
		alternateURLs: item.AlternateURLs,
		filename:      item.Filename,
		unreliable:    item.Unreliable,
	})
	if err != nil {
		return shopify.UploadRequest{}, "", err
	}

	names := make([]string, 0, len(item.Metafields))
	for name := range item.Metafields {
		names = append(names, name)
	}

	sort.Strings(names)

	flags := make([]string, 0, len(names))
	for _, name := range names {
		flags = append(flags, name+"="+item.Metafields[name])
	}

	metafields, err := parseMetafields(flags, constants.MetafieldTypeSingleLine)
	if err != nil {
		return shopify.UploadRequest{}, "", err
	}

	return shopify.UploadRequest{
		Source: source,
		Metadata: shopify.UploadMetadata{
			Alt:        item.Alt,
			Strategy:   shopify.Strategy(item.Strategy),
			Metafields: metafields,
		},
	}, label, nil
}
