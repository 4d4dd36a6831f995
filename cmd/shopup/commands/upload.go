package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// uploadView is the printable outcome of one upload.
type uploadView struct {
	Index         *int   `json:"index,omitempty"          yaml:"index,omitempty"`
	Source        string `json:"source,omitempty"         yaml:"source,omitempty"`
	AssetID       string `json:"asset_id,omitempty"       yaml:"asset_id,omitempty"`
	Status        string `json:"status,omitempty"         yaml:"status,omitempty"`
	Strategy      string `json:"strategy,omitempty"       yaml:"strategy,omitempty"`
	URL           string `json:"url,omitempty"            yaml:"url,omitempty"`
	Attempts      int    `json:"attempts,omitempty"       yaml:"attempts,omitempty"`
	Fallback      bool   `json:"fallback,omitempty"       yaml:"fallback,omitempty"`
	Processing    bool   `json:"processing,omitempty"     yaml:"processing,omitempty"`
	BatchID       string `json:"batch_id,omitempty"       yaml:"batch_id,omitempty"`
	ImageID       int64  `json:"image_id,omitempty"       yaml:"image_id,omitempty"`
	MetadataError string `json:"metadata_error,omitempty" yaml:"metadata_error,omitempty"`
	PollError     string `json:"poll_error,omitempty"     yaml:"poll_error,omitempty"`
	Error         string `json:"error,omitempty"          yaml:"error,omitempty"`
	Step          string `json:"step,omitempty"           yaml:"step,omitempty"`
}

func newUploadView(source string, result *shopify.UploadResult, err error) uploadView {
	view := uploadView{Source: source}

	if err != nil {
		view.Error = err.Error()
		view.Step = shopify.StepOf(err)
	}

	if result == nil {
		return view
	}

	view.Strategy = string(result.Strategy)
	view.URL = result.URL
	view.Attempts = result.Attempts
	view.Fallback = result.Fallback
	view.Processing = result.Processing()
	view.BatchID = result.BatchID

	if result.Asset != nil {
		view.AssetID = result.Asset.ID
		view.Status = string(result.Asset.Status)
	}

	if result.MetadataError != nil {
		view.MetadataError = result.MetadataError.Error()
	}

	if result.PollError != nil {
		view.PollError = result.PollError.Error()
	}

	return view
}

func appendUploadRows(table *tablewriter.Table, view uploadView) {
	_ = table.Append([]string{"Source", orNA(view.Source)})
	_ = table.Append([]string{"Asset ID", orNA(view.AssetID)})
	_ = table.Append([]string{"Status", orNA(view.Status)})
	_ = table.Append([]string{"Strategy", orNA(view.Strategy)})
	_ = table.Append([]string{"URL", orNA(view.URL)})
	_ = table.Append([]string{"Attempts", strconv.Itoa(view.Attempts)})
	_ = table.Append([]string{"Fallback", strconv.FormatBool(view.Fallback)})
	_ = table.Append([]string{"Processing", strconv.FormatBool(view.Processing)})

	if view.ImageID != 0 {
		_ = table.Append([]string{"Image ID", strconv.FormatInt(view.ImageID, 10)})
	}

	if view.MetadataError != "" {
		_ = table.Append([]string{"Metadata Error", view.MetadataError})
	}

	if view.PollError != "" {
		_ = table.Append([]string{"Poll Error", view.PollError})
	}
}

type uploadOptions struct {
	url           string
	alternateURLs []string
	filename      string
	contentType   string
	alt           string
	strategy      string
	unreliable    bool
	noWait        bool
	metafields    []string
	metafieldType string
	productID     int64
	variants      []string
	maxWait       time.Duration
}

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload [FILE]",
		Short: "Upload one image",
		Long: `Upload a local file or register a remote URL as a store file.

With --product and --variant the uploaded image is also attached to the
product and associated with the given variants.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "remote image URL instead of a local file")
	cmd.Flags().StringSliceVar(&opts.alternateURLs, "alternate-url", nil, "fallback URL tried when the primary download fails (repeatable)")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "filename reported to the platform")
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "MIME type; sniffed when empty")
	cmd.Flags().StringVar(&opts.alt, "alt", "", "alt text")
	cmd.Flags().StringVar(&opts.strategy, "strategy", string(shopify.StrategyAuto), "upload strategy (auto, reference, staged)")
	cmd.Flags().BoolVar(&opts.unreliable, "unreliable", false, "mark the URL as unreliable so it is downloaded and staged")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "return without waiting for a CDN URL")
	cmd.Flags().StringSliceVarP(&opts.metafields, "metafield", "m", nil, "metafield as namespace.key=value (repeatable)")
	cmd.Flags().StringVar(&opts.metafieldType, "metafield-type", constants.MetafieldTypeSingleLine, "type of the metafields")
	cmd.Flags().Int64Var(&opts.productID, "product", 0, "product to attach the image to")
	cmd.Flags().StringSliceVar(&opts.variants, "variant", nil, "variant ids to associate with the image (repeatable or comma separated)")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", constants.DefaultPollMaxWait, "how long to wait for a CDN URL")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string, opts *uploadOptions) error {
	source, label, err := buildSource(args, opts)
	if err != nil {
		return err
	}

	metafields, err := parseMetafields(opts.metafields, opts.metafieldType)
	if err != nil {
		return err
	}

	variantIDs, err := parseIDs(opts.variants)
	if err != nil {
		return err
	}

	metadata := shopify.UploadMetadata{
		Alt:        opts.alt,
		Strategy:   shopify.Strategy(opts.strategy),
		Metafields: metafields,
	}

	if opts.noWait {
		wait := false
		metadata.WaitForURL = &wait
	}

	uploadConfig := shopify.DefaultUploadConfig()
	uploadConfig.PollMaxWait = opts.maxWait

	client, err := clientFactory(cmd.Context(), uploadConfig)
	if err != nil {
		return err
	}
	defer client.Close()

	var view uploadView

	if opts.productID > 0 || len(variantIDs) > 0 {
		result, err := client.Uploader().UploadForVariants(cmd.Context(), source, opts.productID, variantIDs, metadata)
		if result == nil {
			return err
		}

		view = newUploadView(label, result.UploadResult, err)
		if result.Image != nil {
			view.ImageID = result.Image.ID
		}
	} else {
		result, err := client.Uploader().UploadOne(cmd.Context(), source, metadata)
		if err != nil {
			return err
		}

		view = newUploadView(label, result, nil)
	}

	renderErr := render(cmd.OutOrStdout(), view, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")
		appendUploadRows(table, view)

		return nil
	})
	if renderErr != nil {
		return renderErr
	}

	if view.Error != "" {
		return fmt.Errorf("%s: %s", view.Step, view.Error)
	}

	return nil
}

func buildSource(args []string, opts *uploadOptions) (shopify.UploadSource, string, error) {
	source := shopify.UploadSource{
		URL:           opts.url,
		AlternateURLs: opts.alternateURLs,
		Filename:      opts.filename,
		ContentType:   opts.contentType,
	}

	if opts.unreliable {
		source.Reliability = shopify.ReliabilityUnreliable
	}

	if len(args) == 0 {
		if opts.url == "" {
			return source, "", constants.ErrSourceRequired
		}

		return source, opts.url, nil
	}

	path := filepath.Clean(args[0])

	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's own argument
	if err != nil {
		return source, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	source.Data = data
	if source.Filename == "" {
		source.Filename = filepath.Base(path)
	}

	return source, path, nil
}
