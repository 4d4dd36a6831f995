package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopifyclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// clientFactory builds the Admin API client used by commands. Tests replace it.
var clientFactory = createClient

func createClient(ctx context.Context, upload *shopify.UploadConfig) (shopify.Client, error) {
	config := loadConfig()

	if config.Shop == "" {
		return nil, constants.ErrNoShopConfigured
	}

	if config.Token == "" {
		return nil, constants.ErrNoTokenConfigured
	}

	logRequests := viper.GetBool("log_requests")

	logger, err := newLogger(viper.GetBool("verbose") || logRequests)
	if err != nil {
		return nil, err
	}

	client, err := shopifyclient.New(ctx, &shopify.Config{
		ShopDomain:  config.Shop,
		AccessToken: config.Token,
		APIVersion:  config.APIVersion,
		Logger:      shopify.NewZapLogger(logger),
		Debug:       viper.GetBool("verbose"),
		LogRequests: logRequests,
		RetryMax:    constants.DefaultRetryMax,
		Upload:      upload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// newLogger returns a development logger when verbose, otherwise a
// production logger that only reports warnings and above.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}

		return logger, nil
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return logger, nil
}

// render writes value as json or yaml, or calls table for the default format.
func render(w io.Writer, value interface{}, table func(*tablewriter.Table) error) error {
	switch format := viper.GetString("output"); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(value)
	case "", "table":
		t := tablewriter.NewWriter(w)

		err := table(t)
		if err != nil {
			return err
		}

		err = t.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutputType, format)
	}
}

// parseMetafields parses namespace.key=value flags.
func parseMetafields(values []string, metafieldType string) ([]shopify.MetafieldInput, error) {
	inputs := make([]shopify.MetafieldInput, 0, len(values))

	for _, value := range values {
		name, fieldValue, ok := strings.Cut(value, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidMetafieldFlag, value)
		}

		namespace, key, ok := strings.Cut(name, ".")
		if !ok || namespace == "" || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidMetafieldFlag, value)
		}

		inputs = append(inputs, shopify.MetafieldInput{
			Namespace: namespace,
			Key:       key,
			Value:     fieldValue,
			Type:      metafieldType,
		})
	}

	return inputs, nil
}

// parseIDs parses numeric REST ids, accepting comma separated lists.
func parseIDs(values []string) ([]int64, error) {
	var ids []int64

	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: %q", constants.ErrInvalidVariantID, part)
			}

			ids = append(ids, id)
		}
	}

	return ids, nil
}

func orNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
