package constants

import "errors"

// Configuration errors.
var (
	ErrNoShopConfigured  = errors.New("no shop configured, use 'shopup config set shop <handle>'")
	ErrNoTokenConfigured = errors.New("no access token configured, use 'shopup config set-token'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
)

// Command argument errors.
var (
	ErrSourceRequired        = errors.New("either a file path or --url is required")
	ErrInvalidMetafieldFlag  = errors.New("metafield must look like namespace.key=value")
	ErrInvalidVariantID      = errors.New("invalid variant id")
	ErrInvalidResourceID     = errors.New("invalid resource id")
	ErrEmptyManifest         = errors.New("manifest contains no items")
	ErrBatchItemsFailed      = errors.New("batch items failed")
	ErrUnsupportedOutputType = errors.New("unsupported output format")
)
