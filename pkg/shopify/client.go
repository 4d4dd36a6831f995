package shopify

import (
	"context"
	"time"
)

// CatalogClients provides access to the REST catalog resource clients.
type CatalogClients interface {
	Products() ProductsClient
	ProductImages() ProductImagesClient
	Variants() VariantsClient
}

// MediaClients provides access to the GraphQL media clients.
type MediaClients interface {
	StagedUploads() StagedUploadsClient
	Files() FilesClient
	Metafields() MetafieldsClient
}

// Client is the Admin API client.
type Client interface {
	CatalogClients
	MediaClients

	GraphQL() GraphQLClient
	Uploader() Uploader

	// Close releases cache connections.
	Close()
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ProductsClient defines operations for products.
type ProductsClient interface {
	Create(ctx context.Context, product *Product) (*Product, error)
	Get(ctx context.Context, productID int64) (*Product, error)
	List(ctx context.Context, opts *ListOptions) ([]Product, error)
	Update(ctx context.Context, productID int64, product *Product) (*Product, error)
	Delete(ctx context.Context, productID int64) error
}

// ProductImagesClient defines operations for product images.
type ProductImagesClient interface {
	Create(ctx context.Context, productID int64, request *ProductImageCreateRequest) (*ProductImage, error)
	Get(ctx context.Context, productID, imageID int64) (*ProductImage, error)
	List(ctx context.Context, productID int64) ([]ProductImage, error)
	Update(ctx context.Context, productID, imageID int64, request *ProductImageUpdateRequest) (*ProductImage, error)
	Delete(ctx context.Context, productID, imageID int64) error
}

// VariantsClient defines operations for product variants.
type VariantsClient interface {
	Get(ctx context.Context, variantID int64) (*Variant, error)
	List(ctx context.Context, productID int64) ([]Variant, error)
	Update(ctx context.Context, variantID int64, variant *Variant) (*Variant, error)
}

// MetafieldsClient defines operations for metafields. Writes with an
// existing namespace and key overwrite the stored value.
type MetafieldsClient interface {
	Set(ctx context.Context, ownerID string, input MetafieldInput) (*Metafield, error)
	Get(ctx context.Context, ownerID, namespace, key string) (*Metafield, error)
	GetAll(ctx context.Context, ownerID string) ([]Metafield, error)
}

// StagedUploadsClient negotiates direct-upload targets.
type StagedUploadsClient interface {
	CreateTarget(ctx context.Context, request *StagedUploadRequest) (*UploadTarget, error)
}

// FilesClient registers and inspects assets.
type FilesClient interface {
	Finalize(ctx context.Context, request *FileCreateRequest) (*Asset, error)
	Get(ctx context.Context, id string) (*Asset, error)
	Update(ctx context.Context, request *FileUpdateRequest) (*Asset, error)
	WaitForURL(ctx context.Context, id string, maxWait, interval time.Duration) (*PollResult, error)
}

// GraphQLClient executes raw GraphQL documents.
type GraphQLClient interface {
	// ExecuteQuery returns the raw JSON response body.
	ExecuteQuery(ctx context.Context, query string, variables map[string]interface{}) (string, error)
	// Do decodes the data member of the response into out.
	Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error
}

// Uploader moves image bytes into the store and reports a usable URL.
type Uploader interface {
	UploadOne(ctx context.Context, source UploadSource, metadata UploadMetadata) (*UploadResult, error)
	UploadMany(ctx context.Context, requests []UploadRequest) []BatchItemResult
	UploadForVariants(ctx context.Context, source UploadSource, productID int64, variantIDs []int64, metadata UploadMetadata) (*VariantUploadResult, error)
	ReassociateVariants(ctx context.Context, productID, imageID int64, variantIDs []int64) (*ProductImage, error)
}
