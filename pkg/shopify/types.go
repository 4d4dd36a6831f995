package shopify

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StagedUploadParameter is one server-issued form field of a staged upload target.
type StagedUploadParameter struct {
	Name  string `json:"name"  yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// UploadTarget is a single-use direct-upload destination allocated by
// stagedUploadsCreate. Parameters must be sent in the order given.
type UploadTarget struct {
	URL         string                  `json:"url"                  yaml:"url"`
	ResourceURL string                  `json:"resourceUrl"          yaml:"resource_url"`
	HTTPMethod  string                  `json:"httpMethod,omitempty" yaml:"http_method,omitempty"`
	Parameters  []StagedUploadParameter `json:"parameters"           yaml:"parameters"`
}

// Method returns the HTTP method the storage backend expects, POST unless the
// target declared PUT.
func (t *UploadTarget) Method() string {
	if strings.EqualFold(t.HTTPMethod, http.MethodPut) {
		return http.MethodPut
	}

	return http.MethodPost
}

// Host returns the storage host of the target, used in logs instead of the signed URL.
func (t *UploadTarget) Host() string {
	parsed, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}

	return parsed.Host
}

// StagedUploadRequest describes the file a staged target is negotiated for.
type StagedUploadRequest struct {
	Filename   string
	MimeType   string
	FileSize   int64
	Resource   string
	HTTPMethod string
}

// FileStatus is the processing state of an asset.
type FileStatus string

// File statuses.
const (
	FileStatusUploaded   FileStatus = "UPLOADED"
	FileStatusProcessing FileStatus = "PROCESSING"
	FileStatusReady      FileStatus = "READY"
	FileStatusFailed     FileStatus = "FAILED"
)

// Media holds the URL representations the platform fills in asynchronously.
type Media struct {
	Width          int    `json:"width,omitempty"           yaml:"width,omitempty"`
	Height         int    `json:"height,omitempty"          yaml:"height,omitempty"`
	URL            string `json:"url,omitempty"             yaml:"url,omitempty"`
	OriginalURL    string `json:"original_url,omitempty"    yaml:"original_url,omitempty"`
	TransformedURL string `json:"transformed_url,omitempty" yaml:"transformed_url,omitempty"`
}

// FirstURL returns the first populated candidate URL.
func (m *Media) FirstURL() string {
	if m == nil {
		return ""
	}

	for _, candidate := range []string{m.URL, m.OriginalURL, m.TransformedURL} {
		if candidate != "" {
			return candidate
		}
	}

	return ""
}

// FileError is a processing error reported on a FAILED asset.
type FileError struct {
	Code    string `json:"code"    yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Details string `json:"details" yaml:"details"`
}

// Asset is a managed media file registered by fileCreate.
type Asset struct {
	ID         string      `json:"id"                    yaml:"id"`
	Status     FileStatus  `json:"status"                yaml:"status"`
	Alt        string      `json:"alt"                   yaml:"alt"`
	CreatedAt  time.Time   `json:"created_at"            yaml:"created_at"`
	Media      *Media      `json:"media,omitempty"       yaml:"media,omitempty"`
	FileErrors []FileError `json:"file_errors,omitempty" yaml:"file_errors,omitempty"`
}

// URL returns the first available CDN URL of the asset, or "".
func (a *Asset) URL() string {
	if a == nil {
		return ""
	}

	return a.Media.FirstURL()
}

// FileCreateRequest registers bytes at OriginalSource as an asset.
type FileCreateRequest struct {
	OriginalSource string
	ContentType    string
	Alt            string
	Filename       string
}

// FileUpdateRequest changes display attributes of an existing asset.
type FileUpdateRequest struct {
	ID       string
	Alt      *string
	Filename *string
}

// UserError is a validation error returned inside a mutation payload.
type UserError struct {
	Field   []string `json:"field"   yaml:"field"`
	Message string   `json:"message" yaml:"message"`
	Code    string   `json:"code"    yaml:"code"`
}

// String renders the error as "field.path: message".
func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}

	return strings.Join(e.Field, ".") + ": " + e.Message
}

// PollResult is the outcome of waiting for a CDN URL. TimedOut is an
// expected outcome; the asset stays usable by ID.
type PollResult struct {
	URL       string
	Asset     *Asset
	TimedOut  bool
	Attempts  int
	FromCache bool
}

// Metafield is a namespaced key/value record attached to an owner resource.
type Metafield struct {
	ID        string    `json:"id"         yaml:"id"`
	OwnerID   string    `json:"owner_id"   yaml:"owner_id"`
	Namespace string    `json:"namespace"  yaml:"namespace"`
	Key       string    `json:"key"        yaml:"key"`
	Value     string    `json:"value"      yaml:"value"`
	Type      string    `json:"type"       yaml:"type"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// MetafieldInput is a metafield to write alongside an upload.
type MetafieldInput struct {
	Namespace string `json:"namespace"      yaml:"namespace"`
	Key       string `json:"key"            yaml:"key"`
	Value     string `json:"value"          yaml:"value"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Product is the REST product record.
type Product struct {
	ID          int64          `json:"id,omitempty"           yaml:"id,omitempty"`
	Title       string         `json:"title,omitempty"        yaml:"title,omitempty"`
	BodyHTML    string         `json:"body_html,omitempty"    yaml:"body_html,omitempty"`
	Vendor      string         `json:"vendor,omitempty"       yaml:"vendor,omitempty"`
	ProductType string         `json:"product_type,omitempty" yaml:"product_type,omitempty"`
	Handle      string         `json:"handle,omitempty"       yaml:"handle,omitempty"`
	Status      string         `json:"status,omitempty"       yaml:"status,omitempty"`
	Tags        string         `json:"tags,omitempty"         yaml:"tags,omitempty"`
	Variants    []Variant      `json:"variants,omitempty"     yaml:"variants,omitempty"`
	Images      []ProductImage `json:"images,omitempty"       yaml:"images,omitempty"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"   yaml:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"   yaml:"updated_at,omitempty"`
}

// Variant is the REST product variant record.
type Variant struct {
	ID        int64  `json:"id,omitempty"         yaml:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	Title     string `json:"title,omitempty"      yaml:"title,omitempty"`
	SKU       string `json:"sku,omitempty"        yaml:"sku,omitempty"`
	Price     string `json:"price,omitempty"      yaml:"price,omitempty"`
	Position  int    `json:"position,omitempty"   yaml:"position,omitempty"`
	ImageID   *int64 `json:"image_id,omitempty"   yaml:"image_id,omitempty"`
}

// ProductImage is the REST product image record.
type ProductImage struct {
	ID         int64      `json:"id"                   yaml:"id"`
	ProductID  int64      `json:"product_id"           yaml:"product_id"`
	Position   int        `json:"position"             yaml:"position"`
	Src        string     `json:"src"                  yaml:"src"`
	Alt        string     `json:"alt"                  yaml:"alt"`
	Width      int        `json:"width"                yaml:"width"`
	Height     int        `json:"height"               yaml:"height"`
	VariantIDs []int64    `json:"variant_ids"          yaml:"variant_ids"`
	CreatedAt  *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ProductImageCreateRequest creates an image from a URL (Src) or base64 bytes (Attachment).
type ProductImageCreateRequest struct {
	Src        string  `json:"src,omitempty"`
	Attachment string  `json:"attachment,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Alt        string  `json:"alt,omitempty"`
	Position   int     `json:"position,omitempty"`
	VariantIDs []int64 `json:"variant_ids,omitempty"`
}

// ProductImageUpdateRequest changes an image. A non-nil empty VariantIDs clears the association.
type ProductImageUpdateRequest struct {
	Alt        *string  `json:"alt,omitempty"`
	Position   *int     `json:"position,omitempty"`
	VariantIDs *[]int64 `json:"variant_ids,omitempty"`
}

// ListOptions are the common REST list parameters.
type ListOptions struct {
	Limit   int
	SinceID int64
	Fields  []string
}

// ToValues converts the options to query parameters.
func (o *ListOptions) ToValues() url.Values {
	values := url.Values{}
	if o == nil {
		return values
	}

	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}

	if o.SinceID > 0 {
		values.Set("since_id", strconv.FormatInt(o.SinceID, 10))
	}

	if len(o.Fields) > 0 {
		values.Set("fields", strings.Join(o.Fields, ","))
	}

	return values
}

// Strategy selects how bytes reach the platform.
type Strategy string

// Upload strategies.
const (
	// StrategyAuto picks reference or staged per source.
	StrategyAuto Strategy = "auto"
	// StrategyReference passes a public URL to fileCreate and lets the platform fetch it.
	StrategyReference Strategy = "reference"
	// StrategyStaged negotiates a target and uploads bytes directly to storage.
	StrategyStaged Strategy = "staged"
)

// SourceReliability is the caller's hint about a source URL.
type SourceReliability int

// Reliability hints.
const (
	ReliabilityUnknown SourceReliability = iota
	ReliabilityReliable
	ReliabilityUnreliable
)

// UploadSource is either raw bytes or a URL, plus optional fallbacks.
type UploadSource struct {
	Data            []byte            `json:"-"                        yaml:"-"`
	URL             string            `json:"url,omitempty"            yaml:"url,omitempty"`
	Filename        string            `json:"filename,omitempty"       yaml:"filename,omitempty"`
	ContentType     string            `json:"content_type,omitempty"   yaml:"content_type,omitempty"`
	Reliability     SourceReliability `json:"reliability,omitempty"    yaml:"reliability,omitempty"`
	PreviousFailure bool              `json:"previous_failure,omitempty" yaml:"previous_failure,omitempty"`
	AlternateURLs   []string          `json:"alternate_urls,omitempty" yaml:"alternate_urls,omitempty"`
}

// HasData reports whether the source carries bytes.
func (s *UploadSource) HasData() bool {
	return len(s.Data) > 0
}

// UploadMetadata describes the asset to create.
type UploadMetadata struct {
	Alt         string           `json:"alt,omitempty"          yaml:"alt,omitempty"`
	ContentKind string           `json:"content_kind,omitempty" yaml:"content_kind,omitempty"`
	Strategy    Strategy         `json:"strategy,omitempty"     yaml:"strategy,omitempty"`
	WaitForURL  *bool            `json:"wait_for_url,omitempty" yaml:"wait_for_url,omitempty"`
	Metafields  []MetafieldInput `json:"metafields,omitempty"   yaml:"metafields,omitempty"`
}

// UploadRequest is one item of a batch.
type UploadRequest struct {
	Source   UploadSource   `json:"source"   yaml:"source"`
	Metadata UploadMetadata `json:"metadata" yaml:"metadata"`
}

// UploadResult is the outcome of a successful upload. PollTimedOut means the
// asset exists but is still processing; MetadataError reports metafield
// writes that failed after the asset was created.
type UploadResult struct {
	Asset         *Asset
	Strategy      Strategy
	URL           string
	PollTimedOut  bool
	Attempts      int
	Fallback      bool
	BatchID       string
	MetadataError error
	// PollError is set when a status query failed after the asset was
	// created. The asset exists and is reported as still processing.
	PollError error
}

// Processing reports whether the CDN URL was not available before the poll
// bound or could not be queried.
func (r *UploadResult) Processing() bool {
	return r != nil && (r.PollTimedOut || r.PollError != nil)
}

// BatchItemResult is the per-item outcome of UploadMany.
type BatchItemResult struct {
	Index    int
	Result   *UploadResult
	Err      error
	Duration time.Duration
}

// Success reports whether the item produced an asset.
func (r BatchItemResult) Success() bool {
	return r.Err == nil && r.Result != nil
}

// VariantUploadResult is an upload associated with product variants.
type VariantUploadResult struct {
	*UploadResult

	Image *ProductImage
}
