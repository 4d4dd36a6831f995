package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

const fileFieldsFragment = `
fragment FileFields on File {
  id
  fileStatus
  alt
  createdAt
  fileErrors { code message details }
  ... on MediaImage {
    image { url width height }
    originalSource { url }
    preview { image { url } }
  }
  ... on GenericFile {
    url
  }
}`

const fileCreateMutation = `
mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files { ...FileFields }
    userErrors { field message code }
  }
}` + fileFieldsFragment

const fileUpdateMutation = `
mutation fileUpdate($files: [FileUpdateInput!]!) {
  fileUpdate(files: $files) {
    files { ...FileFields }
    userErrors { field message code }
  }
}` + fileFieldsFragment

const fileQuery = `
query file($id: ID!) {
  node(id: $id) { ...FileFields }
}` + fileFieldsFragment

type urlNode struct {
	URL string `json:"url"`
}

type fileNode struct {
	ID             string              `json:"id"`
	FileStatus     shopify.FileStatus  `json:"fileStatus"`
	Alt            string              `json:"alt"`
	CreatedAt      time.Time           `json:"createdAt"`
	FileErrors     []shopify.FileError `json:"fileErrors"`
	URL            string              `json:"url"`
	OriginalSource *urlNode            `json:"originalSource"`
	Image          *struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"image"`
	Preview *struct {
		Image *urlNode `json:"image"`
	} `json:"preview"`
}

func (n *fileNode) toAsset() *shopify.Asset {
	asset := &shopify.Asset{
		ID:         n.ID,
		Status:     n.FileStatus,
		Alt:        n.Alt,
		CreatedAt:  n.CreatedAt,
		FileErrors: n.FileErrors,
	}

	media := &shopify.Media{URL: n.URL}
	if n.Image != nil {
		media.Width = n.Image.Width
		media.Height = n.Image.Height

		if n.Image.URL != "" {
			media.URL = n.Image.URL
		}
	}

	if n.OriginalSource != nil {
		media.OriginalURL = n.OriginalSource.URL
	}

	if n.Preview != nil && n.Preview.Image != nil {
		media.TransformedURL = n.Preview.Image.URL
	}

	if *media != (shopify.Media{}) {
		asset.Media = media
	}

	return asset
}

type fileMutationPayload struct {
	Files      []fileNode          `json:"files"`
	UserErrors []shopify.UserError `json:"userErrors"`
}

// FilesClient implements shopify.FilesClient.
type FilesClient struct {
	graphql *GraphQLClient
	cache   *shopify.URLCache
	logger  shopify.Logger
	metrics *shopify.Metrics
	jitter  float64
}

// NewFilesClient creates a new files client. cache may be nil.
func NewFilesClient(graphql *GraphQLClient, cache *shopify.URLCache) *FilesClient {
	return &FilesClient{
		graphql: graphql,
		cache:   cache,
	}
}

// Finalize implements shopify.FilesClient.Finalize. It does not wait for
// processing; media fields of the returned asset may be empty.
func (c *FilesClient) Finalize(ctx context.Context, request *shopify.FileCreateRequest) (*shopify.Asset, error) {
	if request == nil || request.OriginalSource == "" {
		return nil, fmt.Errorf("%w: original source is required", shopify.ErrInvalidArgument)
	}

	contentType := request.ContentType
	if contentType == "" {
		contentType = constants.ContentKindImage
	}

	input := map[string]interface{}{
		"originalSource": request.OriginalSource,
		"contentType":    contentType,
	}

	if request.Alt != "" {
		input["alt"] = request.Alt
	}

	if request.Filename != "" {
		input["filename"] = request.Filename
	}

	var data struct {
		FileCreate *fileMutationPayload `json:"fileCreate"`
	}

	err := c.graphql.Do(ctx, fileCreateMutation, map[string]interface{}{"files": []interface{}{input}}, &data)
	if err != nil {
		return nil, &shopify.StepFailure{StepName: shopify.StepFinalize, Err: fmt.Errorf("creating file: %w", err)}
	}

	if data.FileCreate == nil {
		return nil, &shopify.StepFailure{
			StepName: shopify.StepFinalize,
			Err:      &shopify.UnexpectedResponseError{Operation: "fileCreate", Err: errMissingPayload},
		}
	}

	if len(data.FileCreate.UserErrors) > 0 {
		return nil, &shopify.FinalizationRejectedError{
			OriginalSource: request.OriginalSource,
			UserErrors:     data.FileCreate.UserErrors,
		}
	}

	if len(data.FileCreate.Files) == 0 || data.FileCreate.Files[0].ID == "" {
		return nil, &shopify.StepFailure{
			StepName: shopify.StepFinalize,
			Err:      &shopify.UnexpectedResponseError{Operation: "fileCreate", Err: shopify.ErrEmptyFileCreate},
		}
	}

	return data.FileCreate.Files[0].toAsset(), nil
}

// Get implements shopify.FilesClient.Get.
func (c *FilesClient) Get(ctx context.Context, id string) (*shopify.Asset, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: file id is required", shopify.ErrInvalidArgument)
	}

	var data struct {
		Node *fileNode `json:"node"`
	}

	err := c.graphql.Do(ctx, fileQuery, map[string]interface{}{"id": id}, &data)
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}

	if data.Node == nil || data.Node.ID == "" {
		return nil, fmt.Errorf("%w: %s", shopify.ErrFileNotFound, id)
	}

	return data.Node.toAsset(), nil
}

// Update implements shopify.FilesClient.Update.
func (c *FilesClient) Update(ctx context.Context, request *shopify.FileUpdateRequest) (*shopify.Asset, error) {
	if request == nil || request.ID == "" {
		return nil, fmt.Errorf("%w: file id is required", shopify.ErrInvalidArgument)
	}

	input := map[string]interface{}{"id": request.ID}
	if request.Alt != nil {
		input["alt"] = *request.Alt
	}

	if request.Filename != nil {
		input["filename"] = *request.Filename
	}

	var data struct {
		FileUpdate *fileMutationPayload `json:"fileUpdate"`
	}

	err := c.graphql.Do(ctx, fileUpdateMutation, map[string]interface{}{"files": []interface{}{input}}, &data)
	if err != nil {
		return nil, fmt.Errorf("updating file: %w", err)
	}

	if data.FileUpdate == nil {
		return nil, &shopify.UnexpectedResponseError{Operation: "fileUpdate", Err: errMissingPayload}
	}

	if len(data.FileUpdate.UserErrors) > 0 {
		return nil, &shopify.UserErrorsError{Operation: "fileUpdate", UserErrors: data.FileUpdate.UserErrors}
	}

	if len(data.FileUpdate.Files) == 0 {
		return nil, &shopify.UnexpectedResponseError{Operation: "fileUpdate", Err: shopify.ErrEmptyFileCreate}
	}

	return data.FileUpdate.Files[0].toAsset(), nil
}

// WaitForURL implements shopify.FilesClient.WaitForURL.
//
// The asset is queried immediately and then once per interval until a URL
// appears. A query is only issued if it fits before maxWait elapses, so
// maxWait <= 0 or maxWait < interval means exactly one query. Running out
// of time is reported as PollResult.TimedOut, not as an error. A FAILED
// asset ends the wait with *shopify.AssetFailedError.
func (c *FilesClient) WaitForURL(ctx context.Context, id string, maxWait, interval time.Duration) (*shopify.PollResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: file id is required", shopify.ErrInvalidArgument)
	}

	if url, ok := c.cache.Lookup(ctx, id); ok {
		c.metrics.ObservePoll(shopify.OutcomeCached)

		return &shopify.PollResult{URL: url, FromCache: true}, nil
	}

	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	deadline := time.Now().Add(maxWait)
	result := &shopify.PollResult{}

	for {
		asset, err := c.Get(ctx, id)
		result.Attempts++

		if err != nil {
			return result, &shopify.PollError{AssetID: id, Err: err}
		}

		result.Asset = asset

		if asset.Status == shopify.FileStatusFailed {
			c.metrics.ObservePoll(shopify.OutcomeFailed)

			return result, &shopify.AssetFailedError{AssetID: id, FileErrors: asset.FileErrors}
		}

		if url := asset.URL(); url != "" {
			result.URL = url
			c.metrics.ObservePoll(shopify.OutcomeSuccess)

			err = c.cache.Store(ctx, id, url)
			if err != nil && c.logger != nil {
				c.logger.Warn("caching file url failed", map[string]interface{}{"asset_id": id, "error": err.Error()})
			}

			return result, nil
		}

		wait := c.nextWait(interval)
		if time.Now().Add(wait).After(deadline) {
			result.TimedOut = true
			c.metrics.ObservePoll(shopify.OutcomeTimeout)

			if c.logger != nil {
				c.logger.Info("file still processing", map[string]interface{}{
					"asset_id": id,
					"status":   string(asset.Status),
					"attempts": result.Attempts,
				})
			}

			return result, nil
		}

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()

			return result, &shopify.StepFailure{StepName: shopify.StepPoll, Err: fmt.Errorf("waiting for file url: %w", ctx.Err())}
		case <-timer.C:
		}
	}
}

func (c *FilesClient) nextWait(interval time.Duration) time.Duration {
	if c.jitter <= 0 {
		return interval
	}

	return interval + time.Duration(rand.Float64()*c.jitter*float64(interval))
}
