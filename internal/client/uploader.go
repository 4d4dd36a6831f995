package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/internal/upload"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// UploaderDeps are the collaborators of an Uploader.
type UploaderDeps struct {
	StagedUploads shopify.StagedUploadsClient
	Files         shopify.FilesClient
	Metafields    shopify.MetafieldsClient
	ProductImages shopify.ProductImagesClient
	Transport     *upload.Transport
	Downloader    *upload.Downloader
	Logger        shopify.Logger
	Metrics       *shopify.Metrics
}

// Uploader implements shopify.Uploader.
//
// Each upload owns its targets, bodies and assets. The only state shared
// between uploads is the pacer, which spaces chunk starts across concurrent
// UploadMany calls.
type Uploader struct {
	deps   UploaderDeps
	config *shopify.UploadConfig
	logger shopify.Logger
	pacer  *rate.Limiter
}

// NewUploader creates an uploader. A nil config uses the defaults.
func NewUploader(config *shopify.UploadConfig, deps UploaderDeps) *Uploader {
	config = config.WithDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = shopify.NewZapLogger(nil)
	}

	limit := rate.Inf
	if !config.DisableBatchPause && config.BatchPause > 0 {
		limit = rate.Every(config.BatchPause)
	}

	return &Uploader{
		deps:   deps,
		config: config,
		logger: logger,
		pacer:  rate.NewLimiter(limit, 1),
	}
}

// source is the resolved byte payload of a staged upload.
type source struct {
	data        []byte
	filename    string
	contentType string
}

// UploadOne implements shopify.Uploader.UploadOne.
func (u *Uploader) UploadOne(ctx context.Context, src shopify.UploadSource, metadata shopify.UploadMetadata) (*shopify.UploadResult, error) {
	start := time.Now()

	strategy, err := u.resolveStrategy(src, metadata)
	if err != nil {
		return nil, err
	}

	var result *shopify.UploadResult

	switch strategy {
	case shopify.StrategyReference:
		result, err = u.uploadReference(ctx, src, metadata)
	default:
		result, err = u.uploadStaged(ctx, src, metadata)
	}

	u.deps.Metrics.ObserveUpload(strategy, err, time.Since(start))

	if err != nil {
		u.logger.Error("upload failed", map[string]interface{}{
			"strategy": string(strategy),
			"step":     shopify.StepOf(err),
			"url":      src.URL,
			"error":    err.Error(),
		})

		return nil, err
	}

	result.MetadataError = u.writeMetafields(ctx, result.Asset.ID, metadata.Metafields)

	u.logger.Info("upload complete", map[string]interface{}{
		"asset_id":   result.Asset.ID,
		"strategy":   string(result.Strategy),
		"fallback":   result.Fallback,
		"processing": result.PollTimedOut,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	return result, nil
}

// resolveStrategy applies the Auto policy: bytes go staged, URLs flagged
// unreliable or previously failed are downloaded and staged, everything
// else is tried by reference first.
func (u *Uploader) resolveStrategy(src shopify.UploadSource, metadata shopify.UploadMetadata) (shopify.Strategy, error) {
	if !src.HasData() && src.URL == "" {
		return "", shopify.ErrNoSource
	}

	strategy := metadata.Strategy
	if strategy == "" {
		strategy = u.config.DefaultStrategy
	}

	switch strategy {
	case shopify.StrategyStaged:
		return shopify.StrategyStaged, nil
	case shopify.StrategyReference:
		if src.URL == "" {
			return "", fmt.Errorf("%w: reference strategy needs a source URL", shopify.ErrInvalidArgument)
		}

		return shopify.StrategyReference, nil
	case shopify.StrategyAuto:
		if src.HasData() || src.Reliability == shopify.ReliabilityUnreliable || src.PreviousFailure {
			return shopify.StrategyStaged, nil
		}

		return shopify.StrategyReference, nil
	default:
		return "", fmt.Errorf("%w: %q", shopify.ErrUnknownStrategy, strategy)
	}
}

func (u *Uploader) uploadReference(ctx context.Context, src shopify.UploadSource, metadata shopify.UploadMetadata) (*shopify.UploadResult, error) {
	if u.config.ProbeReferences && u.deps.Downloader != nil {
		err := u.deps.Downloader.Probe(ctx, src.URL, u.config.ProbeTimeout)
		if err != nil {
			return u.fallbackToStaged(ctx, src, metadata, shopify.StepDownload, err)
		}
	}

	asset, err := u.deps.Files.Finalize(ctx, &shopify.FileCreateRequest{
		OriginalSource: src.URL,
		ContentType:    u.contentKind(metadata, src.ContentType),
		Alt:            metadata.Alt,
	})
	u.deps.Metrics.ObserveStep(shopify.StepFinalize, err)

	if err != nil {
		return nil, err
	}

	result := &shopify.UploadResult{Asset: asset, Strategy: shopify.StrategyReference}

	err = u.awaitURL(ctx, result, metadata)
	if shopify.IsAssetFailed(err) {
		return u.fallbackToStaged(ctx, src, metadata, shopify.StepPoll, err)
	}

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (u *Uploader) fallbackToStaged(ctx context.Context, src shopify.UploadSource, metadata shopify.UploadMetadata, step string, cause error) (*shopify.UploadResult, error) {
	u.deps.Metrics.ObserveFallback(step)
	u.logger.Warn("reference upload failed, falling back to staged upload", map[string]interface{}{
		"url":   src.URL,
		"step":  step,
		"error": cause.Error(),
	})

	// A failed probe means the primary is unreachable from here too, so
	// known alternates are downloaded before it.
	if step == shopify.StepDownload && len(src.AlternateURLs) > 0 {
		src = primaryLast(src)
	}

	result, err := u.uploadStaged(ctx, src, metadata)
	if err != nil {
		return nil, err
	}

	result.Fallback = true

	return result, nil
}

// primaryLast returns a copy of src whose download order starts with the
// alternates and ends with the primary URL.
func primaryLast(src shopify.UploadSource) shopify.UploadSource {
	alternates := make([]string, 0, len(src.AlternateURLs))
	alternates = append(alternates, src.AlternateURLs[1:]...)
	alternates = append(alternates, src.URL)

	src.URL = src.AlternateURLs[0]
	src.AlternateURLs = alternates

	return src
}

func (u *Uploader) uploadStaged(ctx context.Context, src shopify.UploadSource, metadata shopify.UploadMetadata) (*shopify.UploadResult, error) {
	payload, err := u.resolveSource(ctx, src)
	if err != nil {
		return nil, err
	}

	kind := u.contentKind(metadata, payload.contentType)

	resourceURL, attempts, err := u.sendStaged(ctx, payload, kind)
	if err != nil {
		return nil, err
	}

	asset, err := u.deps.Files.Finalize(ctx, &shopify.FileCreateRequest{
		OriginalSource: resourceURL,
		ContentType:    kind,
		Alt:            metadata.Alt,
	})
	u.deps.Metrics.ObserveStep(shopify.StepFinalize, err)

	if err != nil {
		return nil, err
	}

	u.logger.Debug("staged upload finalized", map[string]interface{}{
		"asset_id": asset.ID,
		"status":   string(asset.Status),
		"attempts": attempts,
	})

	result := &shopify.UploadResult{
		Asset:    asset,
		Strategy: shopify.StrategyStaged,
		Attempts: attempts,
	}

	err = u.awaitURL(ctx, result, metadata)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveSource returns the bytes to stage, downloading the primary URL and
// then each alternate until one succeeds.
func (u *Uploader) resolveSource(ctx context.Context, src shopify.UploadSource) (*source, error) {
	if src.HasData() {
		return &source{
			data:        src.Data,
			filename:    upload.EnsureFilename(src.Filename, src.URL, src.Data),
			contentType: upload.DetectContentType(src.Data, src.ContentType),
		}, nil
	}

	if u.deps.Downloader == nil {
		return nil, fmt.Errorf("%w: no downloader configured", shopify.ErrInvalidArgument)
	}

	candidates := make([]string, 0, 1+len(src.AlternateURLs))
	for _, candidate := range append([]string{src.URL}, src.AlternateURLs...) {
		if candidate != "" {
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		return nil, shopify.ErrNoSource
	}

	var errs []error

	for _, candidate := range candidates {
		download, err := u.deps.Downloader.Fetch(ctx, candidate)
		u.deps.Metrics.ObserveStep(shopify.StepDownload, err)

		if err == nil {
			declared := src.ContentType
			if declared == "" {
				declared = download.ContentType
			}

			filename := src.Filename
			if filename == "" {
				filename = download.Filename
			}

			return &source{
				data:        download.Data,
				filename:    upload.EnsureFilename(filename, candidate, download.Data),
				contentType: upload.DetectContentType(download.Data, declared),
			}, nil
		}

		u.logger.Warn("source download failed", map[string]interface{}{"url": candidate, "error": err.Error()})
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Join(errs...)
}

// sendStaged negotiates a target and sends the body to it. Only transport
// failures are retried, each with a freshly negotiated target and the next
// configured multipart layout.
func (u *Uploader) sendStaged(ctx context.Context, payload *source, kind string) (string, int, error) {
	var (
		resourceURL string
		attempts    int
	)

	file := upload.FilePart{
		Filename:    payload.filename,
		ContentType: payload.contentType,
		Data:        payload.data,
	}

	operation := func() error {
		attempts++

		target, err := u.deps.StagedUploads.CreateTarget(ctx, &shopify.StagedUploadRequest{
			Filename: payload.filename,
			MimeType: payload.contentType,
			FileSize: int64(len(payload.data)),
			Resource: kind,
		})
		u.deps.Metrics.ObserveStep(shopify.StepNegotiate, err)

		if err != nil {
			return backoff.Permanent(err)
		}

		u.logger.Debug("staged target negotiated", map[string]interface{}{
			"filename": payload.filename,
			"host":     target.Host(),
			"attempt":  attempts,
		})

		layout := u.config.LayoutFor(attempts)

		body, err := upload.BuildMultipart(target.Parameters, file, layout)
		if err != nil {
			return backoff.Permanent(err)
		}

		err = u.deps.Transport.Send(ctx, target, body)
		u.deps.Metrics.ObserveStep(shopify.StepSend, err)

		if err != nil {
			if !shopify.IsTransportFailure(err) {
				return backoff.Permanent(err)
			}

			u.logger.Warn("staged upload rejected by storage target", map[string]interface{}{
				"attempt": attempts,
				"layout":  layout.Name,
				"error":   err.Error(),
			})

			return err
		}

		resourceURL = target.ResourceURL
		if resourceURL == "" {
			resourceURL = target.URL
		}

		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = u.config.StagedRetryInterval

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(u.config.StagedAttempts-1)), ctx))
	if err != nil {
		return "", attempts, err
	}

	return resourceURL, attempts, nil
}

func (u *Uploader) awaitURL(ctx context.Context, result *shopify.UploadResult, metadata shopify.UploadMetadata) error {
	wait := u.config.WaitForURL
	if metadata.WaitForURL != nil {
		wait = *metadata.WaitForURL
	}

	if !wait {
		result.URL = result.Asset.URL()

		return nil
	}

	poll, err := u.deps.Files.WaitForURL(ctx, result.Asset.ID, u.config.PollMaxWait, u.config.PollInterval)

	queryErr := &shopify.PollError{}
	if errors.As(err, &queryErr) {
		if poll != nil && poll.Asset != nil {
			result.Asset = poll.Asset
		}

		result.URL = result.Asset.URL()
		result.PollError = err

		u.logger.Warn("status query failed, asset left processing", map[string]interface{}{
			"asset_id": result.Asset.ID,
			"error":    err.Error(),
		})

		return nil
	}

	if err != nil {
		return err
	}

	if poll.Asset != nil {
		result.Asset = poll.Asset
	}

	result.URL = poll.URL
	result.PollTimedOut = poll.TimedOut

	return nil
}

// writeMetafields writes each metafield on the asset. Failures are joined
// and returned; they never undo the upload.
func (u *Uploader) writeMetafields(ctx context.Context, ownerID string, inputs []shopify.MetafieldInput) error {
	if len(inputs) == 0 || u.deps.Metafields == nil {
		return nil
	}

	var errs []error

	for _, input := range inputs {
		operation := func() error {
			_, err := u.deps.Metafields.Set(ctx, ownerID, input)
			if err == nil {
				return nil
			}

			writeErr := &shopify.MetadataWriteError{}
			if errors.Is(err, shopify.ErrInvalidArgument) ||
				(errors.As(err, &writeErr) && len(writeErr.UserErrors) > 0) {
				return backoff.Permanent(err)
			}

			return err
		}

		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = u.config.StagedRetryInterval

		err := backoff.Retry(operation, backoff.WithContext(
			backoff.WithMaxRetries(policy, uint64(u.config.MetafieldRetryMax)), ctx))
		u.deps.Metrics.ObserveStep(shopify.StepMetadata, err)

		if err != nil {
			if !shopify.IsMetadataWriteFailure(err) {
				err = &shopify.MetadataWriteError{OwnerID: ownerID, Namespace: input.Namespace, Key: input.Key, Err: err}
			}

			u.logger.Warn("metafield write failed", map[string]interface{}{
				"asset_id":  ownerID,
				"namespace": input.Namespace,
				"key":       input.Key,
				"error":     err.Error(),
			})

			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (u *Uploader) contentKind(metadata shopify.UploadMetadata, contentType string) string {
	if metadata.ContentKind != "" {
		return metadata.ContentKind
	}

	if contentType != "" {
		return upload.ContentKindFor(contentType)
	}

	return u.config.DefaultContentKind
}

// UploadMany implements shopify.Uploader.UploadMany. It returns exactly one
// result per request, in request order. After each chunk of BatchSize items
// but the last, the uploader sleeps for BatchPause before starting the next.
func (u *Uploader) UploadMany(ctx context.Context, requests []shopify.UploadRequest) []shopify.BatchItemResult {
	results := make([]shopify.BatchItemResult, len(requests))
	for i := range results {
		results[i].Index = i
	}

	var batchID string
	if u.config.RecordBatchID {
		batchID = ulid.Make().String()
	}

	u.logger.Info("starting batch upload", map[string]interface{}{
		"items":      len(requests),
		"batch_size": u.config.BatchSize,
		"batch_id":   batchID,
	})

	for start := 0; start < len(requests); start += u.config.BatchSize {
		end := min(start+u.config.BatchSize, len(requests))

		var err error
		if start > 0 {
			err = u.pauseBetweenChunks(ctx)
		}

		if err == nil {
			err = u.pacer.Wait(ctx)
		}

		if err != nil {
			for i := start; i < len(requests); i++ {
				results[i].Err = fmt.Errorf("waiting for batch slot: %w", err)
			}

			break
		}

		u.runChunk(ctx, requests[start:end], results[start:end], batchID)
	}

	failed := 0

	for _, result := range results {
		if !result.Success() {
			failed++
		}
	}

	u.logger.Info("batch upload finished", map[string]interface{}{
		"items":    len(requests),
		"failed":   failed,
		"batch_id": batchID,
	})

	return results
}

// pauseBetweenChunks blocks for BatchPause, measured from the end of the
// previous chunk.
func (u *Uploader) pauseBetweenChunks(ctx context.Context) error {
	if u.config.DisableBatchPause || u.config.BatchPause <= 0 {
		return nil
	}

	timer := time.NewTimer(u.config.BatchPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (u *Uploader) runChunk(ctx context.Context, requests []shopify.UploadRequest, results []shopify.BatchItemResult, batchID string) {
	if u.config.Concurrency <= 1 {
		for i := range requests {
			u.runItem(ctx, requests[i], &results[i], batchID)
		}

		return
	}

	var group errgroup.Group

	group.SetLimit(u.config.Concurrency)

	for i := range requests {
		group.Go(func() error {
			u.runItem(ctx, requests[i], &results[i], batchID)

			return nil
		})
	}

	_ = group.Wait()
}

func (u *Uploader) runItem(ctx context.Context, request shopify.UploadRequest, result *shopify.BatchItemResult, batchID string) {
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Err = err

		return
	}

	metadata := request.Metadata
	if batchID != "" {
		metadata.Metafields = append(append([]shopify.MetafieldInput(nil), metadata.Metafields...), shopify.MetafieldInput{
			Namespace: constants.BatchIDNamespace,
			Key:       constants.BatchIDKey,
			Value:     batchID,
			Type:      constants.MetafieldTypeSingleLine,
		})
	}

	uploaded, err := u.UploadOne(ctx, request.Source, metadata)
	if err != nil {
		result.Err = err

		return
	}

	uploaded.BatchID = batchID
	result.Result = uploaded
}

// UploadForVariants implements shopify.Uploader.UploadForVariants. The asset
// is uploaded and then attached to the product as an image linked to the
// variants. Without a CDN URL the image is created from the source bytes or
// URL instead. If the association fails the upload result is returned with
// the error.
func (u *Uploader) UploadForVariants(ctx context.Context, src shopify.UploadSource, productID int64, variantIDs []int64, metadata shopify.UploadMetadata) (*shopify.VariantUploadResult, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id is required", shopify.ErrInvalidArgument)
	}

	if len(variantIDs) == 0 {
		return nil, shopify.ErrNoVariants
	}

	wait := true
	metadata.WaitForURL = &wait

	uploaded, err := u.UploadOne(ctx, src, metadata)
	if err != nil {
		return nil, err
	}

	request := &shopify.ProductImageCreateRequest{
		Alt:        metadata.Alt,
		VariantIDs: append([]int64(nil), variantIDs...),
	}

	switch {
	case uploaded.URL != "":
		request.Src = uploaded.URL
	case src.HasData():
		request.Attachment = base64.StdEncoding.EncodeToString(src.Data)
		request.Filename = upload.EnsureFilename(src.Filename, src.URL, src.Data)
	default:
		request.Src = src.URL
	}

	result := &shopify.VariantUploadResult{UploadResult: uploaded}

	image, err := u.deps.ProductImages.Create(ctx, productID, request)
	if err != nil {
		return result, fmt.Errorf("associating asset %s with variants: %w", uploaded.Asset.ID, err)
	}

	result.Image = image

	u.logger.Info("asset associated with variants", map[string]interface{}{
		"asset_id":    uploaded.Asset.ID,
		"product_id":  productID,
		"image_id":    image.ID,
		"variant_ids": variantIDs,
	})

	return result, nil
}

// ReassociateVariants implements shopify.Uploader.ReassociateVariants. The
// image's variant set is replaced; an empty set clears it.
func (u *Uploader) ReassociateVariants(ctx context.Context, productID, imageID int64, variantIDs []int64) (*shopify.ProductImage, error) {
	if productID <= 0 || imageID <= 0 {
		return nil, fmt.Errorf("%w: product and image ids are required", shopify.ErrInvalidArgument)
	}

	ids := append(make([]int64, 0, len(variantIDs)), variantIDs...)

	image, err := u.deps.ProductImages.Update(ctx, productID, imageID, &shopify.ProductImageUpdateRequest{VariantIDs: &ids})
	if err != nil {
		return nil, fmt.Errorf("reassociating image %d: %w", imageID, err)
	}

	return image, nil
}
