package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/arassai75/ShopifyLib-sub000/internal/http"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

// ProductImagesClient implements shopify.ProductImagesClient.
type ProductImagesClient struct {
	httpClient *http.Client
	apiVersion string
}

// NewProductImagesClient creates a new product images client.
func NewProductImagesClient(httpClient *http.Client, apiVersion string) *ProductImagesClient {
	return &ProductImagesClient{
		httpClient: httpClient,
		apiVersion: apiVersion,
	}
}

type imageEnvelope struct {
	Image interface{} `json:"image"`
}

// Create implements shopify.ProductImagesClient.Create. Either Src or
// Attachment must be set.
func (c *ProductImagesClient) Create(ctx context.Context, productID int64, request *shopify.ProductImageCreateRequest) (*shopify.ProductImage, error) {
	if request == nil || (request.Src == "" && request.Attachment == "") {
		return nil, fmt.Errorf("%w: image src or attachment is required", shopify.ErrInvalidArgument)
	}

	resp, err := c.httpClient.Post(ctx, c.imagesPath(productID), imageEnvelope{Image: request})
	if err != nil {
		return nil, fmt.Errorf("creating product image: %w", err)
	}

	return decodeImage(resp.Body)
}

// Get implements shopify.ProductImagesClient.Get.
func (c *ProductImagesClient) Get(ctx context.Context, productID, imageID int64) (*shopify.ProductImage, error) {
	resp, err := c.httpClient.Get(ctx, c.imagePath(productID, imageID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting product image: %w", err)
	}

	return decodeImage(resp.Body)
}

// List implements shopify.ProductImagesClient.List.
func (c *ProductImagesClient) List(ctx context.Context, productID int64) ([]shopify.ProductImage, error) {
	resp, err := c.httpClient.Get(ctx, c.imagesPath(productID), nil)
	if err != nil {
		return nil, fmt.Errorf("listing product images: %w", err)
	}

	var result struct {
		Images []shopify.ProductImage `json:"images"`
	}

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing product images list response: %w", err)
	}

	return result.Images, nil
}

// Update implements shopify.ProductImagesClient.Update.
func (c *ProductImagesClient) Update(ctx context.Context, productID, imageID int64, request *shopify.ProductImageUpdateRequest) (*shopify.ProductImage, error) {
	if request == nil {
		return nil, fmt.Errorf("%w: update request is required", shopify.ErrInvalidArgument)
	}

	body := struct {
		ID int64 `json:"id"`
		*shopify.ProductImageUpdateRequest
	}{ID: imageID, ProductImageUpdateRequest: request}

	resp, err := c.httpClient.Put(ctx, c.imagePath(productID, imageID), imageEnvelope{Image: body})
	if err != nil {
		return nil, fmt.Errorf("updating product image: %w", err)
	}

	return decodeImage(resp.Body)
}

// Delete implements shopify.ProductImagesClient.Delete.
func (c *ProductImagesClient) Delete(ctx context.Context, productID, imageID int64) error {
	_, err := c.httpClient.Delete(ctx, c.imagePath(productID, imageID))
	if err != nil {
		return fmt.Errorf("deleting product image: %w", err)
	}

	return nil
}

func (c *ProductImagesClient) imagesPath(productID int64) string {
	return adminPath(c.apiVersion, "products", strconv.FormatInt(productID, 10), "images.json")
}

func (c *ProductImagesClient) imagePath(productID, imageID int64) string {
	return adminPath(c.apiVersion, "products", strconv.FormatInt(productID, 10), "images", strconv.FormatInt(imageID, 10)+".json")
}

func decodeImage(body []byte) (*shopify.ProductImage, error) {
	var envelope struct {
		Image *shopify.ProductImage `json:"image"`
	}

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing product image response: %w", err)
	}

	if envelope.Image == nil {
		return nil, &shopify.UnexpectedResponseError{Operation: "product image", Err: errMissingPayload}
	}

	return envelope.Image, nil
}
