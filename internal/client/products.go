package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/arassai75/ShopifyLib-sub000/internal/http"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

// ProductsClient implements shopify.ProductsClient.
type ProductsClient struct {
	httpClient *http.Client
	apiVersion string
}

// NewProductsClient creates a new products client.
func NewProductsClient(httpClient *http.Client, apiVersion string) *ProductsClient {
	return &ProductsClient{
		httpClient: httpClient,
		apiVersion: apiVersion,
	}
}

type productEnvelope struct {
	Product *shopify.Product `json:"product"`
}

// Create implements shopify.ProductsClient.Create.
func (c *ProductsClient) Create(ctx context.Context, product *shopify.Product) (*shopify.Product, error) {
	resp, err := c.httpClient.Post(ctx, adminPath(c.apiVersion, "products.json"), productEnvelope{Product: product})
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return decodeProduct(resp.Body)
}

// Get implements shopify.ProductsClient.Get.
func (c *ProductsClient) Get(ctx context.Context, productID int64) (*shopify.Product, error) {
	resp, err := c.httpClient.Get(ctx, c.productPath(productID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}

	return decodeProduct(resp.Body)
}

// List implements shopify.ProductsClient.List.
func (c *ProductsClient) List(ctx context.Context, opts *shopify.ListOptions) ([]shopify.Product, error) {
	resp, err := c.httpClient.Get(ctx, adminPath(c.apiVersion, "products.json"), opts.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	var result struct {
		Products []shopify.Product `json:"products"`
	}

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing products list response: %w", err)
	}

	return result.Products, nil
}

// Update implements shopify.ProductsClient.Update.
func (c *ProductsClient) Update(ctx context.Context, productID int64, product *shopify.Product) (*shopify.Product, error) {
	resp, err := c.httpClient.Put(ctx, c.productPath(productID), productEnvelope{Product: product})
	if err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}

	return decodeProduct(resp.Body)
}

// Delete implements shopify.ProductsClient.Delete.
func (c *ProductsClient) Delete(ctx context.Context, productID int64) error {
	_, err := c.httpClient.Delete(ctx, c.productPath(productID))
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	return nil
}

func (c *ProductsClient) productPath(productID int64) string {
	return adminPath(c.apiVersion, "products", strconv.FormatInt(productID, 10)+".json")
}

func decodeProduct(body []byte) (*shopify.Product, error) {
	var envelope productEnvelope

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing product response: %w", err)
	}

	if envelope.Product == nil {
		return nil, &shopify.UnexpectedResponseError{Operation: "product", Err: errMissingPayload}
	}

	return envelope.Product, nil
}
