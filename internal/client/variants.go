package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/arassai75/ShopifyLib-sub000/internal/http"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

// VariantsClient implements shopify.VariantsClient.
type VariantsClient struct {
	httpClient *http.Client
	apiVersion string
}

// NewVariantsClient creates a new variants client.
func NewVariantsClient(httpClient *http.Client, apiVersion string) *VariantsClient {
	return &VariantsClient{
		httpClient: httpClient,
		apiVersion: apiVersion,
	}
}

type variantEnvelope struct {
	Variant *shopify.Variant `json:"variant"`
}

// Get implements shopify.VariantsClient.Get.
func (c *VariantsClient) Get(ctx context.Context, variantID int64) (*shopify.Variant, error) {
	resp, err := c.httpClient.Get(ctx, c.variantPath(variantID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting variant: %w", err)
	}

	return decodeVariant(resp.Body)
}

// List implements shopify.VariantsClient.List.
func (c *VariantsClient) List(ctx context.Context, productID int64) ([]shopify.Variant, error) {
	path := adminPath(c.apiVersion, "products", strconv.FormatInt(productID, 10), "variants.json")

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}

	var result struct {
		Variants []shopify.Variant `json:"variants"`
	}

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing variants list response: %w", err)
	}

	return result.Variants, nil
}

// Update implements shopify.VariantsClient.Update.
func (c *VariantsClient) Update(ctx context.Context, variantID int64, variant *shopify.Variant) (*shopify.Variant, error) {
	if variant == nil {
		return nil, fmt.Errorf("%w: variant is required", shopify.ErrInvalidArgument)
	}

	body := *variant
	body.ID = variantID

	resp, err := c.httpClient.Put(ctx, c.variantPath(variantID), variantEnvelope{Variant: &body})
	if err != nil {
		return nil, fmt.Errorf("updating variant: %w", err)
	}

	return decodeVariant(resp.Body)
}

func (c *VariantsClient) variantPath(variantID int64) string {
	return adminPath(c.apiVersion, "variants", strconv.FormatInt(variantID, 10)+".json")
}

func decodeVariant(body []byte) (*shopify.Variant, error) {
	var envelope variantEnvelope

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("parsing variant response: %w", err)
	}

	if envelope.Variant == nil {
		return nil, &shopify.UnexpectedResponseError{Operation: "variant", Err: errMissingPayload}
	}

	return envelope.Variant, nil
}
