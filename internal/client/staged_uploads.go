package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

var errMissingPayload = errors.New("mutation payload is missing")

const stagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters { name value }
    }
    userErrors { field message }
  }
}`

// StagedUploadsClient implements shopify.StagedUploadsClient.
type StagedUploadsClient struct {
	graphql *GraphQLClient
}

// NewStagedUploadsClient creates a new staged uploads client.
func NewStagedUploadsClient(graphql *GraphQLClient) *StagedUploadsClient {
	return &StagedUploadsClient{graphql: graphql}
}

// CreateTarget implements shopify.StagedUploadsClient.CreateTarget. The
// target's parameters are returned exactly as the server ordered them.
func (c *StagedUploadsClient) CreateTarget(ctx context.Context, request *shopify.StagedUploadRequest) (*shopify.UploadTarget, error) {
	if request == nil || request.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", shopify.ErrInvalidArgument)
	}

	if request.MimeType == "" {
		return nil, fmt.Errorf("%w: mime type is required", shopify.ErrInvalidArgument)
	}

	resource := request.Resource
	if resource == "" {
		resource = constants.ContentKindImage
	}

	method := strings.ToUpper(request.HTTPMethod)
	if method != http.MethodPut {
		method = http.MethodPost
	}

	input := map[string]interface{}{
		"filename":   request.Filename,
		"mimeType":   request.MimeType,
		"resource":   resource,
		"httpMethod": method,
	}

	if request.FileSize > 0 {
		input["fileSize"] = strconv.FormatInt(request.FileSize, 10)
	}

	var data struct {
		StagedUploadsCreate *struct {
			StagedTargets []shopify.UploadTarget `json:"stagedTargets"`
			UserErrors    []shopify.UserError    `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}

	err := c.graphql.Do(ctx, stagedUploadsCreateMutation, map[string]interface{}{"input": []interface{}{input}}, &data)
	if err != nil {
		return nil, &shopify.StepFailure{StepName: shopify.StepNegotiate, Err: fmt.Errorf("creating staged upload target: %w", err)}
	}

	payload := data.StagedUploadsCreate
	if payload == nil {
		return nil, &shopify.StepFailure{
			StepName: shopify.StepNegotiate,
			Err:      &shopify.UnexpectedResponseError{Operation: "stagedUploadsCreate", Err: errMissingPayload},
		}
	}

	if len(payload.UserErrors) > 0 {
		return nil, &shopify.NegotiationRejectedError{Filename: request.Filename, UserErrors: payload.UserErrors}
	}

	if len(payload.StagedTargets) == 0 || payload.StagedTargets[0].URL == "" {
		return nil, &shopify.StepFailure{
			StepName: shopify.StepNegotiate,
			Err:      &shopify.UnexpectedResponseError{Operation: "stagedUploadsCreate", Err: shopify.ErrEmptyTarget},
		}
	}

	target := payload.StagedTargets[0]
	target.HTTPMethod = method

	return &target, nil
}
