package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/internal/http"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/cenkalti/backoff/v4"
)

const defaultThrottleInterval = time.Second

// GraphQLClient implements shopify.GraphQLClient.
type GraphQLClient struct {
	httpClient       *http.Client
	path             string
	throttleRetryMax int
	throttleInterval time.Duration
	logger           shopify.Logger
}

// NewGraphQLClient creates a new GraphQL client for the given API version.
func NewGraphQLClient(httpClient *http.Client, apiVersion string) *GraphQLClient {
	return &GraphQLClient{
		httpClient:       httpClient,
		path:             adminPath(apiVersion, "graphql.json"),
		throttleRetryMax: constants.DefaultThrottleRetryMax,
		throttleInterval: defaultThrottleInterval,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage             `json:"data"`
	Errors []shopify.GraphQLErrorEntry `json:"errors"`
}

// ExecuteQuery implements shopify.GraphQLClient.ExecuteQuery.
func (c *GraphQLClient) ExecuteQuery(ctx context.Context, query string, variables map[string]interface{}) (string, error) {
	resp, err := c.httpClient.Post(ctx, c.path, graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return "", fmt.Errorf("executing graphql query: %w", err)
	}

	return string(resp.Body), nil
}

// Do implements shopify.GraphQLClient.Do. THROTTLED responses are retried
// with exponential backoff; every other error is returned at once.
func (c *GraphQLClient) Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	var data json.RawMessage

	operation := func() error {
		var err error

		data, err = c.executeOnce(ctx, query, variables)
		if err == nil {
			return nil
		}

		if shopify.IsThrottled(err) {
			if c.logger != nil {
				c.logger.Warn("graphql request throttled", map[string]interface{}{"error": err.Error()})
			}

			return err
		}

		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.throttleInterval

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.throttleRetryMax)), ctx))
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return &shopify.UnexpectedResponseError{Operation: "decoding graphql data", Err: err}
	}

	return nil
}

func (c *GraphQLClient) executeOnce(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	resp, err := c.httpClient.Post(ctx, c.path, graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("executing graphql query: %w", err)
	}

	var envelope graphQLEnvelope

	err = json.Unmarshal(resp.Body, &envelope)
	if err != nil {
		return nil, &shopify.UnexpectedResponseError{Operation: "decoding graphql response", Err: err}
	}

	if len(envelope.Errors) > 0 {
		return nil, &shopify.GraphQLError{Errors: envelope.Errors}
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, &shopify.UnexpectedResponseError{Operation: "decoding graphql response", Err: errMissingData}
	}

	return envelope.Data, nil
}

var errMissingData = errors.New("response has no data member")
