package client

import (
	"context"
	"fmt"
	"time"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
)

const metafieldFields = `id namespace key value type createdAt updatedAt`

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { ` + metafieldFields + ` }
    userErrors { field message code }
  }
}`

const metafieldQuery = `
query metafield($ownerId: ID!, $namespace: String!, $key: String!) {
  node(id: $ownerId) {
    ... on HasMetafields {
      metafield(namespace: $namespace, key: $key) { ` + metafieldFields + ` }
    }
  }
}`

const metafieldsQuery = `
query metafields($ownerId: ID!, $first: Int!, $after: String) {
  node(id: $ownerId) {
    ... on HasMetafields {
      metafields(first: $first, after: $after) {
        nodes { ` + metafieldFields + ` }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

const metafieldsPageSize = 250

type metafieldNode struct {
	ID        string    `json:"id"`
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (n *metafieldNode) toMetafield(ownerID string) *shopify.Metafield {
	return &shopify.Metafield{
		ID:        n.ID,
		OwnerID:   ownerID,
		Namespace: n.Namespace,
		Key:       n.Key,
		Value:     n.Value,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// MetafieldsClient implements shopify.MetafieldsClient.
type MetafieldsClient struct {
	graphql *GraphQLClient
}

// NewMetafieldsClient creates a new metafields client.
func NewMetafieldsClient(graphql *GraphQLClient) *MetafieldsClient {
	return &MetafieldsClient{graphql: graphql}
}

// Set implements shopify.MetafieldsClient.Set. Writing an existing
// namespace and key overwrites the stored value.
func (c *MetafieldsClient) Set(ctx context.Context, ownerID string, input shopify.MetafieldInput) (*shopify.Metafield, error) {
	if ownerID == "" || input.Namespace == "" || input.Key == "" {
		return nil, fmt.Errorf("%w: owner, namespace and key are required", shopify.ErrInvalidArgument)
	}

	metafieldType := input.Type
	if metafieldType == "" {
		metafieldType = constants.MetafieldTypeSingleLine
	}

	variables := map[string]interface{}{
		"metafields": []interface{}{
			map[string]interface{}{
				"ownerId":   ownerID,
				"namespace": input.Namespace,
				"key":       input.Key,
				"value":     input.Value,
				"type":      metafieldType,
			},
		},
	}

	var data struct {
		MetafieldsSet *struct {
			Metafields []metafieldNode     `json:"metafields"`
			UserErrors []shopify.UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}

	err := c.graphql.Do(ctx, metafieldsSetMutation, variables, &data)
	if err != nil {
		return nil, &shopify.MetadataWriteError{OwnerID: ownerID, Namespace: input.Namespace, Key: input.Key, Err: err}
	}

	if data.MetafieldsSet == nil {
		return nil, &shopify.UnexpectedResponseError{Operation: "metafieldsSet", Err: errMissingPayload}
	}

	if len(data.MetafieldsSet.UserErrors) > 0 {
		return nil, &shopify.MetadataWriteError{
			OwnerID:    ownerID,
			Namespace:  input.Namespace,
			Key:        input.Key,
			UserErrors: data.MetafieldsSet.UserErrors,
		}
	}

	if len(data.MetafieldsSet.Metafields) == 0 {
		return nil, &shopify.UnexpectedResponseError{Operation: "metafieldsSet", Err: errMissingPayload}
	}

	return data.MetafieldsSet.Metafields[0].toMetafield(ownerID), nil
}

// Get implements shopify.MetafieldsClient.Get.
func (c *MetafieldsClient) Get(ctx context.Context, ownerID, namespace, key string) (*shopify.Metafield, error) {
	var data struct {
		Node *struct {
			Metafield *metafieldNode `json:"metafield"`
		} `json:"node"`
	}

	err := c.graphql.Do(ctx, metafieldQuery, map[string]interface{}{
		"ownerId":   ownerID,
		"namespace": namespace,
		"key":       key,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("getting metafield: %w", err)
	}

	if data.Node == nil || data.Node.Metafield == nil {
		return nil, fmt.Errorf("%w: metafield %s.%s on %s", shopify.ErrFileNotFound, namespace, key, ownerID)
	}

	return data.Node.Metafield.toMetafield(ownerID), nil
}

// GetAll implements shopify.MetafieldsClient.GetAll, following pagination.
func (c *MetafieldsClient) GetAll(ctx context.Context, ownerID string) ([]shopify.Metafield, error) {
	var (
		all    []shopify.Metafield
		cursor *string
	)

	for {
		var data struct {
			Node *struct {
				Metafields struct {
					Nodes    []metafieldNode `json:"nodes"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"metafields"`
			} `json:"node"`
		}

		variables := map[string]interface{}{"ownerId": ownerID, "first": metafieldsPageSize}
		if cursor != nil {
			variables["after"] = *cursor
		}

		err := c.graphql.Do(ctx, metafieldsQuery, variables, &data)
		if err != nil {
			return nil, fmt.Errorf("listing metafields: %w", err)
		}

		if data.Node == nil {
			return nil, fmt.Errorf("%w: %s", shopify.ErrFileNotFound, ownerID)
		}

		for i := range data.Node.Metafields.Nodes {
			all = append(all, *data.Node.Metafields.Nodes[i].toMetafield(ownerID))
		}

		if !data.Node.Metafields.PageInfo.HasNextPage {
			return all, nil
		}

		next := data.Node.Metafields.PageInfo.EndCursor
		cursor = &next
	}
}
