package client

import (
	"context"
	"testing"

	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagedTargetResponse(url, resourceURL string, params ...string) interface{} {
	parameters := make([]map[string]interface{}, 0, len(params)/2)
	for i := 0; i+1 < len(params); i += 2 {
		parameters = append(parameters, map[string]interface{}{"name": params[i], "value": params[i+1]})
	}

	return gqlData(map[string]interface{}{
		"stagedUploadsCreate": map[string]interface{}{
			"stagedTargets": []map[string]interface{}{{
				"url":         url,
				"resourceUrl": resourceURL,
				"parameters":  parameters,
			}},
			"userErrors": []interface{}{},
		},
	})
}

func TestStagedUploadsClient_CreateTarget(t *testing.T) {
	t.Parallel()

	server, log := newGraphQLServer(t, map[string]graphQLResponder{
		"stagedUploadsCreate": func(call graphQLCall) interface{} {
			return stagedTargetResponse(
				"https://shopify-staged-uploads.storage.googleapis.com/",
				"https://shopify-staged-uploads.storage.googleapis.com/tmp/1/products/test.jpg",
				"key", "tmp/1/products/test.jpg",
				"Content-Type", "image/jpeg",
				"success_action_status", "201",
				"policy", "eyJjb25kaXRpb25zIjpbXX0=",
				"x-goog-signature", "abc123",
			)
		},
	})

	staged := NewStagedUploadsClient(newTestGraphQLClient(server.URL))

	target, err := staged.CreateTarget(context.Background(), &shopify.StagedUploadRequest{
		Filename: "test.jpg",
		MimeType: "image/jpeg",
		FileSize: 68,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://shopify-staged-uploads.storage.googleapis.com/", target.URL)
	assert.Equal(t, "https://shopify-staged-uploads.storage.googleapis.com/tmp/1/products/test.jpg", target.ResourceURL)
	assert.Equal(t, "POST", target.Method())
	assert.Equal(t, []shopify.StagedUploadParameter{
		{Name: "key", Value: "tmp/1/products/test.jpg"},
		{Name: "Content-Type", Value: "image/jpeg"},
		{Name: "success_action_status", Value: "201"},
		{Name: "policy", Value: "eyJjb25kaXRpb25zIjpbXX0="},
		{Name: "x-goog-signature", Value: "abc123"},
	}, target.Parameters)

	input := log.last("stagedUploadsCreate").Variables["input"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "test.jpg", input["filename"])
	assert.Equal(t, "image/jpeg", input["mimeType"])
	assert.Equal(t, "IMAGE", input["resource"])
	assert.Equal(t, "POST", input["httpMethod"])
	assert.Equal(t, "68", input["fileSize"])
}

func TestStagedUploadsClient_CreateTarget_PUT(t *testing.T) {
	t.Parallel()

	server, log := newGraphQLServer(t, map[string]graphQLResponder{
		"stagedUploadsCreate": func(call graphQLCall) interface{} {
			return stagedTargetResponse("https://storage.example.com/signed?sig=1", "https://storage.example.com/signed")
		},
	})

	target, err := NewStagedUploadsClient(newTestGraphQLClient(server.URL)).CreateTarget(context.Background(), &shopify.StagedUploadRequest{
		Filename:   "clip.mp4",
		MimeType:   "video/mp4",
		Resource:   "VIDEO",
		HTTPMethod: "put",
	})
	require.NoError(t, err)
	assert.Equal(t, "PUT", target.Method())
	assert.Empty(t, target.Parameters)

	input := log.last("stagedUploadsCreate").Variables["input"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "VIDEO", input["resource"])
	assert.Equal(t, "PUT", input["httpMethod"])
	assert.NotContains(t, input, "fileSize")
}

func TestStagedUploadsClient_CreateTarget_Rejected(t *testing.T) {
	t.Parallel()

	server, _ := newGraphQLServer(t, map[string]graphQLResponder{
		"stagedUploadsCreate": func(call graphQLCall) interface{} {
			return gqlData(map[string]interface{}{
				"stagedUploadsCreate": map[string]interface{}{
					"stagedTargets": []interface{}{},
					"userErrors": []map[string]interface{}{{
						"field":   []string{"input", "0", "mimeType"},
						"message": "Mime type is not supported",
					}},
				},
			})
		},
	})

	target, err := NewStagedUploadsClient(newTestGraphQLClient(server.URL)).CreateTarget(context.Background(), &shopify.StagedUploadRequest{
		Filename: "notes.exe",
		MimeType: "application/x-msdownload",
	})
	require.Error(t, err)
	assert.Nil(t, target)
	assert.True(t, shopify.IsNegotiationRejected(err))
	assert.Equal(t, shopify.StepNegotiate, shopify.StepOf(err))
	assert.Contains(t, err.Error(), "input.0.mimeType: Mime type is not supported")
}

func TestStagedUploadsClient_CreateTarget_InvalidArguments(t *testing.T) {
	t.Parallel()

	server, log := newGraphQLServer(t, map[string]graphQLResponder{})
	staged := NewStagedUploadsClient(newTestGraphQLClient(server.URL))

	tests := []struct {
		name    string
		request *shopify.StagedUploadRequest
	}{
		{name: "nil request", request: nil},
		{name: "empty filename", request: &shopify.StagedUploadRequest{MimeType: "image/jpeg"}},
		{name: "empty mime type", request: &shopify.StagedUploadRequest{Filename: "test.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := staged.CreateTarget(context.Background(), tt.request)
			require.Error(t, err)
			assert.ErrorIs(t, err, shopify.ErrInvalidArgument)
		})
	}

	assert.Equal(t, 0, log.count("stagedUploadsCreate"))
}

func TestStagedUploadsClient_CreateTarget_EmptyTargets(t *testing.T) {
	t.Parallel()

	server, _ := newGraphQLServer(t, map[string]graphQLResponder{
		"stagedUploadsCreate": func(call graphQLCall) interface{} {
			return gqlData(map[string]interface{}{
				"stagedUploadsCreate": map[string]interface{}{"stagedTargets": []interface{}{}, "userErrors": []interface{}{}},
			})
		},
	})

	_, err := NewStagedUploadsClient(newTestGraphQLClient(server.URL)).CreateTarget(context.Background(), &shopify.StagedUploadRequest{
		Filename: "test.jpg",
		MimeType: "image/jpeg",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shopify.ErrUnexpectedResponse)
	assert.ErrorIs(t, err, shopify.ErrEmptyTarget)
	assert.Equal(t, shopify.StepNegotiate, shopify.StepOf(err))
}

func TestStagedUploadsClient_CreateTarget_GraphQLErrorCarriesStep(t *testing.T) {
	t.Parallel()

	server, _ := newGraphQLServer(t, map[string]graphQLResponder{
		"stagedUploadsCreate": func(call graphQLCall) interface{} {
			return map[string]interface{}{"errors": []map[string]interface{}{{
				"message":    "Access denied for stagedUploadsCreate field.",
				"extensions": map[string]interface{}{"code": "ACCESS_DENIED"},
			}}}
		},
	})

	_, err := NewStagedUploadsClient(newTestGraphQLClient(server.URL)).CreateTarget(context.Background(), &shopify.StagedUploadRequest{
		Filename: "test.jpg",
		MimeType: "image/jpeg",
	})
	require.Error(t, err)
	assert.Equal(t, shopify.StepNegotiate, shopify.StepOf(err))
	assert.False(t, shopify.IsNegotiationRejected(err))

	var graphqlErr *shopify.GraphQLError
	assert.ErrorAs(t, err, &graphqlErr)
}
