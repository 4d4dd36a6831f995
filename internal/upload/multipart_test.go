package upload_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/arassai75/ShopifyLib-sub000/internal/upload"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func stagedParams() []shopify.StagedUploadParameter {
	return []shopify.StagedUploadParameter{
		{Name: "key", Value: "tmp/63118/products/shoe.jpg"},
		{Name: "Content-Type", Value: "image/jpeg"},
		{Name: "success_action_status", Value: "201"},
		{Name: "acl", Value: "private"},
		{Name: "policy", Value: "eyJjb25kaXRpb25zIjpbXX0="},
		{Name: "x-amz-signature", Value: "0f9e2a"},
	}
}

type decodedPart struct {
	name        string
	filename    string
	contentType string
	data        []byte
}

func decode(t *testing.T, body *upload.MultipartBody) []decodedPart {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(body.ContentType())
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(body.Bytes), params["boundary"])

	var parts []decodedPart

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		data, err := io.ReadAll(part)
		require.NoError(t, err)

		parts = append(parts, decodedPart{
			name:        part.FormName(),
			filename:    part.FileName(),
			contentType: part.Header.Get("Content-Type"),
			data:        data,
		})
	}

	return parts
}

func TestBuildMultipart_ExactLayout(t *testing.T) {
	t.Parallel()

	params := []shopify.StagedUploadParameter{
		{Name: "key", Value: "tmp/1/shoe.jpg"},
		{Name: "acl", Value: "private"},
	}

	body, err := upload.BuildMultipart(params, upload.FilePart{
		Filename:    "shoe.jpg",
		ContentType: "image/jpeg",
		Data:        jpegBytes,
	}, shopify.DefaultMultipartLayout())
	require.NoError(t, err)

	b := body.Boundary

	var expected bytes.Buffer

	expected.WriteString("--" + b + "\r\n")
	expected.WriteString("Content-Disposition: form-data; name=\"key\"\r\n\r\n")
	expected.WriteString("tmp/1/shoe.jpg\r\n")
	expected.WriteString("--" + b + "\r\n")
	expected.WriteString("Content-Disposition: form-data; name=\"acl\"\r\n\r\n")
	expected.WriteString("private\r\n")
	expected.WriteString("--" + b + "\r\n")
	expected.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"shoe.jpg\"\r\n")
	expected.WriteString("Content-Type: image/jpeg\r\n\r\n")
	expected.Write(jpegBytes)
	expected.WriteString("\r\n--" + b + "--\r\n")

	assert.Equal(t, expected.Bytes(), body.Bytes)
	assert.Equal(t, "multipart/form-data; boundary="+b, body.ContentType())
}

func TestBuildMultipart_RoundTrip(t *testing.T) {
	t.Parallel()

	params := stagedParams()

	body, err := upload.BuildMultipart(params, upload.FilePart{
		Filename:    "shoe.jpg",
		ContentType: "image/jpeg",
		Data:        jpegBytes,
	}, shopify.DefaultMultipartLayout())
	require.NoError(t, err)

	parts := decode(t, body)
	require.Len(t, parts, len(params)+1)

	for i, param := range params {
		assert.Equal(t, param.Name, parts[i].name)
		assert.Equal(t, param.Value, string(parts[i].data))
		assert.Empty(t, parts[i].filename)
	}

	file := parts[len(parts)-1]
	assert.Equal(t, "file", file.name)
	assert.Equal(t, "shoe.jpg", file.filename)
	assert.Equal(t, "image/jpeg", file.contentType)
	assert.Equal(t, jpegBytes, file.data)
}

func TestBuildMultipart_PreservesParameterOrder(t *testing.T) {
	t.Parallel()

	names := []string{"zeta", "policy", "alpha", "key", "x-goog-signature", "b", "a"}
	params := make([]shopify.StagedUploadParameter, 0, len(names))

	for i, name := range names {
		params = append(params, shopify.StagedUploadParameter{Name: name, Value: fmt.Sprintf("v%d", i)})
	}

	body, err := upload.BuildMultipart(params, upload.FilePart{Filename: "a.png", Data: []byte("x")}, shopify.DefaultMultipartLayout())
	require.NoError(t, err)

	parts := decode(t, body)
	require.Len(t, parts, len(names)+1)

	for i, name := range names {
		assert.Equal(t, name, parts[i].name)
	}
}

func TestBuildMultipart_BinaryPayloadIsByteExact(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 0, 4096)
	for i := range 4096 {
		payload = append(payload, byte(i%256))
	}

	payload = append(payload, []byte("\r\n--\r\n\r\n")...)

	body, err := upload.BuildMultipart(nil, upload.FilePart{Filename: "blob.bin", Data: payload}, shopify.DefaultMultipartLayout())
	require.NoError(t, err)

	parts := decode(t, body)
	require.Len(t, parts, 1)
	assert.Equal(t, payload, parts[0].data)
	assert.Equal(t, "application/octet-stream", parts[0].contentType)
}

func TestBuildMultipart_EmptyParameters(t *testing.T) {
	t.Parallel()

	body, err := upload.BuildMultipart(nil, upload.FilePart{Filename: "a.jpg", ContentType: "image/jpeg", Data: jpegBytes}, shopify.DefaultMultipartLayout())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body.Bytes, []byte("--"+body.Boundary+"\r\nContent-Disposition: form-data; name=\"file\"")))
}

func TestBuildMultipart_InvalidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params []shopify.StagedUploadParameter
		file   upload.FilePart
	}{
		{
			name: "empty filename",
			file: upload.FilePart{Data: jpegBytes},
		},
		{
			name:   "empty parameter name",
			params: []shopify.StagedUploadParameter{{Name: "key", Value: "k"}, {Name: "", Value: "v"}},
			file:   upload.FilePart{Filename: "a.jpg", Data: jpegBytes},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := upload.BuildMultipart(tt.params, tt.file, shopify.DefaultMultipartLayout())
			require.ErrorIs(t, err, shopify.ErrInvalidArgument)
		})
	}
}

func TestBuildMultipart_EscapesQuotes(t *testing.T) {
	t.Parallel()

	body, err := upload.BuildMultipart(
		[]shopify.StagedUploadParameter{{Name: `we"ird`, Value: "1"}},
		upload.FilePart{Filename: `my "best" shoe.jpg`, Data: jpegBytes},
		shopify.DefaultMultipartLayout(),
	)
	require.NoError(t, err)

	parts := decode(t, body)
	require.Len(t, parts, 2)
	assert.Equal(t, `we"ird`, parts[0].name)
	assert.Equal(t, `my "best" shoe.jpg`, parts[1].filename)
}

func TestBuildMultipart_Layouts(t *testing.T) {
	t.Parallel()

	file := upload.FilePart{Filename: "shoe.jpg", ContentType: "image/jpeg", Data: jpegBytes}

	t.Run("omit final CRLF", func(t *testing.T) {
		t.Parallel()

		body, err := upload.BuildMultipart(nil, file, shopify.MultipartLayout{OmitFinalCRLF: true})
		require.NoError(t, err)
		assert.True(t, bytes.HasSuffix(body.Bytes, []byte("\r\n--"+body.Boundary+"--")))
	})

	t.Run("omit file trailing CRLF", func(t *testing.T) {
		t.Parallel()

		body, err := upload.BuildMultipart(nil, file, shopify.MultipartLayout{OmitFileTrailingCRLF: true})
		require.NoError(t, err)

		suffix := append(append([]byte{}, jpegBytes...), []byte("--"+body.Boundary+"--\r\n")...)
		assert.True(t, bytes.HasSuffix(body.Bytes, suffix))
	})

	t.Run("custom file field name", func(t *testing.T) {
		t.Parallel()

		body, err := upload.BuildMultipart(nil, file, shopify.MultipartLayout{FileFieldName: "upload"})
		require.NoError(t, err)

		parts := decode(t, body)
		require.Len(t, parts, 1)
		assert.Equal(t, "upload", parts[0].name)
	})

	t.Run("content type taken from parameter", func(t *testing.T) {
		t.Parallel()

		params := stagedParams()

		body, err := upload.BuildMultipart(params, upload.FilePart{Filename: "shoe.jpg", Data: jpegBytes},
			shopify.MultipartLayout{ContentTypeParameter: "Content-Type"})
		require.NoError(t, err)

		parts := decode(t, body)
		require.Len(t, parts, len(params))

		for _, part := range parts[:len(parts)-1] {
			assert.NotEqual(t, "Content-Type", part.name)
		}

		assert.Equal(t, "image/jpeg", parts[len(parts)-1].contentType)
	})
}

func TestBuildMultipart_BoundaryAbsentFromPayload(t *testing.T) {
	t.Parallel()

	for range 20 {
		body, err := upload.BuildMultipart(stagedParams(), upload.FilePart{Filename: "a.jpg", Data: jpegBytes}, shopify.DefaultMultipartLayout())
		require.NoError(t, err)
		assert.False(t, bytes.Contains(jpegBytes, []byte(body.Boundary)))
		assert.True(t, strings.HasPrefix(body.Boundary, "ShopupFormBoundary"))
	}
}
