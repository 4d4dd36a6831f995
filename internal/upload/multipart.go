// Package upload builds and sends direct-upload bodies and fetches source
// images from their origin.
package upload

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
	"github.com/google/uuid"
)

const (
	crlf             = "\r\n"
	boundaryPrefix   = "ShopupFormBoundary"
	defaultFileField = "file"
)

// FilePart is the file carried by a multipart body.
type FilePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartBody is an encoded multipart/form-data body.
type MultipartBody struct {
	Bytes    []byte
	Boundary string
}

// ContentType returns the header value naming the boundary.
func (b *MultipartBody) ContentType() string {
	return "multipart/form-data; boundary=" + b.Boundary
}

// BuildMultipart encodes params in order followed by the file part.
func BuildMultipart(params []shopify.StagedUploadParameter, file FilePart, layout shopify.MultipartLayout) (*MultipartBody, error) {
	return buildMultipart(params, file, layout, newBoundary)
}

func buildMultipart(params []shopify.StagedUploadParameter, file FilePart, layout shopify.MultipartLayout, boundaries func() string) (*MultipartBody, error) {
	if file.Filename == "" {
		return nil, fmt.Errorf("%w: filename is empty", shopify.ErrInvalidArgument)
	}

	for i, param := range params {
		if param.Name == "" {
			return nil, fmt.Errorf("%w: parameter %d has an empty name", shopify.ErrInvalidArgument, i)
		}
	}

	fileField := layout.FileFieldName
	if fileField == "" {
		fileField = defaultFileField
	}

	contentType := file.ContentType
	fields := params

	if layout.ContentTypeParameter != "" {
		fields = make([]shopify.StagedUploadParameter, 0, len(params))

		for _, param := range params {
			if param.Name == layout.ContentTypeParameter {
				contentType = param.Value

				continue
			}

			fields = append(fields, param)
		}
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	boundary, err := pickBoundary(params, file, boundaries)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.Grow(len(file.Data) + 256*(len(fields)+1))

	for _, field := range fields {
		buf.WriteString("--" + boundary + crlf)
		buf.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(field.Name) + `"` + crlf)
		buf.WriteString(crlf)
		buf.WriteString(field.Value)
		buf.WriteString(crlf)
	}

	buf.WriteString("--" + boundary + crlf)
	buf.WriteString(`Content-Disposition: form-data; name="` + escapeQuotes(fileField) +
		`"; filename="` + escapeQuotes(file.Filename) + `"` + crlf)
	buf.WriteString("Content-Type: " + contentType + crlf)
	buf.WriteString(crlf)
	buf.Write(file.Data)

	if !layout.OmitFileTrailingCRLF {
		buf.WriteString(crlf)
	}

	buf.WriteString("--" + boundary + "--")

	if !layout.OmitFinalCRLF {
		buf.WriteString(crlf)
	}

	return &MultipartBody{Bytes: buf.Bytes(), Boundary: boundary}, nil
}

// pickBoundary returns a boundary that occurs in neither the file bytes nor
// any parameter.
func pickBoundary(params []shopify.StagedUploadParameter, file FilePart, boundaries func() string) (string, error) {
	for range constants.MaxBoundaryAttempts {
		boundary := boundaries()
		if !boundaryCollides(boundary, params, file) {
			return boundary, nil
		}
	}

	return "", shopify.ErrBoundaryCollision
}

func boundaryCollides(boundary string, params []shopify.StagedUploadParameter, file FilePart) bool {
	if bytes.Contains(file.Data, []byte(boundary)) || strings.Contains(file.Filename, boundary) {
		return true
	}

	for _, param := range params {
		if strings.Contains(param.Name, boundary) || strings.Contains(param.Value, boundary) {
			return true
		}
	}

	return false
}

func newBoundary() string {
	return boundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
