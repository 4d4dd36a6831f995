package upload

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/arassai75/ShopifyLib-sub000/internal/constants"
	"github.com/gabriel-vasile/mimetype"
)

const fallbackFilename = "upload"

// DetectContentType returns the media type of data. A declared type wins
// unless it is missing or generic.
func DetectContentType(data []byte, declared string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && !isGeneric(mediaType) {
		return mediaType
	}

	sniff := data
	if len(sniff) > constants.SniffLength {
		sniff = sniff[:constants.SniffLength]
	}

	detected := mimetype.Detect(sniff).String()
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}

	return "application/octet-stream"
}

// FilenameFromURL returns the last path segment of rawURL, or "".
func FilenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}

	return base
}

// EnsureFilename returns filename, else the URL's last segment, else
// "upload" with an extension matching the sniffed type.
func EnsureFilename(filename, rawURL string, data []byte) string {
	if filename != "" {
		return filename
	}

	if fromURL := FilenameFromURL(rawURL); fromURL != "" {
		if path.Ext(fromURL) != "" || len(data) == 0 {
			return fromURL
		}

		return fromURL + mimetype.Detect(data).Extension()
	}

	if len(data) == 0 {
		return fallbackFilename
	}

	return fallbackFilename + mimetype.Detect(data).Extension()
}

// ContentKindFor maps a media type to the platform's content kind.
func ContentKindFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return constants.ContentKindImage
	case strings.HasPrefix(contentType, "video/"):
		return constants.ContentKindVideo
	default:
		return constants.ContentKindFile
	}
}

func isGeneric(mediaType string) bool {
	return mediaType == "" || mediaType == "application/octet-stream" || mediaType == "binary/octet-stream"
}
