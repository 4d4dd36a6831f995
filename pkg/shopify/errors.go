package shopify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Upload steps, reported by every typed upload error.
const (
	StepNegotiate = "negotiate"
	StepSend      = "send"
	StepFinalize  = "finalize"
	StepPoll      = "poll"
	StepDownload  = "download"
	StepMetadata  = "metadata"
)

// GraphQL error extension codes.
const (
	GraphQLCodeThrottled = "THROTTLED"
)

// Common static errors that can be wrapped with context.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnexpectedResponse  = errors.New("unexpected response shape")
	ErrConfigRequired      = errors.New("config is required")
	ErrShopDomainRequired  = errors.New("shop domain is required")
	ErrAccessTokenRequired = errors.New("access token is required")
	ErrNoHostInURL         = errors.New("no host specified in URL")
	ErrNoSource            = errors.New("upload source has neither data nor URL")
	ErrEmptyTarget         = errors.New("staged upload returned no target")
	ErrEmptyFileCreate     = errors.New("fileCreate returned no file")
	ErrNoURLAvailable      = errors.New("asset has no CDN URL yet")
	ErrUnknownStrategy     = errors.New("unknown upload strategy")
	ErrNoVariants          = errors.New("at least one variant id is required")
	ErrResponseTooLarge    = errors.New("response exceeds size limit")
	ErrBoundaryCollision   = errors.New("could not generate a boundary absent from the payload")
	ErrUnsupportedCache    = errors.New("unsupported cache type")
	ErrNATSConnRequired    = errors.New("NATS connection is required for the nats cache")
	ErrFileNotFound        = errors.New("file not found")
)

// StepError is implemented by errors that know which upload step produced them.
type StepError interface {
	error
	Step() string
}

// StepFailure attaches an upload step to a failure that has no typed error
// of its own, such as a GraphQL or HTTP error during negotiation.
type StepFailure struct {
	StepName string
	Err      error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.StepName, e.Err)
}

func (e *StepFailure) Unwrap() error { return e.Err }

// Step implements StepError.
func (e *StepFailure) Step() string { return e.StepName }

// NegotiationRejectedError means stagedUploadsCreate returned user errors.
type NegotiationRejectedError struct {
	Filename   string
	UserErrors []UserError
}

func (e *NegotiationRejectedError) Error() string {
	return fmt.Sprintf("%s: staged upload rejected for %q: %s", StepNegotiate, e.Filename, joinUserErrors(e.UserErrors))
}

// Step implements StepError.
func (e *NegotiationRejectedError) Step() string { return StepNegotiate }

// TransportError means the storage target answered non-2xx or could not be reached.
type TransportError struct {
	Method     string
	Host       string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s %s: %v", StepSend, e.Method, e.Host, e.Err)
	}

	return fmt.Sprintf("%s: %s %s returned %d: %s", StepSend, e.Method, e.Host, e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *TransportError) Unwrap() error { return e.Err }

// Step implements StepError.
func (e *TransportError) Step() string { return StepSend }

// FinalizationRejectedError means fileCreate returned user errors.
type FinalizationRejectedError struct {
	OriginalSource string
	UserErrors     []UserError
}

func (e *FinalizationRejectedError) Error() string {
	return fmt.Sprintf("%s: fileCreate rejected: %s", StepFinalize, joinUserErrors(e.UserErrors))
}

// Step implements StepError.
func (e *FinalizationRejectedError) Step() string { return StepFinalize }

// DownloadError means a source URL could not be fetched.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned %d", StepDownload, e.URL, e.StatusCode)
	}

	return fmt.Sprintf("%s: %s: %v", StepDownload, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Step implements StepError.
func (e *DownloadError) Step() string { return StepDownload }

// MetadataWriteError means a metafield write failed after the asset was created.
type MetadataWriteError struct {
	OwnerID    string
	Namespace  string
	Key        string
	UserErrors []UserError
	Err        error
}

func (e *MetadataWriteError) Error() string {
	detail := joinUserErrors(e.UserErrors)
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}

	return fmt.Sprintf("%s: writing %s.%s on %s: %s", StepMetadata, e.Namespace, e.Key, e.OwnerID, detail)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

// Step implements StepError.
func (e *MetadataWriteError) Step() string { return StepMetadata }

// AssetFailedError means the platform marked the asset FAILED while polling.
type AssetFailedError struct {
	AssetID    string
	FileErrors []FileError
}

func (e *AssetFailedError) Error() string {
	messages := make([]string, 0, len(e.FileErrors))
	for _, fe := range e.FileErrors {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Code, fe.Message))
	}

	if len(messages) == 0 {
		messages = append(messages, "no details")
	}

	return fmt.Sprintf("%s: asset %s failed processing: %s", StepPoll, e.AssetID, strings.Join(messages, "; "))
}

// Step implements StepError.
func (e *AssetFailedError) Step() string { return StepPoll }

// PollError means a status query failed while waiting for a CDN URL.
type PollError struct {
	AssetID string
	Err     error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("%s: querying %s: %v", StepPoll, e.AssetID, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// Step implements StepError.
func (e *PollError) Step() string { return StepPoll }

// UserErrorsError carries the user errors of a mutation outside the upload steps.
type UserErrorsError struct {
	Operation  string
	UserErrors []UserError
}

func (e *UserErrorsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, joinUserErrors(e.UserErrors))
}

// UnexpectedResponseError means a response did not decode into the expected shape.
type UnexpectedResponseError struct {
	Operation string
	Err       error
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *UnexpectedResponseError) Unwrap() []error { return []error{ErrUnexpectedResponse, e.Err} }

// GraphQLErrorEntry is one entry of a GraphQL top-level errors array.
type GraphQLErrorEntry struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// GraphQLError carries the top-level errors of a GraphQL response.
type GraphQLError struct {
	Errors []GraphQLErrorEntry
}

func (e *GraphQLError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		if entry.Extensions.Code != "" {
			messages = append(messages, fmt.Sprintf("%s (%s)", entry.Message, entry.Extensions.Code))
		} else {
			messages = append(messages, entry.Message)
		}
	}

	return "graphql: " + strings.Join(messages, "; ")
}

// Throttled reports whether any entry carries the THROTTLED code.
func (e *GraphQLError) Throttled() bool {
	for _, entry := range e.Errors {
		if entry.Extensions.Code == GraphQLCodeThrottled {
			return true
		}
	}

	return false
}

// ResponseError represents a REST error body, either {"errors": "text"} or
// {"errors": {"field": ["message"]}}.
type ResponseError struct {
	StatusCode int
	Messages   []string
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// ParseResponseError parses a REST error body. Bodies that are not JSON keep
// their raw text as the only message.
func ParseResponseError(statusCode int, data []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode}

	var envelope struct {
		Errors json.RawMessage `json:"errors"`
		Error  string          `json:"error"`
	}

	err := json.Unmarshal(data, &envelope)
	if err != nil {
		if text := strings.TrimSpace(string(data)); text != "" {
			respErr.Messages = []string{text}
		}

		return respErr
	}

	if envelope.Error != "" {
		respErr.Messages = append(respErr.Messages, envelope.Error)
	}

	if len(envelope.Errors) == 0 {
		return respErr
	}

	var text string
	if json.Unmarshal(envelope.Errors, &text) == nil {
		respErr.Messages = append(respErr.Messages, text)

		return respErr
	}

	var list []string
	if json.Unmarshal(envelope.Errors, &list) == nil {
		respErr.Messages = append(respErr.Messages, list...)

		return respErr
	}

	var fields map[string][]string
	if json.Unmarshal(envelope.Errors, &fields) == nil {
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			for _, msg := range fields[key] {
				respErr.Messages = append(respErr.Messages, key+": "+msg)
			}
		}
	}

	return respErr
}

// IsNotFound checks if the error is a 404 from the API or an unknown file ID.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound) || hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 from the API.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsThrottled checks if the error is a REST 429 or a THROTTLED GraphQL response.
func IsThrottled(err error) bool {
	gqlErr := &GraphQLError{}
	if errors.As(err, &gqlErr) {
		return gqlErr.Throttled()
	}

	return hasStatus(err, http.StatusTooManyRequests)
}

// IsNegotiationRejected checks for a NegotiationRejectedError.
func IsNegotiationRejected(err error) bool {
	target := &NegotiationRejectedError{}

	return errors.As(err, &target)
}

// IsTransportFailure checks for a TransportError.
func IsTransportFailure(err error) bool {
	target := &TransportError{}

	return errors.As(err, &target)
}

// IsFinalizationRejected checks for a FinalizationRejectedError.
func IsFinalizationRejected(err error) bool {
	target := &FinalizationRejectedError{}

	return errors.As(err, &target)
}

// IsDownloadFailure checks for a DownloadError.
func IsDownloadFailure(err error) bool {
	target := &DownloadError{}

	return errors.As(err, &target)
}

// IsMetadataWriteFailure checks for a MetadataWriteError.
func IsMetadataWriteFailure(err error) bool {
	target := &MetadataWriteError{}

	return errors.As(err, &target)
}

// IsAssetFailed checks for an AssetFailedError.
func IsAssetFailed(err error) bool {
	target := &AssetFailedError{}

	return errors.As(err, &target)
}

// StepOf returns the upload step recorded in err, or "".
func StepOf(err error) string {
	var stepErr StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step()
	}

	return ""
}

func hasStatus(err error, status int) bool {
	respErr := &ResponseError{}
	if errors.As(err, &respErr) {
		return respErr.StatusCode == status
	}

	return false
}

func joinUserErrors(userErrors []UserError) string {
	parts := make([]string, 0, len(userErrors))
	for _, ue := range userErrors {
		parts = append(parts, ue.String())
	}

	return strings.Join(parts, "; ")
}
