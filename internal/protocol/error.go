package protocol

import (
	"encoding/xml"
	"fmt"
	"net/http"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
)

// errorResponse is the provider <Error> body shape.
type errorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
}

// ClassifyResponse maps a non-2xx response to the error taxonomy, using the
// provider <Error> body when one is present and falling back to the status
// code otherwise.
func ClassifyResponse(statusCode int, body []byte) error {
	var resp errorResponse
	if err := xml.Unmarshal(body, &resp); err == nil && resp.Code != "" {
		if kindErr := kindForCode(resp.Code, statusCode); kindErr != nil {
			return fmt.Errorf("%s (request id %s): %w", resp.Message, resp.RequestID, kindErr)
		}
	}
	return kindForStatus(statusCode)
}

// kindForCode maps a provider error code to a taxonomy sentinel.
func kindForCode(code string, statusCode int) error {
	switch code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchUpload":
		return osserrors.ErrNotFound
	case "AccessDenied":
		return osserrors.ErrAccessDenied
	case "SignatureDoesNotMatch", "InvalidAccessKeyId", "SecurityTokenExpired",
		"InvalidSecurityToken":
		return osserrors.ErrSignatureMismatch
	case "InvalidArgument", "InvalidPart", "InvalidPartOrder":
		return osserrors.ErrInvalidArgument
	}
	return kindForStatus(statusCode)
}

// kindForStatus is the status-code fallback classification.
func kindForStatus(statusCode int) error {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return fmt.Errorf("status %d: %w", statusCode, osserrors.ErrServerError)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("status %d: %w", statusCode, osserrors.ErrNotFound)
	case statusCode == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", statusCode, osserrors.ErrAccessDenied)
	default:
		return fmt.Errorf("status %d: %w", statusCode, osserrors.ErrUnknown)
	}
}
