// Package testutil provides test utilities and mocks for OSS operations.
// This package is internal and should only be used for testing within the OSS module.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// MockHTTPClient is a mock implementation of the HTTPClient interface for
// testing. Behavior is customized through the DoFunc function field; the
// zero value answers every request with an empty 200.
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

// Do dispatches the request to DoFunc when set.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return Response(http.StatusOK, nil, ""), nil
}

// Response builds an *http.Response with the given status, headers and body.
func Response(status int, headers http.Header, body string) *http.Response {
	if headers == nil {
		headers = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: int64(len(body)),
	}
}

// XMLResponse builds a 200 response carrying an XML body.
func XMLResponse(status int, body string) *http.Response {
	headers := http.Header{}
	headers.Set("Content-Type", "application/xml")
	return Response(status, headers, body)
}

// ErrorResponse builds an OSS error response with the given status and
// error code, in the provider's error document format.
func ErrorResponse(status int, code, message string) *http.Response {
	body := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>%s</Code>
  <Message>%s</Message>
  <RequestId>5C3D8D2A0ACA54D87B43TEST</RequestId>
</Error>`, code, message)
	return XMLResponse(status, body)
}

// InitiateResponse builds the XML response of an initiate call.
func InitiateResponse(bucket, key, uploadID string) *http.Response {
	body := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>
<InitiateMultipartUploadResult>
  <Bucket>%s</Bucket>
  <Key>%s</Key>
  <UploadId>%s</UploadId>
</InitiateMultipartUploadResult>`, bucket, key, uploadID)
	return XMLResponse(http.StatusOK, body)
}

// UploadPartResponse builds the response of a part upload. The ETag header
// carries the quoted entity tag the way the provider returns it.
func UploadPartResponse(etag string) *http.Response {
	headers := http.Header{}
	headers.Set("ETag", `"`+etag+`"`)
	return Response(http.StatusOK, headers, "")
}

// CompleteResponse builds the XML response of a complete call.
func CompleteResponse(location, bucket, key, etag string) *http.Response {
	body := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>
<CompleteMultipartUploadResult>
  <Location>%s</Location>
  <Bucket>%s</Bucket>
  <Key>%s</Key>
  <ETag>&quot;%s&quot;</ETag>
</CompleteMultipartUploadResult>`, location, bucket, key, etag)
	return XMLResponse(http.StatusOK, body)
}
