// Package errors provides error types and handling for Aliyun OSS operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an OSS operation error with context about the operation
// that failed. It wraps the underlying cause with bucket/key context for
// better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "multipartUpload", "listParts")
	Op string

	// Bucket is the OSS bucket name (if applicable)
	Bucket string

	// Key is the OSS object key (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("oss.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("oss.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("oss.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("oss.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors classifying OSS operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidArgument indicates that the provided caller input is invalid.
	// Never retryable.
	ErrInvalidArgument = errors.New("oss: invalid argument")

	// ErrInitiateMultipartFailed indicates the initiate multipart upload
	// call failed or returned no upload id
	ErrInitiateMultipartFailed = errors.New("oss: initiate multipart upload failed")

	// ErrUploadPartFailed indicates that one or more part uploads failed
	ErrUploadPartFailed = errors.New("oss: upload part failed")

	// ErrCompleteMultipartFailed indicates the complete multipart upload call failed
	ErrCompleteMultipartFailed = errors.New("oss: complete multipart upload failed")

	// ErrAbortMultipartFailed indicates the abort multipart upload call failed
	ErrAbortMultipartFailed = errors.New("oss: abort multipart upload failed")

	// ErrNotFound indicates that the requested bucket or object does not exist
	ErrNotFound = errors.New("oss: not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("oss: access denied")

	// ErrSignatureMismatch indicates the server rejected the request signature
	ErrSignatureMismatch = errors.New("oss: signature mismatch")

	// ErrNetwork indicates a transport-level failure reaching the server
	ErrNetwork = errors.New("oss: network error")

	// ErrServerError indicates a 5xx response from the server
	ErrServerError = errors.New("oss: server error")

	// ErrInvalidResponse indicates a malformed provider payload
	ErrInvalidResponse = errors.New("oss: invalid response")

	// ErrRequestCancelled indicates the caller cancelled the request
	ErrRequestCancelled = errors.New("oss: request cancelled")

	// ErrFileSystem indicates a local file I/O problem
	ErrFileSystem = errors.New("oss: filesystem error")

	// ErrUnknown is the fallback classification
	ErrUnknown = errors.New("oss: unknown error")
)

// IsInvalidArgument checks if an error indicates invalid caller input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFound checks if an error indicates that a bucket or object was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsRequestCancelled checks if an error indicates caller-initiated cancellation.
func IsRequestCancelled(err error) bool {
	return errors.Is(err, ErrRequestCancelled)
}

// IsRetryable reports whether the failure class is worth retrying.
// Invalid input, auth problems, and cancellation are not; transport and
// server-side failures are.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrNetwork),
		errors.Is(err, ErrServerError),
		errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrUploadPartFailed),
		errors.Is(err, ErrInitiateMultipartFailed),
		errors.Is(err, ErrCompleteMultipartFailed):
		return true
	}
	return false
}
