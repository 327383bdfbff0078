// Package validation provides centralized input validation logic.
// This includes bucket name and object key checks performed before any
// request is signed or sent.
package validation

import (
	"strings"
	"unicode/utf8"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
)

// maxObjectKeyBytes is the provider's object key length limit.
const maxObjectKeyBytes = 1023

// ValidateBucketName validates that a bucket name follows the OSS naming
// rules: 3-63 characters of lowercase letters, digits, and hyphens,
// beginning and ending with a letter or digit.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return osserrors.NewError("validateBucketName", osserrors.ErrInvalidArgument).
			WithBucket(bucket).
			WithMessage("bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return osserrors.NewError("validateBucketName", osserrors.ErrInvalidArgument).
			WithBucket(bucket).
			WithMessage("bucket name must be between 3 and 63 characters long")
	}
	for i := 0; i < len(bucket); i++ {
		c := bucket[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || i == len(bucket)-1 {
				return osserrors.NewError("validateBucketName", osserrors.ErrInvalidArgument).
					WithBucket(bucket).
					WithMessage("bucket name cannot begin or end with a hyphen")
			}
		default:
			return osserrors.NewError("validateBucketName", osserrors.ErrInvalidArgument).
				WithBucket(bucket).
				WithMessage("bucket name may only contain lowercase letters, digits, and hyphens")
		}
	}
	return nil
}

// ValidateObjectKey validates that an object key is acceptable to the
// provider: non-empty valid UTF-8 of at most 1023 bytes, not beginning
// with '/' or '\'.
func ValidateObjectKey(key string) error {
	if key == "" {
		return osserrors.NewError("validateObjectKey", osserrors.ErrInvalidArgument).
			WithKey(key).
			WithMessage("object key cannot be empty")
	}
	if len(key) > maxObjectKeyBytes {
		return osserrors.NewError("validateObjectKey", osserrors.ErrInvalidArgument).
			WithKey(key).
			WithMessage("object key cannot exceed 1023 bytes")
	}
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return osserrors.NewError("validateObjectKey", osserrors.ErrInvalidArgument).
			WithKey(key).
			WithMessage("object key cannot begin with '/' or '\\'")
	}
	if !utf8.ValidString(key) {
		return osserrors.NewError("validateObjectKey", osserrors.ErrInvalidArgument).
			WithKey(key).
			WithMessage("object key must be valid UTF-8")
	}
	return nil
}
