// Package validation provides unit tests for input validation.
package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		wantErr bool
	}{
		{name: "valid simple", bucket: "my-bucket"},
		{name: "valid with digits", bucket: "bucket-2024"},
		{name: "valid minimum length", bucket: "abc"},
		{name: "valid maximum length", bucket: strings.Repeat("a", 63)},
		{name: "empty", bucket: "", wantErr: true},
		{name: "too short", bucket: "ab", wantErr: true},
		{name: "too long", bucket: strings.Repeat("a", 64), wantErr: true},
		{name: "uppercase", bucket: "MyBucket", wantErr: true},
		{name: "underscore", bucket: "my_bucket", wantErr: true},
		{name: "leading hyphen", bucket: "-bucket", wantErr: true},
		{name: "trailing hyphen", bucket: "bucket-", wantErr: true},
		{name: "dot", bucket: "my.bucket", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantErr {
				assert.True(t, osserrors.IsInvalidArgument(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid simple", key: "file.txt"},
		{name: "valid nested", key: "backups/2024/data.bin"},
		{name: "valid unicode", key: "文档/报告.pdf"},
		{name: "valid maximum length", key: strings.Repeat("k", 1023)},
		{name: "empty", key: "", wantErr: true},
		{name: "too long", key: strings.Repeat("k", 1024), wantErr: true},
		{name: "leading slash", key: "/file.txt", wantErr: true},
		{name: "leading backslash", key: `\file.txt`, wantErr: true},
		{name: "invalid utf8", key: "bad\xff\xfekey", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantErr {
				assert.True(t, osserrors.IsInvalidArgument(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
