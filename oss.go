// Package oss provides the main client operations.
package oss

import (
	"context"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/transfer/multipart"
	"github.com/aa2013/ali-yun-oss/internal/validation"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

const (
	// DefaultContentType is used when content type detection fails
	DefaultContentType = "application/octet-stream"
)

// UploadFile uploads a local file to OSS as a multipart upload: the file is
// split into parts, parts are uploaded concurrently under a bounded permit
// pool, and the session is completed with the ordered part list. On any
// part failure the session is aborted and the first failure surfaces.
//
// Zero-length files are rejected with ErrInvalidArgument; multipart upload
// of an empty object is not meaningful.
//
// Returns:
//   - *CompletionResult: the assembled object's location and ETag
//   - error: exactly one taxonomy kind (see the errors package)
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "backups/data.bin", "/srv/data.bin",
//	    oss.WithPartCount(8),
//	    oss.WithProgress(func(done, total int64) {
//	        fmt.Printf("%d/%d bytes\n", done, total)
//	    }),
//	)
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...osstypes.UploadOption,
) (*osstypes.CompletionResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, osserrors.NewObjectError("uploadFile", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("path cannot be empty")
	}

	config := &osstypes.UploadOptionConfig{
		Concurrency: c.config.Concurrency,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.ContentType == "" {
		config.ContentType = c.detectContentType(path)
	}

	// Every upload runs under a registry-owned cancellation handle so
	// CancelRequest can stop this specific operation.
	cancelKey := config.CancelKey
	if cancelKey == "" {
		cancelKey = uuid.NewString()
	}
	handle := c.registry.GetOrCreate(cancelKey)
	defer c.registry.Remove(cancelKey)

	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-handle.Done():
			cancel()
		case <-stop:
		}
	}()

	return c.uploader.UploadFile(uploadCtx, bucket, key, path, &multipart.Config{
		PartCount:    config.PartCount,
		Concurrency:  config.Concurrency,
		ContentType:  config.ContentType,
		Progress:     config.Progress,
		PartProgress: config.PartProgress,
	})
}

// InitiateMultipartUpload starts a multipart upload session and returns the
// server-assigned upload id. Use this with UploadPart and
// CompleteMultipartUpload when driving the part flow manually (e.g. to
// resume after querying ListParts).
func (c *Client) InitiateMultipartUpload(
	ctx context.Context,
	bucket, key, contentType string,
) (*osstypes.InitiateResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	return c.uploader.Initiate(ctx, bucket, key, contentType)
}

// UploadPart uploads a single part of an open session from reader.
// partNumber is 1-based.
func (c *Client) UploadPart(
	ctx context.Context,
	bucket, key, uploadID string,
	partNumber int,
	reader io.Reader,
	size int64,
) (*osstypes.PartRecord, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, osserrors.NewObjectError("uploadPart", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("upload id cannot be empty")
	}
	return c.uploader.UploadPart(ctx, bucket, key, uploadID, partNumber, reader, size)
}

// CompleteMultipartUpload finishes an open session with the given parts.
// The parts are re-sorted by part number before the request is built; the
// provider rejects out-of-order or duplicate part numbers.
func (c *Client) CompleteMultipartUpload(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []osstypes.PartRecord,
) (*osstypes.CompletionResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, osserrors.NewObjectError("completeMultipartUpload", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("upload id cannot be empty")
	}
	if len(parts) == 0 {
		return nil, osserrors.NewObjectError("completeMultipartUpload", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("parts cannot be empty")
	}

	sorted := make([]osstypes.PartRecord, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PartNumber < sorted[j].PartNumber
	})
	return c.uploader.Complete(ctx, bucket, key, uploadID, sorted)
}

// AbortMultipartUpload discards an open session, freeing server-side part
// state. The session's upload id is invalid afterwards.
func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return err
	}
	if uploadID == "" {
		return osserrors.NewObjectError("abortMultipartUpload", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("upload id cannot be empty")
	}
	return c.uploader.Abort(ctx, bucket, key, uploadID)
}

// ListParts lists the parts already uploaded under an open session,
// supporting max-parts paging via the options.
func (c *Client) ListParts(
	ctx context.Context,
	bucket, key, uploadID string,
	opts *multipart.ListPartsOptions,
) (*osstypes.ListPartsResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, osserrors.NewObjectError("listParts", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("upload id cannot be empty")
	}
	return c.uploader.ListParts(ctx, bucket, key, uploadID, opts)
}

// ListMultipartUploads lists the bucket's in-progress multipart upload
// sessions with prefix/marker paging via the options.
func (c *Client) ListMultipartUploads(
	ctx context.Context,
	bucket string,
	opts *multipart.ListUploadsOptions,
) (*osstypes.ListUploadsResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	return c.uploader.ListUploads(ctx, bucket, opts)
}

// PresignURL builds a query-signed URL that authorizes the given method on
// bucket/key for expiresIn, with no network call. customParams are merged
// into the query; under V4 signing a custom parameter colliding with a
// reserved x-oss-* signing parameter fails with ErrInvalidArgument.
func (c *Client) PresignURL(
	method, bucket, key string,
	expiresIn time.Duration,
	customParams url.Values,
	additionalHeaders ...string,
) (string, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return "", err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return "", err
	}
	if expiresIn <= 0 {
		return "", osserrors.NewObjectError("presignURL", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("expiry must be positive")
	}
	return c.conn.PresignURL(method, bucket, key, expiresIn, customParams, additionalHeaders)
}

// detectContentType determines the content type using mimetype where
// possible, falling back to extension-based lookup when the path is not a
// readable local file.
func (c *Client) detectContentType(path string) string {
	info, err := c.fs.Stat(path)
	if err != nil || info.IsDir() {
		return c.detectContentTypeFromExtension(path)
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return c.detectContentTypeFromExtension(path)
	}
	defer file.Close()

	// Read first 512 bytes for content detection
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	if n > 0 {
		if mt := mimetype.Detect(buf[:n]); mt != nil {
			return mt.String()
		}
	}
	return c.detectContentTypeFromExtension(path)
}

// detectContentTypeFromExtension detects content type from file extension.
func (c *Client) detectContentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
