package multipart

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/httpapi"
	"github.com/aa2013/ali-yun-oss/internal/protocol"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// Initiate starts a multipart upload session (POST /{key}?uploads) and
// returns the server-assigned upload id.
func (u *Uploader) Initiate(ctx context.Context, bucket, key, contentType string) (*osstypes.InitiateResult, error) {
	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	query := url.Values{}
	query.Set("uploads", "")

	body, _, err := u.conn.DoDrain(ctx, &httpapi.Request{
		Method:  http.MethodPost,
		Bucket:  bucket,
		Key:     key,
		Query:   query,
		Headers: headers,
	})
	if err != nil {
		return nil, osserrors.NewObjectError("initiateMultipartUpload", bucket, key, osserrors.ErrInitiateMultipartFailed).
			WithMessage(err.Error())
	}

	result, err := protocol.ParseInitiateResult(body)
	if err != nil {
		return nil, osserrors.NewObjectError("initiateMultipartUpload", bucket, key, osserrors.ErrInitiateMultipartFailed).
			WithMessage(err.Error())
	}
	if result.UploadID == "" {
		return nil, osserrors.NewObjectError("initiateMultipartUpload", bucket, key, osserrors.ErrInitiateMultipartFailed).
			WithMessage("response carried no upload id")
	}
	return result, nil
}

// UploadPart sends one part (PUT /{key}?partNumber=n&uploadId=id) and
// returns its record. The ETag response header is the part's identity;
// a response without one is invalid.
func (u *Uploader) UploadPart(
	ctx context.Context,
	bucket, key, uploadID string,
	partNumber int,
	body io.Reader,
	size int64,
) (*osstypes.PartRecord, error) {
	if partNumber < 1 || partNumber > osstypes.MaxPartCount {
		return nil, osserrors.NewObjectError("uploadPart", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("part number " + strconv.Itoa(partNumber) + " out of range")
	}

	query := url.Values{}
	query.Set("partNumber", strconv.Itoa(partNumber))
	query.Set("uploadId", uploadID)

	_, respHeaders, err := u.conn.DoDrain(ctx, &httpapi.Request{
		Method:        http.MethodPut,
		Bucket:        bucket,
		Key:           key,
		Query:         query,
		Headers:       http.Header{},
		Body:          body,
		ContentLength: size,
	})
	if err != nil {
		return nil, err
	}

	etag := respHeaders.Get("ETag")
	if etag == "" {
		return nil, osserrors.NewObjectError("uploadPart", bucket, key, osserrors.ErrInvalidResponse).
			WithMessage("part response carried no ETag header")
	}
	return &osstypes.PartRecord{
		PartNumber:   partNumber,
		ETag:         protocol.TrimETag(etag),
		Size:         size,
		LastModified: respHeaders.Get("Last-Modified"),
	}, nil
}

// Complete finishes the session (POST /{key}?uploadId=id) with the ordered
// part list. parts must be complete and in ascending PartNumber order.
func (u *Uploader) Complete(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []osstypes.PartRecord,
) (*osstypes.CompletionResult, error) {
	payload, err := protocol.BuildCompleteBody(parts)
	if err != nil {
		return nil, osserrors.NewObjectError("completeMultipartUpload", bucket, key, osserrors.ErrCompleteMultipartFailed).
			WithMessage(err.Error())
	}

	query := url.Values{}
	query.Set("uploadId", uploadID)
	headers := http.Header{}
	headers.Set("Content-Type", "application/xml")

	body, _, err := u.conn.DoDrain(ctx, &httpapi.Request{
		Method:        http.MethodPost,
		Bucket:        bucket,
		Key:           key,
		Query:         query,
		Headers:       headers,
		Body:          bytes.NewReader(payload),
		ContentLength: int64(len(payload)),
	})
	if err != nil {
		return nil, osserrors.NewObjectError("completeMultipartUpload", bucket, key, osserrors.ErrCompleteMultipartFailed).
			WithMessage(err.Error())
	}

	result, err := protocol.ParseCompleteResult(body)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Abort discards the session (DELETE /{key}?uploadId=id), freeing
// server-side part state.
func (u *Uploader) Abort(ctx context.Context, bucket, key, uploadID string) error {
	query := url.Values{}
	query.Set("uploadId", uploadID)

	_, _, err := u.conn.DoDrain(ctx, &httpapi.Request{
		Method:  http.MethodDelete,
		Bucket:  bucket,
		Key:     key,
		Query:   query,
		Headers: http.Header{},
	})
	if err != nil {
		return osserrors.NewObjectError("abortMultipartUpload", bucket, key, osserrors.ErrAbortMultipartFailed).
			WithMessage(err.Error())
	}
	return nil
}

// ListPartsOptions narrows a ListParts call.
type ListPartsOptions struct {
	// MaxParts caps the page size when positive
	MaxParts int

	// PartNumberMarker resumes listing after the given part number
	PartNumberMarker int
}

// ListParts lists the uploaded parts of an in-progress session
// (GET /{key}?uploadId=id).
func (u *Uploader) ListParts(
	ctx context.Context,
	bucket, key, uploadID string,
	opts *ListPartsOptions,
) (*osstypes.ListPartsResult, error) {
	query := url.Values{}
	query.Set("uploadId", uploadID)
	if opts != nil {
		if opts.MaxParts > 0 {
			query.Set("max-parts", strconv.Itoa(opts.MaxParts))
		}
		if opts.PartNumberMarker > 0 {
			query.Set("part-number-marker", strconv.Itoa(opts.PartNumberMarker))
		}
	}

	body, _, err := u.conn.DoDrain(ctx, &httpapi.Request{
		Method:  http.MethodGet,
		Bucket:  bucket,
		Key:     key,
		Query:   query,
		Headers: http.Header{},
	})
	if err != nil {
		return nil, err
	}
	return protocol.ParseListParts(body, u.logger)
}

// ListUploadsOptions narrows a ListUploads call.
type ListUploadsOptions struct {
	// Prefix restricts results to keys beginning with it
	Prefix string

	// KeyMarker and UploadIDMarker resume a truncated listing
	KeyMarker      string
	UploadIDMarker string

	// MaxUploads caps the page size when positive
	MaxUploads int

	// Delimiter groups keys into common prefixes
	Delimiter string
}

// ListUploads lists the bucket's in-progress multipart upload sessions
// (GET /?uploads).
func (u *Uploader) ListUploads(
	ctx context.Context,
	bucket string,
	opts *ListUploadsOptions,
) (*osstypes.ListUploadsResult, error) {
	query := url.Values{}
	query.Set("uploads", "")
	if opts != nil {
		if opts.Prefix != "" {
			query.Set("prefix", opts.Prefix)
		}
		if opts.KeyMarker != "" {
			query.Set("key-marker", opts.KeyMarker)
		}
		if opts.UploadIDMarker != "" {
			query.Set("upload-id-marker", opts.UploadIDMarker)
		}
		if opts.MaxUploads > 0 {
			query.Set("max-uploads", strconv.Itoa(opts.MaxUploads))
		}
		if opts.Delimiter != "" {
			query.Set("delimiter", opts.Delimiter)
		}
	}

	body, _, err := u.conn.DoDrain(ctx, &httpapi.Request{
		Method:  http.MethodGet,
		Bucket:  bucket,
		Query:   query,
		Headers: http.Header{},
	})
	if err != nil {
		return nil, err
	}
	return protocol.ParseListUploads(body, u.logger)
}
