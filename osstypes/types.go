// Package osstypes provides shared type definitions for the OSS module.
package osstypes

import (
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/sirupsen/logrus"
)

// SignatureVersion selects the request signing algorithm.
type SignatureVersion string

// Supported signature versions
const (
	// SignatureV1 signs requests with HMAC-SHA1 ("OSS {id}:{sig}" header scheme)
	SignatureV1 SignatureVersion = "v1"

	// SignatureV4 signs requests with HMAC-SHA256 (OSS4-HMAC-SHA256 scheme)
	SignatureV4 SignatureVersion = "v4"
)

// Part size and count limits imposed by the provider.
const (
	// MinPartSize is the smallest allowed part size (100 KiB)
	MinPartSize int64 = 100 * 1024

	// MaxPartSize is the largest allowed part size (5 GiB)
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// MaxPartCount is the largest allowed number of parts per upload
	MaxPartCount = 10000
)

// Credentials is one snapshot of an access key pair, with an optional STS
// session token.
type Credentials struct {
	// AccessKeyID identifies the key pair
	AccessKeyID string

	// AccessKeySecret is the signing secret
	AccessKeySecret string

	// SecurityToken is the optional STS session token
	SecurityToken string
}

// CredentialsProvider returns the current credentials. It is re-invoked on
// every signing operation so that external STS-refresh logic can rotate
// credentials between requests. Implementations must be safe for concurrent
// use.
type CredentialsProvider func() (Credentials, error)

// StaticCredentials returns a CredentialsProvider that always yields the
// same key pair. Suitable for long-lived keys; use a custom provider for STS.
func StaticCredentials(accessKeyID, accessKeySecret string) CredentialsProvider {
	creds := Credentials{AccessKeyID: accessKeyID, AccessKeySecret: accessKeySecret}
	return func() (Credentials, error) {
		return creds, nil
	}
}

// PartRecord describes a single successfully uploaded part.
// Immutable once created; consumed in ascending PartNumber order when the
// completion request is assembled.
type PartRecord struct {
	// PartNumber is the 1-based part index (1..10000)
	PartNumber int

	// ETag is the provider-assigned part identity, stored without the
	// surrounding quotes the wire carries
	ETag string

	// Size is the part's byte length
	Size int64

	// LastModified is the provider timestamp, when reported
	LastModified string
}

// PartSizePlan is the output of the part-size planner: a valid
// (part count, part size) pair honoring the provider limits.
type PartSizePlan struct {
	// NumberOfParts is in [1, 10000]
	NumberOfParts int

	// PartSize is in [100KiB, 5GiB]; the implicit final partial part may be
	// smaller, and a zero total yields the degenerate (1, 0) plan
	PartSize int64
}

// InitiateResult is the parsed response of an initiate multipart upload call.
type InitiateResult struct {
	Bucket   string
	Key      string
	UploadID string
}

// CompletionResult is the parsed response of a complete multipart upload call.
type CompletionResult struct {
	// Location is the URL of the assembled object
	Location string

	// Bucket is the bucket containing the object
	Bucket string

	// Key is the object key
	Key string

	// ETag is the object-level entity tag (not a content hash for
	// multipart objects)
	ETag string

	// EncodingType is set when the provider encoded the key in the response
	EncodingType string

	// Duration is the wall-clock time of the whole multipart upload
	Duration time.Duration
}

// ListPartsResult is the parsed response of a list parts call.
type ListPartsResult struct {
	Bucket               string
	Key                  string
	UploadID             string
	IsTruncated          bool
	NextPartNumberMarker int
	MaxParts             int
	Parts                []PartRecord
}

// MultipartUpload describes one in-progress multipart upload session.
type MultipartUpload struct {
	Key          string
	UploadID     string
	Initiated    string
	StorageClass string
}

// ListUploadsResult is the parsed response of a list multipart uploads call.
type ListUploadsResult struct {
	Bucket             string
	Prefix             string
	KeyMarker          string
	UploadIDMarker     string
	NextKeyMarker      string
	NextUploadIDMarker string
	MaxUploads         int
	IsTruncated        bool
	Uploads            []MultipartUpload
	CommonPrefixes     []string
}

// ProgressFunc receives aggregate upload progress. It is invoked once per
// finished part with the byte total of completed parts only, so successive
// calls are monotonic non-decreasing.
type ProgressFunc func(bytesCompleted, totalBytes int64)

// PartProgressFunc receives per-part streaming progress. It is invoked by
// each part's own send path at chunk granularity, independent of the
// aggregate callback and out of any lock.
type PartProgressFunc func(partNumber int, bytesSent, partTotal int64)

// HTTPClient is the transport capability the SDK consumes. *http.Client
// satisfies it; tests substitute mocks.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds client-level configuration applied via functional options.
type ClientConfig struct {
	// Endpoint is the OSS region endpoint, e.g. "oss-cn-hangzhou.aliyuncs.com"
	Endpoint string

	// Region is the OSS region id, e.g. "cn-hangzhou"; required for V4 signing
	Region string

	// IsCNAME marks Endpoint as a caller-bound custom domain. In that mode
	// the canonical resource omits the bucket segment and the physical host
	// is the literal domain.
	IsCNAME bool

	// DisableSSL switches request URLs to http
	DisableSSL bool

	// SignatureVersion selects V1 or V4 signing; default V1
	SignatureVersion SignatureVersion

	// Concurrency bounds concurrent part uploads; default 5
	Concurrency int

	// CredentialsProvider yields the current credentials per request
	CredentialsProvider CredentialsProvider

	// HTTPClient overrides the transport; default http.DefaultClient
	HTTPClient HTTPClient

	// Logger overrides the structured logger; default logrus standard logger
	Logger *logrus.Logger

	// Filesystem overrides file access; default OS filesystem
	Filesystem fs.Filesystem
}

// Option mutates the client configuration.
type Option func(*ClientConfig)

// UploadOptionConfig holds per-upload configuration applied via UploadOption.
type UploadOptionConfig struct {
	// PartCount is the desired part count; 0 lets the planner choose by
	// file-size bracket
	PartCount int

	// Concurrency overrides the client-level bound for this upload
	Concurrency int

	// ContentType overrides content sniffing
	ContentType string

	// Progress receives aggregate progress
	Progress ProgressFunc

	// PartProgress receives per-part streaming progress
	PartProgress PartProgressFunc

	// CancelKey registers this upload under the given key in the client's
	// cancellation registry; empty means an auto-generated key
	CancelKey string
}

// UploadOption mutates per-upload configuration.
type UploadOption func(*UploadOptionConfig)
