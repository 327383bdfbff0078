// Package oss provides functional options for configuring client behavior.
// These options follow the functional options pattern for clean, composable
// configuration.
package oss

import (
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/sirupsen/logrus"

	"github.com/aa2013/ali-yun-oss/osstypes"
)

// WithEndpoint sets the OSS endpoint, e.g. "oss-cn-hangzhou.aliyuncs.com".
// Required.
func WithEndpoint(endpoint string) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithRegion sets the OSS region id, e.g. "cn-hangzhou".
// Required when V4 signing is selected.
func WithRegion(region string) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Region = region
	}
}

// WithCNAME marks the endpoint as a caller-bound custom domain. Requests
// then address the literal domain instead of {bucket}.{endpoint}, and the
// bucket segment leaves the canonical resource.
func WithCNAME(isCNAME bool) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.IsCNAME = isCNAME
	}
}

// WithDisableSSL switches request URLs to http.
// Only use this for local testing.
func WithDisableSSL(disableSSL bool) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithSignatureVersion selects the signing algorithm. Default is V1.
func WithSignatureVersion(version osstypes.SignatureVersion) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.SignatureVersion = version
	}
}

// WithCredentialsProvider sets the credential source. The provider is
// re-invoked on every signing operation, so rotating providers (STS) take
// effect transparently between requests. Required.
func WithCredentialsProvider(provider osstypes.CredentialsProvider) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.CredentialsProvider = provider
	}
}

// WithConcurrency sets the default bound on concurrent part uploads.
// Default is 5.
func WithConcurrency(concurrency int) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithHTTPClient overrides the HTTP transport. This gives full control over
// timeouts, proxies, and connection pooling.
func WithHTTPClient(client osstypes.HTTPClient) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *logrus.Logger) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithFilesystem sets a custom filesystem implementation for file
// operations. This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithPartCount sets the desired part count for one upload. The planner
// clamps it to the provider limits and re-derives the part size.
func WithPartCount(count int) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		if count > 0 {
			c.PartCount = count
		}
	}
}

// WithUploadConcurrency overrides the client-level concurrency bound for
// one upload.
func WithUploadConcurrency(concurrency int) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithContentType overrides content-type sniffing for one upload.
func WithContentType(contentType string) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithProgress sets the aggregate progress callback for one upload. It is
// invoked once per finished part with completed bytes only, so values are
// monotonic non-decreasing.
func WithProgress(progress osstypes.ProgressFunc) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.Progress = progress
	}
}

// WithPartProgress sets the per-part streaming progress callback for one
// upload. It fires at chunk granularity from each part's own send path.
func WithPartProgress(progress osstypes.PartProgressFunc) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.PartProgress = progress
	}
}

// WithCancelKey registers the upload in the client's cancellation registry
// under the given key, so CancelRequest(key) can stop it. Without this
// option an auto-generated key is used.
func WithCancelKey(key string) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.CancelKey = key
	}
}
