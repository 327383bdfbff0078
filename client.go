// Package oss provides client initialization and configuration.
//
// The Client provides a high-level interface for Aliyun OSS multipart
// uploads, with configurable signing (V1 or V4), bounded part concurrency,
// progress tracking, and per-request cancellation.
package oss

import (
	"net/http"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/sirupsen/logrus"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/cancelreg"
	"github.com/aa2013/ali-yun-oss/internal/httpapi"
	"github.com/aa2013/ali-yun-oss/internal/signer"
	"github.com/aa2013/ali-yun-oss/internal/transfer/multipart"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// Client is an OSS client bound to one endpoint and credential source.
// Multiple independent clients may coexist; nothing is process-global,
// and each client owns its own cancellation registry.
type Client struct {
	// config holds the resolved client configuration
	config osstypes.ClientConfig

	// conn dispatches signed requests
	conn *httpapi.Conn

	// uploader drives multipart transfers
	uploader *multipart.Uploader

	// registry maps request keys to cancellation handles
	registry *cancelreg.Registry

	// fs is the filesystem abstraction for file operations
	fs fs.Filesystem

	// logger is the structured logger for swallowed-and-logged conditions
	logger *logrus.Logger
}

// New creates an OSS client with the provided options. An endpoint and a
// credentials provider are required; signing defaults to V1 and V4
// additionally requires a region.
//
// Example:
//
//	client, err := oss.New(
//	    oss.WithEndpoint("oss-cn-hangzhou.aliyuncs.com"),
//	    oss.WithRegion("cn-hangzhou"),
//	    oss.WithSignatureVersion(osstypes.SignatureV4),
//	    oss.WithCredentialsProvider(osstypes.StaticCredentials(id, secret)),
//	)
func New(opts ...osstypes.Option) (*Client, error) {
	cfg := osstypes.ClientConfig{
		SignatureVersion: osstypes.SignatureV1,
		Concurrency:      multipart.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Endpoint == "" {
		return nil, osserrors.NewError("newClient", osserrors.ErrInvalidArgument).
			WithMessage("endpoint cannot be empty")
	}
	if cfg.CredentialsProvider == nil {
		return nil, osserrors.NewError("newClient", osserrors.ErrInvalidArgument).
			WithMessage("credentials provider cannot be nil")
	}
	if cfg.SignatureVersion == osstypes.SignatureV4 && cfg.Region == "" {
		return nil, osserrors.NewError("newClient", osserrors.ErrInvalidArgument).
			WithMessage("region is required for V4 signing")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = multipart.DefaultConcurrency
	}

	sig, err := signer.New(cfg.SignatureVersion)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	conn := &httpapi.Conn{
		Endpoint:    cfg.Endpoint,
		Region:      cfg.Region,
		IsCNAME:     cfg.IsCNAME,
		DisableSSL:  cfg.DisableSSL,
		Signer:      sig,
		Credentials: cfg.CredentialsProvider,
		HTTPClient:  httpClient,
	}

	return &Client{
		config:   cfg,
		conn:     conn,
		uploader: multipart.NewUploader(conn, filesystem, logger),
		registry: cancelreg.New(logger),
		fs:       filesystem,
		logger:   logger,
	}, nil
}

// CancelRequest triggers the cancellation handle registered under key and
// removes it. Unknown keys are a no-op.
func (c *Client) CancelRequest(key string) {
	c.registry.Cancel(key)
}

// CancelAllRequests triggers every live cancellation handle owned by this
// client's registry.
func (c *Client) CancelAllRequests() {
	c.registry.CancelAll()
}
