// Package oss provides unit tests for client construction.
package oss

import (
	"io"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/testutil"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

func testClientOptions() []osstypes.Option {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return []osstypes.Option{
		WithEndpoint("oss-cn-hangzhou.aliyuncs.com"),
		WithRegion("cn-hangzhou"),
		WithCredentialsProvider(osstypes.StaticCredentials("test-id", "test-secret")),
		WithHTTPClient(&testutil.MockHTTPClient{}),
		WithFilesystem(billy.NewInMemoryFS()),
		WithLogger(logger),
	}
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(testClientOptions()...)
	require.NoError(t, err)

	assert.Equal(t, osstypes.SignatureV1, client.config.SignatureVersion)
	assert.Equal(t, 5, client.config.Concurrency)
	assert.NotNil(t, client.conn)
	assert.NotNil(t, client.uploader)
	assert.NotNil(t, client.registry)
}

func TestNew_OptionApplication(t *testing.T) {
	opts := append(testClientOptions(),
		WithSignatureVersion(osstypes.SignatureV4),
		WithConcurrency(9),
		WithCNAME(true),
		WithDisableSSL(true),
	)
	client, err := New(opts...)
	require.NoError(t, err)

	assert.Equal(t, osstypes.SignatureV4, client.config.SignatureVersion)
	assert.Equal(t, 9, client.config.Concurrency)
	assert.True(t, client.conn.IsCNAME)
	assert.True(t, client.conn.DisableSSL)
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []osstypes.Option
	}{
		{
			name: "missing endpoint",
			opts: []osstypes.Option{
				WithCredentialsProvider(osstypes.StaticCredentials("id", "secret")),
			},
		},
		{
			name: "missing credentials provider",
			opts: []osstypes.Option{
				WithEndpoint("oss-cn-hangzhou.aliyuncs.com"),
			},
		},
		{
			name: "v4 without region",
			opts: []osstypes.Option{
				WithEndpoint("oss-cn-hangzhou.aliyuncs.com"),
				WithCredentialsProvider(osstypes.StaticCredentials("id", "secret")),
				WithSignatureVersion(osstypes.SignatureV4),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.True(t, osserrors.IsInvalidArgument(err))
		})
	}
}

func TestNew_IgnoresNonPositiveConcurrency(t *testing.T) {
	client, err := New(append(testClientOptions(), WithConcurrency(-3))...)
	require.NoError(t, err)
	assert.Equal(t, 5, client.config.Concurrency)
}

func TestClient_CancelUnknownKeyIsNoOp(t *testing.T) {
	client, err := New(testClientOptions()...)
	require.NoError(t, err)

	client.CancelRequest("nothing-registered")
	client.CancelAllRequests()
}
