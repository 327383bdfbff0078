// Package oss provides a high-level Go module for Alibaba Cloud OSS
// multipart uploads. It speaks the OSS REST API directly, signing every
// request with V1 (HMAC-SHA1) or V4 (HMAC-SHA256) signatures, so large
// files can be uploaded in concurrent parts without any cloud SDK.
//
// The module emphasizes developer experience through simple APIs while
// maintaining performance through intelligent defaults for part sizing
// and concurrency.
//
// Key features:
//   - Automatic part planning from file size with adaptive part sizes
//   - Concurrent part uploads under a bounded, fairly ordered permit pool
//   - Whole-file and per-part progress callbacks
//   - Automatic abort of the server-side session on failure
//   - Named cancellation of in-flight uploads via cancel keys
//   - Presigned URLs for both signature versions
//   - Comprehensive error handling with context
//
// Example usage:
//
//	client, err := oss.New(
//	    oss.WithEndpoint("oss-cn-hangzhou.aliyuncs.com"),
//	    oss.WithRegion("cn-hangzhou"),
//	    oss.WithCredentialsProvider(osstypes.StaticCredentials("id", "secret")),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Upload a file
//	result, err := client.UploadFile(ctx, "my-bucket", "path/file.bin", "/local/file.bin")
//	if err != nil {
//	    return err
//	}
package oss
