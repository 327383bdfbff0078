// Package httpapi is the seam between the SDK's operations and the HTTP
// capability. It builds provider URLs, signs outgoing requests, dispatches
// them through an injectable HTTP client, and classifies failures into the
// error taxonomy.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/protocol"
	"github.com/aa2013/ali-yun-oss/internal/signer"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// Request describes one outgoing provider call before signing.
type Request struct {
	// Method is the HTTP verb
	Method string

	// Bucket and Key name the target resource; Key may be empty
	Bucket string
	Key    string

	// Query is the request query string
	Query url.Values

	// Headers holds caller-set headers; signing adds to them
	Headers http.Header

	// Body streams the request payload; nil for body-less calls
	Body io.Reader

	// ContentLength is the body length when known, else 0
	ContentLength int64
}

// Conn dispatches signed requests against one endpoint.
type Conn struct {
	// Endpoint is the region endpoint or, with IsCNAME, the literal custom
	// domain
	Endpoint string

	// Region feeds V4 scope derivation
	Region string

	// IsCNAME switches to custom-domain addressing: the physical host is
	// the literal Endpoint and the bucket segment leaves the canonical
	// resource
	IsCNAME bool

	// DisableSSL switches request URLs to http
	DisableSSL bool

	// Signer is the configured signing strategy
	Signer signer.Signer

	// Credentials yields the current credentials, re-invoked per request
	Credentials osstypes.CredentialsProvider

	// HTTPClient is the transport capability
	HTTPClient osstypes.HTTPClient
}

// URL builds the physical request URL: virtual-hosted
// {bucket}.{endpoint}/{key} normally, {endpoint}/{key} for custom domains.
func (c *Conn) URL(bucket, key string, query url.Values) *url.URL {
	scheme := "https"
	if c.DisableSSL {
		scheme = "http"
	}
	host := c.Endpoint
	if bucket != "" && !c.IsCNAME {
		host = bucket + "." + c.Endpoint
	}
	u := &url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   "/" + key,
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// Do signs req and sends it, returning the raw response for 2xx statuses.
// Non-2xx responses are drained, classified, and returned as errors; the
// caller owns the response body on success.
func (c *Conn) Do(ctx context.Context, req *Request) (*http.Response, error) {
	creds, err := c.Credentials()
	if err != nil {
		return nil, osserrors.NewError("credentials", err)
	}

	if req.Headers == nil {
		req.Headers = http.Header{}
	}
	sc := &signer.SigningContext{
		Method:      req.Method,
		Bucket:      req.Bucket,
		Key:         req.Key,
		Query:       req.Query,
		Headers:     req.Headers,
		Credentials: creds,
		Region:      c.Region,
		IsCNAME:     c.IsCNAME,
	}
	if err := c.Signer.SignHeader(sc); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Bucket, req.Key, req.Query).String(), req.Body)
	if err != nil {
		return nil, osserrors.NewError("buildRequest", err)
	}
	for name, vals := range req.Headers {
		httpReq.Header[name] = vals
	}
	httpReq.Host = c.URL(req.Bucket, req.Key, nil).Host
	if req.ContentLength > 0 {
		httpReq.ContentLength = req.ContentLength
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, osserrors.NewError("send", osserrors.ErrRequestCancelled)
		}
		return nil, osserrors.NewError("send", osserrors.ErrNetwork).WithMessage(err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, osserrors.NewError("send", protocol.ClassifyResponse(resp.StatusCode, body))
	}
	return resp, nil
}

// DoDrain is Do for calls whose response body the caller does not need.
// The body is consumed and closed; the parsed body bytes are returned.
func (c *Conn) DoDrain(ctx context.Context, req *Request) ([]byte, http.Header, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, osserrors.NewError("readResponse", osserrors.ErrNetwork).WithMessage(err.Error())
	}
	return body, resp.Header, nil
}

// PresignURL builds a query-signed URL authorizing the request for
// expiresIn without a network call.
func (c *Conn) PresignURL(
	method, bucket, key string,
	expiresIn time.Duration,
	customParams url.Values,
	additionalHeaders []string,
) (string, error) {
	creds, err := c.Credentials()
	if err != nil {
		return "", osserrors.NewError("credentials", err)
	}
	sc := &signer.SigningContext{
		Method:            strings.ToUpper(method),
		Bucket:            bucket,
		Key:               key,
		Query:             url.Values{},
		Headers:           http.Header{},
		Credentials:       creds,
		Region:            c.Region,
		IsCNAME:           c.IsCNAME,
		AdditionalHeaders: additionalHeaders,
	}
	params, err := c.Signer.Presign(sc, expiresIn, customParams)
	if err != nil {
		return "", err
	}
	return c.URL(bucket, key, params).String(), nil
}
