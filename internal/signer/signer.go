// Package signer implements the two OSS request signing strategies: V1
// (HMAC-SHA1 with the "OSS {id}:{sig}" header scheme) and V4
// (OSS4-HMAC-SHA256, SigV4-style canonicalization). Both support header
// signing and query signing (presigned URLs), STS session tokens, and
// custom-domain (CNAME) addressing.
package signer

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// OSSHeaderPrefix marks provider headers that V1 folds into the
// canonicalized header block.
const OSSHeaderPrefix = "x-oss-"

// SecurityTokenHeader carries STS session tokens on header-signed requests.
const SecurityTokenHeader = "x-oss-security-token"

// SigningContext carries everything one signing operation consumes.
// It is built fresh per request; signing mutates Headers only.
type SigningContext struct {
	// Method is the HTTP verb
	Method string

	// Bucket and Key name the target resource; Key may be empty for
	// bucket-level operations
	Bucket string
	Key    string

	// Query is the request query string
	Query url.Values

	// Headers is the outgoing header set; signing adds to it
	Headers http.Header

	// Credentials is the snapshot for this request
	Credentials osstypes.Credentials

	// Region is required by V4 scope derivation
	Region string

	// IsCNAME drops the bucket segment from the canonical resource/URI
	IsCNAME bool

	// AdditionalHeaders lists extra header names V4 folds into the
	// canonical request beyond the default set
	AdditionalHeaders []string

	// Time is the signing timestamp; the zero value means time.Now
	Time time.Time
}

// Signer produces either an Authorization header or presigned-URL query
// parameters for a request. Implementations are pure given the context and
// safe for concurrent use.
type Signer interface {
	// SignHeader canonicalizes the request and sets its date and
	// Authorization headers.
	SignHeader(sc *SigningContext) error

	// Presign returns the query parameters that authorize the request for
	// the given lifetime, merged with customParams. Reserved parameter
	// collisions fail with ErrInvalidArgument.
	Presign(sc *SigningContext, expiresIn time.Duration, customParams url.Values) (url.Values, error)
}

// New returns the signer for the requested signature version.
func New(version osstypes.SignatureVersion) (Signer, error) {
	switch version {
	case osstypes.SignatureV1, "":
		return &V1{}, nil
	case osstypes.SignatureV4:
		return &V4{}, nil
	}
	return nil, osserrors.NewError("newSigner", osserrors.ErrInvalidArgument).
		WithMessage("unsupported signature version " + string(version))
}

// signTime resolves the context timestamp.
func (sc *SigningContext) signTime() time.Time {
	if sc.Time.IsZero() {
		return time.Now().UTC()
	}
	return sc.Time.UTC()
}

// uriEncode percent-encodes s per the provider's rules: unreserved
// characters pass through, everything else becomes uppercase %XX.
// preserveSlash keeps path separators literal for canonical URIs.
func uriEncode(s string, preserveSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		case c == '/' && preserveSlash:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexUpper[c>>4])
			b.WriteByte(hexUpper[c&0xF])
		}
	}
	return b.String()
}

const hexUpper = "0123456789ABCDEF"
