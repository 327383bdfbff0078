package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
)

// V4 signs requests with the OSS4-HMAC-SHA256 scheme.
type V4 struct{}

const (
	v4Prefix          = "OSS4-HMAC-SHA256"
	v4Product         = "oss"
	v4Terminator      = "aliyun_v4_request"
	v4SecretPrefix    = "aliyun_v4"
	unsignedPayload   = "UNSIGNED-PAYLOAD"
	iso8601Layout     = "20060102T150405Z"
	shortDateLayout   = "20060102"
	contentSHAHeader  = "x-oss-content-sha256"
	dateHeader        = "x-oss-date"
	contentTypeHeader = "content-type"
)

// Reserved presign parameter names; caller-supplied custom parameters must
// not collide with any of them.
var v4ReservedParams = []string{
	"x-oss-signature-version",
	"x-oss-credential",
	"x-oss-date",
	"x-oss-expires",
	"x-oss-additional-headers",
	"x-oss-security-token",
	"x-oss-signature",
}

// SignHeader sets x-oss-date, x-oss-content-sha256, the optional STS token
// header, and the OSS4-HMAC-SHA256 Authorization header.
func (v *V4) SignHeader(sc *SigningContext) error {
	t := sc.signTime()
	sc.Headers.Set(dateHeader, t.Format(iso8601Layout))
	sc.Headers.Set(contentSHAHeader, unsignedPayload)
	if sc.Credentials.SecurityToken != "" {
		sc.Headers.Set(SecurityTokenHeader, sc.Credentials.SecurityToken)
	}

	additional := v.normalizedAdditionalHeaders(sc.AdditionalHeaders)
	canonicalRequest := v.canonicalRequest(sc, additional, false)
	scope := v.scope(t, sc.Region)
	stringToSign := v.stringToSign(t, scope, canonicalRequest)
	signature := v.sign(sc.Credentials.AccessKeySecret, t, sc.Region, stringToSign)

	var b strings.Builder
	b.WriteString(v4Prefix)
	b.WriteString(" Credential=")
	b.WriteString(sc.Credentials.AccessKeyID)
	b.WriteByte('/')
	b.WriteString(scope)
	if len(additional) > 0 {
		b.WriteString(",AdditionalHeaders=")
		b.WriteString(strings.Join(additional, ";"))
	}
	b.WriteString(",Signature=")
	b.WriteString(signature)
	sc.Headers.Set("Authorization", b.String())
	return nil
}

// Presign returns the x-oss-* query parameters of a V4 signed URL.
// customParams are merged first and validated against the reserved names;
// a collision fails with ErrInvalidArgument before any network activity.
func (v *V4) Presign(sc *SigningContext, expiresIn time.Duration, customParams url.Values) (url.Values, error) {
	for k := range customParams {
		for _, reserved := range v4ReservedParams {
			if strings.EqualFold(k, reserved) {
				return nil, osserrors.NewError("presign", osserrors.ErrInvalidArgument).
					WithMessage("custom parameter " + k + " collides with a reserved signing parameter")
			}
		}
	}

	t := sc.signTime()
	additional := v.normalizedAdditionalHeaders(sc.AdditionalHeaders)
	scope := v.scope(t, sc.Region)

	params := url.Values{}
	for k, vs := range customParams {
		for _, val := range vs {
			params.Add(k, val)
		}
	}
	params.Set("x-oss-signature-version", v4Prefix)
	params.Set("x-oss-credential", sc.Credentials.AccessKeyID+"/"+scope)
	params.Set("x-oss-date", t.Format(iso8601Layout))
	params.Set("x-oss-expires", strconv.FormatInt(int64(expiresIn/time.Second), 10))
	if len(additional) > 0 {
		params.Set("x-oss-additional-headers", strings.Join(additional, ";"))
	}
	if sc.Credentials.SecurityToken != "" {
		params.Set("x-oss-security-token", sc.Credentials.SecurityToken)
	}

	// Everything above participates in the canonical query string.
	query := url.Values{}
	for k, vs := range sc.Query {
		query[k] = vs
	}
	for k, vs := range params {
		query[k] = vs
	}
	signCtx := *sc
	signCtx.Query = query

	canonicalRequest := v.canonicalRequest(&signCtx, additional, true)
	stringToSign := v.stringToSign(t, scope, canonicalRequest)
	params.Set("x-oss-signature", v.sign(sc.Credentials.AccessKeySecret, t, sc.Region, stringToSign))
	return params, nil
}

// canonicalRequest renders
// METHOD\nCanonicalURI\nCanonicalQuery\nCanonicalHeaders\nAdditionalHeaderNames\nUNSIGNED-PAYLOAD.
func (v *V4) canonicalRequest(sc *SigningContext, additional []string, presign bool) string {
	var b strings.Builder
	b.WriteString(sc.Method)
	b.WriteByte('\n')
	b.WriteString(v.canonicalURI(sc, presign))
	b.WriteByte('\n')
	b.WriteString(v.canonicalQuery(sc.Query))
	b.WriteByte('\n')
	b.WriteString(v.canonicalHeaders(sc, additional))
	b.WriteByte('\n')
	b.WriteString(strings.Join(additional, ";"))
	b.WriteByte('\n')
	b.WriteString(unsignedPayload)
	return b.String()
}

// canonicalURI renders /{bucket}/{key} percent-encoded preserving slashes.
// Presigned URLs over a custom domain address the key directly.
func (v *V4) canonicalURI(sc *SigningContext, presign bool) string {
	var b strings.Builder
	b.WriteByte('/')
	if sc.Bucket != "" && !(presign && sc.IsCNAME) {
		b.WriteString(sc.Bucket)
		b.WriteByte('/')
	}
	b.WriteString(uriEncode(sc.Key, true))
	return b.String()
}

// canonicalQuery percent-encodes every parameter and sorts by key then
// value. An empty value renders as the bare key.
func (v *V4) canonicalQuery(query url.Values) string {
	type kv struct{ k, v string }
	var pairs []kv
	for k, vs := range query {
		ek := uriEncode(k, false)
		if len(vs) == 0 {
			pairs = append(pairs, kv{k: ek})
			continue
		}
		for _, val := range vs {
			pairs = append(pairs, kv{k: ek, v: uriEncode(val, false)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.v == "" {
			parts = append(parts, p.k)
			continue
		}
		parts = append(parts, p.k+"="+p.v)
	}
	return strings.Join(parts, "&")
}

// canonicalHeaders renders the default header set plus the additional
// headers as sorted "name:value\n" lines. The trailing newline is part of
// the rendering even when only the defaults are present.
func (v *V4) canonicalHeaders(sc *SigningContext, additional []string) string {
	names := map[string]bool{
		dateHeader:        true,
		contentSHAHeader:  true,
		contentTypeHeader: true,
	}
	for _, name := range additional {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, name := range sorted {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(sc.Headers.Get(name)))
		b.WriteByte('\n')
	}
	return b.String()
}

// normalizedAdditionalHeaders lowercases, dedups, and sorts the caller's
// additional header names.
func (v *V4) normalizedAdditionalHeaders(headers []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
	}
	sort.Strings(out)
	return out
}

// scope renders {yyyymmdd}/{region}/oss/aliyun_v4_request.
func (v *V4) scope(t time.Time, region string) string {
	return t.Format(shortDateLayout) + "/" + region + "/" + v4Product + "/" + v4Terminator
}

// stringToSign renders OSS4-HMAC-SHA256\n{iso8601}\n{scope}\n{sha256hex(canonicalRequest)}.
func (v *V4) stringToSign(t time.Time, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return v4Prefix + "\n" + t.Format(iso8601Layout) + "\n" + scope + "\n" + hex.EncodeToString(sum[:])
}

// sign derives the signing key through the four nested HMAC steps and
// returns the hex signature.
func (v *V4) sign(secret string, t time.Time, region, stringToSign string) string {
	kDate := hmacSHA256([]byte(v4SecretPrefix+secret), t.Format(shortDateLayout))
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, v4Product)
	kSigning := hmacSHA256(kService, v4Terminator)
	return hex.EncodeToString(hmacSHA256(kSigning, stringToSign))
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
