package signer

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// V1 signs requests with HMAC-SHA1 over the legacy OSS string-to-sign.
type V1 struct{}

// SignHeader sets the Date header and the "OSS {id}:{sig}" Authorization
// header. An STS token, when present, is added as a provider header before
// canonicalization so it participates in the signature.
func (v *V1) SignHeader(sc *SigningContext) error {
	date := sc.signTime().Format(http.TimeFormat)
	sc.Headers.Set("Date", date)
	if sc.Credentials.SecurityToken != "" {
		sc.Headers.Set(SecurityTokenHeader, sc.Credentials.SecurityToken)
	}

	stringToSign := v.stringToSign(sc, date)
	sig := v.sign(sc.Credentials.AccessKeySecret, stringToSign)
	sc.Headers.Set("Authorization", "OSS "+sc.Credentials.AccessKeyID+":"+sig)
	return nil
}

// Presign returns the query parameters of a signed URL. The string-to-sign
// keeps the header-signing shape but substitutes the expiry epoch for Date,
// and the signature travels as query parameters instead of a header.
func (v *V1) Presign(sc *SigningContext, expiresIn time.Duration, customParams url.Values) (url.Values, error) {
	expires := strconv.FormatInt(sc.signTime().Add(expiresIn).Unix(), 10)

	params := url.Values{}
	for k, vs := range customParams {
		for _, val := range vs {
			params.Add(k, val)
		}
	}
	if sc.Credentials.SecurityToken != "" {
		params.Set("security-token", sc.Credentials.SecurityToken)
	}

	// The presign query parameters are part of the canonical resource.
	query := url.Values{}
	for k, vs := range sc.Query {
		query[k] = vs
	}
	for k, vs := range params {
		query[k] = vs
	}
	signCtx := *sc
	signCtx.Query = query

	stringToSign := v.stringToSign(&signCtx, expires)
	sig := v.sign(sc.Credentials.AccessKeySecret, stringToSign)

	params.Set("OSSAccessKeyId", sc.Credentials.AccessKeyID)
	params.Set("Expires", expires)
	params.Set("Signature", sig)
	return params, nil
}

// stringToSign renders VERB\nContent-MD5\nContent-Type\nDate\n followed by
// the canonicalized provider headers and the canonical resource. Empty
// fields stay as empty strings, never omitted.
func (v *V1) stringToSign(sc *SigningContext, date string) string {
	var b strings.Builder
	b.WriteString(sc.Method)
	b.WriteByte('\n')
	b.WriteString(sc.Headers.Get("Content-MD5"))
	b.WriteByte('\n')
	b.WriteString(sc.Headers.Get("Content-Type"))
	b.WriteByte('\n')
	b.WriteString(date)
	b.WriteByte('\n')
	b.WriteString(v.canonicalizedHeaders(sc))
	b.WriteString(v.canonicalResource(sc))
	return b.String()
}

// canonicalizedHeaders collects the x-oss-* headers: lowercased names,
// trimmed values, sorted by name, one "name:value\n" line each.
func (v *V1) canonicalizedHeaders(sc *SigningContext) string {
	var names []string
	values := map[string]string{}
	for name, vs := range sc.Headers {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, OSSHeaderPrefix) || len(vs) == 0 {
			continue
		}
		names = append(names, lower)
		values[lower] = strings.TrimSpace(vs[0])
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(values[name])
		b.WriteByte('\n')
	}
	return b.String()
}

// canonicalResource renders /{bucket}/{key} (just /{key} for custom
// domains) plus the URL-decoded raw query when one is present.
func (v *V1) canonicalResource(sc *SigningContext) string {
	var b strings.Builder
	b.WriteByte('/')
	if sc.Bucket != "" && !sc.IsCNAME {
		b.WriteString(sc.Bucket)
		b.WriteByte('/')
	}
	b.WriteString(sc.Key)

	if len(sc.Query) > 0 {
		raw := sc.Query.Encode()
		if decoded, err := url.QueryUnescape(raw); err == nil {
			raw = decoded
		}
		b.WriteByte('?')
		b.WriteString(raw)
	}
	return b.String()
}

// sign computes base64(HMAC-SHA1(secret, stringToSign)).
func (v *V1) sign(secret, stringToSign string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
