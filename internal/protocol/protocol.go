// Package protocol turns provider XML payloads into typed records and
// renders the request bodies the wire format requires.
//
// Parsing is deliberately asymmetric: a missing required top-level scalar
// signals a fundamentally wrong response and fails the whole parse, while a
// single malformed repeated element is skipped with a logged warning so one
// bad list item cannot block the rest.
package protocol

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// TrimETag strips the surrounding quotes the wire carries. Part identities
// are held de-quoted internally and re-quoted only when rendered back into
// the completion body.
func TrimETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// QuoteETag restores the provider's quoted wire form.
func QuoteETag(etag string) string {
	if strings.HasPrefix(etag, "\"") {
		return etag
	}
	return "\"" + etag + "\""
}

type initiateResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

// ParseInitiateResult parses an initiate multipart upload response.
// Bucket, Key, and UploadId are all required.
func ParseInitiateResult(body []byte) (*osstypes.InitiateResult, error) {
	var raw initiateResult
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, osserrors.NewError("parseInitiateResult", osserrors.ErrInvalidResponse).
			WithMessage(err.Error())
	}
	for name, val := range map[string]string{
		"Bucket": raw.Bucket, "Key": raw.Key, "UploadId": raw.UploadID,
	} {
		if val == "" {
			return nil, osserrors.NewError("parseInitiateResult", osserrors.ErrInvalidResponse).
				WithMessage("missing required element " + name)
		}
	}
	return &osstypes.InitiateResult{
		Bucket:   raw.Bucket,
		Key:      raw.Key,
		UploadID: raw.UploadID,
	}, nil
}

type completeResult struct {
	XMLName      xml.Name `xml:"CompleteMultipartUploadResult"`
	Location     string   `xml:"Location"`
	Bucket       string   `xml:"Bucket"`
	Key          string   `xml:"Key"`
	ETag         string   `xml:"ETag"`
	EncodingType string   `xml:"EncodingType"`
}

// ParseCompleteResult parses a complete multipart upload response.
// Location, Bucket, Key, and ETag are required; EncodingType is optional.
func ParseCompleteResult(body []byte) (*osstypes.CompletionResult, error) {
	var raw completeResult
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, osserrors.NewError("parseCompleteResult", osserrors.ErrInvalidResponse).
			WithMessage(err.Error())
	}
	for name, val := range map[string]string{
		"Location": raw.Location, "Bucket": raw.Bucket, "Key": raw.Key, "ETag": raw.ETag,
	} {
		if val == "" {
			return nil, osserrors.NewError("parseCompleteResult", osserrors.ErrInvalidResponse).
				WithMessage("missing required element " + name)
		}
	}
	return &osstypes.CompletionResult{
		Location:     raw.Location,
		Bucket:       raw.Bucket,
		Key:          raw.Key,
		ETag:         TrimETag(raw.ETag),
		EncodingType: raw.EncodingType,
	}, nil
}

// rawPart keeps every field textual so one bad value can be rejected
// per item instead of aborting the document decode.
type rawPart struct {
	PartNumber   string `xml:"PartNumber"`
	ETag         string `xml:"ETag"`
	Size         string `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

type listPartsResult struct {
	XMLName              xml.Name  `xml:"ListPartsResult"`
	Bucket               string    `xml:"Bucket"`
	Key                  string    `xml:"Key"`
	UploadID             string    `xml:"UploadId"`
	IsTruncated          bool      `xml:"IsTruncated"`
	NextPartNumberMarker int       `xml:"NextPartNumberMarker"`
	MaxParts             int       `xml:"MaxParts"`
	Parts                []rawPart `xml:"Part"`
}

// ParseListParts parses a list parts response. Bucket, Key, and UploadId
// are required scalars; malformed <Part> elements are skipped with a
// warning.
func ParseListParts(body []byte, logger *logrus.Logger) (*osstypes.ListPartsResult, error) {
	var raw listPartsResult
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, osserrors.NewError("parseListParts", osserrors.ErrInvalidResponse).
			WithMessage(err.Error())
	}
	for name, val := range map[string]string{
		"Bucket": raw.Bucket, "Key": raw.Key, "UploadId": raw.UploadID,
	} {
		if val == "" {
			return nil, osserrors.NewError("parseListParts", osserrors.ErrInvalidResponse).
				WithMessage("missing required element " + name)
		}
	}

	result := &osstypes.ListPartsResult{
		Bucket:               raw.Bucket,
		Key:                  raw.Key,
		UploadID:             raw.UploadID,
		IsTruncated:          raw.IsTruncated,
		NextPartNumberMarker: raw.NextPartNumberMarker,
		MaxParts:             raw.MaxParts,
		Parts:                make([]osstypes.PartRecord, 0, len(raw.Parts)),
	}
	for _, p := range raw.Parts {
		record, err := convertPart(p)
		if err != nil {
			if logger != nil {
				logger.WithError(err).Warn("skipping malformed part element in list parts response")
			}
			continue
		}
		result.Parts = append(result.Parts, record)
	}
	return result, nil
}

// convertPart validates one repeated <Part> element.
func convertPart(p rawPart) (osstypes.PartRecord, error) {
	num, err := strconv.Atoi(strings.TrimSpace(p.PartNumber))
	if err != nil || num < 1 || num > osstypes.MaxPartCount {
		return osstypes.PartRecord{}, osserrors.NewError("convertPart", osserrors.ErrInvalidResponse).
			WithMessage("bad PartNumber " + strconv.Quote(p.PartNumber))
	}
	if p.ETag == "" {
		return osstypes.PartRecord{}, osserrors.NewError("convertPart", osserrors.ErrInvalidResponse).
			WithMessage("missing ETag for part " + strconv.Itoa(num))
	}
	var size int64
	if p.Size != "" {
		size, err = strconv.ParseInt(strings.TrimSpace(p.Size), 10, 64)
		if err != nil || size < 0 {
			return osstypes.PartRecord{}, osserrors.NewError("convertPart", osserrors.ErrInvalidResponse).
				WithMessage("bad Size " + strconv.Quote(p.Size))
		}
	}
	return osstypes.PartRecord{
		PartNumber:   num,
		ETag:         TrimETag(p.ETag),
		Size:         size,
		LastModified: p.LastModified,
	}, nil
}

type rawUpload struct {
	Key          string `xml:"Key"`
	UploadID     string `xml:"UploadId"`
	Initiated    string `xml:"Initiated"`
	StorageClass string `xml:"StorageClass"`
}

type listUploadsResult struct {
	XMLName            xml.Name    `xml:"ListMultipartUploadsResult"`
	Bucket             string      `xml:"Bucket"`
	Prefix             string      `xml:"Prefix"`
	KeyMarker          string      `xml:"KeyMarker"`
	UploadIDMarker     string      `xml:"UploadIdMarker"`
	NextKeyMarker      string      `xml:"NextKeyMarker"`
	NextUploadIDMarker string      `xml:"NextUploadIdMarker"`
	MaxUploads         int         `xml:"MaxUploads"`
	IsTruncated        bool        `xml:"IsTruncated"`
	Uploads            []rawUpload `xml:"Upload"`
	CommonPrefixes     []struct {
		Prefix string `xml:"Prefix"`
	} `xml:"CommonPrefixes"`
}

// ParseListUploads parses a list multipart uploads response. Bucket is the
// only required scalar; malformed <Upload> elements are skipped with a
// warning.
func ParseListUploads(body []byte, logger *logrus.Logger) (*osstypes.ListUploadsResult, error) {
	var raw listUploadsResult
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, osserrors.NewError("parseListUploads", osserrors.ErrInvalidResponse).
			WithMessage(err.Error())
	}
	if raw.Bucket == "" {
		return nil, osserrors.NewError("parseListUploads", osserrors.ErrInvalidResponse).
			WithMessage("missing required element Bucket")
	}

	result := &osstypes.ListUploadsResult{
		Bucket:             raw.Bucket,
		Prefix:             raw.Prefix,
		KeyMarker:          raw.KeyMarker,
		UploadIDMarker:     raw.UploadIDMarker,
		NextKeyMarker:      raw.NextKeyMarker,
		NextUploadIDMarker: raw.NextUploadIDMarker,
		MaxUploads:         raw.MaxUploads,
		IsTruncated:        raw.IsTruncated,
		Uploads:            make([]osstypes.MultipartUpload, 0, len(raw.Uploads)),
	}
	for _, u := range raw.Uploads {
		if u.Key == "" || u.UploadID == "" {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"key":      u.Key,
					"uploadId": u.UploadID,
				}).Warn("skipping malformed upload element in list uploads response")
			}
			continue
		}
		result.Uploads = append(result.Uploads, osstypes.MultipartUpload{
			Key:          u.Key,
			UploadID:     u.UploadID,
			Initiated:    u.Initiated,
			StorageClass: u.StorageClass,
		})
	}
	for _, cp := range raw.CommonPrefixes {
		result.CommonPrefixes = append(result.CommonPrefixes, cp.Prefix)
	}
	return result, nil
}

type completePart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

type completeMultipartUpload struct {
	XMLName xml.Name       `xml:"CompleteMultipartUpload"`
	Parts   []completePart `xml:"Part"`
}

// BuildCompleteBody renders the <CompleteMultipartUpload> request body.
// Parts must already be in ascending PartNumber order; ETags are re-quoted
// to the provider's wire form here.
func BuildCompleteBody(parts []osstypes.PartRecord) ([]byte, error) {
	payload := completeMultipartUpload{Parts: make([]completePart, 0, len(parts))}
	for _, p := range parts {
		payload.Parts = append(payload.Parts, completePart{
			PartNumber: p.PartNumber,
			ETag:       QuoteETag(p.ETag),
		})
	}
	body, err := xml.Marshal(payload)
	if err != nil {
		return nil, osserrors.NewError("buildCompleteBody", err)
	}
	return append([]byte(xml.Header), body...), nil
}
