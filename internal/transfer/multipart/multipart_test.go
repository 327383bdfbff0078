// Package multipart provides unit tests for the multipart upload
// orchestrator.
package multipart

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/httpapi"
	"github.com/aa2013/ali-yun-oss/internal/signer"
	"github.com/aa2013/ali-yun-oss/internal/testutil"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

const testUploadID = "UPLOAD123"

// callLog records the provider calls a mock transport observed.
type callLog struct {
	mu       sync.Mutex
	puts     []int // part numbers in arrival order
	putSizes map[int]int
	aborts   []string // uploadId per abort
	complete []byte   // last complete request body
}

func (l *callLog) recordPut(partNumber, size int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.putSizes == nil {
		l.putSizes = map[int]int{}
	}
	l.puts = append(l.puts, partNumber)
	l.putSizes[partNumber] = size
}

func (l *callLog) recordAbort(uploadID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.aborts = append(l.aborts, uploadID)
}

func (l *callLog) recordComplete(body []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.complete = body
}

func (l *callLog) putCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.puts)
}

// newTestUploader wires an Uploader to the mock transport over an in-memory
// filesystem seeded with content at path.
func newTestUploader(t *testing.T, client osstypes.HTTPClient, path string, content []byte) *Uploader {
	t.Helper()

	memFS := billy.NewInMemoryFS()
	if content != nil {
		require.NoError(t, memFS.WriteFile(path, content, 0o644))
	}

	sig, err := signer.New(osstypes.SignatureV1)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	conn := &httpapi.Conn{
		Endpoint:    "oss-cn-hangzhou.aliyuncs.com",
		Region:      "cn-hangzhou",
		Signer:      sig,
		Credentials: osstypes.StaticCredentials("test-id", "test-secret"),
		HTTPClient:  client,
	}
	return NewUploader(conn, memFS, logger)
}

// route dispatches a mock request to the matching multipart operation.
func route(t *testing.T, log *callLog,
	onPart func(partNumber int) *http.Response,
) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		query := req.URL.Query()
		switch {
		case req.Method == http.MethodPost && query.Has("uploads"):
			return testutil.InitiateResponse("test-bucket", "big.bin", testUploadID), nil
		case req.Method == http.MethodPut && query.Has("partNumber"):
			partNumber, err := strconv.Atoi(query.Get("partNumber"))
			require.NoError(t, err)
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			log.recordPut(partNumber, len(body))
			return onPart(partNumber), nil
		case req.Method == http.MethodPost && query.Has("uploadId"):
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			log.recordComplete(body)
			return testutil.CompleteResponse(
				"http://test-bucket.oss-cn-hangzhou.aliyuncs.com/big.bin",
				"test-bucket", "big.bin", "FINAL-4"), nil
		case req.Method == http.MethodDelete:
			log.recordAbort(query.Get("uploadId"))
			return testutil.Response(http.StatusNoContent, nil, ""), nil
		}
		t.Errorf("unexpected request %s %s", req.Method, req.URL)
		return testutil.Response(http.StatusTeapot, nil, ""), nil
	}
}

func TestUploadFile_HappyPath(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 1_000_000)
	log := &callLog{}
	mock := &testutil.MockHTTPClient{
		DoFunc: route(t, log, func(partNumber int) *http.Response {
			return testutil.UploadPartResponse("ETAG-" + strconv.Itoa(partNumber))
		}),
	}
	uploader := newTestUploader(t, mock, "big.bin", content)

	var progressMu sync.Mutex
	var lastDone, lastTotal int64
	result, err := uploader.UploadFile(context.Background(), "test-bucket", "big.bin", "big.bin", &Config{
		PartCount: 4,
		Progress: func(done, total int64) {
			progressMu.Lock()
			lastDone, lastTotal = done, total
			progressMu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-bucket", result.Bucket)
	assert.Equal(t, "FINAL-4", result.ETag)
	assert.Positive(t, result.Duration)

	// Four parts of exactly 250000 bytes each.
	assert.Equal(t, 4, log.putCount())
	for part := 1; part <= 4; part++ {
		assert.Equal(t, 250_000, log.putSizes[part], "part %d", part)
	}

	// The completion list is ordered and quoted regardless of completion
	// order of the tasks.
	body := string(log.complete)
	for part := 1; part <= 4; part++ {
		assert.Contains(t, body,
			"<PartNumber>"+strconv.Itoa(part)+"</PartNumber><ETag>&#34;ETAG-"+strconv.Itoa(part)+"&#34;</ETag>")
	}
	assert.Less(t,
		strings.Index(body, "<PartNumber>1</PartNumber>"),
		strings.Index(body, "<PartNumber>4</PartNumber>"))

	assert.Empty(t, log.aborts)
	assert.Equal(t, int64(1_000_000), lastDone)
	assert.Equal(t, int64(1_000_000), lastTotal)
}

func TestUploadFile_PartProgress(t *testing.T) {
	content := bytes.Repeat([]byte("y"), 400_000)
	log := &callLog{}
	mock := &testutil.MockHTTPClient{
		DoFunc: route(t, log, func(partNumber int) *http.Response {
			return testutil.UploadPartResponse("ETAG-" + strconv.Itoa(partNumber))
		}),
	}
	uploader := newTestUploader(t, mock, "mid.bin", content)

	var mu sync.Mutex
	finalSent := map[int]int64{}
	_, err := uploader.UploadFile(context.Background(), "test-bucket", "mid.bin", "mid.bin", &Config{
		PartCount: 2,
		PartProgress: func(partNumber int, sent, partTotal int64) {
			mu.Lock()
			finalSent[partNumber] = sent
			assert.Equal(t, int64(200_000), partTotal)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(200_000), finalSent[1])
	assert.Equal(t, int64(200_000), finalSent[2])
}

func TestUploadFile_PartFailureAborts(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 1_000_000)
	log := &callLog{}
	mock := &testutil.MockHTTPClient{
		DoFunc: route(t, log, func(partNumber int) *http.Response {
			if partNumber == 3 {
				return testutil.ErrorResponse(http.StatusInternalServerError, "InternalError", "boom")
			}
			return testutil.UploadPartResponse("ETAG-" + strconv.Itoa(partNumber))
		}),
	}
	uploader := newTestUploader(t, mock, "big.bin", content)

	_, err := uploader.UploadFile(context.Background(), "test-bucket", "big.bin", "big.bin", &Config{
		PartCount: 4,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, osserrors.ErrUploadPartFailed)

	// The session is abandoned exactly once, against the right upload id,
	// and never completed.
	assert.Equal(t, []string{testUploadID}, log.aborts)
	assert.Nil(t, log.complete)
}

func TestUploadFile_CancellationStopsNewParts(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 1_000_000)
	ctx, cancel := context.WithCancel(context.Background())

	log := &callLog{}
	mock := &testutil.MockHTTPClient{
		DoFunc: route(t, log, func(partNumber int) *http.Response {
			// Trigger cancellation while the second part is in flight;
			// parts not yet started must never be sent.
			if log.putCount() == 2 {
				cancel()
			}
			return testutil.UploadPartResponse("ETAG-" + strconv.Itoa(partNumber))
		}),
	}
	uploader := newTestUploader(t, mock, "big.bin", content)

	_, err := uploader.UploadFile(ctx, "test-bucket", "big.bin", "big.bin", &Config{
		PartCount:   4,
		Concurrency: 1,
	})
	require.Error(t, err)
	assert.True(t, osserrors.IsRequestCancelled(err))

	assert.Equal(t, 2, log.putCount())
	assert.Equal(t, []string{testUploadID}, log.aborts)
	assert.Nil(t, log.complete)
}

func TestUploadFile_CompleteFailureAborts(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 500_000)
	log := &callLog{}
	mock := &testutil.MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			query := req.URL.Query()
			switch {
			case req.Method == http.MethodPost && query.Has("uploads"):
				return testutil.InitiateResponse("test-bucket", "big.bin", testUploadID), nil
			case req.Method == http.MethodPut:
				io.Copy(io.Discard, req.Body)
				return testutil.UploadPartResponse("ETAG"), nil
			case req.Method == http.MethodPost:
				return testutil.ErrorResponse(http.StatusInternalServerError, "InternalError", "boom"), nil
			case req.Method == http.MethodDelete:
				log.recordAbort(query.Get("uploadId"))
				return testutil.Response(http.StatusNoContent, nil, ""), nil
			}
			return testutil.Response(http.StatusTeapot, nil, ""), nil
		},
	}
	uploader := newTestUploader(t, mock, "big.bin", content)

	_, err := uploader.UploadFile(context.Background(), "test-bucket", "big.bin", "big.bin", &Config{
		PartCount: 2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, osserrors.ErrCompleteMultipartFailed)
	assert.Equal(t, []string{testUploadID}, log.aborts)
}

func TestUploadFile_InitiateFailure(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 500_000)
	mock := &testutil.MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return testutil.ErrorResponse(http.StatusForbidden, "AccessDenied", "nope"), nil
		},
	}
	uploader := newTestUploader(t, mock, "big.bin", content)

	_, err := uploader.UploadFile(context.Background(), "test-bucket", "big.bin", "big.bin", &Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, osserrors.ErrInitiateMultipartFailed)
}

func TestUploadFile_EmptyFile(t *testing.T) {
	uploader := newTestUploader(t, &testutil.MockHTTPClient{}, "empty.bin", []byte{})

	_, err := uploader.UploadFile(context.Background(), "test-bucket", "empty.bin", "empty.bin", &Config{})
	assert.True(t, osserrors.IsInvalidArgument(err))
}

func TestUploadFile_MissingFile(t *testing.T) {
	uploader := newTestUploader(t, &testutil.MockHTTPClient{}, "other.bin", []byte("x"))

	_, err := uploader.UploadFile(context.Background(), "test-bucket", "missing.bin", "missing.bin", &Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, osserrors.ErrFileSystem)
}

func TestUploadPart_MissingETag(t *testing.T) {
	mock := &testutil.MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			io.Copy(io.Discard, req.Body)
			return testutil.Response(http.StatusOK, nil, ""), nil
		},
	}
	uploader := newTestUploader(t, mock, "a.bin", []byte("x"))

	_, err := uploader.UploadPart(context.Background(), "test-bucket", "a.bin", testUploadID, 1,
		strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, osserrors.ErrInvalidResponse)
}

func TestUploadPart_PartNumberOutOfRange(t *testing.T) {
	uploader := newTestUploader(t, &testutil.MockHTTPClient{}, "a.bin", []byte("x"))

	for _, partNumber := range []int{0, -1, osstypes.MaxPartCount + 1} {
		_, err := uploader.UploadPart(context.Background(), "test-bucket", "a.bin", testUploadID,
			partNumber, strings.NewReader("x"), 1)
		assert.True(t, osserrors.IsInvalidArgument(err), "part %d", partNumber)
	}
}

func TestListParts_QueryParameters(t *testing.T) {
	var gotQuery map[string][]string
	mock := &testutil.MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.Query()
			body := `<ListPartsResult><Bucket>b</Bucket><Key>k</Key><UploadId>` + testUploadID + `</UploadId>` +
				`<Part><PartNumber>1</PartNumber><ETag>"AAA"</ETag><Size>100</Size></Part></ListPartsResult>`
			return testutil.XMLResponse(http.StatusOK, body), nil
		},
	}
	uploader := newTestUploader(t, mock, "a.bin", nil)

	result, err := uploader.ListParts(context.Background(), "b", "k", testUploadID, &ListPartsOptions{
		MaxParts:         100,
		PartNumberMarker: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, testUploadID, gotQuery["uploadId"][0])
	assert.Equal(t, "100", gotQuery["max-parts"][0])
	assert.Equal(t, "7", gotQuery["part-number-marker"][0])
	require.Len(t, result.Parts, 1)
	assert.Equal(t, "AAA", result.Parts[0].ETag)
}

func TestListUploads_QueryParameters(t *testing.T) {
	var gotQuery map[string][]string
	mock := &testutil.MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.Query()
			body := `<ListMultipartUploadsResult><Bucket>b</Bucket>` +
				`<Upload><Key>k</Key><UploadId>` + testUploadID + `</UploadId></Upload></ListMultipartUploadsResult>`
			return testutil.XMLResponse(http.StatusOK, body), nil
		},
	}
	uploader := newTestUploader(t, mock, "a.bin", nil)

	result, err := uploader.ListUploads(context.Background(), "b", &ListUploadsOptions{
		Prefix:     "backups/",
		MaxUploads: 50,
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "uploads")
	assert.Equal(t, "backups/", gotQuery["prefix"][0])
	assert.Equal(t, "50", gotQuery["max-uploads"][0])
	require.Len(t, result.Uploads, 1)
	assert.Equal(t, testUploadID, result.Uploads[0].UploadID)
}

func TestAbort(t *testing.T) {
	log := &callLog{}
	mock := &testutil.MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodDelete, req.Method)
			log.recordAbort(req.URL.Query().Get("uploadId"))
			return testutil.Response(http.StatusNoContent, nil, ""), nil
		},
	}
	uploader := newTestUploader(t, mock, "a.bin", nil)

	require.NoError(t, uploader.Abort(context.Background(), "b", "k", testUploadID))
	assert.Equal(t, []string{testUploadID}, log.aborts)
}
