// Package multipart coordinates multipart uploads: planning the part
// layout, uploading parts concurrently under a bounded permit pool,
// tracking per-part completion, and aborting the remote session on partial
// failure.
package multipart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/sirupsen/logrus"

	osserrors "github.com/aa2013/ali-yun-oss/errors"
	"github.com/aa2013/ali-yun-oss/internal/httpapi"
	"github.com/aa2013/ali-yun-oss/internal/planner"
	"github.com/aa2013/ali-yun-oss/internal/syncx"
	"github.com/aa2013/ali-yun-oss/osstypes"
)

// DefaultConcurrency bounds concurrent part uploads when the caller does
// not choose.
const DefaultConcurrency = 5

// readChunkSize is the fixed buffer each part task streams through, so many
// parts can be mid-read without materializing any of them.
const readChunkSize = 64 * 1024

// Uploader handles multipart upload operations against one endpoint.
type Uploader struct {
	conn   *httpapi.Conn
	fs     fs.Filesystem
	logger *logrus.Logger
}

// NewUploader creates a multipart uploader.
func NewUploader(conn *httpapi.Conn, filesystem fs.Filesystem, logger *logrus.Logger) *Uploader {
	return &Uploader{
		conn:   conn,
		fs:     filesystem,
		logger: logger,
	}
}

// Config carries the per-upload knobs resolved by the client layer.
type Config struct {
	// PartCount is the desired part count; 0 lets the planner choose
	PartCount int

	// Concurrency bounds concurrent part uploads; 0 means DefaultConcurrency
	Concurrency int

	// ContentType is set on the initiate call when non-empty
	ContentType string

	// Progress receives aggregate byte progress per finished part
	Progress osstypes.ProgressFunc

	// PartProgress receives per-part streaming progress per chunk
	PartProgress osstypes.PartProgressFunc
}

// session is the shared mutable state of one upload invocation. Every
// mutation happens inside the lock's critical section.
type session struct {
	lock      syncx.Lock
	parts     []*osstypes.PartRecord
	failed    bool
	firstErr  error
	bytesDone int64
	totalSize int64
	progress  osstypes.ProgressFunc
}

// recordSuccess stores a part record into its slot and reports aggregate
// progress. Successes landing after a failure still record (the in-flight
// send already happened) but the session stays abandoned.
func (s *session) recordSuccess(rec osstypes.PartRecord) {
	_ = s.lock.RunExclusive(func() error {
		s.parts[rec.PartNumber-1] = &rec
		s.bytesDone += rec.Size
		if s.progress != nil {
			s.progress(s.bytesDone, s.totalSize)
		}
		return nil
	})
}

// recordFailure latches the first failure; later ones only log.
func (s *session) recordFailure(err error, logger *logrus.Logger) {
	_ = s.lock.RunExclusive(func() error {
		if s.failed {
			if logger != nil {
				logger.WithError(err).Debug("additional part failure after session already failed")
			}
			return nil
		}
		s.failed = true
		s.firstErr = err
		return nil
	})
}

// abandoned reports whether the session has latched a failure.
func (s *session) abandoned() bool {
	var failed bool
	_ = s.lock.RunExclusive(func() error {
		failed = s.failed
		return nil
	})
	return failed
}

// UploadFile uploads the file at path to bucket/key as a multipart upload,
// driving initiate, bounded-concurrency part uploads, and complete or
// abort. The returned error carries exactly one taxonomy kind.
func (u *Uploader) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	cfg *Config,
) (*osstypes.CompletionResult, error) {
	startTime := time.Now()

	info, err := u.fs.Stat(path)
	if err != nil {
		return nil, osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrFileSystem).
			WithMessage(err.Error())
	}
	totalSize := info.Size()
	if totalSize == 0 {
		return nil, osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage("multipart upload of a zero-length file is not applicable")
	}

	plan, err := planner.ComputePlan(totalSize, cfg.PartCount)
	if err != nil {
		return nil, err
	}
	if err := checkPlan(plan); err != nil {
		return nil, osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrInvalidArgument).
			WithMessage(err.Error())
	}

	initiate, err := u.Initiate(ctx, bucket, key, cfg.ContentType)
	if err != nil {
		return nil, err
	}
	uploadID := initiate.UploadID

	// Initiate succeeded, so server-side state exists; a cancellation
	// observed from here on still aborts to free it.
	if ctx.Err() != nil {
		u.abortBestEffort(ctx, bucket, key, uploadID)
		return nil, osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrRequestCancelled)
	}

	sess := &session{
		parts:     make([]*osstypes.PartRecord, plan.NumberOfParts),
		totalSize: totalSize,
		progress:  cfg.Progress,
	}

	if err := u.uploadParts(ctx, bucket, key, path, uploadID, plan, cfg, sess); err != nil {
		u.abortBestEffort(ctx, bucket, key, uploadID)
		return nil, err
	}

	records := make([]osstypes.PartRecord, 0, plan.NumberOfParts)
	for _, rec := range sess.parts {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	// Tasks settle out of submission order, so re-sort before assembling
	// the completion list; the provider rejects out-of-order part numbers.
	sort.Slice(records, func(i, j int) bool {
		return records[i].PartNumber < records[j].PartNumber
	})

	result, err := u.Complete(ctx, bucket, key, uploadID, records)
	if err != nil {
		u.abortBestEffort(ctx, bucket, key, uploadID)
		return nil, err
	}
	result.Duration = time.Since(startTime)
	return result, nil
}

// uploadParts runs the bounded-concurrency part upload phase and resolves
// the joined outcome to a single error.
func (u *Uploader) uploadParts(
	ctx context.Context,
	bucket, key, path, uploadID string,
	plan osstypes.PartSizePlan,
	cfg *Config,
	sess *session,
) error {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sem, err := syncx.NewSemaphore(concurrency)
	if err != nil {
		return err
	}

	file, err := u.fs.Open(path)
	if err != nil {
		return osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrFileSystem).
			WithMessage(err.Error())
	}
	defer file.Close()

	var wg sync.WaitGroup
	for i := 0; i < plan.NumberOfParts; i++ {
		partNumber := i + 1
		offset := int64(i) * plan.PartSize
		length := plan.PartSize
		if remaining := sess.totalSize - offset; remaining < length {
			length = remaining
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			// Best-effort skip: a failed or cancelled session starts no
			// new work, but siblings already sending are left alone.
			if sess.abandoned() || ctx.Err() != nil {
				return
			}

			sem.Acquire()
			defer sem.Release()

			if sess.abandoned() || ctx.Err() != nil {
				return
			}

			body := newPartReader(file, offset, length, partNumber, cfg.PartProgress)
			rec, err := u.UploadPart(ctx, bucket, key, uploadID, partNumber, body, length)
			if err != nil {
				sess.recordFailure(err, u.logger)
				return
			}
			sess.recordSuccess(*rec)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrRequestCancelled)
	}
	if sess.abandoned() {
		if errors.Is(sess.firstErr, osserrors.ErrRequestCancelled) {
			return osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrRequestCancelled)
		}
		return osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrUploadPartFailed).
			WithMessage(sess.firstErr.Error())
	}
	for i, rec := range sess.parts {
		if rec == nil {
			return osserrors.NewObjectError("multipartUpload", bucket, key, osserrors.ErrUploadPartFailed).
				WithMessage(fmt.Sprintf("part %d was never uploaded", i+1))
		}
	}
	return nil
}

// abortBestEffort aborts the remote session, logging failures so they never
// mask the original cause.
func (u *Uploader) abortBestEffort(ctx context.Context, bucket, key, uploadID string) {
	// The caller's context may already be cancelled; the abort still has
	// to reach the server to free its state.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := u.Abort(ctx, bucket, key, uploadID); err != nil && u.logger != nil {
		u.logger.WithError(err).WithFields(logrus.Fields{
			"bucket":   bucket,
			"key":      key,
			"uploadId": uploadID,
		}).Warn("failed to abort multipart upload")
	}
}

// checkPlan re-validates planner output bounds. Redundant with the planner
// itself, but a bad plan here means corrupting a remote session.
func checkPlan(plan osstypes.PartSizePlan) error {
	if plan.NumberOfParts < 1 || plan.NumberOfParts > osstypes.MaxPartCount {
		return fmt.Errorf("part count %d out of bounds", plan.NumberOfParts)
	}
	if plan.NumberOfParts > 1 && (plan.PartSize < osstypes.MinPartSize || plan.PartSize > osstypes.MaxPartSize) {
		return fmt.Errorf("part size %d out of bounds", plan.PartSize)
	}
	return nil
}

// partReader streams one part's byte range in fixed-size chunks, reporting
// per-part progress as it goes. Reads go through ReadAt so concurrent part
// tasks can share one open file.
type partReader struct {
	section    *io.SectionReader
	partNumber int
	partTotal  int64
	sent       int64
	progress   osstypes.PartProgressFunc
}

func newPartReader(file io.ReaderAt, offset, length int64, partNumber int, progress osstypes.PartProgressFunc) *partReader {
	return &partReader{
		section:    io.NewSectionReader(file, offset, length),
		partNumber: partNumber,
		partTotal:  length,
		progress:   progress,
	}
}

// Read caps each read at the chunk size and reports progress per chunk.
func (r *partReader) Read(p []byte) (int, error) {
	if len(p) > readChunkSize {
		p = p[:readChunkSize]
	}
	n, err := r.section.Read(p)
	if n > 0 {
		r.sent += int64(n)
		if r.progress != nil {
			r.progress(r.partNumber, r.sent, r.partTotal)
		}
	}
	return n, err
}
