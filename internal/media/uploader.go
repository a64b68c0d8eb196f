// Package media uploads files to the media host in sequential byte-range
// chunks that share one upload id.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront/internal/apierr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyFile   = errors.New("media: empty file")
	ErrNoSecureURL = errors.New("media: final chunk response has no secure_url")
)

// UploadError aborts an upload; nothing is retried or cleaned up.
type UploadError struct {
	Chunk   int
	Total   int
	Status  int
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("media: chunk %d/%d: %d %s", e.Chunk+1, e.Total, e.Status, e.Message)
	}
	return fmt.Sprintf("media: chunk %d/%d: %s", e.Chunk+1, e.Total, e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

type Config struct {
	Endpoint  string // e.g. https://api.cloudinary.com/v1_1
	CloudName string
	Preset    string
	ChunkSize int64
}

type Result struct {
	SecureURL string `json:"secureUrl"`
	UploadID  string `json:"uploadId"`
	Chunks    int    `json:"chunks"`
	Bytes     int64  `json:"bytes"`
}

type Uploader struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
	now  func() time.Time
}

func NewUploader(cfg Config, hc *http.Client, log *zap.Logger) *Uploader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = ChunkSize
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{cfg: cfg, http: hc, log: log, now: time.Now}
}

func (u *Uploader) url() string {
	return fmt.Sprintf("%s/%s/auto/upload", u.cfg.Endpoint, u.cfg.CloudName)
}

func (u *Uploader) newUploadID() string {
	return fmt.Sprintf("uqid-%d-%s", u.now().UnixMilli(), uuid.NewString()[:8])
}

// Upload sends r in order, one chunk at a time. The secure_url of the last
// response is the result; earlier responses are discarded.
func (u *Uploader) Upload(ctx context.Context, r io.ReaderAt, size int64, filename string) (Result, error) {
	ranges := Plan(size, u.cfg.ChunkSize)
	if len(ranges) == 0 {
		return Result{}, ErrEmptyFile
	}
	if filename == "" {
		filename = "upload"
	}

	uploadID := u.newUploadID()
	log := u.log.With(zap.String("upload_id", uploadID), zap.Int64("size", size), zap.Int("chunks", len(ranges)))
	log.Info("media upload started")

	buf := make([]byte, min(u.cfg.ChunkSize, size))
	var last chunkResponse
	for i, rg := range ranges {
		if err := ctx.Err(); err != nil {
			return Result{}, &UploadError{Chunk: i, Total: len(ranges), Message: "canceled", Err: err}
		}

		part := buf[:rg.Len()]
		// ReaderAt may report io.EOF alongside a full read of the last chunk.
		if n, err := r.ReadAt(part, rg.Start); n < len(part) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return Result{}, &UploadError{Chunk: i, Total: len(ranges), Message: "read file", Err: err}
		}

		resp, err := u.sendChunk(ctx, uploadID, filename, part, rg, size)
		if err != nil {
			var ue *UploadError
			if errors.As(err, &ue) {
				ue.Chunk, ue.Total = i, len(ranges)
			}
			log.Error("media upload aborted", zap.Int("chunk", i), zap.Error(err))
			return Result{}, err
		}
		last = resp
		log.Debug("media chunk sent", zap.Int("chunk", i), zap.String("range", rg.ContentRange(size)))
	}

	if last.SecureURL == "" {
		return Result{}, ErrNoSecureURL
	}
	log.Info("media upload finished", zap.String("secure_url", last.SecureURL))
	return Result{SecureURL: last.SecureURL, UploadID: uploadID, Chunks: len(ranges), Bytes: size}, nil
}

type chunkResponse struct {
	SecureURL string `json:"secure_url"`
}

func (u *Uploader) sendChunk(ctx context.Context, uploadID, filename string, part []byte, rg Range, total int64) (chunkResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return chunkResponse{}, &UploadError{Message: "build form", Err: err}
	}
	if _, err := fw.Write(part); err != nil {
		return chunkResponse{}, &UploadError{Message: "build form", Err: err}
	}
	_ = mw.WriteField("cloud_name", u.cfg.CloudName)
	_ = mw.WriteField("upload_preset", u.cfg.Preset)
	if err := mw.Close(); err != nil {
		return chunkResponse{}, &UploadError{Message: "build form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url(), &body)
	if err != nil {
		return chunkResponse{}, &UploadError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Unique-Upload-Id", uploadID)
	req.Header.Set("Content-Range", rg.ContentRange(total))

	resp, err := u.http.Do(req)
	if err != nil {
		return chunkResponse{}, &UploadError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return chunkResponse{}, &UploadError{Status: resp.StatusCode, Message: apierr.Message(resp)}
	}
	var out chunkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chunkResponse{}, &UploadError{Message: "decode response", Err: err}
	}
	return out, nil
}
