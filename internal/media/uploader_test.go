package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCoversFileExactlyOnce(t *testing.T) {
	cases := []struct {
		size, chunk int64
		want        int
	}{
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{ChunkSize*2 + 1, ChunkSize, 3},
		{17, 4, 5},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d", tc.size, tc.chunk), func(t *testing.T) {
			ranges := Plan(tc.size, tc.chunk)
			require.Len(t, ranges, tc.want)

			var next int64
			for _, r := range ranges {
				assert.Equal(t, next, r.Start)
				assert.LessOrEqual(t, r.Len(), tc.chunk)
				assert.Positive(t, r.Len())
				next = r.End
			}
			assert.Equal(t, tc.size, next)
		})
	}
	assert.Nil(t, Plan(0, 5))
}

func TestContentRange(t *testing.T) {
	assert.Equal(t, "bytes 0-4/12", Range{Start: 0, End: 5}.ContentRange(12))
	assert.Equal(t, "bytes 10-11/12", Range{Start: 10, End: 12}.ContentRange(12))
}

type recordedChunk struct {
	uploadID     string
	contentRange string
	cloud        string
	preset       string
	data         []byte
}

func newMediaHost(t *testing.T, failAt int) (*httptest.Server, *[]recordedChunk) {
	t.Helper()
	var (
		mu     sync.Mutex
		chunks []recordedChunk
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/auto/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		var data []byte
		if f, _, err := r.FormFile("file"); assert.NoError(t, err) {
			data, _ = io.ReadAll(f)
		}

		mu.Lock()
		chunks = append(chunks, recordedChunk{
			uploadID:     r.Header.Get("X-Unique-Upload-Id"),
			contentRange: r.Header.Get("Content-Range"),
			cloud:        r.FormValue("cloud_name"),
			preset:       r.FormValue("upload_preset"),
			data:         data,
		})
		n := len(chunks)
		mu.Unlock()

		if n-1 == failAt {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid upload preset"}}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"secure_url":"https://cdn.example.com/img-%d.jpg"}`, n)
	}))
	t.Cleanup(srv.Close)
	return srv, &chunks
}

func TestUploadSendsSequentialRanges(t *testing.T) {
	srv, chunks := newMediaHost(t, -1)
	u := NewUploader(Config{Endpoint: srv.URL + "/", CloudName: "demo", Preset: "unsigned", ChunkSize: 4}, srv.Client(), nil)

	payload := []byte("0123456789abcdefg") // 17 bytes -> 5 chunks
	res, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), "pic.jpg")
	require.NoError(t, err)

	got := *chunks
	require.Len(t, got, 5)
	assert.Equal(t, "https://cdn.example.com/img-5.jpg", res.SecureURL)
	assert.Equal(t, 5, res.Chunks)

	var joined []byte
	wantRanges := []string{"bytes 0-3/17", "bytes 4-7/17", "bytes 8-11/17", "bytes 12-15/17", "bytes 16-16/17"}
	for i, c := range got {
		assert.Equal(t, res.UploadID, c.uploadID)
		assert.Equal(t, wantRanges[i], c.contentRange)
		assert.Equal(t, "demo", c.cloud)
		assert.Equal(t, "unsigned", c.preset)
		joined = append(joined, c.data...)
	}
	assert.Equal(t, payload, joined)
}

func TestUploadAbortsOnFailedChunk(t *testing.T) {
	srv, chunks := newMediaHost(t, 1)
	u := NewUploader(Config{Endpoint: srv.URL, CloudName: "demo", Preset: "p", ChunkSize: 4}, srv.Client(), nil)

	payload := bytes.Repeat([]byte("x"), 16)
	_, err := u.Upload(context.Background(), bytes.NewReader(payload), int64(len(payload)), "")
	require.Error(t, err)
	assert.Len(t, *chunks, 2, "no chunk is sent after a failure")

	var ue *UploadError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 1, ue.Chunk)
	assert.Equal(t, 4, ue.Total)
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Equal(t, "Invalid upload preset", ue.Message)
}

func TestUploadEmptyFile(t *testing.T) {
	u := NewUploader(Config{CloudName: "demo"}, nil, nil)
	_, err := u.Upload(context.Background(), bytes.NewReader(nil), 0, "x")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestUploadMissingSecureURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"done":false}`))
	}))
	defer srv.Close()

	u := NewUploader(Config{Endpoint: srv.URL, CloudName: "demo"}, srv.Client(), nil)
	_, err := u.Upload(context.Background(), bytes.NewReader([]byte("abc")), 3, "x")
	assert.ErrorIs(t, err, ErrNoSecureURL)
}

func TestUploadHonoursCanceledContext(t *testing.T) {
	srv, chunks := newMediaHost(t, -1)
	u := NewUploader(Config{Endpoint: srv.URL, CloudName: "demo", ChunkSize: 2}, srv.Client(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.Upload(ctx, bytes.NewReader([]byte("abcd")), 4, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *chunks)
}

func TestUploadSmallFileWithHugeChunkSize(t *testing.T) {
	srv, chunks := newMediaHost(t, -1)
	// the chunk buffer is sized to the file, so this never allocates a terabyte
	u := NewUploader(Config{Endpoint: srv.URL, CloudName: "demo", ChunkSize: 1 << 40}, srv.Client(), nil)

	res, err := u.Upload(context.Background(), bytes.NewReader([]byte("abc")), 3, "x")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunks)
	require.Len(t, *chunks, 1)
	assert.Equal(t, "bytes 0-2/3", (*chunks)[0].contentRange)
	assert.Equal(t, []byte("abc"), (*chunks)[0].data)
}
