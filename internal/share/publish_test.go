package share

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeS3 answers the few path-style S3 calls the publisher makes.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  bool
	heads   int
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		f.heads++
		if !f.bucket {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && len(parts) == 1:
		f.bucket = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		if f.objects == nil {
			f.objects = map[string][]byte{}
		}
		f.objects[parts[1]] = body
		w.Header().Set("ETag", `"0123456789abcdef0123456789abcdef"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newTestPublisher(t *testing.T, fake *fakeS3) *S3Publisher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	p, err := NewS3Publisher(S3Config{
		Endpoint:      strings.TrimPrefix(srv.URL, "http://"),
		AccessKey:     "access",
		SecretKey:     "secret",
		Bucket:        "memes",
		PublicBaseURL: "https://cdn.example.com",
	})
	require.NoError(t, err)
	return p
}

func TestS3PublisherCreatesBucketAndUploads(t *testing.T) {
	t.Parallel()
	fake := &fakeS3{}
	p := newTestPublisher(t, fake)
	png := []byte("\x89PNG fake bytes")

	u, err := p.Publish(context.Background(), png)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "https://cdn.example.com/memes/"), u)
	require.True(t, strings.HasSuffix(u, ".png"), u)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.True(t, fake.bucket)
	require.Len(t, fake.objects, 1)
	for key, body := range fake.objects {
		require.True(t, strings.HasPrefix(key, "memes/"), key)
		require.True(t, bytes.Contains(body, png))
	}
}

func TestS3PublisherRetriesBucketCheckAfterFailure(t *testing.T) {
	t.Parallel()
	fake := &fakeS3{bucket: true}
	p := newTestPublisher(t, fake)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Publish(cancelled, []byte("png"))
	require.Error(t, err)

	u, err := p.Publish(context.Background(), []byte("png"))
	require.NoError(t, err)
	require.NotEmpty(t, u)

	// once the check has succeeded the bucket is not checked again
	_, err = p.Publish(context.Background(), []byte("png"))
	require.NoError(t, err)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Equal(t, 1, fake.heads)
	require.Len(t, fake.objects, 2)
}
