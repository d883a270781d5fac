package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/ripta/updir/upload"
)

type fakeWriter struct {
	key      string
	buf      bytes.Buffer
	writeErr error
	closeErr error
	closed   bool
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type fakeBucket struct {
	objects  map[string]*fakeWriter
	closeErr map[string]error
}

func (b *fakeBucket) writer(ctx context.Context, key string) io.WriteCloser {
	w := &fakeWriter{key: key, closeErr: b.closeErr[key]}
	b.objects[key] = w
	return w
}

func newTestSink(prefix string) (*sink, *fakeBucket) {
	fb := &fakeBucket{objects: map[string]*fakeWriter{}, closeErr: map[string]error{}}
	return &sink{Bucket: "test-bucket", Prefix: prefix, newWriter: fb.writer}, fb
}

func TestStore_WritesObjectUnderPrefix(t *testing.T) {
	s, fb := newTestSink("incoming/")
	ctx := context.Background()

	b, err := s.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Store(ctx, "sub/dir/photo.png", []byte{0x89, 'P', 'N', 'G'}))

	w, ok := fb.objects["incoming/sub/dir/photo.png"]
	require.True(t, ok)
	assert.True(t, w.closed)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.buf.Bytes())
}

func TestStore_CloseFailureIsReported(t *testing.T) {
	s, fb := newTestSink("")
	fb.closeErr["a.txt"] = errors.New("googleapi: Error 403: forbidden")

	err := s.Store(context.Background(), "a.txt", []byte("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gs://test-bucket/a.txt")
}

func TestStore_RejectsUnsafeName(t *testing.T) {
	s, fb := newTestSink("")

	err := s.Store(context.Background(), "../escape.txt", []byte("x"))
	assert.True(t, errors.Is(err, upload.ErrUnsafeName))
	assert.Empty(t, fb.objects)
}

func TestNewSink(t *testing.T) {
	ctx := context.Background()

	_, err := NewSink(ctx, "", "", "", option.WithoutAuthentication())
	assert.Equal(t, ErrMissingBucket, err)

	s, err := NewSink(ctx, "bucket", "/pfx/", "", option.WithoutAuthentication())
	require.NoError(t, err)
	assert.Equal(t, upload.SinkGCS, s.Name())
	assert.Equal(t, "pfx/", s.(*sink).Prefix)
}
