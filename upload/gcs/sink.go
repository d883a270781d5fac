// Package gcs uploads files to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/ripta/updir/upload"
)

// ErrMissingBucket is returned by NewSink when no bucket is configured.
var ErrMissingBucket = errors.New("gcs: bucket name is required")

type writerFunc func(ctx context.Context, key string) io.WriteCloser

type sink struct {
	Client  *storage.Client
	Bucket  string
	Prefix  string
	KeyFile string

	newWriter writerFunc
}

// NewSink returns a sink writing into bucket under prefix. When keyFile is
// empty, application default credentials are used.
func NewSink(ctx context.Context, bucket, prefix, keyFile string, opts ...option.ClientOption) (upload.Sink, error) {
	if bucket == "" {
		return nil, ErrMissingBucket
	}
	c, err := newClient(ctx, keyFile, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create GCS client")
	}

	s := &sink{
		Client:  c,
		Bucket:  bucket,
		Prefix:  strings.TrimLeft(prefix, "/"),
		KeyFile: keyFile,
	}
	s.newWriter = s.objectWriter
	return s, nil
}

func newClient(ctx context.Context, keyFile string, opts ...option.ClientOption) (*storage.Client, error) {
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}
	return storage.NewClient(ctx, opts...)
}

func (s *sink) objectWriter(ctx context.Context, key string) io.WriteCloser {
	w := s.Client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	return w
}

func (s *sink) Name() string {
	return upload.SinkGCS
}

func (s *sink) Open(ctx context.Context) (upload.Batch, error) {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("gcs_bucket", s.Bucket)
	})
	return s, nil
}

// Store writes content as a single object. The object only becomes visible
// once the writer is closed without error.
func (s *sink) Store(ctx context.Context, filename string, content []byte) error {
	name, err := upload.CleanName(filename)
	if err != nil {
		return err
	}
	key := s.Prefix + name

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.newWriter(ctx, key)
	if _, err := w.Write(content); err != nil {
		// Cancelling before Close aborts the upload.
		cancel()
		w.Close()
		return errors.Wrapf(err, "could not write gs://%s/%s", s.Bucket, key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "could not finalize gs://%s/%s", s.Bucket, key)
	}
	return nil
}
