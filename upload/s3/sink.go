package s3

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ripta/updir/sigv4"
	"github.com/ripta/updir/upload"
)

type sink struct {
	*Client

	// Prefix is prepended verbatim to every object key.
	Prefix string
}

// NewSink uploads every batch into c.Bucket under prefix.
func NewSink(c *Client, prefix string) upload.Sink {
	return &sink{
		Client: c,
		Prefix: strings.TrimLeft(prefix, "/"),
	}
}

func (s *sink) Name() string {
	return upload.SinkS3
}

// Open derives the signing key once for the whole batch.
func (s *sink) Open(ctx context.Context) (upload.Batch, error) {
	signer := s.Signer()
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("s3_bucket", s.Bucket).Str("s3_region", s.Region)
	})
	zerolog.Ctx(ctx).Debug().Str("scope", signer.Context().Scope()).Msg("derived signing key")
	return &batch{sink: s, signer: signer}, nil
}

// Key maps a filename to its object key.
func (s *sink) Key(filename string) (string, error) {
	name, err := upload.CleanName(filename)
	if err != nil {
		return "", err
	}
	return s.Prefix + name, nil
}

type batch struct {
	sink   *sink
	signer *sigv4.Signer
}

func (b *batch) Store(ctx context.Context, filename string, content []byte) error {
	key, err := b.sink.Key(filename)
	if err != nil {
		return err
	}
	return b.sink.Put(ctx, b.signer, key, content)
}
