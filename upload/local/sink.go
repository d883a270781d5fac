// Package local stores uploaded files under a base directory, mirroring the
// relative paths embedded in their filenames.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ripta/updir/upload"
)

// DefaultBase is the uploads directory, relative to the working directory.
const DefaultBase = "uploads"

const (
	dirMode  = 0o755
	fileMode = 0o644
)

type sink struct {
	Base string
}

// NewSink returns a sink rooted at base. Nothing is created until a batch opens.
func NewSink(base string) (upload.Sink, error) {
	if base == "" {
		base = DefaultBase
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve uploads directory %q", base)
	}
	return &sink{Base: abs}, nil
}

func (s *sink) Name() string {
	return upload.SinkLocal
}

// Open creates the base directory if it is missing. A base that exists but
// is not a directory is a setup failure.
func (s *sink) Open(ctx context.Context) (upload.Batch, error) {
	if fi, err := os.Stat(s.Base); err == nil {
		if !fi.IsDir() {
			return nil, errors.Errorf("uploads directory %s is not a directory", s.Base)
		}
		return &batch{base: s.Base}, nil
	}
	if err := os.MkdirAll(s.Base, dirMode); err != nil {
		return nil, errors.Wrapf(err, "could not create uploads directory %s", s.Base)
	}
	zerolog.Ctx(ctx).Info().Str("dir", s.Base).Msg("created uploads directory")
	return &batch{base: s.Base}, nil
}

type batch struct {
	base string
}

// Store writes content to base/filename, truncating any previous file.
func (b *batch) Store(ctx context.Context, filename string, content []byte) error {
	path, err := Resolve(b.base, filename)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return errors.Wrapf(err, "could not create file %s", path)
	}
	n, err := f.Write(content)
	if err == nil && n < len(content) {
		err = io.ErrShortWrite
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "could not write file %s", path)
	}
	return nil
}

// Resolve joins base and filename and creates every missing parent directory.
// Filenames that are absolute or climb out of base are rejected.
func Resolve(base, filename string) (string, error) {
	name, err := upload.CleanName(filename)
	if err != nil {
		return "", err
	}

	path := filepath.Join(base, filepath.FromSlash(name))
	if dir := filepath.Dir(path); dir != base {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return "", errors.Wrapf(err, "could not create directory %s", dir)
		}
	}
	return path, nil
}
