package upload

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ignoredName marks macOS folder metadata that browsers include in directory uploads.
const ignoredName = ".DS_Store"

// Fields is a lazy, finite, non-restartable sequence of decoded fields.
type Fields interface {
	Next() bool
	Field() *Field
	Err() error
	Skipped() int
}

// Decoder reads multipart parts one at a time. Each retained part is read to
// completion before Next returns, and only the current part is held in memory.
type Decoder struct {
	mr   *multipart.Reader
	opts Options

	current *Field
	skipped int
	err     error
	done    bool
}

// NewDecoder decodes the multipart body r delimited by boundary.
func NewDecoder(r io.Reader, boundary string, opts Options) *Decoder {
	return &Decoder{
		mr:   multipart.NewReader(r, boundary),
		opts: opts,
	}
}

// NewRequestDecoder takes the boundary from the request's Content-Type and
// applies Options.MaxRequestBytes to the body.
func NewRequestDecoder(r *http.Request, opts Options) (*Decoder, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, &DecodeError{Err: errors.Wrap(ErrNotMultipart, err.Error())}
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, &DecodeError{Err: errors.Wrap(ErrNotMultipart, mediaType)}
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, &DecodeError{Err: errors.Wrap(ErrNotMultipart, "missing boundary")}
	}

	var body io.Reader = r.Body
	if opts.MaxRequestBytes > 0 {
		body = io.LimitReader(r.Body, opts.MaxRequestBytes)
	}
	return NewDecoder(body, boundary, opts), nil
}

// Next advances to the next retained field. It returns false once the stream
// is exhausted or a framing error occurred, and keeps returning false after.
func (d *Decoder) Next() bool {
	if d.done {
		return false
	}
	d.current = nil

	for {
		part, err := d.mr.NextPart()
		if err == io.EOF {
			d.finish(nil)
			return false
		}
		if err != nil {
			d.finish(&DecodeError{Err: err})
			return false
		}

		name := partFilename(part)
		if IsIgnored(name) {
			d.skipped++
			part.Close()
			continue
		}

		f, err := d.read(name, part)
		part.Close()
		if err != nil {
			d.finish(&DecodeError{Err: err})
			return false
		}
		d.current = f
		return true
	}
}

func (d *Decoder) read(name string, part io.Reader) (*Field, error) {
	var buf bytes.Buffer
	src := part
	limit := d.opts.MaxFileBytes
	if limit > 0 {
		src = io.LimitReader(part, limit+1)
	}
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, errors.Wrapf(err, "reading %q", name)
	}

	if limit > 0 && int64(buf.Len()) > limit {
		if _, err := io.Copy(io.Discard, part); err != nil {
			return nil, errors.Wrapf(err, "draining %q", name)
		}
		return &Field{
			Filename: name,
			Err:      &FieldError{Filename: name, Err: ErrFieldTooLarge},
		}, nil
	}

	return &Field{Filename: name, Content: buf.Bytes()}, nil
}

func (d *Decoder) finish(err error) {
	d.done = true
	d.current = nil
	d.err = err
}

// Field returns the field produced by the last successful Next.
func (d *Decoder) Field() *Field {
	return d.current
}

// Err returns the framing error that ended iteration, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Skipped counts the ignored parts seen so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// IsIgnored reports whether a filename refers to .DS_Store, either bare or
// inside a relative directory path.
func IsIgnored(name string) bool {
	return strings.Contains(name, ignoredName)
}

// partFilename reads the filename parameter verbatim. multipart.Part.FileName
// is not used because it strips the directory components browsers send for
// directory uploads.
func partFilename(p *multipart.Part) string {
	_, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil {
		return UnnamedFile
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return UnnamedFile
}
