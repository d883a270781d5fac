package upload

import (
	"github.com/pkg/errors"
)

// UnnamedFile is substituted when a part carries no filename.
const UnnamedFile = "unnamed"

var (
	ErrMalformed     = errors.New("upload: malformed multipart body")
	ErrNotMultipart  = errors.New("upload: request is not multipart/form-data")
	ErrFieldTooLarge = errors.New("upload: file exceeds size limit")
	ErrUnsafeName    = errors.New("upload: unsafe file name")
)

// Field is one fully buffered multipart part.
type Field struct {
	Filename string
	Content  []byte

	// Err is set when the part was read but rejected on its own, e.g. for
	// exceeding Options.MaxFileBytes. It never aborts the batch.
	Err error
}

// FieldError is a per-field rejection.
type FieldError struct {
	Filename string
	Err      error
}

func (e *FieldError) Error() string {
	return e.Filename + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// DecodeError is a framing failure of the whole multipart stream.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return ErrMalformed.Error() + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}
