package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	disposition string
	content     string
}

func filePart(name, content string) part {
	return part{`form-data; name="files"; filename="` + name + `"`, content}
}

func encodeParts(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", p.disposition)
		h.Set("Content-Type", "application/octet-stream")
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.Boundary()
}

func collect(d *Decoder) []*Field {
	var out []*Field
	for d.Next() {
		out = append(out, d.Field())
	}
	return out
}

func TestDecoder_YieldsFieldsInOrder(t *testing.T) {
	body, boundary := encodeParts(t,
		filePart("a.txt", "hello"),
		filePart("sub/dir/photo.png", "\x89PNG"),
		part{`form-data; name="note"`, "no filename"},
		filePart("empty.bin", ""),
	)

	d := NewDecoder(body, boundary, Options{})
	fields := collect(d)
	require.NoError(t, d.Err())
	require.Len(t, fields, 4)

	assert.Equal(t, "a.txt", fields[0].Filename)
	assert.Equal(t, "hello", string(fields[0].Content))
	assert.Equal(t, "sub/dir/photo.png", fields[1].Filename)
	assert.Equal(t, UnnamedFile, fields[2].Filename)
	assert.Equal(t, "no filename", string(fields[2].Content))
	assert.Equal(t, "empty.bin", fields[3].Filename)
	assert.Empty(t, fields[3].Content)

	assert.False(t, d.Next())
	assert.Nil(t, d.Field())
}

func TestDecoder_SkipsDSStore(t *testing.T) {
	body, boundary := encodeParts(t,
		filePart(".DS_Store", "junk"),
		filePart("a.txt", "hello"),
		filePart("photos/.DS_Store", "junk"),
	)

	d := NewDecoder(body, boundary, Options{})
	fields := collect(d)
	require.NoError(t, d.Err())
	require.Len(t, fields, 1)
	assert.Equal(t, "a.txt", fields[0].Filename)
	assert.Equal(t, 2, d.Skipped())
}

func TestDecoder_FieldTooLarge(t *testing.T) {
	body, boundary := encodeParts(t,
		filePart("big.bin", strings.Repeat("x", 11)),
		filePart("ok.bin", strings.Repeat("y", 10)),
	)

	d := NewDecoder(body, boundary, Options{MaxFileBytes: 10})
	fields := collect(d)
	require.NoError(t, d.Err())
	require.Len(t, fields, 2)

	assert.True(t, errors.Is(fields[0].Err, ErrFieldTooLarge))
	var fe *FieldError
	require.True(t, errors.As(fields[0].Err, &fe))
	assert.Equal(t, "big.bin", fe.Filename)
	assert.Nil(t, fields[0].Content)

	assert.NoError(t, fields[1].Err)
	assert.Len(t, fields[1].Content, 10)
}

func TestDecoder_TruncatedBody(t *testing.T) {
	body, boundary := encodeParts(t, filePart("a.txt", "hello"), filePart("b.txt", "world"))
	truncated := body.Bytes()[:body.Len()-len(boundary)-10]

	d := NewDecoder(bytes.NewReader(truncated), boundary, Options{})
	fields := collect(d)
	require.Error(t, d.Err())
	assert.True(t, errors.Is(d.Err(), ErrMalformed))
	assert.Len(t, fields, 1)
	assert.False(t, d.Next(), "iteration stays finished after a framing error")
}

func TestNewRequestDecoder(t *testing.T) {
	body, boundary := encodeParts(t, filePart("a.txt", "hello"))

	req, err := http.NewRequest(http.MethodPost, "/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

	d, err := NewRequestDecoder(req, Options{})
	require.NoError(t, err)
	assert.Len(t, collect(d), 1)
}

func TestNewRequestDecoder_RejectsNonMultipart(t *testing.T) {
	for _, ct := range []string{"", "application/json", "multipart/form-data"} {
		req, err := http.NewRequest(http.MethodPost, "/upload", strings.NewReader("{}"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", ct)

		_, err = NewRequestDecoder(req, Options{})
		assert.True(t, errors.Is(err, ErrNotMultipart), ct)
		assert.True(t, errors.Is(err, ErrMalformed), ct)
	}
}

func TestNewRequestDecoder_RequestLimit(t *testing.T) {
	body, boundary := encodeParts(t, filePart("a.txt", strings.Repeat("x", 1024)))

	req, err := http.NewRequest(http.MethodPost, "/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

	d, err := NewRequestDecoder(req, Options{MaxRequestBytes: 512})
	require.NoError(t, err)
	collect(d)
	assert.True(t, errors.Is(d.Err(), ErrMalformed))
}
