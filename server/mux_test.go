package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	})
}

func newTestRouter(debug bool, logs io.Writer) http.Handler {
	return NewRouter(zerolog.New(logs), Routes{
		Index:   okHandler("index"),
		Upload:  okHandler("upload"),
		Metrics: okHandler("metrics"),
		Debug:   debug,
	})
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestRouter_Routes(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRouter(false, &logs)

	cases := []struct {
		method, target string
		code           int
		body           string
	}{
		{http.MethodGet, "/", http.StatusOK, "index"},
		{http.MethodPost, "/upload", http.StatusOK, "upload"},
		{http.MethodGet, "/livez", http.StatusOK, "ok\n"},
		{http.MethodGet, "/metrics", http.StatusOK, "metrics"},
		{http.MethodGet, "/upload", http.StatusMethodNotAllowed, ""},
		{http.MethodPut, "/upload", http.StatusMethodNotAllowed, ""},
		{http.MethodDelete, "/upload", http.StatusMethodNotAllowed, ""},
		{http.MethodPost, "/", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
		{http.MethodGet, "/debug/request", http.StatusNotFound, ""},
	}
	for _, c := range cases {
		rec := serve(r, c.method, c.target, nil)
		assert.Equal(t, c.code, rec.Code, "%s %s", c.method, c.target)
		if c.body != "" {
			assert.Equal(t, c.body, rec.Body.String())
		}
	}
}

func TestRouter_AccessLogAndRequestID(t *testing.T) {
	var logs bytes.Buffer
	r := newTestRouter(false, &logs)

	rec := serve(r, http.MethodPost, "/upload", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	line := logs.String()
	assert.Contains(t, line, `"method":"POST"`)
	assert.Contains(t, line, `"status":200`)
	assert.Contains(t, line, `"req_id":"`+rec.Header().Get(RequestIDHeader)+`"`)
}

func TestRouter_DebugDump(t *testing.T) {
	r := newTestRouter(true, io.Discard)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	w, err := mw.CreateFormFile("files", "sub/a.txt")
	require.NoError(t, err)
	io.WriteString(w, "hello")
	_, err = mw.CreateFormFile("files", ".DS_Store")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/debug/request?x=1", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.True(t, strings.HasPrefix(out, `URL: "/debug/request"`))
	assert.Contains(t, out, `Part: "sub/a.txt" (5 bytes`)
	assert.Contains(t, out, "Skipped: 1")
}
