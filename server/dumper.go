package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/hlog"

	"github.com/ripta/updir/upload"
)

// DumpRequestHandler echoes the request back as text. Multipart bodies are
// decoded and listed, but nothing is stored.
var DumpRequestHandler = http.HandlerFunc(dumpRequest)

func dumpRequest(w http.ResponseWriter, r *http.Request) {
	d := spew.NewDefaultConfig()
	d.DisablePointerAddresses = true

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, fmt.Sprintf("URL: %q\n", r.URL.Path))
	io.WriteString(w, fmt.Sprintf("Host: %q\n", r.Host))
	io.WriteString(w, fmt.Sprintf("RequestURI: %q\n", r.RequestURI))
	io.WriteString(w, fmt.Sprintf("User-Agent: %q\n", r.UserAgent()))
	io.WriteString(w, "Query: "+d.Sdump(r.URL.Query()))
	io.WriteString(w, "Header: "+d.Sdump(r.Header))

	if r.Method == http.MethodPost {
		dumpParts(w, r)
	}
}

func dumpParts(w io.Writer, r *http.Request) {
	dec, err := upload.NewRequestDecoder(r, upload.Options{})
	if err != nil {
		io.WriteString(w, fmt.Sprintf("Parts: %v\n", err))
		return
	}

	for dec.Next() {
		f := dec.Field()
		io.WriteString(w, fmt.Sprintf("Part: %q (%d bytes, blake2b %s)\n", f.Filename, len(f.Content), upload.Digest(f.Content)))
	}
	io.WriteString(w, fmt.Sprintf("Skipped: %d\n", dec.Skipped()))
	if err := dec.Err(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("could not decode debug request")
		io.WriteString(w, fmt.Sprintf("Error: %v\n", err))
	}
}
