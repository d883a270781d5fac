package server

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
)

// Routes are the handlers mounted by NewRouter. Metrics may be nil.
type Routes struct {
	Index   http.Handler
	Upload  http.Handler
	Metrics http.Handler

	// Debug mounts /debug/request.
	Debug bool
}

// NewRouter mounts the upload endpoints behind the logging chain. extra
// middleware runs inside the chain, after the request logger is attached.
func NewRouter(log zerolog.Logger, rt Routes, extra ...alice.Constructor) *mux.Router {
	chain := Chain(log, extra...)

	r := mux.NewRouter()
	r.NotFoundHandler = chain.Then(http.NotFoundHandler())
	r.MethodNotAllowedHandler = chain.Then(http.HandlerFunc(methodNotAllowed))

	// Path must precede Methods so a later GET route cannot mask the 405 on /upload.
	r.Path("/").Methods(http.MethodGet).Handler(chain.Then(rt.Index))
	r.Path("/upload").Methods(http.MethodPost).Handler(chain.Then(rt.Upload))
	r.Path("/livez").Methods(http.MethodGet).HandlerFunc(livez)
	if rt.Metrics != nil {
		r.Path("/metrics").Methods(http.MethodGet).Handler(rt.Metrics)
	}
	if rt.Debug {
		r.PathPrefix("/debug/request").Handler(chain.Then(DumpRequestHandler))
	}
	return r
}

func livez(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
