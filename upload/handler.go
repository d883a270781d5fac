package upload

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response is the body of a successful POST /upload.
type Response struct {
	Message   string `json:"message"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

type handler struct {
	Orchestrator *Orchestrator

	Options
}

// NewHandler serves POST /upload by running one batch per request through o.
func NewHandler(o *Orchestrator, opts Options) http.Handler {
	return &handler{
		Orchestrator: o,
		Options:      opts,
	}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("sink", h.Orchestrator.Sink.Name())
	})

	dec, err := NewRequestDecoder(r, h.Options)
	if err != nil {
		log.Error().Err(err).Msg("could not decode upload")
		writeJSON(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	sum, err := h.Orchestrator.Run(r.Context(), dec)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, Response{
		Message:   sum.Message(),
		Attempted: sum.Attempted,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed,
		Skipped:   sum.Skipped,
	})
}

// IndexHandler serves the upload page.
func IndexHandler(form UploadForm) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RenderUploadForm(w, form); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("upload form render error")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("could not encode response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("could not write response")
	}
}
