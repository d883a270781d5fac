package server

import (
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestIDHeader carries the generated request ID back to the client.
const RequestIDHeader = "Request-Id"

// Chain attaches a per-request logger derived from log, tags it with the
// remote address, user agent and a request ID, and logs one access line per
// request.
func Chain(log zerolog.Logger, extra ...alice.Constructor) alice.Chain {
	return alice.New(
		hlog.NewHandler(log),
		hlog.AccessHandler(accessLog),
		hlog.RemoteAddrHandler("ip"),
		hlog.UserAgentHandler("user_agent"),
		hlog.RequestIDHandler("req_id", RequestIDHeader),
	).Append(extra...)
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("")
}
