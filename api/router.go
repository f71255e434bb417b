package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/raushankrgupta/fitly-api/utils"
)

// NewRouter wires the middleware stack and the API routes.
//
// Middleware order:
//  1. request logger and request id
//  2. access log and metrics
//  3. panic recovery
//  4. CORS preflight, before any routing
//  5. bearer token verification
func NewRouter(h *Handler, verifier Verifier, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-ID"))
	r.Use(accessLog(h.metrics))
	r.Use(recoverer)
	r.Use(preflight)
	r.Use(Authenticate(verifier))

	r.Get("/upload-url", handle(h.UploadURL))
	r.Post("/profile", handle(h.SaveProfile))
	r.Post("/cart", handle(h.AddCartItem))
	r.Get("/cart", handle(h.ListCart))
	r.Post("/fit", handle(h.CreateFit))
	r.Get("/fit/{fitId}", handle(h.GetFit))
	r.Get("/fits", handle(h.ListFits))
	r.Post("/token", handle(h.ExchangeToken))

	notFound := func(w http.ResponseWriter, r *http.Request) { fail(w, r, errNotFound, nil) }
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

// preflight answers every OPTIONS request with 204 and the CORS headers.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			utils.RespondJSON(w, r, http.StatusNoContent, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a panic into a logged INTERNAL_ERROR.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			hlog.FromRequest(r).Error().
				Err(fmt.Errorf("panic: %v", rec)).
				Bytes("stack", debug.Stack()).
				Msg("unhandled panic")
			fail(w, r, errInternal, nil)
		}()
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one line per request, at a level chosen by status, and
// records request metrics by route pattern.
func accessLog(m *Metrics) func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if r.Method == http.MethodOptions {
			route = "preflight"
		}
		m.observeRequest(r.Method, route, status, d)

		logger := hlog.FromRequest(r)
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	})
}
