package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"datfeed/gateway/internal/gateway"
	"datfeed/gateway/internal/models"
)

const usage = `datfeed gateway

  GET /{server}/{board}/            board feed
  GET /{server}/{board}/{thread}/   thread feed
  GET /?url={board or thread URL}   same, addressed by browser URL

Query parameters: format=rss|atom|json, limit=N, time=N hours|days|weeks
`

// FeedService is the part of gateway.Service the handlers use.
type FeedService interface {
	ParseRequest(server, board, thread string, q url.Values) (gateway.Request, error)
	Feed(ctx context.Context, req gateway.Request) (models.FeedDocument, error)
	EvictStale(ctx context.Context, maxAge time.Duration) (int64, error)
	EvictAll(ctx context.Context) (int64, error)
}

// FeedHandler serves feeds and the cache maintenance endpoint.
type FeedHandler struct {
	svc      FeedService
	cleanAge time.Duration
}

func NewFeedHandler(svc FeedService, cleanAge time.Duration) *FeedHandler {
	return &FeedHandler{svc: svc, cleanAge: cleanAge}
}

// GetBoard handles /{server}/{board}/.
func (h *FeedHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, chi.URLParam(r, "server"), chi.URLParam(r, "board"), "")
}

// GetThread handles /{server}/{board}/{thread}/.
func (h *FeedHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, chi.URLParam(r, "server"), chi.URLParam(r, "board"), chi.URLParam(r, "thread"))
}

// GetIndex serves the feed for ?url=..., or a usage note without it.
func (h *FeedHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(usage))
		return
	}

	server, board, thread, err := gateway.ParseThreadURL(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.serveFeed(w, r, server, board, thread)
}

func (h *FeedHandler) serveFeed(w http.ResponseWriter, r *http.Request, server, board, thread string) {
	log := hlog.FromRequest(r)

	req, err := h.svc.ParseRequest(server, board, thread, r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	doc, err := h.svc.Feed(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Debug().
		Str("kind", string(req.Kind)).
		Str("format", string(req.Format)).
		Int("bytes", len(doc.Body)).
		Msg("Serving feed")

	// A windowed feed changes as the window moves while the origin's
	// Last-Modified stays put, so it gets no validator.
	modTime := doc.LastModified
	if !req.Window.IsZero() {
		modTime = time.Time{}
	}

	w.Header().Set("Content-Type", doc.ContentType)
	http.ServeContent(w, r, "", modTime, bytes.NewReader(doc.Body))
}

// Clean evicts stale origin records, or everything when "all" is set.
func (h *FeedHandler) Clean(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var (
		n   int64
		err error
	)
	if r.URL.Query().Get("all") != "" {
		n, err = h.svc.EvictAll(r.Context())
	} else {
		n, err = h.svc.EvictStale(r.Context(), h.cleanAge)
	}
	if err != nil {
		log.Error().Err(err).Msg("Cache clean failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	log.Info().Int64("deleted", n).Msg("Cache cleaned")
	w.WriteHeader(http.StatusOK)
}

func (h *FeedHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := gateway.StatusCode(err)
	event := hlog.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		event = hlog.FromRequest(r).Error()
	}
	event.Err(err).Int("status", status).Msg("Feed request failed")
	http.Error(w, err.Error(), status)
}
