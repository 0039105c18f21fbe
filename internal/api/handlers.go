package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/numisight/numisight/internal/catalog"
	"github.com/numisight/numisight/internal/history"
	"github.com/numisight/numisight/internal/identify"
	"github.com/numisight/numisight/internal/metrics"
	"github.com/numisight/numisight/internal/websearch"
)

// UploadField is the multipart field carrying the coin image.
const UploadField = "coin_image"

// Options tunes the handlers.
type Options struct {
	// QuerySuffix is appended to every web search query.
	QuerySuffix string
	// MaxUploadBytes caps the identify request body.
	MaxUploadBytes int64
	// SearchOnIdentify also searches the catalog for the predicted class.
	SearchOnIdentify bool
}

// Handler serves the search and identify endpoints. Classifier and
// Recorder may be nil.
type Handler struct {
	catalog    CatalogSearcher
	web        WebSearcher
	classifier Classifier
	recorder   Recorder
	opts       Options
	logger     *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(cat CatalogSearcher, web WebSearcher, classifier Classifier, recorder Recorder, opts Options, logger *zap.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:    cat,
		web:        web,
		classifier: classifier,
		recorder:   recorder,
		opts:       opts,
		logger:     logger.Named("api"),
	}
}

func (h *Handler) webQuery(q string) string {
	if h.opts.QuerySuffix == "" {
		return q
	}
	return q + " " + h.opts.QuerySuffix
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		h.fail(w, http.StatusBadRequest, MsgQueryRequired)
		return
	}

	ctx := r.Context()
	entry := history.Entry{Kind: history.KindSearch, Query: query}
	log := h.logger.With(zap.String("query", query))

	dbResults, err := h.catalog.Search(ctx, strings.Fields(query))
	if err != nil {
		log.Error("catalog search failed", zap.Error(err))
		h.finishSearch(ctx, entry, start, err)
		h.fail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	webResults, err := h.web.Search(ctx, h.webQuery(query))
	if err != nil {
		log.Error("web search failed", zap.Error(err))
		h.finishSearch(ctx, entry, start, err)
		h.fail(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	entry.DatabaseCount, entry.WebCount = len(dbResults), len(webResults)
	h.finishSearch(ctx, entry, start, nil)
	log.Info("search served", zap.Int("database_results", len(dbResults)), zap.Int("web_results", len(webResults)))

	writeJSON(w, http.StatusOK, SearchResponse{
		DatabaseResults: nonNil(dbResults),
		WebResults:      nonNil(webResults),
	})
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	entry := history.Entry{Kind: history.KindIdentify}

	if h.classifier == nil {
		h.logger.Error("identify requested but no classifier is configured")
		h.finishIdentify(ctx, entry, start, MsgModelUnavailable)
		h.fail(w, http.StatusServiceUnavailable, MsgModelUnavailable)
		return
	}

	data, status, msg := h.readUpload(w, r)
	if msg != "" {
		h.finishIdentify(ctx, entry, start, msg)
		h.fail(w, status, msg)
		return
	}

	pred, err := h.classifier.Predict(ctx, data)
	switch {
	case errors.Is(err, identify.ErrUnavailable):
		h.finishIdentify(ctx, entry, start, MsgModelUnavailable)
		h.fail(w, http.StatusServiceUnavailable, MsgModelUnavailable)
		return
	case err != nil:
		h.logger.Warn("classification failed", zap.Error(err))
		h.finishIdentify(ctx, entry, start, err.Error())
		h.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	entry.PredictedClass = pred.PredictedClass
	entry.Probability = &pred.Probability
	log := h.logger.With(zap.String("predicted_class", pred.PredictedClass), zap.Float64("probability", pred.Probability))

	resp := IdentifyResponse{
		AIPrediction:    pred,
		DatabaseResults: []catalog.Match{},
		WebResults:      []websearch.Result{},
	}

	if h.opts.SearchOnIdentify {
		matches, err := h.catalog.Search(ctx, strings.Fields(pred.PredictedClass))
		if err != nil {
			log.Warn("catalog search for prediction failed", zap.Error(err))
		} else {
			resp.DatabaseResults = nonNil(matches)
		}
	}

	webResults, err := h.web.Search(ctx, h.webQuery(pred.PredictedClass))
	if err != nil {
		log.Error("web search failed", zap.Error(err))
		resp.DatabaseResults = []catalog.Match{}
		resp.Error = MsgWebSearchFailed
		h.finishIdentify(ctx, entry, start, MsgWebSearchFailed)
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.WebResults = nonNil(webResults)

	entry.DatabaseCount, entry.WebCount = len(resp.DatabaseResults), len(resp.WebResults)
	h.finishIdentify(ctx, entry, start, "")
	log.Info("identification served", zap.Int("web_results", len(resp.WebResults)))

	writeJSON(w, http.StatusOK, resp)
}

// readUpload returns the uploaded image, or a status and message when the
// request carries none.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, int, string) {
	if r.ContentLength > h.opts.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, MsgImageTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	file, _, err := r.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, MsgImageTooLarge
		}
		return nil, http.StatusBadRequest, MsgNoImage
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, MsgNoImage
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, MsgEmptyImage
	}
	return data, 0, ""
}

func (h *Handler) finishSearch(ctx context.Context, entry history.Entry, start time.Time, err error) {
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
		entry.Status = history.StatusError
		entry.Error = err.Error()
	}
	metrics.SearchesTotal.WithLabelValues(status).Inc()
	h.record(ctx, entry, start)
}

func (h *Handler) finishIdentify(ctx context.Context, entry history.Entry, start time.Time, errMsg string) {
	status := metrics.StatusOK
	if errMsg != "" {
		status = metrics.StatusError
		entry.Status = history.StatusError
		entry.Error = errMsg
	}
	metrics.IdentificationsTotal.WithLabelValues(status).Inc()
	h.record(ctx, entry, start)
}

func (h *Handler) record(ctx context.Context, entry history.Entry, start time.Time) {
	if h.recorder == nil {
		return
	}
	entry.Duration = time.Since(start)
	if entry.Status == "" {
		entry.Status = history.StatusOK
	}
	// The history row is written even when the client has gone away.
	if _, err := h.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		h.logger.Warn("recording history failed", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
