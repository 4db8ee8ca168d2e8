package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"convertey/converter"
)

// FormatsResponse lists the legal conversions and the media type of every
// target token
type FormatsResponse struct {
	Conversions map[string][]string `json:"conversions"`
	MimeTypes   map[string]string   `json:"mimeTypes"`
}

// Handler serves the conversion endpoints
type Handler struct {
	dispatcher      *converter.Dispatcher
	metrics         *Metrics
	logger          *slog.Logger
	maxRequestBytes int64
}

// NewHandler creates a new conversion handler
func NewHandler(dispatcher *converter.Dispatcher, metrics *Metrics, logger *slog.Logger, maxRequestBytes int64) *Handler {
	return &Handler{
		dispatcher:      dispatcher,
		metrics:         metrics,
		logger:          logger,
		maxRequestBytes: maxRequestBytes,
	}
}

// ConvertFile converts a base64 encoded file
// POST /api/convert/file
func (h *Handler) ConvertFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)

	var req converter.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		RespondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// Never log fileData
	h.logger.Info("conversion requested",
		"request_id", GetRequestID(r.Context()),
		"file_type", req.FileType,
		"format", req.Format,
		"file_name", req.FileName,
		"encoded_bytes", len(req.FileData),
	)

	fileType, format := h.labels(req.FileType, req.Format)

	resp, err := h.dispatcher.Convert(r.Context(), &req)
	if err != nil {
		h.metrics.observeConversion(fileType, format, outcomeError)
		h.respondConversionError(w, r, err)
		return
	}

	outcome := outcomeOK
	if resp.Degraded {
		outcome = outcomeDegraded
	}
	h.metrics.observeConversion(fileType, format, outcome)

	RespondJSON(w, http.StatusOK, resp)
}

// Formats returns the conversion table
// GET /api/convert/formats
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	reg := h.dispatcher.Registry()

	resp := FormatsResponse{
		Conversions: make(map[string][]string),
		MimeTypes:   make(map[string]string),
	}
	for _, source := range reg.SourceTypes() {
		resp.Conversions[source] = reg.AllowedTargets(source)
	}
	for _, token := range reg.Formats() {
		if mt, ok := reg.CanonicalMediaType(token); ok {
			resp.MimeTypes[token] = mt
		}
	}

	RespondJSON(w, http.StatusOK, resp)
}

// Health reports liveness
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondConversionError maps dispatcher errors to HTTP responses
func (h *Handler) respondConversionError(w http.ResponseWriter, r *http.Request, err error) {
	var convErr *converter.Error
	if !errors.As(err, &convErr) {
		h.logger.Error("unexpected conversion error",
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := convErr.StatusCode()
	if status >= http.StatusInternalServerError {
		h.logger.Error("conversion error",
			"request_id", GetRequestID(r.Context()),
			"kind", convErr.Kind.String(),
			"error", err,
		)
	} else {
		h.logger.Info("conversion rejected",
			"request_id", GetRequestID(r.Context()),
			"kind", convErr.Kind.String(),
			"message", convErr.Message,
		)
	}

	RespondErrorWithExtras(w, status, convErr.Message, map[string]interface{}{
		"kind": convErr.Kind.String(),
	})
}

// labels maps request tokens to metric labels, collapsing unknown values
// so clients cannot grow label cardinality
func (h *Handler) labels(fileType, format string) (string, string) {
	reg := h.dispatcher.Registry()
	if reg.AllowedTargets(fileType) == nil {
		fileType = "other"
	}
	if _, ok := reg.CanonicalMediaType(format); !ok {
		format = "other"
	}
	return fileType, format
}
