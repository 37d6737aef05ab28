package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
)

// HTTPHandler exposes ScreeningService over JSON and Server-Sent Events.
type HTTPHandler struct {
	svc    *ScreeningService
	logger *slog.Logger
}

func NewHTTPHandler(svc *ScreeningService, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: common.LoggerOr(logger)}
}

// Router returns the chi router with every route mounted.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Put("/document", h.SelectDocument)
		r.Delete("/document", h.ClearDocument)
		r.Post("/process", h.Process)
		r.Post("/reset", h.Reset)
		r.Get("/state", h.State)
		r.Get("/events", h.Events)
	})
	return r
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chimiddleware.GetReqID(r.Context())
		r = r.WithContext(common.WithRequestID(r.Context(), reqID))
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("server.http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"req_id", reqID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// SelectDocument handles PUT /v1/document. The body is either the raw PDF,
// named by the name query parameter or X-Document-Name, or a multipart form
// with a file field.
func (h *HTTPHandler) SelectDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.maxUploadBytes+1<<20)

	name, data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, common.CodeDocumentTooLarge, "document exceeds upload limit")
			return
		}
		h.writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}

	snap, err := h.svc.SelectDocument(r.Context(), name, data)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("read form file: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("read form file: %w", err)
		}
		return header.Filename, data, nil
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = r.Header.Get("X-Document-Name")
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return name, data, nil
}

func (h *HTTPHandler) ClearDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.ClearDocument(r.Context())
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Process handles POST /v1/process. The run continues after the response.
func (h *HTTPHandler) Process(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Process(r.Context())
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (h *HTTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Reset(r.Context()))
}

func (h *HTTPHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State(r.Context()))
}

// Events streams every state change as an SSE "state" event.
func (h *HTTPHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, common.CodeUnknownFailure, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.svc.Watch(r.Context(), func(s pipeline.Snapshot) error {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", s.Version, b); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.logger.Warn("server.sse.closed", "req_id", common.RequestIDFromContext(r.Context()), "error", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *HTTPHandler) writeAppError(w http.ResponseWriter, err error) {
	code := common.CodeOf(err)
	status := http.StatusInternalServerError
	switch {
	case code == common.CodeRunInProgress:
		status = http.StatusConflict
	case code == common.CodeNoDocumentSelected:
		status = http.StatusPreconditionFailed
	case code == common.CodeDocumentTooLarge:
		status = http.StatusRequestEntityTooLarge
	case common.IsValidation(err) || errors.Is(err, common.ErrInvalidInput):
		status = http.StatusBadRequest
		if code == "" {
			code = "INVALID_UPLOAD"
		}
	}
	if code == "" {
		code = common.CodeUnknownFailure
	}
	h.writeError(w, status, code, common.UserMessage(err))
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("server.http.error", "status", status, "code", code, "message", msg)
	}
	writeJSON(w, status, errorBody{Code: code, Message: strings.TrimSpace(msg)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
