package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mediaup/pkg/config"
	perrors "mediaup/pkg/errors"
	"mediaup/pkg/logger"
)

type uploadRequest struct {
	PostID     string          `json:"postId"`
	Credential string          `json:"credential"`
	Items      json.RawMessage `json:"items"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handlers struct {
	uploader     Uploader
	maxBodyBytes int64
	logger       *logger.Logger
}

// NewRouter mounts the upload endpoint, a health check and, when metrics is
// non-nil, the Prometheus scrape handler. Upload bodies larger than
// maxBodyBytes are rejected; zero or less leaves them unbounded.
func NewRouter(uploader Uploader, metrics http.Handler, maxBodyBytes int64) http.Handler {
	h := &handlers{
		uploader:     uploader,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.WithField("component", "http-api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", h.health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Post("/v1/uploads", h.upload)

	return r
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithField("requestId", middleware.GetReqID(r.Context()))

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	items := []byte(req.Items)
	// items may also arrive as a JSON string holding the sequence
	var text string
	if json.Unmarshal(req.Items, &text) == nil {
		items = []byte(text)
	}

	report, err := h.uploader.UploadBatch(r.Context(), req.PostID, req.Credential, items)
	if err != nil {
		if errors.Is(err, perrors.ErrInvalidBatch) {
			log.Warn("batch rejected", "error", err)
			writeError(w, http.StatusBadRequest, "invalid_batch", err.Error())
			return
		}
		log.Error("batch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "upload failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorResponse{Error: kind, Message: message})
}

// StartHTTPServer listens on the configured HTTP address and serves handler
// in the background. An empty address disables the listener.
func StartHTTPServer(cfg *config.Config, handler http.Handler) (*http.Server, error) {
	serverLogger := logger.WithField("component", "http-server")
	address := cfg.Server.HTTPAddress
	if address == "" {
		serverLogger.Info("http listener disabled")
		return nil, nil
	}

	lis, err := net.Listen("tcp", address)
	if err != nil {
		serverLogger.Error("failed to create listener", "address", address, "error", err)
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	srv := &http.Server{Handler: handler}
	go func() {
		serverLogger.Info("starting http server", "address", lis.Addr().String())
		if serveErr := srv.Serve(lis); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serverLogger.Error("http server stopped with error", "error", serveErr)
		}
	}()

	return srv, nil
}
