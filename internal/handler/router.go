package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mveiga/tradepost/internal/service"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(
	tradeSvc *service.TradeService,
	accountSvc *service.AccountService,
	notifySvc *service.NotifyService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	tradeH := NewTradeHandler(tradeSvc)
	accountH := NewAccountHandler(accountSvc)
	callbackH := NewCallbackHandler(notifySvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Account routes.
	r.Post("/accounts", accountH.Register)
	r.Get("/accounts/{participant_id}", accountH.Get)

	// Trade session routes.
	r.Post("/trades", tradeH.CreateTrade)
	r.Get("/trades/{session_id}", tradeH.Status)
	r.Get("/participants/{participant_id}/trade", tradeH.Current)
	r.Put("/participants/{participant_id}/offer", tradeH.SetOffer)
	r.Put("/participants/{participant_id}/ready", tradeH.SetReady)
	r.Post("/participants/{participant_id}/confirm", tradeH.Confirm)
	r.Post("/participants/{participant_id}/cancel", tradeH.Cancel)
	r.Post("/participants/{participant_id}/decline", tradeH.Decline)

	// Notification callback routes.
	r.Post("/callbacks", callbackH.Subscribe)
	r.Delete("/callbacks/{participant_id}", callbackH.Unsubscribe)

	return r
}

// requestLogging returns middleware that logs each request's method,
// path, status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST,
// PUT, and PATCH requests carrying a body. If the Content-Type header
// doesn't start with "application/json", it returns 400 Bad Request
// before the handler runs. Bodyless POSTs (confirm, cancel, decline)
// pass through.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
