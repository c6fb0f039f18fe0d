// Package api exposes the capture, receipt, match, and evidence endpoints
// over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/autopilot-america/evidence.report/internal/config"
	"github.com/autopilot-america/evidence.report/internal/db"
	"github.com/autopilot-america/evidence.report/internal/monitoring"
	"github.com/autopilot-america/evidence.report/internal/store"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxCaptureBytes bounds a capture upload. A dense one-minute trace at 10Hz
// is well under 1MB; 8MB leaves headroom for long approaches.
const maxCaptureBytes = 8 << 20

type Server struct {
	store  *store.Store
	db     *db.DB
	tuning *config.Tuning
}

// NewServer wires the HTTP layer. database may be nil, which disables
// evidence-document bookkeeping; a nil tuning uses defaults throughout.
func NewServer(st *store.Store, database *db.DB, tuning *config.Tuning) *Server {
	if tuning == nil {
		tuning = config.EmptyTuning()
	}
	return &Server{
		store:  st,
		db:     database,
		tuning: tuning,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/captures", s.addCapture)
	mux.HandleFunc("/api/receipts", s.listReceipts)
	mux.HandleFunc("/api/receipts/clear", s.clearReceipts)
	mux.HandleFunc("/api/receipts/", s.receiptSubresource)
	mux.HandleFunc("/api/match", s.matchTicket)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// receiptSubresource routes /api/receipts/{id}/evidence and
// /api/receipts/{id}/chart. Receipt IDs embed coordinates with dots, so the
// ID is everything between the prefix and the final path segment.
func (s *Server) receiptSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/receipts/")
	i := strings.LastIndex(rest, "/")
	if i <= 0 {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}
	id, action := rest[:i], rest[i+1:]

	switch action {
	case "evidence":
		s.downloadEvidence(w, r, id)
	case "chart":
		s.showChart(w, r, id)
	default:
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Unknown receipt action %q", action))
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Effective values, defaults filled in.
	cfg := map[string]interface{}{
		"stop_threshold_mps":      s.tuning.GetStopThresholdMps(),
		"min_stop_duration_ms":    s.tuning.GetMinStopDurationMs(),
		"accuracy_divisor":        s.tuning.GetAccuracyDivisor(),
		"accuracy_min_mph":        s.tuning.GetAccuracyMinMph(),
		"accuracy_max_mph":        s.tuning.GetAccuracyMaxMph(),
		"retention_cap":           s.tuning.GetRetentionCap(),
		"remote_timeout":          s.tuning.GetRemoteTimeout().String(),
		"match_max_time_diff_ms":  s.tuning.GetMatchMaxTimeDiffMs(),
		"match_location_radius_m": s.tuning.GetMatchLocationRadiusM(),
		"match_location_bonus":    s.tuning.GetMatchLocationBonus(),
		"render_timeout":          s.tuning.GetRenderTimeout().String(),
	}

	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		monitoring.Logf("failed to write config response: %v", err)
	}
}
