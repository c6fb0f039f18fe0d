package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/autopilot-america/evidence.report/internal/db"
	"github.com/autopilot-america/evidence.report/internal/match"
	"github.com/autopilot-america/evidence.report/internal/monitoring"
	"github.com/autopilot-america/evidence.report/internal/receipt"
	"github.com/autopilot-america/evidence.report/internal/report"
	"github.com/autopilot-america/evidence.report/internal/units"
)

// addCapture ingests one approach capture, builds its receipt, and returns
// the scored receipt. The remote mirror happens in the background; a capture
// never fails because of the network.
func (s *Server) addCapture(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var p receipt.Params
	body := http.MaxBytesReader(w, r.Body, maxCaptureBytes)
	if err := json.NewDecoder(body).Decode(&p); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid capture payload: %v", err))
		return
	}
	p.Stop = s.tuning.StopSpeedConfig()

	rec := s.store.Add(r.Context(), p)
	monitoring.Debugf("capture ingested: receipt %s at %s", rec.ID, rec.CameraAddress)

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		monitoring.Logf("failed to write capture response for %s: %v", rec.ID, err)
	}
}

func (s *Server) listReceipts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	receipts := s.store.GetAll(r.Context())
	if receipts == nil {
		receipts = []receipt.Receipt{}
	}

	if err := json.NewEncoder(w).Encode(receipts); err != nil {
		monitoring.Logf("failed to write receipts response: %v", err)
	}
}

func (s *Server) clearReceipts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.store.Clear()
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

// matchTicket finds the stored receipt that best covers an externally
// detected violation.
func (s *Server) matchTicket(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var ticket match.Ticket
	if err := json.NewDecoder(r.Body).Decode(&ticket); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid ticket payload: %v", err))
		return
	}
	if ticket.TimestampMs <= 0 {
		s.writeJSONError(w, http.StatusBadRequest, "Ticket timestamp_ms is required")
		return
	}

	best := match.FindBest(r.Context(), s.store, ticket, s.tuning.MatchOptions())
	if best == nil {
		s.writeJSONError(w, http.StatusNotFound, "No receipt matches this ticket")
		return
	}

	if err := json.NewEncoder(w).Encode(best); err != nil {
		monitoring.Logf("failed to write match response: %v", err)
	}
}

type renderResult struct {
	buf bytes.Buffer
	err error
}

// downloadEvidence renders the receipt's evidence PDF. Rendering runs under
// the configured deadline; when it overruns, the response degrades to a
// plain-text summary rather than hanging the client. A malformed receipt is
// the one failure that surfaces as an error status.
func (s *Server) downloadEvidence(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rec := s.store.Get(r.Context(), id)
	if rec == nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Receipt %s not found", id))
		return
	}

	done := make(chan *renderResult, 1)
	go func() {
		var res renderResult
		res.err = report.RenderPDF(&res.buf, *rec)
		done <- &res
	}()

	timeout := time.NewTimer(s.tuning.GetRenderTimeout())
	defer timeout.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			w.Header().Set("Content-Type", "application/json")
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to render evidence document: %v", res.err))
			return
		}
		filename := report.Filename(*rec)
		s.recordDocument(r, rec.ID, filename)

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(res.buf.Bytes())

	case <-timeout.C:
		monitoring.Logf("evidence render for %s exceeded %s, serving text summary",
			rec.ID, s.tuning.GetRenderTimeout())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		writeTextSummary(w, rec)
	}
}

// recordDocument books the generated PDF in the documents table. Bookkeeping
// failures are logged, never surfaced: the download already succeeded.
func (s *Server) recordDocument(r *http.Request, receiptID, filename string) {
	if s.db == nil {
		return
	}
	doc := &db.EvidenceDocument{
		ReceiptID: receiptID,
		RunID:     uuid.NewString(),
		Filename:  filename,
	}
	if err := s.db.CreateEvidenceDocument(r.Context(), doc); err != nil {
		monitoring.Logf("failed to record evidence document for %s: %v", receiptID, err)
	}
}

// writeTextSummary is the degraded evidence rendition: the receipt's key
// findings without charts or tables.
func writeTextSummary(w http.ResponseWriter, rec *receipt.Receipt) {
	fmt.Fprintf(w, "EVIDENCE SUMMARY (degraded rendering)\n\n")
	fmt.Fprintf(w, "Receipt:       %s\n", rec.ID)
	fmt.Fprintf(w, "Intersection:  %s (%s)\n", rec.CameraAddress, rec.IntersectionID)
	fmt.Fprintf(w, "Captured:      %s\n",
		time.UnixMilli(rec.DeviceTimestampMs).UTC().Format("2006-01-02 15:04:05 MST"))

	if rec.FullStopDetected {
		if rec.FullStopDurationSec != nil {
			fmt.Fprintf(w, "Full stop:     YES (%.1f s)\n", *rec.FullStopDurationSec)
		} else {
			fmt.Fprintf(w, "Full stop:     YES\n")
		}
	} else {
		fmt.Fprintf(w, "Full stop:     NO\n")
	}
	if rec.ApproachSpeedMph != nil {
		fmt.Fprintf(w, "Approach:      %.1f mph\n", *rec.ApproachSpeedMph)
	}
	if rec.MinSpeedMph != nil {
		fmt.Fprintf(w, "Minimum:       %.1f mph\n", *rec.MinSpeedMph)
	}
	if rec.PeakDecelerationG != nil {
		fmt.Fprintf(w, "Peak decel:    %.3f G\n", *rec.PeakDecelerationG)
	}
	fmt.Fprintf(w, "Yellow light:  %.1f s minimum at %d mph\n",
		rec.ExpectedYellowDurationSec, rec.PostedSpeedLimitMph)
	fmt.Fprintf(w, "\nGPS samples: %d", len(rec.Trace))
	if len(rec.Trace) > 0 {
		last := rec.Trace[len(rec.Trace)-1]
		if last.SpeedMps >= 0 {
			fmt.Fprintf(w, " (final speed %.1f mph)", units.MphFromMps(last.SpeedMps))
		}
	}
	fmt.Fprintln(w)
}

// showChart serves the interactive HTML speed chart for one receipt.
func (s *Server) showChart(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rec := s.store.Get(r.Context(), id)
	if rec == nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Receipt %s not found", id))
		return
	}

	var buf bytes.Buffer
	if err := report.ChartHTML(&buf, *rec); err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
