package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/normalizer"
	"cendeu-features-go/internal/processor"
	"cendeu-features-go/internal/types"
	"cendeu-features-go/internal/window"
)

type aggregateRequest struct {
	Now   string          `json:"now,omitempty"`
	Debts []types.RawDebt `json:"debts"`
}

// NewMux wires the feature endpoints around p.
func NewMux(p *processor.Processor) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/cendeu", lookupHandler(p))
	mux.HandleFunc("/aggregate", aggregateHandler(p))
	return mux
}

func lookupHandler(p *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "cendeu")
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cuit := r.URL.Query().Get("cuit")
		verbose, _ := strconv.ParseBool(r.URL.Query().Get("verbose"))
		reqLog = reqLog.WithField("cuit", cuit).WithField("verbose", verbose)

		res, err := p.Lookup(r.Context(), cuit, verbose)
		if err != nil {
			reqLog.WithError(err).Warn("lookup failed")
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		if !verbose {
			writeJSON(w, reqLog, map[string]bool{"is_in_cendeu": res.Data.IsInCendeu})
			return
		}
		writeJSON(w, reqLog, res)
	}
}

func aggregateHandler(p *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "aggregate")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req aggregateRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			reqLog.WithError(err).Warn("invalid body")
			http.Error(w, "invalid body: debts list cannot be read", http.StatusBadRequest)
			return
		}
		now := p.Now()
		if req.Now != "" {
			parsed, err := normalizer.ParseDate(req.Now)
			if err != nil {
				http.Error(w, "invalid now: "+err.Error(), http.StatusBadRequest)
				return
			}
			now = parsed
		}
		report, err := processor.Aggregate(req.Debts, now, p.Windows())
		if err != nil {
			reqLog.WithError(err).Error("aggregate failed")
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		reqLog.WithField("debts", len(req.Debts)).
			WithField("dropped", len(report.Diagnostics)).
			Info("aggregate finished")
		writeJSON(w, reqLog, report)
	}
}

func statusFor(err error) int {
	var cfgErr *window.ConfigurationError
	switch {
	case errors.Is(err, processor.ErrMissingCUIT):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, log *logrus.Entry, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
