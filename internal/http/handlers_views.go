package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"zent/internal/chart"
	"zent/internal/core"
	"zent/internal/services"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	v, err := s.cachedViews(r.Context(), services.ViewOptions{})
	if err != nil {
		writeError(w, r, "balances", err)
		return
	}
	NewJSONResponse().Data(toBalancesDTO(v)).Write(w)
}

// handleStrategy computes the breakdown over an optional date range. The
// needs/wants/future parameters try out percentages without saving them.
func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rng, err := ParseDateRange(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	opts := services.ViewOptions{Range: rng}

	base, err := s.ledger.Strategy(r.Context())
	if err != nil {
		writeError(w, r, "strategy", err)
		return
	}
	cfg, changed, err := ParseStrategyOverrides(query, base)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if changed {
		opts.Config = &cfg
	}

	v, err := s.cachedViews(r.Context(), opts)
	if err != nil {
		writeError(w, r, "strategy", err)
		return
	}
	NewJSONResponse().Data(toStrategyDTO(v.Config, v.Strategy)).Write(w)
}

func (s *Server) handleSaveStrategy(w http.ResponseWriter, r *http.Request) {
	var body strategyConfigDTO
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		BadRequestError("Invalid strategy configuration").Write(w)
		return
	}

	cfg, err := s.ledger.SaveStrategy(r.Context(), body.config())
	if err != nil {
		writeError(w, r, "save_strategy", err)
		return
	}
	s.invalidate()
	NewJSONResponse().Data(toStrategyConfigDTO(cfg)).Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	display := core.BaseCurrency
	if c := strings.TrimSpace(query.Get("currency")); c != "" {
		cur, err := core.ParseCurrency(c)
		if err != nil {
			BadRequestError("Unsupported currency " + sanitizeInput(c)).Write(w)
			return
		}
		display = cur
	}

	v, err := s.cachedViews(r.Context(), services.ViewOptions{
		ChartView: chart.ParseView(query.Get("view")),
		Display:   display,
	})
	if err != nil {
		writeError(w, r, "chart", err)
		return
	}
	NewJSONResponse().Data(toChartDTO(v.Chart)).Write(w)
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	v, err := s.cachedViews(r.Context(), services.ViewOptions{
		Account: sanitizeInput(r.URL.Query().Get("account")),
	})
	if err != nil {
		writeError(w, r, "movements", err)
		return
	}
	out := make([]movementDTO, 0, len(v.Movements))
	for _, m := range v.Movements {
		out = append(out, toMovementDTO(m))
	}
	NewJSONResponse().Data(out).Write(w)
}
