package taxtablehandler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/taxtable"
	"chancehr/internal/platform/logger"
	"chancehr/internal/transport/http/api"
	"chancehr/internal/transport/http/middleware"
	"chancehr/internal/transport/http/shared"
)

type Handler struct {
	Service *taxtable.Service
	Audit   audit.Recorder
}

func NewHandler(service *taxtable.Service, auditor audit.Recorder) *Handler {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tax-tables/{year}", func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/import", h.handleImport)
		r.Get("/rates", h.handleGetRates)
		r.Put("/rates", h.handleSetRates)
		r.Get("/lookup", h.handleLookup)
	})
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := shared.NewValidator()
	year, _ := v.Int("year", chi.URLParam(r, "year"), 2000, 2100)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return 0, false
	}
	return year, true
}

// handleImport accepts the table as a raw CSV or XLSX request body.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_request", "failed to read upload", requestID)
		return
	}
	if len(data) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "empty upload", requestID)
		return
	}

	var rows [][]string
	if taxtable.IsXLSX(data) {
		rows, err = taxtable.ReadXLSX(bytes.NewReader(data))
	} else {
		rows, err = taxtable.ReadCSV(bytes.NewReader(data))
	}
	if err != nil {
		if errors.Is(err, taxtable.ErrNoValidRows) {
			shared.WriteError(w, r, err, requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_tax_table", err.Error(), requestID)
		return
	}

	result, err := h.Service.Import(r.Context(), year, rows)
	if err != nil {
		if errors.Is(err, taxtable.ErrNoValidRows) {
			api.FailWithDetails(w, http.StatusBadRequest, "no_valid_rows", err.Error(), result, requestID)
			return
		}
		shared.WriteError(w, r, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		WorkplaceID: actor.WorkplaceID,
		ActorID:     actor.UserID,
		Action:      audit.ActionTaxTableImport,
		EntityType:  "tax_table",
		EntityID:    strconv.Itoa(year),
		RequestID:   requestID,
		After:       result,
	}); err != nil {
		logger.FromContext(r.Context()).Warn("tax table import not audited", zap.Int("year", year), zap.Error(err))
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleGetRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	rates, err := h.Service.Rates(r.Context(), year)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, rates, requestID)
}

func (h *Handler) handleSetRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	var rates taxtable.Rates
	if !shared.DecodeJSON(w, r, &rates, requestID) {
		return
	}
	rates.Year = year
	if rates.PensionRate.IsNegative() || rates.HealthRate.IsNegative() || rates.LongTermCareRate.IsNegative() ||
		rates.EmploymentRate.IsNegative() || rates.EmployerEmploymentRate.IsNegative() {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "rates", Reason: "rates must not be negative"}})
		return
	}
	if err := h.Service.SetRates(r.Context(), rates); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, rates, requestID)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	v := shared.NewValidator()
	gross, _ := strconv.ParseInt(r.URL.Query().Get("gross"), 10, 64)
	if gross < 0 {
		v.Add("gross", "must not be negative")
	}
	dependents := taxtable.MinDependents
	if raw := r.URL.Query().Get("dependents"); raw != "" {
		dependents, _ = v.Int("dependents", raw, taxtable.MinDependents, taxtable.MaxDependents)
	}
	if v.Reject(w, requestID) {
		return
	}
	tax, err := h.Service.Lookup(r.Context(), year, gross, dependents)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, map[string]any{"year": year, "gross": gross, "dependents": dependents, "incomeTax": tax}, requestID)
}
