package payrollhandler

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chancehr/internal/domain/payroll"
	"chancehr/internal/platform/jobs"
	"chancehr/internal/requestctx"
	"chancehr/internal/transport/http/api"
	"chancehr/internal/transport/http/middleware"
	"chancehr/internal/transport/http/shared"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePDF  = "application/pdf"
)

// JobQueue runs month batches in the background. *jobs.Service satisfies it.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType, workplaceID string, run jobs.RunFunc) (string, error)
	Get(ctx context.Context, runID string) (jobs.Run, error)
}

type Handler struct {
	Service  *payroll.Service
	Profiles shared.ProfileGetter
	Jobs     JobQueue
}

func NewHandler(service *payroll.Service, profiles shared.ProfileGetter, queue JobQueue) *Handler {
	return &Handler{Service: service, Profiles: profiles, Jobs: queue}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/workplaces/{workplaceID}/payroll/{month}/generate", h.handleGenerate)
		r.Get("/workplaces/{workplaceID}/payroll/{month}/slips", h.handleListSlips)
		r.Get("/workplaces/{workplaceID}/payroll/{month}/ledger", h.handleLedger)
	})
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireOwner).Get("/preview", h.handlePreview)
		r.With(middleware.RequireOwner).Get("/jobs/{runID}", h.handleJobRun)
		r.With(middleware.RequireOwner).Post("/slips", h.handleCreateSlip)
		r.Get("/slips/{slipID}", h.handleGetSlip)
		r.Get("/slips/{slipID}/pdf", h.handleSlipPDF)
		r.With(middleware.RequireOwner).Put("/slips/{slipID}", h.handleUpdateSlip)
		r.With(middleware.RequireOwner).Post("/slips/{slipID}/publish", h.handlePublish)
		r.With(middleware.RequireOwner).Post("/slips/{slipID}/unpublish", h.handleUnpublish)
	})
	r.With(middleware.RequireAuth).Get("/employees/{employeeID}/slips", h.handleEmployeeSlips)
}

func (h *Handler) workplaceMonth(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	workplaceID := chi.URLParam(r, "workplaceID")
	if err := shared.AuthorizeWorkplace(actor, workplaceID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return "", "", false
	}
	month := chi.URLParam(r, "month")
	if _, err := payroll.ParseMonth(month); err != nil {
		shared.WriteError(w, r, err, requestID)
		return "", "", false
	}
	return workplaceID, month, true
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	workplaceID, month, ok := h.workplaceMonth(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())

	if r.URL.Query().Get("async") == "true" && h.Jobs != nil {
		runID, err := h.Jobs.Enqueue(r.Context(), jobs.JobPayrollBatch, workplaceID, func(ctx context.Context) (any, error) {
			return h.Service.GenerateForMonth(ctx, workplaceID, month, actor.UserID)
		})
		if err != nil {
			shared.WriteError(w, r, err, requestID)
			return
		}
		api.WriteJSON(w, http.StatusAccepted, api.Envelope{Success: true, Data: map[string]string{"jobRunId": runID}, RequestID: requestID})
		return
	}

	result, err := h.Service.GenerateForMonth(r.Context(), workplaceID, month, actor.UserID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleJobRun(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	if h.Jobs == nil {
		shared.WriteError(w, r, jobs.ErrRunNotFound, requestID)
		return
	}
	run, err := h.Jobs.Get(r.Context(), chi.URLParam(r, "runID"))
	if err == nil && run.WorkplaceID != actor.WorkplaceID {
		err = jobs.ErrRunNotFound
	}
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, run, requestID)
}

func (h *Handler) handleListSlips(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	workplaceID, month, ok := h.workplaceMonth(w, r)
	if !ok {
		return
	}
	slips, err := h.Service.ListSlips(r.Context(), workplaceID, month, r.URL.Query().Get("published") == "true")
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, slips, requestID)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	workplaceID, month, ok := h.workplaceMonth(w, r)
	if !ok {
		return
	}
	ledger, err := h.Service.BuildLedger(r.Context(), workplaceID, month)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	var buf bytes.Buffer
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		api.Success(w, ledger, requestID)
	case "xlsx":
		if err := ledger.WriteXLSX(&buf); err != nil {
			shared.WriteError(w, r, err, requestID)
			return
		}
		api.Attachment(w, contentTypeXLSX, "payroll-ledger-"+month+".xlsx", buf.Bytes())
	case "csv":
		if err := ledger.WriteCSV(&buf); err != nil {
			shared.WriteError(w, r, err, requestID)
			return
		}
		api.Attachment(w, contentTypeCSV, "payroll-ledger-"+month+".csv", buf.Bytes())
	default:
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "format", Reason: "must be json, xlsx or csv"}})
	}
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	query := r.URL.Query()
	v := shared.NewValidator()
	v.Required("employeeId", query.Get("employeeId"), "employee id is required")
	v.Required("month", query.Get("month"), "month is required")
	if v.Reject(w, requestID) {
		return
	}
	if _, err := shared.AuthorizeEmployee(r.Context(), h.Profiles, actor, query.Get("employeeId")); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	preview, err := h.Service.ComputeSlip(r.Context(), query.Get("employeeId"), query.Get("month"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, preview, requestID)
}

type createSlipRequest struct {
	EmployeeID string `json:"employeeId"`
	Month      string `json:"month"`
}

func (h *Handler) handleCreateSlip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	var req createSlipRequest
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", req.EmployeeID, "employee id is required")
	v.Required("month", req.Month, "month is required")
	if v.Reject(w, requestID) {
		return
	}
	if _, err := shared.AuthorizeEmployee(r.Context(), h.Profiles, actor, req.EmployeeID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	slip, err := h.Service.CreateSlip(r.Context(), req.EmployeeID, req.Month, actor.UserID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Created(w, slip, requestID)
}

// loadSlip resolves the slip and hides it from callers outside its workplace. Employees see only
// their own published slips.
func (h *Handler) loadSlip(ctx context.Context, actor requestctx.Actor, slipID string) (payroll.Slip, error) {
	slip, err := h.Service.GetSlip(ctx, slipID)
	if err != nil {
		return payroll.Slip{}, err
	}
	if slip.WorkplaceID != actor.WorkplaceID {
		return payroll.Slip{}, payroll.ErrSlipNotFound
	}
	if !actor.IsOwner() && (slip.EmployeeID != actor.EmployeeID || !slip.Published) {
		return payroll.Slip{}, payroll.ErrSlipNotFound
	}
	return slip, nil
}

func (h *Handler) handleGetSlip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	slip, err := h.loadSlip(r.Context(), actor, chi.URLParam(r, "slipID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, slip, requestID)
}

func (h *Handler) handleSlipPDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	slip, err := h.loadSlip(r.Context(), actor, chi.URLParam(r, "slipID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	body, _, err := h.Service.RenderSlipPDF(r.Context(), slip.ID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Attachment(w, contentTypePDF, "salary-slip-"+slip.PayrollMonth+"-"+slip.EmployeeID+".pdf", body)
}

func (h *Handler) handleUpdateSlip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	slip, err := h.loadSlip(r.Context(), actor, chi.URLParam(r, "slipID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	var update payroll.SlipUpdate
	if !shared.DecodeJSON(w, r, &update, requestID) {
		return
	}
	updated, err := h.Service.UpdateSlip(r.Context(), slip.ID, update, actor.UserID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.handlePublication(w, r, h.Service.Publish)
}

func (h *Handler) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.handlePublication(w, r, h.Service.Unpublish)
}

func (h *Handler) handlePublication(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, slipID, actorID string) (payroll.Slip, error)) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	slip, err := h.loadSlip(r.Context(), actor, chi.URLParam(r, "slipID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	updated, err := change(r.Context(), slip.ID, actor.UserID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleEmployeeSlips(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	profile, err := shared.AuthorizeEmployee(r.Context(), h.Profiles, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	var months []string
	if raw := r.URL.Query().Get("months"); raw != "" {
		v := shared.NewValidator()
		for _, month := range strings.Split(raw, ",") {
			month = strings.TrimSpace(month)
			if _, err := payroll.ParseMonth(month); err != nil {
				v.Add("months", "each month must be YYYY-MM")
				break
			}
			months = append(months, month)
		}
		if v.Reject(w, requestID) {
			return
		}
	}

	slips, err := h.Service.ListEmployeeSlips(r.Context(), profile.ID, months)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	if !actor.IsOwner() {
		visible := slips[:0]
		for _, slip := range slips {
			if slip.Published {
				visible = append(visible, slip)
			}
		}
		slips = visible
	}
	api.Success(w, slips, requestID)
}
