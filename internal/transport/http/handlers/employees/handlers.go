package employeehandler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/payroll"
	"chancehr/internal/domain/severance"
	"chancehr/internal/domain/worktime"
	"chancehr/internal/transport/http/api"
	"chancehr/internal/transport/http/middleware"
	"chancehr/internal/transport/http/shared"
)

type Handler struct {
	Employees *employee.Service
	Worktime  *worktime.Service
	Severance *severance.Service
	Payroll   *payroll.Service
	Location  *time.Location
	Now       func() time.Time
}

func NewHandler(employees *employee.Service, wt *worktime.Service, sev *severance.Service, pay *payroll.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{Employees: employees, Worktime: wt, Severance: sev, Payroll: pay, Location: loc, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/workplaces", h.handleCreateWorkplace)
		r.Get("/workplaces/{workplaceID}", h.handleGetWorkplace)
		r.Get("/workplaces/{workplaceID}/employees", h.handleListEmployees)
		r.Post("/workplaces/{workplaceID}/employees", h.handleCreateEmployee)
		r.Put("/employees/{employeeID}", h.handleUpdateEmployee)
		r.Post("/employees/{employeeID}/past-payroll", h.handleCreatePastRecord)
		r.Post("/past-payroll/{recordID}/convert", h.handleConvertPastRecord)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/employees/{employeeID}", h.handleGetEmployee)
		r.Get("/employees/{employeeID}/work-summary", h.handleWorkSummary)
		r.Get("/employees/{employeeID}/severance", h.handleSeverance)
		r.Get("/employees/{employeeID}/past-payroll", h.handleListPastRecords)
	})
}

func (h *Handler) handleCreateWorkplace(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var req employee.Workplace
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	req.ID = ""
	created, err := h.Employees.CreateWorkplace(r.Context(), req)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Created(w, created, requestID)
}

func (h *Handler) handleGetWorkplace(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	workplaceID := chi.URLParam(r, "workplaceID")
	if err := shared.AuthorizeWorkplace(actor, workplaceID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	workplace, err := h.Employees.Workplace(r.Context(), workplaceID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, workplace, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	workplaceID := chi.URLParam(r, "workplaceID")
	if err := shared.AuthorizeWorkplace(actor, workplaceID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	profiles, err := h.Employees.ListActive(r.Context(), workplaceID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	for i := range profiles {
		profiles[i].SSN = employee.MaskSSN(profiles[i].SSN)
	}
	api.Success(w, profiles, requestID)
}

// profileRequest shadows the profile's date fields so they can be sent as YYYY-MM-DD.
type profileRequest struct {
	employee.Profile
	HireDate        string  `json:"hireDate"`
	ResignationDate *string `json:"resignationDate"`
}

func (req profileRequest) toProfile(v *shared.Validator) employee.Profile {
	p := req.Profile
	if hire, ok := v.Date("hireDate", req.HireDate); ok {
		p.HireDate = hire
	}
	if req.ResignationDate != nil && strings.TrimSpace(*req.ResignationDate) != "" {
		if resigned, ok := v.Date("resignationDate", *req.ResignationDate); ok {
			p.ResignationDate = &resigned
		}
	}
	return p
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	workplaceID := chi.URLParam(r, "workplaceID")
	if err := shared.AuthorizeWorkplace(actor, workplaceID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	var req profileRequest
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	v := shared.NewValidator()
	profile := req.toProfile(v)
	if v.Reject(w, requestID) {
		return
	}
	profile.ID = ""
	profile.WorkplaceID = workplaceID
	profile.Active = true

	created, err := h.Employees.Create(r.Context(), profile)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	created.SSN = employee.MaskSSN(created.SSN)
	api.Created(w, created, requestID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	profile, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	profile.SSN = employee.MaskSSN(profile.SSN)
	api.Success(w, profile, requestID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	current, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	var req profileRequest
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	v := shared.NewValidator()
	profile := req.toProfile(v)
	if v.Reject(w, requestID) {
		return
	}
	profile.ID = current.ID
	profile.WorkplaceID = current.WorkplaceID

	updated, err := h.Employees.Update(r.Context(), profile)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	updated.SSN = employee.MaskSSN(updated.SSN)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleWorkSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	profile, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	var start, end time.Time
	if raw := r.URL.Query().Get("month"); raw != "" {
		month, err := payroll.ParseMonth(raw)
		if err != nil {
			shared.WriteError(w, r, err, requestID)
			return
		}
		period := payroll.PeriodFor(profile, month)
		start, end = period.Start, period.End
	} else {
		var v *shared.Validator
		start, end, v = shared.DateRange(r.URL.Query(), h.Now(), h.Location)
		if v.Reject(w, requestID) {
			return
		}
	}

	summary, err := h.Worktime.AggregateProfile(r.Context(), profile, start, end)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) handleSeverance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	profile, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	asOf := employee.DateOf(h.Now().In(h.Location))
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		v := shared.NewValidator()
		parsed, _ := v.Date("asOf", raw)
		if v.Reject(w, requestID) {
			return
		}
		asOf = parsed
	}
	result, err := h.Severance.Compute(r.Context(), profile.ID, asOf)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

type pastRecordRequest struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	SalaryType string `json:"salaryType"`
	Amount     int64  `json:"amount"`
	Notes      string `json:"notes"`
}

func (h *Handler) handleCreatePastRecord(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	profile, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	var req pastRecordRequest
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	v := shared.NewValidator()
	start, _ := v.Date("startDate", req.StartDate)
	end, _ := v.Date("endDate", req.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Payroll.CreatePastRecord(r.Context(), payroll.PastRecord{
		EmployeeID: profile.ID,
		StartDate:  start,
		EndDate:    end,
		SalaryType: req.SalaryType,
		Amount:     req.Amount,
		Notes:      req.Notes,
	}, actor.UserID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Created(w, created, requestID)
}

func (h *Handler) handleListPastRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	profile, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	records, err := h.Payroll.ListPastRecords(r.Context(), profile.ID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handleConvertPastRecord(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	record, err := h.Payroll.GetPastRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	if _, err := shared.AuthorizeEmployee(r.Context(), h.Employees, actor, record.EmployeeID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	slip, err := h.Payroll.ConvertPastRecord(r.Context(), record.ID, actor.UserID)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Created(w, slip, requestID)
}
