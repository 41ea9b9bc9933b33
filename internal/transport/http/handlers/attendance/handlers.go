package attendancehandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chancehr/internal/domain/attendance"
	"chancehr/internal/domain/audit"
	"chancehr/internal/platform/logger"
	"chancehr/internal/transport/http/api"
	"chancehr/internal/transport/http/middleware"
	"chancehr/internal/transport/http/shared"
)

type Handler struct {
	Recorder  *attendance.Recorder
	QR        *attendance.QRService
	Profiles  shared.ProfileGetter
	Audit     audit.Recorder
	Location  *time.Location
	CheckRate int
	Now       func() time.Time
}

func NewHandler(recorder *attendance.Recorder, qr *attendance.QRService, profiles shared.ProfileGetter, auditor audit.Recorder, loc *time.Location) *Handler {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Recorder:  recorder,
		QR:        qr,
		Profiles:  profiles,
		Audit:     auditor,
		Location:  loc,
		CheckRate: 30,
		Now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RateLimit(h.CheckRate, time.Minute)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RateLimit(h.CheckRate, time.Minute)).Post("/check-out", h.handleCheckOut)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/employees/{employeeID}/attendance", h.handleDays)
		r.Get("/employees/{employeeID}/attendance/records", h.handleRecords)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Put("/employees/{employeeID}/attendance/{workDate}", h.handleCorrect)
		r.Get("/workplaces/{workplaceID}/qr/{direction}", h.handleCurrentQR)
		r.Post("/workplaces/{workplaceID}/qr/{direction}", h.handleIssueQR)
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleCheck(w, r, h.Recorder.CheckIn)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.handleCheck(w, r, h.Recorder.CheckOut)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request, check func(ctx context.Context, req attendance.CheckRequest) (attendance.Record, error)) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())

	var req attendance.CheckRequest
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	if req.EmployeeID == "" {
		req.EmployeeID = actor.EmployeeID
	}
	v := shared.NewValidator()
	v.Required("employeeId", req.EmployeeID, "employee id is required")
	v.Enum("method", req.Method, []string{attendance.MethodGeofence, attendance.MethodQR}, "method must be geofence or qr")
	if v.Reject(w, requestID) {
		return
	}
	if _, err := shared.AuthorizeEmployee(r.Context(), h.Profiles, actor, req.EmployeeID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	record, err := check(r.Context(), req)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, record, requestID)
}

func (h *Handler) handleDays(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID, from, to, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}
	days, err := h.Recorder.Days(r.Context(), employeeID, from, to)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, days, requestID)
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID, from, to, ok := h.rangeRequest(w, r)
	if !ok {
		return
	}
	records, err := h.Recorder.Records(r.Context(), employeeID, from, to)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) rangeRequest(w http.ResponseWriter, r *http.Request) (string, time.Time, time.Time, bool) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	from, to, v := shared.DateRange(r.URL.Query(), h.Now(), h.Location)
	if v.Reject(w, requestID) {
		return "", time.Time{}, time.Time{}, false
	}
	if to.Sub(from) > 366*24*time.Hour {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "to", Reason: "range must not exceed one year"}})
		return "", time.Time{}, time.Time{}, false
	}
	if _, err := shared.AuthorizeEmployee(r.Context(), h.Profiles, actor, employeeID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return "", time.Time{}, time.Time{}, false
	}
	return employeeID, from, to, true
}

type correctionRequest struct {
	CheckInAt  *time.Time `json:"checkInAt"`
	CheckOutAt *time.Time `json:"checkOutAt"`
	LeaveType  string     `json:"leaveType"`
	IsHoliday  bool       `json:"isHoliday"`
}

func (h *Handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	v := shared.NewValidator()
	workDate, _ := v.Date("workDate", chi.URLParam(r, "workDate"))
	if v.Reject(w, requestID) {
		return
	}
	var req correctionRequest
	if !shared.DecodeJSON(w, r, &req, requestID) {
		return
	}
	if _, err := shared.AuthorizeEmployee(r.Context(), h.Profiles, actor, employeeID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	record, err := h.Recorder.Correct(r.Context(), attendance.Correction{
		EmployeeID: employeeID,
		WorkDate:   workDate,
		CheckInAt:  req.CheckInAt,
		CheckOutAt: req.CheckOutAt,
		LeaveType:  req.LeaveType,
		IsHoliday:  req.IsHoliday,
		ActorID:    actor.UserID,
	})
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Success(w, record, requestID)
}

type qrResponse struct {
	Payload   string    `json:"payload"`
	Direction string    `json:"direction"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newQRResponse(token attendance.QRToken) qrResponse {
	return qrResponse{Payload: token.Payload(), Direction: token.Direction, ExpiresAt: token.ExpiresAt}
}

func (h *Handler) handleIssueQR(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	workplaceID := chi.URLParam(r, "workplaceID")
	if err := shared.AuthorizeWorkplace(actor, workplaceID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	token, err := h.QR.Issue(r.Context(), workplaceID, chi.URLParam(r, "direction"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		WorkplaceID: workplaceID,
		ActorID:     actor.UserID,
		Action:      audit.ActionQRRegenerate,
		EntityType:  "qr_token",
		EntityID:    workplaceID + ":" + token.Direction,
		RequestID:   requestID,
		After:       map[string]any{"expiresAt": token.ExpiresAt},
	}); err != nil {
		logger.FromContext(r.Context()).Warn("qr regeneration not audited", zap.Error(err))
	}
	api.Created(w, newQRResponse(token), requestID)
}

func (h *Handler) handleCurrentQR(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetActor(r.Context())
	workplaceID := chi.URLParam(r, "workplaceID")
	if err := shared.AuthorizeWorkplace(actor, workplaceID); err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	token, ok, err := h.QR.Current(r.Context(), workplaceID, chi.URLParam(r, "direction"))
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	if !ok {
		api.Fail(w, http.StatusNotFound, "qr_not_issued", "no active qr token", requestID)
		return
	}
	api.Success(w, newQRResponse(token), requestID)
}
