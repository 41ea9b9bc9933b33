package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chancehr/internal/domain/attendance"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/payroll"
	"chancehr/internal/domain/severance"
	"chancehr/internal/domain/taxtable"
	"chancehr/internal/platform/jobs"
	"chancehr/internal/platform/logger"
	"chancehr/internal/transport/http/api"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{ErrForbidden, http.StatusForbidden, "forbidden"},

	{attendance.ErrLocationMissing, http.StatusBadRequest, "location_missing"},
	{attendance.ErrLocationStale, http.StatusBadRequest, "location_stale"},
	{attendance.ErrOutsideGeofence, http.StatusBadRequest, "outside_geofence"},
	{attendance.ErrInvalidQRToken, http.StatusBadRequest, "invalid_qr_token"},
	{attendance.ErrQRTokenExpired, http.StatusBadRequest, "qr_token_expired"},
	{attendance.ErrUnsupportedMethod, http.StatusBadRequest, "unsupported_method"},
	{attendance.ErrInvalidDirection, http.StatusBadRequest, "invalid_direction"},
	{attendance.ErrInvalidCorrection, http.StatusBadRequest, "invalid_correction"},
	{attendance.ErrAlreadyCheckedIn, http.StatusConflict, "already_checked_in"},
	{attendance.ErrNotCheckedIn, http.StatusConflict, "not_checked_in"},
	{attendance.ErrAlreadyCheckedOut, http.StatusConflict, "already_checked_out"},
	{attendance.ErrEmployeeInactive, http.StatusConflict, "employee_inactive"},
	{attendance.ErrDayLocked, http.StatusConflict, "day_locked"},

	{employee.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	{employee.ErrWorkplaceNotFound, http.StatusNotFound, "workplace_not_found"},
	{employee.ErrInvalidSSN, http.StatusBadRequest, "invalid_ssn"},
	{employee.ErrInvalidPhone, http.StatusBadRequest, "invalid_phone"},
	{employee.ErrInvalidProfile, http.StatusBadRequest, "invalid_profile"},
	{employee.ErrIncompleteProfile, http.StatusUnprocessableEntity, "incomplete_profile"},

	{payroll.ErrSlipExists, http.StatusConflict, "slip_exists"},
	{payroll.ErrSlipPublished, http.StatusConflict, "slip_published"},
	{payroll.ErrSlipNotPublished, http.StatusConflict, "slip_not_published"},
	{payroll.ErrPastRecordConverted, http.StatusConflict, "past_record_converted"},
	{payroll.ErrSlipNotFound, http.StatusNotFound, "slip_not_found"},
	{payroll.ErrPastRecordNotFound, http.StatusNotFound, "past_record_not_found"},
	{payroll.ErrInvalidMonth, http.StatusBadRequest, "invalid_month"},
	{payroll.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{payroll.ErrNegativeNet, http.StatusBadRequest, "negative_net_pay"},
	{payroll.ErrInvalidPastRecord, http.StatusBadRequest, "invalid_past_record"},
	{payroll.ErrNotEmployed, http.StatusUnprocessableEntity, "not_employed"},

	{severance.ErrInvalidAsOf, http.StatusBadRequest, "invalid_as_of"},

	{taxtable.ErrTaxTableNotFound, http.StatusUnprocessableEntity, "tax_table_not_found"},
	{taxtable.ErrNoValidRows, http.StatusBadRequest, "no_valid_rows"},
	{taxtable.ErrInvalidYear, http.StatusBadRequest, "invalid_year"},

	{jobs.ErrRunNotFound, http.StatusNotFound, "job_run_not_found"},
	{jobs.ErrQueueFull, http.StatusServiceUnavailable, "job_queue_full"},
}

// StatusFor maps a domain error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// WriteError renders err in the error envelope. Unmapped errors are logged and hidden from the caller.
func WriteError(w http.ResponseWriter, r *http.Request, err error, requestID string) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		api.Fail(w, status, code, "internal server error", requestID)
		return
	}
	api.Fail(w, status, code, err.Error(), requestID)
}

// DecodeJSON reads the request body into dst, failing the request on malformed input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_request", "invalid request payload", requestID)
		return false
	}
	return true
}
