package payroll

import "errors"

var (
	ErrSlipExists          = errors.New("salary slip already exists for employee and month")
	ErrSlipNotFound        = errors.New("salary slip not found")
	ErrSlipPublished       = errors.New("salary slip is published")
	ErrSlipNotPublished    = errors.New("salary slip is not published")
	ErrInvalidMonth        = errors.New("payroll month must be YYYY-MM")
	ErrNegativeNet         = errors.New("deductions exceed gross pay")
	ErrInvalidAmount       = errors.New("amounts must not be negative")
	ErrPastRecordNotFound  = errors.New("past payroll record not found")
	ErrPastRecordConverted = errors.New("past payroll record already converted")
	ErrInvalidPastRecord   = errors.New("invalid past payroll record")
	ErrNotEmployed         = errors.New("employee not employed during payroll period")
)
