package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrWorkplaceNotFound = errors.New("workplace not found")
	ErrInvalidSSN        = errors.New("resident registration number must match ######-#######")
	ErrInvalidPhone      = errors.New("phone must match 01X-XXXX-XXXX")
	ErrInvalidProfile    = errors.New("invalid compensation profile")
	ErrIncompleteProfile = errors.New("compensation profile incomplete for payroll")
)
