package taxtable

import "errors"

var (
	ErrTaxTableNotFound = errors.New("tax table not found for year")
	ErrNoValidRows      = errors.New("tax table import produced no valid rows")
	ErrInvalidYear      = errors.New("tax table year out of range")
)
