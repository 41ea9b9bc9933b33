package taxtable

import (
	"bytes"
	_ "embed"

	"github.com/shopspring/decimal"
)

//go:embed data/simplified_2026.csv
var simplified2026 []byte

// BuiltinYear is the year of the embedded withholding table excerpt.
const BuiltinYear = 2026

func builtinEntries() ([]Entry, error) {
	rows, err := ReadCSV(bytes.NewReader(simplified2026))
	if err != nil {
		return nil, err
	}
	entries, _ := ParseRows(BuiltinYear, rows)
	return entries, nil
}

// BuiltinRates returns the statutory rates shipped with the service.
func BuiltinRates() []Rates {
	return []Rates{
		{
			Year:                   2025,
			PensionRate:            decimal.RequireFromString("0.045"),
			PensionFloor:           390000,
			PensionCeiling:         6170000,
			HealthRate:             decimal.RequireFromString("0.03545"),
			LongTermCareRate:       decimal.RequireFromString("0.1295"),
			EmploymentRate:         decimal.RequireFromString("0.009"),
			EmployerEmploymentRate: decimal.RequireFromString("0.0115"),
		},
		{
			Year:                   2026,
			PensionRate:            decimal.RequireFromString("0.0475"),
			PensionFloor:           400000,
			PensionCeiling:         6370000,
			HealthRate:             decimal.RequireFromString("0.03595"),
			LongTermCareRate:       decimal.RequireFromString("0.1314"),
			EmploymentRate:         decimal.RequireFromString("0.009"),
			EmployerEmploymentRate: decimal.RequireFromString("0.0115"),
		},
	}
}
