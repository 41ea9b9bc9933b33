package payroll

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

type LedgerRow struct {
	EmployeeID          string `json:"employeeId,omitempty"`
	EmployeeName        string `json:"employeeName"`
	TaxType             string `json:"taxType,omitempty"`
	BasePay             int64  `json:"basePay"`
	WeeklyHolidayPay    int64  `json:"weeklyHolidayPay"`
	OvertimePay         int64  `json:"overtimePay"`
	GrossPay            int64  `json:"grossPay"`
	NationalPension     int64  `json:"nationalPension"`
	HealthInsurance     int64  `json:"healthInsurance"`
	LongTermCare        int64  `json:"longTermCare"`
	EmploymentInsurance int64  `json:"employmentInsurance"`
	IncomeTax           int64  `json:"incomeTax"`
	LocalIncomeTax      int64  `json:"localIncomeTax"`
	Withholding         int64  `json:"withholding"`
	TotalDeductions     int64  `json:"totalDeductions"`
	NetPay              int64  `json:"netPay"`

	EmployerNationalPension     int64 `json:"employerNationalPension"`
	EmployerHealthInsurance     int64 `json:"employerHealthInsurance"`
	EmployerLongTermCare        int64 `json:"employerLongTermCare"`
	EmployerEmploymentInsurance int64 `json:"employerEmploymentInsurance"`
	EmployerBurden              int64 `json:"employerBurden"`
}

type Ledger struct {
	WorkplaceID  string      `json:"workplaceId"`
	PayrollMonth string      `json:"payrollMonth"`
	Rows         []LedgerRow `json:"rows"`
	Totals       LedgerRow   `json:"totals"`
}

var ledgerHeader = []string{
	"employee", "tax type", "base pay", "weekly holiday pay", "overtime pay", "gross pay",
	"national pension", "health insurance", "long-term care", "employment insurance",
	"income tax", "local income tax", "withholding", "total deductions", "net pay",
	"employer national pension", "employer health insurance", "employer long-term care",
	"employer employment insurance", "employer burden",
}

// BuildLedger summarizes the month's published slips. A month without slips yields an empty ledger.
func (s *Service) BuildLedger(ctx context.Context, workplaceID, month string) (Ledger, error) {
	slips, err := s.ListSlips(ctx, workplaceID, month, true)
	if err != nil {
		return Ledger{}, err
	}
	monthStart, _ := ParseMonth(month)
	return NewLedger(workplaceID, monthStart.Format(MonthLayout), slips), nil
}

func NewLedger(workplaceID, month string, slips []Slip) Ledger {
	ledger := Ledger{
		WorkplaceID:  workplaceID,
		PayrollMonth: month,
		Rows:         make([]LedgerRow, 0, len(slips)),
		Totals:       LedgerRow{EmployeeName: "TOTAL"},
	}
	for _, slip := range slips {
		row := LedgerRow{
			EmployeeID:          slip.EmployeeID,
			EmployeeName:        slip.EmployeeName,
			TaxType:             slip.TaxType,
			BasePay:             slip.BasePay,
			WeeklyHolidayPay:    slip.WeeklyHolidayPay,
			OvertimePay:         slip.OvertimePay,
			GrossPay:            slip.GrossPay,
			NationalPension:     slip.NationalPension,
			HealthInsurance:     slip.HealthInsurance,
			LongTermCare:        slip.LongTermCare,
			EmploymentInsurance: slip.EmploymentInsurance,
			IncomeTax:           slip.IncomeTax,
			LocalIncomeTax:      slip.LocalIncomeTax,
			Withholding:         slip.Withholding,
			TotalDeductions:     slip.TotalDeductions,
			NetPay:              slip.NetPay,

			EmployerNationalPension:     slip.EmployerNationalPension,
			EmployerHealthInsurance:     slip.EmployerHealthInsurance,
			EmployerLongTermCare:        slip.EmployerLongTermCare,
			EmployerEmploymentInsurance: slip.EmployerEmploymentInsurance,
			EmployerBurden: slip.EmployerNationalPension + slip.EmployerHealthInsurance +
				slip.EmployerLongTermCare + slip.EmployerEmploymentInsurance,
		}
		ledger.Rows = append(ledger.Rows, row)
		ledger.Totals.add(row)
	}
	return ledger
}

func (r *LedgerRow) add(o LedgerRow) {
	r.BasePay += o.BasePay
	r.WeeklyHolidayPay += o.WeeklyHolidayPay
	r.OvertimePay += o.OvertimePay
	r.GrossPay += o.GrossPay
	r.NationalPension += o.NationalPension
	r.HealthInsurance += o.HealthInsurance
	r.LongTermCare += o.LongTermCare
	r.EmploymentInsurance += o.EmploymentInsurance
	r.IncomeTax += o.IncomeTax
	r.LocalIncomeTax += o.LocalIncomeTax
	r.Withholding += o.Withholding
	r.TotalDeductions += o.TotalDeductions
	r.NetPay += o.NetPay
	r.EmployerNationalPension += o.EmployerNationalPension
	r.EmployerHealthInsurance += o.EmployerHealthInsurance
	r.EmployerLongTermCare += o.EmployerLongTermCare
	r.EmployerEmploymentInsurance += o.EmployerEmploymentInsurance
	r.EmployerBurden += o.EmployerBurden
}

func (r LedgerRow) amounts() []int64 {
	return []int64{
		r.BasePay, r.WeeklyHolidayPay, r.OvertimePay, r.GrossPay,
		r.NationalPension, r.HealthInsurance, r.LongTermCare, r.EmploymentInsurance,
		r.IncomeTax, r.LocalIncomeTax, r.Withholding, r.TotalDeductions, r.NetPay,
		r.EmployerNationalPension, r.EmployerHealthInsurance, r.EmployerLongTermCare,
		r.EmployerEmploymentInsurance, r.EmployerBurden,
	}
}

func (l Ledger) allRows() []LedgerRow {
	return append(append(make([]LedgerRow, 0, len(l.Rows)+1), l.Rows...), l.Totals)
}

func (l Ledger) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}
	for _, row := range l.allRows() {
		record := []string{row.EmployeeName, row.TaxType}
		for _, amount := range row.amounts() {
			record = append(record, strconv.FormatInt(amount, 10))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (l Ledger) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := l.PayrollMonth
	if sheet == "" {
		sheet = "ledger"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	boldID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyID, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return err
	}

	for i, title := range ledgerHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeader))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", boldID); err != nil {
		return err
	}

	for r, row := range l.allRows() {
		rowNum := r + 2
		values := []any{row.EmployeeName, row.TaxType}
		for _, amount := range row.amounts() {
			values = append(values, amount)
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		first, _ := excelize.CoordinatesToCellName(3, rowNum)
		last, _ := excelize.CoordinatesToCellName(len(ledgerHeader), rowNum)
		if err := f.SetCellStyle(sheet, first, last, moneyID); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
