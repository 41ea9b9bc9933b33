package payroll

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	cryptoutil "chancehr/internal/platform/crypto"
)

type pdfLine struct {
	label  string
	amount int64
}

// RenderPDF lays the slip out on a single A4 page.
func RenderPDF(slip Slip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Salary Slip "+slip.PayrollMonth)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Employee: %s", slip.EmployeeName)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", slip.PeriodStart.Format(DateLayout), slip.PeriodEnd.Format(DateLayout)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Pay date: %s", slip.PayDate.Format(DateLayout)))
	pdf.Ln(10)

	section := func(title string, lines []pdfLine) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range lines {
			pdf.CellFormat(90, 7, line.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, formatWon(line.amount), "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}

	section("Earnings", []pdfLine{
		{"Base pay", slip.BasePay},
		{"Weekly holiday pay", slip.WeeklyHolidayPay},
		{"Overtime pay", slip.OvertimePay},
		{"Gross pay", slip.GrossPay},
	})

	switch d := slip.Deductions().(type) {
	case FourInsurance:
		section("Deductions", []pdfLine{
			{"National pension", d.NationalPension},
			{"Health insurance", d.HealthInsurance},
			{"Long-term care", d.LongTermCare},
			{"Employment insurance", d.EmploymentInsurance},
			{"Income tax", d.IncomeTax},
			{"Local income tax", d.LocalIncomeTax},
			{"Total deductions", slip.TotalDeductions},
		})
	case FlatWithholding:
		section("Deductions", []pdfLine{
			{"Withholding (3.3%)", d.Amount},
			{"Total deductions", slip.TotalDeductions},
		})
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(90, 9, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 9, formatWon(slip.NetPay), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatWon groups thousands: 2614737 -> "2,614,737 KRW".
func formatWon(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprint(amount)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + string(out) + " KRW"
}

// Archive keeps published slip PDFs on disk, encrypted when a key is configured.
type Archive struct {
	dir    string
	crypto *cryptoutil.Service
}

func NewArchive(dir string, crypto *cryptoutil.Service) *Archive {
	if dir == "" {
		return nil
	}
	return &Archive{dir: dir, crypto: crypto}
}

func (a *Archive) Store(slip Slip) (string, error) {
	data, err := RenderPDF(slip)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", err
	}

	filePath := filepath.Join(a.dir, slip.ID+".pdf")
	if a.crypto != nil && a.crypto.Configured() {
		encrypted, err := a.crypto.Encrypt(data)
		if err != nil {
			return "", err
		}
		filePath += ".enc"
		data = encrypted
	}
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return "", err
	}
	return filePath, nil
}
