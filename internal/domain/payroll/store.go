package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chancehr/internal/platform/db"
)

type StoreAPI interface {
	// InsertSlip writes the slip unless one exists for the employee and month; inserted is false on conflict.
	InsertSlip(ctx context.Context, slip Slip) (Slip, bool, error)
	GetSlip(ctx context.Context, slipID string) (Slip, error)
	FindSlip(ctx context.Context, employeeID, month string) (Slip, bool, error)
	ListSlips(ctx context.Context, workplaceID, month string, publishedOnly bool) ([]Slip, error)
	ListEmployeeSlips(ctx context.Context, employeeID string, months []string) ([]Slip, error)
	UpdateSlipAmounts(ctx context.Context, slip Slip) error
	SetPublished(ctx context.Context, slipID string, published bool, at time.Time) error

	CreatePastRecord(ctx context.Context, record PastRecord) (PastRecord, error)
	GetPastRecord(ctx context.Context, recordID string) (PastRecord, error)
	ListPastRecords(ctx context.Context, employeeID string) ([]PastRecord, error)
	// ConvertPastRecord inserts the slip and links it to the record atomically.
	ConvertPastRecord(ctx context.Context, recordID string, slip Slip) (Slip, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const slipColumns = `
  s.id, s.employee_id, e.name, s.workplace_id, s.payroll_month, s.period_start, s.period_end, s.pay_date, s.tax_type,
  s.base_pay, s.weekly_holiday_pay, s.overtime_pay, s.gross_pay,
  s.national_pension, s.health_insurance, s.long_term_care, s.employment_insurance, s.income_tax, s.local_income_tax,
  s.withholding, s.total_deductions, s.net_pay,
  s.employer_national_pension, s.employer_health_insurance, s.employer_long_term_care, s.employer_employment_insurance,
  s.published, s.published_at, s.created_at, s.updated_at`

const slipFrom = `
    FROM salary_slips s
    JOIN employees e ON e.id = s.employee_id`

func (s *Store) InsertSlip(ctx context.Context, slip Slip) (Slip, bool, error) {
	return insertSlip(ctx, s.DB, slip)
}

func insertSlip(ctx context.Context, q db.Querier, slip Slip) (Slip, bool, error) {
	var id string
	err := q.QueryRow(ctx, `
    INSERT INTO salary_slips (
      employee_id, workplace_id, payroll_month, period_start, period_end, pay_date, tax_type,
      base_pay, weekly_holiday_pay, overtime_pay, gross_pay,
      national_pension, health_insurance, long_term_care, employment_insurance, income_tax, local_income_tax,
      withholding, total_deductions, net_pay,
      employer_national_pension, employer_health_insurance, employer_long_term_care, employer_employment_insurance
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
    ON CONFLICT (employee_id, payroll_month) DO NOTHING
    RETURNING id
  `, slip.EmployeeID, slip.WorkplaceID, slip.PayrollMonth, slip.PeriodStart, slip.PeriodEnd, slip.PayDate, slip.TaxType,
		slip.BasePay, slip.WeeklyHolidayPay, slip.OvertimePay, slip.GrossPay,
		slip.NationalPension, slip.HealthInsurance, slip.LongTermCare, slip.EmploymentInsurance, slip.IncomeTax, slip.LocalIncomeTax,
		slip.Withholding, slip.TotalDeductions, slip.NetPay,
		slip.EmployerNationalPension, slip.EmployerHealthInsurance, slip.EmployerLongTermCare, slip.EmployerEmploymentInsurance,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Slip{}, false, nil
	}
	if err != nil {
		return Slip{}, false, err
	}
	created, err := scanSlip(q.QueryRow(ctx, `SELECT `+slipColumns+slipFrom+` WHERE s.id = $1`, id))
	return created, true, err
}

func (s *Store) GetSlip(ctx context.Context, slipID string) (Slip, error) {
	slip, err := scanSlip(s.DB.QueryRow(ctx, `SELECT `+slipColumns+slipFrom+` WHERE s.id = $1`, slipID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Slip{}, ErrSlipNotFound
	}
	return slip, err
}

func (s *Store) FindSlip(ctx context.Context, employeeID, month string) (Slip, bool, error) {
	slip, err := scanSlip(s.DB.QueryRow(ctx, `SELECT `+slipColumns+slipFrom+` WHERE s.employee_id = $1 AND s.payroll_month = $2`, employeeID, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return Slip{}, false, nil
	}
	if err != nil {
		return Slip{}, false, err
	}
	return slip, true, nil
}

func (s *Store) ListSlips(ctx context.Context, workplaceID, month string, publishedOnly bool) ([]Slip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+slipColumns+slipFrom+`
    WHERE s.workplace_id = $1 AND s.payroll_month = $2 AND ($3 = false OR s.published)
    ORDER BY e.name, s.employee_id
  `, workplaceID, month, publishedOnly)
	if err != nil {
		return nil, err
	}
	return collectSlips(rows)
}

func (s *Store) ListEmployeeSlips(ctx context.Context, employeeID string, months []string) ([]Slip, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+slipColumns+slipFrom+`
    WHERE s.employee_id = $1 AND (COALESCE(cardinality($2::text[]), 0) = 0 OR s.payroll_month = ANY($2))
    ORDER BY s.payroll_month
  `, employeeID, months)
	if err != nil {
		return nil, err
	}
	return collectSlips(rows)
}

func (s *Store) UpdateSlipAmounts(ctx context.Context, slip Slip) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_slips SET
      pay_date = $2, base_pay = $3, weekly_holiday_pay = $4, overtime_pay = $5, gross_pay = $6,
      national_pension = $7, health_insurance = $8, long_term_care = $9, employment_insurance = $10,
      income_tax = $11, local_income_tax = $12, withholding = $13, total_deductions = $14, net_pay = $15,
      employer_national_pension = $16, employer_health_insurance = $17, employer_long_term_care = $18,
      employer_employment_insurance = $19, updated_at = now()
    WHERE id = $1 AND published = false
  `, slip.ID, slip.PayDate, slip.BasePay, slip.WeeklyHolidayPay, slip.OvertimePay, slip.GrossPay,
		slip.NationalPension, slip.HealthInsurance, slip.LongTermCare, slip.EmploymentInsurance,
		slip.IncomeTax, slip.LocalIncomeTax, slip.Withholding, slip.TotalDeductions, slip.NetPay,
		slip.EmployerNationalPension, slip.EmployerHealthInsurance, slip.EmployerLongTermCare,
		slip.EmployerEmploymentInsurance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlipPublished
	}
	return nil
}

func (s *Store) SetPublished(ctx context.Context, slipID string, published bool, at time.Time) error {
	var publishedAt *time.Time
	if published {
		publishedAt = &at
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_slips
    SET published = $2, published_at = $3, updated_at = now()
    WHERE id = $1 AND published = $4
  `, slipID, published, publishedAt, !published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if published {
			return ErrSlipPublished
		}
		return ErrSlipNotPublished
	}
	return nil
}

const pastColumns = `id, employee_id, start_date, end_date, salary_type, amount, notes, COALESCE(converted_slip_id::text, ''), created_at`

func (s *Store) CreatePastRecord(ctx context.Context, record PastRecord) (PastRecord, error) {
	return scanPast(s.DB.QueryRow(ctx, `
    INSERT INTO past_payroll_records (employee_id, start_date, end_date, salary_type, amount, notes)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+pastColumns,
		record.EmployeeID, record.StartDate, record.EndDate, record.SalaryType, record.Amount, record.Notes))
}

func (s *Store) GetPastRecord(ctx context.Context, recordID string) (PastRecord, error) {
	record, err := scanPast(s.DB.QueryRow(ctx, `SELECT `+pastColumns+` FROM past_payroll_records WHERE id = $1`, recordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return PastRecord{}, ErrPastRecordNotFound
	}
	return record, err
}

func (s *Store) ListPastRecords(ctx context.Context, employeeID string) ([]PastRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+pastColumns+`
    FROM past_payroll_records
    WHERE employee_id = $1
    ORDER BY start_date
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PastRecord
	for rows.Next() {
		record, err := scanPast(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) ConvertPastRecord(ctx context.Context, recordID string, slip Slip) (Slip, error) {
	var created Slip
	err := db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var converted string
		err := tx.QueryRow(ctx, `
      SELECT COALESCE(converted_slip_id::text, '') FROM past_payroll_records WHERE id = $1 FOR UPDATE
    `, recordID).Scan(&converted)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPastRecordNotFound
		}
		if err != nil {
			return err
		}
		if converted != "" {
			return ErrPastRecordConverted
		}

		var inserted bool
		created, inserted, err = insertSlip(ctx, tx, slip)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrSlipExists
		}
		_, err = tx.Exec(ctx, `UPDATE past_payroll_records SET converted_slip_id = $2 WHERE id = $1`, recordID, created.ID)
		return err
	})
	return created, err
}

func collectSlips(rows pgx.Rows) ([]Slip, error) {
	defer rows.Close()
	var out []Slip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}

func scanSlip(row pgx.Row) (Slip, error) {
	var s Slip
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.EmployeeName, &s.WorkplaceID, &s.PayrollMonth, &s.PeriodStart, &s.PeriodEnd, &s.PayDate, &s.TaxType,
		&s.BasePay, &s.WeeklyHolidayPay, &s.OvertimePay, &s.GrossPay,
		&s.NationalPension, &s.HealthInsurance, &s.LongTermCare, &s.EmploymentInsurance, &s.IncomeTax, &s.LocalIncomeTax,
		&s.Withholding, &s.TotalDeductions, &s.NetPay,
		&s.EmployerNationalPension, &s.EmployerHealthInsurance, &s.EmployerLongTermCare, &s.EmployerEmploymentInsurance,
		&s.Published, &s.PublishedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func scanPast(row pgx.Row) (PastRecord, error) {
	var r PastRecord
	err := row.Scan(&r.ID, &r.EmployeeID, &r.StartDate, &r.EndDate, &r.SalaryType, &r.Amount, &r.Notes, &r.ConvertedSlipID, &r.CreatedAt)
	return r, err
}
