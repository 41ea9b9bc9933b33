package employee

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StoreAPI interface {
	CreateWorkplace(ctx context.Context, workplace Workplace) (string, error)
	GetWorkplace(ctx context.Context, workplaceID string) (Workplace, error)
	Create(ctx context.Context, profile Profile, ssnEnc []byte) (string, error)
	Update(ctx context.Context, profile Profile, ssnEnc []byte) error
	Get(ctx context.Context, employeeID string) (Profile, []byte, error)
	ListActive(ctx context.Context, workplaceID string) ([]Profile, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const profileColumns = `
  id, workplace_id, COALESCE(user_id, ''), name, phone, salary_type, base_amount, tax_type, dependents,
  period_start_day, period_end_day, pay_schedule_type, pay_day, pay_offset_days, weekly_holiday_type,
  overtime_rate, deduct_absence, work_days, scheduled_start, scheduled_end, hire_date, resignation_date, active`

func (s *Store) CreateWorkplace(ctx context.Context, workplace Workplace) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO workplaces (name, latitude, longitude, radius_meters, timezone)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, workplace.Name, workplace.Latitude, workplace.Longitude, workplace.RadiusMeters, workplace.Timezone).Scan(&id)
	return id, err
}

func (s *Store) GetWorkplace(ctx context.Context, workplaceID string) (Workplace, error) {
	var w Workplace
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, latitude, longitude, radius_meters, timezone, created_at
    FROM workplaces
    WHERE id = $1
  `, workplaceID).Scan(&w.ID, &w.Name, &w.Latitude, &w.Longitude, &w.RadiusMeters, &w.Timezone, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workplace{}, ErrWorkplaceNotFound
	}
	return w, err
}

func (s *Store) Create(ctx context.Context, p Profile, ssnEnc []byte) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      workplace_id, user_id, name, phone, ssn_enc, salary_type, base_amount, tax_type, dependents,
      period_start_day, period_end_day, pay_schedule_type, pay_day, pay_offset_days, weekly_holiday_type,
      overtime_rate, deduct_absence, work_days, scheduled_start, scheduled_end, hire_date, resignation_date, active
    )
    VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
    RETURNING id
  `, p.WorkplaceID, p.UserID, p.Name, p.Phone, ssnEnc, p.SalaryType, p.BaseAmount, p.TaxType, p.Dependents,
		p.PeriodStartDay, p.PeriodEndDay, p.PayScheduleType, p.PayDay, p.PayOffsetDays, p.WeeklyHolidayType,
		p.OvertimeMultiplier(), p.DeductAbsence, weekdaysToInts(p.WorkDays), p.ScheduledStart, p.ScheduledEnd,
		p.HireDate, p.ResignationDate, p.Active).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, p Profile, ssnEnc []byte) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      name = $2, phone = $3, ssn_enc = COALESCE($4, ssn_enc), salary_type = $5, base_amount = $6, tax_type = $7,
      dependents = $8, period_start_day = $9, period_end_day = $10, pay_schedule_type = $11, pay_day = $12,
      pay_offset_days = $13, weekly_holiday_type = $14, overtime_rate = $15, deduct_absence = $16,
      work_days = $17, scheduled_start = $18, scheduled_end = $19, hire_date = $20, resignation_date = $21,
      active = $22, updated_at = now()
    WHERE id = $1
  `, p.ID, p.Name, p.Phone, ssnEnc, p.SalaryType, p.BaseAmount, p.TaxType,
		p.Dependents, p.PeriodStartDay, p.PeriodEndDay, p.PayScheduleType, p.PayDay,
		p.PayOffsetDays, p.WeeklyHolidayType, p.OvertimeMultiplier(), p.DeductAbsence,
		weekdaysToInts(p.WorkDays), p.ScheduledStart, p.ScheduledEnd, p.HireDate, p.ResignationDate,
		p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, employeeID string) (Profile, []byte, error) {
	var ssnEnc []byte
	row := s.DB.QueryRow(ctx, `SELECT `+profileColumns+`, ssn_enc FROM employees WHERE id = $1`, employeeID)
	p, err := scanProfile(row, &ssnEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, nil, ErrEmployeeNotFound
	}
	return p, ssnEnc, err
}

func (s *Store) ListActive(ctx context.Context, workplaceID string) ([]Profile, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+profileColumns+`
    FROM employees
    WHERE workplace_id = $1 AND active
    ORDER BY name, id
  `, workplaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row, extra ...any) (Profile, error) {
	var p Profile
	var workDays []int32
	var hire time.Time
	dest := []any{
		&p.ID, &p.WorkplaceID, &p.UserID, &p.Name, &p.Phone, &p.SalaryType, &p.BaseAmount, &p.TaxType, &p.Dependents,
		&p.PeriodStartDay, &p.PeriodEndDay, &p.PayScheduleType, &p.PayDay, &p.PayOffsetDays, &p.WeeklyHolidayType,
		&p.OvertimeRate, &p.DeductAbsence, &workDays, &p.ScheduledStart, &p.ScheduledEnd, &hire, &p.ResignationDate, &p.Active,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Profile{}, err
	}
	p.HireDate = DateOf(hire)
	if p.ResignationDate != nil {
		resigned := DateOf(*p.ResignationDate)
		p.ResignationDate = &resigned
	}
	for _, d := range workDays {
		p.WorkDays = append(p.WorkDays, time.Weekday(d))
	}
	return p, nil
}

func weekdaysToInts(days []time.Weekday) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		out = append(out, int32(d))
	}
	return out
}
