package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StoreAPI interface {
	GetByDate(ctx context.Context, employeeID string, date time.Time) (Record, bool, error)
	// InsertCheckIn creates the day's record unless one exists; inserted is false on conflict.
	InsertCheckIn(ctx context.Context, rec Record) (Record, bool, error)
	SetCheckIn(ctx context.Context, rec Record) error
	SetCheckOut(ctx context.Context, rec Record) error
	Upsert(ctx context.Context, rec Record) (Record, error)
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

const recordColumns = `
  id, employee_id, workplace_id, work_date, check_in_at, check_in_lat, check_in_lng, check_in_method,
  check_out_at, check_out_lat, check_out_lng, check_out_method, leave_type, is_holiday, corrected_by,
  created_at, updated_at`

func (s *Store) GetByDate(ctx context.Context, employeeID string, date time.Time) (Record, bool, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE employee_id = $1 AND work_date = $2`, employeeID, date)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *Store) InsertCheckIn(ctx context.Context, rec Record) (Record, bool, error) {
	lat, lng := coordArgs(rec.CheckInCoord)
	row := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (employee_id, workplace_id, work_date, check_in_at, check_in_lat, check_in_lng, check_in_method, leave_type, is_holiday)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    ON CONFLICT (employee_id, work_date) DO NOTHING
    RETURNING `+recordColumns,
		rec.EmployeeID, rec.WorkplaceID, rec.WorkDate, rec.CheckInAt, lat, lng, rec.CheckInMethod, leaveOrNone(rec.LeaveType), rec.IsHoliday)
	created, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return created, true, nil
}

func (s *Store) SetCheckIn(ctx context.Context, rec Record) error {
	lat, lng := coordArgs(rec.CheckInCoord)
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET check_in_at = $2, check_in_lat = $3, check_in_lng = $4, check_in_method = $5, updated_at = now()
    WHERE id = $1 AND check_in_at IS NULL
  `, rec.ID, rec.CheckInAt, lat, lng, rec.CheckInMethod)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}

func (s *Store) SetCheckOut(ctx context.Context, rec Record) error {
	lat, lng := coordArgs(rec.CheckOutCoord)
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET check_out_at = $2, check_out_lat = $3, check_out_lng = $4, check_out_method = $5, updated_at = now()
    WHERE id = $1 AND check_in_at IS NOT NULL AND check_out_at IS NULL
  `, rec.ID, rec.CheckOutAt, lat, lng, rec.CheckOutMethod)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCheckedOut
	}
	return nil
}

// Upsert writes the whole record, replacing the stored day on conflict.
func (s *Store) Upsert(ctx context.Context, rec Record) (Record, error) {
	inLat, inLng := coordArgs(rec.CheckInCoord)
	outLat, outLng := coordArgs(rec.CheckOutCoord)
	row := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_records (employee_id, workplace_id, work_date, check_in_at, check_in_lat, check_in_lng, check_in_method,
      check_out_at, check_out_lat, check_out_lng, check_out_method, leave_type, is_holiday, corrected_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    ON CONFLICT (employee_id, work_date) DO UPDATE SET
      check_in_at = EXCLUDED.check_in_at,
      check_in_lat = EXCLUDED.check_in_lat,
      check_in_lng = EXCLUDED.check_in_lng,
      check_in_method = EXCLUDED.check_in_method,
      check_out_at = EXCLUDED.check_out_at,
      check_out_lat = EXCLUDED.check_out_lat,
      check_out_lng = EXCLUDED.check_out_lng,
      check_out_method = EXCLUDED.check_out_method,
      leave_type = EXCLUDED.leave_type,
      is_holiday = EXCLUDED.is_holiday,
      corrected_by = EXCLUDED.corrected_by,
      updated_at = now()
    RETURNING `+recordColumns,
		rec.EmployeeID, rec.WorkplaceID, rec.WorkDate, rec.CheckInAt, inLat, inLng, rec.CheckInMethod,
		rec.CheckOutAt, outLat, outLng, rec.CheckOutMethod, leaveOrNone(rec.LeaveType), rec.IsHoliday, rec.CorrectedBy)
	return scanRecord(row)
}

func (s *Store) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
    ORDER BY work_date
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var inLat, inLng, outLat, outLng *float64
	var workDate time.Time
	if err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.WorkplaceID, &workDate, &rec.CheckInAt, &inLat, &inLng, &rec.CheckInMethod,
		&rec.CheckOutAt, &outLat, &outLng, &rec.CheckOutMethod, &rec.LeaveType, &rec.IsHoliday, &rec.CorrectedBy,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.WorkDate = time.Date(workDate.Year(), workDate.Month(), workDate.Day(), 0, 0, 0, 0, time.UTC)
	if inLat != nil && inLng != nil {
		rec.CheckInCoord = &Coordinate{Latitude: *inLat, Longitude: *inLng}
	}
	if outLat != nil && outLng != nil {
		rec.CheckOutCoord = &Coordinate{Latitude: *outLat, Longitude: *outLng}
	}
	return rec, nil
}

func coordArgs(c *Coordinate) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng := c.Latitude, c.Longitude
	return &lat, &lng
}

func leaveOrNone(leave string) string {
	if leave == "" {
		return LeaveNone
	}
	return leave
}
