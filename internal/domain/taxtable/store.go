package taxtable

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chancehr/internal/platform/db"
)

type StoreAPI interface {
	LoadEntries(ctx context.Context, year int) ([]Entry, error)
	ReplaceEntries(ctx context.Context, year int, entries []Entry) error
	LoadRates(ctx context.Context, year int) (Rates, error)
	UpsertRates(ctx context.Context, rates Rates) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) LoadEntries(ctx context.Context, year int) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT salary_min, salary_max, taxes
    FROM tax_table_entries
    WHERE year = $1
    ORDER BY salary_min
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry := Entry{Year: year}
		var taxes []int64
		if err := rows.Scan(&entry.SalaryMin, &entry.SalaryMax, &taxes); err != nil {
			return nil, err
		}
		copy(entry.Taxes[:], taxes)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ReplaceEntries swaps the whole table of a year in one transaction.
func (s *Store) ReplaceEntries(ctx context.Context, year int, entries []Entry) error {
	return db.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM tax_table_entries WHERE year = $1", year); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, entry := range entries {
			batch.Queue(`
        INSERT INTO tax_table_entries (year, salary_min, salary_max, taxes)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (year, salary_min) DO UPDATE SET salary_max = EXCLUDED.salary_max, taxes = EXCLUDED.taxes
      `, year, entry.SalaryMin, entry.SalaryMax, entry.Taxes[:])
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *Store) LoadRates(ctx context.Context, year int) (Rates, error) {
	rates := Rates{Year: year}
	err := s.DB.QueryRow(ctx, `
    SELECT pension_rate, pension_floor, pension_ceiling, health_rate, long_term_care_rate, employment_rate, employer_employment_rate
    FROM insurance_rates
    WHERE year = $1
  `, year).Scan(&rates.PensionRate, &rates.PensionFloor, &rates.PensionCeiling, &rates.HealthRate, &rates.LongTermCareRate, &rates.EmploymentRate, &rates.EmployerEmploymentRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rates{}, ErrTaxTableNotFound
	}
	return rates, err
}

func (s *Store) UpsertRates(ctx context.Context, rates Rates) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO insurance_rates (year, pension_rate, pension_floor, pension_ceiling, health_rate, long_term_care_rate, employment_rate, employer_employment_rate)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (year) DO UPDATE SET
      pension_rate = EXCLUDED.pension_rate,
      pension_floor = EXCLUDED.pension_floor,
      pension_ceiling = EXCLUDED.pension_ceiling,
      health_rate = EXCLUDED.health_rate,
      long_term_care_rate = EXCLUDED.long_term_care_rate,
      employment_rate = EXCLUDED.employment_rate,
      employer_employment_rate = EXCLUDED.employer_employment_rate
  `, rates.Year, rates.PensionRate, rates.PensionFloor, rates.PensionCeiling, rates.HealthRate, rates.LongTermCareRate, rates.EmploymentRate, rates.EmployerEmploymentRate)
	return err
}
