package taxtable

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chancehr/internal/platform/logger"
)

// Service caches year tables in memory in front of an optional persistent store.
type Service struct {
	store StoreAPI

	mu     sync.RWMutex
	tables map[int]Table
	rates  map[int]Rates
}

func NewService(store StoreAPI) *Service {
	return &Service{
		store:  store,
		tables: map[int]Table{},
		rates:  map[int]Rates{},
	}
}

// LoadBuiltin installs the shipped rates and withholding excerpt, persisting them only where the store
// has nothing for that year so imported tables are never overwritten.
func (s *Service) LoadBuiltin(ctx context.Context) error {
	log := logger.FromContext(ctx)
	for _, rates := range BuiltinRates() {
		if s.store != nil {
			if _, err := s.store.LoadRates(ctx, rates.Year); err == nil {
				continue
			}
			if err := s.store.UpsertRates(ctx, rates); err != nil {
				return fmt.Errorf("seed insurance rates %d: %w", rates.Year, err)
			}
		}
		s.mu.Lock()
		s.rates[rates.Year] = rates
		s.mu.Unlock()
	}

	entries, err := builtinEntries()
	if err != nil {
		return err
	}
	if s.store != nil {
		existing, err := s.store.LoadEntries(ctx, BuiltinYear)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			log.Debug("tax table already present", zap.Int("year", BuiltinYear), zap.Int("brackets", len(existing)))
			return nil
		}
		if err := s.store.ReplaceEntries(ctx, BuiltinYear, entries); err != nil {
			return fmt.Errorf("seed tax table %d: %w", BuiltinYear, err)
		}
	}
	s.mu.Lock()
	s.tables[BuiltinYear] = NewTable(BuiltinYear, entries)
	s.mu.Unlock()
	log.Info("builtin tax table loaded", zap.Int("year", BuiltinYear), zap.Int("brackets", len(entries)))
	return nil
}

func (s *Service) Table(ctx context.Context, year int) (Table, error) {
	s.mu.RLock()
	table, ok := s.tables[year]
	s.mu.RUnlock()
	if ok {
		return table, nil
	}
	if s.store == nil {
		return Table{}, fmt.Errorf("%w: %d", ErrTaxTableNotFound, year)
	}

	entries, err := s.store.LoadEntries(ctx, year)
	if err != nil {
		return Table{}, err
	}
	if len(entries) == 0 {
		return Table{}, fmt.Errorf("%w: %d", ErrTaxTableNotFound, year)
	}
	table = NewTable(year, entries)
	s.mu.Lock()
	s.tables[year] = table
	s.mu.Unlock()
	return table, nil
}

// Lookup never substitutes another year's table.
func (s *Service) Lookup(ctx context.Context, year int, gross int64, dependents int) (int64, error) {
	table, err := s.Table(ctx, year)
	if err != nil {
		return 0, err
	}
	return table.Lookup(gross, dependents), nil
}

func (s *Service) Rates(ctx context.Context, year int) (Rates, error) {
	s.mu.RLock()
	rates, ok := s.rates[year]
	s.mu.RUnlock()
	if ok {
		return rates, nil
	}
	if s.store == nil {
		return Rates{}, fmt.Errorf("%w: %d", ErrTaxTableNotFound, year)
	}

	rates, err := s.store.LoadRates(ctx, year)
	if err != nil {
		return Rates{}, fmt.Errorf("insurance rates %d: %w", year, err)
	}
	s.mu.Lock()
	s.rates[year] = rates
	s.mu.Unlock()
	return rates, nil
}

func (s *Service) SetRates(ctx context.Context, rates Rates) error {
	if rates.Year < 2000 || rates.Year > 2100 {
		return ErrInvalidYear
	}
	if s.store != nil {
		if err := s.store.UpsertRates(ctx, rates); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.rates[rates.Year] = rates
	s.mu.Unlock()
	return nil
}

// Import replaces the year's table with the parsed rows.
func (s *Service) Import(ctx context.Context, year int, rows [][]string) (ImportResult, error) {
	if year < 2000 || year > 2100 {
		return ImportResult{}, ErrInvalidYear
	}
	entries, skipped := ParseRows(year, rows)
	result := ImportResult{Year: year, Imported: len(entries), Skipped: skipped}
	if len(entries) == 0 {
		return result, ErrNoValidRows
	}
	if s.store != nil {
		if err := s.store.ReplaceEntries(ctx, year, entries); err != nil {
			return ImportResult{}, err
		}
	}
	s.mu.Lock()
	s.tables[year] = NewTable(year, entries)
	s.mu.Unlock()

	logger.FromContext(ctx).Info("tax table imported",
		zap.Int("year", year),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
