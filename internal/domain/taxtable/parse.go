package taxtable

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseRows converts raw cells [min_thousand, max_thousand, tax_1..tax_11] into entries.
// Rows whose bounds are not positive integers are skipped and counted; missing tax cells read as zero.
func ParseRows(year int, rows [][]string) ([]Entry, int) {
	var entries []Entry
	skipped := 0
	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		lo, okLo := parsePositive(row[0])
		hi, okHi := parsePositive(row[1])
		if !okLo || !okHi || hi <= lo {
			skipped++
			continue
		}
		entry := Entry{Year: year, SalaryMin: lo * 1000, SalaryMax: hi * 1000}
		for i := 0; i < MaxDependents; i++ {
			if 2+i >= len(row) {
				break
			}
			entry.Taxes[i] = parseAmount(row[2+i])
		}
		entries = append(entries, entry)
	}
	return entries, skipped
}

func parsePositive(cell string) (int64, bool) {
	value, err := strconv.ParseInt(cleanNumber(cell), 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func parseAmount(cell string) int64 {
	cleaned := cleanNumber(cell)
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func cleanNumber(cell string) string {
	return strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
}

func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read tax table csv: %w", err)
	}
	return rows, nil
}

// ReadXLSX reads every row of the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open tax table workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoValidRows
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read tax table sheet: %w", err)
	}
	return rows, nil
}

// IsXLSX sniffs the zip signature so uploads need no content type.
func IsXLSX(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
