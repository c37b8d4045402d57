package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

var requiredColumns = []string{"year", "state", "sector", "sub_sector", "food_type", "tons_waste"}

// Older exports call the tonnage column tons_surplus.
var columnAliases = map[string]string{
	"tons_surplus": "tons_waste",
}

// maxPreambleRows is how far we look for the header row.
const maxPreambleRows = 10

// ParseRecords reads waste records from CSV. The header row decides column
// order. Rows whose year is not an integer are metadata and get skipped. Blank
// or non-numeric tonnage counts as zero.
func ParseRecords(r io.Reader) ([]WasteRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var cols map[string]int
	for i := 0; i < maxPreambleRows && cols == nil; i++ {
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv header: %w", err)
		}
		cols = headerColumns(header)
	}
	if cols == nil {
		return nil, fmt.Errorf("csv has no header with columns %s", strings.Join(requiredColumns, ","))
	}

	var records []WasteRecord
	skipped, badTons := 0, 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line: %w", err)
		}
		field := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		year, err := strconv.Atoi(field("year"))
		if err != nil {
			skipped++
			continue
		}
		var tons float64
		if s := field("tons_waste"); s != "" {
			tons, err = strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
			if err != nil {
				tons = 0
				badTons++
			}
		}
		records = append(records, WasteRecord{
			Year:      year,
			State:     field("state"),
			Sector:    field("sector"),
			SubSector: field("sub_sector"),
			FoodType:  field("food_type"),
			TonsWaste: tons,
		})
	}

	if skipped > 0 || badTons > 0 {
		slog.Debug("parsed waste records", "rows", len(records), "skipped", skipped, "non_numeric_tons", badTons)
	}
	return records, nil
}

// headerColumns returns the column index of each required column, or nil if
// the row is not a header.
func headerColumns(header []string) map[string]int {
	cols := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil
		}
	}
	return cols
}
