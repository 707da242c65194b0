package gtfsfilter

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"slices"
	"strings"
)

// LoadIdentifiers reads a list of identifiers from a CSV file, such as a routes.txt or
// a hand-written list. Values come from column if the header names it, otherwise
// from the first column. A file whose header-based read gives nothing is re-read
// as headerless. The result is trimmed, deduplicated and sorted; blanks are dropped.
func LoadIdentifiers(path string, column string) ([]string, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := 0
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name == strings.ToLower(column) {
			col = i
			break
		}
	}

	ids := cleanIdentifiers(records[1:], col)
	if len(ids) == 0 {
		ids = cleanIdentifiers(records, 0)
	}
	return ids, nil
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func cleanIdentifiers(records [][]string, col int) []string {
	var ids []string
	for _, record := range records {
		if col >= len(record) {
			continue
		}
		v := strings.TrimSpace(strings.TrimPrefix(record[col], "\ufeff"))
		if v != "" {
			ids = append(ids, v)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
