package gtfsfilter

import (
	"maps"
	"slices"
	"strings"
)

// Row is a single CSV record, aligned with the header of the Table it belongs to.
// Rows may be shorter than the header; missing trailing values read as empty.
type Row []string

// Table is one GTFS file. Values are kept exactly as read; an empty value is a null.
type Table struct {
	Name   string
	Header []string
	Rows   []Row

	columns map[string]int
}

func NewTable(name string, header []string, rows []Row) *Table {
	t := &Table{Name: name, Header: header, Rows: rows, columns: make(map[string]int, len(header))}
	for i, column := range header {
		if _, ok := t.columns[column]; !ok {
			t.columns[column] = i
		}
	}
	return t
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// FileName is the name the table has inside a feed archive.
func (t *Table) FileName() string {
	return t.Name + ".txt"
}

func (t *Table) HasColumn(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// Value returns the value of column in row, or "" if the table has no such column.
func (t *Table) Value(row Row, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// filter returns a new table holding the rows keep accepts, in their original order.
// The header and the row slices themselves are shared with t.
func (t *Table) filter(keep func(row Row) bool) *Table {
	var rows []Row
	for _, row := range t.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return &Table{Name: t.Name, Header: t.Header, Rows: rows, columns: t.columns}
}

// distinct collects the non-null values of column.
func (t *Table) distinct(column string) keySet {
	keys := make(keySet)
	i, ok := t.columns[column]
	if !ok {
		return keys
	}
	for _, row := range t.Rows {
		if i < len(row) && row[i] != "" {
			keys[row[i]] = struct{}{}
		}
	}
	return keys
}

type keySet map[string]struct{}

func (k keySet) has(v string) bool {
	_, ok := k[v]
	return ok
}

// Feed is an in-memory GTFS feed: every .txt member parsed as a Table, and every
// other member kept as raw bytes. A Feed is not modified once it has been loaded.
type Feed struct {
	Tables map[string]*Table
	Files  map[string][]byte
}

func NewFeed() *Feed {
	return &Feed{Tables: make(map[string]*Table), Files: make(map[string][]byte)}
}

func (f *Feed) Table(name string) (*Table, bool) {
	t, ok := f.Tables[name]
	return t, ok
}

func (f *Feed) AddTable(t *Table) {
	f.Tables[t.Name] = t
}

func (f *Feed) AddFile(name string, contents []byte) {
	f.Files[name] = contents
}

// TableNames returns the names of all tables, sorted.
func (f *Feed) TableNames() []string {
	return slices.Sorted(maps.Keys(f.Tables))
}

// FileNames returns the names of all non-table members, sorted.
func (f *Feed) FileNames() []string {
	return slices.Sorted(maps.Keys(f.Files))
}

func tableNameOf(fileName string) (string, bool) {
	if !strings.HasSuffix(fileName, ".txt") {
		return "", false
	}
	return strings.TrimSuffix(fileName, ".txt"), true
}
