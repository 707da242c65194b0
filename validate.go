package gtfsfilter

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")

// Validate reports every row holding a foreign id that does not resolve, in the
// tables Filter with the same opts is responsible for. References to a table the
// feed does not contain are not checked.
func Validate(feed *Feed, opts *FilterOpts) []string {
	if opts == nil {
		opts = &FilterOpts{}
	}
	v := &validator{feed: feed, keys: make(map[string]keySet)}
	schema := schemaFor(opts.Extended)
	for _, table := range feed.TableNames() {
		s, ok := schema[table]
		if !ok {
			continue
		}
		t, _ := feed.Table(table)
		for _, column := range slices.Sorted(maps.Keys(s.ForeignIDs)) {
			v.validateForeignID(t, column, s.ForeignIDs[column])
		}
	}
	return v.issues
}

type validator struct {
	feed   *Feed
	issues []string
	keys   map[string]keySet // "table.column" -> values
}

func (v *validator) append(msg string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(msg, args...))
}

func (v *validator) validateForeignID(t *Table, column string, schema foreignIDSchema) {
	if !t.HasColumn(column) {
		return
	}

	var allowed []keySet
	for _, candidate := range schema.candidates() {
		if keys, ok := v.keysOf(candidate.Table, candidate.Column); ok {
			allowed = append(allowed, keys)
		}
	}
	if len(allowed) == 0 {
		return
	}

	for _, row := range t.Rows {
		value := t.Value(row, column)
		if value == "" {
			continue
		}
		if !slices.ContainsFunc(allowed, func(keys keySet) bool { return keys.has(value) }) {
			v.append("%s in %s is not a valid %s [%s]", value, t.FileName(), column, prettyPrintRow(t, row))
		}
	}
}

func (v *validator) keysOf(table, column string) (keySet, bool) {
	key := table + "." + column
	if keys, ok := v.keys[key]; ok {
		return keys, true
	}
	t, ok := v.feed.Table(table)
	if !ok {
		return nil, false
	}
	keys := t.distinct(column)
	v.keys[key] = keys
	return keys, true
}

func prettyPrintRow(t *Table, row Row) string {
	var out []string
	for i, column := range t.Header {
		if i < len(row) && row[i] != "" {
			out = append(out, fmt.Sprintf("%s: %s", column, row[i]))
		}
	}
	return strings.Join(out, ", ")
}
