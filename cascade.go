package gtfsfilter

import (
	"fmt"
)

// stage keeps the rows of Table whose Column value is among the values of
// ParentColumn in the already filtered Parent table.
type stage struct {
	Table        string
	Column       string
	Parent       string
	ParentColumn string

	// Required stages abort the filter when they keep nothing.
	Required bool
	// Seeded stages are computed by the selector and only reported here.
	Seeded bool
	// KeepNull keeps rows whose Column is empty, for references that are optional.
	KeepNull bool
	// Reason is reported next to the row counts. It is a format with one %d, the
	// number of distinct parent keys. An empty Reason reports the criterion.
	Reason string
}

var defaultCascade = []stage{
	{Table: "agency", Column: "agency_id", Parent: "routes", ParentColumn: "agency_id"},
	{Table: "routes", Seeded: true, Required: true},
	{Table: "trips", Column: "route_id", Parent: "routes", ParentColumn: "route_id", Required: true,
		Reason: "trips of %d selected routes"},
	{Table: "stop_times", Column: "trip_id", Parent: "trips", ParentColumn: "trip_id",
		Reason: "stop times of %d filtered trips"},
	{Table: "stops", Column: "stop_id", Parent: "stop_times", ParentColumn: "stop_id",
		Reason: "%d stops referenced by remaining stop_times"},
	{Table: "shapes", Column: "shape_id", Parent: "trips", ParentColumn: "shape_id",
		Reason: "%d shapes referenced by filtered trips"},
	{Table: "calendar", Column: "service_id", Parent: "trips", ParentColumn: "service_id",
		Reason: "%d services used by filtered trips"},
	// Joined through trips rather than calendar so services defined only by
	// exceptions survive.
	{Table: "calendar_dates", Column: "service_id", Parent: "trips", ParentColumn: "service_id",
		Reason: "%d services used by filtered trips"},
}

var extendedCascade = []stage{
	{Table: "frequencies", Column: "trip_id", Parent: "trips", ParentColumn: "trip_id",
		Reason: "frequencies of %d filtered trips"},
	{Table: "fare_rules", Column: "route_id", Parent: "routes", ParentColumn: "route_id", KeepNull: true,
		Reason: "fare rules of %d selected routes"},
	{Table: "route_networks", Column: "route_id", Parent: "routes", ParentColumn: "route_id",
		Reason: "networks of %d selected routes"},
}

func cascadeFor(extended bool) []stage {
	if !extended {
		return defaultCascade
	}
	return append(append([]stage{}, defaultCascade...), extendedCascade...)
}

// semiJoin keeps the rows of t whose column value is in keys, preserving order.
func semiJoin(t *Table, column string, keys keySet, keepNull bool) *Table {
	return t.filter(func(row Row) bool {
		v := t.Value(row, column)
		if v == "" {
			return keepNull
		}
		return keys.has(v)
	})
}

// runCascade executes stages in order against in, adding each filtered table to out.
// out must already hold the seeded tables. Stages whose table is absent from in
// are skipped, so optional tables are never fabricated.
func runCascade(in, out *Feed, stages []stage, sel *selection, report *Report) error {
	for _, s := range stages {
		source, ok := in.Table(s.Table)
		if !ok {
			continue
		}

		if s.Seeded {
			kept, _ := out.Table(s.Table)
			if len(sel.missing) > 0 {
				report.missing(source.FileName(), sel.missing)
			}
			report.kept(source.FileName(), kept.Len(), source.Len(), sel.descriptor)
			if s.Required {
				if err := requireNonEmpty(s.Table, kept.Len(), sel.descriptor); err != nil {
					return err
				}
			}
			continue
		}

		keys := make(keySet)
		if parent, ok := out.Table(s.Parent); ok {
			keys = parent.distinct(s.ParentColumn)
		}
		kept := semiJoin(source, s.Column, keys, s.KeepNull)
		out.AddTable(kept)

		reason := sel.descriptor
		if s.Reason != "" {
			reason = fmt.Sprintf(s.Reason, len(keys))
		}
		report.kept(source.FileName(), kept.Len(), source.Len(), reason)

		if s.Required {
			if err := requireNonEmpty(s.Table, kept.Len(), sel.descriptor); err != nil {
				return err
			}
		}
	}
	return nil
}
