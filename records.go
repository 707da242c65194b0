package gtfsfilter

// Typed views over the known tables. Each record carries only the key columns;
// the full source Row is kept so nothing is lost when the row is written back out.

type Agency struct {
	AgencyID string
	Row      Row
}

type Route struct {
	RouteID  string
	AgencyID *string
	Row      Row
}

type Trip struct {
	TripID    string
	RouteID   string
	ServiceID string
	ShapeID   *string
	Row       Row
}

type StopTime struct {
	TripID string
	StopID string
	Row    Row
}

type Stop struct {
	StopID string
	Row    Row
}

type ShapePoint struct {
	ShapeID string
	Row     Row
}

type CalendarService struct {
	ServiceID string
	Row       Row
}

type CalendarDate struct {
	ServiceID string
	Row       Row
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func agencyOf(t *Table, row Row) Agency {
	return Agency{AgencyID: t.Value(row, "agency_id"), Row: row}
}

func routeOf(t *Table, row Row) Route {
	return Route{
		RouteID:  t.Value(row, "route_id"),
		AgencyID: optional(t.Value(row, "agency_id")),
		Row:      row,
	}
}

func tripOf(t *Table, row Row) Trip {
	return Trip{
		TripID:    t.Value(row, "trip_id"),
		RouteID:   t.Value(row, "route_id"),
		ServiceID: t.Value(row, "service_id"),
		ShapeID:   optional(t.Value(row, "shape_id")),
		Row:       row,
	}
}

func stopTimeOf(t *Table, row Row) StopTime {
	return StopTime{TripID: t.Value(row, "trip_id"), StopID: t.Value(row, "stop_id"), Row: row}
}

func stopOf(t *Table, row Row) Stop {
	return Stop{StopID: t.Value(row, "stop_id"), Row: row}
}

func shapePointOf(t *Table, row Row) ShapePoint {
	return ShapePoint{ShapeID: t.Value(row, "shape_id"), Row: row}
}

func calendarServiceOf(t *Table, row Row) CalendarService {
	return CalendarService{ServiceID: t.Value(row, "service_id"), Row: row}
}

func calendarDateOf(t *Table, row Row) CalendarDate {
	return CalendarDate{ServiceID: t.Value(row, "service_id"), Row: row}
}

func records[T any](f *Feed, table string, decode func(*Table, Row) T) []T {
	t, ok := f.Table(table)
	if !ok {
		return nil
	}
	out := make([]T, 0, t.Len())
	for _, row := range t.Rows {
		out = append(out, decode(t, row))
	}
	return out
}

func (f *Feed) Agencies() []Agency            { return records(f, "agency", agencyOf) }
func (f *Feed) Routes() []Route               { return records(f, "routes", routeOf) }
func (f *Feed) Trips() []Trip                 { return records(f, "trips", tripOf) }
func (f *Feed) StopTimes() []StopTime         { return records(f, "stop_times", stopTimeOf) }
func (f *Feed) Stops() []Stop                 { return records(f, "stops", stopOf) }
func (f *Feed) ShapePoints() []ShapePoint     { return records(f, "shapes", shapePointOf) }
func (f *Feed) Calendar() []CalendarService   { return records(f, "calendar", calendarServiceOf) }
func (f *Feed) CalendarDates() []CalendarDate { return records(f, "calendar_dates", calendarDateOf) }
