package gtfsfilter

// NOTE: Only the foreign ids the cascade relies on are described here. Other GTFS
// references (parent_station, level_id, transfers, ...) are not checked.

type tableSchema struct {
	Required   bool
	PrimaryKey []string
	ForeignIDs map[string]foreignIDSchema // column -> referenced column
}

type foreignIDSchema struct {
	Table  string
	Column string
	AnyOf  []foreignIDSchema
}

// candidates normalizes the schema to its AnyOf form.
func (s foreignIDSchema) candidates() []foreignIDSchema {
	if len(s.AnyOf) > 0 {
		if s.Table != "" || s.Column != "" {
			panic("If AnyOf cannot have Table or Column")
		}
		return s.AnyOf
	}
	return []foreignIDSchema{{Table: s.Table, Column: s.Column}}
}

var gtfsSchema = map[string]tableSchema{
	"agency": {
		Required:   true,
		PrimaryKey: []string{"agency_id"},
	},
	"routes": {
		Required:   true,
		PrimaryKey: []string{"route_id"},
		ForeignIDs: map[string]foreignIDSchema{
			"agency_id": {Table: "agency", Column: "agency_id"},
		},
	},
	"trips": {
		Required:   true,
		PrimaryKey: []string{"trip_id"},
		ForeignIDs: map[string]foreignIDSchema{
			"route_id": {Table: "routes", Column: "route_id"},
			"service_id": {AnyOf: []foreignIDSchema{
				{Table: "calendar", Column: "service_id"},
				{Table: "calendar_dates", Column: "service_id"},
			}},
			"shape_id": {Table: "shapes", Column: "shape_id"},
		},
	},
	"stop_times": {
		Required:   true,
		PrimaryKey: []string{"trip_id", "stop_sequence"},
		ForeignIDs: map[string]foreignIDSchema{
			"trip_id": {Table: "trips", Column: "trip_id"},
			"stop_id": {Table: "stops", Column: "stop_id"},
		},
	},
	"stops": {
		Required:   true,
		PrimaryKey: []string{"stop_id"},
	},
	"shapes": {
		PrimaryKey: []string{"shape_id", "shape_pt_sequence"},
	},
	"calendar": {
		PrimaryKey: []string{"service_id"},
	},
	"calendar_dates": {
		PrimaryKey: []string{"service_id", "date"},
	},
}

// extendedSchema describes the tables the extended cascade filters. Without
// FilterOpts.Extended they are passed through untouched.
var extendedSchema = map[string]tableSchema{
	"frequencies": {
		PrimaryKey: []string{"trip_id", "start_time"},
		ForeignIDs: map[string]foreignIDSchema{
			"trip_id": {Table: "trips", Column: "trip_id"},
		},
	},
	"fare_rules": {
		ForeignIDs: map[string]foreignIDSchema{
			"route_id": {Table: "routes", Column: "route_id"},
		},
	},
	"route_networks": {
		PrimaryKey: []string{"route_id"},
		ForeignIDs: map[string]foreignIDSchema{
			"route_id": {Table: "routes", Column: "route_id"},
		},
	},
}

func requiredTables() []string {
	var names []string
	for _, s := range defaultCascade {
		if gtfsSchema[s.Table].Required {
			names = append(names, s.Table)
		}
	}
	return names
}

// schemaFor returns the schema of every table the cascade is responsible for.
func schemaFor(extended bool) map[string]tableSchema {
	out := make(map[string]tableSchema, len(gtfsSchema)+len(extendedSchema))
	for name, s := range gtfsSchema {
		out[name] = s
	}
	if extended {
		for name, s := range extendedSchema {
			out[name] = s
		}
	}
	return out
}
