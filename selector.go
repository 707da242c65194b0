package gtfsfilter

import (
	"fmt"
	"slices"
	"strings"
)

type Kind string

const (
	ByAgency Kind = "agency"
	ByRoute  Kind = "route"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case ByAgency, ByRoute:
		return k, nil
	default:
		return "", fmt.Errorf("%w: filter kind must be 'agency' or 'route', got %q", ErrInvalidCriterion, s)
	}
}

// Criterion selects the routes a filtered feed is built around. For ByAgency only the
// first value is used.
type Criterion struct {
	Kind   Kind
	Values []string
}

func AgencyCriterion(agencyID string) Criterion {
	return Criterion{Kind: ByAgency, Values: []string{agencyID}}
}

func RouteCriterion(routeIDs ...string) Criterion {
	return Criterion{Kind: ByRoute, Values: routeIDs}
}

// clean validates c without looking at any table and returns the values to match.
func (c Criterion) clean() ([]string, error) {
	switch c.Kind {
	case ByAgency:
		if len(c.Values) == 0 || c.Values[0] == "" {
			return nil, fmt.Errorf("%w: no agency_id was provided", ErrInvalidCriterion)
		}
		return c.Values[:1], nil
	case ByRoute:
		var ids []string
		for _, v := range c.Values {
			if v != "" && !slices.Contains(ids, v) {
				ids = append(ids, v)
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: no route_ids were provided", ErrInvalidCriterion)
		}
		slices.Sort(ids)
		return ids, nil
	default:
		return nil, fmt.Errorf("%w: filter kind must be 'agency' or 'route', got %q", ErrInvalidCriterion, c.Kind)
	}
}

func describe(kind Kind, values []string) string {
	if kind == ByAgency {
		return fmt.Sprintf("agency_id == '%s'", values[0])
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return fmt.Sprintf("route_id in [%s]", strings.Join(quoted, ", "))
}

type selection struct {
	routes     *Table
	descriptor string
	missing    []string // requested route ids that matched nothing
}

func resolveSelection(feed *Feed, kind Kind, values []string) (*selection, error) {
	descriptor := describe(kind, values)
	routes, _ := feed.Table("routes")

	switch kind {
	case ByAgency:
		agencyID := values[0]
		agency, _ := feed.Table("agency")
		known := agency.filter(func(row Row) bool {
			return agencyOf(agency, row).AgencyID == agencyID
		})
		if err := requireNonEmpty("agency", known.Len(), descriptor); err != nil {
			return nil, err
		}

		selected := routes.filter(func(row Row) bool {
			r := routeOf(routes, row)
			return r.AgencyID != nil && *r.AgencyID == agencyID
		})
		if err := requireNonEmpty("routes", selected.Len(), descriptor); err != nil {
			return nil, err
		}
		return &selection{routes: selected, descriptor: descriptor}, nil

	default:
		requested := make(keySet, len(values))
		for _, v := range values {
			requested[v] = struct{}{}
		}
		selected := routes.filter(func(row Row) bool {
			return requested.has(routeOf(routes, row).RouteID)
		})

		present := selected.distinct("route_id")
		var missing []string
		for _, v := range values {
			if !present.has(v) {
				missing = append(missing, v)
			}
		}
		if selected.Len() == 0 {
			return nil, &StageError{Stage: "routes", Criterion: descriptor, Missing: missing}
		}
		return &selection{routes: selected, descriptor: descriptor, missing: missing}, nil
	}
}
