package gtfsfilter

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFromCSV(t *testing.T, files map[string]string) *Feed {
	t.Helper()
	feed := NewFeed()
	for name, contents := range files {
		open := func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(contents)), nil }
		require.NoError(t, readMemberIn(feed, name, open))
	}
	return feed
}

func scenarioFiles() map[string]string {
	return map[string]string{
		"agency.txt":     "agency_id,agency_name\nA,Agency A\nB,Agency B\n",
		"routes.txt":     "route_id,agency_id\nR1,A\nR2,B\n",
		"trips.txt":      "trip_id,route_id,service_id\nT1,R1,WK\nT2,R2,WK\n",
		"stop_times.txt": "trip_id,stop_id,stop_sequence\nT1,S1,1\nT2,S2,1\n",
		"stops.txt":      "stop_id,stop_name\nS1,One\nS2,Two\n",
	}
}

func scenarioFeed(t *testing.T) *Feed {
	return feedFromCSV(t, scenarioFiles())
}

func sampleFeed(t *testing.T) *Feed {
	t.Helper()
	feed, err := ReadArchive("./sample_data/sample-multiagency-feed.zip")
	require.NoError(t, err)
	return feed
}

func columnOf(t *testing.T, feed *Feed, table, column string) []string {
	t.Helper()
	tbl, ok := feed.Table(table)
	require.True(t, ok, "missing table %s", table)
	values := []string{}
	for _, row := range tbl.Rows {
		values = append(values, tbl.Value(row, column))
	}
	return values
}

var ignoreColumnIndex = cmpopts.IgnoreUnexported(Table{})

func TestFilterByAgency(t *testing.T) {
	out, report, err := Filter(scenarioFeed(t), AgencyCriterion("A"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, columnOf(t, out, "agency", "agency_id"))
	assert.Equal(t, []string{"R1"}, columnOf(t, out, "routes", "route_id"))
	assert.Equal(t, []string{"T1"}, columnOf(t, out, "trips", "trip_id"))
	assert.Equal(t, []string{"T1"}, columnOf(t, out, "stop_times", "trip_id"))
	assert.Equal(t, []string{"S1"}, columnOf(t, out, "stop_times", "stop_id"))
	assert.Equal(t, []string{"S1"}, columnOf(t, out, "stops", "stop_id"))

	for _, optional := range []string{"shapes", "calendar", "calendar_dates"} {
		_, ok := out.Table(optional)
		assert.False(t, ok, "%s should not be fabricated", optional)
	}

	assert.Equal(t, []string{
		"agency.txt: kept 1 of 2 rows (agency_id == 'A')",
		"routes.txt: kept 1 of 2 rows (agency_id == 'A')",
		"trips.txt: kept 1 of 2 rows (trips of 1 selected routes)",
		"stop_times.txt: kept 1 of 2 rows (stop times of 1 filtered trips)",
		"stops.txt: kept 1 of 2 rows (1 stops referenced by remaining stop_times)",
	}, report.Lines())
}

func TestFilterByRoutesReportsMissing(t *testing.T) {
	out, report, err := Filter(scenarioFeed(t), RouteCriterion("R9", "R2", "R2", ""), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"R2"}, columnOf(t, out, "routes", "route_id"))
	assert.Equal(t, []string{"B"}, columnOf(t, out, "agency", "agency_id"))
	assert.Equal(t, []string{"T2"}, columnOf(t, out, "trips", "trip_id"))
	assert.Equal(t, []string{"S2"}, columnOf(t, out, "stops", "stop_id"))

	entries := report.For("routes.txt")
	require.Len(t, entries, 2)
	assert.Equal(t, EntryMissing, entries[0].Kind)
	assert.Equal(t, []string{"R9"}, entries[0].Identifiers)
	assert.Equal(t, "missing identifiers: [R9]", entries[0].Message())
	assert.Equal(t, "kept 1 of 2 rows (route_id in ['R2', 'R9'])", entries[1].Message())
	assert.Equal(t, "route_id in ['R2', 'R9']", report.Criterion)
}

func TestFilterByUnknownRoutes(t *testing.T) {
	out, report, err := Filter(scenarioFeed(t), RouteCriterion("R9", "R8"), nil)
	require.ErrorIs(t, err, ErrSelectionEmpty)
	assert.Nil(t, out)
	assert.Nil(t, report)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "routes", stageErr.Stage)
	assert.Equal(t, []string{"R8", "R9"}, stageErr.Missing)
	assert.Contains(t, err.Error(), "missing identifiers: [R8, R9]")
}

func TestFilterByUnknownAgency(t *testing.T) {
	_, _, err := Filter(scenarioFeed(t), AgencyCriterion("Z"), nil)
	require.ErrorIs(t, err, ErrSelectionEmpty)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "agency", stageErr.Stage)
	assert.Equal(t, "agency_id == 'Z'", stageErr.Criterion)
}

func TestFilterByAgencyWithoutRoutes(t *testing.T) {
	files := scenarioFiles()
	files["agency.txt"] += "C,Agency C\n"

	_, _, err := Filter(feedFromCSV(t, files), AgencyCriterion("C"), nil)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "routes", stageErr.Stage)
}

func TestFilterAbortsWithoutTrips(t *testing.T) {
	files := scenarioFiles()
	files["routes.txt"] += "R3,A\n"

	out, _, err := Filter(feedFromCSV(t, files), RouteCriterion("R3"), nil)
	require.ErrorIs(t, err, ErrSelectionEmpty)
	assert.Nil(t, out)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "trips", stageErr.Stage)
}

func TestFilterInvalidCriterion(t *testing.T) {
	criteria := map[string]Criterion{
		"unknown kind":          {Kind: "stop", Values: []string{"S1"}},
		"no agency":             {Kind: ByAgency},
		"blank agency":          AgencyCriterion(""),
		"blank routes":          RouteCriterion("", ""),
		"no route values":       {Kind: ByRoute},
		"kind is checked first": {Kind: "", Values: []string{"R1"}},
	}
	for name, c := range criteria {
		t.Run(name, func(t *testing.T) {
			// An empty feed would fail with ErrMissingTable if tables were looked at.
			_, _, err := Filter(NewFeed(), c, nil)
			require.ErrorIs(t, err, ErrInvalidCriterion)
		})
	}
}

func TestFilterMissingTable(t *testing.T) {
	files := scenarioFiles()
	delete(files, "stops.txt")

	_, _, err := Filter(feedFromCSV(t, files), AgencyCriterion("A"), nil)
	require.ErrorIs(t, err, ErrMissingTable)
	assert.Contains(t, err.Error(), "stops.txt")
}

func TestFilterAllowsEmptyDownstreamTables(t *testing.T) {
	files := scenarioFiles()
	files["stop_times.txt"] = "trip_id,stop_id,stop_sequence\nT2,S2,1\n"
	files["shapes.txt"] = "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\nSH1,0,0,1\n"

	out, report, err := Filter(feedFromCSV(t, files), AgencyCriterion("A"), nil)
	require.NoError(t, err)

	for _, table := range []string{"stop_times", "stops", "shapes"} {
		tbl, ok := out.Table(table)
		require.True(t, ok)
		assert.Equal(t, 0, tbl.Len(), table)
		assert.NotEmpty(t, tbl.Header, "%s keeps its header", table)
	}
	assert.Equal(t, "kept 0 of 1 rows (0 shapes referenced by filtered trips)", report.For("shapes.txt")[0].Message())
}

func TestFilterDropsDanglingReferences(t *testing.T) {
	files := scenarioFiles()
	files["stop_times.txt"] += "T9,S1,1\n"
	files["trips.txt"] += "T3,R9,WK\n"

	out, _, err := Filter(feedFromCSV(t, files), RouteCriterion("R1", "R2"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, columnOf(t, out, "trips", "trip_id"))
	assert.Equal(t, []string{"T1", "T2"}, columnOf(t, out, "stop_times", "trip_id"))
}

func TestFilterSampleFeedByAgency(t *testing.T) {
	feed := sampleFeed(t)
	out, report, err := Filter(feed, AgencyCriterion("NCT"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"CITY", "AAMV"}, columnOf(t, out, "routes", "route_id"))
	assert.Equal(t, []string{"CITY1", "CITY2", "AAMV1"}, columnOf(t, out, "trips", "trip_id"))
	assert.Equal(t, []string{"BEATTY_AIRPORT", "STAGECOACH", "NADAV", "EMSI", "AMV"}, columnOf(t, out, "stops", "stop_id"))
	assert.Equal(t, []string{"SH_CITY", "SH_CITY"}, columnOf(t, out, "shapes", "shape_id"))
	assert.Equal(t, []string{"FULLW", "WE"}, columnOf(t, out, "calendar", "service_id"))
	// HOLIDAY has no calendar.txt row but is used by CITY2.
	assert.Equal(t, []string{"FULLW", "HOLIDAY"}, columnOf(t, out, "calendar_dates", "service_id"))

	for _, name := range []string{"fare_rules", "feed_info", "frequencies"} {
		got, ok := out.Table(name)
		require.True(t, ok)
		assert.Same(t, feed.Tables[name], got)
	}
	assert.Equal(t, []byte("{}\n"), out.Files["notes.json"])

	var copied []string
	for _, e := range report.Entries {
		if e.Kind == EntryCopied {
			copied = append(copied, e.File)
		}
	}
	assert.Equal(t, []string{"fare_rules.txt", "feed_info.txt", "frequencies.txt", "notes.json"}, copied)

	assert.Empty(t, Validate(out, nil))
}

func TestFilterWithoutOptionalTables(t *testing.T) {
	feed, err := ReadArchive("./sample_data/no-shapes-no-calendar.zip")
	require.NoError(t, err)

	out, report, err := Filter(feed, AgencyCriterion("NCT"), nil)
	require.NoError(t, err)

	_, hasShapes := out.Table("shapes")
	_, hasCalendar := out.Table("calendar")
	assert.False(t, hasShapes)
	assert.False(t, hasCalendar)
	assert.Empty(t, report.For("shapes.txt"))
	assert.Equal(t, []string{"FULLW", "HOLIDAY"}, columnOf(t, out, "calendar_dates", "service_id"))
}

func TestFilterExtended(t *testing.T) {
	out, report, err := Filter(sampleFeed(t), AgencyCriterion("DTA"), &FilterOpts{Extended: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"AB1"}, columnOf(t, out, "frequencies", "trip_id"))
	// Fare rules without a route apply to every route and are kept.
	assert.Equal(t, []string{"p", "x"}, columnOf(t, out, "fare_rules", "fare_id"))
	_, hasNetworks := out.Table("route_networks")
	assert.False(t, hasNetworks)

	for _, e := range report.For("frequencies.txt") {
		assert.Equal(t, EntryKept, e.Kind)
	}
	assert.Empty(t, Validate(out, &FilterOpts{Extended: true}))
}

func TestFilterIsIdempotent(t *testing.T) {
	criteria := []Criterion{
		AgencyCriterion("NCT"),
		AgencyCriterion("DTA"),
		RouteCriterion("AB", "CITY", "NOPE"),
	}
	for _, c := range criteria {
		t.Run(string(c.Kind)+"/"+strings.Join(c.Values, ","), func(t *testing.T) {
			once, _, err := Filter(sampleFeed(t), c, nil)
			require.NoError(t, err)
			twice, _, err := Filter(once, c, nil)
			require.NoError(t, err)

			if diff := cmp.Diff(once, twice, ignoreColumnIndex); diff != "" {
				t.Errorf("re-filtering changed the feed (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestFilterByEveryRouteKeepsConnectedFeed(t *testing.T) {
	feed := sampleFeed(t)

	out, _, err := Filter(feed, RouteCriterion(columnOf(t, feed, "routes", "route_id")...), nil)
	require.NoError(t, err)

	for _, table := range []string{"agency", "routes", "trips", "stops", "shapes", "calendar", "calendar_dates"} {
		assert.Equal(t, feed.Tables[table].Rows, out.Tables[table].Rows, table)
	}
	// Only the stop time of the trip that does not exist is dropped.
	assert.Equal(t, feed.Tables["stop_times"].Len()-1, out.Tables["stop_times"].Len())
	assert.NotContains(t, columnOf(t, out, "stop_times", "trip_id"), "GHOST1")
}

func TestFilterByAgencyKeepsExactlyItsTrips(t *testing.T) {
	feed := sampleFeed(t)

	agencyOfRoute := make(map[string]string)
	for _, r := range feed.Routes() {
		agencyOfRoute[r.RouteID] = *r.AgencyID
	}

	for _, a := range feed.Agencies() {
		out, _, err := Filter(feed, AgencyCriterion(a.AgencyID), nil)
		require.NoError(t, err)

		var expected []string
		for _, trip := range feed.Trips() {
			if agencyOfRoute[trip.RouteID] == a.AgencyID {
				expected = append(expected, trip.TripID)
			}
		}
		var got []string
		for _, trip := range out.Trips() {
			got = append(got, trip.TripID)
		}
		assert.Equal(t, expected, got, a.AgencyID)
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	feed := sampleFeed(t)
	before := sampleFeed(t)

	_, _, err := Filter(feed, RouteCriterion("BFC"), &FilterOpts{Extended: true})
	require.NoError(t, err)

	if diff := cmp.Diff(before, feed, ignoreColumnIndex); diff != "" {
		t.Errorf("input feed changed:\n%s", diff)
	}
}
