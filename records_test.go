package gtfsfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords(t *testing.T) {
	feed := sampleFeed(t)

	routes := feed.Routes()
	require.Len(t, routes, 4)
	require.NotNil(t, routes[2].AgencyID)
	assert.Equal(t, "NCT", *routes[2].AgencyID)
	assert.Equal(t, "City", feed.Tables["routes"].Value(routes[2].Row, "route_long_name"))

	trips := feed.Trips()
	require.Len(t, trips, 6)
	assert.Equal(t, Trip{TripID: "AB1", RouteID: "AB", ServiceID: "FULLW", ShapeID: trips[0].ShapeID, Row: trips[0].Row}, trips[0])
	assert.Equal(t, "SH_AB", *trips[0].ShapeID)
	assert.Nil(t, trips[2].ShapeID, "empty shape_id is null")

	assert.Len(t, feed.Agencies(), 2)
	assert.Len(t, feed.StopTimes(), 13)
	assert.Equal(t, "GHOST1", feed.StopTimes()[12].TripID)
	assert.Len(t, feed.Stops(), 7)
	assert.Len(t, feed.ShapePoints(), 4)
	assert.Equal(t, []CalendarService{
		{ServiceID: "FULLW", Row: feed.Tables["calendar"].Rows[0]},
		{ServiceID: "WE", Row: feed.Tables["calendar"].Rows[1]},
	}, feed.Calendar())
	assert.Equal(t, "HOLIDAY", feed.CalendarDates()[1].ServiceID)
}

func TestRecordsOfAbsentTable(t *testing.T) {
	feed := scenarioFeed(t)
	assert.Nil(t, feed.ShapePoints())
	assert.Nil(t, feed.Calendar())
	assert.Nil(t, feed.CalendarDates())
}

func TestRouteWithoutAgency(t *testing.T) {
	feed := feedFromCSV(t, map[string]string{"routes.txt": "route_id,route_type\nR1,3\n"})
	assert.Equal(t, []Route{{RouteID: "R1", Row: Row{"R1", "3"}}}, feed.Routes())
}
