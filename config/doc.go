// Package config loads filter jobs from YAML files.
//
// A job names the feed to read, where to write the result and which routes to keep:
//
//	input: GTFS-IN/feed.zip
//	output: GTFS-OUT/filtered.zip
//	filter:
//	  kind: route
//	  values_file: routes.csv
//	extended: true
package config
