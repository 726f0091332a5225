// Command coralctl works with coral bleaching survey files offline: it
// classifies a survey into GeoJSON markers and generates mock surveys for
// local runs and tests.
//
// Usage:
//
//	go run ./cmd/coralctl classify --in data/coral_bleaching.csv --out markers.geojson
//	go run ./cmd/coralctl genmock --rows 200 --seed 7 --out data/mock_survey.csv
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
