// Package domain models coral reef bleaching survey data and the dated
// satellite imagery layers it is displayed over.
//
// # Data Source
//
// Survey rows come from a reef bleaching CSV export. The file carries a header
// row and usually a trailing blank line; both are discarded. Only a handful of
// the columns are used:
//
//	13  latitude (decimal degrees)
//	14  longitude (decimal degrees)
//	15  live coral percentage
//	16  pale coral percentage
//	17  bleached coral percentage
//	18  pale + bleached severity sum
//
// Rows shorter than a coordinate column, or with blank or non-numeric
// coordinates, are dropped. See [CoralRow.Coordinates].
//
// # Number Parsing
//
// Severity and size columns are read the way a browser's parseInt reads them:
// leading whitespace and an optional sign, then as many decimal digits as are
// present. "12.7" reads as 12, "40%" as 40, "abc" fails. A failed parse never
// surfaces as an error; it lands the row in the default class.
//
// # Classification
//
// Color bands come from the severity sum (column 18):
//
//	10 < v < 25    band 1  #6D4B08
//	25 <= v < 50   band 2  #AA8439
//	50 <= v < 75   band 3  #E7C889
//	75 <= v <= 100 band 4  #FFF3DA
//	otherwise      band 0  #2f2000
//
// The first band excludes both 10 and 25 while the others include their lower
// edge. That asymmetry exists in the survey tooling the colors were taken
// from and is kept as is.
//
// Marker size comes from live coral (column 15): above 66 large, above 33
// medium, otherwise small.
//
// # Imagery
//
// Dated overlays are served by NASA GIBS as WMTS tiles addressed by layer,
// ISO day, tile matrix set, and z/y/x. Imagery for the current day is not yet
// published, so sessions anchor "today" one or two days in the past.
package domain
