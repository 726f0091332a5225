package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var surveyHeader = []string{
	"ID", "SURVEY_ID", "REGION", "SUBREGION", "COUNTRY", "LOCATION", "SITE", "REEF_NAME",
	"DATE", "YEAR", "MONTH", "DEPTH_M", "WATER_TEMP_C",
	"LATITUDE", "LONGITUDE", "LIVE_CORAL", "PALE_CORAL", "BLEACHED_CORAL", "PALE_BLEACH_SUM",
}

// reefSite anchors generated rows near a real reef system.
type reefSite struct {
	region, subregion, country, location, site string
	lat, lon                                   float64
}

var reefSites = []reefSite{
	{"Pacific", "Central Pacific", "USA", "Oahu", "Kaneohe Bay", 21.456, -157.792},
	{"Pacific", "Great Barrier Reef", "Australia", "Queensland", "Lizard Island", -14.668, 145.459},
	{"Indian", "Maldives", "Maldives", "North Male", "Banana Reef", 4.238, 73.534},
	{"Caribbean", "Florida Keys", "USA", "Monroe", "Looe Key", 24.546, -81.406},
	{"Red Sea", "Northern Red Sea", "Egypt", "Hurghada", "Giftun", 27.231, 33.946},
	{"Pacific", "Coral Triangle", "Indonesia", "Raja Ampat", "Cape Kri", -0.556, 130.676},
}

var surveyStart = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)

type genmockOptions struct {
	rows int
	seed uint64
	// gapRate is the share of rows written with a blank latitude or n/a
	// severity, so the skip and default paths get exercised.
	gapRate float64
}

func newGenmockCmd() *cobra.Command {
	opts := genmockOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "genmock",
		Short: "Generate a mock survey CSV",
		Long: `Writes a survey CSV in the same 19-column layout as the real data set.
The same --seed always produces the same file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.rows < 0 {
				return errors.New("--rows must not be negative")
			}
			if opts.gapRate < 0 || opts.gapRate > 1 {
				return errors.New("--gap-rate must be between 0 and 1")
			}

			var dst io.Writer = cmd.OutOrStdout()
			var file *os.File
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				file, dst = f, f
			}
			err := writeSurvey(dst, opts)
			if file != nil {
				if cerr := file.Close(); err == nil && cerr != nil {
					err = fmt.Errorf("close %s: %w", out, cerr)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s survey rows\n", humanize.Comma(int64(opts.rows)))
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.rows, "rows", 100, "number of survey rows")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&opts.gapRate, "gap-rate", 0.05, "share of rows with missing values")
	cmd.Flags().StringVar(&out, "out", "", "CSV output path (default stdout)")
	return cmd
}

func writeSurvey(w io.Writer, opts genmockOptions) error {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)

	if err := cw.Write(surveyHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range opts.rows {
		if err := cw.Write(mockRow(rng, i+1, opts.gapRate)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func mockRow(rng *rand.Rand, id int, gapRate float64) []string {
	site := reefSites[rng.IntN(len(reefSites))]
	day := surveyStart.AddDate(0, 0, rng.IntN(4*365))

	live := rng.IntN(101)
	pale := rng.IntN(51)
	bleached := rng.IntN(51)

	lat := strconv.FormatFloat(site.lat+jitter(rng), 'f', 4, 64)
	lon := strconv.FormatFloat(site.lon+jitter(rng), 'f', 4, 64)
	paleS, bleachedS := strconv.Itoa(pale), strconv.Itoa(bleached)
	sum := strconv.Itoa(pale + bleached)

	if rng.Float64() < gapRate {
		if rng.IntN(2) == 0 {
			lat = ""
		} else {
			paleS, bleachedS, sum = "n/a", "n/a", "n/a"
		}
	}

	return []string{
		strconv.Itoa(id),
		fmt.Sprintf("RC-%04d", 1000+id),
		site.region, site.subregion, site.country, site.location, site.site,
		site.site + " " + strconv.Itoa(rng.IntN(20)+1),
		day.Format("2006-01-02"),
		strconv.Itoa(day.Year()),
		strconv.Itoa(int(day.Month())),
		strconv.Itoa(rng.IntN(20) + 1),
		strconv.FormatFloat(26+rng.Float64()*6, 'f', 1, 64),
		lat, lon,
		strconv.Itoa(live), paleS, bleachedS, sum,
	}
}

// jitter spreads points about a quarter degree around the site.
func jitter(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 0.5
}
