package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/coral-bleaching-map/internal/adapter/csvfile"
	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
	"github.com/couchcryptid/coral-bleaching-map/internal/pipeline"
)

func newClassifyCmd(logger func(io.Writer) *slog.Logger) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a survey CSV into GeoJSON markers",
		Long: `Reads a survey CSV, sorts it by pale + bleached severity and writes one
GeoJSON point per row with usable coordinates. Without --out the collection
goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dst io.Writer = cmd.OutOrStdout()
			var file *os.File
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				file, dst = f, f
			}
			res, n, err := classify(cmd.Context(), in, dst, logger(cmd.ErrOrStderr()))
			if file != nil {
				if cerr := file.Close(); err == nil && cerr != nil {
					err = fmt.Errorf("close %s: %w", out, cerr)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s rows, %s markers, %s skipped, %s written\n",
				humanize.Comma(int64(res.Rows)),
				humanize.Comma(int64(len(res.Markers))),
				humanize.Comma(int64(res.Skipped)),
				humanize.Bytes(uint64(n)))
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "survey CSV to classify")
	cmd.Flags().StringVar(&out, "out", "", "GeoJSON output path (default stdout)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// classify runs the survey at path through the transformer and writes the
// resulting feature collection to w. It returns the bytes written.
func classify(ctx context.Context, path string, w io.Writer, logger *slog.Logger) (pipeline.Result, int, error) {
	records, err := csvfile.NewReader(path).ExtractRecords(ctx)
	if err != nil {
		return pipeline.Result{}, 0, err
	}
	res, err := pipeline.NewTransformer(logger).Transform(ctx, records)
	if err != nil {
		return pipeline.Result{}, 0, fmt.Errorf("classify %s: %w", path, err)
	}

	data, err := domain.FeatureCollection(res.Markers, nil).MarshalJSON()
	if err != nil {
		return pipeline.Result{}, 0, fmt.Errorf("encode markers: %w", err)
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	if err != nil {
		return pipeline.Result{}, n, fmt.Errorf("write markers: %w", err)
	}
	return res, n, nil
}
