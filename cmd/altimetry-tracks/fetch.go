package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twpayne/go-altimetry"
)

type fetchOptions struct {
	date    string
	bbox    string
	track   string
	beams   []string
	cycle   string
	product string
	granule string
	format  string
	crs     string
}

func newFetchCmd() *cobra.Command {
	var o fetchOptions
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the elevation points of one pass",
		Long: `Fetch the elevation points of all beams of one pass and write them as a
table with columns lat, lon, h, beam, cycle, time.

Examples:
  altimetry-tracks fetch --date 2020-06-15 --track 12 --cycle 7 --bbox -108.5,-75.5,-100,-74.25
  altimetry-tracks fetch --granule ATL06_20200615003456_00120710_005_01.h5 --bbox -108.5,-75.5,-100,-74.25 --crs epsg:3031`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, &o)
		},
	}
	flags := fetchCmd.Flags()
	flags.String("base-url", altimetry.DefaultBaseURL, "OpenAltimetry API base URL")
	flags.Float64("timeout-seconds", 0, "HTTP request timeout in seconds (0 for no timeout)")
	flags.StringVar(&o.date, "date", "", "acquisition date (yyyy-mm-dd)")
	flags.StringVar(&o.bbox, "bbox", "", "bounding box minx,miny,maxx,maxy (required)")
	flags.StringVar(&o.track, "track", "", "reference ground track")
	flags.StringSliceVar(&o.beams, "beams", altimetry.DefaultBeams, "beams")
	flags.StringVar(&o.cycle, "cycle", "", "cycle")
	flags.StringVar(&o.product, "product", altimetry.DefaultProduct, "product")
	flags.StringVar(&o.granule, "granule", "", "ATL06 granule filename to take track, date, and cycle from")
	flags.StringVar(&o.format, "format", "csv", "output format (csv, json)")
	flags.StringVar(&o.crs, "crs", "", "also output x and y in this CRS")
	_ = fetchCmd.MarkFlagRequired("bbox")
	return fetchCmd
}

func runFetch(cmd *cobra.Command, o *fetchOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if o.format != "csv" && o.format != "json" {
		return fmt.Errorf("%s: unsupported format", o.format)
	}

	bbox, err := parseBBox(o.bbox)
	if err != nil {
		return err
	}

	req := altimetry.TrackRequest{
		Date:    o.date,
		BBox:    bbox,
		TrackID: o.track,
		Beams:   o.beams,
		Cycle:   o.cycle,
		Product: o.product,
	}
	if o.granule != "" {
		granule, err := altimetry.ParseGranuleFilename(o.granule)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("date") {
			req.Date = granule.Time
		}
		if !cmd.Flags().Changed("track") {
			req.TrackID = granule.RGT
		}
		if !cmd.Flags().Changed("cycle") {
			req.Cycle = granule.Cycle
		}
	}

	logger := cfg.newLogger(cmd)
	client := altimetry.NewClient(cfg.BaseURL,
		altimetry.WithTimeout(cfg.timeout()),
		altimetry.WithLogger(logger),
	)
	track, err := client.FetchTrack(cmd.Context(), req)
	if err != nil {
		return err
	}
	logger.InfoContext(cmd.Context(), "fetched track",
		"track", req.TrackID,
		"date", req.Date,
		"rows", track.Len(),
	)

	if o.crs == "" {
		switch o.format {
		case "json":
			return track.WriteJSON(cmd.OutOrStdout())
		default:
			return track.WriteCSV(cmd.OutOrStdout())
		}
	}

	projector, err := altimetry.NewProjector()
	if err != nil {
		return err
	}
	coords, err := projector.Project(track.Points, o.crs)
	if err != nil {
		return err
	}
	switch o.format {
	case "json":
		return writeProjectedJSON(cmd.OutOrStdout(), track, coords)
	default:
		return writeProjectedCSV(cmd.OutOrStdout(), track, coords)
	}
}

func parseBBox(s string) (altimetry.BBox, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return altimetry.BBox{}, fmt.Errorf("%s: bbox must have 4 comma-separated values", s)
	}
	values := make([]float64, 4)
	for i, field := range fields {
		value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return altimetry.BBox{}, fmt.Errorf("%s: %w", s, err)
		}
		values[i] = value
	}
	return altimetry.BBox{
		MinX: values[0],
		MinY: values[1],
		MaxX: values[2],
		MaxY: values[3],
	}, nil
}

func writeProjectedCSV(w io.Writer, track *altimetry.Track, coords [][]float64) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(append(append([]string(nil), altimetry.Columns...), "x", "y")); err != nil {
		return err
	}
	for i, point := range track.Points {
		row := append(point.Row(),
			strconv.FormatFloat(coords[i][0], 'f', -1, 64),
			strconv.FormatFloat(coords[i][1], 'f', -1, 64),
		)
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

type projectedPoint struct {
	altimetry.Point
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func writeProjectedJSON(w io.Writer, track *altimetry.Track, coords [][]float64) error {
	projectedPoints := make([]projectedPoint, 0, len(track.Points))
	for i, point := range track.Points {
		projectedPoints = append(projectedPoints, projectedPoint{
			Point: point,
			X:     coords[i][0],
			Y:     coords[i][1],
		})
	}
	return json.NewEncoder(w).Encode(projectedPoints)
}
