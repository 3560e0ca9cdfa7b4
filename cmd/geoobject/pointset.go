package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/typed"
)

func newCreatePointSetCmd(c *cli) *cobra.Command {
	var (
		name string
		epsg int
		out  string
		opts objectstore.CreateOptions
	)
	cmd := &cobra.Command{
		Use:   "create-pointset CSV",
		Short: "Create a point set from a CSV file",
		Long: "Reads a CSV file with a header row. The x, y and z columns are the point\n" +
			"coordinates; every other column becomes an attribute. Columns that parse as\n" +
			"numbers are stored as floats, the rest as strings. The object document is\n" +
			"written to --out, or to standard output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := readCSVFrame(args[0])
			if err != nil {
				return err
			}
			data := typed.PointSetData{
				BaseSpatialObjectData: typed.BaseSpatialObjectData{
					BaseObjectData: typed.BaseObjectData{Name: name},
				},
				Locations: locations,
			}
			if epsg != 0 {
				code, err := geom.NewEpsgCode(epsg)
				if err != nil {
					return err
				}
				data.CoordinateReferenceSystem = geom.EPSG(code)
			}

			ctx := cmd.Context()
			return c.withEnv(ctx, func(e *env) error {
				obj, err := typed.Create(ctx, e.session, data, opts)
				if err != nil {
					return err
				}
				w := c.out
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return printJSON(w, obj.Document())
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Object name (required)")
	cmd.Flags().IntVar(&epsg, "epsg", 0, "EPSG code of the coordinates")
	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write the object document to")
	cmd.Flags().StringVar(&opts.Path, "path", "", "Object path, ending in .json")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "Folder to create the object in")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// readCSVFrame reads a CSV file with a header row into a frame.
func readCSVFrame(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cols := make([]frame.Column, len(header))
	for i, name := range header {
		raw := make([]string, len(records))
		for j, rec := range records {
			raw[j] = rec[i]
		}
		cols[i] = frame.Column{Name: name, Values: parseColumn(raw)}
	}
	return frame.New(cols...)
}

// parseColumn returns []float64 when every value is a number, otherwise the
// strings unchanged.
func parseColumn(raw []string) any {
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return raw
		}
		out[i] = v
	}
	return out
}
