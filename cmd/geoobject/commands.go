package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/typed"
)

var printOptions = ojg.Options{Indent: 2, Sort: true}

// printJSON writes v as indented JSON with sorted keys.
func printJSON(w io.Writer, v any) error {
	_, err := fmt.Fprintln(w, oj.JSON(v, &printOptions))
	return err
}

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check object documents and their bulk data",
		Long: "Loads each document as its registered object type, checks its invariants and\n" +
			"confirms every bulk data reference exists in the data store. Nothing is stored.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withEnv(ctx, func(e *env) error {
				failed := 0
				for _, path := range args {
					kind, err := validateFile(cmd, e, path)
					if err != nil {
						failed++
						fmt.Fprintf(c.out, "FAIL\t%s\t%v\n", path, err)
						continue
					}
					fmt.Fprintf(c.out, "ok\t%s\t%s\n", path, kind)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d documents failed validation", failed, len(args))
				}
				return nil
			})
		},
	}
}

func validateFile(cmd *cobra.Command, e *env, path string) (string, error) {
	doc, err := readDocument(path)
	if err != nil {
		return "", err
	}
	obj, err := e.check(cmd.Context(), doc)
	if err != nil {
		return "", err
	}
	missing, err := e.missingData(cmd.Context(), doc)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing bulk data %v", missing)
	}
	return obj.SubClassification(), nil
}

func newInspectCmd(c *cli) *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "inspect [FILE]",
		Short: "Print a summary of an object",
		Long:  "Summarizes a document on disk, or with --ref an object in the object store.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (ref == "") == (len(args) == 0) {
				return errors.New("inspect needs exactly one of FILE or --ref")
			}
			ctx := cmd.Context()
			return c.withEnv(ctx, func(e *env) error {
				var obj typed.Object
				var err error
				if ref != "" {
					obj, err = typed.FromReference(ctx, e.session, ref)
				} else {
					var doc model.Document
					if doc, err = readDocument(args[0]); err == nil {
						obj, err = e.check(ctx, doc)
					}
				}
				if err != nil {
					return err
				}
				summary, err := describe(obj)
				if err != nil {
					return err
				}
				return printJSON(c.out, summary)
			})
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "Object ID or path in the object store")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	var opts objectstore.CreateOptions
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a validated document in the object store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withEnv(ctx, func(e *env) error {
				doc, err := readDocument(args[0])
				if err != nil {
					return err
				}
				if _, err := e.check(ctx, doc); err != nil {
					return err
				}
				if missing, err := e.missingData(ctx, doc); err != nil {
					return err
				} else if len(missing) > 0 {
					return fmt.Errorf("missing bulk data %v", missing)
				}
				delete(doc, "uuid")
				stored, err := e.session.Objects.Create(ctx, doc, opts)
				if err != nil {
					return err
				}
				meta := stored.Metadata()
				c.logger.Info("imported object", "id", meta.ID, "path", meta.Path, "file", args[0])
				return printJSON(c.out, metadataSummary(meta))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Path, "path", "", "Object path, ending in .json")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "Folder to create the object in, named after the document")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print bulk data store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd.Context(), func(e *env) error {
				count, size, err := e.blobs.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(c.out, map[string]any{
					"path":  c.cfg.sqliteConfig().Path,
					"blobs": count,
					"bytes": size,
				})
			})
		},
	}
}

func metadataSummary(meta model.Metadata) map[string]any {
	return map[string]any{
		"id":      meta.ID,
		"path":    meta.Path,
		"schema":  meta.SchemaID,
		"version": meta.VersionID,
	}
}

// describe summarizes an object for display.
func describe(obj typed.Object) (map[string]any, error) {
	name, err := obj.Name()
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"type": obj.SubClassification(),
		"name": name,
	}
	if m, ok := obj.(interface{ Metadata() (model.Metadata, bool) }); ok {
		if meta, ok := m.Metadata(); ok {
			out["schema"] = meta.SchemaID
		}
	}
	if s, ok := obj.(interface {
		BoundingBox() (geom.BoundingBox, error)
		CoordinateReferenceSystem() (geom.CRS, error)
	}); ok {
		box, err := s.BoundingBox()
		if err != nil {
			return nil, err
		}
		out["bounding_box"] = map[string]any{
			"min_x": box.MinX, "max_x": box.MaxX,
			"min_y": box.MinY, "max_y": box.MaxY,
			"min_z": box.MinZ, "max_z": box.MaxZ,
		}
		crs, err := s.CoordinateReferenceSystem()
		if err != nil {
			return nil, err
		}
		out["coordinate_reference_system"] = crs.String()
	}
	if g, ok := obj.(interface{ Size() (geom.Size3i, error) }); ok {
		size, err := g.Size()
		if err != nil {
			return nil, err
		}
		out["size"] = []any{size.NX, size.NY, size.NZ}
	}

	switch o := obj.(type) {
	case *typed.PointSet:
		n, err := o.NumPoints()
		if err != nil {
			return nil, err
		}
		out["num_points"] = n
		out["attributes"] = attributeNames(o.Locations.Attributes)
	case *typed.Regular3DGrid:
		out["cell_attributes"] = attributeNames(o.Cells.Attributes)
		out["vertex_attributes"] = attributeNames(o.Vertices.Attributes)
	case *typed.Tensor3DGrid:
		out["cell_attributes"] = attributeNames(o.Cells.Attributes)
		out["vertex_attributes"] = attributeNames(o.Vertices.Attributes)
	case *typed.RegularMasked3DGrid:
		n, err := o.Cells.NumberActive()
		if err != nil {
			return nil, err
		}
		out["number_of_active_cells"] = n
		out["cell_attributes"] = attributeNames(o.Cells.Attributes)
	}
	return out, nil
}

func attributeNames(as *typed.Attributes) []any {
	names := []any{}
	for _, a := range as.All() {
		name, _ := a.Name()
		names = append(names, name)
	}
	return names
}
