package typed

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
)

// ActiveCells returns the indexes of the true entries of mask.
func ActiveCells(mask []bool) *roaring.Bitmap {
	b := roaring.New()
	for i, active := range mask {
		if active {
			b.Add(uint32(i))
		}
	}
	return b
}

// MaskFromBitmap expands a set of active cell indexes into a mask of n
// cells. Indexes at or beyond n are ignored.
func MaskFromBitmap(b *roaring.Bitmap, n int) []bool {
	mask := make([]bool, n)
	it := b.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		if i >= n {
			break
		}
		mask[i] = true
	}
	return mask
}

// RegularMasked3DGridData is the creation data of a RegularMasked3DGrid.
type RegularMasked3DGridData struct {
	Base3DGridData
	CellSize geom.Size3d

	// Mask marks the active cells. It holds one entry per cell.
	Mask []bool

	// CellData holds one attribute per column, one row per active cell.
	CellData *frame.Frame
}

func (d RegularMasked3DGridData) cellFrame() *frame.Frame { return d.CellData }

// Validate checks the mask length against the grid size and the cell data
// against the number of active cells.
func (d RegularMasked3DGridData) Validate() error {
	total := d.Size.TotalSize()
	if len(d.Mask) != total {
		return fmt.Errorf("%w: the number of rows in the mask (%d) does not match the number of cells in the grid (%d)",
			ErrValidation, len(d.Mask), total)
	}
	return checkRows(d.CellData, "cell data", "active cells", int(ActiveCells(d.Mask).GetCardinality()))
}

// ComputeBoundingBox implements SpatialData.
func (d RegularMasked3DGridData) ComputeBoundingBox() (geom.BoundingBox, error) {
	return geom.BoundingBoxFromRegularGrid(d.Origin, d.Size, d.CellSize, d.Rotation), nil
}

var (
	propNumberActive = model.NewProperty("number_of_active_cells", model.Int)
	propMaskLength   = model.NewProperty("mask.values.length", model.Int)
	propMaskDataRef  = model.NewProperty("mask.values.data", model.OptionalString)
	propMaskValues   = model.NewProperty("mask.values", model.Raw)
)

var maskedCellsSchema = gridAttributesSchema("masked-cells", "cell_attributes", cellFrameOf).
	Hook(func(ctx context.Context, dst model.Document, data any, client bulk.Client) error {
		d, ok := data.(RegularMasked3DGridData)
		if !ok {
			return fmt.Errorf("%w: masked cells need %T, got %T", ErrValidation, d, data)
		}
		info, err := uploadMask(ctx, d.Mask, client)
		if err != nil {
			return err
		}
		dst["mask"] = map[string]any{
			"name":           "mask",
			"key":            uuid.NewString(),
			"attribute_type": AttributeBool,
			"values":         info,
		}
		return propNumberActive.Set(dst, int(ActiveCells(d.Mask).GetCardinality()))
	})

var regularMasked3DGridSchema = model.Extend(grid3DSchema, "regular-masked-3d-grid").
	Field(model.Field("cell_size", "cell_size", geom.Size3dCodec, func(d RegularMasked3DGridData) geom.Size3d {
		return d.CellSize
	})).
	SubModel(model.SubModel{Name: "cells", Convert: maskedCellsSchema.Convert()})

func uploadMask(ctx context.Context, mask []bool, client bulk.Client) (map[string]any, error) {
	f, err := frame.New(frame.Column{Name: "mask", Values: mask})
	if err != nil {
		return nil, err
	}
	return client.UploadFrame(ctx, f, bulk.BoolArray1)
}

// MaskedCells is the dataset of a masked grid's cells. Only active cells
// carry attribute values.
type MaskedCells struct {
	*model.Model
	Attributes *Attributes
}

func newMaskedCells(ctx *model.Context, loc model.Location) *MaskedCells {
	c := &MaskedCells{}
	c.Model, _ = model.New(ctx, loc.Document(), maskedCellsSchema, func(m *model.Model) {
		c.Attributes = model.Materialize(m, "attributes", newAttributes)
	})
	return c
}

// Size returns the grid size.
func (c *MaskedCells) Size() (geom.Size3i, error) { return propSize.Get(c.Document()) }

// NumberActive returns the number of active cells.
func (c *MaskedCells) NumberActive() (int, error) { return propNumberActive.Get(c.Document()) }

// ExpectedLength returns the number of values each attribute must hold.
func (c *MaskedCells) ExpectedLength() (int, error) { return c.NumberActive() }

// Mask downloads the mask.
func (c *MaskedCells) Mask(ctx context.Context) ([]bool, error) {
	ref, _ := propMaskDataRef.Get(c.Document())
	if c.Context().IsModified(ref) {
		return nil, fmt.Errorf("%w: mask", ErrDataModified)
	}
	obj := c.Context().Object()
	if obj == nil {
		return nil, ErrNoObject
	}
	col, err := obj.DownloadArray(ctx, propMaskValues.Path().String())
	if err != nil {
		return nil, err
	}
	mask, ok := col.Values.([]bool)
	if !ok {
		return nil, fmt.Errorf("%w: expected a bool mask, got %T", ErrUnsupportedDataType, col.Values)
	}
	return mask, nil
}

// ActiveCells downloads the mask as a set of active cell indexes.
func (c *MaskedCells) ActiveCells(ctx context.Context) (*roaring.Bitmap, error) {
	mask, err := c.Mask(ctx)
	if err != nil {
		return nil, err
	}
	return ActiveCells(mask), nil
}

// Frame downloads the attribute values of the active cells.
func (c *MaskedCells) Frame(ctx context.Context) (*frame.Frame, error) {
	return c.Attributes.Frame(ctx)
}

// SetFrame replaces the attributes with the columns of f. When mask is
// non-nil it replaces the grid mask first and f must have one row per cell
// it activates; otherwise f must match the current number of active cells.
func (c *MaskedCells) SetFrame(ctx context.Context, f *frame.Frame, mask []bool) error {
	numberActive, err := c.NumberActive()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if mask != nil {
		size, err := c.Size()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if len(mask) != size.TotalSize() {
			return fmt.Errorf("%w: the length of the mask (%d) does not match the number of cells in the grid (%d)",
				ErrValidation, len(mask), size.TotalSize())
		}
		numberActive = int(ActiveCells(mask).GetCardinality())
	}
	if f.Len() != numberActive {
		return fmt.Errorf("%w: the number of rows in the frame (%d) does not match the number of active cells in the grid (%d)",
			ErrValidation, f.Len(), numberActive)
	}

	var maskInfo map[string]any
	if mask != nil {
		client, err := dataClient(c.Context())
		if err != nil {
			return err
		}
		if maskInfo, err = uploadMask(ctx, mask, client); err != nil {
			return err
		}
	}
	if err := c.Attributes.Set(ctx, f); err != nil {
		return err
	}
	if maskInfo != nil {
		if err := propMaskValues.Set(c.Document(), maskInfo); err != nil {
			return err
		}
		ref, _ := propMaskDataRef.Get(c.Document())
		c.Context().MarkModified(ref)
	}
	return propNumberActive.Set(c.Document(), numberActive)
}

// Validate checks the attribute lengths against the number of active cells
// and the mask length against the grid size.
func (c *MaskedCells) Validate() error {
	numberActive, err := c.NumberActive()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := c.Attributes.ValidateLengths(numberActive); err != nil {
		return err
	}
	size, err := c.Size()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	maskLength, err := propMaskLength.Get(c.Document())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if maskLength != size.TotalSize() {
		return fmt.Errorf("%w: the length of the mask (%d) does not match the number of cells in the grid (%d)",
			ErrValidation, maskLength, size.TotalSize())
	}
	if numberActive < 0 || numberActive > maskLength {
		return fmt.Errorf("%w: number of active cells (%d) is out of range for a mask of %d cells",
			ErrValidation, numberActive, maskLength)
	}
	return nil
}

// RegularMasked3DGrid is a regular grid in which only the cells enabled by a
// mask carry attribute values.
type RegularMasked3DGrid struct {
	*Base3DGrid
	Cells *MaskedCells
}

// CellSize returns the size of one cell.
func (g *RegularMasked3DGrid) CellSize() (geom.Size3d, error) { return propCellSize.Get(g.Document()) }

// SetCellSize resizes the cells.
func (g *RegularMasked3DGrid) SetCellSize(s geom.Size3d) error {
	return propCellSize.Set(g.Document(), s)
}

func loadRegularMasked3DGrid(ctx *model.Context, doc model.Document) (Object, error) {
	g := &RegularMasked3DGrid{}
	m, err := model.New(ctx, doc, regularMasked3DGridSchema, func(m *model.Model) {
		g.Cells = model.Materialize(m, "cells", newMaskedCells)
	})
	g.Base3DGrid = newBase3DGrid(m, regularBoundingBox)
	return g, err
}

func init() {
	MustRegister(EntityType{
		SubClassification: "regular-masked-3d-grid",
		Version:           SchemaVersion{1, 3, 0},
		Schema:            regularMasked3DGridSchema,
		Data:              RegularMasked3DGridData{},
		Load:              loadRegularMasked3DGrid,
	})
}
