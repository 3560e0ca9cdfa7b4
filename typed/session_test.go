package typed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/typed"
)

type unknownData struct {
	typed.BaseObjectData
}

func TestCreate_UnknownType(t *testing.T) {
	s, _ := newSession(t)
	_, err := typed.Create(context.Background(), s, unknownData{}, objectstore.CreateOptions{})
	require.ErrorIs(t, err, typed.ErrUnknownType)

	_, err = typed.Create(context.Background(), s, nil, objectstore.CreateOptions{})
	require.ErrorIs(t, err, typed.ErrUnknownType)
}

func TestCreate_PointerData(t *testing.T) {
	s, _ := newSession(t)
	data := regularGridData("pointer")
	g, err := typed.As[*typed.Regular3DGrid](typed.Create(context.Background(), s, &data, objectstore.CreateOptions{}))
	require.NoError(t, err)
	name, err := g.Name()
	require.NoError(t, err)
	assert.Equal(t, "pointer", name)
}

func TestCreate_DuplicatePath(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	first := createRegularGrid(t, s, regularGridData("grid"))

	_, err := typed.Create(ctx, s, regularGridData("grid"), objectstore.CreateOptions{})
	require.ErrorIs(t, err, objectstore.ErrAlreadyExists)

	var exists *objectstore.AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, first.ID(), exists.ExistingID)
}

func TestFromReference_Dispatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	createRegularGrid(t, s, regularGridData("grid"))
	createPointSet(t, s)

	obj, err := typed.FromReference(ctx, s, "/grid.json")
	require.NoError(t, err)
	assert.IsType(t, &typed.Regular3DGrid{}, obj)

	obj, err = typed.FromReference(ctx, s, "/collars/drillholes.json")
	require.NoError(t, err)
	assert.IsType(t, &typed.PointSet{}, obj)

	_, err = typed.As[*typed.Regular3DGrid](typed.FromReference(ctx, s, "/collars/drillholes.json"))
	require.ErrorIs(t, err, typed.ErrTypeMismatch)

	_, err = typed.FromReference(ctx, s, "/missing.json")
	require.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestFromReference_UnknownSchema(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	_, err := s.Objects.Create(ctx, map[string]any{
		"name":   "odd",
		"schema": "/objects/triangle-mesh/2.0.0/triangle-mesh.schema.json",
	}, objectstore.CreateOptions{})
	require.NoError(t, err)

	_, err = typed.FromReference(ctx, s, "/odd.json")
	require.ErrorIs(t, err, typed.ErrUnknownType)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	g := createRegularGrid(t, s, regularGridData("grid"))

	next := regularGridData("grid")
	next.Description = "resampled"
	next.CellSize = geom.Size3d{DX: 1, DY: 1, DZ: 1}
	replaced, err := typed.As[*typed.Regular3DGrid](typed.Replace(ctx, s, g.ID(), next))
	require.NoError(t, err)
	assert.Equal(t, g.ID(), replaced.ID())

	meta, _ := replaced.Metadata()
	assert.Equal(t, "2", meta.VersionID)
	desc, err := replaced.Description()
	require.NoError(t, err)
	assert.Equal(t, "resampled", desc)

	_, err = typed.Replace(ctx, s, g.ID(), typed.PointSetData{
		BaseSpatialObjectData: spatialBase("grid"),
		Locations:             locations(),
	})
	require.ErrorIs(t, err, typed.ErrTypeMismatch)

	_, err = typed.Replace(ctx, s, "/nowhere.json", next)
	require.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestCreateOrReplace(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	created, err := typed.CreateOrReplace(ctx, s, "/models/grid.json", regularGridData("grid"))
	require.NoError(t, err)
	meta, _ := created.(*typed.Regular3DGrid).Metadata()
	assert.Equal(t, "1", meta.VersionID)
	assert.Equal(t, "/models/grid.json", meta.Path)

	replaced, err := typed.CreateOrReplace(ctx, s, "/models/grid.json", regularGridData("grid"))
	require.NoError(t, err)
	assert.Equal(t, created.ID(), replaced.ID())
	meta, _ = replaced.(*typed.Regular3DGrid).Metadata()
	assert.Equal(t, "2", meta.VersionID)
}

func TestObject_Tags(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	data := regularGridData("grid")
	data.Tags = map[string]string{"stage": "draft"}
	g := createRegularGrid(t, s, data)

	tags, err := g.Tags()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"stage": "draft"}, tags)

	ext, err := g.Extensions()
	require.NoError(t, err)
	assert.Empty(t, ext)

	require.NoError(t, g.SetTags(map[string]string{"stage": "final"}))
	require.NoError(t, g.SetName("renamed"))
	require.NoError(t, g.Update(ctx))

	loaded, err := typed.As[*typed.Regular3DGrid](typed.FromReference(ctx, s, g.ID()))
	require.NoError(t, err)
	tags, err = loaded.Tags()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"stage": "final"}, tags)
	name, err := loaded.Name()
	require.NoError(t, err)
	assert.Equal(t, "renamed", name)
}
