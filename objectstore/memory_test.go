package objectstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/geoobject/bulk/memory"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/model"
	"github.com/jacentio/geoobject/objectstore"
)

func gridDocument(name string) model.Document {
	return model.Document{
		"name":   name,
		"schema": "/objects/regular-3d-grid/1.3.0/regular-3d-grid.schema.json",
		"uuid":   nil,
		"tags":   map[string]any{},
	}
}

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	obj, err := s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{Parent: "surveys"})
	require.NoError(t, err)

	meta := obj.Metadata()
	assert.True(t, objectstore.IsObjectID(meta.ID))
	assert.Equal(t, "/surveys/grid.json", meta.Path)
	assert.Equal(t, "1", meta.VersionID)
	assert.Equal(t, "/objects/regular-3d-grid/1.3.0/regular-3d-grid.schema.json", meta.SchemaID)
	assert.Equal(t, meta.ID, obj.Document()["uuid"])
	assert.Same(t, data, obj.DataClient())

	byID, err := s.Get(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, obj.Document(), byID.Document())

	byPath, err := s.Get(ctx, "surveys/grid.json")
	require.NoError(t, err)
	assert.Equal(t, meta.ID, byPath.Metadata().ID)
}

func TestMemoryStore_CreateDuplicatePath(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	first, err := s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{})
	require.NoError(t, err)

	_, err = s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{})
	require.ErrorIs(t, err, objectstore.ErrAlreadyExists)
	var exists *objectstore.AlreadyExistsError
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, first.Metadata().ID, exists.ExistingID)
	assert.Equal(t, "/grid.json", exists.Path)
}

func TestMemoryStore_Replace(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	obj, err := s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{})
	require.NoError(t, err)
	id := obj.Metadata().ID

	doc := gridDocument("grid")
	doc["description"] = "second"
	next, err := s.Replace(ctx, id, doc, false)
	require.NoError(t, err)
	assert.Equal(t, id, next.Metadata().ID)
	assert.Equal(t, "2", next.Metadata().VersionID)
	assert.Equal(t, "second", next.Document()["description"])
	assert.Equal(t, "/grid.json", next.Metadata().Path)

	doc["description"] = "third"
	byPath, err := s.Replace(ctx, "/grid.json", doc, false)
	require.NoError(t, err)
	assert.Equal(t, id, byPath.Metadata().ID)
	assert.Equal(t, "3", byPath.Metadata().VersionID)

	_, err = s.Replace(ctx, "/missing.json", doc, false)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	created, err := s.Replace(ctx, "/missing.json", doc, true)
	require.NoError(t, err)
	assert.NotEqual(t, id, created.Metadata().ID)
	assert.Equal(t, "1", created.Metadata().VersionID)

	again, err := s.Replace(ctx, "/missing.json", doc, true)
	require.NoError(t, err)
	assert.Equal(t, created.Metadata().ID, again.Metadata().ID)
	assert.Equal(t, "2", again.Metadata().VersionID)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_DocumentIsolation(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	doc := gridDocument("grid")
	obj, err := s.Create(ctx, doc, objectstore.CreateOptions{})
	require.NoError(t, err)

	doc["name"] = "changed"
	got := obj.Document()
	got["tags"].(map[string]any)["k"] = "v"

	stored, err := s.Get(ctx, obj.Metadata().ID)
	require.NoError(t, err)
	assert.Equal(t, "grid", stored.Document()["name"])
	assert.Empty(t, stored.Document()["tags"])
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	obj, err := s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "/grid.json"))
	_, err = s.Get(ctx, obj.Metadata().ID)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, obj.Metadata().ID), objectstore.ErrNotFound)

	_, err = s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{})
	assert.NoError(t, err, "path is free again after delete")
}

func TestObject_Update(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	obj, err := s.Create(ctx, gridDocument("grid"), objectstore.CreateOptions{})
	require.NoError(t, err)

	doc := obj.Document()
	doc["description"] = "updated"
	next, err := obj.Update(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "2", next.Metadata().VersionID)
	assert.Equal(t, "updated", next.Document()["description"])
}

func TestObject_DownloadArray(t *testing.T) {
	ctx := context.Background()
	data, _ := memory.NewClient()
	s := objectstore.NewMemoryStore(data, nil)

	mask := []bool{true, false, true}
	info, err := data.UploadFrame(ctx, frame.MustNew(frame.Column{Name: "mask", Values: mask}))
	require.NoError(t, err)

	doc := gridDocument("masked")
	doc["mask"] = map[string]any{"name": "mask", "values": info}
	obj, err := s.Create(ctx, doc, objectstore.CreateOptions{})
	require.NoError(t, err)

	col, err := obj.DownloadArray(ctx, "mask.values")
	require.NoError(t, err)
	assert.Equal(t, mask, col.Values)

	_, err = obj.DownloadArray(ctx, "missing.values")
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name    string
		doc     model.Document
		opts    objectstore.CreateOptions
		want    string
		wantErr bool
	}{
		{"root", model.Document{"name": "a"}, objectstore.CreateOptions{}, "/a.json", false},
		{"parent", model.Document{"name": "a"}, objectstore.CreateOptions{Parent: "x/y/"}, "/x/y/a.json", false},
		{"path", model.Document{"name": "a"}, objectstore.CreateOptions{Path: "x/b.json"}, "/x/b.json", false},
		{"path without suffix", model.Document{"name": "a"}, objectstore.CreateOptions{Path: "x/b"}, "", true},
		{"parent and path", model.Document{"name": "a"}, objectstore.CreateOptions{Parent: "x", Path: "x/b.json"}, "", true},
		{"no name", model.Document{}, objectstore.CreateOptions{}, "", true},
		{"separator in name", model.Document{"name": "a/b"}, objectstore.CreateOptions{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := objectstore.ResolvePath(tt.doc, tt.opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, objectstore.ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataRefs(t *testing.T) {
	doc := model.Document{
		"name": "data",
		"locations": map[string]any{
			"coordinates": map[string]any{"data": "aaa", "length": 3},
			"attributes": []any{
				map[string]any{"values": map[string]any{"data": "ccc"}},
				map[string]any{
					"values": map[string]any{"data": "bbb"},
					"table":  map[string]any{"data": "aaa"},
				},
			},
		},
	}
	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, objectstore.DataRefs(doc))
	assert.Empty(t, objectstore.DataRefs(model.Document{"name": "x"}))
}
