package docpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/geoobject/docpath"
)

func TestGet(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": 1.5},
		"list": []any{
			map[string]any{"name": "x"},
			map[string]any{"name": "y"},
		},
	}

	tests := []struct {
		expr string
		want any
	}{
		{"a.b", 1.5},
		{"a.missing", nil},
		{"missing.deeper", nil},
		{"list[1].name", "y"},
		{"length(list)", 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := docpath.Get(doc, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := docpath.Compile("a..b")
	require.ErrorIs(t, err, docpath.ErrInvalidExpression)
}

func TestAssign_CreatesIntermediates(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"keep": true}}

	require.NoError(t, docpath.Assign(doc, "a.b.c", 3))

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"keep": true,
			"b":    map[string]any{"c": 3},
		},
	}, doc)
}

func TestAssign_TopLevel(t *testing.T) {
	doc := map[string]any{}
	require.NoError(t, docpath.Assign(doc, "name", "grid"))
	assert.Equal(t, "grid", doc["name"])
}

func TestAssign_RejectsNonFieldExpressions(t *testing.T) {
	for _, expr := range []string{"a[0]", "a[*].b", "a | b", "length(a)", "@"} {
		t.Run(expr, func(t *testing.T) {
			p, err := docpath.Compile(expr)
			require.NoError(t, err)
			assert.False(t, p.Writable())

			err = p.Assign(map[string]any{}, 1)
			assert.ErrorIs(t, err, docpath.ErrUnsupportedExpression)
			err = p.Delete(map[string]any{})
			assert.ErrorIs(t, err, docpath.ErrUnsupportedExpression)
		})
	}
}

func TestAssign_NeverOverwritesNonObject(t *testing.T) {
	doc := map[string]any{"a": []any{1, 2}}

	err := docpath.Assign(doc, "a.b", 1)

	require.ErrorIs(t, err, docpath.ErrPathConflict)
	assert.Equal(t, []any{1, 2}, doc["a"])
}

func TestDelete(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1, "c": 2}}

	require.NoError(t, docpath.Delete(doc, "a.b"))
	assert.Equal(t, map[string]any{"a": map[string]any{"c": 2}}, doc)

	// Absent paths are left alone.
	require.NoError(t, docpath.Delete(doc, "a.b"))
	require.NoError(t, docpath.Delete(doc, "x.y.z"))
	assert.Equal(t, map[string]any{"a": map[string]any{"c": 2}}, doc)
}

func TestFields(t *testing.T) {
	p := docpath.MustCompile("locations.coordinates")
	assert.Equal(t, []string{"locations", "coordinates"}, p.Fields())
	assert.Equal(t, "locations.coordinates", p.String())
}
