package typed

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jacentio/geoobject/model"
)

// SchemaVersion is a semantic schema version.
type SchemaVersion struct {
	Major, Minor, Patch int
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// SchemaID identifies the schema of a stored document, e.g.
// "/objects/pointset/1.2.0/pointset.schema.json".
type SchemaID struct {
	SubClassification string
	Version           SchemaVersion
}

func (id SchemaID) String() string {
	return fmt.Sprintf("/objects/%s/%s/%s.schema.json", id.SubClassification, id.Version, id.SubClassification)
}

// ParseSchemaID parses a schema identifier.
func ParseSchemaID(s string) (SchemaID, error) {
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	if len(parts) != 4 || parts[0] != "objects" || parts[3] != parts[1]+".schema.json" {
		return SchemaID{}, fmt.Errorf("%w: malformed schema id %q", ErrUnknownType, s)
	}
	nums := strings.Split(parts[2], ".")
	if len(nums) != 3 {
		return SchemaID{}, fmt.Errorf("%w: malformed schema version %q", ErrUnknownType, parts[2])
	}
	var v [3]int
	for i, n := range nums {
		x, err := strconv.Atoi(n)
		if err != nil {
			return SchemaID{}, fmt.Errorf("%w: malformed schema version %q", ErrUnknownType, parts[2])
		}
		v[i] = x
	}
	return SchemaID{SubClassification: parts[1], Version: SchemaVersion{v[0], v[1], v[2]}}, nil
}

// EntityType describes a registered object type.
type EntityType struct {
	// SubClassification is the schema sub-classification (e.g.
	// "regular-3d-grid"). It must equal the schema name.
	SubClassification string

	// Version is the schema version new objects are created with.
	Version SchemaVersion

	// Schema is the binding table used on the creation path.
	Schema *model.Schema

	// Data is a zero value of the creation data type.
	Data ObjectData

	// Load wraps a stored document.
	Load func(ctx *model.Context, doc model.Document) (Object, error)
}

// SchemaID returns the identifier new objects are created with.
func (t *EntityType) SchemaID() SchemaID {
	return SchemaID{SubClassification: t.SubClassification, Version: t.Version}
}

// Registry maps sub-classifications and creation data types to object
// types.
type Registry struct {
	types  []*EntityType
	bySub  map[string]*EntityType
	byData map[reflect.Type]*EntityType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bySub:  make(map[string]*EntityType),
		byData: make(map[reflect.Type]*EntityType),
	}
}

// DefaultRegistry holds the built-in object types.
var DefaultRegistry = NewRegistry()

// Register adds an object type. Sub-classifications and data types must be
// unique.
func (r *Registry) Register(t EntityType) error {
	if t.Schema == nil || t.Load == nil || t.Data == nil {
		return fmt.Errorf("geoobject: incomplete entity type %q", t.SubClassification)
	}
	if t.Schema.Name() != t.SubClassification {
		return fmt.Errorf("geoobject: schema %q registered as %q", t.Schema.Name(), t.SubClassification)
	}
	if _, dup := r.bySub[t.SubClassification]; dup {
		return fmt.Errorf("geoobject: sub-classification %q already registered", t.SubClassification)
	}
	dt := reflect.TypeOf(t.Data)
	if prev, dup := r.byData[dt]; dup {
		return fmt.Errorf("geoobject: data type %s already registered for %q", dt, prev.SubClassification)
	}
	et := &t
	r.types = append(r.types, et)
	r.bySub[t.SubClassification] = et
	r.byData[dt] = et
	return nil
}

// MustRegister adds t to DefaultRegistry and panics on error. It is called
// from init functions.
func MustRegister(t EntityType) {
	if err := DefaultRegistry.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the type registered for a sub-classification.
func (r *Registry) Lookup(subClassification string) (*EntityType, error) {
	t, ok := r.bySub[subClassification]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, subClassification)
	}
	return t, nil
}

// LookupData returns the type registered for the dynamic type of data.
// Pointers are dereferenced.
func (r *Registry) LookupData(data ObjectData) (*EntityType, ObjectData, error) {
	if data == nil {
		return nil, nil, fmt.Errorf("%w: nil object data", ErrUnknownType)
	}
	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil, fmt.Errorf("%w: nil %T", ErrUnknownType, data)
		}
		rv = rv.Elem()
	}
	t, ok := r.byData[rv.Type()]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no object type for %T", ErrUnknownType, data)
	}
	value, _ := rv.Interface().(ObjectData)
	return t, value, nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []*EntityType {
	out := make([]*EntityType, len(r.types))
	copy(out, r.types)
	return out
}
