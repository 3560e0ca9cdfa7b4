package typed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/model"
	"github.com/jacentio/geoobject/objectstore"
)

// Session bundles the collaborators needed to create and load objects.
type Session struct {
	Objects  objectstore.Service
	Data     bulk.Client
	Registry *Registry
	Logger   *slog.Logger
}

// NewSession creates a session using DefaultRegistry. A nil logger falls
// back to slog.Default().
func NewSession(objects objectstore.Service, data bulk.Client, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Objects:  objects,
		Data:     data,
		Registry: DefaultRegistry,
		Logger:   logger,
	}
}

func (s *Session) registry() *Registry {
	if s.Registry == nil {
		return DefaultRegistry
	}
	return s.Registry
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// document converts data into a new document of its registered type. Bulk
// data is uploaded as a side effect.
func (s *Session) document(ctx context.Context, data ObjectData) (*EntityType, model.Document, error) {
	t, value, err := s.registry().LookupData(data)
	if err != nil {
		return nil, nil, err
	}
	doc, err := t.Schema.ToDocument(ctx, value, s.Data)
	if err != nil {
		return nil, nil, err
	}
	doc["schema"] = t.SchemaID().String()
	delete(doc, "uuid")
	return t, doc, nil
}

// Create converts data into a document, uploads its bulk data and stores it
// as a new object.
func Create(ctx context.Context, s *Session, data ObjectData, opts objectstore.CreateOptions) (Object, error) {
	t, doc, err := s.document(ctx, data)
	if err != nil {
		return nil, err
	}
	obj, err := s.Objects.Create(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t.SubClassification, err)
	}
	s.logger().Info("created object", "id", obj.Metadata().ID, "path", obj.Metadata().Path, "type", t.SubClassification)
	return s.load(obj)
}

// Replace stores data as a new version of the object named by ref, which
// must exist and be of the same type.
func Replace(ctx context.Context, s *Session, ref string, data ObjectData) (Object, error) {
	return replace(ctx, s, ref, data, false)
}

// CreateOrReplace is Replace, except that a missing object named by a path
// is created there.
func CreateOrReplace(ctx context.Context, s *Session, ref string, data ObjectData) (Object, error) {
	return replace(ctx, s, ref, data, true)
}

func replace(ctx context.Context, s *Session, ref string, data ObjectData, createIfMissing bool) (Object, error) {
	t, doc, err := s.document(ctx, data)
	if err != nil {
		return nil, err
	}
	existing, err := s.Objects.Get(ctx, ref)
	switch {
	case errors.Is(err, objectstore.ErrNotFound) && createIfMissing:
	case err != nil:
		return nil, err
	default:
		id, err := ParseSchemaID(existing.Metadata().SchemaID)
		if err != nil {
			return nil, err
		}
		if id.SubClassification != t.SubClassification {
			return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrTypeMismatch, ref, id.SubClassification, t.SubClassification)
		}
	}
	obj, err := s.Objects.Replace(ctx, ref, doc, createIfMissing)
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", ref, err)
	}
	s.logger().Info("replaced object", "id", obj.Metadata().ID, "version", obj.Metadata().VersionID, "type", t.SubClassification)
	return s.load(obj)
}

// FromReference loads the object named by ref as the type registered for
// its sub-classification.
func FromReference(ctx context.Context, s *Session, ref string) (Object, error) {
	obj, err := s.Objects.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.load(obj)
}

func (s *Session) load(obj model.Object) (Object, error) {
	id, err := ParseSchemaID(obj.Metadata().SchemaID)
	if err != nil {
		return nil, err
	}
	t, err := s.registry().Lookup(id.SubClassification)
	if err != nil {
		return nil, err
	}
	if id.Version.Major != t.Version.Major {
		s.logger().Warn("loading object with a different major schema version",
			"id", obj.Metadata().ID, "stored", id.Version, "supported", t.Version)
	}
	o, err := t.Load(model.NewContext(obj), obj.Document())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// As asserts the dynamic type of an object returned by Create, Replace or
// FromReference:
//
//	grid, err := typed.As[*typed.Regular3DGrid](typed.FromReference(ctx, s, ref))
func As[T Object](o Object, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	v, ok := o.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %s (%T), want %T", ErrTypeMismatch, o.SubClassification(), o, zero)
	}
	return v, nil
}
