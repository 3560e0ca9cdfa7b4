package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jacentio/geoobject/model"
)

// Service stores versioned object documents.
type Service interface {
	// Create stores doc as a new object and assigns it a UUID.
	Create(ctx context.Context, doc model.Document, opts CreateOptions) (*Object, error)

	// Replace stores doc as a new version of the object named by ref. With
	// createIfMissing and a path reference, a missing object is created at
	// that path.
	Replace(ctx context.Context, ref string, doc model.Document, createIfMissing bool) (*Object, error)

	// Get returns the latest version of the object named by ref.
	Get(ctx context.Context, ref string) (*Object, error)

	// Delete removes the object named by ref.
	Delete(ctx context.Context, ref string) error
}

// CreateOptions places a new object. Parent and Path are exclusive. With
// neither, the object is created at the root, named after the document's
// name.
type CreateOptions struct {
	// Parent is a folder path the object is created in.
	Parent string

	// Path is the full object path. It must end in ".json".
	Path string
}

// ResolvePath returns the path a document is created at.
func ResolvePath(doc model.Document, opts CreateOptions) (string, error) {
	if opts.Path != "" {
		if opts.Parent != "" {
			return "", fmt.Errorf("%w: parent and path are exclusive", ErrInvalidPath)
		}
		if !strings.HasSuffix(opts.Path, ".json") {
			return "", fmt.Errorf("%w: %q must end in .json", ErrInvalidPath, opts.Path)
		}
		return cleanPath(opts.Path), nil
	}
	name, _ := doc["name"].(string)
	if name == "" {
		return "", fmt.Errorf("%w: document has no name", ErrInvalidPath)
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: name %q contains a separator", ErrInvalidPath, name)
	}
	return cleanPath(path.Join("/", opts.Parent, name+".json")), nil
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// IsObjectID reports whether ref is an object UUID rather than a path.
func IsObjectID(ref string) bool {
	_, err := uuid.Parse(ref)
	return err == nil
}

// DataRefs returns the bulk data references used by doc, sorted and without
// duplicates. Every string under a "data" key is a reference.
func DataRefs(doc model.Document) []string {
	var refs []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				if s, ok := child.(string); ok && k == "data" && s != "" {
					refs = append(refs, s)
					continue
				}
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(doc)
	slices.Sort(refs)
	return slices.Compact(refs)
}

// backend is the storage side shared by the replace flow.
type backend interface {
	Create(ctx context.Context, doc model.Document, opts CreateOptions) (*Object, error)
	update(ctx context.Context, id string, doc model.Document) (*Object, error)
	lookupPath(ctx context.Context, p string) (string, error)
}

// replace implements Service.Replace over a backend. An ID reference is
// updated directly. A path reference is resolved, or created when missing
// and createIfMissing is set.
func replace(ctx context.Context, b backend, ref string, doc model.Document, createIfMissing bool) (*Object, error) {
	if IsObjectID(ref) {
		return b.update(ctx, ref, doc)
	}
	p := cleanPath(ref)
	if createIfMissing {
		obj, err := b.Create(ctx, doc, CreateOptions{Path: p})
		var exists *AlreadyExistsError
		if !errors.As(err, &exists) {
			return obj, err
		}
		return b.update(ctx, exists.ExistingID, doc)
	}
	id, err := b.lookupPath(ctx, p)
	if err != nil {
		return nil, err
	}
	return b.update(ctx, id, doc)
}

// prepareDocument copies doc for storage under id.
func prepareDocument(doc model.Document, id string) model.Document {
	out := model.CloneDocument(doc)
	out["uuid"] = id
	return out
}
