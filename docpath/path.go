// Package docpath evaluates restricted path expressions against untyped
// documents.
//
// Reads accept any JMESPath expression. Writes (assignment and deletion) accept
// only plain field-access chains such as "a.b.c"; indexing, filters, functions
// and projections are rejected with [ErrUnsupportedExpression].
//
// Documents are trees of map[string]any, []any and scalar values, which is the
// shape produced by encoding/json and ojg when decoding into any.
package docpath

import (
	"errors"
	"fmt"

	"github.com/jmespath/go-jmespath"
	"github.com/ohler55/ojg/jp"
)

var (
	// ErrInvalidExpression is returned when an expression does not parse.
	ErrInvalidExpression = errors.New("geoobject: invalid path expression")

	// ErrUnsupportedExpression is returned when a write is attempted through an
	// expression that is not a plain field-access chain.
	ErrUnsupportedExpression = errors.New("geoobject: only field access expressions can be written")

	// ErrPathConflict is returned when an assignment would have to descend
	// through an existing value that is not an object.
	ErrPathConflict = errors.New("geoobject: path traverses a non-object value")
)

// Path is a compiled path expression. A Path is immutable and safe for
// concurrent use.
type Path struct {
	expr   string
	query  *jmespath.JMESPath
	fields []string
}

// Compile parses expr.
func Compile(expr string) (*Path, error) {
	query, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidExpression, expr, err)
	}
	return &Path{expr: expr, query: query, fields: fieldChain(expr)}, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level binding tables.
func MustCompile(expr string) *Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Path) String() string { return p.expr }

// Fields returns the field chain of a writable path, or nil when the
// expression is read-only.
func (p *Path) Fields() []string {
	if p.fields == nil {
		return nil
	}
	out := make([]string, len(p.fields))
	copy(out, p.fields)
	return out
}

// Writable reports whether the expression is a plain field chain.
func (p *Path) Writable() bool { return p.fields != nil }

// Get evaluates the expression against doc. Missing values, and values the
// expression cannot be applied to, evaluate to nil.
func (p *Path) Get(doc any) any {
	v, err := p.query.Search(doc)
	if err != nil {
		return nil
	}
	return v
}

// Assign stores value at the location named by the path, creating
// intermediate objects as needed. Existing intermediate objects are reused;
// an intermediate value that exists but is not an object is never replaced.
func (p *Path) Assign(doc map[string]any, value any) error {
	if p.fields == nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedExpression, p.expr)
	}
	node := doc
	last := len(p.fields) - 1
	for _, field := range p.fields[:last] {
		next, ok := node[field]
		if !ok || next == nil {
			child := map[string]any{}
			node[field] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q at %q holds %T", ErrPathConflict, p.expr, field, next)
		}
		node = child
	}
	node[p.fields[last]] = value
	return nil
}

// Delete removes the final field of the path from its parent object. It is a
// no-op when any part of the path is missing.
func (p *Path) Delete(doc map[string]any) error {
	if p.fields == nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedExpression, p.expr)
	}
	node := doc
	last := len(p.fields) - 1
	for _, field := range p.fields[:last] {
		child, ok := node[field].(map[string]any)
		if !ok {
			return nil
		}
		node = child
	}
	delete(node, p.fields[last])
	return nil
}

// Get evaluates expr against doc.
func Get(doc any, expr string) (any, error) {
	p, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return p.Get(doc), nil
}

// Assign stores value at expr in doc.
func Assign(doc map[string]any, expr string, value any) error {
	p, err := Compile(expr)
	if err != nil {
		return err
	}
	return p.Assign(doc, value)
}

// Delete removes expr from doc.
func Delete(doc map[string]any, expr string) error {
	p, err := Compile(expr)
	if err != nil {
		return err
	}
	return p.Delete(doc)
}

// fieldChain returns the field names of expr when it is a chain of plain
// identifiers, and nil otherwise.
func fieldChain(expr string) []string {
	x, err := jp.ParseString(expr)
	if err != nil || len(x) == 0 {
		return nil
	}
	fields := make([]string, 0, len(x))
	for _, frag := range x {
		child, ok := frag.(jp.Child)
		if !ok || !isIdentifier(string(child)) {
			return nil
		}
		fields = append(fields, string(child))
	}
	return fields
}

// isIdentifier matches the JMESPath unquoted-identifier grammar, which keeps
// JSONPath-only spellings out of the writable set.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
