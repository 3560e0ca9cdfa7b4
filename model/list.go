package model

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/jacentio/geoobject/bulk"
)

// List is a view over a sequence of object documents. Items are wrapped on
// every access; nothing is cached, so the list always reflects the document.
type List[V Validator] struct {
	ctx  *Context
	loc  Location
	item func(ctx *Context, doc Document) V
}

// NewList creates a list view at loc.
func NewList[V Validator](ctx *Context, loc Location, item func(ctx *Context, doc Document) V) *List[V] {
	return &List[V]{ctx: ctx, loc: loc, item: item}
}

// Context returns the shared context.
func (l *List[V]) Context() *Context { return l.ctx }

func (l *List[V]) raw() []any {
	s, _ := l.loc.Path.Get(l.loc.Parent).([]any)
	return s
}

// Len returns the number of items.
func (l *List[V]) Len() int { return len(l.raw()) }

// At wraps item i. Negative indexes count from the end. It panics when i is
// out of range. An entry that is not an object is wrapped as an empty
// document that is not part of the list; Validate reports it.
func (l *List[V]) At(i int) V {
	items := l.raw()
	if i < 0 {
		i += len(items)
	}
	doc, _ := items[i].(map[string]any)
	return l.item(l.ctx, doc)
}

// All iterates over the items in order.
func (l *List[V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i, raw := range l.raw() {
			doc, _ := raw.(map[string]any)
			if !yield(i, l.item(l.ctx, doc)) {
				return
			}
		}
	}
}

// Clear removes every item.
func (l *List[V]) Clear() error {
	return l.loc.Path.Assign(l.loc.Parent, []any{})
}

// AppendRaw appends an item document.
func (l *List[V]) AppendRaw(doc Document) error {
	return l.loc.Path.Assign(l.loc.Parent, append(l.raw(), doc))
}

// Validate checks that every entry is an object, then validates every item.
func (l *List[V]) Validate() error {
	if err := checkItems(l.raw()); err != nil {
		return fmt.Errorf("%s%w", l.loc.Path, err)
	}
	for _, v := range l.All() {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ListToDocument returns a conversion mapping each entry of a slice through
// item. A nil value converts to an empty list.
func ListToDocument(item ConvertFunc) ConvertFunc {
	return func(ctx context.Context, data any, client bulk.Client) (any, error) {
		if data == nil {
			return []any{}, nil
		}
		rv := reflect.ValueOf(data)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("%w: %T", ErrNotSequence, data)
		}
		out := make([]any, 0, rv.Len())
		for i := range rv.Len() {
			v, err := item(ctx, rv.Index(i).Interface(), client)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// checkItems reports the first entry of items that is not an object.
func checkItems(items []any) error {
	for i, raw := range items {
		if _, ok := raw.(map[string]any); !ok {
			return fmt.Errorf("[%d]: %w", i, decodeError("object", raw))
		}
	}
	return nil
}
