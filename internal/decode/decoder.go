package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/five82/deskhub/internal/resource"
)

// Shape identifies which wire layout a body matched.
type Shape int

const (
	ShapeNone Shape = iota
	ArrayWrappedStructured
	DirectStructured
	DirectArray
)

func (s Shape) String() string {
	switch s {
	case ArrayWrappedStructured:
		return "array_wrapped_structured"
	case DirectStructured:
		return "direct_structured"
	case DirectArray:
		return "direct_array"
	default:
		return "none"
	}
}

// Outcome is the tagged result of a decode attempt.
type Outcome int

const (
	Decoded Outcome = iota
	Empty
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case Empty:
		return "empty"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what a Decoder produces. Fallback results carry exactly one
// synthetic item and the cause in Err.
type Result[T any] struct {
	Outcome     Outcome
	Shape       Shape
	Items       []T
	Count       int
	UnreadCount int
	Err         error
}

// DecodeError reports a body that matched no shape and was not structurally empty.
type DecodeError struct {
	Kind    resource.Kind
	Snippet string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: unrecognized response %q", e.Kind, e.Snippet)
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

const snippetLimit = 64

// parsed is the intermediate output of one shape parser.
type parsed[T any] struct {
	items  []T
	count  *int
	unread *int
}

type shapeParser[T any] struct {
	shape Shape
	parse func(body []byte) (parsed[T], bool)
}

// Decoder turns raw bodies for one kind into a Result.
type Decoder[T any] struct {
	kind     resource.Kind
	parsers  []shapeParser[T]
	unread   func(T) bool
	fallback func(id, title, detail string) T
	newID    func() string
}

// kindSpec describes one kind's wire contract.
type kindSpec[W any, T any] struct {
	kind        resource.Kind
	field       string   // collection field of the structured object
	unreadField string   // optional server-provided unread/pending count
	entityKeys  []string // at least one must be present on a bare entity
	normalize   func(W) T
	unread      func(T) bool
	fallback    func(id, title, detail string) T
}

func newDecoder[W any, T any](spec kindSpec[W, T]) *Decoder[T] {
	structured := func(obj gjson.Result) (parsed[T], bool) {
		coll := obj.Get(spec.field)
		if !coll.IsArray() {
			return parsed[T]{}, false
		}
		items, ok := decodeEntities(coll.Raw, spec.normalize)
		if !ok {
			return parsed[T]{}, false
		}
		out := parsed[T]{items: items}
		if c := obj.Get("count"); c.Type == gjson.Number {
			n := int(c.Int())
			out.count = &n
		}
		if spec.unreadField != "" {
			if u := obj.Get(spec.unreadField); u.Type == gjson.Number {
				n := int(u.Int())
				out.unread = &n
			}
		}
		return out, true
	}

	return &Decoder[T]{
		kind:     spec.kind,
		unread:   spec.unread,
		fallback: spec.fallback,
		newID:    func() string { return uuid.NewString() },
		parsers: []shapeParser[T]{
			{
				shape: ArrayWrappedStructured,
				parse: func(body []byte) (parsed[T], bool) {
					root := gjson.ParseBytes(body)
					if !root.IsArray() {
						return parsed[T]{}, false
					}
					elems := root.Array()
					if len(elems) == 0 || !elems[0].IsObject() {
						return parsed[T]{}, false
					}
					return structured(elems[0])
				},
			},
			{
				shape: DirectStructured,
				parse: func(body []byte) (parsed[T], bool) {
					root := gjson.ParseBytes(body)
					if !root.IsObject() {
						return parsed[T]{}, false
					}
					return structured(root)
				},
			},
			{
				shape: DirectArray,
				parse: func(body []byte) (parsed[T], bool) {
					root := gjson.ParseBytes(body)
					if !root.IsArray() {
						return parsed[T]{}, false
					}
					for _, elem := range root.Array() {
						if !elem.IsObject() || !hasAnyKey(elem, spec.entityKeys) {
							return parsed[T]{}, false
						}
					}
					items, ok := decodeEntities(root.Raw, spec.normalize)
					return parsed[T]{items: items}, ok
				},
			},
		},
	}
}

// Kind returns the kind this decoder handles.
func (d *Decoder[T]) Kind() resource.Kind {
	return d.kind
}

// Decode tries each shape in priority order, then the structural-empty check,
// then builds a single fallback item. It never fails.
func (d *Decoder[T]) Decode(body []byte) Result[T] {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && gjson.ValidBytes(trimmed) {
		for _, p := range d.parsers {
			out, ok := p.parse(trimmed)
			if !ok {
				continue
			}
			return d.decoded(p.shape, out)
		}
	}
	if structurallyEmpty(trimmed) {
		return Result[T]{Outcome: Empty, Items: []T{}}
	}
	return d.Fallback(&DecodeError{Kind: d.kind, Snippet: snippet(trimmed)})
}

// Unread counts the items that count as unread or pending for this kind.
func (d *Decoder[T]) Unread(items []T) int {
	if d.unread == nil {
		return 0
	}
	n := 0
	for _, item := range items {
		if d.unread(item) {
			n++
		}
	}
	return n
}

// Fallback builds the single placeholder result for cause.
func (d *Decoder[T]) Fallback(cause error) Result[T] {
	title := fmt.Sprintf("Failed to load %s from server", d.kind.Label())
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	item := d.fallback("fallback-"+d.newID(), title, detail)
	return Result[T]{
		Outcome: Fallback,
		Items:   []T{item},
		Err:     cause,
	}
}

func (d *Decoder[T]) decoded(shape Shape, out parsed[T]) Result[T] {
	if len(out.items) == 0 {
		return Result[T]{Outcome: Empty, Shape: shape, Items: []T{}}
	}
	res := Result[T]{Outcome: Decoded, Shape: shape, Items: out.items, Count: len(out.items)}
	if out.count != nil {
		res.Count = *out.count
	}
	res.UnreadCount = d.Unread(out.items)
	if out.unread != nil {
		res.UnreadCount = *out.unread
	}
	return res
}

func decodeEntities[W any, T any](raw string, normalize func(W) T) ([]T, bool) {
	var wires []W
	if err := json.Unmarshal([]byte(raw), &wires); err != nil {
		return nil, false
	}
	items := make([]T, 0, len(wires))
	for _, w := range wires {
		items = append(items, normalize(w))
	}
	return items, true
}

func hasAnyKey(obj gjson.Result, keys []string) bool {
	for _, key := range keys {
		if obj.Get(key).Exists() {
			return true
		}
	}
	return false
}

// structurallyEmpty reports bodies that explicitly carry zero items: nothing
// at all, null, [], an object whose count is zero or whose array fields are all
// empty, or a one-element array wrapping such an object.
func structurallyEmpty(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	if !gjson.ValidBytes(body) {
		return false
	}
	root := gjson.ParseBytes(body)
	switch {
	case root.Type == gjson.Null:
		return true
	case root.IsArray():
		elems := root.Array()
		if len(elems) == 0 {
			return true
		}
		return len(elems) == 1 && elems[0].IsObject() && emptyMarker(elems[0])
	case root.IsObject():
		return emptyMarker(root)
	}
	return false
}

func emptyMarker(obj gjson.Result) bool {
	arrays := 0
	nonEmpty := false
	obj.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			arrays++
			if len(value.Array()) > 0 {
				nonEmpty = true
				return false
			}
		}
		return true
	})
	if nonEmpty {
		return false
	}
	if c := obj.Get("count"); c.Type == gjson.Number {
		return c.Int() == 0
	}
	return arrays > 0
}

func snippet(body []byte) string {
	if len(body) <= snippetLimit {
		return string(body)
	}
	return string(body[:snippetLimit]) + "..."
}
