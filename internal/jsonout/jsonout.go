// Package jsonout builds the ordered JSON values the extractor prints and
// renders them as single lines.
package jsonout

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that keeps insertion order.
type Object = orderedmap.OrderedMap[string, any]

// Pair is one key/value entry of an object under construction.
type Pair struct {
	Key   string
	Value any
}

// P is shorthand for a Pair.
func P(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// NewObject builds an object from ordered pairs.
func NewObject(pairs ...Pair) *Object {
	obj := orderedmap.New[string, any]()
	for _, p := range pairs {
		obj.Set(p.Key, p.Value)
	}
	return obj
}

// Array is a JSON array. A nil slice still renders as [].
func Array(items ...any) []any {
	if items == nil {
		return []any{}
	}
	return items
}

// TypeRef renders a type reference. A nil declID renders as null.
func TypeRef(declID *string, typeName string) *Object {
	var id any
	if declID != nil {
		id = *declID
	}
	return NewObject(P("declID", id), P("typeName", typeName))
}

// Envelope is the top-level shape of one emitted declaration.
func Envelope(typ *Object, properties *Object, pseudoRoot string, location []string) *Object {
	segs := make([]any, 0, len(location))
	for _, s := range location {
		segs = append(segs, s)
	}
	return NewObject(
		P("type", typ),
		P("properties", properties),
		P("pseudoRoot", pseudoRoot),
		P("location", Array(segs...)),
	)
}

// Render encodes v on one line without a trailing newline. Objects are
// walked directly instead of through their MarshalJSON, so no value is
// HTML-escaped.
func Render(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case *Object:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			if pair != v.Oldest() {
				buf.WriteByte(',')
			}
			if err := encodeScalar(buf, pair.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, pair.Value); err != nil {
				return fmt.Errorf("%s: %w", pair.Key, err)
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return encodeScalar(buf, v)
	}
	return nil
}

func encodeScalar(buf *bytes.Buffer, v any) error {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(b.Bytes(), "\n"))
	return nil
}
