package docmodel

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var timeType = reflect.TypeOf(time.Time{})

// toDocument normalizes a decoded document into a bson.D. Unordered maps are
// sorted by key.
func toDocument(raw any) (bson.D, error) {
	switch doc := raw.(type) {
	case bson.D:
		return doc, nil
	case *bson.D:
		if doc == nil {
			return nil, nil
		}
		return *doc, nil
	case bson.M:
		return sortedDocument(doc), nil
	case map[string]any:
		return sortedDocument(doc), nil
	case map[any]any:
		m := make(map[string]any, len(doc))
		for k, v := range doc {
			m[fmt.Sprint(k)] = v
		}
		return sortedDocument(m), nil
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(doc, &d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("expected a document, got %T", raw)
	}
}

func sortedDocument(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: m[k]})
	}
	return doc
}

// toArray normalizes a decoded array.
func toArray(raw any) ([]any, bool) {
	switch arr := raw.(type) {
	case bson.A:
		return arr, true
	case []any:
		return arr, true
	default:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, false
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
}

// coerce converts a decoded scalar into t by passing it through the BSON
// codecs of the driver, which handle numeric widening, datetimes, object ids
// and the like.
func coerce(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch v := raw.(type) {
	case string:
		if t == objectIDType {
			oid, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(oid), nil
		}
		if t == timeType {
			ts, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(ts), nil
		}
	case time.Time:
		if t == reflect.TypeOf(primitive.DateTime(0)) {
			return reflect.ValueOf(primitive.NewDateTimeFromTime(v)), nil
		}
	}

	data, err := bson.Marshal(bson.D{{Key: "v", Value: raw}})
	if err != nil {
		return reflect.Value{}, err
	}
	holder := reflect.New(reflect.StructOf([]reflect.StructField{{
		Name: "V",
		Type: t,
		Tag:  `bson:"v"`,
	}}))
	if err := bson.Unmarshal(data, holder.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s: %w", raw, t, err)
	}
	return holder.Elem().Field(0), nil
}

// ToMap converts a document into plain Go maps and slices for formats that do
// not understand BSON types. Object ids become hex strings and datetimes
// become time.Time values.
func ToMap(doc bson.D) map[string]any {
	m := make(map[string]any, len(doc))
	for _, e := range doc {
		m[e.Key] = plain(e.Value)
	}
	return m
}

func plain(v any) any {
	switch val := v.(type) {
	case bson.D:
		return ToMap(val)
	case bson.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = plain(e)
		}
		return m
	case bson.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plain(e)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case *primitive.ObjectID:
		if val == nil {
			return nil
		}
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	default:
		return v
	}
}

// AsDocument returns v as a document when it is a bson.D, a non-nil *bson.D
// or a string-keyed map. Map keys are sorted.
func AsDocument(v any) (bson.D, bool) {
	switch doc := v.(type) {
	case bson.D:
		return doc, true
	case *bson.D:
		if doc == nil {
			return nil, false
		}
		return *doc, true
	case bson.M:
		return FromMap(doc), true
	case map[string]any:
		return FromMap(doc), true
	default:
		return nil, false
	}
}

// FromMap converts plain Go maps and slices, as produced by ToMap or by a
// format decoder, into a document with keys in sorted order.
func FromMap(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: fromPlain(m[k])})
	}
	return doc
}

func fromPlain(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return FromMap(val)
	case bson.M:
		return FromMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = e
		}
		return FromMap(m)
	case []any:
		out := make(bson.A, len(val))
		for i, e := range val {
			out[i] = fromPlain(e)
		}
		return out
	default:
		return v
	}
}
