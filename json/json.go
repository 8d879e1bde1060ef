// Package json provides a JSON format implementation.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/zoobzio/docmodel"
	"go.mongodb.org/mongo-driver/bson"
)

// jsonFormat implements docmodel.Format for JSON.
type jsonFormat struct{}

// New returns a JSON format.
func New() docmodel.Format {
	return &jsonFormat{}
}

// ContentType returns the MIME type for JSON.
func (f *jsonFormat) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON. Documents are written as objects.
func (f *jsonFormat) Marshal(v any) ([]byte, error) {
	if doc, ok := docmodel.AsDocument(v); ok {
		return json.Marshal(docmodel.ToMap(doc))
	}
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v. Objects decoded into a *bson.D have
// their keys sorted; integral numbers become int64 values and other numbers
// float64 values.
func (f *jsonFormat) Unmarshal(data []byte, v any) error {
	doc, ok := v.(*bson.D)
	if !ok {
		return json.Unmarshal(data, v)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("json: unexpected data after document")
	}
	numbers(m)
	*doc = docmodel.FromMap(m)
	return nil
}

// numbers replaces json.Number values in place.
func numbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case map[string]any:
		for k, e := range val {
			val[k] = numbers(e)
		}
	case []any:
		for i, e := range val {
			val[i] = numbers(e)
		}
	}
	return v
}
