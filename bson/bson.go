// Package bson provides a BSON format implementation.
package bson

import (
	"github.com/zoobzio/docmodel"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// bsonFormat implements docmodel.Format for BSON.
type bsonFormat struct{}

// New returns a BSON format.
func New() docmodel.Format {
	return &bsonFormat{}
}

// ContentType returns the MIME type for BSON.
func (f *bsonFormat) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON. Maps are written as documents with sorted keys.
func (f *bsonFormat) Marshal(v any) ([]byte, error) {
	if doc, ok := docmodel.AsDocument(v); ok {
		return bson.Marshal(doc)
	}
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v. Nested documents decode as bson.D
// values and arrays as bson.A values.
func (f *bsonFormat) Unmarshal(data []byte, v any) error {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return err
	}
	dec.DefaultDocumentD()
	return dec.Decode(v)
}
