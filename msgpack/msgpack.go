// Package msgpack provides a MessagePack format implementation.
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/docmodel"
	"go.mongodb.org/mongo-driver/bson"
)

// msgpackFormat implements docmodel.Format for MessagePack.
type msgpackFormat struct{}

// New returns a MessagePack format.
func New() docmodel.Format {
	return &msgpackFormat{}
}

// ContentType returns the MIME type for MessagePack.
func (f *msgpackFormat) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack. Documents are written as maps with sorted keys.
func (f *msgpackFormat) Marshal(v any) ([]byte, error) {
	if doc, ok := docmodel.AsDocument(v); ok {
		v = docmodel.ToMap(doc)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v. Integers decoded into a *bson.D
// are int64 or uint64 values.
func (f *msgpackFormat) Unmarshal(data []byte, v any) error {
	doc, ok := v.(*bson.D)
	if !ok {
		return msgpack.Unmarshal(data, v)
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*doc = docmodel.FromMap(m)
	return nil
}
