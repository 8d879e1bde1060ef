package docmodel

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Processor encodes values of type T into documents and serializes them with
// a Format, and the reverse.
//
// Processors are safe for concurrent use. The codec for T is resolved once,
// when the processor is created.
type Processor[T any] struct {
	format   Format
	registry *Registry
	codec    Codec

	// Type metadata
	typeName string
}

// NewProcessor creates a new Processor for type T resolving codecs through reg.
// A nil registry selects Default(). It fails when reg has no codec for T.
func NewProcessor[T any](format Format, reg *Registry) (*Processor[T], error) {
	if reg == nil {
		reg = Default()
	}
	typ := reflect.TypeFor[T]()
	codec, err := reg.Lookup(typ)
	if err != nil {
		return nil, err
	}

	p := &Processor[T]{
		format:   format,
		registry: reg,
		codec:    codec,
		typeName: typeName(typ),
	}

	emitProcessorCreated(context.Background(), format.ContentType(), p.typeName)
	return p, nil
}

// Codec returns the codec resolved for T.
func (p *Processor[T]) Codec() Codec {
	return p.codec
}

// Registry returns the registry the processor resolves codecs through.
func (p *Processor[T]) Registry() *Registry {
	return p.registry
}

// Encode converts obj into a document and marshals it. A nil obj encodes as
// an empty document.
func (p *Processor[T]) Encode(ctx context.Context, obj *T) ([]byte, error) {
	start := time.Now()
	emitEncodeStart(ctx, p.format.ContentType(), p.typeName)

	var retErr error
	var retData []byte
	defer func() {
		emitEncodeComplete(ctx, p.format.ContentType(), p.typeName,
			len(retData), time.Since(start), retErr)
	}()

	doc := bson.D{}
	if obj != nil {
		v, err := p.codec.EncodeValue(reflect.ValueOf(obj))
		if err != nil {
			retErr = err
			return nil, retErr
		}
		if v != nil {
			d, ok := v.(bson.D)
			if !ok {
				retErr = newCodecError(ErrEncode, p.typeName, fmt.Errorf("codec produced %T, not a document", v))
				return nil, retErr
			}
			doc = d
		}
	}

	retData, retErr = p.format.Marshal(doc)
	if retErr != nil {
		retErr = newCodecError(ErrEncode, p.typeName, retErr)
		return nil, retErr
	}
	return retData, nil
}

// Decode unmarshals data into a document and converts it into a T.
func (p *Processor[T]) Decode(ctx context.Context, data []byte) (*T, error) {
	start := time.Now()
	emitDecodeStart(ctx, p.format.ContentType(), p.typeName)

	var retErr error
	defer func() {
		emitDecodeComplete(ctx, p.format.ContentType(), p.typeName,
			len(data), time.Since(start), retErr)
	}()

	var doc bson.D
	if err := p.format.Unmarshal(data, &doc); err != nil {
		retErr = newCodecError(ErrDecode, p.typeName, err)
		return nil, retErr
	}

	v, err := p.codec.DecodeValue(doc)
	if err != nil {
		retErr = err
		return nil, retErr
	}

	obj := new(T)
	if v.IsValid() {
		reflect.ValueOf(obj).Elem().Set(v)
	}
	return obj, nil
}

// EnsureID generates an identity for obj when it has none. It reports whether
// an identity was generated.
func (p *Processor[T]) EnsureID(obj *T) (bool, error) {
	mc, ok := p.codec.(*ModelCodec)
	if !ok {
		return false, newCodecError(ErrIDGeneration, p.typeName, fmt.Errorf("codec %T has no class model", p.codec))
	}
	return mc.GenerateIDIfAbsent(obj)
}
