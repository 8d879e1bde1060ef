package docmodel

import (
	"fmt"
	"reflect"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// Codec converts between values of one Go type and BSON values. Model codecs
// encode to bson.D documents.
type Codec interface {
	// Type returns the Go type handled by the codec.
	Type() reflect.Type

	// EncodeValue converts v into a BSON value.
	EncodeValue(v reflect.Value) (any, error)

	// DecodeValue converts a BSON value into a value of Type().
	DecodeValue(raw any) (reflect.Value, error)
}

// CodecProvider supplies codecs by type. ok is false when the provider has no
// codec for t.
type CodecProvider interface {
	Get(t reflect.Type, reg *Registry) (c Codec, ok bool)
}

// PropertyCodecProvider supplies codecs for property types. Model codecs ask
// their property codec providers before the registry.
type PropertyCodecProvider interface {
	Get(td TypeData, reg *Registry) (c Codec, ok bool)
}

// PropertyCodecProviderFunc adapts a function to the PropertyCodecProvider interface.
type PropertyCodecProviderFunc func(td TypeData, reg *Registry) (Codec, bool)

// Get calls f(td, reg).
func (f PropertyCodecProviderFunc) Get(td TypeData, reg *Registry) (Codec, bool) {
	return f(td, reg)
}

// ModelCodec encodes and decodes values through a ClassModel.
type ModelCodec struct {
	model             *ClassModel
	registry          *Registry
	propertyProviders []PropertyCodecProvider
	discriminators    *DiscriminatorLookup
	serializeNull     bool
	automatic         bool
}

// NewModelCodec returns a codec for model resolving nested types through reg.
func NewModelCodec(model *ClassModel, reg *Registry, discriminators *DiscriminatorLookup, providers ...PropertyCodecProvider) *ModelCodec {
	if discriminators == nil {
		discriminators = NewDiscriminatorLookup(model)
	}
	return &ModelCodec{
		model:             model,
		registry:          reg,
		propertyProviders: providers,
		discriminators:    discriminators,
	}
}

// Type implements Codec.
func (c *ModelCodec) Type() reflect.Type { return c.model.Type() }

// Model returns the class model.
func (c *ModelCodec) Model() *ClassModel { return c.model }

// Automatic reports whether the model was derived on demand rather than registered.
func (c *ModelCodec) Automatic() bool { return c.automatic }

// EncodeValue implements Codec. Nil values encode to nil.
func (c *ModelCodec) EncodeValue(v reflect.Value) (any, error) {
	return c.encode(v, false)
}

func (c *ModelCodec) encode(v reflect.Value, withDiscriminator bool) (any, error) {
	v = deref(v)
	if !v.IsValid() {
		return nil, nil
	}

	if v.Type() != c.model.Type() {
		sub, err := c.lookup(v.Type())
		if err != nil {
			return nil, newCodecError(ErrEncode, c.model.Name(), err)
		}
		if mc, ok := sub.(*ModelCodec); ok {
			return mc.encode(v, true)
		}
		return sub.EncodeValue(v)
	}

	doc := bson.D{}
	if c.model.DiscriminatorEnabled() || withDiscriminator {
		doc = append(doc, bson.E{Key: c.model.DiscriminatorKey(), Value: c.model.Discriminator()})
	}

	for _, p := range c.model.properties {
		if !p.IsReadable() || p.Accessor() == nil {
			continue
		}
		fv, ok := p.Accessor().Get(v)
		if !ok || isNil(fv) {
			if c.serializeNull {
				doc = append(doc, bson.E{Key: p.ReadName(), Value: nil})
			}
			continue
		}
		val, err := c.encodeProperty(p, fv)
		if err != nil {
			return nil, newCodecError(ErrEncode, c.model.Name(), fmt.Errorf("property %s: %w", p.Name(), err))
		}
		doc = append(doc, bson.E{Key: p.ReadName(), Value: val})
	}
	return doc, nil
}

func (c *ModelCodec) encodeProperty(p *PropertyModel, v reflect.Value) (any, error) {
	if pc, ok := c.propertyCodec(p.TypeData()); ok {
		return pc.EncodeValue(v)
	}
	return c.encodeAny(v, p.DiscriminatorEnabled())
}

// encodeAny encodes nested values: model types through their codecs, slices
// and string-keyed maps element by element, anything else as is.
func (c *ModelCodec) encodeAny(v reflect.Value, withDiscriminator bool) (any, error) {
	// Values held by a non-empty interface always carry the discriminator.
	if v.Kind() == reflect.Interface && v.Type().NumMethod() > 0 {
		withDiscriminator = true
	}
	v = deref(v)
	if !v.IsValid() {
		return nil, nil
	}

	t := v.Type()
	switch t.Kind() {
	case reflect.Struct:
		if codec, err := c.lookup(t); err == nil {
			if mc, ok := codec.(*ModelCodec); ok {
				return mc.encode(v, withDiscriminator)
			}
			return codec.EncodeValue(v)
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			break
		}
		arr := make(bson.A, v.Len())
		for i := range arr {
			ev, err := c.encodeAny(v.Index(i), withDiscriminator)
			if err != nil {
				return nil, err
			}
			arr[i] = ev
		}
		return arr, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		doc := make(bson.D, 0, len(keys))
		for _, k := range keys {
			ev, err := c.encodeAny(v.MapIndex(k), withDiscriminator)
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: k.String(), Value: ev})
		}
		return doc, nil
	}
	return v.Interface(), nil
}

// DecodeValue implements Codec. It accepts bson.D, bson.M and map[string]any
// documents; nil decodes to the zero value.
func (c *ModelCodec) DecodeValue(raw any) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(c.model.Type()), nil
	}
	doc, err := toDocument(raw)
	if err != nil {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), err)
	}

	t := c.model.Type()
	if t.Kind() == reflect.Interface {
		return c.decodeSubtype(doc)
	}
	return c.decodeModel(doc)
}

// decodeSubtype decodes a document held by an interface through the model of
// the type named by its discriminator.
func (c *ModelCodec) decodeSubtype(doc bson.D) (reflect.Value, error) {
	t := c.model.Type()
	name, ok := discriminatorValue(doc, c.model.DiscriminatorKey())
	if !ok {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(),
			newConfigError(ErrMissingDiscriminator, c.model.Name(), "", c.model.DiscriminatorKey()))
	}
	st, err := c.discriminators.Lookup(name)
	if err != nil {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), err)
	}
	if !isSubtype(st, t) {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(),
			fmt.Errorf("discriminator %q names %s which does not implement %s", name, st, t))
	}
	sub, err := c.lookup(st)
	if err != nil {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), err)
	}
	sv, err := sub.DecodeValue(doc)
	if err != nil {
		return reflect.Value{}, err
	}

	out := reflect.New(t).Elem()
	switch {
	case sv.Type().AssignableTo(t):
		out.Set(sv)
	case reflect.PointerTo(sv.Type()).AssignableTo(t):
		ptr := reflect.New(sv.Type())
		ptr.Elem().Set(sv)
		out.Set(ptr)
	default:
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(),
			fmt.Errorf("%s cannot be stored in %s", sv.Type(), t))
	}
	return out, nil
}

func (c *ModelCodec) decodeModel(doc bson.D) (reflect.Value, error) {
	factory := c.model.InstanceCreatorFactory()
	if factory == nil {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), fmt.Errorf("no instance creator"))
	}
	creator := factory.Create()

	for _, e := range doc {
		if c.model.DiscriminatorKey() != "" && e.Key == c.model.DiscriminatorKey() {
			continue
		}
		p := c.model.propertyByWriteName(e.Key)
		if p == nil {
			continue
		}
		v, err := c.decodeProperty(p, e.Value)
		if err != nil {
			return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), fmt.Errorf("property %s: %w", p.Name(), err))
		}
		if err := creator.Set(p, v); err != nil {
			return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), err)
		}
	}

	instance, err := creator.Instance()
	if err != nil {
		return reflect.Value{}, newCodecError(ErrDecode, c.model.Name(), err)
	}
	return instance.Elem(), nil
}

func (c *ModelCodec) decodeProperty(p *PropertyModel, raw any) (reflect.Value, error) {
	if pc, ok := c.propertyCodec(p.TypeData()); ok {
		return pc.DecodeValue(raw)
	}
	return c.decodeAny(p.decodeType(), raw)
}

// decodeAny decodes raw into a value of type t, mirroring encodeAny.
func (c *ModelCodec) decodeAny(t reflect.Type, raw any) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		ev, err := c.decodeAny(t.Elem(), raw)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(ev)
		return ptr, nil
	case reflect.Struct, reflect.Interface:
		if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
			break
		}
		if codec, err := c.lookup(t); err == nil {
			return codec.DecodeValue(raw)
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			break
		}
		items, ok := toArray(raw)
		if !ok {
			break
		}
		out := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			ev, err := c.decodeAny(t.Elem(), item)
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, ev)
		}
		return out, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		doc, err := toDocument(raw)
		if err != nil {
			break
		}
		out := reflect.MakeMapWithSize(t, len(doc))
		for _, e := range doc {
			ev, err := c.decodeAny(t.Elem(), e.Value)
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(e.Key).Convert(t.Key()), ev)
		}
		return out, nil
	}
	return coerce(raw, t)
}

func (c *ModelCodec) propertyCodec(td TypeData) (Codec, bool) {
	for _, pp := range c.propertyProviders {
		if codec, ok := pp.Get(td, c.registry); ok {
			return codec, true
		}
	}
	return nil, false
}

func (c *ModelCodec) lookup(t reflect.Type) (Codec, error) {
	if c.registry == nil {
		return nil, newConfigError(ErrNoCodec, typeName(t), "", "codec has no registry")
	}
	return c.registry.Lookup(t)
}

// DocumentHasID reports whether v carries a non-zero identity value.
func (c *ModelCodec) DocumentHasID(v any) bool {
	id, ok := c.DocumentID(v)
	return ok && !reflect.ValueOf(id).IsZero()
}

// DocumentID returns the identity value of v. ok is false when the model has
// no readable identity property.
func (c *ModelCodec) DocumentID(v any) (id any, ok bool) {
	p := c.model.IDProperty()
	if p == nil || p.Accessor() == nil {
		return nil, false
	}
	rv := deref(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Type() != c.model.Type() {
		return nil, false
	}
	fv, ok := p.Accessor().Get(rv)
	if !ok || isNil(fv) {
		return nil, false
	}
	return fv.Interface(), true
}

// GenerateIDIfAbsent sets a generated identity on v, which must be a pointer,
// when it has none. It reports whether an identity was generated.
func (c *ModelCodec) GenerateIDIfAbsent(v any) (bool, error) {
	if c.DocumentHasID(v) {
		return false, nil
	}
	p := c.model.IDProperty()
	gen := c.model.IDGenerator()
	if p == nil || gen == nil || p.Accessor() == nil {
		return false, newCodecError(ErrIDGeneration, c.model.Name(), fmt.Errorf("model has no identity generator"))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return false, newCodecError(ErrIDGeneration, c.model.Name(), fmt.Errorf("expected a non-nil pointer, got %T", v))
	}
	id, err := gen.Generate()
	if err != nil {
		return false, newCodecError(ErrIDGeneration, c.model.Name(), err)
	}
	if err := p.Accessor().Set(rv, reflect.ValueOf(id)); err != nil {
		return false, newCodecError(ErrIDGeneration, c.model.Name(), err)
	}
	return true, nil
}

// deref strips pointers and interfaces; the result is invalid for nil values.
func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func discriminatorValue(doc bson.D, key string) (string, bool) {
	for _, e := range doc {
		if e.Key == key {
			s, ok := e.Value.(string)
			return s, ok && s != ""
		}
	}
	return "", false
}
