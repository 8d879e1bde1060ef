package docmodel

import (
	"fmt"
	"reflect"
)

// PropertyAccessor reads and writes one property on an instance.
type PropertyAccessor interface {
	// Type returns the declared Go type of the underlying field.
	Type() reflect.Type

	// Get returns the property value. ok is false when an embedded pointer on
	// the path is nil.
	Get(instance reflect.Value) (v reflect.Value, ok bool)

	// Set stores v on instance, allocating nil embedded pointers on the path.
	Set(instance reflect.Value, v reflect.Value) error
}

// fieldAccessor accesses a struct field by index path.
type fieldAccessor struct {
	index      []int        // reflect.Value.FieldByIndex access path
	ptrIndices []int        // positions in index where pointer dereference is needed
	typ        reflect.Type // field type
}

// newFieldAccessor builds an accessor for the field at index within t.
func newFieldAccessor(t reflect.Type, index []int) *fieldAccessor {
	fa := &fieldAccessor{index: append([]int(nil), index...)}
	cur := t
	for i, idx := range index {
		sf := cur.Field(idx)
		cur = sf.Type
		if i < len(index)-1 && cur.Kind() == reflect.Ptr {
			fa.ptrIndices = append(fa.ptrIndices, i)
			cur = cur.Elem()
		}
	}
	fa.typ = cur
	return fa
}

func (a *fieldAccessor) Type() reflect.Type {
	return a.typ
}

func (a *fieldAccessor) Get(instance reflect.Value) (reflect.Value, bool) {
	return a.walk(instance, false)
}

func (a *fieldAccessor) Set(instance reflect.Value, v reflect.Value) error {
	field, ok := a.walk(instance, true)
	if !ok || !field.CanSet() {
		return fmt.Errorf("field %v of %s is not settable", a.index, instance.Type())
	}
	if !v.IsValid() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if !v.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("cannot assign %s to field of type %s", v.Type(), field.Type())
	}
	field.Set(v)
	return nil
}

// walk navigates the index path, dereferencing (and optionally allocating)
// embedded pointers.
func (a *fieldAccessor) walk(rv reflect.Value, alloc bool) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if len(a.ptrIndices) == 0 {
		return rv.FieldByIndex(a.index), true
	}

	ptrSet := make(map[int]bool, len(a.ptrIndices))
	for _, idx := range a.ptrIndices {
		ptrSet[idx] = true
	}

	current := rv
	for i, idx := range a.index {
		current = current.Field(idx)

		if ptrSet[i] {
			if current.IsNil() {
				if !alloc || !current.CanSet() {
					return reflect.Value{}, false
				}
				current.Set(reflect.New(current.Type().Elem()))
			}
			current = current.Elem()
		}
	}

	return current, true
}

// PropertyModelBuilder accumulates the mapping of one property. Its name is
// fixed at creation; everything else may change until the class model is built.
//
// A property is readable when its read name is set and writable when its write
// name is set.
type PropertyModelBuilder struct {
	name                 string
	readName             string
	writeName            string
	typeData             TypeData
	discriminatorEnabled bool
	readMarkers          []Marker
	writeMarkers         []Marker
	accessor             PropertyAccessor
}

// NewPropertyModelBuilder returns a builder named name whose read and write
// names default to name.
func NewPropertyModelBuilder(name string, td TypeData) *PropertyModelBuilder {
	return &PropertyModelBuilder{
		name:      name,
		readName:  name,
		writeName: name,
		typeData:  td,
	}
}

// Name returns the canonical property name.
func (b *PropertyModelBuilder) Name() string { return b.name }

// ReadName returns the document key used when encoding.
func (b *PropertyModelBuilder) ReadName() string { return b.readName }

// SetReadName sets the read name. An empty name makes the property non-readable.
func (b *PropertyModelBuilder) SetReadName(name string) *PropertyModelBuilder {
	b.readName = name
	return b
}

// WriteName returns the document key used when decoding.
func (b *PropertyModelBuilder) WriteName() string { return b.writeName }

// SetWriteName sets the write name. An empty name makes the property non-writable.
func (b *PropertyModelBuilder) SetWriteName(name string) *PropertyModelBuilder {
	b.writeName = name
	return b
}

// TypeData returns the property type.
func (b *PropertyModelBuilder) TypeData() TypeData { return b.typeData }

// SetTypeData replaces the property type.
func (b *PropertyModelBuilder) SetTypeData(td TypeData) *PropertyModelBuilder {
	b.typeData = td
	return b
}

// DiscriminatorEnabled reports whether nested documents carry a discriminator.
func (b *PropertyModelBuilder) DiscriminatorEnabled() bool { return b.discriminatorEnabled }

// SetDiscriminatorEnabled sets whether nested documents carry a discriminator.
func (b *PropertyModelBuilder) SetDiscriminatorEnabled(enabled bool) *PropertyModelBuilder {
	b.discriminatorEnabled = enabled
	return b
}

// ReadMarkers returns the markers applying to the read side.
func (b *PropertyModelBuilder) ReadMarkers() []Marker { return b.readMarkers }

// SetReadMarkers replaces the read-side markers.
func (b *PropertyModelBuilder) SetReadMarkers(markers ...Marker) *PropertyModelBuilder {
	b.readMarkers = markers
	return b
}

// WriteMarkers returns the markers applying to the write side.
func (b *PropertyModelBuilder) WriteMarkers() []Marker { return b.writeMarkers }

// SetWriteMarkers replaces the write-side markers.
func (b *PropertyModelBuilder) SetWriteMarkers(markers ...Marker) *PropertyModelBuilder {
	b.writeMarkers = markers
	return b
}

// Accessor returns the property accessor, nil for synthesized properties.
func (b *PropertyModelBuilder) Accessor() PropertyAccessor { return b.accessor }

// SetAccessor sets the property accessor.
func (b *PropertyModelBuilder) SetAccessor(a PropertyAccessor) *PropertyModelBuilder {
	b.accessor = a
	return b
}

// IsReadable reports whether the read name is set.
func (b *PropertyModelBuilder) IsReadable() bool { return b.readName != "" }

// IsWritable reports whether the write name is set.
func (b *PropertyModelBuilder) IsWritable() bool { return b.writeName != "" }

func (b *PropertyModelBuilder) build() *PropertyModel {
	return &PropertyModel{
		name:                 b.name,
		readName:             b.readName,
		writeName:            b.writeName,
		typeData:             b.typeData,
		discriminatorEnabled: b.discriminatorEnabled,
		accessor:             b.accessor,
	}
}

// PropertyModel is the immutable mapping of one property.
type PropertyModel struct {
	name                 string
	readName             string
	writeName            string
	typeData             TypeData
	discriminatorEnabled bool
	accessor             PropertyAccessor
}

// Name returns the canonical property name.
func (p *PropertyModel) Name() string { return p.name }

// ReadName returns the document key used when encoding.
func (p *PropertyModel) ReadName() string { return p.readName }

// WriteName returns the document key used when decoding.
func (p *PropertyModel) WriteName() string { return p.writeName }

// TypeData returns the property type.
func (p *PropertyModel) TypeData() TypeData { return p.typeData }

// DiscriminatorEnabled reports whether nested documents carry a discriminator.
func (p *PropertyModel) DiscriminatorEnabled() bool { return p.discriminatorEnabled }

// Accessor returns the property accessor, nil for synthesized properties.
func (p *PropertyModel) Accessor() PropertyAccessor { return p.accessor }

// IsReadable reports whether the property is encoded.
func (p *PropertyModel) IsReadable() bool { return p.readName != "" }

// IsWritable reports whether the property is decoded.
func (p *PropertyModel) IsWritable() bool { return p.writeName != "" }

// decodeType returns the type a document value is decoded into. Properties
// widened to an interface decode into the concrete type carried as its
// parameter.
func (p *PropertyModel) decodeType() reflect.Type {
	if p.typeData.IsInterface() {
		if params := p.typeData.Parameters(); len(params) == 1 && !params[0].IsInterface() && params[0].AssignableTo(p.typeData.Type()) {
			return params[0].Type()
		}
	}
	return p.typeData.Type()
}
