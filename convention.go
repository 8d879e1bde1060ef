package docmodel

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Convention transforms a ClassModelBuilder in place during Build.
type Convention interface {
	Apply(b *ClassModelBuilder) error
}

// ConventionFunc adapts a function to the Convention interface.
type ConventionFunc func(b *ClassModelBuilder) error

// Apply calls f(b).
func (f ConventionFunc) Apply(b *ClassModelBuilder) error {
	return f(b)
}

// DefaultConventions returns the default pipeline: defaults, markers, then
// identity generators.
func DefaultConventions() []Convention {
	return []Convention{
		DefaultsConvention{},
		MarkerConvention{},
		IDGeneratorConvention{},
	}
}

// DefaultsConvention fills what is still unset: the discriminator key ("_t"),
// the discriminator name (the fully qualified type name) and the identity
// property (the first property named "_id" or "id"). Applying it twice is a no-op.
type DefaultsConvention struct{}

// Apply implements Convention.
func (DefaultsConvention) Apply(b *ClassModelBuilder) error {
	if b.DiscriminatorKey() == "" {
		b.SetDiscriminatorKey(DefaultDiscriminatorKey)
	}
	if b.Discriminator() == "" && b.Type() != nil {
		b.SetDiscriminator(typeName(b.Type()))
	}
	if b.IDPropertyName() == "" {
		for _, p := range b.Properties() {
			if p.Name() == idFieldName || p.Name() == "id" {
				b.SetIDPropertyName(p.Name())
				break
			}
		}
	}
	return nil
}

// IDGenerator produces identity values for documents that lack one.
type IDGenerator interface {
	// Type returns the type of the generated values.
	Type() reflect.Type

	// Generate returns a new identity value.
	Generate() (any, error)
}

var (
	objectIDType    = reflect.TypeOf(primitive.ObjectID{})
	objectIDPtrType = reflect.TypeOf((*primitive.ObjectID)(nil))
	stringType      = reflect.TypeOf("")
)

// ObjectIDGenerator generates BSON object ids as a primitive.ObjectID, a
// *primitive.ObjectID or their hex string.
type ObjectIDGenerator struct {
	typ reflect.Type
}

// NewObjectIDGenerator returns a generator for t, or nil when t is not an
// object id, a pointer to one, or a string.
func NewObjectIDGenerator(t reflect.Type) *ObjectIDGenerator {
	switch t {
	case objectIDType, objectIDPtrType, stringType:
		return &ObjectIDGenerator{typ: t}
	}
	return nil
}

// Type implements IDGenerator.
func (g *ObjectIDGenerator) Type() reflect.Type {
	return g.typ
}

// Generate implements IDGenerator.
func (g *ObjectIDGenerator) Generate() (any, error) {
	id := primitive.NewObjectID()
	switch g.typ {
	case objectIDPtrType:
		return &id, nil
	case stringType:
		return id.Hex(), nil
	default:
		return id, nil
	}
}

// IDGeneratorConvention attaches an ObjectIDGenerator when the identity
// property holds an object id or a string and no generator is set.
type IDGeneratorConvention struct{}

// Apply implements Convention.
func (IDGeneratorConvention) Apply(b *ClassModelBuilder) error {
	if b.IDGenerator() != nil {
		return nil
	}
	id := b.Property(b.IDPropertyName())
	if id == nil {
		return nil
	}
	if g := NewObjectIDGenerator(id.TypeData().Type()); g != nil {
		b.SetIDGenerator(g)
	}
	return nil
}
