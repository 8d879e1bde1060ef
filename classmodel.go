package docmodel

import (
	"fmt"
	"reflect"
)

const (
	// DefaultDiscriminatorKey is the document key holding the discriminator.
	DefaultDiscriminatorKey = "_t"

	// idFieldName is the document key of the identity property.
	idFieldName = "_id"
)

// ClassModelBuilder accumulates the mapping of one type during one build
// attempt. Conventions mutate it in place; Build freezes it into a ClassModel.
type ClassModelBuilder struct {
	typ                  reflect.Type
	markers              []Marker
	discriminatorKey     string
	discriminator        string
	discriminatorEnabled bool
	idPropertyName       string
	idGenerator          IDGenerator
	properties           []*PropertyModelBuilder
	conventions          []Convention
	instanceCreator      InstanceCreatorFactory
	constructors         []Routine
	levels               []Level
}

// NewClassModelBuilder returns a builder seeded from a type description.
func NewClassModelBuilder(info *TypeInfo) *ClassModelBuilder {
	b := &ClassModelBuilder{
		typ:          info.Type,
		markers:      info.Markers,
		properties:   append([]*PropertyModelBuilder(nil), info.Properties...),
		constructors: info.Constructors,
		levels:       info.Levels,
	}
	return b
}

// Type returns the target type.
func (b *ClassModelBuilder) Type() reflect.Type { return b.typ }

// Markers returns the type-level markers.
func (b *ClassModelBuilder) Markers() []Marker { return b.markers }

// DiscriminatorKey returns the discriminator key, empty when unset.
func (b *ClassModelBuilder) DiscriminatorKey() string { return b.discriminatorKey }

// SetDiscriminatorKey sets the discriminator key.
func (b *ClassModelBuilder) SetDiscriminatorKey(key string) *ClassModelBuilder {
	b.discriminatorKey = key
	return b
}

// Discriminator returns the discriminator name, empty when unset.
func (b *ClassModelBuilder) Discriminator() string { return b.discriminator }

// SetDiscriminator sets the discriminator name.
func (b *ClassModelBuilder) SetDiscriminator(name string) *ClassModelBuilder {
	b.discriminator = name
	return b
}

// DiscriminatorEnabled reports whether documents carry the discriminator.
func (b *ClassModelBuilder) DiscriminatorEnabled() bool { return b.discriminatorEnabled }

// EnableDiscriminator sets whether documents carry the discriminator.
func (b *ClassModelBuilder) EnableDiscriminator(enabled bool) *ClassModelBuilder {
	b.discriminatorEnabled = enabled
	return b
}

// IDPropertyName returns the identity property name, empty when unset.
func (b *ClassModelBuilder) IDPropertyName() string { return b.idPropertyName }

// SetIDPropertyName designates the identity property. An empty name clears it.
func (b *ClassModelBuilder) SetIDPropertyName(name string) *ClassModelBuilder {
	b.idPropertyName = name
	return b
}

// IDGenerator returns the identity generator, nil when unset.
func (b *ClassModelBuilder) IDGenerator() IDGenerator { return b.idGenerator }

// SetIDGenerator sets the identity generator.
func (b *ClassModelBuilder) SetIDGenerator(g IDGenerator) *ClassModelBuilder {
	b.idGenerator = g
	return b
}

// Properties returns the property builders in insertion order.
func (b *ClassModelBuilder) Properties() []*PropertyModelBuilder {
	return append([]*PropertyModelBuilder(nil), b.properties...)
}

// Property returns the property builder with the given canonical name, or nil.
func (b *ClassModelBuilder) Property(name string) *PropertyModelBuilder {
	if name == "" {
		return nil
	}
	for _, p := range b.properties {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// AddProperty appends a property builder.
func (b *ClassModelBuilder) AddProperty(p *PropertyModelBuilder) *ClassModelBuilder {
	b.properties = append(b.properties, p)
	return b
}

// RemoveProperty removes the property builder with the given canonical name.
// It reports whether a property was removed.
func (b *ClassModelBuilder) RemoveProperty(name string) bool {
	for i, p := range b.properties {
		if p.Name() == name {
			b.properties = append(b.properties[:i:i], b.properties[i+1:]...)
			return true
		}
	}
	return false
}

// Conventions returns the conventions applied by Build.
func (b *ClassModelBuilder) Conventions() []Convention { return b.conventions }

// SetConventions replaces the conventions applied by Build.
func (b *ClassModelBuilder) SetConventions(conventions ...Convention) *ClassModelBuilder {
	b.conventions = conventions
	return b
}

// InstanceCreatorFactory returns the attached construction factory, nil when unset.
func (b *ClassModelBuilder) InstanceCreatorFactory() InstanceCreatorFactory { return b.instanceCreator }

// SetInstanceCreatorFactory attaches a construction factory.
func (b *ClassModelBuilder) SetInstanceCreatorFactory(f InstanceCreatorFactory) *ClassModelBuilder {
	b.instanceCreator = f
	return b
}

// Constructors returns the constructors declared for the type.
func (b *ClassModelBuilder) Constructors() []Routine { return b.constructors }

// Levels returns the embedding chain, the type itself first, with the static
// methods declared on each level.
func (b *ClassModelBuilder) Levels() []Level { return b.levels }

// Build applies the conventions, validates the result and freezes it into a
// ClassModel. The builder must not be reused afterwards.
func (b *ClassModelBuilder) Build() (*ClassModel, error) {
	conventions := b.conventions
	if conventions == nil {
		conventions = DefaultConventions()
	}
	for _, c := range conventions {
		if err := c.Apply(b); err != nil {
			return nil, err
		}
	}

	name := typeName(b.typ)
	if b.discriminatorEnabled {
		if b.discriminatorKey == "" {
			return nil, newConfigError(ErrInvalidDiscriminator, name, "", "discriminator key is empty")
		}
		if b.discriminator == "" {
			return nil, newConfigError(ErrInvalidDiscriminator, name, "", "discriminator name is empty")
		}
	}

	var id *PropertyModelBuilder
	if b.idPropertyName != "" {
		id = b.Property(b.idPropertyName)
		if id == nil {
			return nil, newConfigError(ErrMissingIDProperty, name, b.idPropertyName, "identity property is not part of the model")
		}
		if id.IsReadable() {
			id.SetReadName(idFieldName)
		}
		if id.IsWritable() {
			id.SetWriteName(idFieldName)
		}
	}

	model := &ClassModel{
		typ:                  b.typ,
		discriminatorKey:     b.discriminatorKey,
		discriminator:        b.discriminator,
		discriminatorEnabled: b.discriminatorEnabled,
		idGenerator:          b.idGenerator,
		instanceCreator:      b.instanceCreator,
	}

	names := make(map[string]bool)
	readNames := make(map[string]bool)
	writeNames := make(map[string]bool)
	for _, p := range b.properties {
		if !p.IsReadable() && !p.IsWritable() {
			continue
		}
		if names[p.Name()] {
			return nil, newConfigError(ErrDuplicateProperty, name, p.Name(), "duplicate property name")
		}
		names[p.Name()] = true
		if p.IsReadable() {
			if readNames[p.ReadName()] {
				return nil, newConfigError(ErrDuplicateProperty, name, p.Name(),
					fmt.Sprintf("read name %q is already used", p.ReadName()))
			}
			readNames[p.ReadName()] = true
		}
		if p.IsWritable() {
			if writeNames[p.WriteName()] {
				return nil, newConfigError(ErrDuplicateProperty, name, p.Name(),
					fmt.Sprintf("write name %q is already used", p.WriteName()))
			}
			writeNames[p.WriteName()] = true
		}

		pm := p.build()
		model.properties = append(model.properties, pm)
		if p == id {
			model.idProperty = pm
		}
	}
	if id != nil && model.idProperty == nil {
		return nil, newConfigError(ErrMissingIDProperty, name, b.idPropertyName, "identity property is neither readable nor writable")
	}

	if model.instanceCreator == nil && b.typ != nil && b.typ.Kind() == reflect.Struct {
		model.instanceCreator = zeroValueFactory{typ: b.typ}
	}

	return model, nil
}

// ClassModel is the immutable mapping of one type.
type ClassModel struct {
	typ                  reflect.Type
	discriminatorKey     string
	discriminator        string
	discriminatorEnabled bool
	idProperty           *PropertyModel
	idGenerator          IDGenerator
	properties           []*PropertyModel
	instanceCreator      InstanceCreatorFactory
}

// Type returns the target type.
func (m *ClassModel) Type() reflect.Type { return m.typ }

// Name returns the fully qualified type name.
func (m *ClassModel) Name() string { return typeName(m.typ) }

// DiscriminatorKey returns the discriminator key.
func (m *ClassModel) DiscriminatorKey() string { return m.discriminatorKey }

// Discriminator returns the discriminator name.
func (m *ClassModel) Discriminator() string { return m.discriminator }

// DiscriminatorEnabled reports whether documents carry the discriminator.
func (m *ClassModel) DiscriminatorEnabled() bool { return m.discriminatorEnabled }

// IDProperty returns the identity property, nil when the model has none.
func (m *ClassModel) IDProperty() *PropertyModel { return m.idProperty }

// IDPropertyName returns the canonical name of the identity property, empty when none.
func (m *ClassModel) IDPropertyName() string {
	if m.idProperty == nil {
		return ""
	}
	return m.idProperty.Name()
}

// IDGenerator returns the identity generator, nil when unset.
func (m *ClassModel) IDGenerator() IDGenerator { return m.idGenerator }

// Properties returns the live properties in declaration order.
func (m *ClassModel) Properties() []*PropertyModel {
	return append([]*PropertyModel(nil), m.properties...)
}

// Property returns the property with the given canonical name, or nil.
func (m *ClassModel) Property(name string) *PropertyModel {
	for _, p := range m.properties {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// InstanceCreatorFactory returns the construction factory, nil for non-struct types.
func (m *ClassModel) InstanceCreatorFactory() InstanceCreatorFactory { return m.instanceCreator }

// propertyByWriteName returns the writable property decoded from key, or nil.
func (m *ClassModel) propertyByWriteName(key string) *PropertyModel {
	for _, p := range m.properties {
		if p.IsWritable() && p.WriteName() == key {
			return p
		}
	}
	return nil
}
