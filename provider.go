package docmodel

import (
	"context"
	"reflect"
)

// ProviderBuilder configures a Provider. Setters return the builder for
// chaining; Build freezes the configuration.
type ProviderBuilder struct {
	automatic         bool
	conventions       []Convention
	types             []reflect.Type
	models            []*ClassModel
	packages          []string
	propertyProviders []PropertyCodecProvider
	introspector      Introspector
	serializeNull     bool
}

// NewProviderBuilder returns a builder with automatic discovery disabled and
// the default conventions.
func NewProviderBuilder() *ProviderBuilder {
	return &ProviderBuilder{}
}

// Automatic enables building models for any requested type.
func (b *ProviderBuilder) Automatic(enabled bool) *ProviderBuilder {
	b.automatic = enabled
	return b
}

// Conventions replaces the default convention pipeline. Conventions run in
// the given order.
func (b *ProviderBuilder) Conventions(conventions ...Convention) *ProviderBuilder {
	b.conventions = append([]Convention{}, conventions...)
	return b
}

// Register adds types whose models are built by Build.
func (b *ProviderBuilder) Register(types ...reflect.Type) *ProviderBuilder {
	for _, t := range types {
		b.types = append(b.types, indirect(t))
	}
	return b
}

// RegisterModels adds prebuilt models. They take precedence over registered types.
func (b *ProviderBuilder) RegisterModels(models ...*ClassModel) *ProviderBuilder {
	b.models = append(b.models, models...)
	return b
}

// RegisterPackages enables building models for types of the given package paths.
func (b *ProviderBuilder) RegisterPackages(packages ...string) *ProviderBuilder {
	b.packages = append(b.packages, packages...)
	return b
}

// RegisterPropertyCodecProviders adds property codec providers passed to every codec.
func (b *ProviderBuilder) RegisterPropertyCodecProviders(providers ...PropertyCodecProvider) *ProviderBuilder {
	b.propertyProviders = append(b.propertyProviders, providers...)
	return b
}

// Introspector replaces DefaultScanner as the source of type descriptions.
func (b *ProviderBuilder) Introspector(i Introspector) *ProviderBuilder {
	b.introspector = i
	return b
}

// SerializeNull makes codecs write nil properties instead of omitting them.
func (b *ProviderBuilder) SerializeNull(enabled bool) *ProviderBuilder {
	b.serializeNull = enabled
	return b
}

// Build builds the models of registered types not covered by a registered
// model and returns the provider. Model building errors are returned.
func (b *ProviderBuilder) Build() (*Provider, error) {
	p := &Provider{
		automatic:         b.automatic,
		conventions:       b.conventions,
		packages:          make(map[string]bool, len(b.packages)),
		models:            make(map[reflect.Type]*ClassModel, len(b.models)+len(b.types)),
		propertyProviders: append([]PropertyCodecProvider(nil), b.propertyProviders...),
		introspector:      b.introspector,
		serializeNull:     b.serializeNull,
	}
	if p.introspector == nil {
		p.introspector = DefaultScanner()
	}
	for _, pkg := range b.packages {
		p.packages[pkg] = true
	}

	ordered := make([]*ClassModel, 0, len(b.models)+len(b.types))
	for _, m := range b.models {
		p.models[m.Type()] = m
		ordered = append(ordered, m)
	}
	for _, t := range b.types {
		if _, ok := p.models[t]; ok {
			continue
		}
		m, err := p.buildModel(t)
		if err != nil {
			return nil, err
		}
		p.models[t] = m
		ordered = append(ordered, m)
	}

	p.discriminators = NewDiscriminatorLookup(ordered...)
	return p, nil
}

// Provider is a CodecProvider producing ModelCodecs from registered models,
// or from models built on demand for automatic and package-registered types.
type Provider struct {
	automatic         bool
	conventions       []Convention
	packages          map[string]bool
	models            map[reflect.Type]*ClassModel
	propertyProviders []PropertyCodecProvider
	introspector      Introspector
	serializeNull     bool
	discriminators    *DiscriminatorLookup
}

// Get implements CodecProvider. Registered types always have a codec. Other
// types get one when automatic discovery is enabled or their package is
// registered, and their model is an interface or has at least one property.
// Automatic models are rebuilt on every call; build failures are reported
// through SignalModelFailed and yield no codec.
func (p *Provider) Get(t reflect.Type, reg *Registry) (Codec, bool) {
	t = indirect(t)
	if t == nil {
		return nil, false
	}
	ctx := context.Background()

	if m, ok := p.models[t]; ok {
		emitCodecCreated(ctx, m.Name(), CodecSourceExplicit)
		return p.newCodec(m, reg, false), true
	}
	if !p.automatic && !p.packages[t.PkgPath()] {
		return nil, false
	}

	m, err := p.buildModel(t)
	if err != nil {
		emitModelFailed(ctx, typeName(t), err)
		return nil, false
	}
	if t.Kind() != reflect.Interface && len(m.properties) == 0 {
		return nil, false
	}

	p.discriminators.Publish(m)
	emitCodecCreated(ctx, m.Name(), CodecSourceAutomatic)
	return p.newCodec(m, reg, true), true
}

// Model returns the registered or Build-built model for t.
func (p *Provider) Model(t reflect.Type) (*ClassModel, bool) {
	m, ok := p.models[indirect(t)]
	return m, ok
}

// Discriminators returns the discriminator index shared by the provider's codecs.
func (p *Provider) Discriminators() *DiscriminatorLookup {
	return p.discriminators
}

func (p *Provider) buildModel(t reflect.Type) (*ClassModel, error) {
	info, err := p.introspector.Introspect(t)
	if err != nil {
		return nil, err
	}
	m, err := NewClassModelBuilder(info).SetConventions(p.conventions...).Build()
	if err != nil {
		return nil, err
	}
	emitModelBuilt(context.Background(), m.Name(), len(m.properties))
	return m, nil
}

func (p *Provider) newCodec(m *ClassModel, reg *Registry, automatic bool) *ModelCodec {
	c := NewModelCodec(m, reg, p.discriminators, p.propertyProviders...)
	c.serializeNull = p.serializeNull
	c.automatic = automatic
	return c
}
