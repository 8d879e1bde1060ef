package docmodel

import (
	"fmt"
	"reflect"
)

// MarkerConvention interprets declarative markers: the type's discriminator
// marker, the read and write markers of each property, and the creator marker
// of a constructor or static factory method. Properties left with neither a
// read name nor a write name are removed.
type MarkerConvention struct{}

// Apply implements Convention.
func (MarkerConvention) Apply(b *ClassModelBuilder) error {
	applyTypeMarkers(b)
	for _, p := range b.Properties() {
		applyPropertyMarkers(b, p)
	}
	if err := resolveCreator(b); err != nil {
		return err
	}
	removeDeadProperties(b)
	return nil
}

func applyTypeMarkers(b *ClassModelBuilder) {
	for _, m := range b.Markers() {
		if m.Kind != MarkerDiscriminator {
			continue
		}
		if m.Key != "" {
			b.SetDiscriminatorKey(m.Key)
		}
		if m.Value != "" {
			b.SetDiscriminator(m.Value)
		}
		b.EnableDiscriminator(true)
	}
}

func applyPropertyMarkers(b *ClassModelBuilder, p *PropertyModelBuilder) {
	for _, m := range p.ReadMarkers() {
		switch m.Kind {
		case MarkerProperty:
			if m.Value != "" {
				p.SetReadName(m.Value)
			}
			p.SetDiscriminatorEnabled(m.UseDiscriminator)
			// Renaming to the identity name replaces identity inferred from the field name.
			if m.Value != "" && m.Value == b.IDPropertyName() {
				b.SetIDPropertyName("")
			}
		case MarkerID:
			b.SetIDPropertyName(p.Name())
		case MarkerIgnore:
			p.SetReadName("")
		}
	}

	for _, m := range p.WriteMarkers() {
		switch m.Kind {
		case MarkerProperty:
			if m.Value != "" {
				p.SetWriteName(m.Value)
			}
		case MarkerIgnore:
			p.SetWriteName("")
		}
	}
}

// findCreator returns the routine carrying a creator marker: an exported
// constructor of the type, or else a static method on the first level of the
// embedding chain that declares a marked one.
func findCreator(b *ClassModelBuilder) (Routine, bool, error) {
	name := typeName(b.Type())
	var creator Routine
	var found bool

	for _, r := range b.Constructors() {
		if !r.Exported() || r.Synthetic() || !hasMarker(r.Markers, MarkerCreator) {
			continue
		}
		if found {
			return Routine{}, false, newConfigError(ErrDuplicateCreator, name, "",
				"found multiple constructors carrying a creator marker")
		}
		if rt := indirect(r.ResultType()); rt != b.Type() {
			return Routine{}, false, newConfigError(ErrInvalidCreatorReturn, name, "",
				fmt.Sprintf("constructor %s returns %s, expected %s", r.Name(), r.ResultType(), b.Type()))
		}
		creator, found = r, true
	}

	for _, level := range b.Levels() {
		foundMethod := false
		for _, r := range level.Methods {
			if r.Synthetic() || r.Bridge() || !hasMarker(r.Markers, MarkerCreator) {
				continue
			}
			if found {
				return Routine{}, false, newConfigError(ErrDuplicateCreator, name, "",
					"found multiple constructors or methods carrying a creator marker")
			}
			if !isSubtype(r.ResultType(), level.Type) {
				return Routine{}, false, newConfigError(ErrInvalidCreatorReturn, name, "",
					fmt.Sprintf("method %s returns %s, expected %s", r.Name(), r.ResultType(), level.Type))
			}
			creator, found, foundMethod = r, true, true
		}
		if foundMethod {
			break
		}
	}

	return creator, found, nil
}

// resolveCreator binds the parameters of the creator to property builders and
// attaches the creator as the instance factory.
func resolveCreator(b *ClassModelBuilder) error {
	creator, found, err := findCreator(b)
	if err != nil || !found {
		return err
	}

	name := typeName(b.Type())
	if err := creator.validate(); err != nil {
		return newConfigError(err, name, "", "")
	}
	d, err := newCreatorDescriptor(b.Type(), creator)
	if err != nil {
		return err
	}

	for i, marker := range d.properties {
		paramType := d.paramTypes[i]
		var p *PropertyModelBuilder

		if i == d.idIndex {
			p = b.Property(b.IDPropertyName())
			if p == nil {
				return newConfigError(ErrMissingIDProperty, name, "",
					fmt.Sprintf("parameter %d of %s binds the identity property but the type has none", i, creator.Name()))
			}
		} else {
			for _, candidate := range b.Properties() {
				if candidate.WriteName() == marker {
					p = candidate
					break
				} else if candidate.ReadName() == marker {
					// Keep looking for a write name match.
					p = candidate
				}
			}

			if p == nil {
				p = b.Property(marker)
			}

			if p == nil {
				p = NewPropertyModelBuilder(marker, TypeDataOf(paramType)).SetReadName("")
				b.AddProperty(p)
			} else {
				if marker != p.Name() {
					p.SetWriteName(marker)
				}
				widenPropertyType(p, paramType)
			}
		}

		if !p.TypeData().AssignableTo(paramType) {
			return newConfigError(ErrTypeMismatch, name, p.WriteName(),
				fmt.Sprintf("expected %s, found %s", paramType, p.TypeData().Type()))
		}
	}

	b.SetInstanceCreatorFactory(d)
	return nil
}

// widenPropertyType replaces the property type with the parameter type when the
// property holds a narrower type than the creator accepts. An interface
// parameter type keeps the property type as its parameter.
func widenPropertyType(p *PropertyModelBuilder, paramType reflect.Type) {
	widened := TypeDataOf(paramType)
	if !widened.IsAssignableFrom(p.TypeData().Type()) {
		return
	}
	if widened.IsInterface() && !p.TypeData().IsInterface() {
		widened = widened.WithParameters(p.TypeData())
	}
	p.SetTypeData(widened)
}

func removeDeadProperties(b *ClassModelBuilder) {
	var dead []string
	for _, p := range b.Properties() {
		if !p.IsReadable() && !p.IsWritable() {
			dead = append(dead, p.Name())
		}
	}
	for _, name := range dead {
		b.RemoveProperty(name)
		if name == b.IDPropertyName() {
			b.SetIDPropertyName("")
		}
	}
}
