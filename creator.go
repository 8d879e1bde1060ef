package docmodel

import (
	"fmt"
	"reflect"
)

// InstanceCreator collects decoded property values and produces an instance.
type InstanceCreator interface {
	// Set records the value of one property.
	Set(p *PropertyModel, v reflect.Value) error

	// Instance returns a pointer to the created value.
	Instance() (reflect.Value, error)
}

// InstanceCreatorFactory creates one InstanceCreator per decoded document.
type InstanceCreatorFactory interface {
	Create() InstanceCreator
}

// zeroValueFactory allocates the zero value and sets properties through their accessors.
type zeroValueFactory struct {
	typ reflect.Type
}

func (f zeroValueFactory) Create() InstanceCreator {
	return &zeroValueCreator{instance: reflect.New(f.typ)}
}

type zeroValueCreator struct {
	instance reflect.Value
}

func (c *zeroValueCreator) Set(p *PropertyModel, v reflect.Value) error {
	if p.Accessor() == nil {
		return nil
	}
	return p.Accessor().Set(c.instance, v)
}

func (c *zeroValueCreator) Instance() (reflect.Value, error) {
	return c.instance, nil
}

// creatorDescriptor is a resolved construction routine and its parameter bindings.
type creatorDescriptor struct {
	typ        reflect.Type
	routine    Routine
	properties []string // property marker value per parameter, "" for the identity parameter
	paramTypes []reflect.Type
	idIndex    int // -1 when no parameter binds the identity property
}

// newCreatorDescriptor reads the parameter markers of r. It fails when the
// number of property markers does not match the number of parameters.
func newCreatorDescriptor(typ reflect.Type, r Routine) (*creatorDescriptor, error) {
	d := &creatorDescriptor{
		typ:        typ,
		routine:    r,
		paramTypes: r.ParamTypes(),
		idIndex:    -1,
	}
	for i, markers := range r.ParamMarkers {
		for _, m := range markers {
			if m.Kind == MarkerProperty && m.Value != "" {
				d.properties = append(d.properties, m.Value)
				break
			}
			if m.Kind == MarkerID {
				d.properties = append(d.properties, "")
				d.idIndex = i
				break
			}
		}
	}
	if len(d.properties) != len(d.paramTypes) {
		return nil, newConfigError(ErrUnannotatedParameter, typeName(typ), "",
			fmt.Sprintf("all %d parameters of %s must carry a property marker, found %d",
				len(d.paramTypes), r.Name(), len(d.properties)))
	}
	return d, nil
}

// Create implements InstanceCreatorFactory.
func (d *creatorDescriptor) Create() InstanceCreator {
	index := make(map[string]int, len(d.properties))
	for i, name := range d.properties {
		if i == d.idIndex {
			index[idFieldName] = i
			continue
		}
		index[name] = i
	}
	return &routineCreator{
		descriptor: d,
		params:     make([]reflect.Value, len(d.properties)),
		pending:    index,
	}
}

// routineCreator holds creator arguments until every parameter has a value,
// then calls the routine and applies the remaining properties to the result.
type routineCreator struct {
	descriptor *creatorDescriptor
	params     []reflect.Value
	pending    map[string]int
	cached     []cachedValue
	instance   reflect.Value
}

type cachedValue struct {
	property *PropertyModel
	value    reflect.Value
}

func (c *routineCreator) Set(p *PropertyModel, v reflect.Value) error {
	if c.instance.IsValid() {
		return c.apply(p, v)
	}

	name := p.WriteName()
	if _, ok := c.pending[name]; !ok {
		name = p.Name()
	}
	if i, ok := c.pending[name]; ok {
		c.params[i] = v
		delete(c.pending, name)
	} else {
		c.cached = append(c.cached, cachedValue{property: p, value: v})
	}

	if len(c.pending) == 0 {
		return c.construct()
	}
	return nil
}

func (c *routineCreator) Instance() (reflect.Value, error) {
	if !c.instance.IsValid() {
		if err := c.construct(); err != nil {
			return reflect.Value{}, err
		}
	}
	return c.instance, nil
}

func (c *routineCreator) apply(p *PropertyModel, v reflect.Value) error {
	if p.Accessor() == nil {
		return nil
	}
	return p.Accessor().Set(c.instance, v)
}

// construct calls the routine, filling parameters without a value with their zero value.
func (c *routineCreator) construct() error {
	d := c.descriptor
	args := make([]reflect.Value, len(c.params))
	for i, v := range c.params {
		pt := d.paramTypes[i]
		switch {
		case !v.IsValid():
			args[i] = reflect.Zero(pt)
		case v.Type().AssignableTo(pt):
			args[i] = v
		case v.Type().ConvertibleTo(pt):
			args[i] = v.Convert(pt)
		default:
			return fmt.Errorf("cannot pass %s as parameter %d of %s", v.Type(), i, d.routine.Name())
		}
	}

	out, err := d.routine.call(args)
	if err != nil {
		return err
	}
	instance, err := asPointerTo(out, d.typ)
	if err != nil {
		return newConfigError(ErrInvalidCreatorReturn, typeName(d.typ), "", err.Error())
	}
	c.instance = instance

	for _, cv := range c.cached {
		if err := c.apply(cv.property, cv.value); err != nil {
			return err
		}
	}
	c.cached = nil
	return nil
}

// asPointerTo returns v as a *t, allocating when v is a t value.
func asPointerTo(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("creator returned nil")
		}
		v = v.Elem()
	}
	switch {
	case v.Type() == reflect.PointerTo(t):
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("creator returned nil")
		}
		return v, nil
	case v.Type() == t:
		p := reflect.New(t)
		p.Elem().Set(v)
		return p, nil
	default:
		return reflect.Value{}, fmt.Errorf("creator returned %s, expected %s", v.Type(), t)
	}
}
