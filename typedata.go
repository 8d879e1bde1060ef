package docmodel

import (
	"reflect"
	"strings"
)

// TypeData describes a possibly parameterized Go type.
//
// Go instantiates generic types before they are visible to reflection, so the
// type parameters are derived from the container structure: the element of a
// pointer, slice, array or channel, and the key and element of a map.
type TypeData struct {
	typ    reflect.Type
	params []TypeData
}

// TypeDataOf returns the TypeData for t.
func TypeDataOf(t reflect.Type) TypeData {
	if t == nil {
		return TypeData{}
	}
	td := TypeData{typ: t}
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Chan:
		td.params = []TypeData{TypeDataOf(t.Elem())}
	case reflect.Map:
		td.params = []TypeData{TypeDataOf(t.Key()), TypeDataOf(t.Elem())}
	}
	return td
}

// Type returns the underlying reflect.Type.
func (t TypeData) Type() reflect.Type {
	return t.typ
}

// Parameters returns the type parameters.
func (t TypeData) Parameters() []TypeData {
	return append([]TypeData(nil), t.params...)
}

// WithParameters returns a copy of t carrying the given type parameters.
func (t TypeData) WithParameters(params ...TypeData) TypeData {
	return TypeData{typ: t.typ, params: append([]TypeData(nil), params...)}
}

// IsZero reports whether t describes no type.
func (t TypeData) IsZero() bool {
	return t.typ == nil
}

// IsInterface reports whether t is an interface type.
func (t TypeData) IsInterface() bool {
	return t.typ != nil && t.typ.Kind() == reflect.Interface
}

// IsAssignableFrom reports whether a value of type other can be assigned to t.
func (t TypeData) IsAssignableFrom(other reflect.Type) bool {
	if t.typ == nil || other == nil {
		return false
	}
	return other.AssignableTo(t.typ)
}

// AssignableTo reports whether a value of type t can be assigned to other.
func (t TypeData) AssignableTo(other reflect.Type) bool {
	if t.typ == nil || other == nil {
		return false
	}
	return t.typ.AssignableTo(other)
}

// String renders the type with its parameters, e.g. "[]string<string>".
func (t TypeData) String() string {
	if t.typ == nil {
		return "<nil>"
	}
	if len(t.params) == 0 {
		return t.typ.String()
	}
	parts := make([]string, len(t.params))
	for i, p := range t.params {
		parts[i] = p.String()
	}
	return t.typ.String() + "<" + strings.Join(parts, ", ") + ">"
}

// typeName returns the fully qualified name of t: "pkgpath.Name".
func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr && t.Name() == "" {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// indirect strips pointer layers from t.
func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// superType returns the type embedded by the first anonymous struct field of t,
// or nil when t embeds nothing.
func superType(t reflect.Type) reflect.Type {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		et := indirect(sf.Type)
		if et.Kind() == reflect.Struct && et != markerType {
			return et
		}
	}
	return nil
}

// hierarchy returns t followed by its embedding chain.
func hierarchy(t reflect.Type) []reflect.Type {
	var chain []reflect.Type
	seen := make(map[reflect.Type]bool)
	for cur := indirect(t); cur != nil && !seen[cur]; cur = superType(cur) {
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain
}

// isSubtype reports whether sub can stand in for super: equal types, an
// implemented interface, or super present on sub's embedding chain.
func isSubtype(sub, super reflect.Type) bool {
	if sub == nil || super == nil {
		return false
	}
	if super.Kind() == reflect.Interface {
		return sub.Implements(super) || reflect.PointerTo(indirect(sub)).Implements(super)
	}
	target := indirect(super)
	for _, level := range hierarchy(sub) {
		if level == target {
			return true
		}
	}
	return false
}
