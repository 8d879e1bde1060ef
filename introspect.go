package docmodel

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

// Introspector describes a raw type for model building.
type Introspector interface {
	Introspect(t reflect.Type) (*TypeInfo, error)
}

// TypeInfo is the structural description of a type: its type-level markers,
// property builders in declaration order, declared constructors, and the
// static methods declared on each level of its embedding chain.
type TypeInfo struct {
	Type         reflect.Type
	Markers      []Marker
	Properties   []*PropertyModelBuilder
	Constructors []Routine
	Levels       []Level
}

// Level is one type of an embedding chain with its declared static methods.
type Level struct {
	Type    reflect.Type
	Methods []Routine
}

// Scanner is the default Introspector. Properties come from exported struct
// fields (promoted fields included) and their tags; routines come from
// declarations registered with Declare.
type Scanner struct {
	mu       sync.RWMutex
	routines map[reflect.Type][]Routine
	meta     map[reflect.Type]sentinel.Metadata
}

// NewScanner returns a Scanner with no declared routines.
func NewScanner() *Scanner {
	return &Scanner{
		routines: make(map[reflect.Type][]Routine),
		meta:     make(map[reflect.Type]sentinel.Metadata),
	}
}

var defaultScanner = NewScanner()

// DefaultScanner returns the process-wide Scanner used by Declare.
func DefaultScanner() *Scanner {
	return defaultScanner
}

// Scan extracts the struct metadata of T, and of the related types in its
// module, with sentinel and returns the type of T. Scanners use the extracted
// metadata for the marker tags of every scanned struct.
func Scan[T any]() reflect.Type {
	// Non-struct types have no field metadata.
	_, _ = sentinel.TryScan[T]()
	return reflect.TypeFor[T]()
}

// Declare registers routines for T on the default Scanner.
func Declare[T any](routines ...Routine) error {
	return defaultScanner.Declare(Scan[T](), routines...)
}

// Declare registers routines for t. Declarations accumulate.
func (s *Scanner) Declare(t reflect.Type, routines ...Routine) error {
	t = indirect(t)
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidRoutine)
	}
	for _, r := range routines {
		if err := r.validate(); err != nil {
			return newConfigError(err, typeName(t), "", "")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.routines[t] = append(s.routines[t], routines...)
	return nil
}

func (s *Scanner) declared(t reflect.Type, kind RoutineKind) []Routine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Routine
	for _, r := range s.routines[t] {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Introspect implements Introspector.
func (s *Scanner) Introspect(t reflect.Type) (*TypeInfo, error) {
	t = indirect(t)
	if t == nil {
		return nil, fmt.Errorf("cannot introspect nil type")
	}

	info := &TypeInfo{
		Type:         t,
		Constructors: s.declared(t, RoutineConstructor),
	}
	for _, level := range hierarchy(t) {
		info.Levels = append(info.Levels, Level{
			Type:    level,
			Methods: s.declared(level, RoutineMethod),
		})
	}

	if t.Kind() != reflect.Struct {
		return info, nil
	}

	meta, markerTags := s.scanType(t)
	if markerTags != nil {
		info.Markers = parseTypeMarkers(markerTags)
	}
	for _, field := range meta.Fields {
		read, write := parsePropertyMarkers(field.Tags)
		pb := NewPropertyModelBuilder(strings.ToLower(field.Name), TypeDataOf(field.ReflectType)).
			SetReadMarkers(read...).
			SetWriteMarkers(write...).
			SetAccessor(newFieldAccessor(t, field.Index))
		info.Properties = append(info.Properties, pb)
	}
	return info, nil
}

// metadata returns the field metadata of the struct type t. Metadata sentinel
// has extracted for t is used when present; otherwise it is extracted here
// with the same rules.
func (s *Scanner) metadata(t reflect.Type) sentinel.Metadata {
	s.mu.RLock()
	meta, ok := s.meta[t]
	s.mu.RUnlock()
	if ok {
		return meta
	}

	// sentinel caches by bare type name.
	meta, ok = sentinel.Lookup(t.Name())
	if !ok || t.Name() == "" || !describes(meta, t) {
		meta = extractMetadata(t)
	}

	s.mu.Lock()
	s.meta[t] = meta
	s.mu.Unlock()
	return meta
}

// describes reports whether meta was extracted from t.
func describes(meta sentinel.Metadata, t reflect.Type) bool {
	if meta.PackageName != t.PkgPath() {
		return false
	}
	n := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if n >= len(meta.Fields) {
			return false
		}
		fm := meta.Fields[n]
		if fm.Name != sf.Name || fm.ReflectType != sf.Type {
			return false
		}
		n++
	}
	return n == len(meta.Fields)
}

// extractMetadata builds metadata for the exported fields declared by t.
func extractMetadata(t reflect.Type) sentinel.Metadata {
	meta := sentinel.Metadata{
		TypeName:    t.Name(),
		PackageName: t.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, t.NumField()),
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Kind:        fieldKind(sf.Type),
			Tags:        lookupTags(sf.Tag),
		}
		meta.Fields = append(meta.Fields, fm)
	}

	return meta
}

func fieldKind(t reflect.Type) sentinel.FieldKind {
	switch t.Kind() {
	case reflect.Struct:
		return sentinel.KindStruct
	case reflect.Ptr:
		return sentinel.KindPointer
	case reflect.Slice, reflect.Array:
		return sentinel.KindSlice
	case reflect.Map:
		return sentinel.KindMap
	case reflect.Interface:
		return sentinel.KindInterface
	default:
		return sentinel.KindScalar
	}
}

// field returns the metadata of the field declared at index i of the struct
// type t. Unexported fields have no metadata; their tags are read directly.
func (s *Scanner) field(t reflect.Type, i int) sentinel.FieldMetadata {
	for _, fm := range s.metadata(t).Fields {
		if len(fm.Index) == 1 && fm.Index[0] == i {
			return fm
		}
	}
	sf := t.Field(i)
	return sentinel.FieldMetadata{
		Name:        sf.Name,
		Type:        sf.Type.String(),
		ReflectType: sf.Type,
		Index:       sf.Index,
		Kind:        fieldKind(sf.Type),
		Tags:        lookupTags(sf.Tag),
	}
}

// scanType returns metadata for the visible exported fields of t, with index
// paths from t. It also returns the tags of a directly embedded Discriminator,
// or nil.
func (s *Scanner) scanType(t reflect.Type) (sentinel.Metadata, map[string]string) {
	meta := sentinel.Metadata{
		TypeName:    t.Name(),
		PackageName: t.PkgPath(),
	}
	var markerTags map[string]string

	for _, sf := range reflect.VisibleFields(t) {
		owner := t
		for _, idx := range sf.Index[:len(sf.Index)-1] {
			owner = indirect(owner.Field(idx).Type)
		}
		fm := s.field(owner, sf.Index[len(sf.Index)-1])
		fm.Index = sf.Index

		if sf.Anonymous {
			et := indirect(sf.Type)
			if et == markerType {
				// Markers promoted from embedded types belong to those types.
				if len(sf.Index) == 1 {
					markerTags = fm.Tags
				}
				continue
			}
			// Untagged embedded structs contribute their promoted fields only.
			embedsStruct := fm.Kind == sentinel.KindStruct ||
				(fm.Kind == sentinel.KindPointer && et.Kind() == reflect.Struct)
			if _, tagged := fm.Tags[TagBSON]; embedsStruct && !tagged {
				continue
			}
		}
		if !sf.IsExported() || s.promotedThroughTagged(t, sf.Index) {
			continue
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta, markerTags
}

// promotedThroughTagged reports whether the field at index is promoted through
// an embedded struct that is itself mapped as a property.
func (s *Scanner) promotedThroughTagged(t reflect.Type, index []int) bool {
	cur := t
	for _, idx := range index[:len(index)-1] {
		sf := cur.Field(idx)
		if sf.Anonymous {
			if _, tagged := s.field(cur, idx).Tags[TagBSON]; tagged {
				return true
			}
		}
		cur = indirect(sf.Type)
	}
	return false
}
