package docmodel

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"unicode"
)

// RoutineKind distinguishes constructors from static factory methods.
type RoutineKind uint8

const (
	// RoutineConstructor builds an instance of the type it is declared on.
	RoutineConstructor RoutineKind = iota + 1

	// RoutineMethod is a static factory declared on a level of the embedding chain.
	RoutineMethod
)

func (k RoutineKind) String() string {
	switch k {
	case RoutineConstructor:
		return "constructor"
	case RoutineMethod:
		return "method"
	default:
		return "unknown"
	}
}

var (
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	closurePattern = regexp.MustCompile(`^func\d+$`)
)

// Routine is a construction routine declared for a type: a Go function plus
// its markers and the markers of each of its parameters.
//
//	docmodel.Declare[Point](
//	    docmodel.Constructor(NewPoint, docmodel.CreatorMarker()).
//	        Param(docmodel.PropertyMarker("x")).
//	        Param(docmodel.PropertyMarker("y")),
//	)
type Routine struct {
	Kind         RoutineKind
	Markers      []Marker
	ParamMarkers [][]Marker

	fn   reflect.Value
	name string
}

// Constructor declares fn as a constructor carrying markers.
func Constructor(fn any, markers ...Marker) Routine {
	return newRoutine(RoutineConstructor, fn, markers)
}

// Method declares fn as a static factory method carrying markers.
func Method(fn any, markers ...Marker) Routine {
	return newRoutine(RoutineMethod, fn, markers)
}

func newRoutine(kind RoutineKind, fn any, markers []Marker) Routine {
	r := Routine{Kind: kind, Markers: markers, fn: reflect.ValueOf(fn)}
	if r.fn.Kind() == reflect.Func && !r.fn.IsNil() {
		if f := runtime.FuncForPC(r.fn.Pointer()); f != nil {
			r.name = f.Name()
		}
	}
	return r
}

// Param appends the markers of the next parameter.
func (r Routine) Param(markers ...Marker) Routine {
	params := make([][]Marker, len(r.ParamMarkers), len(r.ParamMarkers)+1)
	copy(params, r.ParamMarkers)
	r.ParamMarkers = append(params, markers)
	return r
}

// Name returns the fully qualified function name reported by the runtime.
func (r Routine) Name() string {
	return r.name
}

// shortName returns the final segment of the function name with generic
// instantiation and method-value suffixes removed.
func (r Routine) shortName() string {
	name := strings.TrimSuffix(r.name, "-fm")
	if i := strings.Index(name, "["); i >= 0 {
		if j := strings.LastIndex(name, "]"); j > i {
			name = name[:i] + name[j+1:]
		}
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Exported reports whether the function is exported from its package.
func (r Routine) Exported() bool {
	short := r.shortName()
	if short == "" {
		return false
	}
	for _, c := range short {
		return unicode.IsUpper(c)
	}
	return false
}

// Synthetic reports whether the function is a compiler-generated closure.
func (r Routine) Synthetic() bool {
	return closurePattern.MatchString(r.shortName())
}

// Bridge reports whether the function is a compiler-generated method value wrapper.
func (r Routine) Bridge() bool {
	return strings.HasSuffix(r.name, "-fm")
}

// validate checks that the routine wraps a function returning one value and an
// optional trailing error.
func (r Routine) validate() error {
	if r.fn.Kind() != reflect.Func || r.fn.IsNil() {
		return fmt.Errorf("%w: %s routine is not a function", ErrInvalidRoutine, r.Kind)
	}
	ft := r.fn.Type()
	if ft.IsVariadic() {
		return fmt.Errorf("%w: %s is variadic", ErrInvalidRoutine, r.name)
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("%w: second result of %s must be error", ErrInvalidRoutine, r.name)
		}
	default:
		return fmt.Errorf("%w: %s must return a value and an optional error", ErrInvalidRoutine, r.name)
	}
	return nil
}

// ParamTypes returns the declared parameter types.
func (r Routine) ParamTypes() []reflect.Type {
	if r.fn.Kind() != reflect.Func || r.fn.IsNil() {
		return nil
	}
	ft := r.fn.Type()
	types := make([]reflect.Type, ft.NumIn())
	for i := range types {
		types[i] = ft.In(i)
	}
	return types
}

// ResultType returns the type of the first result.
func (r Routine) ResultType() reflect.Type {
	if r.fn.Kind() != reflect.Func || r.fn.IsNil() || r.fn.Type().NumOut() == 0 {
		return nil
	}
	return r.fn.Type().Out(0)
}

// call invokes the routine.
func (r Routine) call(args []reflect.Value) (reflect.Value, error) {
	out := r.fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}
