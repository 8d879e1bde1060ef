package docmodel

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type routinePoint struct {
	X, Y int
}

func NewRoutinePoint(x, y int) routinePoint { return routinePoint{X: x, Y: y} }

func ParseRoutinePoint(s string) (*routinePoint, error) {
	if s == "" {
		return nil, errors.New("empty")
	}
	return &routinePoint{X: len(s)}, nil
}

func newRoutinePoint() routinePoint { return routinePoint{} }

func (p routinePoint) Scale(n int) routinePoint { return routinePoint{X: p.X * n, Y: p.Y * n} }

func SumRoutine(xs ...int) int { return 0 }

func TestRoutine_Classification(t *testing.T) {
	closure := func() routinePoint { return routinePoint{} }

	tests := []struct {
		name      string
		routine   Routine
		exported  bool
		synthetic bool
		bridge    bool
	}{
		{"exported function", Constructor(NewRoutinePoint), true, false, false},
		{"unexported function", Constructor(newRoutinePoint), false, false, false},
		{"closure", Constructor(closure), false, true, false},
		{"method value", Method(routinePoint{}.Scale), true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.routine
			if got := r.Exported(); got != tt.exported {
				t.Errorf("%s Exported() = %v, want %v", r.Name(), got, tt.exported)
			}
			if got := r.Synthetic(); got != tt.synthetic {
				t.Errorf("%s Synthetic() = %v, want %v", r.Name(), got, tt.synthetic)
			}
			if got := r.Bridge(); got != tt.bridge {
				t.Errorf("%s Bridge() = %v, want %v", r.Name(), got, tt.bridge)
			}
		})
	}
}

func TestRoutine_Name(t *testing.T) {
	r := Constructor(NewRoutinePoint)
	if !strings.HasSuffix(r.Name(), ".NewRoutinePoint") {
		t.Errorf("Name() = %q, want suffix .NewRoutinePoint", r.Name())
	}
	if r.Kind != RoutineConstructor {
		t.Errorf("Kind = %v, want constructor", r.Kind)
	}
	if got := Method(NewRoutinePoint).Kind.String(); got != "method" {
		t.Errorf("Method().Kind.String() = %q, want %q", got, "method")
	}
}

func TestRoutine_Param(t *testing.T) {
	base := Constructor(NewRoutinePoint, CreatorMarker()).Param(PropertyMarker("x"))
	a := base.Param(PropertyMarker("y"))
	b := base.Param(PropertyMarker("z"))

	if len(base.ParamMarkers) != 1 {
		t.Errorf("base has %d parameter marker sets, want 1", len(base.ParamMarkers))
	}
	if got := a.ParamMarkers[1][0].Value; got != "y" {
		t.Errorf("a second parameter = %q, want %q", got, "y")
	}
	if got := b.ParamMarkers[1][0].Value; got != "z" {
		t.Errorf("b second parameter = %q, want %q", got, "z")
	}
}

func TestRoutine_Types(t *testing.T) {
	r := Constructor(ParseRoutinePoint)

	if got := r.ParamTypes(); len(got) != 1 || got[0] != reflect.TypeFor[string]() {
		t.Errorf("ParamTypes() = %v, want [string]", got)
	}
	if got := r.ResultType(); got != reflect.TypeFor[*routinePoint]() {
		t.Errorf("ResultType() = %v, want *routinePoint", got)
	}

	invalid := Constructor(42)
	if invalid.ParamTypes() != nil || invalid.ResultType() != nil {
		t.Error("non-function routine should report no types")
	}
}

func TestRoutine_Validate(t *testing.T) {
	tests := []struct {
		name    string
		routine Routine
		wantErr bool
	}{
		{"single result", Constructor(NewRoutinePoint), false},
		{"result and error", Constructor(ParseRoutinePoint), false},
		{"not a function", Constructor("NewRoutinePoint"), true},
		{"nil function", Constructor((func() int)(nil)), true},
		{"variadic", Constructor(SumRoutine), true},
		{"no result", Constructor(func() {}), true},
		{"second result not error", Constructor(func() (int, int) { return 0, 0 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.routine.validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRoutine) {
					t.Errorf("validate() error = %v, want ErrInvalidRoutine", err)
				}
				return
			}
			if err != nil {
				t.Errorf("validate() unexpected error: %v", err)
			}
		})
	}
}

func TestRoutine_Call(t *testing.T) {
	r := Constructor(ParseRoutinePoint)

	out, err := r.call([]reflect.Value{reflect.ValueOf("abc")})
	if err != nil {
		t.Fatalf("call() error: %v", err)
	}
	if got := out.Interface().(*routinePoint).X; got != 3 {
		t.Errorf("call() X = %d, want 3", got)
	}

	if _, err := r.call([]reflect.Value{reflect.ValueOf("")}); err == nil {
		t.Error("call() should return the routine's error")
	}
}
