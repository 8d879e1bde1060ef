package docmodel

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type codecAddress struct {
	City string `bson:"city"`
}

type codecPerson struct {
	ID     primitive.ObjectID `bson:"_id,id"`
	Name   string             `bson:"name"`
	Nick   *string            `bson:"nick"`
	Home   *codecAddress      `bson:"home"`
	Pets   []discAnimal       `bson:"pets"`
	Scores map[string]int     `bson:"scores"`
	Raw    []byte             `bson:"raw"`
}

type discRunner interface {
	Run()
}

// upperCodec stores strings upper-cased.
type upperCodec struct{}

func (upperCodec) Type() reflect.Type { return stringType }

func (upperCodec) EncodeValue(v reflect.Value) (any, error) {
	return strings.ToUpper(v.String()), nil
}

func (upperCodec) DecodeValue(raw any) (reflect.Value, error) {
	s, _ := raw.(string)
	return reflect.ValueOf(strings.ToLower(s)), nil
}

func codecRegistry(t *testing.T, configure func(*ProviderBuilder)) *Registry {
	t.Helper()
	b := NewProviderBuilder().Register(
		reflect.TypeFor[codecAddress](),
		reflect.TypeFor[codecPerson](),
		reflect.TypeFor[discAnimal](),
		reflect.TypeFor[discRunner](),
		reflect.TypeFor[discDog](),
		reflect.TypeFor[discCat](),
	)
	if configure != nil {
		configure(b)
	}
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return NewRegistry(p)
}

func personCodec(t *testing.T, reg *Registry) *ModelCodec {
	t.Helper()
	c, err := reg.Lookup(reflect.TypeFor[codecPerson]())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	return c.(*ModelCodec)
}

func samplePerson() codecPerson {
	id, _ := primitive.ObjectIDFromHex("5f1e8f1b9d3b2a0001a1b2c3")
	return codecPerson{
		ID:     id,
		Name:   "Ann",
		Home:   &codecAddress{City: "Oslo"},
		Pets:   []discAnimal{discDog{Name: "Rex"}, &discCat{Lives: 9}},
		Scores: map[string]int{"b": 2, "a": 1},
		Raw:    []byte("x"),
	}
}

func TestModelCodec_Encode(t *testing.T) {
	c := personCodec(t, codecRegistry(t, nil))
	person := samplePerson()

	got, err := c.EncodeValue(reflect.ValueOf(&person))
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}

	want := bson.D{
		{Key: "_id", Value: person.ID},
		{Key: "name", Value: "Ann"},
		{Key: "home", Value: bson.D{{Key: "city", Value: "Oslo"}}},
		{Key: "pets", Value: bson.A{
			bson.D{{Key: "_t", Value: "dog"}, {Key: "name", Value: "Rex"}},
			bson.D{{Key: "_t", Value: "cat"}, {Key: "lives", Value: 9}},
		}},
		{Key: "scores", Value: bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 2}}},
		{Key: "raw", Value: []byte("x")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EncodeValue() mismatch (-want +got):\n%s", diff)
	}
}

func TestModelCodec_EncodeNil(t *testing.T) {
	c := personCodec(t, codecRegistry(t, nil))

	got, err := c.EncodeValue(reflect.ValueOf((*codecPerson)(nil)))
	if err != nil || got != nil {
		t.Errorf("EncodeValue(nil) = %v, %v; want nil, nil", got, err)
	}
}

func TestModelCodec_SerializeNull(t *testing.T) {
	reg := codecRegistry(t, func(b *ProviderBuilder) { b.SerializeNull(true) })
	c := personCodec(t, reg)

	got, err := c.EncodeValue(reflect.ValueOf(codecPerson{Name: "Ann"}))
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}

	doc := got.(bson.D)
	keys := make([]string, len(doc))
	for i, e := range doc {
		keys[i] = e.Key
	}
	want := []string{"_id", "name", "nick", "home", "pets", "scores", "raw"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestModelCodec_RoundTrip(t *testing.T) {
	c := personCodec(t, codecRegistry(t, nil))
	person := samplePerson()
	nick := "annie"
	person.Nick = &nick

	doc, err := c.EncodeValue(reflect.ValueOf(person))
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	v, err := c.DecodeValue(doc)
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}

	if diff := cmp.Diff(person, v.Interface().(codecPerson)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestModelCodec_DecodePlainMaps(t *testing.T) {
	c := personCodec(t, codecRegistry(t, nil))

	v, err := c.DecodeValue(map[string]any{
		"_id":     "5f1e8f1b9d3b2a0001a1b2c3",
		"name":    "Ann",
		"home":    map[string]any{"city": "Oslo"},
		"scores":  map[string]any{"a": float64(1)},
		"pets":    []any{map[string]any{"_t": "dog", "name": "Rex"}},
		"unknown": true,
	})
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}

	got := v.Interface().(codecPerson)
	want := codecPerson{
		ID:     samplePerson().ID,
		Name:   "Ann",
		Home:   &codecAddress{City: "Oslo"},
		Pets:   []discAnimal{discDog{Name: "Rex"}},
		Scores: map[string]int{"a": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeValue() mismatch (-want +got):\n%s", diff)
	}
}

func TestModelCodec_DecodeNil(t *testing.T) {
	c := personCodec(t, codecRegistry(t, nil))

	v, err := c.DecodeValue(nil)
	if err != nil {
		t.Fatalf("DecodeValue(nil) error: %v", err)
	}
	if !v.IsZero() {
		t.Errorf("DecodeValue(nil) = %v, want zero value", v)
	}
}

func TestModelCodec_DecodeErrors(t *testing.T) {
	reg := codecRegistry(t, nil)
	animals, _ := reg.Lookup(reflect.TypeFor[discAnimal]())
	runners, _ := reg.Lookup(reflect.TypeFor[discRunner]())

	tests := []struct {
		name  string
		codec Codec
		raw   any
		want  error
	}{
		{"not a document", personCodec(t, reg), 42, ErrDecode},
		{"missing discriminator", animals, bson.D{{Key: "name", Value: "Rex"}}, ErrMissingDiscriminator},
		{"unknown discriminator", animals, bson.D{{Key: "_t", Value: "cow"}}, ErrUnknownDiscriminator},
		{"not a subtype", runners, bson.D{{Key: "_t", Value: "dog"}}, ErrDecode},
		{"bad property value", personCodec(t, reg), bson.D{{Key: "_id", Value: "not-hex"}}, ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.DecodeValue(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeValue() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModelCodec_InterfaceModel(t *testing.T) {
	reg := codecRegistry(t, nil)
	animals, err := reg.Lookup(reflect.TypeFor[discAnimal]())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}

	doc, err := animals.EncodeValue(reflect.ValueOf(&discCat{Lives: 3}))
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	want := bson.D{{Key: "_t", Value: "cat"}, {Key: "lives", Value: 3}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("EncodeValue() mismatch (-want +got):\n%s", diff)
	}

	v, err := animals.DecodeValue(doc)
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	cat, ok := v.Interface().(*discCat)
	if !ok || cat.Lives != 3 {
		t.Errorf("DecodeValue() = %#v, want *discCat with 3 lives", v.Interface())
	}
}

func TestModelCodec_PropertyCodecProvider(t *testing.T) {
	pp := PropertyCodecProviderFunc(func(td TypeData, _ *Registry) (Codec, bool) {
		if td.Type() == stringType {
			return upperCodec{}, true
		}
		return nil, false
	})
	c := personCodec(t, codecRegistry(t, func(b *ProviderBuilder) { b.RegisterPropertyCodecProviders(pp) }))

	doc, err := c.EncodeValue(reflect.ValueOf(codecPerson{Name: "Ann"}))
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	if got := doc.(bson.D)[1]; got.Key != "name" || got.Value != "ANN" {
		t.Errorf("encoded name = %v, want ANN", got)
	}

	v, err := c.DecodeValue(doc)
	if err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	if got := v.Interface().(codecPerson).Name; got != "ann" {
		t.Errorf("decoded name = %q, want %q", got, "ann")
	}
}

func TestModelCodec_IDHelpers(t *testing.T) {
	c := personCodec(t, codecRegistry(t, nil))
	person := codecPerson{Name: "Ann"}

	if c.DocumentHasID(person) {
		t.Error("DocumentHasID() = true for a zero id")
	}
	if _, ok := c.DocumentID(codecAddress{}); ok {
		t.Error("DocumentID() accepted a value of another type")
	}

	if _, err := c.GenerateIDIfAbsent(person); !errors.Is(err, ErrIDGeneration) {
		t.Errorf("GenerateIDIfAbsent(value) error = %v, want ErrIDGeneration", err)
	}

	generated, err := c.GenerateIDIfAbsent(&person)
	if err != nil {
		t.Fatalf("GenerateIDIfAbsent() error: %v", err)
	}
	if !generated || person.ID.IsZero() {
		t.Fatal("GenerateIDIfAbsent() did not set an id")
	}

	id, ok := c.DocumentID(&person)
	if !ok || id != person.ID {
		t.Errorf("DocumentID() = %v, %v; want %s", id, ok, person.ID.Hex())
	}

	generated, err = c.GenerateIDIfAbsent(&person)
	if err != nil || generated {
		t.Errorf("GenerateIDIfAbsent() on a document with an id = %v, %v", generated, err)
	}
}

func TestModelCodec_NoIDGenerator(t *testing.T) {
	reg := codecRegistry(t, nil)
	c, _ := reg.Lookup(reflect.TypeFor[codecAddress]())

	if _, err := c.(*ModelCodec).GenerateIDIfAbsent(&codecAddress{}); !errors.Is(err, ErrIDGeneration) {
		t.Errorf("GenerateIDIfAbsent() error = %v, want ErrIDGeneration", err)
	}
}

func TestModelCodec_NoRegistry(t *testing.T) {
	m := mustModel(t, reflect.TypeFor[discAnimal]())
	c := NewModelCodec(m, nil, nil)

	_, err := c.EncodeValue(reflect.ValueOf(discDog{}))
	if !errors.Is(err, ErrNoCodec) {
		t.Errorf("EncodeValue() error = %v, want ErrNoCodec", err)
	}
}
