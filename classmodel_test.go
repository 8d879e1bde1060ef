package docmodel

import (
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type modelUser struct {
	ID    primitive.ObjectID `bson:"_id,id"`
	Name  string             `bson:"name"`
	Email string             `bson:"mail"`
}

type dupReadNames struct {
	First  string `bson:"name"`
	Second string `bson:"name"`
}

type dupWriteNames struct {
	First  string `bson.read:"first" bson.write:"name"`
	Second string `bson.read:"second" bson.write:"name"`
}

// noop replaces the default conventions.
var noop = ConventionFunc(func(*ClassModelBuilder) error { return nil })

func TestClassModelBuilder_Build(t *testing.T) {
	m, err := builderFor(t, reflect.TypeFor[modelUser]()).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if m.Type() != reflect.TypeFor[modelUser]() {
		t.Errorf("Type() = %s", m.Type())
	}
	if got, want := m.Name(), "github.com/zoobzio/docmodel.modelUser"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
	if m.DiscriminatorKey() != DefaultDiscriminatorKey || m.Discriminator() != m.Name() {
		t.Errorf("discriminator = %q/%q", m.DiscriminatorKey(), m.Discriminator())
	}
	if m.DiscriminatorEnabled() {
		t.Error("DiscriminatorEnabled() = true, want false")
	}

	id := m.IDProperty()
	if id == nil {
		t.Fatal("IDProperty() = nil")
	}
	if id.Name() != "id" || id.ReadName() != "_id" || id.WriteName() != "_id" {
		t.Errorf("id property = %s read %q write %q", id.Name(), id.ReadName(), id.WriteName())
	}
	if m.IDPropertyName() != "id" {
		t.Errorf("IDPropertyName() = %q, want %q", m.IDPropertyName(), "id")
	}
	if m.IDGenerator() == nil {
		t.Error("IDGenerator() = nil, want object id generator")
	}

	if got := m.Property("email").ReadName(); got != "mail" {
		t.Errorf("email read name = %q, want %q", got, "mail")
	}
	if m.propertyByWriteName("mail") != m.Property("email") {
		t.Error("propertyByWriteName(mail) did not return the email property")
	}
	if _, ok := m.InstanceCreatorFactory().(zeroValueFactory); !ok {
		t.Errorf("InstanceCreatorFactory() = %T, want zeroValueFactory", m.InstanceCreatorFactory())
	}
}

func TestClassModelBuilder_IDRenamedWithoutMarkers(t *testing.T) {
	b := builderFor(t, reflect.TypeFor[intIDDoc]())
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := m.IDProperty().ReadName(); got != "_id" {
		t.Errorf("id read name = %q, want %q", got, "_id")
	}
}

func TestClassModelBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder func(t *testing.T) *ClassModelBuilder
		want    error
	}{
		{
			name: "duplicate read names",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[dupReadNames]())
			},
			want: ErrDuplicateProperty,
		},
		{
			name: "duplicate write names",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[dupWriteNames]())
			},
			want: ErrDuplicateProperty,
		},
		{
			name: "duplicate property names",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[underscoreDoc]()).
					AddProperty(NewPropertyModelBuilder("key", TypeDataOf(reflect.TypeFor[string]())).SetReadName("other").SetWriteName("other"))
			},
			want: ErrDuplicateProperty,
		},
		{
			name: "missing identity property",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[underscoreDoc]()).
					SetIDPropertyName("missing").
					SetConventions(noop)
			},
			want: ErrMissingIDProperty,
		},
		{
			name: "discriminator without key",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[underscoreDoc]()).
					SetDiscriminator("doc").
					EnableDiscriminator(true).
					SetConventions(noop)
			},
			want: ErrInvalidDiscriminator,
		},
		{
			name: "discriminator without name",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[underscoreDoc]()).
					SetDiscriminatorKey("_t").
					EnableDiscriminator(true).
					SetConventions(noop)
			},
			want: ErrInvalidDiscriminator,
		},
		{
			name: "convention failure",
			builder: func(t *testing.T) *ClassModelBuilder {
				return builderFor(t, reflect.TypeFor[underscoreDoc]()).
					SetConventions(ConventionFunc(func(*ClassModelBuilder) error { return ErrTypeMismatch }))
			},
			want: ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder(t).Build()
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClassModelBuilder_ConventionOrder(t *testing.T) {
	var order []string
	record := func(name string) Convention {
		return ConventionFunc(func(*ClassModelBuilder) error {
			order = append(order, name)
			return nil
		})
	}

	b := builderFor(t, reflect.TypeFor[underscoreDoc]()).
		SetConventions(record("first"), record("second"), record("third"))
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Errorf("conventions ran in order %v", order)
	}
	if len(b.Conventions()) != 3 {
		t.Errorf("len(Conventions()) = %d, want 3", len(b.Conventions()))
	}
}

func TestClassModelBuilder_PropertyEditing(t *testing.T) {
	b := builderFor(t, reflect.TypeFor[modelUser]())

	if !b.RemoveProperty("email") {
		t.Error("RemoveProperty(email) = false, want true")
	}
	if b.RemoveProperty("email") {
		t.Error("RemoveProperty(email) twice = true, want false")
	}
	if b.Property("") != nil {
		t.Error("Property(\"\") should return nil")
	}

	props := b.Properties()
	props[0] = nil
	if b.Properties()[0] == nil {
		t.Error("Properties() exposed the builder's slice")
	}
}

func TestClassModel_Immutable(t *testing.T) {
	b := builderFor(t, reflect.TypeFor[modelUser]())
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	b.Property("name").SetReadName("changed")
	b.RemoveProperty("email")
	b.SetDiscriminator("changed")

	if got := m.Property("name").ReadName(); got != "name" {
		t.Errorf("model read name changed to %q", got)
	}
	if m.Property("email") == nil {
		t.Error("model lost a property removed from the builder")
	}
	if m.Discriminator() == "changed" {
		t.Error("model discriminator changed with the builder")
	}

	props := m.Properties()
	props[0] = nil
	if m.Properties()[0] == nil {
		t.Error("Properties() exposed the model's slice")
	}
}

func TestClassModel_InterfaceModel(t *testing.T) {
	type shape interface{ Area() float64 }

	m, err := builderFor(t, reflect.TypeFor[shape]()).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(m.Properties()) != 0 {
		t.Errorf("interface model has %d properties", len(m.Properties()))
	}
	if m.InstanceCreatorFactory() != nil {
		t.Errorf("interface model creator = %T, want nil", m.InstanceCreatorFactory())
	}
	if m.IDPropertyName() != "" {
		t.Errorf("IDPropertyName() = %q, want empty", m.IDPropertyName())
	}
}
