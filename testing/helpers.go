// Package testing provides fixtures and helpers for docmodel tests.
package testing

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/zoobzio/docmodel"
	"github.com/zoobzio/docmodel/bson"
	"github.com/zoobzio/docmodel/json"
	"github.com/zoobzio/docmodel/msgpack"
	"github.com/zoobzio/docmodel/yaml"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a nested document without an identity.
type Address struct {
	Street string `bson:"street"`
	City   string `bson:"city"`
}

// User is a document with an object id identity, a nested document, a
// renamed field and an ignored field.
type User struct {
	ID      primitive.ObjectID `bson:"_id,id"`
	Name    string             `bson:"name"`
	Email   string             `bson:"mail"`
	Age     int                `bson:"age"`
	Tags    []string           `bson:"tags"`
	Address *Address           `bson:"address"`
	Created time.Time          `bson:"created"`
	Secret  string             `bson:"-"`
}

// Shape is implemented by the polymorphic fixtures.
type Shape interface {
	Area() float64
}

// Circle is a Shape with a type-level discriminator.
type Circle struct {
	docmodel.Discriminator `discriminator:"circle"`
	Radius                 float64 `bson:"radius"`
}

// Area implements Shape.
func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Square is a Shape with a type-level discriminator.
type Square struct {
	docmodel.Discriminator `discriminator:"square"`
	Side                   float64 `bson:"side"`
}

// Area implements Shape.
func (s Square) Area() float64 { return s.Side * s.Side }

// Drawing holds shapes through their interface.
type Drawing struct {
	ID     string  `bson:"_id,id"`
	Title  string  `bson:"title"`
	Main   Shape   `bson:"main"`
	Shapes []Shape `bson:"shapes"`
}

// Money is constructed through NewMoney when decoded.
type Money struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

// NewMoney returns a Money with an upper-cased currency code.
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// Types returns the fixture types registered by Registry.
func Types() []reflect.Type {
	return []reflect.Type{
		docmodel.Scan[Address](),
		docmodel.Scan[User](),
		docmodel.Scan[Shape](),
		docmodel.Scan[Circle](),
		docmodel.Scan[Square](),
		docmodel.Scan[Drawing](),
		docmodel.Scan[Money](),
	}
}

// Scanner returns a scanner declaring the fixture creators.
func Scanner() *docmodel.Scanner {
	s := docmodel.NewScanner()
	err := s.Declare(reflect.TypeFor[Money](),
		docmodel.Constructor(NewMoney, docmodel.CreatorMarker()).
			Param(docmodel.PropertyMarker("amount")).
			Param(docmodel.PropertyMarker("currency")),
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Registry returns a registry whose provider registers every fixture type.
func Registry() *docmodel.Registry {
	provider, err := docmodel.NewProviderBuilder().
		Introspector(Scanner()).
		Register(Types()...).
		Build()
	if err != nil {
		panic(err)
	}
	return docmodel.NewRegistry(provider)
}

// Formats returns every available format.
func Formats() []docmodel.Format {
	return []docmodel.Format{
		bson.New(),
		json.New(),
		msgpack.New(),
		yaml.New(),
	}
}
