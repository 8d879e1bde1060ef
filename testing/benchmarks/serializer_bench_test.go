package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/docmodel"
	"github.com/zoobzio/docmodel/bson"
	"github.com/zoobzio/docmodel/json"
	codectest "github.com/zoobzio/docmodel/testing"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func benchUser() *codectest.User {
	return &codectest.User{
		ID:      primitive.NewObjectID(),
		Name:    "Alice",
		Email:   "alice@example.com",
		Age:     30,
		Tags:    []string{"admin", "ops"},
		Address: &codectest.Address{Street: "1 Main St", City: "Springfield"},
		Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func BenchmarkProcessor_Encode_BSON(b *testing.B) {
	proc, _ := docmodel.NewProcessor[codectest.User](bson.New(), codectest.Registry())
	user := benchUser()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Encode(context.Background(), user)
	}
}

func BenchmarkProcessor_Decode_BSON(b *testing.B) {
	proc, _ := docmodel.NewProcessor[codectest.User](bson.New(), codectest.Registry())
	data, _ := proc.Encode(context.Background(), benchUser())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Decode(context.Background(), data)
	}
}

func BenchmarkProcessor_Encode_JSON(b *testing.B) {
	proc, _ := docmodel.NewProcessor[codectest.User](json.New(), codectest.Registry())
	user := benchUser()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Encode(context.Background(), user)
	}
}

func BenchmarkProcessor_Decode_Polymorphic(b *testing.B) {
	proc, _ := docmodel.NewProcessor[codectest.Drawing](bson.New(), codectest.Registry())
	data, _ := proc.Encode(context.Background(), &codectest.Drawing{
		ID:     "bench",
		Main:   codectest.Circle{Radius: 1},
		Shapes: []codectest.Shape{codectest.Square{Side: 2}, codectest.Circle{Radius: 3}},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Decode(context.Background(), data)
	}
}

func BenchmarkProcessor_Decode_Creator(b *testing.B) {
	proc, _ := docmodel.NewProcessor[codectest.Money](bson.New(), codectest.Registry())
	data, _ := proc.Encode(context.Background(), &codectest.Money{Amount: 100, Currency: "usd"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = proc.Decode(context.Background(), data)
	}
}

func BenchmarkProvider_BuildModel(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = docmodel.NewProviderBuilder().
			Introspector(codectest.Scanner()).
			Register(codectest.Types()...).
			Build()
	}
}

func BenchmarkUse_Cached(b *testing.B) {
	docmodel.Reset()
	reg := codectest.Registry()
	format := json.New()
	_, _ = docmodel.Use[codectest.User](format, reg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = docmodel.Use[codectest.User](format, reg)
	}
}
