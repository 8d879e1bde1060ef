// Package docmodel maps Go types to BSON documents through immutable class
// models built by a convention pipeline.
//
// A ClassModel describes how one type is written to and read from a document:
// which properties exist, under which keys they are read and written, which
// property is the identity, whether documents carry a discriminator, and how
// instances are constructed. Models are produced by a ClassModelBuilder seeded
// from a type description and transformed by an ordered list of conventions.
//
// # Markers
//
// Properties are exported struct fields, named by their lower-cased field name.
// Their mapping is declared with struct tags:
//
//	type User struct {
//	    ID       primitive.ObjectID `bson:"_id,id"`
//	    Email    string             `bson:"email"`
//	    Password string             `bson:"-"`
//	    Legacy   string             `bson.read:"-" bson.write:"legacy_name"`
//	    Pet      Animal             `bson:"pet,discriminator"`
//	}
//
// The bson tag applies to both sides of a property; bson.read and bson.write
// replace it for encoding and decoding respectively. Options:
//
//	name            - renames the side
//	-               - ignores the side
//	,id             - designates the identity property
//	,discriminator  - nested documents carry a discriminator
//
// Type-level discriminators are configured by embedding Discriminator:
//
//	type Circle struct {
//	    docmodel.Discriminator `discriminator:"circle" discriminator.key:"shape"`
//	    Radius float64
//	}
//
// # Creators
//
// A constructor or static factory declared with a creator marker replaces
// zero-value allocation during decoding. Every parameter names the property
// it receives:
//
//	func NewUser(id primitive.ObjectID, email string) *User { ... }
//
//	docmodel.Declare[User](
//	    docmodel.Constructor(NewUser, docmodel.CreatorMarker()).
//	        Param(docmodel.IDMarker()).
//	        Param(docmodel.PropertyMarker("email")),
//	)
//
// Static factories declared with Method on a type of the embedding chain are
// found when the type itself declares no marked constructor.
//
// # Conventions
//
// The default pipeline is DefaultsConvention, MarkerConvention and
// IDGeneratorConvention. Custom pipelines are set per provider:
//
//	provider, err := docmodel.NewProviderBuilder().
//	    Conventions(docmodel.DefaultsConvention{}, docmodel.MarkerConvention{}).
//	    Register(reflect.TypeFor[User]()).
//	    Build()
//
// # Providers and Registries
//
// A Provider returns codecs for registered types and, when automatic discovery
// is enabled or a package path is registered, for any type whose model is
// usable. A Registry chains providers and caches their answers:
//
//	reg := docmodel.NewRegistry(provider)
//	proc, err := docmodel.Use[User](bson.New(), reg)
//	data, err := proc.Encode(ctx, &user)
//
// Default() returns a registry backed by an automatic provider.
//
// # Formats
//
// The following format implementations are available as subpackages:
//
//   - bson - BSON encoding (application/bson)
//   - json - JSON encoding (application/json)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - yaml - YAML encoding (application/yaml)
//
// # Signals
//
// Model building, discriminator publication, codec creation and processor
// operations emit capitan signals. Automatic models that fail to build are
// reported through SignalModelFailed rather than returned.
package docmodel

// Format provides content-type aware marshaling of documents.
//
// Implementations accept a bson.D (or *bson.D when unmarshaling) and translate
// it to their own representation. Other values are passed to the underlying
// library unchanged.
type Format interface {
	// ContentType returns the MIME type for this format (e.g., "application/bson").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}
