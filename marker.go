package docmodel

import (
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

// Struct tags read by the Scanner.
const (
	TagBSON             = "bson"
	TagBSONRead         = "bson.read"
	TagBSONWrite        = "bson.write"
	TagDiscriminator    = "discriminator"
	TagDiscriminatorKey = "discriminator.key"
)

func init() {
	// Register marker tags so sentinel extracts them
	sentinel.Tag(TagBSON)
	sentinel.Tag(TagBSONRead)
	sentinel.Tag(TagBSONWrite)
	sentinel.Tag(TagDiscriminator)
	sentinel.Tag(TagDiscriminatorKey)
}

// MarkerKind enumerates the declarative markers understood by conventions.
type MarkerKind uint8

const (
	// MarkerProperty renames a property and may opt it into discriminators.
	MarkerProperty MarkerKind = iota + 1

	// MarkerID designates the identity property, or the identity creator parameter.
	MarkerID

	// MarkerIgnore hides one side (read or write) of a property.
	MarkerIgnore

	// MarkerDiscriminator configures the discriminator of a type.
	MarkerDiscriminator

	// MarkerCreator designates a construction routine.
	MarkerCreator
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerProperty:
		return "property"
	case MarkerID:
		return "id"
	case MarkerIgnore:
		return "ignore"
	case MarkerDiscriminator:
		return "discriminator"
	case MarkerCreator:
		return "creator"
	default:
		return "unknown"
	}
}

// Marker is declarative metadata attached to a type, property, routine or
// routine parameter.
type Marker struct {
	Kind MarkerKind

	// Value is the property name (MarkerProperty) or discriminator name (MarkerDiscriminator).
	Value string

	// Key is the discriminator key (MarkerDiscriminator).
	Key string

	// UseDiscriminator opts a property's nested documents into discriminators (MarkerProperty).
	UseDiscriminator bool
}

// PropertyMarker returns a MarkerProperty with the given name.
func PropertyMarker(name string) Marker {
	return Marker{Kind: MarkerProperty, Value: name}
}

// IDMarker returns a MarkerID.
func IDMarker() Marker {
	return Marker{Kind: MarkerID}
}

// IgnoreMarker returns a MarkerIgnore.
func IgnoreMarker() Marker {
	return Marker{Kind: MarkerIgnore}
}

// CreatorMarker returns a MarkerCreator.
func CreatorMarker() Marker {
	return Marker{Kind: MarkerCreator}
}

// DiscriminatorMarker returns a MarkerDiscriminator with the given key and name.
// Empty values leave the defaults in place.
func DiscriminatorMarker(key, name string) Marker {
	return Marker{Kind: MarkerDiscriminator, Key: key, Value: name}
}

// Discriminator is embedded in a struct to carry its type-level discriminator
// marker. It holds no data.
//
//	type Circle struct {
//	    docmodel.Discriminator `discriminator:"circle" discriminator.key:"shape"`
//	    Radius float64
//	}
//
// Embedding it with empty tags still enables discriminator emission.
type Discriminator struct{}

var markerType = reflect.TypeOf(Discriminator{})

// hasMarker reports whether markers contains one of kind.
func hasMarker(markers []Marker, kind MarkerKind) bool {
	for _, m := range markers {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// parsePropertyMarkers derives read-side and write-side markers from field tags.
// The bson tag applies to both sides; bson.read and bson.write replace it for
// their side.
func parsePropertyMarkers(tags map[string]string) (read, write []Marker) {
	base, hasBase := tags[TagBSON]
	if v, ok := tags[TagBSONRead]; ok {
		read = parseBSONTag(v)
	} else if hasBase {
		read = parseBSONTag(base)
	}
	if v, ok := tags[TagBSONWrite]; ok {
		write = parseBSONTag(v)
	} else if hasBase {
		write = parseBSONTag(base)
	}
	return read, write
}

// parseBSONTag parses `name,opt,...`. A lone "-" ignores the side; "-," names
// the key "-". The "id" option marks the identity property and "discriminator"
// opts into discriminators. Other options (omitempty, inline) are skipped.
func parseBSONTag(tag string) []Marker {
	name, rest, hasOpts := strings.Cut(tag, ",")
	if name == "-" && !hasOpts {
		return []Marker{IgnoreMarker()}
	}

	prop := PropertyMarker(name)
	var id bool
	for _, opt := range strings.Split(rest, ",") {
		switch strings.TrimSpace(opt) {
		case "discriminator":
			prop.UseDiscriminator = true
		case "id":
			id = true
		}
	}

	markers := []Marker{prop}
	if id {
		markers = append(markers, IDMarker())
	}
	return markers
}

// parseTypeMarkers derives the type-level marker from the tags of an embedded
// Discriminator field.
func parseTypeMarkers(tags map[string]string) []Marker {
	return []Marker{DiscriminatorMarker(tags[TagDiscriminatorKey], tags[TagDiscriminator])}
}

// lookupTags extracts the non-empty marker tags from a struct tag, as sentinel
// does for registered tags.
func lookupTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, name := range []string{TagBSON, TagBSONRead, TagBSONWrite, TagDiscriminator, TagDiscriminatorKey} {
		if val := tag.Get(name); val != "" {
			tags[name] = val
		}
	}
	return tags
}
