package docmodel

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrDuplicateCreator indicates more than one construction routine carries a creator marker.
	ErrDuplicateCreator = errors.New("multiple creators")

	// ErrInvalidCreatorReturn indicates a creator routine returns a type incompatible with its declaring type.
	ErrInvalidCreatorReturn = errors.New("invalid creator return type")

	// ErrUnannotatedParameter indicates a creator parameter has no property marker.
	ErrUnannotatedParameter = errors.New("unannotated creator parameter")

	// ErrTypeMismatch indicates a property type cannot be passed to its creator parameter.
	ErrTypeMismatch = errors.New("property type mismatch")

	// ErrMissingIDProperty indicates the identity property is not present on the model.
	ErrMissingIDProperty = errors.New("missing id property")

	// ErrDuplicateProperty indicates two properties share a name, read name or write name.
	ErrDuplicateProperty = errors.New("duplicate property")

	// ErrInvalidDiscriminator indicates discriminator emission is enabled without a key or name.
	ErrInvalidDiscriminator = errors.New("invalid discriminator")

	// ErrInvalidRoutine indicates a declared routine is not a function.
	ErrInvalidRoutine = errors.New("invalid routine")

	// ErrNoCodec indicates no provider could supply a codec for a type.
	ErrNoCodec = errors.New("no codec")

	// ErrUnknownDiscriminator indicates a discriminator value names no known type.
	ErrUnknownDiscriminator = errors.New("unknown discriminator")

	// ErrMissingDiscriminator indicates an interface-typed document carries no discriminator.
	ErrMissingDiscriminator = errors.New("missing discriminator")

	// ErrIDGeneration indicates an identity value could not be generated.
	ErrIDGeneration = errors.New("id generation failed")

	// ErrEncode indicates a value could not be encoded into a document.
	ErrEncode = errors.New("encode failed")

	// ErrDecode indicates a document could not be decoded into a value.
	ErrDecode = errors.New("decode failed")
)

// ConfigError represents a model configuration error.
// It wraps a sentinel error with the type and property that triggered it.
type ConfigError struct {
	Err      error  // Underlying sentinel error (ErrDuplicateCreator, etc.)
	Type     string // Type whose model failed to build
	Property string // Property involved, if any
	Detail   string // Human readable detail
}

func (e *ConfigError) Error() string {
	msg := e.Err.Error()
	if e.Type != "" {
		msg = fmt.Sprintf("%s for type %s", msg, e.Type)
	}
	if e.Property != "" {
		msg = fmt.Sprintf("%s (property %s)", msg, e.Property)
	}
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CodecError represents an encode/decode error.
type CodecError struct {
	Err   error  // Underlying sentinel error (ErrEncode, ErrDecode)
	Type  string // Type being encoded or decoded
	Cause error  // Original error
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for type %s: %v", e.Err.Error(), e.Type, e.Cause)
	}
	return fmt.Sprintf("%s for type %s", e.Err.Error(), e.Type)
}

func (e *CodecError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// newConfigError creates a ConfigError for model building failures.
func newConfigError(sentinel error, typ, property, detail string) error {
	return &ConfigError{
		Err:      sentinel,
		Type:     typ,
		Property: property,
		Detail:   detail,
	}
}

// newCodecError creates a CodecError for encode/decode failures.
func newCodecError(sentinel error, typ string, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Type:  typ,
		Cause: cause,
	}
}
