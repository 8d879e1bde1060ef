package docmodel

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signal definitions for docmodel events.
var (
	SignalModelBuilt             = capitan.NewSignal("docmodel.model.built", "Class model built")
	SignalModelFailed            = capitan.NewSignal("docmodel.model.failed", "Automatic class model could not be built")
	SignalDiscriminatorPublished = capitan.NewSignal("docmodel.discriminator.published", "Class model published to the discriminator index")
	SignalCodecCreated           = capitan.NewSignal("docmodel.codec.created", "Codec created for a type")
	SignalProcessorCreated       = capitan.NewSignal("docmodel.processor.created", "Processor instantiated")
	SignalEncodeStart            = capitan.NewSignal("docmodel.encode.start", "Encode operation beginning")
	SignalEncodeComplete         = capitan.NewSignal("docmodel.encode.complete", "Encode operation finished")
	SignalDecodeStart            = capitan.NewSignal("docmodel.decode.start", "Decode operation beginning")
	SignalDecodeComplete         = capitan.NewSignal("docmodel.decode.complete", "Decode operation finished")
)

// Keys for typed event data.
var (
	KeyContentType   = capitan.NewStringKey("content_type")
	KeyTypeName      = capitan.NewStringKey("type_name")
	KeyDiscriminator = capitan.NewStringKey("discriminator")
	KeyCodecSource   = capitan.NewStringKey("codec_source")
	KeyPropertyCount = capitan.NewIntKey("property_count")
	KeySize          = capitan.NewIntKey("size")
	KeyDuration      = capitan.NewDurationKey("duration")
	KeyError         = capitan.NewErrorKey("error")
)

// Codec sources reported with SignalCodecCreated.
const (
	CodecSourceExplicit  = "explicit"
	CodecSourceAutomatic = "automatic"
)

// emitModelBuilt emits an event when a class model is built.
func emitModelBuilt(ctx context.Context, typeName string, properties int) {
	capitan.Emit(ctx, SignalModelBuilt,
		KeyTypeName.Field(typeName),
		KeyPropertyCount.Field(properties),
	)
}

// emitModelFailed emits an error event when an automatic model fails to build.
func emitModelFailed(ctx context.Context, typeName string, err error) {
	capitan.Error(ctx, SignalModelFailed,
		KeyTypeName.Field(typeName),
		KeyError.Field(err),
	)
}

// emitDiscriminatorPublished emits an event when a model is published.
func emitDiscriminatorPublished(ctx context.Context, typeName, discriminator string) {
	capitan.Emit(ctx, SignalDiscriminatorPublished,
		KeyTypeName.Field(typeName),
		KeyDiscriminator.Field(discriminator),
	)
}

// emitCodecCreated emits an event when a provider creates a codec.
func emitCodecCreated(ctx context.Context, typeName, source string) {
	capitan.Emit(ctx, SignalCodecCreated,
		KeyTypeName.Field(typeName),
		KeyCodecSource.Field(source),
	)
}

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitEncodeStart emits an event when encode begins.
func emitEncodeStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalEncodeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitEncodeComplete emits an event when encode finishes.
func emitEncodeComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalEncodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalEncodeComplete, fields...)
	}
}

// emitDecodeStart emits an event when decode begins.
func emitDecodeStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalDecodeStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitDecodeComplete emits an event when decode finishes.
func emitDecodeComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDecodeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDecodeComplete, fields...)
	}
}
