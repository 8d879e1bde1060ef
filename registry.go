package docmodel

import (
	"reflect"
	"sync"
)

// Registry resolves codecs by asking its providers in order. Results, including
// the absence of a codec, are cached per type.
type Registry struct {
	providers []CodecProvider

	mu    sync.RWMutex
	cache map[reflect.Type]Codec
}

// NewRegistry returns a registry consulting providers in order.
func NewRegistry(providers ...CodecProvider) *Registry {
	return &Registry{
		providers: append([]CodecProvider(nil), providers...),
		cache:     make(map[reflect.Type]Codec),
	}
}

// Lookup returns the codec for t. Pointer types resolve to their element type.
// Only struct and non-empty interface types have codecs.
func (r *Registry) Lookup(t reflect.Type) (Codec, error) {
	t = indirect(t)
	if t == nil || !modelKind(t) {
		return nil, newConfigError(ErrNoCodec, typeName(t), "", "")
	}

	// Fast path: read-lock cache check
	r.mu.RLock()
	c, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return found(c, t)
	}

	// Providers may consult the registry, so resolve outside the lock.
	for _, p := range r.providers {
		if pc, ok := p.Get(t, r); ok {
			c = pc
			break
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check pattern
	if cached, ok := r.cache[t]; ok {
		return found(cached, t)
	}
	r.cache[t] = c
	return found(c, t)
}

func found(c Codec, t reflect.Type) (Codec, error) {
	if c == nil {
		return nil, newConfigError(ErrNoCodec, typeName(t), "", "")
	}
	return c, nil
}

func modelKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		return true
	case reflect.Interface:
		return t.NumMethod() > 0
	default:
		return false
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry: an automatic provider using the
// default conventions and DefaultScanner.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		provider, err := NewProviderBuilder().Automatic(true).Build()
		if err != nil {
			// An automatic provider with nothing registered builds no models.
			panic(err)
		}
		defaultRegistry = NewRegistry(provider)
	})
	return defaultRegistry
}

// registryKey combines type, format and codec registry for processor lookup.
type registryKey struct {
	typ         reflect.Type
	contentType string
	registry    *Registry
}

var (
	processors   = make(map[registryKey]any)
	processorsMu sync.RWMutex
)

// Use returns a cached processor or builds a new one.
// The processor is cached by type, format content type and registry.
// A nil registry selects Default().
func Use[T any](format Format, reg *Registry) (*Processor[T], error) {
	if reg == nil {
		reg = Default()
	}
	typ := reflect.TypeFor[T]()
	key := registryKey{typ: typ, contentType: format.ContentType(), registry: reg}

	// Fast path: read-lock cache check
	processorsMu.RLock()
	if cached, ok := processors[key]; ok {
		processorsMu.RUnlock()
		return cached.(*Processor[T]), nil
	}
	processorsMu.RUnlock()

	// Slow path: build and cache with write-lock
	processorsMu.Lock()
	defer processorsMu.Unlock()

	// Double-check pattern
	if cached, ok := processors[key]; ok {
		return cached.(*Processor[T]), nil
	}

	processor, err := NewProcessor[T](format, reg)
	if err != nil {
		return nil, err
	}

	processors[key] = processor
	return processor, nil
}

// Reset clears the processor cache.
// This is primarily useful for test isolation.
func Reset() {
	processorsMu.Lock()
	defer processorsMu.Unlock()
	processors = make(map[registryKey]any)
}
