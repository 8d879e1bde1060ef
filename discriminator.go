package docmodel

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// DiscriminatorLookup maps discriminator names to types and types to the
// published types that can stand in for them. It only grows. Reads never
// block; publications are serialized and a later publication of the same type
// replaces the earlier one.
type DiscriminatorLookup struct {
	mu       sync.Mutex // serializes writers
	byName   sync.Map   // string -> reflect.Type
	models   sync.Map   // reflect.Type -> *ClassModel
	subtypes sync.Map   // reflect.Type -> []reflect.Type, replaced on write
	order    sync.Map   // reflect.Type -> int, first publication order
	count    int
}

// NewDiscriminatorLookup returns an index seeded with models.
func NewDiscriminatorLookup(models ...*ClassModel) *DiscriminatorLookup {
	l := &DiscriminatorLookup{}
	for _, m := range models {
		l.publish(m)
	}
	return l
}

// Publish records m under its type and discriminator name.
func (l *DiscriminatorLookup) Publish(m *ClassModel) {
	if m == nil || m.Type() == nil {
		return
	}
	l.publish(m)
	emitDiscriminatorPublished(context.Background(), m.Name(), m.Discriminator())
}

func (l *DiscriminatorLookup) publish(m *ClassModel) {
	t := m.Type()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.models.Store(t, m)
	if m.Discriminator() != "" {
		l.byName.Store(m.Discriminator(), t)
	}
	if _, seen := l.order.Load(t); seen {
		return
	}
	l.order.Store(t, l.count)
	l.count++

	for _, ancestor := range hierarchy(t) {
		var current []reflect.Type
		if v, ok := l.subtypes.Load(ancestor); ok {
			current = v.([]reflect.Type)
		}
		next := make([]reflect.Type, len(current), len(current)+1)
		copy(next, current)
		l.subtypes.Store(ancestor, append(next, t))
	}
}

// Lookup returns the type published under the discriminator name.
func (l *DiscriminatorLookup) Lookup(name string) (reflect.Type, error) {
	if v, ok := l.byName.Load(name); ok {
		return v.(reflect.Type), nil
	}
	return nil, newConfigError(ErrUnknownDiscriminator, "", "", name)
}

// Model returns the model published for t.
func (l *DiscriminatorLookup) Model(t reflect.Type) (*ClassModel, bool) {
	v, ok := l.models.Load(indirect(t))
	if !ok {
		return nil, false
	}
	return v.(*ClassModel), true
}

// Subtypes returns the published types that can stand in for t, in
// publication order: t itself and types embedding it, or for an interface the
// published types implementing it.
func (l *DiscriminatorLookup) Subtypes(t reflect.Type) []reflect.Type {
	t = indirect(t)
	if t == nil {
		return nil
	}
	if t.Kind() != reflect.Interface {
		v, ok := l.subtypes.Load(t)
		if !ok {
			return nil
		}
		return append([]reflect.Type(nil), v.([]reflect.Type)...)
	}

	type entry struct {
		typ   reflect.Type
		order int
	}
	var found []entry
	l.order.Range(func(k, v any) bool {
		st := k.(reflect.Type)
		if st == t || isSubtype(st, t) {
			found = append(found, entry{typ: st, order: v.(int)})
		}
		return true
	})
	sort.Slice(found, func(i, j int) bool { return found[i].order < found[j].order })
	out := make([]reflect.Type, len(found))
	for i, e := range found {
		out[i] = e.typ
	}
	return out
}
