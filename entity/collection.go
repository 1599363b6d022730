// Package entity provides normalized, id-keyed collections and ordered id lists.
//
// Every helper is pure: inputs are never mutated. Operations that would not
// change observable content return their input unchanged, so callers (and the
// store's subscribers) can use identity as a cheap "did anything change" check.
// Use SameCollection and SameList to perform that check.
package entity

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Identifiable is implemented by entities stored in a Collection.
// Entities are expected to be pointer types so that identity is meaningful.
type Identifiable interface {
	comparable
	GetID() string
}

// Collection maps an entity id to the entity. Every present value's id equals its key.
type Collection[T Identifiable] map[string]T

// Update describes a change to a single entity.
type Update[T Identifiable] struct {
	ID string
	// Apply returns the changed entity. It must not mutate its argument.
	Apply func(T) T
}

// GetOne returns the entity stored under id.
func GetOne[T Identifiable](c Collection[T], id string) (T, bool) {
	e, ok := c[id]
	return e, ok
}

// GetMany returns the entities for ids, preserving order. Missing ids yield the zero value.
func GetMany[T Identifiable](c Collection[T], ids []string) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = c[id]
	}
	return out
}

// AddOne inserts e, overwriting any entity with the same id.
func AddOne[T Identifiable](c Collection[T], e T) Collection[T] {
	return AddMany(c, e)
}

// AddMany inserts entities, last write wins. The input collection is returned
// when every entity is already present under its id.
func AddMany[T Identifiable](c Collection[T], entities ...T) Collection[T] {
	var out Collection[T]
	for _, e := range entities {
		id := e.GetID()
		if out == nil {
			if cur, ok := c[id]; ok && cur == e {
				continue
			}
			out = clone(c, len(entities))
		}
		out[id] = e
	}
	if out == nil {
		return c
	}
	return out
}

// UpdateOne applies u to the matching entity. Unknown ids are a no-op.
func UpdateOne[T Identifiable](c Collection[T], u Update[T]) Collection[T] {
	return UpdateMany(c, u)
}

// UpdateMany applies each update in order. Updates for unknown ids, and updates
// returning the same entity, leave the collection untouched.
func UpdateMany[T Identifiable](c Collection[T], updates ...Update[T]) Collection[T] {
	var out Collection[T]
	for _, u := range updates {
		src := c
		if out != nil {
			src = out
		}
		cur, ok := src[u.ID]
		if !ok {
			continue
		}
		next := u.Apply(cur)
		if next == cur {
			continue
		}
		if out == nil {
			out = clone(c, 0)
		}
		out[u.ID] = next
	}
	if out == nil {
		return c
	}
	return out
}

// PatchOne merges changes into the entity stored under id. Keys of changes
// match the entity's json field names. The entity is deep-copied before
// decoding, so the original and everything it points to are left untouched.
func PatchOne[T Identifiable](c Collection[T], id string, changes map[string]any) (Collection[T], error) {
	cur, ok := c[id]
	if !ok || len(changes) == 0 {
		return c, nil
	}

	rv := reflect.ValueOf(cur)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return c, fmt.Errorf("entity %q: patch requires a non-nil pointer entity", id)
	}
	cp := deepCopy(rv)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cp.Interface(),
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return c, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(changes); err != nil {
		return c, fmt.Errorf("entity %q: apply changes: %w", id, err)
	}

	next := cp.Interface().(T)
	if next.GetID() != id {
		return c, fmt.Errorf("entity %q: changes must not alter the id", id)
	}
	out := clone(c, 0)
	out[id] = next
	return out, nil
}

// RemoveOne deletes id from the collection.
func RemoveOne[T Identifiable](c Collection[T], id string) Collection[T] {
	return RemoveMany(c, []string{id})
}

// RemoveMany deletes ids. The input is returned when none of them are present.
func RemoveMany[T Identifiable](c Collection[T], ids []string) Collection[T] {
	var out Collection[T]
	for _, id := range ids {
		if _, ok := c[id]; !ok {
			continue
		}
		if out == nil {
			out = clone(c, 0)
		}
		delete(out, id)
	}
	if out == nil {
		return c
	}
	return out
}

// MapEntityCollection applies fn to every entity and returns a new collection.
func MapEntityCollection[T Identifiable](c Collection[T], fn func(T) T) Collection[T] {
	out := make(Collection[T], len(c))
	for id, e := range c {
		out[id] = fn(e)
	}
	return out
}

// IDs returns the ids of the collection in no particular order.
func IDs[T Identifiable](c Collection[T]) []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	return ids
}

// SameCollection reports whether a and b are the same map instance.
func SameCollection[T Identifiable](a, b Collection[T]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// deepCopy copies v and every pointer, slice, map and interface reachable
// through its exported fields. Unexported fields are copied shallowly.
func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		cp := reflect.New(v.Type().Elem())
		cp.Elem().Set(deepCopy(v.Elem()))
		return cp
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return cp
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		cp := reflect.New(v.Type()).Elem()
		cp.Set(deepCopy(v.Elem()))
		return cp
	case reflect.Struct:
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := cp.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i)))
			}
		}
		return cp
	}
	return v
}

func clone[T Identifiable](c Collection[T], extra int) Collection[T] {
	out := make(Collection[T], len(c)+extra)
	for k, v := range c {
		out[k] = v
	}
	return out
}
