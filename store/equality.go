package store

import "reflect"

// Equality decides whether a selected value changed. The zero value behaves
// like Shallow.
type Equality struct {
	name  string
	equal func(a, b any) bool
}

// String returns the comparator name.
func (e Equality) String() string {
	if e.name == "" {
		return "shallow"
	}
	return e.name
}

func (e Equality) eq(a, b any) bool {
	if e.equal == nil {
		return shallowEqual(a, b)
	}
	return e.equal(a, b)
}

var (
	// Shallow compares one level deep: struct fields, map entries and slice
	// elements are compared with Strict. A pointer to a struct compares the
	// pointees field by field.
	Shallow = Equality{name: "shallow", equal: shallowEqual}

	// Strict compares reference kinds (maps, slices, pointers, funcs,
	// channels) by identity and everything else by value.
	Strict = Equality{name: "strict", equal: strictEqual}
)

// Custom wraps a typed comparator. Values that are not of type V are never
// equal, except two nils.
func Custom[V any](fn func(a, b V) bool) Equality {
	return Equality{
		name: "custom",
		equal: func(a, b any) bool {
			av, aok := a.(V)
			bv, bok := b.(V)
			if !aok || !bok {
				return a == nil && b == nil
			}
			return fn(av, bv)
		},
	}
}

func strictEqual(a, b any) bool {
	return strictValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func strictValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.IsNil() == b.IsNil() && a.Len() == b.Len() && a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return strictValue(a.Elem(), b.Elem())
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !strictValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !strictValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	}
	return false
}

func shallowEqual(a, b any) bool {
	return shallowValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func shallowValue(a, b reflect.Value) bool {
	if strictValue(a, b) {
		return true
	}
	if !a.IsValid() || !b.IsValid() || a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return false
		}
		return shallowValue(a.Elem(), b.Elem())
	case reflect.Pointer:
		if a.IsNil() || b.IsNil() || a.Elem().Kind() != reflect.Struct {
			return false
		}
		return fieldsEqual(a.Elem(), b.Elem())
	case reflect.Struct:
		return fieldsEqual(a, b)
	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !strictValue(iter.Value(), bv) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if a.Kind() == reflect.Slice && a.IsNil() != b.IsNil() {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !strictValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	}
	return false
}

func fieldsEqual(a, b reflect.Value) bool {
	for i := 0; i < a.NumField(); i++ {
		if !strictValue(a.Field(i), b.Field(i)) {
			return false
		}
	}
	return true
}
