package entity

import "unsafe"

// AddItemToList appends item to the end of list.
func AddItemToList[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, item)
}

// InsertItemInList inserts item at index. Indexes outside [0, len] append.
func InsertItemInList[T any](list []T, index int, item T) []T {
	if index < 0 || index >= len(list) {
		return AddItemToList(list, item)
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, item)
	return append(out, list[index:]...)
}

// RemoveItemFromList removes the item at index. Out-of-range indexes return list unchanged.
func RemoveItemFromList[T any](list []T, index int) []T {
	if index < 0 || index >= len(list) {
		return list
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...)
}

// RemoveValueFromList removes the first occurrence of item.
func RemoveValueFromList[T comparable](list []T, item T) []T {
	return RemoveItemFromList(list, IndexOf(list, item))
}

// MoveItemInList moves the item at from to position to.
// Moving an item onto itself, or an out-of-range from, returns list unchanged.
// A to outside [0, len) moves the item to the end.
func MoveItemInList[T any](list []T, from, to int) []T {
	if from < 0 || from >= len(list) {
		return list
	}
	if to < 0 || to >= len(list) {
		to = len(list) - 1
	}
	if from == to {
		return list
	}
	item := list[from]
	rest := RemoveItemFromList(list, from)
	if to >= len(rest) {
		return append(rest, item)
	}
	out := make([]T, 0, len(list))
	out = append(out, rest[:to]...)
	out = append(out, item)
	return append(out, rest[to:]...)
}

// MoveItemToEnd moves the item at from to the end of the list.
func MoveItemToEnd[T any](list []T, from int) []T {
	return MoveItemInList(list, from, len(list)-1)
}

// AddOrMoveItemInList moves item to index when present, inserts it otherwise.
// A negative index means the end of the list.
func AddOrMoveItemInList[T comparable](list []T, item T, index int) []T {
	if from := IndexOf(list, item); from >= 0 {
		if index < 0 {
			return MoveItemToEnd(list, from)
		}
		return MoveItemInList(list, from, index)
	}
	if index < 0 {
		return AddItemToList(list, item)
	}
	return InsertItemInList(list, index, item)
}

// LimitListLength keeps the first n items and returns the dropped tail.
func LimitListLength[T any](list []T, n int) ([]T, []T) {
	if n < 0 {
		n = 0
	}
	if len(list) <= n {
		return list, nil
	}
	kept := make([]T, n)
	copy(kept, list[:n])
	deleted := make([]T, len(list)-n)
	copy(deleted, list[n:])
	return kept, deleted
}

// IndexOf returns the index of item in list, or -1.
func IndexOf[T comparable](list []T, item T) int {
	for i, v := range list {
		if v == item {
			return i
		}
	}
	return -1
}

// MapList applies fn to every item.
func MapList[T, R any](list []T, fn func(T) R) []R {
	out := make([]R, len(list))
	for i, v := range list {
		out[i] = fn(v)
	}
	return out
}

// SameList reports whether a and b share the same backing array and length.
func SameList[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}
