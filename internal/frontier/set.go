package frontier

import (
	"cmp"
	"slices"
)

type Set[T cmp.Ordered] map[T]struct{}

func NewSet[T cmp.Ordered]() Set[T] {
	return make(Set[T])
}

func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

func (s Set[T]) Contains(item T) bool {
	_, exists := s[item]
	return exists
}

func (s Set[T]) Remove(element T) {
	delete(s, element)
}

func (s Set[T]) Clear() {
	clear(s)
}

func (s Set[T]) Size() int {
	return len(s)
}

// Sorted returns the members in ascending order, for stable persistence.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	slices.Sort(out)
	return out
}
