// Package history implements a bounded undo stack.
package history

// Stack is a fixed-capacity LIFO. Pushing onto a full stack evicts the oldest
// element. The zero value is not usable; call New.
type Stack[T any] struct {
	items []T
	start int // index of the oldest element
	n     int
}

// New creates a Stack holding at most capacity elements. Capacities below 1
// are raised to 1.
func New[T any](capacity int) *Stack[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Stack[T]{items: make([]T, capacity)}
}

// Push adds v as the newest element and reports whether the oldest element
// was evicted to make room.
func (s *Stack[T]) Push(v T) bool {
	if s.n == len(s.items) {
		s.items[s.start] = v
		s.start = (s.start + 1) % len(s.items)
		return true
	}
	s.items[(s.start+s.n)%len(s.items)] = v
	s.n++
	return false
}

// Pop removes and returns the newest element.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if s.n == 0 {
		return zero, false
	}
	i := s.top()
	v := s.items[i]
	s.items[i] = zero
	s.n--
	return v, true
}

// Peek returns the newest element without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if s.n == 0 {
		var zero T
		return zero, false
	}
	return s.items[s.top()], true
}

// Len returns the number of stored elements.
func (s *Stack[T]) Len() int { return s.n }

// Cap returns the maximum number of stored elements.
func (s *Stack[T]) Cap() int { return len(s.items) }

// Clear drops all elements.
func (s *Stack[T]) Clear() {
	clear(s.items)
	s.start, s.n = 0, 0
}

func (s *Stack[T]) top() int {
	return (s.start + s.n - 1) % len(s.items)
}
