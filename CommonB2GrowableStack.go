package box2d

// b2GrowableStack is a LIFO stack used by tree traversals. The backing
// slice is kept between uses so steady-state queries do not allocate.
type b2GrowableStack[T any] struct {
	items []T
}

func (s *b2GrowableStack[T]) GetCount() int {
	return len(s.items)
}

func (s *b2GrowableStack[T]) Push(value T) {
	s.items = append(s.items, value)
}

// Pop removes the top element. The stack must not be empty.
func (s *b2GrowableStack[T]) Pop() T {
	n := len(s.items) - 1
	value := s.items[n]
	s.items = s.items[:n]
	return value
}

func (s *b2GrowableStack[T]) Reset() {
	s.items = s.items[:0]
}
