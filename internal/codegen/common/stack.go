package common

// Stack is the virtual evaluation stack shared by the discovery and emission
// passes.
type Stack[T any] struct {
	items []T
}

func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// Pop2 returns the two topmost values in push order, so for "a b" it returns
// a, b. Nothing is popped if fewer than two values are available.
func (s *Stack[T]) Pop2() (T, T, bool) {
	var zero T
	if len(s.items) < 2 {
		return zero, zero, false
	}
	second, _ := s.Pop()
	first, _ := s.Pop()
	return first, second, true
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

// Items returns the stack contents from bottom to top.
func (s *Stack[T]) Items() []T {
	result := make([]T, len(s.items))
	copy(result, s.items)
	return result
}
