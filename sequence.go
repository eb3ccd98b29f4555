package yieldgen

import "iter"

// Generator is a single pass sequence of T.
// Next may only be called after HasNext has returned true.
type Generator[T any] interface {
	HasNext() bool
	Next() T
}

// Sequence drives a lowered state machine. It always holds the next element,
// so HasNext never runs any generator code.
type Sequence[T any] struct {
	value   T
	pending Thunk[T]
}

func stop[T any](State[T]) Bounce[T] {
	return Done[T]()
}

// Start primes a Sequence whose first state is entry.
func Start[T any](entry State[T]) *Sequence[T] {
	s := &Sequence[T]{}
	s.advance(func() Bounce[T] { return entry(stop[T]) })
	return s
}

func (s *Sequence[T]) advance(from Thunk[T]) {
	b := Trampoline(from)
	s.pending = b.next
	if b.next == nil {
		var zero T
		s.value = zero
		return
	}
	s.value = b.value
}

func (s *Sequence[T]) HasNext() bool {
	return s.pending != nil
}

// Next returns the cached element and computes the one after it.
// Once the sequence is exhausted it returns the zero value.
func (s *Sequence[T]) Next() T {
	if s.pending == nil {
		var zero T
		return zero
	}
	value := s.value
	s.advance(s.pending)
	return value
}

// GeneratorFunction wraps a plain advance function as a Generator.
// Advance reports false once there are no more values.
type GeneratorFunction[T any] struct {
	Advance func() (hasValue bool, value T)
	primed  bool
	has     bool
	value   T
}

func (g *GeneratorFunction[T]) prime() {
	if !g.primed {
		g.has, g.value = g.Advance()
		g.primed = true
	}
}

func (g *GeneratorFunction[T]) HasNext() bool {
	g.prime()
	return g.has
}

func (g *GeneratorFunction[T]) Next() T {
	g.prime()
	value := g.value
	if g.has {
		g.primed = false
	}
	return value
}

// Seq adapts gen for use in a range statement.
func Seq[T any](gen Generator[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for gen.HasNext() {
			if !yield(gen.Next()) {
				return
			}
		}
	}
}

// Take returns a generator over the first n elements of gen.
// It never asks gen for more than n elements.
func Take[T any](gen Generator[T], n int) Generator[T] {
	taken := 0
	return &GeneratorFunction[T]{Advance: func() (bool, T) {
		if taken >= n || !gen.HasNext() {
			var zero T
			return false, zero
		}
		taken++
		return true, gen.Next()
	}}
}

func ToSlice[T any](gen Generator[T]) (slice []T) {
	for gen.HasNext() {
		slice = append(slice, gen.Next())
	}
	return
}
