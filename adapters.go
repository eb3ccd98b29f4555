package yieldgen

import "unicode/utf8"

// Iterator2 is what a lowered range loop holds on to between states.
type Iterator2[K, V any] interface {
	HasNext() bool
	Next() (K, V)
}

type SliceAdapter[T any] struct {
	slice []T
	index int
}

// Slice iterates over index, element pairs. Arrays are ranged through a slice
// of the array.
func Slice[T any](slice []T) *SliceAdapter[T] {
	return &SliceAdapter[T]{slice: slice}
}

func (s *SliceAdapter[T]) HasNext() bool {
	return s.index < len(s.slice)
}

func (s *SliceAdapter[T]) Next() (int, T) {
	i := s.index
	s.index++
	return i, s.slice[i]
}

type Pair[First, Second any] struct {
	first  First
	second Second
}

type MapAdapter[K comparable, V any] struct {
	items []Pair[K, V]
	index int
}

// Map iterates over a snapshot of m taken when the loop starts. Entries added
// or removed by the loop body are not observed.
func Map[K comparable, V any](m map[K]V) *MapAdapter[K, V] {
	items := make([]Pair[K, V], 0, len(m))
	for key, value := range m {
		items = append(items, Pair[K, V]{first: key, second: value})
	}
	return &MapAdapter[K, V]{items: items}
}

func (m *MapAdapter[K, V]) HasNext() bool {
	return m.index < len(m.items)
}

func (m *MapAdapter[K, V]) Next() (K, V) {
	item := m.items[m.index]
	m.index++
	return item.first, item.second
}

type StringAdapter struct {
	s      string
	offset int
}

// String iterates over byte offset, rune pairs like ranging over a string.
func String(s string) *StringAdapter {
	return &StringAdapter{s: s}
}

func (s *StringAdapter) HasNext() bool {
	return s.offset < len(s.s)
}

func (s *StringAdapter) Next() (int, rune) {
	offset := s.offset
	r, size := utf8.DecodeRuneInString(s.s[offset:])
	s.offset += size
	return offset, r
}

type ChanAdapter[T any] struct {
	c      <-chan T
	value  T
	ok     bool
	primed bool
}

// Chan receives one element ahead when HasNext is asked, and reports false
// once the channel is closed.
func Chan[T any](c <-chan T) *ChanAdapter[T] {
	return &ChanAdapter[T]{c: c}
}

func (c *ChanAdapter[T]) HasNext() bool {
	if !c.primed {
		c.value, c.ok = <-c.c
		c.primed = true
	}
	return c.ok
}

func (c *ChanAdapter[T]) Next() (T, struct{}) {
	c.HasNext()
	c.primed = false
	return c.value, struct{}{}
}

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type CountAdapter[N Integer] struct {
	n, i N
}

// Count iterates over 0..n-1 like ranging over an integer.
func Count[N Integer](n N) *CountAdapter[N] {
	return &CountAdapter[N]{n: n}
}

func (c *CountAdapter[N]) HasNext() bool {
	return c.i < c.n
}

func (c *CountAdapter[N]) Next() (N, struct{}) {
	i := c.i
	c.i++
	return i, struct{}{}
}

type EachAdapter[T any] struct {
	gen Generator[T]
}

// Each iterates over the elements of another generator. It is what a range
// over Seq(gen) is lowered to, so nesting generators needs no goroutine.
func Each[T any](gen Generator[T]) *EachAdapter[T] {
	return &EachAdapter[T]{gen: gen}
}

func (e *EachAdapter[T]) HasNext() bool {
	return e.gen.HasNext()
}

func (e *EachAdapter[T]) Next() (T, struct{}) {
	return e.gen.Next(), struct{}{}
}
