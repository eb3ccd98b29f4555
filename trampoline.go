package yieldgen

// Thunk is a deferred step of a generator.
type Thunk[T any] func() Bounce[T]

// State is the type of every lowered state. k is the state to resume once the
// generator itself completes.
type State[T any] func(k State[T]) Bounce[T]

// Bounce is the result of a single step. A Bounce without a continuation marks
// the end of the sequence, whether or not it carries a value.
type Bounce[T any] struct {
	next  Thunk[T]
	value T
	ok    bool
}

// Continue defers to next without producing anything.
func Continue[T any](next Thunk[T]) Bounce[T] {
	return Bounce[T]{next: next}
}

// Produce hands value to the consumer and resumes with next once asked to.
func Produce[T any](next Thunk[T], value T) Bounce[T] {
	return Bounce[T]{next: next, value: value, ok: true}
}

// Done ends the sequence.
func Done[T any]() Bounce[T] {
	return Bounce[T]{}
}

func (b Bounce[T]) Next() Thunk[T] {
	return b.next
}

func (b Bounce[T]) Value() (T, bool) {
	return b.value, b.ok
}

func (b Bounce[T]) Done() bool {
	return b.next == nil
}

// Goto transfers to s without producing a value.
func Goto[T any](k State[T], s State[T]) Bounce[T] {
	return Continue(func() Bounce[T] { return s(k) })
}

// Emit produces value and transfers to s on resumption.
func Emit[T any](k State[T], s State[T], value T) Bounce[T] {
	return Produce(func() Bounce[T] { return s(k) }, value)
}

// Finish resumes k. It is the only transfer of an end state.
func Finish[T any](k State[T]) Bounce[T] {
	return Continue(func() Bounce[T] { return k(nil) })
}

// Trampoline runs thunks starting at start until one of them produces a value
// or the sequence ends. States never call each other directly, so the stack
// stays flat no matter how many transfers happen in between.
func Trampoline[T any](start Thunk[T]) Bounce[T] {
	b := start()
	for b.next != nil && !b.ok {
		b = b.next()
	}
	return b
}
