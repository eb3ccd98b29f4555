// Package scheduler runs cooperative microthreads written as generators.
//
// A microthread is a generator of signals. Every element it produces hands
// control back to the scheduler, which picks the thread to resume next from
// the signal: keep going, drop the current thread, stop everything, or
// switch to a named thread.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/tmr232/yieldgen"
)

var (
	ErrNoIdentifier = errors.New("microthread without identifier")
	ErrPriority     = errors.New("priority out of range")
	ErrDuplicate    = errors.New("duplicate microthread identifier")
	ErrNilThread    = errors.New("nil microthread")
)

type signalKind int

const (
	continueSignal signalKind = iota
	removeSignal
	quitSignal
	switchSignal
)

// Signal tells the scheduler what to do after a microthread step.
type Signal struct {
	kind   signalKind
	target string
}

var (
	// Continue lets the scheduler pick the next thread by priority.
	Continue = Signal{kind: continueSignal}
	// Remove drops the signalling thread.
	Remove = Signal{kind: removeSignal}
	// Quit stops the scheduler.
	Quit = Signal{kind: quitSignal}
)

// ContinueWith resumes the thread named id, or falls back to Continue when
// no such thread is running.
func ContinueWith(id string) Signal {
	return Signal{kind: switchSignal, target: id}
}

// Target returns the thread a ContinueWith signal names.
func (s Signal) Target() (string, bool) {
	return s.target, s.kind == switchSignal
}

func (s Signal) String() string {
	switch s.kind {
	case continueSignal:
		return "continue"
	case removeSignal:
		return "remove"
	case quitSignal:
		return "quit"
	}
	return "continue with " + s.target
}

// Microthread is anything that can start a signal generator.
type Microthread interface {
	Execute() yieldgen.Generator[Signal]
}

// MicrothreadFunc adapts a generator function to Microthread.
type MicrothreadFunc func() yieldgen.Generator[Signal]

func (f MicrothreadFunc) Execute() yieldgen.Generator[Signal] {
	return f()
}

// Thread is a microthread ready to be scheduled.
type Thread struct {
	id       string
	priority int
	signals  yieldgen.Generator[Signal]
	// current grows every time the thread is passed over and drops back to
	// priority when it runs.
	current int
	order   int
}

func (t *Thread) ID() string    { return t.id }
func (t *Thread) Priority() int { return t.priority }

// Builder configures a Thread.
type Builder struct {
	microthread Microthread
	id          string
	priority    int
}

func Of(m Microthread) *Builder {
	return &Builder{microthread: m}
}

func (b *Builder) WithIdentifier(id string) *Builder {
	b.id = id
	return b
}

// WithPriority sets the base priority. Higher values run first.
func (b *Builder) WithPriority(priority int) *Builder {
	b.priority = priority
	return b
}

// Build starts the microthread. The identifier is required, and the priority
// must leave room for aging.
func (b *Builder) Build() (*Thread, error) {
	if b.id == "" {
		return nil, ErrNoIdentifier
	}
	if b.priority == math.MaxInt {
		return nil, fmt.Errorf("%w: %s: must be less than %d", ErrPriority, b.id, math.MaxInt)
	}
	return &Thread{
		id:       b.id,
		priority: b.priority,
		current:  b.priority,
		signals:  b.microthread.Execute(),
	}, nil
}

// Scheduler interleaves threads. It is not safe for concurrent use.
type Scheduler struct {
	threads map[string]*Thread
	added   int
}

func New() *Scheduler {
	return &Scheduler{threads: map[string]*Thread{}}
}

func (s *Scheduler) Add(t *Thread) error {
	if t == nil {
		return ErrNilThread
	}
	if _, ok := s.threads[t.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, t.id)
	}
	t.order = s.added
	s.added++
	s.threads[t.id] = t
	return nil
}

// Len is the number of threads still scheduled.
func (s *Scheduler) Len() int {
	return len(s.threads)
}

// Run steps threads until all of them are exhausted, one of them sends Quit,
// or ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	signal := Continue
	var previous *Thread
	for len(s.threads) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		thread := s.next(previous, signal)
		if thread == nil {
			return nil
		}
		if !thread.signals.HasNext() {
			Logger().Debug("microthread finished", zap.String("thread", thread.id))
			delete(s.threads, thread.id)
			signal, previous = Continue, nil
			continue
		}
		signal, previous = thread.signals.Next(), thread
		Logger().Debug("microthread stepped",
			zap.String("thread", thread.id),
			zap.Stringer("signal", signal))
	}
	return nil
}

func (s *Scheduler) next(previous *Thread, signal Signal) *Thread {
	switch signal.kind {
	case quitSignal:
		return nil
	case removeSignal:
		delete(s.threads, previous.id)
	case switchSignal:
		if t, ok := s.threads[signal.target]; ok {
			return t
		}
	}
	return s.selectByPriority()
}

// selectByPriority picks the thread with the highest current priority, the
// earliest added on ties, and ages every thread that was passed over.
func (s *Scheduler) selectByPriority() *Thread {
	var selected *Thread
	for _, t := range s.threads {
		if selected == nil || t.current > selected.current ||
			(t.current == selected.current && t.order < selected.order) {
			selected = t
		}
	}
	for _, t := range s.threads {
		if t != selected && t.current < math.MaxInt {
			t.current++
		}
	}
	if selected != nil {
		selected.current = selected.priority
	}
	return selected
}
