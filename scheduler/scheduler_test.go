package scheduler_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/tmr232/yieldgen"
	"github.com/tmr232/yieldgen/scheduler"
)

// script is a microthread that records its name in log before sending each
// of signals.
func script(log *[]string, name string, signals ...scheduler.Signal) scheduler.Microthread {
	return scheduler.MicrothreadFunc(func() yieldgen.Generator[scheduler.Signal] {
		i := 0
		return &yieldgen.GeneratorFunction[scheduler.Signal]{Advance: func() (bool, scheduler.Signal) {
			if i == len(signals) {
				return false, scheduler.Continue
			}
			*log = append(*log, name)
			i++
			return true, signals[i-1]
		}}
	})
}

func repeat(signal scheduler.Signal, n int) []scheduler.Signal {
	signals := make([]scheduler.Signal, n)
	for i := range signals {
		signals[i] = signal
	}
	return signals
}

type thread struct {
	name     string
	priority int
	signals  []scheduler.Signal
}

func TestRun(t *testing.T) {
	continueWith := scheduler.ContinueWith
	tests := []struct {
		name    string
		threads []thread
		want    []string
		left    int
	}{
		{
			name: "ping pong",
			threads: []thread{
				{"even", 0, repeat(continueWith("odd"), 3)},
				{"odd", 0, repeat(continueWith("even"), 3)},
			},
			want: []string{"even", "odd", "even", "odd", "even", "odd"},
		},
		{
			name: "priority with aging",
			threads: []thread{
				{"a", 1, repeat(scheduler.Continue, 4)},
				{"b", 0, repeat(scheduler.Continue, 4)},
			},
			want: []string{"a", "a", "b", "a", "a", "b", "b", "b"},
		},
		{
			name: "ties go to the first added",
			threads: []thread{
				{"x", 0, repeat(scheduler.Continue, 2)},
				{"y", 0, repeat(scheduler.Continue, 2)},
			},
			want: []string{"x", "y", "x", "y"},
		},
		{
			name: "remove",
			threads: []thread{
				{"t1", 0, []scheduler.Signal{scheduler.Remove, scheduler.Continue}},
				{"t2", 0, repeat(scheduler.Continue, 2)},
			},
			want: []string{"t1", "t2", "t2"},
		},
		{
			name: "quit",
			threads: []thread{
				{"t1", 0, []scheduler.Signal{scheduler.Continue, scheduler.Quit, scheduler.Continue}},
				{"t2", 0, repeat(scheduler.Continue, 3)},
			},
			want: []string{"t1", "t2", "t1"},
			left: 2,
		},
		{
			name: "unknown target",
			threads: []thread{
				{"t1", 0, repeat(continueWith("nobody"), 2)},
				{"t2", 0, repeat(continueWith("nobody"), 1)},
			},
			want: []string{"t1", "t2", "t1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			s := scheduler.New()
			for _, th := range tt.threads {
				thread, err := scheduler.Of(script(&log, th.name, th.signals...)).
					WithIdentifier(th.name).
					WithPriority(th.priority).
					Build()
				if err != nil {
					t.Fatal(err)
				}
				if err := s.Add(thread); err != nil {
					t.Fatal(err)
				}
			}
			if err := s.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(log, tt.want) {
				t.Errorf("Run() ran %v, want %v", log, tt.want)
			}
			if s.Len() != tt.left {
				t.Errorf("Len() = %d, want %d", s.Len(), tt.left)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	var log []string
	s := scheduler.New()
	thread, err := scheduler.Of(script(&log, "t", repeat(scheduler.Continue, 3)...)).WithIdentifier("t").Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(thread); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
	if len(log) != 0 {
		t.Errorf("Run() ran %v after cancellation", log)
	}
}

func TestBuild(t *testing.T) {
	var log []string
	m := script(&log, "t")
	tests := []struct {
		name    string
		builder *scheduler.Builder
		wantErr error
	}{
		{"no identifier", scheduler.Of(m), scheduler.ErrNoIdentifier},
		{"priority too high", scheduler.Of(m).WithIdentifier("t").WithPriority(math.MaxInt), scheduler.ErrPriority},
		{"valid", scheduler.Of(m).WithIdentifier("t").WithPriority(-3), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thread, err := tt.builder.Build()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (thread.ID() != "t" || thread.Priority() != -3) {
				t.Errorf("Build() = %s/%d, want t/-3", thread.ID(), thread.Priority())
			}
		})
	}
}

func TestAddDuplicate(t *testing.T) {
	var log []string
	s := scheduler.New()
	for i := 0; i < 2; i++ {
		thread, err := scheduler.Of(script(&log, "t")).WithIdentifier("t").Build()
		if err != nil {
			t.Fatal(err)
		}
		err = s.Add(thread)
		if i == 1 && !errors.Is(err, scheduler.ErrDuplicate) {
			t.Errorf("Add() error = %v, want %v", err, scheduler.ErrDuplicate)
		}
	}
}

func TestAddNil(t *testing.T) {
	s := scheduler.New()
	if err := s.Add(nil); !errors.Is(err, scheduler.ErrNilThread) {
		t.Errorf("Add() error = %v, want %v", err, scheduler.ErrNilThread)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSignal(t *testing.T) {
	if id, ok := scheduler.ContinueWith("odd").Target(); !ok || id != "odd" {
		t.Errorf("Target() = %s, %v, want odd, true", id, ok)
	}
	if _, ok := scheduler.Remove.Target(); ok {
		t.Error("Remove has a target")
	}
	if got := scheduler.ContinueWith("odd").String(); got != "continue with odd" {
		t.Errorf("String() = %s", got)
	}
}
