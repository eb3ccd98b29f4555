package yieldgen

import (
	"reflect"
	"runtime"
	"testing"
)

// counter is written the way cmd/yieldgen lowers
//
//	for i := 0; i < n; i++ {
//		trace = append(trace, i)
//		return yieldgen.Yield(i)
//	}
//	return nil
type counter struct {
	i, n  int
	trace []int
}

func (g *counter) state0(k State[int]) Bounce[int] {
	g.i = 0
	return Goto[int](k, g.state2)
}

func (g *counter) state1(k State[int]) Bounce[int] {
	return Finish[int](k)
}

func (g *counter) state2(k State[int]) Bounce[int] {
	if g.i < g.n {
		return Goto[int](k, g.state3)
	}
	return Goto[int](k, g.state1)
}

func (g *counter) state3(k State[int]) Bounce[int] {
	g.trace = append(g.trace, g.i)
	return Emit[int](k, g.state4, g.i)
}

func (g *counter) state4(k State[int]) Bounce[int] {
	g.i++
	return Goto[int](k, g.state2)
}

func newCounter(n int) (*counter, *Sequence[int]) {
	g := &counter{n: n}
	return g, Start[int](g.state0)
}

func TestSequence(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []int
	}{
		{"empty", 0, nil},
		{"single", 1, []int{0}},
		{"multiple", 4, []int{0, 1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, seq := newCounter(tt.n)
			if got := ToSlice[int](seq); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasNextIdempotent(t *testing.T) {
	g, seq := newCounter(2)
	for i := 0; i < 5; i++ {
		if !seq.HasNext() {
			t.Fatal("HasNext should stay true until Next is called")
		}
	}
	if len(g.trace) != 1 {
		t.Errorf("HasNext ran generator code, trace = %v", g.trace)
	}
	seq.Next()
	seq.Next()
	for i := 0; i < 3; i++ {
		if seq.HasNext() {
			t.Fatal("HasNext should stay false once exhausted")
		}
	}
}

func TestStartPrimes(t *testing.T) {
	g, _ := newCounter(10)
	if want := []int{0}; !reflect.DeepEqual(g.trace, want) {
		t.Errorf("trace after Start = %v, want %v", g.trace, want)
	}
}

func TestNextAfterExhaustion(t *testing.T) {
	_, seq := newCounter(1)
	if got := seq.Next(); got != 0 {
		t.Errorf("Next() = %d, want 0", got)
	}
	if got := seq.Next(); got != 0 {
		t.Errorf("Next() after exhaustion = %d, want zero value", got)
	}
}

func TestTake(t *testing.T) {
	g, seq := newCounter(1 << 30)
	if got, want := ToSlice(Take[int](seq, 3)), []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got = %v, want %v", got, want)
	}
	// One element of lookahead, nothing past it.
	if want := []int{0, 1, 2, 3}; !reflect.DeepEqual(g.trace, want) {
		t.Errorf("trace = %v, want %v", g.trace, want)
	}
}

func TestSeq(t *testing.T) {
	_, seq := newCounter(100)
	var got []int
	for v := range Seq[int](seq) {
		if v == 3 {
			break
		}
		got = append(got, v)
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got = %v, want %v", got, want)
	}
	if !seq.HasNext() || seq.Next() != 4 {
		t.Error("breaking out of a range should leave the sequence where it stopped")
	}
}

// spinner transfers a million times between two yields.
type spinner struct {
	i     int
	depth int
}

func (g *spinner) state0(k State[int]) Bounce[int] {
	if g.i < 1_000_000 {
		g.i++
		return Goto[int](k, g.state0)
	}
	g.depth = stackDepth()
	return Emit[int](k, g.state1, g.i)
}

func (g *spinner) state1(k State[int]) Bounce[int] {
	return Finish[int](k)
}

func stackDepth() int {
	pcs := make([]uintptr, 256)
	return runtime.Callers(0, pcs)
}

func TestTrampolineKeepsStackFlat(t *testing.T) {
	g := &spinner{}
	seq := Start[int](g.state0)
	if got := seq.Next(); got != 1_000_000 {
		t.Errorf("Next() = %d, want %d", got, 1_000_000)
	}
	if g.depth > 32 {
		t.Errorf("stack depth after a million transfers = %d", g.depth)
	}
	if seq.HasNext() {
		t.Error("spinner should be exhausted")
	}
}

func TestBounce(t *testing.T) {
	if !Done[int]().Done() {
		t.Error("Done() should have no continuation")
	}
	b := Produce(func() Bounce[string] { return Done[string]() }, "x")
	if b.Done() {
		t.Error("a produced value with a continuation is not the end")
	}
	if v, ok := b.Value(); !ok || v != "x" {
		t.Errorf("Value() = %q, %v", v, ok)
	}
	end := Bounce[string]{value: "ignored", ok: true}
	if !end.Done() {
		t.Error("a value without a continuation still ends the sequence")
	}
}

func TestGeneratorFunction(t *testing.T) {
	calls := 0
	gen := &GeneratorFunction[int]{Advance: func() (bool, int) {
		calls++
		return calls <= 2, calls
	}}
	gen.HasNext()
	gen.HasNext()
	if calls != 1 {
		t.Errorf("HasNext advanced %d times", calls)
	}
	if got, want := ToSlice[int](gen), []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got = %v, want %v", got, want)
	}
}

func TestYieldPanicsWhenNotLowered(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Yield should panic outside generated code")
		}
	}()
	Yield(1)
}
