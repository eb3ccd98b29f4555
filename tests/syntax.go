//go:build yieldgen

package tests

import "github.com/tmr232/yieldgen"

func simple(out chan int) {
	out <- 1
}

func UsesGoRoutine() yieldgen.Generator[int] {
	c := make(chan int)
	go simple(c)
	yieldgen.Yield(<-c)
	close(c)
	return nil
}

// Shadowed yields x from the outer scope, then from an inner one, then from
// the outer one again.
func Shadowed() yieldgen.Generator[int] {
	x := 1
	yieldgen.Yield(x)
	{
		x := 2
		yieldgen.Yield(x)
	}
	yieldgen.Yield(x)
	return nil
}

// Grades yields every grade score earns, best first.
func Grades(score int) yieldgen.Generator[string] {
	switch {
	case score >= 90:
		yieldgen.Yield("A")
		fallthrough
	case score >= 80:
		yieldgen.Yield("B")
		fallthrough
	default:
		yieldgen.Yield("C")
	}
	return nil
}
