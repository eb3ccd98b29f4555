package yieldgen

import "fmt"

// Yield marks a suspension point inside a generator body:
//
//	return yieldgen.Yield(v)
//
// or, as a plain statement, yieldgen.Yield(v). Either form produces v and
// resumes right after the marker once the consumer asks for another value.
// Bodies using Yield live behind the yieldgen build tag and are rewritten by
// cmd/yieldgen; reaching Yield at run time means the rewrite never happened.
func Yield[T any](value T) Generator[T] {
	panic(fmt.Sprintf("yieldgen: Yield(%v) called outside a generated file, run go generate", value))
}
