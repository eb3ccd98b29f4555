//go:build yieldgen

package sample

import "github.com/tmr232/yieldgen"

// Countdown yields n down to 1.
func Countdown(n int) yieldgen.Generator[int] {
	for n > 0 {
		yieldgen.Yield(n)
		n--
	}
	return nil
}
