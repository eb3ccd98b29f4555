//go:build yieldgen

package tests

import (
	"github.com/tmr232/yieldgen"
)

//go:generate go run github.com/tmr232/yieldgen/cmd/yieldgen

func Issue4(stop int) yieldgen.Generator[int] {
	for i := 0; i < stop; i++ {
		yieldgen.Yield(i)
	}

	for i := stop; i >= 0; i-- {
		yieldgen.Yield(i)
	}
	return nil
}
