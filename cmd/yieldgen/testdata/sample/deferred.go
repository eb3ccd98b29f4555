//go:build yieldgen

package sample

import (
	"fmt"

	"github.com/tmr232/yieldgen"
)

func Deferred() yieldgen.Generator[string] {
	defer fmt.Println("done")
	return yieldgen.Yield("once")
}
