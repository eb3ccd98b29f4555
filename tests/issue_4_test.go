package tests

import (
	"reflect"
	"testing"

	"github.com/tmr232/yieldgen"
)

func TestIssue4(t *testing.T) {
	type args struct {
		n int
	}
	tests := []struct {
		name string
		args args
		want []int
	}{
		{"0", args{0}, []int{0}},
		{"2", args{2}, []int{0, 1, 2, 1, 0}},
		{"10", args{10}, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yieldgen.ToSlice(Issue4(tt.args.n)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Issue4() = %v, want %v", got, tt.want)
			}
		})
	}
}
