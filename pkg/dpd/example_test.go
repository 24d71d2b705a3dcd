package dpd_test

import (
	"fmt"

	"github.com/matzehuels/railsim/pkg/dpd"
)

func ExampleLine() {
	arrival := dpd.NewLine(60)
	arrival.Add(3600, 0.5)
	arrival.Add(3660, 0.25)
	arrival.Add(3725, 0.25)

	for t, p := range arrival.NonZero() {
		fmt.Println(t, p)
	}
	// Output:
	// 3600 0.5
	// 3660 0.25
	// 3720 0.25
}

func ExampleFoldMax() {
	a := dpd.NewLine(1)
	a.Set(10, 0.5)
	a.Set(20, 0.5)
	b := dpd.Point(1, 15, 1)

	for t, p := range dpd.FoldMax(a, b).NonZero() {
		fmt.Println(t, p)
	}
	// Output:
	// 15 0.5
	// 20 0.5
}
