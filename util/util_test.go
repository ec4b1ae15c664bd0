package util_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/lightsheet-lab/zsweep/util"
)

func ExampleArange() {
	fmt.Println(util.Arange(0, 1, 0.25))
	// Output: [0 0.25 0.5 0.75]
}

func ExampleArange_descending() {
	fmt.Println(util.Arange(1, 0, -0.5))
	// Output: [1 0.5]
}

func TestArangeForward(t *testing.T) {
	var (
		start = 10.
		stop  = 20.
		step  = 1.
	)
	out := util.Arange(start, stop, step)
	if len(out) != 10 {
		t.Fatalf("expected 10 elements, got %d", len(out))
	}
	for i := 0; i < len(out); i++ {
		expected := start + float64(i)*step
		if out[i] != expected {
			t.Errorf("expected %f at position %d, got %f", expected, i, out[i])
		}
	}
}

func TestArangeZeroStep(t *testing.T) {
	out := util.Arange(0, 10, 0)
	if out != nil {
		t.Errorf("expected nil for zero step, got %v", out)
	}
}

func TestClampHigh(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = 20.
	)
	clamped := util.Clamp(input, low, high)
	if clamped != high {
		t.Errorf("expected out of range value %f to be clipped to %f < x < %f, got %f", input, low, high, clamped)
	}
}

func TestClampLow(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = -1.
	)
	clamped := util.Clamp(input, low, high)
	if clamped != low {
		t.Errorf("expected out of range value %f to be clipped to %f < x < %f, got %f", input, low, high, clamped)
	}
}

func TestLimiterCheck(t *testing.T) {
	l := util.Limiter{Min: -5, Max: 5}
	if !l.Check(0) {
		t.Error("expected in-range value to pass")
	}
	if l.Check(-5.1) || l.Check(5.1) {
		t.Error("expected out of range values to fail")
	}
}

func TestIntSliceToCSV(t *testing.T) {
	inp := []int{1, 2, 3}
	expected := "1,2,3"
	out := util.IntSliceToCSV(inp)
	if expected != out {
		t.Errorf("expected %s got %s", expected, out)
	}
}

func TestFloatSliceToCSV(t *testing.T) {
	inp := []float64{-2.5, 0, 2.5}
	expected := "-2.5,0,2.5"
	out := util.FloatSliceToCSV(inp, 'G', -1)
	if expected != out {
		t.Errorf("expected %s got %s", expected, out)
	}
}

func TestSecsToDuration(t *testing.T) {
	var dur time.Duration = 123456789
	secs := dur.Seconds()
	out := util.SecsToDuration(secs)
	if out != dur {
		t.Errorf("expected SecsToDuration to round trip, output %v != expected %v", out, dur)
	}
}
