package sweep_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lightsheet-lab/zsweep/sweep"
)

func TestPlanAlternatesDirection(t *testing.T) {
	got := sweep.Plan(3, []int{0, 1, 2})
	want := []sweep.Event{
		{T: 0, Z: 0}, {T: 0, Z: 1}, {T: 0, Z: 2},
		{T: 1, Z: 2}, {T: 1, Z: 1}, {T: 1, Z: 0},
		{T: 2, Z: 0}, {T: 2, Z: 1}, {T: 2, Z: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanLength(t *testing.T) {
	for _, tc := range []struct {
		nt, nz int
	}{
		{1, 1},
		{3, 21},
		{10, 41},
		{5, 0},
	} {
		got := sweep.Plan(tc.nt, sweep.ZIndices(tc.nz))
		if len(got) != tc.nt*tc.nz {
			t.Errorf("%d time points x %d slices: expected %d events, got %d",
				tc.nt, tc.nz, tc.nt*tc.nz, len(got))
		}
	}
}

func TestPlanEvenTimePointsRestoreOrder(t *testing.T) {
	// after an even number of reversals the z order is back where it
	// started, so time point 2 must replay time point 0
	events := sweep.Plan(4, []int{0, 1, 2, 3})
	nz := 4
	for i := 0; i < nz; i++ {
		if events[i].Z != events[2*nz+i].Z {
			t.Errorf("slice %d: time point 0 z=%d, time point 2 z=%d",
				i, events[i].Z, events[2*nz+i].Z)
		}
	}
}

func TestPlanDoesNotMutateInput(t *testing.T) {
	zIdx := []int{0, 1, 2}
	sweep.Plan(2, zIdx)
	want := []int{0, 1, 2}
	if diff := cmp.Diff(want, zIdx); diff != "" {
		t.Errorf("input z order mutated (-want +got):\n%s", diff)
	}
}

func TestPlanNeverJumpsMoreThanOneSlice(t *testing.T) {
	events := sweep.Plan(5, sweep.ZIndices(21))
	for i := 1; i < len(events); i++ {
		dz := events[i].Z - events[i-1].Z
		if dz < 0 {
			dz = -dz
		}
		// consecutive frames within a time point step one slice; across
		// a boundary the z index repeats
		if dz > 1 {
			t.Fatalf("jump of %d slices between events %d and %d", dz, i-1, i)
		}
	}
}
