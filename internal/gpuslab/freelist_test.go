package gpuslab

import "testing"

func TestFreelistTakeShrinksRun(t *testing.T) {
	// Arrange
	f := newFreelist(100, false)

	// Act
	start, ok := f.take(10)

	// Assert
	if !ok || start != 0 {
		t.Fatalf("expected first allocation at offset 0, got start=%d ok=%v", start, ok)
	}
	if f.overlapsSelf() {
		t.Error("free runs must not overlap after a take")
	}
}

func TestFreelistReleaseCoalescesAdjacentRuns(t *testing.T) {
	// Arrange
	f := newFreelist(100, false)
	a, _ := f.take(10)
	b, _ := f.take(10)

	// Act: release both adjacent allocations back.
	f.release(a, 10)
	f.release(b, 10)

	// Assert: the free list should have re-merged into (at most) its
	// original shape, i.e. a single run covering the full capacity.
	total := 0
	for _, r := range f.runs {
		total += r.len
	}
	if total != 100 {
		t.Fatalf("expected 100 free elements after releasing everything, got %d", total)
	}
	if len(f.runs) != 1 {
		t.Errorf("expected adjacent free runs to coalesce into one, got %d runs: %+v", len(f.runs), f.runs)
	}
}

func TestFreelistReserveZeroSlot(t *testing.T) {
	// Arrange
	f := newFreelist(8, true)

	// Act
	start, ok := f.take(7)

	// Assert
	if !ok || start != 1 {
		t.Fatalf("expected allocation to start at 1 with slot 0 reserved, got start=%d ok=%v", start, ok)
	}
}

func TestFreelistTakeFailsWhenExhausted(t *testing.T) {
	// Arrange
	f := newFreelist(4, false)
	f.take(4)

	// Act
	_, ok := f.take(1)

	// Assert
	if ok {
		t.Error("expected take to fail once capacity is exhausted")
	}
}

func TestFreelistGrowAddsTailRun(t *testing.T) {
	// Arrange
	f := newFreelist(4, false)
	f.take(4)

	// Act
	target := f.growTarget(1)
	f.grow(target)
	start, ok := f.take(target - 4)

	// Assert
	if !ok || start != 4 {
		t.Fatalf("expected growth to append a free run starting at the old capacity, got start=%d ok=%v", start, ok)
	}
	if target < 8 {
		t.Errorf("expected exponential doubling to at least reach 8, got %d", target)
	}
}

func TestFreelistNoOverlapUnderChurn(t *testing.T) {
	// Arrange
	f := newFreelist(64, false)
	var live [][2]int

	// Act: allocate and free in a pattern that exercises both paths.
	for i := 0; i < 20; i++ {
		n := 1 + i%5
		start, ok := f.take(n)
		if !ok {
			target := f.growTarget(n)
			f.grow(target)
			start, ok = f.take(n)
			if !ok {
				t.Fatalf("take still failed after growth at iteration %d", i)
			}
		}
		live = append(live, [2]int{start, n})
		if i%3 == 0 && len(live) > 0 {
			r := live[0]
			f.release(r[0], r[1])
			live = live[1:]
		}
	}

	// Assert
	if f.overlapsSelf() {
		t.Error("free runs overlap after a churn of take/release")
	}
}
