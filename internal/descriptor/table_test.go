package descriptor

import "testing"

func TestInsertAllocatesLowestFree(t *testing.T) {
	var table Table[int32, string]

	a := table.Insert("a")
	b := table.Insert("b")
	if a != 0 || b != 1 {
		t.Fatalf("want 0, 1; got %d, %d", a, b)
	}

	table.Delete(a)
	c := table.Insert("c")
	if c != a {
		t.Fatalf("want Insert to reuse freed descriptor %d, got %d", a, c)
	}
}

func TestInsertGrowsPastInitialCapacity(t *testing.T) {
	var table Table[int32, int]

	const n = 200
	descs := make([]int32, n)
	for i := 0; i < n; i++ {
		descs[i] = table.Insert(i)
	}
	for i, d := range descs {
		v, ok := table.Lookup(d)
		if !ok || v != i {
			t.Fatalf("Lookup(%d) = %v, %v; want %d, true", d, v, ok, i)
		}
	}
	if got := table.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}
}

func TestAssignReplacesAndReportsPrevious(t *testing.T) {
	var table Table[int32, string]

	if _, replaced := table.Assign(5, "first"); replaced {
		t.Fatal("first Assign at a fresh descriptor should not report replaced")
	}
	prev, replaced := table.Assign(5, "second")
	if !replaced || prev != "first" {
		t.Fatalf("Assign over existing entry = %q, %v; want \"first\", true", prev, replaced)
	}
	v, ok := table.Lookup(5)
	if !ok || v != "second" {
		t.Fatalf("Lookup(5) = %q, %v; want \"second\", true", v, ok)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	var table Table[int32, int]
	desc := table.Insert(1)
	table.Delete(desc)
	table.Delete(desc) // must not panic or corrupt state
	if table.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", table.Len())
	}
	if _, ok := table.Lookup(desc); ok {
		t.Fatal("Lookup should report not found after Delete")
	}
}

func TestDeleteOnEmptyTableIsNoop(t *testing.T) {
	var table Table[int32, int]
	table.Delete(42) // must not panic on an out-of-range, never-grown descriptor
}

func TestLookupOutOfRange(t *testing.T) {
	var table Table[int32, int]
	table.Insert(1)
	if _, ok := table.Lookup(-1); ok {
		t.Fatal("Lookup(-1) should report not found")
	}
	if _, ok := table.Lookup(1000); ok {
		t.Fatal("Lookup(1000) should report not found")
	}
}

func TestRangeVisitsEveryEntryAndCanStopEarly(t *testing.T) {
	var table Table[int32, int]
	wantSum := 0
	for i := 0; i < 10; i++ {
		table.Insert(i)
		wantSum += i
	}

	gotSum := 0
	table.Range(func(_ int32, v int) bool {
		gotSum += v
		return true
	})
	if gotSum != wantSum {
		t.Fatalf("Range sum = %d, want %d", gotSum, wantSum)
	}

	count := 0
	table.Range(func(_ int32, _ int) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Fatalf("Range should have stopped after 3 calls, got %d", count)
	}
}

func TestAssignGrowsTableForFarDescriptor(t *testing.T) {
	var table Table[int32, int]
	table.Assign(500, 7)
	v, ok := table.Lookup(500)
	if !ok || v != 7 {
		t.Fatalf("Lookup(500) = %v, %v; want 7, true", v, ok)
	}
}
