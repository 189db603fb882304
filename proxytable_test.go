package warpgrid

import "testing"

func TestProxyTableInsertLookupRemove(t *testing.T) {
	table := NewProxyTable()

	if _, ok := table.Lookup(3); ok {
		t.Fatal("Lookup on an empty table should miss")
	}

	table.Insert(3, 100)
	handle, ok := table.Lookup(3)
	if !ok || handle != 100 {
		t.Fatalf("Lookup(3) = %d, %v; want 100, true", handle, ok)
	}
	if !table.IsProxied(3) {
		t.Fatal("IsProxied(3) should be true")
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}

	table.Remove(3)
	if table.IsProxied(3) {
		t.Fatal("IsProxied(3) should be false after Remove")
	}
	if table.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Remove", table.Len())
	}
}

func TestProxyTableRemoveIsIdempotent(t *testing.T) {
	table := NewProxyTable()
	table.Insert(1, 10)
	table.Remove(1)
	table.Remove(1) // must not panic
	if table.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", table.Len())
	}
}

func TestProxyTableInsertReplacesExistingHandle(t *testing.T) {
	table := NewProxyTable()
	table.Insert(5, 1)
	table.Insert(5, 2)

	handle, ok := table.Lookup(5)
	if !ok || handle != 2 {
		t.Fatalf("Lookup(5) = %d, %v; want 2, true", handle, ok)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (replace, not append)", table.Len())
	}
}
