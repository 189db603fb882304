// Package descriptor provides a dense, bitmap-backed table mapping small
// integer descriptors to arbitrary values. It backs both the virtual file
// table and the proxy fd-tracking table: both need cheap lookups on every
// I/O call, and allocate far less often than they read.
package descriptor

import "math/bits"

// Table maps 32 bit descriptors to values, trading extra work at insertion
// time for dense storage and O(1) lookups. A guest holding thousands of open
// virtual files or proxied sockets should not pay for a sparse map.
type Table[Descriptor ~int32 | ~uint32, Value any] struct {
	masks []uint64
	slots []Value
}

// Len returns the number of values currently stored in the table.
func (t *Table[Descriptor, Value]) Len() (n int) {
	for _, mask := range t.masks {
		n += bits.OnesCount64(mask)
	}
	return n
}

// Grow ensures the table has room for at least n descriptors.
func (t *Table[Descriptor, Value]) Grow(n int) {
	// n*64 is already a multiple of 64, so this leaves n unchanged: the table
	// grows to n mask words, room for n*64 descriptors.
	n = (n*64 + 63) / 64
	if n > len(t.masks) {
		masks := make([]uint64, n)
		copy(masks, t.masks)
		slots := make([]Value, n*64)
		copy(slots, t.slots)
		t.masks = masks
		t.slots = slots
	}
}

// Insert allocates the lowest free descriptor and stores value there.
//
// No deduplication is performed: inserting the same value twice yields two
// distinct descriptors pointing at independent copies.
func (t *Table[Descriptor, Value]) Insert(value Value) (desc Descriptor) {
	offset := 0
	for {
		for index, mask := range t.masks[offset:] {
			if ^mask != 0 { // not full
				shift := bits.TrailingZeros64(^mask)
				index += offset
				desc = Descriptor(index)*64 + Descriptor(shift)
				t.slots[desc] = value
				t.masks[index] = mask | uint64(1<<shift)
				return desc
			}
		}
		offset = len(t.masks)
		n := 2 * len(t.masks)
		if n == 0 {
			n = 1
		}
		t.Grow(n)
	}
}

// Assign stores value at a specific descriptor, growing the table if
// necessary. If a value was already present at desc it is returned with
// replaced set to true — this is what gives fd reuse ("connect on an
// already-tracked fd replaces its handle") its semantics for free.
func (t *Table[Descriptor, Value]) Assign(desc Descriptor, value Value) (prev Value, replaced bool) {
	if int(desc) >= len(t.slots) {
		t.Grow(int(desc) + 1)
	}
	index, shift := uint(desc)/64, uint(desc)%64
	if (t.masks[index] & (1 << shift)) != 0 {
		prev, replaced = t.slots[desc], true
	}
	t.masks[index] |= 1 << shift
	t.slots[desc] = value
	return
}

// Access returns a pointer to the value at desc, or nil if desc is unset.
func (t *Table[Descriptor, Value]) Access(desc Descriptor) *Value {
	if i := int(desc); i >= 0 && i < len(t.slots) {
		index, shift := uint(desc)/64, uint(desc)%64
		if (t.masks[index] & (1 << shift)) != 0 {
			return &t.slots[i]
		}
	}
	return nil
}

// Lookup returns the value stored at desc, if any.
func (t *Table[Descriptor, Value]) Lookup(desc Descriptor) (value Value, found bool) {
	if ptr := t.Access(desc); ptr != nil {
		value, found = *ptr, true
	}
	return
}

// Delete removes desc from the table. Deleting an absent or already-deleted
// descriptor is a no-op, which is what makes double-close idempotent at the
// caller.
func (t *Table[Descriptor, Value]) Delete(desc Descriptor) {
	index, shift := uint(desc)/64, uint(desc)%64
	if int(index) >= len(t.masks) {
		return
	}
	if mask := t.masks[index]; (mask & (1 << shift)) != 0 {
		var zero Value
		t.slots[desc] = zero
		t.masks[index] = mask &^ (1 << shift)
	}
}

// Range calls f for every (descriptor, value) pair in the table, stopping
// early if f returns false.
func (t *Table[Descriptor, Value]) Range(f func(Descriptor, Value) bool) {
	for i, mask := range t.masks {
		if mask == 0 {
			continue
		}
		for j := Descriptor(0); j < 64; j++ {
			if (mask & (1 << j)) == 0 {
				continue
			}
			if desc := Descriptor(i)*64 + j; !f(desc, t.slots[desc]) {
				return
			}
		}
	}
}
