// Copyright 2024-2025 The Burrow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collections

import (
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
	"github.com/burrow-engine/burrow/memory"
)

// Key is the contract dictionary keys satisfy: value-based hashing and
// equality. Hash must agree with Equals.
type Key[K any] interface {
	Hash() uint64
	Equals(K) bool
}

// Control byte states. A slot is empty until first use, full while
// occupied, and a tombstone after removal so probe chains stay intact.
const (
	ctrlEmpty byte = iota
	ctrlFull
	ctrlTombstone
)

const (
	dictionaryDefaultCapacity = 8
	// Grow when filled slots (live + tombstones) exceed 7/8 of capacity.
	dictionaryLoadNum = 7
	dictionaryLoadDen = 8
)

// Dictionary maps K to V with open addressing over three parallel
// arena-backed arrays: control bytes, keys, values. Capacity is a power of
// two; probing is linear.
//
// The zero Dictionary is empty and ready to use.
type Dictionary[K Key[K], V any] struct {
	ctrl     xunsafe.Addr[byte]
	keys     xunsafe.Addr[K]
	vals     xunsafe.Addr[V]
	count    uint64 // live entries
	filled   uint64 // live entries plus tombstones
	capacity uint64
}

// Count returns the live entry count.
func (d *Dictionary[K, V]) Count() uint64 { return d.count }

// IsEmpty reports whether the dictionary has no entries.
func (d *Dictionary[K, V]) IsEmpty() bool { return d.count == 0 }

// ContainsKey reports whether key is present.
func (d *Dictionary[K, V]) ContainsKey(key K) bool {
	_, found := d.find(key)
	return found
}

// TryAdd inserts (key, value) and returns true, or returns false when the
// key is already present.
func (d *Dictionary[K, V]) TryAdd(key K, value V) bool {
	if _, found := d.find(key); found {
		return false
	}
	d.put(key, value)
	return true
}

// Put inserts (key, value), overwriting any existing entry for key.
func (d *Dictionary[K, V]) Put(key K, value V) {
	if slot, found := d.find(key); found {
		*d.valAt(slot) = value
		return
	}
	d.put(key, value)
}

// TryGet copies the value for key into *out. Returns false and leaves *out
// untouched when the key is absent.
func (d *Dictionary[K, V]) TryGet(key K, out *V) bool {
	debug.Assert(out != nil, "dictionary output pointer must not be nil")
	slot, found := d.find(key)
	if !found {
		return false
	}
	*out = *d.valAt(slot)
	return true
}

// TryGetRef returns a pointer to the stored value for key, valid until the
// next growth or removal. Returns (nil, false) when the key is absent.
func (d *Dictionary[K, V]) TryGetRef(key K) (*V, bool) {
	slot, found := d.find(key)
	if !found {
		return nil, false
	}
	return d.valAt(slot), true
}

// TryRemove deletes the entry for key. Returns false when the key is
// absent.
func (d *Dictionary[K, V]) TryRemove(key K) bool {
	slot, found := d.find(key)
	if !found {
		return false
	}
	*d.ctrlAt(slot) = ctrlTombstone
	d.count--
	return true
}

// Each calls fn for every live entry. The pointers are valid for the
// duration of the call only; fn must not mutate the dictionary.
func (d *Dictionary[K, V]) Each(fn func(key *K, value *V)) {
	for i := uint64(0); i < d.capacity; i++ {
		if *d.ctrlAt(i) == ctrlFull {
			fn(d.keyAt(i), d.valAt(i))
		}
	}
}

// Clear drops all entries, keeping the backing storage.
func (d *Dictionary[K, V]) Clear() {
	if d.capacity > 0 {
		memory.MemoryClear(d.ctrl.AssertValid(), d.capacity)
	}
	d.count = 0
	d.filled = 0
}

// Destroy releases all backing storage.
func (d *Dictionary[K, V]) Destroy() {
	if !d.ctrl.IsNil() {
		memory.Free(d.ctrl.AssertValid())
	}
	if !d.keys.IsNil() {
		memory.Free(xunsafe.Cast[byte](d.keys.AssertValid()))
	}
	if !d.vals.IsNil() {
		memory.Free(xunsafe.Cast[byte](d.vals.AssertValid()))
	}
	*d = Dictionary[K, V]{}
}

func (d *Dictionary[K, V]) ctrlAt(i uint64) *byte { return d.ctrl.Add(int(i)).AssertValid() }
func (d *Dictionary[K, V]) keyAt(i uint64) *K     { return d.keys.Add(int(i)).AssertValid() }

var zeroSizedSlot byte

func (d *Dictionary[K, V]) valAt(i uint64) *V {
	if xunsafe.Size[V]() == 0 {
		// Zero-sized values have no storage; any non-nil pointer will do.
		return xunsafe.Cast[V](&zeroSizedSlot)
	}
	return d.vals.Add(int(i)).AssertValid()
}

// find locates the slot for key. Returns (slot, true) on a hit and
// (insertion slot, false) on a miss; the insertion slot is the first
// tombstone on the probe chain if one exists, else the first empty slot.
func (d *Dictionary[K, V]) find(key K) (uint64, bool) {
	if d.capacity == 0 {
		return 0, false
	}

	mask := d.capacity - 1
	slot := key.Hash() & mask
	insert := uint64(0)
	haveInsert := false

	for {
		switch *d.ctrlAt(slot) {
		case ctrlEmpty:
			if haveInsert {
				return insert, false
			}
			return slot, false
		case ctrlTombstone:
			if !haveInsert {
				insert, haveInsert = slot, true
			}
		case ctrlFull:
			if (*d.keyAt(slot)).Equals(key) {
				return slot, true
			}
		}
		slot = (slot + 1) & mask
	}
}

// put inserts a key known to be absent.
func (d *Dictionary[K, V]) put(key K, value V) {
	if d.capacity == 0 || (d.filled+1)*dictionaryLoadDen > d.capacity*dictionaryLoadNum {
		d.grow()
	}

	slot, _ := d.find(key)
	reused := *d.ctrlAt(slot) == ctrlTombstone
	*d.ctrlAt(slot) = ctrlFull
	*d.keyAt(slot) = key
	*d.valAt(slot) = value
	d.count++
	if !reused {
		d.filled++
	}
}

func (d *Dictionary[K, V]) grow() {
	debug.Assert(xunsafe.PointerFree[K](), "dictionary key type contains Go pointers")
	debug.Assert(xunsafe.PointerFree[V](), "dictionary value type contains Go pointers")

	oldCtrl, oldKeys, oldVals := d.ctrl, d.keys, d.vals
	oldCap := d.capacity

	next := oldCap * resizingFactor
	if next == 0 {
		next = dictionaryDefaultCapacity
	}

	ch := memory.Allocate(next)
	debug.Assert(ch.IsValid(), "dictionary growth failed: arena exhausted")
	memory.MemoryClear(ch.Pointer, ch.Size)

	kh := memory.Allocate(next * uint64(xunsafe.Size[K]()))
	debug.Assert(kh.IsValid(), "dictionary growth failed: arena exhausted")

	var vh memory.UnsafeHandle
	if xunsafe.Size[V]() > 0 {
		vh = memory.Allocate(next * uint64(xunsafe.Size[V]()))
		debug.Assert(vh.IsValid(), "dictionary growth failed: arena exhausted")
	}

	d.ctrl = xunsafe.AddrOf(ch.Pointer)
	d.keys = xunsafe.CastAddr[K](xunsafe.AddrOf(kh.Pointer))
	if vh.IsValid() {
		d.vals = xunsafe.CastAddr[V](xunsafe.AddrOf(vh.Pointer))
	} else {
		d.vals = 0
	}
	d.capacity = next
	d.count = 0
	d.filled = 0

	if oldCap > 0 {
		for i := uint64(0); i < oldCap; i++ {
			if *oldCtrl.Add(int(i)).AssertValid() != ctrlFull {
				continue
			}
			k := *oldKeys.Add(int(i)).AssertValid()
			var v V
			if xunsafe.Size[V]() > 0 {
				v = *oldVals.Add(int(i)).AssertValid()
			}
			d.put(k, v)
		}
		memory.Free(oldCtrl.AssertValid())
		memory.Free(xunsafe.Cast[byte](oldKeys.AssertValid()))
		if !oldVals.IsNil() {
			memory.Free(xunsafe.Cast[byte](oldVals.AssertValid()))
		}
	}
}
