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

package ecs

import (
	"github.com/burrow-engine/burrow/collections"
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
	"github.com/burrow-engine/burrow/memory"
)

const componentDataDefaultBytes = 8

// ComponentData is the transient staging bag for one entity's components:
// parallel id and size streams plus one packed byte buffer holding the
// component bodies in the same order. Builders fill one per entity; the
// manager drains them into archetype columns on refresh.
//
// The zero ComponentData is empty and ready to use. It owns arena storage;
// call Destroy when done.
type ComponentData struct {
	ids   collections.List[ComponentID]
	sizes collections.List[uint64]

	data     xunsafe.Addr[byte]
	capacity uint64
	stored   uint64
}

// Count returns the number of staged components.
func (c *ComponentData) Count() uint64 { return c.ids.Count() }

// BytesStored returns the packed buffer's used byte count, always the sum
// of the staged sizes.
func (c *ComponentData) BytesStored() uint64 { return c.stored }

// ComponentIDs returns the id stream as a view into the arena.
func (c *ComponentData) ComponentIDs() []ComponentID { return c.ids.Raw() }

// Sizes returns the size stream as a view into the arena.
func (c *ComponentData) Sizes() []uint64 { return c.sizes.Raw() }

// Data returns the packed buffer base, nil while empty.
func (c *ComponentData) Data() *byte {
	if c.data.IsNil() {
		return nil
	}
	return c.data.AssertValid()
}

// Has reports whether a component with the given id is staged.
func (c *ComponentData) Has(id ComponentID) bool {
	_, _, ok := c.Find(id)
	return ok
}

// Find locates a staged component, returning its byte offset into the
// packed buffer and its size.
func (c *ComponentData) Find(id ComponentID) (offset, size uint64, ok bool) {
	for i := uint64(0); i < c.ids.Count(); i++ {
		size = c.sizes.Get(i)
		if c.ids.Get(i) == id {
			return offset, size, true
		}
		offset += size
	}
	return 0, 0, false
}

// Add appends a component to the three streams. Staging the same id twice
// is a programmer error, checked in debug builds.
func (c *ComponentData) Add(id ComponentID, size uint64, componentData *byte) {
	debug.Assert(size > 0, "component size must be greater than 0")
	debug.Assert(componentData != nil, "component data must not be nil")
	if debug.Enabled {
		debug.Assert(!c.Has(id), "component %d already staged", uint64(id))
	}

	c.ids.Add(id)
	c.sizes.Add(size)

	if c.stored+size > c.capacity {
		c.growData(c.stored + size)
	}
	xunsafe.Copy(c.data.ByteAdd(int(c.stored)).AssertValid(), componentData, int(size))
	c.stored += size
}

// Remove drops the first staged component with the given id, compacting
// all three streams. Absent ids are ignored.
func (c *ComponentData) Remove(id ComponentID) {
	for i := uint64(0); i < c.ids.Count(); i++ {
		if c.ids.Get(i) != id {
			continue
		}

		size := c.sizes.Get(i)
		var offset uint64
		for j := uint64(0); j < i; j++ {
			offset += c.sizes.Get(j)
		}

		if tail := c.stored - offset - size; tail > 0 {
			xunsafe.Move(
				c.data.ByteAdd(int(offset)).AssertValid(),
				c.data.ByteAdd(int(offset+size)).AssertValid(),
				int(tail),
			)
		}
		c.stored -= size

		c.ids.OrderedRemoveAt(i)
		c.sizes.OrderedRemoveAt(i)
		return
	}
}

// Each yields every staged (id, size, bytes) triple in order.
func (c *ComponentData) Each(fn func(id ComponentID, size uint64, data *byte)) {
	var offset uint64
	for i := uint64(0); i < c.ids.Count(); i++ {
		size := c.sizes.Get(i)
		fn(c.ids.Get(i), size, c.data.ByteAdd(int(offset)).AssertValid())
		offset += size
	}
}

// EqualTo compares all three streams element-wise.
func (c *ComponentData) EqualTo(other *ComponentData) bool {
	if c.ids.Count() != other.ids.Count() || c.stored != other.stored {
		return false
	}
	for i := uint64(0); i < c.ids.Count(); i++ {
		if c.ids.Get(i) != other.ids.Get(i) || c.sizes.Get(i) != other.sizes.Get(i) {
			return false
		}
	}
	if c.stored == 0 {
		return true
	}
	return xunsafe.Equal(c.data.AssertValid(), other.data.AssertValid(), int(c.stored))
}

// Clone returns an independent copy with its own storage.
func (c *ComponentData) Clone() ComponentData {
	var out ComponentData
	c.Each(func(id ComponentID, size uint64, data *byte) {
		out.Add(id, size, data)
	})
	return out
}

// Destroy releases all backing storage.
func (c *ComponentData) Destroy() {
	c.ids.Destroy()
	c.sizes.Destroy()
	if !c.data.IsNil() {
		memory.Free(c.data.AssertValid())
	}
	c.data = 0
	c.capacity = 0
	c.stored = 0
}

func (c *ComponentData) growData(need uint64) {
	next := c.capacity * 2
	if next == 0 {
		next = componentDataDefaultBytes
	}
	for next < need {
		next *= 2
	}

	if c.data.IsNil() {
		h := memory.Allocate(next)
		debug.Assert(h.IsValid(), "component data growth failed: arena exhausted")
		c.data = xunsafe.AddrOf(h.Pointer)
		c.capacity = h.Size
		return
	}

	h := memory.UnsafeHandle{Pointer: c.data.AssertValid(), Size: c.capacity}
	nh := memory.Reallocate(&h, next)
	debug.Assert(nh.IsValid(), "component data growth failed: arena exhausted")
	c.data = xunsafe.AddrOf(nh.Pointer)
	c.capacity = nh.Size
}
