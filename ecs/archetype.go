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
)

// Fingerprint encodes component-set membership as a bitset: bit i is set
// iff the set contains the component registered at dense index i. It keys
// the archetype registry; equality and hashing are value-based over the
// bit pattern.
type Fingerprint = collections.BitSet

// Archetype stores every entity sharing exactly one component set,
// column-major: one byte column per component, all columns the same
// length, row i in every column belonging to the ith resident entity.
type Archetype struct {
	fingerprint  Fingerprint
	componentIDs collections.List[ComponentID]
	columns      collections.Dictionary[ComponentID, collections.ByteList]
	entityIDs    collections.List[EntityID]
	rows         collections.Dictionary[EntityID, uint64]
}

// NewArchetype constructs an empty archetype. It takes ownership of
// fingerprint and componentIDs.
//
// The fingerprint's set-bit count must equal the id count and every id
// must be unique; violating either is fatal.
func NewArchetype(fingerprint Fingerprint, componentIDs collections.List[ComponentID]) Archetype {
	debug.Assert(fingerprint.TrueCount() == componentIDs.Count(),
		"archetype fingerprint must have one set bit per component id")
	for i := uint64(0); i < componentIDs.Count(); i++ {
		for j := uint64(0); j < i; j++ {
			debug.Assert(componentIDs.Get(i) != componentIDs.Get(j),
				"component %d appears twice in archetype", uint64(componentIDs.Get(i)))
		}
	}

	a := Archetype{
		fingerprint:  fingerprint,
		componentIDs: componentIDs,
	}
	for i := uint64(0); i < componentIDs.Count(); i++ {
		a.columns.TryAdd(componentIDs.Get(i), collections.ByteList{})
	}
	return a
}

// Fingerprint returns the archetype's fingerprint for reading.
func (a *Archetype) Fingerprint() *Fingerprint { return &a.fingerprint }

// EntityCount returns the number of resident entities.
func (a *Archetype) EntityCount() uint64 { return a.entityIDs.Count() }

// ComponentCount returns the number of columns.
func (a *Archetype) ComponentCount() uint64 { return a.columns.Count() }

// HasComponentID reports whether the archetype has a column for id.
func (a *Archetype) HasComponentID(id ComponentID) bool {
	return a.columns.ContainsKey(id)
}

// TryAddComponentDataUnsafe appends a row for entityID, splitting blob into
// per-column slices. ids and sizes must align one to one with the
// archetype's own column ordering; blob holds the concatenated bodies in
// that order. Returns false when the entity is already resident.
func (a *Archetype) TryAddComponentDataUnsafe(entityID EntityID, ids []ComponentID, sizes []uint64, blob *byte) bool {
	debug.Assert(len(ids) == len(sizes), "component id and size arrays must align")
	debug.Assert(uint64(len(ids)) == a.componentIDs.Count(),
		"expected %d components, got %d", a.componentIDs.Count(), len(ids))
	debug.Assert(blob != nil || len(ids) == 0, "component data must not be nil")

	if a.rows.ContainsKey(entityID) {
		return false
	}

	a.rows.TryAdd(entityID, a.entityIDs.Count())
	a.entityIDs.Add(entityID)

	var offset uint64
	for i, id := range ids {
		debug.Assert(id == a.componentIDs.Get(uint64(i)),
			"component %d out of column order", uint64(id))
		col, ok := a.columns.TryGetRef(id)
		debug.Assert(ok, "archetype does not contain component %d", uint64(id))
		col.Add(xunsafe.ByteAdd(blob, int(offset)), sizes[i])
		offset += sizes[i]
	}
	return true
}

// addRowFromComponentData appends a row for entityID out of a staging bag,
// reordering into the archetype's column order. Used by the manager on
// refresh; a no-op when the entity is already resident.
func (a *Archetype) addRowFromComponentData(entityID EntityID, data *ComponentData) {
	if a.rows.ContainsKey(entityID) {
		return
	}

	a.rows.TryAdd(entityID, a.entityIDs.Count())
	a.entityIDs.Add(entityID)

	for i := uint64(0); i < a.componentIDs.Count(); i++ {
		id := a.componentIDs.Get(i)
		offset, size, ok := data.Find(id)
		debug.Assert(ok, "staged data is missing component %d", uint64(id))
		col, found := a.columns.TryGetRef(id)
		debug.Assert(found, "archetype does not contain component %d", uint64(id))
		col.Add(xunsafe.ByteAdd(data.Data(), int(offset)), size)
	}
}

// GetComponentDataForEntityUnsafe appends the entity's (id, size, bytes)
// triples to out, in column order. The entity must be resident.
func (a *Archetype) GetComponentDataForEntityUnsafe(entityID EntityID, out *ComponentData) {
	debug.Assert(out != nil, "component data container must not be nil")

	var row uint64
	debug.Assert(a.rows.TryGet(entityID, &row), "entity %d must belong to the archetype", uint64(entityID))

	for i := uint64(0); i < a.componentIDs.Count(); i++ {
		id := a.componentIDs.Get(i)
		col, _ := a.columns.TryGetRef(id)
		out.Add(id, col.Stride(), col.At(row))
	}
}

// TryRemoveComponentData removes the entity's row by moving the last row
// into its place in every column and in the entity list, then fixing the
// moved entity's row index. Returns false when the entity is not resident.
func (a *Archetype) TryRemoveComponentData(entityID EntityID) bool {
	var row uint64
	if !a.rows.TryGet(entityID, &row) {
		return false
	}

	last := a.entityIDs.Count() - 1
	a.entityIDs.TryRemoveAt(row)
	a.rows.TryRemove(entityID)
	if row != last {
		a.rows.Put(a.entityIDs.Get(row), row)
	}

	a.columns.Each(func(_ *ComponentID, col *collections.ByteList) {
		col.TryRemoveAt(row)
	})
	return true
}

// forEachRows walks all rows, handing fn one pointer per requested column.
// Iteration order matches the entity list.
func (a *Archetype) forEachRows(ids []ComponentID, fn func(row []*byte)) {
	cols := make([]*collections.ByteList, len(ids))
	for i, id := range ids {
		col, ok := a.columns.TryGetRef(id)
		debug.Assert(ok, "archetype does not contain component %d", uint64(id))
		cols[i] = col
	}

	ptrs := make([]*byte, len(ids))
	for row := uint64(0); row < a.entityIDs.Count(); row++ {
		for i, col := range cols {
			ptrs[i] = col.At(row)
		}
		fn(ptrs)
	}
}

// componentAt returns a typed pointer to the entity's slot in one column.
func componentAt[T Component](a *Archetype, entityID EntityID) *T {
	id := idOf[T]()
	debug.Assert(a.HasComponentID(id), "archetype must have component %d", uint64(id))

	var row uint64
	debug.Assert(a.rows.TryGet(entityID, &row), "entity %d must belong to the archetype", uint64(entityID))

	col, _ := a.columns.TryGetRef(id)
	return xunsafe.Cast[T](col.At(row))
}

// ArchetypeGet1 returns the entity's component of type T1. The entity must
// be resident and the archetype must have the column.
func ArchetypeGet1[T1 Component](a *Archetype, entityID EntityID) *T1 {
	return componentAt[T1](a, entityID)
}

// ArchetypeGet2 returns two of the entity's components at once.
func ArchetypeGet2[T1, T2 Component](a *Archetype, entityID EntityID) (*T1, *T2) {
	return componentAt[T1](a, entityID), componentAt[T2](a, entityID)
}

// ArchetypeGet3 returns three of the entity's components at once.
func ArchetypeGet3[T1, T2, T3 Component](a *Archetype, entityID EntityID) (*T1, *T2, *T3) {
	return componentAt[T1](a, entityID), componentAt[T2](a, entityID), componentAt[T3](a, entityID)
}

// ArchetypeHasComponent reports whether the archetype has a column for T.
func ArchetypeHasComponent[T Component](a *Archetype) bool {
	return a.HasComponentID(idOf[T]())
}

// ArchetypeForEach1 walks all rows with a typed pointer into T1's column.
func ArchetypeForEach1[T1 Component](a *Archetype, fn func(*T1)) {
	a.forEachRows([]ComponentID{idOf[T1]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]))
	})
}

// ArchetypeForEach2 walks all rows with typed pointers into two columns.
func ArchetypeForEach2[T1, T2 Component](a *Archetype, fn func(*T1, *T2)) {
	a.forEachRows([]ComponentID{idOf[T1](), idOf[T2]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]), xunsafe.Cast[T2](row[1]))
	})
}

// ArchetypeForEach3 walks all rows with typed pointers into three columns.
func ArchetypeForEach3[T1, T2, T3 Component](a *Archetype, fn func(*T1, *T2, *T3)) {
	a.forEachRows([]ComponentID{idOf[T1](), idOf[T2](), idOf[T3]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]), xunsafe.Cast[T2](row[1]), xunsafe.Cast[T3](row[2]))
	})
}

// Clone returns an independent deep copy, rows included.
func (a *Archetype) Clone() Archetype {
	out := NewArchetype(a.fingerprint.Clone(), a.componentIDs.Clone())
	for i := uint64(0); i < a.entityIDs.Count(); i++ {
		id := a.entityIDs.Get(i)
		out.entityIDs.Add(id)
		out.rows.TryAdd(id, i)
	}
	for i := uint64(0); i < a.componentIDs.Count(); i++ {
		cid := a.componentIDs.Get(i)
		src, _ := a.columns.TryGetRef(cid)
		dst, _ := out.columns.TryGetRef(cid)
		*dst = src.Clone()
	}
	return out
}

// Destroy releases the archetype's storage: fingerprint, id list, columns,
// entity list and row index.
func (a *Archetype) Destroy() {
	a.fingerprint.Destroy()
	a.componentIDs.Destroy()
	a.columns.Each(func(_ *ComponentID, col *collections.ByteList) {
		col.Destroy()
	})
	a.columns.Destroy()
	a.entityIDs.Destroy()
	a.rows.Destroy()
}
