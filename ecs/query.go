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

// ForEachIDs invokes fn once per committed entity whose archetype
// fingerprint is a superset of the requested component set, handing it one
// pointer per requested column. The runtime core behind the typed ForEach
// functions.
//
// Iteration order across archetypes is unspecified but stable within a
// run; within an archetype, rows follow insertion order modulo
// swap-removal.
func (m *EntityManager) ForEachIDs(ids []ComponentID, fn func(row []*byte)) {
	debug.Assert(len(ids) > 0, "a query needs at least one component")

	// Build the requested fingerprint.
	var requested Fingerprint
	for _, id := range ids {
		var index uint64
		debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
			"component %d must be registered", uint64(id))
		requested.Set(index, true)
	}

	// Gather candidate fingerprints from every requested component's list,
	// deduplicated by value.
	var candidates collections.HashSet[Fingerprint]
	for _, id := range ids {
		fingerprints, ok := m.componentToFingerprints.TryGetRef(id)
		debug.Assert(ok, "component %d must be registered", uint64(id))

		fingerprints.Each(func(fp *Fingerprint) {
			if fp.Includes(&requested) {
				candidates.TryAdd(*fp)
			}
		})
	}

	// The candidate set borrows the lists' fingerprint storage; only the
	// table itself is released here. A fingerprint recorded by an archetype
	// builder has no committed archetype until the next refresh; it is
	// skipped.
	candidates.Each(func(fp *Fingerprint) {
		archetype, ok := m.fingerprintToArchetype.TryGetRef(*fp)
		if !ok {
			return
		}
		archetype.forEachRows(ids, fn)
	})

	candidates.Destroy()
	requested.Destroy()
}

// ForEach1 invokes fn for every committed entity with a T1 component.
func ForEach1[T1 Component](m *EntityManager, fn func(*T1)) {
	m.ForEachIDs([]ComponentID{idOf[T1]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]))
	})
}

// ForEach2 invokes fn for every committed entity carrying both components.
func ForEach2[T1, T2 Component](m *EntityManager, fn func(*T1, *T2)) {
	m.ForEachIDs([]ComponentID{idOf[T1](), idOf[T2]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]), xunsafe.Cast[T2](row[1]))
	})
}

// ForEach3 invokes fn for every committed entity carrying all three
// components.
func ForEach3[T1, T2, T3 Component](m *EntityManager, fn func(*T1, *T2, *T3)) {
	m.ForEachIDs([]ComponentID{idOf[T1](), idOf[T2](), idOf[T3]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]), xunsafe.Cast[T2](row[1]), xunsafe.Cast[T3](row[2]))
	})
}

// ForEach4 invokes fn for every committed entity carrying all four
// components.
func ForEach4[T1, T2, T3, T4 Component](m *EntityManager, fn func(*T1, *T2, *T3, *T4)) {
	m.ForEachIDs([]ComponentID{idOf[T1](), idOf[T2](), idOf[T3](), idOf[T4]()}, func(row []*byte) {
		fn(xunsafe.Cast[T1](row[0]), xunsafe.Cast[T2](row[1]),
			xunsafe.Cast[T3](row[2]), xunsafe.Cast[T4](row[3]))
	})
}
