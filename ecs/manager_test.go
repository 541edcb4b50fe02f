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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *EntityManager {
	t.Helper()
	m := NewEntityManager()
	t.Cleanup(m.Destroy)

	Register[testComponent2](Register[testComponent1](m))
	Register[testComponent3](m)
	m.LockComponents()
	return m
}

func TestEntityManager_RegisterComponents(t *testing.T) {
	withMemory(t)

	m := NewEntityManager()
	defer m.Destroy()

	Register[testComponent2](Register[testComponent1](m))
	assert.EqualValues(t, 2, m.ComponentCount())

	Register[testComponent1](m)
	assert.EqualValues(t, 2, m.ComponentCount(), "registration is idempotent")

	assert.False(t, m.IsLocked())
	m.LockComponents()
	assert.True(t, m.IsLocked())

	Register[testComponent3](m)
	assert.EqualValues(t, 2, m.ComponentCount(), "registration after the lock is a no-op")
}

func TestEntityManager_CreateArchetype(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	archetype := With[testComponent2](With[testComponent1](m.CreateArchetype())).Build()
	defer archetype.Destroy()

	assert.EqualValues(t, 0, m.ArchetypeCount(), "archetypes commit on refresh")
	m.RefreshManagerData()
	assert.EqualValues(t, 1, m.ArchetypeCount())

	assert.EqualValues(t, 0, m.EntityCount())
	assert.EqualValues(t, 3, m.ComponentCount())
	assert.EqualValues(t, 0, archetype.EntityCount())
	assert.EqualValues(t, 2, archetype.ComponentCount())
}

func TestEntityManager_CreateArchetype_SameFingerprintCommitsOnce(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	a1 := With[testComponent1](m.CreateArchetype()).Build()
	a2 := With[testComponent1](m.CreateArchetype()).Build()
	defer a1.Destroy()
	defer a2.Destroy()

	m.RefreshManagerData()
	assert.EqualValues(t, 1, m.ArchetypeCount())
}

func TestEntityManager_CreateArchetype_BeforeLockIsFatal(t *testing.T) {
	withMemory(t)

	m := NewEntityManager()
	defer m.Destroy()
	Register[testComponent1](m)

	assert.Panics(t, func() { m.CreateArchetype() })
}

func TestEntityManager_CreateArchetype_UnregisteredComponentIsFatal(t *testing.T) {
	withMemory(t)

	m := NewEntityManager()
	defer m.Destroy()
	Register[testComponent1](m)
	m.LockComponents()

	assert.Panics(t, func() {
		With[testComponent2](m.CreateArchetype())
	})
}

func TestEntityManager_CreateEntity_DeferredVisibility(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(
		SetComponentData(m.CreateEntity(), testComponent1{A: 1, B: 2}),
		testComponent2{C: 3, D: 4},
	).Build()
	require.True(t, entity.IsValid())

	assert.EqualValues(t, 0, m.EntityCount(), "entities commit on refresh")
	assert.EqualValues(t, 0, m.ArchetypeCount())

	visits := 0
	ForEach1(m, func(*testComponent1) { visits++ })
	assert.Zero(t, visits, "queries observe only committed state")

	m.RefreshManagerData()

	assert.EqualValues(t, 1, m.EntityCount())
	assert.EqualValues(t, 1, m.ArchetypeCount())

	c1 := GetComponent[testComponent1](m, entity)
	require.NotNil(t, c1)
	assert.Equal(t, testComponent1{A: 1, B: 2}, *c1)
	c2 := GetComponent[testComponent2](m, entity)
	require.NotNil(t, c2)
	assert.Equal(t, testComponent2{C: 3, D: 4}, *c2)
}

func TestEntityManager_CreateEntity_DuplicateComponentIsFatal(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	b := SetComponentData(m.CreateEntity(), testComponent1{})
	assert.Panics(t, func() {
		SetComponentData(b, testComponent1{})
	})

	// The builder never reached Build; release its staging storage.
	b.fingerprint.Destroy()
	b.data.Destroy()
}

func TestEntityManager_CreateEntityFromArchetype(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	archetype := With[testComponent2](With[testComponent1](m.CreateArchetype())).Build()
	defer archetype.Destroy()

	entity := SetComponentData(
		SetComponentData(m.CreateEntityFromArchetype(&archetype), testComponent1{A: 7}),
		testComponent2{C: 8},
	).Build()

	m.RefreshManagerData()

	assert.EqualValues(t, 1, m.EntityCount())
	assert.EqualValues(t, 1, m.ArchetypeCount(), "the entity lands in the existing archetype")
	assert.True(t, HasComponent[testComponent1](m, entity))
	assert.True(t, HasComponent[testComponent2](m, entity))
	assert.EqualValues(t, 7, GetComponent[testComponent1](m, entity).A)
}

func TestEntityManager_CreateEntityFromArchetype_MissingComponentIsFatal(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	archetype := With[testComponent2](With[testComponent1](m.CreateArchetype())).Build()
	defer archetype.Destroy()

	b := SetComponentData(m.CreateEntityFromArchetype(&archetype), testComponent1{})
	assert.Panics(t, func() { b.Build() }, "every archetype component must be supplied")

	b.fingerprintTrack.Destroy()
	b.data.Destroy()
}

func TestEntityManager_EntityIDsAreUnique(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	seen := map[EntityID]bool{}
	for i := 0; i < 32; i++ {
		e := SetComponentData(m.CreateEntity(), testComponent1{A: int32(i)}).Build()
		require.False(t, seen[e.ID()], "entity ids must be unique")
		seen[e.ID()] = true
	}
	m.RefreshManagerData()
	assert.EqualValues(t, 32, m.EntityCount())
}

func TestEntityManager_DestroyEntity(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	e1 := SetComponentData(m.CreateEntity(), testComponent1{A: 1}).Build()
	e2 := SetComponentData(m.CreateEntity(), testComponent1{A: 2}).Build()
	m.RefreshManagerData()
	require.EqualValues(t, 2, m.EntityCount())

	m.DestroyEntity(e1)
	assert.EqualValues(t, 2, m.EntityCount(), "destruction commits on refresh")

	m.RefreshManagerData()
	assert.EqualValues(t, 1, m.EntityCount())

	assert.Nil(t, GetComponent[testComponent1](m, e1))
	require.NotNil(t, GetComponent[testComponent1](m, e2))

	survivors := 0
	ForEach1(m, func(c *testComponent1) {
		survivors++
		assert.EqualValues(t, 2, c.A)
	})
	assert.Equal(t, 1, survivors)
}

func TestEntityManager_AddComponentMigratesArchetype(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(m.CreateEntity(), testComponent1{A: 1, B: 2}).Build()
	m.RefreshManagerData()

	assert.True(t, HasComponent[testComponent1](m, entity))
	assert.False(t, HasComponent[testComponent2](m, entity))
	require.EqualValues(t, 1, m.ArchetypeCount())

	require.True(t, TryAddComponent(m, entity, testComponent2{C: 3, D: 4}))
	assert.False(t, HasComponent[testComponent2](m, entity), "the migration is deferred")

	m.RefreshManagerData()

	assert.True(t, HasComponent[testComponent1](m, entity))
	assert.True(t, HasComponent[testComponent2](m, entity))
	assert.EqualValues(t, 2, m.ArchetypeCount())
	assert.EqualValues(t, 1, m.EntityCount())

	assert.Equal(t, testComponent1{A: 1, B: 2}, *GetComponent[testComponent1](m, entity),
		"existing data survives the migration")
	assert.Equal(t, testComponent2{C: 3, D: 4}, *GetComponent[testComponent2](m, entity))
}

func TestEntityManager_AddComponentTwiceFails(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(m.CreateEntity(), testComponent1{}).Build()
	m.RefreshManagerData()

	require.True(t, TryAddComponent(m, entity, testComponent2{}))
	assert.False(t, TryAddComponent(m, entity, testComponent2{}),
		"a pending component cannot be staged twice")

	m.RefreshManagerData()
	assert.False(t, TryAddComponent(m, entity, testComponent2{}),
		"a committed component cannot be added again")
}

func TestEntityManager_AddComponentToStagedEntity(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(m.CreateEntity(), testComponent1{A: 1}).Build()

	// The entity is still staged; the new component joins its pending bag
	// and a single archetype commits.
	require.True(t, TryAddComponent(m, entity, testComponent2{C: 2}))
	m.RefreshManagerData()

	assert.EqualValues(t, 1, m.ArchetypeCount())
	assert.True(t, HasComponent[testComponent1](m, entity))
	assert.True(t, HasComponent[testComponent2](m, entity))
}

func TestEntityManager_AddComponentToUnknownEntityFails(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	ghost := Entity{id: 12345, valid: true}
	assert.False(t, TryAddComponent(m, ghost, testComponent1{}))
}

func TestEntityManager_RemoveComponentMigratesArchetype(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(
		SetComponentData(m.CreateEntity(), testComponent1{A: 1}),
		testComponent2{C: 2},
	).Build()
	m.RefreshManagerData()
	require.EqualValues(t, 1, m.ArchetypeCount())

	require.True(t, TryRemoveComponent[testComponent2](m, entity))
	assert.True(t, HasComponent[testComponent2](m, entity), "the removal is deferred")

	m.RefreshManagerData()

	assert.True(t, HasComponent[testComponent1](m, entity))
	assert.False(t, HasComponent[testComponent2](m, entity))
	assert.EqualValues(t, 2, m.ArchetypeCount())
	assert.EqualValues(t, 1, m.EntityCount())
	assert.Equal(t, testComponent1{A: 1}, *GetComponent[testComponent1](m, entity))

	assert.False(t, TryRemoveComponent[testComponent2](m, entity),
		"an absent component cannot be removed")
}

func TestEntityManager_MultiArchetypeQuery(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	// E1{1,2,3}, E2{1,2}, E3{1,3}.
	e1 := SetComponentData(SetComponentData(SetComponentData(
		m.CreateEntity(), testComponent1{A: 1}), testComponent2{C: 1}), testComponent3{E: 1}).Build()
	e2 := SetComponentData(SetComponentData(
		m.CreateEntity(), testComponent1{A: 2}), testComponent2{C: 2}).Build()
	e3 := SetComponentData(SetComponentData(
		m.CreateEntity(), testComponent1{A: 3}), testComponent3{E: 3}).Build()
	require.True(t, e1.IsValid() && e2.IsValid() && e3.IsValid())

	m.RefreshManagerData()
	require.EqualValues(t, 3, m.ArchetypeCount())

	var ones []int32
	ForEach1(m, func(c *testComponent1) { ones = append(ones, c.A) })
	assert.Len(t, ones, 3, "every entity has component 1")
	assert.ElementsMatch(t, []int32{1, 2, 3}, ones)

	var pairs []int32
	ForEach2(m, func(c1 *testComponent1, _ *testComponent2) { pairs = append(pairs, c1.A) })
	assert.ElementsMatch(t, []int32{1, 2}, pairs, "only E1 and E2 carry both 1 and 2")

	triples := 0
	ForEach3(m, func(*testComponent1, *testComponent2, *testComponent3) { triples++ })
	assert.Equal(t, 1, triples, "only E1 carries all three")
}

func TestEntityManager_QueryMutationsPersist(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(m.CreateEntity(), testComponent1{A: 10}).Build()
	m.RefreshManagerData()

	ForEach1(m, func(c *testComponent1) { c.A *= 2 })
	assert.EqualValues(t, 20, GetComponent[testComponent1](m, entity).A,
		"query callbacks mutate the stored columns")
}

func TestEntityManager_QueryVisitsEachEntityOnce(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	for i := 0; i < 4; i++ {
		SetComponentData(SetComponentData(
			m.CreateEntity(), testComponent1{A: int32(i)}), testComponent2{}).Build()
	}
	m.RefreshManagerData()

	counts := map[int32]int{}
	ForEach2(m, func(c *testComponent1, _ *testComponent2) { counts[c.A]++ })
	require.Len(t, counts, 4)
	for a, n := range counts {
		assert.Equal(t, 1, n, "entity %d visited more than once", a)
	}
}

func TestEntityManager_HasComponent_UncommittedEntity(t *testing.T) {
	withMemory(t)
	m := newTestManager(t)

	entity := SetComponentData(m.CreateEntity(), testComponent1{}).Build()
	assert.False(t, HasComponent[testComponent1](m, entity),
		"an uncommitted entity has no archetype yet")
	m.RefreshManagerData()
	assert.True(t, HasComponent[testComponent1](m, entity))
}
