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

// Package ecs implements the archetype-based entity-component system: a
// registration-phase component catalogue, a fingerprint-keyed archetype
// store with column-oriented component buffers, deferred structural
// mutation, and multi-component iteration.
//
// # Design
//
// Structural changes never happen in place. Entity creation, destruction
// and component add/remove all stage their work in queues on the
// [EntityManager]; [EntityManager.RefreshManagerData] is the single commit
// point, so a query in flight never observes torn state. Before a refresh
// the counts and queries reflect the pre-state; after it, all staged
// mutations appear at once.
//
// Component types register before use and the catalogue locks one-way;
// every archetype and entity is built after the lock, when fingerprint
// width is known. The typed surface ([Register], [ForEach2],
// [SetComponentData], ...) is a thin fixed-arity layer over a runtime core
// keyed by component-id lists.
//
// All storage lives in the process arena. A manager must be released with
// [EntityManager.Destroy] before the memory system shuts down.
package ecs

import (
	"github.com/burrow-engine/burrow/collections"
	"github.com/burrow-engine/burrow/internal/debug"
)

// EntityManager creates, destroys and manages entities, registers
// components and owns the archetype registry.
type EntityManager struct {
	// Entity registry.
	entities            collections.List[Entity]
	entityToIndex       collections.Dictionary[Entity, uint64]
	entityToFingerprint collections.Dictionary[EntityID, Fingerprint]
	entitiesToAdd       collections.Stack[Entity]
	entityDataToAdd     collections.Dictionary[EntityID, ComponentData]

	// Component registry. The fingerprint index is write-once under the
	// registration lock.
	componentToFingerprintIndex collections.Dictionary[ComponentID, uint64]
	componentToFingerprints     collections.Dictionary[ComponentID, collections.List[Fingerprint]]
	componentsLock              bool

	// Archetype registry.
	fingerprintToArchetype        collections.Dictionary[Fingerprint, Archetype]
	archetypesToAdd               collections.Stack[Archetype]
	fingerprintToEntitiesToRemove collections.Dictionary[Fingerprint, collections.List[EntityID]]

	nextEntityID EntityID
}

// NewEntityManager returns an empty manager. Register components, lock,
// then build.
func NewEntityManager() *EntityManager {
	return &EntityManager{}
}

// Register makes T available to archetypes and entities, assigning it the
// next dense fingerprint bit. Registering the same component twice is a
// no-op, as is any registration after [EntityManager.LockComponents].
// Returns the manager for chaining.
func Register[T Component](m *EntityManager) *EntityManager {
	m.RegisterID(idOf[T]())
	return m
}

// RegisterID is the runtime variant of [Register].
func (m *EntityManager) RegisterID(id ComponentID) {
	if m.componentsLock {
		return
	}
	if m.componentToFingerprintIndex.ContainsKey(id) {
		return
	}

	index := m.componentToFingerprintIndex.Count()
	m.componentToFingerprintIndex.TryAdd(id, index)
	m.componentToFingerprints.TryAdd(id, collections.List[Fingerprint]{})
}

// LockComponents flips the one-way registration latch. All archetype and
// entity creation must happen afterwards.
func (m *EntityManager) LockComponents() { m.componentsLock = true }

// IsLocked reports whether component registration is locked.
func (m *EntityManager) IsLocked() bool { return m.componentsLock }

// EntityCount returns the committed entity count.
func (m *EntityManager) EntityCount() uint64 { return m.entities.Count() }

// ComponentCount returns the registered component count.
func (m *EntityManager) ComponentCount() uint64 { return m.componentToFingerprintIndex.Count() }

// ArchetypeCount returns the committed archetype count.
func (m *EntityManager) ArchetypeCount() uint64 { return m.fingerprintToArchetype.Count() }

// DestroyEntity marks the entity invalid and queues its archetype row for
// removal. The destruction commits on the next refresh; an entity that was
// never committed is ignored.
func (m *EntityManager) DestroyEntity(entity Entity) {
	debug.Assert(m.componentsLock, "components must be locked before destroying entities")

	var index uint64
	if !m.entityToIndex.TryGet(entity, &index) {
		return
	}
	m.entities.At(index).valid = false

	var fingerprint Fingerprint
	debug.Assert(m.entityToFingerprint.TryGet(entity.ID(), &fingerprint),
		"entity %d must be mapped to an archetype", uint64(entity.ID()))
	m.queueEntityRemoval(fingerprint, entity.ID())
}

// TryAddComponent stages a component of type T for the entity. The entity
// migrates to the matching archetype on the next refresh. Returns false
// when the entity is unknown or already has the component.
func TryAddComponent[T Component](m *EntityManager, entity Entity, component T) bool {
	c := component
	return m.TryAddComponentBytes(entity, idOf[T](), sizeOf[T](), componentBytes(&c))
}

// TryAddComponentBytes is the runtime variant of [TryAddComponent].
func (m *EntityManager) TryAddComponentBytes(entity Entity, id ComponentID, size uint64, data *byte) bool {
	debug.Assert(m.componentsLock, "components must be locked before mutating entities")
	debug.Assert(entity.IsValid(), "entity must be valid")

	var index uint64
	debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
		"component %d must be registered", uint64(id))

	// A staged bag means a migration is already pending; extend it.
	if staged, ok := m.entityDataToAdd.TryGetRef(entity.ID()); ok {
		if staged.Has(id) {
			return false
		}
		staged.Add(id, size, data)
		return true
	}

	var fingerprint Fingerprint
	if !m.entityToFingerprint.TryGet(entity.ID(), &fingerprint) {
		return false
	}
	if fingerprint.Get(index) {
		return false
	}

	archetype, ok := m.fingerprintToArchetype.TryGetRef(fingerprint)
	debug.Assert(ok, "fingerprint must be mapped to an archetype")

	var bag ComponentData
	archetype.GetComponentDataForEntityUnsafe(entity.ID(), &bag)
	bag.Add(id, size, data)
	m.entityDataToAdd.TryAdd(entity.ID(), bag)

	m.queueEntityRemoval(fingerprint, entity.ID())
	return true
}

// TryRemoveComponent stages the removal of the entity's component of type
// T; the entity migrates to the smaller archetype on the next refresh.
// Returns false when the entity is unknown or does not have the component.
func TryRemoveComponent[T Component](m *EntityManager, entity Entity) bool {
	return m.TryRemoveComponentID(entity, idOf[T]())
}

// TryRemoveComponentID is the runtime variant of [TryRemoveComponent].
func (m *EntityManager) TryRemoveComponentID(entity Entity, id ComponentID) bool {
	debug.Assert(m.componentsLock, "components must be locked before mutating entities")
	debug.Assert(entity.IsValid(), "entity must be valid")

	var index uint64
	debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
		"component %d must be registered", uint64(id))

	if staged, ok := m.entityDataToAdd.TryGetRef(entity.ID()); ok {
		if !staged.Has(id) {
			return false
		}
		staged.Remove(id)
		return true
	}

	var fingerprint Fingerprint
	if !m.entityToFingerprint.TryGet(entity.ID(), &fingerprint) {
		return false
	}
	if !fingerprint.Get(index) {
		return false
	}

	archetype, ok := m.fingerprintToArchetype.TryGetRef(fingerprint)
	debug.Assert(ok, "fingerprint must be mapped to an archetype")

	var bag ComponentData
	archetype.GetComponentDataForEntityUnsafe(entity.ID(), &bag)
	bag.Remove(id)
	m.entityDataToAdd.TryAdd(entity.ID(), bag)

	m.queueEntityRemoval(fingerprint, entity.ID())
	return true
}

// HasComponent reports whether the entity's committed archetype contains T.
func HasComponent[T Component](m *EntityManager, entity Entity) bool {
	return m.HasComponentID(entity, idOf[T]())
}

// HasComponentID is the runtime variant of [HasComponent]. Entities with
// no committed archetype read as having nothing.
func (m *EntityManager) HasComponentID(entity Entity, id ComponentID) bool {
	var index uint64
	debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
		"component %d must be registered", uint64(id))

	var fingerprint Fingerprint
	if !m.entityToFingerprint.TryGet(entity.ID(), &fingerprint) {
		return false
	}
	return fingerprint.Get(index)
}

// GetComponent returns a pointer to the entity's committed component of
// type T, or nil when the entity has no committed archetype.
func GetComponent[T Component](m *EntityManager, entity Entity) *T {
	debug.Assert(entity.IsValid(), "entity must be valid")

	var fingerprint Fingerprint
	if !m.entityToFingerprint.TryGet(entity.ID(), &fingerprint) {
		return nil
	}

	archetype, ok := m.fingerprintToArchetype.TryGetRef(fingerprint)
	debug.Assert(ok, "fingerprint must be mapped to an archetype")
	return ArchetypeGet1[T](archetype, entity.ID())
}

// RefreshManagerData drains the staging queues and commits all structural
// changes: new archetypes, new entities and their rows, and pending
// removals. This is the sole commit point; queries observe only committed
// state.
func (m *EntityManager) RefreshManagerData() {
	debug.Assert(m.componentsLock, "components must be locked before refreshing")

	m.refreshArchetypes()
	m.refreshEntities()
}

func (m *EntityManager) refreshArchetypes() {
	// Resolve each staged bag to a fingerprint, creating archetype shells
	// for fingerprints seen for the first time.
	m.entityDataToAdd.Each(func(entityID *EntityID, bag *ComponentData) {
		var fingerprint Fingerprint
		var ids collections.List[ComponentID]
		bag.Each(func(id ComponentID, _ uint64, _ *byte) {
			var index uint64
			if !m.componentToFingerprintIndex.TryGet(id, &index) {
				return
			}
			fingerprint.Set(index, true)
			ids.Add(id)
		})

		if !m.fingerprintToArchetype.ContainsKey(fingerprint) {
			m.archetypesToAdd.Push(NewArchetype(fingerprint.Clone(), ids.Clone()))
		}
		m.recordComponentFingerprints(&ids, &fingerprint)

		if stored, ok := m.entityToFingerprint.TryGetRef(*entityID); ok {
			stored.Destroy()
			*stored = fingerprint.Clone()
		} else {
			m.entityToFingerprint.TryAdd(*entityID, fingerprint.Clone())
		}

		ids.Destroy()
		fingerprint.Destroy()
	})

	// Commit archetype shells. Duplicate shells for the same fingerprint
	// can pile up in the queue; the first one wins.
	var shell Archetype
	for m.archetypesToAdd.TryPop(&shell) {
		key := shell.fingerprint.Clone()
		if !m.fingerprintToArchetype.TryAdd(key, shell) {
			key.Destroy()
			shell.Destroy()
		}
	}

	// Commit the staged entities' rows into their archetypes, then drop
	// the bags.
	m.entityDataToAdd.Each(func(entityID *EntityID, bag *ComponentData) {
		fingerprint, ok := m.entityToFingerprint.TryGetRef(*entityID)
		debug.Assert(ok, "staged entity %d must be mapped to a fingerprint", uint64(*entityID))

		archetype, found := m.fingerprintToArchetype.TryGetRef(*fingerprint)
		debug.Assert(found, "fingerprint must be mapped to an archetype")

		archetype.addRowFromComponentData(*entityID, bag)
		bag.Destroy()
	})
	m.entityDataToAdd.Clear()

	// Pending removals, keyed by the archetype the entity is leaving.
	m.fingerprintToEntitiesToRemove.Each(func(fingerprint *Fingerprint, entityIDs *collections.List[EntityID]) {
		if archetype, ok := m.fingerprintToArchetype.TryGetRef(*fingerprint); ok {
			entityIDs.Each(func(id *EntityID) {
				archetype.TryRemoveComponentData(*id)
			})
		}
		entityIDs.Destroy()
		fingerprint.Destroy()
	})
	m.fingerprintToEntitiesToRemove.Clear()
}

func (m *EntityManager) refreshEntities() {
	var entity Entity
	for m.entitiesToAdd.TryPop(&entity) {
		m.entities.Add(entity)
		m.entityToIndex.TryAdd(entity, m.entities.Count()-1)
	}

	// Sweep invalidated records, patching the index of each swapped
	// survivor. The slot is re-examined after a swap: the moved entity may
	// itself be dead.
	i := uint64(0)
	for i < m.entities.Count() {
		e := *m.entities.At(i)
		if e.IsValid() {
			i++
			continue
		}

		m.entityToIndex.TryRemove(e)
		if fingerprint, ok := m.entityToFingerprint.TryGetRef(e.ID()); ok {
			fingerprint.Destroy()
			m.entityToFingerprint.TryRemove(e.ID())
		}

		m.entities.TryRemoveAt(i)
		if i < m.entities.Count() {
			m.entityToIndex.Put(*m.entities.At(i), i)
		}
	}
}

// Destroy releases every registry, queue, archetype and staged bag. The
// manager must not be used afterwards.
func (m *EntityManager) Destroy() {
	m.entities.Destroy()
	m.entityToIndex.Destroy()
	m.entityToFingerprint.Each(func(_ *EntityID, fingerprint *Fingerprint) {
		fingerprint.Destroy()
	})
	m.entityToFingerprint.Destroy()
	m.entitiesToAdd.Destroy()
	m.entityDataToAdd.Each(func(_ *EntityID, bag *ComponentData) {
		bag.Destroy()
	})
	m.entityDataToAdd.Destroy()

	m.componentToFingerprintIndex.Destroy()
	m.componentToFingerprints.Each(func(_ *ComponentID, fingerprints *collections.List[Fingerprint]) {
		fingerprints.Each(func(fingerprint *Fingerprint) {
			fingerprint.Destroy()
		})
		fingerprints.Destroy()
	})
	m.componentToFingerprints.Destroy()

	m.fingerprintToArchetype.Each(func(fingerprint *Fingerprint, archetype *Archetype) {
		fingerprint.Destroy()
		archetype.Destroy()
	})
	m.fingerprintToArchetype.Destroy()

	var shell Archetype
	for m.archetypesToAdd.TryPop(&shell) {
		shell.Destroy()
	}
	m.archetypesToAdd.Destroy()

	m.fingerprintToEntitiesToRemove.Each(func(fingerprint *Fingerprint, entityIDs *collections.List[EntityID]) {
		fingerprint.Destroy()
		entityIDs.Destroy()
	})
	m.fingerprintToEntitiesToRemove.Destroy()
}

func (m *EntityManager) createEntityInternal() Entity {
	m.nextEntityID++
	entity := Entity{id: m.nextEntityID, valid: true}
	for m.entityToIndex.ContainsKey(entity) {
		m.nextEntityID++
		entity.id = m.nextEntityID
	}
	return entity
}

// queueEntityRemoval records that the archetype for fingerprint must drop
// entityID on the next refresh.
func (m *EntityManager) queueEntityRemoval(fingerprint Fingerprint, entityID EntityID) {
	if entityIDs, ok := m.fingerprintToEntitiesToRemove.TryGetRef(fingerprint); ok {
		entityIDs.Add(entityID)
		return
	}
	var entityIDs collections.List[EntityID]
	entityIDs.Add(entityID)
	m.fingerprintToEntitiesToRemove.TryAdd(fingerprint.Clone(), entityIDs)
}

// recordComponentFingerprints ensures each component's fingerprint list
// knows about the given fingerprint, so queries can find its archetype.
func (m *EntityManager) recordComponentFingerprints(ids *collections.List[ComponentID], fingerprint *Fingerprint) {
	ids.Each(func(id *ComponentID) {
		fingerprints, ok := m.componentToFingerprints.TryGetRef(*id)
		debug.Assert(ok, "component %d must be registered", uint64(*id))

		known := fingerprints.ContainsFunc(func(fp *Fingerprint) bool {
			return fp.Equals(*fingerprint)
		})
		if !known {
			fingerprints.Add(fingerprint.Clone())
		}
	})
}
