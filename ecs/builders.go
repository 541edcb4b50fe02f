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
)

// ArchetypeBuilder composes an archetype from registered components:
//
//	archetype := ecs.With[Velocity](ecs.With[Position](m.CreateArchetype())).Build()
//
// Build consumes the builder.
type ArchetypeBuilder struct {
	manager      *EntityManager
	fingerprint  Fingerprint
	componentIDs collections.List[ComponentID]
}

// CreateArchetype starts an archetype builder. Fatal before
// [EntityManager.LockComponents].
func (m *EntityManager) CreateArchetype() *ArchetypeBuilder {
	debug.Assert(m.componentsLock, "component registration must be locked")
	return &ArchetypeBuilder{manager: m}
}

// With adds component T to the archetype under construction.
func With[T Component](b *ArchetypeBuilder) *ArchetypeBuilder {
	return b.WithID(idOf[T]())
}

// WithID is the runtime variant of [With].
func (b *ArchetypeBuilder) WithID(id ComponentID) *ArchetypeBuilder {
	m := b.manager
	debug.Assert(m.componentsLock, "component registration must be locked")

	var index uint64
	debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
		"component %d must be registered", uint64(id))
	debug.Assert(!b.fingerprint.Get(index), "component %d already added to archetype", uint64(id))

	b.fingerprint.Set(index, true)
	b.componentIDs.Add(id)
	return b
}

// Build constructs the archetype and, when its fingerprint is not yet
// committed, stages it for the next refresh. Every member component's
// fingerprint list learns about the new fingerprint immediately.
//
// The returned archetype is an independent snapshot owned by the caller;
// release it with Destroy.
func (b *ArchetypeBuilder) Build() Archetype {
	m := b.manager

	archetype := NewArchetype(b.fingerprint.Clone(), b.componentIDs.Clone())
	if !m.fingerprintToArchetype.ContainsKey(b.fingerprint) {
		m.archetypesToAdd.Push(archetype.Clone())
	}
	m.recordComponentFingerprints(&b.componentIDs, &b.fingerprint)

	b.fingerprint.Destroy()
	b.componentIDs.Destroy()
	b.manager = nil
	return archetype
}

// componentDataSetter is the shared surface of the two entity builders, so
// the typed [SetComponentData] works on either.
type componentDataSetter interface {
	setComponentDataBytes(id ComponentID, size uint64, data *byte)
}

// SetComponentData stages component T's data on an entity builder and
// returns the builder for chaining:
//
//	entity := ecs.SetComponentData(m.CreateEntity(), Position{X: 1}).Build()
func SetComponentData[B componentDataSetter, T Component](b B, component T) B {
	c := component
	b.setComponentDataBytes(idOf[T](), sizeOf[T](), componentBytes(&c))
	return b
}

// EntityBuilder composes a new entity from registered components. Build
// consumes the builder; the entity and its data stay staged until the next
// refresh.
type EntityBuilder struct {
	manager     *EntityManager
	entity      Entity
	fingerprint Fingerprint
	data        ComponentData
}

// CreateEntity issues the next entity identity and starts a builder for
// it. Fatal before [EntityManager.LockComponents].
func (m *EntityManager) CreateEntity() *EntityBuilder {
	debug.Assert(m.componentsLock, "components must be locked before creating entities")
	return &EntityBuilder{manager: m, entity: m.createEntityInternal()}
}

// SetComponentDataBytes is the runtime variant of [SetComponentData].
func (b *EntityBuilder) SetComponentDataBytes(id ComponentID, size uint64, data *byte) *EntityBuilder {
	b.setComponentDataBytes(id, size, data)
	return b
}

func (b *EntityBuilder) setComponentDataBytes(id ComponentID, size uint64, data *byte) {
	m := b.manager
	debug.Assert(m.componentsLock, "component registration must be locked")

	var index uint64
	debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
		"component %d must be registered", uint64(id))
	debug.Assert(!b.fingerprint.Get(index), "component %d already set", uint64(id))

	b.fingerprint.Set(index, true)
	b.data.Add(id, size, data)
}

// Build enqueues the entity and its staged data for the next refresh and
// returns the entity.
func (b *EntityBuilder) Build() Entity {
	m := b.manager

	m.entitiesToAdd.Push(b.entity)
	debug.Assert(!m.entityDataToAdd.ContainsKey(b.entity.ID()),
		"entity %d already staged", uint64(b.entity.ID()))
	m.entityDataToAdd.TryAdd(b.entity.ID(), b.data)

	b.fingerprint.Destroy()
	b.data = ComponentData{}
	b.manager = nil
	return b.entity
}

// EntityBuilderFromArchetype composes a new entity that must match an
// archetype exactly: it tracks the archetype's fingerprint and each
// SetComponentData clears the matching bit, so Build can assert every
// component was supplied.
type EntityBuilderFromArchetype struct {
	manager          *EntityManager
	entity           Entity
	fingerprintTrack Fingerprint
	data             ComponentData
}

// CreateEntityFromArchetype issues the next entity identity and starts a
// builder bound to the archetype's component set.
func (m *EntityManager) CreateEntityFromArchetype(archetype *Archetype) *EntityBuilderFromArchetype {
	debug.Assert(m.componentsLock, "components must be locked before creating entities")
	debug.Assert(archetype.ComponentCount() > 0, "archetype must have components")

	return &EntityBuilderFromArchetype{
		manager:          m,
		entity:           m.createEntityInternal(),
		fingerprintTrack: archetype.fingerprint.Clone(),
	}
}

// SetComponentDataBytes is the runtime variant of [SetComponentData].
func (b *EntityBuilderFromArchetype) SetComponentDataBytes(id ComponentID, size uint64, data *byte) *EntityBuilderFromArchetype {
	b.setComponentDataBytes(id, size, data)
	return b
}

func (b *EntityBuilderFromArchetype) setComponentDataBytes(id ComponentID, size uint64, data *byte) {
	m := b.manager
	debug.Assert(m.componentsLock, "component registration must be locked")

	var index uint64
	debug.Assert(m.componentToFingerprintIndex.TryGet(id, &index),
		"component %d must be registered", uint64(id))
	debug.Assert(b.fingerprintTrack.Get(index),
		"component %d is not part of the archetype or already set", uint64(id))

	b.fingerprintTrack.Set(index, false)
	b.data.Add(id, size, data)
}

// Build enqueues the entity and its staged data for the next refresh.
// Fatal unless every archetype component was supplied.
func (b *EntityBuilderFromArchetype) Build() Entity {
	m := b.manager
	debug.Assert(b.fingerprintTrack.TrueCount() == 0, "not all archetype components were set")

	m.entitiesToAdd.Push(b.entity)
	debug.Assert(!m.entityDataToAdd.ContainsKey(b.entity.ID()),
		"entity %d already staged", uint64(b.entity.ID()))
	m.entityDataToAdd.TryAdd(b.entity.ID(), b.data)

	b.fingerprintTrack.Destroy()
	b.data = ComponentData{}
	b.manager = nil
	return b.entity
}
