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
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xhash"
	"github.com/burrow-engine/burrow/internal/xunsafe"
)

// ComponentID tags a component type. The id space is owned by the user;
// the typed API reserves 0 as "none".
type ComponentID uint64

// Hash implements the dictionary key contract.
func (id ComponentID) Hash() uint64 { return xhash.U64(uint64(id)) }

// Equals implements the dictionary key contract.
func (id ComponentID) Equals(other ComponentID) bool { return id == other }

// EntityID identifies an entity for the lifetime of the process.
type EntityID uint64

// Hash implements the dictionary key contract.
func (id EntityID) Hash() uint64 { return xhash.U64(uint64(id)) }

// Equals implements the dictionary key contract.
func (id EntityID) Equals(other EntityID) bool { return id == other }

// Component is a plain data record stored column-major in archetypes.
//
// Implementations must be pointer-free structs (their bytes live in the
// arena) and must return the same non-zero id for every value of the type:
//
//	type Position struct{ X, Y float32 }
//
//	func (Position) ComponentID() ecs.ComponentID { return 1 }
type Component interface {
	ComponentID() ComponentID
}

// idOf resolves the id a component type declares, asserting the typed-API
// contract that it is non-zero.
func idOf[T Component]() ComponentID {
	var zero T
	id := zero.ComponentID()
	debug.Assert(id > 0, "component id must be greater than 0, got %d", uint64(id))
	return id
}

func sizeOf[T Component]() uint64 {
	debug.Assert(xunsafe.PointerFree[T](), "component type contains Go pointers")
	return uint64(xunsafe.Size[T]())
}

// componentBytes views a component value as its raw bytes.
func componentBytes[T any](p *T) *byte {
	return xunsafe.Cast[byte](p)
}
