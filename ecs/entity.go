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

// Entity is an opaque identity plus a validity flag maintained by the
// manager. Equality and hashing are by id alone: a destroyed entity still
// names the same identity while its removal is pending.
type Entity struct {
	id    EntityID
	valid bool
}

// ID returns the entity's identity.
func (e Entity) ID() EntityID { return e.id }

// IsValid reports whether the entity is live. The manager's own record of a
// destroyed entity reads invalid immediately, before the destruction commits
// on refresh; copies of the Entity held elsewhere keep their flag.
func (e Entity) IsValid() bool { return e.valid && e.id > 0 }

// Hash implements the dictionary key contract.
func (e Entity) Hash() uint64 { return e.id.Hash() }

// Equals implements the dictionary key contract.
func (e Entity) Equals(other Entity) bool { return e.id == other.id }
