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

// HashSet is a set of T with value-based membership. The zero HashSet is
// empty and ready to use.
type HashSet[T Key[T]] struct {
	entries Dictionary[T, struct{}]
}

// Count returns the element count.
func (s *HashSet[T]) Count() uint64 { return s.entries.Count() }

// IsEmpty reports whether the set has no elements.
func (s *HashSet[T]) IsEmpty() bool { return s.entries.IsEmpty() }

// TryAdd inserts v and returns true, or returns false when v is already
// present.
func (s *HashSet[T]) TryAdd(v T) bool {
	return s.entries.TryAdd(v, struct{}{})
}

// Contains reports whether v is present.
func (s *HashSet[T]) Contains(v T) bool {
	return s.entries.ContainsKey(v)
}

// TryRemove deletes v. Returns false when v is absent.
func (s *HashSet[T]) TryRemove(v T) bool {
	return s.entries.TryRemove(v)
}

// Each calls fn for every element. fn must not mutate the set.
func (s *HashSet[T]) Each(fn func(*T)) {
	s.entries.Each(func(k *T, _ *struct{}) { fn(k) })
}

// Clear drops all elements, keeping the backing storage.
func (s *HashSet[T]) Clear() { s.entries.Clear() }

// Destroy releases the backing storage.
func (s *HashSet[T]) Destroy() { s.entries.Destroy() }
