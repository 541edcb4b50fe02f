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

// Stack is a LIFO sequence of T. The zero Stack is empty and ready to use.
type Stack[T any] struct {
	items List[T]
}

// Count returns the element count.
func (s *Stack[T]) Count() uint64 { return s.items.Count() }

// IsEmpty reports whether the stack has no elements.
func (s *Stack[T]) IsEmpty() bool { return s.items.IsEmpty() }

// Push places v on top of the stack.
func (s *Stack[T]) Push(v T) { s.items.Add(v) }

// TryPop removes the top element into *out. Returns false on an empty
// stack, leaving *out untouched.
func (s *Stack[T]) TryPop(out *T) bool {
	if s.items.IsEmpty() {
		return false
	}
	top := s.items.Count() - 1
	*out = *s.items.At(top)
	s.items.count = top
	return true
}

// TryPeek copies the top element into *out without removing it. Returns
// false on an empty stack.
func (s *Stack[T]) TryPeek(out *T) bool {
	if s.items.IsEmpty() {
		return false
	}
	*out = *s.items.At(s.items.Count() - 1)
	return true
}

// Clear drops all elements, keeping the backing storage.
func (s *Stack[T]) Clear() { s.items.Clear() }

// Destroy releases the backing storage.
func (s *Stack[T]) Destroy() { s.items.Destroy() }
