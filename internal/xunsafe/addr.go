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

package xunsafe

import (
	"fmt"
	"unsafe"
)

// Addr is a typed raw address.
//
// Unlike a *T, an Addr[T] is invisible to the garbage collector: loading and
// storing values of this type issues no write barriers, and holding one does
// not keep anything alive. Every Addr used by this module points into the
// process arena, whose backing block is anchored independently for as long
// as the memory system is live.
//
// The zero Addr is the null address.
type Addr[T any] uintptr

// AddrOf gets the address of a pointer.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// IsNil reports whether this is the null address.
func (a Addr[T]) IsNil() bool { return a == 0 }

// AssertValid asserts that this address is a valid pointer and converts it.
//
// Returns nil for the null address.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add adds the given element offset to this address, scaled by the size of T.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](n*Size[T]())
}

// ByteAdd adds the given unscaled byte offset to this address.
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return Addr[T](uintptr(int(a) + n))
}

// Sub returns the element distance between two addresses.
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(a-b) / Size[T]()
}

// Misalign returns how far this address sits past the previous boundary of
// the given alignment, which must be a power of two.
func (a Addr[T]) Misalign(align int) int {
	return int(a) & (align - 1)
}

// RoundUpTo rounds this address upwards to align, which must be a power of
// two.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](RoundUp(uintptr(a), uintptr(align)))
}

// CastAddr reinterprets the pointee type of an address.
func CastAddr[To, From any](a Addr[From]) Addr[To] {
	return Addr[To](a)
}

// String implements [fmt.Stringer].
func (a Addr[T]) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}
