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
	"reflect"
	"sync"
	"unsafe"
)

// PointerAlign is the alignment of a pointer: the alignment of the arena
// base and the default allocation alignment. Larger alignments are served
// on request.
const PointerAlign = int(unsafe.Sizeof(uintptr(0)))

// Size returns the size of T in bytes.
func Size[T any]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// Align returns the alignment of T in bytes.
func Align[T any]() int {
	var v T
	return int(unsafe.Alignof(v))
}

// Layout returns the size and alignment of T.
func Layout[T any]() (size, align int) {
	return Size[T](), Align[T]()
}

// IsPow2 reports whether n is a power of two. Zero is not a power of two.
func IsPow2[I ~int | ~uint | ~uintptr | ~uint16 | ~uint64](n I) bool {
	return n != 0 && n&(n-1) == 0
}

// RoundUp rounds n upwards to align, which must be a power of two.
func RoundUp[I ~int | ~uint | ~uintptr | ~uint64](n I, align I) I {
	return (n + align - 1) &^ (align - 1)
}

// Padding returns the number of bytes between n and the next multiple of
// align, which must be a power of two.
func Padding[I ~int | ~uint | ~uintptr | ~uint64](n I, align I) I {
	return RoundUp(n, align) - n
}

var pointerFreeCache sync.Map // reflect.Type -> bool

// PointerFree reports whether values of type T contain no Go pointers.
//
// Only pointer-free values may be stored in arena memory: the collector
// never scans the arena, so a Go pointer parked there would not keep its
// referent alive.
func PointerFree[T any]() bool {
	t := reflect.TypeFor[T]()
	if ok, hit := pointerFreeCache.Load(t); hit {
		return ok.(bool)
	}
	ok := pointerFree(t)
	pointerFreeCache.Store(t, ok)
	return ok
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
