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

package memory

import (
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
)

// Arena owns one contiguous byte region of fixed size, acquired from the
// runtime when the memory system initialises and held until shutdown.
//
// The region is allocated as a word array so its base is pointer-aligned.
// The anchor slice is the only Go-visible reference to the block: as long
// as the Arena value is reachable, every raw address handed out by the
// allocator stays valid. Nothing inside the region is ever scanned by the
// garbage collector, which is why only pointer-free values may live there.
type Arena struct {
	anchor []uint64
	size   uint64
}

// newArena acquires a zeroed region of at least size bytes.
func newArena(size uint64) Arena {
	debug.Assert(size > 0, "arena size must be greater than 0")

	words := xunsafe.RoundUp(size, uint64(xunsafe.PointerAlign)) / uint64(xunsafe.PointerAlign)
	a := Arena{
		anchor: make([]uint64, words),
		size:   size,
	}
	a.log("reserve", "%v, %d bytes", a.Base(), size)
	return a
}

// Base returns the first byte of the region.
func (a *Arena) Base() xunsafe.Addr[byte] {
	if a.anchor == nil {
		return 0
	}
	return xunsafe.CastAddr[byte](xunsafe.AddrOf(&a.anchor[0]))
}

// Size returns the region size in bytes.
func (a *Arena) Size() uint64 { return a.size }

// Contains reports whether addr lies inside the region.
func (a *Arena) Contains(addr xunsafe.Addr[byte]) bool {
	base := a.Base()
	return addr >= base && addr < base.ByteAdd(int(a.size))
}

// release drops the anchor, returning the region to the garbage collector.
// Every address into the arena is dangling after this call.
func (a *Arena) release() {
	a.log("release", "%v", a.Base())
	a.anchor = nil
	a.size = 0
}

func (a *Arena) log(op, format string, args ...any) {
	debug.Log([]any{"arena %v+%d", a.Base(), a.size}, op, format, args...)
}
