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

// MemoryFootprint reports the placement of one live allocation.
type MemoryFootprint struct {
	// Name is the debug label supplied by the inspecting caller.
	Name string
	// Pointer is the user pointer the footprint was taken for.
	Pointer *byte
	// Size is the total slot footprint: pre-header padding, header, body
	// and any absorbed trailing bytes.
	Size uint64
	// Offset is the user pointer's distance from the arena base.
	Offset uint64
	// Padding is the byte count between the slot's natural start and the
	// header; zero when the slot begins on a platform-aligned boundary and
	// the requested alignment is at most the platform alignment. Larger
	// alignments can leave padding even on an aligned slot.
	Padding uint16
	// Alignment is the alignment the user pointer actually honours, capped
	// at the platform alignment.
	Alignment uint16
}

// DebugHandle names a pointer for footprint inspection. Collections hand
// lists of these to [CheckMemoryFootprint] so their backing buffers show up
// under a readable label.
type DebugHandle struct {
	Name    string
	Pointer *byte
}
