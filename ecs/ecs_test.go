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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/burrow-engine/burrow/memory"
)

const testArenaSize = 1 << 20

func withMemory(t *testing.T) {
	t.Helper()
	memory.Initialise(testArenaSize)
	t.Cleanup(func() {
		assert.EqualValues(t, 0, memory.UsedMemory(), "test leaked arena memory")
		if memory.UsedMemory() != 0 {
			memory.Allocator().Clear()
		}
		memory.Shutdown()
	})
}

type testComponent1 struct{ A, B int32 }

func (testComponent1) ComponentID() ComponentID { return 1 }

type testComponent2 struct{ C, D int32 }

func (testComponent2) ComponentID() ComponentID { return 2 }

type testComponent3 struct{ E, F int32 }

func (testComponent3) ComponentID() ComponentID { return 3 }
