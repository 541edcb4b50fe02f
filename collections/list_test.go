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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrow-engine/burrow/memory"
)

func withMemory(t *testing.T, bytes uint64) {
	t.Helper()
	memory.Initialise(bytes)
	t.Cleanup(func() {
		assert.EqualValues(t, 0, memory.UsedMemory(), "test leaked arena memory")
		if memory.UsedMemory() != 0 {
			memory.Allocator().Clear()
		}
		memory.Shutdown()
	})
}

func TestList_AddAndIndex(t *testing.T) {
	withMemory(t, 4096)

	var l List[uint64]
	defer l.Destroy()

	assert.True(t, l.IsEmpty())
	for i := uint64(0); i < 100; i++ {
		l.Add(i * 3)
	}
	assert.EqualValues(t, 100, l.Count())

	for i := uint64(0); i < 100; i++ {
		assert.Equal(t, i*3, l.Get(i))
	}

	l.Set(5, 999)
	assert.EqualValues(t, 999, l.Get(5))
	*l.At(6) = 1000
	assert.EqualValues(t, 1000, l.Get(6))
}

func TestList_TryRemoveAt_SwapsLastIn(t *testing.T) {
	withMemory(t, 4096)

	var l List[uint64]
	defer l.Destroy()

	for i := uint64(0); i < 5; i++ {
		l.Add(i)
	}

	require.True(t, l.TryRemoveAt(1))
	assert.EqualValues(t, 4, l.Count())
	assert.EqualValues(t, 4, l.Get(1), "the last element moves into the vacated slot")

	assert.False(t, l.TryRemoveAt(10))
}

func TestList_OrderedRemoveAt_PreservesOrder(t *testing.T) {
	withMemory(t, 4096)

	var l List[uint64]
	defer l.Destroy()

	for i := uint64(0); i < 5; i++ {
		l.Add(i)
	}

	require.True(t, l.OrderedRemoveAt(1))
	assert.Equal(t, []uint64{0, 2, 3, 4}, l.Raw())
}

func TestList_CloneIsIndependent(t *testing.T) {
	withMemory(t, 4096)

	var l List[uint64]
	defer l.Destroy()
	l.Add(1)
	l.Add(2)

	c := l.Clone()
	defer c.Destroy()
	c.Set(0, 42)

	assert.EqualValues(t, 1, l.Get(0))
	assert.EqualValues(t, 42, c.Get(0))
}

func TestList_DestroyReleasesEverything(t *testing.T) {
	withMemory(t, 4096)

	var l List[uint64]
	for i := uint64(0); i < 64; i++ {
		l.Add(i)
	}
	l.Destroy()
	assert.EqualValues(t, 0, memory.UsedMemory())
	assert.True(t, l.IsEmpty())
}

func TestStack_PushPopPeek(t *testing.T) {
	withMemory(t, 4096)

	var s Stack[uint64]
	defer s.Destroy()

	var v uint64
	assert.False(t, s.TryPop(&v))
	assert.False(t, s.TryPeek(&v))

	s.Push(1)
	s.Push(2)
	s.Push(3)
	assert.EqualValues(t, 3, s.Count())

	require.True(t, s.TryPeek(&v))
	assert.EqualValues(t, 3, v)
	assert.EqualValues(t, 3, s.Count(), "peek does not remove")

	require.True(t, s.TryPop(&v))
	assert.EqualValues(t, 3, v)
	require.True(t, s.TryPop(&v))
	assert.EqualValues(t, 2, v)
	require.True(t, s.TryPop(&v))
	assert.EqualValues(t, 1, v)
	assert.False(t, s.TryPop(&v))
}
