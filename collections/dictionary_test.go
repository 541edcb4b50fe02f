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

	"github.com/burrow-engine/burrow/internal/xhash"
)

// key64 is the minimal dictionary key for tests.
type key64 uint64

func (k key64) Hash() uint64        { return xhash.U64(uint64(k)) }
func (k key64) Equals(o key64) bool { return k == o }

func TestDictionary_AddGetRemove(t *testing.T) {
	withMemory(t, 1<<16)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	assert.True(t, d.IsEmpty())

	require.True(t, d.TryAdd(1, 100))
	require.True(t, d.TryAdd(2, 200))
	assert.False(t, d.TryAdd(1, 999), "duplicate keys are rejected")
	assert.EqualValues(t, 2, d.Count())

	var v uint64
	require.True(t, d.TryGet(1, &v))
	assert.EqualValues(t, 100, v)
	assert.False(t, d.TryGet(3, &v))
	assert.EqualValues(t, 100, v, "a miss leaves the output untouched")

	require.True(t, d.TryRemove(2))
	assert.False(t, d.TryRemove(2))
	assert.False(t, d.ContainsKey(2))
	assert.EqualValues(t, 1, d.Count())
}

func TestDictionary_Put_Upserts(t *testing.T) {
	withMemory(t, 1<<16)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	d.Put(7, 1)
	d.Put(7, 2)
	assert.EqualValues(t, 1, d.Count())

	var v uint64
	require.True(t, d.TryGet(7, &v))
	assert.EqualValues(t, 2, v)
}

func TestDictionary_TryGetRef_MutatesInPlace(t *testing.T) {
	withMemory(t, 1<<16)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	d.Put(1, 10)
	ref, ok := d.TryGetRef(1)
	require.True(t, ok)
	*ref = 42

	var v uint64
	require.True(t, d.TryGet(1, &v))
	assert.EqualValues(t, 42, v)

	_, ok = d.TryGetRef(2)
	assert.False(t, ok)
}

func TestDictionary_GrowthKeepsEntries(t *testing.T) {
	withMemory(t, 1<<18)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	const n = 1000
	for i := uint64(0); i < n; i++ {
		require.True(t, d.TryAdd(key64(i), i*i))
	}
	assert.EqualValues(t, n, d.Count())

	var v uint64
	for i := uint64(0); i < n; i++ {
		require.True(t, d.TryGet(key64(i), &v), "key %d lost in growth", i)
		assert.Equal(t, i*i, v)
	}
}

func TestDictionary_RemoveThenReinsert(t *testing.T) {
	withMemory(t, 1<<16)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	for i := uint64(0); i < 16; i++ {
		d.Put(key64(i), i)
	}
	for i := uint64(0); i < 16; i += 2 {
		require.True(t, d.TryRemove(key64(i)))
	}
	for i := uint64(0); i < 16; i += 2 {
		require.True(t, d.TryAdd(key64(i), i+1000), "tombstoned slots must be reusable")
	}

	var v uint64
	require.True(t, d.TryGet(4, &v))
	assert.EqualValues(t, 1004, v)
	require.True(t, d.TryGet(5, &v))
	assert.EqualValues(t, 5, v)
}

func TestDictionary_Each(t *testing.T) {
	withMemory(t, 1<<16)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	want := map[key64]uint64{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		d.Put(k, v)
	}

	got := map[key64]uint64{}
	d.Each(func(k *key64, v *uint64) {
		got[*k] = *v
	})
	assert.Equal(t, want, got)
}

func TestDictionary_Clear(t *testing.T) {
	withMemory(t, 1<<16)

	var d Dictionary[key64, uint64]
	defer d.Destroy()

	d.Put(1, 1)
	d.Put(2, 2)
	d.Clear()
	assert.EqualValues(t, 0, d.Count())
	assert.False(t, d.ContainsKey(1))

	d.Put(1, 5)
	var v uint64
	require.True(t, d.TryGet(1, &v))
	assert.EqualValues(t, 5, v)
}

func TestHashSet_AddContainsRemove(t *testing.T) {
	withMemory(t, 1<<16)

	var s HashSet[key64]
	defer s.Destroy()

	require.True(t, s.TryAdd(1))
	assert.False(t, s.TryAdd(1))
	require.True(t, s.TryAdd(2))
	assert.EqualValues(t, 2, s.Count())

	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(3))

	require.True(t, s.TryRemove(1))
	assert.False(t, s.Contains(1))
	assert.EqualValues(t, 1, s.Count())

	seen := map[key64]bool{}
	s.Each(func(k *key64) { seen[*k] = true })
	assert.Equal(t, map[key64]bool{2: true}, seen)
}
