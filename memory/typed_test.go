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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrow-engine/burrow/internal/xunsafe"
)

type testRecord struct {
	A int64
	B float64
	C [4]uint16
}

func TestNewDelete(t *testing.T) {
	withMemory(t, testArenaSize)

	before := UsedMemory()

	r := New(testRecord{A: 7, B: 2.5, C: [4]uint16{1, 2, 3, 4}})
	require.NotNil(t, r)
	assert.EqualValues(t, 7, r.A)
	assert.Equal(t, 2.5, r.B)
	assert.Equal(t, [4]uint16{1, 2, 3, 4}, r.C)

	Delete(r)
	assert.Equal(t, before, UsedMemory())
}

func TestNew_PointerFullTypeIsFatal(t *testing.T) {
	withMemory(t, testArenaSize)

	assert.Panics(t, func() { New(struct{ P *int }{}) })
}

func TestDelete_NilIsNoOp(t *testing.T) {
	withMemory(t, testArenaSize)

	Delete[testRecord](nil)
	assert.EqualValues(t, 0, UsedMemory())
}

func TestBufferNewDelete_RoundTrip(t *testing.T) {
	withMemory(t, testArenaSize)

	before := UsedMemory()

	const n = 10
	buf := BufferNew[testRecord](n)
	require.NotNil(t, buf)

	for i := 0; i < n; i++ {
		assert.Equal(t, testRecord{}, *xunsafe.Add(buf, i), "elements start at the zero value")
	}

	for i := 0; i < n; i++ {
		xunsafe.Add(buf, i).A = int64(i)
	}
	for i := 0; i < n; i++ {
		assert.EqualValues(t, i, xunsafe.Add(buf, i).A)
	}

	BufferDelete(buf, n)
	assert.Equal(t, before, UsedMemory(), "buffer delete after buffer new is a no-op on used")
}

func TestBufferNew_ZeroesReclaimedMemory(t *testing.T) {
	withMemory(t, testArenaSize)

	first := BufferNew[uint64](8)
	require.NotNil(t, first)
	for i := 0; i < 8; i++ {
		*xunsafe.Add(first, i) = ^uint64(0)
	}
	BufferDelete(first, 8)

	second := BufferNew[uint64](8)
	require.NotNil(t, second)
	for i := 0; i < 8; i++ {
		assert.Zero(t, *xunsafe.Add(second, i))
	}
	BufferDelete(second, 8)
}

func TestUnsafeNewDelete(t *testing.T) {
	withMemory(t, testArenaSize)

	h := UnsafeNew(24)
	require.True(t, h.IsValid())
	assert.EqualValues(t, 24, h.Size)

	UnsafeDelete(h)
	assert.EqualValues(t, 0, UsedMemory())
}
