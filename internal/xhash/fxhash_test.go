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

package xhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestU64_Deterministic(t *testing.T) {
	assert.Equal(t, U64(1), U64(1))
	assert.NotEqual(t, U64(1), U64(2))
	assert.NotEqual(t, U64(0), U64(1), "zero and one must hash apart")
}

func TestWords_LengthMatters(t *testing.T) {
	a := Hash(0).Words([]uint64{1, 2}).Sum()
	b := Hash(0).Words([]uint64{1, 2, 0}).Sum()
	assert.NotEqual(t, a, b, "word count participates in the hash")

	assert.Equal(t,
		Hash(0).Words([]uint64{7, 8, 9}).Sum(),
		Hash(0).Words([]uint64{7, 8, 9}).Sum())
}

func TestU64_SpreadsLowBits(t *testing.T) {
	// Sequential ids must not collide in the low bits the dictionary masks
	// with.
	seen := map[uint64]bool{}
	for i := uint64(0); i < 1024; i++ {
		seen[U64(i)&1023] = true
	}
	assert.Greater(t, len(seen), 512, "low bits must spread across slots")
}
