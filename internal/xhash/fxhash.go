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

// Package xhash provides the hash function used for component ids, entity
// ids and archetype fingerprints.
package xhash

import "math/bits"

// Hash is an fxhash state. The zero Hash is the initial state.
//
// See https://docs.rs/fxhash.
type Hash uint64

const (
	rotate = 5
	key    = 0x517cc1b727220a95
)

// U64 mixes n into the hash state.
func (h Hash) U64(n uint64) Hash {
	var lo, hi uint64
	hi, lo = bits.Mul64(bits.RotateLeft64(uint64(h), rotate)^n, key)
	return Hash(lo ^ hi)
}

// Words mixes a word slice into the hash state.
func (h Hash) Words(words []uint64) Hash {
	h = h.U64(uint64(len(words)))
	for _, w := range words {
		h = h.U64(w)
	}
	return h
}

// Sum returns the current hash value.
func (h Hash) Sum() uint64 { return uint64(h) }

// U64 hashes a single 64-bit value.
func U64(n uint64) uint64 {
	return Hash(0).U64(n).Sum()
}
