// Copyright 2024 The RR2timetabling Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package indexset provides a fixed-width set of small positive integers.
//
// An IndexSet stores a subset of `{1..64}` in a single 64-bit mask, value `v` being
// represented by bit `v-1`. Teams and slots of a double round-robin tournament are
// always 1-indexed and never exceed 64, so every subset of teams or slots used by the
// constraint language fits in one machine word.
package indexset

import (
	"errors"
	"fmt"
	"iter"
	"math/bits"
	"strings"
)

// MaxValue is the largest value an IndexSet can hold.
const MaxValue = 64

// ErrInvalidInput is returned when a set is built from a duplicate or out-of-range value.
var ErrInvalidInput = errors.New("invalid index set input")

// IndexSet is a subset of `{1..64}`.
type IndexSet uint64

// NewEmpty creates an empty IndexSet.
func NewEmpty() IndexSet {
	return 0
}

// FromValues creates a new IndexSet from `values`. Every value must lie in `[1,64]` and
// appear at most once, otherwise an error wrapping ErrInvalidInput is returned.
func FromValues(values ...int) (IndexSet, error) {
	var s IndexSet
	for _, v := range values {
		if v < 1 || v > MaxValue {
			return 0, fmt.Errorf("value %v out of range [1,%v]: %w", v, MaxValue, ErrInvalidInput)
		}
		if s.Contains(v) {
			return 0, fmt.Errorf("duplicate value %v: %w", v, ErrInvalidInput)
		}
		s |= 1 << (v - 1)
	}
	return s, nil
}

// MustFromValues is like FromValues but panics on invalid input. It is meant for
// literals in tests and samples.
func MustFromValues(values ...int) IndexSet {
	s, err := FromValues(values...)
	if err != nil {
		panic(err)
	}
	return s
}

// Range creates the set `{lo..hi}`. Bounds are clamped to `[1,64]`; if `lo > hi` the set
// is empty.
func Range(lo, hi int) IndexSet {
	lo = max(lo, 1)
	hi = min(hi, MaxValue)
	if lo > hi {
		return 0
	}
	upper := ^IndexSet(0) >> (MaxValue - hi)
	lower := IndexSet(1)<<(lo-1) - 1
	return upper &^ lower
}

// Single creates the singleton set `{v}`. It returns the empty set if `v` is out of range.
func Single(v int) IndexSet {
	if v < 1 || v > MaxValue {
		return 0
	}
	return 1 << (v - 1)
}

// Contains reports whether `v` is a member of the set.
func (s IndexSet) Contains(v int) bool {
	if v < 1 || v > MaxValue {
		return false
	}
	return s&(1<<(v-1)) != 0
}

// Len returns the cardinality of the set.
func (s IndexSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// IsEmpty reports whether the set has no members.
func (s IndexSet) IsEmpty() bool {
	return s == 0
}

// Union returns `s ∪ o`.
func (s IndexSet) Union(o IndexSet) IndexSet {
	return s | o
}

// Intersect returns `s ∩ o`.
func (s IndexSet) Intersect(o IndexSet) IndexSet {
	return s & o
}

// Difference returns `s \ o`.
func (s IndexSet) Difference(o IndexSet) IndexSet {
	return s &^ o
}

// Overlaps reports whether `s` and `o` share at least one member.
func (s IndexSet) Overlaps(o IndexSet) bool {
	return s&o != 0
}

// With returns the set with `v` added. Out-of-range values are ignored.
func (s IndexSet) With(v int) IndexSet {
	return s | Single(v)
}

// Without returns the set with `v` removed.
func (s IndexSet) Without(v int) IndexSet {
	return s &^ Single(v)
}

// Min returns the smallest member, and false if the set is empty.
func (s IndexSet) Min() (int, bool) {
	if s == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(s)) + 1, true
}

// Max returns the largest member, and false if the set is empty.
func (s IndexSet) Max() (int, bool) {
	if s == 0 {
		return 0, false
	}
	return MaxValue - bits.LeadingZeros64(uint64(s)), true
}

// All returns an iterator over the members in ascending order.
func (s IndexSet) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for rest := uint64(s); rest != 0; rest &= rest - 1 {
			if !yield(bits.TrailingZeros64(rest) + 1) {
				return
			}
		}
	}
}

// Values returns the members in ascending order.
func (s IndexSet) Values() []int {
	values := make([]int, 0, s.Len())
	for v := range s.All() {
		values = append(values, v)
	}
	return values
}

// String returns the set as `{a,b,c}`.
func (s IndexSet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for v := range s.All() {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		fmt.Fprint(&sb, v)
	}
	sb.WriteByte('}')
	return sb.String()
}
