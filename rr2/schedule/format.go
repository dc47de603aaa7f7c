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

package schedule

import (
	"fmt"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
)

// MaxTeams is the largest supported number of teams. It keeps the number of slots
// `2*n-2` within the 64 values of an IndexSet.
const MaxTeams = 32

// Format describes a compact double round-robin tournament.
type Format struct {
	NTeams int
	NSlots int
	// Phased is true if the tournament is split into two single round-robins: each pair
	// meets exactly once in slots `[1,NSlots/2]` and once in the remaining slots.
	Phased bool
}

// NewFormat returns the format of a double round-robin over `nteams` teams. The number of
// teams must be even and in `[2,MaxTeams]`.
func NewFormat(nteams int, phased bool) (Format, error) {
	if nteams < 2 || nteams > MaxTeams || nteams%2 != 0 {
		return Format{}, fmt.Errorf("nteams=%v must be even and in [2,%v]: %w", nteams, MaxTeams, ErrInvalidFormat)
	}
	return Format{NTeams: nteams, NSlots: 2*nteams - 2, Phased: phased}, nil
}

// Teams returns the set of all teams.
func (f Format) Teams() indexset.IndexSet {
	return indexset.Range(1, f.NTeams)
}

// Slots returns the set of all slots.
func (f Format) Slots() indexset.IndexSet {
	return indexset.Range(1, f.NSlots)
}

// FirstHalf returns the slots of the first single round-robin.
func (f Format) FirstHalf() indexset.IndexSet {
	return indexset.Range(1, f.NSlots/2)
}

// SecondHalf returns the slots of the second single round-robin.
func (f Format) SecondHalf() indexset.IndexSet {
	return indexset.Range(f.NSlots/2+1, f.NSlots)
}

// SameHalf reports whether slots `k` and `l` belong to the same half of the tournament.
func (f Format) SameHalf(k, l int) bool {
	return (k <= f.NSlots/2) == (l <= f.NSlots/2)
}

// Relaxed returns a copy of the format with the phase restriction dropped.
func (f Format) Relaxed() Format {
	f.Phased = false
	return f
}

func (f Format) String() string {
	return fmt.Sprintf("RR2(nteams=%v, nslots=%v, phased=%v)", f.NTeams, f.NSlots, f.Phased)
}
