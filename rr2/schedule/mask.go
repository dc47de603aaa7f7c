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
	"iter"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
)

// CellMask is a set of `(team,slot)` cells stored as one slot set per team: `m[team-1]`
// holds the slots of that team's row.
type CellMask []indexset.IndexSet

// NewCellMask creates an empty mask for `f`.
func NewCellMask(f Format) CellMask {
	return make(CellMask, f.NTeams)
}

// FullCellMask creates a mask covering every cell of `f`.
func FullCellMask(f Format) CellMask {
	m := NewCellMask(f)
	m.Fill(f)
	return m
}

// Fill adds every cell of `f` to the mask.
func (m CellMask) Fill(f Format) {
	slots := f.Slots()
	for i := range m {
		m[i] = slots
	}
}

// Clear removes every cell from the mask.
func (m CellMask) Clear() {
	for i := range m {
		m[i] = 0
	}
}

// Add adds cell `(team,slot)`.
func (m CellMask) Add(team, slot int) {
	m[team-1] = m[team-1].With(slot)
}

// AddRow adds the cells `(team,s)` for every `s` in `slots`.
func (m CellMask) AddRow(team int, slots indexset.IndexSet) {
	m[team-1] |= slots
}

// Contains reports whether cell `(team,slot)` is in the mask.
func (m CellMask) Contains(team, slot int) bool {
	return m[team-1].Contains(slot)
}

// Row returns the slots of `team` in the mask.
func (m CellMask) Row(team int) indexset.IndexSet {
	return m[team-1]
}

// Teams returns the teams with at least one cell in the mask.
func (m CellMask) Teams() indexset.IndexSet {
	var teams indexset.IndexSet
	for i, slots := range m {
		if !slots.IsEmpty() {
			teams = teams.With(i + 1)
		}
	}
	return teams
}

// IsEmpty reports whether the mask holds no cell.
func (m CellMask) IsEmpty() bool {
	for _, slots := range m {
		if !slots.IsEmpty() {
			return false
		}
	}
	return true
}

// Len returns the number of cells in the mask.
func (m CellMask) Len() int {
	n := 0
	for _, slots := range m {
		n += slots.Len()
	}
	return n
}

// Overlaps reports whether both masks share a cell.
func (m CellMask) Overlaps(o CellMask) bool {
	for i, slots := range m {
		if slots.Overlaps(o[i]) {
			return true
		}
	}
	return false
}

// UnionWith adds every cell of `o` to `m`.
func (m CellMask) UnionWith(o CellMask) {
	for i, slots := range o {
		m[i] |= slots
	}
}

// Clone returns a copy of the mask.
func (m CellMask) Clone() CellMask {
	c := make(CellMask, len(m))
	copy(c, m)
	return c
}

// All returns an iterator over the `(team,slot)` cells of the mask.
func (m CellMask) All() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for i, slots := range m {
			for slot := range slots.All() {
				if !yield(i+1, slot) {
					return
				}
			}
		}
	}
}

// Diff sets `m` to the cells in which `a` and `b` differ and returns it.
func (m CellMask) Diff(a, b *Schedule) CellMask {
	nslots := a.format.NSlots
	for i := range m {
		var slots indexset.IndexSet
		row := i * nslots
		for k := 0; k < nslots; k++ {
			if a.cells[row+k] != b.cells[row+k] {
				slots |= 1 << k
			}
		}
		m[i] = slots
	}
	return m
}
