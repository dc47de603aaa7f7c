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

package constraint

import (
	"golang.org/x/exp/constraints"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// maxPairs is the number of unordered pairs of schedule.MaxTeams teams.
const maxPairs = schedule.MaxTeams * (schedule.MaxTeams - 1) / 2

func abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Evaluate implements Constraint.
func (c Capacity) Evaluate(s *schedule.Schedule) int {
	count := 0
	for t := range c.Teams1.All() {
		for slot := range c.Slots.All() {
			v := s.At(t, slot)
			if c.Teams2.Contains(abs(v)) && c.Mode.matches(v) {
				count++
			}
		}
	}
	return max(count-c.UpperBound, 0)
}

// Entries implements Constraint.
func (c Capacity) Entries(f schedule.Format) schedule.CellMask {
	m := schedule.NewCellMask(f)
	for t := range c.Teams1.All() {
		m.AddRow(t, c.Slots)
	}
	return m
}

// Evaluate implements Constraint.
func (c Break) Evaluate(s *schedule.Schedule) int {
	count := 0
	for t := range c.Teams.All() {
		for slot := range c.Slots.Without(1).All() {
			prev, cur := s.At(t, slot-1), s.At(t, slot)
			var isBreak bool
			switch c.Mode {
			case Home:
				isBreak = prev > 0 && cur > 0
			case Away:
				isBreak = prev < 0 && cur < 0
			default:
				isBreak = (prev > 0) == (cur > 0)
			}
			if isBreak {
				count++
			}
		}
	}
	return max(count-c.UpperBound, 0)
}

// Entries implements Constraint.
func (c Break) Entries(f schedule.Format) schedule.CellMask {
	slots := c.Slots.Without(1)
	slots |= slots >> 1
	m := schedule.NewCellMask(f)
	for t := range c.Teams.All() {
		m.AddRow(t, slots)
	}
	return m
}

// Evaluate implements Constraint. Both the shortfall below LowerBound and the excess
// above UpperBound count towards the offset.
func (c Game) Evaluate(s *schedule.Schedule) int {
	count := 0
	for _, m := range c.Meetings {
		for slot := range c.Slots.All() {
			if s.At(m.Home, slot) == m.Away {
				count++
			}
		}
	}
	return max(c.LowerBound-count, 0) + max(count-c.UpperBound, 0)
}

// Entries implements Constraint.
func (c Game) Entries(f schedule.Format) schedule.CellMask {
	m := schedule.NewCellMask(f)
	for _, g := range c.Meetings {
		m.AddRow(g.Home, c.Slots)
	}
	return m
}

// Evaluate implements Constraint. For every pair of teams the largest difference in
// home games observed at a slot of Slots is compared with UpperBound.
func (c Fairness) Evaluate(s *schedule.Schedule) int {
	var (
		teams   [schedule.MaxTeams]int
		homes   [schedule.MaxTeams]int
		maxDiff [maxPairs]int
	)
	k := 0
	for t := range c.Teams.All() {
		teams[k] = t
		k++
	}
	last, _ := c.Slots.Max()
	for slot := 1; slot <= last; slot++ {
		for a := 0; a < k; a++ {
			if s.At(teams[a], slot) > 0 {
				homes[a]++
			}
		}
		if !c.Slots.Contains(slot) {
			continue
		}
		p := 0
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				maxDiff[p] = max(maxDiff[p], abs(homes[a]-homes[b]))
				p++
			}
		}
	}
	offset := 0
	for _, d := range maxDiff[:k*(k-1)/2] {
		offset += max(d-c.UpperBound, 0)
	}
	return offset
}

// Entries implements Constraint.
func (c Fairness) Entries(f schedule.Format) schedule.CellMask {
	last, _ := c.Slots.Max()
	m := schedule.NewCellMask(f)
	for t := range c.Teams.All() {
		m.AddRow(t, indexset.Range(1, last))
	}
	return m
}

// Evaluate implements Constraint. Two meetings in slots `s1` and `s2` are separated by
// `|s1-s2|-1` slots, so a pair contributes `max(LowerBound-|s1-s2|+1, 0)`.
func (c Separation) Evaluate(s *schedule.Schedule) int {
	return c.offset(s, 1)
}

// Gap returns the offset of `c` computed from the raw distance `|s1-s2|` of the two
// meetings of each pair, without accounting for the slot of the second meeting. Reports
// use this measure.
func (c Separation) Gap(s *schedule.Schedule) int {
	return c.offset(s, 0)
}

func (c Separation) offset(s *schedule.Schedule, correction int) int {
	offset := 0
	for i := range c.Teams.All() {
		for j := range c.Teams.All() {
			if j <= i {
				continue
			}
			d := abs(s.MeetingSlot(i, j) - s.MeetingSlot(j, i))
			offset += max(c.LowerBound-d+correction, 0)
		}
	}
	return offset
}

// Entries implements Constraint.
func (c Separation) Entries(f schedule.Format) schedule.CellMask {
	m := schedule.NewCellMask(f)
	for t := range c.Teams.All() {
		m.AddRow(t, f.Slots())
	}
	return m
}
