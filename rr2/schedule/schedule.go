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

// Package schedule holds the matrix representation of a double round-robin schedule and
// the in-place moves that keep it a valid round-robin.
//
// A Schedule is an `nteams x nslots` matrix. Cell `(i,s)` holds `+j` if team `i` hosts
// team `j` in slot `s`, `-j` if `i` plays away at `j`, and 0 if the cell is unused. Teams
// and slots are 1-indexed everywhere.
//
// The moves assume a valid schedule and keep it valid. A violated precondition means an
// invariant was broken upstream and is reported with log.Fatalf.
package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidFormat is returned for unsupported tournament sizes.
	ErrInvalidFormat = errors.New("invalid round-robin format")
	// ErrInvalidSchedule is returned when a matrix is not a valid double round-robin.
	ErrInvalidSchedule = errors.New("invalid double round-robin schedule")
)

// Game is a single meeting of a schedule.
type Game struct {
	Home int
	Away int
	Slot int
}

// Schedule is a double round-robin schedule.
type Schedule struct {
	format Format
	cells  []int
}

// New creates a schedule with all cells unused.
func New(f Format) *Schedule {
	return &Schedule{format: f, cells: make([]int, f.NTeams*f.NSlots)}
}

// FromRows creates a schedule from `rows[team-1][slot-1]` and validates it.
func FromRows(f Format, rows [][]int) (*Schedule, error) {
	if len(rows) != f.NTeams {
		return nil, fmt.Errorf("got %v rows, want %v: %w", len(rows), f.NTeams, ErrInvalidSchedule)
	}
	s := New(f)
	for i, row := range rows {
		if len(row) != f.NSlots {
			return nil, fmt.Errorf("row %v has %v slots, want %v: %w", i+1, len(row), f.NSlots, ErrInvalidSchedule)
		}
		copy(s.cells[i*f.NSlots:], row)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Format returns the format of the schedule.
func (s *Schedule) Format() Format {
	return s.format
}

func (s *Schedule) index(team, slot int) int {
	return (team-1)*s.format.NSlots + slot - 1
}

// At returns the value of cell `(team,slot)`.
func (s *Schedule) At(team, slot int) int {
	return s.cells[s.index(team, slot)]
}

// Set sets cell `(team,slot)`. It does not maintain the opponent's cell.
func (s *Schedule) Set(team, slot, v int) {
	s.cells[s.index(team, slot)] = v
}

// SetGame records that `home` hosts `away` in `slot`, updating both cells.
func (s *Schedule) SetGame(home, away, slot int) {
	s.Set(home, slot, away)
	s.Set(away, slot, -home)
}

// IsHome reports whether `team` plays at home in `slot`.
func (s *Schedule) IsHome(team, slot int) bool {
	return s.At(team, slot) > 0
}

// Opponent returns the opponent of `team` in `slot`, or 0 if the cell is unused.
func (s *Schedule) Opponent(team, slot int) int {
	return abs(s.At(team, slot))
}

// MeetingSlot returns the slot in which `home` hosts `away`, or 0 if it does not.
func (s *Schedule) MeetingSlot(home, away int) int {
	row := s.cells[s.index(home, 1) : s.index(home, 1)+s.format.NSlots]
	for k, v := range row {
		if v == away {
			return k + 1
		}
	}
	return 0
}

// Clone returns a deep copy of the schedule.
func (s *Schedule) Clone() *Schedule {
	c := &Schedule{format: s.format, cells: make([]int, len(s.cells))}
	copy(c.cells, s.cells)
	return c
}

// CopyFrom overwrites `s` with the cells of `o`. Both schedules must share a format.
func (s *Schedule) CopyFrom(o *Schedule) {
	copy(s.cells, o.cells)
}

// CopyCells copies the cells of `o` selected by `mask` into `s`.
func (s *Schedule) CopyCells(o *Schedule, mask CellMask) {
	for team, slots := range mask {
		for slot := range slots.All() {
			i := s.index(team+1, slot)
			s.cells[i] = o.cells[i]
		}
	}
}

// Equal reports whether both schedules have the same format and cells.
func (s *Schedule) Equal(o *Schedule) bool {
	if s.format != o.format {
		return false
	}
	for i, v := range s.cells {
		if o.cells[i] != v {
			return false
		}
	}
	return true
}

// Rows returns a copy of the matrix as `rows[team-1][slot-1]`.
func (s *Schedule) Rows() [][]int {
	rows := make([][]int, s.format.NTeams)
	for i := range rows {
		rows[i] = make([]int, s.format.NSlots)
		copy(rows[i], s.cells[i*s.format.NSlots:(i+1)*s.format.NSlots])
	}
	return rows
}

// Games returns one Game per positive cell, ordered by slot then by home team.
func (s *Schedule) Games() []Game {
	games := make([]Game, 0, len(s.cells)/2)
	for slot := 1; slot <= s.format.NSlots; slot++ {
		for team := 1; team <= s.format.NTeams; team++ {
			if v := s.At(team, slot); v > 0 {
				games = append(games, Game{Home: team, Away: v, Slot: slot})
			}
		}
	}
	return games
}

// FromGames builds a schedule from a list of games and validates it.
func FromGames(f Format, games []Game) (*Schedule, error) {
	s := New(f)
	for _, g := range games {
		if g.Home < 1 || g.Home > f.NTeams || g.Away < 1 || g.Away > f.NTeams || g.Slot < 1 || g.Slot > f.NSlots {
			return nil, fmt.Errorf("game %+v out of range for %v: %w", g, f, ErrInvalidSchedule)
		}
		if s.At(g.Home, g.Slot) != 0 || s.At(g.Away, g.Slot) != 0 {
			return nil, fmt.Errorf("game %+v overlaps another game: %w", g, ErrInvalidSchedule)
		}
		s.SetGame(g.Home, g.Away, g.Slot)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schedule) String() string {
	var sb strings.Builder
	for team := 1; team <= s.format.NTeams; team++ {
		for slot := 1; slot <= s.format.NSlots; slot++ {
			if slot > 1 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%3d", s.At(team, slot))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
