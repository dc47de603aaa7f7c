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

// Package neighborhood defines the moves of the local search and enumerates them.
package neighborhood

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// Kind identifies a move family.
type Kind uint8

// Move families. Operands are listed in the order A, B, C.
const (
	// SwapHomes(i, j) with i < j.
	SwapHomes Kind = iota
	// SwapRounds(k, l) with k < l.
	SwapRounds
	// SwapTeams(i, j) with i < j.
	SwapTeams
	// PartialSwapRounds(i, k, l) with k < l.
	PartialSwapRounds
	// PartialSwapTeams(i, j, k) with i < j.
	PartialSwapTeams
)

func (k Kind) String() string {
	switch k {
	case SwapHomes:
		return "SwapHomes"
	case SwapRounds:
		return "SwapRounds"
	case SwapTeams:
		return "SwapTeams"
	case PartialSwapRounds:
		return "PartialSwapRounds"
	case PartialSwapTeams:
		return "PartialSwapTeams"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Move is a move of one of the five families. Moves are comparable and can be used as
// map keys. Unused operands are zero.
type Move struct {
	Kind Kind
	A    int
	B    int
	C    int
}

func (m Move) String() string {
	switch m.Kind {
	case SwapHomes, SwapRounds, SwapTeams:
		return fmt.Sprintf("%v(%v,%v)", m.Kind, m.A, m.B)
	}
	return fmt.Sprintf("%v(%v,%v,%v)", m.Kind, m.A, m.B, m.C)
}

// Apply performs the move on `s`. For partial swaps it returns the footprint of the move:
// the teams exchanged by PartialSwapRounds or the slots exchanged by PartialSwapTeams.
// Other moves return the empty set.
func (m Move) Apply(s *schedule.Schedule) indexset.IndexSet {
	switch m.Kind {
	case SwapHomes:
		s.SwapHomes(m.A, m.B)
	case SwapRounds:
		s.SwapRounds(m.A, m.B)
	case SwapTeams:
		s.SwapTeams(m.A, m.B)
	case PartialSwapRounds:
		return s.PartialSwapRounds(m.A, m.B, m.C)
	case PartialSwapTeams:
		return s.PartialSwapTeams(m.A, m.B, m.C)
	default:
		log.Fatalf("Apply(%v): unknown move kind", m)
	}
	return 0
}

// Equivalents appends to `dst` the other moves that produce the same schedule as `m` from
// the schedule `m` was applied to, given the footprint returned by Apply:
//   - PartialSwapRounds(i, k, l) exchanges the same teams as PartialSwapRounds(t, k, l)
//     for every team t of the footprint, and equals SwapRounds(k, l) if the footprint
//     holds every team;
//   - PartialSwapTeams(i, j, k) exchanges the same slots as PartialSwapTeams(i, j, s) for
//     every slot s of the footprint.
//
// Other moves have no equivalents.
func (m Move) Equivalents(footprint indexset.IndexSet, f schedule.Format, dst []Move) []Move {
	switch m.Kind {
	case PartialSwapRounds:
		for t := range footprint.Without(m.A).All() {
			dst = append(dst, Move{Kind: PartialSwapRounds, A: t, B: m.B, C: m.C})
		}
		if footprint == f.Teams() {
			dst = append(dst, Move{Kind: SwapRounds, A: m.B, B: m.C})
		}
	case PartialSwapTeams:
		for slot := range footprint.Without(m.C).All() {
			dst = append(dst, Move{Kind: PartialSwapTeams, A: m.A, B: m.B, C: slot})
		}
	}
	return dst
}

// Generate enumerates the moves of format `f` in a deterministic order. SwapHomes and
// SwapTeams range over all pairs of teams. If `f` is phased, SwapRounds and
// PartialSwapRounds only exchange slots of the same half and PartialSwapTeams is left out,
// so that every move keeps the phases; otherwise all pairs of slots are used and
// PartialSwapTeams ranges over every pair of teams and every slot.
func Generate(f schedule.Format) []Move {
	var moves []Move
	n, nslots := f.NTeams, f.NSlots
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			moves = append(moves, Move{Kind: SwapHomes, A: i, B: j})
		}
	}
	for k := 1; k <= nslots; k++ {
		for l := k + 1; l <= nslots; l++ {
			if f.Phased && !f.SameHalf(k, l) {
				continue
			}
			moves = append(moves, Move{Kind: SwapRounds, A: k, B: l})
		}
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			moves = append(moves, Move{Kind: SwapTeams, A: i, B: j})
		}
	}
	for i := 1; i <= n; i++ {
		for k := 1; k <= nslots; k++ {
			for l := k + 1; l <= nslots; l++ {
				if f.Phased && !f.SameHalf(k, l) {
					continue
				}
				moves = append(moves, Move{Kind: PartialSwapRounds, A: i, B: k, C: l})
			}
		}
	}
	if f.Phased {
		return moves
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			for k := 1; k <= nslots; k++ {
				moves = append(moves, Move{Kind: PartialSwapTeams, A: i, B: j, C: k})
			}
		}
	}
	return moves
}
