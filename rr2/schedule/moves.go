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
	log "github.com/golang/glog"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
)

// SwapHomes exchanges the venues of the two meetings of teams `i` and `j`.
func (s *Schedule) SwapHomes(i, j int) {
	home := s.MeetingSlot(i, j)
	away := s.MeetingSlot(j, i)
	if home == 0 || away == 0 {
		log.Fatalf("SwapHomes(%v, %v): teams do not meet twice in\n%v", i, j, s)
	}
	s.SetGame(j, i, home)
	s.SetGame(i, j, away)
}

// SwapRounds exchanges slots `k` and `l` for every team.
func (s *Schedule) SwapRounds(k, l int) {
	for team := 1; team <= s.format.NTeams; team++ {
		a, b := s.index(team, k), s.index(team, l)
		s.cells[a], s.cells[b] = s.cells[b], s.cells[a]
	}
}

// SwapTeams exchanges the games of teams `i` and `j` in every slot in which they do not
// meet each other. Opponents keep their venue.
func (s *Schedule) SwapTeams(i, j int) {
	for slot := 1; slot <= s.format.NSlots; slot++ {
		if abs(s.At(i, slot)) != j {
			s.swapInSlot(i, j, slot)
		}
	}
}

// swapInSlot exchanges the games of `i` and `j` in `slot`. The two teams must not meet
// in that slot.
func (s *Schedule) swapInSlot(i, j, slot int) {
	a, b := s.At(i, slot), s.At(j, slot)
	s.Set(i, slot, b)
	s.Set(j, slot, a)
	oa, ob := abs(a), abs(b)
	s.Set(oa, slot, sign(s.At(oa, slot))*j)
	s.Set(ob, slot, sign(s.At(ob, slot))*i)
}

// PartialSwapRounds exchanges the games of team `i` in slots `k` and `l`, together with
// the games of every team drawn into the exchange: the smallest set of teams containing
// `i` that is closed under taking opponents in `k` and in `l`. If that set holds every
// team, the move equals SwapRounds(k, l).
func (s *Schedule) PartialSwapRounds(i, k, l int) indexset.IndexSet {
	if k == l {
		return 0
	}
	var teams indexset.IndexSet
	pending := indexset.Single(i)
	for !pending.IsEmpty() {
		t, _ := pending.Min()
		pending = pending.Without(t)
		teams = teams.With(t)
		pending |= (indexset.Single(s.Opponent(t, k)) | indexset.Single(s.Opponent(t, l))) &^ teams
	}
	for t := range teams.All() {
		a, b := s.index(t, k), s.index(t, l)
		s.cells[a], s.cells[b] = s.cells[b], s.cells[a]
	}
	return teams
}

// PartialSwapTeams exchanges the games of teams `i` and `j` in slot `k`, then repairs
// the row of `i` by walking forward through the slots in cyclic order: whenever the game
// just received by `i` duplicates one it already plays elsewhere, the games of `i` and `j`
// in that other slot are exchanged too. It returns the set of slots that were exchanged,
// which is empty if `i` and `j` meet in `k`.
func (s *Schedule) PartialSwapTeams(i, j, k int) indexset.IndexSet {
	if abs(s.At(i, k)) == j {
		return 0
	}
	nslots := s.format.NSlots
	s.swapInSlot(i, j, k)
	swapped := indexset.Single(k)
	for current := k; ; {
		v := s.At(i, current)
		next := 0
		for off := 1; off < nslots; off++ {
			slot := (current-1+off)%nslots + 1
			if !swapped.Contains(slot) && s.At(i, slot) == v {
				next = slot
				break
			}
		}
		if next == 0 {
			break
		}
		if abs(s.At(i, next)) == j {
			log.Fatalf("PartialSwapTeams(%v, %v, %v): repair chain reached a meeting of the swapped teams in slot %v", i, j, k, next)
		}
		s.swapInSlot(i, j, next)
		swapped = swapped.With(next)
		current = next
	}
	return swapped
}
