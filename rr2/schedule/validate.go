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

// Validate checks that the schedule is a complete double round-robin:
//   - every cell names an opponent, and the opponent's cell names the team back with the
//     opposite venue;
//   - every team hosts and visits each other team exactly once;
//   - if the format is phased, each pair meets exactly once in the first half.
//
// The returned error wraps ErrInvalidSchedule.
func (s *Schedule) Validate() error {
	f := s.format
	for team := 1; team <= f.NTeams; team++ {
		var hosted, visited, firstHalf indexset.IndexSet
		for slot := 1; slot <= f.NSlots; slot++ {
			v := s.At(team, slot)
			opp := abs(v)
			if v == 0 || opp > f.NTeams || opp == team {
				return fmt.Errorf("team %v slot %v: invalid opponent %v: %w", team, slot, v, ErrInvalidSchedule)
			}
			if back := s.At(opp, slot); back != -sign(v)*team {
				return fmt.Errorf("team %v slot %v: opponent %v records %v: %w", team, slot, v, back, ErrInvalidSchedule)
			}
			seen := &visited
			if v > 0 {
				seen = &hosted
			}
			if seen.Contains(opp) {
				return fmt.Errorf("team %v meets %v twice with the same venue: %w", team, v, ErrInvalidSchedule)
			}
			*seen = seen.With(opp)
			if f.Phased && slot <= f.NSlots/2 {
				if firstHalf.Contains(opp) {
					return fmt.Errorf("team %v meets %v twice in the first phase: %w", team, opp, ErrInvalidSchedule)
				}
				firstHalf = firstHalf.With(opp)
			}
		}
	}
	return nil
}
