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

// The tabu_search_sample command builds a small phased instance, runs a tabu search from
// the canonical schedule and prints the best schedule found.
package main

import (
	"context"
	"fmt"

	log "github.com/golang/glog"

	"github.com/janerikhein/RR2timetabling/rr2/constraint"
	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
	"github.com/janerikhein/RR2timetabling/rr2/tabu"
)

func tabuSearchSample() error {
	f, err := schedule.NewFormat(6, true)
	if err != nil {
		return err
	}

	// Team 1 hosts at most once in the first three slots, nobody has more than one break,
	// and the two meetings of a pair should be at least two slots apart.
	inst, err := constraint.NewBuilder("sample", f).
		SetTeamNames("Ajax", "Benfica", "Celtic", "Dynamo", "Espanyol", "Fenerbahce").
		Add(constraint.Capacity{Teams1: indexset.Single(1), Teams2: f.Teams(), Slots: indexset.Range(1, 3), UpperBound: 1, Mode: constraint.Home}).
		Add(constraint.Break{Teams: f.Teams(), Slots: f.Slots(), UpperBound: 1, Mode: constraint.Both}).
		Add(constraint.Separation{Teams: f.Teams(), LowerBound: 2, Pen: 5}).
		Instance()
	if err != nil {
		return fmt.Errorf("failed to build the instance: %w", err)
	}

	cfg := tabu.DefaultConfig()
	cfg.MaxIterations = 10000
	r, err := tabu.Run(context.Background(), inst, schedule.Canonical(f), cfg)
	if err != nil {
		return fmt.Errorf("failed to run the tabu search: %w", err)
	}

	fmt.Printf("Status: %v\n", r.Status)
	fmt.Printf("Value: %v after %v iterations\n", r.Value, r.Iterations)
	for team := 1; team <= f.NTeams; team++ {
		fmt.Printf("%-12s", inst.TeamName(team))
		for slot := 1; slot <= f.NSlots; slot++ {
			v := r.Schedule.At(team, slot)
			venue := "@"
			if v > 0 {
				venue = " "
			}
			opp := inst.TeamName(max(v, -v))
			fmt.Printf(" %s%-4.4s", venue, opp)
		}
		fmt.Println()
	}
	return nil
}

func main() {
	if err := tabuSearchSample(); err != nil {
		log.Exitf("tabuSearchSample returned with error: %v", err)
	}
}
