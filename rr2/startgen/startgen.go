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

// Package startgen provides start schedules for the local search.
package startgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/crillab/gophersat/solver"
	log "github.com/golang/glog"

	"github.com/janerikhein/RR2timetabling/rr2/constraint"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// ErrNoStartSchedule is returned when no start schedule satisfies the hard constraints.
var ErrNoStartSchedule = errors.New("no start schedule")

// Starter provides the schedule a search starts from.
type Starter interface {
	StartSchedule(ctx context.Context, inst *constraint.Instance) (*schedule.Schedule, error)
}

// Canonical starts from the circle-method schedule and ignores every constraint.
type Canonical struct{}

// StartSchedule implements Starter.
func (Canonical) StartSchedule(ctx context.Context, inst *constraint.Instance) (*schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return schedule.Canonical(inst.Format), nil
}

// PseudoBoolean solves a pseudo-boolean model of the schedule with gophersat. The model
// holds the double round-robin structure, the phases if the format is phased, and every
// hard Capacity, Game and Break constraint. Hard Fairness and Separation constraints are
// left to the local search.
type PseudoBoolean struct{}

// StartSchedule implements Starter. Returns ErrNoStartSchedule if the model is
// unsatisfiable. If `ctx` ends first, its error is returned and the solve is abandoned.
// gophersat cannot be interrupted: an abandoned solve keeps running in the background
// until it finishes, so a deadline does not free the CPU it uses.
func (PseudoBoolean) StartSchedule(ctx context.Context, inst *constraint.Instance) (*schedule.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := newModel(inst)
	log.V(1).Infof("pseudo-boolean start model for %q: %v variables, %v constraints, patterns of teams %v restricted", inst.Name, m.nbVars, len(m.constrs), inst.PatternTeams())
	s := solver.New(solver.ParsePBConstrs(m.constrs))

	solveDone := make(chan solver.Status, 1)
	go func() {
		solveDone <- s.Solve()
	}()
	var status solver.Status
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case status = <-solveDone:
	}
	if status != solver.Sat {
		return nil, fmt.Errorf("start model for %q is %v: %w", inst.Name, status, ErrNoStartSchedule)
	}
	sch, err := m.decode(s.Model())
	if err != nil {
		log.Errorf("decoding the start model of %q: %v", inst.Name, err)
		return nil, err
	}
	return sch, nil
}

// model is the pseudo-boolean encoding of an instance. Variable x(i,j,s) is true if team
// i hosts team j in slot s; h(t,s) is true if team t plays at home in slot s; bh(t,s)
// and ba(t,s) are implied by a home or an away break of team t in slot s.
type model struct {
	inst    *constraint.Instance
	f       schedule.Format
	constrs []solver.PBConstr
	nbVars  int
}

func newModel(inst *constraint.Instance) *model {
	f := inst.Format
	m := &model{inst: inst, f: f, nbVars: (f.NTeams + 3) * f.NTeams * f.NSlots}
	m.addStructure()
	usesPatterns := false
	for _, c := range inst.Capacity {
		if !constraint.IsHard(c) {
			continue
		}
		if constraint.IsPatternConstraint(c, f) || constraint.IsPatternSetConstraint(c, f) {
			m.addPatternCapacity(c)
			usesPatterns = true
			continue
		}
		m.addCapacity(c)
	}
	for _, c := range inst.Game {
		if constraint.IsHard(c) {
			m.addGame(c)
		}
	}
	for _, c := range inst.Break {
		if constraint.IsHard(c) {
			m.addBreak(c)
			usesPatterns = true
		}
	}
	if usesPatterns {
		m.addHomeLinks()
	}
	return m
}

func (m *model) x(i, j, s int) int {
	return 1 + ((i-1)*m.f.NTeams+(j-1))*m.f.NSlots + (s - 1)
}

func (m *model) aux(block, t, s int) int {
	n := m.f.NTeams
	return 1 + n*n*m.f.NSlots + (block*n+(t-1))*m.f.NSlots + (s - 1)
}

func (m *model) h(t, s int) int  { return m.aux(0, t, s) }
func (m *model) bh(t, s int) int { return m.aux(1, t, s) }
func (m *model) ba(t, s int) int { return m.aux(2, t, s) }

func (m *model) exactlyOne(lits []int) {
	m.constrs = append(m.constrs, solver.AtLeast(append([]int(nil), lits...), 1), solver.AtMost(lits, 1))
}

func (m *model) addStructure() {
	n, nslots := m.f.NTeams, m.f.NSlots
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			if i == j {
				continue
			}
			lits := make([]int, 0, nslots)
			for s := 1; s <= nslots; s++ {
				lits = append(lits, m.x(i, j, s))
			}
			m.exactlyOne(lits)
		}
	}
	for t := 1; t <= n; t++ {
		for s := 1; s <= nslots; s++ {
			lits := make([]int, 0, 2*n)
			for o := 1; o <= n; o++ {
				if o != t {
					lits = append(lits, m.x(t, o, s), m.x(o, t, s))
				}
			}
			m.exactlyOne(lits)
		}
	}
	if !m.f.Phased {
		return
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			var lits []int
			for s := range m.f.FirstHalf().All() {
				lits = append(lits, m.x(i, j, s), m.x(j, i, s))
			}
			m.exactlyOne(lits)
		}
	}
}

// addHomeLinks makes h(t,s) equal to the disjunction of the home games of t in s.
func (m *model) addHomeLinks() {
	n := m.f.NTeams
	for t := 1; t <= n; t++ {
		for s := 1; s <= m.f.NSlots; s++ {
			games := []int{-m.h(t, s)}
			for o := 1; o <= n; o++ {
				if o != t {
					m.constrs = append(m.constrs, solver.PropClause(-m.x(t, o, s), m.h(t, s)))
					games = append(games, m.x(t, o, s))
				}
			}
			m.constrs = append(m.constrs, solver.PropClause(games...))
		}
	}
}

func (m *model) addCapacity(c constraint.Capacity) {
	var lits []int
	for t1 := range c.Teams1.All() {
		for t2 := range c.Teams2.Without(t1).All() {
			for s := range c.Slots.All() {
				if c.Mode != constraint.Away {
					lits = append(lits, m.x(t1, t2, s))
				}
				if c.Mode != constraint.Home {
					lits = append(lits, m.x(t2, t1, s))
				}
			}
		}
	}
	m.constrs = append(m.constrs, solver.AtMost(lits, c.UpperBound))
}

// addPatternCapacity encodes a Capacity counting every game of its teams with the home
// literals only.
func (m *model) addPatternCapacity(c constraint.Capacity) {
	var lits []int
	for t := range c.Teams1.All() {
		for s := range c.Slots.All() {
			if c.Mode == constraint.Home {
				lits = append(lits, m.h(t, s))
			} else {
				lits = append(lits, -m.h(t, s))
			}
		}
	}
	m.constrs = append(m.constrs, solver.AtMost(lits, c.UpperBound))
}

func (m *model) addGame(c constraint.Game) {
	var lits []int
	for _, g := range c.Meetings {
		for s := range c.Slots.All() {
			lits = append(lits, m.x(g.Home, g.Away, s))
		}
	}
	if c.LowerBound > 0 {
		m.constrs = append(m.constrs, solver.AtLeast(append([]int(nil), lits...), c.LowerBound))
	}
	m.constrs = append(m.constrs, solver.AtMost(lits, c.UpperBound))
}

func (m *model) addBreak(c constraint.Break) {
	var lits []int
	for t := range c.Teams.All() {
		for s := range c.Slots.Without(1).All() {
			if c.Mode != constraint.Away {
				m.constrs = append(m.constrs, solver.PropClause(-m.h(t, s-1), -m.h(t, s), m.bh(t, s)))
				lits = append(lits, m.bh(t, s))
			}
			if c.Mode != constraint.Home {
				m.constrs = append(m.constrs, solver.PropClause(m.h(t, s-1), m.h(t, s), m.ba(t, s)))
				lits = append(lits, m.ba(t, s))
			}
		}
	}
	m.constrs = append(m.constrs, solver.AtMost(lits, c.UpperBound))
}

// decode reads the games off a satisfying assignment. `values[v-1]` is the value of
// variable v.
func (m *model) decode(values []bool) (*schedule.Schedule, error) {
	var games []schedule.Game
	n := m.f.NTeams
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			if i == j {
				continue
			}
			for s := 1; s <= m.f.NSlots; s++ {
				if v := m.x(i, j, s); v <= len(values) && values[v-1] {
					games = append(games, schedule.Game{Home: i, Away: j, Slot: s})
				}
			}
		}
	}
	sch, err := schedule.FromGames(m.f, games)
	if err != nil {
		return nil, fmt.Errorf("decoding %v games: %w", len(games), err)
	}
	return sch, nil
}
