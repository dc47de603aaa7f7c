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
	"fmt"
	"slices"

	log "github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// Instance is a timetabling problem: a format and the constraints grouped by family.
type Instance struct {
	Name       string
	Format     schedule.Format
	TeamNames  []string
	Capacity   []Capacity
	Break      []Break
	Game       []Game
	Fairness   []Fairness
	Separation []Separation
}

// Constraints returns every constraint of the instance, families in the order Capacity,
// Break, Game, Fairness, Separation. Indices into the result are stable for a given
// instance.
func (in *Instance) Constraints() []Constraint {
	cs := make([]Constraint, 0, in.Len())
	cs = append(cs, lo.Map(in.Capacity, func(c Capacity, _ int) Constraint { return c })...)
	cs = append(cs, lo.Map(in.Break, func(c Break, _ int) Constraint { return c })...)
	cs = append(cs, lo.Map(in.Game, func(c Game, _ int) Constraint { return c })...)
	cs = append(cs, lo.Map(in.Fairness, func(c Fairness, _ int) Constraint { return c })...)
	cs = append(cs, lo.Map(in.Separation, func(c Separation, _ int) Constraint { return c })...)
	return cs
}

// Len returns the number of constraints of the instance.
func (in *Instance) Len() int {
	return len(in.Capacity) + len(in.Break) + len(in.Game) + len(in.Fairness) + len(in.Separation)
}

// TeamName returns the name of `team`, or its number if the instance has no names.
func (in *Instance) TeamName(team int) string {
	if team >= 1 && team <= len(in.TeamNames) {
		return in.TeamNames[team-1]
	}
	return fmt.Sprint(team)
}

// PhaseConstraints returns the hard Game constraints that express the phase structure of
// `f`: every pair of teams meets exactly once in the first half.
func PhaseConstraints(f schedule.Format) []Game {
	var gs []Game
	for i := 1; i <= f.NTeams; i++ {
		for j := i + 1; j <= f.NTeams; j++ {
			gs = append(gs, Game{
				Slots:      f.FirstHalf(),
				LowerBound: 1,
				UpperBound: 1,
				Meetings:   []Meeting{{Home: i, Away: j}, {Home: j, Away: i}},
			})
		}
	}
	return gs
}

// RelaxPhases returns a copy of the instance whose format is not phased and which carries
// the phase structure as hard Game constraints instead. An instance without phases is
// returned as is.
func (in *Instance) RelaxPhases() *Instance {
	if !in.Format.Phased {
		return in
	}
	out := *in
	out.Format = in.Format.Relaxed()
	out.Game = append(slices.Clone(in.Game), PhaseConstraints(in.Format)...)
	return &out
}

// Builder collects constraints into an Instance. Invalid constraints are logged and
// dropped; the first error is returned by Instance.
type Builder struct {
	inst *Instance
	err  error
}

// NewBuilder creates a builder for an instance of format `f`.
func NewBuilder(name string, f schedule.Format) *Builder {
	return &Builder{inst: &Instance{Name: name, Format: f}}
}

// SetTeamNames sets the names of the teams in order.
func (b *Builder) SetTeamNames(names ...string) *Builder {
	if len(names) != b.inst.Format.NTeams {
		b.setErrorf("got %v team names for %v teams", len(names), b.inst.Format.NTeams)
		return b
	}
	b.inst.TeamNames = slices.Clone(names)
	return b
}

// Add validates `c` against the format of the instance and adds it.
func (b *Builder) Add(c Constraint) *Builder {
	idx := b.inst.Len()
	if err := c.validate(b.inst.Format); err != nil {
		b.setErrorf("%v constraint %v: %v", c.Kind(), idx, err)
		return b
	}
	switch c := c.(type) {
	case Capacity:
		b.inst.Capacity = append(b.inst.Capacity, c)
	case Break:
		b.inst.Break = append(b.inst.Break, c)
	case Game:
		c.Meetings = slices.Clone(c.Meetings)
		b.inst.Game = append(b.inst.Game, c)
	case Fairness:
		b.inst.Fairness = append(b.inst.Fairness, c)
	case Separation:
		b.inst.Separation = append(b.inst.Separation, c)
	}
	return b
}

// Instance returns the built instance, or the first error met while building it.
func (b *Builder) Instance() (*Instance, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.inst, nil
}

func (b *Builder) setErrorf(format string, a ...any) {
	err := fmt.Errorf(format+": %w", append(a, ErrInvalidConstraint)...)
	log.Errorf("%v", err)
	if b.err == nil {
		b.err = err
	}
}

// Incidence records, for every constraint of a list, the cells its offset depends on.
// It is not safe for concurrent use.
type Incidence struct {
	entries []schedule.CellMask
	// byTeam[t-1] holds the constraints with at least one entry in the row of team t.
	byTeam [][]int
	stamp  []int
	epoch  int
}

// NewIncidence computes the entries of every constraint of `cs`.
func NewIncidence(cs []Constraint, f schedule.Format) *Incidence {
	inc := &Incidence{
		entries: make([]schedule.CellMask, len(cs)),
		byTeam:  make([][]int, f.NTeams),
		stamp:   make([]int, len(cs)),
	}
	for idx, c := range cs {
		e := c.Entries(f)
		inc.entries[idx] = e
		for t := range e.Teams().All() {
			inc.byTeam[t-1] = append(inc.byTeam[t-1], idx)
		}
	}
	return inc
}

// Entries returns the entries of constraint `idx`.
func (inc *Incidence) Entries(idx int) schedule.CellMask {
	return inc.entries[idx]
}

// Affected appends to `dst` the constraints with an entry in `changed`, each at most once.
func (inc *Incidence) Affected(changed schedule.CellMask, dst []int) []int {
	inc.epoch++
	for t := range changed.Teams().All() {
		row := changed.Row(t)
		for _, idx := range inc.byTeam[t-1] {
			if inc.stamp[idx] != inc.epoch && inc.entries[idx].Row(t).Overlaps(row) {
				inc.stamp[idx] = inc.epoch
				dst = append(dst, idx)
			}
		}
	}
	return dst
}

// Report summarizes how a schedule fares against an instance.
type Report struct {
	// Offsets holds the offset of each constraint, aligned with Instance.Constraints.
	Offsets []int
	// Violated counts the violated constraints of each family.
	Violated map[Kind]int
	// Infeasibility is the sum of the offsets of hard constraints.
	Infeasibility int
	// Objective is the sum of the penalty times the offset of soft constraints.
	Objective int
}

// Feasible reports whether every hard constraint is satisfied.
func (r Report) Feasible() bool {
	return r.Infeasibility == 0
}

// Report evaluates every constraint of the instance on `s`. Separation constraints are
// measured with Separation.Gap.
func (in *Instance) Report(s *schedule.Schedule) Report {
	r := Report{Violated: make(map[Kind]int)}
	for _, c := range in.Constraints() {
		var offset int
		if sep, ok := c.(Separation); ok {
			offset = sep.Gap(s)
		} else {
			offset = c.Evaluate(s)
		}
		r.Offsets = append(r.Offsets, offset)
		if offset == 0 {
			continue
		}
		r.Violated[c.Kind()]++
		if IsHard(c) {
			r.Infeasibility += offset
		} else {
			r.Objective += c.Penalty() * offset
		}
	}
	return r
}

// PatternTeams returns the teams whose home/away pattern is restricted by some hard
// pattern or pattern-set constraint of the instance.
func (in *Instance) PatternTeams() indexset.IndexSet {
	var teams indexset.IndexSet
	for _, c := range in.Constraints() {
		if !IsHard(c) {
			continue
		}
		switch c := c.(type) {
		case Capacity:
			if IsPatternConstraint(c, in.Format) || IsPatternSetConstraint(c, in.Format) {
				teams |= c.Teams1
			}
		case Break:
			teams |= c.Teams
		}
	}
	return teams
}
