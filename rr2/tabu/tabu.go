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

// Package tabu implements the tabu search over double round-robin schedules.
//
// A run alternates intensification and diversification phases. Intensification scans the
// shuffled neighborhood for the first move improving the current value, falling back to
// the best non-tabu move of the iteration; tabu moves are only taken when they beat the
// best value seen (aspiration). While some constraint is violated, only moves changing a
// cell that a violated constraint depends on are considered. Diversification restarts
// from the best schedule, ignores tabu status and that filter, and penalizes cells that
// were changed often.
//
// Moves are scored incrementally: after applying a candidate to a scratch schedule only
// the constraints whose entries overlap the changed cells are evaluated again.
package tabu

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	log "github.com/golang/glog"

	"github.com/janerikhein/RR2timetabling/rr2/constraint"
	"github.com/janerikhein/RR2timetabling/rr2/neighborhood"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// Status describes the returned schedule.
type Status int

const (
	// Unknown means no schedule satisfying every hard constraint was found.
	Unknown Status = iota
	// Feasible means every hard constraint is satisfied.
	Feasible
	// Optimal means every constraint is satisfied, so no better value exists.
	Optimal
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Feasible:
		return "FEASIBLE"
	case Optimal:
		return "OPTIMAL"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of a run.
type Result struct {
	// Schedule is the best feasible schedule found, or the schedule of least value if none
	// is feasible.
	Schedule *schedule.Schedule
	// Value is the weighted sum of the offsets of Schedule.
	Value int
	// Offsets holds the offsets of Schedule, aligned with Instance.Constraints.
	Offsets []int
	// Infeasibility is the sum of the offsets of hard constraints of Schedule.
	Infeasibility int
	Status        Status
	Iterations    int
	Phases        int
	// Interrupted is true if the context ended the run.
	Interrupted bool
}

// searchState is owned by a single run. Every buffer is allocated once by newSearchState.
type searchState struct {
	cfg     Config
	cs      []constraint.Constraint
	inc     *constraint.Incidence
	weights []int
	hard    []bool
	moves   []neighborhood.Move
	moveIDs map[neighborhood.Move]int
	order   []int
	rng     *rand.Rand

	iter          int
	current       *schedule.Schedule
	scratch       *schedule.Schedule
	offsets       []int
	value         int
	infeasibility int

	best            *schedule.Schedule
	bestValue       int
	bestAny         *schedule.Schedule
	bestAnyValue    int
	lastImprovement int

	// tabu[id] is the last iteration in which move id is tabu.
	tabu []int
	// blocked[id] is the last iteration in which move id was evaluated or found
	// equivalent to an evaluated move.
	blocked   []int
	frequency []int
	diversify bool

	changed    schedule.CellMask
	infeasible schedule.CellMask
	restricted bool
	affected   []int
	equiv      []neighborhood.Move

	// onApply is called after a move is applied; tests use it to observe the run.
	onApply func(id int, aspiration bool)
}

func newSearchState(inst *constraint.Instance, start *schedule.Schedule, cfg Config) *searchState {
	f := inst.Format
	cs := inst.Constraints()
	moves := neighborhood.Generate(f)
	st := &searchState{
		cfg:          cfg,
		cs:           cs,
		inc:          constraint.NewIncidence(cs, f),
		weights:      make([]int, len(cs)),
		hard:         make([]bool, len(cs)),
		moves:        moves,
		moveIDs:      make(map[neighborhood.Move]int, len(moves)),
		order:        make([]int, len(moves)),
		rng:          rand.New(rand.NewPCG(cfg.Seed, uint64(len(moves)))),
		current:      start,
		scratch:      start.Clone(),
		offsets:      make([]int, len(cs)),
		bestValue:    math.MaxInt,
		bestAnyValue: math.MaxInt,
		tabu:         make([]int, len(moves)),
		blocked:      make([]int, len(moves)),
		frequency:    make([]int, f.NTeams*f.NSlots),
		changed:      schedule.NewCellMask(f),
		infeasible:   schedule.NewCellMask(f),
	}
	for idx, c := range cs {
		st.hard[idx] = constraint.IsHard(c)
		st.weights[idx] = c.Penalty()
		if st.hard[idx] {
			st.weights[idx] = cfg.HardWeight
		}
	}
	for id, m := range moves {
		st.moveIDs[m] = id
		st.order[id] = id
		st.tabu[id] = -1
		st.blocked[id] = -1
	}
	st.evaluateAll()
	st.record()
	return st
}

// evaluateAll evaluates every constraint on the current schedule.
func (st *searchState) evaluateAll() {
	st.value, st.infeasibility = 0, 0
	for idx, c := range st.cs {
		st.offsets[idx] = c.Evaluate(st.current)
		st.value += st.weights[idx] * st.offsets[idx]
		if st.hard[idx] {
			st.infeasibility += st.offsets[idx]
		}
	}
}

// record snapshots the current schedule if it improves a best value and reports whether
// it did.
func (st *searchState) record() bool {
	improved := false
	if st.infeasibility == 0 && st.value < st.bestValue {
		if st.best == nil {
			st.best = st.current.Clone()
		} else {
			st.best.CopyFrom(st.current)
		}
		st.bestValue = st.value
		improved = true
		log.V(2).Infof("iteration %v: feasible value %v", st.iter, st.value)
	}
	if st.value < st.bestAnyValue {
		if st.bestAny == nil {
			st.bestAny = st.current.Clone()
		} else {
			st.bestAny.CopyFrom(st.current)
		}
		st.bestAnyValue = st.value
		improved = improved || st.best == nil
	}
	return improved
}

// updateInfeasibleMask sets the cells the violated constraints depend on. The search is
// unrestricted if no constraint is violated.
func (st *searchState) updateInfeasibleMask() {
	st.infeasible.Clear()
	st.restricted = false
	for idx, offset := range st.offsets {
		if offset > 0 {
			st.infeasible.UnionWith(st.inc.Entries(idx))
			st.restricted = true
		}
	}
}

// evaluate scores move `id` without changing the current schedule. It reports false if
// the move changes nothing or misses the cells of violated constraints.
func (st *searchState) evaluate(id int) (int, bool) {
	m := st.moves[id]
	footprint := m.Apply(st.scratch)
	changed := st.changed.Diff(st.current, st.scratch)
	defer st.scratch.CopyCells(st.current, changed)

	st.equiv = m.Equivalents(footprint, st.current.Format(), st.equiv[:0])
	for _, e := range st.equiv {
		st.blocked[st.moveIDs[e]] = st.iter
	}
	if changed.IsEmpty() {
		return 0, false
	}
	if st.restricted && !st.diversify && !changed.Overlaps(st.infeasible) {
		return 0, false
	}

	score := st.value
	st.affected = st.inc.Affected(changed, st.affected[:0])
	for _, idx := range st.affected {
		score += st.weights[idx] * (st.cs[idx].Evaluate(st.scratch) - st.offsets[idx])
	}
	if st.diversify {
		nslots := st.current.Format().NSlots
		for team, slot := range changed.All() {
			score += st.cfg.FrequencyWeight * st.frequency[(team-1)*nslots+slot-1]
		}
	}
	return score, true
}

// selectMove scans the neighborhood once and returns the move to apply, or -1 if no move
// is admissible.
func (st *searchState) selectMove() (id int, aspiration bool) {
	st.rng.Shuffle(len(st.order), func(a, b int) {
		st.order[a], st.order[b] = st.order[b], st.order[a]
	})
	fallback, fallbackScore := -1, math.MaxInt
	for _, id := range st.order {
		if st.blocked[id] == st.iter {
			continue
		}
		st.blocked[id] = st.iter
		score, ok := st.evaluate(id)
		if !ok {
			continue
		}
		if !st.diversify && st.tabu[id] >= st.iter {
			if score < st.bestAnyValue {
				return id, true
			}
			continue
		}
		if score < st.value {
			return id, false
		}
		if score < fallbackScore {
			fallback, fallbackScore = id, score
		}
	}
	return fallback, false
}

// apply performs move `id` on the current schedule and updates offsets, frequencies and
// tabu status.
func (st *searchState) apply(id int) {
	m := st.moves[id]
	footprint := m.Apply(st.scratch)
	changed := st.changed.Diff(st.current, st.scratch)
	st.affected = st.inc.Affected(changed, st.affected[:0])
	for _, idx := range st.affected {
		offset := st.cs[idx].Evaluate(st.scratch)
		delta := offset - st.offsets[idx]
		st.value += st.weights[idx] * delta
		if st.hard[idx] {
			st.infeasibility += delta
		}
		st.offsets[idx] = offset
	}
	st.current.CopyCells(st.scratch, changed)

	nslots := st.current.Format().NSlots
	for team, slot := range changed.All() {
		st.frequency[(team-1)*nslots+slot-1]++
	}
	until := st.iter + st.cfg.TabuLength
	st.tabu[id] = until
	st.equiv = m.Equivalents(footprint, st.current.Format(), st.equiv[:0])
	for _, e := range st.equiv {
		st.tabu[st.moveIDs[e]] = until
	}
}

// restart continues the search from the best schedule found so far.
func (st *searchState) restart() {
	from := st.best
	if from == nil {
		from = st.bestAny
	}
	st.current.CopyFrom(from)
	st.scratch.CopyFrom(from)
	st.evaluateAll()
}

func (st *searchState) result() Result {
	s, status := st.best, Feasible
	if s == nil {
		s, status = st.bestAny, Unknown
	}
	r := Result{
		Schedule:   s.Clone(),
		Offsets:    make([]int, len(st.cs)),
		Status:     status,
		Iterations: st.iter,
	}
	for idx, c := range st.cs {
		r.Offsets[idx] = c.Evaluate(s)
		r.Value += st.weights[idx] * r.Offsets[idx]
		if st.hard[idx] {
			r.Infeasibility += r.Offsets[idx]
		}
	}
	if r.Value == 0 {
		r.Status = Optimal
	}
	return r
}

// run iterates until a zero value is reached, the phases or the iteration budget are
// exhausted, or the context is done.
func (st *searchState) run(ctx context.Context) Result {
	phase, diversifyEnd := 1, 0
	interrupted := false
	for st.value > 0 {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if st.cfg.MaxIterations > 0 && st.iter >= st.cfg.MaxIterations {
			break
		}
		if !st.diversify && st.iter-st.lastImprovement >= st.cfg.MaxIterationsWithoutImprovement {
			if phase >= st.cfg.MaxPhases {
				break
			}
			st.startDiversification()
			diversifyEnd = st.iter + st.cfg.DiversifyLength
		}
		if st.diversify && st.iter >= diversifyEnd {
			st.diversify = false
			st.lastImprovement = st.iter
			phase++
			log.V(1).Infof("iteration %v: intensification phase %v from value %v", st.iter, phase, st.value)
		}

		st.updateInfeasibleMask()
		id, aspiration := st.selectMove()
		if id < 0 {
			if st.diversify {
				log.V(1).Infof("iteration %v: no admissible move while diversifying", st.iter)
				break
			}
			if phase >= st.cfg.MaxPhases {
				break
			}
			st.startDiversification()
			diversifyEnd = st.iter + max(st.cfg.DiversifyLength, 1)
			st.iter++
			continue
		}
		st.apply(id)
		if st.onApply != nil {
			st.onApply(id, aspiration)
		}
		if st.record() {
			st.lastImprovement = st.iter
		}
		st.iter++
	}
	r := st.result()
	r.Phases = phase
	r.Interrupted = interrupted
	return r
}

func (st *searchState) startDiversification() {
	st.restart()
	st.diversify = true
	log.V(1).Infof("iteration %v: diversification from value %v", st.iter, st.value)
}

// Run searches for a schedule of least weighted value for `inst` starting from `start`,
// which must be a valid schedule with the same number of teams as the instance. Hard
// constraints are weighted by Config.HardWeight, soft constraints by their penalty.
//
// Running out of time or phases is not an error: the best schedule found is returned.
func Run(ctx context.Context, inst *constraint.Instance, start *schedule.Schedule, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	current, err := schedule.FromRows(inst.Format, start.Rows())
	if err != nil {
		return Result{}, fmt.Errorf("start schedule for %v: %w", inst.Format, err)
	}
	st := newSearchState(inst, current, cfg)
	r := st.run(ctx)
	log.V(1).Infof("tabu search on %q: %v value=%v infeasibility=%v after %v iterations and %v phases",
		inst.Name, r.Status, r.Value, r.Infeasibility, r.Iterations, r.Phases)
	return r, nil
}
