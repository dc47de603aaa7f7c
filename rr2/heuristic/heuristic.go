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

// Package heuristic runs the complete timetabling heuristic: it obtains a start schedule,
// optionally runs a relaxation pass in which hard constraints weigh less, and finishes
// with a tabu search in which they weigh Config.HardWeight.
package heuristic

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	log "github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/janerikhein/RR2timetabling/rr2/constraint"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
	"github.com/janerikhein/RR2timetabling/rr2/startgen"
	"github.com/janerikhein/RR2timetabling/rr2/tabu"
)

// Options configure Solve.
type Options struct {
	Config tabu.Config
	// RelaxPhases moves the phase structure of a phased instance into hard Game
	// constraints, so that the moves may cross the phase boundary.
	RelaxPhases bool
	// RelaxationWeight is the weight of hard constraints in the relaxation pass; 0 skips
	// the pass.
	RelaxationWeight int `validate:"gte=0"`
	// Starter provides the start schedule.
	Starter startgen.Starter `validate:"required"`
}

// DefaultOptions returns the options used by the samples.
func DefaultOptions() Options {
	return Options{
		Config:           tabu.DefaultConfig(),
		RelaxationWeight: 10,
		Starter:          startgen.PseudoBoolean{},
	}
}

// Result is the outcome of Solve.
type Result struct {
	// RunID identifies the run in logs and exported solutions.
	RunID string
	// Schedule is the best schedule found, in the format of the instance given to Solve
	// unless PhasesBroken is set.
	Schedule *schedule.Schedule
	// PhasesBroken is true if phases were relaxed and Schedule does not meet the phase
	// split. Schedule then keeps the unphased format of the search.
	PhasesBroken bool
	// Value is the weighted value of Schedule in the final pass.
	Value int
	// Infeasibility and Objective are measured with Instance.Report.
	Infeasibility int
	Objective     int
	Iterations    int
	Status        tabu.Status
}

var validate = validator.New()

// Solve runs the heuristic on `inst`. Failing to obtain a start schedule ends the run
// with an error; running out of time does not.
func Solve(ctx context.Context, inst *constraint.Instance, opts Options) (Result, error) {
	if err := validate.Struct(opts); err != nil {
		return Result{}, fmt.Errorf("%v: %w", err, tabu.ErrInvalidConfig)
	}
	runID := uuid.NewString()

	search := inst
	if opts.RelaxPhases {
		search = inst.RelaxPhases()
	}
	start, err := opts.Starter.StartSchedule(ctx, inst)
	if err != nil {
		return Result{}, fmt.Errorf("run %v: start schedule for %q: %w", runID, inst.Name, err)
	}
	log.V(1).Infof("run %v: start schedule for %q obtained", runID, inst.Name)

	iterations := 0
	if opts.RelaxationWeight > 0 && ctx.Err() == nil {
		cfg := opts.Config
		cfg.HardWeight = opts.RelaxationWeight
		relaxed, err := tabu.Run(ctx, search, start, cfg)
		if err != nil {
			return Result{}, fmt.Errorf("run %v: relaxation pass: %w", runID, err)
		}
		log.V(1).Infof("run %v: relaxation pass ended %v with infeasibility %v", runID, relaxed.Status, relaxed.Infeasibility)
		start = relaxed.Schedule
		iterations += relaxed.Iterations
	}

	final, err := tabu.Run(ctx, search, start, opts.Config)
	if err != nil {
		return Result{}, fmt.Errorf("run %v: %w", runID, err)
	}
	// The phase constraints of a relaxed search are hard, so they count towards the
	// infeasibility of the report.
	report := search.Report(final.Schedule)
	best, restored := restoreFormat(inst.Format, final.Schedule)
	if !restored {
		log.V(1).Infof("run %v: best schedule of %q breaks the phases, returned in %v", runID, inst.Name, best.Format())
	}
	r := Result{
		RunID:         runID,
		Schedule:      best,
		PhasesBroken:  !restored,
		Value:         final.Value,
		Infeasibility: report.Infeasibility,
		Objective:     report.Objective,
		Iterations:    iterations + final.Iterations,
		Status:        final.Status,
	}
	log.V(1).Infof("run %v: %q %v infeasibility=%v objective=%v iterations=%v", runID, inst.Name, r.Status, r.Infeasibility, r.Objective, r.Iterations)
	return r, nil
}

// restoreFormat returns `s` in format `f`. If `s` is not valid in `f`, it is returned as
// is together with false.
func restoreFormat(f schedule.Format, s *schedule.Schedule) (*schedule.Schedule, bool) {
	if s.Format() == f {
		return s, true
	}
	restored, err := schedule.FromRows(f, s.Rows())
	if err != nil {
		return s, false
	}
	return restored, true
}
