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

// The solve_itc2021 command runs the tabu search heuristic on an ITC2021 instance and
// writes the best schedule as an ITC2021 solution.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/janerikhein/RR2timetabling/rr2/export"
	"github.com/janerikhein/RR2timetabling/rr2/heuristic"
	"github.com/janerikhein/RR2timetabling/rr2/itc2021"
)

var (
	instancePath = flag.String("instance", "", "ITC2021 instance XML file")
	outPath      = flag.String("out", "", "solution XML file, stdout if empty")
	binaryPath   = flag.String("binary_out", "", "optional file receiving the solution in protocol buffer wire format")
	relaxPhases  = flag.Bool("phases", false, "relax the phase structure of phased instances")
	timeLimit    = flag.Duration("time_limit", 5*time.Minute, "wall clock limit of the search")
	seed         = flag.Uint64("seed", 1, "seed of the search")
)

func solve() error {
	if *instancePath == "" {
		return fmt.Errorf("-instance is required")
	}
	in, err := os.Open(*instancePath)
	if err != nil {
		return err
	}
	defer in.Close()
	inst, err := itc2021.Parse(in)
	if err != nil {
		return fmt.Errorf("failed to read %v: %w", *instancePath, err)
	}

	opts := heuristic.DefaultOptions()
	opts.RelaxPhases = *relaxPhases
	opts.Config.Seed = *seed

	ctx, cancel := context.WithTimeout(context.Background(), *timeLimit)
	defer cancel()
	r, err := heuristic.Solve(ctx, inst, opts)
	if err != nil {
		return fmt.Errorf("failed to solve %q: %w", inst.Name, err)
	}
	fmt.Fprintf(os.Stderr, "Status: %v\nInfeasibility: %v\nObjective: %v\nIterations: %v\n", r.Status, r.Infeasibility, r.Objective, r.Iterations)

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	meta := itc2021.SolutionMeta{
		InstanceName:  inst.Name,
		SolutionName:  strings.TrimSuffix(filepath.Base(*instancePath), filepath.Ext(*instancePath)) + "_" + r.RunID,
		Infeasibility: r.Infeasibility,
		Objective:     r.Objective,
	}
	if err := itc2021.WriteSolution(out, r.Schedule, meta); err != nil {
		return err
	}

	if *binaryPath != "" {
		b := export.Marshal(r.Schedule, export.Metadata{
			Infeasibility: int64(r.Infeasibility),
			Objective:     int64(r.Objective),
			RunID:         r.RunID,
		})
		if err := os.WriteFile(*binaryPath, b, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	if err := solve(); err != nil {
		log.Exitf("solve returned with error: %v", err)
	}
}
