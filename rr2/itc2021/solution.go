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

package itc2021

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// SolutionMeta is written into the MetaData element of a solution.
type SolutionMeta struct {
	InstanceName  string
	SolutionName  string
	Infeasibility int
	Objective     int
}

type xmlSolution struct {
	XMLName      xml.Name   `xml:"Solution"`
	InstanceName string     `xml:"MetaData>InstanceName"`
	SolutionName string     `xml:"MetaData>SolutionName,omitempty"`
	Objective    xmlObjVal  `xml:"MetaData>ObjectiveValue"`
	Games        []xmlMatch `xml:"Games>ScheduledMatch"`
}

type xmlObjVal struct {
	Infeasibility int `xml:"infeasibility,attr"`
	Objective     int `xml:"objective,attr"`
}

type xmlMatch struct {
	Home int `xml:"home,attr"`
	Away int `xml:"away,attr"`
	Slot int `xml:"slot,attr"`
}

// WriteSolution writes `s` as an ITC2021 solution, one ScheduledMatch per game.
func WriteSolution(w io.Writer, s *schedule.Schedule, meta SolutionMeta) error {
	sol := xmlSolution{
		InstanceName: meta.InstanceName,
		SolutionName: meta.SolutionName,
		Objective:    xmlObjVal{Infeasibility: meta.Infeasibility, Objective: meta.Objective},
		Games: lo.Map(s.Games(), func(g schedule.Game, _ int) xmlMatch {
			return xmlMatch{Home: g.Home - 1, Away: g.Away - 1, Slot: g.Slot - 1}
		}),
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(sol); err != nil {
		return fmt.Errorf("encoding solution of %q: %w", meta.InstanceName, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadSolution reads an ITC2021 solution of format `f` and validates it.
func ReadSolution(r io.Reader, f schedule.Format) (*schedule.Schedule, SolutionMeta, error) {
	var sol xmlSolution
	if err := xml.NewDecoder(r).Decode(&sol); err != nil {
		return nil, SolutionMeta{}, fmt.Errorf("decoding ITC2021 solution: %w", err)
	}
	meta := SolutionMeta{
		InstanceName:  sol.InstanceName,
		SolutionName:  sol.SolutionName,
		Infeasibility: sol.Objective.Infeasibility,
		Objective:     sol.Objective.Objective,
	}
	games := lo.Map(sol.Games, func(m xmlMatch, _ int) schedule.Game {
		return schedule.Game{Home: m.Home + 1, Away: m.Away + 1, Slot: m.Slot + 1}
	})
	s, err := schedule.FromGames(f, games)
	if err != nil {
		return nil, meta, fmt.Errorf("solution of %q: %w", sol.InstanceName, err)
	}
	return s, meta, nil
}
