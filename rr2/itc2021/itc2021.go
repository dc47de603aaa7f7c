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

// Package itc2021 reads instances and writes solutions in the XML format of the
// International Timetabling Competition 2021 on sports timetabling.
//
// Team and slot ids are 0-based in the files and 1-based everywhere else.
package itc2021

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/janerikhein/RR2timetabling/rr2/constraint"
	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// ErrUnsupported is returned for instances using features that cannot be modeled.
var ErrUnsupported = errors.New("unsupported ITC2021 feature")

type xmlInstance struct {
	XMLName     xml.Name       `xml:"Instance"`
	Name        string         `xml:"MetaData>InstanceName"`
	RoundRobins int            `xml:"Structure>Format>numberRoundRobin"`
	GameMode    string         `xml:"Structure>Format>gameMode"`
	Teams       []xmlResource  `xml:"Resources>Teams>team"`
	Slots       []xmlResource  `xml:"Resources>Slots>slot"`
	Constraints xmlConstraints `xml:"Constraints"`
}

type xmlConstraints struct {
	Groups []xmlFamilyGroup `xml:",any"`
}

type xmlResource struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type xmlFamilyGroup struct {
	XMLName     xml.Name
	Constraints []xmlConstraint `xml:",any"`
}

type xmlConstraint struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

// attrs gives typed access to the attributes of a constraint element. The first error
// met is kept.
type attrs struct {
	tag    string
	values map[string]string
	err    error
}

func newAttrs(c xmlConstraint) *attrs {
	a := &attrs{tag: c.XMLName.Local, values: make(map[string]string, len(c.Attrs))}
	for _, attr := range c.Attrs {
		a.values[attr.Name.Local] = attr.Value
	}
	return a
}

func (a *attrs) setErrorf(format string, args ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%v: "+format, append([]any{a.tag}, args...)...)
	}
}

func (a *attrs) str(name string) string {
	v, ok := a.values[name]
	if !ok {
		a.setErrorf("missing attribute %q: %w", name, ErrUnsupported)
	}
	return v
}

func (a *attrs) integer(name string) int {
	s := a.str(name)
	if a.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		a.setErrorf("attribute %v=%q: %w", name, s, err)
	}
	return v
}

// ids parses a `;` separated list of 0-based ids into a set of 1-based ids.
func (a *attrs) ids(name string) indexset.IndexSet {
	s := a.str(name)
	if a.err != nil {
		return 0
	}
	fields := lo.Filter(strings.Split(s, ";"), func(f string, _ int) bool { return strings.TrimSpace(f) != "" })
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			a.setErrorf("attribute %v=%q: %w", name, s, err)
			return 0
		}
		values = append(values, v+1)
	}
	set, err := indexset.FromValues(values...)
	if err != nil {
		a.setErrorf("attribute %v=%q: %w", name, s, err)
	}
	return set
}

func (a *attrs) meetings(name string) []constraint.Meeting {
	s := a.str(name)
	if a.err != nil {
		return nil
	}
	var ms []constraint.Meeting
	for _, f := range strings.Split(s, ";") {
		if strings.TrimSpace(f) == "" {
			continue
		}
		home, away, ok := strings.Cut(f, ",")
		h, herr := strconv.Atoi(strings.TrimSpace(home))
		w, werr := strconv.Atoi(strings.TrimSpace(away))
		if !ok || herr != nil || werr != nil {
			a.setErrorf("meeting %q: %w", f, ErrUnsupported)
			return nil
		}
		ms = append(ms, constraint.Meeting{Home: h + 1, Away: w + 1})
	}
	return ms
}

func (a *attrs) mode(name string) constraint.Mode {
	s := a.str(name)
	if a.err != nil {
		return 0
	}
	m, err := constraint.ParseMode(s)
	if err != nil {
		a.setErrorf("attribute %v: %w", name, err)
	}
	return m
}

// penalty returns 0 for hard constraints and the penalty attribute otherwise.
func (a *attrs) penalty() int {
	switch t := a.str("type"); t {
	case "HARD":
		return 0
	case "SOFT":
		pen := a.integer("penalty")
		if a.err == nil && pen < 1 {
			a.setErrorf("soft constraint with penalty %v: %w", pen, ErrUnsupported)
		}
		return pen
	default:
		if a.err == nil {
			a.setErrorf("type %q: %w", t, ErrUnsupported)
		}
	}
	return 0
}

// noLowerBound rejects capacity constraints with a positive min attribute.
func (a *attrs) noLowerBound() {
	if _, ok := a.values["min"]; ok && a.integer("min") > 0 && a.err == nil {
		a.setErrorf("min=%v: %w", a.values["min"], ErrUnsupported)
	}
}

// Parse reads an ITC2021 instance. Only compact double round-robins with constraints of
// the families CA1 to CA4, GA1, BR1, BR2, FA2 and SE1 are supported.
func Parse(r io.Reader) (*constraint.Instance, error) {
	var in xmlInstance
	if err := xml.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding ITC2021 instance: %w", err)
	}
	if in.RoundRobins != 2 {
		return nil, fmt.Errorf("%v round robins: %w", in.RoundRobins, ErrUnsupported)
	}
	f, err := schedule.NewFormat(len(in.Teams), in.GameMode == "P")
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", in.Name, err)
	}
	if len(in.Slots) != f.NSlots {
		return nil, fmt.Errorf("%v slots for %v teams, only compact schedules are supported: %w", len(in.Slots), f.NTeams, ErrUnsupported)
	}
	names := make([]string, f.NTeams)
	for _, t := range in.Teams {
		if t.ID < 0 || t.ID >= f.NTeams {
			return nil, fmt.Errorf("team id %v out of range: %w", t.ID, ErrUnsupported)
		}
		names[t.ID] = t.Name
	}

	b := constraint.NewBuilder(in.Name, f).SetTeamNames(names...)
	for _, group := range in.Constraints.Groups {
		for _, c := range group.Constraints {
			a := newAttrs(c)
			cs := convert(a, f)
			if a.err != nil {
				log.Errorf("instance %q: %v", in.Name, a.err)
				return nil, a.err
			}
			for _, c := range cs {
				b.Add(c)
			}
		}
	}
	return b.Instance()
}

// convert maps one ITC2021 constraint to constraints of this module.
func convert(a *attrs, f schedule.Format) []constraint.Constraint {
	var cs []constraint.Constraint
	switch a.tag {
	case "CA1":
		teams, slots, ub, mode, pen := a.ids("teams"), a.ids("slots"), a.integer("max"), a.mode("mode"), a.penalty()
		a.noLowerBound()
		for t := range teams.All() {
			cs = append(cs, constraint.Capacity{Teams1: indexset.Single(t), Teams2: f.Teams(), Slots: slots, UpperBound: ub, Mode: mode, Pen: pen})
		}
	case "CA2":
		teams1, teams2, slots, ub, mode, pen := a.ids("teams1"), a.ids("teams2"), a.ids("slots"), a.integer("max"), a.mode("mode1"), a.penalty()
		a.noLowerBound()
		for t := range teams1.All() {
			cs = append(cs, constraint.Capacity{Teams1: indexset.Single(t), Teams2: teams2, Slots: slots, UpperBound: ub, Mode: mode, Pen: pen})
		}
	case "CA3":
		teams1, teams2, window, ub, mode, pen := a.ids("teams1"), a.ids("teams2"), a.integer("intp"), a.integer("max"), a.mode("mode1"), a.penalty()
		a.noLowerBound()
		if a.err == nil && (window < 1 || window > f.NSlots) {
			a.setErrorf("window of %v slots: %w", window, ErrUnsupported)
		}
		for t := range teams1.All() {
			for first := 1; first+window-1 <= f.NSlots; first++ {
				cs = append(cs, constraint.Capacity{Teams1: indexset.Single(t), Teams2: teams2, Slots: indexset.Range(first, first+window-1), UpperBound: ub, Mode: mode, Pen: pen})
			}
		}
	case "CA4":
		teams1, teams2, slots, ub, mode, pen := a.ids("teams1"), a.ids("teams2"), a.ids("slots"), a.integer("max"), a.mode("mode1"), a.penalty()
		a.noLowerBound()
		switch every := a.str("mode2"); every {
		case "GLOBAL":
			cs = append(cs, constraint.Capacity{Teams1: teams1, Teams2: teams2, Slots: slots, UpperBound: ub, Mode: mode, Pen: pen})
		case "EVERY":
			for s := range slots.All() {
				cs = append(cs, constraint.Capacity{Teams1: teams1, Teams2: teams2, Slots: indexset.Single(s), UpperBound: ub, Mode: mode, Pen: pen})
			}
		default:
			if a.err == nil {
				a.setErrorf("mode2=%q: %w", every, ErrUnsupported)
			}
		}
	case "GA1":
		cs = append(cs, constraint.Game{Slots: a.ids("slots"), LowerBound: a.integer("min"), UpperBound: a.integer("max"), Meetings: a.meetings("meetings"), Pen: a.penalty()})
	case "BR1":
		teams, slots, ub, mode, pen := a.ids("teams"), a.ids("slots"), a.integer("intp"), a.mode("mode2"), a.penalty()
		for t := range teams.All() {
			cs = append(cs, constraint.Break{Teams: indexset.Single(t), Slots: slots, UpperBound: ub, Mode: mode, Pen: pen})
		}
	case "BR2":
		cs = append(cs, constraint.Break{Teams: a.ids("teams"), Slots: a.ids("slots"), UpperBound: a.integer("intp"), Mode: constraint.Both, Pen: a.penalty()})
	case "FA2":
		cs = append(cs, constraint.Fairness{Teams: a.ids("teams"), Slots: a.ids("slots"), UpperBound: a.integer("intp"), Pen: a.penalty()})
	case "SE1":
		cs = append(cs, constraint.Separation{Teams: a.ids("teams"), LowerBound: a.integer("min"), Pen: a.penalty()})
	default:
		a.setErrorf("unknown constraint: %w", ErrUnsupported)
	}
	return cs
}
