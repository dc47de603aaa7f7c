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
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/janerikhein/RR2timetabling/rr2/constraint"
	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

var set = indexset.MustFromValues

// instanceXML returns a four team instance with `nslots` slots.
func instanceXML(roundRobins, nslots int, constraints string) string {
	var slots strings.Builder
	for s := 0; s < nslots; s++ {
		fmt.Fprintf(&slots, "<slot id=\"%d\" name=\"Slot%d\"/>\n", s, s)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Instance>
  <MetaData>
    <InstanceName>TestInstance</InstanceName>
    <DataType>A</DataType>
  </MetaData>
  <Structure>
    <Format leagueIds="0">
      <numberRoundRobin>%d</numberRoundRobin>
      <compactness>C</compactness>
      <gameMode>P</gameMode>
    </Format>
  </Structure>
  <ObjectiveFunction>
    <Objective>SC</Objective>
  </ObjectiveFunction>
  <Resources>
    <Leagues><league id="0" name="League0"/></Leagues>
    <Teams>
      <team id="0" league="0" name="Alpha"/>
      <team id="1" league="0" name="Beta"/>
      <team id="2" league="0" name="Gamma"/>
      <team id="3" league="0" name="Delta"/>
    </Teams>
    <Slots>
%s    </Slots>
  </Resources>
  <Constraints>
%s
  </Constraints>
</Instance>
`, roundRobins, slots.String(), constraints)
}

const allFamilies = `
<CapacityConstraints>
  <CA1 max="1" min="0" mode="H" penalty="" slots="0;1;2" teams="0" type="HARD"/>
  <CA2 max="1" min="0" mode1="HA" mode2="GLOBAL" penalty="5" slots="0;1" teams1="0;1" teams2="2;3" type="SOFT"/>
  <CA3 intp="3" max="2" min="0" mode1="A" mode2="SLOTS" penalty="1" teams1="3" teams2="0;1;2" type="SOFT"/>
  <CA4 max="3" min="0" mode1="H" mode2="GLOBAL" penalty="" slots="4;5" teams1="0;1" teams2="0;1;2;3" type="HARD"/>
  <CA4 max="1" min="0" mode1="HA" mode2="EVERY" penalty="2" slots="0;5" teams1="0" teams2="1" type="SOFT"/>
</CapacityConstraints>
<GameConstraints>
  <GA1 max="1" meetings="0,1;2,3;" min="1" penalty="" slots="0;1;2" type="HARD"/>
</GameConstraints>
<BreakConstraints>
  <BR1 intp="0" mode1="LEQ" mode2="HA" penalty="3" slots="1;2;3;4;5" teams="0;2" type="SOFT"/>
  <BR2 homeMode="HA" intp="4" mode2="LEQ" penalty="" slots="0;1;2;3;4;5" teams="0;1;2;3" type="HARD"/>
</BreakConstraints>
<FairnessConstraints>
  <FA2 intp="1" mode="H" penalty="4" slots="2;5" teams="0;1;2;3" type="SOFT"/>
</FairnessConstraints>
<SeparationConstraints>
  <SE1 mode1="SLOTS" min="2" penalty="7" teams="0;1;2;3" type="SOFT"/>
</SeparationConstraints>
`

func TestParse(t *testing.T) {
	inst, err := Parse(strings.NewReader(instanceXML(2, 6, allFamilies)))
	require.NoError(t, err)

	require.Equal(t, "TestInstance", inst.Name)
	require.Equal(t, schedule.Format{NTeams: 4, NSlots: 6, Phased: true}, inst.Format)
	require.Equal(t, []string{"Alpha", "Beta", "Gamma", "Delta"}, inst.TeamNames)

	wantCapacity := []constraint.Capacity{
		{Teams1: set(1), Teams2: set(1, 2, 3, 4), Slots: set(1, 2, 3), UpperBound: 1, Mode: constraint.Home},
		{Teams1: set(1), Teams2: set(3, 4), Slots: set(1, 2), UpperBound: 1, Mode: constraint.Both, Pen: 5},
		{Teams1: set(2), Teams2: set(3, 4), Slots: set(1, 2), UpperBound: 1, Mode: constraint.Both, Pen: 5},
		{Teams1: set(4), Teams2: set(1, 2, 3), Slots: set(1, 2, 3), UpperBound: 2, Mode: constraint.Away, Pen: 1},
		{Teams1: set(4), Teams2: set(1, 2, 3), Slots: set(2, 3, 4), UpperBound: 2, Mode: constraint.Away, Pen: 1},
		{Teams1: set(4), Teams2: set(1, 2, 3), Slots: set(3, 4, 5), UpperBound: 2, Mode: constraint.Away, Pen: 1},
		{Teams1: set(4), Teams2: set(1, 2, 3), Slots: set(4, 5, 6), UpperBound: 2, Mode: constraint.Away, Pen: 1},
		{Teams1: set(1, 2), Teams2: set(1, 2, 3, 4), Slots: set(5, 6), UpperBound: 3, Mode: constraint.Home},
		{Teams1: set(1), Teams2: set(2), Slots: set(1), UpperBound: 1, Mode: constraint.Both, Pen: 2},
		{Teams1: set(1), Teams2: set(2), Slots: set(6), UpperBound: 1, Mode: constraint.Both, Pen: 2},
	}
	if diff := cmp.Diff(wantCapacity, inst.Capacity); diff != "" {
		t.Errorf("Parse() capacity constraints returned with unexpected diff (-want+got);\n%s", diff)
	}

	wantGame := []constraint.Game{{
		Slots:      set(1, 2, 3),
		LowerBound: 1,
		UpperBound: 1,
		Meetings:   []constraint.Meeting{{Home: 1, Away: 2}, {Home: 3, Away: 4}},
	}}
	if diff := cmp.Diff(wantGame, inst.Game); diff != "" {
		t.Errorf("Parse() game constraints returned with unexpected diff (-want+got);\n%s", diff)
	}

	wantBreak := []constraint.Break{
		{Teams: set(1), Slots: set(2, 3, 4, 5, 6), Mode: constraint.Both, Pen: 3},
		{Teams: set(3), Slots: set(2, 3, 4, 5, 6), Mode: constraint.Both, Pen: 3},
		{Teams: set(1, 2, 3, 4), Slots: set(1, 2, 3, 4, 5, 6), UpperBound: 4, Mode: constraint.Both},
	}
	if diff := cmp.Diff(wantBreak, inst.Break); diff != "" {
		t.Errorf("Parse() break constraints returned with unexpected diff (-want+got);\n%s", diff)
	}

	wantFairness := []constraint.Fairness{{Teams: set(1, 2, 3, 4), Slots: set(3, 6), UpperBound: 1, Pen: 4}}
	if diff := cmp.Diff(wantFairness, inst.Fairness); diff != "" {
		t.Errorf("Parse() fairness constraints returned with unexpected diff (-want+got);\n%s", diff)
	}

	wantSeparation := []constraint.Separation{{Teams: set(1, 2, 3, 4), LowerBound: 2, Pen: 7}}
	if diff := cmp.Diff(wantSeparation, inst.Separation); diff != "" {
		t.Errorf("Parse() separation constraints returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		xml     string
		wantErr error
	}{
		{
			name:    "SingleRoundRobin",
			xml:     instanceXML(1, 3, ""),
			wantErr: ErrUnsupported,
		},
		{
			name:    "NotCompact",
			xml:     instanceXML(2, 8, ""),
			wantErr: ErrUnsupported,
		},
		{
			name:    "UnknownFamily",
			xml:     instanceXML(2, 6, `<GameConstraints><GA2 slots="0" type="HARD"/></GameConstraints>`),
			wantErr: ErrUnsupported,
		},
		{
			name:    "CapacityLowerBound",
			xml:     instanceXML(2, 6, `<CapacityConstraints><CA1 max="2" min="1" mode="H" penalty="" slots="0;1;2" teams="0" type="HARD"/></CapacityConstraints>`),
			wantErr: ErrUnsupported,
		},
		{
			name:    "SoftWithoutPenalty",
			xml:     instanceXML(2, 6, `<SeparationConstraints><SE1 mode1="SLOTS" min="1" penalty="0" teams="0;1" type="SOFT"/></SeparationConstraints>`),
			wantErr: ErrUnsupported,
		},
		{
			name:    "MissingAttribute",
			xml:     instanceXML(2, 6, `<FairnessConstraints><FA2 mode="H" penalty="" slots="2" teams="0;1" type="HARD"/></FairnessConstraints>`),
			wantErr: ErrUnsupported,
		},
		{
			name:    "TeamOutOfRange",
			xml:     instanceXML(2, 6, `<BreakConstraints><BR2 homeMode="HA" intp="1" mode2="LEQ" penalty="" slots="0;1" teams="0;7" type="HARD"/></BreakConstraints>`),
			wantErr: constraint.ErrInvalidConstraint,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(test.xml)); !errors.Is(err, test.wantErr) {
				t.Errorf("Parse() err = %v, want %v", err, test.wantErr)
			}
		})
	}

	if _, err := Parse(strings.NewReader("<Instance>")); err == nil {
		t.Error("Parse() of truncated XML succeeded")
	}
}

func TestSolution_RoundTrip(t *testing.T) {
	f, err := schedule.NewFormat(4, true)
	require.NoError(t, err)
	s := schedule.Canonical(f)
	meta := SolutionMeta{InstanceName: "TestInstance", SolutionName: "run", Infeasibility: 0, Objective: 12}

	var buf bytes.Buffer
	require.NoError(t, WriteSolution(&buf, s, meta))
	require.Contains(t, buf.String(), `<ScheduledMatch home="0" away="3" slot="0">`)
	require.Contains(t, buf.String(), `<ObjectiveValue infeasibility="0" objective="12">`)

	got, gotMeta, err := ReadSolution(&buf, f)
	require.NoError(t, err)
	require.True(t, got.Equal(s), "ReadSolution() = \n%v, want\n%v", got, s)
	if diff := cmp.Diff(meta, gotMeta); diff != "" {
		t.Errorf("ReadSolution() returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestReadSolution_Invalid(t *testing.T) {
	f, err := schedule.NewFormat(4, false)
	require.NoError(t, err)
	const partial = `<Solution><MetaData><InstanceName>x</InstanceName></MetaData>
<Games><ScheduledMatch home="0" away="1" slot="0"/></Games></Solution>`
	if _, _, err := ReadSolution(strings.NewReader(partial), f); !errors.Is(err, schedule.ErrInvalidSchedule) {
		t.Errorf("ReadSolution() err = %v, want %v", err, schedule.ErrInvalidSchedule)
	}
}
