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
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
)

func mustFormat(t *testing.T, nteams int, phased bool) Format {
	t.Helper()
	f, err := NewFormat(nteams, phased)
	if err != nil {
		t.Fatalf("NewFormat(%v, %v) returned with unexpected error %v", nteams, phased, err)
	}
	return f
}

// canonical4 is Canonical(4) written out.
var canonical4 = [][]int{
	{4, -3, 2, -4, 3, -2},
	{3, -4, -1, -3, 4, 1},
	{-2, 1, 4, 2, -1, -4},
	{-1, 2, -3, 1, -2, 3},
}

func TestNewFormat(t *testing.T) {
	testCases := []struct {
		nteams  int
		want    Format
		wantErr bool
	}{
		{nteams: 2, want: Format{NTeams: 2, NSlots: 2, Phased: true}},
		{nteams: 20, want: Format{NTeams: 20, NSlots: 38, Phased: true}},
		{nteams: 32, want: Format{NTeams: 32, NSlots: 62, Phased: true}},
		{nteams: 0, wantErr: true},
		{nteams: 5, wantErr: true},
		{nteams: 34, wantErr: true},
	}

	for _, test := range testCases {
		got, err := NewFormat(test.nteams, true)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("NewFormat(%v) err = %v, want %v", test.nteams, err, ErrInvalidFormat)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewFormat(%v) returned with unexpected error %v", test.nteams, err)
		}
		if got != test.want {
			t.Errorf("NewFormat(%v) = %v, want %v", test.nteams, got, test.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	got := Canonical(mustFormat(t, 4, true)).Rows()
	if diff := cmp.Diff(canonical4, got); diff != "" {
		t.Errorf("Canonical(4) returned with unexpected diff (-want+got);\n%s", diff)
	}
	for n := 2; n <= MaxTeams; n += 2 {
		if err := Canonical(mustFormat(t, n, true)).Validate(); err != nil {
			t.Errorf("Canonical(%v).Validate() returned with unexpected error %v", n, err)
		}
	}
}

func TestSchedule_Validate(t *testing.T) {
	f := mustFormat(t, 4, true)
	testCases := []struct {
		name   string
		mutate func(rows [][]int)
	}{
		{
			name:   "UnusedCell",
			mutate: func(rows [][]int) { rows[0][0] = 0 },
		},
		{
			name:   "SelfMeeting",
			mutate: func(rows [][]int) { rows[1][0] = 2 },
		},
		{
			name:   "Inconsistent",
			mutate: func(rows [][]int) { rows[3][0] = 1 },
		},
		{
			name: "SameVenueTwice",
			mutate: func(rows [][]int) {
				// Team 1 hosts 2 in slot 3 and in slot 6.
				rows[0][5], rows[1][5] = 2, -1
			},
		},
		{
			name: "PhaseBroken",
			mutate: func(rows [][]int) {
				// Slots 3 and 4 exchanged: 1 meets 4 twice in the first half.
				for i := range rows {
					rows[i][2], rows[i][3] = rows[i][3], rows[i][2]
				}
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			rows := Canonical(f).Rows()
			test.mutate(rows)
			if _, err := FromRows(f, rows); !errors.Is(err, ErrInvalidSchedule) {
				t.Errorf("FromRows() err = %v, want %v", err, ErrInvalidSchedule)
			}
		})
	}
}

func TestSchedule_Moves(t *testing.T) {
	f := mustFormat(t, 4, false)
	testCases := []struct {
		name       string
		move       func(s *Schedule)
		want       [][]int
		wantPhased bool
	}{
		{
			name: "SwapHomes",
			move: func(s *Schedule) { s.SwapHomes(1, 2) },
			want: [][]int{
				{4, -3, -2, -4, 3, 2},
				{3, -4, 1, -3, 4, -1},
				{-2, 1, 4, 2, -1, -4},
				{-1, 2, -3, 1, -2, 3},
			},
			wantPhased: true,
		},
		{
			name: "SwapRounds",
			move: func(s *Schedule) { s.SwapRounds(1, 3) },
			want: [][]int{
				{2, -3, 4, -4, 3, -2},
				{-1, -4, 3, -3, 4, 1},
				{4, 1, -2, 2, -1, -4},
				{-3, 2, -1, 1, -2, 3},
			},
			wantPhased: true,
		},
		{
			name: "SwapTeams",
			move: func(s *Schedule) { s.SwapTeams(1, 2) },
			want: [][]int{
				{3, -4, 2, -3, 4, -2},
				{4, -3, -1, -4, 3, 1},
				{-1, 2, 4, 1, -2, -4},
				{-2, 1, -3, 2, -1, 3},
			},
			wantPhased: true,
		},
		{
			name: "PartialSwapTeams",
			move: func(s *Schedule) { s.PartialSwapTeams(1, 2, 1) },
			want: [][]int{
				{3, -3, 2, -4, 4, -2},
				{4, -4, -1, -3, 3, 1},
				{-1, 1, 4, 2, -2, -4},
				{-2, 2, -3, 1, -1, 3},
			},
			wantPhased: false,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			s := Canonical(f)
			test.move(s)
			if diff := cmp.Diff(test.want, s.Rows()); diff != "" {
				t.Errorf("move returned with unexpected diff (-want+got);\n%s", diff)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("Validate() returned with unexpected error %v", err)
			}
			phased := s.Clone()
			phased.format.Phased = true
			if got := phased.Validate() == nil; got != test.wantPhased {
				t.Errorf("phased Validate() == nil is %v, want %v", got, test.wantPhased)
			}
		})
	}
}

func TestSchedule_PartialSwapRoundsClosure(t *testing.T) {
	f := mustFormat(t, 4, true)
	s := Canonical(f)
	want := Canonical(f)
	want.SwapRounds(1, 2)

	teams := s.PartialSwapRounds(1, 1, 2)
	if teams != f.Teams() {
		t.Errorf("PartialSwapRounds(1, 1, 2) = %v, want %v", teams, f.Teams())
	}
	if !s.Equal(want) {
		t.Errorf("PartialSwapRounds covering every team differs from SwapRounds:\n%v\nwant\n%v", s, want)
	}
	if got := s.PartialSwapRounds(1, 2, 2); got != 0 {
		t.Errorf("PartialSwapRounds(1, 2, 2) = %v, want {}", got)
	}
}

func TestSchedule_PartialSwapTeamsMeeting(t *testing.T) {
	s := Canonical(mustFormat(t, 4, false))
	before := s.Clone()
	// Teams 1 and 2 meet in slot 3.
	if got := s.PartialSwapTeams(1, 2, 3); got != 0 {
		t.Errorf("PartialSwapTeams(1, 2, 3) = %v, want {}", got)
	}
	if !s.Equal(before) {
		t.Errorf("PartialSwapTeams on a meeting slot changed the schedule")
	}
}

func TestSchedule_MovesAreInvolutions(t *testing.T) {
	f := mustFormat(t, 10, true)
	moves := map[string]func(s *Schedule){
		"SwapHomes":  func(s *Schedule) { s.SwapHomes(3, 7) },
		"SwapRounds": func(s *Schedule) { s.SwapRounds(2, 9) },
		"SwapTeams":  func(s *Schedule) { s.SwapTeams(1, 10) },
	}
	for name, move := range moves {
		s := Canonical(f)
		move(s)
		if s.Equal(Canonical(f)) {
			t.Errorf("%v did not change the schedule", name)
		}
		move(s)
		if !s.Equal(Canonical(f)) {
			t.Errorf("%v applied twice did not restore the schedule", name)
		}
	}
}

func TestSchedule_RandomWalk(t *testing.T) {
	for _, phased := range []bool{true, false} {
		f := mustFormat(t, 12, phased)
		rng := rand.New(rand.NewPCG(1, 2))
		s := Canonical(f)
		team := func() int { return rng.IntN(f.NTeams) + 1 }
		pair := func() (int, int) {
			i := team()
			j := team()
			for j == i {
				j = team()
			}
			return i, j
		}
		slotPair := func() (int, int) {
			k := rng.IntN(f.NSlots) + 1
			l := rng.IntN(f.NSlots) + 1
			if phased && !f.SameHalf(k, l) {
				l = (l+f.NSlots/2-1)%f.NSlots + 1
			}
			return k, l
		}
		for step := 0; step < 2000; step++ {
			switch kind := rng.IntN(5); kind {
			case 0:
				s.SwapHomes(pair())
			case 1:
				s.SwapRounds(slotPair())
			case 2:
				s.SwapTeams(pair())
			case 3:
				k, l := slotPair()
				s.PartialSwapRounds(team(), k, l)
			case 4:
				if phased {
					continue
				}
				i, j := pair()
				s.PartialSwapTeams(i, j, rng.IntN(f.NSlots)+1)
			}
			if err := s.Validate(); err != nil {
				t.Fatalf("phased=%v step %v: Validate() returned with unexpected error %v\n%v", phased, step, err, s)
			}
		}
	}
}

func TestSchedule_Games(t *testing.T) {
	f := mustFormat(t, 4, true)
	s := Canonical(f)
	games := s.Games()
	if got, want := len(games), f.NTeams*(f.NTeams-1); got != want {
		t.Fatalf("len(Games()) = %v, want %v", got, want)
	}
	wantFirst := []Game{{Home: 1, Away: 4, Slot: 1}, {Home: 2, Away: 3, Slot: 1}}
	if diff := cmp.Diff(wantFirst, games[:2]); diff != "" {
		t.Errorf("Games() returned with unexpected diff (-want+got);\n%s", diff)
	}
	back, err := FromGames(f, games)
	if err != nil {
		t.Fatalf("FromGames() returned with unexpected error %v", err)
	}
	if !back.Equal(s) {
		t.Errorf("FromGames(Games()) differs from the original schedule")
	}
}

func TestCellMask_Diff(t *testing.T) {
	f := mustFormat(t, 4, true)
	a := Canonical(f)
	b := a.Clone()
	b.SwapHomes(1, 2)

	m := NewCellMask(f).Diff(a, b)
	want := CellMask{
		indexset.MustFromValues(3, 6),
		indexset.MustFromValues(3, 6),
		0,
		0,
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("Diff() returned with unexpected diff (-want+got);\n%s", diff)
	}
	if got := m.Teams(); got != indexset.MustFromValues(1, 2) {
		t.Errorf("Teams() = %v, want {1,2}", got)
	}
	if m.Len() != 4 || m.IsEmpty() {
		t.Errorf("Len() = %v, IsEmpty() = %v, want 4, false", m.Len(), m.IsEmpty())
	}
	if !m.Overlaps(FullCellMask(f)) {
		t.Errorf("Overlaps(FullCellMask) = false, want true")
	}

	a.CopyCells(b, m)
	if !a.Equal(b) {
		t.Errorf("CopyCells(b, Diff(a, b)) did not make a equal to b")
	}
}
