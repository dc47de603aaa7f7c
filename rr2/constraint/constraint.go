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

// Package constraint offers the constraint language of double round-robin timetabling.
//
// Five constraint families are modeled: Capacity, Break, Game, Fairness and
// Separation. Each constraint carries a penalty `Pen`; a zero penalty makes it hard.
// Evaluate returns the offset of a constraint on a schedule, that is the amount by which
// its bound is exceeded (0 if satisfied), and Entries returns the schedule cells the
// offset depends on.
//
// The `Builder` struct collects validated constraints into an `Instance`.
package constraint

import (
	"errors"
	"fmt"

	"github.com/janerikhein/RR2timetabling/rr2/indexset"
	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// ErrInvalidConstraint holds the error when a constraint does not fit its instance.
var ErrInvalidConstraint = errors.New("invalid constraint")

// Mode selects which venues a constraint counts.
type Mode uint8

// Venue modes.
const (
	Home Mode = iota
	Away
	Both
)

// ParseMode parses the `H`, `A` and `HA` mode names.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "H":
		return Home, nil
	case "A":
		return Away, nil
	case "HA", "AH":
		return Both, nil
	}
	return 0, fmt.Errorf("unknown mode %q: %w", s, ErrInvalidConstraint)
}

func (m Mode) String() string {
	switch m {
	case Home:
		return "H"
	case Away:
		return "A"
	case Both:
		return "HA"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// matches reports whether cell value `v` has a venue counted by `m`.
func (m Mode) matches(v int) bool {
	switch m {
	case Home:
		return v > 0
	case Away:
		return v < 0
	}
	return v != 0
}

// Kind identifies the family of a constraint.
type Kind uint8

// Constraint families.
const (
	KindCapacity Kind = iota
	KindBreak
	KindGame
	KindFairness
	KindSeparation
)

func (k Kind) String() string {
	switch k {
	case KindCapacity:
		return "Capacity"
	case KindBreak:
		return "Break"
	case KindGame:
		return "Game"
	case KindFairness:
		return "Fairness"
	case KindSeparation:
		return "Separation"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Constraint is implemented by the five constraint families of this package only.
type Constraint interface {
	// Kind returns the family of the constraint.
	Kind() Kind
	// Penalty returns the weight of the constraint, 0 for a hard constraint.
	Penalty() int
	// Evaluate returns the offset of the constraint on `s`.
	Evaluate(s *schedule.Schedule) int
	// Entries returns the cells the offset depends on.
	Entries(f schedule.Format) schedule.CellMask
	validate(f schedule.Format) error
}

// IsHard reports whether `c` must be satisfied exactly.
func IsHard(c Constraint) bool {
	return c.Penalty() == 0
}

// Capacity limits how many games teams of Teams1 play against teams of Teams2 in Slots,
// counting only the venues selected by Mode (from the point of view of Teams1).
type Capacity struct {
	Teams1     indexset.IndexSet
	Teams2     indexset.IndexSet
	Slots      indexset.IndexSet
	UpperBound int
	Mode       Mode
	Pen        int
}

// Break limits the number of breaks of Teams in Slots. A break in slot `s > 1` is a pair
// of games in `s-1` and `s` with the same venue; Mode restricts it to home or away breaks.
type Break struct {
	Teams      indexset.IndexSet
	Slots      indexset.IndexSet
	UpperBound int
	Mode       Mode
	Pen        int
}

// Meeting is a directed game: Home hosts Away.
type Meeting struct {
	Home int
	Away int
}

// Game bounds how many of Meetings take place in Slots.
type Game struct {
	Slots      indexset.IndexSet
	LowerBound int
	UpperBound int
	Meetings   []Meeting
	Pen        int
}

// Fairness bounds the difference in home games played so far between each pair of
// Teams, checked after every slot of Slots.
type Fairness struct {
	Teams      indexset.IndexSet
	Slots      indexset.IndexSet
	UpperBound int
	Pen        int
}

// Separation requires at least LowerBound slots between the two meetings of each pair
// of Teams.
type Separation struct {
	Teams      indexset.IndexSet
	LowerBound int
	Pen        int
}

// Kind implements Constraint.
func (Capacity) Kind() Kind { return KindCapacity }

// Kind implements Constraint.
func (Break) Kind() Kind { return KindBreak }

// Kind implements Constraint.
func (Game) Kind() Kind { return KindGame }

// Kind implements Constraint.
func (Fairness) Kind() Kind { return KindFairness }

// Kind implements Constraint.
func (Separation) Kind() Kind { return KindSeparation }

// Penalty implements Constraint.
func (c Capacity) Penalty() int { return c.Pen }

// Penalty implements Constraint.
func (c Break) Penalty() int { return c.Pen }

// Penalty implements Constraint.
func (c Game) Penalty() int { return c.Pen }

// Penalty implements Constraint.
func (c Fairness) Penalty() int { return c.Pen }

// Penalty implements Constraint.
func (c Separation) Penalty() int { return c.Pen }

// IsPatternConstraint reports whether `c` only depends on the home/away pattern of a
// single team: a Capacity of one team against all its opponents with a Home or Away
// mode, or a Break of one team.
func IsPatternConstraint(c Constraint, f schedule.Format) bool {
	switch c := c.(type) {
	case Capacity:
		return c.Teams1.Len() == 1 && countsAllOpponents(c, f)
	case Break:
		return c.Teams.Len() == 1
	}
	return false
}

// IsPatternSetConstraint reports whether `c` only depends on the home/away patterns of
// several teams, like IsPatternConstraint but for more than one team.
func IsPatternSetConstraint(c Constraint, f schedule.Format) bool {
	switch c := c.(type) {
	case Capacity:
		return c.Teams1.Len() > 1 && countsAllOpponents(c, f)
	case Break:
		return c.Teams.Len() > 1
	}
	return false
}

// countsAllOpponents reports whether every team of Teams1 is counted against each of its
// opponents, so that the count only depends on the venues of Teams1.
func countsAllOpponents(c Capacity, f schedule.Format) bool {
	if c.Mode == Both {
		return false
	}
	missing := f.Teams().Difference(c.Teams2)
	return missing.IsEmpty() || (missing.Len() == 1 && missing == c.Teams1)
}

func checkSubset(name string, s, of indexset.IndexSet) error {
	if s.IsEmpty() {
		return fmt.Errorf("%v is empty: %w", name, ErrInvalidConstraint)
	}
	if !s.Difference(of).IsEmpty() {
		return fmt.Errorf("%v=%v not within %v: %w", name, s, of, ErrInvalidConstraint)
	}
	return nil
}

func checkNonNegative(name string, v int) error {
	if v < 0 {
		return fmt.Errorf("%v=%v must not be negative: %w", name, v, ErrInvalidConstraint)
	}
	return nil
}

func (c Capacity) validate(f schedule.Format) error {
	return errors.Join(
		checkSubset("teams1", c.Teams1, f.Teams()),
		checkSubset("teams2", c.Teams2, f.Teams()),
		checkSubset("slots", c.Slots, f.Slots()),
		checkNonNegative("upper bound", c.UpperBound),
		checkNonNegative("penalty", c.Pen),
		checkMode(c.Mode),
	)
}

func (c Break) validate(f schedule.Format) error {
	return errors.Join(
		checkSubset("teams", c.Teams, f.Teams()),
		checkSubset("slots", c.Slots, f.Slots()),
		checkNonNegative("upper bound", c.UpperBound),
		checkNonNegative("penalty", c.Pen),
		checkMode(c.Mode),
	)
}

func (c Game) validate(f schedule.Format) error {
	errs := []error{
		checkSubset("slots", c.Slots, f.Slots()),
		checkNonNegative("lower bound", c.LowerBound),
		checkNonNegative("penalty", c.Pen),
	}
	if c.LowerBound > c.UpperBound {
		errs = append(errs, fmt.Errorf("lower bound %v exceeds upper bound %v: %w", c.LowerBound, c.UpperBound, ErrInvalidConstraint))
	}
	if len(c.Meetings) == 0 {
		errs = append(errs, fmt.Errorf("no meetings: %w", ErrInvalidConstraint))
	}
	for _, m := range c.Meetings {
		if m.Home == m.Away || !f.Teams().Contains(m.Home) || !f.Teams().Contains(m.Away) {
			errs = append(errs, fmt.Errorf("invalid meeting %v-%v: %w", m.Home, m.Away, ErrInvalidConstraint))
		}
	}
	return errors.Join(errs...)
}

func (c Fairness) validate(f schedule.Format) error {
	return errors.Join(
		checkSubset("teams", c.Teams, f.Teams()),
		checkSubset("slots", c.Slots, f.Slots()),
		checkNonNegative("upper bound", c.UpperBound),
		checkNonNegative("penalty", c.Pen),
	)
}

func (c Separation) validate(f schedule.Format) error {
	err := errors.Join(
		checkSubset("teams", c.Teams, f.Teams()),
		checkNonNegative("lower bound", c.LowerBound),
		checkNonNegative("penalty", c.Pen),
	)
	if err == nil && c.Teams.Len() < 2 {
		err = fmt.Errorf("teams=%v holds no pair: %w", c.Teams, ErrInvalidConstraint)
	}
	return err
}

func checkMode(m Mode) error {
	if m > Both {
		return fmt.Errorf("invalid mode %v: %w", m, ErrInvalidConstraint)
	}
	return nil
}
