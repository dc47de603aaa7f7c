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

// Package export serializes schedules in the protocol buffer wire format of
//
//	message Solution {
//	  repeated Game games = 1;
//	  int64 infeasibility = 2;
//	  int64 objective = 3;
//	  string run_id = 4;
//	}
//
//	message Game {
//	  int32 home = 1;
//	  int32 away = 2;
//	  int32 slot = 3;
//	}
//
// Teams and slots are 0-based on the wire. Games are written in slot order, then by home
// team, one per game of the schedule.
package export

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/janerikhein/RR2timetabling/rr2/schedule"
)

// ErrMalformed is returned when the input is not a valid Solution message.
var ErrMalformed = errors.New("malformed solution message")

// Field numbers of Solution.
const (
	solutionGames         protowire.Number = 1
	solutionInfeasibility protowire.Number = 2
	solutionObjective     protowire.Number = 3
	solutionRunID         protowire.Number = 4
)

// Field numbers of Game.
const (
	gameHome protowire.Number = 1
	gameAway protowire.Number = 2
	gameSlot protowire.Number = 3
)

// Metadata is stored next to the games of a solution.
type Metadata struct {
	Infeasibility int64
	Objective     int64
	RunID         string
}

// Marshal encodes `s` and `md` as a Solution message.
func Marshal(s *schedule.Schedule, md Metadata) []byte {
	var b, game []byte
	for _, g := range s.Games() {
		game = appendInt32(game[:0], gameHome, g.Home-1)
		game = appendInt32(game, gameAway, g.Away-1)
		game = appendInt32(game, gameSlot, g.Slot-1)
		b = protowire.AppendTag(b, solutionGames, protowire.BytesType)
		b = protowire.AppendBytes(b, game)
	}
	if md.Infeasibility != 0 {
		b = protowire.AppendTag(b, solutionInfeasibility, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(md.Infeasibility))
	}
	if md.Objective != 0 {
		b = protowire.AppendTag(b, solutionObjective, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(md.Objective))
	}
	if md.RunID != "" {
		b = protowire.AppendTag(b, solutionRunID, protowire.BytesType)
		b = protowire.AppendString(b, md.RunID)
	}
	return b
}

func appendInt32(b []byte, num protowire.Number, v int) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(int32(v))))
}

// Unmarshal decodes a Solution message into a schedule of format `f`. Unknown fields are
// skipped. The decoded schedule is validated.
func Unmarshal(b []byte, f schedule.Format) (*schedule.Schedule, Metadata, error) {
	var (
		md    Metadata
		games []schedule.Game
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, md, fmt.Errorf("tag: %v: %w", protowire.ParseError(n), ErrMalformed)
		}
		b = b[n:]
		switch {
		case num == solutionGames && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, md, fmt.Errorf("games: %v: %w", protowire.ParseError(n), ErrMalformed)
			}
			g, err := unmarshalGame(v)
			if err != nil {
				return nil, md, fmt.Errorf("game %v: %w", len(games), err)
			}
			games = append(games, g)
			b = b[n:]
		case (num == solutionInfeasibility || num == solutionObjective) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, md, fmt.Errorf("field %v: %v: %w", num, protowire.ParseError(n), ErrMalformed)
			}
			if num == solutionInfeasibility {
				md.Infeasibility = int64(v)
			} else {
				md.Objective = int64(v)
			}
			b = b[n:]
		case num == solutionRunID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, md, fmt.Errorf("run_id: %v: %w", protowire.ParseError(n), ErrMalformed)
			}
			md.RunID = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, md, fmt.Errorf("field %v: %v: %w", num, protowire.ParseError(n), ErrMalformed)
			}
			b = b[n:]
		}
	}
	s, err := schedule.FromGames(f, games)
	if err != nil {
		return nil, md, err
	}
	return s, md, nil
}

func unmarshalGame(b []byte) (schedule.Game, error) {
	var g schedule.Game
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return g, fmt.Errorf("tag: %v: %w", protowire.ParseError(n), ErrMalformed)
		}
		b = b[n:]
		if typ != protowire.VarintType || num < gameHome || num > gameSlot {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return g, fmt.Errorf("field %v: %v: %w", num, protowire.ParseError(n), ErrMalformed)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return g, fmt.Errorf("field %v: %v: %w", num, protowire.ParseError(n), ErrMalformed)
		}
		b = b[n:]
		switch num {
		case gameHome:
			g.Home = int(int32(v))
		case gameAway:
			g.Away = int(int32(v))
		case gameSlot:
			g.Slot = int(int32(v))
		}
	}
	g.Home, g.Away, g.Slot = g.Home+1, g.Away+1, g.Slot+1
	return g, nil
}
