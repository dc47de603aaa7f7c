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

package tabu

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid tabu search config")

// Config holds the parameters of a search run.
type Config struct {
	// MaxIterationsWithoutImprovement ends an intensification phase.
	MaxIterationsWithoutImprovement int `validate:"gte=1"`
	// TabuLength is the number of iterations an applied move stays tabu.
	TabuLength int `validate:"gte=0"`
	// DiversifyLength is the number of iterations of a diversification phase.
	DiversifyLength int `validate:"gte=0"`
	// MaxPhases bounds the number of intensification phases.
	MaxPhases int `validate:"gte=1"`
	// HardWeight is the weight of the offset of a hard constraint.
	HardWeight int `validate:"gte=1"`
	// FrequencyWeight scales the visit counts of changed cells while diversifying.
	FrequencyWeight int `validate:"gte=0"`
	// MaxIterations bounds the total number of iterations; 0 means no bound.
	MaxIterations int `validate:"gte=0"`
	// Seed seeds the shuffling of the moves.
	Seed uint64
}

// DefaultConfig returns the parameters used when none are given.
func DefaultConfig() Config {
	return Config{
		MaxIterationsWithoutImprovement: 500,
		TabuLength:                      20,
		DiversifyLength:                 15,
		MaxPhases:                       10,
		HardWeight:                      1000,
		FrequencyWeight:                 1,
		Seed:                            1,
	}
}

var validate = validator.New()

// Validate checks the bounds of every parameter.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}
	return nil
}
