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

package indexset

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ExampleIndexSet() {
	teams := MustFromValues(4, 1, 7)

	fmt.Println(teams, teams.Len(), teams.Contains(4), teams.Contains(5))
	for v := range teams.All() {
		fmt.Print(v, " ")
	}
	fmt.Println()
	// Output:
	// {1,4,7} 3 true false
	// 1 4 7
}

func TestIndexSet_FromValues(t *testing.T) {
	testCases := []struct {
		name    string
		values  []int
		want    []int
		wantErr error
	}{
		{
			name:   "Empty",
			values: nil,
			want:   []int{},
		},
		{
			name:   "Unsorted",
			values: []int{5, 3, 64, 1},
			want:   []int{1, 3, 5, 64},
		},
		{
			name:    "Duplicate",
			values:  []int{2, 3, 2},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "Zero",
			values:  []int{0},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "TooLarge",
			values:  []int{65},
			wantErr: ErrInvalidInput,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := FromValues(test.values...)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("FromValues(%v) err = %v, want %v", test.values, err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromValues(%v) returned with unexpected error %v", test.values, err)
			}
			if diff := cmp.Diff(test.want, got.Values()); diff != "" {
				t.Errorf("FromValues(%v).Values() returned with unexpected diff (-want+got);\n%s", test.values, diff)
			}
		})
	}
}

func TestIndexSet_Range(t *testing.T) {
	testCases := []struct {
		lo, hi int
		want   []int
	}{
		{lo: 1, hi: 4, want: []int{1, 2, 3, 4}},
		{lo: 3, hi: 3, want: []int{3}},
		{lo: 5, hi: 2, want: []int{}},
		{lo: 62, hi: 70, want: []int{62, 63, 64}},
		{lo: -3, hi: 1, want: []int{1}},
	}

	for _, test := range testCases {
		got := Range(test.lo, test.hi).Values()
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Range(%v, %v) returned with unexpected diff (-want+got);\n%s", test.lo, test.hi, diff)
		}
	}
}

func TestIndexSet_SetAlgebra(t *testing.T) {
	a := MustFromValues(1, 2, 3, 10)
	b := MustFromValues(3, 4, 10, 64)

	require.Equal(t, []int{1, 2, 3, 4, 10, 64}, a.Union(b).Values())
	require.Equal(t, []int{3, 10}, a.Intersect(b).Values())
	require.Equal(t, []int{1, 2}, a.Difference(b).Values())
	require.True(t, a.Overlaps(b))
	require.False(t, a.Overlaps(MustFromValues(5, 6)))
	require.Equal(t, 4, a.Len())
	require.Equal(t, []int{1, 3, 10}, a.Without(2).Values())
	require.Equal(t, []int{1, 2, 3, 10, 33}, a.With(33).Values())
	require.Equal(t, a, a.With(0), "out-of-range With must be a no-op")
}

func TestIndexSet_MinMax(t *testing.T) {
	lo, ok := NewEmpty().Min()
	require.False(t, ok)
	require.Zero(t, lo)

	s := MustFromValues(7, 64, 12)
	lo, ok = s.Min()
	require.True(t, ok)
	require.Equal(t, 7, lo)
	hi, ok := s.Max()
	require.True(t, ok)
	require.Equal(t, 64, hi)
}

func TestIndexSet_AllStopsEarly(t *testing.T) {
	var seen []int
	for v := range Range(1, 10).All() {
		if v > 3 {
			break
		}
		seen = append(seen, v)
	}
	require.Equal(t, []int{1, 2, 3}, seen)
}

func TestIndexSet_ContainsOutOfRange(t *testing.T) {
	s := Range(1, 64)
	for _, v := range []int{-1, 0, 65, 1000} {
		if s.Contains(v) {
			t.Errorf("Range(1, 64).Contains(%v) = true, want false", v)
		}
	}
}
