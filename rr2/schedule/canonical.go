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

// Canonical returns the circle-method schedule of `f`: team `n` stays fixed while the
// others rotate, and the second half mirrors the first with venues exchanged. The result
// is phased whether or not `f` asks for it.
func Canonical(f Format) *Schedule {
	s := New(f)
	n := f.NTeams
	m := n - 1
	for r := 0; r < m; r++ {
		first, second := r+1, r+1+m
		host, guest := n, r+1
		if r%2 == 0 {
			host, guest = guest, host
		}
		s.SetGame(host, guest, first)
		s.SetGame(guest, host, second)
		for k := 1; k < n/2; k++ {
			a := (r+k)%m + 1
			b := (r-k+m)%m + 1
			if k%2 == 0 {
				a, b = b, a
			}
			s.SetGame(a, b, first)
			s.SetGame(b, a, second)
		}
	}
	return s
}
