/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package wtrace tags Sparrow's long-lived worker goroutines (enqueue and
// dequeue workers, assigner, sampler, filler, booster) with a role string
// via goroutine-local storage, so a panic recovered higher up the stack can
// report which worker died without threading a label through every call.
package wtrace

import (
	"fmt"

	"github.com/jtolds/gls"
)

var mgr = gls.NewContextManager()

const roleKey = "sparrow-worker-role"

// Role returns the role of the currently running goroutine, or "" if it was
// not spawned via Go.
func Role() string {
	if v, ok := mgr.GetValue(roleKey); ok {
		return v.(string)
	}
	return ""
}

// Go spawns f as a goroutine tagged with role. If f panics, the panic is
// re-raised after logging which role crashed — matching spec.md §7's
// "poisoned channel" semantics: a crashed worker must be attributable.
func Go(role string, f func()) {
	mgr.SetValues(gls.Values{roleKey: role}, func() {
		gls.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Printf("sparrow: worker %q crashed: %v\n", role, r)
					panic(r)
				}
			}()
			f()
		})
	})
}
