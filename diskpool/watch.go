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
package diskpool

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// WatchFileBackend watches fb's slot file for removal or renaming by
// something outside the pool (an operator's rm, a misbehaving backup job)
// and panics the process the moment it notices — spec.md §7 treats slot
// storage corruption as unrecoverable, so there is no degraded mode to
// fall back to. Returns a stop function.
func WatchFileBackend(fb *FileBackend) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("diskpool: starting slot file watch: %w", err)
	}
	if err := watcher.Add(fb.Path()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("diskpool: watching slot file %s: %w", fb.Path(), err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					panic(fmt.Sprintf("diskpool: slot file %s was removed or renamed externally", fb.Path()))
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Printf("sparrow: slot file watch error: %v\n", watchErr)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
