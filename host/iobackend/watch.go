/*
Copyright (C) 2024  DataCode Authors

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

// Package iobackend watches a directory for externally-dropped files and
// reports them, for host/session's smb_connect shares: a share is a local
// staging directory, and a client wants to know when something other than
// its own upload_file calls lands there.
//
// This is a direct generalization of memcp's getWatch (main.go): a
// fsnotify.Watcher whose event channel is drained with a short delay before
// acting (so an editor's multi-event save collapses into one reaction).
// Unlike getWatch, the watch is not re-added after firing: WatchDir adds
// the directory once. memcp
// watches one file and re-reads it; this watches a directory and reports
// the name instead of re-reading, since a DataCode session has no single
// callback value it's safe to invoke from a goroutine outside the
// interpreter's own call stack.
package iobackend

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event describes one settled filesystem change.
type Event struct {
	Name string // base filename
	Op   string // "create", "write", "remove", "rename"
}

// DirWatcher watches one directory and delivers debounced Events until
// Close is called.
type DirWatcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}
}

// WatchDir starts watching dir. Events fire only for files inside dir
// directly (no recursion), matching a share's flat staging-directory
// layout.
func WatchDir(dir string) (*DirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	dw := &DirWatcher{
		watcher: w,
		events:  make(chan Event, 16),
		done:    make(chan struct{}),
	}
	go dw.run(dir)
	return dw, nil
}

// Events returns the channel new settled Events arrive on.
func (dw *DirWatcher) Events() <-chan Event {
	return dw.events
}

func (dw *DirWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}

func (dw *DirWatcher) run(dir string) {
	defer close(dw.events)
	for {
		select {
		case <-dw.done:
			return
		case ev, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			// drain any immediately-following events from the same burst
			// (multi-step saves, SMB write-then-rename) before reacting.
		drain:
			for {
				time.Sleep(10 * time.Millisecond)
				select {
				case <-dw.watcher.Events:
					continue
				default:
					break drain
				}
			}
			dw.emit(ev, dir)
		case <-dw.watcher.Errors:
			// a watch error on this fd is not actionable here; the caller
			// learns about it only by the Events channel eventually closing.
		}
	}
}

func (dw *DirWatcher) emit(ev fsnotify.Event, dir string) {
	op := "write"
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = "create"
	case ev.Op&fsnotify.Remove != 0:
		op = "remove"
	case ev.Op&fsnotify.Rename != 0:
		op = "rename"
	}
	select {
	case dw.events <- Event{Name: filepath.Base(ev.Name), Op: op}:
	default:
		// events channel is full: drop rather than block the watch loop
	}
}
