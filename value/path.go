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

package value

import "strings"

// Path is a filesystem path, possibly a "lib://share/..." remote path
// (spec §3.1, §4.6). It is stored as the raw string; Join adds a "/"
// separator only when Raw does not already end with one.
type Path struct {
	Raw string
}

func (Path) Kind() Kind     { return KindPath }
func (p Path) String() string { return p.Raw }

// IsRemote reports whether the path is a "lib://<share>/..." remote path
// whose resolution is routed through a session-scoped share registry
// (spec §4.6, §6.2 glossary entry "lib://").
func (p Path) IsRemote() bool {
	return strings.HasPrefix(p.Raw, "lib://")
}

// Join appends a String segment using a single separator, per spec §4.2's
// path-join overload of `/` and the round-trip invariant of spec §8.1.6.
func (p Path) Join(segment string) Path {
	if p.Raw == "" {
		return Path{Raw: segment}
	}
	if strings.HasSuffix(p.Raw, "/") {
		return Path{Raw: p.Raw + segment}
	}
	return Path{Raw: p.Raw + "/" + segment}
}

// PathPattern is a glob pattern, produced by path() when its input contains
// glob metacharacters (spec §3.1, §4.6).
type PathPattern struct {
	Raw string
}

func (PathPattern) Kind() Kind        { return KindPathPattern }
func (p PathPattern) String() string { return p.Raw }

// HasGlobMeta reports whether s contains any of the glob metacharacters
// named in spec §4.6 ("*", "?", "[").
func HasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// MakePath implements the path() builtin's dispatch rule (spec §4.6,
// §6.3): plain/lib:// strings become Path, glob strings become
// PathPattern.
func MakePath(s string) Value {
	if HasGlobMeta(s) {
		return PathPattern{Raw: s}
	}
	return Path{Raw: s}
}
