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

import "time"

// Date is a calendar date/time value created by date() (spec §3.1). It is
// stored as a UTC time.Time so comparisons are simple time.Time comparisons.
type Date struct {
	T time.Time
}

func (Date) Kind() Kind { return KindDate }

func (d Date) String() string {
	return d.T.Format("2006-01-02")
}

// allowedDateFormats mirrors the layered format fallback memcp's
// scm.ParseDateString uses (scm/date.go): try the most specific formats
// first, fall back to date-only.
var allowedDateFormats = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate tries each allowed format in turn. Returns a Date and true on
// success, or the zero Date and false on failure (spec §3.1: "validated
// format" for date()).
func ParseDate(s string) (Date, bool) {
	for _, format := range allowedDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return Date{T: t.UTC()}, true
		}
	}
	return Date{}, false
}
