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

// Object is an insertion-ordered string->Value mapping (spec §3.1). Keys is
// the insertion order; Values mirrors it by index so that iteration (for x
// in obj) and spread (...obj) both observe insertion order without having
// to sort a map.
type Object struct {
	Keys   []string
	Values map[string]Value
}

func NewObject() *Object {
	return &Object{Values: make(map[string]Value)}
}

func (*Object) Kind() Kind { return KindObject }

// Set inserts or overwrites a key. A duplicate key overwrites with the last
// value and keeps its original position (spec §4.4: "duplicate keys
// overwrite with last value").
func (o *Object) Set(key string, v Value) {
	if _, exists := o.Values[key]; !exists {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.Values[key]
	return v, ok
}

func (o *Object) Delete(key string) {
	if _, ok := o.Values[key]; !ok {
		return
	}
	delete(o.Values, key)
	for i, k := range o.Keys {
		if k == key {
			o.Keys = append(o.Keys[:i], o.Keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Clone() *Object {
	out := NewObject()
	for _, k := range o.Keys {
		out.Set(k, o.Values[k])
	}
	return out
}

func (o *Object) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range o.Keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(renderElement(o.Values[k]))
	}
	b.WriteByte('}')
	return b.String()
}
