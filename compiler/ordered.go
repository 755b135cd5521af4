// Copyright 2020-2021 Dolthub, Inc.
//
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

package compiler

// orderedFields is an insertion-ordered field->node map. Compilation
// must be deterministic (spec.md §8); a plain Go map's iteration order
// is not, so every place the match/projection/group folders need
// "field -> thing" with stable emission order goes through this instead.
type orderedFields struct {
	order []string
	vals  map[string]interface{}
}

func newOrderedFields() *orderedFields {
	return &orderedFields{vals: map[string]interface{}{}}
}

func (o *orderedFields) get(field string) (interface{}, bool) {
	v, ok := o.vals[field]
	return v, ok
}

func (o *orderedFields) set(field string, v interface{}) {
	if _, ok := o.vals[field]; !ok {
		o.order = append(o.order, field)
	}
	o.vals[field] = v
}

func (o *orderedFields) delete(field string) {
	if _, ok := o.vals[field]; !ok {
		return
	}
	delete(o.vals, field)
	for i, f := range o.order {
		if f == field {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *orderedFields) len() int {
	return len(o.order)
}

// each calls fn for every field in insertion order.
func (o *orderedFields) each(fn func(field string, v interface{})) {
	for _, f := range o.order {
		fn(f, o.vals[f])
	}
}
