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

package memdriver

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// applyUpdate applies a Mongo-shaped update document to doc in place
// (only $set/$unset are applied; any other update operator is skipped),
// resolving any
// "$[identifier]" filtered-element path segment against arrayFilters
// (spec.md §4.7 seed test 5).
func applyUpdate(doc bson.M, update bson.M, arrayFilters []bson.M) {
	for opName, raw := range update {
		fields, ok := asMap(raw)
		if !ok {
			continue
		}
		switch opName {
		case "$set":
			for path, val := range fields {
				writeFieldPath(doc, strings.Split(path, "."), arrayFilters, val, false)
			}
		case "$unset":
			for path := range fields {
				writeFieldPath(doc, strings.Split(path, "."), arrayFilters, nil, true)
			}
		}
	}
}

func writeFieldPath(container bson.M, parts []string, arrayFilters []bson.M, value interface{}, unset bool) {
	if len(parts) == 0 {
		return
	}
	if len(parts) == 1 {
		if unset {
			delete(container, parts[0])
		} else {
			container[parts[0]] = value
		}
		return
	}

	next, exists := container[parts[0]]
	if !exists {
		return
	}

	if len(parts) >= 2 && isArraySelector(parts[1]) {
		arr := toSlice(next)
		filterKey, wantVal := resolveArrayFilter(parts[1], arrayFilters)
		for _, item := range arr {
			elem, ok := asMap(item)
			if !ok {
				continue
			}
			if filterKey != "" {
				actual, _ := elem[filterKey]
				if !compareEqual(actual, wantVal) {
					continue
				}
			}
			writeFieldPath(elem, parts[2:], arrayFilters, value, unset)
		}
		return
	}

	if m, ok := asMap(next); ok {
		writeFieldPath(m, parts[1:], arrayFilters, value, unset)
	}
}

func isArraySelector(part string) bool {
	return part == "$" || (strings.HasPrefix(part, "$[") && strings.HasSuffix(part, "]"))
}

// resolveArrayFilter finds the arrayFilters entry matching selector
// ("$[elem]" -> identifier "elem") and returns the sub-field it
// constrains plus the value it must equal.
func resolveArrayFilter(selector string, arrayFilters []bson.M) (field string, value interface{}) {
	if selector == "$" || len(selector) < 3 {
		return "", nil
	}
	ident := selector[2 : len(selector)-1]
	prefix := ident + "."
	for _, af := range arrayFilters {
		for k, v := range af {
			if strings.HasPrefix(k, prefix) {
				return strings.TrimPrefix(k, prefix), v
			}
		}
	}
	return "", nil
}
