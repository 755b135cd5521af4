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
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// getPath reads a dotted field path out of doc, descending through
// nested bson.M/map[string]interface{} values. Missing path segments
// return (nil, false).
func getPath(doc bson.M, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return bson.M(m), true
	default:
		return nil, false
	}
}

// setPath writes value at a dotted field path, creating intermediate
// bson.M levels as needed.
func setPath(doc bson.M, path string, value interface{}) {
	parts := strings.Split(path, ".")
	cur := doc
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return
		}
		next, ok := cur[part].(bson.M)
		if !ok {
			next = bson.M{}
			cur[part] = next
		}
		cur = next
	}
}

// matchDocument reports whether doc satisfies filter, Mongo's implicit
// top-level AND of keys, each either a field path (bare equality or an
// operator map) or a logical operator ($and/$or/$nor), plus $expr and
// $text (spec.md §4.3's leaf operators, lowered to Mongo wire shape by
// the compiler package).
func matchDocument(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range toFilterList(cond) {
				if !matchDocument(doc, sub) {
					return false
				}
			}
		case "$or":
			ok := false
			for _, sub := range toFilterList(cond) {
				if matchDocument(doc, sub) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		case "$nor":
			for _, sub := range toFilterList(cond) {
				if matchDocument(doc, sub) {
					return false
				}
			}
		case "$expr":
			if !truthy(evalExpr(doc, cond)) {
				return false
			}
		case "$text":
			if !matchText(doc, cond) {
				return false
			}
		default:
			actual, _ := getPath(doc, key)
			if !matchCondition(actual, cond) {
				return false
			}
		}
	}
	return true
}

func toFilterList(v interface{}) []bson.M {
	arr, _ := v.(bson.A)
	out := make([]bson.M, 0, len(arr))
	for _, item := range arr {
		if m, ok := asMap(item); ok {
			out = append(out, m)
		}
	}
	return out
}

// matchCondition compares actual against cond, a bare value (equality),
// an operator map, or a primitive.Regex (whereLike/startsWith/endsWith).
func matchCondition(actual interface{}, cond interface{}) bool {
	if rx, ok := cond.(primitive.Regex); ok {
		s, ok := actual.(string)
		return ok && matchRegex(rx, s)
	}
	m, ok := asMap(cond)
	if !ok {
		return compareEqual(actual, cond)
	}
	for op, v := range m {
		if !applyFieldOperator(actual, op, v) {
			return false
		}
	}
	return true
}

func applyFieldOperator(actual interface{}, op string, v interface{}) bool {
	switch op {
	case "$eq":
		return compareEqual(actual, v)
	case "$ne":
		return !compareEqual(actual, v)
	case "$gt":
		return compareOrdered(actual, v) > 0
	case "$gte":
		return compareOrdered(actual, v) >= 0
	case "$lt":
		return compareOrdered(actual, v) < 0
	case "$lte":
		return compareOrdered(actual, v) <= 0
	case "$in":
		return inList(actual, v)
	case "$nin":
		return !inList(actual, v)
	case "$exists":
		want, _ := v.(bool)
		return (actual != nil) == want
	case "$size":
		n, ok := sliceLen(actual)
		return ok && compareEqual(int64(n), v)
	case "$all":
		return allContained(actual, v)
	case "$elemMatch":
		return elemMatch(actual, v)
	default:
		return false
	}
}

func sliceLen(v interface{}) (int, bool) {
	switch a := v.(type) {
	case bson.A:
		return len(a), true
	case []interface{}:
		return len(a), true
	default:
		return 0, false
	}
}

func toSlice(v interface{}) []interface{} {
	switch a := v.(type) {
	case bson.A:
		return a
	case []interface{}:
		return a
	default:
		return nil
	}
}

func inList(actual interface{}, list interface{}) bool {
	for _, item := range toSlice(list) {
		if compareEqual(actual, item) {
			return true
		}
	}
	return false
}

func allContained(actual interface{}, want interface{}) bool {
	haystack := toSlice(actual)
	for _, w := range toSlice(want) {
		found := false
		for _, h := range haystack {
			if compareEqual(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func elemMatch(actual interface{}, cond interface{}) bool {
	for _, item := range toSlice(actual) {
		if matchCondition(item, cond) {
			return true
		}
	}
	return false
}

func matchText(doc bson.M, cond interface{}) bool {
	m, ok := asMap(cond)
	if !ok {
		return false
	}
	search, _ := m["$search"].(string)
	search = strings.ToLower(search)
	for _, v := range doc {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), search) {
			return true
		}
	}
	return false
}

func matchRegex(rx primitive.Regex, s string) bool {
	re, err := rx.Compile()
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}

// evalExpr evaluates a $expr-style aggregation expression against doc:
// a "$field" reference, a literal, or a single-key operator map (the
// shapes compiler/leaf.go's whereColumn/whereDatePart/whereSize lower
// to). Only comparisons, $size and the date-part extractors are
// evaluated; every other operator evaluates to nil, including the
// $literal/$switch/$cond/$concat/$ifNull/$type/$floor expressions the
// projection and group folders can emit.
func evalExpr(doc bson.M, expr interface{}) interface{} {
	switch e := expr.(type) {
	case string:
		if strings.HasPrefix(e, "$") {
			v, _ := getPath(doc, strings.TrimPrefix(e, "$"))
			return v
		}
		return e
	case bson.M:
		for op, arg := range e {
			return evalOperator(doc, op, arg)
		}
		return nil
	case map[string]interface{}:
		return evalExpr(doc, bson.M(e))
	default:
		return e
	}
}

func evalOperator(doc bson.M, op string, arg interface{}) interface{} {
	args := toSlice(arg)
	arg0 := func() interface{} {
		if len(args) > 0 {
			return evalExpr(doc, args[0])
		}
		return evalExpr(doc, arg)
	}

	switch op {
	case "$eq":
		return compareEqual(evalExpr(doc, args[0]), evalExpr(doc, args[1]))
	case "$ne":
		return !compareEqual(evalExpr(doc, args[0]), evalExpr(doc, args[1]))
	case "$gt":
		return compareOrdered(evalExpr(doc, args[0]), evalExpr(doc, args[1])) > 0
	case "$gte":
		return compareOrdered(evalExpr(doc, args[0]), evalExpr(doc, args[1])) >= 0
	case "$lt":
		return compareOrdered(evalExpr(doc, args[0]), evalExpr(doc, args[1])) < 0
	case "$lte":
		return compareOrdered(evalExpr(doc, args[0]), evalExpr(doc, args[1])) <= 0
	case "$size":
		n, _ := sliceLen(arg0())
		return int64(n)
	case "$dayOfMonth", "$month", "$year", "$toLong", "$dateToString":
		return evalDatePart(op, arg0())
	default:
		return nil
	}
}

func evalDatePart(op string, v interface{}) interface{} {
	t, ok := v.(time.Time)
	if !ok {
		if pt, ok := v.(primitive.DateTime); ok {
			t = pt.Time()
		} else {
			return nil
		}
	}
	switch op {
	case "$dayOfMonth":
		return int64(t.Day())
	case "$month":
		return int64(t.Month())
	case "$year":
		return int64(t.Year())
	case "$toLong":
		return t.UnixMilli()
	case "$dateToString":
		return t.Format("2006-01-02")
	default:
		return nil
	}
}
