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
	"fmt"
	"math/rand"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/plan"
)

// runPipeline interprets p's entries against rows in order, mirroring
// what a real aggregation engine does with the Plan's stage bodies —
// this core only ever needs enough of Mongo's aggregation semantics to
// exercise the Compiler's output, not a general-purpose engine (see
// DESIGN.md).
func runPipeline(rows []bson.M, tables map[string][]bson.M, entries []plan.Entry) ([]bson.M, error) {
	for _, e := range entries {
		body, _ := asMap(e.Body)
		var err error
		switch e.Stage {
		case plan.Match:
			rows = filterRows(rows, body)
		case plan.Project:
			rows = projectRows(rows, body)
		case plan.Sort:
			rows = sortRows(rows, e.Body)
		case plan.Group:
			rows, err = groupRows(rows, body)
		case plan.Lookup:
			rows = lookupRows(rows, tables, body)
		case plan.Limit:
			rows = limitRows(rows, e.Body)
		case plan.Skip:
			rows = skipRows(rows, e.Body)
		case plan.Sample:
			rows = sampleRows(rows, body)
		default:
			return nil, errUnsupportedStage
		}
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func filterRows(rows []bson.M, filter bson.M) []bson.M {
	out := rows[:0:0]
	for _, r := range rows {
		if matchDocument(r, filter) {
			out = append(out, r)
		}
	}
	return out
}

// projectRows applies a $project body: 1/true includes the source
// field verbatim, 0/false/"_id" exclusion drops it, anything else is an
// expression evaluated per document (alias, computed field, or a
// literal/field-ref rename).
func projectRows(rows []bson.M, spec bson.M) []bson.M {
	excludeOnly := true
	for k, v := range spec {
		if k == "_id" {
			continue
		}
		if !isFalsy(v) {
			excludeOnly = false
			break
		}
	}

	out := make([]bson.M, len(rows))
	for i, r := range rows {
		if excludeOnly {
			clone := cloneDoc(r)
			for k, v := range spec {
				if isFalsy(v) {
					delete(clone, k)
				}
			}
			out[i] = clone
			continue
		}
		projected := bson.M{}
		if v, ok := spec["_id"]; !ok || !isFalsy(v) {
			if id, ok := r["_id"]; ok {
				projected["_id"] = id
			}
		}
		for k, v := range spec {
			if k == "_id" {
				continue
			}
			if isFalsy(v) {
				continue
			}
			if isTruthy1(v) {
				if val, ok := r[k]; ok {
					projected[k] = val
				}
				continue
			}
			projected[k] = evalExpr(r, v)
		}
		out[i] = projected
	}
	return out
}

func isFalsy(v interface{}) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case bool:
		return !n
	default:
		return false
	}
}

func isTruthy1(v interface{}) bool {
	switch n := v.(type) {
	case int:
		return n == 1
	case int32:
		return n == 1
	case int64:
		return n == 1
	case bool:
		return n
	default:
		return false
	}
}

func sortRows(rows []bson.M, body interface{}) []bson.M {
	m, ok := asMap(body)
	if !ok {
		return rows
	}
	keys := sortedBsonKeysOf(m)
	out := append([]bson.M(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			dir, _ := asFloat(m[k])
			vi, _ := getPath(out[i], k)
			vj, _ := getPath(out[j], k)
			c := compareOrdered(vi, vj)
			if c == 0 {
				continue
			}
			if dir < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

func sortedBsonKeysOf(m bson.M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func limitRows(rows []bson.M, n interface{}) []bson.M {
	limit, ok := asFloat(n)
	if !ok || int(limit) >= len(rows) {
		return rows
	}
	if limit < 0 {
		return rows
	}
	return rows[:int(limit)]
}

func skipRows(rows []bson.M, n interface{}) []bson.M {
	skip, ok := asFloat(n)
	if !ok || int(skip) >= len(rows) {
		return nil
	}
	if skip < 0 {
		return rows
	}
	return rows[int(skip):]
}

func sampleRows(rows []bson.M, body bson.M) []bson.M {
	size, ok := asFloat(body["size"])
	if !ok || int(size) >= len(rows) {
		return rows
	}
	shuffled := append([]bson.M(nil), rows...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:int(size)]
}

func lookupRows(rows []bson.M, tables map[string][]bson.M, body bson.M) []bson.M {
	from, _ := body["from"].(string)
	localField, _ := body["localField"].(string)
	foreignField, _ := body["foreignField"].(string)
	as, _ := body["as"].(string)
	foreign := tables[from]

	out := make([]bson.M, len(rows))
	for i, r := range rows {
		localVal, _ := getPath(r, localField)
		matches := make(bson.A, 0)
		for _, f := range foreign {
			foreignVal, _ := getPath(f, foreignField)
			if compareEqual(localVal, foreignVal) {
				matches = append(matches, cloneDoc(f))
			}
		}
		clone := cloneDoc(r)
		clone[as] = matches
		out[i] = clone
	}
	return out
}

func groupRows(rows []bson.M, body bson.M) ([]bson.M, error) {
	idSpec := body["_id"]
	type bucket struct {
		id   interface{}
		rows []bson.M
	}
	order := []string{}
	buckets := map[string]*bucket{}
	for _, r := range rows {
		id := evalExpr(r, idSpec)
		key := fmt.Sprint(id)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{id: id}
			buckets[key] = b
			order = append(order, key)
		}
		b.rows = append(b.rows, r)
	}

	out := make([]bson.M, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		doc := bson.M{"_id": b.id}
		for field, accExpr := range body {
			if field == "_id" {
				continue
			}
			acc, ok := asMap(accExpr)
			if !ok {
				continue
			}
			doc[field] = applyAccumulator(b.rows, acc)
		}
		out = append(out, doc)
	}
	return out, nil
}

func applyAccumulator(rows []bson.M, acc bson.M) interface{} {
	for op, arg := range acc {
		switch op {
		case "$sum":
			if n, ok := asFloat(arg); ok && isLiteralNumber(arg) {
				return n * float64(len(rows))
			}
			total := 0.0
			for _, r := range rows {
				if n, ok := asFloat(evalExpr(r, arg)); ok {
					total += n
				}
			}
			return total
		case "$avg":
			total, count := 0.0, 0
			for _, r := range rows {
				if n, ok := asFloat(evalExpr(r, arg)); ok {
					total += n
					count++
				}
			}
			if count == 0 {
				return nil
			}
			return total / float64(count)
		case "$min":
			var min interface{}
			for _, r := range rows {
				v := evalExpr(r, arg)
				if min == nil || compareOrdered(v, min) < 0 {
					min = v
				}
			}
			return min
		case "$max":
			var max interface{}
			for _, r := range rows {
				v := evalExpr(r, arg)
				if max == nil || compareOrdered(v, max) > 0 {
					max = v
				}
			}
			return max
		case "$first":
			if len(rows) == 0 {
				return nil
			}
			return evalExpr(rows[0], arg)
		case "$last":
			if len(rows) == 0 {
				return nil
			}
			return evalExpr(rows[len(rows)-1], arg)
		case "$addToSet":
			seen := make(bson.A, 0)
			for _, r := range rows {
				v := evalExpr(r, arg)
				dup := false
				for _, s := range seen {
					if compareEqual(s, v) {
						dup = true
						break
					}
				}
				if !dup {
					seen = append(seen, v)
				}
			}
			return seen
		default:
			return nil
		}
	}
	return nil
}

func isLiteralNumber(v interface{}) bool {
	_, isMap := asMap(v)
	_, isStr := v.(string)
	return !isMap && !isStr
}
