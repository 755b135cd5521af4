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

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/cqerrors"
	"github.com/warlockjs/cascade-sub003/query"
)

// groupResult is the group stage body plus the synthesized rename
// project that must immediately follow it (spec.md §4.5), nil when the
// grouping spec carried no named fields.
type groupResult struct {
	groupBody   bson.M
	renameBody  bson.M
}

// foldGroupOp lowers a single groupBy/groupByRaw operation.
func foldGroupOp(op query.Operation) (groupResult, error) {
	if op.Kind == query.KindGroupByRaw {
		raw := op.Payload.(query.RawPayload).Bindings[0]
		var m bson.M
		switch v := raw.(type) {
		case bson.M:
			m = v
		case map[string]interface{}:
			m = bson.M(v)
		}
		return groupResult{groupBody: m}, nil
	}

	p := op.Payload.(query.GroupByPayload)
	body := bson.M{}
	rename := bson.M{"_id": 0}
	haveNamed := false

	switch {
	case p.Field != "":
		body["_id"] = fieldRef(p.Field)
		rename[p.Field] = fieldRef("_id")
		haveNamed = true
	case len(p.Fields) > 0:
		idSpec := bson.M{}
		for _, f := range p.Fields {
			idSpec[f] = fieldRef(f)
			rename[f] = fieldRef("_id." + f)
		}
		body["_id"] = idSpec
		haveNamed = true
	case len(p.Map) > 0:
		idSpec := bson.M{}
		for _, f := range sortedFieldNames(p.Map) {
			idSpec[f] = p.Map[f]
			rename[f] = fieldRef("_id." + f)
		}
		body["_id"] = idSpec
		haveNamed = true
	default:
		body["_id"] = nil
	}

	for _, alias := range sortedAggregateNames(p.Aggregates) {
		expr, err := lowerAggregate(p.Aggregates[alias])
		if err != nil {
			return groupResult{}, err
		}
		body[alias] = expr
		if haveNamed {
			rename[alias] = 1
		}
	}

	if !haveNamed {
		return groupResult{groupBody: body}, nil
	}
	return groupResult{groupBody: body, renameBody: rename}, nil
}

// lowerAggregate lowers one groupBy aggregate descriptor (spec.md §4.5).
func lowerAggregate(a query.Aggregate) (interface{}, error) {
	if a.Raw != nil {
		return a.Raw, nil
	}
	switch a.Op {
	case query.AggCount:
		return bson.M{"$sum": 1}, nil
	case query.AggSum:
		return bson.M{"$sum": fieldRef(a.Field)}, nil
	case query.AggAvg:
		return bson.M{"$avg": fieldRef(a.Field)}, nil
	case query.AggMin:
		return bson.M{"$min": fieldRef(a.Field)}, nil
	case query.AggMax:
		return bson.M{"$max": fieldRef(a.Field)}, nil
	case query.AggFirst:
		return bson.M{"$first": fieldRef(a.Field)}, nil
	case query.AggLast:
		return bson.M{"$last": fieldRef(a.Field)}, nil
	case query.AggDistinct:
		return bson.M{"$addToSet": fieldRef(a.Field)}, nil
	case query.AggFloor:
		return bson.M{"$first": bson.M{"$floor": fieldRef(a.Field)}}, nil
	default:
		if a.Field == "" {
			return nil, cqerrors.NewCompilationError("groupBy: aggregate descriptor missing field")
		}
		return nil, cqerrors.NewCompilationError("groupBy: unknown aggregate op " + string(a.Op))
	}
}

func sortedAggregateNames(m map[string]query.Aggregate) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
