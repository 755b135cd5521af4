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
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/cqerrors"
	"github.com/warlockjs/cascade-sub003/query"
)

// foldProjectRun walks a buffer of project-stage operations and
// returns the lowered $project body, or nil if it folds away to
// nothing (spec.md §4.4).
func foldProjectRun(ops []query.Operation) (bson.M, error) {
	fields := newOrderedFields()
	var mutators []func(map[string]interface{})

	for _, op := range ops {
		if op.Kind == query.KindSelectDriverProjection {
			mutators = append(mutators, op.Payload.(query.DriverProjectionPayload).Mutate)
			continue
		}
		if err := applyProjectOp(fields, op); err != nil {
			return nil, err
		}
	}

	out := bson.M{}
	fields.each(func(field string, v interface{}) { out[field] = v })
	for _, mutate := range mutators {
		mutate(map[string]interface{}(out))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func applyProjectOp(fields *orderedFields, op query.Operation) error {
	switch op.Kind {
	case query.KindSelect, query.KindAddSelect:
		for _, f := range op.Payload.(query.SelectPayload).Fields {
			fields.set(f, 1)
		}
	case query.KindDeselect:
		for _, f := range op.Payload.(query.SelectPayload).Fields {
			fields.set(f, 0)
		}
	case query.KindSelectMap:
		for _, spec := range op.Payload.(query.SelectMapPayload).Specs {
			if spec.Alias != "" {
				fields.set(spec.Alias, fieldRef(spec.Field))
				continue
			}
			if spec.Include {
				fields.set(spec.Field, 1)
			} else {
				fields.set(spec.Field, 0)
			}
		}
	case query.KindSelectRaw:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, p.Raw)
	case query.KindSelectSub:
		p := op.Payload.(query.ComputedSelectPayload)
		sub := query.New("")
		p.SubBuilder(sub)
		subPlan, err := Compile(sub, Options{})
		if err != nil {
			return err
		}
		fields.set(p.Alias, bson.M{"$subquery": bson.M{"collection": sub.Table(), "pipeline": subPlan.Pipeline()}})
	case query.KindSelectAggregate:
		p := op.Payload.(query.ComputedSelectPayload)
		expr, err := lowerAggregateExpr(p.AggregateOp, p.Field)
		if err != nil {
			return err
		}
		fields.set(p.Alias, expr)
	case query.KindSelectExists:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, bson.M{"$ne": bson.A{bson.M{"$type": fieldRef(p.Field)}, "missing"}})
	case query.KindSelectCount:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, bson.M{"$literal": 1})
	case query.KindSelectCase:
		p := op.Payload.(query.ComputedSelectPayload)
		branches := make(bson.A, 0, len(p.Branches))
		for _, br := range p.Branches {
			branches = append(branches, bson.M{"case": br.When, "then": br.Then})
		}
		fields.set(p.Alias, bson.M{"$switch": bson.M{"branches": branches, "default": p.Default}})
	case query.KindSelectWhen:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, bson.M{"$cond": bson.M{"if": p.Condition, "then": p.Then, "else": p.Else}})
	case query.KindSelectJSON:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, fieldRef(strings.ReplaceAll(p.Path, "->", ".")))
	case query.KindSelectJSONRaw:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, p.Raw)
	case query.KindSelectConcat:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, bson.M{"$concat": bson.A(p.Parts)})
	case query.KindSelectCoalesce:
		p := op.Payload.(query.ComputedSelectPayload)
		fields.set(p.Alias, coalesceChain(p.Parts))
	default:
		return cqerrors.NewCompilationError("projection folder: unhandled kind " + string(op.Kind))
	}
	return nil
}

// lowerAggregateExpr lowers a per-document array reduction (spec.md
// §4.4's table): Mongo's $sum/$avg/$min/$max/$first/$last accumulator
// operators double as plain array-expression operators outside $group.
func lowerAggregateExpr(op, field string) (interface{}, error) {
	switch op {
	case "count":
		return bson.M{"$size": bson.M{"$ifNull": bson.A{fieldRef(field), bson.A{}}}}, nil
	case "sum", "avg", "min", "max", "first", "last":
		return bson.M{"$" + op: fieldRef(field)}, nil
	default:
		return nil, cqerrors.NewCompilationError("selectAggregate: unknown op " + op)
	}
}

// coalesceChain builds a right-associated $ifNull chain over parts.
func coalesceChain(parts []interface{}) interface{} {
	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return bson.M{"$ifNull": bson.A{parts[0], coalesceChain(parts[1:])}}
}
