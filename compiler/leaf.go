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
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/cqerrors"
	"github.com/warlockjs/cascade-sub003/predicate"
	"github.com/warlockjs/cascade-sub003/query"
)

// regexSpec carries a like/startsWith/endsWith pattern plus its case
// sensitivity through to lowering, where it becomes a primitive.Regex
// (grounded in other_examples' bargom-codeai ContainsRegex/StartsWithRegex/
// EndsWithRegex helpers).
type regexSpec struct {
	pattern string
	anchor  string // "", "^", "$"
}

// buildLeaf translates one FilterPayload-bearing operation into a
// predicate.Node. Callback/raw/object kinds are handled by the fold
// loop itself (they need fold-state access); this covers every kind
// whose payload is self-contained.
func buildLeaf(op query.Operation) (predicate.Node, error) {
	switch op.Kind {
	case query.KindWhereEq, query.KindOrWhereEq, query.KindWhereOp, query.KindOrWhereOp:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: p.Operator, Value: p.Value}, nil

	case query.KindWhereIn, query.KindOrWhereIn, query.KindWhereNotIn, query.KindOrWhereNotIn:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: p.Operator, Value: p.Value}, nil

	case query.KindWhereNull, query.KindOrWhereNull, query.KindWhereNotNull, query.KindOrWhereNotNull,
		query.KindWhereFieldExists, query.KindOrWhereFieldExists:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.Exists, Value: p.Value}, nil

	case query.KindWhereBetween, query.KindOrWhereBetween, query.KindWhereDateBetween, query.KindOrWhereDateBetween:
		p := op.Payload.(query.FilterPayload)
		return predicate.And{Children: []predicate.Node{
			predicate.Leaf{Field: p.Field, Operator: predicate.Ge, Value: p.Low},
			predicate.Leaf{Field: p.Field, Operator: predicate.Le, Value: p.High},
		}}, nil

	case query.KindWhereLike, query.KindOrWhereLike:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.Regex, Value: regexSpec{pattern: p.Value.(string), anchor: ""}}, nil
	case query.KindWhereStartsWith, query.KindOrWhereStartsWith:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.Regex, Value: regexSpec{pattern: p.Value.(string), anchor: "^"}}, nil
	case query.KindWhereEndsWith, query.KindOrWhereEndsWith:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.Regex, Value: regexSpec{pattern: p.Value.(string), anchor: "$"}}, nil

	case query.KindWhereSize, query.KindOrWhereSize:
		p := op.Payload.(query.FilterPayload)
		if p.Operator == predicate.Eq || p.Operator == "" {
			return predicate.Leaf{Field: p.Field, Operator: predicate.Size, Value: p.Value}, nil
		}
		return predicate.Raw{Expression: bson.M{"$expr": bson.M{
			mongoOp(p.Operator): bson.A{bson.M{"$size": fieldRef(p.Field)}, p.Value},
		}}}, nil

	case query.KindWhereText, query.KindOrWhereText:
		p := op.Payload.(query.FilterPayload)
		return predicate.Raw{Expression: bson.M{"$text": bson.M{"$search": p.Value}}}, nil

	case query.KindWhereDatePart, query.KindOrWhereDatePart:
		p := op.Payload.(query.FilterPayload)
		extractor, ok := datePartExtractors[p.Part]
		if !ok {
			return nil, cqerrors.NewCompilationError("unknown date part: " + p.Part)
		}
		return predicate.Raw{Expression: bson.M{"$expr": bson.M{
			mongoOp(p.Operator): bson.A{bson.M{extractor: fieldRef(p.Field)}, p.Value},
		}}}, nil

	case query.KindWhereDateBefore, query.KindOrWhereDateBefore:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.Lt, Value: p.Value}, nil
	case query.KindWhereDateAfter, query.KindOrWhereDateAfter:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.Gt, Value: p.Value}, nil

	case query.KindWhereColumn, query.KindOrWhereColumn:
		p := op.Payload.(query.FilterPayload)
		return predicate.Raw{Expression: bson.M{"$expr": bson.M{
			mongoOp(p.Operator): bson.A{fieldRef(p.Field), fieldRef(p.OtherField)},
		}}}, nil

	case query.KindWhereJSONContains, query.KindOrWhereJSONContains:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.JSONContain, Value: p.Value}, nil
	case query.KindWhereJSONLength, query.KindOrWhereJSONLength:
		p := op.Payload.(query.FilterPayload)
		return predicate.Raw{Expression: bson.M{"$expr": bson.M{
			mongoOp(p.Operator): bson.A{bson.M{"$size": fieldRef(p.Field)}, p.Value},
		}}}, nil
	case query.KindWhereJSONType, query.KindOrWhereJSONType:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: predicate.JSONType, Value: p.Value}, nil

	case query.KindHaving:
		p := op.Payload.(query.FilterPayload)
		return predicate.Leaf{Field: p.Field, Operator: p.Operator, Value: p.Value}, nil

	default:
		return nil, cqerrors.NewCompilationError(fmt.Sprintf("match folder: unhandled leaf kind %q", op.Kind))
	}
}

var datePartExtractors = map[string]string{
	"day":   "$dayOfMonth",
	"month": "$month",
	"year":  "$year",
	"time":  "$toLong",
	"date":  "$dateToString",
}

func fieldRef(field string) string {
	return "$" + field
}

// substituteBindings replaces '?' placeholders in expr, in order, with
// the JSON encoding of bindings (spec.md §4.3 rule 8).
func substituteBindings(expr string, bindings []interface{}) (string, error) {
	var b strings.Builder
	bi := 0
	for _, r := range expr {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		if bi >= len(bindings) {
			return "", cqerrors.NewCompilationError("whereRaw: not enough bindings for placeholders in " + expr)
		}
		encoded, err := json.Marshal(bindings[bi])
		if err != nil {
			return "", cqerrors.NewCompilationError("whereRaw: binding not JSON-encodable: " + err.Error())
		}
		b.Write(encoded)
		bi++
	}
	return b.String(), nil
}

func mongoOp(op predicate.Operator) string {
	switch op {
	case predicate.Eq:
		return "$eq"
	case predicate.Ne:
		return "$ne"
	case predicate.Lt:
		return "$lt"
	case predicate.Le:
		return "$lte"
	case predicate.Gt:
		return "$gt"
	case predicate.Ge:
		return "$gte"
	case predicate.In:
		return "$in"
	case predicate.Nin:
		return "$nin"
	case predicate.Exists:
		return "$exists"
	case predicate.Size:
		return "$size"
	case predicate.JSONType:
		return "$type"
	default:
		return "$eq"
	}
}
