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

package query

import "github.com/warlockjs/cascade-sub003/predicate"

func filterOp(stage Stage, kind Kind, payload interface{}) Operation {
	return Operation{Stage: stage, Mergeable: true, Kind: kind, Payload: payload}
}

// Where adds an equality filter, or with op supplied, an operator
// comparison: Where("age", 18) == Where("age", "eq", 18).
func (b *Builder) Where(field string, args ...interface{}) *Builder {
	return b.whereOp(field, args, KindWhereEq, KindWhereOp)
}

// OrWhere is Where's or-latching counterpart.
func (b *Builder) OrWhere(field string, args ...interface{}) *Builder {
	return b.whereOp(field, args, KindOrWhereEq, KindOrWhereOp)
}

func (b *Builder) whereOp(field string, args []interface{}, eqKind, opKind Kind) *Builder {
	switch len(args) {
	case 1:
		return b.append(filterOp(StageMatch, eqKind, FilterPayload{Field: field, Operator: predicate.Eq, Value: args[0]}))
	case 2:
		var op predicate.Operator
		switch o := args[0].(type) {
		case predicate.Operator:
			op = o
		case string:
			op = predicate.Operator(o)
		}
		return b.append(filterOp(StageMatch, opKind, FilterPayload{Field: field, Operator: op, Value: args[1]}))
	default:
		return b
	}
}

// WhereMap adds a single conjunction of equality leaves — the object
// clause form, where({k: v, ...}).
func (b *Builder) WhereMap(fields map[string]interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindWhereObject, ObjectFilterPayload{Fields: fields}))
}

// OrWhereMap is WhereMap's or-latching counterpart.
func (b *Builder) OrWhereMap(fields map[string]interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereObject, ObjectFilterPayload{Fields: fields}))
}

func (b *Builder) in(field string, values interface{}, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Operator: predicate.In, Value: values}))
}

func (b *Builder) WhereIn(field string, values interface{}) *Builder   { return b.in(field, values, KindWhereIn) }
func (b *Builder) OrWhereIn(field string, values interface{}) *Builder { return b.in(field, values, KindOrWhereIn) }
func (b *Builder) WhereNotIn(field string, values interface{}) *Builder {
	return b.in(field, values, KindWhereNotIn)
}
func (b *Builder) OrWhereNotIn(field string, values interface{}) *Builder {
	return b.in(field, values, KindOrWhereNotIn)
}

func (b *Builder) null(field string, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Operator: predicate.Exists, Value: false}))
}

func (b *Builder) WhereNull(field string) *Builder     { return b.null(field, KindWhereNull) }
func (b *Builder) OrWhereNull(field string) *Builder    { return b.null(field, KindOrWhereNull) }
func (b *Builder) WhereNotNull(field string) *Builder   { return b.exists(field, KindWhereNotNull) }
func (b *Builder) OrWhereNotNull(field string) *Builder { return b.exists(field, KindOrWhereNotNull) }

func (b *Builder) between(field string, low, high interface{}, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Low: low, High: high}))
}

func (b *Builder) WhereBetween(field string, low, high interface{}) *Builder {
	return b.between(field, low, high, KindWhereBetween)
}
func (b *Builder) OrWhereBetween(field string, low, high interface{}) *Builder {
	return b.between(field, low, high, KindOrWhereBetween)
}

func (b *Builder) like(field, pattern string, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Operator: predicate.Regex, Value: pattern}))
}

func (b *Builder) WhereLike(field, pattern string) *Builder     { return b.like(field, pattern, KindWhereLike) }
func (b *Builder) OrWhereLike(field, pattern string) *Builder   { return b.like(field, pattern, KindOrWhereLike) }
func (b *Builder) WhereStartsWith(field, prefix string) *Builder {
	return b.like(field, prefix, KindWhereStartsWith)
}
func (b *Builder) OrWhereStartsWith(field, prefix string) *Builder {
	return b.like(field, prefix, KindOrWhereStartsWith)
}
func (b *Builder) WhereEndsWith(field, suffix string) *Builder {
	return b.like(field, suffix, KindWhereEndsWith)
}
func (b *Builder) OrWhereEndsWith(field, suffix string) *Builder {
	return b.like(field, suffix, KindOrWhereEndsWith)
}

func (b *Builder) exists(field string, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Operator: predicate.Exists, Value: true}))
}

func (b *Builder) WhereFieldExists(field string) *Builder   { return b.exists(field, KindWhereFieldExists) }
func (b *Builder) OrWhereFieldExists(field string) *Builder { return b.exists(field, KindOrWhereFieldExists) }

func (b *Builder) size(field string, op predicate.Operator, n int, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Operator: op, Value: n}))
}

func (b *Builder) WhereSize(field string, op predicate.Operator, n int) *Builder {
	return b.size(field, op, n, KindWhereSize)
}
func (b *Builder) OrWhereSize(field string, op predicate.Operator, n int) *Builder {
	return b.size(field, op, n, KindOrWhereSize)
}

func (b *Builder) WhereText(search string) *Builder {
	return b.append(filterOp(StageMatch, KindWhereText, FilterPayload{Operator: predicate.Text, Value: search}))
}
func (b *Builder) OrWhereText(search string) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereText, FilterPayload{Operator: predicate.Text, Value: search}))
}

func (b *Builder) datePart(field, part string, op predicate.Operator, value interface{}, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Operator: op, Value: value, Part: part}))
}

func (b *Builder) WhereDay(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "day", op, value, KindWhereDatePart)
}
func (b *Builder) OrWhereDay(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "day", op, value, KindOrWhereDatePart)
}
func (b *Builder) WhereMonth(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "month", op, value, KindWhereDatePart)
}
func (b *Builder) OrWhereMonth(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "month", op, value, KindOrWhereDatePart)
}
func (b *Builder) WhereYear(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "year", op, value, KindWhereDatePart)
}
func (b *Builder) OrWhereYear(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "year", op, value, KindOrWhereDatePart)
}
func (b *Builder) WhereTime(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "time", op, value, KindWhereDatePart)
}
func (b *Builder) OrWhereTime(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "time", op, value, KindOrWhereDatePart)
}
func (b *Builder) WhereDate(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "date", op, value, KindWhereDatePart)
}
func (b *Builder) OrWhereDate(field string, op predicate.Operator, value interface{}) *Builder {
	return b.datePart(field, "date", op, value, KindOrWhereDatePart)
}

func (b *Builder) dateCompare(field string, value interface{}, kind Kind) *Builder {
	return b.append(filterOp(StageMatch, kind, FilterPayload{Field: field, Value: value}))
}

func (b *Builder) WhereDateBefore(field string, value interface{}) *Builder {
	return b.dateCompare(field, value, KindWhereDateBefore)
}
func (b *Builder) OrWhereDateBefore(field string, value interface{}) *Builder {
	return b.dateCompare(field, value, KindOrWhereDateBefore)
}
func (b *Builder) WhereDateAfter(field string, value interface{}) *Builder {
	return b.dateCompare(field, value, KindWhereDateAfter)
}
func (b *Builder) OrWhereDateAfter(field string, value interface{}) *Builder {
	return b.dateCompare(field, value, KindOrWhereDateAfter)
}
func (b *Builder) WhereDateBetween(field string, low, high interface{}) *Builder {
	return b.between(field, low, high, KindWhereDateBetween)
}
func (b *Builder) OrWhereDateBetween(field string, low, high interface{}) *Builder {
	return b.between(field, low, high, KindOrWhereDateBetween)
}

// WhereColumn compares two fields of the same document, e.g.
// WhereColumn("endsAt", "gt", "startsAt").
func (b *Builder) WhereColumn(field string, op predicate.Operator, otherField string) *Builder {
	return b.append(filterOp(StageMatch, KindWhereColumn, FilterPayload{Field: field, Operator: op, OtherField: otherField}))
}
func (b *Builder) OrWhereColumn(field string, op predicate.Operator, otherField string) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereColumn, FilterPayload{Field: field, Operator: op, OtherField: otherField}))
}

func (b *Builder) WhereJSONContains(field string, value interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindWhereJSONContains, FilterPayload{Field: field, Operator: predicate.JSONContain, Value: value}))
}
func (b *Builder) OrWhereJSONContains(field string, value interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereJSONContains, FilterPayload{Field: field, Operator: predicate.JSONContain, Value: value}))
}
func (b *Builder) WhereJSONLength(field string, op predicate.Operator, n int) *Builder {
	return b.append(filterOp(StageMatch, KindWhereJSONLength, FilterPayload{Field: field, Operator: op, Value: n}))
}
func (b *Builder) OrWhereJSONLength(field string, op predicate.Operator, n int) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereJSONLength, FilterPayload{Field: field, Operator: op, Value: n}))
}
func (b *Builder) WhereJSONType(field, typ string) *Builder {
	return b.append(filterOp(StageMatch, KindWhereJSONType, FilterPayload{Field: field, Operator: predicate.JSONType, Value: typ}))
}
func (b *Builder) OrWhereJSONType(field, typ string) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereJSONType, FilterPayload{Field: field, Operator: predicate.JSONType, Value: typ}))
}

// WhereRaw splices an opaque backend fragment in, substituting '?'
// placeholders with bindings in order at fold time.
func (b *Builder) WhereRaw(expr string, bindings ...interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindWhereRaw, RawPayload{Expression: expr, Bindings: bindings}))
}
func (b *Builder) OrWhereRaw(expr string, bindings ...interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereRaw, RawPayload{Expression: expr, Bindings: bindings}))
}

// WhereCallback folds fn's own recorded operations into a single
// predicate node (spec.md §4.3 rule 4). fn receives a fresh sub-Builder;
// it is invoked at fold time, not here.
func (b *Builder) WhereCallback(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindWhereCallback, CallbackPayload{Fn: fn}))
}
func (b *Builder) OrWhereCallback(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereCallback, CallbackPayload{Fn: fn}))
}

// WhereNot wraps fn's folded result in Nor (spec.md §4.3 rule 6).
func (b *Builder) WhereNot(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindWhereNot, CallbackPayload{Fn: fn}))
}
func (b *Builder) OrWhereNot(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereNot, CallbackPayload{Fn: fn}))
}

// WhereExists splices fn's folded result in directly, as if the caller
// had written those conditions inline (spec.md §4.3 rule 7).
func (b *Builder) WhereExists(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindWhereExists, CallbackPayload{Fn: fn}))
}
func (b *Builder) OrWhereExists(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereExists, CallbackPayload{Fn: fn}))
}
func (b *Builder) WhereNotExists(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindWhereNotExists, CallbackPayload{Fn: fn}))
}
func (b *Builder) OrWhereNotExists(fn func(*Builder)) *Builder {
	return b.append(filterOp(StageMatch, KindOrWhereNotExists, CallbackPayload{Fn: fn}))
}
