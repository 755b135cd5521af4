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

// Package query is the Operation Log and Builder surface: a fluent,
// backend-agnostic recording of a caller's intent. Appending is the only
// effect a Builder method has; lowering the recorded log into a backend
// plan is the Compiler's job (see package compiler).
package query

import "github.com/warlockjs/cascade-sub003/predicate"

// Stage is the lowering bucket an Operation belongs to.
type Stage string

const (
	StageMatch   Stage = "match"
	StageProject Stage = "project"
	StageSort    Stage = "sort"
	StageGroup   Stage = "group"
	StageLookup  Stage = "lookup"
	StageLimit   Stage = "limit"
	StageSkip    Stage = "skip"
	StageWindow  Stage = "window"
)

// Kind names the semantic operation. An unrecognized Kind reaching the
// match or projection folder is a CompilationError; the sort folder
// skips it, and the lookup folder lowers it as a left join.
type Kind string

// Filter kinds (match stage). Each positive kind has an Or* counterpart
// that latches the match folder's or-mode; see compiler/match.go.
const (
	KindWhereEq          Kind = "whereEq"
	KindOrWhereEq        Kind = "orWhereEq"
	KindWhereOp          Kind = "whereOp"
	KindOrWhereOp        Kind = "orWhereOp"
	KindWhereObject      Kind = "whereObject"
	KindOrWhereObject    Kind = "orWhereObject"
	KindWhereIn          Kind = "whereIn"
	KindOrWhereIn        Kind = "orWhereIn"
	KindWhereNotIn       Kind = "whereNotIn"
	KindOrWhereNotIn     Kind = "orWhereNotIn"
	KindWhereNull        Kind = "whereNull"
	KindOrWhereNull      Kind = "orWhereNull"
	KindWhereNotNull     Kind = "whereNotNull"
	KindOrWhereNotNull   Kind = "orWhereNotNull"
	KindWhereBetween     Kind = "whereBetween"
	KindOrWhereBetween   Kind = "orWhereBetween"
	KindWhereLike        Kind = "whereLike"
	KindOrWhereLike      Kind = "orWhereLike"
	KindWhereStartsWith  Kind = "whereStartsWith"
	KindOrWhereStartsWith Kind = "orWhereStartsWith"
	KindWhereEndsWith    Kind = "whereEndsWith"
	KindOrWhereEndsWith  Kind = "orWhereEndsWith"
	KindWhereFieldExists Kind = "whereFieldExists"
	KindOrWhereFieldExists Kind = "orWhereFieldExists"
	KindWhereSize        Kind = "whereSize"
	KindOrWhereSize      Kind = "orWhereSize"
	KindWhereText        Kind = "whereText"
	KindOrWhereText      Kind = "orWhereText"
	KindWhereDatePart    Kind = "whereDatePart"
	KindOrWhereDatePart  Kind = "orWhereDatePart"
	KindWhereDateBefore  Kind = "whereDateBefore"
	KindOrWhereDateBefore Kind = "orWhereDateBefore"
	KindWhereDateAfter   Kind = "whereDateAfter"
	KindOrWhereDateAfter Kind = "orWhereDateAfter"
	KindWhereDateBetween Kind = "whereDateBetween"
	KindOrWhereDateBetween Kind = "orWhereDateBetween"
	KindWhereColumn      Kind = "whereColumn"
	KindOrWhereColumn    Kind = "orWhereColumn"
	KindWhereJSONContains Kind = "whereJsonContains"
	KindOrWhereJSONContains Kind = "orWhereJsonContains"
	KindWhereJSONLength  Kind = "whereJsonLength"
	KindOrWhereJSONLength Kind = "orWhereJsonLength"
	KindWhereJSONType    Kind = "whereJsonType"
	KindOrWhereJSONType  Kind = "orWhereJsonType"
	KindWhereRaw         Kind = "whereRaw"
	KindOrWhereRaw       Kind = "orWhereRaw"

	KindWhereCallback     Kind = "whereCallback"
	KindOrWhereCallback   Kind = "orWhereCallback"
	KindWhereNot          Kind = "whereNot"
	KindOrWhereNot        Kind = "orWhereNot"
	KindWhereExists       Kind = "whereExists"
	KindOrWhereExists     Kind = "orWhereExists"
	KindWhereNotExists    Kind = "whereNotExists"
	KindOrWhereNotExists  Kind = "orWhereNotExists"
)

// Projection kinds (project stage).
const (
	KindSelect                Kind = "select"
	KindSelectMap             Kind = "selectMap"
	KindDeselect              Kind = "deselect"
	KindAddSelect             Kind = "addSelect"
	KindSelectRaw             Kind = "selectRaw"
	KindSelectSub             Kind = "selectSub"
	KindSelectAggregate       Kind = "selectAggregate"
	KindSelectExists          Kind = "selectExists"
	KindSelectCount           Kind = "selectCount"
	KindSelectCase            Kind = "selectCase"
	KindSelectWhen            Kind = "selectWhen"
	KindSelectJSON            Kind = "selectJson"
	KindSelectJSONRaw         Kind = "selectJsonRaw"
	KindSelectConcat          Kind = "selectConcat"
	KindSelectCoalesce        Kind = "selectCoalesce"
	KindSelectDriverProjection Kind = "selectDriverProjection"
	KindClearSelect           Kind = "clearSelect"
	KindSelectAll             Kind = "selectAll"
)

// Sort / limit / skip / window kinds.
const (
	KindOrderBy       Kind = "orderBy"
	KindOrderByDesc   Kind = "orderByDesc"
	KindOrderByRaw    Kind = "orderByRaw"
	KindOrderByRandom Kind = "orderByRandom"
	KindLimit         Kind = "limit"
	KindSkip          Kind = "skip"
)

// Grouping kinds (group stage, plus having which folds as a match run).
const (
	KindGroupBy    Kind = "groupBy"
	KindGroupByRaw Kind = "groupByRaw"
	KindHaving     Kind = "having"
	KindHavingRaw  Kind = "havingRaw"
)

// Join / lookup kinds.
const (
	KindJoin      Kind = "join"
	KindLeftJoin  Kind = "leftJoin"
	KindInnerJoin Kind = "innerJoin"
	KindRightJoin Kind = "rightJoin"
	KindFullJoin  Kind = "fullJoin"
	KindCrossJoin Kind = "crossJoin"
	KindJoinRaw   Kind = "joinRaw"
)

// Operation is one entry in the builder's log: the atomic unit of user
// intent. Payload holds the kind-specific fields; see payload.go for the
// concrete shapes.
type Operation struct {
	Stage     Stage
	Mergeable bool
	Kind      Kind
	Payload   interface{}
}

// Log is the append-only operation sequence. Order is significant:
// semantics depend on order within a stage-run (spec.md §3).
type Log struct {
	ops []Operation
}

// NewLog returns an empty operation log.
func NewLog() *Log {
	return &Log{}
}

// Append records op as the next entry.
func (l *Log) Append(op Operation) {
	l.ops = append(l.ops, op)
}

// Ops returns the recorded operations. Callers must not mutate the
// returned slice; Clone it first if mutation is needed.
func (l *Log) Ops() []Operation {
	return l.ops
}

// Len reports the number of recorded operations.
func (l *Log) Len() int {
	return len(l.ops)
}

// RemoveStage drops every operation whose stage matches s, in place.
// Used by clearSelect/selectAll to discard prior project operations.
func (l *Log) RemoveStage(s Stage) {
	kept := l.ops[:0]
	for _, op := range l.ops {
		if op.Stage != s {
			kept = append(kept, op)
		}
	}
	l.ops = kept
}

// Clone deep-copies the log. Mutating the clone never affects the
// original (spec.md §8 testable property).
func (l *Log) Clone() *Log {
	cloned := make([]Operation, len(l.ops))
	copy(cloned, l.ops)
	return &Log{ops: cloned}
}

// AggregateOp names an abstract aggregate descriptor kind for groupBy's
// aggregates map (spec.md §4.5).
type AggregateOp string

const (
	AggCount    AggregateOp = "count"
	AggSum      AggregateOp = "sum"
	AggAvg      AggregateOp = "avg"
	AggMin      AggregateOp = "min"
	AggMax      AggregateOp = "max"
	AggFirst    AggregateOp = "first"
	AggLast     AggregateOp = "last"
	AggDistinct AggregateOp = "distinct"
	AggFloor    AggregateOp = "floor"
)

// Aggregate is one entry of a groupBy's aggregates map: either an
// abstract descriptor (Op + Field) or a Raw pass-through expression.
type Aggregate struct {
	Op    AggregateOp
	Field string
	Raw   interface{}
}

// operator is re-exported for payload construction convenience.
type operator = predicate.Operator
