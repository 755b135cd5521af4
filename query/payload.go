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

// FilterPayload is the payload for every value-based filter kind
// (whereEq, whereIn, whereBetween, whereLike, whereColumn, ...). Which
// fields are populated depends on Kind; the match folder knows the
// shape for each (compiler/match.go).
type FilterPayload struct {
	Field    string
	Operator operator
	Value    interface{}
	Low      interface{} // whereBetween / whereDateBetween lower bound
	High     interface{} // whereBetween / whereDateBetween upper bound
	Part     string      // whereDatePart: "day"|"month"|"year"|"time"|"date"
	OtherField string    // whereColumn: the right-hand field name
}

// ObjectFilterPayload is the payload for where({k: v, ...}) — a single
// conjunction of equality leaves, per spec.md §4.3 rule 3.
type ObjectFilterPayload struct {
	Fields map[string]interface{}
}

// CallbackPayload is the payload for every callback-based filter kind.
// Fn is invoked against a freshly constructed sub-Builder at fold time
// (never at append time) so repeated compilation is deterministic and
// Clone never needs to rebind state beyond copying the func value
// itself (spec.md §4.1, §9).
type CallbackPayload struct {
	Fn func(*Builder)
}

// RawPayload is the payload for whereRaw/orWhereRaw/havingRaw/groupByRaw/
// orderByRaw. For whereRaw/orWhereRaw/havingRaw, placeholders ('?') in
// Expression are substituted with Bindings in order at fold time.
// groupByRaw carries its stage body as Bindings[0] with an empty
// Expression; orderByRaw's Expression is parsed as JSON, unsubstituted.
type RawPayload struct {
	Expression string
	Bindings   []interface{}
}

// SelectPayload is the payload for select/deselect/addSelect: a plain
// list of field names.
type SelectPayload struct {
	Fields []string
}

// FieldSpec is one entry of a select(map) call: Include/Exclude for
// boolean or 0/1 values, or Alias for a string value ("alias" -> field).
type FieldSpec struct {
	Field   string
	Include bool
	Alias   string // non-empty => this is an alias, not a plain include/exclude
}

// SelectMapPayload is the payload for the map form of select.
type SelectMapPayload struct {
	Specs []FieldSpec
}

// ComputedSelectPayload is the payload shared by every computed-field
// projection kind (selectRaw, selectAggregate, selectExists, selectCount,
// selectCase, selectWhen, selectJson, selectJsonRaw, selectConcat,
// selectCoalesce). Which fields apply depends on Kind.
type ComputedSelectPayload struct {
	Alias      string
	Field      string        // selectAggregate/selectExists/selectJson target field
	AggregateOp string       // selectAggregate: "count"|"sum"|"avg"|...
	Raw        interface{}   // selectRaw/selectJsonRaw expression
	SubBuilder func(*Builder) // selectSub callback
	Branches   []CaseBranch  // selectCase
	Default    interface{}   // selectCase default
	Condition  interface{}   // selectWhen condition
	Then       interface{}   // selectWhen then-value
	Else       interface{}   // selectWhen else-value
	Path       string        // selectJson dotted/arrow path
	Parts      []interface{} // selectConcat/selectCoalesce operands
}

// CaseBranch is one WHEN/THEN arm of selectCase.
type CaseBranch struct {
	When interface{}
	Then interface{}
}

// DriverProjectionPayload is the payload for selectDriverProjection: a
// mutator that runs last against the in-progress projection map
// (spec.md §4.4, §9 — "mutators run last").
type DriverProjectionPayload struct {
	Mutate func(map[string]interface{})
}

// SortPayload is the payload for orderBy/orderByDesc.
type SortPayload struct {
	Field     string
	Ascending bool
}

// RandomSortPayload is the payload for orderByRandom.
type RandomSortPayload struct {
	SampleSize int
}

// LimitSkipPayload is the payload for limit/skip.
type LimitSkipPayload struct {
	N int
}

// GroupByPayload is the payload for groupBy. Spec string | []string |
// map[string]interface{} fields-spec; exactly one of Field/Fields/Map
// is set.
type GroupByPayload struct {
	Field      string
	Fields     []string
	Map        map[string]interface{}
	Aggregates map[string]Aggregate
}

// JoinPayload is the payload for join/leftJoin/innerJoin/.../crossJoin.
type JoinPayload struct {
	Table        string
	LocalField   string
	ForeignField string
	As           string
}

// JoinRawPayload is the payload for joinRaw: an opaque lookup stage
// body supplied verbatim.
type JoinRawPayload struct {
	Stage interface{}
}
