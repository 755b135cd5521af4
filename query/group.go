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

// GroupBy groups by a single field name.
func (b *Builder) GroupBy(field string, aggregates map[string]Aggregate) *Builder {
	return b.append(Operation{
		Stage: StageGroup, Mergeable: false, Kind: KindGroupBy,
		Payload: GroupByPayload{Field: field, Aggregates: aggregates},
	})
}

// GroupByFields groups by several field names, identifier becomes
// {f1: $f1, f2: $f2, ...} (spec.md §4.5).
func (b *Builder) GroupByFields(fields []string, aggregates map[string]Aggregate) *Builder {
	return b.append(Operation{
		Stage: StageGroup, Mergeable: false, Kind: KindGroupBy,
		Payload: GroupByPayload{Fields: fields, Aggregates: aggregates},
	})
}

// GroupByMap groups by a verbatim identifier mapping, values already
// being backend references.
func (b *Builder) GroupByMap(spec map[string]interface{}, aggregates map[string]Aggregate) *Builder {
	return b.append(Operation{
		Stage: StageGroup, Mergeable: false, Kind: KindGroupBy,
		Payload: GroupByPayload{Map: spec, Aggregates: aggregates},
	})
}

// GroupByRaw splices an opaque backend group stage in verbatim; no
// identifier-rename pass follows it since its shape is not known.
func (b *Builder) GroupByRaw(expr interface{}) *Builder {
	return b.append(Operation{
		Stage: StageGroup, Mergeable: false, Kind: KindGroupByRaw,
		Payload: RawPayload{Expression: "", Bindings: []interface{}{expr}},
	})
}

// Having filters after grouping; it folds exactly like a Where clause
// but is emitted once the group/rename stages precede it in the log.
// Having(field, value) is equality; Having(field, op, value) applies op.
func (b *Builder) Having(field string, args ...interface{}) *Builder {
	return b.whereOp(field, args, KindHaving, KindHaving)
}

// HavingRaw splices an opaque post-group filter fragment in.
func (b *Builder) HavingRaw(expr string, bindings ...interface{}) *Builder {
	return b.append(filterOp(StageMatch, KindHavingRaw, RawPayload{Expression: expr, Bindings: bindings}))
}
