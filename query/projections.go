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

func projectOp(kind Kind, payload interface{}) Operation {
	return Operation{Stage: StageProject, Mergeable: true, Kind: kind, Payload: payload}
}

// Select includes the given fields — the list form of select.
func (b *Builder) Select(fields ...string) *Builder {
	return b.append(projectOp(KindSelect, SelectPayload{Fields: fields}))
}

// SelectMap is the map form of select: boolean/0/1 include or exclude a
// field, a string value registers an alias (alias -> $field).
func (b *Builder) SelectMap(specs ...FieldSpec) *Builder {
	return b.append(projectOp(KindSelectMap, SelectMapPayload{Specs: specs}))
}

// Deselect excludes the given fields.
func (b *Builder) Deselect(fields ...string) *Builder {
	return b.append(projectOp(KindDeselect, SelectPayload{Fields: fields}))
}

// AddSelect includes fields without removing prior includes.
func (b *Builder) AddSelect(fields ...string) *Builder {
	return b.append(projectOp(KindAddSelect, SelectPayload{Fields: fields}))
}

// SelectRaw projects alias to an opaque backend expression.
func (b *Builder) SelectRaw(alias string, expr interface{}) *Builder {
	return b.append(projectOp(KindSelectRaw, ComputedSelectPayload{Alias: alias, Raw: expr}))
}

// SelectSub projects alias to a $subquery marker holding the collection
// and compiled pipeline of the sub-query built by fn. The compiler does
// not run the sub-query or correlate it with the outer document.
func (b *Builder) SelectSub(alias string, fn func(*Builder)) *Builder {
	return b.append(projectOp(KindSelectSub, ComputedSelectPayload{Alias: alias, SubBuilder: fn}))
}

// SelectAggregate projects alias to a reduction (count/sum/avg/min/max/
// first/last) over field.
func (b *Builder) SelectAggregate(field, op, alias string) *Builder {
	return b.append(projectOp(KindSelectAggregate, ComputedSelectPayload{Alias: alias, Field: field, AggregateOp: op}))
}

// SelectExists projects alias to a boolean: whether field is present.
func (b *Builder) SelectExists(field, alias string) *Builder {
	return b.append(projectOp(KindSelectExists, ComputedSelectPayload{Alias: alias, Field: field}))
}

// SelectCount projects alias to the constant 1 ({$literal: 1}) on every
// document (no field target); it does not count documents.
func (b *Builder) SelectCount(alias string) *Builder {
	return b.append(projectOp(KindSelectCount, ComputedSelectPayload{Alias: alias}))
}

// SelectCase projects alias to an ordered switch with a default.
func (b *Builder) SelectCase(alias string, def interface{}, branches ...CaseBranch) *Builder {
	return b.append(projectOp(KindSelectCase, ComputedSelectPayload{Alias: alias, Branches: branches, Default: def}))
}

// SelectWhen projects alias to a binary conditional.
func (b *Builder) SelectWhen(alias string, cond, then, els interface{}) *Builder {
	return b.append(projectOp(KindSelectWhen, ComputedSelectPayload{Alias: alias, Condition: cond, Then: then, Else: els}))
}

// SelectJSON projects alias to a dotted JSON path (-> normalized to .).
func (b *Builder) SelectJSON(alias, path string) *Builder {
	return b.append(projectOp(KindSelectJSON, ComputedSelectPayload{Alias: alias, Path: path}))
}

// SelectJSONRaw projects alias to an opaque JSON-valued expression.
func (b *Builder) SelectJSONRaw(alias string, expr interface{}) *Builder {
	return b.append(projectOp(KindSelectJSONRaw, ComputedSelectPayload{Alias: alias, Raw: expr}))
}

// SelectConcat projects alias to an ordered concatenation of parts.
func (b *Builder) SelectConcat(alias string, parts ...interface{}) *Builder {
	return b.append(projectOp(KindSelectConcat, ComputedSelectPayload{Alias: alias, Parts: parts}))
}

// SelectCoalesce projects alias to a right-associated null-coalesce
// chain over parts.
func (b *Builder) SelectCoalesce(alias string, parts ...interface{}) *Builder {
	return b.append(projectOp(KindSelectCoalesce, ComputedSelectPayload{Alias: alias, Parts: parts}))
}

// SelectDriverProjection queues mutate to run after every other
// projection operation in the same run, receiving the in-progress
// projection map for in-place mutation (spec.md §4.4, §9).
func (b *Builder) SelectDriverProjection(mutate func(map[string]interface{})) *Builder {
	return b.append(projectOp(KindSelectDriverProjection, DriverProjectionPayload{Mutate: mutate}))
}

// ClearSelect removes every prior project operation from the log.
func (b *Builder) ClearSelect() *Builder {
	b.log.RemoveStage(StageProject)
	return b
}

// SelectAll is ClearSelect's explicit-intent alias.
func (b *Builder) SelectAll() *Builder {
	b.log.RemoveStage(StageProject)
	return b
}
