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
	"github.com/warlockjs/cascade-sub003/predicate"
	"github.com/warlockjs/cascade-sub003/query"
)

// pendingItem is a not-yet-classified sub-predicate. field is set when
// the node is a simple per-field leaf eligible for andMap's
// operator-bag collision merge (spec.md §4.3); it is empty for
// compound nodes (callback results, between ranges, raw fragments)
// which always merge into the AND bucket unkeyed.
type pendingItem struct {
	field string
	node  predicate.Node
}

// matchFolder holds the match folder's three mutable structures plus
// the or-mode latch (spec.md §4.3).
type matchFolder struct {
	andFields *orderedFields // field -> predicate.Node, collision-merged
	andNodes  []predicate.Node
	orList    []predicate.Node
	pending   []pendingItem
	orMode    bool
}

func newMatchFolder() *matchFolder {
	return &matchFolder{andFields: newOrderedFields()}
}

// foldMatchRun runs the match-folder algorithm over a buffer of
// match-stage operations and returns the flat top-level predicate, or
// nil if the buffer folds away to nothing.
func foldMatchRun(ops []query.Operation) (predicate.Node, error) {
	f := newMatchFolder()
	for _, op := range ops {
		if err := f.apply(op); err != nil {
			return nil, err
		}
	}
	f.drainPending(f.orMode)
	return f.emit(), nil
}

func (f *matchFolder) latch() {
	if f.orMode {
		return
	}
	f.orMode = true
	f.drainPending(true)
}

// drainPending moves every pending item into orList (toOr=true) or the
// AND bucket (toOr=false), per spec.md §4.3's "pending drain" rule.
func (f *matchFolder) drainPending(toOr bool) {
	for _, it := range f.pending {
		if toOr {
			f.orList = append(f.orList, it.node)
		} else {
			f.mergeAnd(it)
		}
	}
	f.pending = nil
}

func (f *matchFolder) mergeAnd(it pendingItem) {
	if it.field == "" {
		f.andNodes = append(f.andNodes, it.node)
		return
	}
	existing, ok := f.andFields.get(it.field)
	if !ok {
		f.andFields.set(it.field, it.node)
		return
	}
	merged, ok := mergeBags(existing, it.node)
	if ok {
		f.andFields.set(it.field, merged)
		return
	}
	// Not both operator bags: later value replaces the former.
	f.andFields.set(it.field, it.node)
}

// mergeBags unions two same-field leaves key-by-key when both sides
// are representable as an operator bag (every Leaf is, trivially, a
// single-entry bag). Later operations win per operator (spec.md §4.3).
func mergeBags(existing, incoming predicate.Node) (predicate.Node, bool) {
	el, eok := existing.(predicate.Leaf)
	il, iok := incoming.(predicate.Leaf)
	if !eok || !iok {
		return nil, false
	}
	bag := map[predicate.Operator]interface{}{}
	if eb, ok := el.Value.(map[predicate.Operator]interface{}); ok {
		for k, v := range eb {
			bag[k] = v
		}
	} else {
		bag[el.Operator] = el.Value
	}
	if ib, ok := il.Value.(map[predicate.Operator]interface{}); ok {
		for k, v := range ib {
			bag[k] = v
		}
	} else {
		bag[il.Operator] = il.Value
	}
	if len(bag) == 1 {
		for op, v := range bag {
			return predicate.Leaf{Field: el.Field, Operator: op, Value: v}, true
		}
	}
	return predicate.Leaf{Field: el.Field, Operator: "", Value: bag}, true
}

func (f *matchFolder) pushPending(field string, node predicate.Node) {
	f.pending = append(f.pending, pendingItem{field: field, node: node})
}

// apply dispatches one operation per spec.md §4.3's numbered rules.
func (f *matchFolder) apply(op query.Operation) error {
	switch op.Kind {

	// Rule 3: object clause, handled as (1)/(2) per prefix.
	case query.KindWhereObject:
		return f.applyObject(op, false)
	case query.KindOrWhereObject:
		return f.applyObject(op, true)

	// Rule 4/5: callback clauses.
	case query.KindWhereCallback:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		if f.orMode {
			f.orList = append(f.orList, node)
		} else {
			f.pushPending("", node)
		}
		return nil
	case query.KindOrWhereCallback:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil {
			return err
		}
		f.latch()
		if node == nil {
			return nil
		}
		if or, ok := node.(predicate.Or); ok {
			f.orList = append(f.orList, or.Children...)
		} else {
			f.orList = append(f.orList, node)
		}
		return nil

	// Rule 6: negation.
	case query.KindWhereNot, query.KindWhereNotExists:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		f.pushPending("", predicate.Nor{Children: []predicate.Node{node}})
		return nil
	case query.KindOrWhereNot, query.KindOrWhereNotExists:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil {
			return err
		}
		f.latch()
		if node == nil {
			return nil
		}
		f.orList = append(f.orList, predicate.Nor{Children: []predicate.Node{node}})
		return nil

	// Rule 7: positive existence callback, splices in place.
	case query.KindWhereExists:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		if and, ok := node.(predicate.And); ok {
			for _, c := range and.Children {
				f.pushPending(fieldOf(c), c)
			}
		} else {
			f.pushPending(fieldOf(node), node)
		}
		return nil
	case query.KindOrWhereExists:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil {
			return err
		}
		f.latch()
		if node == nil {
			return nil
		}
		if and, ok := node.(predicate.And); ok {
			f.orList = append(f.orList, and.Children...)
		} else {
			f.orList = append(f.orList, node)
		}
		return nil

	// Rule 8: raw. havingRaw folds identically to whereRaw — it only
	// ever reaches a match run positioned after a group stage.
	case query.KindWhereRaw, query.KindOrWhereRaw, query.KindHavingRaw:
		p := op.Payload.(query.RawPayload)
		substituted, err := substituteBindings(p.Expression, p.Bindings)
		if err != nil {
			return err
		}
		node := predicate.Raw{Expression: substituted}
		if op.Kind == query.KindOrWhereRaw {
			f.latch()
			f.orList = append(f.orList, node)
		} else {
			f.pushPending("", node)
		}
		return nil

	default:
		return f.applySimple(op)
	}
}

// applyObject handles rule 3: an object clause expands into one leaf
// per key, each independently eligible for field-collision merging.
func (f *matchFolder) applyObject(op query.Operation, or bool) error {
	p := op.Payload.(query.ObjectFilterPayload)
	if or {
		f.latch()
	}
	// Iterate in a deterministic order (sorted by field name) — Go map
	// iteration order is not stable and compile(L) must be (spec.md §8).
	for _, field := range sortedFieldNames(p.Fields) {
		leaf := predicate.Leaf{Field: field, Operator: predicate.Eq, Value: p.Fields[field]}
		if or {
			f.orList = append(f.orList, leaf)
		} else {
			f.pushPending(field, leaf)
		}
	}
	return nil
}

// applySimple handles rules 1/2: every FilterPayload-bearing kind not
// already special-cased above.
func (f *matchFolder) applySimple(op query.Operation) error {
	node, err := buildLeaf(op)
	if err != nil {
		return err
	}
	if isOrKind(op.Kind) {
		f.latch()
		f.orList = append(f.orList, node)
		return nil
	}
	f.pushPending(fieldOf(node), node)
	return nil
}

// fieldOf reports the single field a node targets, or "" if it is a
// compound/unkeyed node (And/Or/Nor/Raw).
func fieldOf(n predicate.Node) string {
	if leaf, ok := n.(predicate.Leaf); ok {
		return leaf.Field
	}
	return ""
}

// emit applies spec.md §4.3's emission rules.
func (f *matchFolder) emit() predicate.Node {
	var andChildren []predicate.Node
	f.andFields.each(func(_ string, v interface{}) {
		andChildren = append(andChildren, v.(predicate.Node))
	})
	andChildren = append(andChildren, f.andNodes...)

	hasAnd := len(andChildren) > 0
	hasOr := len(f.orList) > 0

	switch {
	case hasAnd && hasOr:
		return predicate.And{Children: append(andChildren, predicate.Or{Children: f.orList})}
	case hasAnd:
		if len(andChildren) == 1 {
			return andChildren[0]
		}
		return predicate.And{Children: andChildren}
	case hasOr:
		return predicate.Or{Children: f.orList}
	default:
		return nil
	}
}

// isOrKind reports whether kind is an or* latching variant.
func isOrKind(kind query.Kind) bool {
	switch kind {
	case query.KindOrWhereEq, query.KindOrWhereOp, query.KindOrWhereIn, query.KindOrWhereNotIn,
		query.KindOrWhereNull, query.KindOrWhereNotNull, query.KindOrWhereBetween, query.KindOrWhereLike,
		query.KindOrWhereStartsWith, query.KindOrWhereEndsWith, query.KindOrWhereFieldExists,
		query.KindOrWhereSize, query.KindOrWhereText, query.KindOrWhereDatePart, query.KindOrWhereDateBefore,
		query.KindOrWhereDateAfter, query.KindOrWhereDateBetween, query.KindOrWhereColumn,
		query.KindOrWhereJSONContains, query.KindOrWhereJSONLength, query.KindOrWhereJSONType:
		return true
	default:
		return false
	}
}

// foldSubBuilder implements §4.3.1: run fn against a fresh sub-Builder,
// then fold its own match operations — short-circuiting to a pure-Or
// combination if it contains any orWhere*, otherwise an AND bag.
func foldSubBuilder(fn func(*query.Builder)) (predicate.Node, error) {
	sub := query.New("")
	fn(sub)
	ops := matchOpsOf(sub.Log().Ops())
	if len(ops) == 0 {
		return nil, nil
	}
	if anyOrWhere(ops) {
		children := make([]predicate.Node, 0, len(ops))
		for _, op := range ops {
			node, err := foldSingle(op)
			if err != nil {
				return nil, err
			}
			if node != nil {
				children = append(children, node)
			}
		}
		if len(children) == 0 {
			return nil, nil
		}
		return predicate.Or{Children: children}, nil
	}
	return foldMatchRun(ops)
}

// foldSingle folds exactly one operation to its own node, recursing
// through callbacks — used by the sub-builder's pure-Or short-circuit,
// which must fold "including nested callbacks" (spec.md §4.3.1) without
// applying the and/or bucket machinery to siblings.
func foldSingle(op query.Operation) (predicate.Node, error) {
	switch op.Kind {
	case query.KindWhereCallback, query.KindOrWhereCallback, query.KindWhereExists, query.KindOrWhereExists:
		return foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
	case query.KindWhereNot, query.KindOrWhereNot, query.KindWhereNotExists, query.KindOrWhereNotExists:
		node, err := foldSubBuilder(op.Payload.(query.CallbackPayload).Fn)
		if err != nil || node == nil {
			return nil, err
		}
		return predicate.Nor{Children: []predicate.Node{node}}, nil
	case query.KindWhereObject, query.KindOrWhereObject:
		p := op.Payload.(query.ObjectFilterPayload)
		var children []predicate.Node
		for _, field := range sortedFieldNames(p.Fields) {
			children = append(children, predicate.Leaf{Field: field, Operator: predicate.Eq, Value: p.Fields[field]})
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return predicate.And{Children: children}, nil
	case query.KindWhereRaw, query.KindOrWhereRaw:
		p := op.Payload.(query.RawPayload)
		substituted, err := substituteBindings(p.Expression, p.Bindings)
		if err != nil {
			return nil, err
		}
		return predicate.Raw{Expression: substituted}, nil
	default:
		return buildLeaf(op)
	}
}

func matchOpsOf(ops []query.Operation) []query.Operation {
	out := make([]query.Operation, 0, len(ops))
	for _, op := range ops {
		if op.Stage == query.StageMatch {
			out = append(out, op)
		}
	}
	return out
}

func anyOrWhere(ops []query.Operation) bool {
	for _, op := range ops {
		if isOrKind(op.Kind) {
			return true
		}
		switch op.Kind {
		case query.KindOrWhereObject, query.KindOrWhereCallback, query.KindOrWhereNot,
			query.KindOrWhereExists, query.KindOrWhereNotExists, query.KindOrWhereRaw:
			return true
		}
	}
	return false
}

func sortedFieldNames(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Simple insertion sort: these maps are small (object-clause arity),
	// and avoids importing "sort" solely for this.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

